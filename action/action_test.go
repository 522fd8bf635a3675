package action_test

import (
	"testing"

	"github.com/fearthecowboy/toolsight/action"
)

func TestParseOrdersByPriority(t *testing.T) {
	keys := []string{"match:oneof", "expression:priority=1,optional"}
	values := map[string]any{
		"match:oneof":                    "m",
		"expression:priority=1,optional": "e",
	}
	entries := action.Parse(keys, values, action.DiscoverTable)
	if len(entries) != 2 {
		t.Fatalf("len(entries)=%d; want 2", len(entries))
	}
	if entries[0].Action != "expression" || entries[0].Priority != 1 {
		t.Errorf("entries[0]=%+v; want expression priority=1 first", entries[0])
	}
	if !entries[1].HasFlag("oneof") {
		t.Errorf("entries[1] missing oneof flag: %+v", entries[1])
	}
}

func TestParseUnknownActionDropped(t *testing.T) {
	keys := []string{"bogus:flag"}
	values := map[string]any{"bogus:flag": "x"}
	entries := action.Parse(keys, values, action.DiscoverTable)
	if len(entries) != 0 {
		t.Errorf("entries=%v; want empty", entries)
	}
}

func TestParseIllegalFlagDropped(t *testing.T) {
	keys := []string{"match:bogusflag"}
	values := map[string]any{"match:bogusflag": "x"}
	entries := action.Parse(keys, values, action.DiscoverTable)
	if len(entries) != 1 {
		t.Fatalf("len(entries)=%d; want 1", len(entries))
	}
	if entries[0].HasFlag("bogusflag") {
		t.Errorf("entries[0] kept illegal flag: %+v", entries[0])
	}
}

func TestParsePositionalPriorityDefault(t *testing.T) {
	keys := []string{"task", "command", "query"}
	values := map[string]any{"task": "t", "command": "c", "query": "q"}
	entries := action.Parse(keys, values, action.AnalysisTable)
	for i, e := range entries {
		if e.Priority != i {
			t.Errorf("entries[%d].Priority=%d; want %d", i, e.Priority, i)
		}
	}
}

func TestLanguageSkipped(t *testing.T) {
	cEntry := action.Entry{Flags: map[string]string{"c": "true"}}
	cppEntry := action.Entry{Flags: map[string]string{"cpp": "true"}}
	unflagged := action.Entry{}

	if action.LanguageSkipped(cEntry, "c") {
		t.Errorf("c-flagged entry skipped for language=c")
	}
	if !action.LanguageSkipped(cEntry, "cpp") {
		t.Errorf("c-flagged entry not skipped for language=cpp")
	}
	if action.LanguageSkipped(cppEntry, "c++") {
		t.Errorf("cpp-flagged entry skipped for language=c++")
	}
	if action.LanguageSkipped(unflagged, "c") {
		t.Errorf("unflagged entry skipped")
	}
}

func TestBlockStringsList(t *testing.T) {
	got := action.BlockStrings([]any{"a", "b"})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("BlockStrings = %v", got)
	}
}

func TestBlockStringsSingle(t *testing.T) {
	got := action.BlockStrings("solo")
	if len(got) != 1 || got[0] != "solo" {
		t.Errorf("BlockStrings = %v", got)
	}
}

func TestCommandPrefixMatchesQuer(t *testing.T) {
	keys := []string{"query:c"}
	values := map[string]any{"query:c": "x"}
	entries := action.Parse(keys, values, action.AnalysisTable)
	if len(entries) != 1 || entries[0].Action != "query" {
		t.Errorf("entries=%+v; want single query action", entries)
	}
}
