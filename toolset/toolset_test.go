package toolset

import (
	"testing"

	"github.com/fearthecowboy/toolsight/definition"
	"github.com/fearthecowboy/toolsight/intellisense"
)

func TestNameComposesIdentity(t *testing.T) {
	def := &definition.File{Name: "gcc", Version: "13.2.0", Intellisense: map[string]any{
		"architecture":     "x64",
		"hostArchitecture": "x64",
	}}
	ts := New("/usr/bin/gcc", def, nil)
	want := "gcc/13.2.0/x64/x64"
	if got := ts.Name(); got != want {
		t.Fatalf("Name() = %q, want %q", got, want)
	}
}

func TestCachesRoundTrip(t *testing.T) {
	def := &definition.File{Name: "gcc", Version: "13.2.0", Intellisense: map[string]any{}}
	ts := New("/usr/bin/gcc", def, nil)

	ts.StoreQuery("gcc -dumpversion", "13.2.0\n")
	if got, ok := ts.CachedQuery("gcc -dumpversion"); !ok || got != "13.2.0\n" {
		t.Fatalf("CachedQuery = %q, %v", got, ok)
	}

	cfg := intellisense.New()
	cfg["language"] = "c"
	ts.StoreAnalysis("argv-key", cfg)
	got, ok := ts.CachedAnalysis("argv-key")
	if !ok || got["language"] != "c" {
		t.Fatalf("CachedAnalysis = %v, %v", got, ok)
	}
}
