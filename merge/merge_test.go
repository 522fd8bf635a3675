package merge_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/fearthecowboy/toolsight/merge"
)

func TestMergeScalarOverwrite(t *testing.T) {
	target := map[string]any{"standard": "C++14"}
	got := merge.Merge(target, map[string]any{"standard": "C++17"})
	want := map[string]any{"standard": "C++17"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeListAppend(t *testing.T) {
	target := map[string]any{"include": []any{"/a"}}
	got := merge.Merge(target, map[string]any{"include": []any{"/b"}})
	want := map[string]any{"include": []any{"/a", "/b"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
	}
}

func TestMergePrependList(t *testing.T) {
	target := map[string]any{"include": []any{"/a"}}
	got := merge.Merge(target, map[string]any{"prepend:include": []any{"/b"}})
	want := map[string]any{"include": []any{"/b", "/a"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeRemoveListElement(t *testing.T) {
	target := map[string]any{"include": []any{"/a", "/b"}}
	got := merge.Merge(target, map[string]any{"remove:include": []any{"/a"}})
	want := map[string]any{"include": []any{"/b"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeRemoveScalarKey(t *testing.T) {
	target := map[string]any{"standard": "C++17"}
	got := merge.Merge(target, map[string]any{"remove:standard": nil})
	if _, ok := got["standard"]; ok {
		t.Errorf("Merge() kept standard key; want removed")
	}
}

func TestMergeNullDeletesKey(t *testing.T) {
	target := map[string]any{"standard": "C++17"}
	got := merge.Merge(target, map[string]any{"standard": nil})
	if _, ok := got["standard"]; ok {
		t.Errorf("Merge() kept standard key; want removed")
	}
}

func TestMergeStringPromotedToList(t *testing.T) {
	target := map[string]any{"include": "/a"}
	got := merge.Merge(target, map[string]any{"include": []any{"/b"}})
	want := map[string]any{"include": []any{"/a", "/b"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeRecurse(t *testing.T) {
	target := map[string]any{"include": map[string]any{"paths": []any{"/a"}}}
	got := merge.Merge(target, map[string]any{"include": map[string]any{"systemPaths": []any{"/s"}}})
	want := map[string]any{"include": map[string]any{
		"paths":       []any{"/a"},
		"systemPaths": []any{"/s"},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
	}
}

// Merge is idempotent on scalar- and map-shaped sources: list fields
// accumulate duplicates across repeated merges, since deduplication
// happens later during path validation, so idempotency is only
// claimed, and tested, for directive-free sources with no list values.
func TestMergeIdempotentForScalarSource(t *testing.T) {
	target := map[string]any{"language": "c"}
	source := map[string]any{"standard": "C++17", "include": map[string]any{"builtInPaths": "/usr/include"}}
	once := merge.Merge(merge.Clone(target).(map[string]any), source)
	twice := merge.Merge(merge.Clone(once).(map[string]any), source)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("merge is not idempotent on repeated identical scalar source (-once +twice):\n%s", diff)
	}
}
