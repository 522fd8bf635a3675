package intellisense

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fearthecowboy/toolsight/render"
)

func constResolver() render.Resolver {
	return render.ResolverFunc(func(ctx context.Context, prefix, expr string) (any, bool) {
		if prefix == "env" && expr == "home" {
			return "/home/example", true
		}
		return nil, false
	})
}

func TestValidatePathsDropsNonexistentAndDedupes(t *testing.T) {
	dir := t.TempDir()
	keep := filepath.Join(dir, "keep")
	if err := os.Mkdir(keep, 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	cfg := New()
	cfg.Set("include.paths", []any{keep, "/does/not/exist", keep})
	if err := ValidatePaths(context.Background(), cfg, constResolver()); err != nil {
		t.Fatalf("ValidatePaths: %v", err)
	}
	got, _ := cfg.Get("include.paths")
	list, ok := got.([]any)
	if !ok || len(list) != 1 || list[0] != keep {
		t.Fatalf("include.paths = %v, want [%s]", got, keep)
	}
}

func TestPostProcessSkippedWithoutSeededList(t *testing.T) {
	cfg := New()
	cfg["macros"] = map[string]any{"X": "1"}
	PostProcess(cfg)
	if _, ok := cfg["parserArguments"]; ok {
		t.Fatalf("parserArguments should not appear without a seeded list")
	}
}

func TestPostProcessBuildsArguments(t *testing.T) {
	cfg := New()
	cfg["parserArguments"] = []any{}
	cfg["macros"] = map[string]any{"X": "1"}
	cfg["include"] = map[string]any{
		"systemPaths": []any{"/s"},
		"paths":       []any{"/p"},
	}
	PostProcess(cfg)
	want := []any{"-DX=1", "--sys_include", "/s", "--include_directory", "/p"}
	got, _ := cfg["parserArguments"].([]any)
	if len(got) != len(want) {
		t.Fatalf("parserArguments = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("parserArguments[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestGetSetDottedPath(t *testing.T) {
	cfg := New()
	cfg.Set("include.paths", []any{"/a"})
	v, ok := cfg.Get("include.paths")
	if !ok {
		t.Fatalf("expected include.paths to be set")
	}
	list, _ := v.([]any)
	if len(list) != 1 || list[0] != "/a" {
		t.Fatalf("got %v", v)
	}
}
