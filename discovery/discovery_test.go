package discovery

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/fearthecowboy/toolsight/definition"
)

func writeFakeCompiler(t *testing.T, dir, name, banner string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(banner), 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestDiscoverFindsAndVerifiesCandidate(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix executable bit semantics")
	}
	dir := t.TempDir()
	path := writeFakeCompiler(t, dir, "cc", "clang version 17.0.6 (tag)")

	def := &definition.File{
		Name:         "clang",
		Intellisense: map[string]any{},
		SourcePath:   "toolset.clang.json",
	}
	setDiscoverBlock(def, []string{"cc"}, []string{dir},
		map[string]any{
			`clang version (?P<version>[0-9.]+)`: map[string]any{
				"version": "${version}",
			},
		})

	found, err := Discover(context.Background(), def)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("found %d toolsets, want 1", len(found))
	}
	if found[0].CompilerPath != path {
		t.Fatalf("CompilerPath = %q, want %q", found[0].CompilerPath, path)
	}
	if v, _ := found[0].Definition.Intellisense["version"]; v != "17.0.6" {
		t.Fatalf("version = %v, want 17.0.6", v)
	}
}

func TestDiscoverSkipsCandidateOnMatchFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix executable bit semantics")
	}
	dir := t.TempDir()
	writeFakeCompiler(t, dir, "cc", "not a clang binary")

	def := &definition.File{Name: "clang", Intellisense: map[string]any{}}
	setDiscoverBlock(def, []string{"cc"}, []string{dir},
		map[string]any{
			`clang version (?P<version>[0-9.]+)`: map[string]any{"version": "${version}"},
		})

	found, err := Discover(context.Background(), def)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(found) != 0 {
		t.Fatalf("found %v, want none", found)
	}
}

func TestDiscoverMatchRequiresAllEntriesWithoutOneof(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix executable bit semantics")
	}
	dir := t.TempDir()
	writeFakeCompiler(t, dir, "cc", "clang version 17.0.6 (tag)")

	def := &definition.File{Name: "clang", Intellisense: map[string]any{}}
	setDiscoverBlock(def, []string{"cc"}, []string{dir},
		map[string]any{
			`clang version (?P<version>[0-9.]+)`: map[string]any{"version": "${version}"},
			`this-string-never-appears`:           map[string]any{"bogus": "true"},
		})

	found, err := Discover(context.Background(), def)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(found) != 0 {
		t.Fatalf("found %v, want none: a non-oneof match block with one failing entry must reject the candidate", found)
	}
}

func TestDiscoverMatchTranslatesNamedCaptureSyntax(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix executable bit semantics")
	}
	dir := t.TempDir()
	writeFakeCompiler(t, dir, "cc", "clang version 17.0.6 (tag)")

	def := &definition.File{Name: "clang", Intellisense: map[string]any{}}
	setDiscoverBlock(def, []string{"cc"}, []string{dir},
		map[string]any{
			`clang version (?<version>[0-9.]+)`: map[string]any{"version": "${version}"},
		})

	found, err := Discover(context.Background(), def)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("found %d toolsets, want 1", len(found))
	}
	if v, _ := found[0].Definition.Intellisense["version"]; v != "17.0.6" {
		t.Fatalf("version = %v, want 17.0.6", v)
	}
}

// setDiscoverBlock populates the unexported discover fields of def
// directly, exercising action.Parse/DiscoverActions the same way a
// loaded toolset.*.json would.
func setDiscoverBlock(def *definition.File, binary, locations []string, matchBlock map[string]any) {
	binaryAny := make([]any, len(binary))
	for i, b := range binary {
		binaryAny[i] = b
	}
	locAny := make([]any, len(locations))
	for i, l := range locations {
		locAny[i] = l
	}
	def.SetDiscoverBlock([]string{"binary", "locations", "match"}, map[string]any{
		"binary":    binaryAny,
		"locations": locAny,
		"match":     matchBlock,
	})
}
