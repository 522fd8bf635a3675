package analysis

import (
	"context"
	"testing"

	"github.com/fearthecowboy/toolsight/action"
	"github.com/fearthecowboy/toolsight/render"
)

func bareResolver() render.Resolver {
	return render.Base(render.BaseOptions{})
}

func TestRunCommandMergesAndConsumes(t *testing.T) {
	entry := action.Entry{
		Block: map[string]any{
			`-I${value}`: map[string]any{
				"include": map[string]any{"paths": []any{"${value}"}},
			},
		},
	}
	cfg := map[string]any{}
	kept := runCommand(context.Background(), entry, []string{"-Ifoo", "-c", "a.c"}, cfg, bareResolver())

	if len(kept) != 2 || kept[0] != "-c" || kept[1] != "a.c" {
		t.Errorf("kept = %v, want [-c a.c]", kept)
	}
	include, _ := cfg["include"].(map[string]any)
	paths, _ := include["paths"].([]any)
	if len(paths) != 1 || paths[0] != "foo" {
		t.Errorf("include.paths = %v, want [foo]", paths)
	}
}

func TestRunCommandNoConsumeKeepsTokens(t *testing.T) {
	entry := action.Entry{
		Flags: map[string]string{"no_consume": "true"},
		Block: map[string]any{
			`-std=${value}`: map[string]any{"standard": "${value}"},
		},
	}
	cfg := map[string]any{}
	kept := runCommand(context.Background(), entry, []string{"-std=c++17"}, cfg, bareResolver())

	if len(kept) != 1 || kept[0] != "-std=c++17" {
		t.Errorf("kept = %v, want [-std=c++17]", kept)
	}
	if cfg["standard"] != "c++17" {
		t.Errorf("standard = %v, want c++17", cfg["standard"])
	}
}

func TestRunCommandMultiTokenChain(t *testing.T) {
	entry := action.Entry{
		Block: map[string]any{
			`-isystem;${value}`: map[string]any{
				"include": map[string]any{"systemPaths": []any{"${value}"}},
			},
		},
	}
	cfg := map[string]any{}
	kept := runCommand(context.Background(), entry, []string{"-isystem", "/usr/include", "a.c"}, cfg, bareResolver())

	if len(kept) != 1 || kept[0] != "a.c" {
		t.Errorf("kept = %v, want [a.c]", kept)
	}
	include, _ := cfg["include"].(map[string]any)
	paths, _ := include["systemPaths"].([]any)
	if len(paths) != 1 || paths[0] != "/usr/include" {
		t.Errorf("include.systemPaths = %v, want [/usr/include]", paths)
	}
}

func TestRunCommandTranslatesNamedCaptureSyntax(t *testing.T) {
	entry := action.Entry{
		Block: map[string]any{
			`-I(?<p>.+)`: map[string]any{
				"include": map[string]any{"paths": []any{"${p}"}},
			},
		},
	}
	cfg := map[string]any{}
	kept := runCommand(context.Background(), entry, []string{"-Ifoo", "-c", "a.c"}, cfg, bareResolver())

	if len(kept) != 2 || kept[0] != "-c" || kept[1] != "a.c" {
		t.Errorf("kept = %v, want [-c a.c]", kept)
	}
	include, _ := cfg["include"].(map[string]any)
	paths, _ := include["paths"].([]any)
	if len(paths) != 1 || paths[0] != "foo" {
		t.Errorf("include.paths = %v, want [foo]", paths)
	}
}

func TestRunCommandNoMatchPassesThrough(t *testing.T) {
	entry := action.Entry{Block: map[string]any{`-Z${value}`: map[string]any{}}}
	cfg := map[string]any{}
	kept := runCommand(context.Background(), entry, []string{"-c", "a.c"}, cfg, bareResolver())
	if len(kept) != 2 {
		t.Errorf("kept = %v, want passthrough", kept)
	}
}
