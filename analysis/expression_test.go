package analysis

import (
	"context"
	"testing"

	"github.com/fearthecowboy/toolsight/action"
)

func TestRunExpressionAnalysisMergesOnTruthy(t *testing.T) {
	entry := action.Entry{
		Block: map[string]any{
			"language=='cpp'": map[string]any{"standard": "c++17"},
			"language=='c'":   map[string]any{"standard": "c17"},
		},
	}
	cfg := map[string]any{"language": "cpp"}
	runExpressionAnalysis(context.Background(), entry, cfg, bareResolver())

	if cfg["standard"] != "c++17" {
		t.Errorf("standard = %v, want c++17", cfg["standard"])
	}
}

func TestRunExpressionAnalysisSkipsFalsy(t *testing.T) {
	entry := action.Entry{
		Block: map[string]any{
			"language=='c'": map[string]any{"standard": "c17"},
		},
	}
	cfg := map[string]any{"language": "cpp"}
	runExpressionAnalysis(context.Background(), entry, cfg, bareResolver())

	if _, ok := cfg["standard"]; ok {
		t.Errorf("standard = %v, want unset", cfg["standard"])
	}
}
