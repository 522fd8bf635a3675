package analysis

import (
	"context"

	"github.com/fearthecowboy/toolsight/action"
	"github.com/fearthecowboy/toolsight/merge"
	"github.com/fearthecowboy/toolsight/render"
)

// runExpressionAnalysis implements the analysis block's `expression`
// action: unlike discovery's ordered list of condition strings, this
// block is a true expression → fragment mapping, evaluated against the
// working configuration built up so far.
func runExpressionAnalysis(ctx context.Context, entry action.Entry, cfg map[string]any, resolver render.Resolver) {
	block, ok := entry.Block.(map[string]any)
	if !ok {
		return
	}
	for _, expr := range sortedKeys(block) {
		fragment, _ := block[expr].(map[string]any)
		if render.EvaluateExpression(ctx, expr, cfg, resolver) {
			merge.Merge(cfg, fragment)
		}
	}
}
