// Package analysis runs a toolset's analysis block against one
// compiler invocation to produce an IntelliSense configuration.
package analysis

import (
	"context"
	"strings"

	"github.com/fearthecowboy/toolsight/action"
	"github.com/fearthecowboy/toolsight/intellisense"
	"github.com/fearthecowboy/toolsight/merge"
	"github.com/fearthecowboy/toolsight/render"
	"github.com/fearthecowboy/toolsight/toolset"
)

// Options carries the per-invocation inputs to Analyze: the
// compiler arguments being analyzed, the working directory `query`
// actions run the compiler in and the source file under analysis
// (neither affects the cache key), the effective language/standard for the
// `c`/`cpp`/`c++`-flagged action filter, and an optional caller
// override merged in after the cached or freshly computed
// configuration is produced.
type Options struct {
	CompilerArgs                  []string
	BaseDirectory                 string
	SourceFile                    string
	Language                      string
	Standard                      string
	UserIntellisenseConfiguration map[string]any
}

// Analyze runs ts's analysis block over opts.CompilerArgs and returns
// the resulting IntelliSense configuration. Results are cached on ts
// keyed by the compiler arguments alone; post-processing and any user
// override are re-applied on
// every call (including cache hits) via finalize, so a cache hit and
// a freshly computed result are observably identical other than
// latency.
func Analyze(ctx context.Context, ts *toolset.Toolset, opts Options) (intellisense.Configuration, error) {
	key := cacheKey(opts.CompilerArgs)
	if cached, ok := ts.CachedAnalysis(key); ok {
		return finalize(ctx, cached, opts, ts.Resolver)
	}

	cfg := seed(ts, opts)
	args := append([]string(nil), opts.CompilerArgs...)

	for _, entry := range ts.Definition.AnalysisActions() {
		if action.LanguageSkipped(entry, opts.Language) {
			continue
		}
		switch entry.Action {
		case "task":
			args = runTask(ctx, entry, args)
		case "command":
			args = runCommand(ctx, entry, args, cfg, ts.Resolver)
		case "query":
			runQuery(ctx, entry, ts, opts.BaseDirectory, cfg, ts.Resolver)
		case "expression":
			runExpressionAnalysis(ctx, entry, cfg, ts.Resolver)
		}
	}

	if err := intellisense.ValidatePaths(ctx, cfg, ts.Resolver); err != nil {
		return nil, err
	}
	rendered, err := render.RecursiveRender(ctx, map[string]any(cfg), ts.Resolver)
	if err != nil {
		return nil, err
	}
	result := intellisense.Configuration(rendered.(map[string]any))
	ts.StoreAnalysis(key, result)

	return finalize(ctx, result, opts, ts.Resolver)
}

// seed builds the working configuration's starting point: the
// definition's own intellisense defaults, overlaid with this
// invocation's identity fields.
func seed(ts *toolset.Toolset, opts Options) map[string]any {
	cfg := merge.Clone(ts.Definition.Intellisense).(map[string]any)
	cfg["compilerPath"] = ts.CompilerPath
	cfg["language"] = opts.Language
	cfg["standard"] = opts.Standard
	return cfg
}

// finalize applies the steps that must re-run on every return path,
// cache hit or not: clone so callers never observe or mutate
// the cached working copy, merge any caller override, re-validate
// paths, and run parser-argument post-processing.
func finalize(ctx context.Context, cfg intellisense.Configuration, opts Options, resolver render.Resolver) (intellisense.Configuration, error) {
	out := cfg.Clone()
	if opts.UserIntellisenseConfiguration != nil {
		merge.Merge(out, opts.UserIntellisenseConfiguration)
	}
	if err := intellisense.ValidatePaths(ctx, out, resolver); err != nil {
		return nil, err
	}
	intellisense.PostProcess(out)
	return out, nil
}

// cacheKey canonicalizes compilerArgs, the sole input the analysis
// cache key is defined over. Compiler arguments can themselves contain
// any byte short of NUL, so a unit separator joins them rather than a
// printable delimiter (e.g. a plain space) that could collide with a
// real argument.
func cacheKey(compilerArgs []string) string {
	return strings.Join(compilerArgs, "\x1f")
}
