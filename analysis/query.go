package analysis

import (
	"context"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/fearthecowboy/toolsight/action"
	"github.com/fearthecowboy/toolsight/cmdutil"
	"github.com/fearthecowboy/toolsight/merge"
	"github.com/fearthecowboy/toolsight/regexutil"
	"github.com/fearthecowboy/toolsight/render"
	"github.com/fearthecowboy/toolsight/subprocess"
	"github.com/fearthecowboy/toolsight/toolset"
	"github.com/fearthecowboy/toolsight/xlog"
)

// runQuery implements the `query` action: a command template is
// rendered (with `${tmp:stdout}`/`${tmp:stderr}` scratch-file support),
// executed against the toolset's compiler, and the combined output is
// matched against the action's regex → fragment mapping.
func runQuery(ctx context.Context, entry action.Entry, ts *toolset.Toolset, baseDirectory string, cfg map[string]any, resolver render.Resolver) {
	block, ok := entry.Block.(map[string]any)
	if !ok {
		return
	}
	for _, tmpl := range sortedKeys(block) {
		regexes, _ := block[tmpl].(map[string]any)
		combined, renderedCmd, err := executeQuery(ctx, ts, baseDirectory, tmpl, resolver)
		if err != nil {
			xlog.Warnf(ctx, "analysis: query %q: %v", tmpl, err)
			continue
		}
		applyQueryRegexes(ctx, regexes, combined, cfg, resolver)
		_ = renderedCmd
	}
}

// executeQuery renders tmpl, runs it (cached by rendered command), and
// returns the combined stdout+stderr+scratch-file text.
func executeQuery(ctx context.Context, ts *toolset.Toolset, baseDirectory, tmpl string, resolver render.Resolver) (string, string, error) {
	scratch := map[string]string{}
	tmpResolver := render.Chain(render.ResolverFunc(func(_ context.Context, prefix, expr string) (any, bool) {
		if prefix != "tmp" {
			return nil, false
		}
		if path, ok := scratch[expr]; ok {
			return path, true
		}
		f, err := os.CreateTemp("", "toolsight-"+expr+"-"+uuid.NewString())
		if err != nil {
			return nil, false
		}
		f.Close()
		scratch[expr] = f.Name()
		return f.Name(), true
	}), resolver)

	renderedCmd, err := render.Render(ctx, tmpl, tmpResolver)
	if err != nil {
		cleanupScratch(scratch)
		return "", "", err
	}

	if cached, ok := ts.CachedQuery(renderedCmd); ok {
		cleanupScratch(scratch)
		return cached, renderedCmd, nil
	}

	args, err := cmdutil.Split(renderedCmd)
	if err != nil {
		cleanupScratch(scratch)
		return "", renderedCmd, err
	}

	res, err := subprocess.Run(ctx, ts.CompilerPath, args, baseDirectory)
	if err != nil {
		cleanupScratch(scratch)
		return "", renderedCmd, err
	}

	var b strings.Builder
	b.WriteString(res.Combined)
	for _, path := range scratch {
		if data, readErr := os.ReadFile(path); readErr == nil {
			b.Write(data)
		}
	}
	cleanupScratch(scratch)

	combined := b.String()
	ts.StoreQuery(renderedCmd, combined)
	return combined, renderedCmd, nil
}

func cleanupScratch(scratch map[string]string) {
	for _, path := range scratch {
		os.Remove(path)
	}
}

// applyQueryRegexes matches every (regex, fragment) pair against
// combined as a global, multiline search, merging fragment once per
// match using that match's captures as the data context.
func applyQueryRegexes(ctx context.Context, regexes map[string]any, combined string, cfg map[string]any, resolver render.Resolver) {
	for _, reStr := range sortedKeys(regexes) {
		fragment, _ := regexes[reStr].(map[string]any)
		rendered, err := render.Render(ctx, reStr, rxResolver(resolver))
		if err != nil {
			continue
		}
		re, err := regexp.Compile(`(?im)` + regexutil.TranslateNamedCaptures(rendered))
		if err != nil {
			xlog.Warnf(ctx, "analysis: bad query regex %q: %v", rendered, err)
			continue
		}
		names := re.SubexpNames()
		for _, m := range re.FindAllStringSubmatch(combined, -1) {
			data := map[string]any{}
			for i, name := range names {
				if name == "" || i >= len(m) {
					continue
				}
				data[name] = splitIfMultiline(m[i])
			}
			capResolver := render.Chain(render.ResolverFunc(func(_ context.Context, prefix, expr string) (any, bool) {
				if prefix != "" {
					return nil, false
				}
				v, ok := data[expr]
				return v, ok
			}), resolver)
			result, err := render.RecursiveRender(ctx, fragment, capResolver)
			if err != nil {
				continue
			}
			if rf, ok := result.(map[string]any); ok {
				merge.Merge(cfg, rf)
			}
		}
	}
}

// splitIfMultiline pre-splits any capture value containing a newline
// into a trimmed, non-empty list.
func splitIfMultiline(v string) any {
	if !strings.Contains(v, "\n") {
		return v
	}
	var out []any
	for _, line := range strings.Split(v, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
