package analysis

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/fearthecowboy/toolsight/action"
	"github.com/fearthecowboy/toolsight/merge"
	"github.com/fearthecowboy/toolsight/regexutil"
	"github.com/fearthecowboy/toolsight/render"
	"github.com/fearthecowboy/toolsight/xlog"
)

// runCommand implements the `command` action: regexChain → fragment,
// matched against successive heads of args. Matching chains merge
// their fragment into cfg and are (by default) consumed out of args;
// under `no_consume` they are kept. Args with no matching chain are
// shifted, one at a time, into the kept list. `no_consume` keeps the
// matched tokens in the returned argv rather than discarding them
// (see DESIGN.md).
func runCommand(ctx context.Context, entry action.Entry, args []string, cfg map[string]any, resolver render.Resolver) []string {
	block, ok := entry.Block.(map[string]any)
	if !ok {
		return args
	}
	chainKeys := make([]string, 0, len(block))
	for k := range block {
		chainKeys = append(chainKeys, k)
	}
	sort.Strings(chainKeys)

	noConsume := entry.HasFlag("no_consume")
	rx := rxResolver(resolver)

	var kept []string
	remaining := args
	for len(remaining) > 0 {
		consumed, ok := tryChains(ctx, chainKeys, block, remaining, cfg, rx)
		if !ok {
			kept = append(kept, remaining[0])
			remaining = remaining[1:]
			continue
		}
		if noConsume {
			kept = append(kept, remaining[:consumed]...)
		}
		remaining = remaining[consumed:]
	}
	return kept
}

func tryChains(ctx context.Context, chainKeys []string, block map[string]any, head []string, cfg map[string]any, rx render.Resolver) (int, bool) {
	for _, chainKey := range chainKeys {
		regexStrs := strings.Split(chainKey, ";")
		if len(regexStrs) > len(head) {
			continue
		}
		data := map[string]string{}
		matched := true
		for i, reStr := range regexStrs {
			rendered, err := render.Render(ctx, reStr, rx)
			if err != nil {
				matched = false
				break
			}
			re, err := regexp.Compile(`(?i)` + regexutil.TranslateNamedCaptures(rendered))
			if err != nil {
				xlog.Warnf(ctx, "analysis: bad command regex %q: %v", rendered, err)
				matched = false
				break
			}
			m := re.FindStringSubmatch(head[i])
			if m == nil {
				matched = false
				break
			}
			for j, name := range re.SubexpNames() {
				if name != "" && j < len(m) {
					data[name] = m[j]
				}
			}
		}
		if !matched {
			continue
		}
		fragment, _ := block[chainKey].(map[string]any)
		rendered, err := render.RecursiveRender(ctx, fragment, captureResolver(data, rx))
		if err == nil {
			if rf, ok := rendered.(map[string]any); ok {
				merge.Merge(cfg, rf)
			}
		}
		return len(regexStrs), true
	}
	return 0, false
}
