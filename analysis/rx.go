package analysis

import (
	"context"

	"github.com/fearthecowboy/toolsight/render"
)

// rxResolver layers the "rx resolver" extension atop base: for the
// empty prefix it expands a handful of reserved tokens into the regex
// fragments `command`/`query` chain templates are built from.
// Named captures use Go's `(?P<name>...)` syntax, not PCRE's
// `(?<name>...)`, since regexChain entries are compiled with the
// standard library's regexp package.
func rxResolver(base render.Resolver) render.Resolver {
	return render.ResolverFunc(func(ctx context.Context, prefix, expression string) (any, bool) {
		if prefix == "" {
			switch expression {
			case "-/", "/-":
				return `[\-\/]`, true
			case "key":
				return `(?P<key>[^=]+)`, true
			case "value":
				return `(?P<value>.+)`, true
			case "keyEqualsValue":
				return `(?P<key>[^=]+)=(?P<value>.+)`, true
			}
		}
		return base.Resolve(ctx, prefix, expression)
	})
}

// captureResolver layers a regex match's named captures atop base
// under the empty prefix, so a merged fragment's `${name}` tokens
// resolve to the capture group of the same name. The same resolution
// rule is shared by discovery's match action and by the `command`/
// `query` analysis actions.
func captureResolver(data map[string]string, base render.Resolver) render.Resolver {
	return render.Chain(render.ResolverFunc(func(_ context.Context, prefix, expression string) (any, bool) {
		if prefix != "" {
			return nil, false
		}
		v, ok := data[expression]
		return v, ok
	}), base)
}
