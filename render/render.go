// Package render expands ${prefix:expression} tokens in strings and
// object trees using a pluggable Resolver, and evaluates small
// sandboxed boolean expressions over the same data.
package render

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// maxIterations bounds the fixed-point rescan for nested tokens.
const maxIterations = 8

// innermostToken matches a token with no nested token inside it: its
// content excludes '$', '{', '}' so a regex pass always resolves the
// innermost tokens first.
var innermostToken = regexp.MustCompile(`\$\{([^${}]*)\}`)

// singleToken matches a template that is *exactly* one token, with no
// surrounding text.
var singleToken = regexp.MustCompile(`^\$\{([^${}]*)\}$`)

// Render expands every ${prefix:expression} token in tmpl, resolving
// innermost tokens first and rescanning up to a fixed-point iteration
// limit. List-valued resolutions are joined with os.PathListSeparator
// when embedded in a larger string.
func Render(ctx context.Context, tmpl string, resolver Resolver) (string, error) {
	s := tmpl
	for i := 0; i < maxIterations; i++ {
		if !strings.Contains(s, "${") {
			return s, nil
		}
		next, replaced, err := renderPass(ctx, s, resolver)
		if err != nil {
			return "", err
		}
		if !replaced {
			return next, nil
		}
		s = next
	}
	return s, nil
}

func renderPass(ctx context.Context, s string, resolver Resolver) (string, bool, error) {
	replaced := false
	var outerErr error
	out := innermostToken.ReplaceAllStringFunc(s, func(tok string) string {
		m := innermostToken.FindStringSubmatch(tok)
		content := m[1]
		prefix, expr := splitToken(content)
		v, ok := resolver.Resolve(ctx, prefix, expr)
		replaced = true
		if !ok {
			return ""
		}
		return stringifyValue(v)
	})
	return out, replaced, outerErr
}

// RenderValue behaves like Render, but when tmpl resolves down to
// exactly one top-level token (no surrounding text once any nested
// tokens inside it have been expanded), the resolved value is
// returned with its native type, so a resolver returning a []string
// yields a list rather than a joined string.
func RenderValue(ctx context.Context, tmpl string, resolver Resolver) (any, error) {
	s := tmpl
	for i := 0; i < maxIterations; i++ {
		if !strings.Contains(s, "${") {
			return s, nil
		}
		if m := singleToken.FindStringSubmatch(s); m != nil {
			prefix, expr := splitToken(m[1])
			v, ok := resolver.Resolve(ctx, prefix, expr)
			if !ok {
				return "", nil
			}
			return v, nil
		}
		next, replaced, err := renderPass(ctx, s, resolver)
		if err != nil {
			return nil, err
		}
		if !replaced {
			return next, nil
		}
		s = next
	}
	return s, nil
}

func splitToken(content string) (prefix, expression string) {
	i := strings.IndexByte(content, ':')
	if i < 0 {
		return "", content
	}
	return content[:i], content[i+1:]
}

func stringifyValue(v any) string {
	switch vv := v.(type) {
	case nil:
		return ""
	case string:
		return vv
	case []string:
		return strings.Join(vv, string(os.PathListSeparator))
	case []any:
		parts := make([]string, len(vv))
		for i, e := range vv {
			parts[i] = stringifyValue(e)
		}
		return strings.Join(parts, string(os.PathListSeparator))
	case bool:
		if vv {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", vv)
	}
}

// RecursiveRender walks v (a map[string]any, []any, string, or
// scalar) and renders every string leaf with RenderValue, preserving
// structure. Non-string scalars pass through unchanged.
func RecursiveRender(ctx context.Context, v any, resolver Resolver) (any, error) {
	switch vv := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(vv))
		for k, e := range vv {
			rk, err := Render(ctx, k, resolver)
			if err != nil {
				return nil, err
			}
			rv, err := RecursiveRender(ctx, e, resolver)
			if err != nil {
				return nil, err
			}
			out[rk] = rv
		}
		return out, nil
	case []any:
		out := make([]any, len(vv))
		for i, e := range vv {
			rv, err := RecursiveRender(ctx, e, resolver)
			if err != nil {
				return nil, err
			}
			out[i] = rv
		}
		return out, nil
	case string:
		return RenderValue(ctx, vv, resolver)
	default:
		return vv, nil
	}
}
