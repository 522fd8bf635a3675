// Package intellisense defines the resolved IntelliSense configuration
// document and the two pieces of logic that operate on it as a whole:
// path validation and parser-argument post-processing. A Configuration
// stays a generic map[string]any tree end to end; this package
// supplies typed, dotted-path accessors at the boundary rather than a
// struct, since fragments merge partial, arbitrarily-shaped documents
// together long before any one of them is "complete" enough to decode
// into a struct.
package intellisense

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/fearthecowboy/toolsight/merge"
	"github.com/fearthecowboy/toolsight/render"
)

// Configuration is a resolved (or in-progress) IntelliSense document:
// compilerPath, name, version, architecture, hostArchitecture, bits,
// language, standard, macros, defines, include.*, forcedIncludeFiles,
// parserArguments.
//
// macros is conceptually an ordered mapping, but PostProcess emits its
// -D flags sorted by name (see orderedPairs) rather than in declaration
// order, so a definition with more than one macro should not rely on
// flag order matching source order.
type Configuration map[string]any

// New returns an empty Configuration.
func New() Configuration { return Configuration{} }

// Clone deep-copies c.
func (c Configuration) Clone() Configuration {
	return merge.Clone(map[string]any(c)).(map[string]any)
}

// Get resolves a dotted path (e.g. "include.paths") against c.
func (c Configuration) Get(path string) (any, bool) {
	cur := map[string]any(c)
	parts := strings.Split(path, ".")
	for i, part := range parts {
		v, ok := cur[part]
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return v, true
		}
		next, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return nil, false
}

// Set assigns value at a dotted path, creating intermediate maps as
// needed.
func (c Configuration) Set(path string, value any) {
	cur := map[string]any(c)
	parts := strings.Split(path, ".")
	for i, part := range parts {
		if i == len(parts)-1 {
			cur[part] = value
			return
		}
		next, ok := cur[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[part] = next
		}
		cur = next
	}
}

// pathLikeSuffixes names the field-name endings treated as
// filesystem-path-bearing.
var pathLikeSuffixes = []string{"path", "paths", "file", "files"}

func isPathLike(key string) bool {
	lower := strings.ToLower(key)
	for _, suffix := range pathLikeSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// ValidatePaths walks c and, for every key whose name looks
// path-like, renders and filters its value down to filesystem entries
// that actually exist: a bare string value is first split on the OS
// path-list delimiter into a list, every entry is rendered,
// non-existent entries are dropped, and duplicates (by rendered value)
// are removed, keeping the first occurrence.
func ValidatePaths(ctx context.Context, c Configuration, resolver render.Resolver) error {
	return walkPathLike(ctx, map[string]any(c), resolver)
}

func walkPathLike(ctx context.Context, m map[string]any, resolver render.Resolver) error {
	for key, v := range m {
		switch vv := v.(type) {
		case map[string]any:
			if err := walkPathLike(ctx, vv, resolver); err != nil {
				return err
			}
			continue
		}
		if !isPathLike(key) {
			continue
		}
		entries, err := toPathList(v)
		if err != nil {
			return err
		}
		var rendered []string
		seen := map[string]bool{}
		for _, entry := range entries {
			r, err := render.Render(ctx, entry, resolver)
			if err != nil {
				continue
			}
			if r == "" || seen[r] {
				continue
			}
			if _, err := os.Stat(r); err != nil {
				continue
			}
			seen[r] = true
			rendered = append(rendered, r)
		}
		m[key] = toAnySlice(rendered)
	}
	return nil
}

func toPathList(v any) ([]string, error) {
	switch vv := v.(type) {
	case nil:
		return nil, nil
	case string:
		return strings.Split(vv, string(os.PathListSeparator)), nil
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out, nil
	case []string:
		return vv, nil
	default:
		return nil, nil
	}
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// PostProcess builds parserArguments: macro definitions, then
// builtInPaths as -I, then systemPaths/externalPaths as --sys_include,
// then paths/environmentPaths as --include_directory. This only runs
// when parserArguments is already present as a list — a definition
// opts into post-processing by seeding `"parserArguments": []` in its
// intellisense defaults.
func PostProcess(c Configuration) {
	existing, ok := c["parserArguments"].([]any)
	if !ok {
		return
	}
	args := append([]any(nil), existing...)

	if macros, ok := orderedPairs(c["macros"]); ok {
		for _, kv := range macros {
			args = append(args, "-D"+kv[0]+"="+kv[1])
		}
	}

	include, _ := c["include"].(map[string]any)
	args = appendIncludeFlag(args, include, "builtInPaths", "-I", false)
	args = appendIncludeFlag(args, include, "systemPaths", "--sys_include", true)
	args = appendIncludeFlag(args, include, "externalPaths", "--sys_include", true)
	args = appendIncludeFlag(args, include, "paths", "--include_directory", true)
	args = appendIncludeFlag(args, include, "environmentPaths", "--include_directory", true)

	c["parserArguments"] = args
}

func appendIncludeFlag(args []any, include map[string]any, field, flag string, separateToken bool) []any {
	list, _ := include[field].([]any)
	for _, v := range list {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if separateToken {
			args = append(args, flag, s)
		} else {
			args = append(args, flag+s)
		}
	}
	return args
}

// orderedPairs returns v (expected to be a map[string]string-shaped
// map[string]any) as name/value pairs, sorted by name for determinism
// since map iteration order is otherwise unspecified.
func orderedPairs(v any) ([][2]string, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	out := make([][2]string, 0, len(m))
	for _, k := range names {
		val := ""
		if s, ok := m[k].(string); ok {
			val = s
		}
		out = append(out, [2]string{k, val})
	}
	return out, true
}
