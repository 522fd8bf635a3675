// Package merge deep-merges configuration fragments with explicit
// remove:/prepend: directives and array-concat semantics.
//
// merge is deliberately synchronous: only the renderer (render package)
// needs to suspend for filesystem-backed resolver extensions.
package merge

import "strings"

const bel = "\a" // sentinel used to pre-split scalar strings into lists

// Merge mutates target with the keys of source, in place, following
// these rules in precedence order:
//  1. a "remove:K" key deletes K (a list element, or the whole key for
//     scalars) from target.
//  2. a "prepend:K" key is treated as K, but list values are prepended
//     rather than appended.
//  3. a nil source value deletes the target key.
//  4. a source list is appended (or prepended) to a target list; a
//     scalar-string target is promoted to a one-element list first.
//     A string value containing the BEL sentinel is pre-split into a
//     list before merging.
//  5. a source map recurses into merge.
//  6. a source scalar overwrites the target value.
//
// target must be a map[string]any (or nil, in which case a new map is
// returned). Merge returns the resulting map so that callers merging
// into a nil target can capture the result.
func Merge(target map[string]any, source map[string]any) map[string]any {
	if target == nil {
		target = map[string]any{}
	}
	for key, sval := range source {
		switch {
		case strings.HasPrefix(key, "remove:"):
			removeKey(target, strings.TrimPrefix(key, "remove:"), sval)
		case strings.HasPrefix(key, "prepend:"):
			mergeKey(target, strings.TrimPrefix(key, "prepend:"), sval, true)
		default:
			mergeKey(target, key, sval, false)
		}
	}
	return target
}

func removeKey(target map[string]any, key string, sval any) {
	tval, ok := target[key]
	if !ok {
		return
	}
	if sval == nil {
		delete(target, key)
		return
	}
	// Scalars named in a removal set (a list of values, or a single
	// value) are deleted wholesale; list elements matching the removal
	// set are filtered out.
	switch tlist := tval.(type) {
	case []any:
		remove := toRemovalSet(sval)
		var kept []any
		for _, v := range tlist {
			if _, drop := remove[scalarKey(v)]; drop {
				continue
			}
			kept = append(kept, v)
		}
		if len(kept) == 0 {
			delete(target, key)
			return
		}
		target[key] = kept
	default:
		delete(target, key)
	}
}

func toRemovalSet(v any) map[any]bool {
	set := map[any]bool{}
	switch vv := v.(type) {
	case []any:
		for _, e := range vv {
			set[scalarKey(e)] = true
		}
	case nil:
		// "remove:K": null removes every element / the whole key.
	default:
		set[scalarKey(vv)] = true
	}
	return set
}

func scalarKey(v any) any {
	return v
}

func mergeKey(target map[string]any, key string, sval any, prepend bool) {
	switch s := sval.(type) {
	case nil:
		delete(target, key)
	case map[string]any:
		switch t := target[key].(type) {
		case map[string]any:
			target[key] = Merge(t, s)
		default:
			target[key] = Merge(map[string]any{}, s)
		}
	case []any:
		target[key] = mergeList(target[key], s, prepend)
	case string:
		if strings.Contains(s, bel) {
			parts := strings.Split(s, bel)
			list := make([]any, len(parts))
			for i, p := range parts {
				list[i] = p
			}
			target[key] = mergeList(target[key], list, prepend)
			return
		}
		target[key] = s
	default:
		// any other scalar (bool, number, etc).
		target[key] = s
	}
}

func mergeList(existing any, additions []any, prepend bool) []any {
	var base []any
	switch e := existing.(type) {
	case []any:
		base = e
	case nil:
		base = nil
	case string:
		base = []any{e}
	default:
		base = []any{e}
	}
	if prepend {
		return append(append([]any{}, additions...), base...)
	}
	return append(append([]any{}, base...), additions...)
}

// Clone returns a deep copy of a merge-tree value (map[string]any,
// []any, or a scalar).
func Clone(v any) any {
	switch vv := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(vv))
		for k, e := range vv {
			out[k] = Clone(e)
		}
		return out
	case []any:
		out := make([]any, len(vv))
		for i, e := range vv {
			out[i] = Clone(e)
		}
		return out
	default:
		return vv
	}
}
