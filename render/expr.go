package render

import (
	"context"

	"go.starlark.net/starlark"
)

// EvaluateExpression renders expr (so any ${...} tokens in it are
// expanded) and then interprets the rendered result as a boolean
// expression over data. The expression language is restricted to
// literals, identifiers looked up in data, relational/logical
// operators, and string equality — which is exactly the subset of
// Starlark's expression grammar this evaluator allows by construction:
// the thread has no Load, no print-based side effects, and no
// predeclared names beyond data's keys, so there is no reflection or
// I/O surface to sandbox escape through. On any parse or eval error,
// or if the rendered expression isn't itself a token/expression the
// renderer can resolve, the result is falsy rather than an error.
func EvaluateExpression(ctx context.Context, expr string, data map[string]any, resolver Resolver) bool {
	rendered, err := Render(ctx, expr, resolver)
	if err != nil {
		return false
	}
	return evalBoolean(rendered, data)
}

func evalBoolean(src string, data map[string]any) bool {
	predeclared := starlark.StringDict{}
	for k, v := range data {
		sv, ok := toStarlark(v)
		if !ok {
			continue
		}
		predeclared[k] = sv
	}
	thread := &starlark.Thread{
		Name: "toolsight-expr",
		Load: func(*starlark.Thread, string) (starlark.StringDict, error) {
			return nil, errNoLoad
		},
	}
	v, err := starlark.Eval(thread, "<expression>", src, predeclared)
	if err != nil {
		return false
	}
	return bool(v.Truth())
}

var errNoLoad = loadDisabledError{}

type loadDisabledError struct{}

func (loadDisabledError) Error() string { return "load is not allowed in expressions" }

func toStarlark(v any) (starlark.Value, bool) {
	switch vv := v.(type) {
	case nil:
		return starlark.None, true
	case string:
		return starlark.String(vv), true
	case bool:
		return starlark.Bool(vv), true
	case int:
		return starlark.MakeInt(vv), true
	case int64:
		return starlark.MakeInt64(vv), true
	case float64:
		return starlark.Float(vv), true
	case []string:
		elems := make([]starlark.Value, len(vv))
		for i, e := range vv {
			elems[i] = starlark.String(e)
		}
		return starlark.NewList(elems), true
	case []any:
		elems := make([]starlark.Value, 0, len(vv))
		for _, e := range vv {
			sv, ok := toStarlark(e)
			if !ok {
				continue
			}
			elems = append(elems, sv)
		}
		return starlark.NewList(elems), true
	default:
		return nil, false
	}
}
