package render_test

import (
	"context"
	"os"
	"testing"

	"github.com/fearthecowboy/toolsight/render"
)

func constResolver(values map[string]any) render.Resolver {
	return render.ResolverFunc(func(ctx context.Context, prefix, expression string) (any, bool) {
		key := prefix + ":" + expression
		v, ok := values[key]
		return v, ok
	})
}

func TestRenderSimpleToken(t *testing.T) {
	r := constResolver(map[string]any{":name": "cl.exe"})
	got, err := render.Render(context.Background(), "compiler=${name}", r)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "compiler=cl.exe" {
		t.Errorf("Render=%q; want %q", got, "compiler=cl.exe")
	}
}

func TestRenderNestedToken(t *testing.T) {
	r := constResolver(map[string]any{
		":inner":              "version",
		"definition:version": "19.36",
	})
	got, err := render.Render(context.Background(), "${definition:${inner}}", r)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "19.36" {
		t.Errorf("Render=%q; want %q", got, "19.36")
	}
}

func TestRenderValuePreservesListType(t *testing.T) {
	r := constResolver(map[string]any{"config:paths": []string{"/a", "/b"}})
	got, err := render.RenderValue(context.Background(), "${config:paths}", r)
	if err != nil {
		t.Fatalf("RenderValue: %v", err)
	}
	list, ok := got.([]string)
	if !ok || len(list) != 2 {
		t.Errorf("RenderValue=%#v; want []string len 2", got)
	}
}

func TestRenderValueEmbeddedListJoined(t *testing.T) {
	r := constResolver(map[string]any{"config:paths": []string{"/a", "/b"}})
	got, err := render.RenderValue(context.Background(), "prefix:${config:paths}", r)
	if err != nil {
		t.Fatalf("RenderValue: %v", err)
	}
	want := "prefix:/a" + string(os.PathListSeparator) + "/b"
	if got != want {
		t.Errorf("RenderValue=%q; want %q", got, want)
	}
}

func TestRenderUnresolvedTokenBecomesEmpty(t *testing.T) {
	r := constResolver(nil)
	got, err := render.Render(context.Background(), "x=${env:DOES_NOT_EXIST_XYZ}", r)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "x=" {
		t.Errorf("Render=%q; want %q", got, "x=")
	}
}

func TestEvaluateExpressionStringEquality(t *testing.T) {
	r := constResolver(nil)
	data := map[string]any{"language": "cpp"}
	if !render.EvaluateExpression(context.Background(), "language=='cpp'", data, r) {
		t.Errorf("EvaluateExpression=false; want true")
	}
	if render.EvaluateExpression(context.Background(), "language=='c'", data, r) {
		t.Errorf("EvaluateExpression=true; want false")
	}
}

func TestEvaluateExpressionFalsyOnParseError(t *testing.T) {
	r := constResolver(nil)
	if render.EvaluateExpression(context.Background(), "((( not an expr", nil, r) {
		t.Errorf("EvaluateExpression=true; want false on parse error")
	}
}

func TestEvaluateExpressionLogicalAndRelational(t *testing.T) {
	r := constResolver(nil)
	data := map[string]any{"bits": 64}
	if !render.EvaluateExpression(context.Background(), "bits > 32 and bits <= 64", data, r) {
		t.Errorf("EvaluateExpression=false; want true")
	}
}

func TestBaseResolverEnvHome(t *testing.T) {
	r := render.Base(render.BaseOptions{})
	home, err := render.Render(context.Background(), "${env:home}", r)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if home == "" {
		t.Errorf("Render(env:home)=empty; want non-empty")
	}
}

func TestBaseResolverDefinitionField(t *testing.T) {
	r := render.Base(render.BaseOptions{
		DefinitionField: func(field string) (any, bool) {
			if field == "name" {
				return "msvc", true
			}
			return nil, false
		},
	})
	got, err := render.Render(context.Background(), "${definition:name}", r)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "msvc" {
		t.Errorf("Render=%q; want %q", got, "msvc")
	}
}
