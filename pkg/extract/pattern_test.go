package extract

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-paramkit/internal/jsliteral"
)

func TestLocatorsAgreeOnDeclarations(t *testing.T) {
	t.Parallel()

	sources := []string{
		`const parameters = { size: 2, tint: '#fff' };`,
		`export let defaultParameters = [{ key: 'a', default: 1 }, { key: 'b' }];`,
		`module.parameters = { speed: { default: 0.5, max: 1 } };`,
		"var parameters = {\n  label: 'curly } inside',\n  list: [1, [2, 3]],\n};",
	}

	for _, src := range sources {
		var values []any
		for _, loc := range []locator{astLocator{}, patternLocator{}} {
			in := newInput(context.Background(), src)
			fragment, ok := loc.Declaration(in)
			in.close()
			if !ok {
				t.Fatalf("%s locator found nothing in %q", loc.Name(), src)
			}
			value, _, err := jsliteral.Parse(context.Background(), fragment)
			if err != nil {
				t.Fatalf("%s locator fragment %q: %v", loc.Name(), fragment, err)
			}
			values = append(values, jsliteral.Plain(value))
		}
		if diff := cmp.Diff(values[0], values[1]); diff != "" {
			t.Fatalf("locators disagree on %q (-ast +pattern):\n%s", src, diff)
		}
	}
}

func TestPatternLocatorDeclarationIgnoresComments(t *testing.T) {
	t.Parallel()

	src := `// const parameters = { commented: 1 };
/* const parameters = { blocked: 1 }; */
const parameters = { live: 1 /* } */ };`
	in := newInput(context.Background(), src)
	fragment, ok := patternLocator{}.Declaration(in)
	if !ok {
		t.Fatal("expected a declaration")
	}
	value, _, err := jsliteral.Parse(context.Background(), fragment)
	if err != nil {
		t.Fatalf("parse %q: %v", fragment, err)
	}
	if diff := cmp.Diff(map[string]any{"live": 1.0}, jsliteral.Plain(value)); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}
}

func TestPatternLocatorTruncatedDeclarationKeepsTail(t *testing.T) {
	t.Parallel()

	src := "const parameters = { radius: { default: 5 "
	fragment, ok := patternLocator{}.Declaration(newInput(context.Background(), src))
	if !ok {
		t.Fatal("expected a declaration")
	}
	if fragment != "{ radius: { default: 5 " {
		t.Fatalf("unexpected fragment %q", fragment)
	}
}

func TestPatternLocatorGeometryShapes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		src  string
		want []pair
	}{
		{
			name: "function declaration",
			src:  "function createGeometry(THREE, params) { const opts = { width: 2, depth: params.d * 2 }; }",
			want: []pair{{Key: "width", Value: "2"}, {Key: "depth", Value: "params.d * 2"}},
		},
		{
			name: "member assignment",
			src:  "sketch.createGeometry = function (THREE) { let cfg; cfg = { 'rings': 6 }; };",
			want: []pair{{Key: "rings", Value: "6"}},
		},
		{
			name: "default formal object",
			src:  "const createGeometry = async (THREE, params = { count: 8 }) => { return params; };",
			want: []pair{{Key: "count", Value: "8"}},
		},
		{
			name: "call sites are skipped",
			src:  "createGeometry(THREE, {});\nfunction createGeometry(THREE) { const s = { size: 1 }; }",
			want: []pair{{Key: "size", Value: "1"}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := patternLocator{}.GeometryPairs(newInput(context.Background(), tc.src))
			if !ok {
				t.Fatal("expected pairs")
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("pairs mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPatternLocatorParamReads(t *testing.T) {
	t.Parallel()

	src := `const createGeometry = (THREE, cfg) => {
  const radius = cfg.radius || 3;
  let hue = params["hue"] ?? '#00ff00';
  const scaled = cfg.scale || 2 * radius;
  const { twist = -0.5, label = 'knot' } = cfg;
  return radius;
};`
	got, ok := patternLocator{}.ParamReads(newInput(context.Background(), src))
	if !ok {
		t.Fatal("expected reads")
	}
	want := []pair{
		{Key: "radius", Value: "3"},
		{Key: "hue", Value: "'#00ff00'"},
		{Key: "twist", Value: "-0.5"},
		{Key: "label", Value: "'knot'"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("reads mismatch (-want +got):\n%s", diff)
	}
}

func TestParamReadsNeedGeometryFunction(t *testing.T) {
	t.Parallel()

	src := `const radius = params.radius || 3;
const tint = params.tint || '#00ff00';`
	for _, loc := range []locator{astLocator{}, patternLocator{}} {
		in := newInput(context.Background(), src)
		reads, ok := loc.ParamReads(in)
		in.close()
		if ok || len(reads) != 0 {
			t.Fatalf("%s locator read %v outside createGeometry", loc.Name(), reads)
		}
	}
}

func TestMatchBracket(t *testing.T) {
	t.Parallel()

	src := []rune(`{ a: "}", b: [1, {c: ')'}], d: ` + "`{`" + ` } tail`)
	end, ok := matchBracket(src, 0)
	if !ok {
		t.Fatal("expected balanced brackets")
	}
	if got := string(src[end:]); got != " tail" {
		t.Fatalf("unexpected remainder %q", got)
	}

	if _, ok := matchBracket([]rune("{ a: [1, 2 }"), 0); ok {
		t.Fatal("mismatched closer must not balance")
	}
}
