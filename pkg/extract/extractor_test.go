package extract_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-paramkit/internal/jsliteral"
	"github.com/goliatone/go-paramkit/pkg/extract"
	"github.com/goliatone/go-paramkit/pkg/normalize"
	"github.com/goliatone/go-paramkit/pkg/schema"
	"github.com/goliatone/go-paramkit/pkg/testsupport"
)

func TestExtractorSchema_Fixtures(t *testing.T) {
	cases := []struct {
		fixture string
		stage   extract.Stage
	}{
		{fixture: "declaration_object", stage: extract.StageDeclaration},
		{fixture: "geometry_body", stage: extract.StageGeometryBody},
		{fixture: "param_reads", stage: extract.StageParamReads},
		{fixture: "module_array", stage: extract.StageDeclaration},
	}

	extractor := extract.New()
	for _, tc := range cases {
		t.Run(tc.fixture, func(t *testing.T) {
			doc := testsupport.LoadScript(t, filepath.Join("testdata", tc.fixture+".js"))

			result, err := extractor.Extract(testsupport.Context(), doc.Text())
			if err != nil {
				t.Fatalf("extract: %v", err)
			}
			if result.Stage != tc.stage {
				t.Fatalf("expected stage %q, got %q", tc.stage, result.Stage)
			}
			if result.Strategy != "ast" {
				t.Fatalf("expected the syntax tree strategy to win, got %q", result.Strategy)
			}

			got, err := extractor.Schema(testsupport.Context(), doc.Text())
			if err != nil {
				t.Fatalf("schema: %v", err)
			}
			if err := got.Validate(); err != nil {
				t.Fatalf("extracted schema invalid: %v", err)
			}

			goldenPath := filepath.Join("testdata", tc.fixture+".golden.json")
			testsupport.WriteGolden(t, goldenPath, got)
			want := testsupport.MustLoadSchema(t, goldenPath)
			if diff := testsupport.DiffSchema(want, got); diff != "" {
				t.Fatalf("schema mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtract_DeclarationLiteral(t *testing.T) {
	t.Parallel()

	src := `const parameters = { radius: { type: 'number', default: 5, min: 1, max: 10 } };`
	got, err := extract.New().Schema(context.Background(), src)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}

	want := schema.New()
	want.Set("radius", schema.Definition{
		Type:    schema.TypeNumber,
		Label:   "radius",
		Default: 5.0,
		Min:     schema.Float(1),
		Max:     schema.Float(10),
	})
	if diff := testsupport.DiffSchema(want, got); diff != "" {
		t.Fatalf("schema mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_ParamReadFallback(t *testing.T) {
	t.Parallel()

	src := `function createGeometry(THREE, params) {
  const radius = params.radius || 5;
  return new THREE.SphereGeometry(radius, 32, 16);
}`
	result, err := extract.Extract(context.Background(), src)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if result.Stage != extract.StageParamReads {
		t.Fatalf("expected param-reads stage, got %q", result.Stage)
	}

	got, err := normalize.Normalize(result.Raw)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	def, ok := got.Get("radius")
	if !ok {
		t.Fatalf("expected radius parameter, got keys %v", got.Keys())
	}
	if def.Type != schema.TypeNumber || def.Default != 5.0 {
		t.Fatalf("unexpected radius definition %+v", def)
	}
}

func TestExtract_SecondFormalIsAReceiver(t *testing.T) {
	t.Parallel()

	src := `export default {
  createGeometry(THREE, opts) {
    const turns = opts.turns || 4;
    const glow = opts.glow ?? false;
    return new THREE.TorusGeometry(1, 0.2, 12, 48 * turns);
  },
};`
	result, err := extract.Extract(context.Background(), src)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	obj, ok := result.Raw.(*jsliteral.Object)
	if !ok {
		t.Fatalf("expected object, got %T", result.Raw)
	}
	if diff := cmp.Diff(map[string]any{"turns": 4.0, "glow": false}, obj.Map()); diff != "" {
		t.Fatalf("raw mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_DeclarationPriority(t *testing.T) {
	t.Parallel()

	src := `
const defaultParameters = [{ key: 'fromArray' }];
const parameters = { fromObject: 1 };
module.parameters = { fromModule: 2 };
`
	result, err := extract.Extract(context.Background(), src)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	obj, ok := result.Raw.(*jsliteral.Object)
	if !ok {
		t.Fatalf("expected object, got %T", result.Raw)
	}
	if diff := cmp.Diff([]string{"fromObject"}, obj.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_ReservedWordsSkipped(t *testing.T) {
	t.Parallel()

	src := `function createGeometry(THREE) {
  const cfg = { new: 1, return: 2, size: 3 };
  return new THREE.BoxGeometry(cfg.size, cfg.size, cfg.size);
}`
	result, err := extract.Extract(context.Background(), src)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	obj := result.Raw.(*jsliteral.Object)
	if diff := cmp.Diff([]string{"size"}, obj.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		src    string
		reason string
	}{
		{
			name:   "nothing declared",
			src:    "function draw(ctx) { ctx.fillRect(0, 0, 10, 10); }",
			reason: extract.ReasonNotFound,
		},
		{
			name:   "truncated literal",
			src:    "const parameters = { radius: { type: 'number', default: 5 ",
			reason: extract.ReasonParseFailed,
		},
		{
			name:   "executable declaration",
			src:    "const parameters = { radius: computeRadius() };",
			reason: extract.ReasonParseFailed,
		},
		{
			name:   "scalar declaration",
			src:    "const parameters = 42;",
			reason: extract.ReasonNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := extract.Extract(context.Background(), tc.src)
			if err == nil {
				t.Fatal("expected extraction error")
			}
			if !errors.Is(err, extract.ErrExtraction) {
				t.Fatalf("expected ErrExtraction, got %T: %v", err, err)
			}
			var extractionErr *extract.ExtractionError
			if !errors.As(err, &extractionErr) {
				t.Fatalf("expected *ExtractionError, got %T", err)
			}
			if extractionErr.Reason != tc.reason {
				t.Fatalf("expected reason %q, got %q", tc.reason, extractionErr.Reason)
			}
		})
	}
}

func TestExtractor_SchemaReportsEmptyDeclarations(t *testing.T) {
	t.Parallel()

	_, err := extract.New().Schema(context.Background(), "const parameters = {};")
	if !errors.Is(err, normalize.ErrNormalization) {
		t.Fatalf("expected normalization error, got %v", err)
	}
}

func TestExtract_Deterministic(t *testing.T) {
	t.Parallel()

	doc := testsupport.LoadScript(t, filepath.Join("testdata", "declaration_object.js"))
	first, err := extract.Extract(context.Background(), doc.Text())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := extract.Extract(context.Background(), doc.Text())
		if err != nil {
			t.Fatalf("extract: %v", err)
		}
		if diff := cmp.Diff(jsliteral.Plain(first.Raw), jsliteral.Plain(again.Raw)); diff != "" {
			t.Fatalf("run %d differs (-first +again):\n%s", i, diff)
		}
	}
}
