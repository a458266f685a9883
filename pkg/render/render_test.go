package render_test

import (
	"context"
	"encoding/json"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-paramkit/pkg/render"
	"github.com/goliatone/go-paramkit/pkg/schema"
	"github.com/goliatone/go-paramkit/pkg/validation"
)

func sampleSchema() schema.Schema {
	sc := schema.New()
	sc.Set("radius", schema.Definition{Type: schema.TypeNumber, Label: "Radius", Default: 5.0, Min: schema.Float(1), Max: schema.Float(11)})
	sc.Set("turns", schema.Definition{Type: schema.TypeNumber, Label: "Turns", Default: 2.0, Min: schema.Float(0), Max: schema.Float(4), Step: schema.Float(1)})
	sc.Set("tint", schema.Definition{Type: schema.TypeColor, Label: "Tint", Default: "#ff0000"})
	sc.Set("title", schema.Definition{Type: schema.TypeString, Label: "Title", Default: "Spiral"})
	return sc
}

func TestNewPanel(t *testing.T) {
	t.Parallel()

	panel := render.NewPanel(sampleSchema(), render.RenderOptions{
		Title:     "Torus",
		Values:    map[string]any{"radius": 7.25, "tint": "#00ff00", "ghost": 1.0},
		Errors:    map[string][]string{"/radius": {"too large", " too large "}, "": {"preset rejected"}},
		Printable: true,
	})

	var keys, kinds, displays []string
	for _, control := range panel.Controls {
		keys = append(keys, control.Key)
		kinds = append(kinds, control.Kind)
		displays = append(displays, control.Display)
	}
	if diff := cmp.Diff([]string{"radius", "turns", "tint", "title"}, keys); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{render.ControlRange, render.ControlRange, render.ControlColor, render.ControlText}, kinds); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"7.25", "2", "#00ff00", "Spiral"}, displays); diff != "" {
		t.Fatalf("displays mismatch (-want +got):\n%s", diff)
	}

	radius := panel.Controls[0]
	if *radius.Step != 0.1 || *radius.Min != 1 || *radius.Max != 11 {
		t.Fatalf("unexpected radius range %v..%v step %v", *radius.Min, *radius.Max, *radius.Step)
	}
	if diff := cmp.Diff([]string{"too large"}, radius.Errors); diff != "" {
		t.Fatalf("radius errors mismatch (-want +got):\n%s", diff)
	}
	if *panel.Controls[1].Step != 1 {
		t.Fatalf("declared step must win, got %v", *panel.Controls[1].Step)
	}
	if diff := cmp.Diff([]string{"preset rejected"}, panel.FormErrors); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestMapErrorPayload(t *testing.T) {
	t.Parallel()

	issues := validation.Validate(sampleSchema(), map[string]any{"radius": 50.0, "ghost": 1.0}).Issues
	mapping := render.MapErrorPayload(sampleSchema(), render.IssuesToPayload(issues))
	if len(mapping.Fields["radius"]) != 1 {
		t.Fatalf("expected one radius message, got %#v", mapping.Fields)
	}
	if len(mapping.Form) != 1 {
		t.Fatalf("unknown keys become panel errors, got %#v", mapping.Form)
	}

	mapping = render.MapErrorPayload(sampleSchema(), map[string][]string{
		"#/tint":        {"bad color"},
		"values.title":  {"empty"},
		"params/turns":  {"odd"},
		"radius/nested": {"deep"},
	})
	want := map[string][]string{
		"tint":   {"bad color"},
		"title":  {"empty"},
		"turns":  {"odd"},
		"radius": {"deep"},
	}
	if diff := cmp.Diff(want, mapping.Fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	if mapping.Form != nil {
		t.Fatalf("expected no panel errors, got %#v", mapping.Form)
	}
}

func TestParseSubmission(t *testing.T) {
	t.Parallel()

	form := url.Values{
		"radius": {"3", "40"},
		"turns":  {"-"},
		"tint":   {"green"},
		"title":  {"  Knot "},
		"ghost":  {"1"},
	}
	got := render.ParseSubmission(sampleSchema(), form)
	want := map[string]any{"radius": 11.0, "turns": 2.0, "tint": "#ff0000", "title": "  Knot "}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	registry, err := render.NewRegistry(render.JSON{Indent: "  "})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if err := registry.Register(render.JSON{}); err == nil {
		t.Fatal("expected duplicate registration error")
	}
	if _, err := registry.Get("pdf"); err == nil {
		t.Fatal("expected missing renderer error")
	}

	renderer, err := registry.Get("json")
	if err != nil {
		t.Fatalf("get json: %v", err)
	}
	panel := render.NewPanel(sampleSchema(), render.RenderOptions{})
	out, err := renderer.Render(context.Background(), panel, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	var decoded render.Panel
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded.Controls) != 4 || decoded.Controls[2].Key != "tint" {
		t.Fatalf("unexpected decoded panel %+v", decoded)
	}
	if diff := cmp.Diff([]string{"json"}, registry.List()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}
