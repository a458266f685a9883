package orchestrator_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-paramkit/pkg/orchestrator"
	"github.com/goliatone/go-paramkit/pkg/render"
	"github.com/goliatone/go-paramkit/pkg/script"
	"github.com/goliatone/go-paramkit/pkg/testsupport"
)

func spiralSource() script.Source {
	return script.SourceFromFile(filepath.Join("testdata", "spiral.js"))
}

func decodePanel(t *testing.T, output []byte) render.Panel {
	t.Helper()
	var panel render.Panel
	if err := json.Unmarshal(output, &panel); err != nil {
		t.Fatalf("decode panel: %v\n%s", err, output)
	}
	return panel
}

func TestOrchestrator_Generate(t *testing.T) {
	t.Parallel()

	ctx := testsupport.Context()
	orch := orchestrator.New()

	html, err := orch.Generate(ctx, orchestrator.Request{Source: spiralSource()})
	if err != nil {
		t.Fatalf("generate html: %v", err)
	}
	for _, want := range []string{`name="radius"`, `name="tint"`, `value="#3366ff"`} {
		if !strings.Contains(string(html), want) {
			t.Errorf("html missing %q", want)
		}
	}

	output, err := orch.Generate(ctx, orchestrator.Request{
		Source:        spiralSource(),
		Renderer:      "json",
		RenderOptions: render.RenderOptions{Values: map[string]any{"radius": 9.0}},
	})
	if err != nil {
		t.Fatalf("generate json: %v", err)
	}
	panel := decodePanel(t, output)
	if panel.Printable {
		t.Fatal("render loop scripts are animated")
	}
	if diff := cmp.Diff([]string{"render-loop"}, panel.Features); diff != "" {
		t.Fatalf("features mismatch (-want +got):\n%s", diff)
	}
	if panel.Title != spiralSource().Location() {
		t.Fatalf("title should default to the location, got %q", panel.Title)
	}
	if panel.Controls[0].Display != "9" {
		t.Fatalf("expected prefilled radius, got %q", panel.Controls[0].Display)
	}
}

func TestOrchestrator_ValuesAreValidated(t *testing.T) {
	t.Parallel()

	panel, err := orchestrator.New().Panel(context.Background(), orchestrator.Request{
		Source: spiralSource(),
		RenderOptions: render.RenderOptions{
			Values: map[string]any{"radius": 40.0, "ghost": 1.0},
		},
	})
	if err != nil {
		t.Fatalf("panel: %v", err)
	}
	if len(panel.Controls[0].Errors) != 1 {
		t.Fatalf("expected a radius error, got %#v", panel.Controls[0].Errors)
	}
	if len(panel.FormErrors) != 1 {
		t.Fatalf("unknown keys become panel errors, got %#v", panel.FormErrors)
	}

	panel, err = orchestrator.New().Panel(context.Background(), orchestrator.Request{
		Source: spiralSource(),
		RenderOptions: render.RenderOptions{
			Values: map[string]any{"radius": 40.0},
			Errors: map[string][]string{},
		},
	})
	if err != nil {
		t.Fatalf("panel: %v", err)
	}
	if len(panel.Controls[0].Errors) != 0 {
		t.Fatalf("explicit errors must win, got %#v", panel.Controls[0].Errors)
	}
}

func TestOrchestrator_PrintableOverride(t *testing.T) {
	t.Parallel()

	printable := true
	panel, err := orchestrator.New().Panel(context.Background(), orchestrator.Request{
		Source:    spiralSource(),
		Printable: &printable,
	})
	if err != nil {
		t.Fatalf("panel: %v", err)
	}
	if !panel.Printable {
		t.Fatal("override must win over the classifier")
	}
}

func TestOrchestrator_Transformer(t *testing.T) {
	t.Parallel()

	transformer, err := orchestrator.NewOverridesTransformerFromFS(os.DirFS("testdata"), "overrides.json5")
	if err != nil {
		t.Fatalf("load overrides: %v", err)
	}
	orch := orchestrator.New(orchestrator.WithPanelTransformer(transformer))

	panel, err := orch.Panel(context.Background(), orchestrator.Request{Source: spiralSource()})
	if err != nil {
		t.Fatalf("panel: %v", err)
	}
	if panel.Title != "Spiral" {
		t.Fatalf("expected overridden title, got %q", panel.Title)
	}
	var keys []string
	for _, control := range panel.Controls {
		keys = append(keys, control.Key)
	}
	if diff := cmp.Diff([]string{"radius", "tint"}, keys); diff != "" {
		t.Fatalf("hidden controls must be dropped (-want +got):\n%s", diff)
	}
	if panel.Controls[0].Label != "Outer radius" || *panel.Controls[0].Step != 0.5 {
		t.Fatalf("unexpected radius control %+v", panel.Controls[0])
	}

	stale, err := orchestrator.NewOverridesTransformer([]byte(`{controls: {ghost: {label: "x"}}}`))
	if err != nil {
		t.Fatalf("parse stale overrides: %v", err)
	}
	_, err = orchestrator.New(orchestrator.WithPanelTransformer(stale)).Panel(context.Background(), orchestrator.Request{Source: spiralSource()})
	if err == nil || !strings.Contains(err.Error(), `control "ghost" not found`) {
		t.Fatalf("expected missing control error, got %v", err)
	}
}

func TestOrchestrator_TransformerFunc(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("boom")
	orch := orchestrator.New(orchestrator.WithPanelTransformer(orchestrator.TransformerFunc(
		func(context.Context, *render.Panel) error { return sentinel },
	)))
	if _, err := orch.Generate(context.Background(), orchestrator.Request{Source: spiralSource()}); !errors.Is(err, sentinel) {
		t.Fatalf("expected transformer error, got %v", err)
	}
}

func TestOrchestrator_Errors(t *testing.T) {
	t.Parallel()

	orch := orchestrator.New()
	ctx := context.Background()

	if _, err := orch.Generate(ctx, orchestrator.Request{}); err == nil {
		t.Fatal("expected missing source error")
	}
	if _, err := orch.Generate(ctx, orchestrator.Request{Source: spiralSource(), Renderer: "pdf"}); err == nil {
		t.Fatal("expected unknown renderer error")
	}

	doc := script.MustNewDocument(script.SourceFromUpload("empty.js"), []byte("const size = 3;"))
	_, err := orch.Generate(ctx, orchestrator.Request{Document: &doc})
	if err == nil || !strings.Contains(err.Error(), "extract parameters") {
		t.Fatalf("expected extraction error, got %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := orch.Generate(cancelled, orchestrator.Request{Source: spiralSource()}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	if _, err := orchestrator.NewOverridesTransformer([]byte("  ")); err == nil {
		t.Fatal("expected empty document error")
	}
	if _, err := orchestrator.NewOverridesTransformer([]byte(`{controls: {radius: {step: 0}}}`)); err == nil {
		t.Fatal("expected non-positive step error")
	}
}
