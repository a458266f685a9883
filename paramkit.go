// Package paramkit turns generative scripts into editable parameter panels.
//
// The root package re-exports the common entry points; the building blocks
// live under pkg/ (extract, normalize, classify, preview, session, render).
package paramkit

import (
	"context"

	"github.com/goliatone/go-paramkit/pkg/classify"
	"github.com/goliatone/go-paramkit/pkg/extract"
	"github.com/goliatone/go-paramkit/pkg/orchestrator"
	"github.com/goliatone/go-paramkit/pkg/render"
	"github.com/goliatone/go-paramkit/pkg/schema"
	"github.com/goliatone/go-paramkit/pkg/script"
	"github.com/goliatone/go-paramkit/pkg/session"
)

// Schema is the ordered parameter schema.
type Schema = schema.Schema

// Definition describes one parameter.
type Definition = schema.Definition

// Classification is the printable/animated verdict for a script.
type Classification = classify.Classification

// RenderOptions describes per-request values and validation errors that
// renderers surface.
type RenderOptions = render.RenderOptions

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// NewSession constructs a preview session.
func NewSession(options ...session.Option) *session.Session {
	return session.New(options...)
}

// ExtractSchema extracts and normalizes the parameters declared in text.
func ExtractSchema(ctx context.Context, text string) (Schema, error) {
	return extract.New().Schema(ctx, text)
}

// Classify reports whether text describes a printable or an animated script.
func Classify(text string) Classification {
	return classify.Classify(text)
}

// GeneratePanel loads the script source, extracts its parameters and renders
// the panel with the named renderer. It is the simplest entry point for
// callers that just want HTML output.
func GeneratePanel(ctx context.Context, source script.Source, rendererName string, options ...orchestrator.Option) ([]byte, error) {
	gen := orchestrator.New(options...)
	return gen.Generate(ctx, orchestrator.Request{
		Source:   source,
		Renderer: rendererName,
	})
}

// GeneratePanelFromText renders a panel for script text already in memory,
// bypassing the loader stage.
func GeneratePanelFromText(ctx context.Context, name, text, rendererName string, options ...orchestrator.Option) ([]byte, error) {
	doc, err := script.NewDocument(script.SourceFromUpload(name), []byte(text))
	if err != nil {
		return nil, err
	}
	gen := orchestrator.New(options...)
	return gen.Generate(ctx, orchestrator.Request{
		Document: &doc,
		Renderer: rendererName,
	})
}

// WithPanelOverrides parses a JSON5 overrides document and registers it as
// the orchestrator's panel transformer.
func WithPanelOverrides(document []byte) (orchestrator.Option, error) {
	transformer, err := orchestrator.NewOverridesTransformer(document)
	if err != nil {
		return nil, err
	}
	return orchestrator.WithPanelTransformer(transformer), nil
}
