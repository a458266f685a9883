package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	internalLoader "github.com/goliatone/go-paramkit/internal/script/loader"
	"github.com/goliatone/go-paramkit/pkg/classify"
	"github.com/goliatone/go-paramkit/pkg/extract"
	"github.com/goliatone/go-paramkit/pkg/render"
	"github.com/goliatone/go-paramkit/pkg/renderers/html"
	"github.com/goliatone/go-paramkit/pkg/script"
	"github.com/goliatone/go-paramkit/pkg/validation"
)

const defaultRendererName = "html"

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithLoader injects a custom script loader.
func WithLoader(loader script.Loader) Option {
	return func(o *Orchestrator) {
		o.loader = loader
	}
}

// WithExtractor injects a custom parameter extractor.
func WithExtractor(extractor *extract.Extractor) Option {
	return func(o *Orchestrator) {
		o.extractor = extractor
	}
}

// WithClassifier injects a custom script classifier.
func WithClassifier(classifier *classify.Classifier) Option {
	return func(o *Orchestrator) {
		o.classifier = classifier
	}
}

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultRenderer overrides the renderer used when a request omits an
// explicit Renderer field.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithPanelTransformer registers a Transformer that can mutate the panel
// after it is built but before it is rendered.
func WithPanelTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		o.transformer = t
	}
}

// WithLogger sets the logger passed to default collaborators.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Orchestrator coordinates the full pipeline from script source to rendered
// panel. It applies sensible defaults (offline loader, html and json
// renderers) while remaining open to dependency injection.
type Orchestrator struct {
	loader          script.Loader
	extractor       *extract.Extractor
	classifier      *classify.Classifier
	registry        *render.Registry
	defaultRenderer string
	transformer     Transformer
	logger          *zap.Logger
	initialiseErr   error
}

// New constructs an Orchestrator applying any provided options. Missing
// dependencies are initialised with the built-in implementations so callers
// can start with a single constructor call.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		defaultRenderer: defaultRendererName,
		logger:          zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Request describes the inputs required to render a parameter panel.
type Request struct {
	// Source identifies where the script lives. Optional when Document is
	// supplied.
	Source script.Source

	// Document allows callers to bypass the loader when they already hold the
	// script text.
	Document *script.Document

	// Renderer names the renderer to use. If empty, the orchestrator falls
	// back to the configured default renderer.
	Renderer string

	// RenderOptions carries prefilled values and validation errors. Title
	// defaults to the script location; Printable and Features are filled
	// from the classification. Values are validated against the extracted
	// schema and their issues become control errors unless Errors is set.
	RenderOptions render.RenderOptions

	// Printable overrides the classifier verdict when set.
	Printable *bool
}

// Generate executes the loader → extractor → classifier → renderer sequence
// and returns the rendered bytes (HTML for the default renderer).
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]byte, error) {
	panel, options, err := o.build(ctx, req)
	if err != nil {
		return nil, err
	}

	renderer, err := o.rendererFor(req.Renderer)
	if err != nil {
		return nil, err
	}

	output, err := renderer.Render(ctx, panel, options)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render output: %w", err)
	}
	return output, nil
}

// Panel runs the pipeline up to the renderer and returns the panel.
func (o *Orchestrator) Panel(ctx context.Context, req Request) (render.Panel, error) {
	panel, _, err := o.build(ctx, req)
	return panel, err
}

func (o *Orchestrator) build(ctx context.Context, req Request) (render.Panel, render.RenderOptions, error) {
	if ctx == nil {
		return render.Panel{}, render.RenderOptions{}, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return render.Panel{}, render.RenderOptions{}, err
	}
	if err := o.initialiseErr; err != nil {
		return render.Panel{}, render.RenderOptions{}, err
	}

	doc, err := o.resolveDocument(ctx, req)
	if err != nil {
		return render.Panel{}, render.RenderOptions{}, err
	}

	sc, err := o.extractor.Schema(ctx, doc.Text())
	if err != nil {
		return render.Panel{}, render.RenderOptions{}, fmt.Errorf("orchestrator: extract parameters: %w", err)
	}
	verdict := o.classifier.Classify(doc.Text())

	options := req.RenderOptions
	if options.Title == "" {
		options.Title = doc.Location()
	}
	options.Printable = verdict.IsPrintable
	if req.Printable != nil {
		options.Printable = *req.Printable
	}
	if options.Features == nil {
		options.Features = verdict.DetectedFeatures
	}
	if options.Errors == nil && len(options.Values) > 0 {
		if result := validation.Validate(sc, options.Values); !result.Valid {
			options.Errors = render.IssuesToPayload(result.Issues)
		}
	}

	panel := render.NewPanel(sc, options)
	if err := o.applyTransformer(ctx, &panel); err != nil {
		return render.Panel{}, render.RenderOptions{}, err
	}
	o.logger.Debug("panel built",
		zap.String("location", doc.Location()),
		zap.Int("controls", len(panel.Controls)),
		zap.Bool("printable", panel.Printable),
	)
	return panel, options, nil
}

func (o *Orchestrator) resolveDocument(ctx context.Context, req Request) (script.Document, error) {
	if req.Document != nil {
		return *req.Document, nil
	}
	if req.Source == nil {
		return script.Document{}, errors.New("orchestrator: source or document is required")
	}
	doc, err := o.loader.Load(ctx, req.Source)
	if err != nil {
		return script.Document{}, fmt.Errorf("orchestrator: load script: %w", err)
	}
	return doc, nil
}

func (o *Orchestrator) rendererFor(name string) (render.Renderer, error) {
	if o.registry == nil {
		return nil, errors.New("orchestrator: renderer registry is nil")
	}

	target := name
	if target == "" {
		target = o.defaultRenderer
	}

	if target != "" {
		renderer, err := o.registry.Get(target)
		if err == nil {
			return renderer, nil
		}
		if name != "" {
			return nil, fmt.Errorf("orchestrator: renderer %q: %w", name, err)
		}
	}

	names := o.registry.List()
	if len(names) == 0 {
		return nil, errors.New("orchestrator: no renderers registered")
	}

	renderer, err := o.registry.Get(names[0])
	if err != nil {
		return nil, fmt.Errorf("orchestrator: renderer %q: %w", names[0], err)
	}
	return renderer, nil
}

func (o *Orchestrator) applyTransformer(ctx context.Context, panel *render.Panel) error {
	if o.transformer == nil || panel == nil {
		return nil
	}
	if err := o.transformer.Transform(ctx, panel); err != nil {
		return fmt.Errorf("orchestrator: transform panel: %w", err)
	}
	return nil
}

func (o *Orchestrator) applyDefaults() {
	if o.loader == nil {
		o.loader = internalLoader.New(script.NewLoaderOptions())
	}
	if o.extractor == nil {
		o.extractor = extract.New(extract.WithLogger(o.logger))
	}
	if o.classifier == nil {
		o.classifier = classify.New(classify.WithLogger(o.logger))
	}
	if o.registry == nil {
		renderer, err := html.New()
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default renderer: %w", err)
			return
		}
		registry, err := render.NewRegistry(renderer, render.JSON{Indent: "  "})
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default registry: %w", err)
			return
		}
		o.registry = registry
	}
	if o.defaultRenderer == "" {
		o.defaultRenderer = defaultRendererName
	}
}
