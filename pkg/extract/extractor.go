// Package extract recovers the tunable parameter declarations of an uploaded
// generative script from its source text.
//
// Three declaration idioms are recognised, in priority order: a literal
// assigned to `parameters`, `defaultParameters` or `module.parameters`;
// `key: value` members of objects built inside createGeometry; and
// `params.key || literal` fallback reads inside createGeometry. Each idiom is
// located with a syntax tree first and with a regular expression pattern
// table second, so scripts the grammar rejects keep extracting.
package extract

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/go-paramkit/internal/jsliteral"
	"github.com/goliatone/go-paramkit/pkg/normalize"
	"github.com/goliatone/go-paramkit/pkg/schema"
)

// Result is the raw declaration recovered from a script.
type Result struct {
	// Raw is a *jsliteral.Object or a []any.
	Raw      any
	Stage    Stage
	Strategy string
	// Method is set for declarations only; the fallback idioms decode one
	// scalar at a time.
	Method   jsliteral.Method
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger used for debug tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithNormalizer sets the normalizer used by Schema.
func WithNormalizer(normalizer *normalize.Normalizer) Option {
	return func(e *Extractor) {
		if normalizer != nil {
			e.normalizer = normalizer
		}
	}
}

// WithoutCompatibility disables the regular expression strategy so only the
// syntax tree is consulted.
func WithoutCompatibility() Option {
	return func(e *Extractor) {
		e.locators = []locator{astLocator{}}
	}
}

// Extractor locates and decodes parameter declarations. It holds no
// per-call state and is safe for concurrent use.
type Extractor struct {
	locators   []locator
	normalizer *normalize.Normalizer
	logger     *zap.Logger
}

// New constructs an Extractor.
func New(options ...Option) *Extractor {
	e := &Extractor{
		locators:   []locator{astLocator{}, patternLocator{}},
		normalizer: normalize.New(),
		logger:     zap.NewNop(),
	}
	for _, option := range options {
		if option != nil {
			option(e)
		}
	}
	return e
}

// Extract runs a default Extractor.
func Extract(ctx context.Context, text string) (Result, error) {
	return New().Extract(ctx, text)
}

// Extract returns the first declaration idiom found in text. Failures are
// always *ExtractionError.
func (e *Extractor) Extract(ctx context.Context, text string) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	in := newInput(ctx, text)
	defer in.close()

	for _, stage := range stages {
		var (
			located bool
			errs    []error
		)
		for _, loc := range e.locators {
			if err := ctx.Err(); err != nil {
				return Result{}, parseFailed(stage, err)
			}
			result, found, err := e.try(ctx, in, stage, loc)
			if !found {
				continue
			}
			located = true
			if err != nil {
				e.logger.Debug("located declaration did not decode",
					zap.String("stage", string(stage)),
					zap.String("strategy", loc.Name()),
					zap.Error(err))
				errs = append(errs, fmt.Errorf("%s: %w", loc.Name(), err))
				continue
			}
			e.logger.Debug("extracted parameters",
				zap.String("stage", string(stage)),
				zap.String("strategy", loc.Name()),
				zap.String("method", string(result.Method)))
			return result, nil
		}
		if located {
			return Result{}, parseFailed(stage, errors.Join(errs...))
		}
	}
	return Result{}, notFound()
}

func (e *Extractor) try(ctx context.Context, in *input, stage Stage, loc locator) (Result, bool, error) {
	result := Result{Stage: stage, Strategy: loc.Name()}

	switch stage {
	case StageDeclaration:
		fragment, ok := loc.Declaration(in)
		if !ok {
			return result, false, nil
		}
		value, method, err := jsliteral.Parse(ctx, fragment)
		if err != nil {
			return result, true, err
		}
		switch value.(type) {
		case *jsliteral.Object, []any:
		default:
			return result, true, fmt.Errorf("declaration is a %s, not an object or array", jsliteral.Describe(value))
		}
		result.Raw, result.Method = value, method
	case StageGeometryBody:
		pairs, ok := loc.GeometryPairs(in)
		if !ok {
			return result, false, nil
		}
		result.Raw = geometryEntries(ctx, pairs)
	case StageParamReads:
		pairs, ok := loc.ParamReads(in)
		if !ok {
			return result, false, nil
		}
		raw, err := readEntries(ctx, pairs)
		if err != nil {
			return result, true, err
		}
		result.Raw = raw
	}
	return result, true, nil
}

// geometryEntries turns every member into a number parameter on [0, 100].
// Values that are not numeric literals default to 0.
func geometryEntries(ctx context.Context, pairs []pair) *jsliteral.Object {
	out := jsliteral.NewObject()
	for _, p := range pairs {
		value := 0.0
		if parsed, _, err := jsliteral.Parse(ctx, p.Value); err == nil {
			if number, ok := parsed.(float64); ok {
				value = number
			}
		}
		entry := jsliteral.NewObject()
		entry.Set("type", string(schema.TypeNumber))
		entry.Set("default", value)
		entry.Set("min", schema.DefaultMin)
		entry.Set("max", schema.DefaultMax)
		out.Set(p.Key, entry)
	}
	return out
}

// readEntries maps each fallback read onto its literal value.
func readEntries(ctx context.Context, pairs []pair) (*jsliteral.Object, error) {
	out := jsliteral.NewObject()
	for _, p := range pairs {
		value, _, err := jsliteral.Parse(ctx, p.Value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Key, err)
		}
		out.Set(p.Key, value)
	}
	return out, nil
}

// Schema extracts and normalizes text in one call. The error is either an
// *ExtractionError or a *normalize.NormalizationError.
func (e *Extractor) Schema(ctx context.Context, text string) (schema.Schema, error) {
	_, sc, err := e.Parse(ctx, text)
	return sc, err
}

// Parse is Schema that also returns the raw extraction result.
func (e *Extractor) Parse(ctx context.Context, text string) (Result, schema.Schema, error) {
	result, err := e.Extract(ctx, text)
	if err != nil {
		return Result{}, schema.Schema{}, err
	}
	sc, err := e.normalizer.Normalize(result.Raw)
	if err != nil {
		return Result{}, schema.Schema{}, err
	}
	return result, sc, nil
}
