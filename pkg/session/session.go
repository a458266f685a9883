// Package session coordinates a preview: it loads a script, extracts and
// classifies it, and keeps the live value store seeded with the current
// schema.
//
// Reloading is atomic. A new script is fully extracted and normalized before
// anything is swapped, so a failed load leaves the previous schema, values
// and classification in place, and a successful one never mixes keys from
// the two scripts.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-paramkit/pkg/classify"
	"github.com/goliatone/go-paramkit/pkg/extract"
	"github.com/goliatone/go-paramkit/pkg/preview"
	"github.com/goliatone/go-paramkit/pkg/schema"
	"github.com/goliatone/go-paramkit/pkg/script"
	"github.com/goliatone/go-paramkit/pkg/validation"
)

// ErrNotLoaded reports an operation that needs a loaded script.
var ErrNotLoaded = errors.New("session: no script loaded")

// State describes the loaded script.
type State struct {
	Location       string                  `json:"location" yaml:"location"`
	Schema         schema.Schema           `json:"schema" yaml:"schema"`
	Stage          extract.Stage           `json:"stage" yaml:"stage"`
	Strategy       string                  `json:"strategy" yaml:"strategy"`
	Classification classify.Classification `json:"classification" yaml:"classification"`
}

// Option configures a Session.
type Option func(*Session)

// WithLoader sets the loader used by Load.
func WithLoader(loader script.Loader) Option {
	return func(s *Session) {
		if loader != nil {
			s.loader = loader
		}
	}
}

// WithExtractor overrides the extractor.
func WithExtractor(extractor *extract.Extractor) Option {
	return func(s *Session) {
		if extractor != nil {
			s.extractor = extractor
		}
	}
}

// WithClassifier overrides the classifier.
func WithClassifier(classifier *classify.Classifier) Option {
	return func(s *Session) {
		if classifier != nil {
			s.classifier = classifier
		}
	}
}

// WithStore sets the store the session seeds. Callers keep ownership of its
// subscriptions.
func WithStore(store *preview.Store) Option {
	return func(s *Session) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets the logger used for load tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Session is safe for concurrent use. Loads are serialised; readers never
// block on extraction.
type Session struct {
	loadMu sync.Mutex

	mu       sync.RWMutex
	state    *State
	override *bool

	loader     script.Loader
	extractor  *extract.Extractor
	classifier *classify.Classifier
	store      *preview.Store
	logger     *zap.Logger
}

// New constructs a Session. Without WithLoader, Load reports an error and
// only LoadText is usable.
func New(options ...Option) *Session {
	s := &Session{logger: zap.NewNop()}
	for _, option := range options {
		if option != nil {
			option(s)
		}
	}
	if s.extractor == nil {
		s.extractor = extract.New(extract.WithLogger(s.logger))
	}
	if s.classifier == nil {
		s.classifier = classify.New(classify.WithLogger(s.logger))
	}
	if s.store == nil {
		s.store = preview.New(preview.WithLogger(s.logger))
	}
	return s
}

// Load fetches src through the configured loader and swaps it in.
func (s *Session) Load(ctx context.Context, src script.Source) (State, error) {
	if s.loader == nil {
		return State{}, errors.New("session: loader is not configured")
	}
	if src == nil {
		return State{}, errors.New("session: source is nil")
	}
	doc, err := s.loader.Load(ctx, src)
	if err != nil {
		return State{}, fmt.Errorf("session: load %s: %w", src.Location(), err)
	}
	return s.LoadDocument(ctx, doc)
}

// LoadText swaps in script text received directly, such as an upload.
func (s *Session) LoadText(ctx context.Context, name, text string) (State, error) {
	doc, err := script.NewDocument(script.SourceFromUpload(name), []byte(text))
	if err != nil {
		return State{}, fmt.Errorf("session: load %s: %w", name, err)
	}
	return s.LoadDocument(ctx, doc)
}

// LoadDocument extracts, normalizes and classifies doc, then replaces the
// current state and reseeds the store. The printable override is cleared.
func (s *Session) LoadDocument(ctx context.Context, doc script.Document) (State, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	location := doc.Location()
	result, sc, err := s.extractor.Parse(ctx, doc.Text())
	if err != nil {
		s.logger.Debug("script load failed", zap.String("location", location), zap.Error(err))
		return State{}, fmt.Errorf("session: load %s: %w", location, err)
	}

	next := &State{
		Location:       location,
		Schema:         sc,
		Stage:          result.Stage,
		Strategy:       result.Strategy,
		Classification: s.classifier.Classify(doc.Text()),
	}

	// The state and the store swap under one lock so Current never pairs
	// the new schema with the old values. Listeners run after the unlock
	// and may read the session.
	s.mu.Lock()
	s.state = next
	s.override = nil
	notify := s.store.Reseed(sc)
	s.mu.Unlock()
	notify()

	s.logger.Info("script loaded",
		zap.String("location", location),
		zap.String("stage", string(result.Stage)),
		zap.String("strategy", result.Strategy),
		zap.String("schema", sc.DebugString()),
	)
	return cloneState(next), nil
}

// State returns the loaded script description.
func (s *Session) State() (State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return State{}, false
	}
	return cloneState(s.state), true
}

// Schema returns the current schema, or an empty one before the first load.
func (s *Session) Schema() schema.Schema {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return schema.New()
	}
	return s.state.Schema.Clone()
}

// Current returns the schema together with the resolved store values as
// one consistent pair, even while a reload is in flight.
func (s *Session) Current() (schema.Schema, map[string]any) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return schema.New(), map[string]any{}
	}
	return s.state.Schema.Clone(), s.store.Resolved()
}

// Store exposes the live value store. Pair its values with Schema through
// Current when a reload may run concurrently.
func (s *Session) Store() *preview.Store {
	return s.store
}

// Classification returns the classifier verdict for the loaded script,
// ignoring any user override.
func (s *Session) Classification() classify.Classification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return classify.Classification{IsPrintable: true, Confidence: classify.ConfidenceLow, DetectedFeatures: []string{}}
	}
	return cloneClassification(s.state.Classification)
}

// Printable honours the user override before the classifier verdict.
func (s *Session) Printable() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.override != nil {
		return *s.override
	}
	if s.state == nil {
		return true
	}
	return s.state.Classification.IsPrintable
}

// OverridePrintable records the user's choice for the loaded script.
func (s *Session) OverridePrintable(printable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.override = &printable
}

// ClearOverride reverts to the classifier verdict.
func (s *Session) ClearOverride() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.override = nil
}

// Override reports the user override, if one is set.
func (s *Session) Override() (bool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.override == nil {
		return false, false
	}
	return *s.override, true
}

// ApplyPreset validates values and replaces the store with them, filling
// keys the preset omits with their defaults.
func (s *Session) ApplyPreset(values map[string]any) error {
	sc, err := s.loadedSchema()
	if err != nil {
		return err
	}
	if err := validation.Validate(sc, values).Err(); err != nil {
		return fmt.Errorf("session: preset: %w", err)
	}

	merged := sc.Defaults()
	for key, value := range values {
		merged[key] = value
	}
	if err := s.store.ReplaceAll(merged); err != nil {
		return fmt.Errorf("session: preset: %w", err)
	}
	return nil
}

// Validate checks the resolved store values against the loaded schema.
func (s *Session) Validate() (validation.Result, error) {
	sc, err := s.loadedSchema()
	if err != nil {
		return validation.Result{}, err
	}
	return validation.Validate(sc, s.store.Resolved()), nil
}

// Close releases the store's debouncer.
func (s *Session) Close() {
	s.store.Close()
}

func (s *Session) loadedSchema() (schema.Schema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return schema.Schema{}, ErrNotLoaded
	}
	return s.state.Schema.Clone(), nil
}

func cloneState(in *State) State {
	out := *in
	out.Schema = in.Schema.Clone()
	out.Classification = cloneClassification(in.Classification)
	return out
}

func cloneClassification(in classify.Classification) classify.Classification {
	in.DetectedFeatures = append([]string{}, in.DetectedFeatures...)
	return in
}
