// Package preview holds the live parameter values a user edits while
// previewing a script.
//
// A Store is seeded from a schema.Schema, mutated one key at a time by UI
// controls, and observed by render collaborators through Subscribe. Only
// effective changes notify listeners: writing the value a key already holds
// is a no-op, since re-rendering a scene is expensive.
package preview

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-paramkit/pkg/schema"
)

var (
	// ErrUnknownParameter reports a key the seeded schema does not declare.
	ErrUnknownParameter = errors.New("preview: unknown parameter")
	// ErrTypeMismatch reports a value that does not fit the parameter type.
	ErrTypeMismatch = errors.New("preview: value does not match parameter type")
	// ErrNoSchema reports an operation on a store that was never seeded.
	ErrNoSchema = errors.New("preview: store has no schema")
)

// Snapshot is the state delivered to listeners.
type Snapshot struct {
	Version uint64
	Values  map[string]any
}

// Listener receives a snapshot after every effective change, or after a
// burst of changes when the store is debounced.
type Listener func(Snapshot)

// Option configures a Store.
type Option func(*Store)

// WithDebounce coalesces notifications issued within delay of each other
// into one: every change re-arms the timer, so listeners hear about a burst
// once it has been quiet for delay. A zero delay still coalesces changes
// made in the same burst of synchronous calls.
func WithDebounce(delay time.Duration) Option {
	return func(s *Store) {
		if delay < 0 {
			delay = 0
		}
		s.debounce = delay
		s.debounced = true
	}
}

// WithLogger sets the logger used for debug tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type subscription struct {
	id uint64
	fn Listener
}

// Store is safe for concurrent use. Listeners run outside the store lock
// and may call back into the store.
type Store struct {
	mu        sync.Mutex
	schema    schema.Schema
	seeded    bool
	values    map[string]any
	version   uint64
	listeners []subscription
	nextID    uint64

	debounce  time.Duration
	debounced bool
	timer     *time.Timer
	timerGen  uint64
	pending   bool
	closed    bool

	logger *zap.Logger
}

// New constructs an empty, unseeded store.
func New(options ...Option) *Store {
	s := &Store{
		values: make(map[string]any),
		logger: zap.NewNop(),
	}
	for _, option := range options {
		if option != nil {
			option(s)
		}
	}
	return s
}

// Seed replaces the whole store with the defaults of sc and records sc for
// Reset and validation. Keys of any previous schema are discarded.
func (s *Store) Seed(sc schema.Schema) {
	s.Reseed(sc)()
}

// Reseed is Seed with the notification handed back to the caller, who runs
// it after releasing any lock held around the swap.
func (s *Store) Reseed(sc schema.Schema) (notify func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.schema = sc.Clone()
	s.seeded = true
	s.values = sc.Defaults()
	s.logger.Debug("seeded preview store", zap.String("schema", sc.DebugString()))
	return s.changedLocked()
}

// Reset re-seeds every key to its schema default. Listeners are only
// notified when a value actually changed.
func (s *Store) Reset() error {
	s.mu.Lock()
	if !s.seeded {
		s.mu.Unlock()
		return ErrNoSchema
	}
	defaults := s.schema.Defaults()
	if sameValues(s.values, defaults) {
		s.mu.Unlock()
		return nil
	}
	s.values = defaults
	deliver := s.changedLocked()
	s.mu.Unlock()

	deliver()
	return nil
}

// Update sets a single key. It reports whether the stored value changed;
// writing the current value again is a no-op that notifies nobody.
func (s *Store) Update(key string, value any) (bool, error) {
	s.mu.Lock()
	def, err := s.definitionLocked(key)
	if err != nil {
		s.mu.Unlock()
		return false, err
	}
	coerced, err := coerce(key, def, value)
	if err != nil {
		s.mu.Unlock()
		return false, err
	}
	if current, ok := s.values[key]; ok && current == coerced {
		s.mu.Unlock()
		return false, nil
	}
	s.values[key] = coerced
	deliver := s.changedLocked()
	s.mu.Unlock()

	deliver()
	return true, nil
}

// ReplaceAll replaces the whole store with values, discarding keys absent
// from the payload. Every key must be declared by the schema; on error the
// store is left untouched.
func (s *Store) ReplaceAll(values map[string]any) error {
	s.mu.Lock()
	if !s.seeded {
		s.mu.Unlock()
		return ErrNoSchema
	}
	next := make(map[string]any, len(values))
	for key, value := range values {
		def, err := s.definitionLocked(key)
		if err != nil {
			s.mu.Unlock()
			return err
		}
		coerced, err := coerce(key, def, value)
		if err != nil {
			s.mu.Unlock()
			return err
		}
		next[key] = coerced
	}
	if sameValues(s.values, next) {
		s.mu.Unlock()
		return nil
	}
	s.values = next
	deliver := s.changedLocked()
	s.mu.Unlock()

	deliver()
	return nil
}

// Commit applies raw control input on blur. Numbers are parsed and clamped
// to the parameter bounds; empty, "-", "." or unparseable input reverts to
// the default. Invalid colors revert to the default and strings commit
// verbatim. Input problems are never reported: the error is only set for
// unknown keys or an unseeded store. The committed value is returned.
func (s *Store) Commit(key, input string) (any, error) {
	s.mu.Lock()
	def, err := s.definitionLocked(key)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	value := CommitValue(def, input)
	if _, err := s.Update(key, value); err != nil {
		return nil, err
	}
	return value, nil
}

// CommitValue resolves raw input against def the way Commit does, without a
// store.
func CommitValue(def schema.Definition, input string) any {
	trimmed := strings.TrimSpace(input)
	switch def.Type {
	case schema.TypeNumber:
		fallback, _ := def.NumberDefault()
		switch trimmed {
		case "", "-", ".", "-.", "+":
			return fallback
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			return fallback
		}
		return def.Clamp(parsed)
	case schema.TypeColor:
		if schema.IsHexColor(trimmed) {
			return trimmed
		}
		fallback, _ := def.Default.(string)
		return fallback
	default:
		return input
	}
}

// Get returns the live value for key, falling back to the schema default
// when the key has no live value.
func (s *Store) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if value, ok := s.values[key]; ok {
		return value, true
	}
	if def, ok := s.schema.Get(key); ok {
		return def.Default, true
	}
	return nil, false
}

// Snapshot copies the live values.
func (s *Store) Snapshot() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyValues(s.values)
}

// Resolved returns a value for every schema key: the live value when set,
// the default otherwise.
func (s *Store) Resolved() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.schema.Defaults()
	for key, value := range s.values {
		out[key] = value
	}
	return out
}

// Schema returns a copy of the seeded schema.
func (s *Store) Schema() schema.Schema {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schema.Clone()
}

// Version increments on every effective change.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.listeners {
				if sub.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// Flush delivers a pending debounced notification immediately.
func (s *Store) Flush() {
	s.mu.Lock()
	if !s.pending || s.closed {
		s.mu.Unlock()
		return
	}
	s.stopTimerLocked()
	s.pending = false
	deliver := s.deliveryLocked()
	s.mu.Unlock()

	deliver()
}

// Close stops the debouncer and drops pending notifications. Values can
// still be read and written but listeners are no longer called.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.pending = false
	s.stopTimerLocked()
}

func (s *Store) definitionLocked(key string) (schema.Definition, error) {
	if !s.seeded {
		return schema.Definition{}, ErrNoSchema
	}
	def, ok := s.schema.Get(key)
	if !ok {
		return schema.Definition{}, fmt.Errorf("%w: %q", ErrUnknownParameter, key)
	}
	return def, nil
}

// changedLocked records an effective change and returns the notification to
// run once the lock is released.
func (s *Store) changedLocked() func() {
	s.version++
	if s.closed {
		return func() {}
	}
	if !s.debounced {
		return s.deliveryLocked()
	}

	s.pending = true
	s.stopTimerLocked()
	gen := s.timerGen
	s.timer = time.AfterFunc(s.debounce, func() { s.fire(gen) })
	return func() {}
}

// stopTimerLocked cancels the armed timer. A callback that already started
// carries a stale generation and returns without delivering.
func (s *Store) stopTimerLocked() {
	s.timerGen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Store) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.timerGen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	if !s.pending || s.closed {
		s.mu.Unlock()
		return
	}
	s.pending = false
	deliver := s.deliveryLocked()
	s.mu.Unlock()

	deliver()
}

func (s *Store) deliveryLocked() func() {
	if len(s.listeners) == 0 {
		return func() {}
	}
	version := s.version
	values := copyValues(s.values)
	listeners := append([]subscription(nil), s.listeners...)
	logger := s.logger

	return func() {
		logger.Debug("notifying preview listeners",
			zap.Uint64("version", version), zap.Int("listeners", len(listeners)))
		for _, sub := range listeners {
			sub.fn(Snapshot{Version: version, Values: copyValues(values)})
		}
	}
}

func coerce(key string, def schema.Definition, value any) (any, error) {
	switch def.Type {
	case schema.TypeNumber:
		number, ok := toFloat(value)
		if !ok {
			return nil, fmt.Errorf("%w: %q expects a number, got %T", ErrTypeMismatch, key, value)
		}
		return number, nil
	case schema.TypeColor:
		text, ok := value.(string)
		if !ok || !schema.IsHexColor(text) {
			return nil, fmt.Errorf("%w: %q expects a hex color, got %v", ErrTypeMismatch, key, value)
		}
		return text, nil
	default:
		text, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %q expects text, got %T", ErrTypeMismatch, key, value)
		}
		return text, nil
	}
}

func toFloat(value any) (float64, bool) {
	var number float64
	switch v := value.(type) {
	case float64:
		number = v
	case float32:
		number = float64(v)
	case int:
		number = float64(v)
	case int64:
		number = float64(v)
	default:
		return 0, false
	}
	if math.IsNaN(number) || math.IsInf(number, 0) {
		return 0, false
	}
	return number, true
}

func sameValues(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for key, value := range a {
		other, ok := b[key]
		if !ok || other != value {
			return false
		}
	}
	return true
}

func copyValues(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
