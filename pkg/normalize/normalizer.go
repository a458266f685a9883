// Package normalize converts the loosely shaped parameter declarations
// recovered from scripts into a canonical schema.Schema.
package normalize

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-paramkit/internal/jsliteral"
	"github.com/goliatone/go-paramkit/pkg/schema"
)

// FallbackColor replaces color defaults that are not valid hex literals.
const FallbackColor = "#000000"

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLabeler sets the labeler used for entries without a label.
func WithLabeler(labeler Labeler) Option {
	return func(n *Normalizer) {
		if labeler != nil {
			n.labeler = labeler
		}
	}
}

// WithLogger sets the logger used to report skipped entries.
func WithLogger(logger *zap.Logger) Option {
	return func(n *Normalizer) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// Normalizer turns raw extracted values into schemas. It is stateless and
// safe for concurrent use.
type Normalizer struct {
	labeler Labeler
	logger  *zap.Logger
}

// New constructs a Normalizer. Labels default to the parameter key.
func New(options ...Option) *Normalizer {
	n := &Normalizer{
		labeler: KeyLabeler,
		logger:  zap.NewNop(),
	}
	for _, option := range options {
		if option != nil {
			option(n)
		}
	}
	return n
}

// Normalize uses a default Normalizer.
func Normalize(raw any) (schema.Schema, error) {
	return New().Normalize(raw)
}

// Normalize accepts the value produced by extraction: an *jsliteral.Object
// of entries, a []any of entry objects, or a plain map (keys are sorted).
func (n *Normalizer) Normalize(raw any) (schema.Schema, error) {
	out := schema.New()

	switch typed := raw.(type) {
	case *jsliteral.Object:
		for _, key := range typed.Keys() {
			value, _ := typed.Get(key)
			def, ok, err := n.entry(key, value)
			if err != nil {
				return schema.Schema{}, err
			}
			if ok {
				out.Set(key, def)
			}
		}
	case map[string]any:
		return n.Normalize(objectFromMap(typed))
	case []any:
		for index, item := range typed {
			obj, ok := item.(*jsliteral.Object)
			if !ok {
				if m, isMap := item.(map[string]any); isMap {
					obj = objectFromMap(m)
				} else {
					n.logger.Debug("skipping non-object parameter entry",
						zap.Int("index", index), zap.String("kind", jsliteral.Describe(item)))
					continue
				}
			}
			key := arrayKey(obj, index)
			if out.Has(key) {
				n.logger.Debug("skipping duplicate parameter key", zap.String("key", key))
				continue
			}
			def, ok, err := n.structured(key, obj)
			if err != nil {
				return schema.Schema{}, err
			}
			if ok {
				out.Set(key, def)
			}
		}
	default:
		return schema.Schema{}, &NormalizationError{
			Reason: fmt.Sprintf("expected an object or array of parameters, got %s", jsliteral.Describe(raw)),
		}
	}

	if out.Len() == 0 {
		return schema.Schema{}, &NormalizationError{Reason: ReasonEmpty}
	}
	return out, nil
}

func (n *Normalizer) entry(key string, value any) (schema.Definition, bool, error) {
	if strings.TrimSpace(key) == "" {
		return schema.Definition{}, false, nil
	}
	switch typed := value.(type) {
	case *jsliteral.Object:
		return n.structured(key, typed)
	case map[string]any:
		return n.structured(key, objectFromMap(typed))
	case float64, string, bool:
		return n.scalar(key, typed), true, nil
	default:
		n.logger.Debug("skipping parameter with unusable value",
			zap.String("key", key), zap.String("kind", jsliteral.Describe(value)))
		return schema.Definition{}, false, nil
	}
}

// scalar infers a definition from a bare value: `radius: 5`.
func (n *Normalizer) scalar(key string, value any) schema.Definition {
	def := schema.Definition{Label: n.label(key, "")}
	switch typed := value.(type) {
	case bool:
		def.Type = schema.TypeNumber
		def.Default = boolNumber(typed)
		def.Min, def.Max, def.Step = schema.Float(0), schema.Float(1), schema.Float(1)
	case float64:
		def.Type = schema.TypeNumber
		def.Default = typed
		def.Min, def.Max = schema.Float(schema.DefaultMin), schema.Float(inferredMax(typed))
		fitBounds(&def)
	case string:
		if strings.HasPrefix(typed, "#") {
			def.Type = schema.TypeColor
			def.Default = colorValue(typed)
		} else {
			def.Type = schema.TypeString
			def.Default = typed
		}
	}
	return def
}

// inferredMax gives bare numeric defaults a slider ceiling of twice the
// value. A zero product would collapse the range, so it falls back to
// DefaultMax.
func inferredMax(value float64) float64 {
	if doubled := value * 2; doubled != 0 {
		return doubled
	}
	return schema.DefaultMax
}

// structured reads `{type, label, default, min, max, step, ...}`.
func (n *Normalizer) structured(key string, obj *jsliteral.Object) (schema.Definition, bool, error) {
	value, hasValue := firstOf(obj, "default", "value", "current")

	var declared schema.ParameterType
	if raw, ok := obj.Get("type"); ok && raw != nil {
		name, isString := raw.(string)
		if !isString {
			return schema.Definition{}, false, &NormalizationError{Key: key, Reason: fmt.Sprintf("type must be a string, got %s", jsliteral.Describe(raw))}
		}
		parsed, known := schema.ParseType(name)
		if !known {
			return schema.Definition{}, false, &NormalizationError{Key: key, Reason: fmt.Sprintf("unsupported type %q", name)}
		}
		declared = parsed
	} else {
		declared = inferType(value)
	}

	label, _ := readString(obj, "label")
	if label == "" {
		label, _ = readString(obj, "name")
	}
	description, _ := readString(obj, "description")

	def := schema.Definition{
		Type:        declared,
		Label:       n.label(key, label),
		Description: SanitizeText(description),
	}

	switch declared {
	case schema.TypeNumber:
		lo, hasMin := readFloat(obj, "min")
		hi, hasMax := readFloat(obj, "max")
		_, isBool := value.(bool)

		number, ok := toNumber(value)
		if !ok {
			if hasValue {
				n.logger.Debug("numeric default is not a number, using the lower bound",
					zap.String("key", key), zap.String("kind", jsliteral.Describe(value)))
			}
			number = 0
			if hasMin {
				number = lo
			}
		}
		def.Default = number

		if isBool && !hasMin && !hasMax {
			def.Min, def.Max, def.Step = schema.Float(0), schema.Float(1), schema.Float(1)
		} else {
			if !hasMin {
				lo = schema.DefaultMin
			}
			if !hasMax {
				hi = schema.DefaultMax
			}
			def.Min, def.Max = schema.Float(lo), schema.Float(hi)
		}
		if step, ok := readFloat(obj, "step"); ok && step > 0 {
			def.Step = schema.Float(step)
		}
		fitBounds(&def)
	case schema.TypeColor:
		def.Default = colorValue(value)
	case schema.TypeString:
		def.Default = stringValue(value)
	}
	return def, true, nil
}

func (n *Normalizer) label(key, declared string) string {
	if label := SanitizeText(declared); label != "" {
		return label
	}
	if label := SanitizeText(n.labeler(key)); label != "" {
		return label
	}
	return key
}

// fitBounds enforces min <= default <= max: reversed bounds are swapped and
// the range is widened to include the default.
func fitBounds(def *schema.Definition) {
	lo, hi := def.Bounds()
	if lo > hi {
		lo, hi = hi, lo
	}
	if value, ok := def.NumberDefault(); ok {
		lo = math.Min(lo, value)
		hi = math.Max(hi, value)
	}
	def.Min, def.Max = schema.Float(lo), schema.Float(hi)
}

func inferType(value any) schema.ParameterType {
	if text, ok := value.(string); ok {
		if strings.HasPrefix(text, "#") {
			return schema.TypeColor
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err != nil {
			return schema.TypeString
		}
	}
	return schema.TypeNumber
}

func arrayKey(obj *jsliteral.Object, index int) string {
	for _, field := range []string{"key", "id", "name"} {
		if key, ok := readString(obj, field); ok && strings.TrimSpace(key) != "" {
			return strings.TrimSpace(key)
		}
	}
	return fmt.Sprintf("param%d", index)
}

func firstOf(obj *jsliteral.Object, fields ...string) (any, bool) {
	for _, field := range fields {
		if value, ok := obj.Get(field); ok && value != nil {
			return value, true
		}
	}
	return nil, false
}

func readString(obj *jsliteral.Object, field string) (string, bool) {
	value, ok := obj.Get(field)
	if !ok {
		return "", false
	}
	text, ok := value.(string)
	return text, ok
}

func readFloat(obj *jsliteral.Object, field string) (float64, bool) {
	value, ok := obj.Get(field)
	if !ok {
		return 0, false
	}
	return toNumber(value)
}

func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, !math.IsNaN(v) && !math.IsInf(v, 0)
	case int:
		return float64(v), true
	case bool:
		return boolNumber(v), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func boolNumber(value bool) float64 {
	if value {
		return 1
	}
	return 0
}

// colorValue accepts hex strings and three.js style numeric colors
// (0xff8800); anything else becomes FallbackColor.
func colorValue(value any) string {
	switch v := value.(type) {
	case string:
		trimmed := strings.TrimSpace(v)
		if schema.IsHexColor(trimmed) {
			return trimmed
		}
		if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
			if parsed, err := strconv.ParseUint(trimmed[2:], 16, 32); err == nil && parsed <= 0xffffff {
				return fmt.Sprintf("#%06x", parsed)
			}
		}
	case float64:
		if v >= 0 && v <= 0xffffff && v == math.Trunc(v) {
			return fmt.Sprintf("#%06x", int64(v))
		}
	}
	return FallbackColor
}

func stringValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func objectFromMap(m map[string]any) *jsliteral.Object {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	obj := jsliteral.NewObject()
	for _, key := range keys {
		value := m[key]
		if nested, ok := value.(map[string]any); ok {
			obj.Set(key, objectFromMap(nested))
			continue
		}
		obj.Set(key, value)
	}
	return obj
}
