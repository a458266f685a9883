package schema

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
)

// ParameterType is the closed set of parameter kinds a script can expose.
type ParameterType string

const (
	TypeNumber ParameterType = "number"
	TypeColor  ParameterType = "color"
	TypeString ParameterType = "string"
)

const (
	// DefaultMin and DefaultMax are the slider bounds used when a numeric
	// parameter declares none.
	DefaultMin = 0.0
	DefaultMax = 100.0
)

// ColorPattern is the expression accepted for color values.
const ColorPattern = `^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`

var hexColorPattern = regexp.MustCompile(ColorPattern)

// ParseType maps a declared type name onto a ParameterType. Aliases commonly
// found in authored scripts ("float", "int", "range", "text", "hex") are
// accepted.
func ParseType(raw string) (ParameterType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "number", "float", "int", "integer", "range", "slider":
		return TypeNumber, true
	case "color", "colour", "hex":
		return TypeColor, true
	case "string", "text":
		return TypeString, true
	default:
		return "", false
	}
}

// IsHexColor reports whether value is a #rgb, #rrggbb or #rrggbbaa literal.
func IsHexColor(value string) bool {
	return hexColorPattern.MatchString(value)
}

// Definition describes a single tunable parameter.
type Definition struct {
	Type        ParameterType `json:"type" yaml:"type"`
	Label       string        `json:"label" yaml:"label"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Default     any           `json:"default" yaml:"default"`
	Min         *float64      `json:"min,omitempty" yaml:"min,omitempty"`
	Max         *float64      `json:"max,omitempty" yaml:"max,omitempty"`
	Step        *float64      `json:"step,omitempty" yaml:"step,omitempty"`
}

// NumberDefault returns the numeric default, if the definition holds one.
func (d Definition) NumberDefault() (float64, bool) {
	value, ok := d.Default.(float64)
	return value, ok
}

// Bounds returns the effective numeric bounds, falling back to
// DefaultMin/DefaultMax when unset.
func (d Definition) Bounds() (float64, float64) {
	lo, hi := DefaultMin, DefaultMax
	if d.Min != nil {
		lo = *d.Min
	}
	if d.Max != nil {
		hi = *d.Max
	}
	return lo, hi
}

// Clamp limits value to the definition bounds.
func (d Definition) Clamp(value float64) float64 {
	lo, hi := d.Bounds()
	return math.Min(math.Max(value, lo), hi)
}

// Clone returns a copy that shares no pointers with d.
func (d Definition) Clone() Definition {
	cloned := d
	cloned.Min = cloneFloat(d.Min)
	cloned.Max = cloneFloat(d.Max)
	cloned.Step = cloneFloat(d.Step)
	return cloned
}

// Validate checks that the definition is internally consistent.
func (d Definition) Validate() error {
	if strings.TrimSpace(d.Label) == "" {
		return errors.New("label is required")
	}
	switch d.Type {
	case TypeNumber:
		value, ok := d.NumberDefault()
		if !ok {
			return fmt.Errorf("number default must be numeric, got %T", d.Default)
		}
		lo, hi := d.Bounds()
		if lo > hi {
			return fmt.Errorf("min %v exceeds max %v", lo, hi)
		}
		if value < lo || value > hi {
			return fmt.Errorf("default %v outside [%v, %v]", value, lo, hi)
		}
		if d.Step != nil && *d.Step <= 0 {
			return fmt.Errorf("step must be positive, got %v", *d.Step)
		}
	case TypeColor:
		value, ok := d.Default.(string)
		if !ok || !IsHexColor(value) {
			return fmt.Errorf("color default must be a hex string, got %v", d.Default)
		}
	case TypeString:
		if _, ok := d.Default.(string); !ok {
			return fmt.Errorf("string default must be text, got %T", d.Default)
		}
	default:
		return fmt.Errorf("unsupported type %q", d.Type)
	}
	return nil
}

// Float returns a pointer to value, handy for literal definitions.
func Float(value float64) *float64 {
	return &value
}

func cloneFloat(in *float64) *float64 {
	if in == nil {
		return nil
	}
	value := *in
	return &value
}
