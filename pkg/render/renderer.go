// Package render turns a parameter schema and its live values into a panel
// of controls that renderers can emit as HTML, JSON or any other format.
package render

import (
	"context"
	"fmt"
	"strconv"

	"github.com/goliatone/go-paramkit/pkg/schema"
)

// Renderer converts a Panel into a byte representation.
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, panel Panel, options RenderOptions) ([]byte, error)
}

// Control kinds emitted in a Panel.
const (
	ControlRange = "range"
	ControlColor = "color"
	ControlText  = "text"
)

// Control is one input in a Panel.
type Control struct {
	Key         string   `json:"key"`
	Label       string   `json:"label"`
	Description string   `json:"description,omitempty"`
	Kind        string   `json:"kind"`
	Value       any      `json:"value"`
	Display     string   `json:"display"`
	Min         *float64 `json:"min,omitempty"`
	Max         *float64 `json:"max,omitempty"`
	Step        *float64 `json:"step,omitempty"`
	Errors      []string `json:"errors,omitempty"`
}

// Panel is the renderer-neutral view of a schema and its values.
type Panel struct {
	Title      string    `json:"title,omitempty"`
	Printable  bool      `json:"printable"`
	Features   []string  `json:"features,omitempty"`
	Controls   []Control `json:"controls"`
	FormErrors []string  `json:"formErrors,omitempty"`
}

// NewPanel builds a Panel in schema order. Values missing from
// options.Values show the schema default.
func NewPanel(sc schema.Schema, options RenderOptions) Panel {
	panel := Panel{
		Title:     options.Title,
		Printable: options.Printable,
		Features:  append([]string(nil), options.Features...),
		Controls:  make([]Control, 0, sc.Len()),
	}

	mapping := MapErrorPayload(sc, options.Errors)
	panel.FormErrors = mapping.Form

	sc.Each(func(key string, def schema.Definition) bool {
		value, ok := options.Values[key]
		if !ok {
			value = def.Default
		}
		control := Control{
			Key:         key,
			Label:       def.Label,
			Description: def.Description,
			Value:       value,
			Display:     display(value),
			Errors:      mapping.Fields[key],
		}
		switch def.Type {
		case schema.TypeNumber:
			lo, hi := def.Bounds()
			control.Kind = ControlRange
			control.Min, control.Max = schema.Float(lo), schema.Float(hi)
			step := stepFor(def)
			control.Step = &step
		case schema.TypeColor:
			control.Kind = ControlColor
		default:
			control.Kind = ControlText
		}
		panel.Controls = append(panel.Controls, control)
		return true
	})
	return panel
}

// stepFor picks the slider increment: the declared step, or a hundredth of
// the range.
func stepFor(def schema.Definition) float64 {
	if def.Step != nil && *def.Step > 0 {
		return *def.Step
	}
	lo, hi := def.Bounds()
	if hi > lo {
		return (hi - lo) / 100
	}
	return 1
}

func display(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
