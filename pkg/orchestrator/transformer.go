package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/titanous/json5"

	"github.com/goliatone/go-paramkit/pkg/render"
)

// Transformer mutates a Panel before it reaches the renderer. Implementations
// can relabel controls, hide them, or perform arbitrary rewrites.
type Transformer interface {
	Transform(ctx context.Context, panel *render.Panel) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, panel *render.Panel) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, panel *render.Panel) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, panel)
}

// OverridesTransformer applies declarative panel overrides loaded from a
// JSON5 document:
//
//	{
//	  title: "Torus knot",
//	  controls: {
//	    radius: { label: "Outer radius", step: 0.5 },
//	    seed: { hidden: true },
//	  },
//	}
type OverridesTransformer struct {
	document overridesDocument
}

type overridesDocument struct {
	Title    string                     `json:"title"`
	Controls map[string]controlOverride `json:"controls"`
}

type controlOverride struct {
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Step        *float64 `json:"step"`
	Hidden      bool     `json:"hidden"`
}

// NewOverridesTransformer constructs a transformer from raw JSON5 bytes.
func NewOverridesTransformer(data []byte) (*OverridesTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("overrides transformer: document is empty")
	}
	var document overridesDocument
	if err := json5.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("overrides transformer: parse document: %w", err)
	}
	for key, patch := range document.Controls {
		if patch.Step != nil && *patch.Step <= 0 {
			return nil, fmt.Errorf("overrides transformer: control %q: step must be positive", key)
		}
	}
	return &OverridesTransformer{document: document}, nil
}

// NewOverridesTransformerFromFS loads an overrides document from the
// provided filesystem path.
func NewOverridesTransformerFromFS(fsys fs.FS, path string) (*OverridesTransformer, error) {
	if fsys == nil {
		return nil, errors.New("overrides transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("overrides transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("overrides transformer: read %s: %w", path, err)
	}
	return NewOverridesTransformer(data)
}

// Transform applies the declarative patches onto the supplied panel. A patch
// naming a control the panel lacks is an error, so stale override files
// surface after a script is edited.
func (t *OverridesTransformer) Transform(ctx context.Context, panel *render.Panel) error {
	if panel == nil {
		return errors.New("overrides transformer: panel is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if title := strings.TrimSpace(t.document.Title); title != "" {
		panel.Title = title
	}

	for key := range t.document.Controls {
		if findControl(panel.Controls, key) < 0 {
			return fmt.Errorf("overrides transformer: control %q not found", key)
		}
	}

	kept := panel.Controls[:0]
	for _, control := range panel.Controls {
		patch, ok := t.document.Controls[control.Key]
		if !ok {
			kept = append(kept, control)
			continue
		}
		if patch.Hidden {
			continue
		}
		applyControlPatch(&control, patch)
		kept = append(kept, control)
	}
	panel.Controls = kept
	return nil
}

func applyControlPatch(control *render.Control, patch controlOverride) {
	if label := strings.TrimSpace(patch.Label); label != "" {
		control.Label = label
	}
	if description := strings.TrimSpace(patch.Description); description != "" {
		control.Description = description
	}
	if patch.Step != nil && control.Kind == render.ControlRange {
		step := *patch.Step
		control.Step = &step
	}
}

func findControl(controls []render.Control, key string) int {
	for idx := range controls {
		if controls[idx].Key == key {
			return idx
		}
	}
	return -1
}
