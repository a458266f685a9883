package render

import (
	"context"
	"encoding/json"
	"fmt"
)

// JSON renders the panel model itself, for remote panels that draw their
// own controls.
type JSON struct {
	Indent string
}

func (JSON) Name() string {
	return "json"
}

func (JSON) ContentType() string {
	return "application/json"
}

func (j JSON) Render(_ context.Context, panel Panel, _ RenderOptions) ([]byte, error) {
	out, err := json.MarshalIndent(panel, "", j.Indent)
	if err != nil {
		return nil, fmt.Errorf("render: encode panel: %w", err)
	}
	return append(out, '\n'), nil
}
