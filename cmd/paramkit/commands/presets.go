package commands

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/titanous/json5"
)

// readPreset decodes a JSON5 object of parameter values. Comments, unquoted
// keys and trailing commas are accepted.
func readPreset(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("preset: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("preset: file is empty")
	}
	var values map[string]any
	if err := json5.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("preset: decode %s: %w", path, err)
	}
	if values == nil {
		return nil, fmt.Errorf("preset: %s must contain an object", path)
	}
	return values, nil
}
