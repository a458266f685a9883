package testsupport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-paramkit/pkg/schema"
	"github.com/goliatone/go-paramkit/pkg/script"
)

// LoadScript reads a fixture and builds a script.Document using a file
// source. Testing helpers fail the test on error to keep tests concise.
func LoadScript(t *testing.T, path string) script.Document {
	t.Helper()

	doc, err := LoadScriptFromPath(path)
	if err != nil {
		t.Fatalf("load script: %v", err)
	}
	return doc
}

// LoadScriptFromPath returns a Document without requiring testing.T.
func LoadScriptFromPath(path string) (script.Document, error) {
	if path == "" {
		return script.Document{}, errors.New("testsupport: script path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return script.Document{}, fmt.Errorf("testsupport: read script: %w", err)
	}
	doc, err := script.NewDocument(script.SourceFromFile(path), data)
	if err != nil {
		return script.Document{}, fmt.Errorf("testsupport: new document: %w", err)
	}
	return doc, nil
}

// MustLoadSchema loads a JSON golden file into an ordered schema.
func MustLoadSchema(t *testing.T, path string) schema.Schema {
	t.Helper()

	out, err := LoadSchema(path)
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	return out
}

// LoadSchema reads a JSON fixture into a schema, returning an error for
// callers managing setup outside of *testing.T.
func LoadSchema(path string) (schema.Schema, error) {
	if path == "" {
		return schema.Schema{}, errors.New("testsupport: schema path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return schema.Schema{}, fmt.Errorf("testsupport: read schema: %w", err)
	}
	var out schema.Schema
	if err := json.Unmarshal(data, &out); err != nil {
		return schema.Schema{}, fmt.Errorf("testsupport: unmarshal schema: %w", err)
	}
	return out, nil
}

// DiffSchema compares key order and every definition, returning "" when the
// schemas match.
func DiffSchema(want, got schema.Schema) string {
	if diff := cmp.Diff(want.Keys(), got.Keys()); diff != "" {
		return "keys:\n" + diff
	}
	for _, key := range want.Keys() {
		wantDef, _ := want.Get(key)
		gotDef, _ := got.Get(key)
		if diff := cmp.Diff(wantDef, gotDef); diff != "" {
			return fmt.Sprintf("parameter %q:\n%s", key, diff)
		}
	}
	return ""
}

// WriteGolden writes arbitrary data to a golden file when UPDATE_GOLDENS is set.
func WriteGolden(t *testing.T, path string, value any) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// CaptureOutput executes a render function that writes to an io.Writer,
// returning both the string result and the writer contents.
func CaptureOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	return out, buf.String()
}
