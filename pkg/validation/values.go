// Package validation checks parameter values against a schema.Schema.
//
// The schema is translated into an OpenAPI 3 object schema so values coming
// from presets, the CLI or a remote panel are validated with the same rules a
// REST contract for the parameters would declare.
package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-paramkit/pkg/schema"
)

// SchemaIssue represents a validation error with optional location metadata.
type SchemaIssue struct {
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
	Field   string `json:"field,omitempty" yaml:"field,omitempty"`
	Message string `json:"message" yaml:"message"`
}

// Result captures validation outcomes.
type Result struct {
	Valid  bool          `json:"valid" yaml:"valid"`
	Issues []SchemaIssue `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// Err folds the issues into a single error, or nil when the result is valid.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	errs := make([]error, 0, len(r.Issues))
	for _, issue := range r.Issues {
		if issue.Field == "" {
			errs = append(errs, fmt.Errorf("validation: %s", issue.Message))
			continue
		}
		errs = append(errs, fmt.Errorf("validation: %s: %s", issue.Field, issue.Message))
	}
	return errors.Join(errs...)
}

// OpenAPISchema describes sc as an OpenAPI object schema. Properties follow
// the schema order; none are required since unset keys fall back to their
// defaults.
func OpenAPISchema(sc schema.Schema) *openapi3.Schema {
	out := openapi3.NewObjectSchema()
	out.AdditionalProperties = openapi3.AdditionalProperties{Has: openapi3.BoolPtr(false)}
	sc.Each(func(key string, def schema.Definition) bool {
		out.WithProperty(key, propertySchema(def))
		return true
	})
	return out
}

func propertySchema(def schema.Definition) *openapi3.Schema {
	var prop *openapi3.Schema
	switch def.Type {
	case schema.TypeNumber:
		lo, hi := def.Bounds()
		prop = openapi3.NewFloat64Schema().WithMin(lo).WithMax(hi)
	case schema.TypeColor:
		prop = openapi3.NewStringSchema().WithPattern(schema.ColorPattern)
		prop.Extensions = map[string]any{"x-paramkit-type": string(schema.TypeColor)}
	default:
		prop = openapi3.NewStringSchema()
	}
	prop.Title = def.Label
	prop.Description = def.Description
	prop.Default = def.Default
	return prop
}

// Validate checks values against sc. Unknown keys are reported first, in
// sorted order, followed by per-key type and range issues.
func Validate(sc schema.Schema, values map[string]any) Result {
	result := Result{Valid: true}

	known := make(map[string]any, len(values))
	var unknown []string
	for key, value := range values {
		if !sc.Has(key) {
			unknown = append(unknown, key)
			continue
		}
		known[key] = value
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		result.Issues = append(result.Issues, SchemaIssue{
			Path:    pointerFor(key),
			Field:   key,
			Message: "unknown parameter",
		})
	}

	if err := OpenAPISchema(sc).VisitJSON(known, openapi3.MultiErrors()); err != nil {
		issues := issuesFromError(err)
		sort.SliceStable(issues, func(i, j int) bool {
			return sc.Index(issues[i].Field) < sc.Index(issues[j].Field)
		})
		result.Issues = append(result.Issues, issues...)
	}

	result.Valid = len(result.Issues) == 0
	return result
}

// ValidateSchema checks that sc is internally consistent and that its own
// defaults satisfy the derived OpenAPI schema.
func ValidateSchema(sc schema.Schema) Result {
	if sc.Len() == 0 {
		return Result{Issues: []SchemaIssue{{Message: "schema declares no parameters"}}}
	}
	var issues []SchemaIssue
	sc.Each(func(key string, def schema.Definition) bool {
		if err := def.Validate(); err != nil {
			issues = append(issues, SchemaIssue{
				Path:    pointerFor(key),
				Field:   key,
				Message: err.Error(),
			})
		}
		return true
	})
	if len(issues) > 0 {
		return Result{Issues: issues}
	}
	return Validate(sc, sc.Defaults())
}

func issuesFromError(err error) []SchemaIssue {
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		var out []SchemaIssue
		for _, inner := range multi {
			out = append(out, issuesFromError(inner)...)
		}
		return out
	}
	return []SchemaIssue{issueFromError(err)}
}

func issueFromError(err error) SchemaIssue {
	if err == nil {
		return SchemaIssue{Message: "unknown error"}
	}
	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		pointer := schemaErr.JSONPointer()
		field := strings.Join(pointer, ".")
		return SchemaIssue{
			Path:    pointerFor(pointer...),
			Field:   field,
			Message: strings.TrimSpace(schemaErr.Reason),
		}
	}
	return SchemaIssue{Message: strings.TrimSpace(err.Error())}
}

func pointerFor(segments ...string) string {
	if len(segments) == 0 {
		return ""
	}
	escaped := make([]string, len(segments))
	for i, segment := range segments {
		segment = strings.ReplaceAll(segment, "~", "~0")
		escaped[i] = strings.ReplaceAll(segment, "/", "~1")
	}
	return "/" + strings.Join(escaped, "/")
}
