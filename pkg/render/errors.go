package render

import (
	"sort"
	"strings"

	"github.com/goliatone/go-paramkit/pkg/schema"
	"github.com/goliatone/go-paramkit/pkg/validation"
)

// ErrorMapping splits an error payload into parameter-level and panel-level
// messages.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// MergeFormErrors concatenates and normalises multiple panel-level error
// slices, trimming whitespace and removing duplicates while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

// IssuesToPayload groups validation issues by field. Issues without a field
// are keyed by the empty string.
func IssuesToPayload(issues []validation.SchemaIssue) map[string][]string {
	if len(issues) == 0 {
		return nil
	}
	out := make(map[string][]string)
	for _, issue := range issues {
		key := issue.Field
		if key == "" {
			key = issue.Path
		}
		out[key] = append(out[key], issue.Message)
	}
	return out
}

// MapErrorPayload resolves payload paths ("radius", "/radius", "#/radius",
// "values.radius") onto parameter keys. Unknown paths are treated as
// panel-level errors so messages are not lost.
func MapErrorPayload(sc schema.Schema, payload map[string][]string) ErrorMapping {
	mapping := ErrorMapping{}
	if len(payload) == 0 {
		return mapping
	}

	paths := make([]string, 0, len(payload))
	for path := range payload {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, rawPath := range paths {
		messages := normalizeMessages(payload[rawPath])
		if len(messages) == 0 {
			continue
		}
		key, ok := mapErrorPath(rawPath, sc)
		if !ok {
			mapping.Form = append(mapping.Form, messages...)
			continue
		}
		if mapping.Fields == nil {
			mapping.Fields = make(map[string][]string)
		}
		mapping.Fields[key] = normalizeMessages(append(mapping.Fields[key], messages...))
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

func mapErrorPath(raw string, sc schema.Schema) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if sc.Has(trimmed) {
		return trimmed, true
	}
	segments := parsePathSegments(trimmed)
	for len(segments) > 0 && isWrapper(segments[0]) {
		segments = segments[1:]
	}
	if len(segments) == 0 {
		return "", false
	}
	if key := strings.Join(segments, "."); sc.Has(key) {
		return key, true
	}
	if sc.Has(segments[0]) {
		return segments[0], true
	}
	return "", false
}

func parsePathSegments(path string) []string {
	clean := strings.TrimLeft(path, "#$/.")
	if clean == "" {
		return nil
	}
	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		out = append(out, segment)
	}
	return out
}

func isWrapper(segment string) bool {
	switch strings.ToLower(segment) {
	case "values", "params", "parameters", "body", "data":
		return true
	}
	return false
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
