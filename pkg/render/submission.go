package render

import (
	"net/url"

	"github.com/goliatone/go-paramkit/pkg/preview"
	"github.com/goliatone/go-paramkit/pkg/schema"
)

// ParseSubmission reads a posted panel form into typed values. Each field is
// resolved the way a control commits on blur: numbers are clamped, invalid
// input reverts to the default. Fields the schema does not declare are
// ignored and missing fields are left out.
func ParseSubmission(sc schema.Schema, form url.Values) map[string]any {
	out := make(map[string]any, sc.Len())
	sc.Each(func(key string, def schema.Definition) bool {
		raw, ok := form[key]
		if !ok || len(raw) == 0 {
			return true
		}
		out[key] = preview.CommitValue(def, raw[len(raw)-1])
		return true
	})
	return out
}
