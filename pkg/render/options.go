package render

// RenderOptions describe per-request data that renderers use to customise
// their output without mutating the schema.
type RenderOptions struct {
	// Title heads the panel. Renderers fall back to a generic heading.
	Title string
	// Values pre-populates controls by parameter key. Missing keys show the
	// schema default.
	Values map[string]any
	// Errors surfaces validation feedback keyed by parameter key or JSON
	// pointer. Paths that match no parameter become panel-level errors.
	Errors map[string][]string
	// Printable reflects the classification (or the user override) so the
	// panel can label export actions.
	Printable bool
	// Features lists the classifier tags shown next to the printable toggle.
	Features []string
}
