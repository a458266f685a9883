package tui

import "go.uber.org/zap"

// OutputFormat controls how tuned values are serialized.
type OutputFormat string

const (
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
	// OutputFormatFormURLEncoded emits application/x-www-form-urlencoded
	// payloads, matching what the HTML panel posts.
	OutputFormatFormURLEncoded OutputFormat = "form"
	OutputFormatPrettyText     OutputFormat = "pretty"
)

// Theme captures optional prefixes the tuner applies to messages.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
}

// Option configures the Tuner.
type Option func(*Tuner)

// WithPromptDriver overrides the prompt driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(t *Tuner) {
		if driver != nil {
			t.driver = driver
		}
	}
}

// WithOutputFormat selects the serialization used by Encode.
func WithOutputFormat(format OutputFormat) Option {
	return func(t *Tuner) {
		if format != "" {
			t.outputFormat = format
		}
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(t *Tuner) {
		t.theme = theme
	}
}

// WithPageSize caps the number of parameters listed at once.
func WithPageSize(size int) Option {
	return func(t *Tuner) {
		if size > 0 {
			t.pageSize = size
		}
	}
}

// WithLogger sets the logger used for debug tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(t *Tuner) {
		if logger != nil {
			t.logger = logger
		}
	}
}
