// Package tui tunes parameters interactively in a terminal.
//
// The Tuner lists every parameter with its live value; picking one prompts
// for new input that is committed to a preview.Store the way a panel control
// commits on blur. The tuned values can then be encoded as JSON, YAML, a
// form payload or a readable summary.
package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-paramkit/pkg/preview"
	"github.com/goliatone/go-paramkit/pkg/render"
	"github.com/goliatone/go-paramkit/pkg/schema"
)

const (
	actionReset = "Reset to defaults"
	actionDone  = "Done"
)

// Tuner drives the prompt loop.
type Tuner struct {
	driver       PromptDriver
	outputFormat OutputFormat
	theme        Theme
	pageSize     int
	logger       *zap.Logger
}

var _ render.Renderer = (*Tuner)(nil)

// New constructs a Tuner backed by survey prompts unless WithPromptDriver is
// supplied.
func New(options ...Option) *Tuner {
	t := &Tuner{
		outputFormat: OutputFormatJSON,
		pageSize:     12,
		logger:       zap.NewNop(),
	}
	for _, option := range options {
		if option != nil {
			option(t)
		}
	}
	if t.driver == nil {
		t.driver = newSurveyDriver()
	}
	return t
}

// Tune runs the prompt loop until the user picks Done and returns the
// resolved values. Aborting returns ErrAborted; values committed so far stay
// in the store.
func (t *Tuner) Tune(ctx context.Context, store *preview.Store) (map[string]any, error) {
	sc := store.Schema()
	if sc.Len() == 0 {
		return nil, ErrNoParameters
	}
	keys := sc.Keys()

	last := 0
	for {
		options := make([]string, 0, len(keys)+2)
		for _, key := range keys {
			def, _ := sc.Get(key)
			value, _ := store.Get(key)
			options = append(options, fmt.Sprintf("%s [%s] = %s", def.Label, key, formatValue(value)))
		}
		options = append(options, actionReset, actionDone)

		idx, err := t.driver.Select(ctx, SelectConfig{
			Message:      "Parameter",
			Options:      options,
			DefaultIndex: last,
			PageSize:     t.pageSize,
		})
		if err != nil {
			return nil, err
		}

		switch {
		case idx < 0 || idx >= len(options):
			return nil, fmt.Errorf("tui: selection %d out of range", idx)
		case options[idx] == actionDone:
			return store.Resolved(), nil
		case options[idx] == actionReset:
			ok, err := t.driver.Confirm(ctx, ConfirmConfig{Message: "Reset every parameter to its default?"})
			if err != nil {
				return nil, err
			}
			if ok {
				if err := store.Reset(); err != nil {
					return nil, err
				}
				if err := t.info(ctx, "values reset"); err != nil {
					return nil, err
				}
			}
		default:
			last = idx
			def, _ := sc.Get(keys[idx])
			if err := t.edit(ctx, store, keys[idx], def); err != nil {
				return nil, err
			}
		}
	}
}

func (t *Tuner) edit(ctx context.Context, store *preview.Store, key string, def schema.Definition) error {
	current, _ := store.Get(key)
	raw, err := t.driver.Input(ctx, InputConfig{
		Message: def.Label,
		Default: formatValue(current),
		Help:    helpFor(def),
	})
	if err != nil {
		return err
	}

	committed, err := store.Commit(key, raw)
	if err != nil {
		return err
	}
	t.logger.Debug("committed parameter", zap.String("key", key), zap.String("input", raw), zap.Any("value", committed))

	msg := fmt.Sprintf("%s = %s", def.Label, formatValue(committed))
	if trimmed := strings.TrimSpace(raw); def.Type != schema.TypeString && trimmed != formatValue(committed) {
		msg += fmt.Sprintf(" (adjusted from %q)", trimmed)
	}
	return t.info(ctx, msg)
}

func (t *Tuner) info(ctx context.Context, msg string) error {
	return t.driver.Info(ctx, t.theme.InfoPrefix+msg)
}

func helpFor(def schema.Definition) string {
	switch def.Type {
	case schema.TypeNumber:
		lo, hi := def.Bounds()
		help := fmt.Sprintf("number between %s and %s", formatValue(lo), formatValue(hi))
		if def.Step != nil {
			help += fmt.Sprintf(", step %s", formatValue(*def.Step))
		}
		return help
	case schema.TypeColor:
		return "hex color such as #ff8800"
	default:
		return def.Description
	}
}

// Encode serializes values in the configured output format. Keys follow the
// schema order where the format preserves order.
func (t *Tuner) Encode(sc schema.Schema, values map[string]any) ([]byte, error) {
	switch t.outputFormat {
	case OutputFormatJSON:
		out, err := json.MarshalIndent(values, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("tui: encode json: %w", err)
		}
		return append(out, '\n'), nil
	case OutputFormatYAML:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, key := range orderedKeys(sc, values) {
			value := &yaml.Node{}
			if err := value.Encode(values[key]); err != nil {
				return nil, fmt.Errorf("tui: encode yaml %q: %w", key, err)
			}
			node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, value)
		}
		out, err := yaml.Marshal(node)
		if err != nil {
			return nil, fmt.Errorf("tui: encode yaml: %w", err)
		}
		return out, nil
	case OutputFormatFormURLEncoded:
		form := url.Values{}
		for key, value := range values {
			form.Set(key, formatValue(value))
		}
		return []byte(form.Encode()), nil
	case OutputFormatPrettyText:
		var buf bytes.Buffer
		w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
		for _, key := range orderedKeys(sc, values) {
			label := key
			if def, ok := sc.Get(key); ok {
				label = def.Label
			}
			fmt.Fprintf(w, "%s\t%s\n", label, formatValue(values[key]))
		}
		if err := w.Flush(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("tui: unsupported output format %q", t.outputFormat)
	}
}

func (t *Tuner) Name() string {
	return "text"
}

func (t *Tuner) ContentType() string {
	return "text/plain; charset=utf-8"
}

// Render prints the panel as an aligned summary, with validation messages
// beneath the offending parameter.
func (t *Tuner) Render(_ context.Context, panel render.Panel, _ render.RenderOptions) ([]byte, error) {
	var buf bytes.Buffer
	title := panel.Title
	if title == "" {
		title = "Parameters"
	}
	kind := "animated"
	if panel.Printable {
		kind = "printable"
	}
	fmt.Fprintf(&buf, "%s (%s)\n", title, kind)
	for _, message := range panel.FormErrors {
		fmt.Fprintf(&buf, "%s%s\n", t.theme.ErrorPrefix, message)
	}

	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	for _, control := range panel.Controls {
		bounds := ""
		if control.Kind == render.ControlRange && control.Min != nil && control.Max != nil {
			bounds = fmt.Sprintf("[%s, %s]", formatValue(*control.Min), formatValue(*control.Max))
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", control.Label, control.Kind, control.Display, bounds)
		for _, message := range control.Errors {
			fmt.Fprintf(w, "    %s%s\t\t\t\n", t.theme.ErrorPrefix, message)
		}
	}
	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("tui: render summary: %w", err)
	}
	return buf.Bytes(), nil
}

func orderedKeys(sc schema.Schema, values map[string]any) []string {
	keys := make([]string, 0, len(values))
	for _, key := range sc.Keys() {
		if _, ok := values[key]; ok {
			keys = append(keys, key)
		}
	}
	var extra []string
	for key := range values {
		if !sc.Has(key) {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}

func formatValue(value any) string {
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
