package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-paramkit/pkg/preview"
	"github.com/goliatone/go-paramkit/pkg/render"
	"github.com/goliatone/go-paramkit/pkg/schema"
)

type stubDriver struct {
	inputs       []string
	selectIdx    []int
	confirm      []bool
	infoMessages []string
	inputConfigs []InputConfig
	inputPos     int
	selectPos    int
	confirmPos   int
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	s.inputConfigs = append(s.inputConfigs, cfg)
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, _ SelectConfig) (int, error) {
	if s.selectPos >= len(s.selectIdx) {
		return -1, ErrAborted
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func seededStore(t *testing.T) (*preview.Store, schema.Schema) {
	t.Helper()
	sc := schema.New()
	sc.Set("radius", schema.Definition{Type: schema.TypeNumber, Label: "Radius", Default: 5.0, Min: schema.Float(1), Max: schema.Float(10), Step: schema.Float(0.5)})
	sc.Set("tint", schema.Definition{Type: schema.TypeColor, Label: "Tint", Default: "#ff0000"})
	sc.Set("title", schema.Definition{Type: schema.TypeString, Label: "Title", Default: "Spiral"})
	store := preview.New()
	store.Seed(sc)
	return store, sc
}

func TestTune_CommitsThroughStore(t *testing.T) {
	store, _ := seededStore(t)
	driver := &stubDriver{
		selectIdx: []int{0, 1, 3, 0, 4},
		inputs:    []string{"40", "red", "3"},
		confirm:   []bool{true},
	}
	tuner := New(WithPromptDriver(driver), WithTheme(Theme{InfoPrefix: "> "}))

	got, err := tuner.Tune(context.Background(), store)
	if err != nil {
		t.Fatalf("tune: %v", err)
	}
	want := map[string]any{"radius": 3.0, "tint": "#ff0000", "title": "Spiral"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}

	wantInfo := []string{
		`> Radius = 10 (adjusted from "40")`,
		`> Tint = #ff0000 (adjusted from "red")`,
		`> values reset`,
		`> Radius = 3`,
	}
	if diff := cmp.Diff(wantInfo, driver.infoMessages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
	if cfg := driver.inputConfigs[0]; cfg.Default != "5" || cfg.Help != "number between 1 and 10, step 0.5" {
		t.Fatalf("unexpected first prompt %+v", cfg)
	}
	if cfg := driver.inputConfigs[2]; cfg.Default != "5" {
		t.Fatalf("reset must restore the prompt default, got %q", cfg.Default)
	}
}

func TestTune_Errors(t *testing.T) {
	store, _ := seededStore(t)
	if _, err := New(WithPromptDriver(&stubDriver{})).Tune(context.Background(), store); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	if _, err := New(WithPromptDriver(&stubDriver{selectIdx: []int{9}})).Tune(context.Background(), store); err == nil {
		t.Fatal("expected out of range error")
	}
	if _, err := New(WithPromptDriver(&stubDriver{})).Tune(context.Background(), preview.New()); !errors.Is(err, ErrNoParameters) {
		t.Fatalf("expected ErrNoParameters, got %v", err)
	}
}

func TestEncode(t *testing.T) {
	_, sc := seededStore(t)
	values := map[string]any{"radius": 3.0, "tint": "#00ff00", "title": "Knot"}

	cases := []struct {
		format OutputFormat
		check  func(string) bool
	}{
		{OutputFormatJSON, func(out string) bool { return strings.Contains(out, `"radius": 3`) }},
		{OutputFormatYAML, func(out string) bool {
			return strings.HasPrefix(out, "radius: 3\n") && strings.Index(out, "tint") < strings.Index(out, "title")
		}},
		{OutputFormatFormURLEncoded, func(out string) bool { return out == "radius=3&tint=%2300ff00&title=Knot" }},
		{OutputFormatPrettyText, func(out string) bool { return out == "Radius  3\nTint    #00ff00\nTitle   Knot\n" }},
	}
	for _, tc := range cases {
		out, err := New(WithPromptDriver(&stubDriver{}), WithOutputFormat(tc.format)).Encode(sc, values)
		if err != nil {
			t.Fatalf("%s: %v", tc.format, err)
		}
		if !tc.check(string(out)) {
			t.Errorf("%s: unexpected output %q", tc.format, out)
		}
	}

	if _, err := New(WithPromptDriver(&stubDriver{}), WithOutputFormat("xml")).Encode(sc, values); err == nil {
		t.Fatal("expected unsupported format error")
	}
}

func TestRender_Summary(t *testing.T) {
	_, sc := seededStore(t)
	tuner := New(WithPromptDriver(&stubDriver{}), WithTheme(Theme{ErrorPrefix: "! "}))
	options := render.RenderOptions{
		Title:  "Torus",
		Values: map[string]any{"radius": 7.5},
		Errors: map[string][]string{"radius": {"too large"}},
	}
	out, err := tuner.Render(context.Background(), render.NewPanel(sc, options), options)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	text := string(out)
	for _, want := range []string{"Torus (animated)\n", "Radius", "7.5", "[1, 10]", "! too large", "#ff0000"} {
		if !strings.Contains(text, want) {
			t.Errorf("summary missing %q:\n%s", want, text)
		}
	}
}
