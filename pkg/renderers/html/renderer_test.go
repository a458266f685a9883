package html_test

import (
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-paramkit/pkg/render"
	"github.com/goliatone/go-paramkit/pkg/render/template/pongo"
	"github.com/goliatone/go-paramkit/pkg/renderers/html"
	"github.com/goliatone/go-paramkit/pkg/testsupport"
)

func renderPanel(t *testing.T, renderer *html.Renderer, options render.RenderOptions) string {
	t.Helper()
	sc := testsupport.MustLoadSchema(t, filepath.Join("testdata", "schema.json"))
	out, err := renderer.Render(testsupport.Context(), render.NewPanel(sc, options), options)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return string(out)
}

func TestRenderer_Controls(t *testing.T) {
	renderer, err := html.New(html.WithAction("/apply"))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	output := renderPanel(t, renderer, render.RenderOptions{
		Title:     "Torus",
		Values:    map[string]any{"radius": 7.5},
		Errors:    map[string][]string{"tint": {"not a color"}, "": {"preset rejected"}},
		Printable: true,
		Features:  []string{"buffer-geometry-return"},
	})

	wants := []string{
		`<h2>Torus</h2>`,
		`data-printable="true"`,
		`action="/apply"`,
		`<li>buffer-geometry-return</li>`,
		`<li>preset rejected</li>`,
		`type="range" id="param-radius-range" name="radius" min="1" max="10" step="0.5" value="7.5"`,
		`type="number" id="param-radius" name="radius" min="1" max="10" step="0.5" value="7.5"`,
		`type="color" id="param-tint" name="tint" value="#ff0000"`,
		`paramkit-control--invalid`,
		`<p class="paramkit-control__error">not a color</p>`,
		`Base &lt;Color&gt;`,
		`value="Spiral &quot;One&quot;"`,
	}
	for _, want := range wants {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
	if strings.Contains(output, "<style>") {
		t.Fatal("styles are opt-in")
	}
	if strings.Index(output, `data-key="radius"`) > strings.Index(output, `data-key="title"`) {
		t.Fatal("controls must follow schema order")
	}
}

func TestRenderer_DefaultsAndStyles(t *testing.T) {
	renderer, err := html.New(html.WithInlineStyles())
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	output := renderPanel(t, renderer, render.RenderOptions{})
	for _, want := range []string{`<h2>Parameters</h2>`, `data-printable="false"`, `value="5"`, `<style>.paramkit-panel`} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(output, "action=") {
		t.Fatal("action is optional")
	}
}

func TestRenderer_TemplateOverride(t *testing.T) {
	files := fstest.MapFS{
		"panel.tpl": {Data: []byte(`{% for control in panel.Controls %}{{ control.Key }}={{ control.Display }};{% endfor %}`)},
	}
	engine, err := pongo.New(pongo.WithFS(files))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	renderer, err := html.New(html.WithTemplateRenderer(engine))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	result, written := testsupport.CaptureOutput(t, func(w io.Writer) (string, error) {
		out := renderPanel(t, renderer, render.RenderOptions{Values: map[string]any{"tint": "#00ff00"}})
		_, err := io.WriteString(w, out)
		return out, err
	})
	want := `radius=5;tint=#00ff00;title=Spiral &quot;One&quot;;`
	if result != want || written != want {
		t.Fatalf("unexpected override output %q", result)
	}
}

func TestEmbeddedAssets(t *testing.T) {
	data, err := fs.ReadFile(html.AssetsFS(), html.StylesheetName)
	if err != nil || len(data) == 0 {
		t.Fatalf("read stylesheet: %v", err)
	}
	if _, err := fs.Stat(html.TemplatesFS(), "panel.tpl"); err != nil {
		t.Fatalf("stat panel template: %v", err)
	}
	if renderer, _ := html.New(); renderer.ContentType() != "text/html; charset=utf-8" || renderer.Name() != "html" {
		t.Fatal("unexpected renderer metadata")
	}
}
