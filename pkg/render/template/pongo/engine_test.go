package pongo_test

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-paramkit/pkg/render/template/pongo"
	"github.com/goliatone/go-paramkit/pkg/testsupport"
)

//go:embed testdata/templates/*.tpl
var embeddedTemplates embed.FS

var shoutOnce sync.Once

func TestEngine_RenderTemplate(t *testing.T) {
	engine := newEngine(t)

	result, written := testsupport.CaptureOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("hello", map[string]any{"name": "  Ada "}, w)
	})
	assertGolden(t, "hello.golden", result, written)
}

func TestEngine_GlobalContext(t *testing.T) {
	engine := newEngine(t)
	if err := engine.GlobalContext(map[string]any{
		"settings": map[string]any{"env": "staging"},
	}); err != nil {
		t.Fatalf("global context: %v", err)
	}

	result, written := testsupport.CaptureOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("use-global", nil, w)
	})
	assertGolden(t, "use-global.golden", result, written)
}

func TestEngine_RegisterFilter(t *testing.T) {
	engine := newEngine(t)
	var err error
	shoutOnce.Do(func() {
		err = engine.RegisterFilter("shout", func(input any, _ any) (any, error) {
			return fmt.Sprintf("%s!", strings.ToUpper(fmt.Sprint(input))), nil
		})
	})
	if err != nil {
		t.Fatalf("register filter: %v", err)
	}
	if err := engine.RegisterFilter("shout", func(any, any) (any, error) { return nil, nil }); err == nil {
		t.Fatal("expected duplicate filter error")
	}

	step := 0.25
	result, written := testsupport.CaptureOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("use-filter", map[string]any{"name": "Ada", "step": &step}, w)
	})
	assertGolden(t, "use-filter.golden", result, written)
}

func TestEngine_RenderString(t *testing.T) {
	engine := newEngine(t)

	got, err := engine.Render("{{ label }}", map[string]any{"label": "<b>Size</b>"})
	if err != nil {
		t.Fatalf("render string: %v", err)
	}
	if got != "&lt;b&gt;Size&lt;/b&gt;" {
		t.Fatalf("expected escaped output, got %q", got)
	}
	if _, err := engine.Render("{{ x }}", struct{}{}); err == nil {
		t.Fatal("expected unsupported data error")
	}
	if _, err := engine.RenderTemplate("missing", nil); err == nil {
		t.Fatal("expected missing template error")
	}
}

func TestNew_RequiresSource(t *testing.T) {
	if _, err := pongo.New(); err == nil {
		t.Fatal("expected configuration error")
	}
}

func newEngine(t *testing.T) *pongo.Engine {
	t.Helper()

	templatesFS, err := fs.Sub(embeddedTemplates, "testdata/templates")
	if err != nil {
		t.Fatalf("sub fs: %v", err)
	}
	engine, err := pongo.New(pongo.WithFS(templatesFS))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func assertGolden(t *testing.T, name, result, written string) {
	t.Helper()
	want := string(testsupport.MustReadGolden(t, filepath.Join("testdata", name)))
	if result != want {
		t.Fatalf("render template mismatch result\nwant: %q\n got: %q", want, result)
	}
	if written != want {
		t.Fatalf("render template mismatch writer\nwant: %q\n got: %q", want, written)
	}
}
