package session_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/goliatone/go-paramkit/internal/script/loader"
	"github.com/goliatone/go-paramkit/pkg/classify"
	"github.com/goliatone/go-paramkit/pkg/extract"
	"github.com/goliatone/go-paramkit/pkg/preview"
	"github.com/goliatone/go-paramkit/pkg/script"
	"github.com/goliatone/go-paramkit/pkg/session"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	torusScript = `const parameters = {
  radius: { default: 5, min: 1, max: 10 },
  tint: '#ff0000',
};
function createGeometry(THREE, params) {
  const geometry = new THREE.BufferGeometry();
  return geometry;
}`
	ringScript = `function createGeometry(THREE, params) {
  const speed = params.speed || 2;
  function animate(t) {}
  return new THREE.Mesh();
}`
)

func newSession(t *testing.T) *session.Session {
	t.Helper()
	files := fstest.MapFS{
		"torus.js": {Data: []byte(torusScript)},
		"ring.js":  {Data: []byte(ringScript)},
		"bad.js":   {Data: []byte("export default 42;")},
	}
	l := loader.New(script.NewLoaderOptions(script.WithFileSystem(files)))
	s := session.New(session.WithLoader(l))
	t.Cleanup(s.Close)
	return s
}

func sortedKeys(values map[string]any) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func TestSession_ReloadReplacesKeys(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newSession(t)

	state, err := s.Load(ctx, script.SourceFromFS("torus.js"))
	if err != nil {
		t.Fatalf("load torus: %v", err)
	}
	if state.Stage != extract.StageDeclaration || !state.Classification.IsPrintable {
		t.Fatalf("unexpected torus state %+v", state)
	}
	if _, err := s.Store().Update("radius", 8.0); err != nil {
		t.Fatalf("update: %v", err)
	}

	state, err = s.Load(ctx, script.SourceFromFS("ring.js"))
	if err != nil {
		t.Fatalf("load ring: %v", err)
	}
	if state.Stage != extract.StageParamReads {
		t.Fatalf("expected param reads stage, got %s", state.Stage)
	}
	if diff := cmp.Diff([]string{"speed"}, sortedKeys(s.Store().Snapshot())); diff != "" {
		t.Fatalf("store keys mismatch (-want +got):\n%s", diff)
	}
	if _, ok := s.Store().Get("radius"); ok {
		t.Fatal("old keys must not survive a reload")
	}
	if s.Printable() {
		t.Fatal("animated script must not be printable")
	}
}

func TestSession_CurrentBeforeLoad(t *testing.T) {
	t.Parallel()
	s := newSession(t)

	sc, values := s.Current()
	if sc.Len() != 0 || len(values) != 0 {
		t.Fatalf("expected an empty pair before the first load, got %v / %v", sc.Keys(), values)
	}

	seen := make(chan []string, 1)
	s.Store().Subscribe(func(preview.Snapshot) {
		sc, _ := s.Current()
		select {
		case seen <- sc.Keys():
		default:
		}
	})
	if _, err := s.Load(context.Background(), script.SourceFromFS("ring.js")); err != nil {
		t.Fatalf("load ring: %v", err)
	}
	if diff := cmp.Diff([]string{"speed"}, <-seen); diff != "" {
		t.Fatalf("listeners must see the new schema (-want +got):\n%s", diff)
	}
}

func TestSession_FailedLoadKeepsState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newSession(t)

	if _, err := s.Load(ctx, script.SourceFromFS("torus.js")); err != nil {
		t.Fatalf("load torus: %v", err)
	}
	if _, err := s.Store().Update("radius", 3.0); err != nil {
		t.Fatalf("update: %v", err)
	}
	before := s.Store().Version()

	_, err := s.Load(ctx, script.SourceFromFS("bad.js"))
	var extractErr *extract.ExtractionError
	if !errors.As(err, &extractErr) || extractErr.Reason != extract.ReasonNotFound {
		t.Fatalf("expected not found extraction error, got %v", err)
	}
	if _, err := s.Load(ctx, script.SourceFromFS("missing.js")); err == nil {
		t.Fatal("expected missing file error")
	}
	if _, err := s.LoadText(ctx, "empty.js", ""); err == nil {
		t.Fatal("expected empty upload error")
	}

	if diff := cmp.Diff([]string{"radius", "tint"}, s.Schema().Keys()); diff != "" {
		t.Fatalf("schema keys mismatch (-want +got):\n%s", diff)
	}
	if value, _ := s.Store().Get("radius"); value != 3.0 {
		t.Fatalf("expected live value to survive, got %v", value)
	}
	if s.Store().Version() != before {
		t.Fatal("failed loads must not touch the store")
	}
	state, ok := s.State()
	if !ok || state.Location != "torus.js" {
		t.Fatalf("unexpected state %+v", state)
	}
}

func TestSession_PrintableOverride(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newSession(t)

	if !s.Printable() {
		t.Fatal("an empty session defaults to printable")
	}
	if _, err := s.LoadText(ctx, "ring.js", ringScript); err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Printable() {
		t.Fatal("expected classifier verdict")
	}

	s.OverridePrintable(true)
	if !s.Printable() {
		t.Fatal("override must win")
	}
	if got := s.Classification(); got.IsPrintable || got.Confidence != classify.ConfidenceHigh {
		t.Fatalf("override must not mutate the classification, got %+v", got)
	}
	if value, set := s.Override(); !set || !value {
		t.Fatalf("unexpected override %v %v", value, set)
	}

	s.ClearOverride()
	if s.Printable() {
		t.Fatal("expected classifier verdict after clearing")
	}

	s.OverridePrintable(true)
	if _, err := s.LoadText(ctx, "torus.js", torusScript); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, set := s.Override(); set {
		t.Fatal("a new script clears the override")
	}
}

func TestSession_ApplyPreset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newSession(t)

	if err := s.ApplyPreset(map[string]any{"radius": 2.0}); !errors.Is(err, session.ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
	if _, err := s.LoadText(ctx, "torus.js", torusScript); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := s.Store().Update("tint", "#00ff00"); err != nil {
		t.Fatalf("update: %v", err)
	}

	if err := s.ApplyPreset(map[string]any{"radius": 2.0}); err != nil {
		t.Fatalf("apply preset: %v", err)
	}
	want := map[string]any{"radius": 2.0, "tint": "#ff0000"}
	if diff := cmp.Diff(want, s.Store().Snapshot()); diff != "" {
		t.Fatalf("store mismatch (-want +got):\n%s", diff)
	}

	if err := s.ApplyPreset(map[string]any{"radius": 99.0, "ghost": 1.0}); err == nil {
		t.Fatal("expected invalid preset error")
	}
	if diff := cmp.Diff(want, s.Store().Snapshot()); diff != "" {
		t.Fatalf("invalid preset changed the store (-want +got):\n%s", diff)
	}

	result, err := s.Validate()
	if err != nil || !result.Valid {
		t.Fatalf("expected valid store, got %+v %v", result, err)
	}
}

func TestSession_ConcurrentReloads(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newSession(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := "torus.js"
			if i%2 == 1 {
				name = "ring.js"
			}
			if _, err := s.Load(ctx, script.SourceFromFS(name)); err != nil {
				t.Errorf("load %s: %v", name, err)
			}
			_ = s.Schema()
			_ = s.Store().Snapshot()
		}(i)
	}
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				sc, values := s.Current()
				keys := sc.Keys()
				sort.Strings(keys)
				if diff := cmp.Diff(keys, sortedKeys(values)); diff != "" {
					t.Errorf("current pair mixes two scripts (-schema +values):\n%s", diff)
					return
				}
			}
		}()
	}
	wg.Wait()

	keys := s.Schema().Keys()
	sort.Strings(keys)
	if diff := cmp.Diff(keys, sortedKeys(s.Store().Resolved())); diff != "" {
		t.Fatalf("store and schema diverged (-schema +store):\n%s", diff)
	}
}
