package extract

import (
	"context"
	"strings"
	"sync"

	"github.com/goliatone/go-paramkit/internal/jsliteral"
)

// Stage identifies which declaration idiom produced the parameters.
type Stage string

const (
	// StageDeclaration: `parameters` / `defaultParameters` / `module.parameters`.
	StageDeclaration Stage = "declaration"
	// StageGeometryBody: `key: value` pairs inside createGeometry.
	StageGeometryBody Stage = "geometry-body"
	// StageParamReads: `x = params.key || literal` reads inside createGeometry.
	StageParamReads Stage = "param-reads"
)

// stages lists the idioms in priority order; the first that yields a
// fragment wins.
var stages = []Stage{StageDeclaration, StageGeometryBody, StageParamReads}

// pair is a raw `key: value` member; Value holds unparsed source text.
type pair struct {
	Key   string
	Value string
}

// locator finds declaration idioms in script text. Implementations must be
// deterministic for a fixed input.
type locator interface {
	Name() string
	// Declaration returns the literal text assigned to a parameters variable.
	Declaration(in *input) (string, bool)
	// GeometryPairs returns `key: value` members of objects built inside
	// createGeometry.
	GeometryPairs(in *input) ([]pair, bool)
	// ParamReads returns `params.key || literal` fallbacks, keyed by
	// parameter name.
	ParamReads(in *input) ([]pair, bool)
}

// input carries the script text and a lazily parsed syntax tree shared by
// the locators of one extraction.
type input struct {
	ctx  context.Context
	text string

	once    sync.Once
	prog    *jsliteral.Program
	progErr error

	maskOnce sync.Once
	masked   []rune
}

func newInput(ctx context.Context, text string) *input {
	return &input{ctx: ctx, text: text}
}

func (in *input) program() (*jsliteral.Program, error) {
	in.once.Do(func() {
		in.prog, in.progErr = jsliteral.ParseProgram(in.ctx, []byte(in.text))
	})
	return in.prog, in.progErr
}

// runes returns the script with comments blanked out. Offsets and line
// breaks are preserved so matches can be sliced directly.
func (in *input) runes() []rune {
	in.maskOnce.Do(func() {
		in.masked = jsliteral.MaskComments([]rune(in.text))
	})
	return in.masked
}

func (in *input) close() {
	if in.prog != nil {
		in.prog.Close()
	}
}

// reservedWords never become parameters even when they look like `key:`.
var reservedWords = map[string]struct{}{
	"new": {}, "return": {}, "function": {}, "const": {}, "let": {}, "var": {},
	"if": {}, "else": {}, "for": {}, "while": {}, "do": {}, "switch": {},
	"case": {}, "default": {}, "break": {}, "continue": {}, "this": {},
	"typeof": {}, "instanceof": {}, "class": {}, "extends": {}, "super": {},
	"import": {}, "export": {}, "try": {}, "catch": {}, "finally": {},
	"throw": {}, "delete": {}, "void": {}, "yield": {}, "await": {}, "async": {},
	"in": {}, "of": {}, "with": {}, "true": {}, "false": {}, "null": {},
	"undefined": {},
}

func isReserved(key string) bool {
	_, ok := reservedWords[key]
	return ok
}

// receiverNames lists identifiers whose members are treated as parameter
// reads: `params` plus the second formal parameter of the geometry function
// (createGeometry(THREE, opts)).
func receiverNames(formals []string) []string {
	names := []string{"params"}
	if len(formals) >= 2 {
		second := strings.TrimSpace(formals[1])
		if second != "" && second != "params" {
			names = append(names, second)
		}
	}
	return names
}

func appendUnique(pairs []pair, seen map[string]struct{}, key, value string) []pair {
	if key == "" || isReserved(key) {
		return pairs
	}
	if _, dup := seen[key]; dup {
		return pairs
	}
	seen[key] = struct{}{}
	return append(pairs, pair{Key: key, Value: value})
}
