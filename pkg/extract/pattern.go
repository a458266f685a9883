package extract

import (
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// patternLocator is the compatibility strategy: a fixed regexp2 pattern
// table plus bracket balancing over comment-masked text. It recovers
// declarations from scripts the grammar cannot parse.
type patternLocator struct{}

func (patternLocator) Name() string { return "pattern" }

const matchTimeout = 250 * time.Millisecond

const identifier = `[A-Za-z_$][\w$]*`

// literalPattern matches the scalar fallbacks accepted in param reads.
const literalPattern = `-?(?:0[xX][0-9a-fA-F_]+|(?:\d[\d_]*\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)|'(?:[^'\\\n]|\\.)*'|"(?:[^"\\\n]|\\.)*"|true|false`

var (
	declarationPatterns = []*regexp2.Regexp{
		mustPattern(`(?<![\w$.])(?:parameters|defaultParameters)\s*=(?![=>])\s*(?=\{)`),
		mustPattern(`(?<![\w$.])(?:parameters|defaultParameters)\s*=(?![=>])\s*(?=\[)`),
		mustPattern(`(?<![\w$.])module\s*\.\s*parameters\s*=(?![=>])\s*(?=[\{\[])`),
	}

	// geometryPattern stops at the formals paren, or at the body brace of a
	// single-identifier arrow function.
	geometryPattern = mustPattern(
		`(?<![\w$])createGeometry\s*(?:[=:]\s*)?(?:async\s+)?(?:function\b\s*\*?\s*(?:` + identifier + `)?\s*)?` +
			`(?:(?<single>` + identifier + `)\s*=>\s*(?=\{)|(?=\())`,
	)

	objectAssignPattern = mustPattern(`(?<![=!<>])=(?![=>])\s*(?=\{)`)

	memberPattern = mustPattern(
		`^\s*(?:(?<ident>` + identifier + `)|'(?<single>[^']*)'|"(?<double>[^"]*)"|(?<number>\d+))\s*:(?<value>[\s\S]+)$`,
	)

	formalPattern = mustPattern(`^\s*(?<name>` + identifier + `)`)

	destructuredDefaultPattern = mustPattern(
		`^\s*(?<key>` + identifier + `)\s*=\s*(?<lit>` + literalPattern + `)\s*$`,
	)
)

func mustPattern(expr string) *regexp2.Regexp {
	re := regexp2.MustCompile(expr, regexp2.None)
	re.MatchTimeout = matchTimeout
	return re
}

// eachMatch calls fn for every match of re in src until fn returns false.
// Timeouts end the scan silently.
func eachMatch(re *regexp2.Regexp, src []rune, fn func(*regexp2.Match) bool) {
	m, err := re.FindRunesMatch(src)
	for err == nil && m != nil {
		if !fn(m) {
			return
		}
		m, err = re.FindNextMatch(m)
	}
}

func firstMatch(re *regexp2.Regexp, src []rune) *regexp2.Match {
	var found *regexp2.Match
	eachMatch(re, src, func(m *regexp2.Match) bool {
		found = m
		return false
	})
	return found
}

func group(m *regexp2.Match, name string) (string, bool) {
	g := m.GroupByName(name)
	if g == nil || len(g.Captures) == 0 {
		return "", false
	}
	return g.String(), true
}

func (patternLocator) Declaration(in *input) (string, bool) {
	src := in.runes()
	for _, re := range declarationPatterns {
		m := firstMatch(re, src)
		if m == nil {
			continue
		}
		open := m.Index + m.Length
		end, _ := matchBracket(src, open)
		return string(src[open:end]), true
	}
	return "", false
}

// geometrySpan covers the formals and body of createGeometry in the masked
// text.
type geometrySpan struct {
	formals  []string
	start    int
	bodyOpen int
	end      int
}

func locateGeometry(src []rune) (geometrySpan, bool) {
	var (
		span  geometrySpan
		found bool
	)
	eachMatch(geometryPattern, src, func(m *regexp2.Match) bool {
		next := m.Index + m.Length
		if single, ok := group(m, "single"); ok {
			span = geometrySpan{formals: []string{single}, start: m.Index, bodyOpen: next}
		} else {
			closeParen, ok := matchBracket(src, next)
			if !ok {
				return true
			}
			formals := formalNamesFromText(src[next+1 : closeParen-1])
			bodyOpen := skipSpace(src, closeParen)
			if bodyOpen+1 < len(src) && src[bodyOpen] == '=' && src[bodyOpen+1] == '>' {
				bodyOpen = skipSpace(src, bodyOpen+2)
			}
			if bodyOpen >= len(src) || src[bodyOpen] != '{' {
				// A call site, not a definition.
				return true
			}
			span = geometrySpan{formals: formals, start: next, bodyOpen: bodyOpen}
		}
		span.end, _ = matchBracket(src, span.bodyOpen)
		found = true
		return false
	})
	return span, found
}

func formalNamesFromText(src []rune) []string {
	var names []string
	for _, part := range splitTopLevel(src) {
		name := ""
		if m := firstMatch(formalPattern, part); m != nil {
			name, _ = group(m, "name")
		}
		names = append(names, name)
	}
	return names
}

func (patternLocator) GeometryPairs(in *input) ([]pair, bool) {
	src := in.runes()
	span, ok := locateGeometry(src)
	if !ok {
		return nil, false
	}
	region := src[span.start:span.end]

	var (
		pairs []pair
		seen  = make(map[string]struct{})
	)
	eachMatch(objectAssignPattern, region, func(m *regexp2.Match) bool {
		open := m.Index + m.Length
		end, closed := matchBracket(region, open)
		inner := region[open+1 : end]
		if closed {
			inner = region[open+1 : end-1]
		}
		for _, member := range splitTopLevel(inner) {
			if key, value, ok := splitMember(member); ok {
				pairs = appendUnique(pairs, seen, key, value)
			}
		}
		return true
	})
	return pairs, len(pairs) > 0
}

func splitMember(member []rune) (string, string, bool) {
	m := firstMatch(memberPattern, member)
	if m == nil {
		return "", "", false
	}
	value, _ := group(m, "value")
	value = strings.TrimSpace(value)
	if value == "" {
		return "", "", false
	}
	for _, name := range []string{"ident", "single", "double", "number"} {
		if key, ok := group(m, name); ok {
			return key, value, true
		}
	}
	return "", "", false
}

func (patternLocator) ParamReads(in *input) ([]pair, bool) {
	src := in.runes()
	span, ok := locateGeometry(src)
	if !ok {
		return nil, false
	}
	region := src[span.start:span.end]

	receivers := receiverNames(span.formals)
	quoted := make([]string, len(receivers))
	for i, name := range receivers {
		quoted[i] = regexp2.Escape(name)
	}
	recv := `(?:` + strings.Join(quoted, "|") + `)`

	reads := mustPattern(
		identifier + `\s*=(?![=>])\s*` + recv +
			`\s*(?:\.\s*(?<key>` + identifier + `)|\[\s*(?<q>['"])(?<skey>[^'"\n]*)\k<q>\s*\])` +
			`\s*(?:\|\||\?\?)\s*(?<lit>` + literalPattern + `)(?=\s*(?:[;,)}\r\n]|$))`,
	)
	destructure := mustPattern(`\b(?:const|let|var)\s*\{(?<members>[^{}]*)\}\s*=\s*` + recv + `(?![\w$.])`)

	var (
		pairs []pair
		seen  = make(map[string]struct{})
	)
	eachMatch(reads, region, func(m *regexp2.Match) bool {
		key, ok := group(m, "key")
		if !ok {
			key, _ = group(m, "skey")
		}
		literal, _ := group(m, "lit")
		pairs = appendUnique(pairs, seen, key, literal)
		return true
	})
	eachMatch(destructure, region, func(m *regexp2.Match) bool {
		members, _ := group(m, "members")
		for _, member := range splitTopLevel([]rune(members)) {
			if dm := firstMatch(destructuredDefaultPattern, member); dm != nil {
				key, _ := group(dm, "key")
				literal, _ := group(dm, "lit")
				pairs = appendUnique(pairs, seen, key, literal)
			}
		}
		return true
	})
	return pairs, len(pairs) > 0
}
