package extract

import "github.com/goliatone/go-paramkit/internal/jsliteral"

// Rune scanners used by the pattern strategy. They work on comment-masked
// text and understand string literals well enough to balance brackets in
// real scripts; regular expression literals are not recognised.

var closers = map[rune]rune{'{': '}', '[': ']', '(': ')'}

// matchBracket returns the index just past the bracket closing the one at
// open. When the text ends first it returns len(src) and false, so callers
// slicing a fragment keep the truncated tail.
func matchBracket(src []rune, open int) (int, bool) {
	if open >= len(src) {
		return len(src), false
	}
	want, ok := closers[src[open]]
	if !ok {
		return open, false
	}

	stack := []rune{want}
	for i := open + 1; i < len(src); {
		c := src[i]
		switch {
		case c == '"' || c == '\'' || c == '`':
			i = jsliteral.SkipString(src, i)
			continue
		case c == '{' || c == '[' || c == '(':
			stack = append(stack, closers[c])
		case c == '}' || c == ']' || c == ')':
			if c != stack[len(stack)-1] {
				return len(src), false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i + 1, true
			}
		}
		i++
	}
	return len(src), false
}

// splitTopLevel splits src on commas that are not nested in brackets or
// strings. Blank segments are dropped.
func splitTopLevel(src []rune) [][]rune {
	var (
		parts [][]rune
		depth int
		start int
	)
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '"' || c == '\'' || c == '`':
			i = jsliteral.SkipString(src, i)
			continue
		case c == '{' || c == '[' || c == '(':
			depth++
		case c == '}' || c == ']' || c == ')':
			depth--
		case c == ',' && depth == 0:
			parts = appendSegment(parts, src[start:i])
			start = i + 1
		}
		i++
	}
	return appendSegment(parts, src[start:])
}

func appendSegment(parts [][]rune, segment []rune) [][]rune {
	for _, r := range segment {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return append(parts, segment)
		}
	}
	return parts
}

func skipSpace(src []rune, i int) int {
	for i < len(src) && (src[i] == ' ' || src[i] == '\t' || src[i] == '\n' || src[i] == '\r') {
		i++
	}
	return i
}
