package normalize

import (
	"html"
	"regexp"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// Labeler derives a display label from a parameter key when the script does
// not declare one.
type Labeler func(key string) string

// KeyLabeler uses the key verbatim.
func KeyLabeler(key string) string {
	return key
}

var splitWordsPattern = regexp.MustCompile(`[_\-\s]+`)

// HumanLabeler converts a parameter key into a human-friendly label. It
// splits on underscores/dashes and camelCase boundaries: "ringCount_2"
// becomes "Ring Count 2".
func HumanLabeler(key string) string {
	if key == "" {
		return ""
	}

	words := splitWordsPattern.Split(key, -1)
	var segments []string
	for _, word := range words {
		if word == "" {
			continue
		}
		segments = append(segments, titleCase(splitCamel(word)))
	}
	return strings.TrimSpace(strings.Join(segments, " "))
}

func splitCamel(input string) string {
	var (
		out  strings.Builder
		prev rune
	)
	for i, r := range input {
		if i > 0 && isBoundary(prev, r) {
			out.WriteRune(' ')
		}
		out.WriteRune(r)
		prev = r
	}
	return out.String()
}

func isBoundary(prev, r rune) bool {
	return (unicode.IsLower(prev) && unicode.IsUpper(r)) ||
		(unicode.IsLetter(prev) && unicode.IsDigit(r)) ||
		(unicode.IsDigit(prev) && unicode.IsLetter(r))
}

// titleCase upper-cases the first letter of every space separated word.
func titleCase(words string) string {
	parts := strings.Fields(words)
	for i, part := range parts {
		lower := strings.ToLower(part)
		first, size := utf8.DecodeRuneInString(lower)
		parts[i] = string(unicode.ToUpper(first)) + lower[size:]
	}
	return strings.Join(parts, " ")
}

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// SanitizeText strips markup from author supplied text and returns plain
// text; renderers escape it again on output.
func SanitizeText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	cleaned := html.UnescapeString(textSanitizer().Sanitize(trimmed))
	return strings.Join(strings.Fields(cleaned), " ")
}

func textSanitizer() *bluemonday.Policy {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return textPolicy
}
