package jsliteral

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
)

type tokenKind int

const (
	tokenPunct tokenKind = iota
	tokenString
	tokenNumber
	tokenIdentifier
	tokenOther
)

type token struct {
	kind  tokenKind
	raw   string
	value string
}

// ToJSON rewrites a loose JavaScript literal into strict JSON: comments are
// stripped, bare and single-quoted keys are double-quoted, single-quoted and
// backtick strings become JSON strings, JS number spellings are canonicalised
// and trailing commas before a closing bracket are dropped. Anything that is
// not literal syntax (identifiers, operators, calls) is passed through, so the
// result only decodes when the fragment was a plain literal.
func ToJSON(fragment string) (string, error) {
	tokens, err := tokenize(fragment)
	if err != nil {
		return "", err
	}
	if len(tokens) == 0 {
		return "", errors.New("jsliteral: empty fragment")
	}

	var b strings.Builder
	for i, tok := range tokens {
		next := peek(tokens, i+1)
		switch tok.kind {
		case tokenPunct:
			if tok.raw == "," && (next == nil || next.raw == "}" || next.raw == "]") {
				continue
			}
			b.WriteString(tok.raw)
		case tokenString:
			b.WriteString(quoteJSON(tok.value))
		case tokenNumber:
			if isKeyPosition(tokens, i) {
				b.WriteString(quoteJSON(tok.value))
				continue
			}
			b.WriteString(tok.value)
		case tokenIdentifier:
			if isKeyPosition(tokens, i) {
				b.WriteString(quoteJSON(tok.raw))
				continue
			}
			switch tok.raw {
			case "undefined":
				b.WriteString("null")
			default:
				writeSeparated(&b, tok.raw)
			}
		default:
			if tok.raw == "+" && next != nil && next.kind == tokenNumber {
				continue
			}
			writeSeparated(&b, tok.raw)
		}
	}
	return b.String(), nil
}

func writeSeparated(b *strings.Builder, raw string) {
	if b.Len() > 0 {
		last := b.String()[b.Len()-1]
		if isIdentChar(last) && len(raw) > 0 && isIdentChar(raw[0]) {
			b.WriteByte(' ')
		}
	}
	b.WriteString(raw)
}

func peek(tokens []token, idx int) *token {
	if idx < 0 || idx >= len(tokens) {
		return nil
	}
	return &tokens[idx]
}

func isKeyPosition(tokens []token, idx int) bool {
	prev := peek(tokens, idx-1)
	next := peek(tokens, idx+1)
	if prev == nil || next == nil {
		return false
	}
	if prev.kind != tokenPunct || (prev.raw != "{" && prev.raw != ",") {
		return false
	}
	return next.kind == tokenPunct && next.raw == ":"
}

func quoteJSON(value string) string {
	encoded, err := json.Marshal(value)
	if err != nil {
		return strconv.Quote(value)
	}
	return string(encoded)
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0

	for i < len(input) {
		ch := input[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f' || ch == '\v':
			i++
		case ch == '/' && i+1 < len(input) && input[i+1] == '/':
			end := strings.IndexByte(input[i:], '\n')
			if end < 0 {
				i = len(input)
			} else {
				i += end + 1
			}
		case ch == '/' && i+1 < len(input) && input[i+1] == '*':
			end := strings.Index(input[i+2:], "*/")
			if end < 0 {
				return nil, errors.New("jsliteral: unterminated block comment")
			}
			i += end + 4
		case ch == '{' || ch == '}' || ch == '[' || ch == ']' || ch == ':' || ch == ',':
			tokens = append(tokens, token{kind: tokenPunct, raw: string(ch)})
			i++
		case ch == '"' || ch == '\'' || ch == '`':
			end, err := scanString(input, i)
			if err != nil {
				return nil, err
			}
			raw := input[i:end]
			body := raw[1 : len(raw)-1]
			if ch == '`' && strings.Contains(body, "${") {
				tokens = append(tokens, token{kind: tokenOther, raw: raw})
			} else {
				value, err := unescape(body)
				if err != nil {
					return nil, err
				}
				tokens = append(tokens, token{kind: tokenString, raw: raw, value: value})
			}
			i = end
		case isDigit(ch) || (ch == '.' && i+1 < len(input) && isDigit(input[i+1])):
			start := i
			i = scanNumber(input, i)
			raw := input[start:i]
			if value, ok := canonicalNumber(raw); ok {
				tokens = append(tokens, token{kind: tokenNumber, raw: raw, value: value})
			} else {
				tokens = append(tokens, token{kind: tokenOther, raw: raw})
			}
		case isIdentStart(ch):
			start := i
			for i < len(input) && isIdentChar(input[i]) {
				i++
			}
			tokens = append(tokens, token{kind: tokenIdentifier, raw: input[start:i]})
		default:
			tokens = append(tokens, token{kind: tokenOther, raw: string(ch)})
			i++
		}
	}

	return tokens, nil
}

// scanString returns the index just past the closing quote of the string
// starting at start.
func scanString(input string, start int) (int, error) {
	quote := input[start]
	i := start + 1
	for i < len(input) {
		c := input[i]
		switch {
		case c == '\\':
			i += 2
		case c == quote:
			return i + 1, nil
		case c == '\n' && quote != '`':
			return 0, errors.New("jsliteral: unterminated string literal")
		default:
			i++
		}
	}
	return 0, errors.New("jsliteral: unterminated string literal")
}

func scanNumber(input string, i int) int {
	hex := strings.HasPrefix(input[i:], "0x") || strings.HasPrefix(input[i:], "0X")
	for i < len(input) {
		c := input[i]
		switch {
		case isDigit(c) || c == '.' || c == '_' || isIdentChar(c):
			i++
		case (c == '+' || c == '-') && !hex && i > 0 && (input[i-1] == 'e' || input[i-1] == 'E'):
			i++
		default:
			return i
		}
	}
	return i
}

func canonicalNumber(raw string) (string, bool) {
	value, err := parseNumber(raw)
	if err != nil {
		return "", false
	}
	return strconv.FormatFloat(value, 'g', -1, 64), true
}

func parseNumber(raw string) (float64, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(raw), "_", "")
	clean = strings.TrimSuffix(clean, "n")
	lower := strings.ToLower(clean)
	if strings.HasPrefix(lower, "0x") || strings.HasPrefix(lower, "0o") || strings.HasPrefix(lower, "0b") {
		value, err := strconv.ParseInt(clean, 0, 64)
		if err != nil {
			return 0, fmt.Errorf("jsliteral: invalid number %q", raw)
		}
		return float64(value), nil
	}
	value, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("jsliteral: invalid number %q", raw)
	}
	return value, nil
}

// unescape resolves JavaScript escape sequences inside a string body.
func unescape(body string) (string, error) {
	if !strings.Contains(body, `\`) {
		return body, nil
	}

	var (
		b     strings.Builder
		units []uint16
	)
	flush := func() {
		if len(units) > 0 {
			b.WriteString(string(utf16.Decode(units)))
			units = units[:0]
		}
	}

	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			flush()
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return "", errors.New("jsliteral: dangling escape")
		}
		esc := body[i]
		if esc != 'u' {
			flush()
		}
		switch esc {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case '\n':
		case '\r':
			if i+1 < len(body) && body[i+1] == '\n' {
				i++
			}
		case 'x':
			if i+2 >= len(body) {
				return "", errors.New("jsliteral: invalid \\x escape")
			}
			value, err := strconv.ParseUint(body[i+1:i+3], 16, 8)
			if err != nil {
				return "", errors.New("jsliteral: invalid \\x escape")
			}
			b.WriteRune(rune(value))
			i += 2
		case 'u':
			if i+1 < len(body) && body[i+1] == '{' {
				end := strings.IndexByte(body[i:], '}')
				if end < 0 {
					return "", errors.New("jsliteral: invalid \\u{} escape")
				}
				value, err := strconv.ParseUint(body[i+2:i+end], 16, 32)
				if err != nil {
					return "", errors.New("jsliteral: invalid \\u{} escape")
				}
				flush()
				b.WriteRune(rune(value))
				i += end
				continue
			}
			if i+4 >= len(body) {
				return "", errors.New("jsliteral: invalid \\u escape")
			}
			value, err := strconv.ParseUint(body[i+1:i+5], 16, 16)
			if err != nil {
				return "", errors.New("jsliteral: invalid \\u escape")
			}
			units = append(units, uint16(value))
			i += 4
		default:
			b.WriteByte(esc)
		}
	}
	flush()
	return b.String(), nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
