package jsliteral

// MaskComments returns a copy of src with every comment replaced by spaces.
// Line breaks and offsets are preserved; string literals are left intact.
func MaskComments(src []rune) []rune {
	out := make([]rune, len(src))
	copy(out, src)

	for i := 0; i < len(out); {
		switch c := out[i]; {
		case c == '"' || c == '\'' || c == '`':
			i = SkipString(out, i)
		case c == '/' && i+1 < len(out) && out[i+1] == '/':
			for i < len(out) && out[i] != '\n' {
				out[i] = ' '
				i++
			}
		case c == '/' && i+1 < len(out) && out[i+1] == '*':
			out[i], out[i+1] = ' ', ' '
			i += 2
			for i < len(out) {
				if out[i] == '*' && i+1 < len(out) && out[i+1] == '/' {
					out[i], out[i+1] = ' ', ' '
					i += 2
					break
				}
				if out[i] != '\n' {
					out[i] = ' '
				}
				i++
			}
		default:
			i++
		}
	}
	return out
}

// SkipString returns the index just past the string literal opening at
// start, or len(src) when it never closes.
func SkipString(src []rune, start int) int {
	quote := src[start]
	for i := start + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case quote:
			return i + 1
		case '\n':
			if quote != '`' {
				return i
			}
		}
	}
	return len(src)
}
