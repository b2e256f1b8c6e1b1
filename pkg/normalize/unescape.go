package normalize

import (
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// unescapeResponse decodes literal \uXXXX sequences (joining surrogate
// pairs) and then collapses doubled backslashes.
func unescapeResponse(s string) string {
	return strings.ReplaceAll(unescapeUnicode(s), `\\`, `\`)
}

func unescapeUnicode(s string) string {
	if !strings.Contains(s, `\u`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		r, ok := hexEscape(s, i)
		if !ok {
			b.WriteByte(s[i])
			i++
			continue
		}
		i += 6

		if utf16.IsSurrogate(r) {
			if lo, ok := hexEscape(s, i); ok {
				if pair := utf16.DecodeRune(r, lo); pair != utf8.RuneError {
					b.WriteRune(pair)
					i += 6
					continue
				}
			}
			b.WriteRune(utf8.RuneError)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// hexEscape reads a \uXXXX sequence at s[i:].
func hexEscape(s string, i int) (rune, bool) {
	if i+6 > len(s) || s[i] != '\\' || s[i+1] != 'u' {
		return 0, false
	}
	n, err := strconv.ParseUint(s[i+2:i+6], 16, 16)
	if err != nil {
		return 0, false
	}
	return rune(n), true
}
