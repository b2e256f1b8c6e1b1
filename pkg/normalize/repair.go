package normalize

import (
	"encoding/json"
	"strings"
)

type expect int

const (
	expectValue expect = iota
	expectKey
	expectNone
)

// repair rewrites pseudo-JSON into JSON by quoting bare object keys, bare
// scalar values and bare array elements. Quoted strings and structure are
// copied through unchanged. Every bare scalar becomes a string, so
// "[1,2]" repairs to ["1","2"]. A bare value runs to the next ',', '}' or
// ']', which means a literal comma inside an unquoted value splits it.
func repair(raw string) string {
	var (
		out   strings.Builder
		stack []byte
		state = expectValue
	)
	out.Grow(len(raw) + 16)

	afterSeparator := func() expect {
		if len(stack) > 0 && stack[len(stack)-1] == '{' {
			return expectKey
		}
		return expectValue
	}

	for i := 0; i < len(raw); {
		c := raw[i]
		switch {
		case isSpace(c):
			out.WriteByte(c)
			i++
		case c == '"':
			end := quotedEnd(raw, i)
			out.WriteString(raw[i:end])
			i = end
			state = expectNone
		case c == '{' || c == '[':
			stack = append(stack, c)
			out.WriteByte(c)
			i++
			if c == '{' {
				state = expectKey
			} else {
				state = expectValue
			}
		case c == '}' || c == ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			out.WriteByte(c)
			i++
			state = expectNone
		case c == ',':
			out.WriteByte(c)
			i++
			state = afterSeparator()
		case c == ':':
			out.WriteByte(c)
			i++
			state = expectValue
		case state == expectKey:
			end := scanUntil(raw, i, ":,{}[]\"")
			writeQuoted(&out, strings.TrimSpace(raw[i:end]))
			i = end
			state = expectNone
		default:
			end := scanUntil(raw, i, ",}]")
			value := strings.TrimRight(raw[i:end], " \t\r\n")
			writeQuoted(&out, value)
			out.WriteString(raw[i+len(value) : end])
			i = end
			state = expectNone
		}
	}

	return out.String()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// quotedEnd returns the index just past the string literal starting at
// start, or len(s) when it is unterminated.
func quotedEnd(s string, start int) int {
	for i := start + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i + 1
		}
	}
	return len(s)
}

func scanUntil(s string, start int, stops string) int {
	if idx := strings.IndexAny(s[start:], stops); idx >= 0 {
		return start + idx
	}
	return len(s)
}

// writeQuoted writes s as a JSON string literal. Backslashes are escaped
// too, so literal \uXXXX text survives decoding as text.
func writeQuoted(out *strings.Builder, s string) {
	b, err := json.Marshal(s)
	if err != nil {
		out.WriteString(`""`)
		return
	}
	out.Write(b)
}
