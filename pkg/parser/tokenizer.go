package parser

import "strings"

// Tokenize splits one log line into trimmed field values.
//
// Commas inside a double-quoted span do not split. A quote character only
// toggles the quoted state and is not copied into the field, so there is no
// escaping beyond the toggle. An unbalanced quote keeps the rest of the line
// in one field. The number of fields is not checked against the header.
func Tokenize(line string) []string {
	fields := make([]string, 0, len(Headers))

	var current strings.Builder
	inQuotes := false

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, cleanField(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	fields = append(fields, cleanField(current.String()))

	return fields
}

// cleanField trims whitespace and strips one pair of surrounding quotes.
func cleanField(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)
	return s
}
