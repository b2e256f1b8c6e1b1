package parser

import (
	"fmt"
	"io"
	"strings"
)

// Parse parses delimited log text into entries, in source order.
// Malformed rows never fail the parse: they yield best-effort entries, and
// rows without an action_id are dropped.
func Parse(text string) []LogEntry {
	return ParseDetailed(text).Entries
}

// ParseDetailed parses delimited log text and reports row accounting.
func ParseDetailed(text string) *Result {
	result := &Result{Entries: []LogEntry{}}

	lines := nonBlankLines(text)
	if len(lines) == 0 {
		result.MissingHeaders = append([]string(nil), Headers...)
		return result
	}

	header := Tokenize(lines[0])
	result.Header = header
	result.MissingHeaders = missingHeaders(header)

	for _, line := range lines[1:] {
		result.Rows++

		entry := parseRow(header, Tokenize(line))
		if strings.TrimSpace(entry.ActionID) == "" {
			result.Dropped++
			continue
		}
		result.Entries = append(result.Entries, entry)
	}

	return result
}

// ParseReader reads all of r and parses it. A read error is returned as-is
// and no entries are produced.
func ParseReader(r io.Reader) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading log data: %w", err)
	}
	return ParseDetailed(string(data)), nil
}

func parseRow(header, fields []string) LogEntry {
	var entry LogEntry
	for i, name := range header {
		raw := ""
		if i < len(fields) {
			raw = fields[i]
		}
		setField(&entry, name, raw)
	}
	return entry
}

func nonBlankLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, strings.TrimRight(line, "\r"))
	}
	return lines
}

func missingHeaders(header []string) []string {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}

	var missing []string
	for _, h := range Headers {
		if !present[h] {
			missing = append(missing, h)
		}
	}
	return missing
}
