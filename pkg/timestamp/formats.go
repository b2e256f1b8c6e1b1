package timestamp

import (
	"regexp"
	"time"
)

const (
	layoutUnixSeconds = "UNIX_SECONDS"
	layoutUnixMillis  = "UNIX_MILLIS"
)

// Format is a known timestamp format for entry timestamp fields.
type Format struct {
	Name       string         // Human-readable name
	Pattern    *regexp.Regexp // Compiled from PatternStr
	PatternStr string         // Whole-value pattern
	Layout     string         // Go time layout, or a UNIX_* marker
	Examples   []string
}

// DefaultFormats returns the built-in formats, most specific first.
func DefaultFormats() []*Format {
	formats := []*Format{
		{
			Name:       "RFC 3339",
			PatternStr: `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2})$`,
			Layout:     time.RFC3339,
			Examples:   []string{"2024-01-15T10:30:00Z", "2024-01-15T10:30:00.123456+00:00"},
		},
		// Python datetime.isoformat() without tzinfo
		{
			Name:       "ISO 8601 (local)",
			PatternStr: `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?$`,
			Layout:     "2006-01-02T15:04:05",
			Examples:   []string{"2024-01-15T10:30:00", "2024-01-15T10:30:00.123456"},
		},
		{
			Name:       "Python logging",
			PatternStr: `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2},\d{3}$`,
			Layout:     "2006-01-02 15:04:05,000",
			Examples:   []string{"2024-01-15 10:30:00,123"},
		},
		{
			Name:       "Datetime (space-separated)",
			PatternStr: `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(?:\.\d+)?$`,
			Layout:     "2006-01-02 15:04:05",
			Examples:   []string{"2024-01-15 10:30:00", "2024-01-15 10:30:00.5"},
		},
		// time.time() output
		{
			Name:       "Unix timestamp (seconds)",
			PatternStr: `^\d{10}(?:\.\d+)?$`,
			Layout:     layoutUnixSeconds,
			Examples:   []string{"1705315800", "1705315800.25"},
		},
		{
			Name:       "Unix timestamp (milliseconds)",
			PatternStr: `^\d{13}$`,
			Layout:     layoutUnixMillis,
			Examples:   []string{"1705315800000"},
		},
	}

	for _, f := range formats {
		f.Pattern = regexp.MustCompile(f.PatternStr)
	}

	return formats
}
