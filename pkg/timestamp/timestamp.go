// Package timestamp parses entry timestamps lazily for display and detects
// which format a log's timestamps use.
package timestamp

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DetectionResult holds the formats seen across sampled values.
type DetectionResult struct {
	Matches      []FormatMatch // Sorted by confidence descending
	SampledCount int           // Non-empty values examined
	ParsedCount  int           // Values the best format parsed
}

// FormatMatch is one format and how many values it parsed.
type FormatMatch struct {
	Format     *Format
	Confidence float64 // 0.0 to 1.0
	MatchCount int
	Sample     string
	ParsedTime time.Time
}

// Detector matches timestamp values against known formats.
type Detector struct {
	formats    []*Format
	sampleSize int
}

// Option configures the Detector.
type Option func(*Detector)

// WithSampleSize sets how many values Detect examines (default 200).
func WithSampleSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.sampleSize = n
		}
	}
}

// New creates a Detector with the default formats.
func New(opts ...Option) *Detector {
	d := &Detector{
		formats:    DefaultFormats(),
		sampleSize: 200,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var defaultDetector = New()

// Parse parses value with the first default format that accepts it.
func Parse(value string) (time.Time, bool) {
	t, _, ok := defaultDetector.Parse(value)
	return t, ok
}

// Parse parses value and reports the format that accepted it.
func (d *Detector) Parse(value string) (time.Time, *Format, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil, false
	}

	for _, f := range d.formats {
		if !f.Pattern.MatchString(value) {
			continue
		}
		if t, ok := parseLayout(value, f.Layout); ok {
			return t, f, true
		}
	}
	return time.Time{}, nil, false
}

// Detect examines up to the sample size of non-empty values.
func (d *Detector) Detect(values []string) *DetectionResult {
	result := &DetectionResult{}

	type formatStats struct {
		format     *Format
		matchCount int
		sample     string
		parsedTime time.Time
	}
	stats := make(map[string]*formatStats)

	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if result.SampledCount >= d.sampleSize {
			break
		}
		result.SampledCount++

		t, f, ok := d.Parse(v)
		if !ok {
			continue
		}
		if stats[f.Name] == nil {
			stats[f.Name] = &formatStats{format: f, sample: v, parsedTime: t}
		}
		stats[f.Name].matchCount++
	}

	for _, s := range stats {
		result.Matches = append(result.Matches, FormatMatch{
			Format:     s.format,
			Confidence: float64(s.matchCount) / float64(result.SampledCount),
			MatchCount: s.matchCount,
			Sample:     s.sample,
			ParsedTime: s.parsedTime,
		})
	}

	sort.Slice(result.Matches, func(i, j int) bool {
		if result.Matches[i].Confidence != result.Matches[j].Confidence {
			return result.Matches[i].Confidence > result.Matches[j].Confidence
		}
		return result.Matches[i].Format.Name < result.Matches[j].Format.Name
	})

	if len(result.Matches) > 0 {
		result.ParsedCount = result.Matches[0].MatchCount
	}

	return result
}

// BestMatch returns the highest confidence match, or nil if none found.
func (r *DetectionResult) BestMatch() *FormatMatch {
	if len(r.Matches) == 0 {
		return nil
	}
	return &r.Matches[0]
}

// HasMatch returns true if at least one format matched.
func (r *DetectionResult) HasMatch() bool {
	return len(r.Matches) > 0
}

func parseLayout(value, layout string) (time.Time, bool) {
	switch layout {
	case layoutUnixSeconds:
		secs, err := strconv.ParseFloat(value, 64)
		if err != nil || secs < 0 || secs > 4102444800 {
			return time.Time{}, false
		}
		whole, frac := math.Modf(secs)
		return time.Unix(int64(whole), int64(frac*1e9)).UTC(), true

	case layoutUnixMillis:
		millis, err := strconv.ParseInt(value, 10, 64)
		if err != nil || millis/1000 > 4102444800 {
			return time.Time{}, false
		}
		return time.UnixMilli(millis).UTC(), true

	default:
		t, err := time.Parse(layout, value)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
}
