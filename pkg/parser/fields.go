package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// FieldKind is the value type a header maps to.
type FieldKind int

const (
	KindString FieldKind = iota
	KindInt
	KindFloat
)

var (
	intPrefix   = regexp.MustCompile(`^[+-]?\d+`)
	floatPrefix = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)
)

// KindOf returns the value type for a header name.
func KindOf(header string) FieldKind {
	switch header {
	case FieldPromptTokens, FieldCompletionTokens, FieldTotalTokens:
		return KindInt
	case FieldCostUSD, FieldDurationMS:
		return KindFloat
	default:
		return KindString
	}
}

// TypeField converts a raw field into its typed value: *int64 for token
// counts, *float64 for cost and duration, and the unquoted string otherwise.
// Numeric values that cannot be read are returned as typed nil pointers.
func TypeField(header, raw string) any {
	value := cleanField(raw)

	switch KindOf(header) {
	case KindInt:
		return ParseLeadingInt(value)
	case KindFloat:
		return ParseLeadingFloat(value)
	default:
		return value
	}
}

// ParseLeadingInt parses the leading integer prefix of s ("123abc" is 123).
// It returns nil when s has no leading digits or the value overflows.
func ParseLeadingInt(s string) *int64 {
	prefix := intPrefix.FindString(strings.TrimSpace(s))
	if prefix == "" {
		return nil
	}

	n, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// ParseLeadingFloat parses the leading decimal prefix of s ("1.5ms" is 1.5).
// It returns nil when s has no leading number or the value is not finite.
func ParseLeadingFloat(s string) *float64 {
	prefix := floatPrefix.FindString(strings.TrimSpace(s))
	if prefix == "" {
		return nil
	}

	f, err := strconv.ParseFloat(prefix, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil
	}
	return &f
}

// setField assigns one typed header value onto an entry.
func setField(e *LogEntry, header, raw string) {
	switch header {
	case FieldActionID:
		e.ActionID = cleanField(raw)
	case FieldSessionID:
		e.SessionID = cleanField(raw)
	case FieldTimestamp:
		e.Timestamp = cleanField(raw)
	case FieldActionType:
		e.ActionType = cleanField(raw)
	case FieldInputData:
		e.InputData = cleanField(raw)
	case FieldOutputData:
		e.OutputData = cleanField(raw)
	case FieldModelName:
		e.ModelName = cleanField(raw)
	case FieldMetadata:
		e.Metadata = cleanField(raw)
	case FieldPromptTokens:
		e.PromptTokens = ParseLeadingInt(cleanField(raw))
	case FieldCompletionTokens:
		e.CompletionTokens = ParseLeadingInt(cleanField(raw))
	case FieldTotalTokens:
		e.TotalTokens = ParseLeadingInt(cleanField(raw))
	case FieldCostUSD:
		e.CostUSD = ParseLeadingFloat(cleanField(raw))
	case FieldDurationMS:
		e.DurationMS = ParseLeadingFloat(cleanField(raw))
	}
}
