package normalize

import (
	"regexp"
	"strings"
)

var (
	promptPattern        = regexp.MustCompile(`prompt:\s*([^,}]+)`)
	responsePattern      = regexp.MustCompile(`response:\s*(.+)$`)
	toolResponsesPattern = regexp.MustCompile(`tool_responses:\s*\[([^\]]+)\]`)
)

// extractPattern is the last tier. It searches raw for the canonical
// "key: value" text and falls back to a fixed literal when there is none.
func extractPattern(raw string, kind Kind) Payload {
	fields := map[string]any{}

	switch kind {
	case Output:
		fields["response"] = kind.Fallback()
		if m := responsePattern.FindStringSubmatch(raw); m != nil {
			value := strings.TrimSpace(m[1])
			// A brace-wrapped payload ends in the closing brace of the object.
			if strings.HasPrefix(strings.TrimSpace(raw), "{") {
				value = strings.TrimSpace(strings.TrimSuffix(value, "}"))
			}
			fields["response"] = unescapeResponse(value)
		}
	default:
		fields["prompt"] = kind.Fallback()
		if m := promptPattern.FindStringSubmatch(raw); m != nil {
			fields["prompt"] = strings.TrimSpace(m[1])
		}
		if m := toolResponsesPattern.FindStringSubmatch(raw); m != nil {
			parts := strings.Split(m[1], ",")
			list := make([]any, 0, len(parts))
			for _, part := range parts {
				list = append(list, strings.TrimSpace(part))
			}
			fields["tool_responses"] = list
		}
	}

	return Payload{Kind: kind, Tier: TierPattern, Fields: fields, Raw: raw}
}
