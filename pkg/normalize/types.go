package normalize

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind selects which payload field is being normalized.
type Kind int

const (
	Input Kind = iota
	Output
)

// String returns the kind name.
func (k Kind) String() string {
	if k == Output {
		return "output"
	}
	return "input"
}

// CanonicalKey is the key every normalized payload of this kind carries.
func (k Kind) CanonicalKey() string {
	if k == Output {
		return "response"
	}
	return "prompt"
}

// Fallback is the canonical value used when nothing could be extracted.
func (k Kind) Fallback() string {
	if k == Output {
		return "Unknown response"
	}
	return "Unknown input"
}

// Tier records which stage of the chain produced a payload.
type Tier int

const (
	TierStrict Tier = iota + 1
	TierRepaired
	TierPattern
)

// Tiers lists every tier in chain order.
var Tiers = []Tier{TierStrict, TierRepaired, TierPattern}

func (t Tier) String() string {
	switch t {
	case TierStrict:
		return "strict"
	case TierRepaired:
		return "repaired"
	case TierPattern:
		return "pattern"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// MarshalText encodes the tier by name.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Payload is a normalized input or output field. Fields always contains
// the kind's canonical key.
type Payload struct {
	Kind   Kind
	Tier   Tier
	Fields map[string]any
	Raw    string
}

// Get returns a field value.
func (p Payload) Get(key string) (any, bool) {
	v, ok := p.Fields[key]
	return v, ok
}

// Text returns the canonical value as display text.
func (p Payload) Text() string {
	return valueText(p.Fields[p.Kind.CanonicalKey()])
}

// ToolResponses returns the tool_responses list as strings, if present.
func (p Payload) ToolResponses() []string {
	v, ok := p.Fields["tool_responses"]
	if !ok {
		return nil
	}

	list, ok := v.([]any)
	if !ok {
		return []string{valueText(v)}
	}

	out := make([]string, 0, len(list))
	for _, item := range list {
		out = append(out, valueText(item))
	}
	return out
}

func valueText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		var b strings.Builder
		enc := json.NewEncoder(&b)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(val); err != nil {
			return fmt.Sprint(val)
		}
		return strings.TrimSpace(b.String())
	}
}
