// Package normalize turns raw input/output payload text into structured
// payloads. Producers write valid JSON, pseudo-JSON with bare keys and
// values, or free text; Normalize resolves all three and never fails.
package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// attempt is one fallible stage of the normalization chain.
type attempt func(raw string, kind Kind) (Payload, bool)

var chain = []attempt{decodeStrict, decodeRepaired}

// Normalize resolves raw into a payload containing kind's canonical key.
// Strict decoding is tried first, then heuristic repair, then pattern
// extraction, which always succeeds.
func Normalize(raw string, kind Kind) Payload {
	for _, try := range chain {
		if p, ok := try(raw, kind); ok {
			return p
		}
	}
	return extractPattern(raw, kind)
}

// NormalizeInput is Normalize(raw, Input).
func NormalizeInput(raw string) Payload {
	return Normalize(raw, Input)
}

// NormalizeOutput is Normalize(raw, Output).
func NormalizeOutput(raw string) Payload {
	return Normalize(raw, Output)
}

func decodeStrict(raw string, kind Kind) (Payload, bool) {
	fields, err := decodeObject(raw)
	if err != nil {
		return Payload{}, false
	}
	if _, ok := fields[kind.CanonicalKey()]; !ok {
		return Payload{}, false
	}
	return Payload{Kind: kind, Tier: TierStrict, Fields: fields, Raw: raw}, true
}

func decodeRepaired(raw string, kind Kind) (Payload, bool) {
	fields, err := decodeObject(repair(raw))
	if err != nil {
		return Payload{}, false
	}

	key := kind.CanonicalKey()
	value, ok := fields[key]
	if !ok {
		return Payload{}, false
	}

	if kind == Output {
		if s, isString := value.(string); isString {
			fields[key] = unescapeResponse(s)
		}
	}
	return Payload{Kind: kind, Tier: TierRepaired, Fields: fields, Raw: raw}, true
}

var errTrailingData = errors.New("trailing data after object")

// decodeObject decodes exactly one JSON object, keeping numbers as
// json.Number so values pass through unchanged.
func decodeObject(text string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errors.New("not an object")
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errTrailingData
	}
	return fields, nil
}
