package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agent-breadcrumbs/breadcrumbs/pkg/toolcall"
)

func TestNormalize_StrictIdentity(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		kind Kind
		want map[string]any
	}{
		{
			name: "input prompt",
			raw:  `{"prompt":"hi"}`,
			kind: Input,
			want: map[string]any{"prompt": "hi"},
		},
		{
			name: "input with extras",
			raw:  `{"prompt": "hello", "system": "be brief", "tool_responses": ["a", "b"]}`,
			kind: Input,
			want: map[string]any{"prompt": "hello", "system": "be brief", "tool_responses": []any{"a", "b"}},
		},
		{
			name: "numbers are kept as written",
			raw:  `{"response":"ok","score":0.10,"n":12}`,
			kind: Output,
			want: map[string]any{"response": "ok", "score": json.Number("0.10"), "n": json.Number("12")},
		},
		{
			name: "escaped unicode decoded by the JSON decoder",
			raw:  `{"response":"\ud83d\udd27 Decided to call tool: search(q=go)"}`,
			kind: Output,
			want: map[string]any{"response": "🔧 Decided to call tool: search(q=go)"},
		},
		{
			name: "nested values",
			raw:  `{"response":{"parts":[1,{"a":null}]}}`,
			kind: Output,
			want: map[string]any{"response": map[string]any{"parts": []any{json.Number("1"), map[string]any{"a": nil}}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Normalize(tt.raw, tt.kind)
			assert.Equal(t, TierStrict, p.Tier)
			assert.Equal(t, tt.want, p.Fields)
			assert.Equal(t, tt.raw, p.Raw)
		})
	}
}

func TestNormalize_ScenarioB(t *testing.T) {
	p := Normalize("{prompt: hello world, tool_responses: [1,2,3]}", Input)

	assert.Equal(t, TierRepaired, p.Tier)
	assert.Equal(t, map[string]any{
		"prompt":         "hello world",
		"tool_responses": []any{"1", "2", "3"},
	}, p.Fields)
	assert.Equal(t, []string{"1", "2", "3"}, p.ToolResponses())
}

func TestNormalize_ScenarioC(t *testing.T) {
	p := Normalize("not json at all, response: The answer is 42", Output)

	assert.Equal(t, TierPattern, p.Tier)
	assert.Equal(t, map[string]any{"response": "The answer is 42"}, p.Fields)
	assert.Equal(t, "The answer is 42", p.Text())
}

func TestNormalize_Repaired(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		kind Kind
		want map[string]any
	}{
		{
			name: "tokenized CSV payload",
			raw:  "{prompt:hi}",
			kind: Input,
			want: map[string]any{"prompt": "hi"},
		},
		{
			name: "spaces around values",
			raw:  "{ prompt :  padded value  , system: sys }",
			kind: Input,
			want: map[string]any{"prompt": "padded value", "system": "sys"},
		},
		{
			name: "already quoted keys without canonical key are not strict",
			raw:  `{"response": ok}`,
			kind: Output,
			want: map[string]any{"response": "ok"},
		},
		{
			name: "output unicode escapes",
			raw:  `{response: \ud83d\udd27 Decided to call tool: search(q=go)}`,
			kind: Output,
			want: map[string]any{"response": "🔧 Decided to call tool: search(q=go)"},
		},
		{
			name: "output doubled backslashes collapse",
			raw:  `{response: C:\\temp\\out.txt}`,
			kind: Output,
			want: map[string]any{"response": `C:\temp\out.txt`},
		},
		{
			name: "input escapes stay literal",
			raw:  `{prompt: caf\u00e9}`,
			kind: Input,
			want: map[string]any{"prompt": `caf\u00e9`},
		},
		{
			name: "nested object",
			raw:  "{response: done, meta: {model: gpt-4}}",
			kind: Output,
			want: map[string]any{"response": "done", "meta": map[string]any{"model": "gpt-4"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Normalize(tt.raw, tt.kind)
			assert.Equal(t, TierRepaired, p.Tier)
			assert.Equal(t, tt.want, p.Fields)
		})
	}
}

func TestNormalize_Pattern(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		kind Kind
		want map[string]any
	}{
		{
			name: "prompt in free text",
			raw:  "user said prompt: what time is it, then left",
			kind: Input,
			want: map[string]any{"prompt": "what time is it"},
		},
		{
			name: "prompt with tool responses",
			raw:  "junk prompt: go, tool_responses: [ a , b ] more junk",
			kind: Input,
			want: map[string]any{"prompt": "go", "tool_responses": []any{"a", "b"}},
		},
		{
			name: "no prompt",
			raw:  "nothing useful here",
			kind: Input,
			want: map[string]any{"prompt": "Unknown input"},
		},
		{
			name: "no response",
			raw:  "nothing useful here",
			kind: Output,
			want: map[string]any{"response": "Unknown response"},
		},
		{
			name: "brace-wrapped response with a comma",
			raw:  `{response: \ud83d\udd27 Decided to call tools: a(x=1), b(y=2, z=3)}`,
			kind: Output,
			want: map[string]any{"response": "🔧 Decided to call tools: a(x=1), b(y=2, z=3)"},
		},
		{
			name: "canonical key missing after repair",
			raw:  "{foo: bar}",
			kind: Input,
			want: map[string]any{"prompt": "Unknown input"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Normalize(tt.raw, tt.kind)
			assert.Equal(t, TierPattern, p.Tier)
			assert.Equal(t, tt.want, p.Fields)
		})
	}
}

// A bare value holding a literal comma cannot be told apart from the next
// key. The split is lossy and the result is kept as produced.
func TestNormalize_CommaInBareValueIsMisSplit(t *testing.T) {
	p := Normalize("{prompt: Hello, world: earth}", Input)
	assert.Equal(t, TierRepaired, p.Tier)
	assert.Equal(t, "Hello", p.Text())
	assert.Equal(t, "earth", p.Fields["world"])

	p = Normalize("{prompt: Hello, world}", Input)
	assert.Equal(t, TierPattern, p.Tier)
	assert.Equal(t, "Hello", p.Text())
}

func TestNormalize_PatternClosingBrace(t *testing.T) {
	p := Normalize(`{response: 🔧 Decided to call tools: a(x=1), b(y=2, z=3)}`, Output)
	require.Equal(t, TierPattern, p.Tier)

	calls := toolcall.Extract(p.Text())
	require.Len(t, calls.Tools, 2)
	assert.Equal(t, "b(y=2, z=3)", calls.Tools[1].NameAndArgs)
	assert.Equal(t, "y=2, z=3", calls.Tools[1].Args)

	// Only the brace of a wrapping object is removed.
	p = Normalize("response: set {a}", Output)
	assert.Equal(t, TierPattern, p.Tier)
	assert.Equal(t, "set {a}", p.Text())
}

func TestNormalize_Total(t *testing.T) {
	inputs := []string{
		"",
		" ",
		"{",
		"}",
		"[[[",
		`"unterminated`,
		"{prompt:",
		"{prompt: }",
		"{response:",
		"null",
		"[]",
		"42",
		`{"prompt": null}`,
		"\x00\xff\xfe",
		`\ud800`,
		`{response: \ud83d}`,
		"response:",
		"{,,,}",
		"{::}",
	}

	for _, raw := range inputs {
		for _, kind := range []Kind{Input, Output} {
			var p Payload
			require.NotPanics(t, func() { p = Normalize(raw, kind) }, "raw=%q", raw)
			assert.Contains(t, p.Fields, kind.CanonicalKey(), "raw=%q kind=%s", raw, kind)
			assert.Equal(t, kind, p.Kind)
			assert.Contains(t, Tiers, p.Tier)
		}
	}
}

func FuzzNormalize(f *testing.F) {
	for _, seed := range []string{
		"",
		`{"prompt":"hi"}`,
		"{prompt: hello world, tool_responses: [1,2,3]}",
		"not json at all, response: The answer is 42",
		`{response: \ud83d\udd27 x}`,
	} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, raw string) {
		for _, kind := range []Kind{Input, Output} {
			p := Normalize(raw, kind)
			if _, ok := p.Fields[kind.CanonicalKey()]; !ok {
				t.Fatalf("Normalize(%q, %s) missing %q", raw, kind, kind.CanonicalKey())
			}
		}
	})
}

func TestPayload_Text(t *testing.T) {
	tests := []struct {
		name string
		p    Payload
		want string
	}{
		{"string", Payload{Kind: Input, Fields: map[string]any{"prompt": "hi"}}, "hi"},
		{"number", Payload{Kind: Output, Fields: map[string]any{"response": json.Number("4.20")}}, "4.20"},
		{"null", Payload{Kind: Input, Fields: map[string]any{"prompt": nil}}, ""},
		{"bool", Payload{Kind: Output, Fields: map[string]any{"response": true}}, "true"},
		{"object", Payload{Kind: Output, Fields: map[string]any{"response": map[string]any{"a": "<b>"}}}, `{"a":"<b>"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.Text())
		})
	}
}

func TestUnescapeResponse(t *testing.T) {
	tests := map[string]string{
		`plain`:               "plain",
		`\u0041\u0042`:        "AB",
		`\ud83d\udd27 tool`:   "🔧 tool",
		`\ud83d alone`:        "\uFFFD alone",
		`\u00zz`:              `\u00zz`,
		`a\\b`:                `a\b`,
		`trailing \u12`:       `trailing \u12`,
		`\u00e9t\u00e9 \\ ok`: `été \ ok`,
	}

	for in, want := range tests {
		assert.Equal(t, want, unescapeResponse(in), "input %q", in)
	}
}
