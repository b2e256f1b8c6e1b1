package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// traceEvent is the tracer's JSON record shape.
type traceEvent struct {
	ActionID      string          `json:"action_id"`
	SessionID     string          `json:"session_id"`
	Timestamp     string          `json:"timestamp"`
	ActionType    string          `json:"action_type"`
	UserInput     string          `json:"user_input"`
	SystemPrompt  string          `json:"system_prompt"`
	AIResponse    string          `json:"ai_response"`
	ToolCalls     []traceToolCall `json:"tool_calls"`
	ToolResponses []struct {
		Content json.RawMessage `json:"content"`
	} `json:"tool_responses"`
	ModelName  string `json:"model_name"`
	TokenUsage *struct {
		PromptTokens     *int64 `json:"prompt_tokens"`
		CompletionTokens *int64 `json:"completion_tokens"`
		TotalTokens      *int64 `json:"total_tokens"`
	} `json:"token_usage"`
	CostUSD    *float64        `json:"cost_usd"`
	DurationMS *float64        `json:"duration_ms"`
	Metadata   json.RawMessage `json:"metadata"`
}

type traceToolCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// inputPayload and outputPayload keep the tracer's key order.
type inputPayload struct {
	Prompt        string   `json:"prompt,omitempty"`
	System        string   `json:"system,omitempty"`
	ToolResponses []string `json:"tool_responses,omitempty"`
}

type outputPayload struct {
	Response string `json:"response,omitempty"`
}

// ParseJSONL parses one JSON trace event per line. Lines that are not valid
// JSON objects are skipped and counted as dropped, as are events without an
// action_id.
func ParseJSONL(text string) *Result {
	result := &Result{Entries: []LogEntry{}, Header: Headers}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		result.Rows++

		var ev traceEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			result.Dropped++
			continue
		}
		appendEvent(result, &ev)
	}

	return result
}

// ParseJSONArray parses a JSON array of trace events.
func ParseJSONArray(text string) (*Result, error) {
	var events []traceEvent
	if err := json.Unmarshal([]byte(text), &events); err != nil {
		return nil, fmt.Errorf("decoding trace array: %w", err)
	}

	result := &Result{Entries: []LogEntry{}, Header: Headers}
	for i := range events {
		result.Rows++
		appendEvent(result, &events[i])
	}
	return result, nil
}

func appendEvent(result *Result, ev *traceEvent) {
	if strings.TrimSpace(ev.ActionID) == "" {
		result.Dropped++
		return
	}
	result.Entries = append(result.Entries, ev.toEntry())
}

// toEntry projects a trace event onto the same row the CSV producer writes.
func (ev *traceEvent) toEntry() LogEntry {
	actionType := ev.ActionType
	if actionType == "" {
		actionType = string(ActionLLMCall)
	}

	in := inputPayload{Prompt: ev.UserInput, System: ev.SystemPrompt}
	for _, tr := range ev.ToolResponses {
		in.ToolResponses = append(in.ToolResponses, rawString(tr.Content))
	}

	out := outputPayload{Response: ev.AIResponse}
	if len(ev.ToolCalls) > 0 {
		out.Response = toolCallMarker(ev.ToolCalls)
	}

	entry := LogEntry{
		ActionID:   ev.ActionID,
		SessionID:  ev.SessionID,
		Timestamp:  ev.Timestamp,
		ActionType: actionType,
		InputData:  marshalCompact(in),
		OutputData: marshalCompact(out),
		ModelName:  ev.ModelName,
		CostUSD:    ev.CostUSD,
		DurationMS: ev.DurationMS,
		Metadata:   "{}",
	}
	if ev.TokenUsage != nil {
		entry.PromptTokens = ev.TokenUsage.PromptTokens
		entry.CompletionTokens = ev.TokenUsage.CompletionTokens
		entry.TotalTokens = ev.TokenUsage.TotalTokens
	}
	if len(ev.Metadata) > 0 && string(ev.Metadata) != "null" {
		var buf bytes.Buffer
		if err := json.Compact(&buf, ev.Metadata); err == nil {
			entry.Metadata = buf.String()
		}
	}
	return entry
}

func toolCallMarker(calls []traceToolCall) string {
	parts := make([]string, 0, len(calls))
	for _, tc := range calls {
		parts = append(parts, fmt.Sprintf("%s(%s)", tc.Name, formatArgs(tc.Arguments)))
	}

	plural := ""
	if len(calls) > 1 {
		plural = "s"
	}
	return fmt.Sprintf("🔧 Decided to call tool%s: %s", plural, strings.Join(parts, ", "))
}

// formatArgs renders an arguments object as "k=v, k=v" in document order.
func formatArgs(raw json.RawMessage) string {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		return ""
	}

	var pairs []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			break
		}
		key, _ := keyTok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			break
		}
		pairs = append(pairs, key+"="+rawString(value))
	}
	return strings.Join(pairs, ", ")
}

// rawString returns a JSON string's contents, or the compact JSON text of
// any other value.
func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

func marshalCompact(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "{}"
	}
	return strings.TrimSpace(buf.String())
}
