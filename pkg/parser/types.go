// Package parser turns raw agent log text into typed log entries.
package parser

// Canonical header names written by the tracer.
const (
	FieldActionID         = "action_id"
	FieldSessionID        = "session_id"
	FieldTimestamp        = "timestamp"
	FieldActionType       = "action_type"
	FieldInputData        = "input_data"
	FieldOutputData       = "output_data"
	FieldModelName        = "model_name"
	FieldPromptTokens     = "prompt_tokens"
	FieldCompletionTokens = "completion_tokens"
	FieldTotalTokens      = "total_tokens"
	FieldCostUSD          = "cost_usd"
	FieldDurationMS       = "duration_ms"
	FieldMetadata         = "metadata"
)

// Headers lists the canonical header names in the order the tracer writes them.
var Headers = []string{
	FieldActionID,
	FieldSessionID,
	FieldTimestamp,
	FieldActionType,
	FieldInputData,
	FieldOutputData,
	FieldModelName,
	FieldPromptTokens,
	FieldCompletionTokens,
	FieldTotalTokens,
	FieldCostUSD,
	FieldDurationMS,
	FieldMetadata,
}

// ActionKind classifies an entry's action type.
type ActionKind string

const (
	ActionLLMCall ActionKind = "llm_call"
	ActionToolUse ActionKind = "tool_use"
	ActionOther   ActionKind = "other"
)

// LogEntry is one recorded agent action.
//
// Numeric fields are nil when the source value was absent, empty or
// unparseable. Zero is a real value, never a "missing" marker.
type LogEntry struct {
	ActionID   string `json:"action_id"`
	SessionID  string `json:"session_id"`
	Timestamp  string `json:"timestamp"`
	ActionType string `json:"action_type"`
	InputData  string `json:"input_data"`
	OutputData string `json:"output_data"`
	ModelName  string `json:"model_name"`

	PromptTokens     *int64 `json:"prompt_tokens"`
	CompletionTokens *int64 `json:"completion_tokens"`
	TotalTokens      *int64 `json:"total_tokens"`

	CostUSD    *float64 `json:"cost_usd"`
	DurationMS *float64 `json:"duration_ms"`

	Metadata string `json:"metadata"`
}

// Kind maps the raw action type onto llm_call, tool_use or other.
func (e *LogEntry) Kind() ActionKind {
	switch ActionKind(e.ActionType) {
	case ActionLLMCall:
		return ActionLLMCall
	case ActionToolUse:
		return ActionToolUse
	default:
		return ActionOther
	}
}

// Result is the detailed outcome of parsing one source.
type Result struct {
	// Entries are the valid entries in source order.
	Entries []LogEntry

	// Header is the tokenized header row.
	Header []string

	// Rows is the number of non-blank data lines seen.
	Rows int

	// Dropped is the number of data lines discarded for an empty action_id.
	Dropped int

	// MissingHeaders lists canonical header names absent from Header.
	MissingHeaders []string
}
