// Package analyzer groups log entries into sessions and computes statistics.
package analyzer

import (
	"time"

	"github.com/agent-breadcrumbs/breadcrumbs/pkg/parser"
)

// Stats aggregates a set of entries.
type Stats struct {
	// Entries is the number of entries aggregated.
	Entries int `json:"entries"`

	// LLMCalls and ToolUses count entries by action kind.
	LLMCalls int `json:"llm_calls"`
	ToolUses int `json:"tool_uses"`

	// TotalCost sums cost_usd, treating missing values as 0.
	TotalCost float64 `json:"total_cost"`

	// TotalTokens sums total_tokens, treating missing values as 0.
	TotalTokens int64 `json:"total_tokens"`

	// AvgDuration is the sum of known durations divided by Entries, so
	// entries without a duration pull the average down.
	AvgDuration float64 `json:"avg_duration"`
}

// Other counts entries that are neither LLM calls nor tool uses.
func (s Stats) Other() int {
	return s.Entries - s.LLMCalls - s.ToolUses
}

// SessionSummary describes one session.
type SessionSummary struct {
	// ID is the session_id shared by the entries. It may be empty.
	ID string `json:"session_id"`

	// Preview is the first LLM call's prompt, truncated.
	Preview string `json:"preview"`

	// Entries are in source order.
	Entries []parser.LogEntry `json:"-"`

	Stats Stats `json:"stats"`

	// Models lists distinct model names in order of first use.
	Models []string `json:"models"`

	// FirstTimestamp and LastTimestamp are the raw timestamps of the first
	// and last entries.
	FirstTimestamp string `json:"first_timestamp"`
	LastTimestamp  string `json:"last_timestamp"`
}

// AnalysisResult is the analyzer output.
type AnalysisResult struct {
	// Sessions are ordered by first appearance of their id.
	Sessions []*SessionSummary

	// Stats covers every entry that passed the filters.
	Stats Stats

	// Metadata provides context about the analysis.
	Metadata AnalysisMetadata
}

// AnalysisMetadata provides context about the analysis run.
type AnalysisMetadata struct {
	// EntriesSeen is the number of entries given to the analyzer.
	EntriesSeen int

	// EntriesFiltered is the number of entries excluded by filters.
	EntriesFiltered int

	// TimeRange is the time filter applied, if any.
	TimeRange *TimeRange

	StartTime time.Time
	EndTime   time.Time
}

// TotalSessions returns the number of sessions.
func (r *AnalysisResult) TotalSessions() int {
	return len(r.Sessions)
}

// Session returns the summary for id.
func (r *AnalysisResult) Session(id string) (*SessionSummary, bool) {
	for _, s := range r.Sessions {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// HasEntries reports whether any entry passed the filters.
func (r *AnalysisResult) HasEntries() bool {
	return r.Stats.Entries > 0
}
