package analyzer

import (
	"context"
	"time"

	"github.com/agent-breadcrumbs/breadcrumbs/pkg/parser"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/timestamp"
)

// Analyzer builds session summaries from parsed entries.
type Analyzer struct {
	sessionFilter map[string]bool // nil means all sessions
	actionTypes   map[string]bool // nil means all action types
	timeRange     *TimeRange
}

// TimeRange defines a time window for filtering entries.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// AnalyzerOption configures analyzer behavior.
type AnalyzerOption func(*Analyzer)

// WithSessionFilter limits analysis to the given session ids.
func WithSessionFilter(ids []string) AnalyzerOption {
	return func(a *Analyzer) {
		if len(ids) > 0 {
			a.sessionFilter = make(map[string]bool)
			for _, id := range ids {
				a.sessionFilter[id] = true
			}
		}
	}
}

// WithActionTypes limits analysis to entries with the given action types.
func WithActionTypes(types []string) AnalyzerOption {
	return func(a *Analyzer) {
		if len(types) > 0 {
			a.actionTypes = make(map[string]bool)
			for _, t := range types {
				a.actionTypes[t] = true
			}
		}
	}
}

// WithTimeRange limits analysis to entries inside the window. Entries
// whose timestamp cannot be parsed are kept.
func WithTimeRange(start, end time.Time) AnalyzerOption {
	return func(a *Analyzer) {
		a.timeRange = &TimeRange{Start: start, End: end}
	}
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer(opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze filters entries, groups them by session and computes statistics.
func (a *Analyzer) Analyze(ctx context.Context, entries []parser.LogEntry) (*AnalysisResult, error) {
	result := &AnalysisResult{
		Sessions: []*SessionSummary{},
		Metadata: AnalysisMetadata{
			EntriesSeen: len(entries),
			TimeRange:   a.timeRange,
			StartTime:   time.Now(),
		},
	}

	kept := make([]parser.LogEntry, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !a.keep(&e) {
			result.Metadata.EntriesFiltered++
			continue
		}
		kept = append(kept, e)
	}

	sessions := GroupBySession(kept)
	for _, id := range sessions.Keys() {
		group, _ := sessions.Get(id)
		result.Sessions = append(result.Sessions, Summarize(id, group))
	}

	result.Stats = ComputeStats(kept)
	result.Metadata.EndTime = time.Now()

	return result, nil
}

func (a *Analyzer) keep(e *parser.LogEntry) bool {
	if a.sessionFilter != nil && !a.sessionFilter[e.SessionID] {
		return false
	}
	if a.actionTypes != nil && !a.actionTypes[e.ActionType] {
		return false
	}
	if a.timeRange != nil {
		if ts, ok := timestamp.Parse(e.Timestamp); ok {
			if ts.Before(a.timeRange.Start) || ts.After(a.timeRange.End) {
				return false
			}
		}
	}
	return true
}

// Summarize builds the summary of one session's entries.
func Summarize(id string, entries []parser.LogEntry) *SessionSummary {
	s := &SessionSummary{
		ID:      id,
		Preview: Preview(entries),
		Entries: entries,
		Stats:   ComputeStats(entries),
		Models:  Models(entries),
	}
	if len(entries) > 0 {
		s.FirstTimestamp = entries[0].Timestamp
		s.LastTimestamp = entries[len(entries)-1].Timestamp
	}
	return s
}
