// Package output provides formatting and output generation for loaded sessions.
package output

import (
	"time"

	"github.com/agent-breadcrumbs/breadcrumbs/pkg/analyzer"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/loader"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/normalize"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/parser"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/toolcall"
)

// Report is the session listing output.
type Report struct {
	// Summary provides aggregate statistics.
	Summary Summary `json:"summary"`

	// Sessions in order of first appearance.
	Sessions []*analyzer.SessionSummary `json:"sessions"`

	// Sources describes what each source contributed.
	Sources []loader.SourceInfo `json:"sources"`

	// Metadata provides context about the load.
	Metadata Metadata `json:"metadata"`
}

// Summary provides aggregate statistics.
type Summary struct {
	TotalSessions int            `json:"total_sessions"`
	TotalTraces   int            `json:"total_traces"`
	Stats         analyzer.Stats `json:"stats"`

	// RowsDropped counts rows discarded for an empty action_id.
	RowsDropped int `json:"rows_dropped"`
}

// Metadata provides context about the load and analysis.
type Metadata struct {
	ConfigFile   string        `json:"config_file,omitempty"`
	SnapshotID   string        `json:"snapshot_id"`
	Generation   uint64        `json:"generation"`
	LoadedAt     time.Time     `json:"loaded_at"`
	LoadDuration time.Duration `json:"load_duration"`

	// EntriesFiltered is the number of entries excluded by filters.
	EntriesFiltered int `json:"entries_filtered"`

	// TimeRange is the time filter that was applied, if any.
	TimeRange *analyzer.TimeRange `json:"time_range,omitempty"`
}

// NewReport creates a Report from a successful load and its analysis.
func NewReport(st *loader.State, result *analyzer.AnalysisResult, configFile string) *Report {
	report := &Report{
		Sessions: result.Sessions,
		Summary: Summary{
			TotalSessions: result.TotalSessions(),
			TotalTraces:   result.Stats.Entries,
			Stats:         result.Stats,
		},
		Metadata: Metadata{
			ConfigFile:      configFile,
			Generation:      st.Generation,
			LoadDuration:    st.Duration,
			EntriesFiltered: result.Metadata.EntriesFiltered,
			TimeRange:       result.Metadata.TimeRange,
		},
	}

	if snap := st.Snapshot; snap != nil {
		report.Sources = snap.Sources
		report.Metadata.SnapshotID = snap.ID
		report.Metadata.LoadedAt = snap.LoadedAt
		for _, s := range snap.Sources {
			report.Summary.RowsDropped += s.Dropped
		}
	}

	if report.Sessions == nil {
		report.Sessions = []*analyzer.SessionSummary{}
	}

	return report
}

// HasEntries reports whether any entry passed the filters.
func (r *Report) HasEntries() bool {
	return r.Summary.TotalTraces > 0
}

// SessionDetail is one session with every entry resolved for display.
type SessionDetail struct {
	Session *analyzer.SessionSummary `json:"session"`
	Entries []EntryView              `json:"entries"`
}

// EntryView is an entry plus its normalized payloads and tool calls.
type EntryView struct {
	parser.LogEntry

	ActionKind parser.ActionKind `json:"kind"`
	Input      PayloadView       `json:"input"`
	Output     PayloadView       `json:"output"`
	ToolCalls  toolcall.Result   `json:"tool_calls"`
}

// PayloadView is a normalized payload ready for display.
type PayloadView struct {
	Text          string         `json:"text"`
	Tier          normalize.Tier `json:"tier"`
	Fields        map[string]any `json:"fields"`
	ToolResponses []string       `json:"tool_responses,omitempty"`
}

// NewSessionDetail resolves every entry of a session.
func NewSessionDetail(summary *analyzer.SessionSummary) *SessionDetail {
	detail := &SessionDetail{
		Session: summary,
		Entries: make([]EntryView, 0, len(summary.Entries)),
	}

	for _, d := range analyzer.DescribeAll(summary.Entries) {
		detail.Entries = append(detail.Entries, EntryView{
			LogEntry:   d.Entry,
			ActionKind: d.Entry.Kind(),
			Input:      newPayloadView(d.Input),
			Output:     newPayloadView(d.Output),
			ToolCalls:  d.ToolCalls,
		})
	}

	return detail
}

func newPayloadView(p normalize.Payload) PayloadView {
	return PayloadView{
		Text:          p.Text(),
		Tier:          p.Tier,
		Fields:        p.Fields,
		ToolResponses: p.ToolResponses(),
	}
}
