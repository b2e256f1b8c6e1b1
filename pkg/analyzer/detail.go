package analyzer

import (
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/normalize"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/parser"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/toolcall"
)

// EntryDetail is one entry with its payloads resolved for display.
type EntryDetail struct {
	Entry     parser.LogEntry
	Input     normalize.Payload
	Output    normalize.Payload
	ToolCalls toolcall.Result
}

// Describe normalizes an entry's payloads and extracts tool calls from the
// response text.
func Describe(e parser.LogEntry) EntryDetail {
	out := normalize.NormalizeOutput(e.OutputData)
	return EntryDetail{
		Entry:     e,
		Input:     normalize.NormalizeInput(e.InputData),
		Output:    out,
		ToolCalls: toolcall.Extract(out.Text()),
	}
}

// DescribeAll describes every entry, keeping order.
func DescribeAll(entries []parser.LogEntry) []EntryDetail {
	details := make([]EntryDetail, 0, len(entries))
	for _, e := range entries {
		details = append(details, Describe(e))
	}
	return details
}

// TierCounts counts which normalization tier resolved each payload.
type TierCounts map[normalize.Kind]map[normalize.Tier]int

// CountTiers normalizes every input and output payload in entries.
func CountTiers(entries []parser.LogEntry) TierCounts {
	counts := TierCounts{
		normalize.Input:  {},
		normalize.Output: {},
	}
	for _, e := range entries {
		counts[normalize.Input][normalize.NormalizeInput(e.InputData).Tier]++
		counts[normalize.Output][normalize.NormalizeOutput(e.OutputData).Tier]++
	}
	return counts
}
