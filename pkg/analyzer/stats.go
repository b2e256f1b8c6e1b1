package analyzer

import (
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/normalize"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/parser"
)

const (
	// PreviewLength is the number of characters kept in a session preview.
	PreviewLength = 60

	// NoPreview is the preview of a session without LLM calls.
	NoPreview = "No user input found"
)

// ComputeStats aggregates entries. An empty slice yields zero stats.
func ComputeStats(entries []parser.LogEntry) Stats {
	var (
		s             Stats
		totalDuration float64
	)

	for i := range entries {
		e := &entries[i]
		s.Entries++

		switch e.Kind() {
		case parser.ActionLLMCall:
			s.LLMCalls++
		case parser.ActionToolUse:
			s.ToolUses++
		}

		if e.CostUSD != nil {
			s.TotalCost += *e.CostUSD
		}
		if e.TotalTokens != nil {
			s.TotalTokens += *e.TotalTokens
		}
		if e.DurationMS != nil {
			totalDuration += *e.DurationMS
		}
	}

	if len(entries) > 0 {
		s.AvgDuration = totalDuration / float64(len(entries))
	}

	return s
}

// Preview returns the prompt of the first LLM call in entries, cut to
// PreviewLength characters with a trailing "..." when longer.
func Preview(entries []parser.LogEntry) string {
	for i := range entries {
		if entries[i].Kind() != parser.ActionLLMCall {
			continue
		}
		prompt := normalize.NormalizeInput(entries[i].InputData).Text()
		return Truncate(prompt, PreviewLength)
	}
	return NoPreview
}

// Truncate cuts s to n characters, appending "..." when it was longer.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// Models returns distinct non-empty model names in order of first use.
func Models(entries []parser.LogEntry) []string {
	seen := make(map[string]bool)
	models := []string{}
	for _, e := range entries {
		if e.ModelName == "" || seen[e.ModelName] {
			continue
		}
		seen[e.ModelName] = true
		models = append(models, e.ModelName)
	}
	return models
}
