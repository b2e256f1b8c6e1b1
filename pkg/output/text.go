package output

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/agent-breadcrumbs/breadcrumbs/pkg/analyzer"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/normalize"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/parser"
)

var (
	colorDim    = lipgloss.AdaptiveColor{Light: "242", Dark: "240"}
	colorCyan   = lipgloss.AdaptiveColor{Light: "30", Dark: "45"}
	colorGreen  = lipgloss.AdaptiveColor{Light: "28", Dark: "40"}
	colorYellow = lipgloss.AdaptiveColor{Light: "136", Dark: "220"}
	colorOrange = lipgloss.AdaptiveColor{Light: "166", Dark: "208"}
)

// styles are bound to the writer's renderer, so output to a file or
// buffer carries no escape codes.
type styles struct {
	heading lipgloss.Style
	label   lipgloss.Style
	dim     lipgloss.Style
	llm     lipgloss.Style
	tool    lipgloss.Style
	other   lipgloss.Style
	call    lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		heading: r.NewStyle().Bold(true).Foreground(colorCyan),
		label:   r.NewStyle().Foreground(colorDim),
		dim:     r.NewStyle().Foreground(colorDim),
		llm:     r.NewStyle().Bold(true).Foreground(colorGreen),
		tool:    r.NewStyle().Bold(true).Foreground(colorOrange),
		other:   r.NewStyle().Bold(true).Foreground(colorYellow),
		call:    r.NewStyle().Foreground(colorOrange),
	}
}

func (s styles) kind(k parser.ActionKind) lipgloss.Style {
	switch k {
	case parser.ActionLLMCall:
		return s.llm
	case parser.ActionToolUse:
		return s.tool
	default:
		return s.other
	}
}

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(report, w, newStyles(w))
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	_, err := fmt.Fprintf(w, "breadcrumbs: %d sessions, %d traces, %d tokens, %s\n",
		report.Summary.TotalSessions,
		report.Summary.TotalTraces,
		report.Summary.Stats.TotalTokens,
		FormatCost(report.Summary.Stats.TotalCost))
	return err
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer, st styles) error {
	fmt.Fprintln(w, st.heading.Render("=== Sessions ==="))
	fmt.Fprintln(w)

	if len(report.Sessions) == 0 {
		fmt.Fprintln(w, "  No entries found")
		fmt.Fprintln(w)
	}

	for _, s := range report.Sessions {
		f.formatSession(s, w, st)
	}

	if f.opts.Verbose && len(report.Sources) > 0 {
		fmt.Fprintln(w, st.heading.Render("Sources"))
		for _, src := range report.Sources {
			fmt.Fprintf(w, "  %s (%s): %d rows, %d dropped, %d entries\n",
				src.Name, src.Format, src.Rows, src.Dropped, src.Entries)
			if len(src.MissingHeaders) > 0 {
				fmt.Fprintf(w, "    missing headers: %s\n", strings.Join(src.MissingHeaders, ", "))
			}
		}
		fmt.Fprintln(w)
	}

	stats := report.Summary.Stats
	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d sessions, %d traces (%d llm calls, %d tool uses, %d other)\n",
		report.Summary.TotalSessions,
		report.Summary.TotalTraces,
		stats.LLMCalls, stats.ToolUses, stats.Other())
	fmt.Fprintf(w, "Tokens: %d  Cost: %s  Avg duration: %s\n",
		stats.TotalTokens, FormatCost(stats.TotalCost), FormatDuration(stats.AvgDuration))

	if f.opts.Verbose {
		if report.Summary.RowsDropped > 0 {
			fmt.Fprintf(w, "Rows dropped: %d\n", report.Summary.RowsDropped)
		}
		if report.Metadata.EntriesFiltered > 0 {
			fmt.Fprintf(w, "Entries filtered: %d\n", report.Metadata.EntriesFiltered)
		}
		fmt.Fprintf(w, "Load duration: %s\n", report.Metadata.LoadDuration.Round(1e6))
	}

	return nil
}

func (f *TextFormatter) formatSession(s *analyzer.SessionSummary, w io.Writer, st styles) {
	fmt.Fprintf(w, "%s %s\n", st.heading.Render("["+displayID(s.ID)+"]"), s.Preview)
	fmt.Fprintf(w, "  %s %d (%d llm, %d tool, %d other)  %s %d  %s %s  %s %s\n",
		st.label.Render("entries:"), s.Stats.Entries, s.Stats.LLMCalls, s.Stats.ToolUses, s.Stats.Other(),
		st.label.Render("tokens:"), s.Stats.TotalTokens,
		st.label.Render("cost:"), FormatCost(s.Stats.TotalCost),
		st.label.Render("avg:"), FormatDuration(s.Stats.AvgDuration))

	if f.opts.Verbose {
		if len(s.Models) > 0 {
			fmt.Fprintf(w, "  %s %s\n", st.label.Render("models:"), strings.Join(s.Models, ", "))
		}
		fmt.Fprintf(w, "  %s %s .. %s\n", st.label.Render("time:"),
			FormatTimestamp(s.FirstTimestamp), FormatTimestamp(s.LastTimestamp))
	}

	fmt.Fprintln(w)
}

// FormatSession renders one session entry by entry.
func (f *TextFormatter) FormatSession(ctx context.Context, detail *SessionDetail, w io.Writer) error {
	st := newStyles(w)
	s := detail.Session

	fmt.Fprintln(w, st.heading.Render("=== Session "+displayID(s.ID)+" ==="))
	fmt.Fprintf(w, "%d entries, %d tokens, %s\n", s.Stats.Entries, s.Stats.TotalTokens, FormatCost(s.Stats.TotalCost))
	fmt.Fprintln(w)

	if f.opts.Quiet {
		return nil
	}

	for i := range detail.Entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		f.formatEntry(i+1, &detail.Entries[i], w, st)
	}

	return nil
}

func (f *TextFormatter) formatEntry(n int, e *EntryView, w io.Writer, st styles) {
	fmt.Fprintf(w, "#%d %s %s", n, st.kind(e.ActionKind).Render("["+string(e.ActionKind)+"]"), FormatTimestamp(e.Timestamp))
	if e.ModelName != "" {
		fmt.Fprintf(w, "  %s", e.ModelName)
	}
	fmt.Fprintln(w)

	f.formatPayload("Input", e.Input, w, st)
	for _, r := range e.Input.ToolResponses {
		fmt.Fprintf(w, "    %s %s\n", st.dim.Render("tool response:"), r)
	}

	if e.ToolCalls.HasTools {
		if e.ToolCalls.Text != "" {
			fmt.Fprintf(w, "  %s %s\n", st.label.Render("Output:"), e.ToolCalls.Text)
		}
		for _, c := range e.ToolCalls.Tools {
			fmt.Fprintf(w, "  %s %s\n", st.label.Render("Tool:"), st.call.Render(c.NameAndArgs))
		}
		if f.opts.Verbose {
			fmt.Fprintf(w, "    %s\n", st.dim.Render("tier: "+e.Output.Tier.String()))
		}
	} else {
		f.formatPayload("Output", e.Output, w, st)
	}

	fmt.Fprintf(w, "  %s %s/%s/%s  %s %s  %s %s\n",
		st.label.Render("tokens:"), FormatTokens(e.PromptTokens), FormatTokens(e.CompletionTokens), FormatTokens(e.TotalTokens),
		st.label.Render("cost:"), FormatCostPtr(e.CostUSD),
		st.label.Render("duration:"), FormatDurationPtr(e.DurationMS))

	if f.opts.Verbose {
		fmt.Fprintf(w, "  %s %s\n", st.label.Render("action:"), e.ActionID)
	}
	fmt.Fprintln(w)
}

func (f *TextFormatter) formatPayload(label string, p PayloadView, w io.Writer, st styles) {
	fmt.Fprintf(w, "  %s %s\n", st.label.Render(label+":"), p.Text)
	if f.opts.Verbose && p.Tier != normalize.TierStrict {
		fmt.Fprintf(w, "    %s\n", st.dim.Render("tier: "+p.Tier.String()))
	}
}

func displayID(id string) string {
	if id == "" {
		return "(no session)"
	}
	return id
}
