package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/agent-breadcrumbs/breadcrumbs/pkg/analyzer"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/output"
)

// SessionsOptions holds command-line options for the sessions command.
type SessionsOptions struct {
	Output      string
	TimeRange   string
	Sessions    []string
	ActionTypes []string
	Verbose     bool
	Quiet       bool

	Webhook WebhookOptions
}

// NewSessionsCommand creates the sessions command.
func NewSessionsCommand(g *GlobalOptions) *cobra.Command {
	opts := &SessionsOptions{}

	cmd := &cobra.Command{
		Use:   "sessions [source...]",
		Short: "List sessions reconstructed from agent logs",
		Long: `Load the agent logs, group entries by session and print a summary of
each session with its preview, token usage, cost and duration.

Sources given as arguments (files, globs, directories, URLs, or - for stdin)
replace the sources in the config file.

Exit codes:
  0 - Entries found
  1 - Sources read but no entries found
  2 - Load failure or configuration error`,
		Example: `  breadcrumbs sessions agent_logs.csv
  breadcrumbs sessions --type llm_call --time-range 2h ./logs/
  cat agent_logs.csv | breadcrumbs sessions -o json -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessions(cmd, args, g, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().StringVar(&opts.TimeRange, "time-range", "", "Limit to entries within a window ending now (e.g., 2h, 24h)")
	cmd.Flags().StringSliceVar(&opts.Sessions, "session", nil, "Show specific session(s) only (can be repeated)")
	cmd.Flags().StringSliceVar(&opts.ActionTypes, "type", nil, "Show specific action type(s) only (can be repeated)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show sources, models and time spans")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no details")
	opts.Webhook.AddFlags(cmd)

	return cmd
}

func runSessions(cmd *cobra.Command, args []string, g *GlobalOptions, opts *SessionsOptions) error {
	ctx := commandContext(cmd)

	formatter, err := output.NewFormatter(opts.Output, output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
	})
	if err != nil {
		return err
	}

	var analyzerOpts []analyzer.AnalyzerOption
	if opts.TimeRange != "" {
		start, end, err := parseTimeRange(opts.TimeRange, time.Now())
		if err != nil {
			return err
		}
		analyzerOpts = append(analyzerOpts, analyzer.WithTimeRange(start, end))
	}
	analyzerOpts = append(analyzerOpts,
		analyzer.WithSessionFilter(opts.Sessions),
		analyzer.WithActionTypes(opts.ActionTypes),
	)

	s, err := g.open(cmd, args, &opts.Webhook)
	if err != nil {
		return err
	}

	st, err := s.load(ctx)
	if err != nil {
		return err
	}

	result, err := analyzer.NewAnalyzer(analyzerOpts...).Analyze(ctx, st.Snapshot.Entries)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	report := output.NewReport(st, result, s.cfg.File)
	if err := formatter.Format(ctx, report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if !report.HasEntries() {
		ExitCode = ExitNoEntries
	}

	return nil
}
