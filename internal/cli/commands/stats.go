package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agent-breadcrumbs/breadcrumbs/pkg/analyzer"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/output"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand(g *GlobalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "stats [source...]",
		Short: "Print totals across all sessions",
		Long: `Print the number of sessions and traces, token usage and cost across
every loaded entry.

Exit codes match the sessions command.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, args, g, format)
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", "text", "Output format (text|json)")

	return cmd
}

func runStats(cmd *cobra.Command, args []string, g *GlobalOptions, format string) error {
	ctx := commandContext(cmd)

	formatter, err := output.NewFormatter(format, output.FormatOptions{Quiet: true})
	if err != nil {
		return err
	}

	s, err := g.open(cmd, args, nil)
	if err != nil {
		return err
	}

	st, err := s.load(ctx)
	if err != nil {
		return err
	}

	result, err := analyzer.NewAnalyzer().Analyze(ctx, st.Snapshot.Entries)
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
