package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agent-breadcrumbs/breadcrumbs/pkg/output"
)

// ShowOptions holds command-line options for the show command.
type ShowOptions struct {
	Output  string
	Verbose bool
	Quiet   bool
}

// NewShowCommand creates the show command.
func NewShowCommand(g *GlobalOptions) *cobra.Command {
	opts := &ShowOptions{}

	cmd := &cobra.Command{
		Use:   "show <session-id> [source...]",
		Short: "Show every entry of one session",
		Long: `Print the entries of one session in order, with normalized input and
output payloads and any tool calls the model decided to make.

Use "" as the session id for entries recorded without one.`,
		Example: `  breadcrumbs show 3f2a9c agent_logs.csv
  breadcrumbs show -o json 3f2a9c`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, args[0], args[1:], g, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show normalization tiers and metadata")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Session summary only")

	return cmd
}

func runShow(cmd *cobra.Command, id string, args []string, g *GlobalOptions, opts *ShowOptions) error {
	ctx := commandContext(cmd)

	formatter, err := output.NewFormatter(opts.Output, output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
	})
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

	summary, ok := st.Snapshot.Session(id)
	if !ok {
		if st.Empty() {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No entries found")
			ExitCode = ExitNoEntries
			return nil
		}
		return fmt.Errorf("session %q not found", id)
	}

	if err := formatter.FormatSession(ctx, output.NewSessionDetail(summary), cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	return nil
}
