// Package cli provides the command-line interface for breadcrumbs.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agent-breadcrumbs/breadcrumbs/internal/cli/commands"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	return run(NewRootCommand(), os.Args[1:])
}

func run(rootCmd *cobra.Command, args []string) int {
	commands.ExitCode = commands.ExitOK
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		// Print error to stderr (SilenceErrors prevents Cobra from doing this)
		_, _ = fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return commands.ExitFailure
	}
	return commands.ExitCode
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	g := &commands.GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "breadcrumbs",
		Short: "Reconstruct agent sessions from execution logs",
		Long: `breadcrumbs reads the execution logs written by an agent tracer and
reconstructs what happened: which sessions ran, what each LLM call was asked
and answered, which tools the model decided to call, and what it all cost.

Logs are CSV files with a header row, or JSONL/JSON trace events. Payloads
that are not valid JSON are repaired or recovered by pattern, so every entry
can be shown.

Sources come from the config file (./breadcrumbs.yaml by default) or from
arguments: files, globs, directories, http(s) URLs, or - for stdin.

Exit codes:
  0 - Entries found
  1 - Sources read but no entries found
  2 - Load failure or configuration error`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	g.AddFlags(rootCmd)

	// Add subcommands
	rootCmd.AddCommand(commands.NewSessionsCommand(g))
	rootCmd.AddCommand(commands.NewShowCommand(g))
	rootCmd.AddCommand(commands.NewStatsCommand(g))
	rootCmd.AddCommand(commands.NewDiagnoseCommand(g))
	rootCmd.AddCommand(commands.NewExportCommand(g))
	rootCmd.AddCommand(commands.NewServeCommand(g))
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
