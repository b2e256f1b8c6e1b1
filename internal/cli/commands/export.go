package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/agent-breadcrumbs/breadcrumbs/pkg/export"
)

// ExportOptions holds command-line options for the export command.
type ExportOptions struct {
	Format string
	Out    string
}

// NewExportCommand creates the export command.
func NewExportCommand(g *GlobalOptions) *cobra.Command {
	opts := &ExportOptions{}

	cmd := &cobra.Command{
		Use:   "export [source...]",
		Short: "Export every loaded entry as CSV or XLSX",
		Long: `Write every loaded entry with the canonical headers, in load order.

CSV is written to stdout unless --out is given. XLSX requires --out;
use --out - to write it to stdout anyway.`,
		Example: `  breadcrumbs export ./logs/ > all.csv
  breadcrumbs export --format xlsx --out traces.xlsx agent_logs.csv
  breadcrumbs export --format xlsx --out auto agent_logs.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args, g, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "csv", "Export format (csv|xlsx)")
	cmd.Flags().StringVar(&opts.Out, "out", "", `Output file ("auto" names it agent_logs_<time>.<ext>, "-" is stdout)`)

	return cmd
}

func runExport(cmd *cobra.Command, args []string, g *GlobalOptions, opts *ExportOptions) error {
	ctx := commandContext(cmd)

	format, err := export.ParseFormat(opts.Format)
	if err != nil {
		return err
	}
	if format == export.FormatXLSX && opts.Out == "" {
		return fmt.Errorf("xlsx export needs --out (use --out - for stdout)")
	}

	s, err := g.open(cmd, args, nil)
	if err != nil {
		return err
	}

	st, err := s.load(ctx)
	if err != nil {
		return err
	}
	entries := st.Snapshot.Entries

	var (
		w    io.Writer = cmd.OutOrStdout()
		path string
	)
	switch opts.Out {
	case "", "-":
	default:
		path = opts.Out
		if path == "auto" {
			path = format.FileName(time.Now())
		}
		f, err := os.Create(path) // #nosec G304 -- output path chosen by the user
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		defer f.Close()
		w = f
	}

	if err := export.Write(w, format, entries); err != nil {
		return fmt.Errorf("exporting: %w", err)
	}
	if path != "" {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d entries to %s\n", len(entries), path)
	}

	if len(entries) == 0 {
		ExitCode = ExitNoEntries
	}
	return nil
}
