package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agent-breadcrumbs/breadcrumbs/pkg/config"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/source"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a breadcrumbs configuration file without loading any logs.

Checks:
  - YAML syntax
  - At least one source, each with exactly one of path or url
  - Source formats, server, watch, http and logging settings
  - Webhook URLs and triggers
  - Source file existence (warning only)`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := commandContext(cmd)
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(w, "\nConfiguration valid!\n")
	fmt.Fprintf(w, "  Sources:  %d\n", len(cfg.Sources))
	fmt.Fprintf(w, "  Webhooks: %d\n", len(cfg.Webhooks))
	fmt.Fprintf(w, "  Server:   %s\n", cfg.Server.Addr)

	fmt.Fprintf(w, "\nSources:\n")
	var patterns []string
	for i, sc := range cfg.Sources {
		format := sc.Format
		if format == "" {
			format = "auto"
		}
		if sc.URL != "" {
			fmt.Fprintf(w, "  %d. [%s] %s\n", i+1, format, sc.URL)
			continue
		}
		fmt.Fprintf(w, "  %d. [%s] %s\n", i+1, format, sc.Path)
		if sc.Path != StdinArg {
			patterns = append(patterns, sc.Path)
		}
	}

	// Check if path sources exist (warnings only)
	if len(patterns) == 0 {
		return nil
	}
	files, err := source.ExpandPaths(patterns)
	if err != nil {
		fmt.Fprintf(w, "\nWarning: Error expanding source paths: %v\n", err)
		return nil
	}

	fmt.Fprintf(w, "\nLog files:\n")
	for _, f := range files {
		if _, err := source.NewFileSource(f, source.FormatAuto).Read(ctx); err != nil {
			fmt.Fprintf(w, "  - %s (warning: not readable)\n", f)
			continue
		}
		fmt.Fprintf(w, "  - %s\n", f)
	}

	return nil
}
