package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agent-breadcrumbs/breadcrumbs/pkg/config"
)

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration files",
	}

	cmd.AddCommand(newConfigInitCommand())

	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a starter configuration file",
		Long: `Write a commented starter configuration with every setting at its
default. The file is not overwritten unless --force is given.`,
		Example: `  breadcrumbs config init
  breadcrumbs config init ~/.config/breadcrumbs/breadcrumbs.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultConfigName + ".yaml"
			if len(args) == 1 {
				path = args[0]
			}

			if err := config.WriteStarter(path, force); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			fmt.Fprintf(cmd.OutOrStdout(), "Check it with: breadcrumbs validate %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	return cmd
}
