// Package cli implements the brainobs command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// DefaultConfigPath is used when --config is not given.
const DefaultConfigPath = "/usr/local/etc/brainobs/config.yaml"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Debug      bool
	Output     string
}

// NewRootCommand creates the brainobs root command.
func NewRootCommand(version string) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "brainobs",
		Short: "brainobs - brain observatory project tooling",
		Long: `Assigns stable IDs to data files, imports project metadata, and serves
post-processed session tables and recordings over HTTP.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !ParseOutputFormat(opts.Output).Valid() {
				return fmt.Errorf("invalid output %q: must be one of %v", opts.Output, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", DefaultConfigPath, "config file path")
	cmd.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&opts.Output, "output", string(OutputText), "output format (text|json)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newIDsCommand(opts))
	cmd.AddCommand(newImportCommand(opts))
	cmd.AddCommand(newSessionsCommand(opts))
	cmd.AddCommand(newRecordingCommand(opts))
	cmd.AddCommand(newStatusCommand(opts))
	cmd.AddCommand(newVersionCommand(version))

	return cmd
}

func newVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "brainobs version %s\n", version)
		},
	}
}
