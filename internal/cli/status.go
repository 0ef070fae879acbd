package cli

import (
	"github.com/spf13/cobra"

	"github.com/hyperjump/brainobs/internal/storage"
)

func newStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show project database status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := initializeComponents(opts)
			if err != nil {
				return err
			}
			defer c.Close()
			ctx := cmd.Context()
			sessions, err := c.Storage.CountSessions(ctx)
			if err != nil {
				return err
			}
			files, err := c.Storage.CountFiles(ctx)
			if err != nil {
				return err
			}
			report := &StatusReport{
				ConfigPath:   c.ConfigPath,
				DatabasePath: c.Config.Storage.DatabasePath,
				IDStrategy:   c.Config.Data.IDStrategy,
				IndexColumn:  c.Config.Sessions.IndexColumn,
				Sessions:     sessions,
				Files:        files,
			}
			if n, err := storage.DiskUsageBytes(c.Config.Storage.DatabasePath); err == nil {
				report.DiskUsageBytes = n
			}
			return WriteStatus(cmd.OutOrStdout(), report, ParseOutputFormat(opts.Output))
		},
	}
}
