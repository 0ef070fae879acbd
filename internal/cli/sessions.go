package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperjump/brainobs/internal/tables"
	"github.com/hyperjump/brainobs/internal/workbook"
)

func newSessionsCommand(opts *RootOptions) *cobra.Command {
	var (
		index    string
		suppress []string
		export   string
	)
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Print the post-processed sessions table",
		Long: `Loads ophys sessions, adds prior exposure counts and re-indexes the table by
--index. An unknown index column leaves the rows unchanged and prints a warning.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := initializeComponents(opts)
			if err != nil {
				return err
			}
			defer c.Close()
			ctx := cmd.Context()
			ophys, err := c.Storage.ListOphysSessions(ctx)
			if err != nil {
				return fmt.Errorf("list ophys sessions: %w", err)
			}
			behavior, err := c.Storage.ListBehaviorSessions(ctx)
			if err != nil {
				return fmt.Errorf("list behavior sessions: %w", err)
			}
			if index == "" {
				index = c.Config.Sessions.IndexColumn
			}
			table := tables.NewSessionsTable(ophys, behavior,
				tables.WithIndexColumn(index),
				tables.WithSuppress(c.Config.Sessions.Suppress...),
				tables.WithSuppress(suppress...),
				tables.WithLogger(c.Logger))
			mode := table.Postprocess()

			if export != "" {
				if err := workbook.WriteSessions(export, table); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d rows to %s\n", len(table.Rows), export)
				return nil
			}
			return WriteSessions(cmd.OutOrStdout(), table, mode, ParseOutputFormat(opts.Output))
		},
	}
	cmd.Flags().StringVar(&index, "index", "", "index column (ophys_session_id|ophys_experiment_id); default from config")
	cmd.Flags().StringSliceVar(&suppress, "suppress", nil, "columns to hide")
	cmd.Flags().StringVar(&export, "export", "", "write the table to this .xlsx file instead of printing it")
	return cmd
}
