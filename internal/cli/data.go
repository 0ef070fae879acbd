package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/brainobs/internal/workbook"
)

func newIDsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ids <dir>",
		Short: "Assign file IDs to the data files under a directory",
		Long: `Walks dir, assigns each data file an ID using the configured strategy and
records it in the file manifest. Symbolic links are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := initializeComponents(opts)
			if err != nil {
				return err
			}
			defer c.Close()
			recs, err := c.Files.WriteDirectory(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("assign file ids: %w", err)
			}
			c.Logger.Debug("file ids assigned", zap.Int("files", len(recs)), zap.String("run_id", c.Files.RunID()))
			return WriteFiles(cmd.OutOrStdout(), recs, ParseOutputFormat(opts.Output))
		},
	}
}

func newImportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <workbook.xlsx>",
		Short: "Import project metadata from a workbook",
		Long: `Reads the behavior_sessions and ophys_sessions sheets of a project workbook
into the project database. Existing sessions with the same ID are replaced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := workbook.ReadProject(args[0])
			if err != nil {
				return err
			}
			c, err := initializeComponents(opts)
			if err != nil {
				return err
			}
			defer c.Close()
			ctx := cmd.Context()
			for i := range project.BehaviorSessions {
				if err := c.Storage.UpsertBehaviorSession(ctx, &project.BehaviorSessions[i]); err != nil {
					return fmt.Errorf("store behavior session: %w", err)
				}
			}
			for i := range project.OphysSessions {
				if err := c.Storage.UpsertOphysSession(ctx, &project.OphysSessions[i]); err != nil {
					return fmt.Errorf("store ophys session: %w", err)
				}
			}
			counts := map[string]int{
				"behavior_sessions": len(project.BehaviorSessions),
				"ophys_sessions":    len(project.OphysSessions),
			}
			if ParseOutputFormat(opts.Output) == OutputJSON {
				return writeJSON(cmd.OutOrStdout(), counts)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d behavior sessions and %d ophys sessions\n",
				counts["behavior_sessions"], counts["ophys_sessions"])
			return nil
		},
	}
}
