package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/okian/timelines/internal/adapters/extract"
	"github.com/okian/timelines/pkg/logger"
)

func newPruneCommand(c *cli) *cobra.Command {
	var archiveDir string

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove archived extracts older than the newest archived set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("archive-dir") {
				c.cfg.ArchiveDir = archiveDir
			}
			removed, err := extract.Prune(cmd.Context(), afero.NewOsFs(), c.cfg.ArchiveDir, logger.Default().Named("prune"))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d archived extracts\n", len(removed))
			return nil
		},
	}
	cmd.Flags().StringVar(&archiveDir, "archive-dir", "", "directory holding archived extracts")
	return cmd
}
