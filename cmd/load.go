package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/okian/timelines/internal/adapters/extract"
	"github.com/okian/timelines/pkg/logger"
)

func newLoadCommand(c *cli) *cobra.Command {
	var extractDir string

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load the newest CSV extracts into the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("extract-dir") {
				c.cfg.ExtractDir = extractDir
			}
			ctx := cmd.Context()
			store, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			loader := extract.NewLoader(c.cfg.ExtractDir, store,
				extract.WithLogger(logger.Default()),
				extract.WithFs(afero.NewOsFs()))
			sum, err := loader.Load(ctx)
			if err != nil {
				return err
			}
			// The run date is filled in by the next stats run.
			if err := store.WriteStatisticsDates(ctx, sum.FilesDate, sum.FilesDate); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range sum.Results {
				fmt.Fprintf(out, "%-18s %9s rows  %s\n", r.Schema, humanize.Comma(int64(r.Kept)), r.File.Path)
			}
			fmt.Fprintf(out, "extracts dated %s\n", sum.FilesDate.Format("2006-01-02"))
			return nil
		},
	}
	cmd.Flags().StringVar(&extractDir, "extract-dir", "", "directory holding the CSV extracts")
	return cmd
}
