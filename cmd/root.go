package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/timelines/internal/adapters/repository"
	"github.com/okian/timelines/internal/config"
	"github.com/okian/timelines/pkg/logger"
)

// cli carries the loaded configuration into the subcommands.
type cli struct {
	configPath string
	database   string
	outputDir  string
	logLevel   string

	cfg *config.Config
}

func newRootCommand() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "timelines",
		Short: "Transfer admission timeline statistics",
		Long: `timelines builds one cohort of transfer students per college and admit
term, measures the days between pairs of milestone events and reports
descriptive statistics per cohort and for the senior-college super-cohort.

Commands:
  load     Load the newest CSV extracts into the database
  stats    Build cohorts and write timelines, reports and the workbook
  events   List the event types usable in event pairs
  terms    List the admit terms available in the database
  prune    Remove superseded extracts from the archive

Configuration is read from $TIMELINES_CONFIG (YAML), then TIMELINES_*
environment variables, then flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.load(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "YAML config file (default $TIMELINES_CONFIG)")
	pf.StringVar(&c.database, "database", "", "SQLite database file")
	pf.StringVarP(&c.outputDir, "output-dir", "o", "", "directory for timelines, reports and the workbook")
	pf.StringVar(&c.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(
		newLoadCommand(c),
		newStatsCommand(c),
		newEventsCommand(c),
		newTermsCommand(c),
		newPruneCommand(c),
	)
	return root
}

// load layers flags over the file and environment configuration.
func (c *cli) load(cmd *cobra.Command) error {
	if c.configPath != "" {
		if err := os.Setenv(config.EnvFile, c.configPath); err != nil {
			return err
		}
	}
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("database") {
		cfg.Database = c.database
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = c.outputDir
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = c.logLevel
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	c.cfg = cfg
	return nil
}

func (c *cli) openStore(ctx context.Context) (*repository.SQLStore, error) {
	store, err := repository.Open(ctx, c.cfg.Database, repository.WithLogger(logger.Default()))
	if err != nil {
		return nil, err
	}
	logger.Default().Debug(ctx, "database opened", logger.String("path", store.Path()))
	return store, nil
}
