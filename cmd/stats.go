package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/okian/timelines/internal/adapters/render"
	"github.com/okian/timelines/internal/adapters/repository"
	service "github.com/okian/timelines/internal/app"
	"github.com/okian/timelines/internal/domain/cohort"
	"github.com/okian/timelines/internal/domain/event"
	"github.com/okian/timelines/internal/domain/stats"
	"github.com/okian/timelines/pkg/logger"
	"github.com/okian/timelines/pkg/metrics"
)

type statsFlags struct {
	admitTerms   []int
	institutions []string
	eventPairs   []string
	stats        []string
	cohortFile   string
	metricsFile  string
	noProgress   bool
}

func newStatsCommand(c *cli) *cobra.Command {
	var f statsFlags

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Build cohorts and write timelines, reports and the workbook",
		Example: `  timelines stats -e admit:matric -e apply:admit
  timelines stats -t 1209 -t 1212 -i QNS -i BAR -e first_eval:census_date`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.applyStatsFlags(cmd, f)
			if err := c.cfg.Validate(); err != nil {
				return err
			}
			return c.runStats(cmd.Context(), cmd.ErrOrStderr())
		},
	}

	fl := cmd.Flags()
	fl.IntSliceVarP(&f.admitTerms, "admit-terms", "t", nil, "admit terms, e.g. 1209 (default: every available term)")
	fl.StringSliceVarP(&f.institutions, "institutions", "i", nil, "college codes, e.g. QNS")
	fl.StringSliceVarP(&f.eventPairs, "event-pairs", "e", nil, "earlier:later event pairs; see the events command")
	fl.StringSliceVarP(&f.stats, "stats", "s", nil, "statistics shown in the workbook")
	fl.StringVar(&f.cohortFile, "cohort", "", "CSV of student ids (column empl_id) to restrict cohorts to")
	fl.StringVar(&f.metricsFile, "metrics-file", "", "write run metrics to this textfile")
	fl.BoolVar(&f.noProgress, "no-progress", false, "do not print per-cohort progress")
	return cmd
}

func (c *cli) applyStatsFlags(cmd *cobra.Command, f statsFlags) {
	flags := cmd.Flags()
	if flags.Changed("admit-terms") {
		c.cfg.AdmitTerms = f.admitTerms
	}
	if flags.Changed("institutions") {
		c.cfg.Institutions = f.institutions
	}
	if flags.Changed("event-pairs") {
		c.cfg.EventPairs = f.eventPairs
	}
	if flags.Changed("stats") {
		c.cfg.Stats = f.stats
	}
	if flags.Changed("cohort") {
		c.cfg.ExplicitCohort = f.cohortFile
	}
	if flags.Changed("metrics-file") {
		c.cfg.MetricsFile = f.metricsFile
	}
	if flags.Changed("no-progress") {
		c.cfg.Progress = !f.noProgress
	}
}

// runStats expects a validated configuration.
func (c *cli) runStats(ctx context.Context, progressOut io.Writer) error {
	cfg := c.cfg
	insts, _ := cfg.InstitutionCodes()
	terms, _ := cfg.Terms()
	pairs, _ := cfg.Pairs()
	fields, _ := cfg.Fields()

	var allow []int
	if cfg.ExplicitCohort != "" {
		ids, err := readCohortFile(afero.NewOsFs(), cfg.ExplicitCohort)
		if err != nil {
			return err
		}
		allow = ids
	}

	store, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	files, err := render.NewFiles(cfg.OutputDir,
		render.WithLogger(logger.Default()),
		render.WithFields(fields))
	if err != nil {
		return err
	}

	opts := []service.Option{
		service.WithLogger(logger.Default()),
		service.WithInstitutions(insts...),
		service.WithAdmitTerms(terms...),
		service.WithEventPairs(pairs...),
		service.WithSeniorColleges(cfg.SeniorColleges...),
		service.WithExplicitCohort(allow),
		service.WithCohortSink(files),
		service.WithTableSink(store),
		service.WithTableSink(files),
		service.WithRunRecorder(store),
	}
	if cfg.Progress {
		opts = append(opts, service.WithCohortSink(&progress{out: progressOut}))
	}

	runDate := time.Now()
	_, runErr := service.New(store, opts...).Run(ctx)
	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Default().Warn(ctx, "metrics not written", logger.Error(err))
		}
	}
	if runErr != nil {
		return runErr
	}

	filesDate, _, err := store.StatisticsDates(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		filesDate = runDate
	} else if err != nil {
		return err
	}
	return store.WriteStatisticsDates(ctx, filesDate, runDate)
}

// progress prints one line per cohort as it is written.
type progress struct {
	out io.Writer
}

func (p *progress) WriteTimeline(_ context.Context, c *cohort.Cohort) error {
	_, err := fmt.Fprintf(p.out, "%s: %s students\n", c.Key, humanize.Comma(int64(c.Len())))
	return err
}

func (p *progress) WriteReport(context.Context, cohort.Key, event.Pair, stats.Summary) error {
	return nil
}
