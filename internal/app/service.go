// Package service runs the cohort statistics pipeline: it builds every
// (institution, admit term) cohort, summarizes the configured event pairs,
// rolls senior colleges into a super-cohort and hands the results to the
// output sinks.
package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/okian/timelines/internal/adapters/repository"
	"github.com/okian/timelines/internal/domain/cohort"
	"github.com/okian/timelines/internal/domain/event"
	"github.com/okian/timelines/internal/domain/institution"
	"github.com/okian/timelines/internal/domain/rollup"
	"github.com/okian/timelines/internal/domain/stats"
	"github.com/okian/timelines/internal/domain/term"
	"github.com/okian/timelines/pkg/logger"
	"github.com/okian/timelines/pkg/metrics"
)

// Service orchestrates one statistics run.
type Service struct {
	store repository.Store

	// Run parameters
	institutions   []string
	admitTerms     []term.Code
	pairs          []event.Pair
	seniorColleges []string
	allowList      []int

	// Outputs
	cohortSinks []CohortSink
	tableSinks  []TableSink
	recorder    RunRecorder

	now    func() time.Time
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithInstitutions sets the institutions to build cohorts for.
func WithInstitutions(codes ...string) Option {
	return func(s *Service) {
		s.institutions = codes
	}
}

// WithAdmitTerms sets the admit terms. Without it every available term is
// used.
func WithAdmitTerms(terms ...term.Code) Option {
	return func(s *Service) {
		s.admitTerms = terms
	}
}

// WithEventPairs sets the pairs to measure.
func WithEventPairs(pairs ...event.Pair) Option {
	return func(s *Service) {
		s.pairs = pairs
	}
}

// WithSeniorColleges replaces the super-cohort membership.
func WithSeniorColleges(codes ...string) Option {
	return func(s *Service) {
		s.seniorColleges = codes
	}
}

// WithExplicitCohort restricts every cohort to the given student ids.
func WithExplicitCohort(ids []int) Option {
	return func(s *Service) {
		s.allowList = ids
	}
}

// WithCohortSink adds a sink for timelines and reports.
func WithCohortSink(sink CohortSink) Option {
	return func(s *Service) {
		if sink != nil {
			s.cohortSinks = append(s.cohortSinks, sink)
		}
	}
}

// WithTableSink adds a sink for the finished roll-up.
func WithTableSink(sink TableSink) Option {
	return func(s *Service) {
		if sink != nil {
			s.tableSinks = append(s.tableSinks, sink)
		}
	}
}

// WithRunRecorder records every run's outcome.
func WithRunRecorder(r RunRecorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service reading from store.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:          store,
		institutions:   institution.Defaults,
		seniorColleges: institution.SeniorColleges,
		now:            time.Now,
		logger:         logger.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("service")
	return s
}

// plan is a validated set of run parameters.
type plan struct {
	institutions []string
	terms        []term.Code
	pairs        []event.Pair
	seniors      map[string]bool
	super        string
}

func (s *Service) plan(ctx context.Context) (*plan, error) {
	if s.store == nil {
		return nil, fmt.Errorf("%w: no repository", ErrInvalidConfig)
	}
	if len(s.institutions) == 0 {
		return nil, fmt.Errorf("%w: no institutions", ErrInvalidConfig)
	}
	insts, err := institution.Validate(s.institutions)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if len(s.pairs) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, event.ErrNoPairs)
	}
	for _, p := range s.pairs {
		if _, err := event.NewPair(p.Earlier, p.Later); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	seniors, err := institution.Validate(s.seniorColleges)
	if err != nil {
		return nil, fmt.Errorf("%w: senior colleges: %w", ErrInvalidConfig, err)
	}

	available, err := s.store.AdmitTerms(ctx)
	if err != nil {
		return nil, fmt.Errorf("list admit terms: %w", err)
	}
	terms := s.admitTerms
	if len(terms) == 0 {
		terms = available
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("%w: no admit terms available", ErrInvalidConfig)
	}
	for _, t := range terms {
		if !slices.Contains(available, t) {
			return nil, fmt.Errorf("%w: admit term %d (%s) is not available", ErrInvalidConfig, int(t), t.Name())
		}
	}

	p := &plan{
		institutions: insts,
		terms:        slices.Sorted(slices.Values(terms)),
		pairs:        s.pairs,
		seniors:      make(map[string]bool, len(seniors)),
	}
	p.terms = slices.Compact(p.terms)
	for _, c := range seniors {
		p.seniors[c] = true
	}
	for _, inst := range insts {
		if p.seniors[inst] {
			p.super = institution.SuperCode(seniors)
			break
		}
	}
	return p, nil
}

// Run builds every cohort, computes statistics and feeds the sinks. A
// cohort without a session is skipped with a warning; any other failure
// aborts the run.
func (s *Service) Run(ctx context.Context) (*rollup.Table, error) {
	started := s.now()
	runID := uuid.NewString()
	log := s.logger.With(logger.String("run_id", runID))

	p, err := s.plan(ctx)
	if err != nil {
		return nil, err
	}
	log.Info(ctx, "run started",
		logger.Any("institutions", p.institutions),
		logger.Int("terms", len(p.terms)),
		logger.Int("pairs", len(p.pairs)))

	tbl := rollup.New(p.institutions, p.super, p.terms, p.pairs)
	builder := cohort.NewBuilder(s.store,
		cohort.WithLogger(log.Named("builder")),
		cohort.WithAllowList(s.allowList))

	supers := make(map[term.Code]*cohort.SuperCohort)
	built, skipped := 0, 0

	runErr := func() error {
		for _, inst := range p.institutions {
			for _, t := range p.terms {
				if err := ctx.Err(); err != nil {
					return err
				}
				c, err := builder.Build(ctx, inst, t)
				if errors.Is(err, cohort.ErrNoSession) {
					skipped++
					tbl.Skip(inst, t, "no session")
					metrics.RecordCohortSkipped("no_session")
					log.Warn(ctx, "cohort skipped: no session",
						logger.String("institution", inst),
						logger.String("term", t.Name()))
					continue
				}
				if err != nil {
					return err
				}
				built++
				s.record(c)
				if err := s.summarize(ctx, tbl, c); err != nil {
					return err
				}
				if p.seniors[inst] {
					sc, ok := supers[t]
					if !ok {
						sc = cohort.NewSuperCohort(p.super, t)
						supers[t] = sc
					}
					sc.Absorb(c)
				}
			}
		}

		for _, t := range p.terms {
			sc, ok := supers[t]
			if !ok {
				continue
			}
			tbl.SetSize(sc.Code, t, sc.Len())
			for _, pair := range p.pairs {
				sum := stats.Describe(sc.Deltas(pair))
				tbl.Put(sc.Code, t, pair, sum)
				metrics.RecordSummary(sum.Sufficient())
			}
		}

		for _, sink := range s.tableSinks {
			if err := sink.WriteTable(ctx, tbl); err != nil {
				return fmt.Errorf("write statistics: %w", err)
			}
		}
		return nil
	}()

	finished := s.now()
	metrics.RecordRun(finished.Sub(started).Seconds(), finished.Unix(), runErr == nil)
	if s.recorder != nil {
		run := repository.Run{ID: runID, Started: started, Finished: finished, Cohorts: built, Skipped: skipped}
		if runErr != nil {
			run.Error = runErr.Error()
		}
		if err := s.recorder.RecordRun(ctx, run); err != nil {
			log.Warn(ctx, "run not recorded", logger.Error(err))
		}
	}
	if runErr != nil {
		log.Error(ctx, "run failed", logger.Error(runErr))
		return nil, runErr
	}

	log.Info(ctx, "run finished",
		logger.Int("cohorts", built),
		logger.Int("skipped", skipped),
		logger.Int("summaries", tbl.Len()),
		logger.Duration("elapsed", finished.Sub(started)))
	return tbl, nil
}

func (s *Service) record(c *cohort.Cohort) {
	metrics.RecordCohortBuilt(c.Key.Institution, c.Len())
	for i := 0; i < c.Issues.BadStudentIDs; i++ {
		metrics.RecordRowSkipped("cohort", "bad_student_id")
	}
	for i := 0; i < c.Issues.BadDates; i++ {
		metrics.RecordRowSkipped("cohort", "bad_date")
	}
}

// summarize stores the cohort's summaries and feeds the cohort sinks.
func (s *Service) summarize(ctx context.Context, tbl *rollup.Table, c *cohort.Cohort) error {
	tbl.SetSize(c.Key.Institution, c.Key.AdmitTerm, c.Len())
	for _, sink := range s.cohortSinks {
		if err := sink.WriteTimeline(ctx, c); err != nil {
			return fmt.Errorf("write timeline %s: %w", c.Key, err)
		}
	}
	for _, pair := range tbl.Pairs() {
		sum := stats.Describe(c.Deltas(pair))
		tbl.Put(c.Key.Institution, c.Key.AdmitTerm, pair, sum)
		metrics.RecordSummary(sum.Sufficient())
		for _, sink := range s.cohortSinks {
			if err := sink.WriteReport(ctx, c.Key, pair, sum); err != nil {
				return fmt.Errorf("write report %s %s: %w", c.Key, pair, err)
			}
		}
	}
	return nil
}
