package cohort

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/okian/timelines/internal/domain/event"
	"github.com/okian/timelines/internal/domain/institution"
	"github.com/okian/timelines/internal/domain/model"
	"github.com/okian/timelines/internal/domain/term"
	"github.com/okian/timelines/pkg/logger"
)

// Source supplies the rows a cohort is built from. Row queries are already
// restricted to the institution and the admit term's window.
type Source interface {
	// Session returns the regular session calendar; ok is false when there
	// is none.
	Session(ctx context.Context, inst string, t term.Code) (s model.Session, ok bool, err error)
	Admissions(ctx context.Context, inst string, window []term.Code) ([]model.AdmissionRow, error)
	Evaluations(ctx context.Context, inst string, window []term.Code) ([]model.EvaluationRow, error)
	Registrations(ctx context.Context, inst string, window []term.Code) ([]model.RegistrationRow, error)
}

// Program actions folded from the admissions rows.
const (
	actionApply       = "APPL"
	actionAdmit       = "ADMT"
	actionMatriculate = "MATR"
	actionDeposit     = "DEIN"
	actionWithdraw    = "WADM"
)

// foldedActions are the only program actions that make a student a member.
var foldedActions = map[string]bool{
	actionApply:       true,
	actionAdmit:       true,
	actionMatriculate: true,
	actionDeposit:     true,
	actionWithdraw:    true,
}

// FoldedActions lists the program actions read from the admissions rows.
func FoldedActions() []string {
	return []string{actionApply, actionAdmit, actionMatriculate, actionDeposit, actionWithdraw}
}

// Deposit reasons that also count as matriculation.
var matriculatingReasons = map[string]bool{"ENDC": true, "DEPO": true}

// Builder assembles cohorts from a Source.
type Builder struct {
	source Source
	logger logger.Logger
	allow  map[int]struct{}
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the builder's logger.
func WithLogger(l logger.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithAllowList restricts cohorts to the given student ids. An empty list
// means no restriction.
func WithAllowList(ids []int) Option {
	return func(b *Builder) {
		if len(ids) == 0 {
			b.allow = nil
			return
		}
		b.allow = make(map[int]struct{}, len(ids))
		for _, id := range ids {
			b.allow[id] = struct{}{}
		}
	}
}

// NewBuilder creates a builder reading from src.
func NewBuilder(src Source, opts ...Option) *Builder {
	b := &Builder{source: src, logger: logger.Default()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type admission struct {
	row  model.AdmissionRow
	id   int
	date time.Time
	err  error
}

// Build assembles the cohort for (inst, admitTerm). It returns an error
// wrapping ErrNoSession when the term has no regular session.
func (b *Builder) Build(ctx context.Context, inst string, admitTerm term.Code) (*Cohort, error) {
	inst = institution.Normalize(inst)
	key := Key{Institution: inst, AdmitTerm: admitTerm}
	log := b.logger.With(logger.String("cohort", key.String()))

	session, ok, err := b.source.Session(ctx, inst, admitTerm)
	if err != nil {
		return nil, fmt.Errorf("session for %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSession, key)
	}

	c := newCohort(key, session)
	window := admitTerm.Window()

	if err := b.foldAdmissions(ctx, log, c, window); err != nil {
		return nil, err
	}
	if err := b.foldEvaluations(ctx, log, c, window); err != nil {
		return nil, err
	}
	if err := b.foldRegistrations(ctx, log, c, window); err != nil {
		return nil, err
	}
	if err := c.Verify(); err != nil {
		return nil, err
	}

	log.Debug(ctx, "cohort built", logger.Int("students", c.Len()))
	return c, nil
}

func (b *Builder) foldAdmissions(ctx context.Context, log logger.Logger, c *Cohort, window []term.Code) error {
	rows, err := b.source.Admissions(ctx, c.Key.Institution, window)
	if err != nil {
		return fmt.Errorf("admissions for %s: %w", c.Key, err)
	}

	parsed := make([]admission, 0, len(rows))
	for _, row := range rows {
		if !c.Key.AdmitTerm.Contains(row.AdmitTerm) || !foldedActions[normalizeAction(row.ProgramAction)] {
			continue
		}
		id, ok := b.studentID(ctx, log, c, "admissions", row.StudentID)
		if !ok {
			continue
		}
		c.enroll(id)
		d, err := model.ParseDate(row.EffectiveDate)
		parsed = append(parsed, admission{row: row, id: id, date: d, err: err})
	}
	sort.SliceStable(parsed, func(i, j int) bool { return parsed[i].date.Before(parsed[j].date) })

	for _, a := range parsed {
		r := c.record(a.id)
		if a.err != nil {
			c.Issues.BadDates++
			log.Warn(ctx, "admission date not folded",
				logger.Int("student_id", a.id),
				logger.String("action", a.row.ProgramAction),
				logger.Error(a.err))
			continue
		}
		foldAction(r, a.row, a.date)
	}
	return nil
}

func foldAction(r *model.Record, row model.AdmissionRow, d time.Time) {
	action := normalizeAction(row.ProgramAction)
	reason := strings.ToUpper(strings.TrimSpace(row.ActionReason))
	switch action {
	case actionApply:
		r.Set(event.Apply, d)
	case actionAdmit:
		r.Set(event.Admit, d)
	case actionMatriculate:
		r.Set(event.Matriculate, d)
	case actionDeposit:
		r.Annotate(model.NewAnnotation(d, action, reason))
		r.Set(event.Commit, d)
		if matriculatingReasons[reason] {
			r.Set(event.Matriculate, d)
		}
	case actionWithdraw:
		r.Annotate(model.NewAnnotation(d, action, reason))
	}
}

func (b *Builder) foldEvaluations(ctx context.Context, log logger.Logger, c *Cohort, window []term.Code) error {
	rows, err := b.source.Evaluations(ctx, c.Key.Institution, window)
	if err != nil {
		return fmt.Errorf("evaluations for %s: %w", c.Key, err)
	}
	for _, row := range rows {
		if institution.Normalize(row.DstInstitution) != c.Key.Institution || !c.Key.AdmitTerm.Contains(row.ArticulationTerm) {
			continue
		}
		r, ok := b.member(ctx, log, c, "evaluations", row.StudentID)
		if !ok {
			continue
		}
		d, err := model.ParseDate(row.PostedDate)
		if err != nil {
			c.Issues.BadDates++
			log.Warn(ctx, "evaluation date not folded", logger.Int("student_id", r.StudentID), logger.Error(err))
			continue
		}
		if !model.Known(d) {
			continue
		}
		r.SetEarliest(event.FirstEvaluation, d)
		r.SetLatest(event.LatestEvaluation, d)
	}
	return nil
}

func (b *Builder) foldRegistrations(ctx context.Context, log logger.Logger, c *Cohort, window []term.Code) error {
	rows, err := b.source.Registrations(ctx, c.Key.Institution, window)
	if err != nil {
		return fmt.Errorf("registrations for %s: %w", c.Key, err)
	}
	for _, row := range rows {
		if institution.Normalize(row.Institution) != c.Key.Institution || !c.Key.AdmitTerm.Contains(row.Term) {
			continue
		}
		r, ok := b.member(ctx, log, c, "registrations", row.StudentID)
		if !ok {
			continue
		}
		d, err := model.ParseDate(row.AddDate)
		if err != nil {
			c.Issues.BadDates++
			log.Warn(ctx, "registration date not folded", logger.Int("student_id", r.StudentID), logger.Error(err))
			continue
		}
		if !model.Known(d) {
			continue
		}
		r.SetEarliest(event.FirstRegistration, d)
		r.SetLatest(event.LatestRegistration, d)
	}
	return nil
}

// studentID parses an admissions id and applies the allow-list.
func (b *Builder) studentID(ctx context.Context, log logger.Logger, c *Cohort, source, raw string) (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		c.Issues.BadStudentIDs++
		log.Warn(ctx, "skipping row with bad student id",
			logger.String("source", source),
			logger.String("student_id", raw))
		return 0, false
	}
	if b.allow != nil {
		if _, ok := b.allow[id]; !ok {
			return 0, false
		}
	}
	return id, true
}

// member resolves a non-admission row to an existing record. Rows for
// students outside the cohort are ignored.
func (b *Builder) member(ctx context.Context, log logger.Logger, c *Cohort, source, raw string) (*model.Record, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		c.Issues.BadStudentIDs++
		log.Warn(ctx, "skipping row with bad student id",
			logger.String("source", source),
			logger.String("student_id", raw))
		return nil, false
	}
	r, ok := c.Record(id)
	return r, ok
}

func normalizeAction(a string) string { return strings.ToUpper(strings.TrimSpace(a)) }
