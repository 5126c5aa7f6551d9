// Package extract loads the periodic CSV extracts into the repository and
// maintains the extract archive.
package extract

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/okian/timelines/internal/domain/model"
	"github.com/okian/timelines/internal/domain/term"
	"github.com/okian/timelines/pkg/logger"
	"github.com/okian/timelines/pkg/metrics"
)

// Sink receives parsed extracts. Each call replaces the previous contents.
type Sink interface {
	ReplaceSessions(ctx context.Context, rows []model.Session) error
	ReplaceAdmissions(ctx context.Context, rows []model.AdmissionRow) error
	ReplaceEvaluations(ctx context.Context, rows []model.EvaluationRow) error
	ReplaceRegistrations(ctx context.Context, rows []model.RegistrationRow) error
}

// transferAdmitTypes are the admission types kept from the admissions
// extract.
var transferAdmitTypes = map[string]bool{"TRD": true, "TRN": true}

// Result describes one loaded extract.
type Result struct {
	Schema  string
	File    File
	Read    int
	Kept    int
	Skipped int
}

// Summary describes a whole load.
type Summary struct {
	Results []Result
	// FilesDate is the modification day of the newest extract.
	FilesDate time.Time
}

// Loader reads the newest extract of each schema from a directory.
type Loader struct {
	fs     afero.Fs
	dir    string
	sink   Sink
	logger logger.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the loader's logger.
func WithLogger(l logger.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// WithFs replaces the OS filesystem.
func WithFs(fs afero.Fs) Option {
	return func(ld *Loader) {
		if fs != nil {
			ld.fs = fs
		}
	}
}

// NewLoader creates a loader for dir writing into sink.
func NewLoader(dir string, sink Sink, opts ...Option) *Loader {
	ld := &Loader{fs: afero.NewOsFs(), dir: dir, sink: sink, logger: logger.Default()}
	for _, opt := range opts {
		opt(ld)
	}
	ld.logger = ld.logger.Named("extract")
	return ld
}

type parsed struct {
	sessions      []model.Session
	admissions    []model.AdmissionRow
	evaluations   []model.EvaluationRow
	registrations []model.RegistrationRow
}

// Load parses the four extracts concurrently, then replaces the sink's
// tables one at a time.
func (ld *Loader) Load(ctx context.Context) (Summary, error) {
	files := make([]File, len(Schemas))
	for i, s := range Schemas {
		f, err := Latest(ld.fs, ld.dir, s.Prefix)
		if err != nil {
			return Summary{}, err
		}
		files[i] = f
	}

	var out parsed
	results := make([]Result, len(Schemas))
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out.sessions, results[0], err = ld.readSessions(gctx, files[0])
		return err
	})
	g.Go(func() error {
		var err error
		out.admissions, results[1], err = ld.readAdmissions(gctx, files[1])
		return err
	})
	g.Go(func() error {
		var err error
		out.evaluations, results[2], err = ld.readEvaluations(gctx, files[2])
		return err
	})
	g.Go(func() error {
		var err error
		out.registrations, results[3], err = ld.readRegistrations(gctx, files[3])
		return err
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	steps := []func() error{
		func() error { return ld.sink.ReplaceSessions(ctx, out.sessions) },
		func() error { return ld.sink.ReplaceAdmissions(ctx, out.admissions) },
		func() error { return ld.sink.ReplaceEvaluations(ctx, out.evaluations) },
		func() error { return ld.sink.ReplaceRegistrations(ctx, out.registrations) },
	}
	var newest time.Time
	for i, step := range steps {
		if err := step(); err != nil {
			return Summary{}, fmt.Errorf("store %s: %w", Schemas[i].Name, err)
		}
		r := results[i]
		metrics.RecordExtractRows(r.Schema, r.Kept)
		ld.logger.Info(ctx, "extract loaded",
			logger.String("schema", r.Schema),
			logger.String("file", r.File.Path),
			logger.String("size", humanize.Bytes(uint64(r.File.Size))),
			logger.String("rows", humanize.Comma(int64(r.Kept))),
			logger.Int("skipped", r.Skipped))
		if r.File.Modified.After(newest) {
			newest = r.File.Modified
		}
	}

	filesDate := day(newest)
	for _, r := range results {
		if !day(r.File.Modified).Equal(filesDate) {
			ld.logger.Warn(ctx, "extract is older than the newest extract",
				logger.String("file", r.File.Path),
				logger.Date("modified", r.File.Modified),
				logger.Date("newest", filesDate))
		}
	}
	return Summary{Results: results, FilesDate: model.Day(newest)}, nil
}

func skip(res *Result, reason string) {
	res.Skipped++
	metrics.RecordRowSkipped(res.Schema, reason)
}

func (ld *Loader) readSessions(ctx context.Context, f File) ([]model.Session, Result, error) {
	res := Result{Schema: SessionsSchema.Name, File: f}
	var rows []model.Session
	n, err := readCSV(ld.fs, f.Path, SessionsSchema, func(rec record) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !strings.HasPrefix(rec["career"], "U") {
			skip(&res, "career")
			return nil
		}
		t, err := strconv.Atoi(rec["term"])
		if err != nil {
			skip(&res, "bad_term")
			return nil
		}
		rows = append(rows, model.Session{
			Institution:     rec["institution"],
			Term:            term.Code(t),
			Number:          rec["session"],
			EarlyEnrollment: ld.date(ctx, rec, "first_date_to_enroll"),
			OpenEnrollment:  ld.date(ctx, rec, "open_enrollment_date"),
			LastWaitlist:    ld.date(ctx, rec, "last_date_to_waitlist"),
			EndEnrollment:   ld.date(ctx, rec, "last_date_to_enroll"),
			SessionStart:    ld.date(ctx, rec, "session_beginning_date"),
			CensusDate:      ld.date(ctx, rec, "census_date"),
			SixtyPercent:    ld.date(ctx, rec, "sixty_percent_date"),
			SessionEnd:      ld.date(ctx, rec, "session_end_date"),
		})
		return nil
	})
	res.Read, res.Kept = n, len(rows)
	return rows, res, err
}

// date reads an optional session date; blank or unreadable values become
// the missing-date sentinel.
func (ld *Loader) date(ctx context.Context, rec record, col string) time.Time {
	d, err := model.ParseDate(rec[col])
	if err != nil {
		ld.logger.Warn(ctx, "session date unreadable", logger.String("column", col), logger.Error(err))
		return model.MissingDate
	}
	return d
}

func (ld *Loader) readAdmissions(ctx context.Context, f File) ([]model.AdmissionRow, Result, error) {
	res := Result{Schema: AdmissionsSchema.Name, File: f}
	var rows []model.AdmissionRow
	n, err := readCSV(ld.fs, f.Path, AdmissionsSchema, func(rec record) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !transferAdmitTypes[strings.ToUpper(rec["admit_type"])] {
			skip(&res, "admit_type")
			return nil
		}
		admit, err := strconv.Atoi(rec["admit_term"])
		if err != nil {
			skip(&res, "bad_term")
			return nil
		}
		// Requirement term is informational and often blank.
		req, _ := strconv.Atoi(rec["requirement_term"])
		rows = append(rows, model.AdmissionRow{
			StudentID:       rec["id"],
			Institution:     rec["institution"],
			AdmitTerm:       term.Code(admit),
			RequirementTerm: term.Code(req),
			ProgramAction:   rec["program_action"],
			ActionReason:    rec["action_reason"],
			ActionDate:      rec["action_date"],
			EffectiveDate:   rec["eff_date"],
		})
		return nil
	})
	res.Read, res.Kept = n, len(rows)
	return rows, res, err
}

func (ld *Loader) readEvaluations(ctx context.Context, f File) ([]model.EvaluationRow, Result, error) {
	res := Result{Schema: EvaluationsSchema.Name, File: f}
	var rows []model.EvaluationRow
	n, err := readCSV(ld.fs, f.Path, EvaluationsSchema, func(rec record) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		t, err := strconv.Atoi(rec["articulation_term"])
		if err != nil {
			skip(&res, "bad_term")
			return nil
		}
		rows = append(rows, model.EvaluationRow{
			StudentID:        rec["student_id"],
			DstInstitution:   rec["dst_institution"],
			ArticulationTerm: term.Code(t),
			PostedDate:       rec["posted_date"],
		})
		return nil
	})
	res.Read, res.Kept = n, len(rows)
	return rows, res, err
}

func (ld *Loader) readRegistrations(ctx context.Context, f File) ([]model.RegistrationRow, Result, error) {
	res := Result{Schema: RegistrationsSchema.Name, File: f}
	var rows []model.RegistrationRow
	n, err := readCSV(ld.fs, f.Path, RegistrationsSchema, func(rec record) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !strings.HasPrefix(rec["career"], "U") {
			skip(&res, "career")
			return nil
		}
		t, err := strconv.Atoi(rec["term"])
		if err != nil {
			skip(&res, "bad_term")
			return nil
		}
		rows = append(rows, model.RegistrationRow{
			StudentID:   rec["id"],
			Institution: rec["institution"],
			Term:        term.Code(t),
			AddDate:     rec["enrollment_add_date"],
			DropDate:    rec["enrollment_drop_date"],
		})
		return nil
	})
	res.Read, res.Kept = n, len(rows)
	return rows, res, err
}
