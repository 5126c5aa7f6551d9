package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okian/timelines/internal/domain/cohort"
	"github.com/okian/timelines/internal/domain/institution"
	"github.com/okian/timelines/internal/domain/model"
	"github.com/okian/timelines/internal/domain/rollup"
	"github.com/okian/timelines/internal/domain/stats"
	"github.com/okian/timelines/internal/domain/term"
	"github.com/okian/timelines/pkg/logger"
	"github.com/okian/timelines/pkg/metrics"

	_ "modernc.org/sqlite"
)

const defaultBusyTimeout = 5 * time.Second

// SQLStore is the SQLite-backed Store.
type SQLStore struct {
	db          *sql.DB
	path        string
	logger      logger.Logger
	busyTimeout time.Duration
}

// Open opens or creates the database at path and ensures the schema.
func Open(ctx context.Context, path string, opts ...Option) (*SQLStore, error) {
	s := &SQLStore{path: path, logger: logger.Default(), busyTimeout: defaultBusyTimeout}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("repository")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", s.busyTimeout.Milliseconds()),
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	s.db = db
	return s, nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Path returns the database file path.
func (s *SQLStore) Path() string { return s.path }

func (s *SQLStore) conn() (*sql.DB, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	return s.db, nil
}

func observe(table string, start time.Time) {
	metrics.RecordRepositoryLatency(table, float64(time.Since(start).Microseconds())/1000)
}

// placeholders returns "?, ?, ?" with args for the window.
func placeholders(window []term.Code) (string, []any) {
	marks := make([]string, len(window))
	args := make([]any, len(window))
	for i, t := range window {
		marks[i] = "?"
		args[i] = int(t)
	}
	return strings.Join(marks, ", "), args
}

// Session implements cohort.Source.
func (s *SQLStore) Session(ctx context.Context, inst string, t term.Code) (model.Session, bool, error) {
	db, err := s.conn()
	if err != nil {
		return model.Session{}, false, err
	}
	defer observe("sessions", time.Now())

	row := db.QueryRowContext(ctx, `
		SELECT institution, term, session, early_enrollment, open_enrollment, last_waitlist,
		       end_enrollment, session_start, census_date, sixty_percent, session_end
		  FROM sessions
		 WHERE substr(institution, 1, 3) = ? AND term = ? AND session = ?`,
		institution.Normalize(inst), int(t), model.RegularSession)

	var (
		sess  model.Session
		code  int
		dates [8]string
	)
	err = row.Scan(&sess.Institution, &code, &sess.Number,
		&dates[0], &dates[1], &dates[2], &dates[3], &dates[4], &dates[5], &dates[6], &dates[7])
	if errors.Is(err, sql.ErrNoRows) {
		return model.Session{}, false, nil
	}
	if err != nil {
		return model.Session{}, false, fmt.Errorf("query session: %w", err)
	}
	sess.Institution = institution.Normalize(sess.Institution)
	sess.Term = term.Code(code)
	targets := []*time.Time{
		&sess.EarlyEnrollment, &sess.OpenEnrollment, &sess.LastWaitlist, &sess.EndEnrollment,
		&sess.SessionStart, &sess.CensusDate, &sess.SixtyPercent, &sess.SessionEnd,
	}
	for i, raw := range dates {
		d, err := model.ParseDate(raw)
		if err != nil {
			s.logger.Warn(ctx, "session date unreadable",
				logger.String("institution", sess.Institution),
				logger.Int("term", code),
				logger.Error(err))
			d = model.MissingDate
		}
		*targets[i] = d
	}
	return sess, true, nil
}

// Admissions implements cohort.Source.
func (s *SQLStore) Admissions(ctx context.Context, inst string, window []term.Code) ([]model.AdmissionRow, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	defer observe("admissions", time.Now())

	marks, args := placeholders(window)
	actions := cohort.FoldedActions()
	actionMarks := strings.TrimSuffix(strings.Repeat("?, ", len(actions)), ", ")
	args = append([]any{institution.Normalize(inst)}, args...)
	for _, a := range actions {
		args = append(args, a)
	}
	rows, err := db.QueryContext(ctx, `
		SELECT student_id, institution, admit_term, requirement_term, program_action,
		       action_reason, action_date, effective_date
		  FROM admissions
		 WHERE substr(institution, 1, 3) = ? AND admit_term IN (`+marks+`)
		   AND upper(trim(program_action)) IN (`+actionMarks+`)
		 ORDER BY effective_date, rowid`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("query admissions: %w", err)
	}
	defer rows.Close()

	var out []model.AdmissionRow
	for rows.Next() {
		var r model.AdmissionRow
		var admit, req int
		if err := rows.Scan(&r.StudentID, &r.Institution, &admit, &req, &r.ProgramAction,
			&r.ActionReason, &r.ActionDate, &r.EffectiveDate); err != nil {
			return nil, fmt.Errorf("scan admission: %w", err)
		}
		r.AdmitTerm, r.RequirementTerm = term.Code(admit), term.Code(req)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Evaluations implements cohort.Source.
func (s *SQLStore) Evaluations(ctx context.Context, inst string, window []term.Code) ([]model.EvaluationRow, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	defer observe("transfers_applied", time.Now())

	marks, args := placeholders(window)
	rows, err := db.QueryContext(ctx, `
		SELECT student_id, dst_institution, articulation_term, posted_date
		  FROM transfers_applied
		 WHERE substr(dst_institution, 1, 3) = ? AND articulation_term IN (`+marks+`)`,
		append([]any{institution.Normalize(inst)}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}
	defer rows.Close()

	var out []model.EvaluationRow
	for rows.Next() {
		var r model.EvaluationRow
		var t int
		if err := rows.Scan(&r.StudentID, &r.DstInstitution, &t, &r.PostedDate); err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		r.ArticulationTerm = term.Code(t)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Registrations implements cohort.Source.
func (s *SQLStore) Registrations(ctx context.Context, inst string, window []term.Code) ([]model.RegistrationRow, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	defer observe("registrations", time.Now())

	marks, args := placeholders(window)
	rows, err := db.QueryContext(ctx, `
		SELECT student_id, institution, term, add_date, drop_date
		  FROM registrations
		 WHERE substr(institution, 1, 3) = ? AND term IN (`+marks+`)`,
		append([]any{institution.Normalize(inst)}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("query registrations: %w", err)
	}
	defer rows.Close()

	var out []model.RegistrationRow
	for rows.Next() {
		var r model.RegistrationRow
		var t int
		if err := rows.Scan(&r.StudentID, &r.Institution, &t, &r.AddDate, &r.DropDate); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		r.Term = term.Code(t)
		out = append(out, r)
	}
	return out, rows.Err()
}

// AdmitTerms implements Store.
func (s *SQLStore) AdmitTerms(ctx context.Context) ([]term.Code, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	defer observe("sessions", time.Now())

	rows, err := db.QueryContext(ctx,
		`SELECT DISTINCT term FROM sessions WHERE session = ? ORDER BY term`, model.RegularSession)
	if err != nil {
		return nil, fmt.Errorf("query terms: %w", err)
	}
	defer rows.Close()

	var out []term.Code
	for rows.Next() {
		var t int
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan term: %w", err)
		}
		if c := term.Code(t); c.Admittable() {
			out = append(out, c)
		}
	}
	return out, rows.Err()
}

// replace empties table and inserts every row inside one transaction.
func (s *SQLStore) replace(ctx context.Context, table, insert string, n int, args func(i int) []any) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	defer observe(table, time.Now())

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("prepare %s insert: %w", table, err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			return fmt.Errorf("insert into %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", table, err)
	}
	s.logger.Debug(ctx, "table replaced", logger.String("table", table), logger.Int("rows", n))
	return nil
}

// ReplaceSessions swaps in a new sessions extract.
func (s *SQLStore) ReplaceSessions(ctx context.Context, sessions []model.Session) error {
	return s.replace(ctx, "sessions", `
		INSERT OR REPLACE INTO sessions (institution, term, session, early_enrollment, open_enrollment,
		       last_waitlist, end_enrollment, session_start, census_date, sixty_percent, session_end)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, len(sessions), func(i int) []any {
		x := sessions[i]
		return []any{x.Institution, int(x.Term), x.Number,
			isoDate(x.EarlyEnrollment), isoDate(x.OpenEnrollment), isoDate(x.LastWaitlist),
			isoDate(x.EndEnrollment), isoDate(x.SessionStart), isoDate(x.CensusDate),
			isoDate(x.SixtyPercent), isoDate(x.SessionEnd)}
	})
}

// ReplaceAdmissions swaps in a new admissions extract.
func (s *SQLStore) ReplaceAdmissions(ctx context.Context, rows []model.AdmissionRow) error {
	return s.replace(ctx, "admissions", `
		INSERT INTO admissions (student_id, institution, admit_term, requirement_term, program_action,
		       action_reason, action_date, effective_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, len(rows), func(i int) []any {
		x := rows[i]
		return []any{x.StudentID, x.Institution, int(x.AdmitTerm), int(x.RequirementTerm),
			x.ProgramAction, x.ActionReason, x.ActionDate, x.EffectiveDate}
	})
}

// ReplaceEvaluations swaps in a new transfers-applied extract.
func (s *SQLStore) ReplaceEvaluations(ctx context.Context, rows []model.EvaluationRow) error {
	return s.replace(ctx, "transfers_applied", `
		INSERT INTO transfers_applied (student_id, dst_institution, articulation_term, posted_date)
		VALUES (?, ?, ?, ?)`, len(rows), func(i int) []any {
		x := rows[i]
		return []any{x.StudentID, x.DstInstitution, int(x.ArticulationTerm), x.PostedDate}
	})
}

// ReplaceRegistrations swaps in a new registrations extract.
func (s *SQLStore) ReplaceRegistrations(ctx context.Context, rows []model.RegistrationRow) error {
	return s.replace(ctx, "registrations", `
		INSERT INTO registrations (student_id, institution, term, add_date, drop_date)
		VALUES (?, ?, ?, ?, ?)`, len(rows), func(i int) []any {
		x := rows[i]
		return []any{x.StudentID, x.Institution, int(x.Term), x.AddDate, x.DropDate}
	})
}

// WriteTable replaces the statistics table with the roll-up's cells.
func (s *SQLStore) WriteTable(ctx context.Context, tbl *rollup.Table) error {
	rows := tbl.Rows()
	return s.replace(ctx, "statistics", `
		INSERT INTO statistics (institution, admit_term, earlier, later, n, median, siqr, mean,
		       std_dev, conf_95, mode, min, max, q1, q2, q3)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, len(rows), func(i int) []any {
		r := rows[i]
		args := []any{r.Column, int(r.Term), string(r.Pair.Earlier), string(r.Pair.Later), r.Summary.N}
		for _, f := range []stats.Field{
			stats.FieldMedian, stats.FieldSIQR, stats.FieldMean, stats.FieldStdDev, stats.FieldConfInt,
			stats.FieldMode, stats.FieldMin, stats.FieldMax, stats.FieldQ1, stats.FieldQ2, stats.FieldQ3,
		} {
			v, ok := r.Summary.Value(f)
			args = append(args, sql.NullFloat64{Float64: v, Valid: ok})
		}
		return args
	})
}

// Statistics reads back the statistics table in key order.
func (s *SQLStore) Statistics(ctx context.Context) ([]StatisticRow, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	defer observe("statistics", time.Now())

	rows, err := db.QueryContext(ctx, `
		SELECT institution, admit_term, earlier, later, n, median, siqr, mean, std_dev, conf_95,
		       mode, min, max, q1, q2, q3
		  FROM statistics
		 ORDER BY institution, admit_term, earlier, later`)
	if err != nil {
		return nil, fmt.Errorf("query statistics: %w", err)
	}
	defer rows.Close()

	var out []StatisticRow
	for rows.Next() {
		var r StatisticRow
		var t int
		var vals [11]sql.NullFloat64
		dest := []any{&r.Institution, &t, &r.Earlier, &r.Later, &r.N}
		for i := range vals {
			dest = append(dest, &vals[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan statistics: %w", err)
		}
		r.AdmitTerm = term.Code(t)
		fields := []**float64{&r.Median, &r.SIQR, &r.Mean, &r.StdDev, &r.Conf95,
			&r.Mode, &r.Min, &r.Max, &r.Q1, &r.Q2, &r.Q3}
		for i, v := range vals {
			if v.Valid {
				f := v.Float64
				*fields[i] = &f
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// WriteStatisticsDates records the extracts' date and the run date.
func (s *SQLStore) WriteStatisticsDates(ctx context.Context, filesDate, runDate time.Time) error {
	return s.replace(ctx, "statistics_dates",
		`INSERT INTO statistics_dates (files_date, run_date) VALUES (?, ?)`, 1, func(int) []any {
			return []any{isoDate(filesDate), isoDate(runDate)}
		})
}

// StatisticsDates returns the recorded dates.
func (s *SQLStore) StatisticsDates(ctx context.Context) (filesDate, runDate time.Time, err error) {
	db, err := s.conn()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	var f, r string
	err = db.QueryRowContext(ctx, `SELECT files_date, run_date FROM statistics_dates LIMIT 1`).Scan(&f, &r)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("query statistics dates: %w", err)
	}
	if filesDate, err = model.ParseDate(f); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if runDate, err = model.ParseDate(r); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return filesDate, runDate, nil
}

// RecordRun appends to the run log.
func (s *SQLStore) RecordRun(ctx context.Context, run Run) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	defer observe("runs", time.Now())

	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, cohorts, skipped, error)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Started.UTC().Format(time.RFC3339), run.Finished.UTC().Format(time.RFC3339),
		run.Cohorts, run.Skipped, run.Error)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}
	return nil
}

// Runs lists recorded runs, oldest first.
func (s *SQLStore) Runs(ctx context.Context) ([]Run, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, cohorts, skipped, error FROM runs ORDER BY started_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &started, &finished, &r.Cohorts, &r.Skipped, &r.Error); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Started, _ = time.Parse(time.RFC3339, started)
		r.Finished, _ = time.Parse(time.RFC3339, finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

func isoDate(t time.Time) string {
	if t.IsZero() {
		t = model.MissingDate
	}
	return t.Format(time.DateOnly)
}
