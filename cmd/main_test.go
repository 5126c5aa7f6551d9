package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"

	"github.com/okian/timelines/internal/adapters/repository"
	"github.com/okian/timelines/internal/config"
	"github.com/okian/timelines/internal/domain/event"
	"github.com/okian/timelines/internal/domain/model"
	"github.com/okian/timelines/internal/domain/term"
)

func execute(ctx context.Context, args ...string) (string, error) {
	var out bytes.Buffer
	root := newRootCommand()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&out)
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

// seedDatabase writes one Queens cohort of eight students into a fresh
// database.
func seedDatabase(t *testing.T, path string) {
	t.Helper()
	ctx := context.Background()
	store, err := repository.Open(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	start := time.Date(2020, 8, 26, 0, 0, 0, 0, time.UTC)
	if err := store.ReplaceSessions(ctx, []model.Session{
		{Institution: "QNS01", Term: 1209, Number: model.RegularSession, SessionStart: start},
	}); err != nil {
		t.Fatalf("sessions: %v", err)
	}
	var rows []model.AdmissionRow
	admit := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, d := range []int{10, 12, 12, 15, 20, 22, 30, 100} {
		id := 1000 + i
		rows = append(rows,
			model.AdmissionRow{StudentID: strconv.Itoa(id), Institution: "QNS01", AdmitTerm: 1209, ProgramAction: "ADMT", EffectiveDate: admit.Format(time.DateOnly)},
			model.AdmissionRow{StudentID: strconv.Itoa(id), Institution: "QNS01", AdmitTerm: 1209, ProgramAction: "MATR", EffectiveDate: admit.AddDate(0, 0, d).Format(time.DateOnly)},
		)
	}
	if err := store.ReplaceAdmissions(ctx, rows); err != nil {
		t.Fatalf("admissions: %v", err)
	}
}

func TestCommands(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given the timelines command", t, func() {
		dir := t.TempDir()
		db := filepath.Join(dir, "timelines.db")
		out := filepath.Join(dir, "out")

		convey.Convey("When listing events", func() {
			text, err := execute(ctx, "events")

			convey.Convey("Then every measurable event is shown", func() {
				convey.So(err, convey.ShouldBeNil)
				for _, typ := range event.Measurable() {
					convey.So(text, convey.ShouldContainSubstring, string(typ))
				}
			})
		})

		convey.Convey("When an event pair is malformed", func() {
			seedDatabase(t, db)
			_, err := execute(ctx, "stats", "--database", db, "-o", out, "-e", "admit:graduate")

			convey.Convey("Then the run fails before any output is written", func() {
				convey.So(errors.Is(err, event.ErrUnknownEventType), convey.ShouldBeTrue)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				_, statErr := os.Stat(filepath.Join(out, "timelines"))
				convey.So(os.IsNotExist(statErr), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the log level is unknown", func() {
			_, err := execute(ctx, "events", "--log-level", "loud")
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When statistics are generated", func() {
			seedDatabase(t, db)
			metricsFile := filepath.Join(dir, "timelines.prom")
			text, err := execute(ctx, "stats", "--database", db, "-o", out,
				"-i", "QNS", "-e", "admit:matric", "--metrics-file", metricsFile)

			convey.Convey("Then every output is written", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(text, convey.ShouldContainSubstring, "QNS-1209: 8 students")
				for _, p := range []string{
					filepath.Join(out, "timelines", "QNS-1209.csv"),
					filepath.Join(out, "reports", "QNS-Fall 2020-admit to matric.md"),
					filepath.Join(out, "cohort_report.txt"),
					filepath.Join(out, "xlsx_archive", time.Now().Format("2006-01-02")+".xlsx"),
					metricsFile,
				} {
					_, statErr := os.Stat(p)
					convey.So(statErr, convey.ShouldBeNil)
				}
			})

			convey.Convey("Then the statistics and run are stored", func() {
				store, err := repository.Open(ctx, db)
				convey.So(err, convey.ShouldBeNil)
				defer store.Close()

				rows, err := store.Statistics(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(rows), convey.ShouldEqual, 2)
				convey.So(rows[0].N, convey.ShouldEqual, 8)

				runs, err := store.Runs(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(runs), convey.ShouldEqual, 1)
				convey.So(runs[0].Error, convey.ShouldBeEmpty)

				_, runDate, err := store.StatisticsDates(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(runDate.Format("2006-01-02"), convey.ShouldEqual, time.Now().Format("2006-01-02"))
			})
		})

		convey.Convey("When describing given terms", func() {
			text, err := execute(ctx, "terms", "1202", "1219")

			convey.Convey("Then each is shown with its window", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(text, convey.ShouldContainSubstring, "Spring 2020")
				convey.So(text, convey.ShouldContainSubstring, "Fall 2021")
				convey.So(text, convey.ShouldContainSubstring, "1216, 1219")
			})
		})

		convey.Convey("When a given term is malformed", func() {
			_, err := execute(ctx, "terms", "1209", "1205")
			convey.So(errors.Is(err, term.ErrInvalidTerm), convey.ShouldBeTrue)
		})

		convey.Convey("When listing admit terms", func() {
			seedDatabase(t, db)
			text, err := execute(ctx, "terms", "--database", db)

			convey.Convey("Then the seeded term is shown", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(text, convey.ShouldContainSubstring, "Fall 2020")
			})
		})
	})
}

func TestReadCohortFile(t *testing.T) {
	convey.Convey("Given an explicit cohort file", t, func() {
		fs := afero.NewMemMapFs()

		convey.Convey("When it has an empl_id column", func() {
			_ = afero.WriteFile(fs, "/cohort.csv", []byte("\ufeffName,EMPL_ID\nAda,1001\nBob,\nCy, 1003 \n"), 0o644)
			ids, err := readCohortFile(fs, "/cohort.csv")

			convey.Convey("Then the ids are read and blanks ignored", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(ids, convey.ShouldResemble, []int{1001, 1003})
			})
		})

		convey.Convey("When the column is missing", func() {
			_ = afero.WriteFile(fs, "/cohort.csv", []byte("id\n1001\n"), 0o644)
			_, err := readCohortFile(fs, "/cohort.csv")
			convey.So(errors.Is(err, errNoCohortColumn), convey.ShouldBeTrue)
		})

		convey.Convey("When an id is not a number", func() {
			_ = afero.WriteFile(fs, "/cohort.csv", []byte("empl_id\nabc\n"), 0o644)
			_, err := readCohortFile(fs, "/cohort.csv")
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "line 2")
		})

		convey.Convey("When the file does not exist", func() {
			_, err := readCohortFile(fs, "/missing.csv")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}
