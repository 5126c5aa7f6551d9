package render_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"

	"github.com/okian/timelines/internal/adapters/render"
	"github.com/okian/timelines/internal/adapters/repository"
	"github.com/okian/timelines/internal/domain/cohort"
	"github.com/okian/timelines/internal/domain/event"
	"github.com/okian/timelines/internal/domain/model"
	"github.com/okian/timelines/internal/domain/rollup"
	"github.com/okian/timelines/internal/domain/stats"
	"github.com/okian/timelines/internal/domain/term"
	. "github.com/smartystreets/goconvey/convey"
)

var (
	admitMatric = event.Pair{Earlier: event.Admit, Later: event.Matriculate}
	queensFall  = cohort.Key{Institution: "QNS", AdmitTerm: 1209}
	runDay      = time.Date(2021, 3, 4, 10, 0, 0, 0, time.UTC)
)

func newFiles(fs afero.Fs) *render.Files {
	f, err := render.NewFiles("/out",
		render.WithFs(fs),
		render.WithClock(func() time.Time { return runDay }))
	So(err, ShouldBeNil)
	return f
}

func sampleTable() *rollup.Table {
	tbl := rollup.New([]string{"QNS", "BAR"}, "BQ", []term.Code{1212, 1209}, []event.Pair{admitMatric})
	tbl.Put("QNS", 1209, admitMatric, stats.Describe([]int{10, 12, 12, 15, 20, 22, 30, 100}))
	tbl.Put("BAR", 1209, admitMatric, stats.Describe([]int{5, 6, 7, 8}))
	tbl.Put("BQ", 1209, admitMatric, stats.Describe([]int{10, 12, 12, 15, 20, 22, 30, 100, 5, 6, 7, 8}))
	tbl.SetSize("QNS", 1209, 1234)
	tbl.SetSize("BAR", 1209, 4)
	tbl.SetSize("BQ", 1209, 1238)
	tbl.Skip("QNS", 1212, "no session calendar")
	return tbl
}

func TestReport(t *testing.T) {
	Convey("Given a summary with enough deltas", t, func() {
		var buf bytes.Buffer
		s := stats.Describe([]int{10, 12, 12, 15, 20, 22, 30, 100})
		So(render.Report(&buf, queensFall, admitMatric, s), ShouldBeNil)
		out := buf.String()

		Convey("Then the report has the title and every statistic", func() {
			So(out, ShouldStartWith, "# Queens: Fall 2020\n\n## Days from Admit to Matric\n\n")
			So(out, ShouldContainSubstring, "| Statistic | Value |")
			So(out, ShouldContainSubstring, "| N | 8 |")
			So(out, ShouldContainSubstring, "| Range | 10 : 100 |")
			So(out, ShouldContainSubstring, "| Mode | 12 |")
			So(out, ShouldContainSubstring, "95% Conf")
			So(out, ShouldNotContainSubstring, "Not enough data")
		})
	})

	Convey("Given a summary with too few deltas", t, func() {
		var buf bytes.Buffer
		So(render.Report(&buf, queensFall, admitMatric, stats.Describe([]int{1, 2})), ShouldBeNil)

		Convey("Then only N is reported", func() {
			So(buf.String(), ShouldContainSubstring, "| N | 2 |")
			So(buf.String(), ShouldNotContainSubstring, "Median")
			So(buf.String(), ShouldEndWith, "### Not enough data.\n")
		})
	})

	Convey("Report files are named by cohort and pair", t, func() {
		So(render.ReportPath(queensFall, admitMatric), ShouldEqual, "QNS-Fall 2020-admit to matric.md")
		So(render.TimelinePath(queensFall), ShouldEqual, "QNS-1209.csv")
	})
}

func TestWriteTimeline(t *testing.T) {
	Convey("Given a built cohort", t, func() {
		store := repository.NewMemStore()
		start := time.Date(2020, 8, 26, 0, 0, 0, 0, time.UTC)
		store.AddSessions(model.Session{Institution: "QNS01", Term: 1209, Number: model.RegularSession, SessionStart: start})
		store.AddAdmissions(
			model.AdmissionRow{StudentID: "42", Institution: "QNS01", AdmitTerm: 1209, ProgramAction: "ADMT", EffectiveDate: "2020-06-01"},
			model.AdmissionRow{StudentID: "42", Institution: "QNS01", AdmitTerm: 1209, ProgramAction: "DEIN", ActionReason: "ENDC", EffectiveDate: "2020-06-10"},
		)
		c, err := cohort.NewBuilder(store).Build(context.Background(), "QNS", 1209)
		So(err, ShouldBeNil)

		fs := afero.NewMemMapFs()
		files := newFiles(fs)

		Convey("When the timeline is written", func() {
			So(files.WriteTimeline(context.Background(), c), ShouldBeNil)

			Convey("Then it has a header and one row per student", func() {
				raw, err := afero.ReadFile(fs, "/out/timelines/QNS-1209.csv")
				So(err, ShouldBeNil)
				lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
				So(len(lines), ShouldEqual, 2)
				So(lines[0], ShouldStartWith, "Student ID,Apply,Admit,Commit,Matric,")
				So(lines[0], ShouldEndWith, ",Admin")
				So(lines[1], ShouldStartWith, "42,,2020-06-01,2020-06-10,2020-06-10,")
				So(lines[1], ShouldContainSubstring, "2020-08-26")
				So(lines[1], ShouldEndWith, "2020-06-10 DEIN:ENDC")
			})
		})
	})
}

func TestWriteTable(t *testing.T) {
	Convey("Given a populated table", t, func() {
		fs := afero.NewMemMapFs()
		files := newFiles(fs)
		tbl := sampleTable()

		Convey("When it is written", func() {
			So(files.WriteTable(context.Background(), tbl), ShouldBeNil)

			Convey("Then the workbook is dated and has one sheet per pair", func() {
				So(files.WorkbookPath(), ShouldEqual, "/out/xlsx_archive/2021-03-04.xlsx")
				raw, err := afero.ReadFile(fs, files.WorkbookPath())
				So(err, ShouldBeNil)
				wb, err := excelize.OpenReader(bytes.NewReader(raw))
				So(err, ShouldBeNil)
				defer wb.Close()

				So(wb.GetSheetList(), ShouldResemble, []string{"Admit to Matric"})
				cell := func(ref string) string {
					v, err := wb.GetCellValue("Admit to Matric", ref, excelize.Options{RawCellValue: true})
					So(err, ShouldBeNil)
					return v
				}
				So(cell("B1"), ShouldEqual, "QNS")
				So(cell("D1"), ShouldEqual, "BQ")
				So(cell("B2"), ShouldEqual, "Fall 2020")
				So(cell("A3"), ShouldEqual, "N")
				So(cell("B3"), ShouldEqual, "8")
				So(cell("C3"), ShouldEqual, "4")
				So(cell("D3"), ShouldEqual, "12")
				So(cell("A4"), ShouldEqual, "Median")
				So(cell("C4"), ShouldEqual, "")
				So(cell("A13"), ShouldEqual, "Std Dev")
				So(cell("A14"), ShouldEqual, "95% Conf")

				Convey("And the super-cohort heading stands apart", func() {
					qns, err := wb.GetCellStyle("Admit to Matric", "B1")
					So(err, ShouldBeNil)
					bq, err := wb.GetCellStyle("Admit to Matric", "D1")
					So(err, ShouldBeNil)
					So(bq, ShouldNotEqual, qns)
				})

				Convey("And terms without data are left out", func() {
					So(cell("B16"), ShouldEqual, "")
					rows, err := wb.GetRows("Admit to Matric")
					So(err, ShouldBeNil)
					So(len(rows), ShouldBeLessThanOrEqualTo, 15)
				})
			})

			Convey("Then the cohort report lists sizes and skips", func() {
				raw, err := afero.ReadFile(fs, "/out/cohort_report.txt")
				So(err, ShouldBeNil)
				out := string(raw)
				So(out, ShouldContainSubstring, "  1,234 students in QNS-1209 cohort\n")
				So(out, ShouldContainSubstring, "      4 students in BAR-1209 cohort\n")
				So(out, ShouldContainSubstring, "QNS-1212 cohort (no session calendar)")
			})
		})

		Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			So(files.WriteTable(ctx, tbl), ShouldNotBeNil)
		})
	})
}

func TestWorkbookErrors(t *testing.T) {
	Convey("Given more columns than a worksheet holds", t, func() {
		insts := make([]string, excelize.MaxColumns)
		for i := range insts {
			insts[i] = fmt.Sprintf("C%05d", i)
		}
		tbl := rollup.New(insts, "", []term.Code{1209}, []event.Pair{admitMatric})

		Convey("Then building the workbook fails with the sheet named", func() {
			_, err := render.Workbook(tbl, stats.DefaultFields)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "Admit to Matric")
		})

		Convey("Then writing the table reports a write failure", func() {
			fs := afero.NewMemMapFs()
			err := newFiles(fs).WriteTable(context.Background(), tbl)
			So(errors.Is(err, render.ErrWriteFailed), ShouldBeTrue)
			exists, _ := afero.Exists(fs, "/out/xlsx_archive/2021-03-04.xlsx")
			So(exists, ShouldBeFalse)
		})
	})
}

func TestSheetName(t *testing.T) {
	Convey("Sheet names fit the workbook limit", t, func() {
		So(render.SheetName(admitMatric), ShouldEqual, "Admit to Matric")
		long := render.SheetName(event.Pair{Earlier: event.LatestRegistration, Later: event.LatestRegistration})
		So(len(long), ShouldEqual, excelize.MaxSheetNameLength)
		So(long, ShouldStartWith, "Latest Registe to Latest Regis")
	})

	Convey("Pairs that truncate to the same name get distinct sheets", t, func() {
		pairs := []event.Pair{
			{Earlier: event.LatestRegistration, Later: event.LatestRegistration},
			{Earlier: event.LatestRegistration, Later: event.LatestRegistration},
		}
		tbl := rollup.New([]string{"QNS"}, "", []term.Code{1209}, pairs)
		wb, err := render.Workbook(tbl, stats.DefaultFields)
		So(err, ShouldBeNil)
		defer wb.Close()
		sheets := wb.GetSheetList()
		So(len(sheets), ShouldEqual, 2)
		So(sheets[0], ShouldNotEqual, sheets[1])
		So(sheets[1], ShouldEndWith, " 2")
	})
}

func TestConsoleTables(t *testing.T) {
	Convey("Definitions lists every measurable event", t, func() {
		var buf bytes.Buffer
		render.Definitions(&buf)
		for _, d := range event.Definitions() {
			So(buf.String(), ShouldContainSubstring, string(d.Code))
		}
	})

	Convey("Terms shows names and windows", t, func() {
		var buf bytes.Buffer
		render.Terms(&buf, []term.Code{1202, 1209})
		So(buf.String(), ShouldContainSubstring, "Spring 2020")
		So(buf.String(), ShouldContainSubstring, "1206, 1209")
		So(buf.String(), ShouldContainSubstring, "Total")
	})
}
