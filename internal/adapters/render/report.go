package render

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/afero"

	"github.com/okian/timelines/internal/domain/cohort"
	"github.com/okian/timelines/internal/domain/event"
	"github.com/okian/timelines/internal/domain/institution"
	"github.com/okian/timelines/internal/domain/stats"
)

// ReportPath is where a pair's report is written, relative to the reports
// directory, e.g. "QNS-Fall 2020-admit to matric.md".
func ReportPath(key cohort.Key, p event.Pair) string {
	return fmt.Sprintf("%s-%s-%s to %s.md", key.Institution, key.AdmitTerm.Name(), p.Earlier, p.Later)
}

// WriteReport writes the Markdown report for one cohort and pair.
func (f *Files) WriteReport(ctx context.Context, key cohort.Key, p event.Pair, s stats.Summary) error {
	path := f.path(ReportsDir, ReportPath(key, p))
	return f.writeFile(ctx, path, func(out afero.File) error {
		return Report(out, key, p, s)
	})
}

// Report renders the Markdown report to w.
func Report(w io.Writer, key cohort.Key, p event.Pair, s stats.Summary) error {
	tbl := table.NewWriter()
	tbl.AppendHeader(table.Row{"Statistic", "Value"})
	tbl.AppendRow(table.Row{"N", strconv.Itoa(s.N)})
	if d := s.Descriptive; d != nil {
		tbl.AppendRows([]table.Row{
			{"Median", fmt.Sprintf("%.0f", d.Median)},
			{"Mean", fmt.Sprintf("%.0f", d.Mean)},
			{"Mode", strconv.Itoa(d.Mode)},
			{"Range", fmt.Sprintf("%d : %d", d.Min, d.Max)},
			{"Quartiles", fmt.Sprintf("%.0f : %.0f : %.0f", d.Q1, d.Q2, d.Q3)},
			{"SIQR", fmt.Sprintf("%.1f", d.SIQR)},
			{"Std Dev", fmt.Sprintf("%.1f", d.StdDev)},
			{"95% Conf", fmt.Sprintf("%.2f", d.ConfidenceInterval)},
		})
	}

	_, err := fmt.Fprintf(w, "# %s: %s\n\n## Days from %s to %s\n\n%s\n",
		institution.Name(key.Institution), key.AdmitTerm.Name(),
		p.Earlier.Label(), p.Later.Label(), tbl.RenderMarkdown())
	if err != nil {
		return err
	}
	if !s.Sufficient() {
		_, err = io.WriteString(w, "\n### Not enough data.\n")
	}
	return err
}
