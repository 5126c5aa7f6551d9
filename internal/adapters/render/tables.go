package render

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/okian/timelines/internal/domain/event"
	"github.com/okian/timelines/internal/domain/rollup"
	"github.com/okian/timelines/internal/domain/term"
)

// CohortSizes writes one line per cohort in the table, e.g.
// "  1,234 students in QNS-1209 cohort". Skipped cohorts say why.
func CohortSizes(w io.Writer, tbl *rollup.Table) error {
	for _, col := range tbl.Columns() {
		for _, t := range tbl.Terms() {
			var err error
			if n, ok := tbl.Size(col, t); ok {
				_, err = fmt.Fprintf(w, "%7s students in %s-%s cohort\n", humanize.Comma(int64(n)), col, t)
			} else if reason, ok := tbl.Skipped(col, t); ok {
				_, err = fmt.Fprintf(w, "%7s students in %s-%s cohort (%s)\n", "-", col, t, reason)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// Definitions writes the event glossary as a console table.
func Definitions(w io.Writer) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Code", "Label", "Definition"})
	for _, d := range event.Definitions() {
		tw.AppendRow(table.Row{d.Code, d.Label, d.Definition})
	}
	tw.SetStyle(table.StyleLight)
	tw.Render()
}

// Terms writes admit terms with their names and enrollment windows.
func Terms(w io.Writer, terms []term.Code) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Term", "Name", "Window"})
	for _, t := range terms {
		window := ""
		for i, c := range t.Window() {
			if i > 0 {
				window += ", "
			}
			window += c.String()
		}
		tw.AppendRow(table.Row{t.String(), t.Name(), window})
	}
	tw.AppendFooter(table.Row{"", "Total", humanize.Comma(int64(len(terms)))})
	tw.SetStyle(table.StyleLight)
	tw.Render()
}
