package render

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"

	"github.com/okian/timelines/internal/domain/event"
	"github.com/okian/timelines/internal/domain/rollup"
	"github.com/okian/timelines/internal/domain/stats"
	"github.com/okian/timelines/internal/domain/term"
	"github.com/okian/timelines/pkg/logger"
)

const sheetLabelWidth = 14

// numberFormats gives each statistic its display precision.
var numberFormats = map[stats.Field]string{
	stats.FieldN:       "0",
	stats.FieldMedian:  "0.0",
	stats.FieldMean:    "0.0",
	stats.FieldMode:    "0",
	stats.FieldMin:     "0",
	stats.FieldMax:     "0",
	stats.FieldQ1:      "0.0",
	stats.FieldQ2:      "0.0",
	stats.FieldQ3:      "0.0",
	stats.FieldSIQR:    "0.0",
	stats.FieldStdDev:  "0.0",
	stats.FieldConfInt: "0.00",
}

// SheetName is a pair's worksheet name: both labels cut to 14 characters,
// the whole capped at the workbook limit.
func SheetName(p event.Pair) string {
	name := truncate(p.Earlier.Label(), sheetLabelWidth) + " to " + truncate(p.Later.Label(), sheetLabelWidth)
	return truncate(name, excelize.MaxSheetNameLength)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// WorkbookPath is the dated workbook location relative to root.
func (f *Files) WorkbookPath() string {
	return f.path(ArchiveDir, f.now().Format("2006-01-02")+".xlsx")
}

// workbookRows expands the field selection: N first, and the confidence interval
// right after the standard deviation whenever that is shown.
func workbookRows(fields []stats.Field) []stats.Field {
	out := []stats.Field{stats.FieldN}
	hasStdDev := false
	for _, fl := range fields {
		if fl == stats.FieldStdDev {
			hasStdDev = true
		}
	}
	for _, fl := range fields {
		switch fl {
		case stats.FieldN:
			continue
		case stats.FieldConfInt:
			if hasStdDev {
				continue
			}
		}
		out = append(out, fl)
		if fl == stats.FieldStdDev {
			out = append(out, stats.FieldConfInt)
		}
	}
	return out
}

type workbookStyles struct {
	bold     int
	heading  int
	super    int
	byFormat map[string]int
}

func newWorkbookStyles(wb *excelize.File) (*workbookStyles, error) {
	bold, err := wb.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	heading, err := wb.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, err
	}
	super, err := wb.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Italic: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, err
	}
	s := &workbookStyles{bold: bold, heading: heading, super: super, byFormat: make(map[string]int)}
	for _, nf := range numberFormats {
		if _, ok := s.byFormat[nf]; ok {
			continue
		}
		format := nf
		id, err := wb.NewStyle(&excelize.Style{CustomNumFmt: &format})
		if err != nil {
			return nil, err
		}
		s.byFormat[nf] = id
	}
	return s, nil
}

// sheetWriter writes one worksheet and keeps the first error. Calls after
// a failure do nothing.
type sheetWriter struct {
	wb    *excelize.File
	sheet string
	err   error
}

func (w *sheetWriter) cell(col, row int) string {
	if w.err != nil {
		return ""
	}
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		w.err = err
	}
	return name
}

func (w *sheetWriter) value(col, row int, v any) {
	ref := w.cell(col, row)
	if w.err == nil {
		w.err = w.wb.SetCellValue(w.sheet, ref, v)
	}
}

func (w *sheetWriter) style(fromCol, toCol, row, style int) {
	from, to := w.cell(fromCol, row), w.cell(toCol, row)
	if w.err == nil {
		w.err = w.wb.SetCellStyle(w.sheet, from, to, style)
	}
}

func (w *sheetWriter) merge(fromCol, toCol, row int) {
	from, to := w.cell(fromCol, row), w.cell(toCol, row)
	if w.err == nil {
		w.err = w.wb.MergeCell(w.sheet, from, to)
	}
}

// Workbook builds the consolidated statistics workbook: one sheet per
// pair, one column per institution plus the super-cohort, and a block of
// rows per admit term. Terms where no column has any data are left out.
func Workbook(tbl *rollup.Table, fields []stats.Field) (*excelize.File, error) {
	wb := excelize.NewFile()
	styles, err := newWorkbookStyles(wb)
	if err != nil {
		wb.Close()
		return nil, err
	}

	used := make(map[string]bool)
	for _, p := range tbl.Pairs() {
		sheet := SheetName(p)
		for i := 2; used[sheet]; i++ {
			sheet = truncate(SheetName(p), excelize.MaxSheetNameLength-3) + fmt.Sprintf(" %d", i)
		}
		used[sheet] = true
		if _, err := wb.NewSheet(sheet); err != nil {
			wb.Close()
			return nil, fmt.Errorf("sheet %q: %w", sheet, err)
		}
		if err := writeSheet(&sheetWriter{wb: wb, sheet: sheet}, tbl, p, fields, styles); err != nil {
			wb.Close()
			return nil, fmt.Errorf("sheet %q: %w", sheet, err)
		}
	}

	if len(used) > 0 {
		if err := wb.DeleteSheet("Sheet1"); err != nil {
			wb.Close()
			return nil, err
		}
		wb.SetActiveSheet(0)
	}
	return wb, nil
}

func writeSheet(w *sheetWriter, tbl *rollup.Table, p event.Pair, fields []stats.Field, styles *workbookStyles) error {
	columns := tbl.Columns()
	rows := workbookRows(fields)
	lastCol := len(columns) + 1

	row := 1
	w.style(1, lastCol, row, styles.heading)
	for i, col := range columns {
		w.value(i+2, row, col)
		if col == tbl.Super() {
			w.style(i+2, i+2, row, styles.super)
		}
	}

	for _, t := range tbl.Terms() {
		if !termHasData(tbl, columns, t, p) {
			continue
		}
		row++
		w.value(2, row, t.Name())
		if lastCol > 2 {
			w.merge(2, lastCol, row)
		}
		w.style(2, lastCol, row, styles.heading)

		for _, fl := range rows {
			row++
			w.value(1, row, fl.Label())
			w.style(1, 1, row, styles.bold)
			for i, col := range columns {
				s, ok := tbl.Get(col, t, p)
				if !ok {
					continue
				}
				v, ok := s.Value(fl)
				if !ok {
					continue
				}
				w.value(i+2, row, v)
			}
			w.style(2, lastCol, row, styles.byFormat[numberFormats[fl]])
		}
		row++
		if lastCol > 1 {
			w.merge(1, lastCol, row)
		}
	}
	return w.err
}

func termHasData(tbl *rollup.Table, columns []string, t term.Code, p event.Pair) bool {
	for _, col := range columns {
		if s, ok := tbl.Get(col, t, p); ok && s.N > 0 {
			return true
		}
	}
	return false
}

// WriteTable writes the workbook and the cohort size report.
func (f *Files) WriteTable(ctx context.Context, tbl *rollup.Table) error {
	wb, err := Workbook(tbl, f.fields)
	if err != nil {
		return fmt.Errorf("%w: workbook: %w", ErrWriteFailed, err)
	}
	defer wb.Close()

	path := f.WorkbookPath()
	if err := f.writeFile(ctx, path, func(out afero.File) error { return wb.Write(out) }); err != nil {
		return err
	}
	f.logger.Info(ctx, "workbook written",
		logger.String("file", path),
		logger.String("sheets", strings.Join(wb.GetSheetList(), ", ")))

	return f.writeFile(ctx, f.path(CohortReport), func(out afero.File) error {
		return CohortSizes(out, tbl)
	})
}
