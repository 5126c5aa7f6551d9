// Package rollup collects statistics summaries across institutions, admit
// terms and event pairs for the output writers.
package rollup

import (
	"sort"

	"github.com/okian/timelines/internal/domain/event"
	"github.com/okian/timelines/internal/domain/stats"
	"github.com/okian/timelines/internal/domain/term"
)

type cohortKey struct {
	column string
	term   term.Code
}

type cellKey struct {
	cohortKey
	pair event.Pair
}

// Row is one populated cell.
type Row struct {
	Column  string
	Term    term.Code
	Pair    event.Pair
	Summary stats.Summary
}

// Table holds one summary per (column, admit term, pair). A cell with no
// summary belongs to a cohort that was skipped or never built; a summary
// with a nil Descriptive had too few deltas.
type Table struct {
	columns []string
	super   string
	terms   []term.Code
	pairs   []event.Pair

	summaries map[cellKey]stats.Summary
	sizes     map[cohortKey]int
	skipped   map[cohortKey]string
}

// New creates a table. Columns are the institutions in the given order
// followed by super when it is not empty. Terms are kept ascending.
func New(institutions []string, super string, terms []term.Code, pairs []event.Pair) *Table {
	columns := append([]string(nil), institutions...)
	if super != "" {
		columns = append(columns, super)
	}
	ts := append([]term.Code(nil), terms...)
	sort.Slice(ts, func(i, j int) bool { return ts[i] < ts[j] })
	return &Table{
		columns:   columns,
		super:     super,
		terms:     ts,
		pairs:     append([]event.Pair(nil), pairs...),
		summaries: make(map[cellKey]stats.Summary),
		sizes:     make(map[cohortKey]int),
		skipped:   make(map[cohortKey]string),
	}
}

// Columns lists institutions then the super-cohort code.
func (t *Table) Columns() []string { return append([]string(nil), t.columns...) }

// Super is the super-cohort column, or "".
func (t *Table) Super() string { return t.super }

// Terms lists the admit terms ascending.
func (t *Table) Terms() []term.Code { return append([]term.Code(nil), t.terms...) }

// Pairs lists the event pairs in configured order.
func (t *Table) Pairs() []event.Pair { return append([]event.Pair(nil), t.pairs...) }

// Put stores a summary, replacing any previous one.
func (t *Table) Put(column string, admit term.Code, p event.Pair, s stats.Summary) {
	t.summaries[cellKey{cohortKey{column, admit}, p}] = s
}

// Get returns the summary for a cell; ok is false when there is none.
func (t *Table) Get(column string, admit term.Code, p event.Pair) (stats.Summary, bool) {
	s, ok := t.summaries[cellKey{cohortKey{column, admit}, p}]
	return s, ok
}

// SetSize records a cohort's student count.
func (t *Table) SetSize(column string, admit term.Code, n int) {
	t.sizes[cohortKey{column, admit}] = n
}

// Size returns a cohort's student count.
func (t *Table) Size(column string, admit term.Code) (int, bool) {
	n, ok := t.sizes[cohortKey{column, admit}]
	return n, ok
}

// Skip marks a cohort as not built.
func (t *Table) Skip(column string, admit term.Code, reason string) {
	t.skipped[cohortKey{column, admit}] = reason
}

// Skipped reports why a cohort was not built.
func (t *Table) Skipped(column string, admit term.Code) (string, bool) {
	r, ok := t.skipped[cohortKey{column, admit}]
	return r, ok
}

// Len is the number of populated cells.
func (t *Table) Len() int { return len(t.summaries) }

// Rows lists populated cells by column, then term, then pair.
func (t *Table) Rows() []Row {
	out := make([]Row, 0, len(t.summaries))
	for _, col := range t.columns {
		for _, tc := range t.terms {
			for _, p := range t.pairs {
				if s, ok := t.Get(col, tc, p); ok {
					out = append(out, Row{Column: col, Term: tc, Pair: p, Summary: s})
				}
			}
		}
	}
	return out
}
