// Package repository stores extract rows and run results, and serves the
// rows cohorts are built from.
package repository

import (
	"context"
	"time"

	"github.com/okian/timelines/internal/domain/cohort"
	"github.com/okian/timelines/internal/domain/term"
)

// Store is what the pipeline reads from.
type Store interface {
	cohort.Source

	// AdmitTerms lists terms with a regular session that may be used as
	// default admit terms, ascending.
	AdmitTerms(ctx context.Context) ([]term.Code, error)
}

// Run is one pipeline execution as recorded in the runs table.
type Run struct {
	ID       string
	Started  time.Time
	Finished time.Time
	Cohorts  int
	Skipped  int
	Error    string
}

// StatisticRow is one persisted statistics row. Pointer fields are nil when
// the sample was too small.
type StatisticRow struct {
	Institution string
	AdmitTerm   term.Code
	Earlier     string
	Later       string
	N           int
	Median      *float64
	SIQR        *float64
	Mean        *float64
	StdDev      *float64
	Conf95      *float64
	Mode        *float64
	Min         *float64
	Max         *float64
	Q1          *float64
	Q2          *float64
	Q3          *float64
}
