package service

import (
	"context"

	"github.com/okian/timelines/internal/adapters/repository"
	"github.com/okian/timelines/internal/domain/cohort"
	"github.com/okian/timelines/internal/domain/event"
	"github.com/okian/timelines/internal/domain/rollup"
	"github.com/okian/timelines/internal/domain/stats"
)

// CohortSink receives each built cohort and its per-pair summaries.
type CohortSink interface {
	WriteTimeline(ctx context.Context, c *cohort.Cohort) error
	WriteReport(ctx context.Context, key cohort.Key, p event.Pair, s stats.Summary) error
}

// TableSink receives the finished roll-up.
type TableSink interface {
	WriteTable(ctx context.Context, tbl *rollup.Table) error
}

// RunRecorder logs finished runs.
type RunRecorder interface {
	RecordRun(ctx context.Context, run repository.Run) error
}
