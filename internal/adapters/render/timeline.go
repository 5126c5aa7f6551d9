package render

import (
	"context"
	"encoding/csv"
	"strconv"

	"github.com/spf13/afero"

	"github.com/okian/timelines/internal/domain/cohort"
	"github.com/okian/timelines/internal/domain/event"
	"github.com/okian/timelines/internal/domain/model"
	"github.com/okian/timelines/pkg/logger"
)

// TimelinePath is where a cohort's timeline is written, relative to root.
func TimelinePath(key cohort.Key) string {
	return key.String() + ".csv"
}

// WriteTimeline writes one row per student with every event date and the
// administrative annotations.
func (f *Files) WriteTimeline(ctx context.Context, c *cohort.Cohort) error {
	types := event.Measurable()
	header := make([]string, 0, len(types)+2)
	header = append(header, "Student ID")
	for _, t := range types {
		header = append(header, t.Label())
	}
	header = append(header, event.Admin.Label())

	path := f.path(TimelinesDir, TimelinePath(c.Key))
	err := f.writeFile(ctx, path, func(out afero.File) error {
		w := csv.NewWriter(out)
		if err := w.Write(header); err != nil {
			return err
		}
		row := make([]string, len(header))
		for _, r := range c.Records() {
			row[0] = strconv.Itoa(r.StudentID)
			for i, t := range types {
				d, _ := r.Get(t)
				row[i+1] = model.FormatDate(d)
			}
			row[len(row)-1] = r.AdminSummary()
			if err := w.Write(row); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	})
	if err != nil {
		return err
	}
	f.logger.Debug(ctx, "timeline written", logger.String("file", path), logger.Int("students", c.Len()))
	return nil
}
