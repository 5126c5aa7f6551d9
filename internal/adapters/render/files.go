// Package render writes run outputs: per-cohort timeline CSVs, Markdown
// reports, the statistics workbook and the cohort size report.
package render

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/okian/timelines/internal/domain/stats"
	"github.com/okian/timelines/pkg/logger"
)

// Output subdirectories.
const (
	TimelinesDir = "timelines"
	ReportsDir   = "reports"
	ArchiveDir   = "xlsx_archive"
	CohortReport = "cohort_report.txt"
)

// Files writes outputs under a root directory.
type Files struct {
	fs     afero.Fs
	root   string
	fields []stats.Field
	now    func() time.Time
	logger logger.Logger
}

// Option configures Files.
type Option func(*Files)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(f *Files) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithFields selects the statistics shown in the workbook.
func WithFields(fields []stats.Field) Option {
	return func(f *Files) {
		if len(fields) > 0 {
			f.fields = fields
		}
	}
}

// WithFs replaces the OS filesystem.
func WithFs(fs afero.Fs) Option {
	return func(f *Files) {
		if fs != nil {
			f.fs = fs
		}
	}
}

// WithClock overrides time.Now, which dates the workbook.
func WithClock(now func() time.Time) Option {
	return func(f *Files) {
		if now != nil {
			f.now = now
		}
	}
}

// NewFiles prepares the output directories under root.
func NewFiles(root string, opts ...Option) (*Files, error) {
	f := &Files{
		fs:     afero.NewOsFs(),
		root:   root,
		fields: stats.DefaultFields,
		now:    time.Now,
		logger: logger.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.Named("render")
	for _, dir := range []string{TimelinesDir, ReportsDir, ArchiveDir} {
		if err := f.fs.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("%w: create %s: %w", ErrWriteFailed, dir, err)
		}
	}
	return f, nil
}

func (f *Files) path(parts ...string) string {
	return filepath.Join(append([]string{f.root}, parts...)...)
}

// writeFile creates path and hands it to fn.
func (f *Files) writeFile(ctx context.Context, path string, fn func(afero.File) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	out, err := f.fs.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	if err := fn(out); err != nil {
		out.Close()
		return fmt.Errorf("%w: %s: %w", ErrWriteFailed, path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteFailed, path, err)
	}
	return nil
}
