package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"

	"github.com/okian/timelines/pkg/logger"
)

// File is a discovered extract.
type File struct {
	Path     string
	Size     int64
	Modified time.Time
}

// Latest returns the newest "<prefix>*.csv" in dir by modification time.
func Latest(fs afero.Fs, dir, prefix string) (File, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return File{}, fmt.Errorf("list %s: %w", dir, err)
	}
	var best File
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.EqualFold(filepath.Ext(name), ".csv") {
			continue
		}
		if best.Path == "" || e.ModTime().After(best.Modified) {
			best = File{Path: filepath.Join(dir, name), Size: e.Size(), Modified: e.ModTime()}
		}
	}
	if best.Path == "" {
		return File{}, fmt.Errorf("%w: %s*.csv in %s", ErrNoExtract, prefix, dir)
	}
	return best, nil
}

// Prune removes archived extracts whose modification day is earlier than
// the newest archived file's day. It returns the removed paths.
func Prune(ctx context.Context, fs afero.Fs, dir string, log logger.Logger) ([]string, error) {
	if log == nil {
		log = logger.Default()
	}
	matches, err := afero.Glob(fs, filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", dir, err)
	}
	type entry struct {
		path string
		mod  time.Time
	}
	entries := make([]entry, 0, len(matches))
	var newest time.Time
	for _, m := range matches {
		info, err := fs.Stat(m)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", m, err)
		}
		entries = append(entries, entry{path: m, mod: info.ModTime()})
		if info.ModTime().After(newest) {
			newest = info.ModTime()
		}
	}
	if len(entries) == 0 {
		return nil, nil
	}

	keepFrom := day(newest)
	log.Info(ctx, "latest archived set", logger.Date("date", keepFrom))

	var removed []string
	for _, e := range entries {
		if !day(e.mod).Before(keepFrom) {
			continue
		}
		if err := fs.Remove(e.path); err != nil {
			return removed, fmt.Errorf("remove %s: %w", e.path, err)
		}
		log.Info(ctx, "pruned archived extract",
			logger.String("file", filepath.Base(e.path)),
			logger.String("age", humanize.RelTime(e.mod, newest, "older", "newer")))
		removed = append(removed, e.path)
	}
	return removed, nil
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
