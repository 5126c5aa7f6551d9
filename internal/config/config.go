// Package config defines run configuration and its loading hooks.
package config

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/okian/timelines/internal/domain/event"
	"github.com/okian/timelines/internal/domain/institution"
	"github.com/okian/timelines/internal/domain/stats"
	"github.com/okian/timelines/internal/domain/term"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Database is the SQLite file holding extracts and results.
	Database string `koanf:"database"`

	// OutputDir receives timelines, reports, the workbook and the cohort report.
	OutputDir string `koanf:"output_dir"`

	// ExtractDir holds the newest CSV extracts; ArchiveDir holds older ones.
	ExtractDir string `koanf:"extract_dir"`
	ArchiveDir string `koanf:"archive_dir"`

	// Institutions to build cohorts for. Empty means the default list.
	Institutions []string `koanf:"institutions"`

	// AdmitTerms to build cohorts for. Empty means every available term.
	AdmitTerms []int `koanf:"admit_terms"`

	// EventPairs are "earlier:later" event codes.
	EventPairs []string `koanf:"event_pairs"`

	// Stats selects the workbook statistics.
	Stats []string `koanf:"stats"`

	// SeniorColleges make up the super-cohort.
	SeniorColleges []string `koanf:"senior_colleges"`

	// ExplicitCohort is an optional CSV of student ids (column empl_id).
	ExplicitCohort string `koanf:"explicit_cohort"`

	// MetricsFile, when set, receives the run metrics in text format.
	MetricsFile string `koanf:"metrics_file"`

	// Progress enables per-cohort progress lines on stderr.
	Progress bool `koanf:"progress"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	fields := make([]string, 0, len(stats.DefaultFields))
	for _, f := range stats.DefaultFields {
		fields = append(fields, string(f))
	}
	return &Config{
		LogLevel:       "info",
		Database:       "timelines.db",
		OutputDir:      ".",
		ExtractDir:     "downloads",
		ArchiveDir:     filepath.Join("downloads", "archive"),
		Institutions:   append([]string(nil), institution.Defaults...),
		Stats:          fields,
		SeniorColleges: append([]string(nil), institution.SeniorColleges...),
		Progress:       true,
	}
}

// Validate checks everything a statistics run needs.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.LogLevel)
	}
	if c.Database == "" {
		return fmt.Errorf("%w: database must not be empty", ErrInvalidConfig)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("%w: output_dir must not be empty", ErrInvalidConfig)
	}
	if _, err := c.InstitutionCodes(); err != nil {
		return err
	}
	if _, err := institution.Validate(c.SeniorColleges); err != nil {
		return fmt.Errorf("%w: senior_colleges: %w", ErrInvalidConfig, err)
	}
	if _, err := c.Terms(); err != nil {
		return err
	}
	if _, err := c.Pairs(); err != nil {
		return err
	}
	if _, err := c.Fields(); err != nil {
		return err
	}
	return nil
}

// InstitutionCodes returns the normalized, known institution codes.
func (c *Config) InstitutionCodes() ([]string, error) {
	if len(c.Institutions) == 0 {
		return nil, fmt.Errorf("%w: no institutions", ErrInvalidConfig)
	}
	insts, err := institution.Validate(c.Institutions)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return insts, nil
}

// Terms returns the configured admit terms; nil means every available one.
func (c *Config) Terms() ([]term.Code, error) {
	out := make([]term.Code, 0, len(c.AdmitTerms))
	for _, t := range c.AdmitTerms {
		code := term.Code(t)
		if err := code.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		out = append(out, code)
	}
	return out, nil
}

// Pairs parses the event pairs. Malformed pairs keep event.ErrUnknownEventType
// in the chain.
func (c *Config) Pairs() ([]event.Pair, error) {
	pairs, err := event.ParsePairs(c.EventPairs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return pairs, nil
}

// Fields parses the statistics selection.
func (c *Config) Fields() ([]stats.Field, error) {
	fields, err := stats.ParseFields(c.Stats)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return fields, nil
}
