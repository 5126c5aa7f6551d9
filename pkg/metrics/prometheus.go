// Package metrics provides Prometheus metrics for the timelines batch run.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for a timelines run.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         *prometheus.Registry

	// Cohort construction
	cohortsBuilt   *prometheus.CounterVec
	cohortsSkipped *prometheus.CounterVec
	cohortSize     prometheus.Histogram
	studentsFolded prometheus.Counter
	rowsSkipped    *prometheus.CounterVec

	// Statistics
	summariesComputed     prometheus.Counter
	summariesInsufficient prometheus.Counter

	// Extract loading
	extractRowsLoaded *prometheus.CounterVec

	// Run bookkeeping
	runDuration       prometheus.Gauge
	runLastSuccess    prometheus.Gauge
	repositoryLatency *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager()
}

// NewManager creates a new metrics manager registered on its own registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "timelines",
		subsystem:        "",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		constLabels:      prometheus.Labels{},
		registry:         prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.cohortsBuilt = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "cohorts_built_total",
		Help:        "Cohorts assembled, by institution",
		ConstLabels: m.constLabels,
	}, []string{"institution"})

	m.cohortsSkipped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "cohorts_skipped_total",
		Help:        "Cohorts skipped, by reason",
		ConstLabels: m.constLabels,
	}, []string{"reason"})

	m.cohortSize = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "cohort_size_students",
		Help:        "Number of students per assembled cohort",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.studentsFolded = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "students_folded_total",
		Help:        "Student event records assembled",
		ConstLabels: m.constLabels,
	})

	m.rowsSkipped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "source_rows_skipped_total",
		Help:        "Source rows not folded, by source and reason",
		ConstLabels: m.constLabels,
	}, []string{"source", "reason"})

	m.summariesComputed = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "summaries_computed_total",
		Help:        "Descriptive statistics blocks computed",
		ConstLabels: m.constLabels,
	})

	m.summariesInsufficient = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "summaries_insufficient_total",
		Help:        "Event pairs with too few deltas for statistics",
		ConstLabels: m.constLabels,
	})

	m.extractRowsLoaded = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "extract_rows_loaded_total",
		Help:        "Rows loaded from extracts, by source",
		ConstLabels: m.constLabels,
	}, []string{"source"})

	m.runDuration = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "run_duration_seconds",
		Help:        "Wall time of the last run",
		ConstLabels: m.constLabels,
	})

	m.runLastSuccess = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "run_last_success_unix",
		Help:        "Unix timestamp of the last successful run",
		ConstLabels: m.constLabels,
	})

	m.repositoryLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "repository_query_latency_milliseconds",
		Help:        "Repository query latency in milliseconds, by table",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"table"})
}

// Registry returns the registry the manager's metrics live on.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the current metric values in the text exposition
// format, for node_exporter's textfile collector.
func (m *Manager) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	return nil
}

// RecordCohortBuilt counts a cohort and observes its size.
func RecordCohortBuilt(institution string, students int) {
	globalManager.cohortsBuilt.WithLabelValues(institution).Inc()
	globalManager.cohortSize.Observe(float64(students))
	globalManager.studentsFolded.Add(float64(students))
}

// RecordCohortSkipped counts a skipped cohort.
func RecordCohortSkipped(reason string) {
	globalManager.cohortsSkipped.WithLabelValues(reason).Inc()
}

// RecordRowSkipped counts a source row that was not folded.
func RecordRowSkipped(source, reason string) {
	globalManager.rowsSkipped.WithLabelValues(source, reason).Inc()
}

// RecordSummary counts a statistics block; sufficient reports whether
// descriptive statistics were computed.
func RecordSummary(sufficient bool) {
	if sufficient {
		globalManager.summariesComputed.Inc()
		return
	}
	globalManager.summariesInsufficient.Inc()
}

// RecordExtractRows counts rows loaded from an extract.
func RecordExtractRows(source string, rows int) {
	globalManager.extractRowsLoaded.WithLabelValues(source).Add(float64(rows))
}

// RecordRepositoryLatency observes a repository query latency.
func RecordRepositoryLatency(table string, latencyMs float64) {
	globalManager.repositoryLatency.WithLabelValues(table).Observe(latencyMs)
}

// RecordRun sets the run duration and, on success, the success timestamp.
func RecordRun(seconds float64, finishedUnix int64, success bool) {
	globalManager.runDuration.Set(seconds)
	if success {
		globalManager.runLastSuccess.Set(float64(finishedUnix))
	}
}

// WriteTextfile writes the global metrics to path.
func WriteTextfile(path string) error {
	return globalManager.WriteTextfile(path)
}

// GetRegistry returns the registry used by the global metrics.
func GetRegistry() *prometheus.Registry {
	return globalManager.registry
}
