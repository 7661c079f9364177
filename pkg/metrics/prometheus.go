// Package metrics exposes Prometheus metrics for the league service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values.
const (
	TierPositional    = "positional"
	TierParticipation = "participation"

	ResultSent   = "sent"
	ResultFailed = "failed"
)

// Manager owns every league metric.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// ingestion
	recordsIngested *prometheus.CounterVec
	recordsRejected *prometheus.CounterVec

	// ranking
	rankingsComputed prometheus.Counter
	invalidBatches   prometheus.Counter
	daysSkipped      prometheus.Counter
	rankingDuration  prometheus.Histogram

	// awards and periods
	awardsGranted  *prometheus.CounterVec
	periodsClosed  prometheus.Counter
	periodsSkipped prometheus.Counter
	characterPlays prometheus.Counter
	notifications  *prometheus.CounterVec
	schedulerRuns  *prometheus.CounterVec

	// pipeline
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	queueRejected prometheus.Counter
	workerCount   prometheus.Gauge
	workerErrors  prometheus.Counter

	// http
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// LatencyBuckets covers rankings and requests served from memory or a local
// database, in seconds.
var LatencyBuckets = []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}

var (
	customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // process-wide registry served on /metrics
	globalManager  = NewManager(WithPrometheusRegistry(customRegistry), WithHistogramBuckets(LatencyBuckets))
)

// NewManager creates and registers the league metrics.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "mooot",
		subsystem:        "league",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.recordsIngested = m.counterVec("records_ingested_total", "Game records persisted, by player kind", "kind")
	m.recordsRejected = m.counterVec("records_rejected_total", "Game records refused before persistence", "reason")

	m.rankingsComputed = m.counter("rankings_computed_total", "Leaderboards computed")
	m.invalidBatches = m.counter("ranking_invalid_batches_total", "Ranking batches refused because a record was unresolvable")
	m.daysSkipped = m.counter("ranking_days_skipped_total", "Records ignored because the player already scored that local day")
	m.rankingDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name:    "ranking_duration_seconds",
		Help:    "Time to load records and compute a leaderboard",
		Buckets: m.histogramBuckets,
	})

	m.awardsGranted = m.counterVec("awards_granted_total", "Trophies granted, by tier kind", "tier")
	m.periodsClosed = m.counter("periods_closed_total", "Chat periods closed with grants persisted")
	m.periodsSkipped = m.counter("periods_skipped_total", "Close requests for periods that were already closed")
	m.characterPlays = m.counter("character_plays_total", "Simulated plays recorded for characters")
	m.notifications = m.counterVec("notifications_total", "Chat notifications, by result", "result")
	m.schedulerRuns = m.counterVec("scheduler_runs_total", "Scheduled jobs fired, by job", "job")

	m.queueSize = m.gauge("queue_size", "Records waiting to be persisted")
	m.queueCapacity = m.gauge("queue_capacity", "Capacity of the ingestion queue")
	m.queueRejected = m.counter("queue_rejected_total", "Records refused because the queue was full")
	m.workerCount = m.gauge("worker_count", "Running ingestion workers")
	m.workerErrors = m.counter("worker_errors_total", "Records a worker failed to persist")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by route, method and status", "route", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration",
		Buckets: m.histogramBuckets,
	}, []string{"route", "method", "status_code"})
}

// RecordIngested counts a persisted record of the given player kind.
func (m *Manager) RecordIngested(kind string) { m.recordsIngested.WithLabelValues(kind).Inc() }

// RecordRejected counts a record refused before persistence.
func (m *Manager) RecordRejected(reason string) { m.recordsRejected.WithLabelValues(reason).Inc() }

// RecordRanking counts a computed leaderboard and its latency.
func (m *Manager) RecordRanking(d time.Duration, skippedDays int) {
	m.rankingsComputed.Inc()
	m.rankingDuration.Observe(d.Seconds())
	m.daysSkipped.Add(float64(skippedDays))
}

// RecordInvalidBatch counts a refused ranking batch.
func (m *Manager) RecordInvalidBatch() { m.invalidBatches.Inc() }

// RecordAwards counts granted trophies.
func (m *Manager) RecordAwards(positional, participation int) {
	m.awardsGranted.WithLabelValues(TierPositional).Add(float64(positional))
	m.awardsGranted.WithLabelValues(TierParticipation).Add(float64(participation))
}

// RecordPeriodClosed counts a closed chat period.
func (m *Manager) RecordPeriodClosed() { m.periodsClosed.Inc() }

// RecordPeriodSkipped counts a close request for an already closed period.
func (m *Manager) RecordPeriodSkipped() { m.periodsSkipped.Inc() }

// RecordCharacterPlay counts a simulated play.
func (m *Manager) RecordCharacterPlay() { m.characterPlays.Inc() }

// RecordNotification counts a notification outcome (ResultSent or ResultFailed).
func (m *Manager) RecordNotification(result string) { m.notifications.WithLabelValues(result).Inc() }

// RecordSchedulerRun counts a fired job.
func (m *Manager) RecordSchedulerRun(job string) { m.schedulerRuns.WithLabelValues(job).Inc() }

// UpdateQueue sets the queue size and capacity gauges.
func (m *Manager) UpdateQueue(size, capacity int) {
	m.queueSize.Set(float64(size))
	m.queueCapacity.Set(float64(capacity))
}

// RecordQueueRejected counts backpressure refusals.
func (m *Manager) RecordQueueRejected() { m.queueRejected.Inc() }

// UpdateWorkerCount sets the running workers gauge.
func (m *Manager) UpdateWorkerCount(n int) { m.workerCount.Set(float64(n)) }

// RecordWorkerError counts a failed persistence.
func (m *Manager) RecordWorkerError() { m.workerErrors.Inc() }

// RecordHTTPRequest counts a request and observes its duration.
func (m *Manager) RecordHTTPRequest(route, method, status string, d time.Duration) {
	m.httpRequests.WithLabelValues(route, method, status).Inc()
	m.httpRequestDuration.WithLabelValues(route, method, status).Observe(d.Seconds())
}

// Global helpers operate on the process-wide manager.

func RecordIngested(kind string) {
	globalManager.RecordIngested(kind)
}

func RecordRejected(reason string) {
	globalManager.RecordRejected(reason)
}

func RecordRanking(d time.Duration, skipped int) {
	globalManager.RecordRanking(d, skipped)
}

func RecordInvalidBatch() {
	globalManager.RecordInvalidBatch()
}

func RecordAwards(positional, participation int) {
	globalManager.RecordAwards(positional, participation)
}

func RecordPeriodClosed() {
	globalManager.RecordPeriodClosed()
}

func RecordPeriodSkipped() {
	globalManager.RecordPeriodSkipped()
}

func RecordCharacterPlay() {
	globalManager.RecordCharacterPlay()
}

func RecordNotification(result string) {
	globalManager.RecordNotification(result)
}

func RecordSchedulerRun(job string) {
	globalManager.RecordSchedulerRun(job)
}

func UpdateQueue(size, capacity int) {
	globalManager.UpdateQueue(size, capacity)
}

func RecordQueueRejected() {
	globalManager.RecordQueueRejected()
}

func UpdateWorkerCount(n int) {
	globalManager.UpdateWorkerCount(n)
}

func RecordWorkerError() {
	globalManager.RecordWorkerError()
}

func RecordHTTPRequest(route, method, status string, d time.Duration) {
	globalManager.RecordHTTPRequest(route, method, status, d)
}

// GetRegistry returns the registry served on /metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
