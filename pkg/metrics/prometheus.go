// Package metrics provides Prometheus metrics for the SINILAI scoring
// and recap service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector the service exposes.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Ledger metrics.
	scoreUpserts      prometheus.Counter
	scoreClamps       prometheus.Counter
	scoreWriteDenied  prometheus.Counter
	finalizeTotal     prometheus.Counter
	finalizeConflicts prometheus.Counter
	unlockTotal       prometheus.Counter

	// Recap metrics.
	recapRebuilds        prometheus.Counter
	recapRebuildErrors   prometheus.Counter
	recapRebuildDuration prometheus.Histogram
	recapRows            prometheus.Gauge

	// Store metrics.
	storeUpdateLatency prometheus.Histogram
	storeQueryLatency  prometheus.Histogram

	// Change-feed queue metrics.
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueues      prometheus.Counter
	queueDequeues      prometheus.Counter
	queueDropped       prometheus.Counter
	refreshWorkerCount prometheus.Gauge

	// HTTP metrics.
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	authFailures        prometheus.Counter
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid the default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "sinilai",
		subsystem:        "recap",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	factory := promauto.With(m.registry)

	m.scoreUpserts = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "score_upserts_total",
		Help: "Score ledger writes accepted.",
	})
	m.scoreClamps = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "score_clamps_total",
		Help: "Raw score inputs forced back into the criterion bound.",
	})
	m.scoreWriteDenied = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "score_writes_denied_total",
		Help: "Writes rejected because the score set was locked.",
	})
	m.finalizeTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "finalize_total",
		Help: "Successful draft-to-final transitions.",
	})
	m.finalizeConflicts = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "finalize_conflicts_total",
		Help: "Finalize attempts that lost the compare-and-swap.",
	})
	m.unlockTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "unlock_total",
		Help: "Administrative unlock overrides.",
	})

	m.recapRebuilds = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "rebuilds_total",
		Help: "Recap snapshot rebuilds, from any trigger.",
	})
	m.recapRebuildErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "rebuild_errors_total",
		Help: "Recap snapshot rebuilds that failed.",
	})
	m.recapRebuildDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "rebuild_duration_ms",
		Help:    "Recap snapshot rebuild duration in milliseconds.",
		Buckets: m.histogramBuckets,
	})
	m.recapRows = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "rows",
		Help: "Rows in the current recap snapshot.",
	})

	m.storeUpdateLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "store_update_latency_ms",
		Help:    "Store write latency in milliseconds.",
		Buckets: m.histogramBuckets,
	})
	m.storeQueryLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "store_query_latency_ms",
		Help:    "Store read latency in milliseconds.",
		Buckets: m.histogramBuckets,
	})

	m.queueSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "notice_queue_size",
		Help: "Change notices waiting in the queue.",
	})
	m.queueCapacity = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "notice_queue_capacity",
		Help: "Configured capacity of the notice queue.",
	})
	m.queueUtilization = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "notice_queue_utilization",
		Help: "Notice queue fill ratio, 0 to 1.",
	})
	m.queueEnqueues = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "notice_enqueues_total",
		Help: "Change notices accepted into the queue.",
	})
	m.queueDequeues = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "notice_dequeues_total",
		Help: "Change notices handed to refresh workers.",
	})
	m.queueDropped = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "notices_dropped_total",
		Help: "Change notices dropped on backpressure; the poller covers them.",
	})
	m.refreshWorkerCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "refresh_workers",
		Help: "Running refresh workers.",
	})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_requests_total",
		Help: "HTTP requests by endpoint, method and status.",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "http_request_duration_ms",
		Help:    "HTTP request duration in milliseconds.",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})
	m.authFailures = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "auth_failures_total",
		Help: "Login attempts with unknown keys or unparseable roles.",
	})
}

// Ledger metrics.

func RecordScoreUpsert() {
	if globalManager.enabled {
		globalManager.scoreUpserts.Inc()
	}
}

func RecordScoreClamped() {
	if globalManager.enabled {
		globalManager.scoreClamps.Inc()
	}
}

func RecordScoreWriteDenied() {
	if globalManager.enabled {
		globalManager.scoreWriteDenied.Inc()
	}
}

func RecordFinalize() {
	if globalManager.enabled {
		globalManager.finalizeTotal.Inc()
	}
}

func RecordFinalizeConflict() {
	if globalManager.enabled {
		globalManager.finalizeConflicts.Inc()
	}
}

func RecordUnlock() {
	if globalManager.enabled {
		globalManager.unlockTotal.Inc()
	}
}

// Recap metrics.

func RecordRecapRebuild(durationMs float64) {
	if globalManager.enabled {
		globalManager.recapRebuilds.Inc()
		globalManager.recapRebuildDuration.Observe(durationMs)
	}
}

func RecordRecapRebuildError() {
	if globalManager.enabled {
		globalManager.recapRebuildErrors.Inc()
	}
}

func UpdateRecapRows(count int) {
	if globalManager.enabled {
		globalManager.recapRows.Set(float64(count))
	}
}

// Store metrics.

func RecordStoreUpdateLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.storeUpdateLatency.Observe(latencyMs)
	}
}

func RecordStoreQueryLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.storeQueryLatency.Observe(latencyMs)
	}
}

// Queue metrics.

func UpdateQueueSize(size int) {
	if globalManager.enabled {
		globalManager.queueSize.Set(float64(size))
	}
}

func UpdateQueueCapacity(capacity int) {
	if globalManager.enabled {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

func UpdateQueueUtilization(utilization float64) {
	if globalManager.enabled {
		globalManager.queueUtilization.Set(utilization)
	}
}

func RecordQueueEnqueue() {
	if globalManager.enabled {
		globalManager.queueEnqueues.Inc()
	}
}

func RecordQueueDequeue() {
	if globalManager.enabled {
		globalManager.queueDequeues.Inc()
	}
}

func RecordNoticeDropped() {
	if globalManager.enabled {
		globalManager.queueDropped.Inc()
	}
}

func UpdateRefreshWorkerCount(count int) {
	if globalManager.enabled {
		globalManager.refreshWorkerCount.Set(float64(count))
	}
}

// HTTP metrics.

func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}

func RecordAuthFailure() {
	if globalManager.enabled {
		globalManager.authFailures.Inc()
	}
}

// GetRegistry returns the custom registry for the metrics endpoint.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
