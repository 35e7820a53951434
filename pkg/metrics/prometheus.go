// Package metrics provides Prometheus metrics for the league-weight engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager owns every collector exported by the engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Weight resolution
	weightResolutions *prometheus.CounterVec
	blendErrors       prometheus.Counter

	// Recalibration
	recalibrationRuns     *prometheus.CounterVec
	recalibrationClasses  *prometheus.CounterVec
	recalibrationDuration prometheus.Histogram
	recalibrationInFlight prometheus.Gauge

	// Snapshot cache
	snapshotLookups *prometheus.CounterVec
	snapshotWrites  *prometheus.CounterVec
	snapshotErrors  *prometheus.CounterVec

	// Liquidity and valuation
	liquidityComputations *prometheus.CounterVec
	tradesEvaluated       prometheus.Counter
	candidateLabels       *prometheus.CounterVec

	// League import
	importRequests     *prometheus.CounterVec
	importLatency      prometheus.Histogram
	importBreakerState prometheus.Gauge

	// Queue
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	queueRejected *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	// Runtime
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "leaguelearn",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}
	if !m.enabled {
		// Collectors still work but are never exported.
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()
	return m
}

// RefreshInterval is how often periodic gauges should be refreshed.
func (m *Manager) RefreshInterval() time.Duration {
	return m.refreshInterval
}

// Default returns the process-wide manager.
func Default() *Manager {
	return globalManager
}

func (m *Manager) name(n string) string {
	if m.metricPrefix != "" {
		return m.metricPrefix + "_" + n
	}
	return n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.weightResolutions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("weight_resolutions_total"),
		Help: "Effective weight resolutions by source (blend or baseline)",
	}, []string{"source"})

	m.blendErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("blend_errors_total"),
		Help: "Blends rejected for invariant violations",
	})

	m.recalibrationRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("recalibration_runs_total"),
		Help: "Recalibration runs by outcome (completed, cancelled)",
	}, []string{"outcome"})

	m.recalibrationClasses = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("recalibration_classes_total"),
		Help: "League classes visited by recalibration, by result (processed, skipped, failed)",
	}, []string{"result"})

	m.recalibrationDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name:    m.name("recalibration_duration_seconds"),
		Help:    "Wall time of a full recalibration run",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300, 600},
	})

	m.recalibrationInFlight = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("recalibration_in_flight"),
		Help: "Recalibration runs currently executing",
	})

	m.snapshotLookups = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("snapshot_lookups_total"),
		Help: "Snapshot cache lookups by type and result (hit, miss, invalid)",
	}, []string{"snapshot_type", "result"})

	m.snapshotWrites = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("snapshot_writes_total"),
		Help: "Snapshot records appended by type",
	}, []string{"snapshot_type"})

	m.snapshotErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("snapshot_store_errors_total"),
		Help: "Snapshot store failures by operation",
	}, []string{"op"})

	m.liquidityComputations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("liquidity_computations_total"),
		Help: "Liquidity scores computed by confidence tier",
	}, []string{"confidence"})

	m.tradesEvaluated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("trades_evaluated_total"),
		Help: "Trade candidates evaluated",
	})

	m.candidateLabels = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("top_candidate_labels_total"),
		Help: "Acceptance label of the selected top candidate",
	}, []string{"label"})

	m.importRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("import_requests_total"),
		Help: "League import requests by result (ok, error, open_circuit, rate_limited)",
	}, []string{"result"})

	m.importLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name:    m.name("import_latency_milliseconds"),
		Help:    "League import latency in milliseconds",
		Buckets: m.histogramBuckets,
	})

	m.importBreakerState = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("import_breaker_state"),
		Help: "League import circuit breaker state (0 closed, 1 half-open, 2 open)",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("recalibration_queue_size"),
		Help: "Pending recalibration requests",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("recalibration_queue_capacity"),
		Help: "Capacity of the recalibration request queue",
	})

	m.queueRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("recalibration_queue_rejected_total"),
		Help: "Recalibration requests rejected by reason",
	}, []string{"reason"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("http_requests_total"),
		Help: "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name:    m.name("http_request_duration_milliseconds"),
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("http_errors_total"),
		Help: "HTTP errors by endpoint, method and error type",
	}, []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("system_memory_usage_bytes"),
		Help: "Heap bytes allocated",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("system_goroutine_count"),
		Help: "Number of goroutines",
	})
}

// Weight resolution.

// RecordWeightResolution counts an effective-weight lookup by source.
func RecordWeightResolution(source string) {
	globalManager.weightResolutions.WithLabelValues(source).Inc()
}

// RecordBlendError counts a blend rejected for an invariant violation.
func RecordBlendError() {
	globalManager.blendErrors.Inc()
}

// Recalibration.

// RecordRecalibrationRun counts a finished run.
func RecordRecalibrationRun(outcome string, d time.Duration) {
	globalManager.recalibrationRuns.WithLabelValues(outcome).Inc()
	globalManager.recalibrationDuration.Observe(d.Seconds())
}

// RecordRecalibrationClass counts one class visited by a run.
func RecordRecalibrationClass(result string) {
	globalManager.recalibrationClasses.WithLabelValues(result).Inc()
}

// AddRecalibrationInFlight adjusts the running-jobs gauge.
func AddRecalibrationInFlight(delta float64) {
	globalManager.recalibrationInFlight.Add(delta)
}

// Snapshot cache.

// RecordSnapshotLookup counts a cache read.
func RecordSnapshotLookup(snapshotType, result string) {
	globalManager.snapshotLookups.WithLabelValues(snapshotType, result).Inc()
}

// RecordSnapshotWrite counts an appended snapshot.
func RecordSnapshotWrite(snapshotType string) {
	globalManager.snapshotWrites.WithLabelValues(snapshotType).Inc()
}

// RecordSnapshotStoreError counts a store failure.
func RecordSnapshotStoreError(op string) {
	globalManager.snapshotErrors.WithLabelValues(op).Inc()
}

// Liquidity and valuation.

// RecordLiquidity counts a liquidity computation.
func RecordLiquidity(confidence string) {
	globalManager.liquidityComputations.WithLabelValues(confidence).Inc()
}

// RecordTradesEvaluated adds n evaluated candidates.
func RecordTradesEvaluated(n int) {
	globalManager.tradesEvaluated.Add(float64(n))
}

// RecordTopCandidate counts the label of a selected candidate.
func RecordTopCandidate(label string) {
	globalManager.candidateLabels.WithLabelValues(label).Inc()
}

// League import.

// RecordImportRequest counts an import call by result.
func RecordImportRequest(result string, latencyMs float64) {
	globalManager.importRequests.WithLabelValues(result).Inc()
	globalManager.importLatency.Observe(latencyMs)
}

// UpdateImportBreakerState publishes the breaker state.
func UpdateImportBreakerState(state int) {
	globalManager.importBreakerState.Set(float64(state))
}

// Queue.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueRejected counts a request the queue refused.
func RecordQueueRejected(reason string) {
	globalManager.queueRejected.WithLabelValues(reason).Inc()
}

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// Runtime.

// UpdateSystemMemoryUsage sets the heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
