// Package metrics provides Prometheus metrics for the pscore service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Generation outcomes used as label values.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeMalformed = "malformed"
	OutcomeCancelled = "cancelled"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Score generation
	generations       *prometheus.CounterVec
	generationLatency prometheus.Histogram
	generationsActive prometheus.Gauge

	// Leaderboard simulation
	leaderboardRefreshes      *prometheus.CounterVec
	leaderboardRefreshLatency prometheus.Histogram
	leaderboardPosts          *prometheus.CounterVec
	persistenceCorrupt        *prometheus.CounterVec
	storeErrors               *prometheus.CounterVec

	// Sessions
	sessionsActive  prometheus.Gauge
	sessionsCreated prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pscore",
		subsystem:        "service",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 20000, 40000},
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.constLabels, Buckets: buckets,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.generations = auto.NewCounterVec(
		m.counterOpts("generations_total", "Score generations by outcome"),
		[]string{"outcome"},
	)
	m.generationLatency = auto.NewHistogram(
		m.histogramOpts("generation_latency_milliseconds", "Latency of the remote score generation call", m.histogramBuckets),
	)
	m.generationsActive = auto.NewGauge(
		m.gaugeOpts("generations_in_flight", "Score generations currently waiting on the model"),
	)

	m.leaderboardRefreshes = auto.NewCounterVec(
		m.counterOpts("leaderboard_refreshes_total", "Leaderboard refreshes by result"),
		[]string{"result"},
	)
	m.leaderboardRefreshLatency = auto.NewHistogram(
		m.histogramOpts("leaderboard_refresh_latency_milliseconds", "Latency of leaderboard refreshes", m.histogramBuckets),
	)
	m.leaderboardPosts = auto.NewCounterVec(
		m.counterOpts("leaderboard_posts_total", "Scores posted to the leaderboard by kind"),
		[]string{"kind"},
	)
	m.persistenceCorrupt = auto.NewCounterVec(
		m.counterOpts("persistence_corrupt_total", "Stored values that failed to decode and were ignored"),
		[]string{"key"},
	)
	m.storeErrors = auto.NewCounterVec(
		m.counterOpts("store_errors_total", "Durable store operations that failed"),
		[]string{"op"},
	)

	m.sessionsActive = auto.NewGauge(
		m.gaugeOpts("sessions_active", "Sessions held in memory"),
	)
	m.sessionsCreated = auto.NewCounter(
		m.counterOpts("sessions_created_total", "Sessions created"),
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Errors by type and severity"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorLatency = auto.NewHistogramVec(
		m.histogramOpts("error_latency_milliseconds", "Latency of operations that resulted in errors", m.histogramBuckets),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap memory in use"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds", "Average GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	))
}

// RecordGeneration counts a generation outcome and, unless cancelled, its latency.
func RecordGeneration(outcome string, latencyMs float64) {
	globalManager.generations.WithLabelValues(outcome).Inc()
	if outcome != OutcomeCancelled {
		globalManager.generationLatency.Observe(latencyMs)
	}
}

// GenerationStarted and GenerationFinished track in-flight remote calls.
func GenerationStarted()  { globalManager.generationsActive.Inc() }
func GenerationFinished() { globalManager.generationsActive.Dec() }

// RecordLeaderboardRefresh counts a refresh result ("ok" or "error").
func RecordLeaderboardRefresh(result string, latencyMs float64) {
	globalManager.leaderboardRefreshes.WithLabelValues(result).Inc()
	globalManager.leaderboardRefreshLatency.Observe(latencyMs)
}

// RecordLeaderboardPost counts a post ("unverified" or "verified").
func RecordLeaderboardPost(kind string) {
	globalManager.leaderboardPosts.WithLabelValues(kind).Inc()
}

// RecordPersistenceCorrupt counts a stored value that was ignored.
func RecordPersistenceCorrupt(key string) {
	globalManager.persistenceCorrupt.WithLabelValues(key).Inc()
}

// RecordStoreError counts a failed store operation ("get" or "set").
func RecordStoreError(op string) {
	globalManager.storeErrors.WithLabelValues(op).Inc()
}

// UpdateActiveSessions sets the number of sessions in memory.
func UpdateActiveSessions(n int) {
	globalManager.sessionsActive.Set(float64(n))
}

// RecordSessionCreated increments the created sessions counter.
func RecordSessionCreated() {
	globalManager.sessionsCreated.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage sets the heap memory in use, in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
