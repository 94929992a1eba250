// Package metrics provides Prometheus metrics for the assessment service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default latency buckets in milliseconds. Inference is in-memory work so
// the interesting range sits well below a millisecond.
var defaultLatencyBuckets = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000}

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Assessment metrics
	assessments       *prometheus.CounterVec
	assessmentErrors  *prometheus.CounterVec
	invalidFields     *prometheus.CounterVec
	assessmentLatency prometheus.Histogram

	// Artifact metrics
	artifactLoads    *prometheus.CounterVec
	artifactLoadedAt prometheus.Gauge
	artifactFeatures prometheus.Gauge

	// Batch metrics
	queueDepth       prometheus.Gauge
	queueRejections  *prometheus.CounterVec
	batchRows        *prometheus.CounterVec
	workerThroughput prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewMetricsManager(WithPrometheusRegistry(customRegistry))
}

// NewMetricsManager creates a metrics manager and registers its collectors.
func NewMetricsManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "motionrisk",
		subsystem:        "assessment",
		histogramBuckets: defaultLatencyBuckets,
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
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets}
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.assessments = auto.NewCounterVec(
		m.counterOpts("assessments_total", "Total number of completed assessments by verdict"),
		[]string{"verdict"},
	)
	m.assessmentErrors = auto.NewCounterVec(
		m.counterOpts("assessment_errors_total", "Total number of failed assessments by error kind"),
		[]string{"kind"},
	)
	m.invalidFields = auto.NewCounterVec(
		m.counterOpts("invalid_fields_total", "Total number of rejected raw fields by field key"),
		[]string{"field"},
	)
	m.assessmentLatency = auto.NewHistogram(
		m.histogramOpts("latency_milliseconds", "Assessment latency in milliseconds", m.histogramBuckets),
	)

	m.artifactLoads = auto.NewCounterVec(
		m.counterOpts("artifact_loads_total", "Artifact load attempts by status"),
		[]string{"status"},
	)
	m.artifactLoadedAt = auto.NewGauge(
		m.gaugeOpts("artifact_loaded_timestamp_seconds", "Unix time the artifacts were loaded"),
	)
	m.artifactFeatures = auto.NewGauge(
		m.gaugeOpts("artifact_features", "Feature width of the loaded artifacts"),
	)

	m.queueDepth = auto.NewGauge(m.gaugeOpts("batch_queue_depth", "Jobs waiting in the batch queue"))
	m.queueRejections = auto.NewCounterVec(
		m.counterOpts("batch_queue_rejections_total", "Jobs the batch queue refused by reason"),
		[]string{"reason"},
	)
	m.batchRows = auto.NewCounterVec(
		m.counterOpts("batch_rows_total", "Batch rows processed by outcome"),
		[]string{"outcome"},
	)
	m.workerThroughput = auto.NewGauge(m.gaugeOpts("batch_rows_per_second", "Rows per second of the last batch"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Total number of errors by type"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorLatency = auto.NewHistogramVec(
		m.histogramOpts("error_latency_milliseconds", "Latency of operations that resulted in errors", m.histogramBuckets),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	))
}

// RecordAssessment counts a completed assessment.
func (m *Manager) RecordAssessment(verdict string, latencyMs float64) {
	m.assessments.WithLabelValues(verdict).Inc()
	m.assessmentLatency.Observe(latencyMs)
}

// RecordAssessmentError counts a failed assessment.
func (m *Manager) RecordAssessmentError(kind string) {
	m.assessmentErrors.WithLabelValues(kind).Inc()
}

// RecordInvalidField counts a rejected raw field.
func (m *Manager) RecordInvalidField(field string) {
	m.invalidFields.WithLabelValues(field).Inc()
}

// RecordArtifactLoad counts an artifact load attempt.
func (m *Manager) RecordArtifactLoad(status string) {
	m.artifactLoads.WithLabelValues(status).Inc()
}

// SetArtifactInfo publishes the load time and width of the artifacts.
func (m *Manager) SetArtifactInfo(loadedAt time.Time, features int) {
	m.artifactLoadedAt.Set(float64(loadedAt.Unix()))
	m.artifactFeatures.Set(float64(features))
}

// RecordAssessment counts a completed assessment.
func RecordAssessment(verdict string, latencyMs float64) {
	globalManager.RecordAssessment(verdict, latencyMs)
}

// RecordAssessmentError counts a failed assessment by kind.
func RecordAssessmentError(kind string) {
	globalManager.RecordAssessmentError(kind)
}

// RecordInvalidField counts a rejected raw field.
func RecordInvalidField(field string) {
	globalManager.RecordInvalidField(field)
}

// RecordArtifactLoad counts an artifact load attempt ("ok" or "error").
func RecordArtifactLoad(status string) {
	globalManager.RecordArtifactLoad(status)
}

// SetArtifactInfo publishes the load time and width of the artifacts.
func SetArtifactInfo(loadedAt time.Time, features int) {
	globalManager.SetArtifactInfo(loadedAt, features)
}

// UpdateQueueDepth sets the number of jobs waiting in the batch queue.
func UpdateQueueDepth(depth int) {
	globalManager.queueDepth.Set(float64(depth))
}

// RecordQueueRejection counts a job the batch queue refused.
func RecordQueueRejection(reason string) {
	globalManager.queueRejections.WithLabelValues(reason).Inc()
}

// RecordBatchRow counts a processed batch row ("ok", "invalid" or "failed").
func RecordBatchRow(outcome string) {
	globalManager.batchRows.WithLabelValues(outcome).Inc()
}

// UpdateWorkerThroughput sets the rows per second of the last batch.
func UpdateWorkerThroughput(rowsPerSecond float64) {
	globalManager.workerThroughput.Set(rowsPerSecond)
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

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
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
