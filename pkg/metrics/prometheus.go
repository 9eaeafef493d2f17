// Package metrics provides Prometheus metrics for the creator score service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// scoreBuckets splits the 0-100 score range into deciles.
var scoreBuckets = []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100} //nolint:gochecknoglobals // fixed bucket layout

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Engine
	scoresComputed   *prometheus.CounterVec
	scoreTotal       prometheus.Histogram
	scoreComponent   *prometheus.HistogramVec
	computeLatency   prometheus.Histogram
	batchSize        prometheus.Histogram
	unknownPlatforms prometheus.Counter

	// Recompute pipeline
	jobsEnqueued      *prometheus.CounterVec
	jobsDuplicate     prometheus.Counter
	jobsProcessed     prometheus.Counter
	jobsFailed        prometheus.Counter
	queueSize         prometheus.Gauge
	queueCapacity     prometheus.Gauge
	queueRejected     *prometheus.CounterVec
	workerCount       prometheus.Gauge
	workerLatency     prometheus.Histogram
	directoryCreators prometheus.Gauge
	directoryLatency  *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by package-level recorders

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "creatorscore",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.constLabels)

	m.scoresComputed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "scores_computed_total",
		Help:        "Creator scores computed, by caller",
		ConstLabels: labels,
	}, []string{"caller"})

	m.scoreTotal = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "score_total",
		Help:        "Distribution of computed creator scores",
		Buckets:     scoreBuckets,
		ConstLabels: labels,
	})

	m.scoreComponent = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "score_component_points",
		Help:        "Distribution of sub-score points by component",
		Buckets:     []float64{0, 5, 10, 15, 20, 30, 40, 50},
		ConstLabels: labels,
	}, []string{"component"})

	m.computeLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "compute_latency_milliseconds",
		Help:        "Score computation latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.batchSize = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "batch_size",
		Help:        "Number of snapshots per batch request",
		Buckets:     []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: labels,
	})

	m.unknownPlatforms = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "unknown_platform_rejections_total",
		Help:        "Requests rejected because a connection named an unsupported platform",
		ConstLabels: labels,
	})

	m.jobsEnqueued = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "recompute_jobs_enqueued_total",
		Help:        "Recompute jobs accepted into the queue, by trigger",
		ConstLabels: labels,
	}, []string{"trigger"})

	m.jobsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "recompute_jobs_duplicate_total",
		Help:        "Recompute jobs dropped as duplicates",
		ConstLabels: labels,
	})

	m.jobsProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "recompute_jobs_processed_total",
		Help:        "Recompute jobs scored and stored",
		ConstLabels: labels,
	})

	m.jobsFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "recompute_jobs_failed_total",
		Help:        "Recompute jobs whose result could not be stored",
		ConstLabels: labels,
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "queue_size",
		Help:        "Recompute jobs waiting in the queue",
		ConstLabels: labels,
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "queue_capacity",
		Help:        "Maximum number of queued recompute jobs",
		ConstLabels: labels,
	})

	m.queueRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "queue_rejected_total",
		Help:        "Recompute jobs rejected by the queue, by reason",
		ConstLabels: labels,
	}, []string{"reason"})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "worker_count",
		Help:        "Number of recompute workers",
		ConstLabels: labels,
	})

	m.workerLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "worker_processing_latency_milliseconds",
		Help:        "Time from dequeue to stored result in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.directoryCreators = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "directory_creators",
		Help:        "Creators currently held by the discovery directory",
		ConstLabels: labels,
	})

	m.directoryLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "directory_operation_latency_milliseconds",
		Help:        "Discovery directory operation latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"operation"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        "requests_total",
		Help:        "HTTP requests by endpoint, method and status",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        "request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status"})

	m.errorsByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        "errors_total",
		Help:        "HTTP error responses by endpoint, method and error type",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "error_type"})
}

// RecordScoreComputed records one computed breakdown for the given caller
// ("preview", "batch", "worker", "cli").
func RecordScoreComputed(caller string, profile, email, connections, audience, total int) {
	globalManager.scoresComputed.WithLabelValues(caller).Inc()
	globalManager.scoreTotal.Observe(float64(total))
	globalManager.scoreComponent.WithLabelValues("profile").Observe(float64(profile))
	globalManager.scoreComponent.WithLabelValues("email").Observe(float64(email))
	globalManager.scoreComponent.WithLabelValues("connections").Observe(float64(connections))
	globalManager.scoreComponent.WithLabelValues("audience").Observe(float64(audience))
}

// RecordComputeLatency records score computation latency in milliseconds.
func RecordComputeLatency(latencyMs float64) {
	globalManager.computeLatency.Observe(latencyMs)
}

// RecordBatchSize records the number of snapshots in a batch request.
func RecordBatchSize(n int) {
	globalManager.batchSize.Observe(float64(n))
}

// RecordUnknownPlatform counts a request rejected for an unsupported platform.
func RecordUnknownPlatform() {
	globalManager.unknownPlatforms.Inc()
}

// RecordJobEnqueued counts an accepted recompute job.
func RecordJobEnqueued(trigger string) {
	globalManager.jobsEnqueued.WithLabelValues(trigger).Inc()
}

// RecordJobDuplicate counts a recompute job dropped as a duplicate.
func RecordJobDuplicate() {
	globalManager.jobsDuplicate.Inc()
}

// RecordJobProcessed counts a recompute job whose result was stored.
func RecordJobProcessed() {
	globalManager.jobsProcessed.Inc()
}

// RecordJobFailed counts a recompute job whose result could not be stored.
func RecordJobFailed() {
	globalManager.jobsFailed.Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueRejected counts a job the queue refused, e.g. "full" or "closed".
func RecordQueueRejected(reason string) {
	globalManager.queueRejected.WithLabelValues(reason).Inc()
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerLatency records worker processing latency in milliseconds.
func RecordWorkerLatency(latencyMs float64) {
	globalManager.workerLatency.Observe(latencyMs)
}

// UpdateDirectoryCreators sets the number of creators in the directory.
func UpdateDirectoryCreators(count int) {
	globalManager.directoryCreators.Set(float64(count))
}

// RecordDirectoryLatency records a directory operation latency in milliseconds.
func RecordDirectoryLatency(operation string, latencyMs float64) {
	globalManager.directoryLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error response for an endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// GetRegistry returns the registry the service exposes on /metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
