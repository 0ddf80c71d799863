// Package metrics provides Prometheus metrics for the kutu document service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the kutu service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Pipeline
	documentsRendered *prometheus.CounterVec
	rankedRows        prometheus.Counter
	inputRowsDropped  prometheus.Counter

	// Compilation
	compileJobs     *prometheus.CounterVec
	compileFailures *prometheus.CounterVec
	compileDuration prometheus.Histogram
	compileInFlight prometheus.Gauge

	// Artifact cache
	cacheHits    prometheus.Counter
	cacheMisses  prometheus.Counter
	cacheEntries prometheus.Gauge

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter
	queueWaitLatency   prometheus.Histogram

	// Workers
	workerActiveCount       prometheus.Gauge
	workerBusyCount         prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	// Errors
	errorRateByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Latency buckets in milliseconds; engine runs take seconds.
var defaultBuckets = []float64{5, 25, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000} //nolint:gochecknoglobals // read-only

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "kutu",
		subsystem:        "documents",
		histogramBuckets: defaultBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	counter := func(name, help string) prometheus.Counter {
		return auto.NewCounter(prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return auto.NewGauge(prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help})
	}
	histogram := func(name, help string) prometheus.Histogram {
		return auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
		})
	}
	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return auto.NewCounterVec(prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help}, labels)
	}

	m.documentsRendered = counterVec("documents_rendered_total", "Documents serialised to engine source by kind", "kind")
	m.rankedRows = counter("ranked_rows_total", "Athlete rows ranked across all categories")
	m.inputRowsDropped = counter("input_rows_dropped_total", "Malformed input rows skipped by the ingestor")

	m.compileJobs = counterVec("compile_jobs_total", "Compilation jobs by outcome", "outcome")
	m.compileFailures = counterVec("compile_failures_total", "Compilation failures by reason", "reason")
	m.compileDuration = histogram("compile_duration_milliseconds", "Engine run duration in milliseconds")
	m.compileInFlight = gauge("compile_in_flight", "Engine processes currently running")

	m.cacheHits = counter("artifact_cache_hits_total", "Compiled artifacts served from memory")
	m.cacheMisses = counter("artifact_cache_misses_total", "Artifact cache lookups that required compilation")
	m.cacheEntries = gauge("artifact_cache_entries", "Artifacts currently held in memory")

	m.queueSize = gauge("queue_size", "Compile jobs waiting in the queue")
	m.queueCapacity = gauge("queue_capacity", "Maximum compile queue capacity")
	m.queueUtilization = gauge("queue_utilization_ratio", "Queue size divided by capacity")
	m.queueEnqueueRate = counter("queue_enqueue_total", "Compile jobs enqueued")
	m.queueDequeueRate = counter("queue_dequeue_total", "Compile jobs dequeued")
	m.queueEnqueueErrors = counter("queue_enqueue_errors_total", "Compile jobs rejected because the queue was full or closed")
	m.queueWaitLatency = histogram("queue_wait_milliseconds", "Time a compile job waited before a worker picked it up")

	m.workerActiveCount = gauge("worker_active_count", "Workers started in the pool")
	m.workerBusyCount = gauge("worker_busy_count", "Workers currently running a job")
	m.workerProcessingLatency = histogram("worker_processing_latency_milliseconds", "Job processing time in milliseconds")
	m.workerErrors = counter("worker_errors_total", "Jobs that finished with an error")

	m.httpRequests = counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
	m.errorRateByEndpoint = counterVec("errors_by_endpoint_total", "Errors by endpoint, method and error type",
		"endpoint", "method", "error_type")

	m.errorRateByComponent = counterVec("errors_by_component_total", "Errors by component and error type",
		"component", "error_type")

	m.systemMemoryUsage = gauge("system_memory_bytes", "Heap memory in use")
	m.systemGoroutineCount = gauge("system_goroutines", "Number of goroutines")
}

// RecordDocumentRendered counts a rendered document of kind.
func RecordDocumentRendered(kind string) {
	if globalManager.enabled {
		globalManager.documentsRendered.WithLabelValues(kind).Inc()
	}
}

// RecordRankedRows adds n ranked rows.
func RecordRankedRows(n int) {
	if globalManager.enabled {
		globalManager.rankedRows.Add(float64(n))
	}
}

// RecordInputRowsDropped adds n skipped input rows.
func RecordInputRowsDropped(n int) {
	if globalManager.enabled {
		globalManager.inputRowsDropped.Add(float64(n))
	}
}

// RecordCompileJob counts a finished compilation with outcome "success" or "failure".
func RecordCompileJob(outcome string) {
	if globalManager.enabled {
		globalManager.compileJobs.WithLabelValues(outcome).Inc()
	}
}

// RecordCompileFailure counts a compilation failure by reason.
func RecordCompileFailure(reason string) {
	if globalManager.enabled {
		globalManager.compileFailures.WithLabelValues(reason).Inc()
	}
}

// RecordCompileDuration records an engine run in milliseconds.
func RecordCompileDuration(latencyMs float64) {
	if globalManager.enabled {
		globalManager.compileDuration.Observe(latencyMs)
	}
}

// AddCompileInFlight adjusts the running engine process gauge.
func AddCompileInFlight(delta int) {
	if globalManager.enabled {
		globalManager.compileInFlight.Add(float64(delta))
	}
}

// RecordCacheHit increments the artifact cache hit counter.
func RecordCacheHit() {
	if globalManager.enabled {
		globalManager.cacheHits.Inc()
	}
}

// RecordCacheMiss increments the artifact cache miss counter.
func RecordCacheMiss() {
	if globalManager.enabled {
		globalManager.cacheMisses.Inc()
	}
}

// UpdateCacheEntries sets the artifact cache size.
func UpdateCacheEntries(n int) {
	if globalManager.enabled {
		globalManager.cacheEntries.Set(float64(n))
	}
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	if globalManager.enabled {
		globalManager.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	if globalManager.enabled {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	if globalManager.enabled {
		globalManager.queueUtilization.Set(utilization)
	}
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	if globalManager.enabled {
		globalManager.queueEnqueueRate.Inc()
	}
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	if globalManager.enabled {
		globalManager.queueDequeueRate.Inc()
	}
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	if globalManager.enabled {
		globalManager.queueEnqueueErrors.Inc()
	}
}

// RecordQueueWaitLatency records how long a job waited in the queue.
func RecordQueueWaitLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.queueWaitLatency.Observe(latencyMs)
	}
}

// UpdateWorkerActiveCount sets the number of started workers.
func UpdateWorkerActiveCount(count int) {
	if globalManager.enabled {
		globalManager.workerActiveCount.Set(float64(count))
	}
}

// AddWorkerBusy adjusts the number of workers running a job.
func AddWorkerBusy(delta int) {
	if globalManager.enabled {
		globalManager.workerBusyCount.Add(float64(delta))
	}
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.workerProcessingLatency.Observe(latencyMs)
	}
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	if globalManager.enabled {
		globalManager.workerErrors.Inc()
	}
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if globalManager.enabled {
		globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if globalManager.enabled {
		globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if globalManager.enabled {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if globalManager.enabled {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// SetEnabled toggles recording on the global manager.
func SetEnabled(enabled bool) {
	globalManager.enabled = enabled
}

// Configure rebuilds the global manager on a fresh registry with opts.
// Call it once at startup, before metrics are recorded or exposed.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	opts = append(opts, WithPrometheusRegistry(registry))
	globalManager = NewManager(opts...)
	customRegistry = registry
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
