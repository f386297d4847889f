// Package metrics provides Prometheus metrics for the kiosk.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager owns every Prometheus collector the kiosk exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Acquisition
	framesAcquired      prometheus.Counter
	acquisitionFailures prometheus.Counter
	acquisitionFPS      prometheus.Gauge

	// Capture pipeline
	captures              *prometheus.CounterVec
	captureLatency        prometheus.Histogram
	classificationLatency prometheus.Histogram

	// Mode state machine
	currentMode      prometheus.Gauge
	modeTransitions  *prometheus.CounterVec
	staleTasks       prometheus.Counter
	arcadeSessions   prometheus.Counter
	arcadeScore      prometheus.Gauge
	arcadeFinalScore prometheus.Histogram

	// Display
	framesRendered prometheus.Counter
	streamClients  prometheus.Gauge

	// Command queue
	commandQueueSize     prometheus.Gauge
	commandQueueCapacity prometheus.Gauge
	commandsProcessed    prometheus.Counter
	commandsRejected     *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // process metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "bainoculars",
		subsystem:        "kiosk",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	registry := m.registry
	if !m.enabled {
		// Collectors still work, they just are not exported.
		registry = prometheus.NewRegistry()
	}
	auto := promauto.With(registry)
	labels := prometheus.Labels(m.customLabels)

	counter := func(name, help string) prometheus.Counter {
		return auto.NewCounter(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return auto.NewGauge(prometheus.GaugeOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		})
	}
	histogram := func(name, help string, buckets []float64) prometheus.Histogram {
		return auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels, Buckets: buckets,
		})
	}
	counterVec := func(name, help string, labelNames ...string) *prometheus.CounterVec {
		return auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		}, labelNames)
	}

	m.framesAcquired = counter("frames_acquired_total", "Frames published into the frame buffer")
	m.acquisitionFailures = counter("acquisition_failures_total", "Acquisition cycles where the source returned no frame")
	m.acquisitionFPS = gauge("acquisition_fps", "Measured acquisition rate in frames per second")

	m.captures = counterVec("captures_total", "Capture requests by mode and outcome", "mode", "outcome")
	m.captureLatency = histogram("capture_latency_milliseconds", "End-to-end capture pipeline latency", m.histogramBuckets)
	m.classificationLatency = histogram("classification_latency_milliseconds", "Classifier call latency", m.histogramBuckets)

	m.currentMode = gauge("current_mode", "Active mode (0=menu, 1=explore, 2=arcade)")
	m.modeTransitions = counterVec("mode_transitions_total", "Mode transitions by target mode", "mode")
	m.staleTasks = counter("stale_tasks_total", "Scheduled tasks dropped after a mode transition")
	m.arcadeSessions = counter("arcade_sessions_total", "Arcade sessions started")
	m.arcadeScore = gauge("arcade_score", "Score of the running arcade session")
	m.arcadeFinalScore = histogram("arcade_final_score", "Final arcade scores", []float64{0, 1, 2, 3, 5, 8, 13, 21})

	m.framesRendered = counter("frames_rendered_total", "Frames handed to the display sink")
	m.streamClients = gauge("stream_clients", "Connected display stream clients")

	m.commandQueueSize = gauge("command_queue_size", "Commands waiting for the event loop")
	m.commandQueueCapacity = gauge("command_queue_capacity", "Command queue capacity")
	m.commandsProcessed = counter("commands_processed_total", "Commands executed by the event loop")
	m.commandsRejected = counterVec("commands_rejected_total", "Commands rejected by the queue", "reason")

	m.httpRequests = counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name("http_request_duration_milliseconds"),
		Help: "HTTP request duration in milliseconds", ConstLabels: labels, Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = counterVec("errors_total", "Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = gauge("system_memory_usage_bytes", "Heap memory in use")
	m.systemGoroutineCount = gauge("system_goroutine_count", "Number of goroutines")
}

// RecordFrameAcquired increments the acquired frames counter.
func RecordFrameAcquired() {
	globalManager.framesAcquired.Inc()
}

// RecordAcquisitionFailure increments the acquisition failure counter.
func RecordAcquisitionFailure() {
	globalManager.acquisitionFailures.Inc()
}

// UpdateAcquisitionFPS sets the measured acquisition rate.
func UpdateAcquisitionFPS(fps float64) {
	globalManager.acquisitionFPS.Set(fps)
}

// RecordCapture counts a capture by mode and outcome.
func RecordCapture(mode, outcome string) {
	globalManager.captures.WithLabelValues(mode, outcome).Inc()
}

// RecordCaptureLatency records the capture pipeline latency in milliseconds.
func RecordCaptureLatency(latencyMs float64) {
	globalManager.captureLatency.Observe(latencyMs)
}

// RecordClassificationLatency records the classifier latency in milliseconds.
func RecordClassificationLatency(latencyMs float64) {
	globalManager.classificationLatency.Observe(latencyMs)
}

// UpdateCurrentMode sets the active mode gauge.
func UpdateCurrentMode(mode int) {
	globalManager.currentMode.Set(float64(mode))
}

// RecordModeTransition counts a transition into mode.
func RecordModeTransition(mode string) {
	globalManager.modeTransitions.WithLabelValues(mode).Inc()
}

// RecordStaleTask counts a scheduled task dropped by the generation check.
func RecordStaleTask() {
	globalManager.staleTasks.Inc()
}

// RecordArcadeSession counts a started arcade session.
func RecordArcadeSession() {
	globalManager.arcadeSessions.Inc()
}

// UpdateArcadeScore sets the score of the running session.
func UpdateArcadeScore(score int) {
	globalManager.arcadeScore.Set(float64(score))
}

// RecordArcadeFinalScore observes a finished session's score.
func RecordArcadeFinalScore(score int) {
	globalManager.arcadeFinalScore.Observe(float64(score))
}

// RecordFrameRendered increments the rendered frames counter.
func RecordFrameRendered() {
	globalManager.framesRendered.Inc()
}

// UpdateStreamClients sets the number of connected stream clients.
func UpdateStreamClients(n int) {
	globalManager.streamClients.Set(float64(n))
}

// UpdateCommandQueueSize sets the number of pending commands.
func UpdateCommandQueueSize(size int) {
	globalManager.commandQueueSize.Set(float64(size))
}

// UpdateCommandQueueCapacity sets the command queue capacity.
func UpdateCommandQueueCapacity(capacity int) {
	globalManager.commandQueueCapacity.Set(float64(capacity))
}

// RecordCommandProcessed increments the processed commands counter.
func RecordCommandProcessed() {
	globalManager.commandsProcessed.Inc()
}

// RecordCommandRejected counts a rejected command by reason.
func RecordCommandRejected(reason string) {
	globalManager.commandsRejected.WithLabelValues(reason).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordError counts an error for component.
func RecordError(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the registry the kiosk metrics are registered on.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// RefreshInterval is how often periodic gauges should be refreshed.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}
