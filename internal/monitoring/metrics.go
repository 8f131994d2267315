package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Engine metrics
	FileOps             *prometheus.CounterVec
	FileOpDuration      *prometheus.HistogramVec
	TraversalRejections prometheus.Counter

	// Volume gauges, refreshed whenever stats are aggregated
	VolumeFiles       prometheus.Gauge
	VolumeDirectories prometheus.Gauge
	VolumeBytes       prometheus.Gauge

	startTime time.Time
}

// NewMetrics creates a metrics collector with its own registry so multiple
// instances can coexist in one process.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry:  registry,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volumed_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "volumed_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "volumed_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		FileOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volumed_file_operations_total",
				Help: "Total file operations by verb and outcome",
			},
			[]string{"op", "status"},
		),
		FileOpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "volumed_file_operation_duration_seconds",
				Help:    "File operation duration in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"op"},
		),
		TraversalRejections: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "volumed_traversal_rejections_total",
				Help: "Total path traversal attempts rejected by the resolver",
			},
		),

		VolumeFiles: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "volumed_volume_files",
				Help: "Files in the volume at last aggregation",
			},
		),
		VolumeDirectories: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "volumed_volume_directories",
				Help: "Directories in the volume at last aggregation",
			},
		),
		VolumeBytes: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "volumed_volume_size_bytes",
				Help: "Total bytes in the volume at last aggregation",
			},
		),
	}
}

// Registry exposes the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// RecordHTTPRequest records a completed HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	if respSize >= 0 {
		m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
	}
}

// RecordFileOp records one engine operation.
func (m *Metrics) RecordFileOp(op, status string, duration time.Duration) {
	m.FileOps.WithLabelValues(op, status).Inc()
	m.FileOpDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordTraversal counts a rejected traversal attempt.
func (m *Metrics) RecordTraversal() {
	m.TraversalRejections.Inc()
}

// SetVolumeStats refreshes the volume gauges.
func (m *Metrics) SetVolumeStats(files, dirs, bytes int64) {
	m.VolumeFiles.Set(float64(files))
	m.VolumeDirectories.Set(float64(dirs))
	m.VolumeBytes.Set(float64(bytes))
}

// UptimeSeconds reports how long the process has been up.
func (m *Metrics) UptimeSeconds() float64 {
	return time.Since(m.startTime).Seconds()
}
