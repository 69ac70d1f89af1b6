package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector manages Prometheus metric registration and recording for the
// relay.
type Collector struct {
	registry *prometheus.Registry

	// Admission metrics
	decisionsTotal  *prometheus.CounterVec
	activeWindows   prometheus.Gauge
	windowOccupancy prometheus.Histogram

	// HTTP metrics
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	// Upstream provider metrics
	providerRequestsTotal *prometheus.CounterVec
	providerDuration      prometheus.Histogram
}

const (
	namespace = "relay"
)

// NewCollector creates a collector with its own registry. If registry is
// nil, a fresh one is created.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,

		decisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "admission_decisions_total",
				Help:      "Total admission decisions by outcome and scope",
			},
			[]string{"decision", "scope"},
		),

		activeWindows: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "admission_active_windows",
				Help:      "Number of client windows currently tracked",
			},
		),

		windowOccupancy: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "admission_window_occupancy_ratio",
				Help:      "Window fill ratio observed at decision time (0 empty, 1 full)",
				Buckets:   []float64{0.1, 0.25, 0.5, 0.75, 0.9, 0.95, 1.0},
			},
		),

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests by method, path, and status",
			},
			[]string{"method", "path", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				// Chat requests are dominated by the upstream call.
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"method", "path"},
		),

		providerRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_requests_total",
				Help:      "Total upstream provider requests by outcome",
			},
			[]string{"outcome"},
		),

		providerDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_request_duration_seconds",
				Help:      "Upstream provider request duration in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
			},
		),
	}

	registry.MustRegister(
		c.decisionsTotal,
		c.activeWindows,
		c.windowOccupancy,
		c.requestsTotal,
		c.requestDuration,
		c.providerRequestsTotal,
		c.providerDuration,
	)

	return c
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordDecision records one admission decision.
func (c *Collector) RecordDecision(decision, scope string) {
	c.decisionsTotal.WithLabelValues(decision, scope).Inc()
}

// RecordWindowOccupancy records how full a window was at decision time.
func (c *Collector) RecordWindowOccupancy(used, max int) {
	if max <= 0 {
		return
	}
	c.windowOccupancy.Observe(float64(used) / float64(max))
}

// SetActiveWindows records the current number of tracked windows.
func (c *Collector) SetActiveWindows(n int) {
	c.activeWindows.Set(float64(n))
}

// RecordHTTPRequest records one completed HTTP request.
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	c.requestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordProviderRequest records one upstream provider call.
// outcome is "success", "error", or "timeout".
func (c *Collector) RecordProviderRequest(outcome string, duration time.Duration) {
	c.providerRequestsTotal.WithLabelValues(outcome).Inc()
	c.providerDuration.Observe(duration.Seconds())
}
