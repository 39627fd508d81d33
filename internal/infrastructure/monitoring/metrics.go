package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Proxy metrics
	RewriteOutcomes *prometheus.CounterVec
	TargetsActive   prometheus.Gauge

	// Tracking metrics
	TrackingEvents    *prometheus.CounterVec
	StreamSubscribers prometheus.Gauge

	// WordPress API metrics
	UpstreamCalls    *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pressview_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pressview_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		ResponseSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pressview_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		RewriteOutcomes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pressview_proxy_rewrites_total",
				Help: "Proxied responses by rewrite outcome",
			},
			[]string{"outcome"},
		),
		TargetsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "pressview_proxy_targets_active",
				Help: "Number of registered proxy targets",
			},
		),

		TrackingEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pressview_tracking_events_total",
				Help: "Tracking events received from the injected script",
			},
			[]string{"type"},
		),
		StreamSubscribers: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "pressview_stream_subscribers",
				Help: "Connected event-stream subscribers (SSE and WebSocket)",
			},
		),

		UpstreamCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pressview_wordpress_calls_total",
				Help: "WordPress REST API calls",
			},
			[]string{"operation", "status"},
		),
		UpstreamDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pressview_wordpress_duration_seconds",
				Help:    "WordPress REST API call duration in seconds",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"operation"},
		),

		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "pressview_uptime_seconds",
				Help: "Server uptime in seconds",
			},
		),
	}

	go m.updateUptime()

	return m
}

func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
}

// RecordRewrite records a proxied response by its rewrite outcome. The
// signature matches the rewriter's observer hook.
func (m *Metrics) RecordRewrite(outcome string) {
	m.RewriteOutcomes.WithLabelValues(outcome).Inc()
}

// RecordTrackingEvent records a received tracking event by type.
func (m *Metrics) RecordTrackingEvent(eventType string) {
	if eventType == "" {
		eventType = "unknown"
	}
	m.TrackingEvents.WithLabelValues(eventType).Inc()
}

// RecordUpstreamCall records a WordPress API call.
func (m *Metrics) RecordUpstreamCall(operation, status string, duration time.Duration) {
	m.UpstreamCalls.WithLabelValues(operation, status).Inc()
	m.UpstreamDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetTargetsActive sets the registered proxy target count.
func (m *Metrics) SetTargetsActive(count int) {
	m.TargetsActive.Set(float64(count))
}

// IncStreamSubscribers increments the connected subscriber gauge.
func (m *Metrics) IncStreamSubscribers() {
	m.StreamSubscribers.Inc()
}

// DecStreamSubscribers decrements the connected subscriber gauge.
func (m *Metrics) DecStreamSubscribers() {
	m.StreamSubscribers.Dec()
}
