package monitoring

import (
	"sync"
	"time"

	"github.com/GriffinCanCode/Playground/backend/internal/domain/playground"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Session metrics
	SessionsActive prometheus.Gauge
	SessionsTotal  prometheus.Counter
	SessionsReaped prometheus.Counter

	// Preview pipeline metrics
	Edits         *prometheus.CounterVec
	Compositions  prometheus.Counter
	Cancelled     prometheus.Counter
	DocumentBytes prometheus.Histogram

	// Probe metrics
	ProbeRuns     *prometheus.CounterVec
	ProbeDuration prometheus.Histogram

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests     int64   `json:"total_requests"`
	TotalErrors       int64   `json:"total_errors"`
	ActiveSessions    int64   `json:"active_sessions"`
	ActiveConnections int64   `json:"active_connections"`
	Edits             int64   `json:"edits"`
	Compositions      int64   `json:"compositions"`
	Superseded        int64   `json:"superseded"`
	TotalDuration     float64 `json:"-"`
	RequestCount      int64   `json:"-"`
	AvgLatencyMS      float64 `json:"avg_latency_ms"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// NewMetrics creates a new metrics collector on a private registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "playground_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "playground_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "playground_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		// Session metrics
		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "playground_sessions_active",
				Help: "Number of live playground sessions",
			},
		),
		SessionsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "playground_sessions_total",
				Help: "Total number of playground sessions created",
			},
		),
		SessionsReaped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "playground_sessions_reaped_total",
				Help: "Total number of sessions closed for inactivity",
			},
		),

		// Preview pipeline metrics
		Edits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_edits_total",
				Help: "Total number of buffer edits",
			},
			[]string{"kind"},
		),
		Compositions: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "playground_compositions_total",
				Help: "Total number of composed preview documents",
			},
		),
		Cancelled: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "playground_debounce_superseded_total",
				Help: "Total number of pending compositions cancelled by a newer edit",
			},
		),
		DocumentBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "playground_document_size_bytes",
				Help:    "Composed document size in bytes",
				Buckets: prometheus.ExponentialBuckets(256, 4, 8),
			},
		),

		// Probe metrics
		ProbeRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_probe_runs_total",
				Help: "Total number of headless probe runs",
			},
			[]string{"outcome"},
		),
		ProbeDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "playground_probe_duration_seconds",
				Help:    "Headless probe run duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "playground_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "playground_uptime_seconds",
			Help: "Service uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry returns the registry the metrics are registered on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	// Update snapshot
	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// RecordProbe records one headless probe run
func (m *Metrics) RecordProbe(outcome string, duration time.Duration) {
	m.ProbeRuns.WithLabelValues(outcome).Inc()
	m.ProbeDuration.Observe(duration.Seconds())
}

// SetSessionsActive sets the number of live sessions
func (m *Metrics) SetSessionsActive(count int) {
	m.SessionsActive.Set(float64(count))
	m.mu.Lock()
	m.snapshot.ActiveSessions = int64(count)
	m.mu.Unlock()
}

// IncSessionsTotal increments the created sessions counter
func (m *Metrics) IncSessionsTotal() {
	m.SessionsTotal.Inc()
}

// IncSessionsReaped increments the reaped sessions counter
func (m *Metrics) IncSessionsReaped() {
	m.SessionsReaped.Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// Edited implements playground.Observer
func (m *Metrics) Edited(kind playground.Kind) {
	m.Edits.WithLabelValues(kind.String()).Inc()
	m.mu.Lock()
	m.snapshot.Edits++
	m.mu.Unlock()
}

// Superseded implements playground.Observer
func (m *Metrics) Superseded() {
	m.Cancelled.Inc()
	m.mu.Lock()
	m.snapshot.Superseded++
	m.mu.Unlock()
}

// Composed implements playground.Observer
func (m *Metrics) Composed(doc playground.Document) {
	m.Compositions.Inc()
	m.DocumentBytes.Observe(float64(len(doc.HTML)))
	m.mu.Lock()
	m.snapshot.Compositions++
	m.mu.Unlock()
}

// Snapshot returns the current values for the JSON API
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snapshot
	if s.RequestCount > 0 {
		s.AvgLatencyMS = s.TotalDuration / float64(s.RequestCount) * 1000
	}
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}

var _ playground.Observer = (*Metrics)(nil)
