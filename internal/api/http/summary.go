package http

import (
	"net/http"
	"time"

	"github.com/GriffinCanCode/Playground/backend/internal/domain/session"
	"github.com/GriffinCanCode/Playground/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/Playground/backend/internal/preview/sandbox"
	"github.com/gin-gonic/gin"
)

// MetricsSnapshot represents a snapshot of the service
type MetricsSnapshot struct {
	Timestamp time.Time                   `json:"timestamp"`
	Backend   *monitoring.MetricsSnapshot `json:"backend,omitempty"`
	Sessions  session.Stats               `json:"sessions"`
	Probe     *sandbox.PoolStats          `json:"probe,omitempty"`
	Catalog   CatalogSummary              `json:"catalog"`
	Summary   MetricsSummary              `json:"summary"`
}

// CatalogSummary describes where challenges come from
type CatalogSummary struct {
	Challenges    int    `json:"challenges"`
	RemoteURL     string `json:"remote_url,omitempty"`
	RemoteBreaker string `json:"remote_breaker,omitempty"`
}

// MetricsSummary provides high-level metrics
type MetricsSummary struct {
	TotalRequests     int64   `json:"total_requests"`
	AverageLatencyMs  float64 `json:"average_latency_ms"`
	ErrorRate         float64 `json:"error_rate"`
	ActiveConnections int64   `json:"active_connections"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// Summary returns metrics, session and probe state as JSON. The Prometheus
// exposition lives at /metrics.
func (h *Handlers) Summary(c *gin.Context) {
	snapshot := MetricsSnapshot{
		Timestamp: time.Now(),
		Sessions:  h.sessions.Stats(),
		Catalog:   CatalogSummary{Challenges: h.sessions.Catalog().Len()},
	}

	if h.metrics != nil {
		backend := h.metrics.Snapshot()
		snapshot.Backend = &backend
		snapshot.Summary = summarize(backend)
	}
	if h.probe != nil {
		stats := h.probe.Stats()
		snapshot.Probe = &stats
	}
	if h.remote != nil {
		snapshot.Catalog.RemoteURL = h.remote.URL()
		snapshot.Catalog.RemoteBreaker = h.remote.Breaker().State().String()
	}

	c.JSON(http.StatusOK, snapshot)
}

func summarize(s monitoring.MetricsSnapshot) MetricsSummary {
	var errorRate float64
	if s.TotalRequests > 0 {
		errorRate = float64(s.TotalErrors) / float64(s.TotalRequests)
	}
	return MetricsSummary{
		TotalRequests:     s.TotalRequests,
		AverageLatencyMs:  s.AvgLatencyMS,
		ErrorRate:         errorRate,
		ActiveConnections: s.ActiveConnections,
		UptimeSeconds:     s.UptimeSeconds,
	}
}
