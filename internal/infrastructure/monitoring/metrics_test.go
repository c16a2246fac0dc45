package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GriffinCanCode/Playground/backend/internal/domain/playground"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewMetricsIsolated(t *testing.T) {
	// Private registries make repeated construction safe
	a := NewMetrics()
	b := NewMetrics()

	a.SetSessionsActive(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(a.SessionsActive))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.SessionsActive))
}

func TestObserver(t *testing.T) {
	m := NewMetrics()

	m.Edited(playground.Markup)
	m.Edited(playground.Markup)
	m.Edited(playground.Script)
	m.Superseded()
	m.Composed(playground.Document{Version: 1, HTML: playground.Compose(playground.Snapshot{})})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Edits.WithLabelValues("markup")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Edits.WithLabelValues("script")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Cancelled))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Compositions))

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.Edits)
	assert.Equal(t, int64(1), snap.Superseded)
	assert.Equal(t, int64(1), snap.Compositions)
}

func TestMiddlewareRecordsRouteTemplate(t *testing.T) {
	m := NewMetrics()
	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/sessions/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sessions/play_123", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/sessions/:id", "404")))
	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.TotalErrors)
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewMetrics()
	NewTimer(m).Stop("ok")
	m.IncWSConnections()
	m.RecordWSMessage("in", "change")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `playground_probe_runs_total{outcome="ok"} 1`)
	assert.Contains(t, body, "playground_ws_connections 1")
	assert.Contains(t, body, "playground_uptime_seconds")
	assert.Equal(t, int64(1), m.Snapshot().ActiveConnections)
}
