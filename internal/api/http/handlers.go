package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/GriffinCanCode/Playground/backend/internal/domain/challenge"
	"github.com/GriffinCanCode/Playground/backend/internal/domain/playground"
	"github.com/GriffinCanCode/Playground/backend/internal/domain/session"
	"github.com/GriffinCanCode/Playground/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/Playground/backend/internal/preview"
	"github.com/GriffinCanCode/Playground/backend/internal/shared/id"
	"github.com/GriffinCanCode/Playground/backend/internal/shared/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Version is reported by the root endpoint
const Version = "1.0.0"

var errInvalidSessionID = errors.New("invalid session id")

// Deps are the collaborators of the handlers. Probe, Remote and Metrics
// may be nil.
type Deps struct {
	Sessions *session.Manager
	Metrics  *monitoring.Metrics
	Probe    *preview.Probe
	Remote   *challenge.RemoteSource
	Logger   *zap.Logger
}

// Handlers contains all HTTP handlers
type Handlers struct {
	sessions *session.Manager
	metrics  *monitoring.Metrics
	probe    *preview.Probe
	remote   *challenge.RemoteSource
	logger   *zap.Logger
	hasher   *utils.Hasher
	started  time.Time
}

// NewHandlers creates a new handler set
func NewHandlers(deps Deps) *Handlers {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		sessions: deps.Sessions,
		metrics:  deps.Metrics,
		probe:    deps.Probe,
		remote:   deps.Remote,
		logger:   logger,
		hasher:   utils.DefaultHasher(),
		started:  time.Now(),
	}
}

// Register mounts every route on r
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/metrics/summary", h.Summary)

	r.GET("/challenges", h.ListChallenges)
	r.GET("/challenges/:challengeId", h.ChallengePage)

	sessions := r.Group("/sessions")
	{
		sessions.POST("", h.CreateSession)
		sessions.GET("", h.ListSessions)
		sessions.GET("/:id", h.GetSession)
		sessions.DELETE("/:id", h.CloseSession)
		sessions.PUT("/:id/buffers/:kind", h.SetBuffer)
		sessions.PUT("/:id/active", h.SelectKind)
		sessions.GET("/:id/editor/:kind", h.EditorView)
		sessions.GET("/:id/document", h.Document)
		sessions.POST("/:id/compose", h.Compose)
		sessions.GET("/:id/console", h.Console)
		sessions.POST("/:id/logs", h.StreamLogs)
	}
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "Challenge Playground",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	resp := gin.H{
		"status":     "healthy",
		"uptime":     time.Since(h.started).Round(time.Second).String(),
		"sessions":   h.sessions.Stats(),
		"challenges": h.sessions.Catalog().Len(),
		"probe":      gin.H{"enabled": h.probe != nil},
	}
	if h.probe != nil {
		resp["probe"] = gin.H{"enabled": true, "pool": h.probe.Stats()}
	}
	c.JSON(http.StatusOK, resp)
}

// lookup resolves the :id parameter, writing the error response itself
func (h *Handlers) lookup(c *gin.Context) (*session.Session, bool) {
	raw := c.Param("id")
	if !id.IsSessionID(raw) {
		respondError(c, errInvalidSessionID)
		return nil, false
	}
	s, err := h.sessions.Get(id.SessionID(raw))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return s, true
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrTooManySessions):
		return http.StatusServiceUnavailable
	case errors.Is(err, playground.ErrWorkspaceClosed):
		return http.StatusGone
	case errors.Is(err, playground.ErrUnknownKind),
		errors.Is(err, playground.ErrUnresolvedChange),
		errors.Is(err, errInvalidSessionID),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
}
