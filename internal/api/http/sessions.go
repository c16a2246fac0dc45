package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/GriffinCanCode/Playground/backend/internal/domain/challenge"
	"github.com/GriffinCanCode/Playground/backend/internal/domain/playground"
	"github.com/GriffinCanCode/Playground/backend/internal/domain/session"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var errBadRequest = errors.New("invalid request body")

// CreateSessionRequest starts a session for a challenge
type CreateSessionRequest struct {
	ChallengeID string `json:"challenge_id"`
}

// SetBufferRequest replaces one buffer
type SetBufferRequest struct {
	Text *string `json:"text"`
}

// SelectRequest switches the active kind
type SelectRequest struct {
	Kind string `json:"kind" binding:"required"`
}

// SessionResponse is the full state of one session
type SessionResponse struct {
	Session   session.Info            `json:"session"`
	Challenge challenge.Challenge     `json:"challenge"`
	Editor    playground.EditorView   `json:"editor"`
	Views     []playground.EditorView `json:"views"`
	Buffers   playground.Snapshot     `json:"buffers"`
	Document  *playground.Document    `json:"document,omitempty"`
}

func sessionResponse(s *session.Session) SessionResponse {
	resp := SessionResponse{
		Session:   s.Info(),
		Challenge: s.Challenge,
		Editor:    s.Workspace.ActiveView(),
		Buffers:   s.Workspace.Snapshot(),
	}
	for _, kind := range playground.Kinds() {
		resp.Views = append(resp.Views, s.Workspace.View(kind))
	}
	if doc, ok := s.Workspace.Document(); ok {
		resp.Document = &doc
	}
	return resp
}

// CreateSession starts a session. An empty body uses the default challenge.
func (h *Handlers) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
	}

	s, err := h.sessions.Create(session.Options{ChallengeID: req.ChallengeID})
	if err != nil {
		h.logger.Warn("Session rejected", zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sessionResponse(s))
}

// ListSessions lists all live sessions
func (h *Handlers) ListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"sessions": h.sessions.List(),
		"stats":    h.sessions.Stats(),
	})
}

// GetSession returns the buffers, active kind and latest document version
func (h *Handlers) GetSession(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sessionResponse(s))
}

// CloseSession tears a session down, cancelling any pending composition
func (h *Handlers) CloseSession(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	if err := h.sessions.Close(s.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"session_id": s.ID,
	})
}

// SetBuffer replaces the buffer named by :kind
func (h *Handlers) SetBuffer(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	kind, err := playground.ParseKind(c.Param("kind"))
	if err != nil {
		respondError(c, err)
		return
	}

	var req SetBufferRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Text == nil {
		respondError(c, fmt.Errorf("%w: text is required", errBadRequest))
		return
	}
	if err := s.Workspace.SetBuffer(kind, *req.Text); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"kind":    kind,
		"pending": s.Workspace.Pending(),
		"editor":  s.Workspace.View(kind),
	})
}

// SelectKind switches the active kind and returns what the editor shows
func (h *Handlers) SelectKind(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}

	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	kind, err := playground.ParseKind(req.Kind)
	if err != nil {
		respondError(c, err)
		return
	}
	view, err := s.Workspace.Select(kind)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// EditorView returns the language tag and text of one kind without selecting it
func (h *Handlers) EditorView(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	kind, err := playground.ParseKind(c.Param("kind"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Workspace.View(kind))
}

// Console returns the latest headless probe report
func (h *Handlers) Console(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	report, ok := s.Recorder.Report()
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, report)
}
