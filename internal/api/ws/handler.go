package ws

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/GriffinCanCode/Playground/backend/internal/domain/playground"
	"github.com/GriffinCanCode/Playground/backend/internal/domain/session"
	"github.com/GriffinCanCode/Playground/backend/internal/shared/id"
	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var errUnknownType = errors.New("unknown message type")

// Metrics receives connection and message counts
type Metrics interface {
	IncWSConnections()
	DecWSConnections()
	RecordWSMessage(direction, msgType string)
}

type nopMetrics struct{}

func (nopMetrics) IncWSConnections()              {}
func (nopMetrics) DecWSConnections()              {}
func (nopMetrics) RecordWSMessage(string, string) {}

// Config configures a Handler
type Config struct {
	// AllowOrigins lists accepted Origin headers; "*" accepts any
	AllowOrigins []string
	MaxMessage   int64
	WriteTimeout time.Duration
	PongWait     time.Duration
	Logger       *zap.Logger
	Metrics      Metrics
}

// Handler manages WebSocket connections
type Handler struct {
	sessions *session.Manager
	upgrader websocket.Upgrader
	cfg      Config
	logger   *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(sessions *session.Manager, cfg Config) *Handler {
	if cfg.MaxMessage <= 0 {
		cfg.MaxMessage = 1 << 20
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = 60 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = nopMetrics{}
	}

	h := &Handler{sessions: sessions, cfg: cfg, logger: cfg.Logger}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || slices.Contains(h.cfg.AllowOrigins, "*") {
		return true
	}
	return slices.Contains(h.cfg.AllowOrigins, origin)
}

// HandleConnection upgrades the request and binds a new session to it. The
// challenge query parameter selects the starter placeholders.
func (h *Handler) HandleConnection(c *gin.Context) {
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	cn := &conn{
		id:           id.NewConnID(),
		ws:           ws,
		metrics:      h.cfg.Metrics,
		writeTimeout: h.cfg.WriteTimeout,
	}
	cn.logger = h.logger.With(zap.String("conn", string(cn.id)))

	h.cfg.Metrics.IncWSConnections()
	defer h.cfg.Metrics.DecWSConnections()

	s, err := h.sessions.Create(session.Options{
		ChallengeID: c.Query("challenge"),
		Sink:        cn,
		OnReport:    cn.report,
		OnClose: func(reason string) {
			// closed elsewhere: reaper, shutdown or the REST API
			cn.close(websocket.CloseGoingAway, reason)
		},
	})
	if err != nil {
		cn.logger.Warn("Session rejected", zap.Error(err))
		cn.sendError(err)
		cn.close(websocket.CloseTryAgainLater, "session limit reached")
		return
	}
	cn.logger = cn.logger.With(zap.String("session", string(s.ID)))
	cn.logger.Info("Preview stream opened", zap.String("challenge", s.Challenge.ID))

	defer func() {
		// the socket goes first so OnClose finds it closed
		cn.close(websocket.CloseNormalClosure, "")
		if err := h.sessions.Close(s.ID); err != nil && !errors.Is(err, session.ErrSessionNotFound) {
			cn.logger.Warn("Failed to close session", zap.Error(err))
		}
		cn.logger.Info("Preview stream closed")
	}()

	if err := cn.send(sessionMessage(s)); err != nil {
		cn.logger.Debug("Failed to send session", zap.Error(err))
		return
	}

	done := make(chan struct{})
	defer close(done)
	go h.keepalive(cn, done)

	h.readLoop(cn, s)
}

func sessionMessage(s *session.Session) ServerMessage {
	info := s.Info()
	ch := s.Challenge
	editor := s.Workspace.ActiveView()
	msg := ServerMessage{
		Type:      TypeSession,
		Session:   &info,
		Challenge: &ch,
		Editor:    &editor,
	}
	for _, kind := range playground.Kinds() {
		msg.Views = append(msg.Views, s.Workspace.View(kind))
	}
	return msg
}

func (h *Handler) readLoop(cn *conn, s *session.Session) {
	cn.ws.SetReadLimit(h.cfg.MaxMessage)
	_ = cn.ws.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	cn.ws.SetPongHandler(func(string) error {
		return cn.ws.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	})

	for {
		_, data, err := cn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				cn.logger.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}
		_ = cn.ws.SetReadDeadline(time.Now().Add(h.cfg.PongWait))

		var msg ClientMessage
		if err := sonic.Unmarshal(data, &msg); err != nil {
			cn.sendError(fmt.Errorf("malformed message: %w", err))
			continue
		}
		h.cfg.Metrics.RecordWSMessage("in", msg.Type)

		if err := h.dispatch(cn, s, msg); err != nil {
			cn.sendError(err)
		}
	}
}

func (h *Handler) dispatch(cn *conn, s *session.Session, msg ClientMessage) error {
	switch msg.Type {
	case TypeChange:
		// unresolvable kinds leave the buffers untouched
		_, err := s.Workspace.HandleChange(playground.ChangeEvent{
			Kind:     msg.Kind,
			Language: msg.Language,
			Text:     msg.Text,
		})
		return err
	case TypeSelect:
		kind, err := playground.ParseKind(msg.Kind)
		if err != nil {
			return err
		}
		view, err := s.Workspace.Select(kind)
		if err != nil {
			return err
		}
		return cn.send(ServerMessage{Type: TypeEditor, Editor: &view})
	case TypePing:
		return cn.send(ServerMessage{Type: TypePong})
	default:
		return fmt.Errorf("%w: %q", errUnknownType, msg.Type)
	}
}

// keepalive pings the peer so dead connections fail their read deadline
func (h *Handler) keepalive(cn *conn, done <-chan struct{}) {
	ticker := time.NewTicker(h.cfg.PongWait * 9 / 10)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := cn.ping(); err != nil {
				return
			}
		}
	}
}
