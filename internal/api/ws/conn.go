package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/GriffinCanCode/Playground/backend/internal/domain/playground"
	"github.com/GriffinCanCode/Playground/backend/internal/preview"
	"github.com/GriffinCanCode/Playground/backend/internal/shared/id"
	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var errConnClosed = errors.New("connection closed")

// conn serialises writes to one WebSocket. gorilla allows a single
// concurrent writer; the debouncer, the probe and the read loop all send.
type conn struct {
	id           id.ConnID
	ws           *websocket.Conn
	logger       *zap.Logger
	metrics      Metrics
	writeTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

func (c *conn) send(msg ServerMessage) error {
	msg.Timestamp = time.Now().Unix()
	data, err := sonic.Marshal(msg)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errConnClosed
	}
	_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	c.metrics.RecordWSMessage("out", msg.Type)
	return nil
}

func (c *conn) sendError(err error) {
	if sendErr := c.send(ServerMessage{Type: TypeError, Error: err.Error()}); sendErr != nil {
		c.logger.Debug("Failed to send error", zap.Error(sendErr))
	}
}

func (c *conn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errConnClosed
	}
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout))
}

// close sends a close frame with code and reason, then closes the socket
func (c *conn) close(code int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	msg := websocket.FormatCloseMessage(code, reason)
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.writeTimeout))
	_ = c.ws.Close()
}

// Render implements playground.Sink
func (c *conn) Render(ctx context.Context, doc playground.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.send(ServerMessage{
		Type:    TypePreview,
		Version: doc.Version,
		Srcdoc:  doc.HTML,
	})
}

func (c *conn) report(report preview.Report) {
	if err := c.send(ServerMessage{Type: TypeConsole, Report: &report}); err != nil && !errors.Is(err, errConnClosed) {
		c.logger.Debug("Failed to send probe report", zap.Error(err))
	}
}

var _ playground.Sink = (*conn)(nil)
