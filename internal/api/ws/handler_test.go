package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/GriffinCanCode/Playground/backend/internal/domain/challenge"
	"github.com/GriffinCanCode/Playground/backend/internal/domain/playground"
	"github.com/GriffinCanCode/Playground/backend/internal/domain/session"
	"github.com/GriffinCanCode/Playground/backend/internal/preview"
	"github.com/GriffinCanCode/Playground/backend/internal/preview/sandbox"
	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingMetrics struct {
	mu       sync.Mutex
	open     int
	messages map[string]int
}

func (m *countingMetrics) IncWSConnections() { m.mu.Lock(); m.open++; m.mu.Unlock() }
func (m *countingMetrics) DecWSConnections() { m.mu.Lock(); m.open--; m.mu.Unlock() }
func (m *countingMetrics) RecordWSMessage(direction, msgType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.messages == nil {
		m.messages = make(map[string]int)
	}
	m.messages[direction+":"+msgType]++
}

func (m *countingMetrics) connections() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

type fixture struct {
	server  *httptest.Server
	manager *session.Manager
	clock   *clockwork.FakeClock
	metrics *countingMetrics
}

func setup(t *testing.T, cfg session.Config, origins ...string) *fixture {
	t.Helper()
	return setupWith(t, cfg, Config{AllowOrigins: origins})
}

func setupWith(t *testing.T, cfg session.Config, wsCfg Config) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	catalog := challenge.NewCatalog()
	require.NoError(t, catalog.Add(challenge.Challenge{
		ID:      "counter",
		Starter: challenge.Starter{Script: "let count = 0;"},
	}))

	clock := clockwork.NewFakeClock()
	cfg.Clock = clock
	manager := session.NewManager(catalog, cfg)
	metrics := &countingMetrics{}

	if len(wsCfg.AllowOrigins) == 0 {
		wsCfg.AllowOrigins = []string{"*"}
	}
	wsCfg.Metrics = metrics
	router := gin.New()
	router.GET("/sessions/stream", NewHandler(manager, wsCfg).HandleConnection)

	server := httptest.NewServer(router)
	t.Cleanup(func() {
		manager.CloseAll("test")
		server.Close()
	})
	return &fixture{server: server, manager: manager, clock: clock, metrics: metrics}
}

func (f *fixture) dial(t *testing.T, query string, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/sessions/stream" + query
	c, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { c.Close() })
	return c
}

func write(t *testing.T, c *websocket.Conn, msg ClientMessage) {
	t.Helper()
	data, err := sonic.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, c.WriteMessage(websocket.TextMessage, data))
}

func read(t *testing.T, c *websocket.Conn) ServerMessage {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := c.ReadMessage()
	require.NoError(t, err)
	var msg ServerMessage
	require.NoError(t, sonic.Unmarshal(data, &msg))
	return msg
}

func TestSessionMessage(t *testing.T) {
	f := setup(t, session.Config{})
	c := f.dial(t, "?challenge=counter", nil)

	msg := read(t, c)
	require.Equal(t, TypeSession, msg.Type)
	require.NotNil(t, msg.Session)
	assert.Equal(t, "counter", msg.Challenge.ID)
	assert.Equal(t, playground.Style, msg.Editor.Kind)
	require.Len(t, msg.Views, 3)
	assert.Equal(t, "let count = 0;", msg.Views[2].Text)

	_, err := f.manager.Get(msg.Session.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, f.metrics.connections())
}

func TestChangePushesPreview(t *testing.T) {
	f := setup(t, session.Config{})
	c := f.dial(t, "", nil)
	read(t, c)

	write(t, c, ClientMessage{Type: TypeChange, Kind: "markup", Text: "<p>a</p>"})
	write(t, c, ClientMessage{Type: TypeChange, Language: "css", Text: "p{}"})
	write(t, c, ClientMessage{Type: TypePing})
	require.Equal(t, TypePong, read(t, c).Type)

	f.clock.Advance(playground.DefaultQuietInterval)

	msg := read(t, c)
	require.Equal(t, TypePreview, msg.Type)
	assert.Equal(t, uint64(1), msg.Version)
	assert.Contains(t, msg.Srcdoc, "<p>a</p>")
	assert.Contains(t, msg.Srcdoc, "p{}")
}

func TestSelectAndErrors(t *testing.T) {
	f := setup(t, session.Config{})
	c := f.dial(t, "?challenge=counter", nil)
	read(t, c)

	write(t, c, ClientMessage{Type: TypeSelect, Kind: "script"})
	msg := read(t, c)
	require.Equal(t, TypeEditor, msg.Type)
	assert.Equal(t, playground.Script, msg.Editor.Kind)
	assert.Equal(t, "let count = 0;", msg.Editor.Text)

	write(t, c, ClientMessage{Type: TypeChange, Language: "python", Text: "print()"})
	msg = read(t, c)
	assert.Equal(t, TypeError, msg.Type)

	write(t, c, ClientMessage{Type: "shout"})
	msg = read(t, c)
	assert.Equal(t, TypeError, msg.Type)
	assert.Contains(t, msg.Error, "unknown message type")

	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte("{")))
	assert.Equal(t, TypeError, read(t, c).Type)
}

func TestDisconnectTearsDownSession(t *testing.T) {
	f := setup(t, session.Config{})
	c := f.dial(t, "", nil)
	msg := read(t, c)

	write(t, c, ClientMessage{Type: TypeChange, Kind: "markup", Text: "x"})
	require.NoError(t, c.Close())

	require.Eventually(t, func() bool {
		_, err := f.manager.Get(msg.Session.ID)
		return err != nil
	}, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return f.metrics.connections() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestSessionLimitRejectsConnection(t *testing.T) {
	f := setup(t, session.Config{Max: 1})
	first := f.dial(t, "", nil)
	read(t, first)

	second := f.dial(t, "", nil)
	msg := read(t, second)
	assert.Equal(t, TypeError, msg.Type)

	_, _, err := second.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.CloseTryAgainLater, closeErr.Code)
}

func TestReapClosesConnection(t *testing.T) {
	f := setup(t, session.Config{IdleTimeout: time.Minute})
	c := f.dial(t, "", nil)
	read(t, c)

	f.clock.Advance(2 * time.Minute)
	assert.Equal(t, 1, f.manager.Reap())

	_, _, err := c.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.CloseGoingAway, closeErr.Code)
	assert.Equal(t, session.ReasonIdle, closeErr.Text)
}

func TestExternalCloseSendsReason(t *testing.T) {
	f := setup(t, session.Config{})
	c := f.dial(t, "", nil)
	msg := read(t, c)

	require.NoError(t, f.manager.Close(msg.Session.ID))

	_, _, err := c.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.CloseGoingAway, closeErr.Code)
	assert.Equal(t, session.ReasonClosed, closeErr.Text)
}

func TestDeadPeerGetsNormalClosure(t *testing.T) {
	f := setupWith(t, session.Config{}, Config{PongWait: 150 * time.Millisecond})
	c := f.dial(t, "", nil)
	msg := read(t, c)

	// Not reading means pings go unanswered and the server read deadline
	// expires
	time.Sleep(400 * time.Millisecond)

	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	var err error
	for err == nil {
		_, _, err = c.ReadMessage()
	}
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.CloseNormalClosure, closeErr.Code)
	assert.Empty(t, closeErr.Text)

	require.Eventually(t, func() bool {
		_, err := f.manager.Get(msg.Session.ID)
		return err != nil
	}, 2*time.Second, 5*time.Millisecond)
}

func TestProbeReportsReachClient(t *testing.T) {
	probe, err := preview.NewProbe(preview.ProbeConfig{Sandbox: sandbox.DefaultConfig(), PoolSize: 1})
	require.NoError(t, err)
	defer probe.Close()

	f := setup(t, session.Config{Probe: probe})
	c := f.dial(t, "", nil)
	read(t, c)

	write(t, c, ClientMessage{Type: TypeChange, Kind: "script", Text: "console.log('hi'); undefinedFn();"})
	f.clock.Advance(playground.DefaultQuietInterval)

	var report *preview.Report
	for report == nil {
		msg := read(t, c)
		if msg.Type == TypeConsole {
			report = msg.Report
		}
	}
	assert.Equal(t, uint64(1), report.Version)
	require.NotEmpty(t, report.Console)
	assert.Equal(t, "hi", report.Console[0].Message)
	assert.NotEmpty(t, report.Errors)
}

func TestCheckOrigin(t *testing.T) {
	f := setup(t, session.Config{}, "https://editor.example.com")

	header := http.Header{"Origin": []string{"https://editor.example.com"}}
	c := f.dial(t, "", header)
	assert.Equal(t, TypeSession, read(t, c).Type)

	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/sessions/stream"
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"https://evil.example.com"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}
