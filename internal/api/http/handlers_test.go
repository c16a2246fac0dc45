package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/GriffinCanCode/Playground/backend/internal/domain/challenge"
	"github.com/GriffinCanCode/Playground/backend/internal/domain/playground"
	"github.com/GriffinCanCode/Playground/backend/internal/domain/session"
	"github.com/GriffinCanCode/Playground/backend/internal/infrastructure/monitoring"
	"github.com/antchfx/htmlquery"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fixture struct {
	router   *gin.Engine
	manager  *session.Manager
	clock    *clockwork.FakeClock
	recorded *observer.ObservedLogs
}

func setup(t *testing.T, max int) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	catalog := challenge.NewCatalog()
	require.NoError(t, catalog.Add(challenge.Challenge{
		ID:          "counter",
		Title:       "Counter",
		Description: `<p>Count clicks</p><script>alert(1)</script>`,
		Starter:     challenge.Starter{Markup: "<button>+</button>"},
	}))

	clock := clockwork.NewFakeClock()
	core, recorded := observer.New(zapcore.DebugLevel)
	metrics := monitoring.NewMetrics()
	manager := session.NewManager(catalog, session.Config{Max: max, Clock: clock, Metrics: metrics})
	t.Cleanup(func() { manager.CloseAll("test") })

	router := gin.New()
	NewHandlers(Deps{Sessions: manager, Metrics: metrics, Logger: zap.New(core)}).Register(router)
	return &fixture{router: router, manager: manager, clock: clock, recorded: recorded}
}

func (f *fixture) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) create(t *testing.T, body string) SessionResponse {
	t.Helper()
	w := f.do("POST", "/sessions", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRootAndHealth(t *testing.T) {
	f := setup(t, 0)

	w := f.do("GET", "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"online"`)

	w = f.do("GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"challenges":2`)
}

func TestCreateSession(t *testing.T) {
	f := setup(t, 0)

	resp := f.create(t, "")
	assert.True(t, strings.HasPrefix(string(resp.Session.ID), "play_"))
	assert.Equal(t, challenge.DefaultID, resp.Challenge.ID)
	assert.Equal(t, playground.Style, resp.Editor.Kind)
	assert.Equal(t, playground.Style.Placeholder(), resp.Editor.Text)
	assert.Len(t, resp.Views, 3)
	assert.Nil(t, resp.Document)

	resp = f.create(t, `{"challenge_id":"counter"}`)
	assert.Equal(t, "counter", resp.Challenge.ID)
	assert.Equal(t, "<button>+</button>", resp.Views[0].Text)
	assert.Equal(t, "", resp.Buffers.Markup)

	resp = f.create(t, `{"challenge_id":"no-such-challenge"}`)
	assert.Equal(t, challenge.DefaultID, resp.Challenge.ID)

	w := f.do("POST", "/sessions", `{"challenge_id":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateSessionLimit(t *testing.T) {
	f := setup(t, 1)
	f.create(t, "")

	w := f.do("POST", "/sessions", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSessionLookupErrors(t *testing.T) {
	f := setup(t, 0)

	w := f.do("GET", "/sessions/not-an-id", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do("GET", "/sessions/play_01ARZ3NDEKTSV4RRFFQ69G5FAV", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEditComposeAndServe(t *testing.T) {
	f := setup(t, 0)
	s := f.create(t, "")
	base := "/sessions/" + string(s.Session.ID)

	w := f.do("GET", base+"/document", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "0", w.Header().Get(VersionHeader))

	w = f.do("PUT", base+"/buffers/markup", `{"text":"<h1>Hi</h1>"}`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"pending":true`)

	w = f.do("PUT", base+"/buffers/css", `{"text":"h1{color:red}"}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	w = f.do("PUT", base+"/buffers/python", `{"text":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = f.do("PUT", base+"/buffers/markup", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.clock.Advance(playground.DefaultQuietInterval)

	require.Eventually(t, func() bool {
		return f.do("GET", base+"/document", "").Code == http.StatusOK
	}, time.Second, time.Millisecond)

	w = f.do("GET", base+"/document", "")
	assert.Equal(t, DocumentPolicy, w.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "1", w.Header().Get(VersionHeader))
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, w.Body.String(), "<h1>Hi</h1>")
	assert.Contains(t, w.Body.String(), "h1{color:red}")

	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)
	w = f.do("GET", base+"/document", "", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, w.Code)

	w = f.do("GET", base, "")
	require.Equal(t, http.StatusOK, w.Code)
	var detail SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	require.NotNil(t, detail.Document)
	assert.Equal(t, uint64(1), detail.Document.Version)
	assert.Equal(t, uint64(2), detail.Session.Stats.Edits)
}

func TestComposeDoesNotAdvanceVersion(t *testing.T) {
	f := setup(t, 0)
	s := f.create(t, "")
	base := "/sessions/" + string(s.Session.ID)

	f.do("PUT", base+"/buffers/script", `{"text":"let n = 1;"}`)

	w := f.do("POST", base+"/compose", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, DocumentPolicy, w.Header().Get("Content-Security-Policy"))
	assert.Contains(t, w.Body.String(), "let n = 1;")
	assert.Empty(t, w.Header().Get(VersionHeader))

	live, err := f.manager.Get(s.Session.ID)
	require.NoError(t, err)
	assert.True(t, live.Workspace.Pending())
	_, composed := live.Workspace.Document()
	assert.False(t, composed)
}

func TestDocumentGzip(t *testing.T) {
	f := setup(t, 0)
	s := f.create(t, "")
	base := "/sessions/" + string(s.Session.ID)

	markup := strings.Repeat("<p>lorem ipsum</p>", 200)
	body, err := json.Marshal(SetBufferRequest{Text: &markup})
	require.NoError(t, err)
	f.do("PUT", base+"/buffers/markup", string(body))
	f.clock.Advance(playground.DefaultQuietInterval)

	require.Eventually(t, func() bool {
		return f.do("GET", base+"/document", "").Code == http.StatusOK
	}, time.Second, time.Millisecond)

	w := f.do("GET", base+"/document", "", "Accept-Encoding", "gzip")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Contains(t, string(plain), markup)
}

func TestSelectAndEditorView(t *testing.T) {
	f := setup(t, 0)
	s := f.create(t, `{"challenge_id":"counter"}`)
	base := "/sessions/" + string(s.Session.ID)

	w := f.do("PUT", base+"/active", `{"kind":"javascript"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var view playground.EditorView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, playground.Script, view.Kind)
	assert.Equal(t, "javascript", view.Language)

	w = f.do("PUT", base+"/active", `{"kind":"rust"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = f.do("PUT", base+"/active", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do("GET", base+"/editor/markup", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "<button>+</button>", view.Text)
	assert.False(t, view.Edited)

	w = f.do("GET", base, "")
	assert.Contains(t, w.Body.String(), `"active":"script"`)
}

func TestCloseSession(t *testing.T) {
	f := setup(t, 0)
	s := f.create(t, "")
	base := "/sessions/" + string(s.Session.ID)

	w := f.do("DELETE", base, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do("DELETE", base, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do("GET", "/sessions", "")
	assert.Contains(t, w.Body.String(), `"sessions":[]`)
}

func TestConsoleWithoutProbe(t *testing.T) {
	f := setup(t, 0)
	s := f.create(t, "")

	w := f.do("GET", "/sessions/"+string(s.Session.ID)+"/console", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestChallenges(t *testing.T) {
	f := setup(t, 0)

	w := f.do("GET", "/challenges", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Challenges []challenge.Challenge `json:"challenges"`
		Total      int                   `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Challenges, 2)
	assert.Equal(t, challenge.DefaultID, list.Challenges[0].ID)
	assert.NotContains(t, list.Challenges[1].Description, "<script>")
}

func TestChallengePage(t *testing.T) {
	f := setup(t, 0)

	w := f.do("GET", "/challenges/counter", "")
	require.Equal(t, http.StatusOK, w.Code)

	doc, err := htmlquery.Parse(strings.NewReader(w.Body.String()))
	require.NoError(t, err)

	iframe := htmlquery.FindOne(doc, "//iframe[@id='preview']")
	require.NotNil(t, iframe)
	assert.Equal(t, "allow-scripts", htmlquery.SelectAttr(iframe, "sandbox"))

	assert.Equal(t, "Counter", htmlquery.InnerText(htmlquery.FindOne(doc, "//title")))
	assert.Len(t, htmlquery.Find(doc, "//nav[@class='tabs']/button"), 3)
	active := htmlquery.FindOne(doc, "//nav[@class='tabs']/button[@class='active']")
	require.NotNil(t, active)
	assert.Equal(t, "style", htmlquery.SelectAttr(active, "data-kind"))

	description := htmlquery.FindOne(doc, "//div[@class='description']")
	require.NotNil(t, description)
	assert.Nil(t, htmlquery.FindOne(description, ".//script"))
	assert.Contains(t, w.Body.String(), "challenge=counter")

	w = f.do("GET", "/challenges/whatever", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<title>Playground</title>")
}

func TestStreamLogs(t *testing.T) {
	f := setup(t, 0)
	s := f.create(t, "")
	path := "/sessions/" + string(s.Session.ID) + "/logs"

	w := f.do("POST", path, `{"source":"server","entries":[{"message":"x"}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = f.do("POST", path, `{"source":"ui","entries":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do("POST", path, `{"source":"ui","entries":[
		{"id":"1","level":"error","message":"stream failed","context":{"attempt":2}},
		{"id":"2","level":"info","message":""}
	]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"entries_processed":1`)

	entries := f.recorded.FilterMessage("stream failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, string(s.Session.ID), entries[0].ContextMap()["session"])
	assert.Equal(t, 2.0, entries[0].ContextMap()["attempt"])
}

func TestSummary(t *testing.T) {
	f := setup(t, 0)
	f.create(t, "")

	w := f.do("GET", "/metrics/summary", "")
	require.Equal(t, http.StatusOK, w.Code)

	var snapshot MetricsSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
	assert.Equal(t, 1, snapshot.Sessions.Live)
	assert.Equal(t, 2, snapshot.Catalog.Challenges)
	require.NotNil(t, snapshot.Backend)
	assert.Equal(t, int64(1), snapshot.Backend.ActiveSessions)
	assert.Nil(t, snapshot.Probe)
}
