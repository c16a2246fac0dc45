package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/GriffinCanCode/Playground/backend/internal/domain/challenge"
	"github.com/GriffinCanCode/Playground/backend/internal/domain/playground"
	"github.com/GriffinCanCode/Playground/backend/internal/preview"
	"github.com/GriffinCanCode/Playground/backend/internal/shared/id"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("too many live sessions")
)

// Close reasons passed to Options.OnClose
const (
	ReasonClosed   = "closed"
	ReasonIdle     = "idle"
	ReasonShutdown = "shutdown"
)

// Metrics receives session lifecycle and workspace activity
type Metrics interface {
	playground.Observer
	SetSessionsActive(count int)
	IncSessionsTotal()
	IncSessionsReaped()
}

// Config configures a Manager
type Config struct {
	Max           int
	IdleTimeout   time.Duration
	ReapEvery     time.Duration
	QuietInterval time.Duration
	Clock         clockwork.Clock
	Logger        *zap.Logger
	Metrics       Metrics
	// Probe, when set, runs every composed document headlessly
	Probe *preview.Probe
}

// Options describes one session to create
type Options struct {
	ChallengeID string
	// Sink receives every composed document after the recorder
	Sink playground.Sink
	// OnReport receives headless probe reports
	OnReport func(preview.Report)
	// OnClose runs once when the session is torn down for any reason
	OnClose func(reason string)
}

// Session is one live page view
type Session struct {
	ID        id.SessionID
	Challenge challenge.Challenge
	Workspace *playground.Workspace
	Recorder  *preview.Recorder
	CreatedAt time.Time

	onClose   func(reason string)
	closeOnce sync.Once
}

// Info is the externally visible summary of a session
type Info struct {
	ID           id.SessionID     `json:"id"`
	ChallengeID  string           `json:"challenge_id"`
	Active       playground.Kind  `json:"active"`
	Version      uint64           `json:"version"`
	CreatedAt    time.Time        `json:"created_at"`
	LastActivity time.Time        `json:"last_activity"`
	Stats        playground.Stats `json:"stats"`
}

// Info summarises the session
func (s *Session) Info() Info {
	doc, _ := s.Workspace.Document()
	return Info{
		ID:           s.ID,
		ChallengeID:  s.Challenge.ID,
		Active:       s.Workspace.Current(),
		Version:      doc.Version,
		CreatedAt:    s.CreatedAt,
		LastActivity: s.Workspace.LastActivity(),
		Stats:        s.Workspace.Stats(),
	}
}

func (s *Session) close(reason string) {
	s.closeOnce.Do(func() {
		s.Workspace.Close()
		if s.onClose != nil {
			s.onClose(reason)
		}
	})
}

// Stats aggregates the live sessions
type Stats struct {
	Live         int    `json:"live"`
	Created      uint64 `json:"created"`
	Closed       uint64 `json:"closed"`
	Reaped       uint64 `json:"reaped"`
	Edits        uint64 `json:"edits"`
	Compositions uint64 `json:"compositions"`
	// Edits per composition over live sessions that composed at least once
	CoalescingMean   float64 `json:"coalescing_mean"`
	CoalescingStdDev float64 `json:"coalescing_stddev"`
}

// Manager owns every live session
type Manager struct {
	catalog *challenge.Catalog
	cfg     Config
	logger  *zap.Logger

	mu       sync.RWMutex
	sessions map[id.SessionID]*Session
	created  uint64
	closed   uint64
	reaped   uint64
}

// NewManager creates a manager resolving challenges from catalog
func NewManager(catalog *challenge.Catalog, cfg Config) *Manager {
	if catalog == nil {
		catalog = challenge.NewCatalog()
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.ReapEvery <= 0 {
		cfg.ReapEvery = time.Minute
	}
	return &Manager{
		catalog:  catalog,
		cfg:      cfg,
		logger:   cfg.Logger,
		sessions: make(map[id.SessionID]*Session),
	}
}

// Catalog returns the challenge catalog
func (m *Manager) Catalog() *challenge.Catalog {
	return m.catalog
}

// Create starts a new session for opts.ChallengeID
func (m *Manager) Create(opts Options) (*Session, error) {
	ch := m.catalog.Resolve(opts.ChallengeID)
	sessionID := id.NewSessionID()
	recorder := preview.NewRecorder()

	sinks := preview.Multi{recorder}
	if opts.Sink != nil {
		sinks = append(sinks, opts.Sink)
	}
	if m.cfg.Probe != nil {
		onReport := opts.OnReport
		sinks = append(sinks, m.cfg.Probe.Sink(func(report preview.Report) {
			recorder.Record(report)
			if onReport != nil {
				onReport(report)
			}
		}))
	}

	var observer playground.Observer
	if m.cfg.Metrics != nil {
		observer = m.cfg.Metrics
	}

	m.mu.Lock()
	if m.cfg.Max > 0 && len(m.sessions) >= m.cfg.Max {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: limit is %d", ErrTooManySessions, m.cfg.Max)
	}

	s := &Session{
		ID:        sessionID,
		Challenge: ch,
		Recorder:  recorder,
		CreatedAt: m.cfg.Clock.Now(),
		onClose:   opts.OnClose,
		Workspace: playground.New(playground.Options{
			Clock:         m.cfg.Clock,
			QuietInterval: m.cfg.QuietInterval,
			Placeholders:  ch.Placeholders(),
			Sink:          sinks,
			Observer:      observer,
			Logger:        m.logger.With(zap.String("session", string(sessionID))),
		}),
	}
	m.sessions[s.ID] = s
	m.created++
	live := len(m.sessions)
	m.mu.Unlock()

	if m.cfg.Metrics != nil {
		m.cfg.Metrics.IncSessionsTotal()
		m.cfg.Metrics.SetSessionsActive(live)
	}

	m.logger.Debug("Session created",
		zap.String("session", string(s.ID)),
		zap.String("challenge", ch.ID),
		zap.Bool("fallback", ch.ID != opts.ChallengeID),
	)
	return s, nil
}

// Get returns a live session
func (m *Manager) Get(sessionID id.SessionID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return s, nil
}

// List returns a summary of every live session in creation order
func (m *Manager) List() []Info {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID < sessions[j].ID })

	out := make([]Info, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Info())
	}
	return out
}

// Close tears a session down. A pending composition is cancelled.
func (m *Manager) Close(sessionID id.SessionID) error {
	return m.remove(sessionID, ReasonClosed)
}

func (m *Manager) remove(sessionID id.SessionID, reason string) error {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	delete(m.sessions, sessionID)
	m.closed++
	if reason == ReasonIdle {
		m.reaped++
	}
	live := len(m.sessions)
	m.mu.Unlock()

	s.close(reason)

	if m.cfg.Metrics != nil {
		m.cfg.Metrics.SetSessionsActive(live)
		if reason == ReasonIdle {
			m.cfg.Metrics.IncSessionsReaped()
		}
	}
	m.logger.Debug("Session closed",
		zap.String("session", string(sessionID)),
		zap.String("reason", reason),
	)
	return nil
}

// CloseAll tears down every session
func (m *Manager) CloseAll(reason string) int {
	m.mu.RLock()
	ids := make([]id.SessionID, 0, len(m.sessions))
	for sessionID := range m.sessions {
		ids = append(ids, sessionID)
	}
	m.mu.RUnlock()

	closed := 0
	for _, sessionID := range ids {
		if m.remove(sessionID, reason) == nil {
			closed++
		}
	}
	return closed
}

// Reap closes sessions idle for longer than the idle timeout
func (m *Manager) Reap() int {
	if m.cfg.IdleTimeout <= 0 {
		return 0
	}
	now := m.cfg.Clock.Now()

	m.mu.RLock()
	var idle []id.SessionID
	for sessionID, s := range m.sessions {
		if now.Sub(s.Workspace.LastActivity()) > m.cfg.IdleTimeout {
			idle = append(idle, sessionID)
		}
	}
	m.mu.RUnlock()

	reaped := 0
	for _, sessionID := range idle {
		if m.remove(sessionID, ReasonIdle) == nil {
			reaped++
		}
	}
	if reaped > 0 {
		m.logger.Info("Reaped idle sessions", zap.Int("count", reaped))
	}
	return reaped
}

// Run reaps idle sessions until ctx is done
func (m *Manager) Run(ctx context.Context) {
	ticker := m.cfg.Clock.NewTicker(m.cfg.ReapEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			m.Reap()
		}
	}
}

// Stats aggregates the live sessions
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	stats := Stats{
		Live:    len(m.sessions),
		Created: m.created,
		Closed:  m.closed,
		Reaped:  m.reaped,
	}
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	var ratios []float64
	for _, s := range sessions {
		ws := s.Workspace.Stats()
		stats.Edits += ws.Edits
		stats.Compositions += ws.Compositions
		if ws.Compositions > 0 {
			ratios = append(ratios, float64(ws.Edits)/float64(ws.Compositions))
		}
	}

	switch len(ratios) {
	case 0:
	case 1:
		stats.CoalescingMean = ratios[0]
	default:
		stats.CoalescingMean, stats.CoalescingStdDev = stat.MeanStdDev(ratios, nil)
	}
	return stats
}
