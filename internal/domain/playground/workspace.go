package playground

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// ChangeEvent is an edit reported by the editor surface.
//
// Kind names the edited buffer explicitly. Language is the tag of the
// editor model that changed and is only consulted when Kind is empty.
type ChangeEvent struct {
	Kind     string `json:"kind,omitempty"`
	Language string `json:"language,omitempty"`
	Text     string `json:"text"`
}

// EditorView is what the editor surface needs to display one kind
type EditorView struct {
	Kind     Kind   `json:"kind"`
	Language string `json:"language"`
	FileName string `json:"file_name"`
	Text     string `json:"text"`
	Edited   bool   `json:"edited"`
}

// Stats summarises one workspace
type Stats struct {
	Edits        uint64        `json:"edits"`
	Compositions uint64        `json:"compositions"`
	Debounce     DebounceStats `json:"debounce"`
}

// Options configures a Workspace
type Options struct {
	Clock         clockwork.Clock
	QuietInterval time.Duration
	// Placeholders overrides the built-in initial text per kind
	Placeholders map[Kind]string
	Sink         Sink
	Observer     Observer
	Logger       *zap.Logger
}

// Workspace is the live-preview state of one page view
type Workspace struct {
	store     *Store
	selector  *Selector
	debouncer *Debouncer

	sink         Sink
	observer     Observer
	logger       *zap.Logger
	clock        clockwork.Clock
	placeholders [kindCount]string

	ctx    context.Context
	cancel context.CancelFunc

	// renderMu is held for a whole render, sink call included, so Close
	// can wait out an in-flight render
	renderMu sync.Mutex

	mu           sync.Mutex
	latest       Document
	version      uint64
	edits        uint64
	closed       bool
	lastActivity time.Time
}

// New creates a workspace. It is live until Close.
func New(opts Options) *Workspace {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Workspace{
		selector:     NewSelector(),
		sink:         opts.Sink,
		observer:     opts.Observer,
		logger:       opts.Logger,
		clock:        opts.Clock,
		ctx:          ctx,
		cancel:       cancel,
		lastActivity: opts.Clock.Now(),
	}

	for _, k := range Kinds() {
		w.placeholders[k] = k.Placeholder()
		if text, ok := opts.Placeholders[k]; ok && text != "" {
			w.placeholders[k] = text
		}
	}

	w.debouncer = NewDebouncer(opts.Clock, opts.QuietInterval, w.render)
	w.store = NewStore(func(kind Kind, snapshot Snapshot) {
		if w.debouncer.Notify(snapshot) {
			w.observer.Superseded()
		}
	})

	return w
}

// HandleChange applies an editor change event. Events whose kind cannot
// be resolved leave every buffer untouched and return ErrUnresolvedChange.
func (w *Workspace) HandleChange(ev ChangeEvent) (Kind, error) {
	kind, err := resolveChange(ev)
	if err != nil {
		return 0, err
	}
	if err := w.SetBuffer(kind, ev.Text); err != nil {
		return 0, err
	}
	return kind, nil
}

func resolveChange(ev ChangeEvent) (Kind, error) {
	if ev.Kind != "" {
		kind, err := ParseKind(ev.Kind)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrUnresolvedChange, err)
		}
		return kind, nil
	}
	if kind, ok := KindForLanguage(ev.Language); ok {
		return kind, nil
	}
	return 0, ErrUnresolvedChange
}

// SetBuffer replaces one buffer and reschedules the composition
func (w *Workspace) SetBuffer(kind Kind, text string) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWorkspaceClosed
	}
	w.edits++
	w.lastActivity = w.clock.Now()
	w.mu.Unlock()

	if err := w.store.SetBuffer(kind, text); err != nil {
		return err
	}
	w.observer.Edited(kind)
	return nil
}

// Select switches the active kind and returns the view the editor should show
func (w *Workspace) Select(kind Kind) (EditorView, error) {
	if w.Closed() {
		return EditorView{}, ErrWorkspaceClosed
	}
	if err := w.selector.Select(kind); err != nil {
		return EditorView{}, err
	}
	w.touch()
	return w.View(kind), nil
}

// Current returns the active kind
func (w *Workspace) Current() Kind {
	return w.selector.Current()
}

// ActiveView returns the view of the active kind
func (w *Workspace) ActiveView() EditorView {
	return w.View(w.selector.Current())
}

// View returns the language tag and text for kind. The placeholder is used
// until the kind receives its first edit; from then on the buffer wins.
func (w *Workspace) View(kind Kind) EditorView {
	view := EditorView{
		Kind:     kind,
		Language: kind.Language(),
		FileName: kind.FileName(),
	}
	if !kind.Valid() {
		return view
	}
	if w.store.Edited(kind) {
		view.Text = w.store.Get(kind)
		view.Edited = true
	} else {
		view.Text = w.placeholders[kind]
	}
	return view
}

// Snapshot returns the current buffers
func (w *Workspace) Snapshot() Snapshot {
	return w.store.Snapshot()
}

// Document returns the latest composed document, if any
func (w *Workspace) Document() (Document, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.latest, w.version > 0
}

// Pending reports whether a composition is scheduled
func (w *Workspace) Pending() bool {
	return w.debouncer.Pending()
}

// render runs on the debouncer callback. It must not use the clock: fake
// clocks may expire timers while holding their own lock.
func (w *Workspace) render(snapshot Snapshot) {
	html := Compose(snapshot)

	w.renderMu.Lock()
	defer w.renderMu.Unlock()

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.version++
	doc := Document{
		Version:    w.version,
		HTML:       html,
		ComposedAt: time.Now(),
	}
	w.latest = doc
	w.mu.Unlock()

	w.observer.Composed(doc)

	if w.sink == nil {
		return
	}
	if err := w.sink.Render(w.ctx, doc); err != nil {
		w.logger.Warn("Preview sink rejected document",
			zap.Uint64("version", doc.Version),
			zap.Error(err),
		)
	}
}

func (w *Workspace) touch() {
	w.mu.Lock()
	w.lastActivity = w.clock.Now()
	w.mu.Unlock()
}

// LastActivity returns the time of the latest edit or selection
func (w *Workspace) LastActivity() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastActivity
}

// Stats returns activity counters
func (w *Workspace) Stats() Stats {
	w.mu.Lock()
	stats := Stats{
		Edits:        w.edits,
		Compositions: w.version,
	}
	w.mu.Unlock()
	stats.Debounce = w.debouncer.Stats()
	return stats
}

// Closed reports whether the workspace was torn down
func (w *Workspace) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// Close tears the workspace down. A pending composition is cancelled, an
// in-flight one sees its context cancelled and is waited for, and the sink
// is never called after Close returns. Close is idempotent.
func (w *Workspace) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	w.debouncer.Stop()
	w.cancel()

	// wait for an in-flight render
	w.renderMu.Lock()
	defer w.renderMu.Unlock()
}
