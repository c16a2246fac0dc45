package playground

import (
	"fmt"
	"sync"
)

// Snapshot is a consistent copy of all three buffers
type Snapshot struct {
	Markup string `json:"markup"`
	Style  string `json:"style"`
	Script string `json:"script"`
}

// Get returns the text held for kind
func (s Snapshot) Get(kind Kind) string {
	switch kind {
	case Markup:
		return s.Markup
	case Style:
		return s.Style
	case Script:
		return s.Script
	default:
		return ""
	}
}

// With returns a copy of s with kind replaced by text
func (s Snapshot) With(kind Kind, text string) Snapshot {
	switch kind {
	case Markup:
		s.Markup = text
	case Style:
		s.Style = text
	case Script:
		s.Script = text
	}
	return s
}

// ChangeHook observes a buffer write together with the resulting snapshot
type ChangeHook func(kind Kind, snapshot Snapshot)

// Store owns the text of the three source buffers.
//
// The change hook runs while the write lock is held, so hooks observe
// writes in the order they were applied and never see a partial update.
// Hooks must not call back into the Store.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
	edited   [kindCount]bool
	onChange ChangeHook
}

// NewStore creates an empty store; onChange may be nil
func NewStore(onChange ChangeHook) *Store {
	return &Store{onChange: onChange}
}

// SetBuffer replaces the text of one buffer. Text is never validated.
func (s *Store) SetBuffer(kind Kind, text string) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot = s.snapshot.With(kind, text)
	s.edited[kind] = true

	if s.onChange != nil {
		s.onChange(kind, s.snapshot)
	}
	return nil
}

// Snapshot returns a copy of the current buffers
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Get returns the current text of one buffer
func (s *Store) Get(kind Kind) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Get(kind)
}

// Edited reports whether kind has received at least one write
func (s *Store) Edited(kind Kind) bool {
	if !kind.Valid() {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.edited[kind]
}
