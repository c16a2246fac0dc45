package playground

import (
	"fmt"
	"sync"
)

// DefaultKind is the kind shown when a workspace opens
const DefaultKind = Style

// Selector tracks which buffer is bound to the visible editor
type Selector struct {
	mu      sync.RWMutex
	current Kind
}

// NewSelector creates a selector positioned on DefaultKind
func NewSelector() *Selector {
	return &Selector{current: DefaultKind}
}

// Select switches the active kind. Buffers are untouched.
func (s *Selector) Select(kind Kind) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}
	s.mu.Lock()
	s.current = kind
	s.mu.Unlock()
	return nil
}

// Current returns the active kind
func (s *Selector) Current() Kind {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}
