package playground

import (
	"context"
	"time"
)

// Document is one composed rendering of a workspace
type Document struct {
	Version    uint64    `json:"version"`
	HTML       string    `json:"html"`
	ComposedAt time.Time `json:"composed_at"`
}

// Sink receives every composed document. Each document supersedes the
// previous one.
type Sink interface {
	Render(ctx context.Context, doc Document) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(ctx context.Context, doc Document) error

// Render calls f
func (f SinkFunc) Render(ctx context.Context, doc Document) error {
	return f(ctx, doc)
}

// Observer receives workspace activity for instrumentation
type Observer interface {
	Edited(kind Kind)
	Superseded()
	Composed(doc Document)
}

type nopObserver struct{}

func (nopObserver) Edited(Kind)       {}
func (nopObserver) Superseded()       {}
func (nopObserver) Composed(Document) {}
