package ws

import (
	"github.com/GriffinCanCode/Playground/backend/internal/domain/challenge"
	"github.com/GriffinCanCode/Playground/backend/internal/domain/playground"
	"github.com/GriffinCanCode/Playground/backend/internal/domain/session"
	"github.com/GriffinCanCode/Playground/backend/internal/preview"
)

// Client message types
const (
	TypeChange = "change"
	TypeSelect = "select"
	TypePing   = "ping"
)

// Server message types
const (
	TypeSession = "session"
	TypeEditor  = "editor"
	TypePreview = "preview"
	TypeConsole = "console"
	TypePong    = "pong"
	TypeError   = "error"
)

// ClientMessage is any message sent by the editor page
type ClientMessage struct {
	Type     string `json:"type"`
	Kind     string `json:"kind,omitempty"`
	Language string `json:"language,omitempty"`
	Text     string `json:"text,omitempty"`
}

// ServerMessage is any message sent to the editor page
type ServerMessage struct {
	Type      string                  `json:"type"`
	Session   *session.Info           `json:"session,omitempty"`
	Challenge *challenge.Challenge    `json:"challenge,omitempty"`
	Editor    *playground.EditorView  `json:"editor,omitempty"`
	Views     []playground.EditorView `json:"views,omitempty"`
	Version   uint64                  `json:"version,omitempty"`
	Srcdoc    string                  `json:"srcdoc,omitempty"`
	Report    *preview.Report         `json:"report,omitempty"`
	Error     string                  `json:"error,omitempty"`
	Timestamp int64                   `json:"timestamp"`
}
