package challenge

import (
	"errors"
	"regexp"

	"github.com/GriffinCanCode/Playground/backend/internal/domain/playground"
)

// DefaultID names the challenge used when a route names no known entry
const DefaultID = "default"

var (
	ErrInvalidID     = errors.New("invalid challenge id")
	ErrInvalidField  = errors.New("invalid challenge field")
	ErrDuplicateID   = errors.New("duplicate challenge id")
	ErrNotTextFile   = errors.New("starter file is not text")
	ErrUnsafeStarter = errors.New("starter file path escapes the challenge directory")
)

var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// Starter is the initial editor text of a challenge. It is shown as the
// placeholder of each kind; it is never a buffer value.
type Starter struct {
	Markup string `json:"markup,omitempty"`
	Style  string `json:"style,omitempty"`
	Script string `json:"script,omitempty"`
}

// Challenge is one catalog entry
type Challenge struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Difficulty  string   `json:"difficulty,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Starter     Starter  `json:"starter"`
	Source      string   `json:"source,omitempty"`
}

// Default is the challenge with the built-in placeholders
func Default() Challenge {
	return Challenge{
		ID:     DefaultID,
		Title:  "Playground",
		Source: "builtin",
	}
}

// Placeholders returns the non-empty starter texts keyed by kind
func (c Challenge) Placeholders() map[playground.Kind]string {
	out := make(map[playground.Kind]string, 3)
	for kind, text := range map[playground.Kind]string{
		playground.Markup: c.Starter.Markup,
		playground.Style:  c.Starter.Style,
		playground.Script: c.Starter.Script,
	} {
		if text != "" {
			out[kind] = text
		}
	}
	return out
}

// ValidID reports whether id can name a catalog entry
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}
