package playground

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownKind      = errors.New("unknown source kind")
	ErrUnresolvedChange = errors.New("change event has no resolvable source kind")
	ErrWorkspaceClosed  = errors.New("workspace is closed")
)

// Kind identifies one of the three source buffers
type Kind int

const (
	Markup Kind = iota
	Style
	Script
)

// kindCount is the size of the closed Kind set
const kindCount = 3

// Kinds returns every source kind in document order
func Kinds() []Kind {
	return []Kind{Markup, Style, Script}
}

// Valid reports whether k is a member of the closed set
func (k Kind) Valid() bool {
	return k >= Markup && k <= Script
}

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case Markup:
		return "markup"
	case Style:
		return "style"
	case Script:
		return "script"
	default:
		return "unknown"
	}
}

// Language returns the editor language tag bound to the kind
func (k Kind) Language() string {
	switch k {
	case Markup:
		return "html"
	case Style:
		return "css"
	case Script:
		return "javascript"
	default:
		return ""
	}
}

// FileName returns the virtual file the editor shows for the kind
func (k Kind) FileName() string {
	switch k {
	case Markup:
		return "index.html"
	case Style:
		return "style.css"
	case Script:
		return "script.js"
	default:
		return ""
	}
}

// Placeholder returns the built-in initial editor text for the kind
func (k Kind) Placeholder() string {
	switch k {
	case Markup:
		return "<!-- Start writing some HTML! -->"
	case Style:
		return "/* Start writing some CSS! */"
	case Script:
		return "// Start writing some JS!"
	default:
		return ""
	}
}

// MarshalText encodes the kind as its name
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText accepts anything ParseKind accepts
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind resolves a kind from its name, language tag or file name.
func ParseKind(s string) (Kind, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds() {
		if needle == k.String() || needle == k.Language() || needle == k.FileName() {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// KindForLanguage resolves a kind from an editor language tag only
func KindForLanguage(language string) (Kind, bool) {
	needle := strings.ToLower(strings.TrimSpace(language))
	for _, k := range Kinds() {
		if needle == k.Language() {
			return k, true
		}
	}
	return 0, false
}
