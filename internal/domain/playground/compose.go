package playground

import "strings"

// Fixed scaffolding rules, emitted ahead of the user style.
const (
	HeightRule   = "html { height: 100%; }"
	BaselineRule = "body { background-color: #ffffff; color: #000000; }"
)

const (
	docOpen = "<!DOCTYPE html>\n" +
		"<html>\n" +
		"  <head>\n" +
		"    <style>\n" +
		"      " + HeightRule + "\n" +
		"      " + BaselineRule + "\n" +
		"      "
	docStyleClose = "\n" +
		"    </style>\n" +
		"  </head>\n" +
		"  <body>"
	docScriptOpen = " <script>"
	docClose      = "</script></body>\n" +
		"</html>\n"
)

// Compose assembles the three buffers into one self-contained document.
// Buffers are embedded verbatim: nothing is escaped, so the result must
// only ever be rendered inside an isolated surface.
func Compose(s Snapshot) string {
	var b strings.Builder
	b.Grow(len(docOpen) + len(docStyleClose) + len(docScriptOpen) + len(docClose) +
		len(s.Style) + len(s.Markup) + len(s.Script))

	b.WriteString(docOpen)
	b.WriteString(s.Style)
	b.WriteString(docStyleClose)
	b.WriteString(s.Markup)
	b.WriteString(docScriptOpen)
	b.WriteString(s.Script)
	b.WriteString(docClose)

	return b.String()
}
