package sandbox

import (
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// DOM is a lightweight document proxy for sandboxed JavaScript, backed by a
// parsed goquery document
type DOM struct {
	doc     *goquery.Document
	changes []DOMChange
	mu      sync.Mutex
}

// Element is one node of the document exposed to scripts
type Element struct {
	sel *goquery.Selection
	dom *DOM
}

// ParseDOM parses a composed HTML document
func ParseDOM(html string) (*DOM, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &DOM{doc: doc}, nil
}

// Query finds elements by CSS selector. Invalid selectors match nothing.
func (d *DOM) Query(selector string) []*Element {
	var out []*Element
	d.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		out = append(out, &Element{sel: s, dom: d})
	})
	return out
}

// Scripts returns the inline JavaScript blocks in document order. External
// scripts and non-JavaScript types are skipped.
func (d *DOM) Scripts() []string {
	var scripts []string
	d.doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if _, external := s.Attr("src"); external {
			return
		}
		if typ, ok := s.Attr("type"); ok && !isJavaScriptType(typ) {
			return
		}
		scripts = append(scripts, s.Text())
	})
	return scripts
}

// Title returns the document title, if any
func (d *DOM) Title() string {
	return strings.TrimSpace(d.doc.Find("title").First().Text())
}

// HTML renders the current document, including script modifications
func (d *DOM) HTML() (string, error) {
	return goquery.OuterHtml(d.doc.Selection)
}

// GetChanges returns accumulated DOM changes
func (d *DOM) GetChanges() []DOMChange {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]DOMChange{}, d.changes...)
}

// RecordChange adds a DOM change
func (d *DOM) RecordChange(change DOMChange) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.changes = append(d.changes, change)
}

func isJavaScriptType(typ string) bool {
	switch strings.ToLower(strings.TrimSpace(typ)) {
	case "", "text/javascript", "application/javascript", "module":
		return true
	}
	return false
}

// Element methods

// TagName returns the upper-case tag name
func (e *Element) TagName() string {
	return strings.ToUpper(goquery.NodeName(e.sel))
}

// ID returns the id attribute
func (e *Element) ID() string {
	return e.sel.AttrOr("id", "")
}

// ClassName returns the class attribute
func (e *Element) ClassName() string {
	return e.sel.AttrOr("class", "")
}

// GetAttribute retrieves attribute value
func (e *Element) GetAttribute(name string) (string, bool) {
	return e.sel.Attr(name)
}

// SetAttribute sets attribute value and records change
func (e *Element) SetAttribute(name, value string) {
	e.sel.SetAttr(name, value)
	e.dom.RecordChange(DOMChange{
		Type:     "set_attribute",
		Selector: e.Selector(),
		Property: name,
		Value:    value,
	})
}

// TextContent returns the text of the element and its descendants
func (e *Element) TextContent() string {
	return e.sel.Text()
}

// SetTextContent replaces the children with a text node and records change
func (e *Element) SetTextContent(text string) {
	e.sel.SetText(text)
	e.dom.RecordChange(DOMChange{
		Type:     "set_text",
		Selector: e.Selector(),
		Value:    text,
	})
}

// InnerHTML returns the serialized children
func (e *Element) InnerHTML() string {
	html, err := e.sel.Html()
	if err != nil {
		return ""
	}
	return html
}

// SetInnerHTML replaces the children with parsed markup and records change
func (e *Element) SetInnerHTML(html string) {
	e.sel.SetHtml(html)
	e.dom.RecordChange(DOMChange{
		Type:     "set_html",
		Selector: e.Selector(),
		Value:    html,
	})
}

// Selector returns a short selector that describes the element
func (e *Element) Selector() string {
	if id := e.ID(); id != "" {
		return "#" + id
	}
	tag := goquery.NodeName(e.sel)
	if class := strings.Fields(e.ClassName()); len(class) > 0 {
		return tag + "." + class[0]
	}
	return tag
}
