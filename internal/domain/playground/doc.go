// Package playground implements the live-preview pipeline of a challenge
// page: three source buffers (markup, style, script) are edited
// independently and recomposed into one self-contained document after the
// user stops typing.
//
// Components:
//   - Store: the three buffers, last-write-wins per kind
//   - Selector: which kind is bound to the editor (style by default)
//   - Debouncer: one pending recomposition, restarted on every edit
//   - Compose: pure function from a Snapshot to a document string
//   - Workspace: glue owning all of the above for one page view
//
// Flow:
//
//	editor change → Store.SetBuffer → Debouncer.Notify
//	    … quiet interval …
//	Compose(snapshot) → Sink.Render(document)
//
// Composed documents embed user code verbatim and are only safe inside an
// isolated rendering surface such as <iframe sandbox="allow-scripts">.
//
// Example Usage:
//
//	ws := playground.New(playground.Options{Sink: sink})
//	defer ws.Close()
//	ws.HandleChange(playground.ChangeEvent{Kind: "markup", Text: "<p>hi</p>"})
package playground
