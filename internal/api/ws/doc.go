// Package ws provides the WebSocket transport of the live preview.
//
// Each connection owns exactly one playground session: the session is
// created on upgrade and torn down when the connection closes, which
// cancels any pending composition.
//
// Message Types (Client → Server):
//   - change: an editor edit, {kind|language, text}
//   - select: switch the active kind, {kind}
//   - ping: keep-alive ping
//
// Message Types (Server → Client):
//   - session: the session, its challenge and every editor view
//   - editor: the view to display after a select
//   - preview: a composed document, {version, srcdoc}
//   - console: the headless probe report of a document
//   - pong: keep-alive reply
//   - error: a rejected message
//
// Example Usage:
//
//	handler := ws.NewHandler(manager, ws.Config{Logger: logger})
//	router.GET("/sessions/stream", handler.HandleConnection)
package ws
