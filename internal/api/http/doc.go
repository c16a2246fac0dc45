// Package http provides the REST surface of the playground service.
//
// This package implements the endpoints using the Gin framework: service
// health, the challenge catalog and the editor page, and a REST rendition of
// the live-preview workspace for clients that do not hold a WebSocket.
//
// Endpoints:
//   - Health: / and /health, /metrics/summary
//   - Challenges: /challenges, /challenges/:challengeId
//   - Sessions: /sessions, /sessions/:id
//   - Buffers: /sessions/:id/buffers/:kind, /sessions/:id/active,
//     /sessions/:id/editor/:kind
//   - Preview: /sessions/:id/document, /sessions/:id/compose,
//     /sessions/:id/console, /sessions/:id/logs
//
// Documents are served with a "sandbox allow-scripts" Content-Security-Policy
// so a browser opening one directly gets the same isolation as the iframe
// of the editor page.
//
// Example Usage:
//
//	handlers := http.NewHandlers(http.Deps{Sessions: manager, Metrics: metrics})
//	handlers.Register(router)
package http
