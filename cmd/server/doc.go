// Package main is the entry point of the challenge playground service.
//
// The service serves an editor page per coding challenge and keeps a live
// preview of the learner's markup, style and script: edits are debounced,
// composed into one HTML document and pushed to a sandboxed iframe.
//
// Architecture:
//
//	Editor page → WebSocket/REST → Session → Workspace → Composer
//	                                                    → Preview sinks (iframe, probe)
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	./server serve --port 8000 --challenges ./challenges
//
//	# Development mode (colored logs, debug level)
//	./server serve --dev
//
//	# Compose a document offline
//	./server compose --html index.html --css style.css --js script.js
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
