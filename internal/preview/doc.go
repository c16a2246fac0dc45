// Package preview holds the Preview Sink collaborators of a workspace:
// fan-out, the per-session recorder backing the REST endpoints and the
// headless probe that runs composed documents server-side.
package preview
