// Package session tracks the live playground sessions of the service.
//
// A session is one page view: a playground.Workspace seeded with the
// placeholders of a challenge, a preview.Recorder holding its latest
// document and probe report, and the sinks of whatever transport is bound
// to it. Nothing is persisted; closing a session discards its buffers.
//
// Lifecycle:
//  1. Create resolves the challenge (unknown IDs use the default) and
//     starts a workspace
//  2. Edits and selections flow through Session.Workspace
//  3. Close, CloseAll or the idle reaper tear the workspace down, which
//     cancels any pending composition
//
// Example Usage:
//
//	manager := session.NewManager(catalog, session.Config{Max: 100})
//	go manager.Run(ctx)
//	s, err := manager.Create(session.Options{ChallengeID: "counter"})
//	defer manager.Close(s.ID)
package session
