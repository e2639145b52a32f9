// Package session provides session management for the 2048 game server.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - File persistence, one JSON document per session
//   - Pruning of sessions whose files disappear
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// Each service.Session owns its own engine along with creation and last
// access times. FilePersistence stores sessions on disk and Watcher follows
// the sessions directory with fsnotify.
//
// Session Identifiers:
//
// Generated IDs are 4 hex characters drawn from crypto/rand. Callers may also
// pick their own ID made of letters, digits, '-' and '_'. Lookups ignore case.
//
// Usage:
//
//	manager := session.NewManager(
//		session.WithLogger(logger),
//		session.WithRandFactory(func(string) engine.Rand { return engine.NewRand(42) }),
//	)
//
//	sess, err := manager.Create("", config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sess.ID)
//
// Cleanup:
//
// CleanupExpiredSessions drops idle sessions from memory. Their files stay on
// disk, so a later Get loads them again.
package session
