// Package session provides session management for the Klondike Solitaire
// server.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Lazy loading of persisted sessions
//   - JSON file persistence of the game, its undo and redo stacks and the
//     move log
//   - Cleanup of idle sessions
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// FilePersistence stores one JSON file per session in a directory.
//
// Session Identifiers:
//
// Sessions use 4-character hex IDs for easy reference. Lookups are case
// insensitive.
//
// Usage:
//
//	persistence, err := session.NewFilePersistence("sessions", configManager)
//	manager := session.NewManagerWithPersistence(persistence)
//
//	sess, err := manager.Create("", "classic", profile)
//	sess, err = manager.Get(sess.ID)
//
// Cleanup:
//
// CleanupExpiredSessions drops idle sessions from memory only; their files
// stay on disk and are loaded again on the next Get.
package session
