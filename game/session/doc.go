// Package session provides session management for the Logic Labyrinth.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Seeded maze generation for new sessions and regeneration
//   - Optional file persistence of each session's maze
//   - Cleanup of idle sessions
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// FilePersistence stores one JSON file per session holding the difficulty,
// the seed and the maze rows. Programs are never written to disk, so a
// restored session starts with an empty program.
//
// Session Identifiers:
//
// Sessions use 4-character hex IDs for easy reference, generated from
// crypto/rand and matched case-insensitively.
//
// Usage:
//
//	ledger := rewards.NewLedger()
//	manager := session.NewManager(ledger)
//
//	sess, err := manager.Create("", "easy", config, 0)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Swap in a new maze, keeping the program
//	sess, err = manager.Regenerate(sess.ID, 42)
package session
