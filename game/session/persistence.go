package session

import (
	"time"

	"github.com/wricardo/logic-labyrinth/game/service"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData represents the JSON structure for persisted sessions.
// Programs and runs are not persisted.
type PersistedSessionData struct {
	ID             string    `json:"id"`
	Difficulty     string    `json:"difficulty"`
	Seed           uint64    `json:"seed"`
	MazeSize       int       `json:"maze_size"`
	Rows           []string  `json:"rows"`
	CreatedAt      time.Time `json:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
}
