package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	mrand "math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/logic-labyrinth/game/engine"
	"github.com/wricardo/logic-labyrinth/game/maze"
	"github.com/wricardo/logic-labyrinth/game/service"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

// Manager handles game session lifecycle
type Manager struct {
	sessions    map[string]*service.Session
	persistence SessionPersistence
	rewards     engine.RewardSink
	mu          sync.RWMutex
}

// NewManager creates a new session manager. Successful runs in every
// session pay into rewards, which may be nil.
func NewManager(rewards engine.RewardSink) *Manager {
	return &Manager{
		sessions: make(map[string]*service.Session),
		rewards:  rewards,
	}
}

// NewManagerWithPersistence creates a new session manager with persistence
func NewManagerWithPersistence(persistence SessionPersistence, rewards engine.RewardSink) *Manager {
	return &Manager{
		sessions:    make(map[string]*service.Session),
		persistence: persistence,
		rewards:     rewards,
	}
}

// RandomSeed returns a non-zero seed
func RandomSeed() uint64 {
	for {
		if seed := mrand.Uint64(); seed != 0 {
			return seed
		}
	}
}

// GenerateMaze builds the maze for seed. Seed 0 picks a random seed, which
// is returned.
func GenerateMaze(size int, seed uint64) (*maze.Grid, uint64, error) {
	if seed == 0 {
		seed = RandomSeed()
	}
	grid, err := maze.NewGenerator(maze.WithSeed(seed)).Generate(size)
	if err != nil {
		return nil, 0, err
	}
	return grid, seed, nil
}

// Create generates a maze for config and starts a session on it
func (m *Manager) Create(id, difficulty string, config *engine.DifficultyConfig, seed uint64) (*service.Session, error) {
	if strings.ContainsAny(id, `/\. `) {
		return nil, ErrInvalidSessionID
	}
	if config == nil {
		return nil, fmt.Errorf("failed to create engine: config is nil")
	}

	grid, seed, err := GenerateMaze(config.MazeSize, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to generate maze: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		id = m.generateSessionID()
	}

	// Check if session already exists (case-insensitive)
	if m.sessionExists(id) {
		return nil, ErrSessionAlreadyExists
	}

	eng, err := engine.NewEngine(config, grid, m.rewards)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	now := time.Now()
	session := &service.Session{
		ID:             id,
		Engine:         eng,
		Difficulty:     difficulty,
		Config:         config,
		Seed:           seed,
		CreatedAt:      now,
		LastAccessedAt: now,
	}

	m.sessions[strings.ToLower(id)] = session

	// Auto-save if persistence is enabled
	if m.persistence != nil {
		if err := m.persistence.Save(session); err != nil {
			// Log error but don't fail the creation
			slog.Warn("Failed to persist session", "session_id", id, "error", err)
		}
	}

	return session, nil
}

// Get retrieves a session by ID (case-insensitive)
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	session, exists := m.sessions[strings.ToLower(id)]
	m.mu.RUnlock()

	if exists {
		return session, nil
	}

	// Try loading from persistence if not in memory
	if m.persistence != nil && m.persistence.Exists(id) {
		session, err := m.persistence.Load(id)
		if err != nil {
			return nil, fmt.Errorf("failed to load persisted session: %w", err)
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		// Another goroutine may have loaded it first
		if existing, ok := m.sessions[strings.ToLower(id)]; ok {
			return existing, nil
		}
		m.sessions[strings.ToLower(id)] = session
		return session, nil
	}

	return nil, ErrSessionNotFound
}

// List returns all active sessions, oldest first
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})

	return result
}

// Delete stops the session's run and removes it from memory and storage
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lowerID := strings.ToLower(id)
	session, inMemory := m.sessions[lowerID]
	if inMemory {
		session.Engine.Abort()
		delete(m.sessions, lowerID)
	}

	// Delete from persistence if it exists
	if m.persistence != nil && m.persistence.Exists(id) {
		if err := m.persistence.Delete(id); err != nil {
			return fmt.Errorf("failed to delete persisted session: %w", err)
		}
		return nil
	}

	// If not in persistence and not in memory, it doesn't exist
	if !inMemory {
		return ErrSessionNotFound
	}

	return nil
}

// Regenerate replaces the session's maze with one built from seed (0 for
// random). Any run in flight is aborted; the program is kept.
func (m *Manager) Regenerate(id string, seed uint64) (*service.Session, error) {
	session, err := m.Get(id)
	if err != nil {
		return nil, err
	}

	grid, seed, err := GenerateMaze(session.Config.MazeSize, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to generate maze: %w", err)
	}
	if err := session.Engine.SetGrid(grid); err != nil {
		return nil, err
	}

	session.Reseed(seed)

	if m.persistence != nil {
		if err := m.persistence.Save(session); err != nil {
			slog.Warn("Failed to persist session after regenerate", "session_id", id, "error", err)
		}
	}

	return session, nil
}

// UpdateLastAccessed updates the last accessed time for a session. The new
// time reaches storage on the next save (regenerate or shutdown).
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.RLock()
	session, exists := m.sessions[strings.ToLower(id)]
	m.mu.RUnlock()

	if !exists {
		return ErrSessionNotFound
	}
	session.Touch()
	return nil
}

// Save saves a specific session to persistence
func (m *Manager) Save(id string) error {
	if m.persistence == nil {
		return nil // No persistence configured
	}

	m.mu.RLock()
	session, exists := m.sessions[strings.ToLower(id)]
	m.mu.RUnlock()
	if !exists {
		return ErrSessionNotFound
	}

	return m.persistence.Save(session)
}

// CleanupExpiredSessions removes sessions that haven't been accessed in the
// given duration. Persisted copies are kept.
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for id, session := range m.sessions {
		if _, lastAccessed := session.Meta(); lastAccessed.Before(cutoff) {
			session.Engine.Abort()
			delete(m.sessions, id)
			removed++
		}
	}

	return removed
}

// Count returns the number of active sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// generateSessionID generates an unused random 4-character session ID.
// Caller holds m.mu.
func (m *Manager) generateSessionID() string {
	bytes := make([]byte, 2)
	for {
		rand.Read(bytes)
		id := hex.EncodeToString(bytes)
		if !m.sessionExists(id) {
			return id
		}
	}
}

// sessionExists checks if a session exists (case-insensitive). Caller holds m.mu.
func (m *Manager) sessionExists(id string) bool {
	_, exists := m.sessions[strings.ToLower(id)]
	return exists
}

// LoadPersistedSessions loads all persisted sessions into memory
func (m *Manager) LoadPersistedSessions() error {
	if m.persistence == nil {
		return nil // No persistence configured
	}

	sessionIDs, err := m.persistence.ListAll()
	if err != nil {
		return fmt.Errorf("failed to list persisted sessions: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	loadedCount := 0
	for _, id := range sessionIDs {
		// Skip if already loaded in memory
		if _, exists := m.sessions[strings.ToLower(id)]; exists {
			continue
		}

		session, err := m.persistence.Load(id)
		if err != nil {
			slog.Warn("Failed to load persisted session", "session_id", id, "error", err)
			continue
		}

		m.sessions[strings.ToLower(id)] = session
		loadedCount++
	}

	if loadedCount > 0 {
		slog.Info("Loaded persisted sessions", "count", loadedCount)
	}

	return nil
}

// SaveAllSessions saves all in-memory sessions to persistence
func (m *Manager) SaveAllSessions() error {
	if m.persistence == nil {
		return nil // No persistence configured
	}

	sessions := m.List()

	errorCount := 0
	for _, session := range sessions {
		if err := m.persistence.Save(session); err != nil {
			slog.Warn("Failed to save session", "session_id", session.ID, "error", err)
			errorCount++
		}
	}

	if errorCount > 0 {
		return fmt.Errorf("failed to save %d sessions", errorCount)
	}

	return nil
}
