package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wricardo/logic-labyrinth/game/engine"
	"github.com/wricardo/logic-labyrinth/game/maze"
	"github.com/wricardo/logic-labyrinth/game/service"
)

// FilePersistence implements SessionPersistence using file system storage
type FilePersistence struct {
	sessionsDir   string
	configManager service.ConfigManager
	rewards       engine.RewardSink
	mu            sync.Mutex
}

// NewFilePersistence creates a new file-based session persistence layer.
// Restored sessions pay into rewards, which may be nil.
func NewFilePersistence(sessionsDir string, configManager service.ConfigManager, rewards engine.RewardSink) (*FilePersistence, error) {
	// Create sessions directory if it doesn't exist
	if err := os.MkdirAll(sessionsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}

	return &FilePersistence{
		sessionsDir:   sessionsDir,
		configManager: configManager,
		rewards:       rewards,
	}, nil
}

// Save persists a session's maze and metadata to a JSON file
func (fp *FilePersistence) Save(session *service.Session) error {
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}

	seed, lastAccessed := session.Meta()
	grid := session.Engine.GetGrid()
	data := PersistedSessionData{
		ID:             session.ID,
		Difficulty:     session.Difficulty,
		Seed:           seed,
		MazeSize:       grid.Size,
		Rows:           grid.Rows(),
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: lastAccessed,
	}

	// Marshal to JSON with indentation for readability
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	// write then rename so a concurrent Load never sees a partial file
	fp.mu.Lock()
	defer fp.mu.Unlock()

	filePath := fp.getFilePath(session.ID)
	tmpPath := filePath + ".tmp"
	if err := os.WriteFile(tmpPath, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmpPath, filePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return nil
}

// Load retrieves a session from a JSON file. The session starts with an
// empty program.
func (fp *FilePersistence) Load(id string) (*service.Session, error) {
	filePath := fp.getFilePath(id)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, ErrSessionNotFound
	}

	jsonData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var data PersistedSessionData
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}

	config, err := fp.configManager.LoadConfig(data.Difficulty)
	if err != nil {
		return nil, fmt.Errorf("failed to load difficulty '%s': %w", data.Difficulty, err)
	}

	grid, err := maze.FromRows(data.Rows)
	if err != nil {
		return nil, fmt.Errorf("failed to restore maze: %w", err)
	}
	if data.MazeSize != 0 && grid.Size != data.MazeSize {
		return nil, fmt.Errorf("failed to restore maze: expected size %d, got %d", data.MazeSize, grid.Size)
	}

	gameEngine, err := engine.NewEngine(config, grid, fp.rewards)
	if err != nil {
		return nil, fmt.Errorf("failed to create game engine: %w", err)
	}

	return &service.Session{
		ID:             data.ID,
		Engine:         gameEngine,
		Difficulty:     data.Difficulty,
		Config:         config,
		Seed:           data.Seed,
		CreatedAt:      data.CreatedAt,
		LastAccessedAt: data.LastAccessedAt,
	}, nil
}

// Delete removes a session file
func (fp *FilePersistence) Delete(id string) error {
	if !fp.Exists(id) {
		return ErrSessionNotFound
	}

	if err := os.Remove(fp.getFilePath(id)); err != nil {
		return fmt.Errorf("failed to remove session file: %w", err)
	}

	return nil
}

// ListAll returns all persisted session IDs
func (fp *FilePersistence) ListAll() ([]string, error) {
	entries, err := os.ReadDir(fp.sessionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var sessionIDs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasSuffix(name, ".json") {
			sessionIDs = append(sessionIDs, strings.TrimSuffix(name, ".json"))
		}
	}

	return sessionIDs, nil
}

// Exists checks if a session file exists
func (fp *FilePersistence) Exists(id string) bool {
	if id == "" || strings.ContainsAny(id, `/\`) {
		return false
	}
	_, err := os.Stat(fp.getFilePath(id))
	return err == nil
}

// getFilePath returns the full file path for a session ID
func (fp *FilePersistence) getFilePath(id string) string {
	return filepath.Join(fp.sessionsDir, strings.ToLower(id)+".json")
}
