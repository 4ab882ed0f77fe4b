package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wricardo/logic-labyrinth/game/engine"
	"github.com/wricardo/logic-labyrinth/game/program"
	"github.com/wricardo/logic-labyrinth/game/rewards"
)

var (
	ErrInvalidRunMode = errors.New("invalid run mode")
	ErrNoInstructions = errors.New("no instructions given")

	// ErrConfigNotFound is returned by a ConfigManager for an unknown difficulty
	ErrConfigNotFound = errors.New("configuration not found")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, difficulty string, seed uint64) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error
	RegenerateMaze(ctx context.Context, sessionID string, seed uint64) (*SessionInfo, error)

	// Program authoring
	AppendInstruction(ctx context.Context, sessionID string, ops ...program.Opcode) (*ProgramInfo, error)
	RemoveLastInstruction(ctx context.Context, sessionID string) (*ProgramInfo, error)
	ClearProgram(ctx context.Context, sessionID string) (*ProgramInfo, error)
	GetProgram(ctx context.Context, sessionID string) (*ProgramInfo, error)

	// Execution
	RunProgram(ctx context.Context, sessionID string, mode RunMode) (*RunResult, error)
	AbortRun(ctx context.Context, sessionID string) (*AbortResult, error)
	GetSnapshot(ctx context.Context, sessionID string) (*engine.Snapshot, error)
	SuggestSolution(ctx context.Context, sessionID string) (*SolutionInfo, error)

	// Progress
	GetProgress(ctx context.Context) (*rewards.Progress, error)

	// Configuration
	ListDifficulties(ctx context.Context) ([]*DifficultyInfo, error)
	LoadDifficulty(ctx context.Context, name string) (*engine.DifficultyConfig, error)
	SaveDifficulty(ctx context.Context, name string, config *engine.DifficultyConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, difficulty string, config *engine.DifficultyConfig, seed uint64) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	Regenerate(id string, seed uint64) (*Session, error)
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager handles difficulty loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.DifficultyConfig, error)
	ListConfigs() ([]*DifficultyInfo, error)
	GetDefault() *engine.DifficultyConfig
	DefaultID() string
	SaveConfig(name string, config *engine.DifficultyConfig) error
}

// ProgressTracker reports the player's accumulated rewards
type ProgressTracker interface {
	Snapshot() rewards.Progress
}

// FrameObserver receives every frame of an animated run
type FrameObserver func(sessionID string, frame engine.Frame)

// Session represents an active game session
type Session struct {
	ID             string
	Engine         *engine.GameEngine
	Difficulty     string
	Config         *engine.DifficultyConfig
	Seed           uint64
	CreatedAt      time.Time
	LastAccessedAt time.Time

	// mu guards Seed and LastAccessedAt once the session is shared
	mu sync.Mutex
}

// Touch marks the session as accessed now
func (s *Session) Touch() {
	s.mu.Lock()
	s.LastAccessedAt = time.Now()
	s.mu.Unlock()
}

// Reseed records the seed of a regenerated maze and marks the session accessed
func (s *Session) Reseed(seed uint64) {
	s.mu.Lock()
	s.Seed = seed
	s.LastAccessedAt = time.Now()
	s.mu.Unlock()
}

// Meta returns the current seed and last access time
func (s *Session) Meta() (seed uint64, lastAccessed time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Seed, s.LastAccessedAt
}
