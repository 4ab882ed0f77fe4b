package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/wricardo/logic-labyrinth/game/engine"
	"github.com/wricardo/logic-labyrinth/game/program"
	"github.com/wricardo/logic-labyrinth/game/rewards"
	"github.com/wricardo/logic-labyrinth/game/solver"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	progress ProgressTracker
	observer FrameObserver
	mu       sync.RWMutex
}

// Option configures the game service
type Option func(*gameServiceImpl)

// WithFrameObserver forwards every animated frame to fn
func WithFrameObserver(fn FrameObserver) Option {
	return func(s *gameServiceImpl) {
		s.observer = fn
	}
}

// NewGameService creates a new game service instance. progress may be nil.
func NewGameService(sessions SessionManager, configs ConfigManager, progress ProgressTracker, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		progress: progress,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func sessionInfo(sess *Session) *SessionInfo {
	seed, lastAccessed := sess.Meta()
	return &SessionInfo{
		ID:             sess.ID,
		Difficulty:     sess.Difficulty,
		Seed:           seed,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: lastAccessed,
		Config:         sess.Config,
		Snapshot:       sess.Engine.Snapshot(),
	}
}

func programInfo(ops []program.Opcode) *ProgramInfo {
	return &ProgramInfo{
		Instructions:   ops,
		Text:           program.Format(ops),
		Length:         len(ops),
		ExpandedLength: program.Compiler{}.ExpandedLength(ops),
	}
}

// session looks up a session and marks it accessed
func (s *gameServiceImpl) session(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

// CreateSession creates a new game session with a freshly generated maze.
// An empty difficulty selects the default; seed 0 picks a random seed.
func (s *gameServiceImpl) CreateSession(ctx context.Context, difficulty string, seed uint64) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.DifficultyConfig
	var err error
	if difficulty != "" {
		config, err = s.configs.LoadConfig(difficulty)
		if err != nil {
			// Provide helpful error message with available options
			if errors.Is(err, ErrConfigNotFound) {
				available, listErr := s.configs.ListConfigs()
				if listErr == nil && len(available) > 0 {
					var ids []string
					for _, d := range available {
						ids = append(ids, d.ID)
					}
					return nil, fmt.Errorf("difficulty '%s' not found. Available difficulties: %v: %w", difficulty, ids, err)
				}
				return nil, fmt.Errorf("difficulty '%s' not found. Use /api/difficulties to list available difficulties: %w", difficulty, err)
			}
			return nil, fmt.Errorf("failed to load difficulty %s: %w", difficulty, err)
		}
	} else {
		config = s.configs.GetDefault()
		difficulty = s.configs.DefaultID()
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", difficulty, config, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	info := sessionInfo(sess)
	slog.Info("Session created", "session_id", info.ID, "difficulty", difficulty, "seed", info.Seed, "maze_size", config.MazeSize)
	return info, nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession stops any run in flight and removes the session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, err := s.sessions.Get(sessionID); err == nil {
		sess.Engine.Abort()
	}
	return s.sessions.Delete(sessionID)
}

// RegenerateMaze aborts any run and replaces the maze, keeping the program
func (s *gameServiceImpl) RegenerateMaze(ctx context.Context, sessionID string, seed uint64) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Regenerate(sessionID, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to regenerate maze: %w", err)
	}

	info := sessionInfo(sess)
	slog.Info("Maze regenerated", "session_id", info.ID, "seed", info.Seed)
	return info, nil
}

// AppendInstruction adds one or more opcodes to the end of the program
func (s *gameServiceImpl) AppendInstruction(ctx context.Context, sessionID string, ops ...program.Opcode) (*ProgramInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(ops) == 0 {
		return nil, ErrNoInstructions
	}
	for _, op := range ops {
		if op < program.Forward || op > program.LoopEnd {
			return nil, fmt.Errorf("%w: %d", program.ErrUnknownOpcode, int(op))
		}
	}

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	for _, op := range ops {
		sess.Engine.Append(op)
	}
	return programInfo(sess.Engine.Program()), nil
}

// RemoveLastInstruction drops the final opcode, if any
func (s *gameServiceImpl) RemoveLastInstruction(ctx context.Context, sessionID string) (*ProgramInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	sess.Engine.RemoveLast()
	return programInfo(sess.Engine.Program()), nil
}

// ClearProgram empties the program
func (s *gameServiceImpl) ClearProgram(ctx context.Context, sessionID string) (*ProgramInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	sess.Engine.ClearProgram()
	return programInfo(sess.Engine.Program()), nil
}

// GetProgram returns the program authored in the session
func (s *gameServiceImpl) GetProgram(ctx context.Context, sessionID string) (*ProgramInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return programInfo(sess.Engine.Program()), nil
}

// RunProgram compiles and runs the session's program. Any run already in
// flight is cancelled first.
func (s *gameServiceImpl) RunProgram(ctx context.Context, sessionID string, mode RunMode) (*RunResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mode, err := ParseRunMode(string(mode))
	if err != nil {
		return nil, err
	}

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	if mode == RunInstant {
		frames, err := sess.Engine.RunInstant()
		if err != nil {
			return nil, fmt.Errorf("failed to run program: %w", err)
		}
		final := engine.FinalFrame(frames)
		snap := sess.Engine.Snapshot()
		slog.Info("Run finished", "session_id", sess.ID, "run_id", final.RunID, "outcome", final.Outcome, "ticks", final.Tick)
		return &RunResult{
			RunID:       final.RunID,
			Mode:        mode,
			TraceLength: snap.TraceLength,
			Frames:      frames,
			Final:       &final,
			Snapshot:    snap,
		}, nil
	}

	id := sess.ID
	var observer engine.FrameObserver
	if s.observer != nil {
		notify := s.observer
		observer = func(frame engine.Frame) {
			notify(id, frame)
		}
	}

	runID, err := sess.Engine.StartRun(0, observer)
	if err != nil {
		return nil, fmt.Errorf("failed to run program: %w", err)
	}
	snap := sess.Engine.Snapshot()
	slog.Info("Run started", "session_id", sess.ID, "run_id", runID, "trace_length", snap.TraceLength)

	return &RunResult{
		RunID:       runID,
		Mode:        mode,
		TraceLength: snap.TraceLength,
		Snapshot:    snap,
	}, nil
}

// AbortRun cancels the run in flight, if any
func (s *gameServiceImpl) AbortRun(ctx context.Context, sessionID string) (*AbortResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	aborted := sess.Engine.Abort()
	if aborted {
		slog.Info("Run aborted", "session_id", sess.ID)
	}
	return &AbortResult{Aborted: aborted, Snapshot: sess.Engine.Snapshot()}, nil
}

// GetSnapshot returns the current rendering view of the session
func (s *gameServiceImpl) GetSnapshot(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	snap := sess.Engine.Snapshot()
	return &snap, nil
}

// SuggestSolution computes a program that solves the session's maze. The
// session's own program is left untouched.
func (s *gameServiceImpl) SuggestSolution(ctx context.Context, sessionID string) (*SolutionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	ops, err := solver.Solve(sess.Engine.GetGrid())
	if err != nil {
		return nil, fmt.Errorf("failed to solve maze: %w", err)
	}
	return &SolutionInfo{
		Instructions:   ops,
		Text:           program.Format(ops),
		Length:         len(ops),
		ExpandedLength: program.Compiler{}.ExpandedLength(ops),
	}, nil
}

// GetProgress returns the player's stars and awards
func (s *gameServiceImpl) GetProgress(ctx context.Context) (*rewards.Progress, error) {
	if s.progress == nil {
		return &rewards.Progress{Unlocked: []string{}}, nil
	}
	p := s.progress.Snapshot()
	return &p, nil
}

// ListDifficulties returns available difficulties
func (s *gameServiceImpl) ListDifficulties(ctx context.Context) ([]*DifficultyInfo, error) {
	return s.configs.ListConfigs()
}

// LoadDifficulty loads a specific difficulty
func (s *gameServiceImpl) LoadDifficulty(ctx context.Context, name string) (*engine.DifficultyConfig, error) {
	return s.configs.LoadConfig(name)
}

// SaveDifficulty saves a difficulty to disk
func (s *gameServiceImpl) SaveDifficulty(ctx context.Context, name string, config *engine.DifficultyConfig) error {
	return s.configs.SaveConfig(name, config)
}
