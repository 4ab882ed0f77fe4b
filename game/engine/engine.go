package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wricardo/logic-labyrinth/game/maze"
	"github.com/wricardo/logic-labyrinth/game/program"
)

var ErrInvalidGrid = errors.New("invalid grid")

// FrameObserver is called after every tick of an animated run
type FrameObserver func(frame Frame)

// Engine provides the main interface for game operations
type Engine interface {
	// Maze
	GetGrid() *maze.Grid
	SetGrid(grid *maze.Grid) error
	GetConfig() *DifficultyConfig

	// Authoring
	Append(op program.Opcode)
	RemoveLast()
	ClearProgram()
	Program() []program.Opcode

	// Execution
	StartRun(interval time.Duration, observer FrameObserver) (string, error)
	RunInstant() ([]Frame, error)
	Abort() bool
	Wait() Frame
	IsRunning() bool

	// Rendering
	Snapshot() Snapshot
}

// GameEngine implements the Engine interface for one player's labyrinth
type GameEngine struct {
	mu       sync.Mutex
	config   *DifficultyConfig
	grid     *maze.Grid
	program  *program.Program
	compiler program.Compiler
	rewards  RewardSink
	run      *Run
	owed     int

	// runMu serialises starting and stopping runs
	runMu  sync.Mutex
	cancel chan struct{}
	done   chan struct{}
}

// NewEngine creates a new game engine with the provided configuration and grid.
// rewards may be nil.
func NewEngine(config *DifficultyConfig, grid *maze.Grid, rewards RewardSink) (*GameEngine, error) {
	if err := ValidateDifficultyConfig(config); err != nil {
		return nil, err
	}
	if err := validateGrid(grid); err != nil {
		return nil, err
	}

	return &GameEngine{
		config:  config,
		grid:    grid,
		program: program.New(),
		rewards: rewards,
	}, nil
}

func validateGrid(grid *maze.Grid) error {
	if grid == nil {
		return fmt.Errorf("%w: grid is nil", ErrInvalidGrid)
	}
	if !grid.IsOpen(0, 0) || !grid.IsOpen(grid.Size-1, grid.Size-1) {
		return fmt.Errorf("%w: entry and exit must be open", ErrInvalidGrid)
	}
	return nil
}

// GetConfig returns the difficulty configuration
func (e *GameEngine) GetConfig() *DifficultyConfig {
	return e.config
}

// GetGrid returns the current grid. Callers must not modify it.
func (e *GameEngine) GetGrid() *maze.Grid {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.grid
}

// SetGrid aborts any run in flight and swaps in a new maze
func (e *GameEngine) SetGrid(grid *maze.Grid) error {
	if err := validateGrid(grid); err != nil {
		return err
	}

	e.runMu.Lock()
	defer e.runMu.Unlock()
	e.stop()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.grid = grid
	e.run = nil
	return nil
}

// Append adds an instruction to the program
func (e *GameEngine) Append(op program.Opcode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.program.Append(op)
}

// RemoveLast drops the final instruction, if any
func (e *GameEngine) RemoveLast() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.program.RemoveLast()
}

// ClearProgram removes every instruction
func (e *GameEngine) ClearProgram() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.program.Clear()
}

// Program returns a copy of the authored instructions
func (e *GameEngine) Program() []program.Opcode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.program.Sequence()
}

// newRunLocked compiles the program into a fresh run. Caller holds e.mu.
func (e *GameEngine) newRunLocked() (*Run, error) {
	trace, err := e.compiler.CompileLimited(e.program.Sequence(), program.MaxTraceLength)
	if err != nil {
		return nil, err
	}

	opts := []RunOption{WithRunID(uuid.NewString())}
	if e.rewards != nil {
		// paid by payOwed once e.mu is released
		opts = append(opts, WithReward(e.config.Reward, RewardFunc(func(amount int) {
			e.owed += amount
		})))
	}
	return NewRun(trace, e.grid, opts...), nil
}

// takeOwedLocked returns and clears the reward earned by the last step. Caller holds e.mu.
func (e *GameEngine) takeOwedLocked() int {
	owed := e.owed
	e.owed = 0
	return owed
}

func (e *GameEngine) payOwed(amount int) {
	if amount > 0 && e.rewards != nil {
		e.rewards.OnSuccess(amount)
	}
}

// StartRun cancels any run in flight, then steps a new run once per interval
// on a background ticker. observer, if non-nil, receives every frame.
func (e *GameEngine) StartRun(interval time.Duration, observer FrameObserver) (string, error) {
	if interval <= 0 {
		interval = time.Duration(e.config.TickIntervalMS) * time.Millisecond
	}

	e.runMu.Lock()
	defer e.runMu.Unlock()
	e.stop()

	e.mu.Lock()
	run, err := e.newRunLocked()
	if err != nil {
		e.mu.Unlock()
		return "", err
	}
	e.run = run
	cancel, done := make(chan struct{}), make(chan struct{})
	e.cancel, e.done = cancel, done
	e.mu.Unlock()

	slog.Debug("Run started", "run_id", run.ID(), "trace_length", run.TraceLength(), "interval", interval)
	go e.tick(run, interval, observer, cancel, done)
	return run.ID(), nil
}

func (e *GameEngine) tick(run *Run, interval time.Duration, observer FrameObserver, cancel, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-cancel:
			return
		case <-ticker.C:
		}

		e.mu.Lock()
		if run.Done() {
			e.mu.Unlock()
			return
		}
		frame := run.Step()
		owed := e.takeOwedLocked()
		e.mu.Unlock()

		e.payOwed(owed)

		if observer != nil {
			observer(frame)
		}
		if frame.Terminal() {
			slog.Debug("Run finished", "run_id", frame.RunID, "outcome", frame.Outcome, "ticks", frame.Tick)
			return
		}
	}
}

// RunInstant cancels any run in flight and runs the program to completion
// synchronously, returning every frame.
func (e *GameEngine) RunInstant() ([]Frame, error) {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	e.stop()

	e.mu.Lock()
	run, err := e.newRunLocked()
	if err != nil {
		e.mu.Unlock()
		return nil, err
	}
	e.run = run
	frames := run.Frames()
	owed := e.takeOwedLocked()
	e.mu.Unlock()

	e.payOwed(owed)
	return frames, nil
}

// Abort stops the run in flight. It reports whether a run was interrupted.
func (e *GameEngine) Abort() bool {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	return e.stop()
}

// stop aborts the current run and waits for its ticker to exit. Caller holds runMu.
func (e *GameEngine) stop() bool {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel, e.done = nil, nil
	interrupted := e.run != nil && !e.run.Done()
	if interrupted {
		e.run.Abort()
	}
	e.mu.Unlock()

	if cancel != nil {
		close(cancel)
		<-done
	}
	return interrupted
}

// Wait blocks until the animated run in flight, if any, stops and returns its last frame
func (e *GameEngine) Wait() Frame {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()

	if done != nil {
		<-done
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run == nil {
		return Frame{Status: StatusIdle, Outcome: OutcomeInProgress, Player: InitialPlayer()}
	}
	return e.run.LastFrame()
}

// IsRunning reports whether a run is in progress
func (e *GameEngine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.run != nil && !e.run.Done()
}

// Snapshot returns the read-only rendering view of the engine. Before the
// first run, and after the maze is replaced, the player is shown at the entry.
func (e *GameEngine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		Size:    e.grid.Size,
		Rows:    e.grid.Rows(),
		Walls:   e.grid.Walls(),
		Exit:    e.grid.Exit(),
		Status:  StatusIdle,
		Outcome: OutcomeInProgress,
		Program: e.program.Sequence(),
	}

	if e.run == nil {
		player := InitialPlayer()
		snap.Player = &player
	} else {
		frame := e.run.LastFrame()
		player := frame.Player
		snap.Player = &player
		snap.RunID = frame.RunID
		snap.Tick = frame.Tick
		snap.TraceLength = e.run.TraceLength()
		snap.Status = frame.Status
		snap.Outcome = frame.Outcome
	}
	snap.Message = e.config.MessageFor(snap.Status, snap.Outcome)

	return snap
}
