package service

import (
	"time"

	"github.com/wricardo/logic-labyrinth/game/engine"
	"github.com/wricardo/logic-labyrinth/game/program"
)

// RunMode selects how RunProgram executes
type RunMode string

const (
	// RunAnimated steps on a ticker and reports frames to the frame observer
	RunAnimated RunMode = "animated"
	// RunInstant runs to completion before returning
	RunInstant RunMode = "instant"
)

// ParseRunMode maps "" to RunAnimated and rejects unknown modes
func ParseRunMode(s string) (RunMode, error) {
	switch RunMode(s) {
	case "", RunAnimated:
		return RunAnimated, nil
	case RunInstant:
		return RunInstant, nil
	default:
		return "", ErrInvalidRunMode
	}
}

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string                   `json:"id"`
	Difficulty     string                   `json:"difficulty"`
	Seed           uint64                   `json:"seed"`
	CreatedAt      time.Time                `json:"created_at"`
	LastAccessedAt time.Time                `json:"last_accessed_at"`
	Config         *engine.DifficultyConfig `json:"config"`
	Snapshot       engine.Snapshot          `json:"snapshot"`
}

// ProgramInfo describes the program authored in a session
type ProgramInfo struct {
	Instructions   []program.Opcode `json:"instructions"`
	Text           string           `json:"text"`
	Length         int              `json:"length"`
	ExpandedLength int              `json:"expanded_length"`
}

// RunResult is returned by RunProgram. Frames and Final are only set for
// instant runs; animated runs report through the frame observer.
type RunResult struct {
	RunID       string          `json:"run_id"`
	Mode        RunMode         `json:"mode"`
	TraceLength int             `json:"trace_length"`
	Frames      []engine.Frame  `json:"frames,omitempty"`
	Final       *engine.Frame   `json:"final,omitempty"`
	Snapshot    engine.Snapshot `json:"snapshot"`
}

// AbortResult reports whether AbortRun interrupted anything
type AbortResult struct {
	Aborted  bool            `json:"aborted"`
	Snapshot engine.Snapshot `json:"snapshot"`
}

// SolutionInfo is a program that reaches the exit of the session's maze
type SolutionInfo struct {
	Instructions   []program.Opcode `json:"instructions"`
	Text           string           `json:"text"`
	Length         int              `json:"length"`
	ExpandedLength int              `json:"expanded_length"`
}

// DifficultyInfo provides information about a difficulty level
type DifficultyInfo struct {
	Filename       string `json:"filename,omitempty"`
	ID             string `json:"id"` // The identifier to use for session creation
	Name           string `json:"name"`
	Description    string `json:"description"`
	MazeSize       int    `json:"maze_size"`
	Reward         int    `json:"reward"`
	TickIntervalMS int    `json:"tick_interval_ms"`
}
