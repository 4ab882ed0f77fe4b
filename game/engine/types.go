package engine

import (
	"github.com/wricardo/logic-labyrinth/game/maze"
	"github.com/wricardo/logic-labyrinth/game/program"
)

// Position represents x,y coordinates on the grid
type Position = maze.Point

// Heading is the direction the player faces, as a rotation index
type Heading int

const (
	Up Heading = iota
	Right
	Down
	Left
)

// Status is the state of a run
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCrashed   Status = "crashed"
	StatusCompleted Status = "completed"
	StatusAborted   Status = "aborted"
)

// Outcome is the terminal classification of a run
type Outcome string

const (
	OutcomeInProgress Outcome = "in_progress"
	OutcomeSuccess    Outcome = "success"
	OutcomeIncomplete Outcome = "incomplete"
	OutcomeCrashed    Outcome = "crashed"
)

// Validation constants
const (
	MinReward         = 1
	MaxReward         = 100
	MinTickIntervalMS = 10
	MaxTickIntervalMS = 5000
)

// PlayerState is the player's position and heading
type PlayerState struct {
	Position Position `json:"position"`
	Heading  Heading  `json:"heading"`
}

// Frame is what one tick of a run produced
type Frame struct {
	RunID       string         `json:"run_id"`
	Tick        int            `json:"tick"`
	Instruction program.Opcode `json:"instruction,omitempty"`
	Player      PlayerState    `json:"player"`
	Status      Status         `json:"status"`
	Outcome     Outcome        `json:"outcome"`
}

// Terminal reports whether the frame ends its run
func (f Frame) Terminal() bool {
	return f.Status != StatusRunning
}

// Snapshot is the read-only view handed to renderers
type Snapshot struct {
	Size        int              `json:"size"`
	Rows        []string         `json:"rows"`
	Walls       [][]bool         `json:"walls"`
	Exit        Position         `json:"exit"`
	Player      *PlayerState     `json:"player"`
	RunID       string           `json:"run_id,omitempty"`
	Tick        int              `json:"tick"`
	TraceLength int              `json:"trace_length"`
	Status      Status           `json:"status"`
	Outcome     Outcome          `json:"outcome"`
	Message     string           `json:"message"`
	Program     []program.Opcode `json:"program"`
}

// DifficultyConfig represents a difficulty level loaded from JSON or YAML
type DifficultyConfig struct {
	Name           string   `json:"name" yaml:"name"`
	Description    string   `json:"description" yaml:"description"`
	MazeSize       int      `json:"maze_size" yaml:"maze_size"`
	Reward         int      `json:"reward" yaml:"reward"`
	TickIntervalMS int      `json:"tick_interval_ms" yaml:"tick_interval_ms"`
	Messages       Messages `json:"messages" yaml:"messages"`
}

// Messages shown to the player for each phase of a run
type Messages struct {
	Welcome    string `json:"welcome" yaml:"welcome"`
	Success    string `json:"success" yaml:"success"`
	Incomplete string `json:"incomplete" yaml:"incomplete"`
	Crashed    string `json:"crashed" yaml:"crashed"`
}
