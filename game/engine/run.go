package engine

import (
	"github.com/wricardo/logic-labyrinth/game/maze"
	"github.com/wricardo/logic-labyrinth/game/program"
)

// RewardSink receives the reward for a successful run. A GameEngine calls it
// after releasing its state lock, so OnSuccess may read the engine, but it
// must not start or abort runs on it.
type RewardSink interface {
	OnSuccess(amount int)
}

// RewardFunc adapts a function to RewardSink
type RewardFunc func(amount int)

func (f RewardFunc) OnSuccess(amount int) {
	f(amount)
}

// RunOption configures a Run
type RunOption func(*Run)

// WithReward raises sink.OnSuccess(amount) once if the run succeeds
func WithReward(amount int, sink RewardSink) RunOption {
	return func(r *Run) {
		r.reward = amount
		r.sink = sink
	}
}

// WithRunID tags every frame with id
func WithRunID(id string) RunOption {
	return func(r *Run) {
		r.id = id
	}
}

// Run steps an execution trace against a grid, one instruction per Step.
// A Run is not safe for concurrent use.
type Run struct {
	id     string
	trace  program.Trace
	grid   *maze.Grid
	player PlayerState
	next   int
	tick   int
	status Status
	result Outcome
	last   Frame

	reward   int
	sink     RewardSink
	rewarded bool
}

// NewRun starts a run at (0,0) facing right
func NewRun(trace program.Trace, grid *maze.Grid, opts ...RunOption) *Run {
	r := &Run{
		trace:  trace,
		grid:   grid,
		player: InitialPlayer(),
		status: StatusRunning,
		result: OutcomeInProgress,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.last = r.frame()
	return r
}

// Step applies the next instruction. When the trace runs out the same step
// classifies the run. Stepping a finished run returns its final frame.
func (r *Run) Step() Frame {
	if r.Done() {
		return r.last
	}

	r.tick++
	var op program.Opcode
	if r.next < len(r.trace) {
		op = r.trace[r.next]
		r.next++
		r.apply(op)
	}

	if r.status == StatusRunning && r.next >= len(r.trace) {
		r.complete()
	}

	r.last = r.frame()
	r.last.Instruction = op
	return r.last
}

func (r *Run) apply(op program.Opcode) {
	switch op {
	case program.TurnLeft:
		r.player.Heading = r.player.Heading.TurnLeft()
	case program.TurnRight:
		r.player.Heading = r.player.Heading.TurnRight()
	case program.Forward:
		target := r.player.Ahead()
		if !CanMoveTo(r.grid, target) {
			r.status = StatusCrashed
			r.result = OutcomeCrashed
			return
		}
		r.player.Position = target
	}
}

func (r *Run) complete() {
	r.status = StatusCompleted
	if r.player.Position != r.grid.Exit() {
		r.result = OutcomeIncomplete
		return
	}

	r.result = OutcomeSuccess
	if r.sink != nil && !r.rewarded {
		r.rewarded = true
		r.sink.OnSuccess(r.reward)
	}
}

func (r *Run) frame() Frame {
	return Frame{
		RunID:   r.id,
		Tick:    r.tick,
		Player:  r.player,
		Status:  r.status,
		Outcome: r.result,
	}
}

// Frames steps the run to the end and returns every frame produced
func (r *Run) Frames() []Frame {
	var frames []Frame
	for !r.Done() {
		frames = append(frames, r.Step())
	}
	return frames
}

// Abort stops an unfinished run without classifying it or paying a reward
func (r *Run) Abort() {
	if r.Done() {
		return
	}
	r.status = StatusAborted
	r.last = r.frame()
}

// Done reports whether the run has stopped
func (r *Run) Done() bool {
	return r.status != StatusRunning
}

// ID returns the run identifier
func (r *Run) ID() string {
	return r.id
}

// Tick returns how many steps have been taken
func (r *Run) Tick() int {
	return r.tick
}

// Player returns the current player state
func (r *Run) Player() PlayerState {
	return r.player
}

func (r *Run) Status() Status {
	return r.status
}

// Outcome returns OutcomeInProgress until the run is classified
func (r *Run) Outcome() Outcome {
	return r.result
}

func (r *Run) TraceLength() int {
	return len(r.trace)
}

// LastFrame returns the most recent frame, or the initial one before any Step
func (r *Run) LastFrame() Frame {
	return r.last
}
