// Package engine provides the execution core of the Logic Labyrinth.
//
// The engine package implements:
//   - Stepping a compiled instruction trace against a maze, one per tick
//   - Heading and movement rules with wall and boundary collisions
//   - Run outcomes (success, incomplete, crashed) and the success reward
//   - A per-player GameEngine owning the maze, the program and the active run
//   - Difficulty configuration loading and validation
//
// Core Types:
//
// Run is a pull-based stepper: every Step consumes exactly one instruction
// and returns a Frame describing the player afterwards. GameEngine wraps a
// maze and a program and drives runs either on a background ticker
// (StartRun) or synchronously (RunInstant). Snapshot is the read-only view
// handed to renderers.
//
// Usage:
//
//	grid, _ := maze.NewGenerator().Generate(7)
//	eng, err := engine.NewEngine(engine.DefaultDifficulties()["easy"], grid, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	eng.Append(program.Forward)
//	frames, err := eng.RunInstant()
//	fmt.Println(engine.FinalFrame(frames).Outcome)
//
// Run Rules:
//
// The player starts every run at (0,0) facing right. Turns rotate in place.
// A forward move into a wall or off the grid crashes the run immediately and
// the rest of the trace is discarded. When the trace runs out the run
// succeeds if the player stands on the exit in the far corner, otherwise it
// is incomplete. Only a success pays the difficulty's reward, exactly once.
// Starting a new run or aborting cancels the run in flight without paying.
package engine
