// Package solver computes a program that walks a maze from entry to exit.
package solver

import (
	"errors"

	"github.com/wricardo/logic-labyrinth/game/engine"
	"github.com/wricardo/logic-labyrinth/game/maze"
	"github.com/wricardo/logic-labyrinth/game/program"
)

var ErrNoPath = errors.New("no path from entry to exit")

// Solve returns a program that leads the player from the entry to the exit
// along a shortest path. Straight runs are folded into loops where the loop
// repeat count divides them.
func Solve(grid *maze.Grid) ([]program.Opcode, error) {
	if grid == nil {
		return nil, ErrNoPath
	}
	path := maze.ShortestPath(grid, grid.Entry(), grid.Exit())
	if path == nil {
		return nil, ErrNoPath
	}
	return Compress(PathToOpcodes(path, engine.InitialPlayer().Heading)), nil
}

// PathToOpcodes turns a path of adjacent cells into turns and forward moves,
// starting from heading
func PathToOpcodes(path []maze.Point, heading engine.Heading) []program.Opcode {
	var ops []program.Opcode
	for i := 1; i < len(path); i++ {
		want := headingBetween(path[i-1], path[i])
		ops = append(ops, turns(heading, want)...)
		ops = append(ops, program.Forward)
		heading = want
	}
	return ops
}

func headingBetween(from, to maze.Point) engine.Heading {
	dx, dy := to.X-from.X, to.Y-from.Y
	for _, h := range []engine.Heading{engine.Up, engine.Right, engine.Down, engine.Left} {
		if v := h.Vector(); v.X == dx && v.Y == dy {
			return h
		}
	}
	return engine.Right
}

// turns returns the fewest quarter turns rotating from into to
func turns(from, to engine.Heading) []program.Opcode {
	switch {
	case from == to:
		return nil
	case from.TurnRight() == to:
		return []program.Opcode{program.TurnRight}
	case from.TurnLeft() == to:
		return []program.Opcode{program.TurnLeft}
	default:
		return []program.Opcode{program.TurnRight, program.TurnRight}
	}
}

// Compress folds every group of LoopRepeatCount consecutive forwards into
// LOOP_START F LOOP_END. The compiled result is unchanged.
func Compress(ops []program.Opcode) []program.Opcode {
	out := make([]program.Opcode, 0, len(ops))
	for i := 0; i < len(ops); {
		if ops[i] != program.Forward {
			out = append(out, ops[i])
			i++
			continue
		}

		run := 0
		for i+run < len(ops) && ops[i+run] == program.Forward {
			run++
		}
		i += run

		for ; run >= program.LoopRepeatCount; run -= program.LoopRepeatCount {
			out = append(out, program.LoopStart, program.Forward, program.LoopEnd)
		}
		for ; run > 0; run-- {
			out = append(out, program.Forward)
		}
	}
	return out
}
