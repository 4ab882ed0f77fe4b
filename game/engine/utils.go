package engine

import (
	"strings"

	"github.com/wricardo/logic-labyrinth/game/program"
)

// RenderSnapshot draws the snapshot as text: '#' walls, '.' open cells, 'E'
// the exit and an arrow for the player.
func RenderSnapshot(s Snapshot) string {
	var b strings.Builder
	for y, row := range s.Rows {
		for x, ch := range row {
			switch {
			case s.Player != nil && s.Player.Position.X == x && s.Player.Position.Y == y:
				b.WriteString(s.Player.Heading.Arrow())
			case x == s.Exit.X && y == s.Exit.Y:
				b.WriteByte('E')
			default:
				b.WriteRune(ch)
			}
		}
		if y < len(s.Rows)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// CountInstructions tallies a trace by opcode
func CountInstructions(trace program.Trace) map[program.Opcode]int {
	counts := make(map[program.Opcode]int)
	for _, op := range trace {
		counts[op]++
	}
	return counts
}

// FinalFrame returns the last frame of frames, or a zero Frame when empty
func FinalFrame(frames []Frame) Frame {
	if len(frames) == 0 {
		return Frame{}
	}
	return frames[len(frames)-1]
}
