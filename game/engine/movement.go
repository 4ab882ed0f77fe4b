package engine

import (
	"github.com/wricardo/logic-labyrinth/game/maze"
)

var headingVectors = [4]Position{
	Up:    {X: 0, Y: -1},
	Right: {X: 1, Y: 0},
	Down:  {X: 0, Y: 1},
	Left:  {X: -1, Y: 0},
}

var headingArrows = [4]string{"↑", "→", "↓", "←"}

var headingNames = [4]string{"up", "right", "down", "left"}

// TurnLeft rotates a quarter turn counter-clockwise
func (h Heading) TurnLeft() Heading {
	return (h.normalize() + 3) % 4
}

// TurnRight rotates a quarter turn clockwise
func (h Heading) TurnRight() Heading {
	return (h.normalize() + 1) % 4
}

// Vector returns the unit step for the heading
func (h Heading) Vector() Position {
	return headingVectors[h.normalize()]
}

// Arrow returns the glyph renderers draw for the player
func (h Heading) Arrow() string {
	return headingArrows[h.normalize()]
}

func (h Heading) String() string {
	return headingNames[h.normalize()]
}

func (h Heading) normalize() Heading {
	return ((h % 4) + 4) % 4
}

// InitialPlayer returns the state every run starts from
func InitialPlayer() PlayerState {
	return PlayerState{Position: Position{X: 0, Y: 0}, Heading: Right}
}

// Ahead returns the cell directly in front of the player
func (p PlayerState) Ahead() Position {
	v := p.Heading.Vector()
	return Position{X: p.Position.X + v.X, Y: p.Position.Y + v.Y}
}

// CanMoveTo checks if the player can move to the specified coordinates
func CanMoveTo(grid *maze.Grid, pos Position) bool {
	return grid.IsOpen(pos.X, pos.Y)
}
