package maze

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
)

const (
	MinSize            = 5
	MaxSize            = 101
	DefaultMaxAttempts = 8
)

var (
	ErrInvalidSize = errors.New("invalid maze size")
	ErrUnsolvable  = errors.New("maze exit unreachable")
)

// lattice steps: left, right, up, down
var carveSteps = [4]Point{{X: -2, Y: 0}, {X: 2, Y: 0}, {X: 0, Y: -2}, {X: 0, Y: 2}}

// Generator carves mazes. It is safe for concurrent use.
type Generator struct {
	mu          sync.Mutex
	rng         *rand.Rand
	maxAttempts int
	exitPatch   bool

	// carveHook lets tests damage a grid after carving to exercise the retry path
	carveHook func(attempt int, g *Grid)
}

// Option configures a Generator
type Option func(*Generator)

// WithSeed makes the sequence of generated mazes reproducible
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		g.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithMaxAttempts bounds how many times an unsolvable grid is regenerated
func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithoutExitPatch disables the corner repair applied after carving
func WithoutExitPatch() Option {
	return func(g *Generator) {
		g.exitPatch = false
	}
}

// NewGenerator creates a generator. Without WithSeed the order is random per process.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		rng:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		maxAttempts: DefaultMaxAttempts,
		exitPatch:   true,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ValidateSize checks that size is odd and within [MinSize, MaxSize]
func ValidateSize(size int) error {
	if size < MinSize || size > MaxSize {
		return fmt.Errorf("%w: %d is outside [%d, %d]", ErrInvalidSize, size, MinSize, MaxSize)
	}
	if size%2 == 0 {
		return fmt.Errorf("%w: %d is even", ErrInvalidSize, size)
	}
	return nil
}

// Generate returns a size x size maze whose exit is reachable from its entry
func (g *Generator) Generate(size int) (*Grid, error) {
	if err := ValidateSize(size); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		grid := NewGrid(size)
		g.carve(grid)
		if g.carveHook != nil {
			g.carveHook(attempt, grid)
		}

		grid.set(size-1, size-1, Open)
		if g.exitPatch && grid.At(size-1, size-2) == Wall && grid.At(size-2, size-1) == Wall {
			grid.set(size-1, size-2, Open)
		}

		if Reachable(grid, grid.Entry(), grid.Exit()) {
			return grid, nil
		}
		slog.Warn("Generated maze has unreachable exit, regenerating", "size", size, "attempt", attempt)
	}

	return nil, fmt.Errorf("%w: gave up after %d attempts", ErrUnsolvable, g.maxAttempts)
}

// carveFrame is one level of the depth-first walk
type carveFrame struct {
	at    Point
	steps [4]Point
	next  int
}

func (g *Generator) newFrame(at Point) carveFrame {
	f := carveFrame{at: at, steps: carveSteps}
	g.rng.Shuffle(len(f.steps), func(i, j int) {
		f.steps[i], f.steps[j] = f.steps[j], f.steps[i]
	})
	return f
}

// carve opens a depth-first spanning tree over the even lattice from (0,0).
// The explicit stack visits cells in the same order as the recursive form.
func (g *Generator) carve(grid *Grid) {
	grid.set(0, 0, Open)
	stack := []carveFrame{g.newFrame(Point{})}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next == len(top.steps) {
			stack = stack[:len(stack)-1]
			continue
		}

		step := top.steps[top.next]
		top.next++

		nx, ny := top.at.X+step.X, top.at.Y+step.Y
		if !grid.InBounds(nx, ny) || grid.Cells[ny][nx] != Wall {
			continue
		}

		grid.set(top.at.X+step.X/2, top.at.Y+step.Y/2, Open)
		grid.set(nx, ny, Open)
		stack = append(stack, g.newFrame(Point{X: nx, Y: ny}))
	}
}
