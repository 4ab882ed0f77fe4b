// Package maze generates the square wall/open grids the Logic Labyrinth is
// played on.
//
// The generator carves a depth-first spanning tree over the even-coordinate
// lattice of an odd-sized grid, starting from the entry at (0,0). Rooms sit on
// even coordinates and the odd cells between them are the walls that get
// knocked through while carving.
//
// Core Types:
//
// Grid is the immutable-by-convention result of a generation: a Size x Size
// matrix of Cell values. Generator holds the random source and retry policy.
//
// Usage:
//
//	gen := maze.NewGenerator(maze.WithSeed(42))
//	grid, err := gen.Generate(11)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(grid)
//
// Solvability:
//
// Every grid returned by Generate has an open entry and exit joined by a path
// of 4-adjacent open cells. This is checked with a flood fill after carving;
// a grid that fails the check is regenerated with a fresh shuffle, and
// ErrUnsolvable is returned once MaxAttempts is exhausted.
package maze
