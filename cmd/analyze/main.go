// Command analyze prints quick, human-readable statistics about the mazes each
// difficulty produces. For a range of seeds it summarizes how much of the grid
// is open, how many dead ends there are, the shortest path length, and how
// long the solver's program is before and after loop expansion.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/logic-labyrinth/game/config"
	"github.com/wricardo/logic-labyrinth/game/engine"
	"github.com/wricardo/logic-labyrinth/game/maze"
	"github.com/wricardo/logic-labyrinth/game/program"
	"github.com/wricardo/logic-labyrinth/game/solver"
)

// Analysis aggregates maze statistics for one difficulty
type Analysis struct {
	Difficulty   string  `json:"difficulty"`
	MazeSize     int     `json:"maze_size"`
	Mazes        int     `json:"mazes"`
	OpenRatio    float64 `json:"open_ratio"`
	DeadEnds     float64 `json:"dead_ends"`
	PathLength   float64 `json:"path_length"`
	LongestPath  int     `json:"longest_path"`
	Instructions float64 `json:"instructions"`
	Steps        float64 `json:"steps"`
}

// analyzeDifficulty generates seeds 1..n at the difficulty's size and
// averages their statistics
func analyzeDifficulty(difficulty *engine.DifficultyConfig, n int) (Analysis, error) {
	a := Analysis{
		Difficulty: difficulty.Name,
		MazeSize:   difficulty.MazeSize,
	}
	if n <= 0 {
		return a, nil
	}

	var open, deadEnds, pathLen, instructions, steps int
	for seed := uint64(1); seed <= uint64(n); seed++ {
		grid, err := maze.NewGenerator(maze.WithSeed(seed)).Generate(difficulty.MazeSize)
		if err != nil {
			return a, fmt.Errorf("seed %d: %w", seed, err)
		}

		path := maze.ShortestPath(grid, grid.Entry(), grid.Exit())
		ops, err := solver.Solve(grid)
		if err != nil {
			return a, fmt.Errorf("seed %d: %w", seed, err)
		}

		// moves, not cells
		moves := len(path) - 1
		if moves > a.LongestPath {
			a.LongestPath = moves
		}

		open += grid.CountOpen()
		deadEnds += maze.DeadEnds(grid)
		pathLen += moves
		instructions += len(ops)
		steps += program.Compiler{}.ExpandedLength(ops)
	}

	cells := float64(difficulty.MazeSize * difficulty.MazeSize)
	a.Mazes = n
	a.OpenRatio = float64(open) / (cells * float64(n))
	a.DeadEnds = float64(deadEnds) / float64(n)
	a.PathLength = float64(pathLen) / float64(n)
	a.Instructions = float64(instructions) / float64(n)
	a.Steps = float64(steps) / float64(n)
	return a, nil
}

// loadDifficulties returns every difficulty known to the config directory,
// or the built-ins when the directory is missing
func loadDifficulties(configDir string) ([]*engine.DifficultyConfig, error) {
	manager, err := config.NewManager(configDir)
	if err != nil {
		slog.Debug("Using built-in difficulties", "reason", err)
		builtin := engine.DefaultDifficulties()
		return []*engine.DifficultyConfig{builtin["easy"], builtin["medium"], builtin["hard"]}, nil
	}

	infos, err := manager.ListConfigs()
	if err != nil {
		return nil, err
	}

	var difficulties []*engine.DifficultyConfig
	for _, info := range infos {
		difficulty, err := manager.LoadConfig(info.ID)
		if err != nil {
			return nil, err
		}
		difficulties = append(difficulties, difficulty)
	}
	return difficulties, nil
}

func writeReport(w io.Writer, analyses []Analysis, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(analyses)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DIFFICULTY\tSIZE\tMAZES\tOPEN\tDEAD ENDS\tPATH\tLONGEST\tINSTRUCTIONS\tSTEPS")
	for _, a := range analyses {
		fmt.Fprintf(tw, "%s\t%dx%d\t%d\t%.0f%%\t%.1f\t%.1f\t%d\t%.1f\t%.1f\n",
			a.Difficulty, a.MazeSize, a.MazeSize, a.Mazes, a.OpenRatio*100,
			a.DeadEnds, a.PathLength, a.LongestPath, a.Instructions, a.Steps)
	}
	return tw.Flush()
}

func run(ctx context.Context, cmd *cli.Command) error {
	difficulties, err := loadDifficulties(cmd.String("config-dir"))
	if err != nil {
		return err
	}

	var analyses []Analysis
	for _, difficulty := range difficulties {
		a, err := analyzeDifficulty(difficulty, int(cmd.Int("seeds")))
		if err != nil {
			return fmt.Errorf("%s: %w", difficulty.Name, err)
		}
		analyses = append(analyses, a)
	}
	return writeReport(os.Stdout, analyses, cmd.Bool("json"))
}

func main() {
	cmd := &cli.Command{
		Name:  "analyze",
		Usage: "Print maze statistics for each difficulty",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory containing difficulty files"},
			&cli.IntFlag{Name: "seeds", Value: 100, Usage: "Number of seeded mazes per difficulty"},
			&cli.BoolFlag{Name: "json", Usage: "Print JSON instead of a table"},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
