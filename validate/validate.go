// Command validate checks the difficulty files in a configs directory.
// For every .json, .yaml and .yml file it checks:
//   - the file decodes and passes difficulty validation
//   - a sweep of seeded mazes at the difficulty's size are all solvable
//   - the solver's program reaches the exit when it is actually run
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/logic-labyrinth/game/engine"
	"github.com/wricardo/logic-labyrinth/game/maze"
	"github.com/wricardo/logic-labyrinth/game/program"
	"github.com/wricardo/logic-labyrinth/game/solver"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

// sweepStats summarizes the mazes checked for one maze size
type sweepStats struct {
	Mazes        int
	LongestSteps int
	LongestOps   int
	TotalSteps   int
}

// validateConfig loads and validates a single difficulty file, then sweeps
// seeds mazes of its size.
func validateConfig(ctx context.Context, filePath string, seeds int) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	config, err := engine.ParseDifficultyConfig(filepath.Ext(filePath), data)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid %s: %v", strings.TrimPrefix(filepath.Ext(filePath), "."), err))
		return result
	}

	if err := engine.ValidateDifficultyConfig(config); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	stats, err := sweepSeeds(ctx, config.MazeSize, seeds)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Maze sweep failed: %v", err))
		return result
	}

	result.Errors = append(result.Errors,
		fmt.Sprintf("✓ Name: %s", config.Name),
		fmt.Sprintf("✓ Maze: %dx%d", config.MazeSize, config.MazeSize),
		fmt.Sprintf("✓ Reward: %d⭐", config.Reward),
		fmt.Sprintf("✓ Tick: %dms", config.TickIntervalMS),
		fmt.Sprintf("✓ Solvable: %d/%d seeded mazes", stats.Mazes, seeds),
	)
	if stats.Mazes > 0 {
		result.Errors = append(result.Errors,
			fmt.Sprintf("✓ Solution steps: avg %d, longest %d (%d instructions)",
				stats.TotalSteps/stats.Mazes, stats.LongestSteps, stats.LongestOps))
	}
	return result
}

// sweepSeeds generates mazes for seeds 1..n in parallel and runs the solver's
// program on each. The first failure cancels the rest.
func sweepSeeds(ctx context.Context, size, n int) (sweepStats, error) {
	type solved struct {
		ops   int
		steps int
	}
	results := make([]solved, n)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i := 0; i < n; i++ {
		seed := uint64(i + 1)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			grid, err := maze.NewGenerator(maze.WithSeed(seed)).Generate(size)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			ops, err := solver.Solve(grid)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			trace, err := program.Compiler{}.CompileLimited(ops, program.MaxTraceLength)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}

			last := engine.FinalFrame(engine.NewRun(trace, grid).Frames())
			if last.Outcome != engine.OutcomeSuccess {
				return fmt.Errorf("seed %d: solution ended %s at (%d,%d)", seed, last.Outcome,
					last.Player.Position.X, last.Player.Position.Y)
			}

			results[seed-1] = solved{ops: len(ops), steps: len(trace)}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return sweepStats{}, err
	}

	stats := sweepStats{Mazes: n}
	for _, r := range results {
		stats.TotalSteps += r.steps
		if r.steps > stats.LongestSteps {
			stats.LongestSteps = r.steps
			stats.LongestOps = r.ops
		}
	}
	return stats, nil
}

// configFiles lists the difficulty files in dir, sorted by name
func configFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// printResult writes a concise report for one file
func printResult(result ValidationResult) {
	fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

	if result.Valid {
		fmt.Println("✅ VALID")
		for _, info := range result.Errors {
			fmt.Println("  " + info)
		}
		return
	}

	fmt.Println("❌ INVALID")
	for _, err := range result.Errors {
		if !strings.HasPrefix(err, "✓") {
			fmt.Println("  ❌ " + err)
		}
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	files, err := configFiles(cmd.String("config-dir"))
	if err != nil {
		return fmt.Errorf("error finding config files: %w", err)
	}
	if len(files) == 0 {
		return cli.Exit(fmt.Sprintf("No difficulty files in %s", cmd.String("config-dir")), 1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(ctx, file, int(cmd.Int("seeds")))
		printResult(result)
		allValid = allValid && result.Valid
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if !allValid {
		return cli.Exit("❌ Some difficulties have errors", 1)
	}
	fmt.Println("✅ All difficulties are valid!")
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "validate",
		Usage: "Validate difficulty files and check their mazes are solvable",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: "../configs", Usage: "Directory containing difficulty files"},
			&cli.IntFlag{Name: "seeds", Value: 50, Usage: "Number of seeded mazes to solve per difficulty"},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
