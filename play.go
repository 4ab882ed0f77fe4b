package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/logic-labyrinth/game/config"
	"github.com/wricardo/logic-labyrinth/game/engine"
	"github.com/wricardo/logic-labyrinth/game/program"
	"github.com/wricardo/logic-labyrinth/game/rewards"
	"github.com/wricardo/logic-labyrinth/game/session"
	"github.com/wricardo/logic-labyrinth/game/solver"
)

func generateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Print a generated maze",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "difficulty", Value: config.DefaultID, Usage: "Difficulty whose maze size to use"},
			&cli.IntFlag{Name: "size", Usage: "Maze size, overrides the difficulty (odd, 5-101)"},
			&cli.Uint64Flag{Name: "seed", Usage: "Maze seed (0 for random)"},
			&cli.BoolFlag{Name: "solve", Usage: "Also print a solution program"},
			&cli.BoolFlag{Name: "json", Usage: "Print JSON instead of text"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			size := int(cmd.Int("size"))
			if size == 0 {
				difficulty, err := resolveDifficulty(cmd.String("config-dir"), cmd.String("difficulty"))
				if err != nil {
					return err
				}
				size = difficulty.MazeSize
			}
			return generateMaze(os.Stdout, generateOptions{
				Size:  size,
				Seed:  cmd.Uint64("seed"),
				Solve: cmd.Bool("solve"),
				JSON:  cmd.Bool("json"),
			})
		},
	}
}

func playCommand() *cli.Command {
	return &cli.Command{
		Name:      "play",
		Usage:     "Run a program against a maze in the terminal",
		ArgsUsage: "[instructions...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "difficulty", Value: config.DefaultID, Usage: "Difficulty to play"},
			&cli.Uint64Flag{Name: "seed", Usage: "Maze seed (0 for random)"},
			&cli.StringFlag{Name: "program", Aliases: []string{"p"}, Usage: "Program text, e.g. \"F F R LOOP_START F LOOP_END\""},
			&cli.BoolFlag{Name: "solve", Usage: "Play the solver's program"},
			&cli.DurationFlag{Name: "delay", Usage: "Time between ticks (default: the difficulty's tick interval)"},
			&cli.BoolFlag{Name: "watch", Usage: "Draw the maze after every tick"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			difficulty, err := resolveDifficulty(cmd.String("config-dir"), cmd.String("difficulty"))
			if err != nil {
				return err
			}

			text := cmd.String("program")
			for _, arg := range cmd.Args().Slice() {
				text += " " + arg
			}

			var ledger *rewards.Ledger
			if path := cmd.String("progress-file"); path != "" {
				ledger = rewards.NewLedger(rewards.WithFile(path))
				if err := ledger.Load(); err != nil {
					return fmt.Errorf("failed to load progress: %w", err)
				}
			}

			return playProgram(ctx, os.Stdout, playOptions{
				Difficulty: difficulty,
				Seed:       cmd.Uint64("seed"),
				Program:    text,
				Solve:      cmd.Bool("solve"),
				Delay:      cmd.Duration("delay"),
				Watch:      cmd.Bool("watch"),
				Ledger:     ledger,
			})
		},
	}
}

// resolveDifficulty loads id from configDir, falling back to the built-in
// difficulties when the directory does not exist.
func resolveDifficulty(configDir, id string) (*engine.DifficultyConfig, error) {
	manager, err := config.NewManager(configDir)
	if err != nil {
		if builtin, ok := engine.DefaultDifficulties()[id]; ok {
			return builtin, nil
		}
		return nil, err
	}
	return manager.LoadConfig(id)
}

type generateOptions struct {
	Size  int
	Seed  uint64
	Solve bool
	JSON  bool
}

func generateMaze(w io.Writer, opts generateOptions) error {
	grid, seed, err := session.GenerateMaze(opts.Size, opts.Seed)
	if err != nil {
		return err
	}

	var solution []program.Opcode
	if opts.Solve {
		if solution, err = solver.Solve(grid); err != nil {
			return err
		}
	}

	if opts.JSON {
		out := map[string]interface{}{
			"size": grid.Size,
			"seed": seed,
			"rows": grid.Rows(),
		}
		if opts.Solve {
			out["solution"] = program.Format(solution)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Fprintf(w, "Maze %dx%d (seed %d)\n", grid.Size, grid.Size, seed)
	fmt.Fprintln(w, engine.RenderSnapshot(engine.Snapshot{Rows: grid.Rows(), Exit: grid.Exit()}))
	if opts.Solve {
		fmt.Fprintf(w, "Solution (%d instructions, %d steps): %s\n",
			len(solution), program.Compiler{}.ExpandedLength(solution), program.Format(solution))
	}
	return nil
}

type playOptions struct {
	Difficulty *engine.DifficultyConfig
	Seed       uint64
	Program    string
	Solve      bool
	Delay      time.Duration
	Watch      bool
	Ledger     *rewards.Ledger
}

// playProgram animates a program on the terminal and returns once the run
// ends or ctx is cancelled.
func playProgram(ctx context.Context, w io.Writer, opts playOptions) error {
	grid, seed, err := session.GenerateMaze(opts.Difficulty.MazeSize, opts.Seed)
	if err != nil {
		return err
	}

	var sink engine.RewardSink
	if opts.Ledger != nil {
		sink = opts.Ledger
	}
	eng, err := engine.NewEngine(opts.Difficulty, grid, sink)
	if err != nil {
		return err
	}

	ops, err := playInstructions(opts, eng)
	if err != nil {
		return err
	}
	for _, op := range ops {
		eng.Append(op)
	}

	fmt.Fprintf(w, "%s: maze %dx%d (seed %d)\n", opts.Difficulty.Name, grid.Size, grid.Size, seed)
	fmt.Fprintf(w, "Program: %s\n", program.Format(ops))
	fmt.Fprintln(w, engine.RenderSnapshot(eng.Snapshot()))

	if _, err := eng.StartRun(opts.Delay, func(frame engine.Frame) {
		fmt.Fprintf(w, "tick %3d  %-2s (%d,%d) %s\n", frame.Tick, frame.Instruction,
			frame.Player.Position.X, frame.Player.Position.Y, frame.Player.Heading.Arrow())
		if opts.Watch {
			fmt.Fprintln(w, engine.RenderSnapshot(eng.Snapshot()))
		}
	}); err != nil {
		return err
	}

	finished := make(chan engine.Frame, 1)
	go func() { finished <- eng.Wait() }()

	select {
	case <-ctx.Done():
		eng.Abort()
		<-finished
		fmt.Fprintln(w, "Run aborted")
		return nil
	case <-finished:
	}

	snap := eng.Snapshot()
	fmt.Fprintln(w, engine.RenderSnapshot(snap))
	fmt.Fprintf(w, "Outcome: %s\n%s\n", snap.Outcome, snap.Message)
	if opts.Ledger != nil {
		progress := opts.Ledger.Snapshot()
		fmt.Fprintf(w, "Stars: %d\n", progress.Stars)
	}
	return nil
}

func playInstructions(opts playOptions, eng *engine.GameEngine) ([]program.Opcode, error) {
	if opts.Solve {
		return solver.Solve(eng.GetGrid())
	}
	p, err := program.Parse(opts.Program)
	if err != nil {
		return nil, err
	}
	return p.Sequence(), nil
}
