// Package logging configures the process-wide slog logger: human readable
// text on the terminal, optionally fanned out to a JSON log file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	slogmulti "github.com/samber/slog-multi"
)

var level = new(slog.LevelVar)

// Options controls Setup
type Options struct {
	// Debug lowers the level to slog.LevelDebug
	Debug bool
	// File, when set, receives every record as JSON
	File string
	// Writer receives the text output. Defaults to os.Stderr.
	Writer io.Writer
}

// SetLevel changes the level of every logger built by Setup
func SetLevel(l slog.Level) {
	level.Set(l)
}

// Setup builds the logger, installs it as the slog default and returns it
// with a close function for the log file.
func Setup(opts Options) (*slog.Logger, func() error, error) {
	if opts.Debug {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(writer, &slog.HandlerOptions{Level: level}),
	}
	closeFn := func() error { return nil }

	if opts.File != "" {
		if dir := filepath.Dir(opts.File); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
			}
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
		closeFn = f.Close
	}

	logger := slog.New(slogmulti.Fanout(handlers...))
	slog.SetDefault(logger)
	return logger, closeFn, nil
}
