// Package rewards tracks the stars a player earns from successful runs and
// the awards those stars unlock.
package rewards

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Award is a badge unlocked once the star total reaches Threshold
type Award struct {
	Name      string `json:"name"`
	Threshold int    `json:"threshold"`
}

// DefaultAwards are the stock awards ordered by threshold
var DefaultAwards = []Award{
	{Name: "Bronze Star", Threshold: 10},
	{Name: "Silver Spark", Threshold: 25},
	{Name: "Golden Brain", Threshold: 50},
	{Name: "Platinum Owl", Threshold: 100},
}

// Progress is the persisted state of a Ledger
type Progress struct {
	Stars     int       `json:"stars"`
	Successes int       `json:"successes"`
	Unlocked  []string  `json:"unlocked"`
	Next      *Award    `json:"next,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ledger accumulates stars and unlocks awards. It is safe for concurrent use
// and can be handed to an engine as its reward sink.
type Ledger struct {
	mu        sync.Mutex
	awards    []Award
	stars     int
	successes int
	unlocked  map[string]bool
	order     []string
	updatedAt time.Time
	path      string
	onAward   func(Award, Progress)
}

// Option configures a Ledger
type Option func(*Ledger)

// WithAwards replaces the default award table
func WithAwards(awards []Award) Option {
	return func(l *Ledger) {
		l.awards = append([]Award(nil), awards...)
	}
}

// WithFile persists progress to path after every success
func WithFile(path string) Option {
	return func(l *Ledger) {
		l.path = path
	}
}

// OnAward registers a hook called, outside the lock, for each newly unlocked award
func OnAward(fn func(Award, Progress)) Option {
	return func(l *Ledger) {
		l.onAward = fn
	}
}

// NewLedger creates an empty ledger
func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{
		awards:   append([]Award(nil), DefaultAwards...),
		unlocked: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// OnSuccess credits amount stars and unlocks any awards now within reach
func (l *Ledger) OnSuccess(amount int) {
	if amount <= 0 {
		return
	}

	l.mu.Lock()
	l.stars += amount
	l.successes++
	l.updatedAt = time.Now()
	var fresh []Award
	for _, a := range l.awards {
		if l.stars >= a.Threshold && !l.unlocked[a.Name] {
			l.unlocked[a.Name] = true
			l.order = append(l.order, a.Name)
			fresh = append(fresh, a)
		}
	}
	progress := l.snapshotLocked()
	path := l.path
	hook := l.onAward
	l.mu.Unlock()

	slog.Info("Stars awarded", "amount", amount, "total", progress.Stars)
	for _, a := range fresh {
		slog.Info("Award unlocked", "award", a.Name, "stars", progress.Stars)
		if hook != nil {
			hook(a, progress)
		}
	}

	if path != "" {
		if err := writeProgress(path, progress); err != nil {
			slog.Warn("Failed to save progress", "path", path, "error", err)
		}
	}
}

// Stars returns the current star total
func (l *Ledger) Stars() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stars
}

// Snapshot returns the current progress
func (l *Ledger) Snapshot() Progress {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *Ledger) snapshotLocked() Progress {
	p := Progress{
		Stars:     l.stars,
		Successes: l.successes,
		Unlocked:  append([]string{}, l.order...),
		UpdatedAt: l.updatedAt,
	}
	for _, a := range l.awards {
		if !l.unlocked[a.Name] {
			next := a
			p.Next = &next
			break
		}
	}
	return p
}

// Load restores progress from the ledger's file. A missing file leaves the
// ledger empty.
func (l *Ledger) Load() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.path == "" {
		return nil
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read progress file: %w", err)
	}

	var p Progress
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("failed to parse progress file: %w", err)
	}
	if p.Stars < 0 || p.Successes < 0 {
		return fmt.Errorf("failed to parse progress file: negative totals")
	}

	l.stars = p.Stars
	l.successes = p.Successes
	l.updatedAt = p.UpdatedAt
	l.unlocked = make(map[string]bool)
	l.order = nil
	for _, name := range p.Unlocked {
		if !l.unlocked[name] {
			l.unlocked[name] = true
			l.order = append(l.order, name)
		}
	}
	return nil
}

// Save writes the current progress to the ledger's file
func (l *Ledger) Save() error {
	l.mu.Lock()
	progress := l.snapshotLocked()
	path := l.path
	l.mu.Unlock()

	if path == "" {
		return nil
	}
	return writeProgress(path, progress)
}

func writeProgress(path string, p Progress) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create progress directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write progress file: %w", err)
	}
	return nil
}
