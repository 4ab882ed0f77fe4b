package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/logic-labyrinth/game/maze"
)

// ValidateDifficultyConfig validates a difficulty configuration for correctness
func ValidateDifficultyConfig(config *DifficultyConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}

	// Validate required fields
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	// Validate maze size
	if err := maze.ValidateSize(config.MazeSize); err != nil {
		return fmt.Errorf("config validation: maze_size: %v", err)
	}

	if config.Reward < MinReward || config.Reward > MaxReward {
		return fmt.Errorf("config validation: reward must be between %d and %d, got %d", MinReward, MaxReward, config.Reward)
	}

	if config.TickIntervalMS < MinTickIntervalMS || config.TickIntervalMS > MaxTickIntervalMS {
		return fmt.Errorf("config validation: tick_interval_ms must be between %d and %d, got %d",
			MinTickIntervalMS, MaxTickIntervalMS, config.TickIntervalMS)
	}

	// Validate messages
	if config.Messages.Welcome == "" {
		return fmt.Errorf("config validation: messages.welcome is required")
	}
	if config.Messages.Incomplete == "" {
		return fmt.Errorf("config validation: messages.incomplete is required")
	}
	if config.Messages.Crashed == "" {
		return fmt.Errorf("config validation: messages.crashed is required")
	}
	if !strings.Contains(config.Messages.Success, "%d") {
		return fmt.Errorf("config validation: messages.success must contain %%d for the reward")
	}

	return nil
}

// DefaultMessages returns the stock player messages
func DefaultMessages() Messages {
	return Messages{
		Welcome:    "Guide the player to the flag!",
		Success:    "Success! +%d⭐",
		Incomplete: "Didn't reach the exit. Try again!",
		Crashed:    "Crashed into a wall!",
	}
}

// DefaultDifficulties returns the built-in easy, medium and hard levels keyed by ID
func DefaultDifficulties() map[string]*DifficultyConfig {
	return map[string]*DifficultyConfig{
		"easy": {
			Name:           "easy",
			Description:    "A small 7x7 labyrinth",
			MazeSize:       7,
			Reward:         1,
			TickIntervalMS: 150,
			Messages:       DefaultMessages(),
		},
		"medium": {
			Name:           "medium",
			Description:    "An 11x11 labyrinth",
			MazeSize:       11,
			Reward:         2,
			TickIntervalMS: 150,
			Messages:       DefaultMessages(),
		},
		"hard": {
			Name:           "hard",
			Description:    "A winding 15x15 labyrinth",
			MazeSize:       15,
			Reward:         3,
			TickIntervalMS: 150,
			Messages:       DefaultMessages(),
		},
	}
}

// LoadDifficultyConfig loads a difficulty from a .json, .yaml or .yml file
func LoadDifficultyConfig(filename string) (*DifficultyConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	config, err := ParseDifficultyConfig(filepath.Ext(filename), data)
	if err != nil {
		return nil, err
	}

	// Validate the loaded configuration
	if err := ValidateDifficultyConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// ParseDifficultyConfig decodes data according to the file extension ext
func ParseDifficultyConfig(ext string, data []byte) (*DifficultyConfig, error) {
	var config DifficultyConfig
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	}
	return &config, nil
}

// MessageFor returns the player message for a run in the given state
func (c *DifficultyConfig) MessageFor(status Status, outcome Outcome) string {
	switch {
	case outcome == OutcomeSuccess:
		return fmt.Sprintf(c.Messages.Success, c.Reward)
	case outcome == OutcomeIncomplete:
		return c.Messages.Incomplete
	case outcome == OutcomeCrashed:
		return c.Messages.Crashed
	case status == StatusRunning:
		return "Running..."
	default:
		return c.Messages.Welcome
	}
}
