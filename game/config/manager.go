package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/logic-labyrinth/game/engine"
	"github.com/wricardo/logic-labyrinth/game/service"
)

var (
	ErrConfigNotFound = service.ErrConfigNotFound
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// DefaultID is the difficulty used when none is requested
const DefaultID = "easy"

// extensions searched in order when loading a difficulty by ID
var extensions = []string{".json", ".yaml", ".yml"}

// Manager handles difficulty loading and caching. Files in the config
// directory override the built-in easy, medium and hard levels.
type Manager struct {
	configDir     string
	defaultID     string
	defaultConfig *engine.DifficultyConfig
	builtin       map[string]*engine.DifficultyConfig
	configs       map[string]*engine.DifficultyConfig
	mu            sync.RWMutex
}

// NewManager creates a new configuration manager
func NewManager(configDir string) (*Manager, error) {
	// Ensure config directory exists
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		builtin:   engine.DefaultDifficulties(),
		configs:   make(map[string]*engine.DifficultyConfig),
	}

	if err := m.loadDefaultConfig(); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	return m, nil
}

// configID strips a known extension from name
func configID(name string) string {
	ext := filepath.Ext(name)
	for _, known := range extensions {
		if strings.EqualFold(ext, known) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}

// LoadConfig loads a difficulty by ID, with or without a file extension
func (m *Manager) LoadConfig(name string) (*engine.DifficultyConfig, error) {
	id := configID(name)
	if id == "" || strings.ContainsAny(id, `/\`) {
		return nil, ErrConfigNotFound
	}

	m.mu.RLock()
	// Check cache first
	if config, exists := m.configs[id]; exists {
		m.mu.RUnlock()
		return config, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if config, exists := m.configs[id]; exists {
		return config, nil
	}

	config, err := m.readConfig(id)
	if errors.Is(err, ErrConfigNotFound) {
		builtin, ok := m.builtin[id]
		if !ok {
			return nil, ErrConfigNotFound
		}
		copied := *builtin
		config, err = &copied, nil
	}
	if err != nil {
		return nil, err
	}

	m.configs[id] = config
	return config, nil
}

// readConfig reads the first of id.json, id.yaml or id.yml that exists
func (m *Manager) readConfig(id string) (*engine.DifficultyConfig, error) {
	for _, ext := range extensions {
		configPath := filepath.Join(m.configDir, id+ext)

		data, err := os.ReadFile(configPath)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		config, err := engine.ParseDifficultyConfig(ext, data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		if err := engine.ValidateDifficultyConfig(config); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		return config, nil
	}
	return nil, ErrConfigNotFound
}

// ListConfigs returns every available difficulty, ordered by maze size
func (m *Manager) ListConfigs() ([]*service.DifficultyInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	filenames := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id := configID(entry.Name())
		if id == entry.Name() {
			continue
		}
		if _, seen := filenames[id]; !seen {
			filenames[id] = entry.Name()
		}
	}
	for id := range m.builtin {
		if _, seen := filenames[id]; !seen {
			filenames[id] = ""
		}
	}

	var configs []*service.DifficultyInfo
	for id, filename := range filenames {
		config, err := m.LoadConfig(id)
		if err != nil {
			// Skip invalid configs
			slog.Warn("Skipping invalid difficulty", "id", id, "error", err)
			continue
		}

		configs = append(configs, &service.DifficultyInfo{
			Filename:       filename,
			ID:             id,
			Name:           config.Name,
			Description:    config.Description,
			MazeSize:       config.MazeSize,
			Reward:         config.Reward,
			TickIntervalMS: config.TickIntervalMS,
		})
	}

	sort.Slice(configs, func(i, j int) bool {
		if configs[i].MazeSize != configs[j].MazeSize {
			return configs[i].MazeSize < configs[j].MazeSize
		}
		return configs[i].ID < configs[j].ID
	})

	return configs, nil
}

// GetDefault returns the default configuration
func (m *Manager) GetDefault() *engine.DifficultyConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// DefaultID returns the ID of the default configuration
func (m *Manager) DefaultID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultID
}

// SetDefault sets the default configuration by ID
func (m *Manager) SetDefault(name string) error {
	config, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultID = configID(name)
	m.defaultConfig = config
	return nil
}

// RefreshCache drops every cached difficulty so files are read again
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.configs = make(map[string]*engine.DifficultyConfig)
	m.mu.Unlock()

	return m.loadDefaultConfig()
}

// loadDefaultConfig loads the easy difficulty, from disk if overridden
func (m *Manager) loadDefaultConfig() error {
	config, err := m.LoadConfig(DefaultID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultID = DefaultID
	m.defaultConfig = config
	return nil
}

// SaveConfig validates config and writes it to the config directory. A
// .yaml or .yml suffix on name selects YAML, anything else JSON.
func (m *Manager) SaveConfig(name string, config *engine.DifficultyConfig) error {
	if err := engine.ValidateDifficultyConfig(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	id := configID(name)
	if id == "" || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: invalid name %q", ErrInvalidConfig, name)
	}

	ext := strings.ToLower(filepath.Ext(name))
	var (
		data []byte
		err  error
	)
	switch ext {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(config)
	default:
		ext = ".json"
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Remove other encodings of the same ID so the new file wins
	for _, other := range extensions {
		if other != ext {
			os.Remove(filepath.Join(m.configDir, id+other))
		}
	}

	configPath := filepath.Join(m.configDir, id+ext)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	// Update cache
	m.mu.Lock()
	m.configs[id] = config
	if id == m.defaultID {
		m.defaultConfig = config
	}
	m.mu.Unlock()

	return nil
}

// Count returns the number of cached difficulties
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.configs)
}
