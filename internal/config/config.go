// Package config resolves and persists wlcap's on-disk configuration,
// in the same shape the ambient stack's viper-bound CLI flags read
// defaults from.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/dkasak/wlcap/internal/logger"
)

// Config is the on-disk configuration for wlcap.
type Config struct {
	LogLevel         string  `yaml:"log_level"`
	ServerPort       int     `yaml:"server_port"`
	DefaultScale     float64 `yaml:"default_scale"`
	OverlayCursor    bool    `yaml:"overlay_cursor"`
	OutputDir        string  `yaml:"output_dir"`
	FilenameTemplate string  `yaml:"filename_template"`
}

// Manager owns the loaded Config and persists changes back to disk.
type Manager struct {
	configPath string
	config     *Config
	mu         sync.RWMutex
}

// NewManager loads configFile, or the default
// $XDG_CONFIG_HOME/wlcap/config.yaml (falling back to
// $HOME/.config/wlcap/config.yaml) if configFile is empty. A missing
// file is not an error: defaults are written out so the path exists
// for next time.
func NewManager(configFile string) (*Manager, error) {
	actualPath := configFile
	if actualPath == "" {
		configDir := os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("config: failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
		configDir = filepath.Join(configDir, "wlcap")
		if err := os.MkdirAll(configDir, 0o755); err != nil {
			return nil, fmt.Errorf("config: failed to create config directory: %w", err)
		}
		actualPath = filepath.Join(configDir, "config.yaml")
	}

	m := &Manager{configPath: actualPath}
	if err := m.load(); err != nil {
		if os.IsNotExist(err) {
			logger.WithComponent("config").Info().Str("path", actualPath).Msg("config file not found, writing defaults")
			m.config = defaults()
			if err := m.Save(); err != nil {
				return nil, fmt.Errorf("config: failed to write default config: %w", err)
			}
		} else {
			return nil, fmt.Errorf("config: failed to read %s: %w", actualPath, err)
		}
	}
	return m, nil
}

func defaults() *Config {
	return &Config{
		LogLevel:         "info",
		ServerPort:       8080,
		DefaultScale:     1.0,
		OverlayCursor:    false,
		OutputDir:        ".",
		FilenameTemplate: "{name}-{time}.{ext}",
	}
}

func (m *Manager) load() error {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("config: failed to parse %s: %w", m.configPath, err)
	}
	if cfg.FilenameTemplate == "" {
		cfg.FilenameTemplate = defaults().FilenameTemplate
	}
	m.mu.Lock()
	m.config = &cfg
	m.mu.Unlock()
	return nil
}

// Save writes the current configuration back to disk.
func (m *Manager) Save() error {
	m.mu.RLock()
	data, err := yaml.Marshal(m.config)
	m.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("config: failed to marshal: %w", err)
	}
	return os.WriteFile(m.configPath, data, 0o644)
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg := *m.config
	return &cfg
}

// Path returns the file the manager reads from and writes to.
func (m *Manager) Path() string {
	return m.configPath
}
