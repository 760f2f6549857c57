package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Manager loads, overrides and validates configurations
type Manager struct {
	validator Validator
	lookupEnv func(string) (string, bool)
}

// NewManager creates a configuration manager reading the process environment
func NewManager() *Manager {
	return &Manager{
		validator: NewAnalysisValidator(),
		lookupEnv: os.LookupEnv,
	}
}

// WithLookup replaces the environment lookup
func (m *Manager) WithLookup(lookup func(string) (string, bool)) *Manager {
	m.lookupEnv = lookup
	return m
}

// LoadEnvFile loads variables from an env file into the process
// environment. A missing file is not an error.
func (m *Manager) LoadEnvFile(path string) error {
	if path == "" {
		path = DefaultEnvFile
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logrus.Debugf("env file %s not found, using process environment", path)
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("could not load env file %s: %w", path, err)
	}
	return nil
}

// LoadConfig builds the configuration from defaults, the YAML file and the
// environment, then validates it. An empty path tries DefaultConfigFile and
// falls back to defaults when it does not exist.
func (m *Manager) LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	if err := m.loadFromFile(path, cfg); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := m.ApplyEnv(cfg); err != nil {
		return nil, err
	}

	if err := m.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func (m *Manager) loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("could not parse %s: %w", path, err)
	}
	logrus.Debugf("configuration loaded from %s", path)
	return nil
}

// ApplyEnv overrides cfg with the SIZING_* environment variables
func (m *Manager) ApplyEnv(cfg *Config) error {
	if v, ok := m.lookup(EnvDataDir); ok {
		cfg.Data.Folder = v
	}
	if v, ok := m.lookup(EnvResultsDir); ok {
		cfg.Output.ResultsDir = v
	}
	if v, ok := m.lookup(EnvSeed); ok {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvSeed, v, err)
		}
		cfg.Seed = seed
	}
	if v, ok := m.lookup(EnvWorkers); ok {
		workers, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvWorkers, v, err)
		}
		cfg.Workers = workers
	}
	return nil
}

func (m *Manager) lookup(key string) (string, bool) {
	v, ok := m.lookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// ValidateConfig validates a configuration using the validator
func (m *Manager) ValidateConfig(cfg *Config) error {
	return m.validator.Validate(cfg)
}

// SaveConfig writes cfg as YAML
func (m *Manager) SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}
