// Package config provides configuration loading and management for ontoview.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the complete ontoview configuration
type Config struct {
	NATS      NATSConfig      `yaml:"nats"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	Layout    LayoutConfig    `yaml:"layout"`
	Session   SessionConfig   `yaml:"session"`
}

// NATSConfig configures the NATS connection
type NATSConfig struct {
	// URL is the NATS server URL
	URL string `yaml:"url"`
}

// WorkspaceConfig configures the watched document workspace
type WorkspaceConfig struct {
	// Path is the workspace root path (current directory if empty)
	Path string `yaml:"path"`
	// Include is the list of glob patterns for watched documents
	Include []string `yaml:"include"`
	// DebounceMS is the change debounce window in milliseconds
	DebounceMS int `yaml:"debounce_ms"`
	// FSProxy routes file access through the editor host instead of
	// the local filesystem
	FSProxy bool `yaml:"fs_proxy"`
}

// LayoutConfig configures the layout engine connection
type LayoutConfig struct {
	// Subject is the NATS subject of the layout engine
	Subject string `yaml:"subject"`
	// TimeoutSecs is the maximum time to wait for collaborator replies
	TimeoutSecs int `yaml:"timeout_secs"`
}

// SessionConfig configures view session tracking
type SessionConfig struct {
	// IdleMins is how long a view session stays active without requests
	IdleMins int `yaml:"idle_mins"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		NATS: NATSConfig{
			URL: "nats://localhost:4222",
		},
		Workspace: WorkspaceConfig{
			Path:       "", // Current directory
			Include:    []string{"**/*.oml"},
			DebounceMS: 300,
		},
		Layout: LayoutConfig{
			Subject:     "diagram.layout.request",
			TimeoutSecs: 15,
		},
		Session: SessionConfig{
			IdleMins: 30,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required")
	}
	if c.Workspace.DebounceMS < 0 {
		return fmt.Errorf("workspace.debounce_ms must not be negative")
	}
	if c.Layout.Subject == "" {
		return fmt.Errorf("layout.subject is required")
	}
	if c.Layout.TimeoutSecs <= 0 {
		return fmt.Errorf("layout.timeout_secs must be positive")
	}
	if c.Session.IdleMins <= 0 {
		return fmt.Errorf("session.idle_mins must be positive")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}

	// Workspace
	if other.Workspace.Path != "" {
		c.Workspace.Path = other.Workspace.Path
	}
	if len(other.Workspace.Include) > 0 {
		c.Workspace.Include = other.Workspace.Include
	}
	if other.Workspace.DebounceMS != 0 {
		c.Workspace.DebounceMS = other.Workspace.DebounceMS
	}
	if other.Workspace.FSProxy {
		c.Workspace.FSProxy = true
	}

	// Layout
	if other.Layout.Subject != "" {
		c.Layout.Subject = other.Layout.Subject
	}
	if other.Layout.TimeoutSecs != 0 {
		c.Layout.TimeoutSecs = other.Layout.TimeoutSecs
	}

	// Session
	if other.Session.IdleMins != 0 {
		c.Session.IdleMins = other.Session.IdleMins
	}
}
