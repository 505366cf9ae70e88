package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.NATS.URL != "nats://localhost:4222" {
		t.Errorf("expected default NATS URL nats://localhost:4222, got %s", cfg.NATS.URL)
	}
	if cfg.Workspace.DebounceMS != 300 {
		t.Errorf("expected default debounce 300ms, got %d", cfg.Workspace.DebounceMS)
	}
	if len(cfg.Workspace.Include) != 1 || cfg.Workspace.Include[0] != "**/*.oml" {
		t.Errorf("expected default include **/*.oml, got %v", cfg.Workspace.Include)
	}
	if cfg.Layout.Subject != "diagram.layout.request" {
		t.Errorf("expected default layout subject diagram.layout.request, got %s", cfg.Layout.Subject)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing NATS URL",
			modify:  func(c *Config) { c.NATS.URL = "" },
			wantErr: true,
		},
		{
			name:    "negative debounce",
			modify:  func(c *Config) { c.Workspace.DebounceMS = -1 },
			wantErr: true,
		},
		{
			name:    "missing layout subject",
			modify:  func(c *Config) { c.Layout.Subject = "" },
			wantErr: true,
		},
		{
			name:    "zero layout timeout",
			modify:  func(c *Config) { c.Layout.TimeoutSecs = 0 },
			wantErr: true,
		},
		{
			name:    "zero session idle",
			modify:  func(c *Config) { c.Session.IdleMins = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temp file with config
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
nats:
  url: "nats://test:4222"
workspace:
  path: "/test/vocabularies"
  include:
    - "**/*.oml"
    - "**/*.omlx"
  debounce_ms: 150
layout:
  subject: "layout.test"
  timeout_secs: 5
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.NATS.URL != "nats://test:4222" {
		t.Errorf("expected NATS URL nats://test:4222, got %s", cfg.NATS.URL)
	}
	if cfg.Workspace.Path != "/test/vocabularies" {
		t.Errorf("expected workspace path /test/vocabularies, got %s", cfg.Workspace.Path)
	}
	if len(cfg.Workspace.Include) != 2 {
		t.Errorf("expected 2 include patterns, got %d", len(cfg.Workspace.Include))
	}
	if cfg.Workspace.DebounceMS != 150 {
		t.Errorf("expected debounce 150ms, got %d", cfg.Workspace.DebounceMS)
	}
	if cfg.Layout.Subject != "layout.test" {
		t.Errorf("expected layout subject layout.test, got %s", cfg.Layout.Subject)
	}
	if cfg.Layout.TimeoutSecs != 5 {
		t.Errorf("expected layout timeout 5s, got %d", cfg.Layout.TimeoutSecs)
	}
	// Unset sections keep their defaults
	if cfg.Session.IdleMins != 30 {
		t.Errorf("expected session idle to remain default 30, got %d", cfg.Session.IdleMins)
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	override := &Config{
		NATS: NATSConfig{
			URL: "nats://override:4222",
		},
		Workspace: WorkspaceConfig{
			Path: "/override/path",
		},
	}

	base.Merge(override)

	if base.NATS.URL != "nats://override:4222" {
		t.Errorf("expected NATS URL nats://override:4222, got %s", base.NATS.URL)
	}
	if base.Workspace.Path != "/override/path" {
		t.Errorf("expected workspace path /override/path, got %s", base.Workspace.Path)
	}
	// Debounce should remain from base since override didn't set it
	if base.Workspace.DebounceMS != 300 {
		t.Errorf("expected debounce to remain default, got %d", base.Workspace.DebounceMS)
	}
	if base.Layout.Subject != "diagram.layout.request" {
		t.Errorf("expected layout subject to remain default, got %s", base.Layout.Subject)
	}
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Workspace.Path = "/saved/path"

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	// Verify file was created
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}

	// Load and verify
	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Workspace.Path != "/saved/path" {
		t.Errorf("expected workspace path /saved/path, got %s", loaded.Workspace.Path)
	}
}
