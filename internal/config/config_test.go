package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Name != "bifrost" {
		t.Errorf("expected server name bifrost, got %q", cfg.Server.Name)
	}

	if cfg.Terminal.TimeoutMs != 10000 {
		t.Errorf("expected terminal timeout 10000, got %d", cfg.Terminal.TimeoutMs)
	}

	if cfg.Search.MaxResults != 50 {
		t.Errorf("expected max_results 50, got %d", cfg.Search.MaxResults)
	}

	if cfg.Refactor.Retries != 6 || cfg.Refactor.RetryDelay != 250*time.Millisecond {
		t.Errorf("unexpected refactor defaults: %+v", cfg.Refactor)
	}

	if cfg.Gate.EnvOverride != "BIFROST_AUTO_APPROVE" {
		t.Errorf("expected env override BIFROST_AUTO_APPROVE, got %q", cfg.Gate.EnvOverride)
	}

	if cfg.Editor.InsertSpaces == nil || !*cfg.Editor.InsertSpaces {
		t.Error("expected insert_spaces to default to true")
	}

	if err := Validate(cfg); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"empty server name", func(c *Config) { c.Server.Name = "" }, true},
		{"negative timeout", func(c *Config) { c.Server.Timeout = -time.Second }, true},
		{"zero terminal timeout", func(c *Config) { c.Terminal.TimeoutMs = 0 }, true},
		{"zero max results", func(c *Config) { c.Search.MaxResults = 0 }, true},
		{"zero cursor capacity", func(c *Config) { c.Cursor.Capacity = 0 }, true},
		{"zero ttl disables expiry", func(c *Config) { c.Cursor.TTL = 0 }, false},
		{"zero retries", func(c *Config) { c.Refactor.Retries = 0 }, true},
		{"zero page size", func(c *Config) { c.Files.PageSize = 0 }, true},
		{"zero tab size", func(c *Config) { c.Editor.TabSize = 0 }, true},
		{"verbosity too high", func(c *Config) { c.Log.Verbosity = 9 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoadFromPathMergesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	content := `
terminal:
  timeout_ms: 2500
cursor:
  ttl: 10m
editor:
  insert_spaces: false
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}

	if cfg.Terminal.TimeoutMs != 2500 {
		t.Errorf("timeout_ms = %d, want 2500", cfg.Terminal.TimeoutMs)
	}
	if cfg.Terminal.Shell != "sh" {
		t.Errorf("shell = %q, want default sh", cfg.Terminal.Shell)
	}
	if cfg.Cursor.TTL != 10*time.Minute {
		t.Errorf("ttl = %v, want 10m", cfg.Cursor.TTL)
	}
	if cfg.Cursor.Capacity != 1024 {
		t.Errorf("capacity = %d, want default 1024", cfg.Cursor.Capacity)
	}
	if cfg.Editor.InsertSpaces == nil || *cfg.Editor.InsertSpaces {
		t.Error("explicit insert_spaces: false should survive the merge")
	}
}

func TestLoadFromPathMissingFile(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Search.MaxResults != 50 {
		t.Errorf("expected defaults for a missing file, got %+v", cfg.Search)
	}
}

func TestLoadFromPathInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte("search:\n  max_results: -3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFromPath(path)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestFindConfigDir(t *testing.T) {
	root := t.TempDir()
	configDir := filepath.Join(root, ConfigDirName)
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	found, err := FindConfigDir(nested)
	if err != nil {
		t.Fatalf("FindConfigDir: %v", err)
	}
	if found != configDir {
		t.Errorf("found %q, want %q", found, configDir)
	}

	if _, err := FindConfigDir(t.TempDir()); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("expected ErrConfigNotFound, got %v", err)
	}
}

func TestSaveDefault(t *testing.T) {
	dir := t.TempDir()

	path, err := SaveDefault(dir)
	if err != nil {
		t.Fatalf("SaveDefault: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# bifrost configuration") {
		t.Errorf("missing header in %q", string(data[:40]))
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("reload saved default: %v", err)
	}
	if cfg.Cursor.TTL != time.Hour {
		t.Errorf("ttl after round trip = %v, want 1h", cfg.Cursor.TTL)
	}

	if _, err := SaveDefault(dir); err == nil {
		t.Error("expected error when config already exists")
	}
}
