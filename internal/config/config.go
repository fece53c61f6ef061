package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the bifrost configuration file
const ConfigFileName = "config.yaml"

// ConfigDirName is the name of the bifrost configuration directory
const ConfigDirName = ".bifrost"

// Config holds all bifrost configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	Gate      GateConfig      `yaml:"gate"`
	Terminal  TerminalConfig  `yaml:"terminal"`
	Search    SearchConfig    `yaml:"search"`
	Cursor    CursorConfig    `yaml:"cursor"`
	Refactor  RefactorConfig  `yaml:"refactor"`
	Files     FilesConfig     `yaml:"files"`
	Editor    EditorConfig    `yaml:"editor"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds configuration for the MCP server
type ServerConfig struct {
	Name    string        `yaml:"name"`
	Timeout time.Duration `yaml:"timeout"`
}

// WorkspaceConfig lists the folders the headless host treats as workspace roots.
// Empty means the directory containing .bifrost (or the working directory).
type WorkspaceConfig struct {
	Folders []string `yaml:"folders"`
}

// GateConfig holds configuration for the confirmation gate
type GateConfig struct {
	EnvOverride string `yaml:"env_override"`
	MementoKey  string `yaml:"memento_key"`
}

// TerminalConfig holds configuration for run_terminal_command
type TerminalConfig struct {
	TimeoutMs int    `yaml:"timeout_ms"`
	Shell     string `yaml:"shell"`
}

// SearchConfig holds configuration for search_regex
type SearchConfig struct {
	MaxResults int      `yaml:"max_results"`
	Exclude    []string `yaml:"exclude"`
}

// CursorConfig bounds the cursor tag registry
type CursorConfig struct {
	Capacity int           `yaml:"capacity"`
	TTL      time.Duration `yaml:"ttl"`
}

// RefactorConfig holds retry settings for refactor action lookup
type RefactorConfig struct {
	Retries    int           `yaml:"retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// FilesConfig holds listing limits
type FilesConfig struct {
	ListLimit      int `yaml:"list_limit"`
	PageSize       int `yaml:"page_size"`
	TreeMaxEntries int `yaml:"tree_max_entries"`
}

// EditorConfig holds formatting defaults
type EditorConfig struct {
	TabSize          int    `yaml:"tab_size"`
	InsertSpaces     *bool  `yaml:"insert_spaces"`
	DefaultFormatter string `yaml:"default_formatter"`
}

// LogConfig holds commonlog settings
type LogConfig struct {
	Verbosity int    `yaml:"verbosity"`
	File      string `yaml:"file"`
}

// ErrConfigNotFound is returned when no config file can be found
var ErrConfigNotFound = errors.New("config file not found")

// ErrInvalidConfig is returned when config validation fails
var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads config from .bifrost/config.yaml, falling back to defaults.
// It searches for the config directory starting from workDir and walking up
// the directory tree. If no config is found, returns defaults.
func Load(workDir string) (*Config, error) {
	configDir, err := FindConfigDir(workDir)
	if err != nil {
		return DefaultConfig(), nil
	}

	return LoadFromPath(filepath.Join(configDir, ConfigFileName))
}

// LoadFromPath reads config from a specific path.
// Merges loaded config with defaults and validates the result.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	loaded := &Config{}
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	merged := Merge(loaded, DefaultConfig())
	if err := Validate(merged); err != nil {
		return nil, err
	}

	return merged, nil
}

// FindConfigDir locates the .bifrost directory by walking up from startDir.
func FindConfigDir(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	currentDir := absDir
	for {
		configDir := filepath.Join(currentDir, ConfigDirName)
		info, err := os.Stat(configDir)
		if err == nil && info.IsDir() {
			return configDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", ErrConfigNotFound
		}
		currentDir = parentDir
	}
}

// EnsureConfigDir creates the .bifrost directory if it doesn't exist.
// Returns the path to the .bifrost directory.
func EnsureConfigDir(workDir string) (string, error) {
	absDir, err := filepath.Abs(workDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	configDir := filepath.Join(absDir, ConfigDirName)

	info, err := os.Stat(configDir)
	if err == nil {
		if info.IsDir() {
			return configDir, nil
		}
		return "", fmt.Errorf("%s exists but is not a directory", configDir)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	return configDir, nil
}

// Validate checks that config values are valid.
func Validate(cfg *Config) error {
	if cfg.Server.Name == "" {
		return fmt.Errorf("%w: server.name must not be empty", ErrInvalidConfig)
	}

	if cfg.Server.Timeout < 0 {
		return fmt.Errorf("%w: server.timeout must be non-negative, got %v",
			ErrInvalidConfig, cfg.Server.Timeout)
	}

	if cfg.Terminal.TimeoutMs <= 0 {
		return fmt.Errorf("%w: terminal.timeout_ms must be positive, got %d",
			ErrInvalidConfig, cfg.Terminal.TimeoutMs)
	}

	if cfg.Search.MaxResults <= 0 {
		return fmt.Errorf("%w: search.max_results must be positive, got %d",
			ErrInvalidConfig, cfg.Search.MaxResults)
	}

	if cfg.Cursor.Capacity <= 0 {
		return fmt.Errorf("%w: cursor.capacity must be positive, got %d",
			ErrInvalidConfig, cfg.Cursor.Capacity)
	}

	if cfg.Cursor.TTL < 0 {
		return fmt.Errorf("%w: cursor.ttl must be non-negative, got %v",
			ErrInvalidConfig, cfg.Cursor.TTL)
	}

	if cfg.Refactor.Retries <= 0 {
		return fmt.Errorf("%w: refactor.retries must be positive, got %d",
			ErrInvalidConfig, cfg.Refactor.Retries)
	}

	if cfg.Refactor.RetryDelay < 0 {
		return fmt.Errorf("%w: refactor.retry_delay must be non-negative, got %v",
			ErrInvalidConfig, cfg.Refactor.RetryDelay)
	}

	if cfg.Files.ListLimit <= 0 || cfg.Files.PageSize <= 0 || cfg.Files.TreeMaxEntries <= 0 {
		return fmt.Errorf("%w: files limits must be positive", ErrInvalidConfig)
	}

	if cfg.Editor.TabSize <= 0 {
		return fmt.Errorf("%w: editor.tab_size must be positive, got %d",
			ErrInvalidConfig, cfg.Editor.TabSize)
	}

	if cfg.Log.Verbosity < -4 || cfg.Log.Verbosity > 5 {
		return fmt.Errorf("%w: log.verbosity must be between -4 and 5, got %d",
			ErrInvalidConfig, cfg.Log.Verbosity)
	}

	return nil
}

// SaveDefault writes the default configuration to .bifrost/config.yaml in workDir.
// Creates the .bifrost directory if it doesn't exist.
func SaveDefault(workDir string) (string, error) {
	configDir, err := EnsureConfigDir(workDir)
	if err != nil {
		return "", err
	}

	configPath := filepath.Join(configDir, ConfigFileName)

	if _, err := os.Stat(configPath); err == nil {
		return "", fmt.Errorf("config file already exists: %s", configPath)
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}

	header := "# bifrost configuration\n\n"
	data = append([]byte(header), data...)

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}

	return configPath, nil
}
