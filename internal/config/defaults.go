package config

import "time"

// DefaultExcludes are the folders skipped by manual search and file listings.
var DefaultExcludes = []string{"node_modules", ".git", "out", "dist", ".vscode", ".idea"}

// DefaultConfig returns configuration with sensible defaults.
// These defaults are used when no config file exists or when
// config file is missing specific fields.
func DefaultConfig() *Config {
	insertSpaces := true
	return &Config{
		Server: ServerConfig{
			Name:    "bifrost",
			Timeout: 0,
		},
		Gate: GateConfig{
			EnvOverride: "BIFROST_AUTO_APPROVE",
			MementoKey:  "bifrost-auto-approve",
		},
		Terminal: TerminalConfig{
			TimeoutMs: 10000,
			Shell:     "sh",
		},
		Search: SearchConfig{
			MaxResults: 50,
			Exclude:    append([]string(nil), DefaultExcludes...),
		},
		Cursor: CursorConfig{
			Capacity: 1024,
			TTL:      time.Hour,
		},
		Refactor: RefactorConfig{
			Retries:    6,
			RetryDelay: 250 * time.Millisecond,
		},
		Files: FilesConfig{
			ListLimit:      200,
			PageSize:       100,
			TreeMaxEntries: 200,
		},
		Editor: EditorConfig{
			TabSize:      4,
			InsertSpaces: &insertSpaces,
		},
		Log: LogConfig{
			Verbosity: 0,
		},
	}
}

// Merge merges loaded config with defaults.
// Values from loaded config take precedence over defaults.
// Returns a new Config with merged values.
func Merge(loaded, defaults *Config) *Config {
	result := &Config{}

	result.Server = mergeServerConfig(loaded.Server, defaults.Server)
	result.Workspace = loaded.Workspace
	if len(result.Workspace.Folders) == 0 {
		result.Workspace = defaults.Workspace
	}
	result.Gate = mergeGateConfig(loaded.Gate, defaults.Gate)
	result.Terminal = mergeTerminalConfig(loaded.Terminal, defaults.Terminal)
	result.Search = mergeSearchConfig(loaded.Search, defaults.Search)
	result.Cursor = mergeCursorConfig(loaded.Cursor, defaults.Cursor)
	result.Refactor = mergeRefactorConfig(loaded.Refactor, defaults.Refactor)
	result.Files = mergeFilesConfig(loaded.Files, defaults.Files)
	result.Editor = mergeEditorConfig(loaded.Editor, defaults.Editor)
	result.Log = mergeLogConfig(loaded.Log, defaults.Log)

	return result
}

func mergeServerConfig(loaded, defaults ServerConfig) ServerConfig {
	result := defaults
	if loaded.Name != "" {
		result.Name = loaded.Name
	}
	if loaded.Timeout != 0 {
		result.Timeout = loaded.Timeout
	}
	return result
}

func mergeGateConfig(loaded, defaults GateConfig) GateConfig {
	result := defaults
	if loaded.EnvOverride != "" {
		result.EnvOverride = loaded.EnvOverride
	}
	if loaded.MementoKey != "" {
		result.MementoKey = loaded.MementoKey
	}
	return result
}

func mergeTerminalConfig(loaded, defaults TerminalConfig) TerminalConfig {
	result := defaults
	if loaded.TimeoutMs != 0 {
		result.TimeoutMs = loaded.TimeoutMs
	}
	if loaded.Shell != "" {
		result.Shell = loaded.Shell
	}
	return result
}

func mergeSearchConfig(loaded, defaults SearchConfig) SearchConfig {
	result := defaults
	if loaded.MaxResults != 0 {
		result.MaxResults = loaded.MaxResults
	}
	// Exclude: use loaded if provided
	if len(loaded.Exclude) > 0 {
		result.Exclude = loaded.Exclude
	}
	return result
}

func mergeCursorConfig(loaded, defaults CursorConfig) CursorConfig {
	result := defaults
	if loaded.Capacity != 0 {
		result.Capacity = loaded.Capacity
	}
	if loaded.TTL != 0 {
		result.TTL = loaded.TTL
	}
	return result
}

func mergeRefactorConfig(loaded, defaults RefactorConfig) RefactorConfig {
	result := defaults
	if loaded.Retries != 0 {
		result.Retries = loaded.Retries
	}
	if loaded.RetryDelay != 0 {
		result.RetryDelay = loaded.RetryDelay
	}
	return result
}

func mergeFilesConfig(loaded, defaults FilesConfig) FilesConfig {
	result := defaults
	if loaded.ListLimit != 0 {
		result.ListLimit = loaded.ListLimit
	}
	if loaded.PageSize != 0 {
		result.PageSize = loaded.PageSize
	}
	if loaded.TreeMaxEntries != 0 {
		result.TreeMaxEntries = loaded.TreeMaxEntries
	}
	return result
}

func mergeEditorConfig(loaded, defaults EditorConfig) EditorConfig {
	result := defaults
	if loaded.TabSize != 0 {
		result.TabSize = loaded.TabSize
	}
	// InsertSpaces is a pointer so an explicit false survives the merge
	if loaded.InsertSpaces != nil {
		result.InsertSpaces = loaded.InsertSpaces
	}
	if loaded.DefaultFormatter != "" {
		result.DefaultFormatter = loaded.DefaultFormatter
	}
	return result
}

func mergeLogConfig(loaded, defaults LogConfig) LogConfig {
	result := defaults
	if loaded.Verbosity != 0 {
		result.Verbosity = loaded.Verbosity
	}
	if loaded.File != "" {
		result.File = loaded.File
	}
	return result
}
