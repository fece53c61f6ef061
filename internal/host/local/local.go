// Package local is the headless host: a real file system with in-memory
// buffers, tree-sitter language features, shell tasks, and message boxes
// answered on the controlling terminal. It lets bifrost serve MCP clients
// without an editor attached.
package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tliron/commonlog"

	"github.com/bifrost-mcp/bifrost/internal/config"
	"github.com/bifrost-mcp/bifrost/internal/host"
	"github.com/bifrost-mcp/bifrost/internal/memento"
)

var log = commonlog.GetLogger("bifrost.host.local")

// Options configures New.
type Options struct {
	// Folders are the workspace root directories. At least one is required.
	Folders []string
	// StateDir holds state.db and the trash folder, usually .bifrost.
	StateDir string
	// Prompter answers message boxes. Nil uses the controlling terminal.
	Prompter Prompter
	Config   *config.Config
	// NoWatch disables the file watcher.
	NoWatch bool
}

// Host is a host.Host backed by the local machine. Close releases the state
// database and the file watcher.
type Host struct {
	*host.Host
	Workspace *Workspace
	Window    *Window
	Tasks     *Tasks

	state   *memento.Store
	watcher *watcher
}

// New assembles a headless host over opts.Folders.
func New(ctx context.Context, opts Options) (*Host, error) {
	if len(opts.Folders) == 0 {
		return nil, errors.New("local host: no workspace folders")
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	roots := make([]string, 0, len(opts.Folders))
	for _, f := range opts.Folders {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("local host: %w", err)
		}
		roots = append(roots, abs)
	}
	if opts.StateDir == "" {
		opts.StateDir = filepath.Join(roots[0], config.ConfigDirName)
	}
	if err := os.MkdirAll(opts.StateDir, 0o755); err != nil {
		return nil, fmt.Errorf("local host: state dir: %w", err)
	}
	state, err := memento.Open(opts.StateDir)
	if err != nil {
		return nil, fmt.Errorf("local host: %w", err)
	}

	prompter := opts.Prompter
	if prompter == nil {
		prompter = &TTYPrompter{}
	}
	ws := NewWorkspace(roots, filepath.Join(opts.StateDir, "trash"))
	window := NewWindow(prompter)
	lang := NewLanguage(ws)
	tasks := NewTasks(ws, cfg.Terminal.Shell)

	h := &Host{
		Host: &host.Host{
			Language:    lang,
			Diagnostics: NewDiagnostics(lang),
			Workspace:   ws,
			Window:      window,
			Tasks:       tasks,
			Debug:       &Debugger{},
			Commands:    NewCommands(ws, window, lang),
			Extensions:  Extensions{},
			Settings:    NewSettings(cfg.Editor),
			Memento:     state,
		},
		Workspace: ws,
		Window:    window,
		Tasks:     tasks,
		state:     state,
	}

	if !opts.NoWatch {
		w, err := newWatcher(ws, roots, host.DefaultExcludeGlob)
		if err == nil {
			err = w.start(ctx)
		}
		if err != nil {
			// Buffers still work without live reload.
			log.Warningf("file watcher disabled: %s", err)
			if w != nil {
				w.stop()
			}
		} else {
			h.watcher = w
		}
	}

	log.Infof("local host over %v, state in %s", roots, state.Path())
	return h, nil
}

// Close stops the watcher and closes the state database.
func (h *Host) Close() error {
	if h.watcher != nil {
		h.watcher.stop()
	}
	return h.state.Close()
}
