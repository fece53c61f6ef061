package local

import (
	"context"
	"fmt"
	"strings"
	"sync"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/bifrost-mcp/bifrost/internal/config"
	"github.com/bifrost-mcp/bifrost/internal/host"
)

// Commands runs the few workbench commands that make sense without an editor
// UI. Debug toolbar commands fail because no adapter is attached.
type Commands struct {
	ws     *Workspace
	window *Window
	lang   *Language
}

var _ host.CommandExecutor = (*Commands)(nil)

// NewCommands returns the built-in command table.
func NewCommands(ws *Workspace, window *Window, lang *Language) *Commands {
	return &Commands{ws: ws, window: window, lang: lang}
}

func (c *Commands) Execute(ctx context.Context, command string, _ ...any) (any, error) {
	switch command {
	case "workbench.action.files.saveAll":
		return c.ws.SaveAll(ctx)
	case "workbench.action.files.save":
		ed, ok := c.window.ActiveEditor()
		if !ok {
			return false, nil
		}
		return c.ws.Save(ctx, ed.URI)
	case "editor.action.formatDocument":
		ed, ok := c.window.ActiveEditor()
		if !ok {
			return nil, nil
		}
		edits, err := c.lang.FormatDocument(ctx, ed.URI, host.FormattingOptions{})
		if err != nil || len(edits) == 0 {
			return nil, err
		}
		_, err = c.ws.ApplyEdit(ctx, protocol.WorkspaceEdit{
			Changes: map[protocol.DocumentUri][]protocol.TextEdit{protocol.DocumentUri(ed.URI): edits},
		})
		return nil, err
	case "workbench.action.closeActiveEditor":
		ed, ok := c.window.ActiveEditor()
		if !ok {
			return false, nil
		}
		return c.window.CloseTab(ctx, host.Tab{URI: ed.URI})
	}
	if strings.HasPrefix(command, "workbench.action.debug.") {
		return nil, fmt.Errorf("%s: %w", command, errNoAdapter)
	}
	return nil, fmt.Errorf("command '%s' not found", command)
}

// gofmtExtension is the formatter FormatDocument provides for Go.
var gofmtExtension = host.Extension{
	ID:          "bifrost.gofmt",
	Name:        "gofmt",
	DisplayName: "gofmt",
	Description: "Formats Go source with go/format",
	Languages:   []string{"go"},
}

// Extensions is the fixed list of built-in providers.
type Extensions struct{}

var _ host.ExtensionRegistry = Extensions{}

func (Extensions) All() []host.Extension { return []host.Extension{gofmtExtension} }

// Settings is an in-memory section.key store seeded from the editor config.
// Folder scopes are not distinguished.
type Settings struct {
	mu     sync.RWMutex
	values map[string]any
}

var _ host.Settings = (*Settings)(nil)

// NewSettings seeds editor.tabSize, editor.insertSpaces and
// editor.defaultFormatter from cfg.
func NewSettings(cfg config.EditorConfig) *Settings {
	s := &Settings{values: map[string]any{}}
	if cfg.TabSize > 0 {
		s.values["editor.tabSize"] = cfg.TabSize
	}
	if cfg.InsertSpaces != nil {
		s.values["editor.insertSpaces"] = *cfg.InsertSpaces
	}
	if cfg.DefaultFormatter != "" {
		s.values["editor.defaultFormatter"] = cfg.DefaultFormatter
	}
	return s
}

func (s *Settings) Get(section, key, _ string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[section+"."+key]
	return v, ok
}

// Update stores value; nil removes the key.
func (s *Settings) Update(_ context.Context, section, key string, value any, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value == nil {
		delete(s.values, section+"."+key)
		return nil
	}
	s.values[section+"."+key] = value
	return nil
}
