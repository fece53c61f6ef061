// Package hosttest provides an in-memory host for router tests.
package hosttest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/bifrost-mcp/bifrost/internal/host"
)

// Fake bundles one fake per collaborator. Shell and Search start nil.
type Fake struct {
	Workspace   *Workspace
	Window      *Window
	Language    *Language
	Diagnostics *Diagnostics
	Tasks       *Tasks
	Debug       *Debugger
	Commands    *Commands
	Extensions  *Extensions
	Settings    *Settings
	Memento     *Memento
	Shell       *Shell
	Search      *Search
}

// New creates a fake host whose workspace folders are the given absolute
// paths.
func New(folders ...string) *Fake {
	return &Fake{
		Workspace:   newWorkspace(folders...),
		Window:      newWindow(),
		Language:    &Language{},
		Diagnostics: &Diagnostics{},
		Tasks:       &Tasks{},
		Debug:       &Debugger{Responses: map[string]map[string]any{}},
		Commands:    &Commands{},
		Extensions:  &Extensions{},
		Settings:    &Settings{values: map[string]any{}},
		Memento:     NewMemento(),
	}
}

// Host assembles the collaborators into a host.Host.
func (f *Fake) Host() *host.Host {
	h := &host.Host{
		Language:    f.Language,
		Diagnostics: f.Diagnostics,
		Workspace:   f.Workspace,
		Window:      f.Window,
		Tasks:       f.Tasks,
		Debug:       f.Debug,
		Commands:    f.Commands,
		Extensions:  f.Extensions,
		Settings:    f.Settings,
		Memento:     f.Memento,
	}
	if f.Shell != nil {
		h.Shell = f.Shell
	}
	if f.Search != nil {
		h.Search = f.Search
	}
	return h
}

// Diagnostics is a fixed diagnostics store.
type Diagnostics struct {
	Files []host.FileDiagnostics
}

func (d *Diagnostics) All(context.Context) ([]host.FileDiagnostics, error) {
	return d.Files, nil
}

func (d *Diagnostics) ForURI(_ context.Context, uri string) ([]protocol.Diagnostic, error) {
	for _, f := range d.Files {
		if f.URI == uri {
			return f.Diagnostics, nil
		}
	}
	return nil, nil
}

// Tasks serves List and reports ExitCodes by task name.
type Tasks struct {
	mu        sync.Mutex
	List      []host.Task
	ExitCodes map[string]*int
	Ran       []string
}

// Code is a helper for ExitCodes literals.
func Code(c int) *int { return &c }

func (t *Tasks) Tasks(context.Context) ([]host.Task, error) {
	return t.List, nil
}

func (t *Tasks) Run(_ context.Context, task host.Task) (*int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Ran = append(t.Ran, task.Name)
	if code, ok := t.ExitCodes[task.Name]; ok {
		return code, nil
	}
	return Code(0), nil
}

// StartCall records Debugger.Start.
type StartCall struct {
	Folder  string
	Name    string
	NoDebug bool
}

// DAPCall records Debugger.CustomRequest.
type DAPCall struct {
	Command string
	Args    map[string]any
}

// Debugger keeps sessions and breakpoints in memory. CustomRequest answers
// from Responses keyed by command, or from Evaluate for "evaluate".
type Debugger struct {
	mu          sync.Mutex
	Active      *host.DebugSession
	All         []host.DebugSession
	Started     []StartCall
	Stopped     []host.DebugSession
	Requests    []DAPCall
	Responses   map[string]map[string]any
	Evaluate    func(expression string) (map[string]any, error)
	breakpoints []host.Breakpoint
}

func (d *Debugger) ActiveSession() (host.DebugSession, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Active == nil {
		return host.DebugSession{}, false
	}
	return *d.Active, true
}

func (d *Debugger) Sessions() []host.DebugSession {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]host.DebugSession(nil), d.All...)
}

func (d *Debugger) Start(_ context.Context, folder, name string, noDebug bool) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Started = append(d.Started, StartCall{Folder: folder, Name: name, NoDebug: noDebug})
	return true, nil
}

func (d *Debugger) Stop(_ context.Context, session host.DebugSession) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Stopped = append(d.Stopped, session)
	d.Active = nil
	return true, nil
}

func (d *Debugger) CustomRequest(_ context.Context, _ host.DebugSession, command string, args map[string]any) (map[string]any, error) {
	d.mu.Lock()
	d.Requests = append(d.Requests, DAPCall{Command: command, Args: args})
	eval := d.Evaluate
	resp, ok := d.Responses[command]
	d.mu.Unlock()
	if command == "evaluate" && eval != nil {
		expr, _ := args["expression"].(string)
		return eval(expr)
	}
	if !ok {
		return nil, fmt.Errorf("unexpected request %q", command)
	}
	return resp, nil
}

func (d *Debugger) Breakpoints() []host.Breakpoint {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]host.Breakpoint(nil), d.breakpoints...)
}

func (d *Debugger) AddBreakpoints(_ context.Context, bps []host.Breakpoint) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.breakpoints = append(d.breakpoints, bps...)
	return nil
}

func (d *Debugger) RemoveBreakpoints(_ context.Context, bps []host.Breakpoint) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	kept := d.breakpoints[:0]
	for _, bp := range d.breakpoints {
		remove := false
		for _, r := range bps {
			if bp == r {
				remove = true
				break
			}
		}
		if !remove {
			kept = append(kept, bp)
		}
	}
	d.breakpoints = kept
	return nil
}

// Call records a command execution.
type Call struct {
	Command string
	Args    []any
}

// Commands records executions and answers from Results.
type Commands struct {
	mu       sync.Mutex
	Executed []Call
	Results  map[string]any
	Errors   map[string]error
}

func (c *Commands) Execute(_ context.Context, command string, args ...any) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Executed = append(c.Executed, Call{Command: command, Args: args})
	if err, ok := c.Errors[command]; ok {
		return nil, err
	}
	return c.Results[command], nil
}

// Names lists executed command identifiers in order.
func (c *Commands) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, len(c.Executed))
	for i, call := range c.Executed {
		names[i] = call.Command
	}
	return names
}

// Extensions is a fixed extension list.
type Extensions struct {
	List []host.Extension
}

func (e *Extensions) All() []host.Extension { return e.List }

// SettingUpdate records Settings.Update.
type SettingUpdate struct {
	Section string
	Key     string
	Value   any
}

// Settings is a flat section.key map.
type Settings struct {
	mu      sync.Mutex
	values  map[string]any
	Updates []SettingUpdate
}

// Set seeds a value without recording an update.
func (s *Settings) Set(section, key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[section+"."+key] = value
}

func (s *Settings) Get(section, key, _ string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[section+"."+key]
	return v, ok
}

func (s *Settings) Update(_ context.Context, section, key string, value any, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Updates = append(s.Updates, SettingUpdate{Section: section, Key: key, Value: value})
	if value == nil {
		delete(s.values, section+"."+key)
		return nil
	}
	s.values[section+"."+key] = value
	return nil
}

// Memento is an in-memory host.Memento.
type Memento struct {
	mu     sync.Mutex
	values map[string]string
	Err    error
}

// NewMemento creates an empty memento.
func NewMemento() *Memento {
	return &Memento{values: map[string]string{}}
}

func (m *Memento) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", false, m.Err
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memento) Update(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.values[key] = value
	return nil
}

// ErrNoShell is what Shell returns when Unavailable is set.
var ErrNoShell = errors.New("shell integration unavailable")

// Shell streams Output for every command, or fails when Unavailable.
type Shell struct {
	Output      string
	Unavailable bool
	// Block keeps the stream open after Output until the context ends.
	Block    bool
	Commands []string
}

func (s *Shell) Execute(ctx context.Context, command, _ string) (io.ReadCloser, error) {
	s.Commands = append(s.Commands, command)
	if s.Unavailable {
		return nil, ErrNoShell
	}
	if !s.Block {
		return io.NopCloser(strings.NewReader(s.Output)), nil
	}
	pr, pw := io.Pipe()
	go func() {
		_, _ = io.WriteString(pw, s.Output)
		<-ctx.Done()
		pw.CloseWithError(ctx.Err())
	}()
	return pr, nil
}

// Search answers FindText with Matches, or fails with Err.
type Search struct {
	Matches []host.TextMatch
	Err     error
}

func (s *Search) FindText(_ context.Context, _, _ string, maxResults int) ([]host.TextMatch, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if maxResults > 0 && len(s.Matches) > maxResults {
		return s.Matches[:maxResults], nil
	}
	return s.Matches, nil
}
