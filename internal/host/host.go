// Package host defines the editor capabilities the tool router consumes.
//
// Every collaborator is an interface so the router can run against a real
// editor bridge, the headless local host, or an in-memory fake in tests.
// Language shapes are LSP 3.16 structures; the few 3.17 additions the router
// needs (type hierarchy, semantic tokens with a legend) are declared here.
package host

import (
	"context"
	"errors"
	"io"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// ErrUnsupported is returned by a provider that has no answer for the request.
var ErrUnsupported = errors.New("capability not supported by host")

// ErrNotFound is returned when a resource addressed by URI does not exist.
var ErrNotFound = errors.New("resource not found")

// Host bundles every collaborator. Shell and Search are optional and may be nil.
type Host struct {
	Language    LanguageService
	Diagnostics DiagnosticsStore
	Workspace   Workspace
	Window      Window
	Tasks       TaskRunner
	Debug       Debugger
	Commands    CommandExecutor
	Extensions  ExtensionRegistry
	Settings    Settings
	Memento     Memento
	Shell       ShellIntegration
	Search      TextSearch
}

// Validate reports the first required collaborator that is missing.
func (h *Host) Validate() error {
	switch {
	case h == nil:
		return errors.New("host is nil")
	case h.Language == nil:
		return errors.New("host: language service is required")
	case h.Diagnostics == nil:
		return errors.New("host: diagnostics store is required")
	case h.Workspace == nil:
		return errors.New("host: workspace is required")
	case h.Window == nil:
		return errors.New("host: window is required")
	case h.Tasks == nil:
		return errors.New("host: task runner is required")
	case h.Debug == nil:
		return errors.New("host: debugger is required")
	case h.Commands == nil:
		return errors.New("host: command executor is required")
	case h.Extensions == nil:
		return errors.New("host: extension registry is required")
	case h.Settings == nil:
		return errors.New("host: settings are required")
	case h.Memento == nil:
		return errors.New("host: memento is required")
	}
	return nil
}

// LanguageService answers language-intelligence questions for a document.
// Location-returning methods yield protocol.Location, []protocol.Location,
// []protocol.LocationLink or nil, the same union an LSP server may send.
type LanguageService interface {
	Definition(ctx context.Context, uri string, pos protocol.Position) (any, error)
	Declaration(ctx context.Context, uri string, pos protocol.Position) (any, error)
	TypeDefinition(ctx context.Context, uri string, pos protocol.Position) (any, error)
	Implementation(ctx context.Context, uri string, pos protocol.Position) (any, error)
	References(ctx context.Context, uri string, pos protocol.Position, includeDeclaration bool) ([]protocol.Location, error)

	Hover(ctx context.Context, uri string, pos protocol.Position) ([]protocol.Hover, error)
	DocumentSymbols(ctx context.Context, uri string) ([]protocol.DocumentSymbol, error)
	WorkspaceSymbols(ctx context.Context, query string) ([]protocol.SymbolInformation, error)
	Completions(ctx context.Context, uri string, pos protocol.Position, triggerCharacter string) (*protocol.CompletionList, error)
	SignatureHelp(ctx context.Context, uri string, pos protocol.Position, triggerCharacter string) (*protocol.SignatureHelp, error)
	Rename(ctx context.Context, uri string, pos protocol.Position, newName string) (*protocol.WorkspaceEdit, error)

	// CodeActions returns actions for rng. An empty kind means all kinds.
	CodeActions(ctx context.Context, uri string, rng protocol.Range, kind string) ([]protocol.CodeAction, error)
	CodeLens(ctx context.Context, uri string) ([]protocol.CodeLens, error)
	SelectionRanges(ctx context.Context, uri string, positions []protocol.Position) ([]protocol.SelectionRange, error)
	DocumentHighlights(ctx context.Context, uri string, pos protocol.Position) ([]protocol.DocumentHighlight, error)
	SemanticTokens(ctx context.Context, uri string) (*SemanticTokens, error)

	PrepareCallHierarchy(ctx context.Context, uri string, pos protocol.Position) ([]protocol.CallHierarchyItem, error)
	IncomingCalls(ctx context.Context, item protocol.CallHierarchyItem) ([]protocol.CallHierarchyIncomingCall, error)
	OutgoingCalls(ctx context.Context, item protocol.CallHierarchyItem) ([]protocol.CallHierarchyOutgoingCall, error)
	PrepareTypeHierarchy(ctx context.Context, uri string, pos protocol.Position) ([]TypeHierarchyItem, error)
	Supertypes(ctx context.Context, item TypeHierarchyItem) ([]TypeHierarchyItem, error)
	Subtypes(ctx context.Context, item TypeHierarchyItem) ([]TypeHierarchyItem, error)

	FormatDocument(ctx context.Context, uri string, opts FormattingOptions) ([]protocol.TextEdit, error)
	FormatRange(ctx context.Context, uri string, rng protocol.Range, opts FormattingOptions) ([]protocol.TextEdit, error)
}

// TypeHierarchyItem mirrors the LSP 3.17 item of the same name.
type TypeHierarchyItem struct {
	Name           string              `json:"name"`
	Kind           protocol.SymbolKind `json:"kind"`
	Detail         string              `json:"detail,omitempty"`
	URI            string              `json:"uri"`
	Range          protocol.Range      `json:"range"`
	SelectionRange protocol.Range      `json:"selectionRange"`
}

// SemanticTokensLegend names the token types and modifiers referenced by index.
type SemanticTokensLegend struct {
	TokenTypes     []string `json:"tokenTypes"`
	TokenModifiers []string `json:"tokenModifiers"`
}

// SemanticTokens holds relative-encoded token data together with its legend.
type SemanticTokens struct {
	ResultID string               `json:"resultId,omitempty"`
	Data     []uint32             `json:"data"`
	Legend   SemanticTokensLegend `json:"legend"`
}

// FormattingOptions are the whitespace options passed to formatters.
type FormattingOptions struct {
	TabSize      int  `json:"tabSize"`
	InsertSpaces bool `json:"insertSpaces"`
}

// FileDiagnostics pairs a URI with its diagnostics.
type FileDiagnostics struct {
	URI         string
	Diagnostics []protocol.Diagnostic
}

// DiagnosticsStore is queryable globally or per URI.
type DiagnosticsStore interface {
	All(ctx context.Context) ([]FileDiagnostics, error)
	ForURI(ctx context.Context, uri string) ([]protocol.Diagnostic, error)
}

// FileInfo is the subset of stat data the router needs.
type FileInfo struct {
	IsDir bool
	Size  int64
}

// DeleteOptions controls Workspace.Delete.
type DeleteOptions struct {
	Recursive bool
	UseTrash  bool
}

// Workspace is the workspace file system plus the live buffer layer.
type Workspace interface {
	// Folders returns workspace folder URIs, first folder first.
	Folders() []string
	// OpenDocument returns the live buffer for uri, loading it from disk when
	// it is not open yet.
	OpenDocument(ctx context.Context, uri string) (*Document, error)
	// Buffer returns the already open buffer for uri without loading it.
	Buffer(uri string) (*Document, bool)
	ApplyEdit(ctx context.Context, edit protocol.WorkspaceEdit) (bool, error)
	Save(ctx context.Context, uri string) (bool, error)

	Stat(ctx context.Context, uri string) (FileInfo, error)
	ReadFile(ctx context.Context, uri string) ([]byte, error)
	WriteFile(ctx context.Context, uri string, data []byte) error
	CreateDirectory(ctx context.Context, uri string) error
	Copy(ctx context.Context, source, destination string, overwrite bool) error
	Rename(ctx context.Context, source, destination string, overwrite bool) error
	Delete(ctx context.Context, uri string, opts DeleteOptions) error

	// FindFiles lists file URIs under base matching the include glob and not
	// matching the exclude glob. limit <= 0 means no limit.
	FindFiles(ctx context.Context, base, include, exclude string, limit int) ([]string, error)
}

// Selection is an editor selection; Active is the caret.
type Selection struct {
	Anchor protocol.Position
	Active protocol.Position
}

// Editor is a visible text editor.
type Editor struct {
	URI        string
	Selections []Selection
	ViewColumn int
}

// Tab is an editor tab. Diff tabs report the modified side as URI.
type Tab struct {
	URI        string
	Original   string
	IsActive   bool
	ViewColumn int
}

// ShowOptions controls Window.ShowDocument.
type ShowOptions struct {
	Preview       bool
	PreserveFocus bool
}

// Window is the user-visible surface of the host.
type Window interface {
	ActiveEditor() (Editor, bool)
	VisibleEditors() []Editor
	Tabs() []Tab
	ShowDocument(ctx context.Context, uri string, opts ShowOptions) (Editor, error)
	// SetSelection replaces the selection of the editor showing uri and
	// scrolls it into view.
	SetSelection(ctx context.Context, uri string, sel Selection) error
	CloseTab(ctx context.Context, tab Tab) (bool, error)
	// ShowWarning shows a message with choice buttons and returns the chosen
	// one, or "" when dismissed. Modal prompts block until answered.
	ShowWarning(ctx context.Context, message string, modal bool, choices ...string) (string, error)
	ShowInformation(ctx context.Context, message string, choices ...string) (string, error)
	ShowDiff(ctx context.Context, uri string, original, modified, title string) error
}

// Task is a runnable host task.
type Task struct {
	Name       string         `json:"name"`
	Source     string         `json:"source"`
	Detail     string         `json:"detail,omitempty"`
	Group      string         `json:"group,omitempty"`
	Definition map[string]any `json:"definition,omitempty"`
}

// TaskRunner fetches and executes tasks.
type TaskRunner interface {
	Tasks(ctx context.Context) ([]Task, error)
	// Run executes task and blocks until its process ends. The exit code is
	// nil when the host cannot report one.
	Run(ctx context.Context, task Task) (*int, error)
}

// DebugSession identifies a debug session.
type DebugSession struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Breakpoint is either a function breakpoint (FunctionName set) or a source
// breakpoint (URI and Line set).
type Breakpoint struct {
	Enabled      bool
	Condition    string
	LogMessage   string
	FunctionName string
	URI          string
	Line         int
}

// IsFunction reports whether b is a function breakpoint.
func (b Breakpoint) IsFunction() bool { return b.FunctionName != "" }

// Debugger is the host debug subsystem.
type Debugger interface {
	ActiveSession() (DebugSession, bool)
	Sessions() []DebugSession
	Start(ctx context.Context, folder, name string, noDebug bool) (bool, error)
	Stop(ctx context.Context, session DebugSession) (bool, error)
	// CustomRequest sends a debug adapter protocol request to session.
	CustomRequest(ctx context.Context, session DebugSession, command string, args map[string]any) (map[string]any, error)
	Breakpoints() []Breakpoint
	AddBreakpoints(ctx context.Context, bps []Breakpoint) error
	RemoveBreakpoints(ctx context.Context, bps []Breakpoint) error
}

// CommandExecutor runs host commands by identifier.
type CommandExecutor interface {
	Execute(ctx context.Context, command string, args ...any) (any, error)
}

// Extension is an installed capability provider.
type Extension struct {
	ID               string
	Name             string
	DisplayName      string
	Description      string
	Languages        []string
	ActivationEvents []string
}

// ExtensionRegistry lists installed extensions.
type ExtensionRegistry interface {
	All() []Extension
}

// Settings reads and writes host configuration. scopeURI selects the
// folder-level value when the host supports it.
type Settings interface {
	Get(section, key, scopeURI string) (any, bool)
	Update(ctx context.Context, section, key string, value any, scopeURI string) error
}

// Memento is persisted key-value state.
type Memento interface {
	Get(key string) (string, bool, error)
	Update(key, value string) error
}

// ShellIntegration streams the output of a command run in an integrated
// terminal. Closing the reader aborts the command.
type ShellIntegration interface {
	Execute(ctx context.Context, command, cwd string) (io.ReadCloser, error)
}

// TextMatch is one native search hit.
type TextMatch struct {
	URI  string
	Line int
	Text string
}

// TextSearch is the host's native regex search.
type TextSearch interface {
	FindText(ctx context.Context, pattern, baseURI string, maxResults int) ([]TextMatch, error)
}
