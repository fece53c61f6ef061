// Package tools is the static tool catalog: every tool's name, description,
// argument type, JSON input schema and result kind.
//
// Input schemas are reflected from the argument types, so what a client is
// told to send and what the router decodes cannot drift apart.
package tools

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/invopop/jsonschema"
)

// ResultKind says how a tool reports its outcome.
type ResultKind string

const (
	// KindData results carry structured JSON, including empty lists and null.
	KindData ResultKind = "data"
	// KindStatus results carry narrative text.
	KindStatus ResultKind = "status"
	// KindMixed results are data on success and status text on the
	// documented negative paths.
	KindMixed ResultKind = "mixed"
)

// Descriptor describes one tool.
type Descriptor struct {
	Name        Name       `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Result      ResultKind `json:"result" yaml:"result"`
	// Gated tools ask for confirmation before acting.
	Gated bool `json:"gated" yaml:"gated"`

	newArgs func() any
	schema  json.RawMessage
}

// NewArgs returns a pointer to a fresh argument value for the tool.
func (d Descriptor) NewArgs() any { return d.newArgs() }

// InputSchema returns the JSON schema of the tool's arguments.
func (d Descriptor) InputSchema() json.RawMessage { return d.schema }

var reflector = &jsonschema.Reflector{
	Anonymous:                  true,
	ExpandedStruct:             true,
	DoNotReference:             true,
	AllowAdditionalProperties:  true,
	RequiredFromJSONSchemaTags: true,
}

func def[T any](name Name, result ResultKind, gated bool, description string) Descriptor {
	s := reflector.Reflect(new(T))
	s.Version = ""
	raw, err := json.Marshal(s)
	if err != nil {
		panic(fmt.Sprintf("schema for %s: %v", name, err))
	}
	return Descriptor{
		Name:        name,
		Description: description,
		Result:      result,
		Gated:       gated,
		newArgs:     func() any { return new(T) },
		schema:      raw,
	}
}

var (
	catalogOnce sync.Once
	catalog     []Descriptor
	byName      map[Name]Descriptor
)

func build() {
	catalog = []Descriptor{
		def[FindUsagesArgs](FindUsages, KindData, false, "Find all references to the symbol at a position"),
		def[PositionArgs](GoToDefinition, KindData, false, "Locate the definition of the symbol at a position"),
		def[PositionArgs](FindImplementations, KindData, false, "Find implementations of an interface or abstract member"),
		def[PositionArgs](GetHoverInfo, KindData, false, "Get hover documentation and type information at a position"),
		def[DocumentArgs](GetDocumentSymbols, KindData, false, "Outline the symbols of a document as a tree"),
		def[CompletionArgs](GetCompletions, KindData, false, "List completion proposals at a position"),
		def[PositionArgs](GetSignatureHelp, KindData, false, "Show the signatures of the call at a position"),
		def[RenameLocationsArgs](GetRenameLocations, KindData, false, "Preview the edits a rename would make without applying them"),
		def[RenameArgs](Rename, KindStatus, true, "Rename the symbol at a position across the workspace"),
		def[CodeActionArgs](GetCodeActions, KindData, false, "List quick fixes and refactorings available at a position"),
		def[DocumentArgs](GetSemanticTokens, KindMixed, false, "Decode semantic tokens of a document; falls back to symbols"),
		def[PositionArgs](GetCallHierarchy, KindData, false, "Show incoming and outgoing calls of the function at a position"),
		def[PositionArgs](GetTypeHierarchy, KindData, false, "Show supertypes and subtypes of the type at a position"),
		def[DocumentArgs](GetCodeLens, KindMixed, false, "List the code lenses of a document"),
		def[PositionArgs](GetSelectionRange, KindData, false, "Get the smart selection range around a position"),
		def[PositionArgs](GetTypeDefinition, KindData, false, "Locate the type definition of the symbol at a position"),
		def[PositionArgs](GetDeclaration, KindData, false, "Locate the declaration of the symbol at a position"),
		def[PositionArgs](GetDocumentHighlights, KindData, false, "Highlight every occurrence of the symbol at a position"),
		def[WorkspaceSymbolsArgs](GetWorkspaceSymbols, KindData, false, "Search symbols across the workspace with pagination"),
		def[PageArgs](GetWorkspaceDiags, KindData, false, "Report diagnostics of every file in the workspace with pagination"),
		def[FileDiagnosticsArgs](GetFileDiagnostics, KindData, false, "Report diagnostics of one file with pagination"),
		def[FormatArgs](FormatDocument, KindData, false, "Format a document or range with a chosen formatter"),
		def[DocumentArgs](ListFormatters, KindData, false, "List formatters available for a document's language"),

		def[TerminalArgs](RunTerminalCommand, KindData, true, "Run a shell command in the workspace and return its output"),
		def[HostCommandArgs](RunHostCommand, KindData, true, "Execute an editor command by identifier"),

		def[SearchArgs](SearchRegex, KindData, false, "Search the workspace with a regular expression"),
		def[ListFilesArgs](ListFiles, KindData, false, "List workspace files"),
		def[ListFilesPaginatedArgs](ListFilesPaginated, KindData, false, "List workspace files matching a glob one page at a time"),
		def[TreeArgs](GetWorkspaceTree, KindData, false, "Show the workspace directory tree marking ignored entries"),
		def[DocumentArgs](SummarizeDefinitions, KindData, false, "Summarize the definitions in a document as a flat list"),

		def[SourceActionsArgs](ListSourceActions, KindData, false, "List source actions such as organize imports for a document"),
		def[RunSourceActionArgs](RunSourceAction, KindData, true, "Run a source action by title"),
		def[RefactorActionsArgs](ListRefactorActions, KindData, false, "List refactorings available at a position"),
		def[RunRefactorActionArgs](RunRefactorAction, KindData, true, "Run a refactoring by title"),

		def[NoArgs](GetOpenFiles, KindData, false, "List open editors and tabs"),
		def[NoArgs](GetSelectedCode, KindData, false, "Return the selected text of every visible editor"),
		def[DocumentArgs](OpenFile, KindData, false, "Open a document in an editor"),
		def[DocumentArgs](SaveFile, KindData, false, "Save an open document"),
		def[DocumentArgs](CloseFile, KindData, false, "Close the editor tab of a document"),
		def[CursorContextArgs](GetCursorContext, KindData, false, "Return the lines around the cursor with an embedded cursor tag"),
		def[MoveCursorArgs](MoveCursor, KindData, false, "Move the cursor to a tag, position or text occurrence"),
		def[NoArgs](GetCursorPosition, KindData, false, "Return the cursor position of the active editor"),

		def[DocumentArgs](ReadFileSafe, KindData, false, "Read a document including unsaved changes"),
		def[ReadRangeArgs](ReadRange, KindData, false, "Read a range of a document"),
		def[PatchArgs](ApplyPatchReview, KindMixed, true, "Queue a unified diff for review and open a preview"),
		def[InsertLinesArgs](InsertLines, KindData, true, "Insert lines before a line"),
		def[RemoveLinesArgs](RemoveLines, KindData, true, "Remove a range of lines"),
		def[ReplaceLinesArgs](ReplaceLines, KindData, true, "Replace a range of lines"),

		def[NoArgs](ListPendingPatches, KindData, false, "List patches waiting for review"),
		def[NoArgs](AcceptAllPatches, KindData, true, "Apply every pending patch"),
		def[NoArgs](RejectAllPatches, KindData, false, "Discard every pending patch"),
		def[NoArgs](OpenAllPatches, KindData, false, "Reopen the preview of every pending patch"),

		def[CopyMoveArgs](CopyFile, KindData, false, "Copy a file"),
		def[CopyMoveArgs](MoveFile, KindData, true, "Move or rename a file"),
		def[DeleteArgs](DeleteFile, KindData, true, "Delete a file"),
		def[PromptArgs](PromptUserChoice, KindData, false, "Ask the user to pick one of several choices"),

		def[NoArgs](ListTests, KindData, false, "List test tasks"),
		def[NameArgs](RunTest, KindData, true, "Run one test task and wait for its exit code"),
		def[NoArgs](RunAllTests, KindData, true, "Run every test task sequentially"),
		def[NoArgs](GetLastTestResults, KindData, false, "Return the outcome of the last test run"),

		def[NoArgs](ListRunConfigurations, KindData, false, "List run and debug configurations from launch.json"),
		def[AddConfigurationArgs](AddRunConfiguration, KindData, false, "Add a configuration to launch.json"),
		def[UpdateConfigurationArgs](UpdateRunConfiguration, KindData, false, "Merge fields into a launch.json configuration"),
		def[NameArgs](DeleteRunConfiguration, KindData, false, "Delete a launch.json configuration"),
		def[NameArgs](StartDebugConfiguration, KindData, true, "Start a configuration under the debugger"),
		def[NameArgs](StartNoDebugConfiguration, KindData, true, "Start a configuration without debugging"),

		def[NoArgs](ListBuildTasks, KindData, false, "List build tasks from tasks.json"),
		def[AddTaskArgs](AddBuildTask, KindData, false, "Add a task to tasks.json"),
		def[UpdateTaskArgs](UpdateBuildTask, KindData, false, "Merge fields into a tasks.json task"),
		def[LabelArgs](RemoveBuildTask, KindData, false, "Remove a task from tasks.json"),
		def[LabelArgs](RunBuildTask, KindData, true, "Run a build task and wait for its exit code"),

		def[NoArgs](DebugStatus, KindData, false, "Report the active debug session and its threads"),
		def[NoArgs](DebugStop, KindData, false, "Stop the active debug session"),
		def[NoArgs](DebugStepOver, KindData, false, "Step over"),
		def[NoArgs](DebugStepInto, KindData, false, "Step into"),
		def[NoArgs](DebugStepOut, KindData, false, "Step out"),
		def[NoArgs](DebugContinue, KindData, false, "Continue execution"),
		def[WatchArgs](DebugAddWatch, KindData, false, "Add a watch expression"),
		def[NoArgs](DebugListWatches, KindData, false, "List watch expressions"),
		def[WatchArgs](DebugRemoveWatch, KindData, false, "Remove a watch expression"),
		def[NoArgs](DebugWatchValues, KindData, false, "Evaluate every watch expression in the top frame"),
		def[NoArgs](DebugGetLocals, KindData, false, "List local variables of the top frame"),
		def[NoArgs](DebugGetCallStack, KindData, false, "Return the call stack of the first thread"),
		def[BreakpointArgs](DebugAddBreakpoint, KindData, false, "Add a function or source breakpoint"),
		def[RemoveBreakpointArgs](DebugRemoveBreakpoint, KindData, false, "Remove matching breakpoints"),
		def[NoArgs](DebugDisableAllBreakpoints, KindData, false, "Disable every breakpoint"),
		def[NoArgs](DebugRemoveAllBreakpoints, KindData, false, "Remove every breakpoint"),
	}

	byName = make(map[Name]Descriptor, len(catalog))
	for _, d := range catalog {
		if _, dup := byName[d.Name]; dup {
			panic("duplicate tool " + string(d.Name))
		}
		byName[d.Name] = d
	}
}

// Catalog returns every tool in presentation order.
func Catalog() []Descriptor {
	catalogOnce.Do(build)
	return append([]Descriptor(nil), catalog...)
}

// Lookup returns the descriptor for name.
func Lookup(name Name) (Descriptor, bool) {
	catalogOnce.Do(build)
	d, ok := byName[name]
	return d, ok
}

// Names returns every tool name, sorted.
func Names() []Name {
	catalogOnce.Do(build)
	names := make([]Name, 0, len(catalog))
	for _, d := range catalog {
		names = append(names, d.Name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
