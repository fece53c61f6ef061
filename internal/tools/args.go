package tools

import (
	"encoding/json"
	"math"

	"github.com/invopop/jsonschema"
	protocol "github.com/tliron/glsp/protocol_3_16"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/bifrost-mcp/bifrost/internal/normalize"
)

// TextDocument addresses a document by URI.
type TextDocument struct {
	URI string `json:"uri" jsonschema:"required,description=Document URI or absolute path"`
}

// Position is a zero-based document position. Decoding never fails: a
// position with missing or negative coordinates is simply absent.
type Position struct {
	Line      int
	Character int
	valid     bool
}

func (p *Position) UnmarshalJSON(b []byte) error {
	var raw struct {
		Line      any `json:"line"`
		Character any `json:"character"`
	}
	*p = Position{}
	if json.Unmarshal(b, &raw) != nil {
		return nil
	}
	line, okL := nonNegative(raw.Line)
	char, okC := nonNegative(raw.Character)
	if okL && okC {
		*p = Position{Line: line, Character: char, valid: true}
	}
	return nil
}

func (p Position) MarshalJSON() ([]byte, error) {
	if !p.valid {
		return []byte("null"), nil
	}
	return json.Marshal(normalize.Position{Line: p.Line, Character: p.Character})
}

// NewPosition builds a valid position.
func NewPosition(line, character int) *Position {
	return &Position{Line: line, Character: character, valid: line >= 0 && character >= 0}
}

// Valid reports whether p holds usable coordinates.
func (p *Position) Valid() bool { return p != nil && p.valid }

// Protocol converts a valid position.
func (p *Position) Protocol() protocol.Position {
	return protocol.Position{Line: protocol.UInteger(p.Line), Character: protocol.UInteger(p.Character)}
}

func (Position) JSONSchema() *jsonschema.Schema {
	props := orderedmap.New[string, *jsonschema.Schema]()
	props.Set("line", &jsonschema.Schema{Type: "integer", Description: "Zero-based line"})
	props.Set("character", &jsonschema.Schema{Type: "integer", Description: "Zero-based UTF-16 column"})
	return &jsonschema.Schema{Type: "object", Properties: props, Required: []string{"line", "character"}}
}

func nonNegative(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok || f < 0 || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// Range is a half-open span. It is valid when both ends are valid and
// ordered.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Valid reports whether r is usable.
func (r *Range) Valid() bool {
	if r == nil || !r.Start.Valid() || !r.End.Valid() {
		return false
	}
	return normalize.Range{
		Start: normalize.Position{Line: r.Start.Line, Character: r.Start.Character},
		End:   normalize.Position{Line: r.End.Line, Character: r.End.Character},
	}.Valid()
}

// Protocol converts a valid range.
func (r *Range) Protocol() protocol.Range {
	return protocol.Range{Start: r.Start.Protocol(), End: r.End.Protocol()}
}

func (Range) JSONSchema() *jsonschema.Schema {
	props := orderedmap.New[string, *jsonschema.Schema]()
	props.Set("start", Position{}.JSONSchema())
	props.Set("end", Position{}.JSONSchema())
	return &jsonschema.Schema{Type: "object", Properties: props, Required: []string{"start", "end"}}
}

// Count is a loosely typed positive integer such as a page or a limit.
// Numbers and numeric strings are accepted; anything else reads as absent.
type Count struct {
	raw any
}

func (c *Count) UnmarshalJSON(b []byte) error {
	c.raw = nil
	_ = json.Unmarshal(b, &c.raw)
	return nil
}

// Raw returns the decoded value, nil when absent.
func (c *Count) Raw() any {
	if c == nil {
		return nil
	}
	return c.raw
}

// Value returns the count when it is a positive number.
func (c *Count) Value() (int, bool) {
	return normalize.PositiveInt(c.Raw())
}

// Or returns the count or def.
func (c *Count) Or(def int) int {
	if v, ok := c.Value(); ok {
		return v
	}
	return def
}

func (Count) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "integer", Description: "Positive integer"}
}

// Object is a raw JSON object whose key order is preserved.
type Object json.RawMessage

func (o *Object) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*o = nil
		return nil
	}
	*o = append((*o)[:0], b...)
	return nil
}

func (o Object) MarshalJSON() ([]byte, error) {
	if len(o) == 0 {
		return []byte("null"), nil
	}
	return []byte(o), nil
}

func (Object) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object"}
}

// NoArgs is the argument type of tools without parameters.
type NoArgs struct{}

// DocumentArgs addresses a document; the active editor is used when absent.
type DocumentArgs struct {
	TextDocument *TextDocument `json:"textDocument,omitempty" jsonschema:"required"`
}

// PositionArgs addresses a position in a document.
type PositionArgs struct {
	TextDocument *TextDocument `json:"textDocument,omitempty" jsonschema:"required"`
	Position     *Position     `json:"position,omitempty" jsonschema:"required"`
}

// ReferenceContext tunes find_usages.
type ReferenceContext struct {
	IncludeDeclaration *bool `json:"includeDeclaration,omitempty" jsonschema:"description=Include the declaration itself (default true)"`
}

type FindUsagesArgs struct {
	PositionArgs
	Context *ReferenceContext `json:"context,omitempty"`
}

type CompletionArgs struct {
	PositionArgs
	TriggerCharacter string `json:"triggerCharacter,omitempty" jsonschema:"description=Character that triggered completion"`
}

type RenameLocationsArgs struct {
	PositionArgs
	NewName string `json:"newName,omitempty" jsonschema:"description=Proposed name (default newName)"`
}

type RenameArgs struct {
	PositionArgs
	NewName string `json:"newName" validate:"required" jsonschema:"required,description=New symbol name"`
}

type CodeActionArgs struct {
	TextDocument *TextDocument `json:"textDocument,omitempty" jsonschema:"required"`
	Position     *Position     `json:"position,omitempty"`
}

type PageArgs struct {
	Limit *Count `json:"limit,omitempty" jsonschema:"description=Page size; omit for a single page"`
	Page  *Count `json:"page,omitempty" jsonschema:"description=One-based page number"`
}

type WorkspaceSymbolsArgs struct {
	Query string `json:"query" jsonschema:"required,description=Symbol search query; empty matches everything"`
	PageArgs
}

type FileDiagnosticsArgs struct {
	DocumentArgs
	PageArgs
}

// FormatOptions are whitespace options for formatting.
type FormatOptions struct {
	TabSize      *int  `json:"tabSize,omitempty"`
	InsertSpaces *bool `json:"insertSpaces,omitempty"`
}

type FormatArgs struct {
	DocumentArgs
	FormatterID string         `json:"formatterId,omitempty" jsonschema:"description=Formatter extension id; the configured default when empty"`
	Range       *Range         `json:"range,omitempty" jsonschema:"description=Format only this range"`
	Options     *FormatOptions `json:"options,omitempty"`
}

type TerminalArgs struct {
	Command   string `json:"command" validate:"required" jsonschema:"required,description=Shell command line"`
	Cwd       string `json:"cwd,omitempty" jsonschema:"description=Working directory relative to the first workspace folder"`
	TimeoutMs *Count `json:"timeoutMs,omitempty" jsonschema:"description=Timeout in milliseconds (default 10000)"`
}

type HostCommandArgs struct {
	Command string `json:"command" validate:"required" jsonschema:"required,description=Editor command identifier"`
	Args    []any  `json:"args,omitempty" jsonschema:"description=Command arguments"`
}

type SearchArgs struct {
	Query      string `json:"query" validate:"required" jsonschema:"required,description=Regular expression"`
	Folder     string `json:"folder,omitempty" jsonschema:"description=Folder relative to the first workspace folder"`
	MaxResults *Count `json:"maxResults,omitempty" jsonschema:"description=Maximum matches (default 50)"`
}

type ListFilesArgs struct {
	Limit *Count `json:"limit,omitempty" jsonschema:"description=Maximum files (default 200)"`
}

type ListFilesPaginatedArgs struct {
	Glob     string `json:"glob,omitempty" jsonschema:"description=Include glob (default **/*)"`
	Exclude  string `json:"exclude,omitempty" jsonschema:"description=Exclude glob"`
	Page     *Count `json:"page,omitempty"`
	PageSize *Count `json:"pageSize,omitempty" jsonschema:"description=Files per page (default 100)"`
}

type TreeArgs struct {
	MaxEntries *Count `json:"maxEntries,omitempty" jsonschema:"description=Maximum entries (default 200)"`
}

type SourceActionsArgs struct {
	DocumentArgs
	Range *Range `json:"range,omitempty" jsonschema:"description=Defaults to the whole document"`
}

type RunSourceActionArgs struct {
	SourceActionsArgs
	Title string `json:"title" validate:"required" jsonschema:"required,description=Exact action title"`
	Kind  string `json:"kind,omitempty" jsonschema:"description=Action kind or kind prefix"`
}

type RefactorActionsArgs struct {
	PositionArgs
	Range *Range `json:"range,omitempty" jsonschema:"description=Defaults to one character at the position"`
}

type RunRefactorActionArgs struct {
	RefactorActionsArgs
	Kind  string `json:"kind,omitempty" jsonschema:"description=Action kind such as refactor.extract.constant"`
	Title string `json:"title" validate:"required" jsonschema:"required,description=Exact action title"`
}

type CursorContextArgs struct {
	TextDocument *TextDocument `json:"textDocument,omitempty"`
	Position     *Position     `json:"position,omitempty"`
	Before       *int          `json:"before,omitempty" validate:"omitempty,min=0" jsonschema:"description=Lines before the cursor (default 3)"`
	After        *int          `json:"after,omitempty" validate:"omitempty,min=0" jsonschema:"description=Lines after the cursor (default 3)"`
}

type MoveCursorArgs struct {
	URI          string        `json:"uri,omitempty" jsonschema:"description=Target document"`
	TextDocument *TextDocument `json:"textDocument,omitempty"`
	Position     *Position     `json:"position,omitempty"`
	SearchString *string       `json:"searchString,omitempty" jsonschema:"description=Literal text to move to"`
	Occurrence   *int          `json:"occurrence,omitempty" validate:"omitempty,min=1" jsonschema:"description=Which occurrence of searchString (default 1)"`
	Tag          string        `json:"tag,omitempty" jsonschema:"description=Cursor tag from get_cursor_context"`
	TagMarker    string        `json:"tagMarker,omitempty" jsonschema:"description=Alias of tag"`
}

type ReadRangeArgs struct {
	DocumentArgs
	Range *Range `json:"range" validate:"required" jsonschema:"required"`
}

type PatchArgs struct {
	DocumentArgs
	Patch string `json:"patch" validate:"required" jsonschema:"required,description=Unified diff for this document"`
}

type InsertLinesArgs struct {
	DocumentArgs
	Line  *int     `json:"line" validate:"required" jsonschema:"required,description=Zero-based line to insert before"`
	Lines []string `json:"lines" validate:"required" jsonschema:"required"`
}

type RemoveLinesArgs struct {
	DocumentArgs
	StartLine *int `json:"startLine" validate:"required" jsonschema:"required,description=First line to remove (zero-based)"`
	EndLine   *int `json:"endLine" validate:"required" jsonschema:"required,description=Line after the last one removed"`
}

type ReplaceLinesArgs struct {
	RemoveLinesArgs
	Lines []string `json:"lines" validate:"required" jsonschema:"required"`
}

type CopyMoveArgs struct {
	Source      string `json:"source" validate:"required" jsonschema:"required"`
	Destination string `json:"destination" validate:"required" jsonschema:"required"`
}

type DeleteArgs struct {
	URI string `json:"uri" validate:"required" jsonschema:"required"`
}

type PromptArgs struct {
	Message string   `json:"message" validate:"required" jsonschema:"required"`
	Choices []string `json:"choices" validate:"required,min=1" jsonschema:"required"`
}

type NameArgs struct {
	Name string `json:"name" validate:"required" jsonschema:"required"`
}

type LabelArgs struct {
	Label string `json:"label" validate:"required" jsonschema:"required"`
}

type AddConfigurationArgs struct {
	Configuration Object `json:"configuration" validate:"required" jsonschema:"required,description=Launch configuration with at least a name"`
}

type UpdateConfigurationArgs struct {
	Name          string `json:"name" validate:"required" jsonschema:"required"`
	Configuration Object `json:"configuration,omitempty" jsonschema:"description=Fields to merge"`
}

type AddTaskArgs struct {
	Task Object `json:"task" validate:"required" jsonschema:"required,description=Task definition with at least a label"`
}

type UpdateTaskArgs struct {
	Label string `json:"label" validate:"required" jsonschema:"required"`
	Task  Object `json:"task,omitempty" jsonschema:"description=Fields to merge"`
}

type WatchArgs struct {
	Expression string `json:"expression" validate:"required" jsonschema:"required"`
}

type BreakpointArgs struct {
	FunctionName string `json:"functionName,omitempty" jsonschema:"description=Function breakpoint; takes precedence over uri and line"`
	URI          string `json:"uri,omitempty"`
	Line         *int   `json:"line,omitempty" validate:"omitempty,min=0" jsonschema:"description=Zero-based line"`
	Condition    string `json:"condition,omitempty"`
	LogMessage   string `json:"logMessage,omitempty"`
}

type RemoveBreakpointArgs struct {
	FunctionName string `json:"functionName,omitempty"`
	URI          string `json:"uri,omitempty"`
	Line         *int   `json:"line,omitempty" validate:"omitempty,min=0"`
}
