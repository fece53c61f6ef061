package normalize

import (
	"sort"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/bifrost-mcp/bifrost/internal/host"
)

// Completion is one completion proposal. Kind is the raw LSP number.
type Completion struct {
	Label         string `json:"label"`
	Kind          *int   `json:"kind,omitempty"`
	Detail        string `json:"detail,omitempty"`
	Documentation string `json:"documentation,omitempty"`
	SortText      string `json:"sortText,omitempty"`
	FilterText    string `json:"filterText,omitempty"`
	InsertText    string `json:"insertText,omitempty"`
	Range         *Range `json:"range,omitempty"`
}

// Completions converts a completion list; nil stays nil.
func Completions(list *protocol.CompletionList) []Completion {
	if list == nil {
		return nil
	}
	out := make([]Completion, 0, len(list.Items))
	for _, c := range list.Items {
		item := Completion{
			Label:         c.Label,
			Detail:        deref(c.Detail),
			Documentation: Text(c.Documentation),
			SortText:      deref(c.SortText),
			FilterText:    deref(c.FilterText),
			InsertText:    deref(c.InsertText),
		}
		if c.Kind != nil {
			k := int(*c.Kind)
			item.Kind = &k
		}
		switch te := c.TextEdit.(type) {
		case protocol.TextEdit:
			r := FromRange(te.Range)
			item.Range = &r
		case *protocol.TextEdit:
			if te != nil {
				r := FromRange(te.Range)
				item.Range = &r
			}
		}
		out = append(out, item)
	}
	return out
}

// Parameter is one signature parameter.
type Parameter struct {
	Label         string `json:"label"`
	Documentation string `json:"documentation,omitempty"`
}

// Signature is one signature of a signature-help answer.
type Signature struct {
	Label           string      `json:"label"`
	Documentation   string      `json:"documentation,omitempty"`
	Parameters      []Parameter `json:"parameters"`
	ActiveParameter *int        `json:"activeParameter,omitempty"`
	ActiveSignature *int        `json:"activeSignature,omitempty"`
}

// Signatures converts signature help. The active indices of the help answer
// are repeated on every signature; a per-signature active parameter wins.
func Signatures(help *protocol.SignatureHelp) []Signature {
	if help == nil {
		return nil
	}
	activeSig := uintPtr(help.ActiveSignature)
	activeParam := uintPtr(help.ActiveParameter)
	out := make([]Signature, 0, len(help.Signatures))
	for _, s := range help.Signatures {
		sig := Signature{
			Label:           s.Label,
			Documentation:   Text(s.Documentation),
			Parameters:      make([]Parameter, 0, len(s.Parameters)),
			ActiveParameter: activeParam,
			ActiveSignature: activeSig,
		}
		if p := uintPtr(s.ActiveParameter); p != nil {
			sig.ActiveParameter = p
		}
		for _, p := range s.Parameters {
			sig.Parameters = append(sig.Parameters, Parameter{Label: parameterLabel(s.Label, p.Label), Documentation: Text(p.Documentation)})
		}
		out = append(out, sig)
	}
	return out
}

// parameterLabel resolves a parameter label given as a string or as a pair of
// offsets into the signature label.
func parameterLabel(signature string, label any) string {
	offsets := func(a, b int) string {
		runes := []rune(signature)
		if a < 0 || b > len(runes) || a > b {
			return ""
		}
		return string(runes[a:b])
	}
	switch l := label.(type) {
	case []protocol.UInteger:
		if len(l) == 2 {
			return offsets(int(l[0]), int(l[1]))
		}
	case []any:
		if len(l) == 2 {
			a, okA := l[0].(float64)
			b, okB := l[1].(float64)
			if okA && okB {
				return offsets(int(a), int(b))
			}
		}
	}
	return Text(label)
}

func uintPtr(p *protocol.UInteger) *int {
	if p == nil {
		return nil
	}
	v := int(*p)
	return &v
}

// CodeAction is one available action.
type CodeAction struct {
	Title       string             `json:"title"`
	Kind        string             `json:"kind,omitempty"`
	IsPreferred bool               `json:"isPreferred"`
	Diagnostics []ActionDiagnostic `json:"diagnostics"`
}

// CodeActions converts code actions.
func CodeActions(in []protocol.CodeAction) []CodeAction {
	out := make([]CodeAction, 0, len(in))
	for _, a := range in {
		out = append(out, CodeAction{
			Title:       a.Title,
			Kind:        ActionKind(a),
			IsPreferred: deref(a.IsPreferred),
			Diagnostics: actionDiagnostics(a.Diagnostics),
		})
	}
	return out
}

// ActionKind returns the kind of a, or "".
func ActionKind(a protocol.CodeAction) string {
	if a.Kind == nil {
		return ""
	}
	return string(*a.Kind)
}

// ActionSummary is the listing shape of source and refactor actions.
type ActionSummary struct {
	Title       string `json:"title"`
	Kind        string `json:"kind,omitempty"`
	IsPreferred bool   `json:"isPreferred"`
	Disabled    string `json:"disabled,omitempty"`
}

// ActionSummaries converts actions into listing entries.
func ActionSummaries(in []protocol.CodeAction) []ActionSummary {
	out := make([]ActionSummary, 0, len(in))
	for _, a := range in {
		s := ActionSummary{Title: a.Title, Kind: ActionKind(a), IsPreferred: deref(a.IsPreferred)}
		if a.Disabled != nil {
			s.Disabled = a.Disabled.Reason
		}
		out = append(out, s)
	}
	return out
}

// Command is a host command attached to a lens.
type Command struct {
	Title     string `json:"title"`
	Command   string `json:"command"`
	Arguments []any  `json:"arguments,omitempty"`
}

// CodeLens is one lens.
type CodeLens struct {
	Range   Range    `json:"range"`
	Command *Command `json:"command,omitempty"`
}

// CodeLenses converts code lenses.
func CodeLenses(in []protocol.CodeLens) []CodeLens {
	out := make([]CodeLens, 0, len(in))
	for _, l := range in {
		item := CodeLens{Range: FromRange(l.Range)}
		if l.Command != nil {
			item.Command = &Command{Title: l.Command.Title, Command: l.Command.Command, Arguments: l.Command.Arguments}
		}
		out = append(out, item)
	}
	return out
}

// SelectionRange is a range with at most one parent level reported.
type SelectionRange struct {
	Range  Range        `json:"range"`
	Parent *ParentRange `json:"parent,omitempty"`
}

// ParentRange is the enclosing selection.
type ParentRange struct {
	Range Range `json:"range"`
}

// SelectionRanges converts selection ranges.
func SelectionRanges(in []protocol.SelectionRange) []SelectionRange {
	out := make([]SelectionRange, 0, len(in))
	for _, s := range in {
		item := SelectionRange{Range: FromRange(s.Range)}
		if s.Parent != nil {
			item.Parent = &ParentRange{Range: FromRange(s.Parent.Range)}
		}
		out = append(out, item)
	}
	return out
}

// Highlight is one document highlight. Kind is the raw LSP number.
type Highlight struct {
	Range Range `json:"range"`
	Kind  *int  `json:"kind,omitempty"`
}

// Highlights converts document highlights.
func Highlights(in []protocol.DocumentHighlight) []Highlight {
	out := make([]Highlight, 0, len(in))
	for _, h := range in {
		item := Highlight{Range: FromRange(h.Range)}
		if h.Kind != nil {
			k := int(*h.Kind)
			item.Kind = &k
		}
		out = append(out, item)
	}
	return out
}

// Edit is a text replacement.
type Edit struct {
	Range   Range  `json:"range"`
	NewText string `json:"newText"`
}

// FileEdits groups the edits of one file.
type FileEdits struct {
	URI   string `json:"uri"`
	Edits []Edit `json:"edits"`
}

// WorkspaceEdits flattens a workspace edit by file, sorted by URI.
func WorkspaceEdits(edit *protocol.WorkspaceEdit) []FileEdits {
	if edit == nil {
		return []FileEdits{}
	}
	byURI := host.EditsByURI(*edit)
	uris := make([]string, 0, len(byURI))
	for uri := range byURI {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	out := make([]FileEdits, 0, len(uris))
	for _, uri := range uris {
		fe := FileEdits{URI: uri, Edits: make([]Edit, 0, len(byURI[uri]))}
		for _, e := range byURI[uri] {
			fe.Edits = append(fe.Edits, Edit{Range: FromRange(e.Range), NewText: e.NewText})
		}
		out = append(out, fe)
	}
	return out
}
