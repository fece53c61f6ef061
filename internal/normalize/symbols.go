package normalize

import (
	protocol "github.com/tliron/glsp/protocol_3_16"
)

var symbolKindNames = []string{
	"File", "Module", "Namespace", "Package", "Class", "Method", "Property",
	"Field", "Constructor", "Enum", "Interface", "Function", "Variable",
	"Constant", "String", "Number", "Boolean", "Array", "Object", "Key",
	"Null", "EnumMember", "Struct", "Event", "Operator", "TypeParameter",
}

// SymbolKindName maps an LSP symbol kind to its name.
func SymbolKindName(kind protocol.SymbolKind) string {
	i := int(kind) - 1
	if i < 0 || i >= len(symbolKindNames) {
		return "Unknown"
	}
	return symbolKindNames[i]
}

// Symbol is one document symbol with its children.
type Symbol struct {
	Name           string   `json:"name"`
	Detail         string   `json:"detail"`
	Kind           string   `json:"kind"`
	Range          Range    `json:"range"`
	SelectionRange Range    `json:"selectionRange"`
	Children       []Symbol `json:"children"`
}

// Symbols converts a document symbol tree.
func Symbols(in []protocol.DocumentSymbol) []Symbol {
	out := make([]Symbol, 0, len(in))
	for _, s := range in {
		out = append(out, Symbol{
			Name:           s.Name,
			Detail:         deref(s.Detail),
			Kind:           SymbolKindName(s.Kind),
			Range:          FromRange(s.Range),
			SelectionRange: FromRange(s.SelectionRange),
			Children:       Symbols(s.Children),
		})
	}
	return out
}

// Definition is a flattened symbol summary.
type Definition struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
	Range  Range  `json:"range"`
}

// FlattenSymbols walks the tree depth first, parents before children.
func FlattenSymbols(in []protocol.DocumentSymbol) []Definition {
	var out []Definition
	var walk func([]protocol.DocumentSymbol)
	walk = func(syms []protocol.DocumentSymbol) {
		for _, s := range syms {
			out = append(out, Definition{
				Name:   s.Name,
				Kind:   SymbolKindName(s.Kind),
				Detail: deref(s.Detail),
				Range:  FromRange(s.Range),
			})
			walk(s.Children)
		}
	}
	walk(in)
	if out == nil {
		out = []Definition{}
	}
	return out
}

// WorkspaceSymbol is one workspace-wide symbol match.
type WorkspaceSymbol struct {
	Name          string       `json:"name"`
	Kind          string       `json:"kind"`
	Location      SymbolTarget `json:"location"`
	ContainerName string       `json:"containerName"`
}

// SymbolTarget is a bare location without preview.
type SymbolTarget struct {
	URI   string `json:"uri"`
	Range Range  `json:"range"`
}

// WorkspaceSymbols converts symbol information.
func WorkspaceSymbols(in []protocol.SymbolInformation) []WorkspaceSymbol {
	out := make([]WorkspaceSymbol, 0, len(in))
	for _, s := range in {
		out = append(out, WorkspaceSymbol{
			Name:          s.Name,
			Kind:          SymbolKindName(s.Kind),
			Location:      SymbolTarget{URI: string(s.Location.URI), Range: FromRange(s.Location.Range)},
			ContainerName: deref(s.ContainerName),
		})
	}
	return out
}
