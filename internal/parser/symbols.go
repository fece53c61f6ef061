package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Symbol is a declaration in a parse tree.
type Symbol struct {
	Name   string
	Kind   protocol.SymbolKind
	Detail string
	// Start and End delimit the whole declaration.
	Start, End uint32
	// NameStart and NameEnd delimit the identifier.
	NameStart, NameEnd uint32
	Children           []Symbol
}

// rule tells the outline walker how to turn a node type into a symbol.
type rule struct {
	kind protocol.SymbolKind
	// name is the field holding the identifier.
	name string
	// prefix is prepended to the identifier text.
	prefix string
	// container nodes are searched for nested symbols; other symbols are
	// leaves.
	container bool
	// refine picks a more specific kind from the node.
	refine func(n *sitter.Node, src []byte) protocol.SymbolKind
}

// Symbols returns the declaration outline of the parsed source.
func (r *ParseResult) Symbols() []Symbol {
	if r.Root == nil {
		return []Symbol{}
	}
	out := r.collect(r.Root, 0)
	if out == nil {
		out = []Symbol{}
	}
	return out
}

// collect gathers the symbols below n. parent is the kind of the enclosing
// symbol, zero at top level.
func (r *ParseResult) collect(n *sitter.Node, parent protocol.SymbolKind) []Symbol {
	var out []Symbol
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.IsError() {
			continue
		}
		sym, ru, ok := r.symbolFor(child, parent)
		if !ok {
			out = append(out, r.collect(child, parent)...)
			continue
		}
		if ru.container {
			sym.Children = r.collect(child, sym.Kind)
		}
		out = append(out, sym)
	}
	return out
}

func (r *ParseResult) symbolFor(n *sitter.Node, parent protocol.SymbolKind) (Symbol, rule, bool) {
	ru, ok := r.rules[n.Type()]
	if !ok {
		return Symbol{}, rule{}, false
	}
	nameNode := n.ChildByFieldName(ru.name)
	if nameNode == nil {
		return Symbol{}, rule{}, false
	}

	kind := ru.kind
	if ru.refine != nil {
		kind = ru.refine(n, r.Source)
	}
	if kind == protocol.SymbolKindFunction && isTypeKind(parent) {
		kind = protocol.SymbolKindMethod
	}

	return Symbol{
		Name:      ru.prefix + compact(nameNode.Content(r.Source)),
		Kind:      kind,
		Detail:    firstLine(n.Content(r.Source)),
		Start:     n.StartByte(),
		End:       n.EndByte(),
		NameStart: nameNode.StartByte(),
		NameEnd:   nameNode.EndByte(),
	}, ru, true
}

func isTypeKind(k protocol.SymbolKind) bool {
	switch k {
	case protocol.SymbolKindClass, protocol.SymbolKindStruct, protocol.SymbolKindInterface, protocol.SymbolKindObject:
		return true
	}
	return false
}

// compact collapses whitespace runs so multi-line names stay on one line.
func compact(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

const maxDetail = 120

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "{"))
	if len(s) > maxDetail {
		s = s[:maxDetail]
	}
	return s
}

// Flatten lists every symbol depth-first together with the name of its
// parent, empty at top level.
func Flatten(symbols []Symbol) []FlatSymbol {
	var out []FlatSymbol
	var walk func(list []Symbol, container string)
	walk = func(list []Symbol, container string) {
		for _, s := range list {
			out = append(out, FlatSymbol{Symbol: s, Container: container})
			walk(s.Children, s.Name)
		}
	}
	walk(symbols, "")
	return out
}

// FlatSymbol is a symbol with its container name.
type FlatSymbol struct {
	Symbol
	Container string
}
