package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func goGrammar() *sitter.Language { return golang.GetLanguage() }

// goRules maps Go node types to outline symbols. Function bodies are not
// searched, so locals never show up.
var goRules = map[string]rule{
	"function_declaration": {kind: protocol.SymbolKindFunction, name: "name"},
	"method_declaration":   {kind: protocol.SymbolKindMethod, name: "name"},
	"type_spec":            {kind: protocol.SymbolKindClass, name: "name", container: true, refine: goTypeKind},
	"type_alias":           {kind: protocol.SymbolKindClass, name: "name"},
	"const_spec":           {kind: protocol.SymbolKindConstant, name: "name"},
	"var_spec":             {kind: protocol.SymbolKindVariable, name: "name"},
	"field_declaration":    {kind: protocol.SymbolKindField, name: "name"},
	"method_spec":          {kind: protocol.SymbolKindMethod, name: "name"},
	"method_elem":          {kind: protocol.SymbolKindMethod, name: "name"},
}

func goTypeKind(n *sitter.Node, _ []byte) protocol.SymbolKind {
	t := n.ChildByFieldName("type")
	if t == nil {
		return protocol.SymbolKindClass
	}
	switch t.Type() {
	case "struct_type":
		return protocol.SymbolKindStruct
	case "interface_type":
		return protocol.SymbolKindInterface
	}
	return protocol.SymbolKindClass
}
