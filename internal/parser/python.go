package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func pythonGrammar() *sitter.Language { return python.GetLanguage() }

// pythonRules outline classes and functions; functions inside a class are
// reported as methods. Decorated definitions are reached through their
// decorated_definition wrapper.
var pythonRules = map[string]rule{
	"class_definition":    {kind: protocol.SymbolKindClass, name: "name", container: true},
	"function_definition": {kind: protocol.SymbolKindFunction, name: "name", refine: pythonFunctionKind},
}

func pythonFunctionKind(n *sitter.Node, src []byte) protocol.SymbolKind {
	if name := n.ChildByFieldName("name"); name != nil && name.Content(src) == "__init__" {
		return protocol.SymbolKindConstructor
	}
	return protocol.SymbolKindFunction
}
