package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func typeScriptGrammar() *sitter.Language { return typescript.GetLanguage() }

func tsxGrammar() *sitter.Language { return tsx.GetLanguage() }

func javaScriptGrammar() *sitter.Language { return javascript.GetLanguage() }

// typeScriptRules serve TypeScript, TSX and JavaScript; the JavaScript
// grammar is a subset of the node types.
var typeScriptRules = map[string]rule{
	"function_declaration":           {kind: protocol.SymbolKindFunction, name: "name"},
	"generator_function_declaration": {kind: protocol.SymbolKindFunction, name: "name"},
	"class_declaration":              {kind: protocol.SymbolKindClass, name: "name", container: true},
	"abstract_class_declaration":     {kind: protocol.SymbolKindClass, name: "name", container: true},
	"method_definition":              {kind: protocol.SymbolKindMethod, name: "name", refine: jsMethodKind},
	"public_field_definition":        {kind: protocol.SymbolKindField, name: "name"},
	"field_definition":               {kind: protocol.SymbolKindField, name: "property"},
	"interface_declaration":          {kind: protocol.SymbolKindInterface, name: "name", container: true},
	"property_signature":             {kind: protocol.SymbolKindProperty, name: "name"},
	"method_signature":               {kind: protocol.SymbolKindMethod, name: "name"},
	"type_alias_declaration":         {kind: protocol.SymbolKindTypeParameter, name: "name"},
	"enum_declaration":               {kind: protocol.SymbolKindEnum, name: "name"},
	"internal_module":                {kind: protocol.SymbolKindNamespace, name: "name", container: true},
	"variable_declarator":            {kind: protocol.SymbolKindVariable, name: "name", refine: jsVariableKind},
}

func jsMethodKind(n *sitter.Node, src []byte) protocol.SymbolKind {
	if name := n.ChildByFieldName("name"); name != nil && name.Content(src) == "constructor" {
		return protocol.SymbolKindConstructor
	}
	return protocol.SymbolKindMethod
}

// jsVariableKind reports functions assigned to variables as functions and
// const declarations as constants.
func jsVariableKind(n *sitter.Node, _ []byte) protocol.SymbolKind {
	if v := n.ChildByFieldName("value"); v != nil {
		switch v.Type() {
		case "arrow_function", "function", "function_expression", "generator_function":
			return protocol.SymbolKindFunction
		case "class":
			return protocol.SymbolKindClass
		}
	}
	if p := n.Parent(); p != nil && p.Type() == "lexical_declaration" && p.ChildCount() > 0 && p.Child(0).Type() == "const" {
		return protocol.SymbolKindConstant
	}
	return protocol.SymbolKindVariable
}
