package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func rustGrammar() *sitter.Language { return rust.GetLanguage() }

// rustRules outline items. impl blocks are named after the implemented type
// so their methods group under "impl Type".
var rustRules = map[string]rule{
	"function_item":           {kind: protocol.SymbolKindFunction, name: "name"},
	"function_signature_item": {kind: protocol.SymbolKindFunction, name: "name"},
	"struct_item":             {kind: protocol.SymbolKindStruct, name: "name", container: true},
	"field_declaration":       {kind: protocol.SymbolKindField, name: "name"},
	"enum_item":               {kind: protocol.SymbolKindEnum, name: "name", container: true},
	"enum_variant":            {kind: protocol.SymbolKindEnumMember, name: "name"},
	"trait_item":              {kind: protocol.SymbolKindInterface, name: "name", container: true},
	"impl_item":               {kind: protocol.SymbolKindObject, name: "type", prefix: "impl ", container: true},
	"mod_item":                {kind: protocol.SymbolKindModule, name: "name", container: true},
	"const_item":              {kind: protocol.SymbolKindConstant, name: "name"},
	"static_item":             {kind: protocol.SymbolKindVariable, name: "name"},
	"type_item":               {kind: protocol.SymbolKindTypeParameter, name: "name"},
	"macro_definition":        {kind: protocol.SymbolKindFunction, name: "name"},
}
