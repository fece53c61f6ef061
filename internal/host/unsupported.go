package host

import (
	"context"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// UnsupportedLanguage answers every LanguageService request with
// ErrUnsupported. Embed it to implement only the providers you have.
type UnsupportedLanguage struct{}

var _ LanguageService = UnsupportedLanguage{}

func (UnsupportedLanguage) Definition(context.Context, string, protocol.Position) (any, error) {
	return nil, ErrUnsupported
}

func (UnsupportedLanguage) Declaration(context.Context, string, protocol.Position) (any, error) {
	return nil, ErrUnsupported
}

func (UnsupportedLanguage) TypeDefinition(context.Context, string, protocol.Position) (any, error) {
	return nil, ErrUnsupported
}

func (UnsupportedLanguage) Implementation(context.Context, string, protocol.Position) (any, error) {
	return nil, ErrUnsupported
}

func (UnsupportedLanguage) References(context.Context, string, protocol.Position, bool) ([]protocol.Location, error) {
	return nil, ErrUnsupported
}

func (UnsupportedLanguage) Hover(context.Context, string, protocol.Position) ([]protocol.Hover, error) {
	return nil, ErrUnsupported
}

func (UnsupportedLanguage) DocumentSymbols(context.Context, string) ([]protocol.DocumentSymbol, error) {
	return nil, ErrUnsupported
}

func (UnsupportedLanguage) WorkspaceSymbols(context.Context, string) ([]protocol.SymbolInformation, error) {
	return nil, ErrUnsupported
}

func (UnsupportedLanguage) Completions(context.Context, string, protocol.Position, string) (*protocol.CompletionList, error) {
	return nil, ErrUnsupported
}

func (UnsupportedLanguage) SignatureHelp(context.Context, string, protocol.Position, string) (*protocol.SignatureHelp, error) {
	return nil, ErrUnsupported
}

func (UnsupportedLanguage) Rename(context.Context, string, protocol.Position, string) (*protocol.WorkspaceEdit, error) {
	return nil, ErrUnsupported
}

func (UnsupportedLanguage) CodeActions(context.Context, string, protocol.Range, string) ([]protocol.CodeAction, error) {
	return nil, ErrUnsupported
}

func (UnsupportedLanguage) CodeLens(context.Context, string) ([]protocol.CodeLens, error) {
	return nil, ErrUnsupported
}

func (UnsupportedLanguage) SelectionRanges(context.Context, string, []protocol.Position) ([]protocol.SelectionRange, error) {
	return nil, ErrUnsupported
}

func (UnsupportedLanguage) DocumentHighlights(context.Context, string, protocol.Position) ([]protocol.DocumentHighlight, error) {
	return nil, ErrUnsupported
}

func (UnsupportedLanguage) SemanticTokens(context.Context, string) (*SemanticTokens, error) {
	return nil, ErrUnsupported
}

func (UnsupportedLanguage) PrepareCallHierarchy(context.Context, string, protocol.Position) ([]protocol.CallHierarchyItem, error) {
	return nil, ErrUnsupported
}

func (UnsupportedLanguage) IncomingCalls(context.Context, protocol.CallHierarchyItem) ([]protocol.CallHierarchyIncomingCall, error) {
	return nil, ErrUnsupported
}

func (UnsupportedLanguage) OutgoingCalls(context.Context, protocol.CallHierarchyItem) ([]protocol.CallHierarchyOutgoingCall, error) {
	return nil, ErrUnsupported
}

func (UnsupportedLanguage) PrepareTypeHierarchy(context.Context, string, protocol.Position) ([]TypeHierarchyItem, error) {
	return nil, ErrUnsupported
}

func (UnsupportedLanguage) Supertypes(context.Context, TypeHierarchyItem) ([]TypeHierarchyItem, error) {
	return nil, ErrUnsupported
}

func (UnsupportedLanguage) Subtypes(context.Context, TypeHierarchyItem) ([]TypeHierarchyItem, error) {
	return nil, ErrUnsupported
}

func (UnsupportedLanguage) FormatDocument(context.Context, string, FormattingOptions) ([]protocol.TextEdit, error) {
	return nil, ErrUnsupported
}

func (UnsupportedLanguage) FormatRange(context.Context, string, protocol.Range, FormattingOptions) ([]protocol.TextEdit, error) {
	return nil, ErrUnsupported
}
