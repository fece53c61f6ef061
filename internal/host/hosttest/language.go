package hosttest

import (
	"context"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/bifrost-mcp/bifrost/internal/host"
)

// Language is a scriptable language service. A nil hook answers
// host.ErrUnsupported.
type Language struct {
	DefinitionFunc         func(uri string, pos protocol.Position) (any, error)
	DeclarationFunc        func(uri string, pos protocol.Position) (any, error)
	TypeDefinitionFunc     func(uri string, pos protocol.Position) (any, error)
	ImplementationFunc     func(uri string, pos protocol.Position) (any, error)
	ReferencesFunc         func(uri string, pos protocol.Position, includeDeclaration bool) ([]protocol.Location, error)
	HoverFunc              func(uri string, pos protocol.Position) ([]protocol.Hover, error)
	DocumentSymbolsFunc    func(uri string) ([]protocol.DocumentSymbol, error)
	WorkspaceSymbolsFunc   func(query string) ([]protocol.SymbolInformation, error)
	CompletionsFunc        func(uri string, pos protocol.Position, trigger string) (*protocol.CompletionList, error)
	SignatureHelpFunc      func(uri string, pos protocol.Position, trigger string) (*protocol.SignatureHelp, error)
	RenameFunc             func(uri string, pos protocol.Position, newName string) (*protocol.WorkspaceEdit, error)
	CodeActionsFunc        func(uri string, rng protocol.Range, kind string) ([]protocol.CodeAction, error)
	CodeLensFunc           func(uri string) ([]protocol.CodeLens, error)
	SelectionRangesFunc    func(uri string, positions []protocol.Position) ([]protocol.SelectionRange, error)
	DocumentHighlightsFunc func(uri string, pos protocol.Position) ([]protocol.DocumentHighlight, error)
	SemanticTokensFunc     func(uri string) (*host.SemanticTokens, error)
	PrepareCallFunc        func(uri string, pos protocol.Position) ([]protocol.CallHierarchyItem, error)
	IncomingCallsFunc      func(item protocol.CallHierarchyItem) ([]protocol.CallHierarchyIncomingCall, error)
	OutgoingCallsFunc      func(item protocol.CallHierarchyItem) ([]protocol.CallHierarchyOutgoingCall, error)
	PrepareTypeFunc        func(uri string, pos protocol.Position) ([]host.TypeHierarchyItem, error)
	SupertypesFunc         func(item host.TypeHierarchyItem) ([]host.TypeHierarchyItem, error)
	SubtypesFunc           func(item host.TypeHierarchyItem) ([]host.TypeHierarchyItem, error)
	FormatDocumentFunc     func(uri string, opts host.FormattingOptions) ([]protocol.TextEdit, error)
	FormatRangeFunc        func(uri string, rng protocol.Range, opts host.FormattingOptions) ([]protocol.TextEdit, error)
}

var _ host.LanguageService = (*Language)(nil)

func (l *Language) Definition(_ context.Context, uri string, pos protocol.Position) (any, error) {
	if l.DefinitionFunc == nil {
		return nil, host.ErrUnsupported
	}
	return l.DefinitionFunc(uri, pos)
}

func (l *Language) Declaration(_ context.Context, uri string, pos protocol.Position) (any, error) {
	if l.DeclarationFunc == nil {
		return nil, host.ErrUnsupported
	}
	return l.DeclarationFunc(uri, pos)
}

func (l *Language) TypeDefinition(_ context.Context, uri string, pos protocol.Position) (any, error) {
	if l.TypeDefinitionFunc == nil {
		return nil, host.ErrUnsupported
	}
	return l.TypeDefinitionFunc(uri, pos)
}

func (l *Language) Implementation(_ context.Context, uri string, pos protocol.Position) (any, error) {
	if l.ImplementationFunc == nil {
		return nil, host.ErrUnsupported
	}
	return l.ImplementationFunc(uri, pos)
}

func (l *Language) References(_ context.Context, uri string, pos protocol.Position, includeDeclaration bool) ([]protocol.Location, error) {
	if l.ReferencesFunc == nil {
		return nil, host.ErrUnsupported
	}
	return l.ReferencesFunc(uri, pos, includeDeclaration)
}

func (l *Language) Hover(_ context.Context, uri string, pos protocol.Position) ([]protocol.Hover, error) {
	if l.HoverFunc == nil {
		return nil, host.ErrUnsupported
	}
	return l.HoverFunc(uri, pos)
}

func (l *Language) DocumentSymbols(_ context.Context, uri string) ([]protocol.DocumentSymbol, error) {
	if l.DocumentSymbolsFunc == nil {
		return nil, host.ErrUnsupported
	}
	return l.DocumentSymbolsFunc(uri)
}

func (l *Language) WorkspaceSymbols(_ context.Context, query string) ([]protocol.SymbolInformation, error) {
	if l.WorkspaceSymbolsFunc == nil {
		return nil, host.ErrUnsupported
	}
	return l.WorkspaceSymbolsFunc(query)
}

func (l *Language) Completions(_ context.Context, uri string, pos protocol.Position, trigger string) (*protocol.CompletionList, error) {
	if l.CompletionsFunc == nil {
		return nil, host.ErrUnsupported
	}
	return l.CompletionsFunc(uri, pos, trigger)
}

func (l *Language) SignatureHelp(_ context.Context, uri string, pos protocol.Position, trigger string) (*protocol.SignatureHelp, error) {
	if l.SignatureHelpFunc == nil {
		return nil, host.ErrUnsupported
	}
	return l.SignatureHelpFunc(uri, pos, trigger)
}

func (l *Language) Rename(_ context.Context, uri string, pos protocol.Position, newName string) (*protocol.WorkspaceEdit, error) {
	if l.RenameFunc == nil {
		return nil, host.ErrUnsupported
	}
	return l.RenameFunc(uri, pos, newName)
}

func (l *Language) CodeActions(_ context.Context, uri string, rng protocol.Range, kind string) ([]protocol.CodeAction, error) {
	if l.CodeActionsFunc == nil {
		return nil, host.ErrUnsupported
	}
	return l.CodeActionsFunc(uri, rng, kind)
}

func (l *Language) CodeLens(_ context.Context, uri string) ([]protocol.CodeLens, error) {
	if l.CodeLensFunc == nil {
		return nil, host.ErrUnsupported
	}
	return l.CodeLensFunc(uri)
}

func (l *Language) SelectionRanges(_ context.Context, uri string, positions []protocol.Position) ([]protocol.SelectionRange, error) {
	if l.SelectionRangesFunc == nil {
		return nil, host.ErrUnsupported
	}
	return l.SelectionRangesFunc(uri, positions)
}

func (l *Language) DocumentHighlights(_ context.Context, uri string, pos protocol.Position) ([]protocol.DocumentHighlight, error) {
	if l.DocumentHighlightsFunc == nil {
		return nil, host.ErrUnsupported
	}
	return l.DocumentHighlightsFunc(uri, pos)
}

func (l *Language) SemanticTokens(_ context.Context, uri string) (*host.SemanticTokens, error) {
	if l.SemanticTokensFunc == nil {
		return nil, host.ErrUnsupported
	}
	return l.SemanticTokensFunc(uri)
}

func (l *Language) PrepareCallHierarchy(_ context.Context, uri string, pos protocol.Position) ([]protocol.CallHierarchyItem, error) {
	if l.PrepareCallFunc == nil {
		return nil, host.ErrUnsupported
	}
	return l.PrepareCallFunc(uri, pos)
}

func (l *Language) IncomingCalls(_ context.Context, item protocol.CallHierarchyItem) ([]protocol.CallHierarchyIncomingCall, error) {
	if l.IncomingCallsFunc == nil {
		return nil, host.ErrUnsupported
	}
	return l.IncomingCallsFunc(item)
}

func (l *Language) OutgoingCalls(_ context.Context, item protocol.CallHierarchyItem) ([]protocol.CallHierarchyOutgoingCall, error) {
	if l.OutgoingCallsFunc == nil {
		return nil, host.ErrUnsupported
	}
	return l.OutgoingCallsFunc(item)
}

func (l *Language) PrepareTypeHierarchy(_ context.Context, uri string, pos protocol.Position) ([]host.TypeHierarchyItem, error) {
	if l.PrepareTypeFunc == nil {
		return nil, host.ErrUnsupported
	}
	return l.PrepareTypeFunc(uri, pos)
}

func (l *Language) Supertypes(_ context.Context, item host.TypeHierarchyItem) ([]host.TypeHierarchyItem, error) {
	if l.SupertypesFunc == nil {
		return nil, host.ErrUnsupported
	}
	return l.SupertypesFunc(item)
}

func (l *Language) Subtypes(_ context.Context, item host.TypeHierarchyItem) ([]host.TypeHierarchyItem, error) {
	if l.SubtypesFunc == nil {
		return nil, host.ErrUnsupported
	}
	return l.SubtypesFunc(item)
}

func (l *Language) FormatDocument(_ context.Context, uri string, opts host.FormattingOptions) ([]protocol.TextEdit, error) {
	if l.FormatDocumentFunc == nil {
		return nil, host.ErrUnsupported
	}
	return l.FormatDocumentFunc(uri, opts)
}

func (l *Language) FormatRange(_ context.Context, uri string, rng protocol.Range, opts host.FormattingOptions) ([]protocol.TextEdit, error) {
	if l.FormatRangeFunc == nil {
		return nil, host.ErrUnsupported
	}
	return l.FormatRangeFunc(uri, rng, opts)
}
