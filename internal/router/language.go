package router

import (
	"context"
	"errors"

	protocol "github.com/tliron/glsp/protocol_3_16"
	"golang.org/x/sync/errgroup"

	"github.com/bifrost-mcp/bifrost/internal/host"
	"github.com/bifrost-mcp/bifrost/internal/normalize"
	"github.com/bifrost-mcp/bifrost/internal/tools"
)

// preview reads one line of uri from its open buffer, else from disk.
func (r *Router) preview(ctx context.Context, uri string, line int) (string, bool) {
	doc, ok := r.host.Workspace.Buffer(uri)
	if !ok {
		raw, err := r.host.Workspace.ReadFile(ctx, uri)
		if err != nil {
			return "", false
		}
		doc = &host.Document{URI: uri, Text: string(raw)}
	}
	if line < 0 || line >= doc.LineCount() {
		return "", false
	}
	return doc.LineAt(line), true
}

type locator func(ctx context.Context, uri string, pos protocol.Position) (any, error)

// navigate serves the definition-like tools.
func (r *Router) navigate(find locator) func(context.Context, *call, *tools.PositionArgs) (*Result, error) {
	return func(ctx context.Context, c *call, _ *tools.PositionArgs) (*Result, error) {
		pos, err := c.position()
		if err != nil {
			return nil, err
		}
		res, err := find(ctx, c.uri, pos)
		if err != nil {
			return providerFailure(c.name, err), nil
		}
		return Data(normalize.Locations(ctx, res, r.preview)), nil
	}
}

func (r *Router) findUsages(ctx context.Context, c *call, args *tools.FindUsagesArgs) (*Result, error) {
	pos, err := c.position()
	if err != nil {
		return nil, err
	}
	includeDecl := true
	if args.Context != nil && args.Context.IncludeDeclaration != nil {
		includeDecl = *args.Context.IncludeDeclaration
	}
	refs, err := r.host.Language.References(ctx, c.uri, pos, includeDecl)
	if err != nil {
		return providerFailure(c.name, err), nil
	}
	return Data(normalize.Locations(ctx, refs, r.preview)), nil
}

func (r *Router) hover(ctx context.Context, c *call, _ *tools.PositionArgs) (*Result, error) {
	pos, err := c.position()
	if err != nil {
		return nil, err
	}
	hovers, err := r.host.Language.Hover(ctx, c.uri, pos)
	if err != nil {
		return providerFailure(c.name, err), nil
	}
	return Data(normalize.Hovers(ctx, c.uri, hovers, r.preview)), nil
}

func (r *Router) documentSymbols(ctx context.Context, c *call, _ *tools.DocumentArgs) (*Result, error) {
	syms, err := r.host.Language.DocumentSymbols(ctx, c.uri)
	if err != nil {
		return providerFailure(c.name, err), nil
	}
	return Data(normalize.Symbols(syms)), nil
}

func (r *Router) summarizeDefinitions(ctx context.Context, c *call, _ *tools.DocumentArgs) (*Result, error) {
	syms, err := r.host.Language.DocumentSymbols(ctx, c.uri)
	if err != nil {
		log.Warningf("%s: provider failed: %s", c.name, err)
		return Data([]normalize.Definition{}), nil
	}
	return Data(normalize.FlattenSymbols(syms)), nil
}

func (r *Router) completions(ctx context.Context, c *call, args *tools.CompletionArgs) (*Result, error) {
	pos, err := c.position()
	if err != nil {
		return nil, err
	}
	list, err := r.host.Language.Completions(ctx, c.uri, pos, args.TriggerCharacter)
	if err != nil {
		return providerFailure(c.name, err), nil
	}
	items := normalize.Completions(list)
	if items == nil {
		items = []normalize.Completion{}
	}
	return Data(items), nil
}

func (r *Router) signatureHelp(ctx context.Context, c *call, _ *tools.PositionArgs) (*Result, error) {
	pos, err := c.position()
	if err != nil {
		return nil, err
	}
	help, err := r.host.Language.SignatureHelp(ctx, c.uri, pos, "")
	if err != nil {
		return providerFailure(c.name, err), nil
	}
	sigs := normalize.Signatures(help)
	if sigs == nil {
		sigs = []normalize.Signature{}
	}
	return Data(sigs), nil
}

func (r *Router) renameLocations(ctx context.Context, c *call, args *tools.RenameLocationsArgs) (*Result, error) {
	pos, err := c.position()
	if err != nil {
		return nil, err
	}
	name := args.NewName
	if name == "" {
		name = "newName"
	}
	edit, err := r.host.Language.Rename(ctx, c.uri, pos, name)
	if err != nil {
		return providerFailure(c.name, err), nil
	}
	return Data(normalize.WorkspaceEdits(edit)), nil
}

func (r *Router) rename(ctx context.Context, c *call, args *tools.RenameArgs) (*Result, error) {
	pos, err := c.position()
	if err != nil {
		return nil, err
	}
	if !r.confirm(ctx, "Rename symbol to \""+args.NewName+"\"?", c.uri) {
		return Status("Symbol renaming cancelled by user"), nil
	}
	edit, err := r.host.Language.Rename(ctx, c.uri, pos, args.NewName)
	if err != nil || edit == nil {
		if err != nil {
			log.Warningf("%s: provider failed: %s", c.name, err)
		}
		return Status("Symbol to rename not found"), nil
	}
	ok, err := r.host.Workspace.ApplyEdit(ctx, *edit)
	if err != nil {
		log.Warningf("%s: apply edit: %s", c.name, err)
		ok = false
	}
	if !ok {
		return Status("Symbol renaming failed"), nil
	}
	return Status("Symbol renamed successfully"), nil
}

func (r *Router) codeActions(ctx context.Context, c *call, _ *tools.CodeActionArgs) (*Result, error) {
	var rng protocol.Range
	if c.pos != nil {
		rng = protocol.Range{Start: *c.pos, End: *c.pos}
	} else {
		doc, err := r.host.Workspace.OpenDocument(ctx, c.uri)
		if err != nil {
			return providerFailure(c.name, err), nil
		}
		rng = doc.FullRange()
	}
	actions, err := r.host.Language.CodeActions(ctx, c.uri, rng, "")
	if err != nil {
		return providerFailure(c.name, err), nil
	}
	return Data(normalize.CodeActions(actions)), nil
}

func (r *Router) codeLens(ctx context.Context, c *call, _ *tools.DocumentArgs) (*Result, error) {
	lenses, err := r.host.Language.CodeLens(ctx, c.uri)
	if err != nil {
		return StatusError("Error executing CodeLens provider: " + err.Error()), nil
	}
	if len(lenses) == 0 {
		return Status("No CodeLens items found in document"), nil
	}
	return Data(normalize.CodeLenses(lenses)), nil
}

func (r *Router) selectionRange(ctx context.Context, c *call, _ *tools.PositionArgs) (*Result, error) {
	pos, err := c.position()
	if err != nil {
		return nil, err
	}
	ranges, err := r.host.Language.SelectionRanges(ctx, c.uri, []protocol.Position{pos})
	if err != nil {
		return providerFailure(c.name, err), nil
	}
	return Data(normalize.SelectionRanges(ranges)), nil
}

func (r *Router) highlights(ctx context.Context, c *call, _ *tools.PositionArgs) (*Result, error) {
	pos, err := c.position()
	if err != nil {
		return nil, err
	}
	hs, err := r.host.Language.DocumentHighlights(ctx, c.uri, pos)
	if err != nil {
		return providerFailure(c.name, err), nil
	}
	return Data(normalize.Highlights(hs)), nil
}

// semanticTokens decodes provider tokens and falls back to document symbols
// when the provider fails.
func (r *Router) semanticTokens(ctx context.Context, c *call, _ *tools.DocumentArgs) (*Result, error) {
	tokens, err := r.host.Language.SemanticTokens(ctx, c.uri)
	if err == nil {
		if tokens == nil || len(tokens.Data) == 0 {
			return Status("No semantic tokens found in document"), nil
		}
		return Data(normalize.DecodeTokens(tokens)), nil
	}
	log.Debugf("%s: provider failed, using symbols: %s", c.name, err)

	syms, symErr := r.host.Language.DocumentSymbols(ctx, c.uri)
	if symErr != nil || len(syms) == 0 {
		return StatusError("Semantic tokens provider not available and fallback failed"), nil
	}
	return Data(normalize.TokensFromSymbols(syms)), nil
}

func (r *Router) callHierarchy(ctx context.Context, c *call, _ *tools.PositionArgs) (*Result, error) {
	pos, err := c.position()
	if err != nil {
		return nil, err
	}
	items, err := r.host.Language.PrepareCallHierarchy(ctx, c.uri, pos)
	if err != nil {
		return providerFailure(c.name, err), nil
	}
	if len(items) == 0 {
		return Data(nil), nil
	}
	item := items[0]

	var in []protocol.CallHierarchyIncomingCall
	var out []protocol.CallHierarchyOutgoingCall
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		in, err = r.host.Language.IncomingCalls(gctx, item)
		return ignoreUnsupported(err)
	})
	g.Go(func() error {
		var err error
		out, err = r.host.Language.OutgoingCalls(gctx, item)
		return ignoreUnsupported(err)
	})
	if err := g.Wait(); err != nil {
		return providerFailure(c.name, err), nil
	}
	return Data(normalize.NewCallHierarchy(item, in, out)), nil
}

func (r *Router) typeHierarchy(ctx context.Context, c *call, _ *tools.PositionArgs) (*Result, error) {
	pos, err := c.position()
	if err != nil {
		return nil, err
	}
	items, err := r.host.Language.PrepareTypeHierarchy(ctx, c.uri, pos)
	if err != nil {
		return providerFailure(c.name, err), nil
	}
	if len(items) == 0 {
		return Data(nil), nil
	}
	item := items[0]

	var supers, subs []host.TypeHierarchyItem
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		supers, err = r.host.Language.Supertypes(gctx, item)
		return ignoreUnsupported(err)
	})
	g.Go(func() error {
		var err error
		subs, err = r.host.Language.Subtypes(gctx, item)
		return ignoreUnsupported(err)
	})
	if err := g.Wait(); err != nil {
		return providerFailure(c.name, err), nil
	}
	return Data(normalize.NewTypeHierarchy(item, supers, subs)), nil
}

// ignoreUnsupported treats a missing half of a hierarchy as empty.
func ignoreUnsupported(err error) error {
	if errors.Is(err, host.ErrUnsupported) {
		return nil
	}
	return err
}

func (r *Router) workspaceSymbols(ctx context.Context, c *call, args *tools.WorkspaceSymbolsArgs) (*Result, error) {
	syms, err := r.host.Language.WorkspaceSymbols(ctx, args.Query)
	if err != nil {
		return providerFailure(c.name, err), nil
	}
	page := normalize.Paginate(normalize.WorkspaceSymbols(syms), args.Limit.Raw(), args.Page.Raw())
	return Data(obj{
		"items":        page.Items,
		"totalSymbols": page.Total,
		"page":         page.Page,
		"totalPages":   page.TotalPages,
		"limit":        page.Limit,
	}), nil
}

func (r *Router) workspaceDiagnostics(ctx context.Context, c *call, args *tools.PageArgs) (*Result, error) {
	files, err := r.host.Diagnostics.All(ctx)
	if err != nil {
		return providerFailure(c.name, err), nil
	}
	return Data(normalize.WorkspaceReport(files, args.Limit.Raw(), args.Page.Raw())), nil
}

func (r *Router) fileDiagnostics(ctx context.Context, c *call, args *tools.FileDiagnosticsArgs) (*Result, error) {
	diags, err := r.host.Diagnostics.ForURI(ctx, c.uri)
	if err != nil {
		return providerFailure(c.name, err), nil
	}
	return Data(normalize.FileReportOf(c.uri, diags, args.Limit.Raw(), args.Page.Raw())), nil
}
