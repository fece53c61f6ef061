package router

import (
	"context"
	"sort"
	"strings"
	"time"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/bifrost-mcp/bifrost/internal/host"
	"github.com/bifrost-mcp/bifrost/internal/normalize"
	"github.com/bifrost-mcp/bifrost/internal/tools"
)

// manualSourceActions are offered even when the provider lists nothing.
var manualSourceActions = []protocol.CodeAction{
	manualAction("Remove unused code", "source.fixAll.unused", ""),
	manualAction("Remove unused imports", "source.organizeImports.unused", ""),
	manualAction("Organize imports", "source.organizeImports", "editor.action.organizeImports"),
	manualAction("Add all missing imports", "source.addMissingImports", ""),
	manualAction("Sort imports", "source.organizeImports.sort", ""),
}

func manualAction(title, kind, command string) protocol.CodeAction {
	k := protocol.CodeActionKind(kind)
	a := protocol.CodeAction{Title: title, Kind: &k}
	if command != "" {
		a.Command = &protocol.Command{Title: title, Command: command}
	}
	return a
}

// kindMatches reports whether kind starts with want. The check is a plain
// string prefix, so "refactor.ext" matches "refactor.extract.variable".
func kindMatches(kind, want string) bool {
	return strings.HasPrefix(kind, want)
}

// sourceActions returns provider source actions merged with the manual set,
// sorted by title.
func (r *Router) sourceActions(ctx context.Context, uri string, rng protocol.Range) []protocol.CodeAction {
	provided, err := r.host.Language.CodeActions(ctx, uri, rng, "source")
	if err != nil {
		log.Debugf("source actions for %s: %s", uri, err)
		provided = nil
	}
	var out []protocol.CodeAction
	titles := map[string]bool{}
	for _, a := range provided {
		if !kindMatches(normalize.ActionKind(a), "source") {
			continue
		}
		out = append(out, a)
		titles[strings.ToLower(a.Title)] = true
	}
	for _, a := range manualSourceActions {
		if !titles[strings.ToLower(a.Title)] {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

// sourceRange opens and shows the document and returns the requested range
// or the whole document.
func (r *Router) sourceRange(ctx context.Context, c *call, args *tools.SourceActionsArgs) (protocol.Range, error) {
	doc, err := r.host.Workspace.OpenDocument(ctx, c.uri)
	if err != nil {
		return protocol.Range{}, err
	}
	if _, err := r.host.Window.ShowDocument(ctx, c.uri, host.ShowOptions{Preview: true}); err != nil {
		log.Debugf("show %s: %s", c.uri, err)
	}
	if args.Range.Valid() {
		return args.Range.Protocol(), nil
	}
	return doc.FullRange(), nil
}

func (r *Router) listSourceActions(ctx context.Context, c *call, args *tools.SourceActionsArgs) (*Result, error) {
	rng, err := r.sourceRange(ctx, c, args)
	if err != nil {
		return providerFailure(c.name, err), nil
	}
	return Data(normalize.ActionSummaries(r.sourceActions(ctx, c.uri, rng))), nil
}

func (r *Router) runSourceAction(ctx context.Context, c *call, args *tools.RunSourceActionArgs) (*Result, error) {
	if !r.confirm(ctx, "Run source action \""+args.Title+"\"?", c.uri) {
		return Data(rejected("applied")), nil
	}
	rng, err := r.sourceRange(ctx, c, &args.SourceActionsArgs)
	if err != nil {
		return providerFailure(c.name, err), nil
	}
	for _, a := range r.sourceActions(ctx, c.uri, rng) {
		kind := normalize.ActionKind(a)
		if a.Title != args.Title || (args.Kind != "" && !kindMatches(kind, args.Kind)) {
			continue
		}
		applied := r.applyCodeAction(ctx, c.name, a)
		return Data(obj{"applied": applied, "title": a.Title, "kind": kind}), nil
	}
	return Data(obj{"applied": false, "title": args.Title, "reason": "Action not found"}), nil
}

// applyCodeAction applies the action's edit, then runs its command. It
// reports success when the edit applied or a command was present.
func (r *Router) applyCodeAction(ctx context.Context, name tools.Name, a protocol.CodeAction) bool {
	appliedEdit := false
	if a.Edit != nil {
		ok, err := r.host.Workspace.ApplyEdit(ctx, *a.Edit)
		if err != nil {
			log.Warningf("%s: apply %q: %s", name, a.Title, err)
		}
		appliedEdit = ok && err == nil
	}
	if a.Command != nil {
		if _, err := r.host.Commands.Execute(ctx, a.Command.Command, a.Command.Arguments...); err != nil {
			log.Warningf("%s: command %s: %s", name, a.Command.Command, err)
		}
	}
	return appliedEdit || a.Command != nil
}

// refactorRange returns the requested range or one character at pos,
// zero-width at the end of the line.
func refactorRange(doc *host.Document, pos protocol.Position, requested *tools.Range) protocol.Range {
	if requested.Valid() {
		return requested.Protocol()
	}
	end := pos
	if int(pos.Character) < host.UTF16Len(doc.LineAt(int(pos.Line))) {
		end.Character++
	}
	return protocol.Range{Start: pos, End: end}
}

// refactorActions asks for refactorings, retrying while the provider warms
// up and returns nothing.
func (r *Router) refactorActions(ctx context.Context, uri string, rng protocol.Range) []protocol.CodeAction {
	attempts := max(1, r.cfg.Refactor.Retries)
	for i := 0; i < attempts; i++ {
		actions, err := r.host.Language.CodeActions(ctx, uri, rng, "refactor")
		if err != nil {
			log.Debugf("refactor actions for %s: %s", uri, err)
		}
		var out []protocol.CodeAction
		for _, a := range actions {
			if kindMatches(normalize.ActionKind(a), "refactor") {
				out = append(out, a)
			}
		}
		if len(out) > 0 || i == attempts-1 {
			return out
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(r.cfg.Refactor.RetryDelay):
		}
	}
	return nil
}

func (r *Router) listRefactorActions(ctx context.Context, c *call, args *tools.RefactorActionsArgs) (*Result, error) {
	pos, err := c.position()
	if err != nil {
		return nil, err
	}
	doc, err := r.host.Workspace.OpenDocument(ctx, c.uri)
	if err != nil {
		return providerFailure(c.name, err), nil
	}
	actions := r.refactorActions(ctx, c.uri, refactorRange(doc, pos, args.Range))
	return Data(normalize.ActionSummaries(actions)), nil
}

func (r *Router) runRefactorAction(ctx context.Context, c *call, args *tools.RunRefactorActionArgs) (*Result, error) {
	pos, err := c.position()
	if err != nil {
		return nil, err
	}
	if !r.confirm(ctx, "Run refactor \""+args.Title+"\"?", c.uri) {
		return Data(rejected("applied")), nil
	}
	doc, err := r.host.Workspace.OpenDocument(ctx, c.uri)
	if err != nil {
		return providerFailure(c.name, err), nil
	}
	rng := refactorRange(doc, pos, args.Range)
	for _, a := range r.refactorActions(ctx, c.uri, rng) {
		kind := normalize.ActionKind(a)
		if a.Title != args.Title || (args.Kind != "" && !kindMatches(kind, args.Kind)) {
			continue
		}
		applied := r.applyCodeAction(ctx, c.name, a)
		return Data(obj{"applied": applied, "title": a.Title, "kind": kind}), nil
	}

	if strings.HasPrefix(args.Kind, "refactor.extract") {
		applied, err := r.extractFallback(ctx, doc, rng)
		if err != nil {
			return providerFailure(c.name, err), nil
		}
		return Data(obj{"applied": applied, "title": args.Title, "kind": args.Kind, "fallback": true}), nil
	}
	return Data(obj{"applied": false, "title": args.Title, "reason": "Action not found"}), nil
}

// extractFallback hoists the selection into a constant declared at the start
// of its line.
func (r *Router) extractFallback(ctx context.Context, doc *host.Document, rng protocol.Range) (bool, error) {
	line := doc.LineAt(int(rng.Start.Line))
	indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	selection := doc.TextIn(rng)
	lineStart := protocol.Position{Line: rng.Start.Line}
	edit := protocol.WorkspaceEdit{
		Changes: map[protocol.DocumentUri][]protocol.TextEdit{
			protocol.DocumentUri(doc.URI): {
				{Range: protocol.Range{Start: lineStart, End: lineStart}, NewText: indent + "const extractedValue = " + selection + ";\n"},
				{Range: rng, NewText: "extractedValue"},
			},
		},
	}
	return r.host.Workspace.ApplyEdit(ctx, edit)
}
