package router

import (
	"context"
	"fmt"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/bifrost-mcp/bifrost/internal/cursortag"
	"github.com/bifrost-mcp/bifrost/internal/host"
	"github.com/bifrost-mcp/bifrost/internal/normalize"
	"github.com/bifrost-mcp/bifrost/internal/tools"
)

const (
	defaultContextBefore = 3
	defaultContextAfter  = 3
)

// SelectionInfo is an ordered selection, with its text when requested.
type SelectionInfo struct {
	Start   normalize.Position `json:"start"`
	End     normalize.Position `json:"end"`
	Text    *string            `json:"text,omitempty"`
	IsEmpty *bool              `json:"isEmpty,omitempty"`
}

// OpenEditor is an open document merged from visible editors and tabs.
type OpenEditor struct {
	URI        string          `json:"uri"`
	IsActive   bool            `json:"isActive"`
	Selections []SelectionInfo `json:"selections"`
	ViewColumn int             `json:"viewColumn,omitempty"`
}

func ordered(sel host.Selection) protocol.Range {
	a, b := normalize.FromPosition(sel.Anchor), normalize.FromPosition(sel.Active)
	if b.Less(a) {
		return protocol.Range{Start: sel.Active, End: sel.Anchor}
	}
	return protocol.Range{Start: sel.Anchor, End: sel.Active}
}

// openEditors merges visible editors with tabs by URI. withText adds the
// selected text of each selection.
func (r *Router) openEditors(ctx context.Context, withText bool) []OpenEditor {
	active, hasActive := r.host.Window.ActiveEditor()
	out := []OpenEditor{}
	index := map[string]int{}
	add := func(uri string, isActive bool, column int) *OpenEditor {
		if i, ok := index[uri]; ok {
			out[i].IsActive = out[i].IsActive || isActive
			if out[i].ViewColumn == 0 {
				out[i].ViewColumn = column
			}
			return &out[i]
		}
		index[uri] = len(out)
		out = append(out, OpenEditor{URI: uri, IsActive: isActive, Selections: []SelectionInfo{}, ViewColumn: column})
		return &out[len(out)-1]
	}

	for _, ed := range r.host.Window.VisibleEditors() {
		entry := add(ed.URI, hasActive && active.URI == ed.URI, ed.ViewColumn)
		var doc *host.Document
		if withText {
			if d, err := r.host.Workspace.OpenDocument(ctx, ed.URI); err == nil {
				doc = d
			}
		}
		for _, sel := range ed.Selections {
			rng := ordered(sel)
			info := SelectionInfo{Start: normalize.FromPosition(rng.Start), End: normalize.FromPosition(rng.End)}
			if withText {
				text := ""
				if doc != nil {
					text = doc.TextIn(rng)
				}
				empty := rng.Start == rng.End
				info.Text, info.IsEmpty = &text, &empty
			}
			entry.Selections = append(entry.Selections, info)
		}
	}
	for _, tab := range r.host.Window.Tabs() {
		add(tab.URI, tab.IsActive, tab.ViewColumn)
	}
	if out == nil {
		out = []OpenEditor{}
	}
	return out
}

func (r *Router) getOpenFiles(ctx context.Context, _ *call, _ *tools.NoArgs) (*Result, error) {
	return Data(r.openEditors(ctx, false)), nil
}

func (r *Router) getSelectedCode(ctx context.Context, _ *call, _ *tools.NoArgs) (*Result, error) {
	return Data(r.openEditors(ctx, true)), nil
}

func (r *Router) openFile(ctx context.Context, c *call, _ *tools.DocumentArgs) (*Result, error) {
	if _, err := r.host.Workspace.OpenDocument(ctx, c.uri); err != nil {
		return providerFailure(c.name, err), nil
	}
	ed, err := r.host.Window.ShowDocument(ctx, c.uri, host.ShowOptions{})
	if err != nil {
		return providerFailure(c.name, err), nil
	}
	active, ok := r.host.Window.ActiveEditor()
	return Data(obj{
		"opened":     true,
		"uri":        c.uri,
		"viewColumn": ed.ViewColumn,
		"isActive":   ok && active.URI == c.uri,
	}), nil
}

func (r *Router) saveFile(ctx context.Context, c *call, _ *tools.DocumentArgs) (*Result, error) {
	doc, ok := r.host.Workspace.Buffer(c.uri)
	if !ok {
		return Data(obj{"saved": false, "notOpen": true, "uri": c.uri}), nil
	}
	saved := true
	if doc.IsDirty {
		var err error
		saved, err = r.host.Workspace.Save(ctx, c.uri)
		if err != nil {
			log.Warningf("%s: %s", c.name, err)
			return Data(obj{"saved": false, "error": err.Error(), "uri": c.uri}), nil
		}
	}
	return Data(obj{"saved": saved, "wasDirty": doc.IsDirty, "uri": c.uri}), nil
}

func (r *Router) closeFile(ctx context.Context, c *call, _ *tools.DocumentArgs) (*Result, error) {
	for _, tab := range r.host.Window.Tabs() {
		if tab.URI != c.uri && tab.Original != c.uri {
			continue
		}
		closed, err := r.host.Window.CloseTab(ctx, tab)
		if err != nil {
			log.Warningf("%s: %s", c.name, err)
			return Data(obj{"closed": false, "error": err.Error(), "uri": c.uri}), nil
		}
		return Data(obj{"closed": closed, "uri": c.uri}), nil
	}
	return Data(obj{"closed": false, "notOpen": true, "uri": c.uri}), nil
}

// caret returns the primary caret of the active editor when it shows uri.
func (r *Router) caret(uri string) (protocol.Position, bool) {
	ed, ok := r.host.Window.ActiveEditor()
	if !ok || ed.URI != uri {
		return protocol.Position{}, false
	}
	if len(ed.Selections) == 0 {
		return protocol.Position{}, true
	}
	return ed.Selections[0].Active, true
}

func (r *Router) getCursorContext(ctx context.Context, c *call, args *tools.CursorContextArgs) (*Result, error) {
	unavailable := Data(obj{"error": "No document or cursor available"})
	if c.uri == PlaceholderURI {
		return unavailable, nil
	}
	doc, err := r.host.Workspace.OpenDocument(ctx, c.uri)
	if err != nil {
		return unavailable, nil
	}
	pos, ok := protocol.Position{}, false
	if c.pos != nil {
		pos, ok = *c.pos, true
	} else {
		pos, ok = r.caret(c.uri)
	}
	if !ok {
		return unavailable, nil
	}

	before, after := defaultContextBefore, defaultContextAfter
	if args.Before != nil {
		before = *args.Before
	}
	if args.After != nil {
		after = *args.After
	}
	pos = cursortag.Clamp(doc, pos)
	tag, err := r.tags.Mint(c.uri, pos)
	if err != nil {
		return providerFailure(c.name, err), nil
	}
	w := cursortag.Capture(doc, pos, before, after, tag)
	return Data(obj{
		"tag":      tag,
		"uri":      c.uri,
		"position": normalize.FromPosition(pos),
		"range":    obj{"startLine": w.StartLine, "endLine": w.EndLine},
		"content":  w.Content,
	}), nil
}

func (r *Router) moveCursor(ctx context.Context, c *call, args *tools.MoveCursorArgs) (*Result, error) {
	tag := args.Tag
	if tag == "" {
		tag = args.TagMarker
	}
	var hit *cursortag.Entry
	if tag != "" {
		if e, ok := r.tags.Lookup(tag); ok {
			hit = &e
		}
	}

	uri := ""
	switch {
	case hit != nil:
		uri = hit.URI
	case args.URI != "":
		if u, err := host.ParseURI(args.URI); err == nil {
			uri = u
		}
	case c.explicit:
		uri = c.uri
	default:
		if ed, ok := r.host.Window.ActiveEditor(); ok {
			uri = ed.URI
		}
	}
	if uri == "" {
		return Data(obj{"moved": false, "reason": "No document available"}), nil
	}

	doc, err := r.host.Workspace.OpenDocument(ctx, uri)
	if err != nil {
		log.Warningf("%s: open %s: %s", c.name, uri, err)
		return Data(obj{"moved": false, "reason": "No document available"}), nil
	}
	if _, err := r.host.Window.ShowDocument(ctx, uri, host.ShowOptions{}); err != nil {
		log.Debugf("%s: show %s: %s", c.name, uri, err)
	}

	q := cursortag.Request{Tag: tag, SearchString: args.SearchString}
	if args.Position.Valid() {
		p := args.Position.Protocol()
		q.Position = &p
	}
	if args.Occurrence != nil {
		q.Occurrence = *args.Occurrence
	}
	pos, via, err := cursortag.Locate(ctx, doc, hit, q)
	if err != nil {
		return Data(obj{"moved": false, "reason": "Position not found", "via": via}), nil
	}
	if err := r.host.Window.SetSelection(ctx, uri, host.Selection{Anchor: pos, Active: pos}); err != nil {
		return providerFailure(c.name, fmt.Errorf("set selection: %w", err)), nil
	}
	return Data(obj{"moved": true, "via": via, "position": normalize.FromPosition(pos)}), nil
}

func (r *Router) getCursorPosition(_ context.Context, _ *call, _ *tools.NoArgs) (*Result, error) {
	ed, ok := r.host.Window.ActiveEditor()
	if !ok {
		return Data(obj{"error": "No active editor"}), nil
	}
	pos := protocol.Position{}
	if len(ed.Selections) > 0 {
		pos = ed.Selections[0].Active
	}
	return Data(obj{"uri": ed.URI, "fileName": host.FSPath(ed.URI), "position": normalize.FromPosition(pos)}), nil
}

func (r *Router) readFileSafe(ctx context.Context, c *call, _ *tools.DocumentArgs) (*Result, error) {
	doc, err := r.host.Workspace.OpenDocument(ctx, c.uri)
	if err != nil {
		return providerFailure(c.name, err), nil
	}
	return Data(obj{"uri": c.uri, "languageId": doc.LanguageID, "content": doc.Text}), nil
}

func (r *Router) readRange(ctx context.Context, c *call, args *tools.ReadRangeArgs) (*Result, error) {
	if !args.Range.Valid() {
		return nil, fmt.Errorf("%w: %s: range must have ordered non-negative ends", ErrInvalidArguments, c.name)
	}
	doc, err := r.host.Workspace.OpenDocument(ctx, c.uri)
	if err != nil {
		return providerFailure(c.name, err), nil
	}
	rng := args.Range.Protocol()
	return Data(obj{
		"uri":        c.uri,
		"languageId": doc.LanguageID,
		"range":      normalize.FromRange(rng),
		"content":    doc.TextIn(rng),
	}), nil
}

func (r *Router) promptUserChoice(ctx context.Context, c *call, args *tools.PromptArgs) (*Result, error) {
	choice, err := r.host.Window.ShowInformation(ctx, args.Message, args.Choices...)
	if err != nil {
		log.Warningf("%s: %s", c.name, err)
	}
	var selection any
	if choice != "" {
		selection = choice
	}
	return Data(obj{"selection": selection}), nil
}
