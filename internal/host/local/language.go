package local

import (
	"context"
	"fmt"
	"go/format"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"golang.org/x/sync/errgroup"

	"github.com/bifrost-mcp/bifrost/internal/host"
	"github.com/bifrost-mcp/bifrost/internal/parser"
)

// maxWorkspaceSymbols caps a workspace symbol query.
const maxWorkspaceSymbols = 500

// maxScannedFiles caps the files parsed by a workspace-wide request.
const maxScannedFiles = 2000

// Language answers the requests a parse tree can answer: outlines,
// workspace symbols, same-name definitions and highlights, selection
// ranges, syntax diagnostics and gofmt. Everything else is unsupported.
type Language struct {
	host.UnsupportedLanguage
	ws *Workspace
}

var _ host.LanguageService = (*Language)(nil)

// NewLanguage returns a language service over ws.
func NewLanguage(ws *Workspace) *Language {
	return &Language{ws: ws}
}

// snapshot returns the buffer for uri, or the disk content without opening
// a buffer.
func (l *Language) snapshot(ctx context.Context, uri string) (*host.Document, error) {
	if doc, ok := l.ws.Buffer(uri); ok {
		return doc, nil
	}
	data, err := l.ws.ReadFile(ctx, uri)
	if err != nil {
		return nil, err
	}
	return &host.Document{URI: uri, LanguageID: host.LanguageID(uri), Version: 1, Text: string(data)}, nil
}

func languageOf(uri string) parser.Language {
	return parser.LanguageFromExtension(strings.ToLower(filepath.Ext(host.FSPath(uri))))
}

func (l *Language) parse(ctx context.Context, uri string) (*host.Document, *parser.ParseResult, error) {
	lang := languageOf(uri)
	if lang == "" {
		return nil, nil, fmt.Errorf("%s: %w", host.Basename(uri), host.ErrUnsupported)
	}
	doc, err := l.snapshot(ctx, uri)
	if err != nil {
		return nil, nil, err
	}
	res, err := parser.ParseSource(ctx, lang, []byte(doc.Text))
	if err != nil {
		return nil, nil, err
	}
	return doc, res, nil
}

func span(doc *host.Document, start, end uint32) protocol.Range {
	return protocol.Range{Start: doc.PositionAt(int(start)), End: doc.PositionAt(int(end))}
}

func (l *Language) DocumentSymbols(ctx context.Context, uri string) ([]protocol.DocumentSymbol, error) {
	doc, res, err := l.parse(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer res.Close()
	return documentSymbols(doc, res.Symbols()), nil
}

func documentSymbols(doc *host.Document, symbols []parser.Symbol) []protocol.DocumentSymbol {
	out := make([]protocol.DocumentSymbol, 0, len(symbols))
	for _, s := range symbols {
		ds := protocol.DocumentSymbol{
			Name:           s.Name,
			Kind:           s.Kind,
			Range:          span(doc, s.Start, s.End),
			SelectionRange: span(doc, s.NameStart, s.NameEnd),
		}
		if s.Detail != "" {
			detail := s.Detail
			ds.Detail = &detail
		}
		if len(s.Children) > 0 {
			ds.Children = documentSymbols(doc, s.Children)
		}
		out = append(out, ds)
	}
	return out
}

// sourceFiles lists the parseable files of every workspace folder.
func (l *Language) sourceFiles(ctx context.Context) ([]string, error) {
	exts := make([]string, 0, len(parser.SupportedExtensions()))
	for _, e := range parser.SupportedExtensions() {
		exts = append(exts, strings.TrimPrefix(e, "."))
	}
	include := "**/*.{" + strings.Join(exts, ",") + "}"

	var out []string
	for _, folder := range l.ws.Folders() {
		files, err := l.ws.FindFiles(ctx, folder, include, host.DefaultExcludeGlob, maxScannedFiles-len(out))
		if err != nil {
			return nil, err
		}
		out = append(out, files...)
		if len(out) >= maxScannedFiles {
			break
		}
	}
	return out, nil
}

// eachFile parses files concurrently and hands every result to fn. fn may
// be called from several goroutines. Files that fail to parse are skipped.
func (l *Language) eachFile(ctx context.Context, files []string, fn func(doc *host.Document, res *parser.ParseResult)) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, uri := range files {
		g.Go(func() error {
			doc, res, err := l.parse(ctx, uri)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Debugf("skip %s: %s", uri, err)
				return nil
			}
			defer res.Close()
			fn(doc, res)
			return nil
		})
	}
	return g.Wait()
}

func (l *Language) WorkspaceSymbols(ctx context.Context, query string) ([]protocol.SymbolInformation, error) {
	files, err := l.sourceFiles(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(query)

	var mu sync.Mutex
	out := []protocol.SymbolInformation{}
	err = l.eachFile(ctx, files, func(doc *host.Document, res *parser.ParseResult) {
		var found []protocol.SymbolInformation
		for _, s := range parser.Flatten(res.Symbols()) {
			if needle != "" && !strings.Contains(strings.ToLower(s.Name), needle) {
				continue
			}
			info := protocol.SymbolInformation{
				Name:     s.Name,
				Kind:     s.Kind,
				Location: protocol.Location{URI: protocol.DocumentUri(doc.URI), Range: span(doc, s.NameStart, s.NameEnd)},
			}
			if s.Container != "" {
				container := s.Container
				info.ContainerName = &container
			}
			found = append(found, info)
		}
		mu.Lock()
		out = append(out, found...)
		mu.Unlock()
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		if out[i].Location.URI != out[j].Location.URI {
			return out[i].Location.URI < out[j].Location.URI
		}
		return out[i].Location.Range.Start.Line < out[j].Location.Range.Start.Line
	})
	if len(out) > maxWorkspaceSymbols {
		out = out[:maxWorkspaceSymbols]
	}
	return out, nil
}

// pointAt converts an editor position to a tree-sitter point, whose column
// counts bytes.
func pointAt(doc *host.Document, pos protocol.Position) sitter.Point {
	line := doc.LineAt(int(pos.Line))
	return sitter.Point{Row: pos.Line, Column: uint32(host.ByteOffset(line, int(pos.Character)))}
}

// identifierAt returns the text of the leaf node under pos when it is an
// identifier-like token.
func identifierAt(doc *host.Document, res *parser.ParseResult, pos protocol.Position) (*sitter.Node, string) {
	p := pointAt(doc, pos)
	n := res.Root.NamedDescendantForPointRange(p, p)
	if n == nil || n.ChildCount() != 0 || !strings.Contains(n.Type(), "identifier") {
		return nil, ""
	}
	return n, res.NodeText(n)
}

// Definition resolves the identifier at pos to declarations of the same name,
// preferring the current document over the rest of the workspace.
func (l *Language) Definition(ctx context.Context, uri string, pos protocol.Position) (any, error) {
	doc, res, err := l.parse(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer res.Close()
	_, name := identifierAt(doc, res, pos)
	if name == "" {
		return nil, nil
	}

	var local []protocol.Location
	for _, s := range parser.Flatten(res.Symbols()) {
		if s.Name == name {
			local = append(local, protocol.Location{URI: protocol.DocumentUri(uri), Range: span(doc, s.NameStart, s.NameEnd)})
		}
	}
	if len(local) > 0 {
		return local, nil
	}

	symbols, err := l.WorkspaceSymbols(ctx, name)
	if err != nil {
		return nil, err
	}
	out := []protocol.Location{}
	for _, s := range symbols {
		if s.Name == name {
			out = append(out, s.Location)
		}
	}
	return out, nil
}

func (l *Language) DocumentHighlights(ctx context.Context, uri string, pos protocol.Position) ([]protocol.DocumentHighlight, error) {
	doc, res, err := l.parse(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer res.Close()
	target, name := identifierAt(doc, res, pos)
	if target == nil {
		return []protocol.DocumentHighlight{}, nil
	}

	kind := protocol.DocumentHighlightKindText
	out := []protocol.DocumentHighlight{}
	res.WalkNodes(func(n *sitter.Node) bool {
		if n.ChildCount() == 0 && n.Type() == target.Type() && res.NodeText(n) == name {
			out = append(out, protocol.DocumentHighlight{Range: span(doc, n.StartByte(), n.EndByte()), Kind: &kind})
		}
		return true
	})
	return out, nil
}

// SelectionRanges expands each position through its enclosing syntax nodes.
func (l *Language) SelectionRanges(ctx context.Context, uri string, positions []protocol.Position) ([]protocol.SelectionRange, error) {
	doc, res, err := l.parse(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	out := make([]protocol.SelectionRange, 0, len(positions))
	for _, pos := range positions {
		p := pointAt(doc, pos)
		var chain []protocol.Range
		for n := res.Root.NamedDescendantForPointRange(p, p); n != nil; n = n.Parent() {
			r := span(doc, n.StartByte(), n.EndByte())
			if len(chain) > 0 && chain[len(chain)-1] == r {
				continue
			}
			chain = append(chain, r)
		}
		if len(chain) == 0 {
			out = append(out, protocol.SelectionRange{Range: protocol.Range{Start: pos, End: pos}})
			continue
		}
		var parent *protocol.SelectionRange
		for i := len(chain) - 1; i > 0; i-- {
			parent = &protocol.SelectionRange{Range: chain[i], Parent: parent}
		}
		out = append(out, protocol.SelectionRange{Range: chain[0], Parent: parent})
	}
	return out, nil
}

// FormatDocument runs gofmt on Go documents. The whitespace options do not
// apply: gofmt output is canonical.
func (l *Language) FormatDocument(ctx context.Context, uri string, _ host.FormattingOptions) ([]protocol.TextEdit, error) {
	if languageOf(uri) != parser.Go {
		return nil, fmt.Errorf("format %s: %w", host.Basename(uri), host.ErrUnsupported)
	}
	doc, err := l.snapshot(ctx, uri)
	if err != nil {
		return nil, err
	}
	formatted, err := format.Source([]byte(doc.Text))
	if err != nil {
		return nil, fmt.Errorf("gofmt %s: %w", host.Basename(uri), err)
	}
	if string(formatted) == doc.Text {
		return []protocol.TextEdit{}, nil
	}
	return []protocol.TextEdit{{Range: doc.FullRange(), NewText: string(formatted)}}, nil
}
