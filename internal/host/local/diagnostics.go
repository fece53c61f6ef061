package local

import (
	"context"
	"errors"
	"sort"
	"sync"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/bifrost-mcp/bifrost/internal/host"
	"github.com/bifrost-mcp/bifrost/internal/parser"
)

const diagnosticSource = "bifrost"

// Diagnostics reports syntax errors found by the parser.
type Diagnostics struct {
	lang *Language
}

var _ host.DiagnosticsStore = (*Diagnostics)(nil)

// NewDiagnostics returns a diagnostics store backed by lang.
func NewDiagnostics(lang *Language) *Diagnostics {
	return &Diagnostics{lang: lang}
}

func syntaxDiagnostics(doc *host.Document, res *parser.ParseResult) []protocol.Diagnostic {
	severity := protocol.DiagnosticSeverityError
	source := diagnosticSource
	errs := res.SyntaxErrors()
	out := make([]protocol.Diagnostic, 0, len(errs))
	for _, e := range errs {
		out = append(out, protocol.Diagnostic{
			Range:    span(doc, e.Start, e.End),
			Severity: &severity,
			Source:   &source,
			Message:  e.Message,
		})
	}
	return out
}

// ForURI parses uri. Files in other languages have no diagnostics.
func (d *Diagnostics) ForURI(ctx context.Context, uri string) ([]protocol.Diagnostic, error) {
	doc, res, err := d.lang.parse(ctx, uri)
	if errors.Is(err, host.ErrUnsupported) {
		return []protocol.Diagnostic{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer res.Close()
	return syntaxDiagnostics(doc, res), nil
}

// All scans the workspace source files and returns those with errors,
// sorted by URI.
func (d *Diagnostics) All(ctx context.Context) ([]host.FileDiagnostics, error) {
	files, err := d.lang.sourceFiles(ctx)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	out := []host.FileDiagnostics{}
	err = d.lang.eachFile(ctx, files, func(doc *host.Document, res *parser.ParseResult) {
		if !res.HasErrors() {
			return
		}
		diags := syntaxDiagnostics(doc, res)
		mu.Lock()
		out = append(out, host.FileDiagnostics{URI: doc.URI, Diagnostics: diags})
		mu.Unlock()
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URI < out[j].URI })
	return out, nil
}
