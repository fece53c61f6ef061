// Package search implements regex search across the workspace: the host's
// native search when it has one and finds something, otherwise a line scan
// over discovered files. Every match is returned with one line of context on
// either side.
package search

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/bifrost-mcp/bifrost/internal/fallback"
	"github.com/bifrost-mcp/bifrost/internal/host"
)

var log = commonlog.GetLogger("bifrost.search")

// DefaultMaxResults caps a search when the caller gives no limit.
const DefaultMaxResults = 50

// ErrInvalidPattern is returned for a query that is not a valid regular
// expression.
var ErrInvalidPattern = errors.New("invalid search pattern")

var errNoResults = errors.New("no results")

// Match is one matching line.
type Match struct {
	URI           string   `json:"uri"`
	Line          int      `json:"line"`
	Text          string   `json:"text"`
	ContextBefore []string `json:"contextBefore"`
	ContextAfter  []string `json:"contextAfter"`
}

// ExcludeGlob builds the exclusion glob for a list of directory names.
func ExcludeGlob(dirs []string) string {
	switch len(dirs) {
	case 0:
		return ""
	case 1:
		return "**/" + dirs[0] + "/**"
	}
	return "**/{" + strings.Join(dirs, ",") + "}/**"
}

// Searcher runs searches against one workspace.
type Searcher struct {
	ws      host.Workspace
	native  host.TextSearch
	exclude string
}

// New creates a searcher. native may be nil. exclude is the glob of paths the
// manual scan skips; empty means host.DefaultExcludeGlob.
func New(ws host.Workspace, native host.TextSearch, exclude string) *Searcher {
	if exclude == "" {
		exclude = host.DefaultExcludeGlob
	}
	return &Searcher{ws: ws, native: native, exclude: exclude}
}

// Search finds lines matching pattern under base. maxResults <= 0 means
// DefaultMaxResults.
func (s *Searcher) Search(ctx context.Context, pattern, base string, maxResults int) ([]Match, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPattern, err)
	}

	chain := fallback.New(
		"search",
		fallback.Strategy[[]Match]{Name: "native", Run: func(ctx context.Context) ([]Match, error) {
			return s.viaNative(ctx, pattern, base, maxResults)
		}},
		fallback.Strategy[[]Match]{Name: "scan", Run: func(ctx context.Context) ([]Match, error) {
			return s.scan(ctx, re, base, maxResults)
		}},
	)
	matches, via, err := chain.Run(ctx)
	if err != nil {
		return nil, err
	}
	log.Debugf("search %q: %d matches via %s", pattern, len(matches), via)

	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	s.backfill(ctx, matches)
	return matches, nil
}

func (s *Searcher) viaNative(ctx context.Context, pattern, base string, maxResults int) ([]Match, error) {
	if s.native == nil {
		return nil, fallback.ErrSkip
	}
	hits, err := s.native.FindText(ctx, pattern, base, maxResults)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, errNoResults
	}
	out := make([]Match, 0, len(hits))
	for _, h := range hits {
		out = append(out, Match{URI: h.URI, Line: h.Line, Text: h.Text, ContextBefore: []string{}, ContextAfter: []string{}})
	}
	return out, nil
}

func (s *Searcher) scan(ctx context.Context, re *regexp.Regexp, base string, maxResults int) ([]Match, error) {
	out := []Match{}
	if base == "" {
		return out, nil
	}
	files, err := s.ws.FindFiles(ctx, base, "**/*", s.exclude, maxResults*2)
	if err != nil {
		return nil, err
	}
	for _, uri := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := s.ws.OpenDocument(ctx, uri)
		if err != nil {
			continue
		}
		for i, line := range doc.Lines() {
			if re.MatchString(line) {
				out = append(out, Match{URI: uri, Line: i, Text: line})
				if len(out) >= maxResults {
					return out, nil
				}
			}
		}
	}
	return out, nil
}

// backfill sets one line of context around each match. Documents that cannot
// be opened keep empty context.
func (s *Searcher) backfill(ctx context.Context, matches []Match) {
	cache := map[string][]string{}
	for i := range matches {
		m := &matches[i]
		m.ContextBefore, m.ContextAfter = []string{}, []string{}
		lines, ok := cache[m.URI]
		if !ok {
			if doc, err := s.ws.OpenDocument(ctx, m.URI); err == nil {
				lines = doc.Lines()
			}
			cache[m.URI] = lines
		}
		if m.Line < 0 || m.Line >= len(lines) {
			continue
		}
		if m.Line > 0 {
			m.ContextBefore = []string{lines[m.Line-1]}
		}
		if m.Line < len(lines)-1 {
			m.ContextAfter = []string{lines[m.Line+1]}
		}
	}
}
