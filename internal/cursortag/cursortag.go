// Package cursortag mints and redeems cursor tags.
//
// A cursor tag is a short marker such as <cursor-k3j9x0a1bq> spliced into a
// captured window of text at the caret. The registry maps each tag to the
// URI and position it was minted for so a later call can put the caret back
// without trusting line numbers that may have drifted.
package cursortag

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/bifrost-mcp/bifrost/internal/fallback"
	"github.com/bifrost-mcp/bifrost/internal/host"
)

const (
	DefaultCapacity = 1024
	DefaultTTL      = time.Hour

	suffixLen = 10
	alphabet  = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// Resolution strategies reported as "via".
const (
	ViaTag      = "tag"
	ViaPosition = "position"
	ViaSearch   = "search"
	ViaTagText  = "tagText"
)

// ErrNotFound is returned by Locate when no strategy yields a position.
var ErrNotFound = errors.New("position not found")

var tagPattern = regexp.MustCompile(`^<cursor-[0-9a-z]{10}>$`)

// Entry is what a tag points at.
type Entry struct {
	URI      string
	Position protocol.Position
}

// Registry is a bounded tag map. Least recently used tags are evicted once
// capacity is reached, and tags expire after the TTL.
type Registry struct {
	tags *expirable.LRU[string, Entry]
}

// New creates a registry. capacity <= 0 selects DefaultCapacity; ttl <= 0
// disables expiry.
func New(capacity int, ttl time.Duration) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Registry{tags: expirable.NewLRU[string, Entry](capacity, nil, ttl)}
}

// Mint records a fresh tag for uri and pos.
func (r *Registry) Mint(uri string, pos protocol.Position) (string, error) {
	tag, err := NewTag()
	if err != nil {
		return "", err
	}
	r.tags.Add(tag, Entry{URI: uri, Position: pos})
	return tag, nil
}

// Lookup returns the entry for tag and marks it recently used.
func (r *Registry) Lookup(tag string) (Entry, bool) {
	return r.tags.Get(tag)
}

// Len is the number of live tags.
func (r *Registry) Len() int {
	return r.tags.Len()
}

// NewTag generates a random tag.
func NewTag() (string, error) {
	buf := make([]byte, suffixLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate cursor tag: %w", err)
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return "<cursor-" + string(buf) + ">", nil
}

// IsTag reports whether s has the tag format.
func IsTag(s string) bool {
	return tagPattern.MatchString(s)
}

// Window is a captured slice of a document with the tag spliced in.
type Window struct {
	StartLine int
	EndLine   int
	Content   string
}

// Clamp moves pos onto the document: the line into range and the character
// to at most the line length.
func Clamp(doc *host.Document, pos protocol.Position) protocol.Position {
	lines := doc.Lines()
	line := min(int(pos.Line), len(lines)-1)
	width := host.UTF16Len(lines[line])
	return protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(min(int(pos.Character), width))}
}

// Capture builds the window of before and after lines around pos and splices
// tag in at the caret.
func Capture(doc *host.Document, pos protocol.Position, before, after int, tag string) Window {
	if before < 0 {
		before = 0
	}
	if after < 0 {
		after = 0
	}
	lines := doc.Lines()
	line := int(pos.Line)
	if line >= len(lines) {
		line = len(lines) - 1
	}
	start := max(0, line-before)
	end := min(len(lines)-1, line+after)

	window := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		text := lines[i]
		if i == line {
			at := host.ByteOffset(text, int(pos.Character))
			text = text[:at] + tag + text[at:]
		}
		window = append(window, text)
	}
	return Window{StartLine: start, EndLine: end, Content: strings.Join(window, "\n")}
}

// Request describes how move_cursor asked for a position.
type Request struct {
	Tag          string
	Position     *protocol.Position
	SearchString *string
	// Occurrence is 1-based; values below 1 mean the first match.
	Occurrence int
}

// AttemptedVia names the strategy reported when nothing resolved.
func (q Request) AttemptedVia() string {
	switch {
	case q.Position != nil:
		return ViaPosition
	case q.Tag != "":
		return ViaTag
	default:
		return ViaSearch
	}
}

// Locate resolves a position in doc. hit is the registry entry for q.Tag,
// if any. Strategies run in order: registry hit, explicit position, Nth
// occurrence of the search string, literal tag text in the document.
func Locate(ctx context.Context, doc *host.Document, hit *Entry, q Request) (protocol.Position, string, error) {
	chain := fallback.New("move_cursor",
		fallback.Strategy[protocol.Position]{Name: ViaTag, Run: func(context.Context) (protocol.Position, error) {
			if hit == nil {
				return protocol.Position{}, fallback.ErrSkip
			}
			return hit.Position, nil
		}},
		fallback.Strategy[protocol.Position]{Name: ViaPosition, Run: func(context.Context) (protocol.Position, error) {
			if q.Position == nil {
				return protocol.Position{}, fallback.ErrSkip
			}
			return *q.Position, nil
		}},
		fallback.Strategy[protocol.Position]{Name: ViaSearch, Run: func(context.Context) (protocol.Position, error) {
			if q.SearchString == nil {
				return protocol.Position{}, fallback.ErrSkip
			}
			idx := nthIndex(doc.Text, *q.SearchString, max(1, q.Occurrence))
			if idx < 0 {
				return protocol.Position{}, ErrNotFound
			}
			return doc.PositionAt(idx), nil
		}},
		fallback.Strategy[protocol.Position]{Name: ViaTagText, Run: func(context.Context) (protocol.Position, error) {
			if q.Tag == "" {
				return protocol.Position{}, fallback.ErrSkip
			}
			idx := strings.Index(doc.Text, q.Tag)
			if idx < 0 {
				return protocol.Position{}, ErrNotFound
			}
			return doc.PositionAt(idx), nil
		}},
	)
	pos, via, err := chain.Run(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return protocol.Position{}, "", ctxErr
		}
		return protocol.Position{}, q.AttemptedVia(), ErrNotFound
	}
	return pos, via, nil
}

// nthIndex returns the byte index of the nth non-overlapping occurrence of
// sub in s, or -1.
func nthIndex(s, sub string, n int) int {
	offset := 0
	found := -1
	for i := 0; i < n; i++ {
		idx := strings.Index(s[offset:], sub)
		if idx < 0 {
			return -1
		}
		found = offset + idx
		offset = found + len(sub)
		if offset > len(s) {
			offset = len(s)
		}
	}
	return found
}
