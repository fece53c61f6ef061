package normalize

import (
	"context"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Previewer returns the text of one line of uri. ok is false when the
// document cannot be read.
type Previewer func(ctx context.Context, uri string, line int) (text string, ok bool)

// Location is a navigation target with an optional one-line preview.
type Location struct {
	URI     string `json:"uri"`
	Range   Range  `json:"range"`
	Preview string `json:"preview,omitempty"`
}

// Locations normalizes the location union returned by definition-like
// providers: a single Location, a slice of Location, a slice of LocationLink,
// or nil. Links report their target range.
func Locations(ctx context.Context, result any, preview Previewer) []Location {
	var raw []protocol.Location
	switch v := result.(type) {
	case nil:
	case protocol.Location:
		raw = []protocol.Location{v}
	case *protocol.Location:
		if v != nil {
			raw = []protocol.Location{*v}
		}
	case []protocol.Location:
		raw = v
	case []protocol.LocationLink:
		for _, l := range v {
			raw = append(raw, protocol.Location{URI: l.TargetURI, Range: l.TargetRange})
		}
	case protocol.LocationLink:
		raw = []protocol.Location{{URI: v.TargetURI, Range: v.TargetRange}}
	default:
		log.Debugf("unexpected location result %T", result)
	}

	out := make([]Location, 0, len(raw))
	for _, l := range raw {
		out = append(out, withPreview(ctx, string(l.URI), FromRange(l.Range), preview))
	}
	return out
}

func withPreview(ctx context.Context, uri string, rng Range, preview Previewer) Location {
	loc := Location{URI: uri, Range: rng}
	if preview != nil {
		if text, ok := preview(ctx, uri, rng.Start.Line); ok {
			loc.Preview = strings.TrimSpace(text)
		}
	}
	return loc
}

// Hover is the flattened hover answer.
type Hover struct {
	Contents []string `json:"contents"`
	Range    *Range   `json:"range,omitempty"`
	Preview  string   `json:"preview,omitempty"`
}

// Hovers flattens hover contents to strings. A preview is taken from the
// first line of the hover range when one is reported.
func Hovers(ctx context.Context, uri string, hovers []protocol.Hover, preview Previewer) []Hover {
	out := make([]Hover, 0, len(hovers))
	for _, h := range hovers {
		item := Hover{Contents: hoverContents(h.Contents), Range: OptionalRange(h.Range)}
		if item.Range != nil && preview != nil {
			if text, ok := preview(ctx, uri, item.Range.Start.Line); ok {
				item.Preview = strings.TrimSpace(text)
			}
		}
		out = append(out, item)
	}
	return out
}

func hoverContents(contents any) []string {
	switch v := contents.(type) {
	case nil:
		return []string{}
	case []any:
		out := make([]string, 0, len(v))
		for _, c := range v {
			out = append(out, Text(c))
		}
		return out
	case []string:
		return append([]string{}, v...)
	case []protocol.MarkupContent:
		out := make([]string, 0, len(v))
		for _, c := range v {
			out = append(out, c.Value)
		}
		return out
	default:
		return []string{Text(v)}
	}
}
