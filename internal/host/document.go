package host

import (
	"sort"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Document is a snapshot of a text document. Positions use zero-based lines
// and UTF-16 code-unit characters, the same convention as LSP.
type Document struct {
	URI        string
	LanguageID string
	Version    int
	Text       string
	IsDirty    bool
}

// Lines splits the text on \r?\n.
func (d *Document) Lines() []string {
	return SplitLines(d.Text)
}

// SplitLines splits s on \r?\n. An empty string yields one empty line.
func SplitLines(s string) []string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// LineCount returns the number of lines, never less than one.
func (d *Document) LineCount() int {
	return strings.Count(d.Text, "\n") + 1
}

// LineAt returns the text of line i without its terminator. Out-of-range
// lines are clamped.
func (d *Document) LineAt(i int) string {
	lines := d.Lines()
	if i < 0 {
		i = 0
	}
	if i >= len(lines) {
		i = len(lines) - 1
	}
	return lines[i]
}

// lineStarts returns the byte offset at which each line begins.
func (d *Document) lineStarts() []int {
	starts := []int{0}
	for i := 0; i < len(d.Text); i++ {
		if d.Text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// OffsetAt converts a position to a byte offset in Text, clamping to the
// document bounds the way editors do.
func (d *Document) OffsetAt(pos protocol.Position) int {
	starts := d.lineStarts()
	line := int(pos.Line)
	if line >= len(starts) {
		return len(d.Text)
	}
	start := starts[line]
	end := len(d.Text)
	if line+1 < len(starts) {
		end = starts[line+1] - 1
	}
	text := strings.TrimSuffix(d.Text[start:end], "\r")
	return start + ByteOffset(text, int(pos.Character))
}

// PositionAt converts a byte offset in Text to a position.
func (d *Document) PositionAt(offset int) protocol.Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(d.Text) {
		offset = len(d.Text)
	}
	starts := d.lineStarts()
	line := 0
	for i := len(starts) - 1; i >= 0; i-- {
		if starts[i] <= offset {
			line = i
			break
		}
	}
	prefix := strings.TrimSuffix(d.Text[starts[line]:offset], "\r")
	return protocol.Position{
		Line:      protocol.UInteger(line),
		Character: protocol.UInteger(UTF16Len(prefix)),
	}
}

// TextIn returns the text covered by rng.
func (d *Document) TextIn(rng protocol.Range) string {
	start, end := d.OffsetAt(rng.Start), d.OffsetAt(rng.End)
	if end < start {
		start, end = end, start
	}
	return d.Text[start:end]
}

// FullRange covers the whole document.
func (d *Document) FullRange() protocol.Range {
	return protocol.Range{
		Start: protocol.Position{},
		End:   d.PositionAt(len(d.Text)),
	}
}

// ByteOffset converts a UTF-16 character index within line to a byte index.
func ByteOffset(line string, character int) int {
	units := 0
	for i, r := range line {
		if units >= character {
			return i
		}
		units += utf16.RuneLen(r)
	}
	return len(line)
}

// UTF16Len returns the length of s in UTF-16 code units.
func UTF16Len(s string) int {
	n := 0
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]
		n += utf16.RuneLen(r)
	}
	return n
}

// ApplyTextEdits applies non-overlapping edits to text. Edits are applied
// from the end of the document backwards so earlier offsets stay valid.
func ApplyTextEdits(text string, edits []protocol.TextEdit) string {
	doc := &Document{Text: text}
	type span struct {
		start, end, index int
		newText           string
	}
	spans := make([]span, 0, len(edits))
	for i, e := range edits {
		s, t := doc.OffsetAt(e.Range.Start), doc.OffsetAt(e.Range.End)
		if t < s {
			s, t = t, s
		}
		spans = append(spans, span{s, t, i, e.NewText})
	}
	// Inserts sharing an offset keep their listed order in the output.
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start > spans[j].start
		}
		if spans[i].end != spans[j].end {
			return spans[i].end > spans[j].end
		}
		return spans[i].index > spans[j].index
	})
	out := text
	for _, sp := range spans {
		out = out[:sp.start] + sp.newText + out[sp.end:]
	}
	return out
}
