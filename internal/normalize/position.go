// Package normalize converts host-native language results into the stable
// JSON shapes returned by tools. It normalizes shape only; the meaning of a
// result is whatever the provider said.
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Position is a zero-based line and character.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is a half-open span.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// FromPosition converts a protocol position.
func FromPosition(p protocol.Position) Position {
	return Position{Line: int(p.Line), Character: int(p.Character)}
}

// FromRange converts a protocol range.
func FromRange(r protocol.Range) Range {
	return Range{Start: FromPosition(r.Start), End: FromPosition(r.End)}
}

// OptionalRange converts a nil-able protocol range.
func OptionalRange(r *protocol.Range) *Range {
	if r == nil {
		return nil
	}
	out := FromRange(*r)
	return &out
}

// Less orders positions lexicographically.
func (p Position) Less(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Character < o.Character
}

// Valid reports whether start <= end and both are non-negative.
func (r Range) Valid() bool {
	if r.Start.Line < 0 || r.Start.Character < 0 || r.End.Line < 0 || r.End.Character < 0 {
		return false
	}
	return !r.End.Less(r.Start)
}

// Protocol converts back to a protocol position.
func (p Position) Protocol() protocol.Position {
	return protocol.Position{Line: protocol.UInteger(p.Line), Character: protocol.UInteger(p.Character)}
}

// Protocol converts back to a protocol range.
func (r Range) Protocol() protocol.Range {
	return protocol.Range{Start: r.Start.Protocol(), End: r.End.Protocol()}
}

// MaxCount caps every count read by PositiveInt so products of a page and a
// page size stay in range.
const MaxCount = math.MaxInt32

// PositiveInt reads a loosely typed count. Non-numbers and values <= 0 are
// absent; fractions are floored and values above MaxCount become MaxCount.
func PositiveInt(v any) (int, bool) {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0, false
	}
	if f >= MaxCount {
		return MaxCount, true
	}
	return int(math.Floor(f)), true
}
