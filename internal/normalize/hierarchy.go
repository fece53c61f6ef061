package normalize

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/bifrost-mcp/bifrost/internal/host"
)

// HierarchyItem is a call or type hierarchy node.
type HierarchyItem struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Detail string `json:"detail,omitempty"`
	URI    string `json:"uri"`
	Range  Range  `json:"range"`
}

// FromCallItem converts a call hierarchy item.
func FromCallItem(item protocol.CallHierarchyItem) HierarchyItem {
	return HierarchyItem{
		Name:   item.Name,
		Kind:   SymbolKindName(item.Kind),
		Detail: deref(item.Detail),
		URI:    string(item.URI),
		Range:  FromRange(item.Range),
	}
}

// FromTypeItem converts a type hierarchy item.
func FromTypeItem(item host.TypeHierarchyItem) HierarchyItem {
	return HierarchyItem{
		Name:   item.Name,
		Kind:   SymbolKindName(item.Kind),
		Detail: item.Detail,
		URI:    item.URI,
		Range:  FromRange(item.Range),
	}
}

// IncomingCall is a caller of the hierarchy item.
type IncomingCall struct {
	From       HierarchyItem `json:"from"`
	FromRanges []Range       `json:"fromRanges"`
}

// OutgoingCall is a callee of the hierarchy item.
type OutgoingCall struct {
	To         HierarchyItem `json:"to"`
	FromRanges []Range       `json:"fromRanges"`
}

// CallHierarchy is the item with both directions resolved.
type CallHierarchy struct {
	Item          HierarchyItem  `json:"item"`
	IncomingCalls []IncomingCall `json:"incomingCalls"`
	OutgoingCalls []OutgoingCall `json:"outgoingCalls"`
}

// NewCallHierarchy assembles the call hierarchy answer.
func NewCallHierarchy(item protocol.CallHierarchyItem, in []protocol.CallHierarchyIncomingCall, out []protocol.CallHierarchyOutgoingCall) CallHierarchy {
	h := CallHierarchy{
		Item:          FromCallItem(item),
		IncomingCalls: make([]IncomingCall, 0, len(in)),
		OutgoingCalls: make([]OutgoingCall, 0, len(out)),
	}
	for _, c := range in {
		from := FromCallItem(c.From)
		from.Detail = ""
		h.IncomingCalls = append(h.IncomingCalls, IncomingCall{From: from, FromRanges: ranges(c.FromRanges)})
	}
	for _, c := range out {
		to := FromCallItem(c.To)
		to.Detail = ""
		h.OutgoingCalls = append(h.OutgoingCalls, OutgoingCall{To: to, FromRanges: ranges(c.FromRanges)})
	}
	return h
}

// TypeHierarchy is the item with super and subtypes resolved.
type TypeHierarchy struct {
	Item       HierarchyItem   `json:"item"`
	Supertypes []HierarchyItem `json:"supertypes"`
	Subtypes   []HierarchyItem `json:"subtypes"`
}

// NewTypeHierarchy assembles the type hierarchy answer.
func NewTypeHierarchy(item host.TypeHierarchyItem, supers, subs []host.TypeHierarchyItem) TypeHierarchy {
	h := TypeHierarchy{
		Item:       FromTypeItem(item),
		Supertypes: make([]HierarchyItem, 0, len(supers)),
		Subtypes:   make([]HierarchyItem, 0, len(subs)),
	}
	for _, s := range supers {
		h.Supertypes = append(h.Supertypes, FromTypeItem(s))
	}
	for _, s := range subs {
		h.Subtypes = append(h.Subtypes, FromTypeItem(s))
	}
	return h
}

func ranges(in []protocol.Range) []Range {
	out := make([]Range, 0, len(in))
	for _, r := range in {
		out = append(out, FromRange(r))
	}
	return out
}
