package normalize

import (
	"encoding/json"
	"fmt"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

var log = commonlog.GetLogger("bifrost.normalize")

// Text flattens documentation-like values: plain strings, markup content,
// marked strings and anything that serializes to a string or to an object
// with a "value" field.
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case *string:
		if t == nil {
			return ""
		}
		return *t
	case protocol.MarkupContent:
		return t.Value
	case *protocol.MarkupContent:
		if t == nil {
			return ""
		}
		return t.Value
	case map[string]any:
		if s, ok := t["value"].(string); ok {
			return s
		}
	case fmt.Stringer:
		return t.String()
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var obj struct {
		Value *string `json:"value"`
	}
	if json.Unmarshal(raw, &obj) == nil && obj.Value != nil {
		return *obj.Value
	}
	return string(raw)
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
