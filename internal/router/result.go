package router

import (
	"encoding/json"

	"github.com/bifrost-mcp/bifrost/internal/tools"
)

// Result is the envelope every tool returns. Data results carry structured
// values, status results carry narrative text.
type Result struct {
	Kind    tools.ResultKind
	Data    any
	Text    string
	IsError bool
}

// Data wraps a structured result.
func Data(v any) *Result {
	return &Result{Kind: tools.KindData, Data: v}
}

// Status wraps a narrative result.
func Status(text string) *Result {
	return &Result{Kind: tools.KindStatus, Text: text}
}

// StatusError wraps a narrative failure.
func StatusError(text string) *Result {
	return &Result{Kind: tools.KindStatus, Text: text, IsError: true}
}

type textContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type statusEnvelope struct {
	Content []textContent `json:"content"`
	IsError bool          `json:"isError"`
}

// MarshalJSON renders data as-is and status as a content envelope.
func (r *Result) MarshalJSON() ([]byte, error) {
	if r.Kind == tools.KindStatus {
		return json.Marshal(statusEnvelope{
			Content: []textContent{{Type: "text", Text: r.Text}},
			IsError: r.IsError,
		})
	}
	return json.Marshal(r.Data)
}

// JSON renders the result in its wire shape.
func (r *Result) JSON() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// obj is the shape of ad-hoc data results.
type obj = map[string]any

func errorData(err error) *Result {
	return Data(obj{"error": err.Error()})
}
