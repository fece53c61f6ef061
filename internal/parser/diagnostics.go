package parser

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// SyntaxError is a region the grammar could not parse, or a token it had
// to assume.
type SyntaxError struct {
	Message    string
	Start, End uint32
}

const maxSnippet = 40

// SyntaxErrors lists the error and missing nodes of the tree in document
// order. Errors nested inside an error node are not reported again.
func (r *ParseResult) SyntaxErrors() []SyntaxError {
	out := []SyntaxError{}
	if r.Root == nil || !r.Root.HasError() {
		return out
	}
	r.WalkNodes(func(n *sitter.Node) bool {
		switch {
		case n.IsMissing():
			out = append(out, SyntaxError{
				Message: fmt.Sprintf("missing %s", n.Type()),
				Start:   n.StartByte(),
				End:     n.EndByte(),
			})
			return false
		case n.IsError():
			out = append(out, SyntaxError{
				Message: unexpected(r.NodeText(n)),
				Start:   n.StartByte(),
				End:     n.EndByte(),
			})
			return false
		}
		return n.HasError()
	})
	return out
}

func unexpected(text string) string {
	text = compact(text)
	if text == "" {
		return "syntax error"
	}
	if len(text) > maxSnippet {
		text = text[:maxSnippet] + "..."
	}
	return fmt.Sprintf("syntax error near %q", text)
}
