// Package lineedit applies line-based edits to live documents and records a
// unified diff of every change.
package lineedit

import (
	"context"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/bifrost-mcp/bifrost/internal/host"
)

// diffContext matches the default context size of common patch tools.
const diffContext = 4

// Transform maps the current lines to the next lines and describes the change.
// Implementations must not mutate their input.
type Transform func(lines []string) (next []string, description string)

// Result is what a line edit reports.
type Result struct {
	Applied     bool   `json:"applied"`
	Description string `json:"description"`
	Patch       string `json:"patch"`
}

// Engine applies transforms through a host workspace.
type Engine struct {
	ws host.Workspace
}

// New creates an engine on ws.
func New(ws host.Workspace) *Engine {
	return &Engine{ws: ws}
}

// Apply runs tr over the live text of uri as one whole-document replace. A
// document that was clean before the edit is saved afterwards; a dirty one
// keeps its changes in the buffer only.
func (e *Engine) Apply(ctx context.Context, uri string, tr Transform) (Result, error) {
	doc, err := e.ws.OpenDocument(ctx, uri)
	if err != nil {
		return Result{}, fmt.Errorf("open %s: %w", uri, err)
	}
	wasDirty := doc.IsDirty
	original := doc.Text

	next, description := tr(host.SplitLines(original))
	updated := strings.Join(next, "\n")

	edit := protocol.WorkspaceEdit{
		Changes: map[protocol.DocumentUri][]protocol.TextEdit{
			protocol.DocumentUri(uri): {{Range: doc.FullRange(), NewText: updated}},
		},
	}
	applied, err := e.ws.ApplyEdit(ctx, edit)
	if err != nil {
		return Result{}, fmt.Errorf("apply edit to %s: %w", uri, err)
	}
	if applied && !wasDirty {
		if _, err := e.ws.Save(ctx, uri); err != nil {
			return Result{}, fmt.Errorf("save %s: %w", uri, err)
		}
	}

	patch, err := UnifiedDiff(host.FSPath(uri), original, updated)
	if err != nil {
		return Result{}, err
	}
	return Result{Applied: applied, Description: description, Patch: patch}, nil
}

// UnifiedDiff renders the change from original to updated as a unified diff
// with name on both file headers.
func UnifiedDiff(name, original, updated string) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        diffLines(original),
		B:        diffLines(updated),
		FromFile: name,
		ToFile:   name,
		Context:  diffContext,
	}
	out, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("diff %s: %w", name, err)
	}
	return out, nil
}

// diffLines splits s keeping line terminators. A final newline does not
// start another line; an unterminated last line gets one so the hunk body
// stays well formed.
func diffLines(s string) []string {
	lines := strings.SplitAfter(s, "\n")
	if last := len(lines) - 1; lines[last] == "" {
		lines = lines[:last]
	} else {
		lines[last] += "\n"
	}
	return lines
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

// Insert splices newLines before index line, clamped to [0, len(lines)].
func Insert(line int, newLines []string) Transform {
	return func(lines []string) ([]string, string) {
		at := clamp(line, 0, len(lines))
		next := make([]string, 0, len(lines)+len(newLines))
		next = append(next, lines[:at]...)
		next = append(next, newLines...)
		next = append(next, lines[at:]...)
		return next, fmt.Sprintf("Inserted %d line(s) at %d", len(newLines), at)
	}
}

// span clamps [start, end) into the line array and orders it.
func span(start, end, n int) (int, int) {
	s := clamp(start, 0, n)
	return s, max(s, min(n, end))
}

// Remove splices out [start, end).
func Remove(start, end int) Transform {
	return func(lines []string) ([]string, string) {
		s, e := span(start, end, len(lines))
		next := make([]string, 0, len(lines)-(e-s))
		next = append(next, lines[:s]...)
		next = append(next, lines[e:]...)
		return next, fmt.Sprintf("Removed lines %d-%d", s, e)
	}
}

// Replace splices out [start, end) and splices in newLines.
func Replace(start, end int, newLines []string) Transform {
	return func(lines []string) ([]string, string) {
		s, e := span(start, end, len(lines))
		next := make([]string, 0, len(lines)-(e-s)+len(newLines))
		next = append(next, lines[:s]...)
		next = append(next, newLines...)
		next = append(next, lines[e:]...)
		return next, fmt.Sprintf("Replaced lines %d-%d with %d line(s)", s, e, len(newLines))
	}
}
