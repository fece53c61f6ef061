package review

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// ErrHunkMismatch is returned when a hunk's context does not match the text.
var ErrHunkMismatch = errors.New("hunk does not match document")

// ErrEmptyPatch is returned for a patch without hunks.
var ErrEmptyPatch = errors.New("patch has no hunks")

// ApplyPatch applies a single-file unified diff to text. Hunks are tried at
// their recorded line first and then at the nearest matching position, so a
// patch made against a slightly shifted version still applies.
func ApplyPatch(text, patch string) (string, error) {
	fd, err := parseFileDiff(patch)
	if err != nil {
		return "", err
	}
	if len(fd.Hunks) == 0 {
		return "", ErrEmptyPatch
	}

	finalNewline := strings.HasSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	if finalNewline {
		lines = lines[:len(lines)-1]
	}
	if text == "" {
		lines = nil
	}

	delta := 0
	floor := 0
	for i, h := range fd.Hunks {
		old, next, oldNoEOL, newNoEOL := splitHunk(h)

		origin := int(h.OrigStartLine) - 1
		if h.OrigLines == 0 {
			origin = int(h.OrigStartLine)
		}

		pos, ok := locate(lines, old, origin+delta, floor)
		if !ok {
			return "", fmt.Errorf("hunk %d (@@ -%d,%d): %w", i+1, h.OrigStartLine, h.OrigLines, ErrHunkMismatch)
		}

		updated := make([]string, 0, len(lines)-len(old)+len(next))
		updated = append(updated, lines[:pos]...)
		updated = append(updated, next...)
		updated = append(updated, lines[pos+len(old):]...)
		lines = updated

		delta = pos - origin + len(next) - len(old)
		floor = pos + len(next)

		if pos+len(next) == len(lines) {
			switch {
			case newNoEOL:
				finalNewline = false
			case oldNoEOL, text == "":
				finalNewline = true
			}
		}
	}

	out := strings.Join(lines, "\n")
	if finalNewline && len(lines) > 0 {
		out += "\n"
	}
	return out, nil
}

// parseFileDiff accepts patches with or without file headers.
func parseFileDiff(patch string) (*diff.FileDiff, error) {
	src := patch
	if !strings.HasPrefix(src, "---") && !strings.Contains(src, "\n--- ") {
		src = "--- a\n+++ b\n" + src
	}
	if !strings.HasSuffix(src, "\n") {
		src += "\n"
	}
	fd, err := diff.ParseFileDiff([]byte(src))
	if err != nil {
		return nil, fmt.Errorf("parse patch: %w", err)
	}
	return fd, nil
}

// splitHunk returns the old and new sides of a hunk and whether either side
// ends without a newline. The parser drops the "\ No newline" marker; it
// records the old side in OrigNoNewlineAt and strips the trailing newline of
// the body for the new side.
func splitHunk(h *diff.Hunk) (old, next []string, oldNoEOL, newNoEOL bool) {
	body := h.Body
	newNoEOL = len(body) > 0 && !bytes.HasSuffix(body, []byte("\n"))
	oldNoEOL = h.OrigNoNewlineAt > 0
	body = bytes.TrimSuffix(body, []byte("\n"))
	if len(body) == 0 {
		return nil, nil, oldNoEOL, newNoEOL
	}
	for _, raw := range strings.Split(string(body), "\n") {
		if raw == "" {
			// Some generators drop the leading space of empty context lines.
			old = append(old, "")
			next = append(next, "")
			continue
		}
		line := strings.TrimSuffix(raw[1:], "\r")
		switch raw[0] {
		case ' ':
			old = append(old, line)
			next = append(next, line)
		case '-':
			old = append(old, line)
		case '+':
			next = append(next, line)
		}
	}
	return old, next, oldNoEOL, newNoEOL
}

// locate finds where want matches lines, starting at start and moving
// outwards, never before floor.
func locate(lines, want []string, start, floor int) (int, bool) {
	limit := len(lines) - len(want)
	if limit < floor {
		return 0, false
	}
	start = min(max(start, floor), limit)
	for d := 0; ; d++ {
		below, above := start+d, start-d
		if below > limit && above < floor {
			return 0, false
		}
		if below <= limit && matchesAt(lines, want, below) {
			return below, true
		}
		if d > 0 && above >= floor && matchesAt(lines, want, above) {
			return above, true
		}
	}
}

func matchesAt(lines, want []string, at int) bool {
	for i, w := range want {
		if strings.TrimSuffix(lines[at+i], "\r") != w {
			return false
		}
	}
	return true
}
