package local

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"

	"github.com/bifrost-mcp/bifrost/internal/host"
	"github.com/bifrost-mcp/bifrost/internal/lineedit"
)

// Prompter asks the user to pick one of choices. It returns "" when the
// question is dismissed or nobody can answer it.
type Prompter interface {
	Ask(ctx context.Context, message string, choices []string) (string, error)
	// Show displays text that needs no answer.
	Show(text string)
}

// TTYPrompter asks on the controlling terminal. Stdin and stdout carry the
// MCP transport, so the prompt never touches them.
type TTYPrompter struct {
	// Path is the terminal device, /dev/tty when empty.
	Path string
	mu   sync.Mutex
}

func (p *TTYPrompter) open() (*os.File, bool) {
	path := p.Path
	if path == "" {
		path = "/dev/tty"
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, false
	}
	if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		f.Close()
		return nil, false
	}
	return f, true
}

func (p *TTYPrompter) Ask(ctx context.Context, message string, choices []string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tty, ok := p.open()
	if !ok {
		log.Infof("no terminal to ask %q, declining", message)
		return "", nil
	}
	defer tty.Close()

	fmt.Fprintf(tty, "\nbifrost: %s\n", message)
	for i, c := range choices {
		fmt.Fprintf(tty, "  [%d] %s\n", i+1, c)
	}
	fmt.Fprint(tty, "> ")

	answer := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(tty).ReadString('\n')
		answer <- line
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line := <-answer:
		return matchChoice(line, choices), nil
	}
}

func (p *TTYPrompter) Show(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	tty, ok := p.open()
	if !ok {
		log.Debugf("%s", text)
		return
	}
	defer tty.Close()
	fmt.Fprintln(tty, text)
}

// matchChoice accepts a choice by number or by case-insensitive name.
func matchChoice(line string, choices []string) string {
	line = strings.TrimSpace(line)
	if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(choices) {
		return choices[n-1]
	}
	for _, c := range choices {
		if strings.EqualFold(c, line) {
			return c
		}
	}
	return ""
}

// WriterPrompter answers every question with Answer and writes what it
// shows to Out. It suits scripted runs and tests.
type WriterPrompter struct {
	Answer string
	Out    io.Writer
}

func (p WriterPrompter) Ask(_ context.Context, message string, choices []string) (string, error) {
	if p.Out != nil {
		fmt.Fprintf(p.Out, "%s %v\n", message, choices)
	}
	if slices.Contains(choices, p.Answer) {
		return p.Answer, nil
	}
	return "", nil
}

func (p WriterPrompter) Show(text string) {
	if p.Out != nil {
		fmt.Fprintln(p.Out, text)
	}
}

// Window is a virtual window: it tracks the editors and tabs the tools open
// and routes message boxes to a Prompter.
type Window struct {
	prompter Prompter

	mu      sync.Mutex
	editors []host.Editor
	tabs    []host.Tab
	active  int
}

var _ host.Window = (*Window)(nil)

// NewWindow returns an empty window that asks p.
func NewWindow(p Prompter) *Window {
	return &Window{prompter: p, active: -1}
}

func (w *Window) ActiveEditor() (host.Editor, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.active < 0 || w.active >= len(w.editors) {
		return host.Editor{}, false
	}
	return w.editors[w.active], true
}

func (w *Window) VisibleEditors() []host.Editor {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]host.Editor(nil), w.editors...)
}

func (w *Window) Tabs() []host.Tab {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]host.Tab(nil), w.tabs...)
}

func (w *Window) focus(uri string) int {
	i := slices.IndexFunc(w.editors, func(e host.Editor) bool { return e.URI == uri })
	if i < 0 {
		w.editors = append(w.editors, host.Editor{URI: uri, ViewColumn: 1, Selections: []host.Selection{{}}})
		w.tabs = append(w.tabs, host.Tab{URI: uri, ViewColumn: 1})
		i = len(w.editors) - 1
	}
	w.active = i
	for j := range w.tabs {
		w.tabs[j].IsActive = w.tabs[j].URI == uri
	}
	return i
}

func (w *Window) ShowDocument(_ context.Context, uri string, _ host.ShowOptions) (host.Editor, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.editors[w.focus(uri)], nil
}

func (w *Window) SetSelection(_ context.Context, uri string, sel host.Selection) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	i := w.focus(uri)
	w.editors[i].Selections = []host.Selection{sel}
	return nil
}

func (w *Window) CloseTab(_ context.Context, tab host.Tab) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	i := slices.IndexFunc(w.tabs, func(t host.Tab) bool { return t.URI == tab.URI && t.Original == tab.Original })
	if i < 0 {
		return false, nil
	}
	w.tabs = slices.Delete(w.tabs, i, i+1)
	if j := slices.IndexFunc(w.editors, func(e host.Editor) bool { return e.URI == tab.URI }); j >= 0 {
		w.editors = slices.Delete(w.editors, j, j+1)
		switch {
		case len(w.editors) == 0:
			w.active = -1
		case w.active >= len(w.editors):
			w.active = len(w.editors) - 1
		}
	}
	return true, nil
}

func (w *Window) ShowWarning(ctx context.Context, message string, _ bool, choices ...string) (string, error) {
	return w.prompter.Ask(ctx, message, choices)
}

func (w *Window) ShowInformation(ctx context.Context, message string, choices ...string) (string, error) {
	if len(choices) == 0 {
		w.prompter.Show(message)
		return "", nil
	}
	return w.prompter.Ask(ctx, message, choices)
}

// ShowDiff has no editor to open, so it prints the change as a unified diff.
func (w *Window) ShowDiff(_ context.Context, uri, original, modified, title string) error {
	diff, err := lineedit.UnifiedDiff(host.Basename(uri), original, modified)
	if err != nil {
		return err
	}
	w.prompter.Show(title + "\n" + diff)
	return nil
}
