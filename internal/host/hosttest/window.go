package hosttest

import (
	"context"
	"sync"

	"github.com/bifrost-mcp/bifrost/internal/host"
)

// Prompt is a recorded message box.
type Prompt struct {
	Message string
	Modal   bool
	Choices []string
}

// Diff is a recorded diff preview.
type Diff struct {
	URI      string
	Original string
	Modified string
	Title    string
}

// Window is a scripted window. Warning prompts answer with WarningAnswer and
// information prompts with InfoAnswer.
type Window struct {
	mu      sync.Mutex
	editors []host.Editor
	active  int
	tabs    []host.Tab

	WarningAnswer string
	WarningErr    error
	InfoAnswer    string

	Warnings []Prompt
	Infos    []Prompt
	Diffs    []Diff
	Closed   []host.Tab
}

var _ host.Window = (*Window)(nil)

func newWindow() *Window {
	return &Window{active: -1}
}

// Open shows uri with a caret at sel and makes it the active editor.
func (w *Window) Open(uri string, sel host.Selection) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.show(uri)
	w.editors[w.active].Selections = []host.Selection{sel}
}

// AddTab adds a background tab without a visible editor.
func (w *Window) AddTab(tab host.Tab) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tabs = append(w.tabs, tab)
}

func (w *Window) show(uri string) host.Editor {
	for i, e := range w.editors {
		if e.URI == uri {
			w.active = i
			w.markActiveTab(uri)
			return e
		}
	}
	w.editors = append(w.editors, host.Editor{URI: uri, ViewColumn: 1})
	w.active = len(w.editors) - 1
	found := false
	for _, t := range w.tabs {
		if t.URI == uri {
			found = true
		}
	}
	if !found {
		w.tabs = append(w.tabs, host.Tab{URI: uri, ViewColumn: 1})
	}
	w.markActiveTab(uri)
	return w.editors[w.active]
}

func (w *Window) markActiveTab(uri string) {
	for i := range w.tabs {
		w.tabs[i].IsActive = w.tabs[i].URI == uri
	}
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

func (w *Window) ShowDocument(_ context.Context, uri string, _ host.ShowOptions) (host.Editor, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.show(uri), nil
}

func (w *Window) SetSelection(_ context.Context, uri string, sel host.Selection) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range w.editors {
		if w.editors[i].URI == uri {
			w.editors[i].Selections = []host.Selection{sel}
			return nil
		}
	}
	w.show(uri)
	w.editors[w.active].Selections = []host.Selection{sel}
	return nil
}

func (w *Window) CloseTab(_ context.Context, tab host.Tab) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, t := range w.tabs {
		if t.URI == tab.URI && t.Original == tab.Original {
			w.tabs = append(w.tabs[:i], w.tabs[i+1:]...)
			w.Closed = append(w.Closed, t)
			for j, e := range w.editors {
				if e.URI == t.URI {
					w.editors = append(w.editors[:j], w.editors[j+1:]...)
					if w.active >= len(w.editors) {
						w.active = len(w.editors) - 1
					}
					break
				}
			}
			return true, nil
		}
	}
	return false, nil
}

func (w *Window) ShowWarning(_ context.Context, message string, modal bool, choices ...string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Warnings = append(w.Warnings, Prompt{Message: message, Modal: modal, Choices: choices})
	if w.WarningErr != nil {
		return "", w.WarningErr
	}
	return w.WarningAnswer, nil
}

func (w *Window) ShowInformation(_ context.Context, message string, choices ...string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Infos = append(w.Infos, Prompt{Message: message, Choices: choices})
	return w.InfoAnswer, nil
}

func (w *Window) ShowDiff(_ context.Context, uri, original, modified, title string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Diffs = append(w.Diffs, Diff{URI: uri, Original: original, Modified: modified, Title: title})
	return nil
}
