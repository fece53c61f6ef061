// Package review holds proposed patches until they are accepted or
// rejected.
//
// Each document has at most one pending patch: queueing a second patch for
// the same URI replaces the first. Queued patches are previewed as diffs and
// only reach the buffer on AcceptAll.
package review

import (
	"context"
	"fmt"
	"sync"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/bifrost-mcp/bifrost/internal/host"
)

var log = commonlog.GetLogger("bifrost.review")

// Pending is one queued patch.
type Pending struct {
	URI        string `json:"uri"`
	Original   string `json:"-"`
	Patched    string `json:"-"`
	LanguageID string `json:"languageId"`
}

// Manager is the review queue.
type Manager struct {
	mu      sync.Mutex
	pending map[string]Pending
	order   []string

	ws  host.Workspace
	win host.Window
}

// New creates an empty queue.
func New(ws host.Workspace, win host.Window) *Manager {
	return &Manager{pending: map[string]Pending{}, ws: ws, win: win}
}

// Queue applies patch to the current text of uri, stores the result and
// opens a preview. A patch that does not apply leaves the queue unchanged.
func (m *Manager) Queue(ctx context.Context, uri, patch string) error {
	doc, err := m.ws.OpenDocument(ctx, uri)
	if err != nil {
		return err
	}
	patched, err := ApplyPatch(doc.Text, patch)
	if err != nil {
		return err
	}
	p := Pending{URI: uri, Original: doc.Text, Patched: patched, LanguageID: doc.LanguageID}

	m.mu.Lock()
	if _, exists := m.pending[uri]; !exists {
		m.order = append(m.order, uri)
	}
	m.pending[uri] = p
	m.mu.Unlock()

	m.preview(ctx, p)
	return nil
}

func (m *Manager) preview(ctx context.Context, p Pending) {
	title := "Patch Preview: " + host.RelativePath(m.ws.Folders(), p.URI)
	if err := m.win.ShowDiff(ctx, p.URI, p.Original, p.Patched, title); err != nil {
		log.Warningf("preview %s: %s", p.URI, err)
	}
}

// List returns pending patches in queue order.
func (m *Manager) List() []Pending {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Pending, 0, len(m.order))
	for _, uri := range m.order {
		out = append(out, m.pending[uri])
	}
	return out
}

// Pending is the number of queued patches.
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

func (m *Manager) drain() []Pending {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Pending, 0, len(m.order))
	for _, uri := range m.order {
		out = append(out, m.pending[uri])
	}
	m.pending = map[string]Pending{}
	m.order = nil
	return out
}

// AcceptAll writes every pending patch into its document as a whole-document
// replace, saving documents that were clean, and clears the queue. It returns
// the number of documents updated.
func (m *Manager) AcceptAll(ctx context.Context) (int, error) {
	accepted := 0
	var firstErr error
	for _, p := range m.drain() {
		doc, err := m.ws.OpenDocument(ctx, p.URI)
		if err != nil {
			firstErr = keepFirst(firstErr, err)
			continue
		}
		wasDirty := doc.IsDirty
		edit := protocol.WorkspaceEdit{
			Changes: map[protocol.DocumentUri][]protocol.TextEdit{
				protocol.DocumentUri(p.URI): {{Range: doc.FullRange(), NewText: p.Patched}},
			},
		}
		applied, err := m.ws.ApplyEdit(ctx, edit)
		if err != nil {
			firstErr = keepFirst(firstErr, err)
			continue
		}
		if !applied {
			continue
		}
		if !wasDirty {
			if _, err := m.ws.Save(ctx, p.URI); err != nil {
				firstErr = keepFirst(firstErr, err)
			}
		}
		accepted++
	}
	if firstErr != nil {
		return accepted, fmt.Errorf("accept patches: %w", firstErr)
	}
	return accepted, nil
}

// RejectAll drops every pending patch and returns how many were dropped.
func (m *Manager) RejectAll() int {
	return len(m.drain())
}

// OpenAll re-opens the preview of every pending patch.
func (m *Manager) OpenAll(ctx context.Context) int {
	items := m.List()
	for _, p := range items {
		m.preview(ctx, p)
	}
	return len(items)
}

func keepFirst(first, err error) error {
	if first != nil {
		return first
	}
	return err
}
