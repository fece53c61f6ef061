package hosttest

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/bifrost-mcp/bifrost/internal/host"
)

// Workspace is an in-memory file system with a buffer layer on top.
// Paths are slash-separated absolute paths addressed through file URIs.
type Workspace struct {
	mu      sync.Mutex
	folders []string
	files   map[string]string
	dirs    map[string]bool
	buffers map[string]*host.Document

	// Trashed records paths deleted with UseTrash.
	Trashed []string
	// Saved records every successful Save.
	Saved []string
	// RejectEdits makes ApplyEdit report false without changing anything.
	RejectEdits bool
}

func newWorkspace(folders ...string) *Workspace {
	w := &Workspace{
		files:   map[string]string{},
		dirs:    map[string]bool{"/": true},
		buffers: map[string]*host.Document{},
	}
	for _, f := range folders {
		w.folders = append(w.folders, host.PathToURI(f))
		w.mkdirAll(f)
	}
	return w
}

var _ host.Workspace = (*Workspace)(nil)

func uriPath(uri string) string {
	p, err := host.URIToPath(uri)
	if err != nil {
		return uri
	}
	return path.Clean(p)
}

func (w *Workspace) mkdirAll(p string) {
	for p != "/" && p != "." && p != "" {
		w.dirs[p] = true
		p = path.Dir(p)
	}
}

// AddFile writes a file to disk, creating parent directories.
func (w *Workspace) AddFile(p, content string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	p = path.Clean(p)
	w.files[p] = content
	w.mkdirAll(path.Dir(p))
	return host.PathToURI(p)
}

// Disk returns the on-disk content of p.
func (w *Workspace) Disk(p string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.files[path.Clean(p)]
	return c, ok
}

// OpenBuffer opens uri as a dirty or clean buffer with the given text.
func (w *Workspace) OpenBuffer(uri, text string, dirty bool) *host.Document {
	w.mu.Lock()
	defer w.mu.Unlock()
	doc := &host.Document{URI: uri, LanguageID: host.LanguageID(uri), Version: 1, Text: text, IsDirty: dirty}
	w.buffers[uri] = doc
	return doc
}

func (w *Workspace) Folders() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.folders...)
}

// SetFolders replaces the workspace folders.
func (w *Workspace) SetFolders(folders ...string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.folders = nil
	for _, f := range folders {
		w.folders = append(w.folders, host.PathToURI(f))
	}
}

func (w *Workspace) OpenDocument(_ context.Context, uri string) (*host.Document, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	doc, err := w.open(uri)
	if err != nil {
		return nil, err
	}
	snapshot := *doc
	return &snapshot, nil
}

func (w *Workspace) open(uri string) (*host.Document, error) {
	if doc, ok := w.buffers[uri]; ok {
		return doc, nil
	}
	text, ok := w.files[uriPath(uri)]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", uri, host.ErrNotFound)
	}
	doc := &host.Document{URI: uri, LanguageID: host.LanguageID(uri), Version: 1, Text: text}
	w.buffers[uri] = doc
	return doc, nil
}

func (w *Workspace) Buffer(uri string) (*host.Document, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	doc, ok := w.buffers[uri]
	if !ok {
		return nil, false
	}
	snapshot := *doc
	return &snapshot, true
}

func (w *Workspace) ApplyEdit(_ context.Context, edit protocol.WorkspaceEdit) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.RejectEdits {
		return false, nil
	}
	byURI := host.EditsByURI(edit)
	docs := map[string]*host.Document{}
	for uri := range byURI {
		doc, err := w.open(uri)
		if err != nil {
			return false, nil
		}
		docs[uri] = doc
	}
	for uri, edits := range byURI {
		doc := docs[uri]
		doc.Text = host.ApplyTextEdits(doc.Text, edits)
		doc.Version++
		doc.IsDirty = true
	}
	return true, nil
}

func (w *Workspace) Save(_ context.Context, uri string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	doc, ok := w.buffers[uri]
	if !ok {
		return false, nil
	}
	w.files[uriPath(uri)] = doc.Text
	doc.IsDirty = false
	w.Saved = append(w.Saved, uri)
	return true, nil
}

func (w *Workspace) Stat(_ context.Context, uri string) (host.FileInfo, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p := uriPath(uri)
	if c, ok := w.files[p]; ok {
		return host.FileInfo{Size: int64(len(c))}, nil
	}
	if w.dirs[p] {
		return host.FileInfo{IsDir: true}, nil
	}
	return host.FileInfo{}, fmt.Errorf("stat %s: %w", p, host.ErrNotFound)
}

func (w *Workspace) ReadFile(_ context.Context, uri string) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.files[uriPath(uri)]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", uri, host.ErrNotFound)
	}
	return []byte(c), nil
}

func (w *Workspace) WriteFile(_ context.Context, uri string, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	p := uriPath(uri)
	if !w.dirs[path.Dir(p)] {
		return fmt.Errorf("write %s: parent directory: %w", p, host.ErrNotFound)
	}
	w.files[p] = string(data)
	return nil
}

func (w *Workspace) CreateDirectory(_ context.Context, uri string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.mkdirAll(uriPath(uri))
	return nil
}

func (w *Workspace) Copy(_ context.Context, source, destination string, overwrite bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	src, dst := uriPath(source), uriPath(destination)
	c, ok := w.files[src]
	if !ok {
		return fmt.Errorf("copy %s: %w", src, host.ErrNotFound)
	}
	if _, exists := w.files[dst]; exists && !overwrite {
		return fmt.Errorf("copy %s: destination %s exists", src, dst)
	}
	w.files[dst] = c
	w.mkdirAll(path.Dir(dst))
	return nil
}

func (w *Workspace) Rename(_ context.Context, source, destination string, overwrite bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	src, dst := uriPath(source), uriPath(destination)
	c, ok := w.files[src]
	if !ok {
		return fmt.Errorf("rename %s: %w", src, host.ErrNotFound)
	}
	if _, exists := w.files[dst]; exists && !overwrite {
		return fmt.Errorf("rename %s: destination %s exists", src, dst)
	}
	w.files[dst] = c
	delete(w.files, src)
	delete(w.buffers, source)
	w.mkdirAll(path.Dir(dst))
	return nil
}

func (w *Workspace) Delete(_ context.Context, uri string, opts host.DeleteOptions) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	p := uriPath(uri)
	if _, ok := w.files[p]; ok {
		delete(w.files, p)
		delete(w.buffers, uri)
		if opts.UseTrash {
			w.Trashed = append(w.Trashed, p)
		}
		return nil
	}
	if !w.dirs[p] {
		return fmt.Errorf("delete %s: %w", p, host.ErrNotFound)
	}
	prefix := p + "/"
	var children []string
	for f := range w.files {
		if strings.HasPrefix(f, prefix) {
			children = append(children, f)
		}
	}
	if len(children) > 0 && !opts.Recursive {
		return fmt.Errorf("delete %s: directory not empty", p)
	}
	for _, f := range children {
		delete(w.files, f)
	}
	for d := range w.dirs {
		if d == p || strings.HasPrefix(d, prefix) {
			delete(w.dirs, d)
		}
	}
	if opts.UseTrash {
		w.Trashed = append(w.Trashed, p)
	}
	return nil
}

func (w *Workspace) FindFiles(ctx context.Context, base, include, exclude string, limit int) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if include == "" {
		include = "**/*"
	}
	root := uriPath(base)
	prefix := strings.TrimSuffix(root, "/") + "/"

	paths := make([]string, 0, len(w.files))
	for p := range w.files {
		if strings.HasPrefix(p, prefix) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	var out []string
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rel := strings.TrimPrefix(p, prefix)
		if !host.MatchGlob(include, rel) {
			continue
		}
		if exclude != "" && host.MatchGlob(exclude, rel) {
			continue
		}
		out = append(out, host.PathToURI(p))
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
