package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/bifrost-mcp/bifrost/internal/host"
)

// Workspace is the file system under the workspace folders with an
// in-memory buffer layer on top. Buffers are opened lazily and written back
// on Save.
type Workspace struct {
	folders  []string
	trashDir string

	mu      sync.Mutex
	buffers map[string]*host.Document
}

var _ host.Workspace = (*Workspace)(nil)

// NewWorkspace returns a workspace over folders, given as directory paths.
// Files deleted with UseTrash are moved below trashDir.
func NewWorkspace(folders []string, trashDir string) *Workspace {
	w := &Workspace{trashDir: trashDir, buffers: map[string]*host.Document{}}
	for _, f := range folders {
		w.folders = append(w.folders, host.PathToURI(f))
	}
	return w
}

func fsPath(uri string) (string, error) {
	p, err := host.URIToPath(uri)
	if err != nil {
		return "", err
	}
	return filepath.Clean(p), nil
}

// notFound maps a missing file to host.ErrNotFound.
func notFound(op, p string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s %s: %w", op, p, host.ErrNotFound)
	}
	return fmt.Errorf("%s %s: %w", op, p, err)
}

func (w *Workspace) Folders() []string {
	return append([]string(nil), w.folders...)
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
	p, err := fsPath(uri)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, notFound("open", p, err)
	}
	doc := &host.Document{URI: uri, LanguageID: host.LanguageID(p), Version: 1, Text: string(data)}
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

// Buffers returns snapshots of every open buffer sorted by URI.
func (w *Workspace) Buffers() []host.Document {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]host.Document, 0, len(w.buffers))
	for _, doc := range w.buffers {
		out = append(out, *doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URI < out[j].URI })
	return out
}

// Close drops the buffer for uri. Unsaved changes are lost.
func (w *Workspace) Close(uri string) {
	w.mu.Lock()
	delete(w.buffers, uri)
	w.mu.Unlock()
}

// reload replaces a clean buffer with the disk content. Dirty buffers keep
// their edits.
func (w *Workspace) reload(p string) {
	uri := host.PathToURI(p)
	w.mu.Lock()
	defer w.mu.Unlock()
	doc, ok := w.buffers[uri]
	if !ok || doc.IsDirty {
		return
	}
	data, err := os.ReadFile(p)
	if err != nil {
		delete(w.buffers, uri)
		return
	}
	if string(data) != doc.Text {
		doc.Text = string(data)
		doc.Version++
	}
}

func (w *Workspace) ApplyEdit(_ context.Context, edit protocol.WorkspaceEdit) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	byURI := host.EditsByURI(edit)
	docs := map[string]*host.Document{}
	for uri := range byURI {
		doc, err := w.open(uri)
		if err != nil {
			log.Debugf("apply edit: %s", err)
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
	p, err := fsPath(uri)
	if err != nil {
		return false, err
	}
	if err := writeFile(p, []byte(doc.Text)); err != nil {
		return false, err
	}
	doc.IsDirty = false
	return true, nil
}

// SaveAll saves every dirty buffer and returns how many were written.
func (w *Workspace) SaveAll(ctx context.Context) (int, error) {
	saved := 0
	for _, doc := range w.Buffers() {
		if !doc.IsDirty {
			continue
		}
		ok, err := w.Save(ctx, doc.URI)
		if err != nil {
			return saved, err
		}
		if ok {
			saved++
		}
	}
	return saved, nil
}

// writeFile keeps the mode of an existing file.
func writeFile(p string, data []byte) error {
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(p); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(p, data, mode); err != nil {
		return notFound("write", p, err)
	}
	return nil
}

func (w *Workspace) Stat(_ context.Context, uri string) (host.FileInfo, error) {
	p, err := fsPath(uri)
	if err != nil {
		return host.FileInfo{}, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return host.FileInfo{}, notFound("stat", p, err)
	}
	return host.FileInfo{IsDir: info.IsDir(), Size: info.Size()}, nil
}

func (w *Workspace) ReadFile(_ context.Context, uri string) ([]byte, error) {
	p, err := fsPath(uri)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, notFound("read", p, err)
	}
	return data, nil
}

func (w *Workspace) WriteFile(_ context.Context, uri string, data []byte) error {
	p, err := fsPath(uri)
	if err != nil {
		return err
	}
	return writeFile(p, data)
}

func (w *Workspace) CreateDirectory(_ context.Context, uri string) error {
	p, err := fsPath(uri)
	if err != nil {
		return err
	}
	return os.MkdirAll(p, 0o755)
}

func exists(p string) bool {
	_, err := os.Lstat(p)
	return err == nil
}

func (w *Workspace) Copy(_ context.Context, source, destination string, overwrite bool) error {
	src, err := fsPath(source)
	if err != nil {
		return err
	}
	dst, err := fsPath(destination)
	if err != nil {
		return err
	}
	if exists(dst) && !overwrite {
		return fmt.Errorf("copy %s: destination %s exists", src, dst)
	}
	info, err := os.Stat(src)
	if err != nil {
		return notFound("copy", src, err)
	}
	if info.IsDir() {
		return copyTree(src, dst)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return copyFile(src, dst, info.Mode().Perm())
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		info, err := d.Info()
		if err != nil {
			return err
		}
		if d.IsDir() {
			return os.MkdirAll(target, info.Mode().Perm())
		}
		return copyFile(p, target, info.Mode().Perm())
	})
}

func copyFile(src, dst string, mode fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return notFound("copy", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("copy %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", dst, err)
	}
	return out.Close()
}

func (w *Workspace) Rename(_ context.Context, source, destination string, overwrite bool) error {
	src, err := fsPath(source)
	if err != nil {
		return err
	}
	dst, err := fsPath(destination)
	if err != nil {
		return err
	}
	if !exists(src) {
		return fmt.Errorf("rename %s: %w", src, host.ErrNotFound)
	}
	if exists(dst) && !overwrite {
		return fmt.Errorf("rename %s: destination %s exists", src, dst)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("rename %s: %w", src, err)
	}

	w.mu.Lock()
	if doc, ok := w.buffers[source]; ok {
		delete(w.buffers, source)
		doc.URI = destination
		w.buffers[destination] = doc
	}
	w.mu.Unlock()
	return nil
}

func (w *Workspace) Delete(_ context.Context, uri string, opts host.DeleteOptions) error {
	p, err := fsPath(uri)
	if err != nil {
		return err
	}
	info, err := os.Lstat(p)
	if err != nil {
		return notFound("delete", p, err)
	}
	if info.IsDir() && !opts.Recursive {
		entries, err := os.ReadDir(p)
		if err != nil {
			return fmt.Errorf("delete %s: %w", p, err)
		}
		if len(entries) > 0 {
			return fmt.Errorf("delete %s: directory not empty", p)
		}
	}

	if opts.UseTrash && w.trashDir != "" {
		if err := w.trash(p); err != nil {
			return err
		}
	} else if err := os.RemoveAll(p); err != nil {
		return fmt.Errorf("delete %s: %w", p, err)
	}

	w.mu.Lock()
	prefix := strings.TrimSuffix(uri, "/") + "/"
	for u := range w.buffers {
		if u == uri || strings.HasPrefix(u, prefix) {
			delete(w.buffers, u)
		}
	}
	w.mu.Unlock()
	return nil
}

// trash moves p into a timestamped entry of the trash directory.
func (w *Workspace) trash(p string) error {
	if err := os.MkdirAll(w.trashDir, 0o755); err != nil {
		return fmt.Errorf("trash %s: %w", p, err)
	}
	target := filepath.Join(w.trashDir, fmt.Sprintf("%d-%s", time.Now().UnixNano(), filepath.Base(p)))
	if err := os.Rename(p, target); err != nil {
		return fmt.Errorf("trash %s: %w", p, err)
	}
	log.Infof("moved %s to %s", p, target)
	return nil
}

func (w *Workspace) FindFiles(ctx context.Context, base, include, exclude string, limit int) ([]string, error) {
	if include == "" {
		include = "**/*"
	}
	root, err := fsPath(base)
	if err != nil {
		return nil, err
	}
	inc, err := host.CompileGlob(include)
	if err != nil {
		return nil, fmt.Errorf("include glob: %w", err)
	}
	var exc *host.Glob
	if exclude != "" {
		if exc, err = host.CompileGlob(exclude); err != nil {
			return nil, fmt.Errorf("exclude glob: %w", err)
		}
	}

	var out []string
	errLimit := errors.New("limit reached")
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p == root {
			return nil
		}
		rel := filepath.ToSlash(strings.TrimPrefix(p, root+string(filepath.Separator)))
		if d.IsDir() {
			// Probe with a child path so patterns like **/node_modules/** prune
			// the whole directory.
			if exc != nil && exc.Match(rel+"/x") {
				return filepath.SkipDir
			}
			return nil
		}
		if !inc.Match(rel) || (exc != nil && exc.Match(rel)) {
			return nil
		}
		out = append(out, host.PathToURI(p))
		if limit > 0 && len(out) >= limit {
			return errLimit
		}
		return nil
	})
	if err != nil && !errors.Is(err, errLimit) {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}
