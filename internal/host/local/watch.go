package local

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/bifrost-mcp/bifrost/internal/host"
)

// watcher keeps clean buffers in sync with edits made on disk by other
// programs.
type watcher struct {
	ws       *Workspace
	fsw      *fsnotify.Watcher
	exclude  *host.Glob
	roots    []string
	done     chan struct{}
	stopOnce sync.Once
}

func newWatcher(ws *Workspace, roots []string, exclude string) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &watcher{ws: ws, fsw: fsw, roots: roots, done: make(chan struct{})}
	if exclude != "" {
		if w.exclude, err = host.CompileGlob(exclude); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *watcher) start(ctx context.Context) error {
	for _, root := range w.roots {
		if err := w.addRecursive(root); err != nil {
			return err
		}
	}
	go w.processEvents(ctx)
	return nil
}

func (w *watcher) stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.fsw.Close()
	})
}

func (w *watcher) ignored(p string) bool {
	if w.exclude == nil {
		return false
	}
	for _, root := range w.roots {
		rel, err := filepath.Rel(root, p)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}
		if w.exclude.Match(filepath.ToSlash(rel) + "/x") {
			return true
		}
	}
	return false
}

func (w *watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(p) {
			return filepath.SkipDir
		}
		return w.fsw.Add(p)
	})
}

func (w *watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			switch {
			case event.Has(fsnotify.Create):
				if isDir(event.Name) && !w.ignored(event.Name) {
					if err := w.addRecursive(event.Name); err != nil {
						log.Debugf("watch %s: %s", event.Name, err)
					}
					continue
				}
				w.ws.reload(event.Name)
			case event.Has(fsnotify.Write), event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				w.ws.reload(event.Name)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Warningf("file watcher: %s", err)
		}
	}
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
