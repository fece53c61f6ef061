package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bifrost-mcp/bifrost/internal/host"
	"github.com/bifrost-mcp/bifrost/internal/normalize"
	"github.com/bifrost-mcp/bifrost/internal/search"
	"github.com/bifrost-mcp/bifrost/internal/tools"
)

func (r *Router) runTerminalCommand(ctx context.Context, c *call, args *tools.TerminalArgs) (*Result, error) {
	cwd := ""
	folder, hasFolder := r.firstFolder()
	switch {
	case args.Cwd != "":
		base := folder
		if !hasFolder {
			base = "file:///"
		}
		cwd = host.FSPath(host.JoinURI(base, args.Cwd))
	case hasFolder:
		cwd = host.FSPath(folder)
	}

	if !r.confirm(ctx, fmt.Sprintf("Run terminal command %q?", args.Command), folder) {
		return Data(rejected("executed")), nil
	}
	timeout := time.Duration(args.TimeoutMs.Or(r.cfg.Terminal.TimeoutMs)) * time.Millisecond
	res := r.terminal.Run(ctx, args.Command, cwd, timeout)
	return Data(res), nil
}

func (r *Router) runHostCommand(ctx context.Context, c *call, args *tools.HostCommandArgs) (*Result, error) {
	if !r.confirm(ctx, fmt.Sprintf("Run VS Code command %q?", args.Command), "") {
		return Data(rejected("executed")), nil
	}
	res, err := r.host.Commands.Execute(ctx, args.Command, args.Args...)
	if err != nil {
		log.Warningf("%s: %s: %s", c.name, args.Command, err)
		return Data(obj{"executed": false, "error": err.Error()}), nil
	}
	return Data(obj{"executed": true, "result": res}), nil
}

func (r *Router) searchRegex(ctx context.Context, c *call, args *tools.SearchArgs) (*Result, error) {
	base, _ := r.firstFolder()
	if args.Folder != "" && base != "" {
		base = host.JoinURI(base, args.Folder)
	}
	matches, err := r.search.Search(ctx, args.Query, base, args.MaxResults.Or(r.cfg.Search.MaxResults))
	if errors.Is(err, search.ErrInvalidPattern) {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArguments, c.name, err)
	}
	if err != nil {
		return providerFailure(c.name, err), nil
	}
	return Data(matches), nil
}

// FileEntry is one listed workspace file.
type FileEntry struct {
	URI  string `json:"uri,omitempty"`
	Path string `json:"path"`
	Type string `json:"type,omitempty"`
}

func (r *Router) listFiles(ctx context.Context, c *call, args *tools.ListFilesArgs) (*Result, error) {
	folder, ok := r.firstFolder()
	if !ok {
		return Data([]FileEntry{}), nil
	}
	uris, err := r.host.Workspace.FindFiles(ctx, folder, "**/*", host.DefaultExcludeGlob, args.Limit.Or(r.cfg.Files.ListLimit))
	if err != nil {
		return providerFailure(c.name, err), nil
	}
	folders := r.host.Workspace.Folders()
	out := make([]FileEntry, 0, len(uris))
	for _, u := range uris {
		out = append(out, FileEntry{Path: host.RelativePath(folders, u), Type: "file"})
	}
	return Data(out), nil
}

func (r *Router) listFilesPaginated(ctx context.Context, c *call, args *tools.ListFilesPaginatedArgs) (*Result, error) {
	folder, ok := r.firstFolder()
	if !ok {
		return Data([]FileEntry{}), nil
	}
	page := args.Page.Or(1)
	size := args.PageSize.Or(r.cfg.Files.PageSize)
	include := args.Glob
	if include == "" {
		include = "**/*"
	}
	want := normalize.MaxCount
	if page <= want/size {
		want = page * size
	}
	uris, err := r.host.Workspace.FindFiles(ctx, folder, include, args.Exclude, want)
	if err != nil {
		return providerFailure(c.name, err), nil
	}
	start := len(uris)
	if page-1 < len(uris)/size+1 {
		start = min((page-1)*size, len(uris))
	}
	folders := r.host.Workspace.Folders()
	out := make([]FileEntry, 0, len(uris)-start)
	for _, u := range uris[start:] {
		out = append(out, FileEntry{URI: u, Path: host.RelativePath(folders, u)})
	}
	return Data(out), nil
}

// TreeEntry is a node of the workspace tree. Ignored entries exist on disk
// but are hidden by the default exclusions.
type TreeEntry struct {
	Name     string       `json:"name"`
	Path     string       `json:"path"`
	Ignored  bool         `json:"ignored"`
	Children []*TreeEntry `json:"children,omitempty"`
}

func (r *Router) workspaceTree(ctx context.Context, c *call, args *tools.TreeArgs) (*Result, error) {
	folder, ok := r.firstFolder()
	if !ok {
		return Data([]*TreeEntry{}), nil
	}
	limit := args.MaxEntries.Or(r.cfg.Files.TreeMaxEntries)
	ws := r.host.Workspace

	visible, err := ws.FindFiles(ctx, folder, "**/*", host.DefaultExcludeGlob, limit)
	if err != nil {
		return providerFailure(c.name, err), nil
	}
	all, err := ws.FindFiles(ctx, folder, "**/*", "", limit*2)
	if err != nil {
		log.Debugf("%s: unfiltered listing: %s", c.name, err)
		all = nil
	}

	folders := ws.Folders()
	shown := map[string]bool{}
	var paths []string
	for _, u := range visible {
		p := host.RelativePath(folders, u)
		if !shown[p] {
			shown[p] = true
			paths = append(paths, p)
		}
	}
	seen := map[string]bool{}
	for _, p := range paths {
		seen[p] = true
	}
	for _, u := range all {
		if len(paths) >= limit {
			break
		}
		p := host.RelativePath(folders, u)
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}
	if len(paths) > limit {
		paths = paths[:limit]
	}
	return Data(buildTree(paths, shown)), nil
}

// buildTree nests slash-separated paths in first-seen order. A directory is
// ignored when none of its files is shown.
func buildTree(paths []string, shown map[string]bool) []*TreeEntry {
	root := &TreeEntry{}
	index := map[string]*TreeEntry{}
	for _, p := range paths {
		parent := root
		parts := strings.Split(p, "/")
		for i, name := range parts {
			sub := strings.Join(parts[:i+1], "/")
			node, ok := index[sub]
			if !ok {
				node = &TreeEntry{Name: name, Path: sub, Ignored: true}
				index[sub] = node
				parent.Children = append(parent.Children, node)
			}
			if shown[p] {
				node.Ignored = false
			}
			parent = node
		}
	}
	if root.Children == nil {
		return []*TreeEntry{}
	}
	return root.Children
}
