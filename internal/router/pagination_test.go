package router

import (
	"fmt"
	"slices"
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/bifrost-mcp/bifrost/internal/host"
	"github.com/bifrost-mcp/bifrost/internal/host/hosttest"
	"github.com/bifrost-mcp/bifrost/internal/normalize"
	"github.com/bifrost-mcp/bifrost/internal/tools"
)

func paginationFake(t *testing.T, symbols, diagsPerFile int) (*hosttest.Fake, string) {
	t.Helper()
	fake := hosttest.New(workRoot)
	uri := fake.Workspace.AddFile("/work/main.go", sampleGo)
	other := fake.Workspace.AddFile("/work/util.go", "package main\n")

	syms := make([]protocol.SymbolInformation, 0, symbols)
	for i := range symbols {
		syms = append(syms, protocol.SymbolInformation{
			Name:     fmt.Sprintf("sym%02d", i),
			Kind:     protocol.SymbolKindFunction,
			Location: protocol.Location{URI: protocol.DocumentUri(uri), Range: rng(uint32(i), 0, uint32(i), 4)},
		})
	}
	fake.Language.WorkspaceSymbolsFunc = func(string) ([]protocol.SymbolInformation, error) { return syms, nil }

	severity := protocol.DiagnosticSeverityWarning
	for _, u := range []string{uri, other} {
		f := host.FileDiagnostics{URI: u}
		for i := range diagsPerFile {
			f.Diagnostics = append(f.Diagnostics, protocol.Diagnostic{
				Range:    rng(uint32(i), 0, uint32(i), 1),
				Severity: &severity,
				Message:  fmt.Sprintf("%s #%d", u, i),
			})
		}
		fake.Diagnostics.Files = append(fake.Diagnostics.Files, f)
	}
	return fake, uri
}

func names(items []any, key string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.(map[string]any)[key].(string))
	}
	return out
}

func fileMessages(files []any) []string {
	var out []string
	for _, f := range files {
		out = append(out, names(f.(map[string]any)["diagnostics"].([]any), "message")...)
	}
	return out
}

// collect concatenates pages 1..totalPages and returns the joined values,
// the reported total and the page count.
func collect(t *testing.T, r *Router, name tools.Name, args map[string]any, limit int, extract func(map[string]any) []string, totalKey string) ([]string, int, int) {
	t.Helper()
	var joined []string
	total, pages := -1, 1
	for page := 1; page <= pages; page++ {
		a := map[string]any{"limit": limit, "page": page}
		for k, v := range args {
			a[k] = v
		}
		m := decodeObj(t, dispatch(t, r, name, a))
		pages = int(m["totalPages"].(float64))
		if got := int(m["page"].(float64)); got != page {
			t.Errorf("page = %d, want %d", got, page)
		}
		if n := int(m[totalKey].(float64)); total >= 0 && n != total {
			t.Errorf("%s changed between pages: %d then %d", totalKey, total, n)
		} else {
			total = n
		}
		joined = append(joined, extract(m)...)
	}
	return joined, total, pages
}

func TestPagesConcatenateToUnpagedSet(t *testing.T) {
	fake, uri := paginationFake(t, 11, 5)
	r := newRouter(t, fake)

	symbols := func(m map[string]any) []string { return names(m["items"].([]any), "name") }
	workspace := func(m map[string]any) []string { return fileMessages(m["files"].([]any)) }
	file := func(m map[string]any) []string { return names(m["diagnostics"].([]any), "message") }

	tests := []struct {
		name     string
		tool     tools.Name
		args     map[string]any
		extract  func(map[string]any) []string
		totalKey string
	}{
		{"workspace symbols", tools.GetWorkspaceSymbols, map[string]any{"query": ""}, symbols, "totalSymbols"},
		{"workspace diagnostics", tools.GetWorkspaceDiags, nil, workspace, "totalDiagnostics"},
		{"file diagnostics", tools.GetFileDiagnostics, map[string]any{"textDocument": doc(uri)}, file, "totalDiagnostics"},
	}
	for _, tt := range tests {
		for _, limit := range []int{1, 3, 4, 100} {
			t.Run(fmt.Sprintf("%s/limit=%d", tt.name, limit), func(t *testing.T) {
				args := map[string]any{}
				for k, v := range tt.args {
					args[k] = v
				}
				full := tt.extract(decodeObj(t, dispatch(t, r, tt.tool, args)))

				joined, total, pages := collect(t, r, tt.tool, tt.args, limit, tt.extract, tt.totalKey)
				if total != len(full) {
					t.Errorf("total = %d, want %d", total, len(full))
				}
				if want := (len(full) + limit - 1) / limit; pages != want {
					t.Errorf("totalPages = %d, want %d", pages, want)
				}
				if !slices.Equal(joined, full) {
					t.Errorf("joined pages = %v\nwant %v", joined, full)
				}
			})
		}
	}
}

func TestWorkspaceDiagnosticsPageRegroupsByFile(t *testing.T) {
	fake, uri := paginationFake(t, 0, 3)
	r := newRouter(t, fake)

	// The second page of size 2 holds the last diagnostic of main.go and the
	// first of util.go.
	m := decodeObj(t, dispatch(t, r, tools.GetWorkspaceDiags, map[string]any{"limit": 2, "page": 2}))
	files := m["files"].([]any)
	if len(files) != 2 {
		t.Fatalf("files = %+v", files)
	}
	first := files[0].(map[string]any)
	if first["uri"] != uri || first["hasIssues"] != true || len(first["diagnostics"].([]any)) != 1 {
		t.Errorf("first file = %+v", first)
	}
	if d := first["diagnostics"].([]any)[0].(map[string]any); d["severity"] != "Warning" {
		t.Errorf("severity = %v", d["severity"])
	}
}

func TestHugePaginationArguments(t *testing.T) {
	fake, uri := paginationFake(t, 3, 3)
	for i := range 3 {
		fake.Workspace.AddFile(fmt.Sprintf("/work/f%d.txt", i), "")
	}
	r := newRouter(t, fake)

	tests := []struct {
		name      string
		tool      tools.Name
		args      map[string]any
		listKey   string
		wantItems int
	}{
		{"file diagnostics huge limit", tools.GetFileDiagnostics, map[string]any{"textDocument": doc(uri), "limit": 1e19}, "diagnostics", 3},
		{"file diagnostics huge page", tools.GetFileDiagnostics, map[string]any{"textDocument": doc(uri), "limit": 1000, "page": 1e16 + 1}, "diagnostics", 0},
		{"workspace symbols huge both", tools.GetWorkspaceSymbols, map[string]any{"query": "", "limit": 1e19, "page": 1e19}, "items", 0},
		{"workspace diagnostics huge limit", tools.GetWorkspaceDiags, map[string]any{"limit": 1e19}, "files", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := decodeObj(t, dispatch(t, r, tt.tool, tt.args))
			if got := len(m[tt.listKey].([]any)); got != tt.wantItems {
				t.Errorf("%s has %d entries, want %d: %+v", tt.listKey, got, tt.wantItems, m)
			}
			if m["totalPages"].(float64) != 1 {
				t.Errorf("totalPages = %v, want 1", m["totalPages"])
			}
		})
	}

	for _, args := range []map[string]any{
		{"page": 1e19, "pageSize": 1e19},
		{"page": 1e16 + 1, "pageSize": 1000},
		{"page": 1, "pageSize": 1e19},
	} {
		got := dispatch(t, r, tools.ListFilesPaginated, args).Data.([]FileEntry)
		if args["page"] == 1 && len(got) != 5 {
			t.Errorf("list_files_paginated(%v) = %d files, want 5", args, len(got))
		}
		if args["page"] != 1 && len(got) != 0 {
			t.Errorf("list_files_paginated(%v) = %+v, want none", args, got)
		}
	}
}

func TestTypeHierarchy(t *testing.T) {
	fake := hosttest.New(workRoot)
	uri := fake.Workspace.AddFile("/work/main.go", sampleGo)
	item := host.TypeHierarchyItem{Name: "Animal", Kind: protocol.SymbolKindInterface, URI: uri, Range: rng(2, 0, 4, 1), SelectionRange: rng(2, 5, 2, 11)}
	fake.Language.PrepareTypeFunc = func(string, protocol.Position) ([]host.TypeHierarchyItem, error) {
		return []host.TypeHierarchyItem{item}, nil
	}
	fake.Language.SubtypesFunc = func(host.TypeHierarchyItem) ([]host.TypeHierarchyItem, error) {
		return []host.TypeHierarchyItem{
			{Name: "Dog", Kind: protocol.SymbolKindStruct, URI: uri, Range: rng(6, 0, 8, 1)},
			{Name: "Cat", Kind: protocol.SymbolKindStruct, URI: uri, Range: rng(9, 0, 9, 10)},
		}, nil
	}
	r := newRouter(t, fake)

	res := dispatch(t, r, tools.GetTypeHierarchy, map[string]any{"textDocument": doc(uri), "position": pos(2, 6)})
	h, ok := res.Data.(normalize.TypeHierarchy)
	if !ok {
		t.Fatalf("Data = %T (%+v)", res.Data, res.Data)
	}
	if h.Item.Name != "Animal" || h.Item.Kind != "Interface" {
		t.Errorf("item = %+v", h.Item)
	}
	if len(h.Subtypes) != 2 || h.Subtypes[0].Name != "Dog" || h.Subtypes[1].Kind != "Struct" {
		t.Errorf("subtypes = %+v", h.Subtypes)
	}
	if h.Supertypes == nil || len(h.Supertypes) != 0 {
		t.Errorf("supertypes = %+v, want empty", h.Supertypes)
	}

	fake.Language.PrepareTypeFunc = func(string, protocol.Position) ([]host.TypeHierarchyItem, error) { return nil, nil }
	if res := dispatch(t, r, tools.GetTypeHierarchy, map[string]any{"textDocument": doc(uri), "position": pos(0, 0)}); res.Data != nil {
		t.Errorf("no item Data = %+v, want nil", res.Data)
	}
}
