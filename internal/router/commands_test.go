package router

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"testing"

	"github.com/bifrost-mcp/bifrost/internal/gate"
	"github.com/bifrost-mcp/bifrost/internal/host"
	"github.com/bifrost-mcp/bifrost/internal/host/hosttest"
	"github.com/bifrost-mcp/bifrost/internal/search"
	"github.com/bifrost-mcp/bifrost/internal/terminal"
	"github.com/bifrost-mcp/bifrost/internal/tools"
)

func TestRunTerminalCommandShellIntegration(t *testing.T) {
	fake := hosttest.New(workRoot)
	fake.Shell = &hosttest.Shell{Output: "literal-marker\n"}
	r := newRouter(t, fake)

	res := dispatch(t, r, tools.RunTerminalCommand, map[string]any{"command": "echo literal-marker"})
	out, ok := res.Data.(terminal.Result)
	if !ok {
		t.Fatalf("Data = %T", res.Data)
	}
	if out.Output != "literal-marker" || out.Method != terminal.MethodShellIntegration {
		t.Errorf("result = %+v", out)
	}
	if got := fake.Window.Warnings[0].Message; got != `Run terminal command "echo literal-marker"?` {
		t.Errorf("prompt = %q", got)
	}
}

func TestRunTerminalCommandProcess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	dir := t.TempDir()
	fake := hosttest.New(dir)
	r := newRouter(t, fake)

	res := dispatch(t, r, tools.RunTerminalCommand, map[string]any{"command": "echo literal-marker; pwd"})
	out := res.Data.(terminal.Result)
	if out.Method != terminal.MethodProcess || out.ExitCode == nil || *out.ExitCode != 0 {
		t.Fatalf("result = %+v", out)
	}
	if !strings.HasPrefix(out.Output, "literal-marker") {
		t.Errorf("Output = %q", out.Output)
	}
}

func TestRunTerminalCommandCancelled(t *testing.T) {
	fake := hosttest.New(workRoot)
	fake.Shell = &hosttest.Shell{Output: "ran"}
	fake.Window.WarningAnswer = gate.ChoiceCancel
	r := newRouter(t, fake)

	m := decodeObj(t, dispatch(t, r, tools.RunTerminalCommand, map[string]any{"command": "rm -rf build"}))
	if m["executed"] != false || m["userRejected"] != true {
		t.Errorf("result = %v", m)
	}
	if len(fake.Shell.Commands) != 0 {
		t.Errorf("shell ran %v", fake.Shell.Commands)
	}
}

func TestRunHostCommand(t *testing.T) {
	fake := hosttest.New(workRoot)
	fake.Commands.Results = map[string]any{"workbench.action.files.saveAll": true}
	fake.Commands.Errors = map[string]error{"bogus.command": errors.New("command 'bogus.command' not found")}
	r := newRouter(t, fake)

	m := decodeObj(t, dispatch(t, r, tools.RunHostCommand, map[string]any{"command": "workbench.action.files.saveAll"}))
	if m["executed"] != true || m["result"] != true {
		t.Errorf("saveAll = %v", m)
	}
	m = decodeObj(t, dispatch(t, r, tools.RunHostCommand, map[string]any{"command": "bogus.command"}))
	if m["executed"] != false || m["error"] == nil {
		t.Errorf("bogus = %v", m)
	}
}

func TestSearchRegex(t *testing.T) {
	fake := hosttest.New(workRoot)
	fake.Workspace.AddFile("/work/a.go", "package a\n\nfunc Alpha() {}\n")
	fake.Workspace.AddFile("/work/b.go", "package a\n\nfunc beta() {}\n")
	r := newRouter(t, fake)

	res := dispatch(t, r, tools.SearchRegex, map[string]any{"query": `func [A-Z]\w*`})
	matches, ok := res.Data.([]search.Match)
	if !ok || len(matches) != 1 || matches[0].Line != 2 {
		t.Fatalf("matches = %+v", res.Data)
	}

	_, err := r.Dispatch(t.Context(), tools.SearchRegex, map[string]any{"query": "("})
	if !errors.Is(err, ErrInvalidArguments) {
		t.Errorf("invalid pattern error = %v", err)
	}
}

func TestListFilesPaginatedConcatenates(t *testing.T) {
	fake := hosttest.New(workRoot)
	for i := range 7 {
		fake.Workspace.AddFile(fmt.Sprintf("/work/f%d.txt", i), "")
	}
	r := newRouter(t, fake)

	full := dispatch(t, r, tools.ListFilesPaginated, map[string]any{"pageSize": 100}).Data.([]FileEntry)
	if len(full) != 7 {
		t.Fatalf("full = %+v", full)
	}
	var joined []FileEntry
	for page := 1; page <= 4; page++ {
		got := dispatch(t, r, tools.ListFilesPaginated, map[string]any{"page": page, "pageSize": "3"}).Data.([]FileEntry)
		if page == 4 && len(got) != 0 {
			t.Errorf("page past the end = %+v", got)
		}
		joined = append(joined, got...)
	}
	if len(joined) != len(full) {
		t.Fatalf("joined = %d entries, want %d", len(joined), len(full))
	}
	for i := range full {
		if joined[i] != full[i] {
			t.Errorf("entry %d = %+v, want %+v", i, joined[i], full[i])
		}
	}
	if full[0].Path != "f0.txt" || full[0].URI != host.PathToURI("/work/f0.txt") {
		t.Errorf("first = %+v", full[0])
	}
}

func TestListFilesSkipsExcluded(t *testing.T) {
	fake := hosttest.New(workRoot)
	fake.Workspace.AddFile("/work/main.go", "")
	fake.Workspace.AddFile("/work/node_modules/x/index.js", "")
	r := newRouter(t, fake)

	files := dispatch(t, r, tools.ListFiles, nil).Data.([]FileEntry)
	if len(files) != 1 || files[0].Path != "main.go" || files[0].Type != "file" {
		t.Errorf("files = %+v", files)
	}
}

func TestWorkspaceTreeMarksIgnored(t *testing.T) {
	fake := hosttest.New(workRoot)
	fake.Workspace.AddFile("/work/src/a.go", "")
	fake.Workspace.AddFile("/work/node_modules/x/index.js", "")
	r := newRouter(t, fake)

	tree := dispatch(t, r, tools.GetWorkspaceTree, nil).Data.([]*TreeEntry)
	byName := map[string]*TreeEntry{}
	for _, e := range tree {
		byName[e.Name] = e
	}
	if src := byName["src"]; src == nil || src.Ignored || len(src.Children) != 1 || src.Children[0].Path != "src/a.go" {
		t.Errorf("src = %+v", src)
	}
	if nm := byName["node_modules"]; nm == nil || !nm.Ignored {
		t.Errorf("node_modules = %+v", nm)
	}
}
