package router

import (
	"strings"
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/bifrost-mcp/bifrost/internal/host"
	"github.com/bifrost-mcp/bifrost/internal/host/hosttest"
	"github.com/bifrost-mcp/bifrost/internal/tools"
)

func caretAt(line, character uint32) host.Selection {
	p := protocol.Position{Line: line, Character: character}
	return host.Selection{Anchor: p, Active: p}
}

func TestCursorTagRoundTrip(t *testing.T) {
	fake := hosttest.New(workRoot)
	uri := fake.Workspace.AddFile("/work/main.go", sampleGo)
	fake.Window.Open(uri, caretAt(3, 1))
	r := newRouter(t, fake)

	ctxRes := decodeObj(t, dispatch(t, r, tools.GetCursorContext, map[string]any{"before": 1, "after": 1}))
	tag, _ := ctxRes["tag"].(string)
	if tag == "" {
		t.Fatalf("context = %v", ctxRes)
	}
	if !strings.Contains(ctxRes["content"].(string), tag) {
		t.Errorf("content does not carry the tag: %q", ctxRes["content"])
	}
	window := ctxRes["range"].(map[string]any)
	if window["startLine"] != float64(2) || window["endLine"] != float64(4) {
		t.Errorf("range = %v", window)
	}

	dispatch(t, r, tools.MoveCursor, map[string]any{"position": pos(0, 0)})
	m := decodeObj(t, dispatch(t, r, tools.MoveCursor, map[string]any{"tagMarker": tag}))
	if m["moved"] != true || m["via"] != "tag" {
		t.Fatalf("move = %v", m)
	}
	ed, _ := fake.Window.ActiveEditor()
	if got := ed.Selections[0].Active; got != (protocol.Position{Line: 3, Character: 1}) {
		t.Errorf("caret = %+v", got)
	}

	cur := decodeObj(t, dispatch(t, r, tools.GetCursorPosition, nil))
	p := cur["position"].(map[string]any)
	if cur["uri"] != uri || p["line"] != float64(3) || p["character"] != float64(1) {
		t.Errorf("cursor = %v", cur)
	}
}

func TestCursorTagPastEndOfFile(t *testing.T) {
	fake := hosttest.New(workRoot)
	uri := fake.Workspace.AddFile("/work/main.go", sampleGo)
	r := newRouter(t, fake)

	ctxRes := decodeObj(t, dispatch(t, r, tools.GetCursorContext, map[string]any{
		"textDocument": doc(uri), "position": pos(99, 50), "before": 1, "after": 1,
	}))
	tag := ctxRes["tag"].(string)
	p := ctxRes["position"].(map[string]any)
	if p["line"] != float64(9) || p["character"] != float64(0) {
		t.Errorf("position = %v, want clamped to 9:0", p)
	}
	if !strings.HasSuffix(ctxRes["content"].(string), "}\n"+tag) {
		t.Errorf("content = %q", ctxRes["content"])
	}

	m := decodeObj(t, dispatch(t, r, tools.MoveCursor, map[string]any{"tagMarker": tag}))
	if m["moved"] != true || m["via"] != "tag" {
		t.Fatalf("move = %v", m)
	}
	ed, _ := fake.Window.ActiveEditor()
	if got := ed.Selections[0].Active; got != (protocol.Position{Line: 9, Character: 0}) {
		t.Errorf("caret = %+v", got)
	}
}

func TestMoveCursorBySearch(t *testing.T) {
	fake := hosttest.New(workRoot)
	uri := fake.Workspace.AddFile("/work/main.go", sampleGo)
	r := newRouter(t, fake)

	m := decodeObj(t, dispatch(t, r, tools.MoveCursor, map[string]any{"uri": uri, "searchString": "greet", "occurrence": 2}))
	if m["moved"] != true || m["via"] != "search" {
		t.Fatalf("move = %v", m)
	}
	p := m["position"].(map[string]any)
	if p["line"] != float64(7) || p["character"] != float64(1) {
		t.Errorf("position = %v", p)
	}

	m = decodeObj(t, dispatch(t, r, tools.MoveCursor, map[string]any{"uri": uri, "searchString": "absent"}))
	if m["moved"] != false || m["reason"] != "Position not found" || m["via"] != "search" {
		t.Errorf("missing = %v", m)
	}
}

func TestMoveCursorWithoutDocument(t *testing.T) {
	r := newRouter(t, hosttest.New(workRoot))
	m := decodeObj(t, dispatch(t, r, tools.MoveCursor, map[string]any{"tag": "stale"}))
	if m["moved"] != false || m["reason"] != "No document available" {
		t.Errorf("result = %v", m)
	}
}

func TestCursorContextWithoutEditor(t *testing.T) {
	r := newRouter(t, hosttest.New(workRoot))
	m := decodeObj(t, dispatch(t, r, tools.GetCursorContext, nil))
	if m["error"] != "No document or cursor available" {
		t.Errorf("result = %v", m)
	}
}

func TestOpenSaveClose(t *testing.T) {
	fake := hosttest.New(workRoot)
	uri := fake.Workspace.AddFile("/work/a.txt", "one\n")
	r := newRouter(t, fake)

	m := decodeObj(t, dispatch(t, r, tools.SaveFile, map[string]any{"textDocument": doc(uri)}))
	if m["saved"] != false || m["notOpen"] != true {
		t.Errorf("save unopened = %v", m)
	}

	m = decodeObj(t, dispatch(t, r, tools.OpenFile, map[string]any{"textDocument": doc(uri)}))
	if m["opened"] != true || m["isActive"] != true {
		t.Errorf("open = %v", m)
	}

	fake.Workspace.OpenBuffer(uri, "two\n", true)
	m = decodeObj(t, dispatch(t, r, tools.SaveFile, map[string]any{"textDocument": doc(uri)}))
	if m["saved"] != true || m["wasDirty"] != true {
		t.Errorf("save dirty = %v", m)
	}
	if disk, _ := fake.Workspace.Disk("/work/a.txt"); disk != "two\n" {
		t.Errorf("disk = %q", disk)
	}

	m = decodeObj(t, dispatch(t, r, tools.CloseFile, map[string]any{"textDocument": doc(uri)}))
	if m["closed"] != true {
		t.Errorf("close = %v", m)
	}
	m = decodeObj(t, dispatch(t, r, tools.CloseFile, map[string]any{"textDocument": doc(uri)}))
	if m["closed"] != false || m["notOpen"] != true {
		t.Errorf("close again = %v", m)
	}
}

func TestOpenEditorsMergesTabs(t *testing.T) {
	fake := hosttest.New(workRoot)
	a := fake.Workspace.AddFile("/work/a.go", "package a\n\nvar x = 1\n")
	b := fake.Workspace.AddFile("/work/b.go", "package b\n")
	fake.Window.AddTab(host.Tab{URI: b, ViewColumn: 2})
	fake.Window.Open(a, host.Selection{
		Anchor: protocol.Position{Line: 2, Character: 9},
		Active: protocol.Position{Line: 2, Character: 4},
	})
	r := newRouter(t, fake)

	open := dispatch(t, r, tools.GetOpenFiles, nil).Data.([]OpenEditor)
	if len(open) != 2 || open[0].URI != a || !open[0].IsActive || open[1].URI != b || open[1].IsActive {
		t.Fatalf("open = %+v", open)
	}
	if open[0].Selections[0].Text != nil {
		t.Error("get_open_files must not include text")
	}

	selected := dispatch(t, r, tools.GetSelectedCode, nil).Data.([]OpenEditor)
	sel := selected[0].Selections[0]
	if sel.Start.Character != 4 || sel.End.Character != 9 {
		t.Errorf("selection not ordered: %+v", sel)
	}
	if sel.Text == nil || *sel.Text != "x = 1" || *sel.IsEmpty {
		t.Errorf("selection = %+v", sel)
	}
}

func TestReadRange(t *testing.T) {
	fake := hosttest.New(workRoot)
	uri := fake.Workspace.AddFile("/work/main.go", sampleGo)
	r := newRouter(t, fake)

	m := decodeObj(t, dispatch(t, r, tools.ReadRange, map[string]any{
		"textDocument": doc(uri),
		"range":        map[string]any{"start": pos(2, 5), "end": pos(2, 10)},
	}))
	if m["content"] != "greet" || m["languageId"] != "go" {
		t.Errorf("result = %v", m)
	}
}

func TestPromptUserChoice(t *testing.T) {
	fake := hosttest.New(workRoot)
	r := newRouter(t, fake)

	m := decodeObj(t, dispatch(t, r, tools.PromptUserChoice, map[string]any{"message": "Pick", "choices": []string{"a", "b"}}))
	if v, ok := m["selection"]; !ok || v != nil {
		t.Errorf("dismissed = %v", m)
	}
	fake.Window.InfoAnswer = "b"
	m = decodeObj(t, dispatch(t, r, tools.PromptUserChoice, map[string]any{"message": "Pick", "choices": []string{"a", "b"}}))
	if m["selection"] != "b" {
		t.Errorf("answered = %v", m)
	}
}
