package router

import (
	"errors"
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/bifrost-mcp/bifrost/internal/gate"
	"github.com/bifrost-mcp/bifrost/internal/host"
	"github.com/bifrost-mcp/bifrost/internal/host/hosttest"
	"github.com/bifrost-mcp/bifrost/internal/normalize"
	"github.com/bifrost-mcp/bifrost/internal/tools"
)

func rng(sl, sc, el, ec uint32) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: sl, Character: sc},
		End:   protocol.Position{Line: el, Character: ec},
	}
}

const sampleGo = "package main\n\nfunc greet() string {\n\treturn \"hi\"\n}\n\nfunc main() {\n\tgreet()\n}\n"

func TestDefinitionShapes(t *testing.T) {
	results := map[string]any{
		"nil":      nil,
		"location": protocol.Location{URI: "file:///work/main.go", Range: rng(2, 5, 2, 10)},
		"locations": []protocol.Location{
			{URI: "file:///work/main.go", Range: rng(2, 5, 2, 10)},
			{URI: "file:///work/other.go", Range: rng(0, 0, 0, 3)},
		},
		"links": []protocol.LocationLink{
			{TargetURI: "file:///work/main.go", TargetRange: rng(2, 0, 4, 1), TargetSelectionRange: rng(2, 5, 2, 10)},
		},
	}
	wantLen := map[string]int{"nil": 0, "location": 1, "locations": 2, "links": 1}

	for name, result := range results {
		t.Run(name, func(t *testing.T) {
			fake := hosttest.New(workRoot)
			uri := fake.Workspace.AddFile("/work/main.go", sampleGo)
			fake.Language.DefinitionFunc = func(string, protocol.Position) (any, error) { return result, nil }
			r := newRouter(t, fake)

			res := dispatch(t, r, tools.GoToDefinition, map[string]any{"textDocument": doc(uri), "position": pos(7, 2)})
			locs, ok := res.Data.([]normalize.Location)
			if !ok {
				t.Fatalf("Data = %T", res.Data)
			}
			if len(locs) != wantLen[name] {
				t.Fatalf("locations = %d, want %d", len(locs), wantLen[name])
			}
			for _, l := range locs {
				if !l.Range.Valid() {
					t.Errorf("invalid range %+v", l.Range)
				}
				if l.URI == uri && l.Preview != "func greet() string {" {
					t.Errorf("Preview = %q", l.Preview)
				}
			}
			if name == "nil" {
				if got := decode(t, res); got == nil {
					t.Error("empty result must render as [] not null")
				}
			}
		})
	}
}

func TestFindUsagesIncludesDeclarationByDefault(t *testing.T) {
	fake := hosttest.New(workRoot)
	uri := fake.Workspace.AddFile("/work/main.go", sampleGo)
	var got []bool
	fake.Language.ReferencesFunc = func(_ string, _ protocol.Position, incl bool) ([]protocol.Location, error) {
		got = append(got, incl)
		return nil, nil
	}
	r := newRouter(t, fake)

	dispatch(t, r, tools.FindUsages, map[string]any{"textDocument": doc(uri), "position": pos(2, 6)})
	dispatch(t, r, tools.FindUsages, map[string]any{
		"textDocument": doc(uri),
		"position":     pos(2, 6),
		"context":      map[string]any{"includeDeclaration": false},
	})
	if len(got) != 2 || !got[0] || got[1] {
		t.Errorf("includeDeclaration = %v, want [true false]", got)
	}
}

func TestProviderFailureIsData(t *testing.T) {
	fake := hosttest.New(workRoot)
	uri := fake.Workspace.AddFile("/work/main.go", sampleGo)
	fake.Language.HoverFunc = func(string, protocol.Position) ([]protocol.Hover, error) {
		return nil, errors.New("server crashed")
	}
	r := newRouter(t, fake)

	res := dispatch(t, r, tools.GetHoverInfo, map[string]any{"textDocument": doc(uri), "position": pos(0, 0)})
	if res.IsError {
		t.Fatal("provider failure must not be a status error")
	}
	if m := decodeObj(t, res); m["error"] != "server crashed" {
		t.Errorf("result = %v", m)
	}
}

func TestRename(t *testing.T) {
	edit := &protocol.WorkspaceEdit{Changes: map[protocol.DocumentUri][]protocol.TextEdit{
		"file:///work/main.go": {
			{Range: rng(2, 5, 2, 10), NewText: "hello"},
			{Range: rng(7, 1, 7, 6), NewText: "hello"},
		},
	}}
	tests := []struct {
		name     string
		answer   string
		edit     *protocol.WorkspaceEdit
		reject   bool
		wantText string
		renamed  bool
	}{
		{"success", gate.ChoiceProceed, edit, false, "Symbol renamed successfully", true},
		{"cancelled", gate.ChoiceCancel, edit, false, "Symbol renaming cancelled by user", false},
		{"not found", gate.ChoiceProceed, nil, false, "Symbol to rename not found", false},
		{"apply refused", gate.ChoiceProceed, edit, true, "Symbol renaming failed", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := hosttest.New(workRoot)
			uri := fake.Workspace.AddFile("/work/main.go", sampleGo)
			fake.Window.WarningAnswer = tt.answer
			fake.Workspace.RejectEdits = tt.reject
			fake.Language.RenameFunc = func(string, protocol.Position, string) (*protocol.WorkspaceEdit, error) {
				return tt.edit, nil
			}
			r := newRouter(t, fake)

			res := dispatch(t, r, tools.Rename, map[string]any{
				"textDocument": doc(uri), "position": pos(2, 6), "newName": "hello",
			})
			if res.Kind != tools.KindStatus || res.Text != tt.wantText {
				t.Fatalf("result = %+v, want status %q", res, tt.wantText)
			}
			buf, _ := fake.Workspace.Buffer(uri)
			renamed := buf != nil && buf.LineAt(2) == "func hello() string {"
			if renamed != tt.renamed {
				t.Errorf("renamed = %v, want %v", renamed, tt.renamed)
			}
			if len(fake.Window.Warnings) != 1 || fake.Window.Warnings[0].Message != `Rename symbol to "hello"?` {
				t.Errorf("prompts = %+v", fake.Window.Warnings)
			}
		})
	}
}

func TestSemanticTokensFallsBackToSymbols(t *testing.T) {
	fake := hosttest.New(workRoot)
	uri := fake.Workspace.AddFile("/work/main.go", sampleGo)
	fake.Language.DocumentSymbolsFunc = func(string) ([]protocol.DocumentSymbol, error) {
		return []protocol.DocumentSymbol{
			{Name: "greet", Kind: protocol.SymbolKindFunction, Range: rng(2, 0, 4, 1), SelectionRange: rng(2, 5, 2, 10)},
		}, nil
	}
	r := newRouter(t, fake)

	res := dispatch(t, r, tools.GetSemanticTokens, map[string]any{"textDocument": doc(uri)})
	toks, ok := res.Data.(normalize.SymbolTokens)
	if !ok {
		t.Fatalf("Data = %T", res.Data)
	}
	if !toks.Fallback || len(toks.Symbols) != 1 || toks.Symbols[0].Name != "greet" {
		t.Errorf("tokens = %+v", toks)
	}

	fake.Language.DocumentSymbolsFunc = nil
	res = dispatch(t, r, tools.GetSemanticTokens, map[string]any{"textDocument": doc(uri)})
	if !res.IsError || res.Text != "Semantic tokens provider not available and fallback failed" {
		t.Errorf("result = %+v", res)
	}
}

func TestSemanticTokensEmpty(t *testing.T) {
	fake := hosttest.New(workRoot)
	uri := fake.Workspace.AddFile("/work/main.go", sampleGo)
	fake.Language.SemanticTokensFunc = func(string) (*host.SemanticTokens, error) {
		return &host.SemanticTokens{}, nil
	}
	r := newRouter(t, fake)

	res := dispatch(t, r, tools.GetSemanticTokens, map[string]any{"textDocument": doc(uri)})
	if res.IsError || res.Text != "No semantic tokens found in document" {
		t.Errorf("result = %+v", res)
	}
}

func TestCallHierarchyToleratesMissingDirection(t *testing.T) {
	fake := hosttest.New(workRoot)
	uri := fake.Workspace.AddFile("/work/main.go", sampleGo)
	item := protocol.CallHierarchyItem{Name: "greet", Kind: protocol.SymbolKindFunction, URI: protocol.DocumentUri(uri), Range: rng(2, 0, 4, 1), SelectionRange: rng(2, 5, 2, 10)}
	fake.Language.PrepareCallFunc = func(string, protocol.Position) ([]protocol.CallHierarchyItem, error) {
		return []protocol.CallHierarchyItem{item}, nil
	}
	fake.Language.IncomingCallsFunc = func(protocol.CallHierarchyItem) ([]protocol.CallHierarchyIncomingCall, error) {
		caller := protocol.CallHierarchyItem{Name: "main", URI: protocol.DocumentUri(uri), Range: rng(6, 0, 8, 1), SelectionRange: rng(6, 5, 6, 9)}
		return []protocol.CallHierarchyIncomingCall{{From: caller, FromRanges: []protocol.Range{rng(7, 1, 7, 6)}}}, nil
	}
	r := newRouter(t, fake)

	res := dispatch(t, r, tools.GetCallHierarchy, map[string]any{"textDocument": doc(uri), "position": pos(2, 6)})
	h, ok := res.Data.(normalize.CallHierarchy)
	if !ok {
		t.Fatalf("Data = %T (%+v)", res.Data, res.Data)
	}
	if len(h.IncomingCalls) != 1 || h.IncomingCalls[0].From.Name != "main" {
		t.Errorf("incoming = %+v", h.IncomingCalls)
	}
	if h.OutgoingCalls == nil || len(h.OutgoingCalls) != 0 {
		t.Errorf("outgoing = %+v, want empty", h.OutgoingCalls)
	}
}

func TestCodeLensEmptyIsStatus(t *testing.T) {
	fake := hosttest.New(workRoot)
	uri := fake.Workspace.AddFile("/work/main.go", sampleGo)
	fake.Language.CodeLensFunc = func(string) ([]protocol.CodeLens, error) { return nil, nil }
	r := newRouter(t, fake)

	res := dispatch(t, r, tools.GetCodeLens, map[string]any{"textDocument": doc(uri)})
	if res.Kind != tools.KindStatus || res.IsError || res.Text != "No CodeLens items found in document" {
		t.Errorf("result = %+v", res)
	}
}
