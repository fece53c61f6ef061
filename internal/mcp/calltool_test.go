package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/bifrost-mcp/bifrost/internal/gate"
	"github.com/bifrost-mcp/bifrost/internal/host/hosttest"
	"github.com/bifrost-mcp/bifrost/internal/router"
	"github.com/bifrost-mcp/bifrost/internal/tools"
)

func newTestServer(t *testing.T, fake *hosttest.Fake, toolNames ...string) *Server {
	t.Helper()
	fake.Window.WarningAnswer = gate.ChoiceProceed
	r, err := router.New(fake.Host(), nil, router.Options{Getenv: func(string) string { return "" }})
	if err != nil {
		t.Fatalf("router.New: %v", err)
	}
	s, err := New(r, Config{Tools: toolNames})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("content = %+v", res.Content)
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content[0] = %T", res.Content[0])
	}
	return text.Text
}

func TestNewRegistersWholeCatalogByDefault(t *testing.T) {
	s := newTestServer(t, hosttest.New("/work"))
	if got, want := len(s.ListTools()), len(tools.Names()); got != want {
		t.Errorf("registered %d tools, want %d", got, want)
	}
}

func TestNewRejectsUnknownTool(t *testing.T) {
	fake := hosttest.New("/work")
	r, err := router.New(fake.Host(), nil, router.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New(r, Config{Tools: []string{"list_files", "no_such_tool"}}); err == nil {
		t.Error("expected error for tool outside the catalog")
	}
}

func TestCallToolMapsResults(t *testing.T) {
	fake := hosttest.New("/work")
	uri := fake.Workspace.AddFile("/work/main.go", "package main\n")
	s := newTestServer(t, fake)

	tests := []struct {
		name    string
		tool    tools.Name
		args    map[string]any
		isError bool
		want    string
	}{
		{
			name: "data result is JSON text",
			tool: tools.ListFiles,
			want: `"path":"main.go"`,
		},
		{
			name: "empty data stays a list",
			tool: tools.GetOpenFiles,
			want: "[]",
		},
		{
			name:    "status error",
			tool:    tools.GetHoverInfo,
			args:    map[string]any{"textDocument": map[string]any{"uri": "/work/missing.go"}, "position": map[string]any{"line": 0, "character": 0}},
			isError: true,
			want:    "Error: File not found - /work/missing.go",
		},
		{
			name:    "invalid arguments",
			tool:    tools.Rename,
			args:    map[string]any{"textDocument": map[string]any{"uri": uri}, "position": map[string]any{"line": 0, "character": 0}},
			isError: true,
			want:    "newName",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.CallTool(t.Context(), tt.tool, tt.args)
			if res.IsError != tt.isError {
				t.Errorf("IsError = %v, want %v", res.IsError, tt.isError)
			}
			if got := resultText(t, res); !strings.Contains(got, tt.want) {
				t.Errorf("text = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestCallToolUnregistered(t *testing.T) {
	s := newTestServer(t, hosttest.New("/work"), string(tools.ListFiles))

	res := s.CallTool(t.Context(), tools.SearchRegex, map[string]any{"query": "x"})
	if !res.IsError || !strings.Contains(resultText(t, res), "unknown tool") {
		t.Errorf("result = %+v", res)
	}
}

func TestGetToolSchemasFollowsCatalogOrder(t *testing.T) {
	s := newTestServer(t, hosttest.New("/work"), string(tools.Rename), string(tools.FindUsages))

	schemas, err := s.GetToolSchemas()
	if err != nil {
		t.Fatal(err)
	}
	if len(schemas) != 2 || schemas[0].Name != string(tools.FindUsages) || schemas[1].Name != string(tools.Rename) {
		t.Fatalf("schemas = %+v", schemas)
	}
	required, _ := schemas[1].InputSchema["required"].([]any)
	found := false
	for _, r := range required {
		if r == "newName" {
			found = true
		}
	}
	if !found {
		t.Errorf("rename required = %v, want newName", required)
	}
	if !schemas[1].Gated || schemas[0].Gated {
		t.Errorf("gated flags = %v, %v", schemas[0].Gated, schemas[1].Gated)
	}
}

func TestToolsListOverProtocol(t *testing.T) {
	s := newTestServer(t, hosttest.New("/work"), string(tools.ListFiles), string(tools.ReadRange))

	msg := s.mcpServer.HandleMessage(t.Context(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	var resp struct {
		Result struct {
			Tools []struct {
				Name        string         `json:"name"`
				InputSchema map[string]any `json:"inputSchema"`
			} `json:"tools"`
		} `json:"result"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	if len(resp.Result.Tools) != 2 {
		t.Fatalf("tools = %s", raw)
	}
	for _, tool := range resp.Result.Tools {
		if tool.InputSchema["type"] != "object" {
			t.Errorf("%s schema = %v", tool.Name, tool.InputSchema)
		}
	}
}

func TestResultText(t *testing.T) {
	res := &mcp.CallToolResult{Content: []mcp.Content{
		mcp.NewTextContent("one"),
		mcp.NewImageContent("aGk=", "image/png"),
		mcp.NewTextContent("two"),
	}}
	if got := ResultText(res); got != "one\ntwo" {
		t.Errorf("ResultText = %q", got)
	}
}

type panickingDispatcher struct{}

func (panickingDispatcher) Dispatch(context.Context, tools.Name, map[string]any) (*router.Result, error) {
	panic("slice bounds out of range")
}

func TestCallToolRecoversPanic(t *testing.T) {
	s, err := New(panickingDispatcher{}, Config{Tools: []string{"list_files"}})
	if err != nil {
		t.Fatal(err)
	}
	res := s.CallTool(context.Background(), tools.ListFiles, map[string]any{})
	if !res.IsError {
		t.Fatalf("expected error result, got %+v", res)
	}
	if got := resultText(t, res); !strings.Contains(got, "list_files: internal error") {
		t.Errorf("text = %q", got)
	}
}
