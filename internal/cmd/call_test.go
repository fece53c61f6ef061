package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bifrost-mcp/bifrost/internal/config"
	"github.com/bifrost-mcp/bifrost/internal/tools"
)

// resetFlags restores every flag of c and its subcommands to its default so
// one test's flags do not leak into the next.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the CLI in dir and returns stdout.
func execute(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	t.Chdir(dir)
	t.Setenv("BIFROST_AUTO_APPROVE", "")
	resetFlags(rootCmd)
	cfg = nil

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCallCmdRequiresToolOrFlag(t *testing.T) {
	_, err := execute(t, t.TempDir(), "call")
	if err == nil || !strings.Contains(err.Error(), "tool name required") {
		t.Errorf("error = %v", err)
	}
}

func TestCallList(t *testing.T) {
	out, err := execute(t, t.TempDir(), "call", "--list", "--format", "json")
	if err != nil {
		t.Fatal(err)
	}
	var schemas []struct {
		Name        string         `json:"name"`
		InputSchema map[string]any `json:"inputSchema"`
	}
	if err := json.Unmarshal([]byte(out), &schemas); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(schemas) != len(tools.Catalog()) {
		t.Errorf("got %d schemas, want %d", len(schemas), len(tools.Catalog()))
	}
	if schemas[0].InputSchema["type"] != "object" {
		t.Errorf("first schema = %+v", schemas[0])
	}
}

func TestCallSingle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.go")
	writeFile(t, path, "package main\n\nfunc Hello() {}\n")

	args, _ := json.Marshal(map[string]any{"textDocument": map[string]any{"uri": path}})
	out, err := execute(t, dir, "call", "get_document_symbols", string(args))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"Hello"`) {
		t.Errorf("output = %s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, config.ConfigDirName, "state.db")); err != nil {
		t.Errorf("state db not created: %v", err)
	}
}

func TestCallErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown tool", []string{"call", "no_such_tool", "{}"}, "unknown tool"},
		{"bad json", []string{"call", "list_files", "{"}, "invalid JSON args"},
		{"invalid arguments", []string{"call", "rename", "{}"}, "newName"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, t.TempDir(), tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestCallPipe(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "a")
	t.Chdir(dir)
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader(strings.Join([]string{
		`{"tool":"get_open_files"}`,
		``,
		`not json`,
		`{"tool":"nope","args":{}}`,
	}, "\n")))
	rootCmd.SetArgs([]string{"call", "--pipe"})
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d responses:\n%s", len(lines), out.String())
	}
	var first pipeResponse
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatal(err)
	}
	if first.Error != "" || string(first.Result) != "[]" {
		t.Errorf("first = %+v", first)
	}
	if !strings.Contains(lines[1], "invalid JSON") {
		t.Errorf("second = %s", lines[1])
	}
	if !strings.Contains(lines[2], "unknown tool") {
		t.Errorf("third = %s", lines[2])
	}
}

func TestParseToolArgs(t *testing.T) {
	got, err := parseToolArgs([]string{"list_files"})
	if err != nil || got == nil || len(got) != 0 {
		t.Errorf("no args = %v, %v", got, err)
	}
	got, err = parseToolArgs([]string{"list_files", "null"})
	if err != nil || got == nil {
		t.Errorf("null args = %v, %v", got, err)
	}
	got, err = parseToolArgs([]string{"list_files", `{"limit":3}`})
	if err != nil || got["limit"] != float64(3) {
		t.Errorf("limit args = %v, %v", got, err)
	}
}

func TestRawResult(t *testing.T) {
	tests := map[string]string{
		`{"a":1}`:           `{"a":1}`,
		`[]`:                `[]`,
		`Renamed 3 symbols`: `"Renamed 3 symbols"`,
	}
	for in, want := range tests {
		if got := string(rawResult(in)); got != want {
			t.Errorf("rawResult(%q) = %s, want %s", in, got, want)
		}
	}
}
