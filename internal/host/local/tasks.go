package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bifrost-mcp/bifrost/internal/host"
	"github.com/bifrost-mcp/bifrost/internal/workspacecfg"
)

// Task sources.
const (
	SourceWorkspace = "Workspace"
	SourceGo        = "go"
	SourceNPM       = "npm"
)

// Tasks lists the tasks of .vscode/tasks.json plus the go and npm tasks
// detected from go.mod and package.json, and runs them through sh -c.
type Tasks struct {
	ws      *Workspace
	configs *workspacecfg.Store
	shell   string
	// Output receives the combined output of running tasks.
	Output io.Writer
}

var _ host.TaskRunner = (*Tasks)(nil)

// NewTasks returns a task runner over ws using shell, "sh" when empty.
func NewTasks(ws *Workspace, shell string) *Tasks {
	if shell == "" {
		shell = "sh"
	}
	return &Tasks{ws: ws, configs: workspacecfg.New(ws), shell: shell, Output: io.Discard}
}

func (t *Tasks) Tasks(ctx context.Context) ([]host.Task, error) {
	out := []host.Task{}
	for _, folder := range t.ws.Folders() {
		out = append(out, t.configured(ctx, folder)...)
		dir, err := fsPath(folder)
		if err != nil {
			continue
		}
		out = append(out, detectGo(folder, dir)...)
		out = append(out, detectNPM(folder, dir)...)
	}
	return out, nil
}

func (t *Tasks) configured(ctx context.Context, folder string) []host.Task {
	var out []host.Task
	for _, rec := range t.configs.List(ctx, folder, workspacecfg.Tasks) {
		label := workspacecfg.Tasks.ID(rec)
		command, _ := rec.Get("command")
		cmd, _ := command.(string)
		if label == "" || cmd == "" {
			continue
		}
		def := map[string]any{"command": cmd, "folder": folder}
		if typ, ok := rec.Get("type"); ok {
			def["type"] = typ
		}
		if args, ok := rec.Get("args"); ok {
			def["args"] = args
		}
		detail, _ := rec.Get("detail")
		d, _ := detail.(string)
		group, _ := rec.Get("group")
		out = append(out, host.Task{
			Name:       label,
			Source:     SourceWorkspace,
			Detail:     d,
			Group:      groupKind(group),
			Definition: def,
		})
	}
	return out
}

// groupKind reads "group": "test" and "group": {"kind": "test"}.
func groupKind(v any) string {
	switch g := v.(type) {
	case string:
		return g
	case map[string]any:
		k, _ := g["kind"].(string)
		return k
	}
	return ""
}

func detectGo(folder, dir string) []host.Task {
	if _, err := os.Stat(filepath.Join(dir, "go.mod")); err != nil {
		return nil
	}
	task := func(name, group, command string) host.Task {
		return host.Task{
			Name:       name,
			Source:     SourceGo,
			Detail:     command,
			Group:      group,
			Definition: map[string]any{"type": "shell", "command": command, "folder": folder},
		}
	}
	return []host.Task{
		task("build", "build", "go build ./..."),
		task("test", "test", "go test ./..."),
		task("vet", "", "go vet ./..."),
	}
}

func detectNPM(folder, dir string) []host.Task {
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return nil
	}
	var pkg struct {
		Scripts map[string]string `json:"scripts"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		log.Debugf("package.json in %s: %s", dir, err)
		return nil
	}
	names := make([]string, 0, len(pkg.Scripts))
	for name := range pkg.Scripts {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []host.Task
	for _, name := range names {
		group := ""
		switch {
		case name == "test" || strings.HasPrefix(name, "test:"):
			group = "test"
		case name == "build" || strings.HasPrefix(name, "build:"):
			group = "build"
		}
		out = append(out, host.Task{
			Name:       name,
			Source:     SourceNPM,
			Detail:     pkg.Scripts[name],
			Group:      group,
			Definition: map[string]any{"type": "npm", "command": "npm run " + shellQuote(name), "folder": folder},
		})
	}
	return out
}

// commandLine joins the task command and its arguments for sh -c.
func commandLine(def map[string]any) (string, error) {
	cmd, _ := def["command"].(string)
	if cmd == "" {
		return "", errors.New("task has no command")
	}
	args, _ := def["args"].([]any)
	parts := []string{cmd}
	for _, a := range args {
		switch v := a.(type) {
		case string:
			parts = append(parts, shellQuote(v))
		default:
			parts = append(parts, fmt.Sprint(v))
		}
	}
	return strings.Join(parts, " "), nil
}

func shellQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n'\"\\$`*?[]{}()<>|&;#~!") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Run blocks until the task process exits.
func (t *Tasks) Run(ctx context.Context, task host.Task) (*int, error) {
	line, err := commandLine(task.Definition)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", task.Name, err)
	}
	cmd := exec.CommandContext(ctx, t.shell, "-c", line)
	if folder, _ := task.Definition["folder"].(string); folder != "" {
		if dir, err := fsPath(folder); err == nil {
			cmd.Dir = dir
		}
	}
	cmd.Stdout = t.Output
	cmd.Stderr = t.Output

	log.Infof("task %s: %s", task.Name, line)
	err = cmd.Run()
	if err == nil {
		zero := 0
		return &zero, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		code := exitErr.ExitCode()
		return &code, nil
	}
	return nil, fmt.Errorf("run %s: %w", task.Name, err)
}
