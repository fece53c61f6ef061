package terminal

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/bifrost-mcp/bifrost/internal/host/hosttest"
)

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
}

func TestShellIntegrationFirst(t *testing.T) {
	shell := &hosttest.Shell{Output: "\x1b[32mok\x1b[0m\n"}
	res := New(shell, "").Run(context.Background(), "echo ok", "/tmp", time.Second)

	if res.Method != MethodShellIntegration {
		t.Fatalf("Method = %q", res.Method)
	}
	if res.Output != "ok" || res.ExitCode != nil || res.Stderr != "" {
		t.Errorf("Result = %+v", res)
	}
}

func TestShellIntegrationTimeoutKeepsPartialOutput(t *testing.T) {
	shell := &hosttest.Shell{Output: "partial", Block: true}
	start := time.Now()
	res := New(shell, "").Run(context.Background(), "tail -f log", "", 50*time.Millisecond)

	if res.Method != MethodShellIntegration || res.Output != "partial" {
		t.Errorf("Result = %+v", res)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("timeout did not abort the stream")
	}
}

func TestFallsBackToProcess(t *testing.T) {
	skipWithoutShell(t)
	shell := &hosttest.Shell{Unavailable: true}
	res := New(shell, "").Run(context.Background(), "printf 'out\\n'; printf 'err' >&2", t.TempDir(), 5*time.Second)

	if res.Method != MethodProcess {
		t.Fatalf("Method = %q", res.Method)
	}
	if res.Output != "out" || res.Stderr != "err" || res.ExitCode == nil || *res.ExitCode != 0 {
		t.Errorf("Result = %+v", res)
	}
	if len(shell.Commands) != 1 {
		t.Errorf("shell integration should have been tried once, got %v", shell.Commands)
	}
}

func TestProcessExitCode(t *testing.T) {
	skipWithoutShell(t)
	res := New(nil, "sh").Run(context.Background(), "echo partial; exit 3", "", 5*time.Second)

	if res.ExitCode == nil || *res.ExitCode != 3 {
		t.Fatalf("ExitCode = %v", res.ExitCode)
	}
	if res.Output != "partial" {
		t.Errorf("Output = %q", res.Output)
	}
}

func TestProcessTimeout(t *testing.T) {
	skipWithoutShell(t)
	res := New(nil, "").Run(context.Background(), "echo early; sleep 5", "", 200*time.Millisecond)

	if res.Method != MethodProcess || res.ExitCode != nil {
		t.Errorf("Result = %+v", res)
	}
	if res.Output != "early" {
		t.Errorf("partial output lost: %q", res.Output)
	}
}

func TestProcessCwd(t *testing.T) {
	skipWithoutShell(t)
	dir := t.TempDir()
	res := New(nil, "").Run(context.Background(), "pwd -P", dir, 5*time.Second)
	if res.Output == "" || res.ExitCode == nil || *res.ExitCode != 0 {
		t.Errorf("Result = %+v", res)
	}
}
