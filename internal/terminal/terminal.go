// Package terminal runs shell commands for the agent. The editor's shell
// integration is tried first; when it is unavailable or fails the command is
// run as a child process. Both paths are bounded by a timeout and keep
// whatever output was produced before it fired.
package terminal

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/tliron/commonlog"

	"github.com/bifrost-mcp/bifrost/internal/fallback"
	"github.com/bifrost-mcp/bifrost/internal/host"
)

var log = commonlog.GetLogger("bifrost.terminal")

// Method names how a command was run.
type Method string

const (
	MethodShellIntegration Method = "shellIntegration"
	MethodProcess          Method = "child_process"
	MethodUnknown          Method = "unknown"
)

// DefaultTimeout applies when Run is given a non-positive timeout.
const DefaultTimeout = 10 * time.Second

// Result is the outcome of one command. ExitCode is nil when it is not
// known: shell integration does not report one, and a killed process has none.
type Result struct {
	Output   string `json:"output"`
	Stderr   string `json:"stderr"`
	ExitCode *int   `json:"exitCode"`
	Method   Method `json:"method"`
}

// Runner executes commands.
type Runner struct {
	shell     host.ShellIntegration
	shellPath string
	// waitDelay bounds how long a killed process may hold its output pipes.
	waitDelay time.Duration
}

// New creates a runner. shell may be nil; shellPath defaults to "sh".
func New(shell host.ShellIntegration, shellPath string) *Runner {
	if shellPath == "" {
		shellPath = "sh"
	}
	return &Runner{shell: shell, shellPath: shellPath, waitDelay: time.Second}
}

// Run executes command in cwd. It never fails: when no strategy can run the
// command the error text is reported as stderr with method "unknown".
func (r *Runner) Run(ctx context.Context, command, cwd string, timeout time.Duration) Result {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	chain := fallback.New(
		"terminal",
		fallback.Strategy[Result]{Name: string(MethodShellIntegration), Run: func(ctx context.Context) (Result, error) {
			return r.viaShell(ctx, command, cwd, timeout)
		}},
		fallback.Strategy[Result]{Name: string(MethodProcess), Run: func(ctx context.Context) (Result, error) {
			return r.viaProcess(ctx, command, cwd, timeout)
		}},
	)
	res, _, err := chain.Run(ctx)
	if err != nil {
		return Result{Stderr: err.Error(), Method: MethodUnknown}
	}
	return res
}

func (r *Runner) viaShell(ctx context.Context, command, cwd string, timeout time.Duration) (Result, error) {
	if r.shell == nil {
		return Result{}, fallback.ErrSkip
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stream, err := r.shell.Execute(ctx, command, cwd)
	if err != nil {
		return Result{}, err
	}

	var buf syncBuffer
	done := make(chan error, 1)
	go func() {
		_, err := io.Copy(&buf, stream)
		done <- err
	}()

	select {
	case err = <-done:
		stream.Close()
		if err != nil && ctx.Err() == nil {
			return Result{}, err
		}
	case <-ctx.Done():
		stream.Close()
		<-done
		log.Infof("shell integration timed out after %s: %s", timeout, command)
	}
	return Result{Output: clean(buf.String()), Method: MethodShellIntegration}, nil
}

func (r *Runner) viaProcess(ctx context.Context, command, cwd string, timeout time.Duration) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.shellPath, "-c", command)
	cmd.Dir = cwd
	cmd.WaitDelay = r.waitDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Output: clean(stdout.String()), Stderr: clean(stderr.String()), Method: MethodProcess}
	if err == nil {
		zero := 0
		res.ExitCode = &zero
		return res, nil
	}

	var exitErr *exec.ExitError
	switch {
	case ctx.Err() != nil:
		log.Infof("process timed out after %s: %s", timeout, command)
		if res.Stderr == "" {
			res.Stderr = ctx.Err().Error()
		}
	case errors.As(err, &exitErr) && exitErr.ExitCode() >= 0:
		code := exitErr.ExitCode()
		res.ExitCode = &code
	default:
		if res.Stderr == "" {
			res.Stderr = err.Error()
		}
	}
	return res, nil
}

func clean(s string) string {
	return strings.TrimSpace(ansi.Strip(s))
}

// syncBuffer lets the copier goroutine and the caller share a buffer.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
