package gate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/bifrost-mcp/bifrost/internal/host/hosttest"
)

func newGate(t *testing.T, fake *hosttest.Fake, env map[string]string) *Gate {
	t.Helper()
	g, err := New(fake.Memento, fake.Window, fake.Workspace.Folders, Options{
		Getenv: func(k string) string { return env[k] },
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return g
}

func TestConfirmPrompts(t *testing.T) {
	tests := []struct {
		name    string
		answer  string
		target  string
		want    bool
		wantMsg string
	}{
		{"proceed", ChoiceProceed, "", true, "Delete x?"},
		{"cancel", ChoiceCancel, "", false, "Delete x?"},
		{"dismissed", "", "", false, "Delete x?"},
		{"inside workspace", ChoiceProceed, "file:///work/a.go", true, "Delete x?"},
		{"outside workspace", ChoiceProceed, "file:///elsewhere/a.go", true, "Delete x? (outside workspace)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := hosttest.New("/work")
			fake.Window.WarningAnswer = tt.answer
			g := newGate(t, fake, nil)

			if got := g.Confirm(context.Background(), "Delete x?", tt.target); got != tt.want {
				t.Errorf("Confirm() = %v, want %v", got, tt.want)
			}
			if len(fake.Window.Warnings) != 1 {
				t.Fatalf("prompts = %d, want 1", len(fake.Window.Warnings))
			}
			p := fake.Window.Warnings[0]
			if p.Message != tt.wantMsg || !p.Modal {
				t.Errorf("prompt = %+v, want modal %q", p, tt.wantMsg)
			}
			if strings.Join(p.Choices, ",") != "Proceed,Cancel" {
				t.Errorf("choices = %v", p.Choices)
			}
		})
	}
}

func TestConfirmPromptErrorDeclines(t *testing.T) {
	fake := hosttest.New("/work")
	fake.Window.WarningErr = errors.New("no ui")
	g := newGate(t, fake, nil)
	if g.Confirm(context.Background(), "Run?", "") {
		t.Error("Confirm() should decline when the prompt fails")
	}
}

func TestAutoApproveSkipsPrompt(t *testing.T) {
	fake := hosttest.New("/work")
	g := newGate(t, fake, nil)
	if err := g.SetAutoApprove(true); err != nil {
		t.Fatalf("SetAutoApprove() error = %v", err)
	}
	if !g.Confirm(context.Background(), "Run?", "file:///elsewhere/x") {
		t.Error("Confirm() should approve with auto-approve on")
	}
	if len(fake.Window.Warnings) != 0 {
		t.Errorf("prompts = %d, want none", len(fake.Window.Warnings))
	}

	// The toggle survives a new gate on the same memento.
	reloaded := newGate(t, fake, nil)
	if !reloaded.AutoApprove() {
		t.Error("auto-approve should be persisted")
	}
}

func TestEnvOverride(t *testing.T) {
	fake := hosttest.New("/work")
	g := newGate(t, fake, map[string]string{DefaultEnvOverride: "1"})
	if !g.EnvOverride() || !g.Confirm(context.Background(), "Run?", "") {
		t.Error("environment override should approve")
	}
	if g.AutoApprove() {
		t.Error("environment override must not flip the persisted toggle")
	}
}

func TestToggle(t *testing.T) {
	fake := hosttest.New("/work")
	g := newGate(t, fake, nil)

	on, err := g.Toggle()
	if err != nil || !on {
		t.Fatalf("Toggle() = %v, %v", on, err)
	}
	off, err := g.Toggle()
	if err != nil || off {
		t.Fatalf("Toggle() = %v, %v", off, err)
	}
	if v, _, _ := fake.Memento.Get(DefaultMementoKey); v != "false" {
		t.Errorf("memento value = %q, want false", v)
	}
}

func TestConcurrentTogglesAlternate(t *testing.T) {
	fake := hosttest.New("/work")
	g := newGate(t, fake, nil)

	const n = 50
	var wg sync.WaitGroup
	results := make(chan bool, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			on, err := g.Toggle()
			if err != nil {
				t.Error(err)
			}
			results <- on
		}()
	}
	wg.Wait()
	close(results)

	ons := 0
	for on := range results {
		if on {
			ons++
		}
	}
	if ons != n/2 {
		t.Errorf("%d of %d toggles turned auto-approve on, want %d", ons, n, n/2)
	}
	if g.AutoApprove() {
		t.Error("an even number of toggles must end where it started")
	}
	if v, _, _ := fake.Memento.Get(DefaultMementoKey); v != "false" {
		t.Errorf("memento value = %q, want false", v)
	}
}

func TestToggleKeepsStateOnPersistError(t *testing.T) {
	fake := hosttest.New("/work")
	g := newGate(t, fake, nil)
	fake.Memento.Err = errors.New("disk full")

	if _, err := g.Toggle(); err == nil {
		t.Fatal("Toggle() should fail")
	}
	if g.AutoApprove() {
		t.Error("failed toggle must not change state")
	}
}

func TestRejected(t *testing.T) {
	r := Rejected("moved")
	if r["moved"] != false || r["userRejected"] != true || r["reason"] != "User cancelled" {
		t.Errorf("Rejected() = %v", r)
	}
}
