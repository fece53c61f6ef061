// Package gate decides whether a mutating tool call may proceed.
//
// A call proceeds without asking when auto-approve is on, either through the
// persisted toggle or the environment override. Otherwise the user is asked
// through a modal Proceed/Cancel prompt.
package gate

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/bifrost-mcp/bifrost/internal/host"
)

const (
	// ChoiceProceed and ChoiceCancel are the prompt buttons.
	ChoiceProceed = "Proceed"
	ChoiceCancel  = "Cancel"

	// DefaultEnvOverride is the environment variable that forces auto-approve
	// when set to "1".
	DefaultEnvOverride = "BIFROST_AUTO_APPROVE"
	// DefaultMementoKey is the memento key of the persisted toggle.
	DefaultMementoKey = "bifrost-auto-approve"

	outsideWorkspaceSuffix = " (outside workspace)"
)

var log = commonlog.GetLogger("bifrost.gate")

// Options configures a Gate. Zero values select the defaults.
type Options struct {
	EnvOverride string
	MementoKey  string
	// Getenv replaces os.Getenv, mainly in tests.
	Getenv func(string) string
}

// Gate is the confirmation checkpoint shared by every gated tool.
type Gate struct {
	mu          sync.RWMutex
	autoApprove bool

	memento host.Memento
	window  host.Window
	folders func() []string

	envOverride string
	mementoKey  string
	getenv      func(string) string
}

// New loads the persisted toggle from memento. window may be nil for callers
// that only toggle the flag. folders lists the workspace folder URIs used for
// the outside-workspace warning.
func New(memento host.Memento, window host.Window, folders func() []string, opts Options) (*Gate, error) {
	if memento == nil {
		return nil, fmt.Errorf("gate: memento is required")
	}
	g := &Gate{
		memento:     memento,
		window:      window,
		folders:     folders,
		envOverride: opts.EnvOverride,
		mementoKey:  opts.MementoKey,
		getenv:      opts.Getenv,
	}
	if g.envOverride == "" {
		g.envOverride = DefaultEnvOverride
	}
	if g.mementoKey == "" {
		g.mementoKey = DefaultMementoKey
	}
	if g.getenv == nil {
		g.getenv = os.Getenv
	}
	if g.folders == nil {
		g.folders = func() []string { return nil }
	}

	raw, ok, err := memento.Get(g.mementoKey)
	if err != nil {
		return nil, fmt.Errorf("gate: load %s: %w", g.mementoKey, err)
	}
	if ok {
		on, err := strconv.ParseBool(raw)
		if err != nil {
			log.Warningf("ignoring malformed %s value %q", g.mementoKey, raw)
		}
		g.autoApprove = on
	}
	return g, nil
}

// AutoApprove reports the persisted toggle.
func (g *Gate) AutoApprove() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.autoApprove
}

// EnvOverride reports whether the environment forces auto-approve.
func (g *Gate) EnvOverride() bool {
	return g.getenv(g.envOverride) == "1"
}

// SetAutoApprove updates and persists the toggle.
func (g *Gate) SetAutoApprove(on bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.setLocked(on)
}

func (g *Gate) setLocked(on bool) error {
	if err := g.memento.Update(g.mementoKey, strconv.FormatBool(on)); err != nil {
		return fmt.Errorf("gate: persist %s: %w", g.mementoKey, err)
	}
	g.autoApprove = on
	log.Infof("tool confirmation mode: %s", modeName(on))
	return nil
}

// Toggle flips the toggle and returns the new value.
func (g *Gate) Toggle() (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	next := !g.autoApprove
	if err := g.setLocked(next); err != nil {
		return !next, err
	}
	return next, nil
}

// Confirm returns true when the action may proceed. target is the URI the
// action touches, or "" when there is none. A failed or dismissed prompt
// counts as Cancel.
func (g *Gate) Confirm(ctx context.Context, message, target string) bool {
	if g.AutoApprove() || g.EnvOverride() {
		return true
	}
	if g.window == nil {
		log.Warningf("no window to confirm %q, declining", message)
		return false
	}
	if target != "" {
		if _, inside := host.ContainingFolder(g.folders(), target); !inside {
			message += outsideWorkspaceSuffix
		}
	}
	choice, err := g.window.ShowWarning(ctx, message, true, ChoiceProceed, ChoiceCancel)
	if err != nil {
		log.Warningf("confirmation prompt failed: %s", err)
		return false
	}
	return choice == ChoiceProceed
}

// Rejected is the result a gated tool returns when the user declines.
func Rejected(verb string) map[string]any {
	return map[string]any{
		verb:           false,
		"userRejected": true,
		"reason":       "User cancelled",
	}
}

func modeName(on bool) string {
	if on {
		return "Auto-approve"
	}
	return "Ask"
}
