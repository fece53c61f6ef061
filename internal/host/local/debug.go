package local

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/bifrost-mcp/bifrost/internal/host"
)

// errNoAdapter is returned by requests that need a running debug adapter.
var errNoAdapter = errors.New("no debug adapter attached")

// Debugger keeps breakpoints in memory. The headless host ships no debug
// adapter, so sessions never start.
type Debugger struct {
	mu          sync.Mutex
	breakpoints []host.Breakpoint
}

var _ host.Debugger = (*Debugger)(nil)

func (d *Debugger) ActiveSession() (host.DebugSession, bool) { return host.DebugSession{}, false }

func (d *Debugger) Sessions() []host.DebugSession { return []host.DebugSession{} }

func (d *Debugger) Start(_ context.Context, folder, name string, _ bool) (bool, error) {
	log.Infof("cannot start %q in %s: %s", name, folder, errNoAdapter)
	return false, nil
}

func (d *Debugger) Stop(context.Context, host.DebugSession) (bool, error) { return false, nil }

func (d *Debugger) CustomRequest(_ context.Context, _ host.DebugSession, command string, _ map[string]any) (map[string]any, error) {
	return nil, fmt.Errorf("%s: %w: %w", command, errNoAdapter, host.ErrUnsupported)
}

func (d *Debugger) Breakpoints() []host.Breakpoint {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.breakpoints)
}

// AddBreakpoints skips breakpoints already set.
func (d *Debugger) AddBreakpoints(_ context.Context, bps []host.Breakpoint) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, bp := range bps {
		if !slices.Contains(d.breakpoints, bp) {
			d.breakpoints = append(d.breakpoints, bp)
		}
	}
	return nil
}

func (d *Debugger) RemoveBreakpoints(_ context.Context, bps []host.Breakpoint) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.breakpoints = slices.DeleteFunc(d.breakpoints, func(bp host.Breakpoint) bool {
		return slices.Contains(bps, bp)
	})
	return nil
}
