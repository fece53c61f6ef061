package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/bifrost-mcp/bifrost/internal/host"
	"github.com/bifrost-mcp/bifrost/internal/tools"
)

const (
	noSession       = "No active debug session"
	callStackLevels = 20
)

func notRunning() *Result {
	return Data(obj{"notRunning": true, "error": noSession})
}

// step returns a handler that runs a debug toolbar command.
func (r *Router) step(command string) func(context.Context, *call, *tools.NoArgs) (*Result, error) {
	return func(ctx context.Context, c *call, _ *tools.NoArgs) (*Result, error) {
		if _, err := r.host.Commands.Execute(ctx, command); err != nil {
			log.Warningf("%s: %s", c.name, err)
			return Data(obj{"ok": false, "error": err.Error()}), nil
		}
		return Data(obj{"ok": true}), nil
	}
}

func (r *Router) debugStatus(_ context.Context, _ *call, _ *tools.NoArgs) (*Result, error) {
	sessions := r.host.Debug.Sessions()
	if sessions == nil {
		sessions = []host.DebugSession{}
	}
	active, ok := r.host.Debug.ActiveSession()
	out := obj{"hasActiveSession": ok, "activeSession": nil, "sessions": sessions, "notRunning": !ok}
	if ok {
		out["activeSession"] = active
	} else {
		out["error"] = noSession
	}
	return Data(out), nil
}

func (r *Router) debugStop(ctx context.Context, c *call, _ *tools.NoArgs) (*Result, error) {
	active, ok := r.host.Debug.ActiveSession()
	if !ok {
		return Data(obj{"stopped": false, "reason": noSession, "notRunning": true, "error": noSession}), nil
	}
	stopped, err := r.host.Debug.Stop(ctx, active)
	if err != nil {
		log.Warningf("%s: %s", c.name, err)
		return Data(obj{"stopped": false, "notRunning": false, "error": err.Error()}), nil
	}
	return Data(obj{"stopped": stopped, "notRunning": false}), nil
}

func (r *Router) watchList() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.watches...)
}

func (r *Router) addWatch(_ context.Context, _ *call, args *tools.WatchArgs) (*Result, error) {
	r.mu.Lock()
	if !slices.Contains(r.watches, args.Expression) {
		r.watches = append(r.watches, args.Expression)
	}
	r.mu.Unlock()
	return Data(obj{"watches": r.watchList()}), nil
}

func (r *Router) listWatches(_ context.Context, _ *call, _ *tools.NoArgs) (*Result, error) {
	return Data(obj{"watches": r.watchList()}), nil
}

func (r *Router) removeWatch(_ context.Context, _ *call, args *tools.WatchArgs) (*Result, error) {
	r.mu.Lock()
	r.watches = slices.DeleteFunc(r.watches, func(w string) bool { return w == args.Expression })
	r.mu.Unlock()
	return Data(obj{"watches": r.watchList()}), nil
}

// dap sends a debug adapter request and decodes the response body into out.
func (r *Router) dap(ctx context.Context, s host.DebugSession, command string, args map[string]any, out any) error {
	resp, err := r.host.Debug.CustomRequest(ctx, s, command, args)
	if err != nil {
		return fmt.Errorf("%s: %w", command, err)
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("%s: %w", command, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", command, err)
	}
	return nil
}

type dapThread struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type dapFrame struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Source *struct {
		Name string `json:"name"`
		Path string `json:"path"`
	} `json:"source"`
}

func (r *Router) threads(ctx context.Context, s host.DebugSession) ([]dapThread, error) {
	var resp struct {
		Threads []dapThread `json:"threads"`
	}
	if err := r.dap(ctx, s, "threads", map[string]any{}, &resp); err != nil {
		return nil, err
	}
	return resp.Threads, nil
}

func (r *Router) stackTrace(ctx context.Context, s host.DebugSession, threadID, levels int) ([]dapFrame, error) {
	var resp struct {
		StackFrames []dapFrame `json:"stackFrames"`
	}
	args := map[string]any{"threadId": threadID, "startFrame": 0, "levels": levels}
	if err := r.dap(ctx, s, "stackTrace", args, &resp); err != nil {
		return nil, err
	}
	return resp.StackFrames, nil
}

// topFrame returns the id of the innermost frame of the first thread.
func (r *Router) topFrame(ctx context.Context, s host.DebugSession) (int, error) {
	threads, err := r.threads(ctx, s)
	if err != nil {
		return 0, err
	}
	if len(threads) == 0 {
		return 0, errors.New("No threads found")
	}
	frames, err := r.stackTrace(ctx, s, threads[0].ID, 1)
	if err != nil {
		return 0, err
	}
	if len(frames) == 0 {
		return 0, errors.New("No stack frames found")
	}
	return frames[0].ID, nil
}

// WatchValue is one evaluated watch expression.
type WatchValue struct {
	Expression string `json:"expression"`
	Value      any    `json:"value,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (r *Router) watchValues(ctx context.Context, c *call, _ *tools.NoArgs) (*Result, error) {
	s, ok := r.host.Debug.ActiveSession()
	if !ok {
		return notRunning(), nil
	}
	frame, err := r.topFrame(ctx, s)
	if err != nil {
		return providerFailure(c.name, err), nil
	}
	watches := r.watchList()
	out := make([]WatchValue, 0, len(watches))
	for _, expr := range watches {
		var resp struct {
			Result any `json:"result"`
		}
		args := map[string]any{"expression": expr, "context": "watch", "frameId": frame}
		if err := r.dap(ctx, s, "evaluate", args, &resp); err != nil {
			out = append(out, WatchValue{Expression: expr, Error: err.Error()})
			continue
		}
		out = append(out, WatchValue{Expression: expr, Value: resp.Result})
	}
	return Data(out), nil
}

// Variable is one variable of a scope.
type Variable struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Type  string `json:"type,omitempty"`
}

// Scope is a named group of variables.
type Scope struct {
	Name      string     `json:"name"`
	Variables []Variable `json:"variables"`
}

func (r *Router) getLocals(ctx context.Context, c *call, _ *tools.NoArgs) (*Result, error) {
	s, ok := r.host.Debug.ActiveSession()
	if !ok {
		return notRunning(), nil
	}
	frame, err := r.topFrame(ctx, s)
	if err != nil {
		return providerFailure(c.name, err), nil
	}
	var scopes struct {
		Scopes []struct {
			Name               string `json:"name"`
			VariablesReference int    `json:"variablesReference"`
		} `json:"scopes"`
	}
	if err := r.dap(ctx, s, "scopes", map[string]any{"frameId": frame}, &scopes); err != nil {
		return providerFailure(c.name, err), nil
	}
	out := make([]Scope, 0, len(scopes.Scopes))
	for _, sc := range scopes.Scopes {
		var vars struct {
			Variables []Variable `json:"variables"`
		}
		if err := r.dap(ctx, s, "variables", map[string]any{"variablesReference": sc.VariablesReference}, &vars); err != nil {
			return providerFailure(c.name, err), nil
		}
		if vars.Variables == nil {
			vars.Variables = []Variable{}
		}
		out = append(out, Scope{Name: sc.Name, Variables: vars.Variables})
	}
	return Data(obj{"scopes": out}), nil
}

// Frame is one call stack frame.
type Frame struct {
	Name   string `json:"name"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Source string `json:"source,omitempty"`
}

func (r *Router) getCallStack(ctx context.Context, c *call, _ *tools.NoArgs) (*Result, error) {
	s, ok := r.host.Debug.ActiveSession()
	if !ok {
		return notRunning(), nil
	}
	threads, err := r.threads(ctx, s)
	if err != nil {
		return providerFailure(c.name, err), nil
	}
	if len(threads) == 0 {
		return Data(obj{"error": "No threads found"}), nil
	}
	frames, err := r.stackTrace(ctx, s, threads[0].ID, callStackLevels)
	if err != nil {
		return providerFailure(c.name, err), nil
	}
	out := make([]Frame, 0, len(frames))
	for _, f := range frames {
		fr := Frame{Name: f.Name, Line: f.Line, Column: f.Column}
		if f.Source != nil {
			fr.Source = firstNonEmpty(f.Source.Path, f.Source.Name)
		}
		out = append(out, fr)
	}
	return Data(obj{"frames": out}), nil
}

func (r *Router) addBreakpoint(ctx context.Context, c *call, args *tools.BreakpointArgs) (*Result, error) {
	bp := host.Breakpoint{Enabled: true, Condition: args.Condition, LogMessage: args.LogMessage}
	switch {
	case args.FunctionName != "":
		bp.FunctionName = args.FunctionName
	case args.URI != "" && args.Line != nil:
		uri, err := host.ParseURI(args.URI)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: uri: %v", ErrInvalidArguments, c.name, err)
		}
		bp.URI, bp.Line = uri, *args.Line
	default:
		return nil, fmt.Errorf("%w: %s: functionName or uri and line are required", ErrInvalidArguments, c.name)
	}
	if err := r.host.Debug.AddBreakpoints(ctx, []host.Breakpoint{bp}); err != nil {
		return providerFailure(c.name, err), nil
	}
	return Data(obj{"added": 1}), nil
}

func (r *Router) removeBreakpoint(ctx context.Context, c *call, args *tools.RemoveBreakpointArgs) (*Result, error) {
	var match func(host.Breakpoint) bool
	switch {
	case args.FunctionName != "":
		match = func(bp host.Breakpoint) bool { return bp.FunctionName == args.FunctionName }
	case args.URI != "" && args.Line != nil:
		uri, err := host.ParseURI(args.URI)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: uri: %v", ErrInvalidArguments, c.name, err)
		}
		match = func(bp host.Breakpoint) bool { return !bp.IsFunction() && bp.URI == uri && bp.Line == *args.Line }
	default:
		return nil, fmt.Errorf("%w: %s: functionName or uri and line are required", ErrInvalidArguments, c.name)
	}
	var matched []host.Breakpoint
	for _, bp := range r.host.Debug.Breakpoints() {
		if match(bp) {
			matched = append(matched, bp)
		}
	}
	if len(matched) > 0 {
		if err := r.host.Debug.RemoveBreakpoints(ctx, matched); err != nil {
			return providerFailure(c.name, err), nil
		}
	}
	return Data(obj{"removed": len(matched)}), nil
}

func (r *Router) disableAllBreakpoints(ctx context.Context, c *call, _ *tools.NoArgs) (*Result, error) {
	all := r.host.Debug.Breakpoints()
	if len(all) == 0 {
		return Data(obj{"disabled": 0}), nil
	}
	disabled := make([]host.Breakpoint, len(all))
	for i, bp := range all {
		bp.Enabled = false
		disabled[i] = bp
	}
	if err := r.host.Debug.RemoveBreakpoints(ctx, all); err != nil {
		return providerFailure(c.name, err), nil
	}
	if err := r.host.Debug.AddBreakpoints(ctx, disabled); err != nil {
		return providerFailure(c.name, err), nil
	}
	return Data(obj{"disabled": len(disabled)}), nil
}

func (r *Router) removeAllBreakpoints(ctx context.Context, c *call, _ *tools.NoArgs) (*Result, error) {
	all := r.host.Debug.Breakpoints()
	if len(all) > 0 {
		if err := r.host.Debug.RemoveBreakpoints(ctx, all); err != nil {
			return providerFailure(c.name, err), nil
		}
	}
	return Data(obj{"removed": len(all)}), nil
}
