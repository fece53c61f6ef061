package router

import (
	"errors"
	"testing"

	"github.com/bifrost-mcp/bifrost/internal/host"
	"github.com/bifrost-mcp/bifrost/internal/host/hosttest"
	"github.com/bifrost-mcp/bifrost/internal/tools"
)

func TestBreakpoints(t *testing.T) {
	fake := hosttest.New(workRoot)
	r := newRouter(t, fake)

	dispatch(t, r, tools.DebugAddBreakpoint, map[string]any{"uri": "/work/main.go", "line": 4})
	dispatch(t, r, tools.DebugAddBreakpoint, map[string]any{"functionName": "main.greet", "condition": "n > 1"})
	if got := fake.Debug.Breakpoints(); len(got) != 2 || got[0].URI != "file:///work/main.go" || !got[1].IsFunction() {
		t.Fatalf("breakpoints = %+v", got)
	}

	m := decodeObj(t, dispatch(t, r, tools.DebugDisableAllBreakpoints, nil))
	if m["disabled"] != float64(2) {
		t.Errorf("disable = %v", m)
	}
	for _, bp := range fake.Debug.Breakpoints() {
		if bp.Enabled {
			t.Errorf("still enabled: %+v", bp)
		}
	}

	m = decodeObj(t, dispatch(t, r, tools.DebugRemoveBreakpoint, map[string]any{"uri": "/work/main.go", "line": 4}))
	if m["removed"] != float64(1) {
		t.Errorf("remove = %v", m)
	}

	m = decodeObj(t, dispatch(t, r, tools.DebugRemoveAllBreakpoints, nil))
	if m["removed"] != float64(1) {
		t.Errorf("first remove all = %v", m)
	}
	m = decodeObj(t, dispatch(t, r, tools.DebugRemoveAllBreakpoints, nil))
	if m["removed"] != float64(0) {
		t.Errorf("second remove all = %v, want removed 0", m)
	}
}

func TestAddBreakpointNeedsTarget(t *testing.T) {
	r := newRouter(t, hosttest.New(workRoot))
	_, err := r.Dispatch(t.Context(), tools.DebugAddBreakpoint, map[string]any{"uri": "/work/main.go"})
	if !errors.Is(err, ErrInvalidArguments) {
		t.Errorf("error = %v, want ErrInvalidArguments", err)
	}
}

func TestDebugWithoutSession(t *testing.T) {
	r := newRouter(t, hosttest.New(workRoot))

	m := decodeObj(t, dispatch(t, r, tools.DebugStatus, nil))
	if m["hasActiveSession"] != false || m["notRunning"] != true || m["error"] != noSession {
		t.Errorf("status = %v", m)
	}
	for _, name := range []tools.Name{tools.DebugGetLocals, tools.DebugGetCallStack, tools.DebugWatchValues} {
		m := decodeObj(t, dispatch(t, r, name, nil))
		if m["notRunning"] != true {
			t.Errorf("%s = %v", name, m)
		}
	}
	m = decodeObj(t, dispatch(t, r, tools.DebugStop, nil))
	if m["stopped"] != false || m["reason"] != noSession {
		t.Errorf("stop = %v", m)
	}
}

func activeSession(fake *hosttest.Fake) {
	s := host.DebugSession{ID: "1", Name: "Launch app", Type: "go"}
	fake.Debug.Active = &s
	fake.Debug.All = []host.DebugSession{s}
	fake.Debug.Responses["threads"] = map[string]any{"threads": []any{map[string]any{"id": 7, "name": "main"}}}
	fake.Debug.Responses["stackTrace"] = map[string]any{"stackFrames": []any{
		map[string]any{"id": 100, "name": "main.greet", "line": 4, "column": 2, "source": map[string]any{"path": "/work/main.go"}},
		map[string]any{"id": 101, "name": "main.main", "line": 8, "column": 2},
	}}
}

func TestCallStackAndLocals(t *testing.T) {
	fake := hosttest.New(workRoot)
	activeSession(fake)
	fake.Debug.Responses["scopes"] = map[string]any{"scopes": []any{map[string]any{"name": "Locals", "variablesReference": 3}}}
	fake.Debug.Responses["variables"] = map[string]any{"variables": []any{map[string]any{"name": "n", "value": "2", "type": "int"}}}
	r := newRouter(t, fake)

	stack := decodeObj(t, dispatch(t, r, tools.DebugGetCallStack, nil))
	frames, _ := stack["frames"].([]any)
	if len(frames) != 2 {
		t.Fatalf("frames = %v", stack)
	}
	if top := frames[0].(map[string]any); top["name"] != "main.greet" || top["source"] != "/work/main.go" {
		t.Errorf("top frame = %v", top)
	}
	if req := fake.Debug.Requests[1]; req.Command != "stackTrace" || req.Args["threadId"] != 7 || req.Args["levels"] != callStackLevels {
		t.Errorf("stackTrace request = %+v", req)
	}

	locals := decodeObj(t, dispatch(t, r, tools.DebugGetLocals, nil))
	scopes, _ := locals["scopes"].([]any)
	if len(scopes) != 1 {
		t.Fatalf("scopes = %v", locals)
	}
	vars := scopes[0].(map[string]any)["variables"].([]any)
	if len(vars) != 1 || vars[0].(map[string]any)["value"] != "2" {
		t.Errorf("variables = %v", vars)
	}
}

func TestWatches(t *testing.T) {
	fake := hosttest.New(workRoot)
	activeSession(fake)
	fake.Debug.Evaluate = func(expr string) (map[string]any, error) {
		if expr == "broken" {
			return nil, errors.New("undefined: broken")
		}
		return map[string]any{"result": "42"}, nil
	}
	r := newRouter(t, fake)

	dispatch(t, r, tools.DebugAddWatch, map[string]any{"expression": "n * 21"})
	dispatch(t, r, tools.DebugAddWatch, map[string]any{"expression": "broken"})
	m := decodeObj(t, dispatch(t, r, tools.DebugAddWatch, map[string]any{"expression": "n * 21"}))
	if w := m["watches"].([]any); len(w) != 2 {
		t.Errorf("watches = %v, want deduplicated", w)
	}

	res := dispatch(t, r, tools.DebugWatchValues, nil)
	values, ok := res.Data.([]WatchValue)
	if !ok || len(values) != 2 {
		t.Fatalf("values = %+v", res.Data)
	}
	if values[0].Value != "42" || values[0].Error != "" {
		t.Errorf("first = %+v", values[0])
	}
	if values[1].Error == "" {
		t.Errorf("second = %+v, want error", values[1])
	}

	m = decodeObj(t, dispatch(t, r, tools.DebugRemoveWatch, map[string]any{"expression": "broken"}))
	if w := m["watches"].([]any); len(w) != 1 || w[0] != "n * 21" {
		t.Errorf("watches = %v", w)
	}
}

func TestStepCommands(t *testing.T) {
	fake := hosttest.New(workRoot)
	r := newRouter(t, fake)
	for _, name := range []tools.Name{tools.DebugStepOver, tools.DebugStepInto, tools.DebugStepOut, tools.DebugContinue} {
		if m := decodeObj(t, dispatch(t, r, name, nil)); m["ok"] != true {
			t.Errorf("%s = %v", name, m)
		}
	}
	want := []string{
		"workbench.action.debug.stepOver",
		"workbench.action.debug.stepInto",
		"workbench.action.debug.stepOut",
		"workbench.action.debug.continue",
	}
	got := fake.Commands.Names()
	if len(got) != len(want) {
		t.Fatalf("commands = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("command %d = %q, want %q", i, got[i], want[i])
		}
	}
}
