package router

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bifrost-mcp/bifrost/internal/host"
	"github.com/bifrost-mcp/bifrost/internal/tools"
	"github.com/bifrost-mcp/bifrost/internal/workspacecfg"
)

const testGroup = "test"

// TestTask is the listing shape of a test task.
type TestTask struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Detail string `json:"detail,omitempty"`
}

func (r *Router) testTasks(ctx context.Context) ([]host.Task, error) {
	all, err := r.host.Tasks.Tasks(ctx)
	if err != nil {
		return nil, err
	}
	var out []host.Task
	for _, t := range all {
		if t.Group == testGroup {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *Router) listTests(ctx context.Context, c *call, _ *tools.NoArgs) (*Result, error) {
	tasks, err := r.testTasks(ctx)
	if err != nil {
		return providerFailure(c.name, err), nil
	}
	out := make([]TestTask, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, TestTask{Name: t.Name, Source: t.Source, Detail: t.Detail})
	}
	return Data(out), nil
}

func (r *Router) setLastTests(outcomes []TestOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastTests = outcomes
}

func (r *Router) runTest(ctx context.Context, c *call, args *tools.NameArgs) (*Result, error) {
	if !r.confirm(ctx, fmt.Sprintf("Run test task %q?", args.Name), "") {
		return Data(rejected("started")), nil
	}
	tasks, err := r.testTasks(ctx)
	if err != nil {
		return providerFailure(c.name, err), nil
	}
	for _, t := range tasks {
		if t.Name != args.Name {
			continue
		}
		code, err := r.host.Tasks.Run(ctx, t)
		if err != nil {
			log.Warningf("%s: %s: %s", c.name, t.Name, err)
			return Data(obj{"started": false, "name": t.Name, "error": err.Error()}), nil
		}
		r.setLastTests([]TestOutcome{{Name: t.Name, ExitCode: code}})
		return Data(obj{"started": true, "name": t.Name, "exitCode": code}), nil
	}
	return Data(obj{"started": false, "error": "Task not found"}), nil
}

func (r *Router) runAllTests(ctx context.Context, c *call, _ *tools.NoArgs) (*Result, error) {
	if !r.confirm(ctx, "Run all test tasks?", "") {
		return Data(rejected("started")), nil
	}
	tasks, err := r.testTasks(ctx)
	if err != nil {
		return providerFailure(c.name, err), nil
	}
	outcomes := make([]TestOutcome, 0, len(tasks))
	for _, t := range tasks {
		code, err := r.host.Tasks.Run(ctx, t)
		if err != nil {
			log.Warningf("%s: %s: %s", c.name, t.Name, err)
		}
		outcomes = append(outcomes, TestOutcome{Name: t.Name, ExitCode: code})
	}
	r.setLastTests(outcomes)
	return Data(outcomes), nil
}

func (r *Router) getLastTestResults(_ context.Context, _ *call, _ *tools.NoArgs) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Data(append([]TestOutcome{}, r.lastTests...)), nil
}

// record decodes a configuration argument, requiring its identifying key.
func record(name tools.Name, k workspacecfg.Kind, raw tools.Object) (workspacecfg.Record, error) {
	rec, err := workspacecfg.NewRecord(json.RawMessage(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArguments, name, err)
	}
	if k.ID(rec) == "" {
		return nil, fmt.Errorf("%w: %s: %q is required", ErrInvalidArguments, name, k.Key)
	}
	return rec, nil
}

// partial decodes an optional merge argument.
func partial(name tools.Name, raw tools.Object) (workspacecfg.Record, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	rec, err := workspacecfg.NewRecord(json.RawMessage(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArguments, name, err)
	}
	return rec, nil
}

func noFolder(verb string) *Result {
	return Data(obj{verb: false, "reason": "No workspace folder"})
}

func (r *Router) listConfigs(k workspacecfg.Kind) func(context.Context, *call, *tools.NoArgs) (*Result, error) {
	return func(ctx context.Context, _ *call, _ *tools.NoArgs) (*Result, error) {
		folder, ok := r.firstFolder()
		if !ok {
			return Data([]workspacecfg.Record{}), nil
		}
		return Data(r.configs.List(ctx, folder, k)), nil
	}
}

// addConfig, updateConfig and removeConfig implement the CRUD tools of both
// managed files. Answers name the record by the kind's key field.
func (r *Router) addConfig(ctx context.Context, c *call, k workspacecfg.Kind, raw tools.Object) (*Result, error) {
	rec, err := record(c.name, k, raw)
	if err != nil {
		return nil, err
	}
	folder, ok := r.firstFolder()
	if !ok {
		return noFolder("added"), nil
	}
	if err := r.configs.Add(ctx, folder, k, rec); err != nil {
		log.Warningf("%s: %s", c.name, err)
		return Data(obj{"added": false, "error": err.Error()}), nil
	}
	return Data(obj{"added": true, k.Key: k.ID(rec)}), nil
}

func (r *Router) updateConfig(ctx context.Context, c *call, k workspacecfg.Kind, id string, raw tools.Object) (*Result, error) {
	patch, err := partial(c.name, raw)
	if err != nil {
		return nil, err
	}
	folder, ok := r.firstFolder()
	if !ok {
		return noFolder("updated"), nil
	}
	updated, err := r.configs.Update(ctx, folder, k, id, patch)
	if err != nil {
		log.Warningf("%s: %s", c.name, err)
		return Data(obj{"updated": false, k.Key: id, "error": err.Error()}), nil
	}
	if !updated {
		return Data(obj{"updated": false, k.Key: id, "reason": "Not found"}), nil
	}
	return Data(obj{"updated": true, k.Key: id}), nil
}

func (r *Router) removeConfig(ctx context.Context, c *call, k workspacecfg.Kind, verb, id string) (*Result, error) {
	folder, ok := r.firstFolder()
	if !ok {
		return noFolder(verb), nil
	}
	removed, err := r.configs.Remove(ctx, folder, k, id)
	if err != nil {
		log.Warningf("%s: %s", c.name, err)
		return Data(obj{verb: false, k.Key: id, "error": err.Error()}), nil
	}
	return Data(obj{verb: removed, k.Key: id}), nil
}

func (r *Router) addRunConfiguration(ctx context.Context, c *call, args *tools.AddConfigurationArgs) (*Result, error) {
	return r.addConfig(ctx, c, workspacecfg.Launch, args.Configuration)
}

func (r *Router) updateRunConfiguration(ctx context.Context, c *call, args *tools.UpdateConfigurationArgs) (*Result, error) {
	return r.updateConfig(ctx, c, workspacecfg.Launch, args.Name, args.Configuration)
}

func (r *Router) deleteRunConfiguration(ctx context.Context, c *call, args *tools.NameArgs) (*Result, error) {
	return r.removeConfig(ctx, c, workspacecfg.Launch, "deleted", args.Name)
}

func (r *Router) addBuildTask(ctx context.Context, c *call, args *tools.AddTaskArgs) (*Result, error) {
	return r.addConfig(ctx, c, workspacecfg.Tasks, args.Task)
}

func (r *Router) updateBuildTask(ctx context.Context, c *call, args *tools.UpdateTaskArgs) (*Result, error) {
	return r.updateConfig(ctx, c, workspacecfg.Tasks, args.Label, args.Task)
}

func (r *Router) removeBuildTask(ctx context.Context, c *call, args *tools.LabelArgs) (*Result, error) {
	return r.removeConfig(ctx, c, workspacecfg.Tasks, "removed", args.Label)
}

func (r *Router) startConfiguration(noDebug bool) func(context.Context, *call, *tools.NameArgs) (*Result, error) {
	return func(ctx context.Context, c *call, args *tools.NameArgs) (*Result, error) {
		msg := fmt.Sprintf("Start debug configuration %q?", args.Name)
		if noDebug {
			msg = fmt.Sprintf("Start without debugging %q?", args.Name)
		}
		if !r.confirm(ctx, msg, "") {
			return Data(rejected("started")), nil
		}
		folder, _ := r.firstFolder()
		ok, err := r.host.Debug.Start(ctx, folder, args.Name, noDebug)
		if err != nil {
			log.Warningf("%s: %s", c.name, err)
			return Data(obj{"started": false, "name": args.Name, "error": err.Error()}), nil
		}
		return Data(obj{"started": ok, "name": args.Name}), nil
	}
}

// taskMatches reports whether a host task answers to label.
func taskMatches(t host.Task, label string) bool {
	if t.Name == label || t.Detail == label || t.Source == label {
		return true
	}
	if l, ok := t.Definition["label"].(string); ok && l == label {
		return true
	}
	return false
}

func (r *Router) runBuildTask(ctx context.Context, c *call, args *tools.LabelArgs) (*Result, error) {
	if !r.confirm(ctx, fmt.Sprintf("Run build task %q?", args.Label), "") {
		return Data(rejected("started")), nil
	}
	tasks, err := r.host.Tasks.Tasks(ctx)
	if err != nil {
		return providerFailure(c.name, err), nil
	}
	for _, t := range tasks {
		if !taskMatches(t, args.Label) {
			continue
		}
		code, err := r.host.Tasks.Run(ctx, t)
		if err != nil {
			log.Warningf("%s: %s: %s", c.name, args.Label, err)
			return Data(obj{"started": false, "label": args.Label, "error": err.Error()}), nil
		}
		return Data(obj{"started": true, "label": args.Label, "exitCode": code}), nil
	}
	return Data(obj{"started": false, "reason": "Task not found"}), nil
}
