// Package router dispatches tool calls to the host.
//
// A call is validated against the catalog, its arguments are decoded into
// the tool's typed argument struct, the target document is resolved, and the
// tool's handler produces a Result. Gated tools ask the confirmation gate
// before acting. Provider failures never escape Dispatch: they become a
// fallback, an {error} value or a status result.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/bifrost-mcp/bifrost/internal/config"
	"github.com/bifrost-mcp/bifrost/internal/cursortag"
	"github.com/bifrost-mcp/bifrost/internal/gate"
	"github.com/bifrost-mcp/bifrost/internal/host"
	"github.com/bifrost-mcp/bifrost/internal/lineedit"
	"github.com/bifrost-mcp/bifrost/internal/review"
	"github.com/bifrost-mcp/bifrost/internal/search"
	"github.com/bifrost-mcp/bifrost/internal/terminal"
	"github.com/bifrost-mcp/bifrost/internal/tools"
	"github.com/bifrost-mcp/bifrost/internal/workspacecfg"
)

var log = commonlog.GetLogger("bifrost.router")

// ErrUnknownTool is returned for a name outside the catalog.
var ErrUnknownTool = errors.New("unknown tool")

// ErrInvalidArguments is returned for arguments that do not decode or miss a
// required field.
var ErrInvalidArguments = errors.New("invalid arguments")

// PlaceholderURI stands in for the document when neither the arguments nor
// the active editor name one.
const PlaceholderURI = "file:///tmp/bifrost-placeholder"

// Options tunes a Router. Zero values select the defaults.
type Options struct {
	// Registerer receives the dispatch metrics. Nil leaves them unregistered.
	Registerer prometheus.Registerer
	// Gate replaces the gate built from the host memento and window.
	Gate *gate.Gate
	// Getenv replaces os.Getenv for the gate's environment override.
	Getenv func(string) string
}

// TestOutcome is the result of one test task.
type TestOutcome struct {
	Name     string `json:"name"`
	ExitCode *int   `json:"exitCode"`
}

// Router owns every piece of state the tools share.
type Router struct {
	host *host.Host
	cfg  *config.Config

	gate     *gate.Gate
	tags     *cursortag.Registry
	review   *review.Manager
	lines    *lineedit.Engine
	configs  *workspacecfg.Store
	terminal *terminal.Runner
	search   *search.Searcher
	validate *validator.Validate
	metrics  *metrics
	handlers map[tools.Name]handler

	mu        sync.Mutex
	watches   []string
	lastTests []TestOutcome
}

// New builds a router over h. cfg may be nil for the defaults. It fails when
// a collaborator is missing or when the handler table and the catalog
// disagree.
func New(h *host.Host, cfg *config.Config, opts Options) (*Router, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	g := opts.Gate
	if g == nil {
		var err error
		g, err = gate.New(h.Memento, h.Window, h.Workspace.Folders, gate.Options{
			EnvOverride: cfg.Gate.EnvOverride,
			MementoKey:  cfg.Gate.MementoKey,
			Getenv:      opts.Getenv,
		})
		if err != nil {
			return nil, err
		}
	}

	r := &Router{
		host:     h,
		cfg:      cfg,
		gate:     g,
		tags:     cursortag.New(cfg.Cursor.Capacity, cfg.Cursor.TTL),
		review:   review.New(h.Workspace, h.Window),
		lines:    lineedit.New(h.Workspace),
		configs:  workspacecfg.New(h.Workspace),
		terminal: terminal.New(h.Shell, cfg.Terminal.Shell),
		search:   search.New(h.Workspace, h.Search, search.ExcludeGlob(cfg.Search.Exclude)),
		validate: validator.New(),
		metrics:  newMetrics(opts.Registerer),
	}
	r.handlers = r.table()
	if err := checkHandlers(r.handlers, tools.Catalog()); err != nil {
		return nil, err
	}
	return r, nil
}

// Gate returns the confirmation gate.
func (r *Router) Gate() *gate.Gate { return r.gate }

// Review returns the patch review queue.
func (r *Router) Review() *review.Manager { return r.review }

// checkHandlers verifies that every catalog entry has exactly one handler
// accepting its argument type and that no handler lacks an entry.
func checkHandlers(table map[tools.Name]handler, catalog []tools.Descriptor) error {
	var problems []string
	seen := map[tools.Name]bool{}
	for _, d := range catalog {
		seen[d.Name] = true
		h, ok := table[d.Name]
		if !ok {
			problems = append(problems, fmt.Sprintf("%s: no handler", d.Name))
			continue
		}
		if !h.accepts(d.NewArgs()) {
			problems = append(problems, fmt.Sprintf("%s: handler does not accept %T", d.Name, d.NewArgs()))
		}
	}
	for name := range table {
		if !seen[name] {
			problems = append(problems, fmt.Sprintf("%s: handler without catalog entry", name))
		}
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("router: tool table mismatch: %s", strings.Join(problems, "; "))
	}
	return nil
}

// call is one dispatch in flight.
type call struct {
	name tools.Name
	args any
	// uri is the resolved document: explicit, else the active editor's, else
	// PlaceholderURI.
	uri      string
	explicit bool
	pos      *protocol.Position
}

// position returns the call's position or an argument error.
func (c *call) position() (protocol.Position, error) {
	if c.pos == nil {
		return protocol.Position{}, fmt.Errorf("%w: position is required for %s", ErrInvalidArguments, c.name)
	}
	return *c.pos, nil
}

type handler struct {
	accepts func(args any) bool
	run     func(ctx context.Context, c *call) (*Result, error)
}

// bind adapts a typed handler to the table.
func bind[T any](fn func(ctx context.Context, c *call, args *T) (*Result, error)) handler {
	return handler{
		accepts: func(args any) bool {
			_, ok := args.(*T)
			return ok
		},
		run: func(ctx context.Context, c *call) (*Result, error) {
			args, ok := c.args.(*T)
			if !ok {
				return nil, fmt.Errorf("%w: %s: unexpected argument type %T", ErrInvalidArguments, c.name, c.args)
			}
			return fn(ctx, c, args)
		},
	}
}

// Dispatch runs one tool call. The error is non-nil only for an unknown tool
// or invalid arguments; every other outcome is a Result.
func (r *Router) Dispatch(ctx context.Context, name tools.Name, args map[string]any) (*Result, error) {
	start := time.Now()
	ctx, span := startDispatchSpan(ctx, name)

	res, err := r.dispatch(ctx, name, args)

	outcome := outcomeOK
	switch {
	case errors.Is(err, ErrUnknownTool):
		outcome = outcomeUnknown
	case err != nil:
		outcome = outcomeInvalid
	case res.IsError:
		outcome = outcomeStatusError
	}
	r.metrics.observe(name, outcome, time.Since(start))
	endDispatchSpan(span, outcome, err)
	return res, err
}

func (r *Router) dispatch(ctx context.Context, name tools.Name, args map[string]any) (*Result, error) {
	desc, ok := tools.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	h := r.handlers[name]

	if args == nil {
		args = map[string]any{}
	}
	c := &call{name: name}

	uri, explicit, notFound := r.resolveDocument(ctx, args)
	if notFound != nil {
		return notFound, nil
	}
	c.uri, c.explicit = uri, explicit

	raw, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArguments, name, err)
	}
	typed := desc.NewArgs()
	if err := json.Unmarshal(raw, typed); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArguments, name, err)
	}
	if err := r.validate.Struct(typed); err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrInvalidArguments, name, describeValidation(err))
	}
	c.args = typed

	var probe struct {
		Position *tools.Position `json:"position"`
	}
	if json.Unmarshal(raw, &probe) == nil && probe.Position.Valid() {
		p := probe.Position.Protocol()
		c.pos = &p
	}

	log.Debugf("dispatch %s uri=%s", name, c.uri)
	res, err := h.run(ctx, c)
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = Data(nil)
	}
	return res, nil
}

// resolveDocument picks the document a call addresses. An explicit URI that
// does not exist yields the file-not-found status result.
func (r *Router) resolveDocument(ctx context.Context, args map[string]any) (string, bool, *Result) {
	if td, ok := args["textDocument"].(map[string]any); ok {
		if raw, ok := td["uri"].(string); ok && raw != "" {
			uri, err := host.ParseURI(raw)
			if err != nil {
				return "", false, StatusError("Error: File not found - " + raw)
			}
			if _, err := r.host.Workspace.Stat(ctx, uri); err != nil {
				return "", false, StatusError("Error: File not found - " + host.FSPath(uri))
			}
			return uri, true, nil
		}
	}
	if ed, ok := r.host.Window.ActiveEditor(); ok {
		return ed.URI, false, nil
	}
	return PlaceholderURI, false, nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", lowerFirst(fe.Field())))
		case "min":
			parts = append(parts, fmt.Sprintf("%s must be at least %s", lowerFirst(fe.Field()), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", lowerFirst(fe.Field()), fe.Tag()))
		}
	}
	return strings.Join(parts, ", ")
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// providerFailure logs a provider error and turns it into {error} data.
func providerFailure(name tools.Name, err error) *Result {
	log.Warningf("%s: provider failed: %s", name, err)
	return errorData(err)
}

// rejected is the answer of a gated tool the user declined.
func rejected(verb string) obj { return gate.Rejected(verb) }

// confirm asks the gate and reports whether to proceed.
func (r *Router) confirm(ctx context.Context, message, target string) bool {
	return r.gate.Confirm(ctx, message, target)
}

// firstFolder returns the first workspace folder URI.
func (r *Router) firstFolder() (string, bool) {
	folders := r.host.Workspace.Folders()
	if len(folders) == 0 {
		return "", false
	}
	return folders[0], true
}
