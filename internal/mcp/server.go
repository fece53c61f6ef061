// Package mcp exposes the bifrost tool catalog as an MCP (Model Context
// Protocol) server. Every call goes through the router; this package only
// translates between MCP requests and router results.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/tliron/commonlog"

	"github.com/bifrost-mcp/bifrost/internal/router"
	"github.com/bifrost-mcp/bifrost/internal/tools"
)

var log = commonlog.GetLogger("bifrost.mcp")

// Version is reported to clients during initialization.
var Version = "0.1.0"

// Dispatcher runs one tool call. *router.Router satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, name tools.Name, args map[string]any) (*router.Result, error)
}

// Server wraps the MCP server with the router behind it.
type Server struct {
	mcpServer    *server.MCPServer
	dispatcher   Dispatcher
	tools        map[tools.Name]bool
	lastActivity time.Time
	timeout      time.Duration
	mu           sync.RWMutex
}

// Config holds server configuration
type Config struct {
	Name    string        // Server name reported to clients (empty = "bifrost")
	Tools   []string      // Which tools to expose (empty = all)
	Timeout time.Duration // Inactivity timeout (0 = no timeout)
}

// New creates an MCP server that forwards calls to d.
func New(d Dispatcher, cfg Config) (*Server, error) {
	name := cfg.Name
	if name == "" {
		name = "bifrost"
	}

	s := &Server{
		mcpServer:    server.NewMCPServer(name, Version, server.WithToolCapabilities(false), server.WithRecovery()),
		dispatcher:   d,
		tools:        make(map[tools.Name]bool),
		lastActivity: time.Now(),
		timeout:      cfg.Timeout,
	}

	toolsToRegister := cfg.Tools
	if len(toolsToRegister) == 0 {
		for _, n := range tools.Names() {
			toolsToRegister = append(toolsToRegister, string(n))
		}
	}

	for _, toolName := range toolsToRegister {
		if err := s.registerTool(tools.Name(toolName)); err != nil {
			return nil, fmt.Errorf("failed to register tool %s: %w", toolName, err)
		}
	}
	return s, nil
}

// registerTool registers a single catalog entry with the MCP server
func (s *Server) registerTool(name tools.Name) error {
	desc, ok := tools.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", router.ErrUnknownTool, name)
	}
	tool := mcp.NewToolWithRawSchema(string(desc.Name), desc.Description, desc.InputSchema())
	s.mcpServer.AddTool(tool, s.handle)

	s.mu.Lock()
	s.tools[name] = true
	s.mu.Unlock()
	return nil
}

func (s *Server) handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()
	return s.CallTool(ctx, tools.Name(req.Params.Name), req.GetArguments()), nil
}

// CallTool dispatches a call to a registered tool and converts the outcome
// to an MCP result. Unknown tools and invalid arguments become error
// results; they are never protocol errors.
func (s *Server) CallTool(ctx context.Context, name tools.Name, args map[string]any) (res *mcp.CallToolResult) {
	defer func() {
		if p := recover(); p != nil {
			log.Criticalf("panic in %s: %v", name, p)
			res = mcp.NewToolResultError(fmt.Sprintf("%s: internal error: %v", name, p))
		}
	}()

	s.mu.RLock()
	registered := s.tools[name]
	s.mu.RUnlock()
	if !registered {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %s", router.ErrUnknownTool, name))
	}

	out, err := s.dispatcher.Dispatch(ctx, name, args)
	if err != nil {
		if !errors.Is(err, router.ErrUnknownTool) && !errors.Is(err, router.ErrInvalidArguments) {
			log.Errorf("dispatch %s: %s", name, err)
		}
		return mcp.NewToolResultError(err.Error())
	}
	return toCallResult(out)
}

func toCallResult(res *router.Result) *mcp.CallToolResult {
	if res.Kind == tools.KindStatus {
		if res.IsError {
			return mcp.NewToolResultError(res.Text)
		}
		return mcp.NewToolResultText(res.Text)
	}
	text, err := res.JSON()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err))
	}
	return mcp.NewToolResultText(text)
}

// ResultText joins the text content of res.
func ResultText(res *mcp.CallToolResult) string {
	var parts []string
	for _, c := range res.Content {
		if text, ok := c.(mcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// ServeStdio serves MCP over stdin/stdout until the client disconnects, ctx
// is cancelled or the inactivity timeout expires.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve serves MCP over the given streams.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.timeout > 0 {
		go s.timeoutChecker(ctx, cancel)
	}

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(stdlog.New(io.Discard, "", 0))
	err := stdio.Listen(ctx, in, out)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// timeoutChecker cancels serving once the server has been idle for longer
// than the timeout.
func (s *Server) timeoutChecker(ctx context.Context, cancel context.CancelFunc) {
	interval := min(30*time.Second, s.timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if s.idle() > s.timeout {
			log.Noticef("timeout after %v of inactivity", s.timeout)
			cancel()
			return
		}
	}
}

func (s *Server) idle() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.lastActivity)
}

// updateActivity updates the last activity timestamp
func (s *Server) updateActivity() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// ListTools returns the registered tool names, sorted.
func (s *Server) ListTools() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.tools))
	for t := range s.tools {
		names = append(names, string(t))
	}
	sort.Strings(names)
	return names
}

// ToolSchema describes a tool's name, description, and input schema.
type ToolSchema struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description" yaml:"description"`
	Result      string         `json:"result" yaml:"result"`
	Gated       bool           `json:"gated" yaml:"gated"`
	InputSchema map[string]any `json:"inputSchema" yaml:"inputSchema"`
}

// GetToolSchemas returns schemas for all registered tools in catalog order.
func (s *Server) GetToolSchemas() ([]ToolSchema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var schemas []ToolSchema
	for _, d := range tools.Catalog() {
		if !s.tools[d.Name] {
			continue
		}
		schema, err := decodeSchema(d.InputSchema())
		if err != nil {
			return nil, fmt.Errorf("schema for %s: %w", d.Name, err)
		}
		schemas = append(schemas, ToolSchema{
			Name:        string(d.Name),
			Description: d.Description,
			Result:      string(d.Result),
			Gated:       d.Gated,
			InputSchema: schema,
		})
	}
	return schemas, nil
}

func decodeSchema(raw json.RawMessage) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
