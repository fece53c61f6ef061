package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bifrost-mcp/bifrost/internal/config"
	"github.com/bifrost-mcp/bifrost/internal/host/local"
	"github.com/bifrost-mcp/bifrost/internal/mcp"
	"github.com/bifrost-mcp/bifrost/internal/router"
)

// session is a headless host with the router and MCP server over it.
type session struct {
	host   *local.Host
	router *router.Router
	server *mcp.Server
}

type sessionOptions struct {
	tools      []string
	registerer prometheus.Registerer
	prompter   local.Prompter
	noWatch    bool
}

// projectRoot is the directory holding .bifrost, or the working directory.
func projectRoot() (string, error) {
	if configPath != "" {
		abs, err := filepath.Abs(configPath)
		if err != nil {
			return "", err
		}
		dir := filepath.Dir(abs)
		if filepath.Base(dir) == config.ConfigDirName {
			dir = filepath.Dir(dir)
		}
		return dir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	if dir, err := config.FindConfigDir(cwd); err == nil {
		return filepath.Dir(dir), nil
	}
	return cwd, nil
}

// workspaceFolders resolves the configured folders against root.
func workspaceFolders(root string, c *config.Config) []string {
	if len(c.Workspace.Folders) == 0 {
		return []string{root}
	}
	out := make([]string, 0, len(c.Workspace.Folders))
	for _, f := range c.Workspace.Folders {
		if !filepath.IsAbs(f) {
			f = filepath.Join(root, f)
		}
		out = append(out, filepath.Clean(f))
	}
	return out
}

func openSession(ctx context.Context, opts sessionOptions) (*session, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	root, err := projectRoot()
	if err != nil {
		return nil, err
	}

	h, err := local.New(ctx, local.Options{
		Folders:  workspaceFolders(root, cfg),
		StateDir: filepath.Join(root, config.ConfigDirName),
		Prompter: opts.prompter,
		Config:   cfg,
		NoWatch:  opts.noWatch,
	})
	if err != nil {
		return nil, err
	}

	r, err := router.New(h.Host, cfg, router.Options{Registerer: opts.registerer})
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("create router: %w", err)
	}

	srv, err := mcp.New(r, mcp.Config{Name: cfg.Server.Name, Tools: opts.tools, Timeout: cfg.Server.Timeout})
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("create MCP server: %w", err)
	}
	return &session{host: h, router: r, server: srv}, nil
}

func (s *session) Close() error {
	return s.host.Close()
}
