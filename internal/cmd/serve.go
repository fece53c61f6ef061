package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/bifrost-mcp/bifrost/internal/config"
	"github.com/bifrost-mcp/bifrost/internal/tools"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start an MCP (Model Context Protocol) server on stdin/stdout.

Every tool call is routed to the headless host over the workspace folders.
Logs go to stderr or --log-file; stdout carries only the protocol.

Destructive tools (rename, delete_file, run_terminal_command, ...) ask for
confirmation on the controlling terminal unless auto-approve is on. With no
terminal attached the question is declined.

Examples:
  bifrost serve --mcp                                  # Serve every tool
  bifrost serve --mcp --tools find_usages,rename       # Serve a subset
  bifrost serve --mcp --timeout 30m                    # Stop after 30 idle minutes
  bifrost serve --mcp --metrics-addr :9464             # Expose /metrics
  bifrost serve --status                               # Check if a server is running
  bifrost serve --stop                                 # Stop the running server`,
	RunE: runServe,
}

var (
	serveMCP         bool
	serveTools       string
	serveTimeout     string
	serveMetricsAddr string
	serveStatus      bool
	serveStop        bool
	serveListTools   bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "Start MCP server (stdio transport)")
	serveCmd.Flags().StringVar(&serveTools, "tools", "", "Comma-separated list of tools to expose (default: all)")
	serveCmd.Flags().StringVar(&serveTimeout, "timeout", "", "Inactivity timeout, 0 for none (default: server.timeout)")
	serveCmd.Flags().StringVar(&serveMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	serveCmd.Flags().BoolVar(&serveStatus, "status", false, "Check if server is running")
	serveCmd.Flags().BoolVar(&serveStop, "stop", false, "Stop running server")
	serveCmd.Flags().BoolVar(&serveListTools, "list-tools", false, "List available tools")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveListTools {
		out := cmd.OutOrStdout()
		for _, d := range tools.Catalog() {
			fmt.Fprintf(out, "  %-32s %s\n", d.Name, firstSentence(d.Description))
		}
		return nil
	}

	if serveStatus {
		return checkServerStatus(cmd)
	}

	if serveStop {
		return stopServer(cmd)
	}

	if !serveMCP {
		return fmt.Errorf("use --mcp to start the MCP server, or --help for usage")
	}

	if serveTimeout != "" {
		timeout, err := parseDuration(serveTimeout)
		if err != nil {
			return fmt.Errorf("invalid timeout: %w", err)
		}
		cfg.Server.Timeout = timeout
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s, err := openSession(ctx, sessionOptions{tools: splitTools(serveTools), registerer: reg})
	if err != nil {
		return err
	}
	defer s.Close()

	if serveMetricsAddr != "" {
		metricsSrv := startMetrics(serveMetricsAddr, reg)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			metricsSrv.Shutdown(shutdownCtx)
		}()
	}

	if err := writePIDFile(); err != nil {
		log.Warningf("could not write PID file: %s", err)
	}
	defer removePIDFile()

	log.Noticef("serving %d tools over stdio", len(s.server.ListTools()))
	if cfg.Server.Timeout > 0 {
		log.Noticef("inactivity timeout: %v", cfg.Server.Timeout)
	}
	return s.server.ServeStdio(ctx)
}

func startMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("metrics server: %s", err)
		}
	}()
	log.Noticef("metrics on http://%s/metrics", addr)
	return srv
}

// splitTools parses the --tools list. Blank entries are dropped.
func splitTools(list string) []string {
	var out []string
	for _, t := range strings.Split(list, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func firstSentence(s string) string {
	if i := strings.Index(s, ". "); i >= 0 {
		return s[:i+1]
	}
	return s
}

func parseDuration(s string) (time.Duration, error) {
	if s == "0" || s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

func getPIDFilePath() (string, error) {
	dir, err := config.FindConfigDir(".")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "serve.pid"), nil
}

func writePIDFile() error {
	pidPath, err := getPIDFilePath()
	if err != nil {
		return err
	}
	return os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0644)
}

func removePIDFile() {
	pidPath, err := getPIDFilePath()
	if err != nil {
		return
	}
	os.Remove(pidPath)
}

// readPID returns the recorded server process, or ok=false with a reason.
func readPID() (pid int, reason string, ok bool) {
	pidPath, err := getPIDFilePath()
	if err != nil {
		return 0, "bifrost not initialized", false
	}
	data, err := os.ReadFile(pidPath)
	if err != nil {
		return 0, "", false
	}
	pid, err = strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		removePIDFile()
		return 0, "invalid PID file", false
	}
	return pid, "", true
}

func checkServerStatus(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	pid, reason, ok := readPID()
	if !ok {
		if reason != "" {
			fmt.Fprintf(out, "Status: not running (%s)\n", reason)
		} else {
			fmt.Fprintln(out, "Status: not running")
		}
		return nil
	}

	// On Unix, FindProcess always succeeds, so we need to send signal 0 to check
	process, err := os.FindProcess(pid)
	if err == nil {
		err = process.Signal(syscall.Signal(0))
	}
	if err != nil {
		fmt.Fprintln(out, "Status: not running (stale PID file)")
		removePIDFile()
		return nil
	}

	fmt.Fprintf(out, "Status: running (PID %d)\n", pid)
	return nil
}

func stopServer(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	pid, reason, ok := readPID()
	if !ok {
		if reason == "bifrost not initialized" {
			return errors.New(reason)
		}
		fmt.Fprintln(out, "No server running")
		return nil
	}

	process, err := os.FindProcess(pid)
	if err == nil {
		err = process.Signal(syscall.SIGTERM)
	}
	if err != nil {
		removePIDFile()
		fmt.Fprintln(out, "Server already stopped")
		return nil
	}

	fmt.Fprintf(out, "Stopped server (PID %d)\n", pid)
	return nil
}
