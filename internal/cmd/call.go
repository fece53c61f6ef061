package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bifrost-mcp/bifrost/internal/mcp"
	"github.com/bifrost-mcp/bifrost/internal/tools"
)

var (
	callList bool
	callPipe bool
)

var callCmd = &cobra.Command{
	Use:   "call [tool] [json-args]",
	Short: "Call one tool from the command line",
	Long: `Call any bifrost tool with JSON arguments and print its result.

The call runs through the same router and headless host as the MCP server,
so confirmation prompts, cursor tags and review state work the same way
within one invocation.

Modes:
  bifrost call --list                          List all tools and parameters
  bifrost call <tool> '{"key":"value"}'        Call a tool with JSON args
  bifrost call --pipe                          Read JSON lines from stdin

Examples:
  bifrost call --list --format json
  bifrost call list_files '{"limit":20}'
  bifrost call get_document_symbols '{"textDocument":{"uri":"main.go"}}'
  bifrost call get_workspace_symbols '{"query":"Router"}'
  echo '{"tool":"get_workspace_diagnostics","args":{}}' | bifrost call --pipe`,
	Args: cobra.MaximumNArgs(2),
	RunE: runCall,
}

func init() {
	rootCmd.AddCommand(callCmd)
	callCmd.Flags().BoolVar(&callList, "list", false, "List all available tools and their parameters")
	callCmd.Flags().BoolVar(&callPipe, "pipe", false, "Read JSON lines from stdin (pipe mode)")
}

func runCall(cmd *cobra.Command, args []string) error {
	if callList {
		return writeSchemas(cmd.OutOrStdout(), outputFormat)
	}
	if !callPipe && len(args) == 0 {
		return fmt.Errorf("tool name required (run 'bifrost call --list' to see available tools)")
	}

	var toolArgs map[string]any
	if !callPipe {
		var err error
		if toolArgs, err = parseToolArgs(args); err != nil {
			return err
		}
	}

	s, err := openSession(cmd.Context(), sessionOptions{noWatch: true})
	if err != nil {
		return err
	}
	defer s.Close()

	if callPipe {
		return runCallPipe(cmd, s, cmd.InOrStdin(), cmd.OutOrStdout())
	}

	res := s.server.CallTool(cmd.Context(), tools.Name(args[0]), toolArgs)
	text := mcp.ResultText(res)
	if res.IsError {
		return fmt.Errorf("%s", text)
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}

func parseToolArgs(args []string) (map[string]any, error) {
	toolArgs := map[string]any{}
	if len(args) >= 2 {
		if err := json.Unmarshal([]byte(args[1]), &toolArgs); err != nil {
			return nil, fmt.Errorf("invalid JSON args: %w", err)
		}
		if toolArgs == nil {
			toolArgs = map[string]any{}
		}
	}
	return toolArgs, nil
}

// writeSchemas prints the tool catalog with input schemas.
func writeSchemas(out io.Writer, format string) error {
	schemas, err := catalogSchemas()
	if err != nil {
		return err
	}

	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(schemas)
	case "jsonl":
		enc := json.NewEncoder(out)
		for _, s := range schemas {
			if err := enc.Encode(s); err != nil {
				return err
			}
		}
		return nil
	default: // yaml
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(schemas)
	}
}

// pipeRequest is the JSON format for pipe mode input.
type pipeRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}

// pipeResponse is the JSON format for pipe mode output.
type pipeResponse struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func runCallPipe(cmd *cobra.Command, s *session, in io.Reader, out io.Writer) error {
	enc := json.NewEncoder(out)
	scanner := bufio.NewScanner(in)
	// Allow larger lines (1MB)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var req pipeRequest
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			enc.Encode(pipeResponse{Error: fmt.Sprintf("invalid JSON: %v", err)})
			continue
		}
		if req.Args == nil {
			req.Args = map[string]any{}
		}

		res := s.server.CallTool(cmd.Context(), tools.Name(req.Tool), req.Args)
		text := mcp.ResultText(res)
		if res.IsError {
			enc.Encode(pipeResponse{Error: text})
			continue
		}
		enc.Encode(pipeResponse{Result: rawResult(text)})
	}

	return scanner.Err()
}

// rawResult passes JSON results through and quotes status text.
func rawResult(text string) json.RawMessage {
	if json.Valid([]byte(text)) {
		return json.RawMessage(text)
	}
	b, _ := json.Marshal(text)
	return b
}
