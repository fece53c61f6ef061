package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bifrost-mcp/bifrost/internal/tools"
)

// helpAgentsCmd represents the help-agents command
var helpAgentsCmd = &cobra.Command{
	Use:   "help-agents",
	Short: "Output agent-optimized tool reference",
	Long: `Output a concise, token-efficient tool reference for AI agents.

Examples:
  bifrost help-agents                # Markdown output (default)
  bifrost help-agents --format json  # JSON output for parsing`,
	Args: cobra.NoArgs,
	RunE: runHelpAgents,
}

func init() {
	rootCmd.AddCommand(helpAgentsCmd)
}

func runHelpAgents(cmd *cobra.Command, args []string) error {
	if outputFormat == "json" {
		return writeAgentReferenceJSON(cmd.OutOrStdout())
	}
	_, err := io.WriteString(cmd.OutOrStdout(), generateAgentReference())
	return err
}

var agentWorkflow = []string{
	"get_document_symbols / get_workspace_symbols to find code",
	"go_to_definition, find_usages and get_hover_info to understand it",
	"read_range, then replace_lines or apply_patch_review to change it",
	"get_file_diagnostics and run_all_tests to check the change",
}

func generateAgentReference() string {
	var b strings.Builder
	b.WriteString("# bifrost Tool Reference for AI Agents\n\n")
	b.WriteString("Positions are zero-based lines and UTF-16 characters. URIs may be\n")
	b.WriteString("file URIs or paths; relative paths resolve against the working directory.\n\n")

	b.WriteString("## Workflow\n\n")
	for i, step := range agentWorkflow {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}

	b.WriteString("\n## Tools\n\n")
	var gated []string
	for _, d := range tools.Catalog() {
		fmt.Fprintf(&b, "- `%s` (%s) %s\n", d.Name, d.Result, d.Description)
		if d.Gated {
			gated = append(gated, "`"+string(d.Name)+"`")
		}
	}

	b.WriteString("\n## Confirmation\n\n")
	b.WriteString("These tools ask the user before acting and report a rejection when\n")
	b.WriteString("declined: " + strings.Join(gated, ", ") + ".\n")
	b.WriteString("`bifrost approve --on` or BIFROST_AUTO_APPROVE=1 skips the question.\n")
	return b.String()
}

type agentTool struct {
	Name        string `json:"name"`
	Result      string `json:"result"`
	Gated       bool   `json:"gated,omitempty"`
	Description string `json:"description"`
}

func writeAgentReferenceJSON(out io.Writer) error {
	catalog := tools.Catalog()
	list := make([]agentTool, 0, len(catalog))
	for _, d := range catalog {
		list = append(list, agentTool{Name: string(d.Name), Result: string(d.Result), Gated: d.Gated, Description: d.Description})
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"version":  Version,
		"workflow": agentWorkflow,
		"tools":    list,
	})
}
