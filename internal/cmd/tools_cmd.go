package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bifrost-mcp/bifrost/internal/mcp"
	"github.com/bifrost-mcp/bifrost/internal/tools"
)

var toolsSchemas bool

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tool catalog",
	Long: `List every tool bifrost exposes with its result kind and whether it asks
for confirmation. Use --schemas for the full input schemas.

Examples:
  bifrost tools                       # Table of tools
  bifrost tools --schemas             # Catalog with input schemas as YAML
  bifrost tools --schemas --format json`,
	Args: cobra.NoArgs,
	RunE: runTools,
}

func init() {
	rootCmd.AddCommand(toolsCmd)
	toolsCmd.Flags().BoolVar(&toolsSchemas, "schemas", false, "Include input schemas")
}

func runTools(cmd *cobra.Command, args []string) error {
	if toolsSchemas {
		return writeSchemas(cmd.OutOrStdout(), outputFormat)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tRESULT\tGATED\tDESCRIPTION")
	for _, d := range tools.Catalog() {
		gated := ""
		if d.Gated {
			gated = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Name, d.Result, gated, d.Description)
	}
	return w.Flush()
}

// catalogSchemas returns every catalog entry with its decoded input schema.
func catalogSchemas() ([]mcp.ToolSchema, error) {
	srv, err := mcp.New(nil, mcp.Config{})
	if err != nil {
		return nil, err
	}
	return srv.GetToolSchemas()
}
