package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bifrost-mcp/bifrost/internal/gate"
	"github.com/bifrost-mcp/bifrost/internal/host/local"
)

var (
	approveOn     bool
	approveOff    bool
	approveStatus bool
)

var approveCmd = &cobra.Command{
	Use:   "approve",
	Short: "Show or change the confirmation mode",
	Long: `Show or change whether destructive tools run without asking.

The mode is stored in .bifrost/state.db and shared by every bifrost process
in the project. Setting the override environment variable (default
BIFROST_AUTO_APPROVE=1) forces auto-approve regardless of the stored mode.
Without flags the mode is toggled.

Examples:
  bifrost approve --status    # Show the current mode
  bifrost approve --on        # Run destructive tools without asking
  bifrost approve --off       # Ask before every destructive tool
  bifrost approve             # Toggle`,
	Args: cobra.NoArgs,
	RunE: runApprove,
}

func init() {
	rootCmd.AddCommand(approveCmd)
	approveCmd.Flags().BoolVar(&approveOn, "on", false, "Enable auto-approve")
	approveCmd.Flags().BoolVar(&approveOff, "off", false, "Disable auto-approve")
	approveCmd.Flags().BoolVar(&approveStatus, "status", false, "Show the current mode")
	approveCmd.MarkFlagsMutuallyExclusive("on", "off", "status")
}

func runApprove(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context(), sessionOptions{prompter: local.WriterPrompter{}, noWatch: true})
	if err != nil {
		return err
	}
	defer s.Close()
	g := s.router.Gate()

	switch {
	case approveStatus:
	case approveOn, approveOff:
		if err := g.SetAutoApprove(approveOn); err != nil {
			return err
		}
	default:
		if _, err := g.Toggle(); err != nil {
			return err
		}
	}

	printApproveStatus(cmd, g)
	return nil
}

func printApproveStatus(cmd *cobra.Command, g *gate.Gate) {
	out := cmd.OutOrStdout()
	mode := "ask before destructive tools"
	if g.AutoApprove() {
		mode = "auto-approve"
	}
	fmt.Fprintf(out, "Mode: %s\n", mode)
	if g.EnvOverride() {
		fmt.Fprintf(out, "Override: %s=1 is set, every tool runs without asking\n", cfg.Gate.EnvOverride)
	}
}
