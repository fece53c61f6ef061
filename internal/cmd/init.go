package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bifrost-mcp/bifrost/internal/config"
	"github.com/bifrost-mcp/bifrost/internal/memento"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the .bifrost directory",
	Long: `Initialize the .bifrost directory in the current directory.

This writes .bifrost/config.yaml with the default settings and creates
.bifrost/state.db, which keeps the confirmation mode between sessions.

Examples:
  bifrost init          # Initialize in current directory
  bifrost init --force  # Rewrite config.yaml with the defaults`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var initForce bool

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config.yaml")
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	out := cmd.OutOrStdout()

	dir := filepath.Join(cwd, config.ConfigDirName)
	relPath, _ := filepath.Rel(cwd, dir)
	cfgPath := filepath.Join(dir, config.ConfigFileName)

	_, err = os.Stat(cfgPath)
	switch {
	case err == nil && !initForce:
		fmt.Fprintf(out, "Already initialized at %s\n", relPath)
		return nil
	case err == nil:
		if err := os.Remove(cfgPath); err != nil {
			return fmt.Errorf("removing existing config: %w", err)
		}
	case !os.IsNotExist(err):
		return fmt.Errorf("checking config path: %w", err)
	}

	if _, err := config.SaveDefault(cwd); err != nil {
		return err
	}

	state, err := memento.Open(dir)
	if err != nil {
		return fmt.Errorf("initializing state database: %w", err)
	}
	defer state.Close()

	fmt.Fprintf(out, "Initialized bifrost at %s\n", relPath)
	return nil
}
