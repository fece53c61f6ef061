package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bifrost-mcp/bifrost/internal/config"
	"github.com/bifrost-mcp/bifrost/internal/memento"
	"github.com/bifrost-mcp/bifrost/internal/parser"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the bifrost setup",
	Long: `Run health checks on the project setup.

Checks:
  - Workspace folders exist
  - State database integrity (SQLite integrity_check)
  - Parsers load for every supported language
  - Terminal shell is on PATH

Examples:
  bifrost doctor`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

type doctorResult struct {
	passed       bool
	issueDetails []string
}

func runDoctor(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	root, err := projectRoot()
	if err != nil {
		return err
	}

	checks := []struct {
		name string
		run  func() doctorResult
	}{
		{"workspace folders", func() doctorResult { return checkFolders(workspaceFolders(root, cfg)) }},
		{"state database", func() doctorResult { return checkState(filepath.Join(root, config.ConfigDirName)) }},
		{"parsers", checkParsers},
		{"terminal shell", func() doctorResult { return checkShell(cfg.Terminal.Shell) }},
	}

	fmt.Fprintln(out, "# bifrost doctor")
	totalIssues := 0
	for _, c := range checks {
		result := c.run()
		if result.passed {
			fmt.Fprintf(out, "#   ✓ %s OK\n", c.name)
			continue
		}
		fmt.Fprintf(out, "#   ✗ %s\n", c.name)
		for _, detail := range result.issueDetails {
			fmt.Fprintf(out, "#     - %s\n", detail)
		}
		totalIssues += len(result.issueDetails)
	}

	fmt.Fprintln(out, "#")
	if totalIssues == 0 {
		fmt.Fprintln(out, "# Summary: All checks passed ✓")
		return nil
	}
	fmt.Fprintf(out, "# Summary: %d issue(s) found\n", totalIssues)
	return nil
}

func checkFolders(folders []string) doctorResult {
	var issues []string
	for _, f := range folders {
		info, err := os.Stat(f)
		switch {
		case err != nil:
			issues = append(issues, fmt.Sprintf("%s: %v", f, err))
		case !info.IsDir():
			issues = append(issues, fmt.Sprintf("%s is not a directory", f))
		}
	}
	return doctorResult{passed: len(issues) == 0, issueDetails: issues}
}

// checkState runs the integrity check when the database exists. A missing
// database is created on first use, so it is not an issue.
func checkState(dir string) doctorResult {
	if _, err := os.Stat(filepath.Join(dir, memento.FileName)); os.IsNotExist(err) {
		return doctorResult{passed: true}
	}
	state, err := memento.Open(dir)
	if err != nil {
		return doctorResult{issueDetails: []string{err.Error()}}
	}
	defer state.Close()
	problems, err := state.IntegrityCheck()
	if err != nil {
		return doctorResult{issueDetails: []string{err.Error()}}
	}
	return doctorResult{passed: len(problems) == 0, issueDetails: problems}
}

func checkParsers() doctorResult {
	var issues []string
	for _, lang := range parser.Languages() {
		p, err := parser.NewParser(lang)
		if err != nil {
			issues = append(issues, err.Error())
			continue
		}
		p.Close()
	}
	return doctorResult{passed: len(issues) == 0, issueDetails: issues}
}

func checkShell(shell string) doctorResult {
	if shell == "" {
		shell = "sh"
	}
	if _, err := exec.LookPath(shell); err != nil {
		return doctorResult{issueDetails: []string{fmt.Sprintf("%s: %v", shell, err)}}
	}
	return doctorResult{passed: true}
}
