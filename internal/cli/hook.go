package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/vulnscout/internal/gitctx"
)

const (
	hookMarkerStart = "# >>> vulnscout pre-commit hook >>>"
	hookMarkerEnd   = "# <<< vulnscout pre-commit hook <<<"
)

var (
	hookFailOn string
	hookFormat string
	hookNoLLM  bool
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Manage the git pre-commit hook",
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install vulnscout as a git pre-commit hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := getHookPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		if err := installHook(hookPath, generateHookScript(hookFailOn, hookFormat, hookNoLLM)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Installed vulnscout pre-commit hook at %s\n", hookPath)
		return nil
	},
}

var hookUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the vulnscout pre-commit hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := getHookPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		removed, err := uninstallHook(hookPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		if !removed {
			fmt.Fprintln(cmd.OutOrStdout(), "No vulnscout pre-commit hook found.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed vulnscout pre-commit hook from %s\n", hookPath)
		return nil
	},
}

// installHook writes section into the hook at path, replacing an earlier
// vulnscout section and keeping anything else the hook runs.
func installHook(path, section string) error {
	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reading hook file: %w", err)
	}

	content := "#!/bin/sh\n" + section
	if len(existing) > 0 {
		content = replaceHookSection(string(existing), section)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating hooks directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		return fmt.Errorf("writing hook file: %w", err)
	}
	return nil
}

// uninstallHook strips the vulnscout section from the hook at path. The file
// is deleted when nothing but a shebang is left.
func uninstallHook(path string) (bool, error) {
	existing, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading hook file: %w", err)
	}
	if !strings.Contains(string(existing), hookMarkerStart) {
		return false, nil
	}

	content := removeHookSection(string(existing))
	switch strings.TrimSpace(content) {
	case "", "#!/bin/sh", "#!/bin/bash":
		if err := os.Remove(path); err != nil {
			return false, fmt.Errorf("removing hook file: %w", err)
		}
		return true, nil
	}
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		return false, fmt.Errorf("writing hook file: %w", err)
	}
	return true, nil
}

func getHookPath() (string, error) {
	repo, err := gitctx.Open(".")
	if err != nil {
		return "", err
	}
	gitDir, err := repo.GitDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(gitDir, "hooks", "pre-commit"), nil
}

func generateHookScript(failOn, format string, noLLM bool) string {
	args := fmt.Sprintf("--staged --fail-on %s --format %s", failOn, format)
	if noLLM {
		args += " --no-llm"
	}
	var b strings.Builder
	b.WriteString(hookMarkerStart + "\n")
	b.WriteString("vulnscout scan " + args + "\n")
	b.WriteString("VULNSCOUT_EXIT=$?\n")
	b.WriteString("if [ $VULNSCOUT_EXIT -eq 1 ]; then\n")
	fmt.Fprintf(&b, "  echo \"vulnscout: %s or worse vulnerabilities found, commit blocked\"\n", failOn)
	b.WriteString("  exit 1\n")
	b.WriteString("elif [ $VULNSCOUT_EXIT -ge 2 ]; then\n")
	b.WriteString("  echo \"vulnscout: scan failed (exit $VULNSCOUT_EXIT), allowing commit\"\n")
	b.WriteString("fi\n")
	b.WriteString(hookMarkerEnd + "\n")
	return b.String()
}

func replaceHookSection(existing, section string) string {
	startIdx := strings.Index(existing, hookMarkerStart)
	endIdx := strings.Index(existing, hookMarkerEnd)

	if startIdx == -1 || endIdx == -1 {
		if !strings.HasSuffix(existing, "\n") {
			existing += "\n"
		}
		return existing + section
	}

	before := existing[:startIdx]
	after := existing[endIdx+len(hookMarkerEnd):]
	after = strings.TrimPrefix(after, "\n")
	return before + section + after
}

func removeHookSection(existing string) string {
	startIdx := strings.Index(existing, hookMarkerStart)
	endIdx := strings.Index(existing, hookMarkerEnd)

	if startIdx == -1 || endIdx == -1 {
		return existing
	}

	before := existing[:startIdx]
	after := existing[endIdx+len(hookMarkerEnd):]
	after = strings.TrimPrefix(after, "\n")

	return before + after
}

func init() {
	hookCmd.AddCommand(hookInstallCmd)
	hookCmd.AddCommand(hookUninstallCmd)
	hookInstallCmd.Flags().StringVar(&hookFailOn, "fail-on", "high", "Block the commit at this severity (low, medium, high, critical)")
	hookInstallCmd.Flags().StringVar(&hookFormat, "format", "text", "Output format (text, json, markdown, sarif)")
	hookInstallCmd.Flags().BoolVar(&hookNoLLM, "no-llm", false, "Run the pattern engine only")
}
