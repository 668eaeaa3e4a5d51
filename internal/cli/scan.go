package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/vulnscout/internal/gitctx"
	"github.com/dshills/vulnscout/internal/model"
	"github.com/dshills/vulnscout/internal/output"
	"github.com/dshills/vulnscout/internal/scan"
)

var (
	flagLanguage  string
	flagFormat    string
	flagOut       string
	flagFailOn    string
	flagStaged    bool
	flagNoLLM     bool
	flagNoRedact  bool
	flagExclude   []string
	flagProviders string
)

// stdinName is the path argument that reads code from standard input.
const stdinName = "-"

// scanInput is one piece of code ready to scan.
type scanInput struct {
	Filename string
	Code     string
}

var scanCmd = &cobra.Command{
	Use:   "scan [path...]",
	Short: "Scan source files for vulnerabilities",
	Long: "Scan files or directories with the pattern engine and the configured LLM providers.\n" +
		"Use - to read code from stdin, or --staged to scan the files staged in git.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !flagStaged && len(args) == 0 {
			fmt.Fprintln(os.Stderr, "Error: nothing to scan; pass a path, - for stdin, or --staged")
			exitCode = ExitUsageError
			return nil
		}

		cfg, err := loadConfig(scanOverrides())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitUsageError
			return nil
		}

		inputs, skipped, err := gatherInputs(cmd.InOrStdin(), args, flagStaged, flagExclude)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		a, err := newApp(cfg, appOptions{NoLLM: flagNoLLM})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		scans := scanAll(ctx, a.scans, inputs, flagLanguage, cfg.Webhook.MaxConcurrency)
		report := output.NewReport(version, scans...)
		report.Skipped = skipped

		if err := output.WriteReport(report, cfg.Scan.Format, flagOut); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		if exceedsThreshold(report.Findings(), cfg.Scan.FailOn) {
			exitCode = ExitFindings
		}
		return nil
	},
}

func scanOverrides() map[string]string {
	overrides := map[string]string{
		"scan.format":   flagFormat,
		"scan.failOn":   flagFailOn,
		"llm.providers": flagProviders,
	}
	if flagNoRedact {
		overrides["privacy.redactSecrets"] = strconv.FormatBool(false)
	}
	return overrides
}

// gatherInputs resolves the scan arguments into code. Files that cannot be
// read are reported back as skipped rather than failing the whole run.
func gatherInputs(stdin io.Reader, args []string, staged bool, exclude []string) ([]scanInput, []string, error) {
	if staged {
		return stagedInputs(exclude)
	}

	var (
		inputs  []scanInput
		skipped []string
		paths   []string
	)
	for _, arg := range args {
		if arg != stdinName {
			paths = append(paths, arg)
			continue
		}
		data, err := io.ReadAll(io.LimitReader(stdin, gitctx.MaxFileBytes+1))
		if err != nil {
			return nil, nil, fmt.Errorf("reading stdin: %w", err)
		}
		if len(data) > gitctx.MaxFileBytes {
			return nil, nil, fmt.Errorf("stdin exceeds %d bytes", gitctx.MaxFileBytes)
		}
		inputs = append(inputs, scanInput{Code: string(data)})
	}

	files, err := gitctx.CollectFiles(paths, exclude)
	if err != nil {
		return nil, nil, err
	}
	for _, path := range files {
		data, err := readLimited(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			skipped = append(skipped, path)
			continue
		}
		inputs = append(inputs, scanInput{Filename: path, Code: data})
	}
	return inputs, skipped, nil
}

func stagedInputs(exclude []string) ([]scanInput, []string, error) {
	repo, err := gitctx.Open(".")
	if err != nil {
		return nil, nil, err
	}
	files, err := repo.StagedFiles(exclude)
	if err != nil {
		return nil, nil, err
	}
	var (
		inputs  []scanInput
		skipped []string
	)
	for _, path := range files {
		content, err := repo.StagedContent(path)
		if err != nil || len(content) > gitctx.MaxFileBytes {
			skipped = append(skipped, path)
			continue
		}
		inputs = append(inputs, scanInput{Filename: path, Code: content})
	}
	return inputs, skipped, nil
}

func readLimited(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.Size() > gitctx.MaxFileBytes {
		return "", fmt.Errorf("%s: file exceeds %d bytes", path, gitctx.MaxFileBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// scanAll scans inputs with at most limit in flight, preserving input order.
func scanAll(ctx context.Context, svc *scan.Service, inputs []scanInput, language string, limit int) []*model.Scan {
	if limit <= 0 {
		limit = 1
	}
	scans := make([]*model.Scan, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, in := range inputs {
		g.Go(func() error {
			scans[i] = svc.ScanCode(gctx, scan.Request{
				Code:     in.Code,
				Filename: in.Filename,
				Language: language,
			})
			return nil
		})
	}
	_ = g.Wait()
	return scans
}

// exceedsThreshold reports whether any finding is at or above failOn.
func exceedsThreshold(findings []model.Finding, failOn string) bool {
	failOn = strings.ToLower(failOn)
	for _, f := range findings {
		if model.MeetsThreshold(f.Severity, failOn) {
			return true
		}
	}
	return false
}

func init() {
	scanCmd.Flags().StringVarP(&flagLanguage, "language", "l", "", "Language of the code (default: detected from file extension)")
	scanCmd.Flags().StringVarP(&flagFormat, "format", "f", "", "Output format (text, json, markdown, sarif)")
	scanCmd.Flags().StringVarP(&flagOut, "out", "o", "", "Write output to file instead of stdout")
	scanCmd.Flags().StringVar(&flagFailOn, "fail-on", "", "Exit 1 when a finding meets this severity (none, low, medium, high, critical)")
	scanCmd.Flags().BoolVar(&flagStaged, "staged", false, "Scan files staged in git")
	scanCmd.Flags().BoolVar(&flagNoLLM, "no-llm", false, "Skip LLM providers and run the pattern engine only")
	scanCmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Send code to LLM providers without secret redaction")
	scanCmd.Flags().StringVar(&flagProviders, "providers", "", "Comma-separated providers to use, in fallback order")
	scanCmd.Flags().StringSliceVar(&flagExclude, "exclude", nil, "Glob patterns of files to skip")
}
