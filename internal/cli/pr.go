package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dshills/vulnscout/internal/config"
	"github.com/dshills/vulnscout/internal/github"
	"github.com/dshills/vulnscout/internal/githubapp"
	"github.com/dshills/vulnscout/internal/output"
	"github.com/dshills/vulnscout/internal/webhook"
)

var (
	flagPRRepo         string
	flagPRHeadSHA      string
	flagPRInstallation int64
	flagPRDryRun       bool
)

var prCmd = &cobra.Command{
	Use:   "pr <number>",
	Short: "Scan a GitHub pull request",
	Long: "Fetch the changed source files of a pull request, scan them, and post the report as a PR comment.\n" +
		"Authenticates with GITHUB_TOKEN, or with the GitHub App when --installation is set.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := strconv.Atoi(args[0])
		if err != nil || number <= 0 {
			fmt.Fprintf(os.Stderr, "Error: invalid PR number %q\n", args[0])
			exitCode = ExitUsageError
			return nil
		}

		cfg, err := loadConfig(map[string]string{
			"scan.format":   flagFormat,
			"scan.failOn":   flagFailOn,
			"llm.providers": flagProviders,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitUsageError
			return nil
		}

		owner, repo, err := resolveRepo(flagPRRepo)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\nUse --repo owner/name to specify it manually.\n", err)
			exitCode = ExitUsageError
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

		token, err := prToken(ctx, cfg, a)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitAuthError
			return nil
		}

		client := github.NewClient(cfg.GitHub.APIURL)
		pr := webhook.PullRequest{Owner: owner, Repo: repo, Number: number, HeadSHA: flagPRHeadSHA}
		if pr.HeadSHA == "" {
			sha, err := client.HeadSHA(ctx, token, owner, repo, number)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				exitCode = ExitRuntimeError
				return nil
			}
			pr.HeadSHA = sha
		}

		proc := webhook.NewProcessor(client, a.scans, webhook.ProcessorOptions{
			MaxConcurrency: cfg.Webhook.MaxConcurrency,
			CommentOnClean: cfg.Webhook.CommentOnClean,
			DryRun:         flagPRDryRun,
			Version:        version,
			Logger:         a.log,
		})

		fmt.Fprintf(os.Stderr, "Scanning %s...\n", pr)
		report, err := proc.Process(ctx, token, pr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

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

// resolveRepo parses --repo or falls back to the origin remote.
func resolveRepo(flag string) (owner, repo string, err error) {
	if flag != "" {
		return github.ParseRepo(flag)
	}
	return github.DetectRepo()
}

// prToken prefers an installation token when --installation is given.
func prToken(ctx context.Context, cfg config.Config, a *app) (string, error) {
	if flagPRInstallation > 0 {
		auth := githubapp.New(githubapp.Config{
			AppID:          cfg.GitHub.AppID,
			PrivateKey:     cfg.GitHub.PrivateKey,
			PrivateKeyPath: cfg.GitHub.PrivateKeyPath,
			APIURL:         cfg.GitHub.APIURL,
		}, a.log)
		return auth.InstallationToken(ctx, flagPRInstallation)
	}
	if cfg.GitHub.Token == "" {
		return "", fmt.Errorf("no GitHub credentials: set GITHUB_TOKEN or pass --installation")
	}
	return cfg.GitHub.Token, nil
}

func init() {
	prCmd.Flags().StringVar(&flagPRRepo, "repo", "", "Repository as owner/name or a remote URL (default: origin remote)")
	prCmd.Flags().StringVar(&flagPRHeadSHA, "ref", "", "Commit to read files at (default: PR head)")
	prCmd.Flags().Int64Var(&flagPRInstallation, "installation", 0, "GitHub App installation ID to authenticate as")
	prCmd.Flags().BoolVar(&flagPRDryRun, "dry-run", false, "Scan without posting the PR comment")
	prCmd.Flags().BoolVar(&flagNoLLM, "no-llm", false, "Skip LLM providers and run the pattern engine only")
	prCmd.Flags().StringVar(&flagProviders, "providers", "", "Comma-separated providers to use, in fallback order")
	prCmd.Flags().StringVarP(&flagFormat, "format", "f", "", "Output format (text, json, markdown, sarif)")
	prCmd.Flags().StringVarP(&flagOut, "out", "o", "", "Write output to file instead of stdout")
	prCmd.Flags().StringVar(&flagFailOn, "fail-on", "", "Exit 1 when a finding meets this severity")
}
