package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/vulnscout/internal/audit"
	"github.com/dshills/vulnscout/internal/config"
	"github.com/dshills/vulnscout/internal/providers"
)

var flagCheckProvider string

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Inspect and check LLM providers",
}

var providersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured providers in fallback order",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitUsageError
			return nil
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PROVIDER\tENABLED\tMODEL\tCREDENTIAL")
		for _, pc := range cfg.LLM.Providers {
			fmt.Fprintf(tw, "%s\t%t\t%s\t%s\n", pc.Name, pc.Enabled, providerModel(pc), credential(pc))
		}
		return tw.Flush()
	},
}

var providersCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Send a probe audit to each enabled provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitUsageError
			return nil
		}

		checked := 0
		for _, pc := range cfg.LLM.Providers {
			if flagCheckProvider != "" && pc.Name != flagCheckProvider {
				continue
			}
			if flagCheckProvider == "" && !pc.Enabled {
				continue
			}
			checked++
			if err := checkProvider(cmd.Context(), cfg, pc); err != nil {
				fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", pc.Name, err)
				code := ExitRuntimeError
				if providers.IsAuthError(err) {
					code = ExitAuthError
				}
				exitCode = max(exitCode, code)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK   %s (%s) is configured and responding\n", pc.Name, providerModel(pc))
		}
		if checked == 0 {
			fmt.Fprintln(os.Stderr, "No matching enabled providers.")
			exitCode = ExitUsageError
		}
		return nil
	},
}

func checkProvider(ctx context.Context, cfg config.Config, pc config.ProviderConfig) error {
	p, err := providers.New(pc.Name, providers.Options{Model: pc.Model, BaseURL: pc.BaseURL, APIKey: pc.APIKey})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, max(cfg.LLMTimeout(), 30*time.Second))
	defer cancel()

	if !p.Available(ctx) {
		return fmt.Errorf("not available (missing API key or server unreachable)")
	}
	_, err = p.Audit(ctx, providers.Request{
		SystemPrompt: audit.SystemPrompt(),
		UserPrompt:   audit.BuildUserPrompt("x := 1\n", "probe.go", "go"),
		MaxTokens:    256,
	})
	return err
}

func providerModel(pc config.ProviderConfig) string {
	if pc.Model != "" {
		return pc.Model
	}
	return providers.DefaultModel(pc.Name)
}

func credential(pc config.ProviderConfig) string {
	switch {
	case providers.IsLocal(pc.Name):
		if pc.BaseURL != "" {
			return pc.BaseURL
		}
		return "local"
	case pc.APIKey != "":
		return "set"
	default:
		return "missing"
	}
}

func init() {
	providersCmd.AddCommand(providersListCmd)
	providersCmd.AddCommand(providersCheckCmd)
	providersCheckCmd.Flags().StringVar(&flagCheckProvider, "provider", "", "Check only this provider, even if disabled")
}
