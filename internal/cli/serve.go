package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/vulnscout/internal/github"
	"github.com/dshills/vulnscout/internal/githubapp"
	"github.com/dshills/vulnscout/internal/server"
	"github.com/dshills/vulnscout/internal/webhook"
)

var flagServeAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and GitHub webhook receiver",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(map[string]string{"server.addr": flagServeAddr})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitUsageError
			return nil
		}

		a, err := newApp(cfg, appOptions{Persist: true})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		defer a.Close()

		auth := githubapp.New(githubapp.Config{
			AppID:          cfg.GitHub.AppID,
			PrivateKey:     cfg.GitHub.PrivateKey,
			PrivateKeyPath: cfg.GitHub.PrivateKeyPath,
			APIURL:         cfg.GitHub.APIURL,
		}, a.log)
		if err := auth.Configured(); err != nil {
			a.log.Warn("GitHub App not configured, pull request events will fail", "error", err)
		}
		if cfg.GitHub.WebhookSecret == "" {
			a.log.Warn("GITHUB_WEBHOOK_SECRET not set, webhook deliveries will be ignored")
		}

		proc := webhook.NewProcessor(github.NewClient(cfg.GitHub.APIURL), a.scans, webhook.ProcessorOptions{
			MaxConcurrency: cfg.Webhook.MaxConcurrency,
			CommentOnClean: cfg.Webhook.CommentOnClean,
			Version:        version,
			Logger:         a.log,
		})
		hook := webhook.New(auth, proc, webhook.Options{
			Secret:         cfg.GitHub.WebhookSecret,
			ProcessTimeout: cfg.WebhookTimeout(),
			Logger:         a.log,
			Async:          cfg.Webhook.Async,
		})

		srv := server.New(server.Config{
			Addr:         cfg.Server.Addr,
			MaxBodyBytes: cfg.Server.MaxBodyBytes,
			Version:      version,
			Logger:       a.log,
		}, a.scans, hook)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			a.log.Error("server stopped", "error", err)
			exitCode = ExitRuntimeError
		}
		hook.Wait()
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "", "Listen address (default :3000)")
}
