package cli

import (
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/dshills/vulnscout/internal/audit"
	"github.com/dshills/vulnscout/internal/cache"
	"github.com/dshills/vulnscout/internal/config"
	"github.com/dshills/vulnscout/internal/logging"
	"github.com/dshills/vulnscout/internal/pattern"
	"github.com/dshills/vulnscout/internal/providers"
	"github.com/dshills/vulnscout/internal/scan"
	"github.com/dshills/vulnscout/internal/store"
)

// app is the scan pipeline assembled from configuration.
type app struct {
	cfg     config.Config
	log     hclog.Logger
	store   store.Store
	gateway *audit.Gateway
	scans   *scan.Service
}

type appOptions struct {
	// Persist opens the configured store; CLI scans leave it off.
	Persist bool
	// NoLLM runs the pattern engine only.
	NoLLM bool
}

// loadConfig merges the config file, environment and the given flag
// overrides. The global --log-level flag is always applied.
func loadConfig(overrides map[string]string) (config.Config, error) {
	if overrides == nil {
		overrides = map[string]string{}
	}
	if flagLogLevel != "" {
		overrides["logger.level"] = flagLogLevel
	}
	return config.Load(flagConfig, overrides)
}

func newLogger(cfg config.Config) hclog.Logger {
	return logging.New("vulnscout", logging.Options{
		Level:      cfg.Logger.Level,
		JSONFormat: cfg.Logger.JSONFormat,
	})
}

func newApp(cfg config.Config, opts appOptions) (*app, error) {
	a := &app{cfg: cfg, log: newLogger(cfg)}

	if opts.Persist {
		st, err := store.Open(cfg.Store.Driver, cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("opening store: %w", err)
		}
		a.store = st
	}

	var auditor scan.Auditor
	if !opts.NoLLM {
		gw, err := newGateway(cfg, a.log)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.gateway = gw
		auditor = gw
	}

	a.scans = scan.New(pattern.New(), auditor, a.store, a.log)
	return a, nil
}

func newGateway(cfg config.Config, log hclog.Logger) (*audit.Gateway, error) {
	provs, err := buildProviders(cfg)
	if err != nil {
		return nil, err
	}
	c, err := cache.New(cfg.Cache.Enabled, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	return audit.New(provs, audit.Options{
		Timeout:       cfg.LLMTimeout(),
		RedactSecrets: cfg.Privacy.RedactSecrets,
		RedactPaths:   cfg.Privacy.RedactPaths,
		MaxTokens:     cfg.LLM.MaxTokens,
		Cache:         c,
		Logger:        log,
	}), nil
}

// buildProviders instantiates the enabled providers in configured order.
func buildProviders(cfg config.Config) ([]providers.Provider, error) {
	var provs []providers.Provider
	for _, pc := range cfg.LLM.Providers {
		if !pc.Enabled {
			continue
		}
		p, err := providers.New(pc.Name, providers.Options{
			Model:   pc.Model,
			BaseURL: pc.BaseURL,
			APIKey:  pc.APIKey,
		})
		if err != nil {
			return nil, err
		}
		provs = append(provs, p)
	}
	return provs, nil
}

func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("closing store", "error", err)
		}
	}
}
