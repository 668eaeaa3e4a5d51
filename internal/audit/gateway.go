package audit

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/dshills/vulnscout/internal/cache"
	"github.com/dshills/vulnscout/internal/model"
	"github.com/dshills/vulnscout/internal/providers"
	"github.com/dshills/vulnscout/internal/redact"
)

// DefaultTimeout bounds a single provider call.
const DefaultTimeout = 15 * time.Second

// Result is the gateway's answer for one file.
type Result struct {
	Findings  []model.Finding
	RiskScore float64
	Provider  string
}

// Options tunes a Gateway.
type Options struct {
	Timeout       time.Duration
	RedactSecrets bool
	RedactPaths   []string
	MaxTokens     int
	Cache         *cache.Cache
	Logger        hclog.Logger
}

// Gateway tries providers in order until one returns a well-formed audit.
type Gateway struct {
	providers []providers.Provider
	opts      Options
	log       hclog.Logger
}

// New creates a Gateway over an ordered provider list.
func New(provs []providers.Provider, opts Options) *Gateway {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	log := opts.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Gateway{
		providers: provs,
		opts:      opts,
		log:       log.Named("audit"),
	}
}

// Providers returns the configured providers in fallback order.
func (g *Gateway) Providers() []providers.Provider {
	return g.providers
}

func empty() Result {
	return Result{Findings: []model.Finding{}, Provider: model.ProviderNone}
}

// Analyze audits code with the first available provider that answers.
func (g *Gateway) Analyze(ctx context.Context, code, filename, language string) Result {
	if redact.ShouldRedactPath(filename, g.opts.RedactPaths) {
		g.log.Debug("file withheld from LLM by path policy", "file", filename)
		return empty()
	}

	promptCode := code
	if g.opts.RedactSecrets {
		promptCode = redact.Secrets(code)
	}
	req := providers.Request{
		SystemPrompt: SystemPrompt(),
		UserPrompt:   BuildUserPrompt(promptCode, filename, language),
		MaxTokens:    g.opts.MaxTokens,
	}
	lineCount := len(splitLines(code))

	for _, p := range g.providers {
		if ctx.Err() != nil {
			g.log.Warn("audit cancelled", "file", filename, "error", ctx.Err())
			break
		}
		log := g.log.With("provider", p.Name(), "model", p.Model(), "file", filename)

		if !p.Available(ctx) {
			log.Debug("provider unavailable, skipping")
			continue
		}

		key := cache.BuildKey(p.Name(), p.Model(), req.UserPrompt)
		if g.opts.Cache != nil {
			if entry, ok := g.opts.Cache.Get(key); ok {
				log.Debug("audit cache hit")
				return Result{
					Findings:  inRange(entry.Findings, lineCount),
					RiskScore: entry.RiskScore,
					Provider:  entry.Provider,
				}
			}
		}

		start := time.Now()
		callCtx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
		res, err := p.Audit(callCtx, req)
		cancel()
		if err != nil {
			log.Warn("provider failed, falling through", "error", err, "elapsed", time.Since(start))
			continue
		}

		findings := inRange(res.Findings, lineCount)
		log.Info("audit complete", "findings", len(findings), "risk", res.RiskScore, "elapsed", time.Since(start))

		if g.opts.Cache != nil {
			if err := g.opts.Cache.Put(key, p.Name(), res.RiskScore, findings); err != nil {
				log.Warn("cache write failed", "error", err)
			}
		}
		return Result{Findings: findings, RiskScore: res.RiskScore, Provider: p.Name()}
	}

	g.log.Info("no provider produced an audit", "file", filename)
	return empty()
}

// inRange drops findings that cite lines outside the file.
func inRange(findings []model.Finding, lineCount int) []model.Finding {
	out := make([]model.Finding, 0, len(findings))
	for _, f := range findings {
		if f.Line >= 1 && f.Line <= lineCount {
			out = append(out, f)
		}
	}
	return out
}
