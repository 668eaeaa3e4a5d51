package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/dshills/vulnscout/internal/model"
)

// Provider names accepted by New.
const (
	NameGroq      = "groq"
	NameOpenAI    = "openai"
	NameOllama    = "ollama"
	NameLMStudio  = "lmstudio"
	NameAnthropic = "anthropic"
	NameGemini    = "gemini"
)

// Names lists every supported provider in default fallback order.
var Names = []string{NameGroq, NameOpenAI, NameAnthropic, NameGemini, NameOllama, NameLMStudio}

// Request contains the prompts sent to an LLM for an audit.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
}

// Result is the normalized audit answer of one provider.
type Result struct {
	Findings   []model.Finding
	RiskScore  float64
	TokensUsed int
}

// Provider is the LLM abstraction used by the audit gateway.
type Provider interface {
	Name() string
	Model() string
	// Available reports whether the provider can be called: it has a
	// credential, or for local servers, answers a reachability probe.
	Available(ctx context.Context) bool
	Audit(ctx context.Context, req Request) (Result, error)
}

// Options configures a provider instance.
type Options struct {
	Model   string
	BaseURL string
	APIKey  string
}

// IsLocal reports whether name refers to a keyless local server.
func IsLocal(name string) bool {
	return name == NameOllama || name == NameLMStudio
}

// Known reports whether name is a supported provider.
func Known(name string) bool {
	_, err := canonical(name)
	return err == nil
}

func canonical(name string) (string, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "google":
		return NameGemini, nil
	case NameGroq, NameOpenAI, NameOllama, NameLMStudio, NameAnthropic, NameGemini:
		return n, nil
	default:
		return "", fmt.Errorf("unknown provider: %s", name)
	}
}

// New creates a provider by name.
func New(name string, opts Options) (Provider, error) {
	n, err := canonical(name)
	if err != nil {
		return nil, err
	}
	switch n {
	case NameAnthropic:
		return NewAnthropic(opts), nil
	case NameGemini:
		return NewGemini(opts), nil
	default:
		return NewOpenAI(n, opts), nil
	}
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(name string) string {
	switch name {
	case NameGroq:
		return "llama-3.3-70b-versatile"
	case NameOpenAI:
		return "gpt-4o-mini"
	case NameOllama:
		return "llama3.1"
	case NameLMStudio:
		return "local-model"
	case NameAnthropic:
		return "claude-3-5-haiku-latest"
	case NameGemini:
		return "gemini-2.0-flash"
	default:
		return ""
	}
}

func newClient(baseURL string) *resty.Client {
	return resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(120 * time.Second)
}
