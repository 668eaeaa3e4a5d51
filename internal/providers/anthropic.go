package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

const (
	anthropicAPIURL     = "https://api.anthropic.com"
	anthropicAPIVersion = "2023-06-01"
)

// Anthropic implements Provider for Anthropic's Messages API.
type Anthropic struct {
	apiKey string
	model  string
	client *resty.Client
}

// NewAnthropic creates a new Anthropic provider.
func NewAnthropic(opts Options) *Anthropic {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = anthropicAPIURL
	}
	modelName := opts.Model
	if modelName == "" {
		modelName = DefaultModel(NameAnthropic)
	}
	return &Anthropic{
		apiKey: opts.APIKey,
		model:  modelName,
		client: newClient(baseURL),
	}
}

func (a *Anthropic) Name() string  { return NameAnthropic }
func (a *Anthropic) Model() string { return a.model }

func (a *Anthropic) Available(context.Context) bool { return a.apiKey != "" }

func (a *Anthropic) Audit(ctx context.Context, req Request) (Result, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	body := anthropicRequest{
		Model:       a.model,
		MaxTokens:   maxTokens,
		System:      req.SystemPrompt,
		Temperature: 0,
		Messages: []anthropicMessage{
			{Role: "user", Content: req.UserPrompt},
		},
	}

	var result Result
	err := retryWithBackoff(ctx, 2, func() error {
		resp, err := a.client.R().
			SetContext(ctx).
			SetHeader("x-api-key", a.apiKey).
			SetHeader("anthropic-version", anthropicAPIVersion).
			SetBody(body).
			Post("/v1/messages")
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		if resp.StatusCode() != http.StatusOK {
			return classify(resp.StatusCode(), resp.Body())
		}

		var out anthropicResponse
		if err := json.Unmarshal(resp.Body(), &out); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}

		var content string
		for _, block := range out.Content {
			if block.Type == "text" {
				content += block.Text
			}
		}

		parsed, err := ParseAudit(content)
		if err != nil {
			return err
		}
		parsed.TokensUsed = out.Usage.InputTokens + out.Usage.OutputTokens
		result = parsed
		return nil
	})

	return result, fail(NameAnthropic, err)
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Temperature float64            `json:"temperature"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []anthropicBlock `json:"content"`
	Usage   anthropicUsage   `json:"usage"`
}

type anthropicBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}
