package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// probeTimeout bounds the reachability check of local servers.
const probeTimeout = 2 * time.Second

// OpenAI implements Provider for every server speaking the OpenAI chat
// completions protocol: OpenAI itself, Groq, Ollama and LM Studio.
type OpenAI struct {
	name    string
	apiKey  string
	model   string
	baseURL string
	client  *resty.Client
}

// NewOpenAI creates an OpenAI-compatible provider. name selects the default
// base URL and model.
func NewOpenAI(name string, opts Options) *OpenAI {
	baseURL := normalizeOpenAIBase(opts.BaseURL)
	if baseURL == "" {
		baseURL = defaultOpenAIBase(name)
	}
	modelName := opts.Model
	if modelName == "" {
		modelName = DefaultModel(name)
	}
	return &OpenAI{
		name:    name,
		apiKey:  opts.APIKey,
		model:   modelName,
		baseURL: baseURL,
		client:  newClient(baseURL),
	}
}

func defaultOpenAIBase(name string) string {
	switch name {
	case NameGroq:
		return "https://api.groq.com/openai/v1"
	case NameOllama:
		return "http://localhost:11434/v1"
	case NameLMStudio:
		return "http://localhost:1234/v1"
	default:
		return "https://api.openai.com/v1"
	}
}

// normalizeOpenAIBase accepts a host, a /v1 root or a full completions URL.
func normalizeOpenAIBase(u string) string {
	u = strings.TrimRight(strings.TrimSpace(u), "/")
	if u == "" {
		return ""
	}
	u = strings.TrimSuffix(u, "/chat/completions")
	if !strings.HasSuffix(u, "/v1") {
		u += "/v1"
	}
	return u
}

func (o *OpenAI) Name() string  { return o.name }
func (o *OpenAI) Model() string { return o.model }

func (o *OpenAI) Available(ctx context.Context) bool {
	if !IsLocal(o.name) {
		return o.apiKey != ""
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	resp, err := o.client.R().SetContext(ctx).Get(strings.TrimSuffix(o.baseURL, "/v1"))
	return err == nil && resp.StatusCode() < http.StatusInternalServerError
}

func (o *OpenAI) Audit(ctx context.Context, req Request) (Result, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	body := openaiRequest{
		Model: o.model,
		Messages: []openaiMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserPrompt},
		},
		MaxTokens:      maxTokens,
		Temperature:    0,
		ResponseFormat: &openaiResponseFormat{Type: "json_object"},
	}

	var result Result
	err := retryWithBackoff(ctx, 2, func() error {
		r := o.client.R().SetContext(ctx).SetBody(body)
		if o.apiKey != "" {
			r.SetAuthToken(o.apiKey)
		}
		resp, err := r.Post("/chat/completions")
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		if resp.StatusCode() != http.StatusOK {
			return classify(resp.StatusCode(), resp.Body())
		}

		var out openaiResponse
		if err := json.Unmarshal(resp.Body(), &out); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}
		if len(out.Choices) == 0 {
			return fmt.Errorf("no choices in response")
		}

		parsed, err := ParseAudit(out.Choices[0].Message.Content)
		if err != nil {
			return err
		}
		parsed.TokensUsed = out.Usage.TotalTokens
		result = parsed
		return nil
	})

	return result, fail(o.name, err)
}

type openaiRequest struct {
	Model          string                `json:"model"`
	Messages       []openaiMessage       `json:"messages"`
	MaxTokens      int                   `json:"max_tokens"`
	Temperature    float64               `json:"temperature"`
	ResponseFormat *openaiResponseFormat `json:"response_format,omitempty"`
}

type openaiResponseFormat struct {
	Type string `json:"type"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Choices []openaiChoice `json:"choices"`
	Usage   openaiUsage    `json:"usage"`
}

type openaiChoice struct {
	Message openaiMessage `json:"message"`
}

type openaiUsage struct {
	TotalTokens int `json:"total_tokens"`
}
