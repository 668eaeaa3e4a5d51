package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

const geminiAPIURL = "https://generativelanguage.googleapis.com/v1beta"

// Gemini implements Provider for Google's Gemini API.
type Gemini struct {
	apiKey string
	model  string
	client *resty.Client
}

// NewGemini creates a new Gemini provider.
func NewGemini(opts Options) *Gemini {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = geminiAPIURL
	}
	modelName := opts.Model
	if modelName == "" {
		modelName = DefaultModel(NameGemini)
	}
	return &Gemini{
		apiKey: opts.APIKey,
		model:  modelName,
		client: newClient(baseURL),
	}
}

func (g *Gemini) Name() string  { return NameGemini }
func (g *Gemini) Model() string { return g.model }

func (g *Gemini) Available(context.Context) bool { return g.apiKey != "" }

func (g *Gemini) Audit(ctx context.Context, req Request) (Result, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}
	var temperature float64

	body := geminiRequest{
		SystemInstruction: &geminiContent{
			Parts: []geminiPart{{Text: req.SystemPrompt}},
		},
		Contents: []geminiContent{
			{
				Role:  "user",
				Parts: []geminiPart{{Text: req.UserPrompt}},
			},
		},
		GenerationConfig: &geminiGenConfig{
			MaxOutputTokens:  maxTokens,
			Temperature:      &temperature,
			ResponseMimeType: "application/json",
		},
	}

	var result Result
	err := retryWithBackoff(ctx, 2, func() error {
		resp, err := g.client.R().
			SetContext(ctx).
			SetHeader("x-goog-api-key", g.apiKey).
			SetPathParam("model", g.model).
			SetBody(body).
			Post("/models/{model}:generateContent")
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		if resp.StatusCode() != http.StatusOK {
			return classify(resp.StatusCode(), resp.Body())
		}

		var out geminiResponse
		if err := json.Unmarshal(resp.Body(), &out); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}
		if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
			return fmt.Errorf("no content in response")
		}

		var content string
		for _, part := range out.Candidates[0].Content.Parts {
			content += part.Text
		}

		parsed, err := ParseAudit(content)
		if err != nil {
			return err
		}
		parsed.TokensUsed = out.UsageMetadata.TotalTokenCount
		result = parsed
		return nil
	})

	return result, fail(NameGemini, err)
}

type geminiRequest struct {
	SystemInstruction *geminiContent   `json:"systemInstruction,omitempty"`
	Contents          []geminiContent  `json:"contents"`
	GenerationConfig  *geminiGenConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	MaxOutputTokens  int      `json:"maxOutputTokens,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
	ResponseMimeType string   `json:"responseMimeType,omitempty"`
}

type geminiResponse struct {
	Candidates    []geminiCandidate `json:"candidates"`
	UsageMetadata geminiUsage       `json:"usageMetadata"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

type geminiUsage struct {
	TotalTokenCount int `json:"totalTokenCount"`
}
