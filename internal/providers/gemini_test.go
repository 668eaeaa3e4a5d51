package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGemini_Audit(t *testing.T) {
	var got geminiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, geminiResponse{
			Candidates: []geminiCandidate{
				{Content: geminiContent{Parts: []geminiPart{{Text: auditJSON}}}},
			},
			UsageMetadata: geminiUsage{TotalTokenCount: 75},
		})
	}))
	defer server.Close()

	g := NewGemini(Options{APIKey: "test-key", BaseURL: server.URL, Model: "gemini-2.0-flash"})
	res, err := g.Audit(context.Background(), Request{SystemPrompt: "sys", UserPrompt: "user"})
	require.NoError(t, err)

	require.NotNil(t, got.GenerationConfig)
	assert.Equal(t, "application/json", got.GenerationConfig.ResponseMimeType)
	require.NotNil(t, got.GenerationConfig.Temperature)
	assert.Equal(t, 0.0, *got.GenerationConfig.Temperature)
	assert.Len(t, res.Findings, 1)
	assert.Equal(t, 75, res.TokensUsed)
}

func TestGemini_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, geminiResponse{})
	}))
	defer server.Close()

	g := NewGemini(Options{APIKey: "k", BaseURL: server.URL})
	_, err := g.Audit(context.Background(), Request{})
	assert.Error(t, err)
}
