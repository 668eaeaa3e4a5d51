// Package providers implements the Provider interface for each supported LLM
// backend.
//
// Supported providers: the OpenAI-compatible family (OpenAI, Groq, and the
// local Ollama / LM Studio servers), Anthropic (Claude) and Google (Gemini).
//
// Every adapter decodes the model's answer against one strict audit schema
// ({riskScore, findings[]}) at the adapter boundary, so callers only ever see
// normalized findings or a *ProviderError. All adapters share a retry helper
// with exponential back-off for rate limits and transient server errors.
// HTTP goes through a resty client held on each adapter so tests can point it
// at an httptest server.
//
// Use [New] to obtain a Provider by name.
package providers
