// Package redact removes secrets from source code before it is sent to any
// LLM provider.
//
// Detection uses regex heuristics covering common secret shapes: credential
// assignments, AWS access keys, JWTs, private key headers, bearer tokens,
// database connection strings and provider-specific tokens (Anthropic,
// OpenAI, GitHub, Slack, Google). Replacements never span lines, so line
// numbers in the redacted text still match the original file.
//
// Assignment-shaped secrets keep their left-hand side so the model can still
// report a hardcoded credential on that line.
//
// Path-based redaction is also supported: files whose paths match configured
// glob patterns are withheld from the model entirely.
package redact
