// Package audit is the LLM side of a scan. It builds a deterministic,
// taxonomy-constrained prompt, walks the configured providers in order and
// returns the first well-formed answer.
//
// Analyze never fails: unavailable or failing providers are logged and
// skipped, and when none answers the result is empty with provider "none".
// Code is redacted before it leaves the process when privacy.redactSecrets is
// on; the pattern engine still sees the original text.
package audit
