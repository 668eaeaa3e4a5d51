// Package cache provides a file-based cache for LLM audit results.
//
// Entries are keyed by a SHA-256 hash of the provider name, model and the
// redacted prompt. Each entry stores the normalized findings and risk score
// with a creation timestamp; entries older than the TTL are treated as misses
// and removed on read.
//
// The default cache directory is $XDG_CACHE_HOME/vulnscout (or the
// OS-appropriate equivalent). Everything written here has already been
// through secret redaction.
package cache
