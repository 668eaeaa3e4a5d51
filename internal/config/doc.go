// Package config loads and merges vulnscout configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (VULNSCOUT_ADDR, GITHUB_APP_ID, GROQ_API_KEY, etc.)
//  3. Config file (VULNSCOUT_CONFIG or $XDG_CONFIG_HOME/vulnscout/config.yaml)
//  4. Built-in defaults
//
// The file is YAML and is decoded on top of the defaults, so any key it
// omits keeps its default. Use [Load] to obtain a merged [Config], [Save] to
// write one, and [SetField] to update a single key.
package config
