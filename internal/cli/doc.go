// Package cli wires together the Cobra command tree for the vulnscout binary.
//
// It defines the root command and all subcommands (scan, pr, serve,
// providers, config, cache, hook, version), binds flags, reads
// configuration, builds the scan pipeline, and returns deterministic exit
// codes for CI gating.
package cli
