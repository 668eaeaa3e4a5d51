// Vulnscout scans source code for security vulnerabilities with a regex
// pattern engine and LLM audits.
//
// It scans files, stdin, staged changes and GitHub pull requests, and serves
// an HTTP API with a GitHub App webhook that comments scan reports on PRs.
// Exit codes are deterministic for CI gating and git hooks.
//
// Usage:
//
//	vulnscout scan ./src               # scan a directory
//	vulnscout scan --staged            # scan staged files (pre-commit)
//	cat app.js | vulnscout scan -      # scan code from stdin
//	vulnscout pr 42 --repo owner/name  # scan a pull request
//	vulnscout serve                    # run the API and webhook receiver
package main
