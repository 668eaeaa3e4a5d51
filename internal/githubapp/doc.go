// Package githubapp authenticates as a GitHub App.
//
// An Auth signs short-lived RS256 App JWTs and exchanges them for
// installation access tokens. Tokens are held by a TokenCache keyed by
// installation id and reused until five minutes before they expire; refreshes
// for one installation are collapsed so concurrent callers share a single
// exchange.
//
// Configuration problems (missing app id, unreadable or malformed key) are
// captured when the Auth is built and reported as *AuthError on first use, so
// a long-running server can start without GitHub credentials.
package githubapp
