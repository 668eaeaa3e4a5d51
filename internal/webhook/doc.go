// Package webhook receives GitHub App deliveries and turns pull request
// events into a scan of the changed files plus one consolidated comment.
//
// Every delivery is answered with 200. Unverified or uninteresting
// deliveries are acknowledged as ignored; failures while processing a PR are
// logged and reported in the response body only.
package webhook
