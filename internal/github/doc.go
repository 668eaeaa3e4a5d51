// Package github is the repository side of the webhook flow: it lists the
// files of a pull request, fetches file contents at a commit and posts the
// consolidated report as a PR comment.
//
// Every call is authenticated with the token the caller passes in (an
// installation token in server mode, a personal token from the CLI), so the
// client itself holds no credentials. Calls are not retried. The API base URL
// is configurable for GitHub Enterprise and tests.
package github
