// Package server exposes the manual scan API and the GitHub webhook over HTTP.
//
// Routes:
//
//	GET  /healthz
//	POST /scan
//	GET  /scan?limit=N
//	GET  /scan/{id}[?format=sarif|markdown]
//	POST /webhook/github
package server
