// Package store persists completed scans.
//
// Store is the only contract the scan service sees. Two implementations
// exist: SQLite (durable, modernc.org/sqlite, no cgo) and Memory (a bounded
// process-local list used when no database is configured). Scans are
// append-only; List returns newest first.
package store
