// Package scan orchestrates one scan: pattern engine, then the LLM gateway,
// then merge and score, then persistence.
//
// ScanCode is total. Empty input yields a failed scan that is not stored; a
// storage failure marks the scan failed but keeps its findings. Every other
// problem has already been absorbed by the components below.
package scan
