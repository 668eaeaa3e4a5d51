// Package model defines the Finding and Scan records shared by every stage of
// the scan pipeline.
//
// A Finding is one reported vulnerability instance. Pattern-sourced findings
// carry Description/Fix and a Confidence; LLM-sourced findings carry
// Issue/FixInstruction. The Source field records provenance and drives the
// merge policy in package merge.
//
// A Scan is the immutable result of analyzing one file or snippet.
package model
