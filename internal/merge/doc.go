// Package merge combines pattern-engine and LLM findings into one
// deduplicated list and computes the hybrid risk score.
//
// Two findings are considered the same issue when their coarse buckets match
// and their lines are within LineWindow of each other. LLM findings are
// preferred because they carry richer explanations; pattern findings fill the
// gaps the model missed.
package merge
