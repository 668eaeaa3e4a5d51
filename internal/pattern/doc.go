// Package pattern implements the deterministic, line-oriented regex scanner.
//
// Rules are a static table keyed by vulnerability category (RCE,
// SQL_INJECTION, SECRET, LOGIC) and restricted to a set of languages. For
// each applicable rule every line is tested against the rule's regexes in
// order; the first match emits one finding for that line and the remaining
// regexes of that rule are skipped.
//
// The engine performs no I/O and never fails: malformed or empty input simply
// yields no findings.
package pattern
