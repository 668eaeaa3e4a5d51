// Package output formats scan reports for display or machine consumption.
//
// Four formats are supported:
//   - text     - human-readable terminal output (default)
//   - json     - full structured JSON report
//   - markdown - PR comment body with collapsible sections per severity
//   - sarif    - SARIF v2.1.0 for code scanning upload
//
// Build a [Report] with [NewReport], then use [GetWriter] to obtain a
// [Writer] for a format string. [WriteReport] handles destination selection.
package output
