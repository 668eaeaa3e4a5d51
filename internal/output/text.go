package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/vulnscout/internal/model"
)

// TextWriter outputs a human-readable text report.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, report *Report) error {
	ew := &errWriter{w: w}
	c := report.Summary.Counts

	ew.printf("vulnscout %s: %d file(s) scanned\n", report.Version, len(report.Scans))
	if report.Repo != "" {
		ew.printf("Repository: %s", report.Repo)
		if report.PRNumber != nil {
			ew.printf(" (PR #%d)", *report.PRNumber)
		}
		ew.println("")
	}
	ew.println(strings.Repeat("-", 60))
	ew.printf("Findings: %d total", c.Total())
	if c.Total() > 0 {
		ew.printf(" (%d critical, %d high, %d medium, %d low", c.Critical, c.High, c.Medium, c.Low)
		if c.Other > 0 {
			ew.printf(", %d other", c.Other)
		}
		ew.printf(")")
	}
	ew.printf("\nRisk score: %.1f/10\n", report.RiskScore)
	ew.println(strings.Repeat("-", 60))

	for _, sc := range report.Failed() {
		ew.printf("[x] %s: scan failed: %s\n", displayName(sc), sc.Error)
	}

	findings := report.Findings()
	if len(findings) == 0 {
		ew.println("\nNo vulnerabilities found.")
		return ew.err
	}

	grouped := groupBySeverity(findings)
	for _, sev := range severityOrder {
		fs := grouped[sev]
		if len(fs) == 0 {
			continue
		}
		ew.printf("\n%s %s\n", severityIcon(sev), strings.ToUpper(string(sev)))
		ew.println(strings.Repeat("-", 40))

		for _, f := range fs {
			ew.printf("\n  %s  %s\n", location(f), f.Type)
			ew.printf("  Source: %s", f.Source)
			if f.Confidence > 0 {
				ew.printf(" | Confidence: %d%%", f.Confidence)
			}
			ew.println("")
			for _, line := range wrapText(f.Message(), 70) {
				ew.printf("    %s\n", line)
			}
			if fix := f.Remediation(); fix != "" {
				ew.println("  Fix:")
				for _, line := range wrapText(fix, 70) {
					ew.printf("    %s\n", line)
				}
			}
		}
	}

	ew.printf("\n%s\n", strings.Repeat("-", 60))
	ew.printf("Completed in %dms\n", report.DurationMs)
	return ew.err
}

func displayName(sc *model.Scan) string {
	if sc.Filename != "" {
		return sc.Filename
	}
	return "snippet"
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func severityIcon(s model.Severity) string {
	switch s {
	case model.SeverityCritical:
		return "[!!!]"
	case model.SeverityHigh:
		return "[!!]"
	case model.SeverityMedium:
		return "[!]"
	default:
		return "[-]"
	}
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	var current strings.Builder
	for _, word := range strings.Fields(text) {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
