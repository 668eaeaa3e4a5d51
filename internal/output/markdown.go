package output

import (
	"io"
	"strings"

	"github.com/dshills/vulnscout/internal/model"
)

// MarkdownWriter outputs the PR comment body.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *Report) error {
	ew := &errWriter{w: w}
	c := report.Summary.Counts

	ew.printf("## :shield: vulnscout security scan\n\n")
	ew.printf("Scanned **%d** file(s). Risk score: **%.1f/10**\n\n", len(report.Scans), report.RiskScore)

	ew.printf("| Severity | Count |\n")
	ew.printf("|----------|-------|\n")
	ew.printf("| Critical | %d |\n", c.Critical)
	ew.printf("| High | %d |\n", c.High)
	ew.printf("| Medium | %d |\n", c.Medium)
	ew.printf("| Low | %d |\n", c.Low)
	if c.Other > 0 {
		ew.printf("| Other | %d |\n", c.Other)
	}
	ew.printf("| **Total** | **%d** |\n\n", c.Total())

	if failed := report.Failed(); len(failed) > 0 || len(report.Skipped) > 0 {
		ew.printf("> :warning: Not scanned:")
		for _, sc := range failed {
			ew.printf(" `%s`", displayName(sc))
		}
		for _, name := range report.Skipped {
			ew.printf(" `%s`", name)
		}
		ew.printf("\n\n")
	}

	findings := report.Findings()
	if len(findings) == 0 {
		ew.println("No vulnerabilities found. :white_check_mark:")
		return ew.err
	}

	grouped := groupBySeverity(findings)
	for _, sev := range severityOrder {
		fs := grouped[sev]
		if len(fs) == 0 {
			continue
		}
		ew.printf("<details>\n<summary>%s %s (%d)</summary>\n\n",
			mdSeverityIcon(sev), strings.ToUpper(string(sev)), len(fs))

		for _, f := range fs {
			ew.printf("### %s\n\n", f.Type)
			ew.printf("**`%s`** | %s", location(f), f.Source)
			if f.Confidence > 0 {
				ew.printf(" | Confidence: %d%%", f.Confidence)
			}
			ew.printf("\n\n%s\n\n", f.Message())

			if fix := f.Remediation(); fix != "" {
				ew.printf("**Fix:**\n\n")
				if looksLikeCode(fix) {
					ew.printf("```%s\n%s\n```\n\n", inferLang(f.Filename), fix)
				} else {
					ew.printf("> %s\n\n", strings.ReplaceAll(fix, "\n", "\n> "))
				}
			}
			ew.printf("---\n\n")
		}
		ew.printf("</details>\n\n")
	}

	ew.printf("*Scanned in %dms*\n", report.DurationMs)
	return ew.err
}

func mdSeverityIcon(s model.Severity) string {
	switch s {
	case model.SeverityCritical:
		return ":red_circle:"
	case model.SeverityHigh:
		return ":orange_circle:"
	case model.SeverityMedium:
		return ":yellow_circle:"
	default:
		return ":white_circle:"
	}
}

func looksLikeCode(s string) bool {
	codeIndicators := []string{
		"func ", "return ", "const ", "def ", "import ",
		"{", "}", "=>", ":=", "==", "();",
	}
	for _, indicator := range codeIndicators {
		if strings.Contains(s, indicator) {
			return true
		}
	}
	return false
}

func inferLang(path string) string {
	langMap := map[string]string{
		".go":   "go",
		".py":   "python",
		".js":   "javascript",
		".jsx":  "jsx",
		".ts":   "typescript",
		".tsx":  "tsx",
		".java": "java",
		".kt":   "kotlin",
		".rb":   "ruby",
		".cs":   "csharp",
		".php":  "php",
	}
	for ext, lang := range langMap {
		if strings.HasSuffix(path, ext) {
			return lang
		}
	}
	return ""
}

// Comment renders the markdown PR comment body for report.
func Comment(report *Report) string {
	var b strings.Builder
	_ = (&MarkdownWriter{}).Write(&b, report)
	return b.String()
}
