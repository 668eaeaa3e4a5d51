package redact

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Placeholder replaces every redacted value.
const Placeholder = "[REDACTED]"

// assignment patterns capture the key and separator in group 1.
var assignmentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\w*(?:api[_-]?key|apikey|api[_-]?secret|aws[_-]?secret[_-]?access[_-]?key)\w*["']?\s*(?::=|[:=])\s*)["']?[A-Za-z0-9/+=_.-]{16,}["']?`),
	regexp.MustCompile(`(?i)(\w*(?:secret|token|password|passwd|pwd|credential|client[_-]?secret)\w*["']?\s*(?::=|[:=])\s*)["'][^"'\n]{4,}["']`),
	regexp.MustCompile(`(?i)((?:postgres|postgresql|mysql|mongodb(?:\+srv)?|redis|amqp)://[^:\s/]+:)[^@\s]+(@)`),
}

// secretPatterns are replaced wholesale.
var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	regexp.MustCompile(`AIza[0-9A-Za-z_\-]{35}`),
	regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`),
	regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`),
	regexp.MustCompile(`-----BEGIN[ \t]+(?:RSA[ \t]+|EC[ \t]+|OPENSSH[ \t]+)?PRIVATE KEY-----`),
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`),
	regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`),
	regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`),
	regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`),
}

// Secrets replaces detected secrets in text with Placeholder. The number of
// lines is unchanged.
func Secrets(text string) string {
	result := text
	for _, pat := range assignmentPatterns {
		result = pat.ReplaceAllStringFunc(result, func(match string) string {
			sub := pat.FindStringSubmatch(match)
			out := sub[1] + `"` + Placeholder + `"`
			if len(sub) > 2 {
				out = sub[1] + Placeholder + sub[2]
			}
			return out
		})
	}
	for _, pat := range secretPatterns {
		result = pat.ReplaceAllString(result, Placeholder)
	}
	return result
}

// ShouldRedactPath checks if a file path matches any of the redaction path patterns.
func ShouldRedactPath(path string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, path)
		if err == nil && matched {
			return true
		}
		// "**/.env" should also match a bare ".env" at any depth.
		cleanPattern := strings.TrimPrefix(pattern, "**/")
		if cleanPattern != pattern {
			base := filepath.Base(path)
			matched, err = filepath.Match(cleanPattern, base)
			if err == nil && matched {
				return true
			}
		}
	}
	return false
}
