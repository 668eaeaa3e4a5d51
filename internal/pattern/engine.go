package pattern

import (
	"sort"
	"strings"

	"github.com/dshills/vulnscout/internal/model"
)

// Engine evaluates a rule table against source code.
type Engine struct {
	rules []Rule
}

// New returns an engine over DefaultRules.
func New() *Engine {
	return &Engine{rules: DefaultRules}
}

// NewWithRules returns an engine over a caller-supplied table.
func NewWithRules(rules []Rule) *Engine {
	return &Engine{rules: rules}
}

// Scan returns pattern findings for code, sorted by line. Findings on the
// same line keep rule-table order.
func (e *Engine) Scan(code, language string) []model.Finding {
	findings := []model.Finding{}
	if strings.TrimSpace(code) == "" {
		return findings
	}
	lang := NormalizeLanguage(language)
	lines := strings.Split(code, "\n")

	for _, rule := range e.rules {
		if !rule.Languages[lang] {
			continue
		}
		for i, line := range lines {
			line = strings.TrimSuffix(line, "\r")
			for _, re := range rule.Regexes {
				if re.MatchString(line) {
					findings = append(findings, model.Finding{
						Line:        i + 1,
						Severity:    rule.Severity,
						Type:        rule.Name,
						Description: rule.Description,
						Fix:         rule.Fix,
						Confidence:  rule.Confidence,
						Source:      model.SourcePattern,
					})
					break
				}
			}
		}
	}

	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Line < findings[j].Line
	})
	return findings
}

// Rules returns the engine's rule table.
func (e *Engine) Rules() []Rule {
	return e.rules
}
