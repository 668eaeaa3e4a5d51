package providers

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/dshills/vulnscout/internal/model"
)

type auditPayload struct {
	RiskScore float64       `json:"riskScore"`
	Findings  *[]rawFinding `json:"findings"`
}

type rawFinding struct {
	Line           float64 `json:"line"`
	Severity       string  `json:"severity"`
	Type           string  `json:"type"`
	Issue          string  `json:"issue"`
	Description    string  `json:"description"`
	FixInstruction string  `json:"fix_instruction"`
	Fix            string  `json:"fix"`
	Confidence     int     `json:"confidence"`
}

// ParseAudit decodes a model answer into a Result. The answer must be a JSON
// object with a findings array, or a bare findings array. Markdown fences are
// stripped; findings without a positive line are dropped.
func ParseAudit(content string) (Result, error) {
	content = stripFences(content)
	if content == "" {
		return Result{}, fmt.Errorf("%w: empty content", ErrParse)
	}

	var raw []rawFinding
	var risk float64
	if strings.HasPrefix(content, "[") {
		if err := json.Unmarshal([]byte(content), &raw); err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrParse, err)
		}
	} else {
		var payload auditPayload
		if err := json.Unmarshal([]byte(content), &payload); err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrParse, err)
		}
		if payload.Findings == nil {
			return Result{}, fmt.Errorf("%w: missing findings array", ErrParse)
		}
		raw = *payload.Findings
		risk = payload.RiskScore
	}

	findings := make([]model.Finding, 0, len(raw))
	for _, r := range raw {
		line := int(r.Line)
		if line < 1 {
			continue
		}
		findings = append(findings, model.Finding{
			Line:           line,
			Severity:       model.ParseSeverity(r.Severity),
			Type:           strings.TrimSpace(r.Type),
			Issue:          r.Issue,
			Description:    r.Description,
			FixInstruction: r.FixInstruction,
			Fix:            r.Fix,
			Confidence:     r.Confidence,
			Source:         model.SourceLLM,
		})
	}

	return Result{Findings: findings, RiskScore: clampScore(risk)}, nil
}

func clampScore(s float64) float64 {
	if math.IsNaN(s) {
		return 0
	}
	return math.Min(math.Max(s, 0), 10)
}

func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	lines := strings.Split(content, "\n")
	if len(lines) < 2 {
		return ""
	}
	end := len(lines)
	if strings.TrimSpace(lines[end-1]) == "```" {
		end--
	}
	return strings.TrimSpace(strings.Join(lines[1:end], "\n"))
}
