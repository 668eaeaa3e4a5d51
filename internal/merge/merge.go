package merge

import (
	"math"
	"sort"
	"strings"

	"github.com/dshills/vulnscout/internal/model"
)

// LineWindow is the maximum line distance at which a pattern finding is
// treated as a duplicate of an LLM finding in the same bucket.
const LineWindow = 2

// Bucket maps a finding type to the coarse category used for duplicate
// detection. The checks are ordered: "SQL_INJECTION" lands in code_exec.
func Bucket(findingType string) string {
	t := strings.ToLower(findingType)
	switch {
	case containsAny(t, "execution", "eval", "rce", "injection"):
		return "code_exec"
	case strings.Contains(t, "sql"):
		return "sql_inj"
	case containsAny(t, "secret", "password", "key"):
		return "credential"
	default:
		return t
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

type lineBucket struct {
	line   int
	bucket string
}

// Merge deduplicates pattern findings against LLM findings using LineWindow.
func Merge(patternFindings, llmFindings []model.Finding) []model.Finding {
	return MergeWithin(patternFindings, llmFindings, LineWindow)
}

// MergeWithin is Merge with an explicit line window.
func MergeWithin(patternFindings, llmFindings []model.Finding, window int) []model.Finding {
	merged := make([]model.Finding, 0, len(llmFindings)+len(patternFindings))
	seen := make(map[lineBucket]bool)

	for _, f := range llmFindings {
		k := lineBucket{f.Line, Bucket(f.Type)}
		if seen[k] {
			continue
		}
		seen[k] = true
		merged = append(merged, f)
	}
	llmCount := len(merged)

	for _, pf := range patternFindings {
		bucket := Bucket(pf.Type)
		k := lineBucket{pf.Line, bucket}
		if seen[k] || covered(pf.Line, bucket, merged[:llmCount], window) {
			continue
		}
		seen[k] = true
		if pf.Issue == "" {
			pf.Issue = pf.Description
		}
		if pf.FixInstruction == "" {
			pf.FixInstruction = pf.Fix
		}
		merged = append(merged, pf)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Line < merged[j].Line
	})
	return merged
}

func covered(line int, bucket string, llm []model.Finding, window int) bool {
	for _, af := range llm {
		if abs(af.Line-line) <= window && Bucket(af.Type) == bucket {
			return true
		}
	}
	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Weight returns the score contribution of one finding of severity s.
func Weight(s model.Severity) float64 {
	switch s {
	case model.SeverityCritical:
		return 2.5
	case model.SeverityHigh:
		return 1.5
	case model.SeverityMedium:
		return 0.7
	case model.SeverityLow:
		return 0.2
	default:
		return 0.5
	}
}

// BaseScore sums severity weights without clamping.
func BaseScore(findings []model.Finding) float64 {
	var base float64
	for _, f := range findings {
		base += Weight(f.Severity)
	}
	return base
}

// Score returns the hybrid risk score in [0,10] rounded to one decimal.
// An empty finding list scores 0 whatever the model reported.
func Score(findings []model.Finding, llmRiskScore float64) float64 {
	if len(findings) == 0 {
		return 0
	}
	score := math.Max(BaseScore(findings), llmRiskScore)
	if math.IsNaN(score) {
		score = 0
	}
	score = math.Min(math.Max(score, 0), 10)
	return math.Round(score*10) / 10
}
