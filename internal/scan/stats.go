package scan

import (
	"math"

	"github.com/dshills/vulnscout/internal/model"
)

// Stats aggregates a list of scans.
type Stats struct {
	Total         int                  `json:"total"`
	Completed     int                  `json:"completed"`
	Failed        int                  `json:"failed"`
	TotalFindings int                  `json:"totalFindings"`
	AverageRisk   float64              `json:"averageRisk"`
	MaxRisk       float64              `json:"maxRisk"`
	BySeverity    model.SeverityCounts `json:"bySeverity"`
	ByType        map[string]int       `json:"byType"`
	ByProvider    map[string]int       `json:"byProvider"`
}

// ComputeStats summarizes scans. Average risk covers completed scans only.
func ComputeStats(scans []model.Scan) Stats {
	st := Stats{
		ByType:     map[string]int{},
		ByProvider: map[string]int{},
	}
	var riskSum float64
	for _, sc := range scans {
		st.Total++
		if sc.Status == model.StatusFailed {
			st.Failed++
			continue
		}
		st.Completed++
		riskSum += sc.RiskScore
		st.MaxRisk = math.Max(st.MaxRisk, sc.RiskScore)
		st.ByProvider[sc.Provider]++
		for _, f := range sc.Findings {
			st.TotalFindings++
			st.BySeverity.Add(f.Severity)
			st.ByType[f.Type]++
		}
	}
	if st.Completed > 0 {
		st.AverageRisk = math.Round(riskSum/float64(st.Completed)*10) / 10
	}
	return st
}
