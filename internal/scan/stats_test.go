package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/vulnscout/internal/model"
)

func TestComputeStats(t *testing.T) {
	scans := []model.Scan{
		{Status: model.StatusCompleted, RiskScore: 2.5, Provider: "groq", Findings: []model.Finding{
			{Type: model.TypeRCE, Severity: model.SeverityCritical},
		}},
		{Status: model.StatusCompleted, RiskScore: 4, Provider: model.ProviderNone, Findings: []model.Finding{
			{Type: model.TypeSecret, Severity: model.SeverityHigh},
			{Type: model.TypeSQLInjection, Severity: model.SeverityHigh},
		}},
		{Status: model.StatusFailed, RiskScore: 0},
	}
	st := ComputeStats(scans)
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 2, st.Completed)
	assert.Equal(t, 1, st.Failed)
	assert.Equal(t, 3, st.TotalFindings)
	assert.Equal(t, 3.3, st.AverageRisk)
	assert.Equal(t, 4.0, st.MaxRisk)
	assert.Equal(t, 1, st.BySeverity.Critical)
	assert.Equal(t, 2, st.BySeverity.High)
	assert.Equal(t, 1, st.ByType[model.TypeRCE])
	assert.Equal(t, 1, st.ByProvider["groq"])
}

func TestComputeStats_Empty(t *testing.T) {
	st := ComputeStats(nil)
	assert.Zero(t, st.Total)
	assert.Zero(t, st.AverageRisk)
	assert.NotNil(t, st.ByType)
}
