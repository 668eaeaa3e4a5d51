package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverityRank(t *testing.T) {
	assert.Greater(t, SeverityRank(SeverityCritical), SeverityRank(SeverityHigh))
	assert.Greater(t, SeverityRank(SeverityHigh), SeverityRank(SeverityMedium))
	assert.Greater(t, SeverityRank(SeverityMedium), SeverityRank(SeverityLow))
	assert.Equal(t, 0, SeverityRank(Severity("bogus")))
}

func TestParseSeverity(t *testing.T) {
	assert.Equal(t, SeverityCritical, ParseSeverity(" CRITICAL "))
	assert.Equal(t, Severity("severe"), ParseSeverity("Severe"))
}

func TestMeetsThreshold(t *testing.T) {
	tests := []struct {
		sev       Severity
		threshold string
		want      bool
	}{
		{SeverityCritical, "high", true},
		{SeverityHigh, "high", true},
		{SeverityMedium, "high", false},
		{SeverityLow, "low", true},
		{SeverityCritical, "none", false},
		{SeverityCritical, "", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MeetsThreshold(tt.sev, tt.threshold), "%s vs %s", tt.sev, tt.threshold)
	}
}

func TestFindingMessageFallbacks(t *testing.T) {
	f := Finding{Description: "desc", Fix: "fix"}
	assert.Equal(t, "desc", f.Message())
	assert.Equal(t, "fix", f.Remediation())

	f.Issue = "issue"
	f.FixInstruction = "do this"
	assert.Equal(t, "issue", f.Message())
	assert.Equal(t, "do this", f.Remediation())
}

func TestComputeSummary(t *testing.T) {
	s := ComputeSummary([]Finding{
		{Severity: SeverityLow},
		{Severity: SeverityCritical},
		{Severity: SeverityMedium},
		{Severity: "unknown"},
	})
	assert.Equal(t, 1, s.Counts.Critical)
	assert.Equal(t, 1, s.Counts.Medium)
	assert.Equal(t, 1, s.Counts.Low)
	assert.Equal(t, 1, s.Counts.Other)
	assert.Equal(t, 4, s.Counts.Total())
	assert.Equal(t, SeverityCritical, s.HighestSeverity)
}
