package providers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/vulnscout/internal/model"
)

func TestParseAudit_Object(t *testing.T) {
	res, err := ParseAudit(auditJSON)
	require.NoError(t, err)
	assert.Equal(t, 8.5, res.RiskScore)
	require.Len(t, res.Findings, 1)
	f := res.Findings[0]
	assert.Equal(t, 3, f.Line)
	assert.Equal(t, model.SeverityHigh, f.Severity)
	assert.Equal(t, model.TypeSQLInjection, f.Type)
	assert.Equal(t, "query concatenation", f.Issue)
	assert.Equal(t, "use placeholders", f.FixInstruction)
	assert.Equal(t, model.SourceLLM, f.Source)
}

func TestParseAudit_BareArray(t *testing.T) {
	res, err := ParseAudit(`[{"line": 1, "severity": "critical", "type": "RCE", "issue": "eval"}]`)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.RiskScore)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, model.TypeRCE, res.Findings[0].Type)
}

func TestParseAudit_Fenced(t *testing.T) {
	res, err := ParseAudit("```json\n" + auditJSON + "\n```")
	require.NoError(t, err)
	assert.Len(t, res.Findings, 1)
}

func TestParseAudit_DropsInvalidLines(t *testing.T) {
	res, err := ParseAudit(`{"riskScore": 2, "findings": [{"line": 0, "type": "RCE"}, {"line": -4, "type": "RCE"}, {"line": 7, "type": "LOGIC", "severity": "low"}]}`)
	require.NoError(t, err)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, 7, res.Findings[0].Line)
}

func TestParseAudit_ClampsRisk(t *testing.T) {
	res, err := ParseAudit(`{"riskScore": 42, "findings": []}`)
	require.NoError(t, err)
	assert.Equal(t, 10.0, res.RiskScore)
	assert.NotNil(t, res.Findings)

	res, err = ParseAudit(`{"riskScore": -1, "findings": []}`)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.RiskScore)
}

func TestParseAudit_Errors(t *testing.T) {
	inputs := []string{
		"",
		"not json at all",
		`{"riskScore": 3}`,
		`{"findings": "none"}`,
		`{"findings": [{"line": "three"}]}`,
		"```\n```",
	}
	for _, in := range inputs {
		_, err := ParseAudit(in)
		require.Error(t, err, in)
		assert.True(t, errors.Is(err, ErrParse), in)
	}
}
