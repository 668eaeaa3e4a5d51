package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/vulnscout/internal/model"
)

func sampleReport() *Report {
	pr := 7
	a := &model.Scan{
		ID: "a", Repo: "acme/api", PRNumber: &pr, Filename: "src/db.js",
		RiskScore: 3, ScanDuration: 12, Status: model.StatusCompleted,
		Findings: []model.Finding{
			{Line: 4, Type: model.TypeSQLInjection, Severity: model.SeverityHigh, Source: model.SourcePattern,
				Description: "String-concatenated SQL", Fix: "Use parameterized queries", Confidence: 80},
			{Line: 1, Type: model.TypeSecret, Severity: model.SeverityHigh, Source: model.SourceLLM,
				Issue: "Hardcoded password", FixInstruction: "Load it from the environment"},
		},
	}
	b := &model.Scan{
		ID: "b", Repo: "acme/api", PRNumber: &pr, Filename: "app.py",
		RiskScore: 9.5, ScanDuration: 30, Status: model.StatusCompleted,
		Findings: []model.Finding{
			{Line: 2, Type: model.TypeRCE, Severity: model.SeverityCritical, Source: model.SourcePattern,
				Filename: "app.py", Description: "eval of user input", Fix: "Remove eval"},
		},
	}
	return NewReport("1.2.3", a, b)
}

func TestNewReport(t *testing.T) {
	r := sampleReport()
	assert.Equal(t, Tool, r.Tool)
	assert.Equal(t, "acme/api", r.Repo)
	require.NotNil(t, r.PRNumber)
	assert.Equal(t, 7, *r.PRNumber)
	assert.Equal(t, 9.5, r.RiskScore)
	assert.Equal(t, int64(42), r.DurationMs)
	assert.Equal(t, 1, r.Summary.Counts.Critical)
	assert.Equal(t, 2, r.Summary.Counts.High)
	assert.Equal(t, model.SeverityCritical, r.Summary.HighestSeverity)
}

func TestNewReport_SkipsNilScans(t *testing.T) {
	r := NewReport("1", nil)
	assert.Empty(t, r.Scans)
	assert.Zero(t, r.RiskScore)
	assert.Empty(t, r.Findings())
}

func TestReport_FindingsOrderedByFileThenLine(t *testing.T) {
	fs := sampleReport().Findings()
	require.Len(t, fs, 3)
	assert.Equal(t, "app.py:2", location(fs[0]))
	assert.Equal(t, "src/db.js:1", location(fs[1]))
	assert.Equal(t, "src/db.js:4", location(fs[2]))
}

func TestReport_Failed(t *testing.T) {
	r := NewReport("1",
		&model.Scan{Filename: "ok.go", Status: model.StatusCompleted},
		&model.Scan{Filename: "bad.go", Status: model.StatusFailed, Error: "boom"},
	)
	failed := r.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "bad.go", failed[0].Filename)
}

func TestGetWriter(t *testing.T) {
	for _, format := range append([]string{"", "md"}, Formats...) {
		w, err := GetWriter(format)
		require.NoError(t, err, format)
		assert.NotNil(t, w)
	}
	_, err := GetWriter("xml")
	assert.Error(t, err)
}

func TestWriteReport_ToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, WriteReport(sampleReport(), "json", path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tool": "vulnscout"`)
}

func TestWriteReport_BadFormat(t *testing.T) {
	err := WriteReport(sampleReport(), "xml", filepath.Join(t.TempDir(), "x"))
	assert.Error(t, err)
}
