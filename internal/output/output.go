package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/dshills/vulnscout/internal/model"
)

// Tool is the name reported in every output format.
const Tool = "vulnscout"

// Report groups the scans of one or more files.
type Report struct {
	Tool       string        `json:"tool"`
	Version    string        `json:"version"`
	Repo       string        `json:"repo,omitempty"`
	PRNumber   *int          `json:"prNumber,omitempty"`
	Scans      []*model.Scan `json:"scans"`
	Skipped    []string      `json:"skipped,omitempty"`
	Summary    model.Summary `json:"summary"`
	RiskScore  float64       `json:"riskScore"`
	DurationMs int64         `json:"durationMs"`
}

// NewReport builds a report over scans. The report risk is the highest
// per-file risk.
func NewReport(version string, scans ...*model.Scan) *Report {
	r := &Report{Tool: Tool, Version: version, Scans: []*model.Scan{}}
	for _, sc := range scans {
		if sc == nil {
			continue
		}
		r.Scans = append(r.Scans, sc)
		if r.Repo == "" {
			r.Repo = sc.Repo
			r.PRNumber = sc.PRNumber
		}
		if sc.RiskScore > r.RiskScore {
			r.RiskScore = sc.RiskScore
		}
		r.DurationMs += sc.ScanDuration
	}
	r.Summary = model.ComputeSummary(r.Findings())
	return r
}

// Findings returns every finding in the report, ordered by file then line.
func (r *Report) Findings() []model.Finding {
	var all []model.Finding
	for _, sc := range r.Scans {
		for _, f := range sc.Findings {
			if f.Filename == "" {
				f.Filename = sc.Filename
			}
			all = append(all, f)
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Filename != all[j].Filename {
			return all[i].Filename < all[j].Filename
		}
		return all[i].Line < all[j].Line
	})
	return all
}

// Failed returns the scans that did not complete.
func (r *Report) Failed() []*model.Scan {
	var out []*model.Scan
	for _, sc := range r.Scans {
		if sc.Status == model.StatusFailed {
			out = append(out, sc)
		}
	}
	return out
}

// Duration returns the summed scan time.
func (r *Report) Duration() time.Duration {
	return time.Duration(r.DurationMs) * time.Millisecond
}

// Writer writes a report in a specific format.
type Writer interface {
	Write(w io.Writer, report *Report) error
}

// Formats lists the accepted format names.
var Formats = []string{"text", "json", "markdown", "sarif"}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "text", "":
		return &TextWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	case "markdown", "md":
		return &MarkdownWriter{}, nil
	case "sarif":
		return &SARIFWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteReport writes the report to the specified output (file path or stdout).
func WriteReport(report *Report, format, outPath string) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}

	var w io.Writer
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	} else {
		w = os.Stdout
	}

	return writer.Write(w, report)
}

// severityOther groups findings whose severity is outside the known levels.
const severityOther model.Severity = "other"

var severityOrder = []model.Severity{
	model.SeverityCritical,
	model.SeverityHigh,
	model.SeverityMedium,
	model.SeverityLow,
	severityOther,
}

func groupBySeverity(findings []model.Finding) map[model.Severity][]model.Finding {
	m := make(map[model.Severity][]model.Finding)
	for _, f := range findings {
		sev := f.Severity
		if model.SeverityRank(sev) == 0 {
			sev = severityOther
		}
		m[sev] = append(m[sev], f)
	}
	return m
}

func location(f model.Finding) string {
	name := f.Filename
	if name == "" {
		name = "snippet"
	}
	return fmt.Sprintf("%s:%d", name, f.Line)
}
