package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/dshills/vulnscout/internal/model"
)

const informationURI = "https://github.com/dshills/vulnscout"

// SARIFWriter outputs findings in SARIF v2.1.0 format.
type SARIFWriter struct{}

func (s *SARIFWriter) Write(w io.Writer, report *Report) error {
	doc, err := BuildSARIF(report)
	if err != nil {
		return err
	}
	if err := doc.PrettyWrite(w); err != nil {
		return fmt.Errorf("writing SARIF: %w", err)
	}
	return nil
}

// BuildSARIF converts report into a single-run SARIF document. Rules are
// keyed by finding type.
func BuildSARIF(report *Report) (*sarif.Report, error) {
	doc, err := sarif.New(sarif.Version210)
	if err != nil {
		return nil, fmt.Errorf("creating SARIF report: %w", err)
	}

	run := sarif.NewRunWithInformationURI(Tool, informationURI)
	run.Tool.Driver.Version = &report.Version

	for _, f := range report.Findings() {
		level := severityToLevel(f.Severity)
		rule := run.AddRule(ruleID(f.Type))
		if rule.DefaultConfiguration == nil {
			name := f.Type
			rule.Name = &name
			rule.WithDescription(ruleDescription(f)).
				WithDefaultConfiguration(&sarif.ReportingConfiguration{Level: level}).
				WithProperties(sarif.Properties{"tags": []string{"security", f.Type}})
		}

		uri := f.Filename
		if uri == "" {
			uri = "snippet"
		}
		loc := sarif.NewLocation().WithPhysicalLocation(
			sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewArtifactLocation().WithUri(uri)).
				WithRegion(sarif.NewRegion().WithStartLine(f.Line)),
		)

		result := sarif.NewRuleResult(rule.ID).
			WithMessage(sarif.NewTextMessage(f.Message())).
			WithLevel(level).
			WithLocations([]*sarif.Location{loc})
		result.PropertyBag = *sarif.NewPropertyBag()
		result.Add("severity", string(f.Severity))
		result.Add("source", string(f.Source))
		if fix := f.Remediation(); fix != "" {
			result.Add("fix", fix)
		}
		run.AddResult(result)
	}

	doc.AddRun(run)
	return doc, nil
}

func ruleID(findingType string) string {
	id := strings.ToUpper(strings.Join(strings.Fields(findingType), "_"))
	if id == "" {
		id = "UNKNOWN"
	}
	return Tool + "/" + id
}

func ruleDescription(f model.Finding) string {
	if f.Description != "" {
		return f.Description
	}
	return f.Type
}

// severityToLevel maps finding severity to a SARIF level.
func severityToLevel(s model.Severity) string {
	switch s {
	case model.SeverityCritical, model.SeverityHigh:
		return "error"
	case model.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}
