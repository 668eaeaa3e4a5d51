package model

import (
	"strings"
	"time"
)

// Severity represents the severity level of a finding.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// SeverityRank returns a numeric rank for sorting (higher = more severe).
func SeverityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// ParseSeverity lower-cases s. Unknown values are returned as-is so that
// scoring can apply its default weight.
func ParseSeverity(s string) Severity {
	return Severity(strings.ToLower(strings.TrimSpace(s)))
}

// MeetsThreshold returns true if severity is at or above the threshold.
func MeetsThreshold(s Severity, threshold string) bool {
	if threshold == "none" || threshold == "" {
		return false
	}
	return SeverityRank(s) >= SeverityRank(Severity(threshold))
}

// Vulnerability categories shared by the pattern rules and the LLM prompt.
const (
	TypeRCE          = "RCE"
	TypeSQLInjection = "SQL_INJECTION"
	TypeSecret       = "SECRET"
	TypeLogic        = "LOGIC"
)

// Taxonomy lists the closed set of categories in prompt order.
var Taxonomy = []string{TypeRCE, TypeSQLInjection, TypeSecret, TypeLogic}

// Source records which engine produced a finding.
type Source string

const (
	SourcePattern Source = "pattern"
	SourceLLM     Source = "llm"
)

// Finding represents a single detected issue.
type Finding struct {
	Line           int      `json:"line"`
	Severity       Severity `json:"severity"`
	Type           string   `json:"type"`
	Issue          string   `json:"issue,omitempty"`
	Description    string   `json:"description,omitempty"`
	FixInstruction string   `json:"fix_instruction,omitempty"`
	Fix            string   `json:"fix,omitempty"`
	Confidence     int      `json:"confidence,omitempty"`
	Filename       string   `json:"filename,omitempty"`
	Source         Source   `json:"source"`
}

// Message returns the richest human-readable rationale available.
func (f Finding) Message() string {
	if f.Issue != "" {
		return f.Issue
	}
	return f.Description
}

// Remediation returns the richest remediation text available.
func (f Finding) Remediation() string {
	if f.FixInstruction != "" {
		return f.FixInstruction
	}
	return f.Fix
}

// Status is the terminal state of a Scan.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ProviderNone is reported when no LLM provider produced the audit.
const ProviderNone = "none"

// Scan is the result of analyzing one file or snippet.
type Scan struct {
	ID           string    `json:"id"`
	Repo         string    `json:"repo"`
	PRNumber     *int      `json:"prNumber"`
	Filename     string    `json:"filename"`
	Language     string    `json:"language"`
	CodeHash     string    `json:"codeHash"`
	Findings     []Finding `json:"findings"`
	RiskScore    float64   `json:"riskScore"`
	Provider     string    `json:"provider"`
	Timestamp    time.Time `json:"timestamp"`
	ScanDuration int64     `json:"scanDuration"`
	Status       Status    `json:"status"`
	Error        string    `json:"error,omitempty"`
}

// SeverityCounts holds counts by severity level.
type SeverityCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Other    int `json:"other,omitempty"`
}

// Total returns the sum of all counts.
func (c SeverityCounts) Total() int {
	return c.Critical + c.High + c.Medium + c.Low + c.Other
}

// Add increments the bucket for s. Unknown severities land in Other.
func (c *SeverityCounts) Add(s Severity) {
	switch s {
	case SeverityCritical:
		c.Critical++
	case SeverityHigh:
		c.High++
	case SeverityMedium:
		c.Medium++
	case SeverityLow:
		c.Low++
	default:
		c.Other++
	}
}

// Summary provides an overview of findings.
type Summary struct {
	Counts          SeverityCounts `json:"counts"`
	HighestSeverity Severity       `json:"highestSeverity"`
}

// ComputeSummary calculates the summary from findings.
func ComputeSummary(findings []Finding) Summary {
	var s Summary
	for _, f := range findings {
		s.Counts.Add(f.Severity)
		if SeverityRank(f.Severity) > SeverityRank(s.HighestSeverity) {
			s.HighestSeverity = f.Severity
		}
	}
	return s
}
