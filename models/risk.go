package models

import "github.com/google/uuid"

// RiskLevel is the qualitative level attached to a risk score
type RiskLevel string

// RiskLevelUnassessed is the only level produced until a scoring model is defined.
const RiskLevelUnassessed RiskLevel = "unassessed"

// RiskScore carries the risk-relevant findings of an analysis
type RiskScore struct {
	DocumentID       uuid.UUID `json:"document_id"`
	Level            RiskLevel `json:"level"`
	Risks            []string  `json:"risks"`
	ComplianceIssues []string  `json:"compliance_issues"`
	MissingOrUnusual []string  `json:"missing_or_unusual"`
}

// RiskReportSection is one group of findings in a risk report
type RiskReportSection struct {
	Title string   `json:"title"`
	Count int      `json:"count"`
	Items []string `json:"items"`
}

// RiskReport is the presentable form of a RiskScore
type RiskReport struct {
	DocumentID    uuid.UUID           `json:"document_id"`
	Level         RiskLevel           `json:"level"`
	TotalFindings int                 `json:"total_findings"`
	Sections      []RiskReportSection `json:"sections"`
}
