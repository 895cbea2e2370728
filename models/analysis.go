package models

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
	"time"
)

// DocumentAnalysis is the structured result produced by the inference collaborator
// for one uploaded document.
type DocumentAnalysis struct {
	Summary          string   `json:"summary" jsonschema_description:"A plain-language synopsis of the whole document"`
	KeyTerms         []string `json:"key_terms" jsonschema_description:"Important defined terms, each formatted as 'Term: Definition'"`
	MainClauses      []string `json:"main_clauses" jsonschema_description:"The principal clauses, one short explanation per entry"`
	Risks            []string `json:"risks" jsonschema_description:"Risks for the user in their role, most serious first"`
	Recommendations  []string `json:"recommendations" jsonschema_description:"Concrete actions the user should consider"`
	Parties          []string `json:"parties" jsonschema_description:"Every party to the document and their role"`
	Jurisdiction     string   `json:"jurisdiction" jsonschema_description:"Governing law or jurisdiction, empty when not stated"`
	Obligations      []string `json:"obligations" jsonschema_description:"Obligations of each party"`
	CriticalDates    []string `json:"critical_dates" jsonschema_description:"Deadlines, durations and notice periods"`
	MissingOrUnusual []string `json:"missing_or_unusual" jsonschema_description:"Clauses that are missing or unusual for this document type"`
	ComplianceIssues []string `json:"compliance_issues" jsonschema_description:"Potential regulatory or compliance problems"`
	NextSteps        []string `json:"next_steps" jsonschema_description:"Recommended next steps for the user"`
}

// Normalize replaces absent list fields with empty slices.
func (a *DocumentAnalysis) Normalize() {
	for _, field := range a.listFields() {
		if *field == nil {
			*field = []string{}
		}
	}
}

// Empty reports whether no field carries any content.
func (a *DocumentAnalysis) Empty() bool {
	if strings.TrimSpace(a.Summary) != "" || strings.TrimSpace(a.Jurisdiction) != "" {
		return false
	}
	for _, field := range a.listFields() {
		if len(*field) > 0 {
			return false
		}
	}
	return true
}

func (a *DocumentAnalysis) listFields() []*[]string {
	return []*[]string{
		&a.KeyTerms,
		&a.MainClauses,
		&a.Risks,
		&a.Recommendations,
		&a.Parties,
		&a.Obligations,
		&a.CriticalDates,
		&a.MissingOrUnusual,
		&a.ComplianceIssues,
		&a.NextSteps,
	}
}

// Value implements driver.Valuer for JSONB
func (a DocumentAnalysis) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// Scan implements sql.Scanner for JSONB
func (a *DocumentAnalysis) Scan(value interface{}) error {
	var bytes []byte
	switch v := value.(type) {
	case nil:
		a.Normalize()
		return nil
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		a.Normalize()
		return nil
	}

	if len(bytes) == 0 {
		a.Normalize()
		return nil
	}

	if err := json.Unmarshal(bytes, a); err != nil {
		return err
	}
	a.Normalize()
	return nil
}

// AnalysisResult is the payload placed under "data" in a successful upload response.
type AnalysisResult struct {
	DocumentID   string            `json:"document_id,omitempty"`
	Filename     string            `json:"filename"`
	DocumentType string            `json:"document_type,omitempty"`
	Timestamp    time.Time         `json:"timestamp"`
	Cached       bool              `json:"cached,omitempty"`
	Analysis     *DocumentAnalysis `json:"analysis"`
}

// AnalysisEnvelope is the outer response wrapper returned by the upload endpoint.
type AnalysisEnvelope struct {
	Success bool            `json:"success"`
	Data    *AnalysisResult `json:"data"`
}
