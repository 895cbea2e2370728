package service

import (
	"context"
	"errors"

	"legalklarity-backend/models"

	"github.com/google/uuid"
)

var ErrAnalysisNotReady = errors.New("document has no completed analysis")

// RiskService exposes the risk findings of an analysis. No scoring model is
// defined, so every score is unassessed and findings are passed through as
// the analysis reported them.
type RiskService struct {
	analyses *AnalysisService
}

// NewRiskService creates a risk service. analyses may be nil when only Score
// and Report are used.
func NewRiskService(analyses *AnalysisService) *RiskService {
	return &RiskService{analyses: analyses}
}

// Score collects the risk-relevant findings of an analysis
func (s *RiskService) Score(documentID uuid.UUID, analysis models.DocumentAnalysis) models.RiskScore {
	analysis.Normalize()
	return models.RiskScore{
		DocumentID:       documentID,
		Level:            models.RiskLevelUnassessed,
		Risks:            append([]string{}, analysis.Risks...),
		ComplianceIssues: append([]string{}, analysis.ComplianceIssues...),
		MissingOrUnusual: append([]string{}, analysis.MissingOrUnusual...),
	}
}

// Report groups a score's findings into titled sections
func (s *RiskService) Report(score models.RiskScore) models.RiskReport {
	sections := []models.RiskReportSection{
		{Title: "Risks", Count: len(score.Risks), Items: score.Risks},
		{Title: "Compliance Issues", Count: len(score.ComplianceIssues), Items: score.ComplianceIssues},
		{Title: "Missing or Unusual Clauses", Count: len(score.MissingOrUnusual), Items: score.MissingOrUnusual},
	}

	total := 0
	for i := range sections {
		if sections[i].Items == nil {
			sections[i].Items = []string{}
		}
		total += sections[i].Count
	}

	return models.RiskReport{
		DocumentID:    score.DocumentID,
		Level:         score.Level,
		TotalFindings: total,
		Sections:      sections,
	}
}

// AssessDocument scores and reports a user's stored document
func (s *RiskService) AssessDocument(ctx context.Context, userID string, id uuid.UUID) (*models.RiskReport, error) {
	if s.analyses == nil {
		return nil, errors.New("analysis service not set")
	}
	doc, err := s.analyses.GetDocument(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if doc.Status != models.DocumentStatusCompleted || doc.Analysis == nil {
		return nil, ErrAnalysisNotReady
	}

	report := s.Report(s.Score(doc.ID, *doc.Analysis))
	return &report, nil
}
