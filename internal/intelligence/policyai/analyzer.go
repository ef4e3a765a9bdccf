// Package policyai defines the contract with the external AI document
// analyzer and its HTTP-backed client.  The orchestrator treats the analyzer
// as a black box: structured request in, structured response out, bounded by
// a timeout.  Everything downstream of a provider failure (fallback scoring)
// lives in the application layer, not here.
package policyai

import (
	"context"

	"github.com/privlens/privlens/internal/domain/analysis"
	"github.com/privlens/privlens/pkg/errors"
)

// AnalyzeRequest is the input contract of the external analyzer.
type AnalyzeRequest struct {
	DocumentText string               `json:"document_text"`
	ContentType  analysis.ContentType `json:"content_type"`
	// Categories is the taxonomy the analyzer must score; sending it pins
	// the response shape to the engine's ten categories regardless of the
	// provider's default taxonomy.
	Categories []analysis.RiskCategory `json:"category_taxonomy"`
}

// DetectedClauseDTO mirrors one detected clause on the wire.
type DetectedClauseDTO struct {
	ClauseText       string `json:"clause_text"`
	Section          string `json:"section"`
	Position         int    `json:"position"`
	RiskLevel        string `json:"risk_level"`
	RiskCategory     string `json:"risk_category"`
	Explanation      string `json:"explanation"`
	UserImpact       string `json:"user_impact"`
	MitigationAdvice string `json:"mitigation_advice"`
}

// AnalyzeResponse is the output contract of the external analyzer.
type AnalyzeResponse struct {
	OverallRiskScore      int                 `json:"overall_risk_score"`
	ConfidenceScore       float64             `json:"confidence_score"`
	DetectedClauses       []DetectedClauseDTO `json:"detected_clauses"`
	RiskBreakdown         map[string]int      `json:"risk_breakdown"`
	RecommendationSummary string              `json:"recommendation_summary"`
	ModelVersion          string              `json:"model_version"`
	TokensUsed            int                 `json:"tokens_used"`
}

// Analyzer is the black-box contract the orchestrator depends on.
// Implementations must honor ctx cancellation and deadlines; a deadline
// expiry surfaces as an ErrCodeProviderTimeout error.
type Analyzer interface {
	Analyze(ctx context.Context, req *AnalyzeRequest) (*AnalyzeResponse, error)
}

// Validate checks the response against the contract: overall score in
// [0,100], confidence in [0,1], a category breakdown present with in-range
// scores, a clause list present (possibly empty but not nil), and every
// clause carrying text and a known risk level.  Any violation degrades the
// orchestrator to the fallback scorer.
func (r *AnalyzeResponse) Validate() error {
	if r.OverallRiskScore < 0 || r.OverallRiskScore > 100 {
		return errors.New(errors.ErrCodeProviderValidation, "overall_risk_score out of range")
	}
	if r.ConfidenceScore < 0 || r.ConfidenceScore > 1 {
		return errors.New(errors.ErrCodeProviderValidation, "confidence_score out of range")
	}
	if r.RiskBreakdown == nil {
		return errors.New(errors.ErrCodeProviderValidation, "risk_breakdown missing")
	}
	for cat, score := range r.RiskBreakdown {
		if score < 0 || score > 100 {
			return errors.New(errors.ErrCodeProviderValidation, "risk_breakdown score out of range").
				WithDetail(cat)
		}
	}
	if r.DetectedClauses == nil {
		return errors.New(errors.ErrCodeProviderValidation, "detected_clauses missing")
	}
	for i, c := range r.DetectedClauses {
		if c.ClauseText == "" {
			return errors.Newf(errors.ErrCodeProviderValidation, "detected_clauses[%d] has empty clause_text", i)
		}
		if !analysis.Severity(c.RiskLevel).IsValid() {
			return errors.Newf(errors.ErrCodeProviderValidation, "detected_clauses[%d] has unknown risk_level %q", i, c.RiskLevel)
		}
	}
	return nil
}

// ToDomain converts a validated response into the domain clause list and
// breakdown map.
func (r *AnalyzeResponse) ToDomain() ([]analysis.DetectedClause, map[analysis.RiskCategory]int) {
	clauses := make([]analysis.DetectedClause, 0, len(r.DetectedClauses))
	for _, c := range r.DetectedClauses {
		clauses = append(clauses, analysis.DetectedClause{
			Text:             c.ClauseText,
			Section:          c.Section,
			Position:         c.Position,
			RiskLevel:        analysis.Severity(c.RiskLevel),
			RiskCategory:     analysis.RiskCategory(c.RiskCategory),
			Explanation:      c.Explanation,
			UserImpact:       c.UserImpact,
			MitigationAdvice: c.MitigationAdvice,
		})
	}
	breakdown := make(map[analysis.RiskCategory]int, len(r.RiskBreakdown))
	for cat, score := range r.RiskBreakdown {
		breakdown[analysis.RiskCategory(cat)] = score
	}
	return clauses, breakdown
}
