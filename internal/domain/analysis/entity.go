// Package analysis implements the analysis bounded context: content-addressed
// cached analyses, detected clauses, risk classification, and the repository
// contract for the analysis cache.  All business rules that concern a cached
// analysis live here; persistence is handled by the infrastructure layer.
package analysis

import (
	"time"

	"github.com/privlens/privlens/pkg/errors"
	"github.com/privlens/privlens/pkg/types/common"
)

// ContentType identifies which legal document a piece of content represents.
// Together with the content hash it forms the cache key.
type ContentType string

const (
	ContentTermsOfService ContentType = "terms_of_service"
	ContentPrivacyPolicy  ContentType = "privacy_policy"
	ContentCombined       ContentType = "combined"
)

// IsValid reports whether the content type is a known enumeration value.
func (t ContentType) IsValid() bool {
	switch t {
	case ContentTermsOfService, ContentPrivacyPolicy, ContentCombined:
		return true
	}
	return false
}

// RiskCategory is one of the ten named categories every analysis scores.
type RiskCategory string

const (
	CategoryDataSharing        RiskCategory = "data_sharing"
	CategoryDataCollection     RiskCategory = "data_collection"
	CategoryTracking           RiskCategory = "tracking"
	CategoryDataRetention      RiskCategory = "data_retention"
	CategoryInternalAccess     RiskCategory = "internal_access"
	CategoryCrossBorder        RiskCategory = "cross_border_transfer"
	CategorySecurity           RiskCategory = "security"
	CategoryAIUsage            RiskCategory = "ai_usage"
	CategoryCommunications     RiskCategory = "communications"
	CategoryUserRights         RiskCategory = "user_rights"
)

// AllRiskCategories lists every category in canonical order.
var AllRiskCategories = []RiskCategory{
	CategoryDataSharing,
	CategoryDataCollection,
	CategoryTracking,
	CategoryDataRetention,
	CategoryInternalAccess,
	CategoryCrossBorder,
	CategorySecurity,
	CategoryAIUsage,
	CategoryCommunications,
	CategoryUserRights,
}

// Severity is the risk level attached to a single detected clause.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// IsValid reports whether the severity is a known enumeration value.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// DetectedClause is one risky excerpt flagged by the analyzer, carried inside
// a CachedAnalysis.  The clause library deduplicates these by text
// fingerprint across analyses; here they are plain values.
type DetectedClause struct {
	Text            string       `json:"clause_text"`
	Section         string       `json:"section"`
	Position        int          `json:"position"`
	RiskLevel       Severity     `json:"risk_level"`
	RiskCategory    RiskCategory `json:"risk_category"`
	Explanation     string       `json:"explanation"`
	UserImpact      string       `json:"user_impact"`
	MitigationAdvice string      `json:"mitigation_advice"`
}

// CachedAnalysis is a complete analysis result keyed by (ContentHash,
// ContentType).  Rows are written only by the orchestrator; lookups mutate
// access telemetry but never analysis content.  is_stale never auto-clears:
// only a fresh analysis replaces the row.
type CachedAnalysis struct {
	ID               common.ID                `json:"id"`
	ContentHash      ContentHash              `json:"content_hash"`
	ContentType      ContentType              `json:"content_type"`
	OverallRiskScore int                      `json:"overall_risk_score"`
	RiskBreakdown    map[RiskCategory]int     `json:"risk_breakdown"`
	Confidence       float64                  `json:"confidence"`
	DetectedClauses  []DetectedClause         `json:"detected_clauses"`
	Recommendation   string                   `json:"recommendation_summary"`
	ModelVersion     string                   `json:"model_version"`
	TokensUsed       int                      `json:"tokens_used"`
	LatencyMS        int64                    `json:"latency_ms"`
	AccessCount      int64                    `json:"access_count"`
	LastAccessedAt   time.Time                `json:"last_accessed_at"`
	IsStale          bool                     `json:"is_stale"`
	CreatedAt        time.Time                `json:"created_at"`
}

// Validate enforces the structural invariants of a cached analysis before it
// may be persisted.
func (a *CachedAnalysis) Validate() error {
	if a.ContentHash == "" {
		return errors.NewValidation("content_hash is required")
	}
	if !a.ContentType.IsValid() {
		return errors.New(errors.ErrCodeInvalidContentType, "unknown content type").
			WithDetail(string(a.ContentType))
	}
	if a.OverallRiskScore < 0 || a.OverallRiskScore > 100 {
		return errors.NewValidation("overall_risk_score must be within [0,100]")
	}
	if a.Confidence < 0 || a.Confidence > 1 {
		return errors.NewValidation("confidence must be within [0.0,1.0]")
	}
	for cat, score := range a.RiskBreakdown {
		if score < 0 || score > 100 {
			return errors.NewValidation("risk_breakdown score must be within [0,100]").
				WithDetail(string(cat))
		}
	}
	for _, c := range a.DetectedClauses {
		if c.Text == "" {
			return errors.New(errors.ErrCodeClauseInvalid, "detected clause has empty text")
		}
		if !c.RiskLevel.IsValid() {
			return errors.New(errors.ErrCodeClauseInvalid, "detected clause has unknown risk level").
				WithDetail(string(c.RiskLevel))
		}
	}
	return nil
}

// RiskLevel classifies the analysis' overall score.
func (a *CachedAnalysis) RiskLevel() RiskLevel {
	return ClassifyRisk(a.OverallRiskScore)
}

// AnalysisSource records how an orchestrated analysis was obtained.
type AnalysisSource string

const (
	// SourceCached means the analysis was served from the cache.
	SourceCached AnalysisSource = "cached"
	// SourceFresh means the external analyzer produced it in this request.
	SourceFresh AnalysisSource = "fresh"
	// SourceFallback means the rule-based scorer produced it; fallback
	// results are ephemeral and never written to the cache.
	SourceFallback AnalysisSource = "fallback"
)
