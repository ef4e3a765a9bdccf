// Package personalization defines the personalized result entity: the
// history record of applying one user's preference set to one cached
// analysis, plus the later user decision.
package personalization

import (
	"time"

	"github.com/privlens/privlens/internal/domain/preference"
	"github.com/privlens/privlens/pkg/errors"
	"github.com/privlens/privlens/pkg/types/common"
)

// Recommendation is the engine's verdict for one user and one document.
type Recommendation string

const (
	RecommendProceed Recommendation = "proceed"
	RecommendCaution Recommendation = "caution"
	RecommendAvoid   Recommendation = "avoid"
)

// WarningSeverity tiers a violated preference for display.
type WarningSeverity string

const (
	WarnLow      WarningSeverity = "low"
	WarnMedium   WarningSeverity = "medium"
	WarnHigh     WarningSeverity = "high"
	WarnCritical WarningSeverity = "critical"
)

// Warning is one human-readable consequence of a violated preference.
type Warning struct {
	Preference preference.FlagName `json:"preference"`
	Message    string              `json:"message"`
	Severity   WarningSeverity     `json:"severity"`
}

// Decision is the user's later-recorded reaction to a result.
type Decision string

const (
	DecisionProceeded Decision = "proceeded"
	DecisionAvoided   Decision = "avoided"
	DecisionIgnored   Decision = "ignored"
)

// IsValid reports whether the decision is a known enumeration value.
func (d Decision) IsValid() bool {
	switch d {
	case DecisionProceeded, DecisionAvoided, DecisionIgnored:
		return true
	}
	return false
}

// Result is the derived personalization outcome recorded as history.  It is
// write-once plus exactly one later decision update; the referenced cached
// analysis remains the primary truth.
type Result struct {
	ID                   common.ID             `json:"id"`
	UserID               common.UserID         `json:"user_id"`
	SiteID               common.SiteID         `json:"site_id"`
	AnalysisID           common.ID             `json:"analysis_id"`
	PersonalizedScore    int                   `json:"personalized_risk_score"`
	ViolatedPreferences  []preference.FlagName `json:"violated_preferences"`
	Warnings             []Warning             `json:"warnings"`
	Recommendation       Recommendation        `json:"recommendation"`
	CreatedAt            time.Time             `json:"created_at"`
	Decision             Decision              `json:"decision,omitempty"`
	DecisionAt           *time.Time            `json:"decision_at,omitempty"`
}

// Validate enforces structural invariants before the row is recorded.
func (r *Result) Validate() error {
	if r.UserID == "" {
		return errors.NewValidation("user_id is required")
	}
	if r.SiteID == "" {
		return errors.NewValidation("site_id is required")
	}
	if r.PersonalizedScore < 0 || r.PersonalizedScore > 100 {
		return errors.NewValidation("personalized_risk_score must be within [0,100]")
	}
	switch r.Recommendation {
	case RecommendProceed, RecommendCaution, RecommendAvoid:
	default:
		return errors.NewValidation("unknown recommendation")
	}
	return nil
}
