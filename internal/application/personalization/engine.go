package personalization

import (
	"context"
	"time"

	"github.com/privlens/privlens/internal/domain/analysis"
	"github.com/privlens/privlens/internal/domain/personalization"
	"github.com/privlens/privlens/internal/domain/preference"
	"github.com/privlens/privlens/internal/infrastructure/monitoring/logging"
	"github.com/privlens/privlens/pkg/errors"
	"github.com/privlens/privlens/pkg/types/common"
)

// violationPenalty is the score added per distinct violated preference.
const violationPenalty = 5

// Alert is the payload published when a personalization outcome warrants
// notifying the user out of band.
type Alert struct {
	UserID         common.UserID                  `json:"user_id"`
	SiteID         common.SiteID                  `json:"site_id"`
	AlertType      string                         `json:"alert_type"`
	RiskScore      int                            `json:"risk_score"`
	Recommendation personalization.Recommendation `json:"recommendation"`
	Violations     []preference.FlagName          `json:"violations,omitempty"`
	Message        string                         `json:"message"`
	OccurredAt     time.Time                      `json:"occurred_at"`
}

// Alert types.
const (
	AlertHighRiskVisit       = "high_risk_visit"
	AlertPreferenceViolation = "preference_violation"
	AlertNewTOSDetected      = "new_tos_detected"
)

// Fixed alert copy.  preference_violation alerts instead carry the first
// violated preference's warning text, so the sink renders the same message
// the user sees in the result.
const (
	highRiskMessage    = "The personalized privacy risk for this site is high. Avoiding it is recommended."
	newDocumentMessage = "A site you have visited has published new legal terms."
)

// AlertPublisher delivers alerts to the notification pipeline.  Publishing is
// best effort from the engine's point of view; a failed publish is logged,
// never surfaced to the caller.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, a *Alert) error
}

// Derivation is the pure output of applying a preference set to an analysis.
type Derivation struct {
	PersonalizedScore   int
	ViolatedPreferences []preference.FlagName
	Warnings            []personalization.Warning
	Recommendation      personalization.Recommendation
}

// Derive computes the personalized view.  It is a pure function of its two
// inputs: same analysis and same preference set always produce the same
// derivation, and neither input is mutated.
func Derive(a *analysis.CachedAnalysis, prefs *preference.Set) Derivation {
	violations := matchViolations(a.DetectedClauses, prefs)

	score := a.OverallRiskScore + violationPenalty*len(violations)
	if score > 100 {
		score = 100
	}

	var rec personalization.Recommendation
	switch {
	case score >= 80 || len(violations) >= 5:
		rec = personalization.RecommendAvoid
	case score >= 60 || len(violations) >= 3:
		rec = personalization.RecommendCaution
	default:
		rec = personalization.RecommendProceed
	}

	return Derivation{
		PersonalizedScore:   score,
		ViolatedPreferences: violations,
		Warnings:            buildWarnings(violations),
		Recommendation:      rec,
	}
}

// Engine applies preference sets to analyses, records the outcomes as
// history, and raises alerts for risky visits.
type Engine struct {
	prefs   preference.Repository
	history personalization.Repository
	alerts  AlertPublisher
	logger  logging.Logger
}

// NewEngine wires the engine.  alerts may be nil to disable alerting.
func NewEngine(
	prefs preference.Repository,
	history personalization.Repository,
	alerts AlertPublisher,
	logger logging.Logger,
) *Engine {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Engine{
		prefs:   prefs,
		history: history,
		alerts:  alerts,
		logger:  logger.Named("personalization"),
	}
}

// Personalize derives the user's view of the analysis, records it, and
// alerts when the recommendation is avoid or when a caution carries
// violations.  The returned result includes its assigned history ID.
func (e *Engine) Personalize(ctx context.Context, userID common.UserID, siteID common.SiteID, a *analysis.CachedAnalysis) (*personalization.Result, error) {
	if userID == "" {
		return nil, errors.NewValidation("user_id is required")
	}
	if siteID == "" {
		return nil, errors.NewValidation("site_id is required")
	}
	if a == nil {
		return nil, errors.NewValidation("analysis is required")
	}

	set, err := e.prefs.Get(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodePersonalizeFailed, "failed to load preferences")
	}

	d := Derive(a, set)
	result := &personalization.Result{
		ID:                  common.GenerateID("prs"),
		UserID:              userID,
		SiteID:              siteID,
		AnalysisID:          a.ID,
		PersonalizedScore:   d.PersonalizedScore,
		ViolatedPreferences: d.ViolatedPreferences,
		Warnings:            d.Warnings,
		Recommendation:      d.Recommendation,
		CreatedAt:           time.Now().UTC(),
	}
	if err := result.Validate(); err != nil {
		return nil, err
	}
	if err := e.history.Record(ctx, result); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeResultRecordFailed, "failed to record result")
	}

	e.maybeAlert(ctx, result)
	return result, nil
}

// maybeAlert publishes at most one alert per result: high_risk_visit for an
// avoid verdict, preference_violation for a caution that violated at least
// one preference.  Proceed never alerts.
func (e *Engine) maybeAlert(ctx context.Context, r *personalization.Result) {
	if e.alerts == nil {
		return
	}
	var alertType, message string
	switch {
	case r.Recommendation == personalization.RecommendAvoid:
		alertType = AlertHighRiskVisit
		message = highRiskMessage
	case r.Recommendation == personalization.RecommendCaution && len(r.ViolatedPreferences) > 0:
		alertType = AlertPreferenceViolation
		// One warning exists per violated preference; lead with the first.
		message = r.Warnings[0].Message
	default:
		return
	}
	a := &Alert{
		UserID:         r.UserID,
		SiteID:         r.SiteID,
		AlertType:      alertType,
		RiskScore:      r.PersonalizedScore,
		Recommendation: r.Recommendation,
		Violations:     r.ViolatedPreferences,
		Message:        message,
		OccurredAt:     time.Now().UTC(),
	}
	if err := e.alerts.PublishAlert(ctx, a); err != nil {
		e.logger.Warn("alert publish failed",
			logging.String("user_id", string(r.UserID)),
			logging.String("alert_type", alertType),
			logging.Err(err),
		)
	}
}

// NotifySiteChanged raises a new_tos_detected alert for every user with
// recorded history on the site.  Returns the number of users notified.
func (e *Engine) NotifySiteChanged(ctx context.Context, siteID common.SiteID) (int, error) {
	if siteID == "" {
		return 0, errors.NewValidation("site_id is required")
	}
	if e.alerts == nil {
		return 0, nil
	}
	users, err := e.history.ListUsersBySite(ctx, siteID)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodePersonalizeFailed, "failed to list site users")
	}

	notified := 0
	now := time.Now().UTC()
	for _, userID := range users {
		a := &Alert{
			UserID:     userID,
			SiteID:     siteID,
			AlertType:  AlertNewTOSDetected,
			Message:    newDocumentMessage,
			OccurredAt: now,
		}
		if err := e.alerts.PublishAlert(ctx, a); err != nil {
			e.logger.Warn("new document alert publish failed",
				logging.String("user_id", string(userID)),
				logging.String("site_id", string(siteID)),
				logging.Err(err),
			)
			continue
		}
		notified++
	}
	return notified, nil
}

// History returns the user's personalization history, newest first.
func (e *Engine) History(ctx context.Context, userID common.UserID, page common.Pagination) ([]*personalization.Result, int64, error) {
	if userID == "" {
		return nil, 0, errors.NewValidation("user_id is required")
	}
	page.Normalize()
	return e.history.ListByUser(ctx, userID, page)
}

// RecordDecision stores the user's reaction to a previously recorded result.
func (e *Engine) RecordDecision(ctx context.Context, id common.ID, d personalization.Decision) error {
	if !d.IsValid() {
		return errors.New(errors.ErrCodeDecisionInvalid, "invalid user decision").WithDetail(string(d))
	}
	return e.history.RecordDecision(ctx, id, d)
}
