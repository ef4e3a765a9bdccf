// Package clause implements the clause library bounded context: a cross-site
// deduplicated store of individual risky clauses with popularity and recency
// tracking.  Two analyses flagging byte-identical clause text always collapse
// to the same record.
package clause

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/privlens/privlens/internal/domain/analysis"
	"github.com/privlens/privlens/pkg/errors"
)

// Fingerprint is the lowercase hex SHA-256 digest of a clause's exact text.
// It is the unique key of the clause library and is stable under
// byte-identical clause text.
type Fingerprint string

// FingerprintText fingerprints the exact clause text.
func FingerprintText(text string) Fingerprint {
	sum := sha256.Sum256([]byte(text))
	return Fingerprint(hex.EncodeToString(sum[:]))
}

// Record is one deduplicated risky clause.  FoundInSitesCount increments
// monotonically on every re-discovery; the increment is atomic in the store,
// never a read-modify-write.
type Record struct {
	Fingerprint      Fingerprint           `json:"fingerprint"`
	Text             string                `json:"clause_text"`
	Category         analysis.RiskCategory `json:"category"`
	Severity         analysis.Severity     `json:"severity"`
	Score            int                   `json:"score"`
	Explanation      string                `json:"explanation"`
	UserImpact       string                `json:"user_impact"`
	MitigationAdvice string                `json:"mitigation_advice"`
	Keywords         []string              `json:"keywords"`
	FoundInSitesCount int64                `json:"found_in_sites_count"`
	FirstSeenAt      time.Time             `json:"first_seen_at"`
	LastSeenAt       time.Time             `json:"last_seen_at"`
}

// FromDetected builds a library record from a clause detected during an
// analysis.  The numeric score is derived from the severity tier.
func FromDetected(d analysis.DetectedClause, now time.Time) *Record {
	return &Record{
		Fingerprint:       FingerprintText(d.Text),
		Text:              d.Text,
		Category:          d.RiskCategory,
		Severity:          d.RiskLevel,
		Score:             severityScore(d.RiskLevel),
		Explanation:       d.Explanation,
		UserImpact:        d.UserImpact,
		MitigationAdvice:  d.MitigationAdvice,
		Keywords:          extractKeywords(d.Text),
		FoundInSitesCount: 1,
		FirstSeenAt:       now,
		LastSeenAt:        now,
	}
}

func severityScore(s analysis.Severity) int {
	switch s {
	case analysis.SeverityCritical:
		return 90
	case analysis.SeverityHigh:
		return 70
	case analysis.SeverityMedium:
		return 45
	case analysis.SeverityLow:
		return 20
	default:
		return 0
	}
}

// Validate enforces the structural invariants of a clause record.
func (r *Record) Validate() error {
	if r.Text == "" {
		return errors.New(errors.ErrCodeClauseInvalid, "clause text is required")
	}
	if r.Fingerprint != FingerprintText(r.Text) {
		return errors.New(errors.ErrCodeClauseInvalid, "fingerprint does not match clause text")
	}
	if !r.Severity.IsValid() {
		return errors.New(errors.ErrCodeClauseInvalid, "unknown severity").WithDetail(string(r.Severity))
	}
	if r.Score < 0 || r.Score > 100 {
		return errors.New(errors.ErrCodeClauseInvalid, "score must be within [0,100]")
	}
	return nil
}
