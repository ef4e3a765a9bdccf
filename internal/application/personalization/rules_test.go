package personalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/privlens/privlens/internal/domain/analysis"
	"github.com/privlens/privlens/internal/domain/preference"
)

func clauseOf(category analysis.RiskCategory, text string) analysis.DetectedClause {
	return analysis.DetectedClause{
		Text:         text,
		RiskLevel:    analysis.SeverityHigh,
		RiskCategory: category,
	}
}

func TestMatchViolationsKeywordAndCategory(t *testing.T) {
	prefs := preference.NewDefaultSet("usr_1")
	clauses := []analysis.DetectedClause{
		clauseOf(analysis.CategoryDataSharing, "We may sell aggregated records."),
		clauseOf(analysis.CategoryDataCollection, "We access your camera and photo library."),
		clauseOf(analysis.CategoryTracking, "Cookies help us remember you."),
	}

	got := matchViolations(clauses, prefs)
	assert.Contains(t, got, preference.AllowDataSelling)
	assert.Contains(t, got, preference.AllowCameraAccess)
	// Third-party cookies are allowed by default, so no cookie violation.
	assert.NotContains(t, got, preference.AllowThirdPartyCookies)
}

func TestMatchViolationsCategoryMustMatch(t *testing.T) {
	prefs := preference.NewDefaultSet("usr_1")
	// "sell" keyword but under a category the selling rule does not cover.
	clauses := []analysis.DetectedClause{
		clauseOf(analysis.CategorySecurity, "We sell security hardware."),
	}
	assert.Empty(t, matchViolations(clauses, prefs))
}

func TestMatchViolationsDeduplicates(t *testing.T) {
	prefs := preference.NewDefaultSet("usr_1")
	clauses := []analysis.DetectedClause{
		clauseOf(analysis.CategoryDataSharing, "We sell data."),
		clauseOf(analysis.CategoryDataSharing, "Data may be sold to brokers."),
		clauseOf(analysis.CategoryDataSharing, "Selling happens."),
	}

	got := matchViolations(clauses, prefs)
	count := 0
	for _, f := range got {
		if f == preference.AllowDataSelling {
			count++
		}
	}
	assert.Equal(t, 1, count, "a preference is violated at most once")
}

func TestMatchViolationsSortedDeterministic(t *testing.T) {
	prefs := preference.NewDefaultSet("usr_1")
	clauses := []analysis.DetectedClause{
		clauseOf(analysis.CategoryTracking, "We track you across other sites."),
		clauseOf(analysis.CategoryDataSharing, "We sell data."),
		clauseOf(analysis.CategoryDataCollection, "Microphone and audio recording enabled."),
	}

	a := matchViolations(clauses, prefs)
	b := matchViolations(clauses, prefs)
	require.Equal(t, a, b)
	for i := 1; i < len(a); i++ {
		assert.LessOrEqual(t, a[i-1], a[i])
	}
}

func TestBuildWarningsTiers(t *testing.T) {
	warnings := buildWarnings([]preference.FlagName{
		preference.AllowDataSelling,
		preference.AllowThirdPartySharing,
		preference.AllowIndefiniteRetention,
	})
	require.Len(t, warnings, 3)
	assert.Equal(t, "critical", string(warnings[0].Severity))
	assert.Equal(t, "high", string(warnings[1].Severity))
	assert.Equal(t, "medium", string(warnings[2].Severity))
	for _, w := range warnings {
		assert.NotEmpty(t, w.Message)
	}
}
