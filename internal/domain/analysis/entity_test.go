package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/privlens/privlens/pkg/errors"
)

func validAnalysis() *CachedAnalysis {
	return &CachedAnalysis{
		ID:               "anl_test",
		ContentHash:      HashContent("doc"),
		ContentType:      ContentTermsOfService,
		OverallRiskScore: 55,
		RiskBreakdown:    map[RiskCategory]int{CategoryDataSharing: 70},
		Confidence:       0.9,
		DetectedClauses: []DetectedClause{
			{Text: "We sell your data.", RiskLevel: SeverityCritical, RiskCategory: CategoryDataSharing},
		},
		ModelVersion: "policyai-v2",
	}
}

func TestCachedAnalysisValidate(t *testing.T) {
	require.NoError(t, validAnalysis().Validate())

	t.Run("missing hash", func(t *testing.T) {
		a := validAnalysis()
		a.ContentHash = ""
		assert.Error(t, a.Validate())
	})

	t.Run("unknown content type", func(t *testing.T) {
		a := validAnalysis()
		a.ContentType = "cookie_banner"
		err := a.Validate()
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidContentType))
	})

	t.Run("score out of range", func(t *testing.T) {
		a := validAnalysis()
		a.OverallRiskScore = 101
		assert.Error(t, a.Validate())
		a.OverallRiskScore = -1
		assert.Error(t, a.Validate())
	})

	t.Run("confidence out of range", func(t *testing.T) {
		a := validAnalysis()
		a.Confidence = 1.1
		assert.Error(t, a.Validate())
	})

	t.Run("breakdown score out of range", func(t *testing.T) {
		a := validAnalysis()
		a.RiskBreakdown[CategoryTracking] = 200
		assert.Error(t, a.Validate())
	})

	t.Run("clause with empty text", func(t *testing.T) {
		a := validAnalysis()
		a.DetectedClauses[0].Text = ""
		err := a.Validate()
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeClauseInvalid))
	})

	t.Run("clause with unknown severity", func(t *testing.T) {
		a := validAnalysis()
		a.DetectedClauses[0].RiskLevel = "catastrophic"
		assert.Error(t, a.Validate())
	})
}

func TestContentTypeIsValid(t *testing.T) {
	assert.True(t, ContentTermsOfService.IsValid())
	assert.True(t, ContentPrivacyPolicy.IsValid())
	assert.True(t, ContentCombined.IsValid())
	assert.False(t, ContentType("eula").IsValid())
}

func TestAllRiskCategoriesComplete(t *testing.T) {
	assert.Len(t, AllRiskCategories, 10)
	seen := map[RiskCategory]bool{}
	for _, c := range AllRiskCategories {
		assert.False(t, seen[c], "duplicate category %s", c)
		seen[c] = true
	}
}
