package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/privlens/privlens/internal/domain/analysis"
)

func TestFallbackAnalyzeKeywordScoring(t *testing.T) {
	content := "This sells your location and camera data to third party partners"
	a := FallbackAnalyze(content, analysis.ContentTermsOfService)

	// sell(20) + third party(15) + location(15) + camera(20) = 70
	assert.Equal(t, 70, a.OverallRiskScore)
	assert.Equal(t, "high", a.RiskLevel().Level)
	assert.Equal(t, 0.5, a.Confidence)
	assert.Equal(t, FallbackModelVersion, a.ModelVersion)
	assert.Empty(t, a.DetectedClauses)
	assert.Equal(t, analysis.HashContent(content), a.ContentHash)

	assert.Equal(t, 35, a.RiskBreakdown[analysis.CategoryDataSharing])
	assert.Equal(t, 35, a.RiskBreakdown[analysis.CategoryDataCollection])
}

func TestFallbackAnalyzeCaseInsensitive(t *testing.T) {
	a := FallbackAnalyze("We SELL your data.", analysis.ContentPrivacyPolicy)
	assert.Equal(t, 20, a.OverallRiskScore)
}

func TestFallbackAnalyzeBenignContent(t *testing.T) {
	a := FallbackAnalyze("We respect your privacy and collect nothing.", analysis.ContentPrivacyPolicy)
	assert.Equal(t, 0, a.OverallRiskScore)
	assert.Equal(t, "minimal", a.RiskLevel().Level)
	assert.Empty(t, a.RiskBreakdown)
}

func TestFallbackAnalyzeScoreCapped(t *testing.T) {
	content := "sell third party marketing track cookies location camera microphone contacts"
	a := FallbackAnalyze(content, analysis.ContentCombined)
	assert.Equal(t, 100, a.OverallRiskScore)
	require.NoError(t, a.Validate())
}

func TestFallbackAnalyzeValidates(t *testing.T) {
	a := FallbackAnalyze("tracking everywhere", analysis.ContentTermsOfService)
	require.NoError(t, a.Validate())
}
