package analysis

import (
	"strings"
	"time"

	"github.com/privlens/privlens/internal/domain/analysis"
	"github.com/privlens/privlens/pkg/types/common"
)

// FallbackModelVersion marks rule-based results.  Results carrying it are
// never written to the cache, so a later healthy provider run replaces them.
const FallbackModelVersion = "fallback_v1.0"

// fallbackWeights maps case-insensitive substrings to additive risk weights.
// The sum is capped at 100.
var fallbackWeights = []struct {
	keyword  string
	weight   int
	category analysis.RiskCategory
}{
	{"sell", 20, analysis.CategoryDataSharing},
	{"third party", 15, analysis.CategoryDataSharing},
	{"marketing", 10, analysis.CategoryDataSharing},
	{"track", 15, analysis.CategoryTracking},
	{"cookies", 5, analysis.CategoryTracking},
	{"location", 15, analysis.CategoryDataCollection},
	{"camera", 20, analysis.CategoryDataCollection},
	{"microphone", 20, analysis.CategoryDataCollection},
	{"contacts", 15, analysis.CategoryDataCollection},
}

// FallbackAnalyze produces a degraded estimate when the AI provider is
// unavailable.  Pure keyword scoring: no clause extraction, fixed 0.5
// confidence.
func FallbackAnalyze(content string, contentType analysis.ContentType) *analysis.CachedAnalysis {
	lower := strings.ToLower(content)

	score := 0
	breakdown := map[analysis.RiskCategory]int{}
	for _, kw := range fallbackWeights {
		if strings.Contains(lower, kw.keyword) {
			score += kw.weight
			breakdown[kw.category] += kw.weight
		}
	}
	if score > 100 {
		score = 100
	}
	for cat, v := range breakdown {
		if v > 100 {
			breakdown[cat] = 100
		}
	}

	level := analysis.ClassifyRisk(score)
	return &analysis.CachedAnalysis{
		ID:             common.GenerateID("anl"),
		ContentHash:    analysis.HashContent(content),
		ContentType:    contentType,
		OverallRiskScore: score,
		RiskBreakdown:  breakdown,
		Confidence:     0.5,
		DetectedClauses: nil,
		Recommendation: "Automated analysis was unavailable; this estimate is keyword-based (" + level.Level + " risk). Review the document manually before accepting.",
		ModelVersion:   FallbackModelVersion,
		AccessCount:    0,
		IsStale:        false,
		CreatedAt:      time.Now().UTC(),
	}
}
