package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyRiskBoundaries(t *testing.T) {
	tests := []struct {
		score int
		level string
	}{
		{0, "minimal"},
		{10, "minimal"},
		{11, "low"},
		{25, "low"},
		{26, "moderate"},
		{40, "moderate"},
		{41, "elevated"},
		{60, "elevated"},
		{61, "high"},
		{80, "high"},
		{81, "extreme"},
		{100, "extreme"},
		{101, "unknown"},
		{-1, "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.level, ClassifyRisk(tt.score).Level, "score %d", tt.score)
	}
}

func TestClassifyRiskCarriesColor(t *testing.T) {
	for score := 0; score <= 100; score++ {
		assert.NotEmpty(t, ClassifyRisk(score).Color)
	}
}
