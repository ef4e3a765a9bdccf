package analysis

// RiskLevel buckets a 0-100 risk score into a named tier with a display
// color.  The boundaries are inclusive on both ends and part of the API
// contract: a score of 25 is "low", 26 is "moderate".
type RiskLevel struct {
	Level string `json:"level"`
	Color string `json:"color"`
}

var (
	riskMinimal  = RiskLevel{Level: "minimal", Color: "#22c55e"}
	riskLow      = RiskLevel{Level: "low", Color: "#84cc16"}
	riskModerate = RiskLevel{Level: "moderate", Color: "#eab308"}
	riskElevated = RiskLevel{Level: "elevated", Color: "#f97316"}
	riskHigh     = RiskLevel{Level: "high", Color: "#ef4444"}
	riskExtreme  = RiskLevel{Level: "extreme", Color: "#7f1d1d"}
	riskUnknown  = RiskLevel{Level: "unknown", Color: "#6b7280"}
)

// ClassifyRisk maps a score to its level.  Scores outside [0,100] classify
// as "unknown" rather than clamping.
func ClassifyRisk(score int) RiskLevel {
	switch {
	case score >= 0 && score <= 10:
		return riskMinimal
	case score >= 11 && score <= 25:
		return riskLow
	case score >= 26 && score <= 40:
		return riskModerate
	case score >= 41 && score <= 60:
		return riskElevated
	case score >= 61 && score <= 80:
		return riskHigh
	case score >= 81 && score <= 100:
		return riskExtreme
	default:
		return riskUnknown
	}
}
