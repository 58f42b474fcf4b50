package domain

// Confidence scoring constants, in percent.
const (
	confidenceBase    = 60
	confidencePerCell = 2
	confidenceCeiling = 95

	// TriggerConfidence is the minimum confidence that fires a payout.
	TriggerConfidence = 85
)

// ScoreConfidence maps an anomaly count to a confidence percentage:
// 0 for no cells, otherwise 60 + 2 per cell capped at 95.
func ScoreConfidence(count int) int {
	if count <= 0 {
		return 0
	}
	return min(confidenceCeiling, confidenceBase+confidencePerCell*count)
}
