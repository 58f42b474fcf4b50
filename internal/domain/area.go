package domain

const squareMetersPerHectare = 10_000

// RecoveryBucket is a coarse ecosystem recovery estimate for a burn scar.
type RecoveryBucket string

const (
	RecoveryNone     RecoveryBucket = ""
	RecoveryUnderOne RecoveryBucket = "< 1 year"
	RecoveryOneThree RecoveryBucket = "1–3 years"
	RecoveryTwoFour  RecoveryBucket = "2–4 years"
	RecoveryFourSix  RecoveryBucket = "4–6 years"
)

// BurnArea is the estimated footprint of a detected fire.
type BurnArea struct {
	SquareMeters float64        `json:"square_meters"`
	Hectares     float64        `json:"hectares"`
	Recovery     RecoveryBucket `json:"recovery,omitempty"`
}

// EstimateBurnArea converts a cell count into ground area using the ground
// sample distance gsd (metres per pixel edge). A zero count yields a zero
// area with RecoveryNone.
func EstimateBurnArea(count int, gsd float64) BurnArea {
	if count <= 0 {
		return BurnArea{}
	}
	m2 := float64(count) * gsd * gsd
	ha := m2 / squareMetersPerHectare
	return BurnArea{
		SquareMeters: m2,
		Hectares:     ha,
		Recovery:     recoveryFor(ha),
	}
}

// recoveryFor buckets hectares with strict lower bounds, so exact boundary
// values land in the smaller bucket.
func recoveryFor(ha float64) RecoveryBucket {
	switch {
	case ha > 5:
		return RecoveryFourSix
	case ha > 2:
		return RecoveryTwoFour
	case ha > 0.5:
		return RecoveryOneThree
	default:
		return RecoveryUnderOne
	}
}
