package domain

import "gonum.org/v1/gonum/stat"

// VegetationRisk labels drought stress inferred from mean scene temperature.
type VegetationRisk string

const (
	VegetationRiskLow      VegetationRisk = "Low"
	VegetationRiskModerate VegetationRisk = "Moderate"
	VegetationRiskHigh     VegetationRisk = "High (Drought Stress)"
)

// VegetationHealth is the per-step vegetation reading.
type VegetationHealth struct {
	MeanC  float64        `json:"mean_c"`
	DeltaC float64        `json:"delta_c"`
	Risk   VegetationRisk `json:"risk"`
}

// AssessVegetation compares the grid's mean temperature against baselineC.
// A delta above 2 °C is high risk, above 1 °C moderate.
func AssessVegetation(g ThermalGrid, baselineC float64) VegetationHealth {
	mean := stat.Mean(g.values, nil)
	delta := mean - baselineC

	risk := VegetationRiskLow
	switch {
	case delta > 2:
		risk = VegetationRiskHigh
	case delta > 1:
		risk = VegetationRiskModerate
	}
	return VegetationHealth{MeanC: mean, DeltaC: delta, Risk: risk}
}
