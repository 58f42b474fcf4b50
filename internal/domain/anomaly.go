package domain

import "fmt"

// AnomalySet is the list of anomalous cells found in one grid, in row-major
// order.
type AnomalySet []Cell

// ExtractAnomalies returns the reported anomalies: cells hotter than
// threshold that fall inside RegionOfInterest.
func ExtractAnomalies(g ThermalGrid, threshold float64) AnomalySet {
	roi := RegionOfInterest()
	var out AnomalySet
	for r := 0; r < g.size; r++ {
		for c := 0; c < g.size; c++ {
			if g.At(r, c) > threshold && roi.Contains(Cell{Row: r, Col: c}) {
				out = append(out, Cell{Row: r, Col: c})
			}
		}
	}
	return out
}

// ExtractHotCells returns every cell hotter than threshold, with no window.
func ExtractHotCells(g ThermalGrid, threshold float64) AnomalySet {
	var out AnomalySet
	for r := 0; r < g.size; r++ {
		for c := 0; c < g.size; c++ {
			if g.At(r, c) > threshold {
				out = append(out, Cell{Row: r, Col: c})
			}
		}
	}
	return out
}

// EligibilityStrategy selects which anomaly set gates the payout trigger and
// feeds the burn-area estimate.
type EligibilityStrategy string

const (
	// EligibilityWindowed uses the reported anomalies at the detection threshold.
	EligibilityWindowed EligibilityStrategy = "windowed"
	// EligibilityRaw uses the unwindowed cells at the fire threshold.
	EligibilityRaw EligibilityStrategy = "raw"
)

// ParseEligibilityStrategy validates a strategy name.
func ParseEligibilityStrategy(s string) (EligibilityStrategy, error) {
	switch EligibilityStrategy(s) {
	case EligibilityWindowed, EligibilityRaw:
		return EligibilityStrategy(s), nil
	default:
		return "", fmt.Errorf("unknown eligibility strategy %q", s)
	}
}

// Thresholds holds the two temperature cut-offs used by the extractors.
type Thresholds struct {
	DetectionC float64 `json:"detection_c"`
	FireC      float64 `json:"fire_c"`
}

// DefaultThresholds returns 45 °C for reporting and 55 °C for raw fire cells.
func DefaultThresholds() Thresholds {
	return Thresholds{DetectionC: 45, FireC: 55}
}

// Extraction carries both anomaly sets for a grid plus the one the strategy
// picked as trigger-eligible.
type Extraction struct {
	Reported AnomalySet
	HotCells AnomalySet
	Eligible AnomalySet
}

// Extract runs both predicates over g and selects the eligible set.
func (s EligibilityStrategy) Extract(g ThermalGrid, th Thresholds) Extraction {
	ex := Extraction{
		Reported: ExtractAnomalies(g, th.DetectionC),
		HotCells: ExtractHotCells(g, th.FireC),
	}
	if s == EligibilityRaw {
		ex.Eligible = ex.HotCells
	} else {
		ex.Eligible = ex.Reported
	}
	return ex
}
