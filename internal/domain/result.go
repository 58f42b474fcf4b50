package domain

import "time"

// DetectionResult summarises one confirmed fire detection.
type DetectionResult struct {
	ID           string    `json:"id"`
	Step         int       `json:"step"`
	DetectedAt   time.Time `json:"detected_at"`
	SubPoint     SubPoint  `json:"sub_point"`
	AnomalyCount int       `json:"anomaly_count"`
	Confidence   int       `json:"confidence"`
	Area         BurnArea  `json:"area"`
	Location     Geo       `json:"location"`
	Fire         bool      `json:"fire"`

	// Reverse-geocoding enrichment fields.
	FormattedAddress string  `json:"formatted_address,omitempty"`
	PlaceName        string  `json:"place_name,omitempty"`
	GeoConfidence    float64 `json:"geo_confidence,omitempty"`
	GeoSource        string  `json:"geo_source,omitempty"` // "reverse", "original", "failed"
}

// StepReport is everything computed during one simulation step. Detection is
// set only on the step that fired the trigger.
type StepReport struct {
	Step       int              `json:"step"`
	SubPoint   SubPoint         `json:"sub_point"`
	Injected   bool             `json:"injected"`
	Reported   int              `json:"reported_cells"`
	HotCells   int              `json:"hot_cells"`
	Eligible   int              `json:"eligible_cells"`
	Confidence int              `json:"confidence"`
	Area       BurnArea         `json:"area"`
	Vegetation VegetationHealth `json:"vegetation"`
	State      TriggerState     `json:"trigger_state"`
	Detection  *DetectionResult `json:"detection,omitempty"`
}
