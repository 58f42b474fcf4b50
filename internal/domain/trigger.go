package domain

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// TriggerState is the payout latch position.
type TriggerState int

const (
	TriggerIdle TriggerState = iota
	TriggerTriggered
)

func (s TriggerState) String() string {
	switch s {
	case TriggerIdle:
		return "idle"
	case TriggerTriggered:
		return "triggered"
	default:
		return fmt.Sprintf("TriggerState(%d)", int(s))
	}
}

// MarshalJSON encodes the state by name.
func (s TriggerState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts the names written by MarshalJSON.
func (s *TriggerState) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return fmt.Errorf("trigger state: %w", err)
	}
	switch name {
	case "idle":
		*s = TriggerIdle
	case "triggered":
		*s = TriggerTriggered
	default:
		return fmt.Errorf("unknown trigger state %q", name)
	}
	return nil
}

// TriggerController is a one-shot latch deciding when a detection becomes a
// payout. It is driven from a single goroutine.
type TriggerController struct {
	gsd    float64
	center Cell
	state  TriggerState
	result DetectionResult
}

// NewTriggerController creates an idle controller that geolocates with the
// given ground sample distance around the grid centre.
func NewTriggerController(gsd float64) *TriggerController {
	return &TriggerController{gsd: gsd, center: GridCenter()}
}

// State returns the current latch position.
func (t *TriggerController) State() TriggerState { return t.state }

// Result returns the detection recorded when the latch fired, and false while
// still idle.
func (t *TriggerController) Result() (DetectionResult, bool) {
	return t.result, t.state == TriggerTriggered
}

// Evaluate decides whether this step fires the payout. It fires at most once
// per controller: when the eligible set is non-empty, its confidence is at
// least TriggerConfidence and the latch is idle. Once triggered every call
// returns fired=false and leaves the stored result untouched.
func (t *TriggerController) Evaluate(step int, sp SubPoint, eligible AnomalySet, area BurnArea) (DetectionResult, bool, error) {
	if t.state == TriggerTriggered || len(eligible) == 0 {
		return DetectionResult{}, false, nil
	}

	confidence := ScoreConfidence(len(eligible))
	if confidence < TriggerConfidence {
		return DetectionResult{}, false, nil
	}

	loc, err := Locate(eligible, sp, t.gsd, t.center)
	if err != nil {
		return DetectionResult{}, false, fmt.Errorf("locate fire at step %d: %w", step, err)
	}

	t.result = DetectionResult{
		ID:           uuid.NewString(),
		Step:         step,
		DetectedAt:   clock.Now(),
		SubPoint:     sp,
		AnomalyCount: len(eligible),
		Confidence:   confidence,
		Area:         area,
		Location:     loc,
		Fire:         true,
	}
	t.state = TriggerTriggered
	return t.result, true, nil
}

// Enrich replaces the stored result's geocoding fields. It is a no-op while
// idle.
func (t *TriggerController) Enrich(r DetectionResult) {
	if t.state != TriggerTriggered || r.ID != t.result.ID {
		return
	}
	t.result.FormattedAddress = r.FormattedAddress
	t.result.PlaceName = r.PlaceName
	t.result.GeoConfidence = r.GeoConfidence
	t.result.GeoSource = r.GeoSource
}
