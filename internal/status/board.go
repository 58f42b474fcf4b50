// Package status holds the last published detection for the dashboard.
package status

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/cubesat-wildfire-twin/internal/domain"
)

// Payout status labels.
const (
	PayoutNotTriggered = "Not Triggered"
	PayoutExecuted     = "Executed"
)

const notAvailable = "N/A"

// Snapshot is an immutable view of the dashboard fields.
type Snapshot struct {
	FireDetected bool      `json:"fire_detected"`
	Latitude     string    `json:"latitude"`
	Longitude    string    `json:"longitude"`
	Confidence   string    `json:"confidence"`
	PayoutStatus string    `json:"payout_status"`
	EventLog     string    `json:"event_log"`
	Place        string    `json:"place,omitempty"`
	DetectionID  string    `json:"detection_id,omitempty"`
	DetectedAt   time.Time `json:"detected_at,omitzero"`

	StepsCompleted int                   `json:"steps_completed"`
	VegetationRisk domain.VegetationRisk `json:"vegetation_risk,omitempty"`
}

// Board is a last-writer-wins holder of the current Snapshot. Readers never
// observe a partially updated snapshot.
type Board struct {
	current atomic.Pointer[Snapshot]
}

// NewBoard returns a board showing the no-fire defaults.
func NewBoard() *Board {
	b := &Board{}
	b.current.Store(&Snapshot{
		Latitude:     notAvailable,
		Longitude:    notAvailable,
		Confidence:   notAvailable,
		PayoutStatus: PayoutNotTriggered,
		EventLog:     "No wildfire event detected yet.",
	})
	return b
}

// Snapshot returns the latest published view.
func (b *Board) Snapshot() Snapshot {
	return *b.current.Load()
}

// PublishDetection records a confirmed fire. It never fails.
func (b *Board) PublishDetection(_ context.Context, r domain.DetectionResult) error {
	b.update(func(s *Snapshot) {
		s.FireDetected = r.Fire
		s.Latitude = fmt.Sprintf("%.4f", r.Location.Lat)
		s.Longitude = fmt.Sprintf("%.4f", r.Location.Lon)
		s.Confidence = fmt.Sprintf("%d%%", r.Confidence)
		s.PayoutStatus = PayoutExecuted
		s.Place = r.FormattedAddress
		s.DetectionID = r.ID
		s.DetectedAt = r.DetectedAt
		s.EventLog = fmt.Sprintf("Wildfire confirmed at step %d: Lat %.4f, Lon %.4f, confidence %d%%, burn area %.2f ha (recovery %s). Insurance payout executed (simulated).",
			r.Step, r.Location.Lat, r.Location.Lon, r.Confidence, r.Area.Hectares, r.Area.Recovery)
	})
	return nil
}

// RecordStep tracks loop progress between detections.
func (b *Board) RecordStep(rep domain.StepReport) {
	b.update(func(s *Snapshot) {
		s.StepsCompleted = rep.Step + 1
		s.VegetationRisk = rep.Vegetation.Risk
	})
}

func (b *Board) update(fn func(*Snapshot)) {
	for {
		old := b.current.Load()
		next := *old
		fn(&next)
		if b.current.CompareAndSwap(old, &next) {
			return
		}
	}
}
