package status

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/cubesat-wildfire-twin/internal/domain"
)

func TestBoard_Defaults(t *testing.T) {
	s := NewBoard().Snapshot()

	assert.False(t, s.FireDetected)
	assert.Equal(t, "N/A", s.Latitude)
	assert.Equal(t, "N/A", s.Longitude)
	assert.Equal(t, "N/A", s.Confidence)
	assert.Equal(t, PayoutNotTriggered, s.PayoutStatus)
	assert.Equal(t, "No wildfire event detected yet.", s.EventLog)
}

func TestBoard_PublishDetection(t *testing.T) {
	b := NewBoard()
	at := time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, b.PublishDetection(context.Background(), domain.DetectionResult{
		ID:               "det-1",
		Step:             4,
		DetectedAt:       at,
		Confidence:       95,
		Fire:             true,
		Location:         domain.Geo{Lat: 39.761234, Lon: -121.62},
		Area:             domain.BurnArea{Hectares: 64, Recovery: domain.RecoveryFourSix},
		FormattedAddress: "Paradise, California",
	}))

	s := b.Snapshot()
	assert.True(t, s.FireDetected)
	assert.Equal(t, "39.7612", s.Latitude)
	assert.Equal(t, "-121.6200", s.Longitude)
	assert.Equal(t, "95%", s.Confidence)
	assert.Equal(t, PayoutExecuted, s.PayoutStatus)
	assert.Equal(t, "Paradise, California", s.Place)
	assert.Equal(t, "det-1", s.DetectionID)
	assert.Equal(t, at, s.DetectedAt)
	assert.Contains(t, s.EventLog, "step 4")
	assert.Contains(t, s.EventLog, "4–6 years")
}

func TestBoard_RecordStepKeepsDetection(t *testing.T) {
	b := NewBoard()
	require.NoError(t, b.PublishDetection(context.Background(), domain.DetectionResult{Fire: true, Confidence: 90}))

	b.RecordStep(domain.StepReport{Step: 6, Vegetation: domain.VegetationHealth{Risk: domain.VegetationRiskHigh}})

	s := b.Snapshot()
	assert.Equal(t, 7, s.StepsCompleted)
	assert.Equal(t, domain.VegetationRiskHigh, s.VegetationRisk)
	assert.True(t, s.FireDetected)
	assert.Equal(t, "90%", s.Confidence)
}

func TestBoard_ConcurrentReaders(t *testing.T) {
	b := NewBoard()
	var wg sync.WaitGroup
	stop := make(chan struct{})

	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				s := b.Snapshot()
				// A snapshot is either all defaults or a full detection.
				if s.FireDetected {
					assert.Equal(t, PayoutExecuted, s.PayoutStatus)
				} else {
					assert.Equal(t, "N/A", s.Confidence)
				}
			}
		}()
	}

	for i := range 100 {
		if i == 50 {
			require.NoError(t, b.PublishDetection(context.Background(), domain.DetectionResult{Fire: true, Confidence: 95}))
		}
		b.RecordStep(domain.StepReport{Step: i})
	}
	close(stop)
	wg.Wait()
	assert.Equal(t, 100, b.Snapshot().StepsCompleted)
}
