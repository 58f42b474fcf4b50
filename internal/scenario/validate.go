package scenario

import (
	"fmt"
	"math"

	"github.com/couchcryptid/cubesat-wildfire-twin/internal/domain"
)

// Phase collects the failures of one group of checks.
type Phase struct {
	Name   string
	Errors []string
}

func (p *Phase) errorf(format string, args ...any) {
	p.Errors = append(p.Errors, fmt.Sprintf(format, args...))
}

// Passed reports whether the phase found no problems.
func (p *Phase) Passed() bool { return len(p.Errors) == 0 }

// Validate re-derives every step from its counts and checks the fixture
// obeys the scoring, area, latch and geolocation rules.
func Validate(s Scenario) []Phase {
	return []Phase{
		checkSequence(s),
		checkScoring(s),
		checkTrigger(s),
		checkGeolocation(s),
	}
}

func checkSequence(s Scenario) Phase {
	p := Phase{Name: "step sequence"}
	if len(s.Reports) == 0 {
		p.errorf("no step reports")
	}
	for i, r := range s.Reports {
		if r.Step != i {
			p.errorf("report %d has step %d", i, r.Step)
		}
		if r.SubPoint != s.SubPoint {
			p.errorf("step %d: sub-point %+v, want %+v", r.Step, r.SubPoint, s.SubPoint)
		}
	}
	return p
}

func checkScoring(s Scenario) Phase {
	p := Phase{Name: "scoring"}
	for _, r := range s.Reports {
		switch s.Eligibility {
		case domain.EligibilityRaw:
			if r.Eligible != r.HotCells {
				p.errorf("step %d: eligible %d != hot cells %d", r.Step, r.Eligible, r.HotCells)
			}
		default:
			if r.Eligible != r.Reported {
				p.errorf("step %d: eligible %d != reported %d", r.Step, r.Eligible, r.Reported)
			}
		}
		if want := domain.ScoreConfidence(r.Eligible); r.Confidence != want {
			p.errorf("step %d: confidence %d, want %d", r.Step, r.Confidence, want)
		}
		if want := domain.EstimateBurnArea(r.Eligible, s.GSDMeters); r.Area != want {
			p.errorf("step %d: area %+v, want %+v", r.Step, r.Area, want)
		}
		if !r.Injected && r.Eligible > 0 {
			// Background noise alone never crosses either threshold.
			p.errorf("step %d: %d eligible cells without an injected patch", r.Step, r.Eligible)
		}
	}
	return p
}

func checkTrigger(s Scenario) Phase {
	p := Phase{Name: "trigger latch"}

	// The latch fires on the first step whose score clears the bar.
	firstEligible := -1
	for _, r := range s.Reports {
		if r.Eligible > 0 && domain.ScoreConfidence(r.Eligible) >= domain.TriggerConfidence {
			firstEligible = r.Step
			break
		}
	}

	detections := 0
	for _, r := range s.Reports {
		wantState := domain.TriggerIdle
		if firstEligible >= 0 && r.Step >= firstEligible {
			wantState = domain.TriggerTriggered
		}
		if r.State != wantState {
			p.errorf("step %d: state %s, want %s", r.Step, r.State, wantState)
		}

		if r.Detection == nil {
			continue
		}
		detections++
		d := r.Detection
		if r.Step != firstEligible {
			p.errorf("detection at step %d, first eligible step is %d", r.Step, firstEligible)
		}
		if d.Step != r.Step {
			p.errorf("detection step %d inside report %d", d.Step, r.Step)
		}
		if !d.Fire {
			p.errorf("detection %s: fire flag not set", d.ID)
		}
		if d.Confidence < domain.TriggerConfidence || d.Confidence != domain.ScoreConfidence(r.Eligible) {
			p.errorf("detection %s: confidence %d, want %d (minimum %d)",
				d.ID, d.Confidence, domain.ScoreConfidence(r.Eligible), domain.TriggerConfidence)
		}
		if d.AnomalyCount != r.Eligible {
			p.errorf("detection %s: anomaly count %d, want %d", d.ID, d.AnomalyCount, r.Eligible)
		}
		if d.ID == "" {
			p.errorf("detection at step %d has no id", r.Step)
		}
	}

	switch {
	case firstEligible >= 0 && detections != 1:
		p.errorf("expected exactly one detection, got %d", detections)
	case firstEligible < 0 && detections != 0:
		p.errorf("expected no detection, got %d", detections)
	}
	return p
}

func checkGeolocation(s Scenario) Phase {
	p := Phase{Name: "geolocation"}

	half := float64(domain.GridSize) / 2 * s.GSDMeters
	maxDLat := half / domain.MetersPerDegreeLat
	maxDLon := half / (domain.MetersPerDegreeLat * math.Cos(s.SubPoint.Lat*math.Pi/180))

	for _, r := range s.Reports {
		if r.Detection == nil {
			continue
		}
		loc := r.Detection.Location
		if math.Abs(loc.Lat-s.SubPoint.Lat) > maxDLat {
			p.errorf("detection %s: latitude %.6f outside footprint of %.6f", r.Detection.ID, loc.Lat, s.SubPoint.Lat)
		}
		if math.Abs(loc.Lon-s.SubPoint.Lon) > maxDLon {
			p.errorf("detection %s: longitude %.6f outside footprint of %.6f", r.Detection.ID, loc.Lon, s.SubPoint.Lon)
		}
	}
	return p
}
