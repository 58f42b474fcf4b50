// Package scenario generates reproducible mission fixtures and checks them
// against the detection rules.
package scenario

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/cubesat-wildfire-twin/internal/adapter/orbit"
	"github.com/couchcryptid/cubesat-wildfire-twin/internal/config"
	"github.com/couchcryptid/cubesat-wildfire-twin/internal/domain"
	"github.com/couchcryptid/cubesat-wildfire-twin/internal/observability"
	"github.com/couchcryptid/cubesat-wildfire-twin/internal/pipeline"
)

// Epoch is the fixed mission start used for every generated fixture.
var Epoch = time.Date(2023, time.January, 1, 12, 0, 0, 0, time.UTC)

// Params selects what to simulate.
type Params struct {
	Seed                uint64
	Steps               int
	SubPoint            domain.SubPoint
	GSDMeters           float64
	Thresholds          domain.Thresholds
	Eligibility         domain.EligibilityStrategy
	Synthesizer         domain.SynthesizerConfig
	VegetationBaselineC float64
}

// DefaultParams mirrors the service defaults over Paradise, CA.
func DefaultParams() Params {
	return Params{
		Seed:                42,
		Steps:               10,
		SubPoint:            domain.SubPoint{Lat: 39.7596, Lon: -121.6219},
		GSDMeters:           100,
		Thresholds:          domain.DefaultThresholds(),
		Eligibility:         domain.EligibilityWindowed,
		Synthesizer:         domain.DefaultSynthesizerConfig(),
		VegetationBaselineC: 25,
	}
}

// Scenario is the fixture written to disk.
type Scenario struct {
	Seed        uint64                     `json:"seed"`
	GSDMeters   float64                    `json:"gsd_m"`
	Thresholds  domain.Thresholds          `json:"thresholds"`
	Eligibility domain.EligibilityStrategy `json:"eligibility"`
	SubPoint    domain.SubPoint            `json:"sub_point"`
	Reports     []domain.StepReport        `json:"reports"`
}

// Generate runs the simulation on a fake clock with no step delay. The same
// params always produce the same fixture, detection ID included.
//
// It swaps the package-level clocks in domain and uuid, so callers must not
// run it concurrently with a live simulation.
func Generate(ctx context.Context, p Params) (Scenario, error) {
	if p.Steps <= 0 {
		return Scenario{}, fmt.Errorf("steps must be positive, got %d", p.Steps)
	}

	domain.SetClock(clockwork.NewFakeClockAt(Epoch))
	defer domain.SetClock(nil)

	var chachaSeed [32]byte
	binary.LittleEndian.PutUint64(chachaSeed[:], p.Seed)
	uuid.SetRand(rand.NewChaCha8(chachaSeed))
	defer uuid.SetRand(nil)

	opts := pipeline.Options{
		Steps:               p.Steps,
		GSDMeters:           p.GSDMeters,
		Thresholds:          p.Thresholds,
		Eligibility:         p.Eligibility,
		VegetationBaselineC: p.VegetationBaselineC,
		PositionPolicy:      config.PositionFailureFatal,
	}
	synth := domain.NewGridSynthesizer(p.Synthesizer, rand.NewPCG(p.Seed, p.Seed))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sim := pipeline.New(opts, orbit.NewStaticProvider(p.SubPoint.Lat, p.SubPoint.Lon), synth,
		nil, nil, clockwork.NewFakeClockAt(Epoch), logger, observability.NewMetricsForTesting())

	reports := make([]domain.StepReport, 0, p.Steps)
	sim.OnStep(func(r domain.StepReport) { reports = append(reports, r) })

	if err := sim.Run(ctx); err != nil {
		return Scenario{}, fmt.Errorf("run simulation: %w", err)
	}

	return Scenario{
		Seed:        p.Seed,
		GSDMeters:   p.GSDMeters,
		Thresholds:  p.Thresholds,
		Eligibility: p.Eligibility,
		SubPoint:    p.SubPoint,
		Reports:     reports,
	}, nil
}

// WriteFile writes the scenario as indented JSON.
func WriteFile(path string, s Scenario) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal scenario: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadFile loads a scenario written by WriteFile.
func ReadFile(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read %s: %w", path, err)
	}
	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return Scenario{}, fmt.Errorf("unmarshal %s: %w", path, err)
	}
	return s, nil
}
