package domain

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// SynthesizerConfig parameterises the synthetic thermal sensor.
type SynthesizerConfig struct {
	BaselineC         float64
	StdDevC           float64
	HotPatchIncrement float64
	InjectProbability float64
}

// DefaultSynthesizerConfig matches the reference mission: 27 °C ± 1 °C
// background, a +30 °C fire roughly three steps in ten.
func DefaultSynthesizerConfig() SynthesizerConfig {
	return SynthesizerConfig{
		BaselineC:         27,
		StdDevC:           1,
		HotPatchIncrement: 30,
		InjectProbability: 0.3,
	}
}

// GridSynthesizer produces one ThermalGrid per call from an injected random
// source. It is not safe for concurrent use.
type GridSynthesizer struct {
	cfg   SynthesizerConfig
	rng   *rand.Rand
	noise distuv.Normal
}

// NewGridSynthesizer creates a synthesizer drawing from src. A fixed seed
// gives a reproducible sequence of grids.
func NewGridSynthesizer(cfg SynthesizerConfig, src rand.Source) *GridSynthesizer {
	rng := rand.New(src)
	return &GridSynthesizer{
		cfg:   cfg,
		rng:   rng,
		noise: distuv.Normal{Mu: cfg.BaselineC, Sigma: cfg.StdDevC, Src: rng},
	}
}

// Synthesize draws a fresh grid and reports whether the hot patch was injected.
func (s *GridSynthesizer) Synthesize() (ThermalGrid, bool) {
	values := make([]float64, GridSize*GridSize)
	for i := range values {
		values[i] = s.noise.Rand()
	}

	injected := s.rng.Float64() < s.cfg.InjectProbability
	if injected {
		w := HotPatch()
		for r := w.MinRow; r <= w.MaxRow; r++ {
			for c := w.MinCol; c <= w.MaxCol; c++ {
				values[r*GridSize+c] += s.cfg.HotPatchIncrement
			}
		}
	}
	return ThermalGrid{size: GridSize, values: values}, injected
}
