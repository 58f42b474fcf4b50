package scenario

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/cubesat-wildfire-twin/internal/domain"
)

func failedPhases(phases []Phase) []string {
	var names []string
	for _, p := range phases {
		if !p.Passed() {
			names = append(names, p.Name)
		}
	}
	return names
}

func TestGenerate_Deterministic(t *testing.T) {
	a, err := Generate(context.Background(), DefaultParams())
	require.NoError(t, err)
	b, err := Generate(context.Background(), DefaultParams())
	require.NoError(t, err)

	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same seed produced different scenarios (-first +second):\n%s", diff)
	}
	assert.Len(t, a.Reports, 10)
}

func TestGenerate_DifferentSeedsDiffer(t *testing.T) {
	p := DefaultParams()
	a, err := Generate(context.Background(), p)
	require.NoError(t, err)

	p.Seed = 7
	b, err := Generate(context.Background(), p)
	require.NoError(t, err)

	assert.NotEqual(t, a.Reports, b.Reports)
}

func TestGenerate_AlwaysInjectFiresAtFirstStep(t *testing.T) {
	p := DefaultParams()
	p.Steps = 3
	p.Synthesizer.InjectProbability = 1

	s, err := Generate(context.Background(), p)
	require.NoError(t, err)

	require.NotNil(t, s.Reports[0].Detection)
	d := s.Reports[0].Detection
	assert.Equal(t, 0, d.Step)
	assert.Equal(t, 64, d.AnomalyCount)
	assert.Equal(t, 95, d.Confidence)
	assert.GreaterOrEqual(t, d.Confidence, domain.TriggerConfidence)
	assert.Equal(t, Epoch, d.DetectedAt)
	assert.Nil(t, s.Reports[1].Detection)
	assert.Nil(t, s.Reports[2].Detection)
	assert.Empty(t, failedPhases(Validate(s)))
}

func TestGenerate_NeverInject(t *testing.T) {
	p := DefaultParams()
	p.Synthesizer.InjectProbability = 0

	s, err := Generate(context.Background(), p)
	require.NoError(t, err)

	for _, r := range s.Reports {
		assert.False(t, r.Injected)
		assert.Zero(t, r.Eligible)
		assert.Equal(t, domain.TriggerIdle, r.State)
		assert.Nil(t, r.Detection)
	}
	assert.Empty(t, failedPhases(Validate(s)))
}

func TestGenerate_RawStrategy(t *testing.T) {
	p := DefaultParams()
	p.Eligibility = domain.EligibilityRaw

	s, err := Generate(context.Background(), p)
	require.NoError(t, err)
	assert.Empty(t, failedPhases(Validate(s)))
}

func TestGenerate_RejectsZeroSteps(t *testing.T) {
	p := DefaultParams()
	p.Steps = 0
	_, err := Generate(context.Background(), p)
	require.Error(t, err)
}

func TestWriteReadFile_ValidatesAfterRoundTrip(t *testing.T) {
	p := DefaultParams()
	p.Synthesizer.InjectProbability = 1
	s, err := Generate(context.Background(), p)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "scenario.json")
	require.NoError(t, WriteFile(path, s))

	loaded, err := ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, failedPhases(Validate(loaded)))
	assert.Equal(t, s.Reports[0].Detection.ID, loaded.Reports[0].Detection.ID)
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestValidate_DetectsTampering(t *testing.T) {
	base := func(t *testing.T) Scenario {
		t.Helper()
		p := DefaultParams()
		p.Steps = 4
		p.Synthesizer.InjectProbability = 1
		s, err := Generate(context.Background(), p)
		require.NoError(t, err)
		return s
	}

	tests := []struct {
		name   string
		tamper func(*Scenario)
		want   []string
	}{
		{
			name:   "gap in steps",
			tamper: func(s *Scenario) { s.Reports[2].Step = 9 },
			want:   []string{"step sequence"},
		},
		{
			name:   "wrong confidence",
			tamper: func(s *Scenario) { s.Reports[1].Confidence = 50 },
			want:   []string{"scoring"},
		},
		{
			name: "second detection",
			tamper: func(s *Scenario) {
				d := *s.Reports[0].Detection
				d.Step = 2
				s.Reports[2].Detection = &d
			},
			want: []string{"trigger latch"},
		},
		{
			name: "detection confidence below trigger",
			tamper: func(s *Scenario) {
				d := *s.Reports[0].Detection
				d.Confidence = 60
				s.Reports[0].Detection = &d
			},
			want: []string{"trigger latch"},
		},
		{
			name: "detection confidence disagrees with count",
			tamper: func(s *Scenario) {
				d := *s.Reports[0].Detection
				d.Confidence = domain.TriggerConfidence
				s.Reports[0].Detection = &d
			},
			want: []string{"trigger latch"},
		},
		{
			name: "detection outside footprint",
			tamper: func(s *Scenario) {
				d := *s.Reports[0].Detection
				d.Location.Lat += 1
				s.Reports[0].Detection = &d
			},
			want: []string{"geolocation"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base(t)
			require.Empty(t, failedPhases(Validate(s)))
			tt.tamper(&s)
			assert.Equal(t, tt.want, failedPhases(Validate(s)))
		})
	}
}

func TestValidate_FiresOnlyWhenScoreClearsBar(t *testing.T) {
	// 5 eligible cells score 70, below the trigger; 13 cells score 86.
	sp := domain.SubPoint{Lat: 39.7596, Lon: -121.6219}
	weak := domain.StepReport{Step: 0, SubPoint: sp, Injected: true, Reported: 5, Eligible: 5,
		Confidence: domain.ScoreConfidence(5), Area: domain.EstimateBurnArea(5, 100)}
	strong := domain.StepReport{Step: 1, SubPoint: sp, Injected: true, Reported: 13, Eligible: 13,
		Confidence: domain.ScoreConfidence(13), Area: domain.EstimateBurnArea(13, 100),
		State: domain.TriggerTriggered,
		Detection: &domain.DetectionResult{
			ID: "d-1", Step: 1, Fire: true, AnomalyCount: 13,
			Confidence: domain.ScoreConfidence(13),
			Location:   domain.Geo{Lat: 39.7596, Lon: -121.6219},
		}}
	s := Scenario{
		GSDMeters:   100,
		Thresholds:  domain.DefaultThresholds(),
		Eligibility: domain.EligibilityWindowed,
		SubPoint:    sp,
		Reports:     []domain.StepReport{weak, strong},
	}

	assert.Empty(t, failedPhases(Validate(s)))
	assert.Equal(t, 86, s.Reports[1].Detection.Confidence)
}
