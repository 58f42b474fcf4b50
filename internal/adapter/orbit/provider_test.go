package orbit

import (
	"context"
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/cubesat-wildfire-twin/internal/domain"
)

const (
	issLine1 = "1 25544U 98067A   23001.50000000  .00000000  00000-0  00000-0 0  9991"
	issLine2 = "2 25544  51.6416  24.7712 0006703 130.5360 325.0288 15.50000000215751"
)

var epoch = time.Date(2023, time.January, 1, 12, 0, 0, 0, time.UTC)

func TestSGP4Provider_SubPointWithinInclination(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch.Add(10 * time.Minute))
	p, err := NewSGP4Provider("WILDFIRE_WATCH_1", issLine1, issLine2, clock)
	require.NoError(t, err)
	assert.Equal(t, "WILDFIRE_WATCH_1", p.Name())

	for range 12 {
		sp, err := p.SubPoint(context.Background())
		require.NoError(t, err)
		assert.LessOrEqual(t, math.Abs(sp.Lat), 52.5, "latitude bounded by inclination")
		assert.GreaterOrEqual(t, sp.Lon, -180.0)
		assert.Less(t, sp.Lon, 180.0)
		clock.Advance(7 * time.Minute)
	}
}

func TestSGP4Provider_MovesOverTime(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	p, err := NewSGP4Provider("ISS", issLine1, issLine2, clock)
	require.NoError(t, err)

	first, err := p.SubPoint(context.Background())
	require.NoError(t, err)

	clock.Advance(5 * time.Minute)
	second, err := p.SubPoint(context.Background())
	require.NoError(t, err)

	// ~7.7 km/s ground speed covers well over a degree in five minutes.
	moved := math.Hypot(second.Lat-first.Lat, second.Lon-first.Lon)
	assert.Greater(t, moved, 1.0)
}

func TestSGP4Provider_Deterministic(t *testing.T) {
	a, err := NewSGP4Provider("ISS", issLine1, issLine2, clockwork.NewFakeClockAt(epoch))
	require.NoError(t, err)
	b, err := NewSGP4Provider("ISS", issLine1, issLine2, clockwork.NewFakeClockAt(epoch))
	require.NoError(t, err)

	spA, err := a.SubPoint(context.Background())
	require.NoError(t, err)
	spB, err := b.SubPoint(context.Background())
	require.NoError(t, err)
	assert.Equal(t, spA, spB)
}

func TestSGP4Provider_CancelledContext(t *testing.T) {
	p, err := NewSGP4Provider("ISS", issLine1, issLine2, clockwork.NewFakeClockAt(epoch))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.SubPoint(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewSGP4Provider_InvalidTLE(t *testing.T) {
	tests := []struct {
		name  string
		line1 string
		line2 string
	}{
		{name: "empty", line1: "", line2: ""},
		{name: "short line 1", line1: issLine1[:60], line2: issLine2},
		{name: "swapped lines", line1: issLine2, line2: issLine1},
		{name: "bad checksum", line1: issLine1[:68] + "0", line2: issLine2},
		{name: "non-numeric checksum", line1: issLine1, line2: issLine2[:68] + "X"},
		{name: "catalog mismatch", line1: issLine1, line2: "2 25545" + issLine2[7:68] + "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSGP4Provider("x", tt.line1, tt.line2, clockwork.NewFakeClock())
			require.ErrorIs(t, err, ErrInvalidTLE)
		})
	}
}

// withField overwrites columns [start, start+len(v)) and recomputes the
// checksum so only the field itself is malformed.
func withField(line string, start int, v string) string {
	b := []byte(line[:tleLineLength-1])
	copy(b[start:], v)
	return string(b) + strconv.Itoa(checksum(string(b)))
}

func TestNewSGP4Provider_MalformedNumericField(t *testing.T) {
	tests := []struct {
		name  string
		line  int
		start int
		value string
	}{
		{name: "epoch day", line: 1, start: 20, value: "001.5x000000"},
		{name: "first derivative", line: 1, start: 33, value: " .000?0000"},
		{name: "second derivative mantissa", line: 1, start: 44, value: " 0a000"},
		{name: "bstar exponent", line: 1, start: 59, value: "-z"},
		{name: "epoch year", line: 1, start: 18, value: "2x"},
		{name: "inclination", line: 2, start: 8, value: " 51.64!6"},
		{name: "raan", line: 2, start: 17, value: "        "},
		{name: "eccentricity", line: 2, start: 26, value: "0.06703"},
		{name: "argument of perigee", line: 2, start: 34, value: "130,5360"},
		{name: "mean anomaly", line: 2, start: 43, value: "325.02-8"},
		{name: "mean motion", line: 2, start: 52, value: "15x50000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line1, line2 := issLine1, issLine2
			if tt.line == 1 {
				line1 = withField(issLine1, tt.start, tt.value)
			} else {
				line2 = withField(issLine2, tt.start, tt.value)
			}
			require.NoError(t, checkLine(line1, '1'), "checksum still valid")
			require.NoError(t, checkLine(line2, '2'), "checksum still valid")

			_, err := NewSGP4Provider("x", line1, line2, clockwork.NewFakeClock())
			require.ErrorIs(t, err, ErrInvalidTLE)
		})
	}
}

func TestCheckFields_AcceptsSignedDerivatives(t *testing.T) {
	line1 := withField(issLine1, 33, "-.00002182")
	line1 = withField(line1, 44, "-12345")
	line1 = withField(line1, 53, " 34123")
	line1 = withField(line1, 59, "-4")
	require.NoError(t, checkFields(line1, issLine2))
}

func TestStaticProvider(t *testing.T) {
	p := NewStaticProvider(39.76, -121.62)

	sp, err := p.SubPoint(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.SubPoint{Lat: 39.76, Lon: -121.62}, sp)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.SubPoint(ctx)
	require.Error(t, err)
}

func TestNormalizeLongitude(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{179.5, 179.5},
		{180, -180},
		{190, -170},
		{-190, 170},
		{540, -180},
		{-720.25, -0.25},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, normalizeLongitude(tt.in), 1e-9, "normalizeLongitude(%v)", tt.in)
	}
}

func TestChecksum(t *testing.T) {
	assert.Equal(t, 1, checksum(issLine1[:68]))
	assert.Equal(t, 1, checksum(issLine2[:68]))
}
