// Package orbit supplies the platform sub-point, either propagated from a
// two-line element set with SGP4 or pinned to a fixed location.
package orbit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jonboulle/clockwork"
	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/couchcryptid/cubesat-wildfire-twin/internal/domain"
)

// ErrInvalidTLE is returned when the element set cannot be parsed.
var ErrInvalidTLE = errors.New("invalid TLE")

// ErrPropagation is returned when SGP4 produces no usable position.
var ErrPropagation = errors.New("sgp4 propagation failed")

const tleLineLength = 69

// SGP4Provider propagates a TLE to the current clock time and reports the
// geodetic point beneath the platform.
type SGP4Provider struct {
	name  string
	sat   satellite.Satellite
	clock clockwork.Clock
}

// NewSGP4Provider parses the element set. Lines are checked for shape,
// checksum and numeric fields first because the propagator library exits
// the process on a malformed number instead of returning an error.
func NewSGP4Provider(name, line1, line2 string, clock clockwork.Clock) (*SGP4Provider, error) {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)
	if err := checkLine(line1, '1'); err != nil {
		return nil, fmt.Errorf("%w: line 1: %w", ErrInvalidTLE, err)
	}
	if err := checkLine(line2, '2'); err != nil {
		return nil, fmt.Errorf("%w: line 2: %w", ErrInvalidTLE, err)
	}
	if line1[2:7] != line2[2:7] {
		return nil, fmt.Errorf("%w: catalog numbers differ (%q, %q)", ErrInvalidTLE, line1[2:7], line2[2:7])
	}
	if err := checkFields(line1, line2); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTLE, err)
	}

	return &SGP4Provider{
		name:  name,
		sat:   satellite.TLEToSat(line1, line2, satellite.GravityWGS72),
		clock: clock,
	}, nil
}

// Name returns the platform name the TLE was registered under.
func (p *SGP4Provider) Name() string { return p.name }

// SubPoint returns the sub-satellite point at the provider clock's now.
func (p *SGP4Provider) SubPoint(ctx context.Context) (domain.SubPoint, error) {
	if err := ctx.Err(); err != nil {
		return domain.SubPoint{}, err
	}

	t := p.clock.Now().UTC()
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()

	posECI, _ := satellite.Propagate(p.sat, year, int(month), day, hour, minute, sec)
	if !finite(posECI.X, posECI.Y, posECI.Z) || (posECI.X == 0 && posECI.Y == 0 && posECI.Z == 0) {
		return domain.SubPoint{}, fmt.Errorf("%w at %s", ErrPropagation, t.Format("2006-01-02T15:04:05Z"))
	}

	jd := satellite.JDay(year, int(month), day, hour, minute, sec)
	gmst := satellite.ThetaG_JD(jd)
	_, _, llaRad := satellite.ECIToLLA(posECI, gmst)
	lla := satellite.LatLongDeg(llaRad)

	sp := domain.SubPoint{Lat: lla.Latitude, Lon: normalizeLongitude(lla.Longitude)}
	if !finite(sp.Lat, sp.Lon) || math.Abs(sp.Lat) > 90 {
		return domain.SubPoint{}, fmt.Errorf("%w: geodetic conversion gave (%v, %v)", ErrPropagation, sp.Lat, sp.Lon)
	}
	return sp, nil
}

// StaticProvider always reports the same sub-point.
type StaticProvider struct {
	point domain.SubPoint
}

// NewStaticProvider pins the platform above lat, lon.
func NewStaticProvider(lat, lon float64) *StaticProvider {
	return &StaticProvider{point: domain.SubPoint{Lat: lat, Lon: lon}}
}

// SubPoint returns the pinned point.
func (p *StaticProvider) SubPoint(ctx context.Context) (domain.SubPoint, error) {
	if err := ctx.Err(); err != nil {
		return domain.SubPoint{}, err
	}
	return p.point, nil
}

// normalizeLongitude maps any angle in degrees into [-180, 180).
func normalizeLongitude(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// checkLine validates length, line number and the modulo-10 checksum.
func checkLine(line string, number byte) error {
	if len(line) != tleLineLength {
		return fmt.Errorf("length %d, want %d", len(line), tleLineLength)
	}
	if line[0] != number || line[1] != ' ' {
		return fmt.Errorf("must start with %q", string(number)+" ")
	}
	want := int(line[tleLineLength-1] - '0')
	if want < 0 || want > 9 {
		return fmt.Errorf("checksum digit %q is not numeric", line[tleLineLength-1])
	}
	if got := checksum(line[:tleLineLength-1]); got != want {
		return fmt.Errorf("checksum %d, want %d", got, want)
	}
	return nil
}

// checksum sums digits, counting each minus sign as 1.
func checksum(s string) int {
	sum := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	return sum % 10
}

type fieldKind int

const (
	intField     fieldKind = iota // optionally signed integer
	floatField                    // decimal, leading point allowed
	digitsField                   // unsigned digits with an implied leading decimal point
	mantissaField                 // sign column followed by digits with an implied point
)

// tleField is a fixed-column numeric field. start and end are zero-based,
// end exclusive.
type tleField struct {
	name       string
	line       int
	start, end int
	kind       fieldKind
}

var tleFields = []tleField{
	{name: "catalog number", line: 1, start: 2, end: 7, kind: intField},
	{name: "epoch year", line: 1, start: 18, end: 20, kind: intField},
	{name: "epoch day", line: 1, start: 20, end: 32, kind: floatField},
	{name: "mean motion first derivative", line: 1, start: 33, end: 43, kind: floatField},
	{name: "mean motion second derivative", line: 1, start: 44, end: 50, kind: mantissaField},
	{name: "mean motion second derivative exponent", line: 1, start: 50, end: 52, kind: intField},
	{name: "bstar", line: 1, start: 53, end: 59, kind: mantissaField},
	{name: "bstar exponent", line: 1, start: 59, end: 61, kind: intField},
	{name: "element set number", line: 1, start: 64, end: 68, kind: intField},
	{name: "inclination", line: 2, start: 8, end: 16, kind: floatField},
	{name: "right ascension", line: 2, start: 17, end: 25, kind: floatField},
	{name: "eccentricity", line: 2, start: 26, end: 33, kind: digitsField},
	{name: "argument of perigee", line: 2, start: 34, end: 42, kind: floatField},
	{name: "mean anomaly", line: 2, start: 43, end: 51, kind: floatField},
	{name: "mean motion", line: 2, start: 52, end: 63, kind: floatField},
	{name: "revolution number", line: 2, start: 63, end: 68, kind: intField},
}

// checkFields parses every numeric field the propagator reads.
func checkFields(line1, line2 string) error {
	for _, f := range tleFields {
		line := line1
		if f.line == 2 {
			line = line2
		}
		raw := line[f.start:f.end]
		if err := f.parse(raw); err != nil {
			return fmt.Errorf("line %d %s %q: %w", f.line, f.name, raw, err)
		}
	}
	return nil
}

func (f tleField) parse(raw string) error {
	v := strings.TrimSpace(raw)
	if v == "" {
		return errors.New("empty")
	}

	var err error
	switch f.kind {
	case intField:
		_, err = strconv.ParseInt(v, 10, 64)
	case floatField:
		var x float64
		x, err = strconv.ParseFloat(v, 64)
		if err == nil && (math.IsNaN(x) || math.IsInf(x, 0)) {
			err = errors.New("not finite")
		}
	case digitsField:
		_, err = strconv.ParseUint(v, 10, 64)
	case mantissaField:
		v = strings.TrimLeft(v, "+-")
		_, err = strconv.ParseUint(v, 10, 64)
	}
	return err
}
