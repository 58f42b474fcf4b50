package domain

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"
)

// MetersPerDegreeLat is the spherical-earth length of one degree of latitude.
const MetersPerDegreeLat = 111_320.0

// ErrInvalidGeolocationInput is returned when Locate is given no cells.
var ErrInvalidGeolocationInput = errors.New("geolocation requires at least one anomaly cell")

// SubPoint is the ground point directly beneath the platform, in degrees.
type SubPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Geo is a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Centroid returns the mean row and column of the set.
func Centroid(set AnomalySet) (row, col float64, err error) {
	if len(set) == 0 {
		return 0, 0, ErrInvalidGeolocationInput
	}
	rows := make([]float64, len(set))
	cols := make([]float64, len(set))
	for i, c := range set {
		rows[i] = float64(c.Row)
		cols[i] = float64(c.Col)
	}
	return stat.Mean(rows, nil), stat.Mean(cols, nil), nil
}

// Locate projects the centroid of set onto the ground around sp. center is
// the pixel beneath the platform and gsd the metres per pixel.
func Locate(set AnomalySet, sp SubPoint, gsd float64, center Cell) (Geo, error) {
	row, col, err := Centroid(set)
	if err != nil {
		return Geo{}, err
	}

	eastM := (col - float64(center.Col)) * gsd
	northM := (row - float64(center.Row)) * gsd

	latOffset := northM / MetersPerDegreeLat
	lonOffset := eastM / (MetersPerDegreeLat * math.Cos(sp.Lat*math.Pi/180))

	return Geo{Lat: sp.Lat + latOffset, Lon: sp.Lon + lonOffset}, nil
}
