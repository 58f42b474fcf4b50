package domain

import (
	"context"
	"log/slog"
)

// EnrichWithGeocoding attaches the place name at the fire location. If
// geocoder is nil the result is returned unchanged; on failure GeoSource is
// "failed" and the detection still stands.
func EnrichWithGeocoding(ctx context.Context, r DetectionResult, geocoder ReverseGeocoder, logger *slog.Logger) DetectionResult {
	if geocoder == nil {
		return r
	}

	result, err := geocoder.ReverseGeocode(ctx, r.Location.Lat, r.Location.Lon)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"detection_id", r.ID,
			"lat", r.Location.Lat,
			"lon", r.Location.Lon,
			"error", err,
		)
		r.GeoSource = "failed"
		return r
	}
	if result.FormattedAddress == "" {
		r.GeoSource = "original"
		return r
	}

	r.FormattedAddress = result.FormattedAddress
	r.PlaceName = result.PlaceName
	r.GeoConfidence = result.Confidence
	r.GeoSource = "reverse"
	return r
}
