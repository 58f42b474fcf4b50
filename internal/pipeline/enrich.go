package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/cubesat-wildfire-twin/internal/domain"
)

// Enricher adds reverse-geocoded place details to a detection before it is
// published.
type Enricher struct {
	geocoder domain.ReverseGeocoder
	logger   *slog.Logger
}

// NewEnricher creates an Enricher. Pass a nil geocoder to disable enrichment.
func NewEnricher(geocoder domain.ReverseGeocoder, logger *slog.Logger) *Enricher {
	return &Enricher{
		geocoder: geocoder,
		logger:   logger,
	}
}

// Enrich returns r with place fields filled in when a geocoder is configured.
// A nil Enricher returns r unchanged.
func (e *Enricher) Enrich(ctx context.Context, r domain.DetectionResult) domain.DetectionResult {
	if e == nil {
		return r
	}
	return domain.EnrichWithGeocoding(ctx, r, e.geocoder, e.logger)
}
