package mapbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/cubesat-wildfire-twin/internal/domain"
	"github.com/couchcryptid/cubesat-wildfire-twin/internal/observability"
)

const (
	defaultBaseURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"

	// Feature types worth naming a fire after. Addresses and POIs are too
	// fine for a 100 m pixel, countries too coarse.
	placeTypes = "place,locality,district,region"

	maxErrorBody = 4 << 10
)

// APIError is a non-200 reply from the geocoding API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return "mapbox API error: status " + strconv.Itoa(e.StatusCode)
	}
	return fmt.Sprintf("mapbox API error: status %d: %s", e.StatusCode, e.Message)
}

// Client implements domain.ReverseGeocoder against the Mapbox Geocoding API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Mapbox reverse-geocoding client.
func NewClient(token string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		metrics:    metrics,
		logger:     logger,
	}
}

// ReverseGeocode names the most relevant settlement or region around a
// fire location. An empty result with a nil error means nothing is there,
// which is common over oceans and wilderness.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	result, err := c.reverse(ctx, lat, lon)
	outcome := "success"
	switch {
	case isUnauthorized(err):
		outcome = "error"
		c.logger.Warn("mapbox rejected the access token, check MAPBOX_TOKEN", "error", err)
	case err != nil:
		outcome = "error"
	case result.FormattedAddress == "":
		outcome = "empty"
	}
	c.metrics.GeocodeRequests.WithLabelValues(outcome).Inc()
	return result, err
}

func (c *Client) reverse(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	endpoint, err := c.reverseURL(lat, lon)
	if err != nil {
		return domain.GeocodingResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("reverse geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.GeocodingResult{}, readAPIError(resp)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("decode response: %w", err)
	}

	best, ok := body.best()
	if !ok {
		c.logger.Debug("mapbox returned no features", "lat", lat, "lon", lon)
		return domain.GeocodingResult{}, nil
	}
	return domain.GeocodingResult{
		FormattedAddress: best.PlaceName,
		PlaceName:        best.Text,
		Confidence:       best.Relevance,
	}, nil
}

// reverseURL builds {base}/{lon},{lat}.json; Mapbox takes longitude first.
func (c *Client) reverseURL(lat, lon float64) (string, error) {
	coord := strconv.FormatFloat(lon, 'f', 6, 64) + "," + strconv.FormatFloat(lat, 'f', 6, 64) + ".json"
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	u = u.JoinPath(coord)
	u.RawQuery = url.Values{
		"access_token": {c.token},
		"types":        {placeTypes},
		"limit":        {"1"},
	}.Encode()
	return u.String(), nil
}

func readAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return apiErr
	}
	var body struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Message != "" {
		apiErr.Message = body.Message
	} else {
		apiErr.Message = string(raw)
	}
	return apiErr
}

// isUnauthorized reports whether err is a rejected or missing token.
func isUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) &&
		(apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden)
}

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	PlaceName string  `json:"place_name"`
	Text      string  `json:"text"`
	Relevance float64 `json:"relevance"`
}

// best returns the highest-relevance feature; ties keep API order.
func (r response) best() (feature, bool) {
	if len(r.Features) == 0 {
		return feature{}, false
	}
	top := r.Features[0]
	for _, f := range r.Features[1:] {
		if f.Relevance > top.Relevance {
			top = f
		}
	}
	return top, true
}
