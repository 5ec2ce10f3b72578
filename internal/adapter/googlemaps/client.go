// Package googlemaps implements domain.Geocoder against the Google Geocoding API.
package googlemaps

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/geo-sitemap-service/internal/domain"
	"github.com/couchcryptid/geo-sitemap-service/internal/observability"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const (
	provider   = "google"
	defaultURL = "https://maps.googleapis.com/maps/api/geocode/json"
	statusOK   = "OK"
)

// Client resolves addresses with one Google Geocoding API call each.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Google geocoding client. rps <= 0 disables client-side
// rate limiting.
func NewClient(apiKey string, timeout time.Duration, rps float64, metrics *observability.Metrics, logger *slog.Logger) *Client {
	c := &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultURL,
		metrics:    metrics,
		logger:     logger,
	}
	if rps > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return c
}

type geocodeResponse struct {
	Results []struct {
		Geometry struct {
			Location *struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
	Status       string `json:"status"` // OK, ZERO_RESULTS, OVER_QUERY_LIMIT, REQUEST_DENIED, ...
	ErrorMessage string `json:"error_message"`
}

// Geocode returns the location of the first result.
func (c *Client) Geocode(ctx context.Context, address string) (domain.Coordinates, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return domain.Coordinates{}, c.fail(address, "error", eris.Wrap(err, "google: rate limit"))
		}
	}

	params := url.Values{
		"address": {address},
		"key":     {c.apiKey},
	}

	start := time.Now()
	resp, err := c.doRequest(ctx, c.baseURL+"?"+params.Encode())
	c.metrics.GeocodeAPIDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	if err != nil {
		return domain.Coordinates{}, c.fail(address, "error", err)
	}

	switch {
	case resp.Status == "ZERO_RESULTS", resp.Status == statusOK && len(resp.Results) == 0:
		return domain.Coordinates{}, c.fail(address, "empty", nil)
	case resp.Status != statusOK:
		return domain.Coordinates{}, c.fail(address, "error", eris.Errorf("google: status %s: %s", resp.Status, resp.ErrorMessage))
	}

	loc := resp.Results[0].Geometry.Location
	if loc == nil {
		return domain.Coordinates{}, c.fail(address, "error", eris.New("google: result has no location"))
	}
	c.metrics.GeocodeRequests.WithLabelValues(provider, "success").Inc()
	return domain.Coordinates{Lat: loc.Lat, Lon: loc.Lng}, nil
}

func (c *Client) doRequest(ctx context.Context, reqURL string) (geocodeResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return geocodeResponse{}, eris.Wrap(err, "google: build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return geocodeResponse{}, eris.Wrap(err, "google: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return geocodeResponse{}, eris.Errorf("google: returned status %d", resp.StatusCode)
	}

	var out geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return geocodeResponse{}, eris.Wrap(err, "google: parse response")
	}
	return out, nil
}

func (c *Client) fail(address, reason string, err error) error {
	c.metrics.GeocodeRequests.WithLabelValues(provider, reason).Inc()
	c.logger.Warn("google geocode failed", "address", address, "reason", reason, "error", err)
	return domain.NewLookupError(address, reason, err)
}
