package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/geo-sitemap-service/internal/domain"
	"github.com/couchcryptid/geo-sitemap-service/internal/observability"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const provider = "mapbox"

// Client implements domain.Geocoder using the Mapbox Geocoding API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Mapbox geocoding client. rps <= 0 disables client-side
// rate limiting.
func NewClient(token string, timeout time.Duration, rps float64, metrics *observability.Metrics, logger *slog.Logger) *Client {
	c := &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.mapbox.com/geocoding/v5/mapbox.places",
		metrics: metrics,
		logger:  logger,
	}
	if rps > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return c
}

// Geocode resolves a free-text address to coordinates. Every failure mode is
// reported as a *domain.LookupError.
func (c *Client) Geocode(ctx context.Context, address string) (domain.Coordinates, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return domain.Coordinates{}, c.fail(address, "error", eris.Wrap(err, "mapbox: rate limit"))
		}
	}

	u := fmt.Sprintf("%s/%s.json", c.baseURL, url.PathEscape(address))
	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
	}

	start := time.Now()
	coords, found, err := c.doRequest(ctx, u+"?"+params.Encode())
	c.metrics.GeocodeAPIDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())

	if err != nil {
		return domain.Coordinates{}, c.fail(address, "error", err)
	}
	if !found {
		return domain.Coordinates{}, c.fail(address, "empty", nil)
	}

	c.metrics.GeocodeRequests.WithLabelValues(provider, "success").Inc()
	return coords, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.Coordinates, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.Coordinates{}, false, eris.Wrap(err, "mapbox: build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Coordinates{}, false, eris.Wrap(err, "mapbox: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Coordinates{}, false, eris.Errorf("mapbox API error: status %d: %s", resp.StatusCode, body)
	}

	var mapboxResp response
	if err := json.NewDecoder(resp.Body).Decode(&mapboxResp); err != nil {
		return domain.Coordinates{}, false, eris.Wrap(err, "mapbox: decode response")
	}

	if len(mapboxResp.Features) == 0 {
		return domain.Coordinates{}, false, nil
	}

	// Mapbox uses lon,lat order.
	center := mapboxResp.Features[0].Center
	if len(center) != 2 {
		return domain.Coordinates{}, false, eris.Errorf("mapbox: malformed center %v", center)
	}
	return domain.Coordinates{Lat: center[1], Lon: center[0]}, true, nil
}

func (c *Client) fail(address, reason string, err error) error {
	c.metrics.GeocodeRequests.WithLabelValues(provider, reason).Inc()
	c.logger.Warn("mapbox geocode failed", "address", address, "reason", reason, "error", err)
	return domain.NewLookupError(address, reason, err)
}

// Mapbox API response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	Center    []float64 `json:"center"` // [lon, lat]
	PlaceName string    `json:"place_name"`
}
