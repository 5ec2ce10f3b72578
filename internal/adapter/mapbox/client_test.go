package mapbox

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/geo-sitemap-service/internal/domain"
	"github.com/couchcryptid/geo-sitemap-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testToken         = "test-token"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testClient(baseURL string) *Client {
	return &Client{
		token:      testToken,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_Geocode_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "1 Main St, Springfield")
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, testToken, r.URL.Query().Get("access_token"))

		resp := response{
			Features: []feature{
				{Center: []float64{-89.65, 39.78}, PlaceName: "1 Main St, Springfield, Illinois"},
			},
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	coords, err := c.Geocode(context.Background(), "1 Main St, Springfield, IL 62701, United States")
	require.NoError(t, err)

	assert.Equal(t, 39.78, coords.Lat)
	assert.Equal(t, -89.65, coords.Lon)
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues(provider, "success")), 0)
}

func TestClient_Geocode_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(response{Features: []feature{}}))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Geocode(context.Background(), "nowhere")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLookupFailed)

	var lookupErr *domain.LookupError
	require.True(t, errors.As(err, &lookupErr))
	assert.Equal(t, "empty", lookupErr.Reason)
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues(provider, "empty")), 0)
}

func TestClient_Geocode_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Not Authorized"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.token = "bad-token"

	_, err := c.Geocode(context.Background(), "1 Main St")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLookupFailed)
	assert.Contains(t, err.Error(), "401")
}

func TestClient_Geocode_MalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"features": [{"center": [1]}]}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Geocode(context.Background(), "1 Main St")
	assert.ErrorIs(t, err, domain.ErrLookupFailed)
}

func TestClient_Geocode_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.httpClient = &http.Client{Timeout: 50 * time.Millisecond}

	_, err := c.Geocode(context.Background(), "1 Main St")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLookupFailed)
}

func TestClient_Geocode_RateLimitCancelled(t *testing.T) {
	c := NewClient(testToken, time.Second, 0.001, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.baseURL = "http://127.0.0.1:0"
	c.limiter.Allow() // drain the single burst token

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Geocode(ctx, "1 Main St")
	assert.ErrorIs(t, err, domain.ErrLookupFailed)
}
