// Package ping tells a search engine (or any compatible endpoint) that the geo
// sitemap changed by issuing GET {endpoint}?sitemap={sitemap url}.
package ping

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"

	"github.com/couchcryptid/geo-sitemap-service/internal/domain"
)

// Notifier pings one endpoint per update.
// It implements pipeline.Notifier.
type Notifier struct {
	endpoint   *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

// NewNotifier creates a Notifier for endpoint. Existing query parameters on
// the endpoint are kept.
func NewNotifier(endpoint string, timeout time.Duration, logger *slog.Logger) (*Notifier, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, eris.Wrapf(err, "parse ping url %q", endpoint)
	}
	return &Notifier{
		endpoint:   u,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

func (n *Notifier) Name() string { return "ping" }

// Notify sends the ping. Any non-2xx response is an error.
func (n *Notifier) Notify(ctx context.Context, update domain.SitemapUpdate) error {
	target := *n.endpoint
	q := target.Query()
	q.Set("sitemap", update.SitemapURL)
	target.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), http.NoBody)
	if err != nil {
		return eris.Wrap(err, "build ping request")
	}
	resp, err := n.httpClient.Do(req)
	if err != nil {
		return eris.Wrapf(err, "ping %s", n.endpoint.Host)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return eris.Errorf("ping %s: status %d", n.endpoint.Host, resp.StatusCode)
	}
	n.logger.Debug("sitemap ping sent", "endpoint", n.endpoint.Host, "status", resp.StatusCode)
	return nil
}
