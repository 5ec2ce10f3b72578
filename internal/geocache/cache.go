package geocache

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/geo-sitemap-service/internal/domain"
	"github.com/couchcryptid/geo-sitemap-service/internal/observability"
)

// WriteBack persists a freshly resolved location onto the record it came from.
// It must be idempotent.
type WriteBack interface {
	SaveResolution(ctx context.Context, recordID string, coords domain.Coordinates) error
}

// Cache decides whether a record needs a live lookup and remembers the answer.
type Cache struct {
	store     Store
	geocoder  domain.Geocoder
	writeBack WriteBack
	format    domain.FormatSpec
	metrics   *observability.Metrics
	logger    *slog.Logger

	flights singleflight.Group
}

// New builds a Cache. geocoder may be nil when no provider is configured, in
// which case every miss is reported as a failed lookup. writeBack may be nil.
func New(store Store, geocoder domain.Geocoder, writeBack WriteBack, format domain.FormatSpec, metrics *observability.Metrics, logger *slog.Logger) *Cache {
	return &Cache{
		store:     store,
		geocoder:  geocoder,
		writeBack: writeBack,
		format:    format,
		metrics:   metrics,
		logger:    logger,
	}
}

// Enabled reports whether a live geocoding provider is configured.
func (c *Cache) Enabled() bool { return c.geocoder != nil }

// Store exposes the backing store for last-modified bookkeeping.
func (c *Cache) Store() Store { return c.store }

// GetOrResolve returns the cached resolution for rec's address unless
// forceRefresh is set or nothing usable is cached, in which case it performs
// one live lookup, stores the result and writes it back onto the record.
// On failure the returned error matches domain.ErrLookupFailed and the stored
// value is left untouched.
func (c *Cache) GetOrResolve(ctx context.Context, rec domain.LocationRecord, forceRefresh bool) (domain.GeoResolution, error) {
	sig := domain.Signature(rec)

	if !forceRefresh {
		res, ok, err := c.store.Get(ctx, sig)
		switch {
		case err != nil:
			c.logger.Warn("geocode cache read failed, resolving live", "signature", sig, "error", err)
		case ok:
			c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
			res.Source = domain.SourceCache
			return res, nil
		}
		c.metrics.GeocodeCache.WithLabelValues("miss").Inc()
	}

	address := domain.FullAddress(rec, c.format)
	if address == "" {
		return domain.GeoResolution{}, domain.NewLookupError(address, "empty", nil)
	}
	if c.geocoder == nil {
		return domain.GeoResolution{}, domain.NewLookupError(address, "disabled", nil)
	}

	v, err, _ := c.flights.Do(sig, func() (any, error) {
		return c.resolve(context.WithoutCancel(ctx), sig, address)
	})
	if err != nil {
		return domain.GeoResolution{}, err
	}
	res := v.(domain.GeoResolution)

	if c.writeBack != nil && rec.ID != "" {
		if err := c.writeBack.SaveResolution(ctx, rec.ID, res.Coordinates); err != nil {
			c.metrics.WriteBackErrors.Inc()
			c.logger.Warn("write-back failed", "record", rec.ID, "error", err)
		}
	}
	return res, nil
}

func (c *Cache) resolve(ctx context.Context, sig, address string) (domain.GeoResolution, error) {
	coords, err := c.geocoder.Geocode(ctx, address)
	if err != nil {
		if !errors.Is(err, domain.ErrLookupFailed) {
			err = domain.NewLookupError(address, "error", err)
		}
		return domain.GeoResolution{}, err
	}

	res := domain.GeoResolution{
		Signature:   sig,
		Coordinates: coords,
		ResolvedAt:  domain.Now(),
		Source:      domain.SourceLiveLookup,
	}
	if err := c.store.Put(ctx, res); err != nil {
		c.logger.Warn("geocode cache write failed", "signature", sig, "error", err)
	}
	return res, nil
}
