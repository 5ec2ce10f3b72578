package main

import (
	"context"
	"log/slog"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/couchcryptid/geo-sitemap-service/internal/adapter/googlemaps"
	kafkaadapter "github.com/couchcryptid/geo-sitemap-service/internal/adapter/kafka"
	"github.com/couchcryptid/geo-sitemap-service/internal/adapter/mapbox"
	"github.com/couchcryptid/geo-sitemap-service/internal/adapter/ping"
	"github.com/couchcryptid/geo-sitemap-service/internal/config"
	"github.com/couchcryptid/geo-sitemap-service/internal/document"
	"github.com/couchcryptid/geo-sitemap-service/internal/domain"
	"github.com/couchcryptid/geo-sitemap-service/internal/geocache"
	"github.com/couchcryptid/geo-sitemap-service/internal/locations"
	"github.com/couchcryptid/geo-sitemap-service/internal/observability"
	"github.com/couchcryptid/geo-sitemap-service/internal/pipeline"
)

// app is the wired service. close releases the cache store and notifiers.
type app struct {
	pipeline *pipeline.Pipeline
	cache    *geocache.Cache
	repo     *locations.Repository
	closers  []func() error
	logger   *slog.Logger
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*app, error) {
	a := &app{logger: logger}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store.Close)

	geocoder := newGeocoder(cfg, logger, metrics)
	if geocoder != nil {
		metrics.GeocodeEnabled.Set(1)
		logger.Info("geocoding enabled", "provider", cfg.GeocodeProvider, "rate_limit", cfg.GeocodeRateLimit)
	} else {
		metrics.GeocodeEnabled.Set(0)
		logger.Info("geocoding disabled, cached coordinates only")
	}

	repo := locations.NewRepository(locations.Site{
		URL:           cfg.SiteURL,
		Name:          cfg.SiteName,
		Description:   cfg.SiteDescription,
		PermalinkBase: cfg.PermalinkBase,
	}, locations.NewFileStore(cfg.LocationsFile), logger)

	a.repo = repo
	a.cache = geocache.New(store, geocoder, repo, cfg.AddressFormat, metrics, logger)

	notifiers, err := a.newNotifiers(cfg, logger)
	if err != nil {
		a.close()
		return nil, err
	}

	a.pipeline = pipeline.New(repo, a.cache, store, newBuilder(cfg), notifiers, logger, metrics)
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("close error", "error", err)
		}
	}
}

// openStore opens the configured cache backend. Persistent backends get an
// in-process LRU in front.
func openStore(ctx context.Context, cfg *config.Config) (geocache.Store, error) {
	switch cfg.CacheBackend {
	case config.BackendSQLite:
		s, err := geocache.OpenSQLite(ctx, cfg.CacheDSN)
		if err != nil {
			return nil, err
		}
		return geocache.NewLRUStore(s, cfg.CacheSize), nil
	case config.BackendPostgres:
		s, err := geocache.OpenPostgres(ctx, cfg.CacheDSN)
		if err != nil {
			return nil, err
		}
		return geocache.NewLRUStore(s, cfg.CacheSize), nil
	default:
		return geocache.NewMemoryStore(), nil
	}
}

// newGeocoder returns nil when geocoding is disabled.
func newGeocoder(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) domain.Geocoder {
	switch cfg.GeocodeProvider {
	case config.ProviderGoogle:
		return googlemaps.NewClient(cfg.GoogleMapsAPIKey, cfg.GeocodeTimeout, cfg.GeocodeRateLimit, metrics, logger)
	case config.ProviderMapbox:
		return mapbox.NewClient(cfg.MapboxToken, cfg.GeocodeTimeout, cfg.GeocodeRateLimit, metrics, logger)
	default:
		return nil
	}
}

func (a *app) newNotifiers(cfg *config.Config, logger *slog.Logger) ([]pipeline.Notifier, error) {
	var notifiers []pipeline.Notifier
	if len(cfg.KafkaBrokers) > 0 {
		w := kafkaadapter.NewWriter(cfg, logger)
		a.closers = append(a.closers, w.Close)
		notifiers = append(notifiers, w)
	}
	if cfg.SitemapPingURL != "" {
		n, err := ping.NewNotifier(cfg.SitemapPingURL, cfg.GeocodeTimeout, logger)
		if err != nil {
			return nil, eris.Wrap(err, "configure sitemap ping")
		}
		notifiers = append(notifiers, n)
	}
	return notifiers, nil
}

func newBuilder(cfg *config.Config) document.Builder {
	name := strings.TrimSpace(cfg.SiteName)
	title := "Locations"
	if name != "" {
		title = "Locations for " + name + "."
	}
	return document.Builder{
		SitemapURL: cfg.GeoSitemapURL(),
		KMLURL:     cfg.KMLURL(),
		Title:      title,
		Author:     name,
		Website:    cfg.SiteURL + "/",
		Format:     cfg.AddressFormat,
	}
}
