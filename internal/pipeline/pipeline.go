package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/geo-sitemap-service/internal/document"
	"github.com/couchcryptid/geo-sitemap-service/internal/domain"
	"github.com/couchcryptid/geo-sitemap-service/internal/observability"
)

// RecordSource loads the current location records.
type RecordSource interface {
	Load(ctx context.Context) ([]domain.LocationRecord, domain.Mode, error)
}

// Resolver returns coordinates for a record, from cache or a live lookup.
type Resolver interface {
	GetOrResolve(ctx context.Context, rec domain.LocationRecord, forceRefresh bool) (domain.GeoResolution, error)
}

// StateStore keeps the time the location data last changed.
type StateStore interface {
	LastModified(ctx context.Context) (time.Time, bool, error)
	SetLastModified(ctx context.Context, t time.Time) error
}

// Notifier tells an external party that the geo sitemap changed.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, update domain.SitemapUpdate) error
}

// Pipeline turns location records into output documents. It holds no state
// between calls; every run re-reads the records.
type Pipeline struct {
	records   RecordSource
	resolver  Resolver
	state     StateStore
	builder   document.Builder
	notifiers []Notifier
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Pipeline from its collaborators.
func New(records RecordSource, resolver Resolver, state StateStore, builder document.Builder, notifiers []Notifier, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		records:   records,
		resolver:  resolver,
		state:     state,
		builder:   builder,
		notifiers: notifiers,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil when the location source can be read.
func (p *Pipeline) CheckReadiness(ctx context.Context) error {
	_, _, err := p.records.Load(ctx)
	return err
}

// HasLocations reports whether the source holds at least one record.
func (p *Pipeline) HasLocations(ctx context.Context) (bool, error) {
	records, _, err := p.records.Load(ctx)
	if err != nil {
		return false, err
	}
	return len(records) > 0, nil
}

// RunSitemap builds the sitemap-index fragment. It never geocodes.
func (p *Pipeline) RunSitemap(ctx context.Context) document.SitemapIndexFragment {
	frag := p.builder.SitemapFragment(p.lastModified(ctx))
	p.metrics.DocumentsRendered.WithLabelValues("sitemap_index").Inc()
	return frag
}

// RunGeoSitemap builds the geo sitemap pointing at the KML document.
func (p *Pipeline) RunGeoSitemap(ctx context.Context) document.GeoSitemap {
	doc := p.builder.GeoSitemap(p.lastModified(ctx))
	p.metrics.DocumentsRendered.WithLabelValues("geo_sitemap").Inc()
	return doc
}

// RunKML loads the records, resolves coordinates for those that lack them and
// builds the KML document. A failed lookup leaves that record without
// coordinates; it is still rendered.
func (p *Pipeline) RunKML(ctx context.Context) (document.KML, error) {
	records, mode, err := p.records.Load(ctx)
	if err != nil {
		return document.KML{}, err
	}

	for i := range records {
		if records[i].HasCoordinates() {
			continue
		}
		res, err := p.resolver.GetOrResolve(ctx, records[i], false)
		if err != nil {
			p.logger.Warn("geocode lookup failed, rendering without coordinates",
				"record", records[i].ID,
				"name", records[i].Name,
				"error", err,
			)
			continue
		}
		coords := res.Coordinates
		records[i].Coordinates = &coords
	}

	doc := p.builder.KML(records)
	skipped := len(records) - len(doc.Placemarks)
	if skipped > 0 {
		p.metrics.RecordsSkipped.Add(float64(skipped))
	}
	p.metrics.Placemarks.Set(float64(len(doc.Placemarks)))
	p.metrics.DocumentsRendered.WithLabelValues("kml").Inc()
	p.logger.Debug("kml rendered", "mode", mode, "records", len(records), "placemarks", len(doc.Placemarks))
	return doc, nil
}

// MarkUpdated records now as the last-modified time and notifies every
// configured notifier. Notifier failures are logged, not returned.
func (p *Pipeline) MarkUpdated(ctx context.Context) error {
	now := domain.Now()
	if err := p.state.SetLastModified(ctx, now); err != nil {
		return err
	}

	update := domain.SitemapUpdate{SitemapURL: p.builder.SitemapURL, UpdatedAt: now}
	for _, n := range p.notifiers {
		if err := n.Notify(ctx, update); err != nil {
			p.metrics.Notifications.WithLabelValues(n.Name(), "error").Inc()
			p.logger.Warn("sitemap notification failed", "notifier", n.Name(), "error", err)
			continue
		}
		p.metrics.Notifications.WithLabelValues(n.Name(), "success").Inc()
	}
	return nil
}

// lastModified returns the stored timestamp, or nil when none is recorded or
// it cannot be read.
func (p *Pipeline) lastModified(ctx context.Context) *time.Time {
	t, ok, err := p.state.LastModified(ctx)
	if err != nil {
		p.logger.Warn("read last modified failed, using current time", "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	return &t
}
