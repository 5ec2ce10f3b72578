package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "geo_sitemap"

// Metrics holds the Prometheus counters, histograms, and gauges for the geo sitemap service.
type Metrics struct {
	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: provider={google,mapbox}, outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec   // labels: result={hit,miss}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: provider={google,mapbox}
	GeocodeEnabled     prometheus.Gauge
	WriteBackErrors    prometheus.Counter

	// Document metrics.
	DocumentsRendered *prometheus.CounterVec // labels: document={kml,geo_sitemap,sitemap_index}
	Placemarks        prometheus.Gauge
	RecordsSkipped    prometheus.Counter

	Notifications *prometheus.CounterVec // labels: notifier={kafka,ping}, outcome={success,error}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
		m.WriteBackErrors,
		m.DocumentsRendered,
		m.Placemarks,
		m.RecordsSkipped,
		m.Notifications,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocode cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Geocoding API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"provider"}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when a geocoding provider is configured, 0 otherwise.",
		}),
		WriteBackErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "write_back_errors_total",
			Help:      "Resolved coordinates that could not be written back to the location source.",
		}),
		DocumentsRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_rendered_total",
			Help:      "Rendered output documents by type.",
		}, []string{"document"}),
		Placemarks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "placemarks",
			Help:      "Placemarks in the most recently rendered KML document.",
		}),
		RecordsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_skipped_total",
			Help:      "Location records left out of the KML document for lack of a name.",
		}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Sitemap update notifications by notifier and outcome.",
		}, []string{"notifier", "outcome"}),
	}
}
