package config

import (
	"errors"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/geo-sitemap-service/internal/domain"
)

// Geocode providers.
const (
	ProviderGoogle = "google"
	ProviderMapbox = "mapbox"
	ProviderNone   = "none"
)

// Geocode cache backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Site identity used for URLs and document titles.
	SiteURL         string
	SiteName        string
	SiteDescription string

	LocationsFile string
	PermalinkBase string
	AddressFormat domain.FormatSpec

	GeocodeProvider  string
	GoogleMapsAPIKey string
	MapboxToken      string
	GeocodeTimeout   time.Duration
	GeocodeRateLimit float64

	CacheBackend string
	CacheDSN     string
	CacheSize    int

	KafkaBrokers     []string
	KafkaNotifyTopic string
	SitemapPingURL   string
}

// GeoSitemapURL is the public URL of the geo sitemap.
func (c *Config) GeoSitemapURL() string { return c.SiteURL + "/geo-sitemap.xml" }

// KMLURL is the public URL of the KML document.
func (c *Config) KMLURL() string { return c.SiteURL + "/locations.kml" }

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	geocodeTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("GEOCODE_TIMEOUT", "5s"))
	if err != nil || geocodeTimeout <= 0 {
		return nil, errors.New("invalid GEOCODE_TIMEOUT")
	}

	rateLimit, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("GEOCODE_RATE_LIMIT", "10"), 64)
	if err != nil || rateLimit <= 0 {
		return nil, errors.New("invalid GEOCODE_RATE_LIMIT")
	}

	googleKey := os.Getenv("GOOGLE_MAPS_API_KEY")
	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	backend := strings.ToLower(sharedcfg.EnvOrDefault("GEOCODE_CACHE_BACKEND", BackendMemory))

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		SiteURL:         strings.TrimRight(os.Getenv("SITE_URL"), "/"),
		SiteName:        os.Getenv("SITE_NAME"),
		SiteDescription: os.Getenv("SITE_DESCRIPTION"),

		LocationsFile: sharedcfg.EnvOrDefault("LOCATIONS_FILE", "locations.yaml"),
		PermalinkBase: strings.Trim(sharedcfg.EnvOrDefault("LOCATIONS_PERMALINK_BASE", "locations"), "/"),
		AddressFormat: domain.ParseFormatSpec(os.Getenv("ADDRESS_FORMAT")),

		GeocodeProvider:  strings.ToLower(sharedcfg.EnvOrDefault("GEOCODE_PROVIDER", defaultProvider(googleKey, mapboxToken))),
		GoogleMapsAPIKey: googleKey,
		MapboxToken:      mapboxToken,
		GeocodeTimeout:   geocodeTimeout,
		GeocodeRateLimit: rateLimit,

		CacheBackend: backend,
		CacheDSN:     sharedcfg.EnvOrDefault("GEOCODE_CACHE_DSN", defaultDSN(backend)),
		CacheSize:    parseCacheSize(),

		KafkaNotifyTopic: sharedcfg.EnvOrDefault("KAFKA_NOTIFY_TOPIC", "geo-sitemap-updates"),
		SitemapPingURL:   os.Getenv("SITEMAP_PING_URL"),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(brokers)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.SiteURL == "" {
		return errors.New("SITE_URL is required")
	}
	if !isAbsoluteURL(c.SiteURL) {
		return errors.New("SITE_URL must be an absolute http(s) URL")
	}

	switch c.GeocodeProvider {
	case ProviderGoogle:
		if c.GoogleMapsAPIKey == "" {
			return errors.New("GEOCODE_PROVIDER is google but GOOGLE_MAPS_API_KEY is not set")
		}
	case ProviderMapbox:
		if c.MapboxToken == "" {
			return errors.New("GEOCODE_PROVIDER is mapbox but MAPBOX_TOKEN is not set")
		}
	case ProviderNone:
	default:
		return errors.New("GEOCODE_PROVIDER must be google, mapbox or none")
	}

	switch c.CacheBackend {
	case BackendMemory, BackendSQLite:
	case BackendPostgres:
		if c.CacheDSN == "" {
			return errors.New("GEOCODE_CACHE_DSN is required for the postgres backend")
		}
	default:
		return errors.New("GEOCODE_CACHE_BACKEND must be memory, sqlite or postgres")
	}

	if c.KafkaNotifyTopic == "" && len(c.KafkaBrokers) > 0 {
		return errors.New("KAFKA_NOTIFY_TOPIC is required when KAFKA_BROKERS is set")
	}
	if c.SitemapPingURL != "" && !isAbsoluteURL(c.SitemapPingURL) {
		return errors.New("SITEMAP_PING_URL must be an absolute http(s) URL")
	}
	return nil
}

func defaultProvider(googleKey, mapboxToken string) string {
	switch {
	case googleKey != "":
		return ProviderGoogle
	case mapboxToken != "":
		return ProviderMapbox
	default:
		return ProviderNone
	}
}

func defaultDSN(backend string) string {
	if backend == BackendSQLite {
		return "geocache.db"
	}
	return ""
}

func parseCacheSize() int {
	if s := os.Getenv("GEOCODE_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
