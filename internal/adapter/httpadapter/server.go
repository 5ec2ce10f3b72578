package httpadapter

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/geo-sitemap-service/internal/document"
)

const (
	xmlContentType = "application/xml; charset=utf-8"
	kmlContentType = "application/vnd.google-earth.kml+xml; charset=utf-8"
)

// Routes served by the document endpoints.
const (
	SitemapFragmentPath = "/sitemap-index-fragment.xml"
	GeoSitemapPath      = "/geo-sitemap.xml"
	KMLPath             = "/locations.kml"
	legacyGeoSitemap    = "/geo_sitemap.xml"
)

// Documents renders the output documents. *pipeline.Pipeline satisfies it.
type Documents interface {
	sharedobs.ReadinessChecker
	HasLocations(ctx context.Context) (bool, error)
	RunSitemap(ctx context.Context) document.SitemapIndexFragment
	RunGeoSitemap(ctx context.Context) document.GeoSitemap
	RunKML(ctx context.Context) (document.KML, error)
}

// Server exposes the sitemap documents plus health, readiness, and metrics
// endpoints.
type Server struct {
	httpServer *http.Server
	docs       Documents
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the document, /healthz, /readyz, and
// /metrics routes.
func NewServer(addr string, docs Documents, logger *slog.Logger) *Server {
	s := &Server{docs: docs, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(docs))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodHead},
		}))
		r.Use(middleware.GetHead)
		r.Get(SitemapFragmentPath, s.handleSitemapFragment)
		r.Get(GeoSitemapPath, s.handleGeoSitemap)
		r.Get(KMLPath, s.handleKML)
		r.Get(legacyGeoSitemap, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, GeoSitemapPath, http.StatusMovedPermanently)
		})
	})

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleSitemapFragment(w http.ResponseWriter, r *http.Request) {
	if !s.requireLocations(w, r) {
		return
	}
	body, err := s.docs.RunSitemap(r.Context()).Render()
	s.write(w, r, xmlContentType, body, err)
}

func (s *Server) handleGeoSitemap(w http.ResponseWriter, r *http.Request) {
	if !s.requireLocations(w, r) {
		return
	}
	body, err := s.docs.RunGeoSitemap(r.Context()).Render()
	s.write(w, r, xmlContentType, body, err)
}

func (s *Server) handleKML(w http.ResponseWriter, r *http.Request) {
	if !s.requireLocations(w, r) {
		return
	}
	doc, err := s.docs.RunKML(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	body, err := doc.Render()
	s.write(w, r, kmlContentType, body, err)
}

// requireLocations writes 404 when the location source is empty and reports
// whether the handler should continue.
func (s *Server) requireLocations(w http.ResponseWriter, r *http.Request) bool {
	ok, err := s.docs.HasLocations(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return false
	}
	if !ok {
		http.NotFound(w, r)
		return false
	}
	return true
}

func (s *Server) write(w http.ResponseWriter, r *http.Request, contentType string, body []byte, err error) {
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	http.ServeContent(w, r, "", time.Time{}, bytes.NewReader(body))
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("render document failed",
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
		"error", err,
	)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
