// Package document assembles the sitemap-index fragment, the geo sitemap and
// the KML locations document from canonical location records.
package document

import (
	"strings"
	"time"

	"github.com/couchcryptid/geo-sitemap-service/internal/domain"
)

// Builder holds the site-level values every document needs.
type Builder struct {
	SitemapURL string // absolute URL of the geo sitemap
	KMLURL     string // absolute URL of the KML document
	Title      string
	Author     string
	Website    string
	Format     domain.FormatSpec
}

// SitemapFragment points a sitemap index at the geo sitemap. A nil
// lastModified means no update has been recorded; the current time is used.
func (b Builder) SitemapFragment(lastModified *time.Time) SitemapIndexFragment {
	return SitemapIndexFragment{Loc: b.SitemapURL, LastMod: orNow(lastModified)}
}

// GeoSitemap points search engines at the KML document.
func (b Builder) GeoSitemap(lastModified *time.Time) GeoSitemap {
	return GeoSitemap{Loc: b.KMLURL, LastMod: orNow(lastModified)}
}

// KML builds one placemark per record with a non-blank name, in record order.
// Nameless records are left out.
func (b Builder) KML(records []domain.LocationRecord) KML {
	doc := KML{
		Title:      b.Title,
		Author:     b.Author,
		Website:    b.Website,
		Placemarks: make([]Placemark, 0, len(records)),
	}
	for _, r := range records {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			continue
		}
		doc.Placemarks = append(doc.Placemarks, Placemark{
			Name:        name,
			Address:     domain.FullAddress(r, b.Format),
			Description: Sanitize(r.Description),
			Link:        r.URL,
			Coordinates: r.Coordinates,
		})
	}
	return doc
}

func orNow(t *time.Time) time.Time {
	if t == nil || t.IsZero() {
		return domain.Now()
	}
	return *t
}
