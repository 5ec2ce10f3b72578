package document

import (
	"bytes"
	"encoding/xml"
	"time"

	"github.com/rotisserie/eris"
)

const (
	sitemapNS    = "http://www.sitemaps.org/schemas/sitemap/0.9"
	geoSitemapNS = "http://www.google.com/geo/schemas/sitemap/1.0"
)

// SitemapIndexFragment is the <sitemap> entry a sitemap index uses to point at
// the geo sitemap.
type SitemapIndexFragment struct {
	Loc     string
	LastMod time.Time
}

type sitemapEntry struct {
	XMLName xml.Name `xml:"sitemap"`
	Loc     string   `xml:"loc"`
	LastMod string   `xml:"lastmod"`
}

// Render returns the fragment without an XML prolog so it can be spliced into
// an index document.
func (f SitemapIndexFragment) Render() ([]byte, error) {
	out, err := xml.MarshalIndent(sitemapEntry{Loc: f.Loc, LastMod: formatTime(f.LastMod)}, "", "\t")
	if err != nil {
		return nil, eris.Wrap(err, "document: render sitemap fragment")
	}
	return append(out, '\n'), nil
}

// GeoSitemap is a urlset with one entry pointing at the KML document.
type GeoSitemap struct {
	Loc     string
	LastMod time.Time
}

type urlset struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	XmlnsGe string   `xml:"xmlns:geo,attr"`
	URL     urlEntry `xml:"url"`
}

type urlEntry struct {
	Loc      string `xml:"loc"`
	LastMod  string `xml:"lastmod"`
	Priority string `xml:"priority"`
}

func (g GeoSitemap) Render() ([]byte, error) {
	doc := urlset{
		Xmlns:   sitemapNS,
		XmlnsGe: geoSitemapNS,
		URL: urlEntry{
			Loc:      g.Loc,
			LastMod:  formatTime(g.LastMod),
			Priority: "1",
		},
	}
	return marshalDocument(doc, "geo sitemap")
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func marshalDocument(v any, what string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "\t")
	if err := enc.Encode(v); err != nil {
		return nil, eris.Wrapf(err, "document: render %s", what)
	}
	if err := enc.Close(); err != nil {
		return nil, eris.Wrapf(err, "document: render %s", what)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
