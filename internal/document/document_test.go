package document

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/geo-sitemap-service/internal/domain"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testBuilder() Builder {
	return Builder{
		SitemapURL: "https://acme.example/geo-sitemap.xml",
		KMLURL:     "https://acme.example/locations.kml",
		Title:      "Locations for Acme.",
		Author:     "Acme",
		Website:    "https://acme.example/",
		Format:     domain.DefaultFormatSpec,
	}
}

func acme() domain.LocationRecord {
	return domain.LocationRecord{
		ID:          "business",
		Name:        "Acme Bakery",
		Address:     "1 Main St",
		City:        "Springfield",
		State:       "IL",
		Zipcode:     "62701",
		Country:     "US",
		URL:         "https://acme.example/",
		Description: "Acme - Fresh bread daily",
		Coordinates: &domain.Coordinates{Lat: 39.78, Lon: -89.65},
	}
}

// wellFormed walks every token and fails on the first syntax error.
func wellFormed(t *testing.T, data []byte) {
	t.Helper()
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return
		}
		require.NoError(t, err, "document is not well-formed:\n%s", data)
	}
}

func TestSitemapFragment(t *testing.T) {
	lm := testNow
	out, err := testBuilder().SitemapFragment(&lm).Render()
	require.NoError(t, err)
	wellFormed(t, out)

	s := string(out)
	assert.True(t, strings.HasPrefix(s, "<sitemap>"), "fragment has no prolog")
	assert.Contains(t, s, "<loc>https://acme.example/geo-sitemap.xml</loc>")
	assert.Contains(t, s, "<lastmod>2024-03-01T12:00:00Z</lastmod>")
}

func TestSitemapFragment_NoTimestampUsesClock(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(testNow))
	t.Cleanup(func() { domain.SetClock(nil) })

	frag := testBuilder().SitemapFragment(nil)
	assert.Equal(t, testNow, frag.LastMod)
}

func TestGeoSitemap(t *testing.T) {
	lm := testNow
	out, err := testBuilder().GeoSitemap(&lm).Render()
	require.NoError(t, err)
	wellFormed(t, out)

	s := string(out)
	assert.True(t, strings.HasPrefix(s, xml.Header))
	assert.Contains(t, s, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9" xmlns:geo="http://www.google.com/geo/schemas/sitemap/1.0">`)
	assert.Contains(t, s, "<loc>https://acme.example/locations.kml</loc>")
	assert.Contains(t, s, "<lastmod>2024-03-01T12:00:00Z</lastmod>")
	assert.Contains(t, s, "<priority>1</priority>")
	assert.Equal(t, 1, strings.Count(s, "<url>"))
}

func TestKML_SinglePlacemark(t *testing.T) {
	out, err := testBuilder().KML([]domain.LocationRecord{acme()}).Render()
	require.NoError(t, err)
	wellFormed(t, out)

	s := string(out)
	for _, want := range []string{
		`<kml xmlns="http://www.opengis.net/kml/2.2" xmlns:atom="http://www.w3.org/2005/Atom">`,
		"<name>Locations for Acme.</name>",
		"<atom:author>",
		"<atom:name>Acme</atom:name>",
		`<atom:link href="https://acme.example/"></atom:link>`,
		"<open>1</open>",
		"<name><![CDATA[Acme Bakery]]></name>",
		"<address><![CDATA[1 Main St, Springfield, IL 62701, United States]]></address>",
		"<description><![CDATA[Acme - Fresh bread daily]]></description>",
		"<latitude>39.78</latitude>",
		"<longitude>-89.65</longitude>",
		"<altitude>1500</altitude>",
		"<tilt>0</tilt>",
		"<altitudeMode>relativeToGround</altitudeMode>",
		"<coordinates>-89.65,39.78,0</coordinates>",
	} {
		assert.Contains(t, s, want)
	}
	assert.Equal(t, 1, strings.Count(s, "<Placemark>"))
}

func TestKML_EmptyInputHasEmptyFolder(t *testing.T) {
	doc := testBuilder().KML(nil)
	assert.Empty(t, doc.Placemarks)

	out, err := doc.Render()
	require.NoError(t, err)
	wellFormed(t, out)
	assert.Contains(t, string(out), "<Folder></Folder>")

	again, err := testBuilder().KML([]domain.LocationRecord{}).Render()
	require.NoError(t, err)
	assert.Equal(t, string(out), string(again))
}

func TestKML_CoordinatesAreLonLat(t *testing.T) {
	records := []domain.LocationRecord{
		{Name: "A", Coordinates: &domain.Coordinates{Lat: 10.5, Lon: 20.25}},
		{Name: "B", Coordinates: &domain.Coordinates{Lat: -33.8688, Lon: 151.2093}},
		{Name: "C", Coordinates: &domain.Coordinates{Lat: 0, Lon: -0.1276}},
	}
	out, err := testBuilder().KML(records).Render()
	require.NoError(t, err)
	wellFormed(t, out)

	s := string(out)
	assert.Equal(t, 3, strings.Count(s, "<Placemark>"))
	assert.Contains(t, s, "<coordinates>20.25,10.5,0</coordinates>")
	assert.Contains(t, s, "<coordinates>151.2093,-33.8688,0</coordinates>")
	assert.Contains(t, s, "<coordinates>-0.1276,0,0</coordinates>")
}

func TestKML_UnresolvedRecordHasNoPoint(t *testing.T) {
	rec := acme()
	rec.Coordinates = nil

	out, err := testBuilder().KML([]domain.LocationRecord{rec}).Render()
	require.NoError(t, err)
	wellFormed(t, out)

	s := string(out)
	assert.Contains(t, s, "<name><![CDATA[Acme Bakery]]></name>")
	assert.NotContains(t, s, "<Point>")
	assert.NotContains(t, s, "<LookAt>")
}

func TestKML_SkipsNamelessRecords(t *testing.T) {
	blank := acme()
	blank.Name = "   "

	doc := testBuilder().KML([]domain.LocationRecord{blank, {}, acme()})
	require.Len(t, doc.Placemarks, 1)
	assert.Equal(t, "Acme Bakery", doc.Placemarks[0].Name)
}

func TestKML_HostileContentStaysWellFormed(t *testing.T) {
	rec := acme()
	rec.Name = `Bob's "Fish" & Chips <b>]]></b>`
	rec.Address = "1 <Main> & St"
	rec.Description = "Best ]]> in town"
	rec.URL = `https://acme.example/?a=1&b="2"`

	doc := testBuilder()
	doc.Title = "Locations for <Acme> & Co."
	doc.Website = "https://acme.example/?x=<y>"

	out, err := doc.KML([]domain.LocationRecord{rec}).Render()
	require.NoError(t, err)
	wellFormed(t, out)
	assert.Contains(t, string(out), `href="https://acme.example/?a=1&amp;b=&#34;2&#34;"`)
}

func TestKML_ControlCharactersAndInvalidUTF8(t *testing.T) {
	tests := []struct {
		name    string
		edit    func(*domain.LocationRecord)
		want    string
		missing string
	}{
		{
			name:    "vertical tab in name",
			edit:    func(r *domain.LocationRecord) { r.Name = "Acme\x0bBakery" },
			want:    "<![CDATA[AcmeBakery]]>",
			missing: "\x0b",
		},
		{
			name:    "control character in description",
			edit:    func(r *domain.LocationRecord) { r.Description = "tab\x01stop" },
			want:    "<![CDATA[tabstop]]>",
			missing: "\x01",
		},
		{
			name:    "invalid utf-8 in name",
			edit:    func(r *domain.LocationRecord) { r.Name = "Acme \xff Bakery" },
			want:    "<![CDATA[Acme \uFFFD Bakery]]>",
			missing: "\xff",
		},
		{
			name:    "nul in address",
			edit:    func(r *domain.LocationRecord) { r.Address = "1 Main\x00 St" },
			want:    "<![CDATA[1 Main St, Springfield, IL 62701, United States]]>",
			missing: "\x00",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := acme()
			tt.edit(&rec)

			out, err := testBuilder().KML([]domain.LocationRecord{rec}).Render()
			require.NoError(t, err)
			wellFormed(t, out)
			assert.Contains(t, string(out), tt.want)
			assert.NotContains(t, string(out), tt.missing)
		})
	}
}

func TestScrubXML(t *testing.T) {
	assert.Equal(t, "keep\ttabs\nand\rbreaks", scrubXML("keep\ttabs\nand\rbreaks"))
	assert.Equal(t, "Café 東京 🥐", scrubXML("Café 東京 🥐"))
	assert.Equal(t, "ab", scrubXML("a\x1fb"))
	assert.Equal(t, "ab", scrubXML("a\uFFFEb"))
}

func TestKML_OptionalAuthorAndWebsite(t *testing.T) {
	b := testBuilder()
	b.Author = ""
	b.Website = ""

	out, err := b.KML(nil).Render()
	require.NoError(t, err)
	s := string(out)
	assert.NotContains(t, s, "atom:author")
	assert.NotContains(t, s, "atom:link")
}

func TestKML_DescriptionSanitized(t *testing.T) {
	rec := acme()
	rec.Description = `[caption id="1"]<p>Fresh&nbsp;bread</p><p>daily</p>[/caption]`

	doc := testBuilder().KML([]domain.LocationRecord{rec})
	assert.Equal(t, "Fresh bread daily", doc.Placemarks[0].Description)
}
