package document

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"

	"github.com/couchcryptid/geo-sitemap-service/internal/domain"
)

const (
	kmlNS  = "http://www.opengis.net/kml/2.2"
	atomNS = "http://www.w3.org/2005/Atom"

	lookAtAltitude = 1500
)

// KML is the locations document: one placemark per named location.
type KML struct {
	Title      string
	Author     string
	Website    string
	Placemarks []Placemark
}

// Placemark is a single location. Coordinates is nil when the location could
// not be resolved; such placemarks carry no LookAt or Point.
type Placemark struct {
	Name        string
	Address     string
	Description string
	Link        string
	Coordinates *domain.Coordinates
}

type kmlRoot struct {
	XMLName   xml.Name    `xml:"kml"`
	Xmlns     string      `xml:"xmlns,attr"`
	XmlnsAtom string      `xml:"xmlns:atom,attr"`
	Document  kmlDocument `xml:"Document"`
}

type kmlDocument struct {
	Name   string      `xml:"name"`
	Author *atomAuthor `xml:"atom:author,omitempty"`
	Link   *atomLink   `xml:"atom:link,omitempty"`
	Open   int         `xml:"open"`
	Folder kmlFolder   `xml:"Folder"`
}

type atomAuthor struct {
	Name string `xml:"atom:name"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
}

type kmlFolder struct {
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type cdata struct {
	Text string `xml:",cdata"`
}

type kmlPlacemark struct {
	Name        cdata    `xml:"name"`
	Address     cdata    `xml:"address"`
	Description cdata    `xml:"description"`
	Link        atomLink `xml:"atom:link"`
	LookAt      *lookAt  `xml:"LookAt,omitempty"`
	Point       *point   `xml:"Point,omitempty"`
}

type lookAt struct {
	Latitude     string `xml:"latitude"`
	Longitude    string `xml:"longitude"`
	Altitude     int    `xml:"altitude"`
	Range        string `xml:"range"`
	Tilt         int    `xml:"tilt"`
	Heading      string `xml:"heading"`
	AltitudeMode string `xml:"altitudeMode"`
}

type point struct {
	Coordinates string `xml:"coordinates"`
}

// Render returns the document with an XML prolog.
func (k KML) Render() ([]byte, error) {
	doc := kmlRoot{
		Xmlns:     kmlNS,
		XmlnsAtom: atomNS,
		Document: kmlDocument{
			Name: k.Title,
			Open: 1,
		},
	}
	if k.Author != "" {
		doc.Document.Author = &atomAuthor{Name: k.Author}
	}
	if k.Website != "" {
		doc.Document.Link = &atomLink{Href: k.Website}
	}

	doc.Document.Folder.Placemarks = make([]kmlPlacemark, 0, len(k.Placemarks))
	for _, p := range k.Placemarks {
		doc.Document.Folder.Placemarks = append(doc.Document.Folder.Placemarks, renderPlacemark(p))
	}
	return marshalDocument(doc, "kml")
}

func renderPlacemark(p Placemark) kmlPlacemark {
	out := kmlPlacemark{
		Name:        cdata{scrubXML(p.Name)},
		Address:     cdata{scrubXML(p.Address)},
		Description: cdata{scrubXML(p.Description)},
		Link:        atomLink{Href: p.Link},
	}
	if c := p.Coordinates; c != nil {
		out.LookAt = &lookAt{
			Latitude:     c.LatString(),
			Longitude:    c.LonString(),
			Altitude:     lookAtAltitude,
			AltitudeMode: "relativeToGround",
		}
		out.Point = &point{Coordinates: pointCoordinates(*c)}
	}
	return out
}

// scrubXML makes s safe for a CDATA section. Invalid UTF-8 becomes U+FFFD and
// runes outside the XML Char production are dropped.
func scrubXML(s string) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	return strings.Map(func(r rune) rune {
		if isXMLChar(r) {
			return r
		}
		return -1
	}, s)
}

func isXMLChar(r rune) bool {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}

// pointCoordinates renders c as a KML coordinate tuple: lon,lat,alt.
func pointCoordinates(c domain.Coordinates) string {
	p := geom.NewPointFlat(geom.XYZ, []float64{c.Lon, c.Lat, 0})
	parts := make([]string, 0, p.Stride())
	for _, v := range p.FlatCoords() {
		parts = append(parts, strconv.FormatFloat(v, 'f', -1, 64))
	}
	return strings.Join(parts, ",")
}
