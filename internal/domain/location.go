package domain

import (
	"strconv"
	"time"
)

// Mode tells which backing representation the location records came from.
type Mode string

const (
	// ModeSingle means one flat business configuration.
	ModeSingle Mode = "single"
	// ModeMulti means a collection of location entities.
	ModeMulti Mode = "multi"
)

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// NewCoordinates builds a Coordinates pointer from an optional pair. It returns
// nil unless both values are present.
func NewCoordinates(lat, lon *float64) *Coordinates {
	if lat == nil || lon == nil {
		return nil
	}
	return &Coordinates{Lat: *lat, Lon: *lon}
}

// LatString formats the latitude without trailing zeros.
func (c Coordinates) LatString() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64)
}

// LonString formats the longitude without trailing zeros.
func (c Coordinates) LonString() string {
	return strconv.FormatFloat(c.Lon, 'f', -1, 64)
}

// LocationRecord is the canonical form of one business location.
type LocationRecord struct {
	ID          string
	Name        string
	Address     string
	City        string
	State       string
	Zipcode     string
	Country     string // ISO 3166-1 alpha-2, upper case
	Phone       string
	Phone2      string
	Fax         string
	Email       string
	URL         string
	Description string

	// Coordinates is nil when the location has not been geocoded.
	Coordinates *Coordinates
}

// HasCoordinates reports whether the record carries a coordinate pair.
func (r LocationRecord) HasCoordinates() bool {
	return r.Coordinates != nil
}

// SitemapUpdate announces that the geo sitemap content changed.
type SitemapUpdate struct {
	SitemapURL string    `json:"sitemap_url"`
	UpdatedAt  time.Time `json:"updated_at"`
}
