// Package locations turns the configured business data into canonical
// domain.LocationRecord values and writes resolved coordinates back onto it.
//
// The backing data comes in one of two shapes: a single business described by
// flat fields, or a list of location entities. Source is the only place the two
// shapes are distinguished.
package locations

import (
	"github.com/rotisserie/eris"

	"github.com/couchcryptid/geo-sitemap-service/internal/domain"
)

// BusinessConfig is the flat configuration of a single-location business.
type BusinessConfig struct {
	Name      string   `yaml:"name"`
	Address   string   `yaml:"address,omitempty"`
	City      string   `yaml:"city,omitempty"`
	State     string   `yaml:"state,omitempty"`
	Zipcode   string   `yaml:"zipcode,omitempty"`
	Country   string   `yaml:"country,omitempty"`
	Phone     string   `yaml:"phone,omitempty"`
	Phone2    string   `yaml:"phone2,omitempty"`
	Fax       string   `yaml:"fax,omitempty"`
	Email     string   `yaml:"email,omitempty"`
	URL       string   `yaml:"url,omitempty"`
	Latitude  *float64 `yaml:"latitude,omitempty"`
	Longitude *float64 `yaml:"longitude,omitempty"`
}

// Entity is one location in a multi-location collection.
type Entity struct {
	ID        string   `yaml:"id"`
	Slug      string   `yaml:"slug,omitempty"`
	Title     string   `yaml:"title"`
	Excerpt   string   `yaml:"excerpt,omitempty"`
	Content   string   `yaml:"content,omitempty"`
	URL       string   `yaml:"url,omitempty"`
	Address   string   `yaml:"address,omitempty"`
	City      string   `yaml:"city,omitempty"`
	State     string   `yaml:"state,omitempty"`
	Zipcode   string   `yaml:"zipcode,omitempty"`
	Country   string   `yaml:"country,omitempty"`
	Phone     string   `yaml:"phone,omitempty"`
	Phone2    string   `yaml:"phone2,omitempty"`
	Fax       string   `yaml:"fax,omitempty"`
	Email     string   `yaml:"email,omitempty"`
	Latitude  *float64 `yaml:"latitude,omitempty"`
	Longitude *float64 `yaml:"longitude,omitempty"`
}

// Source holds exactly one of Single or Entities. A Source with neither is an
// empty multi-location collection.
type Source struct {
	Single   *BusinessConfig `yaml:"business,omitempty"`
	Entities []Entity        `yaml:"locations,omitempty"`
}

func (s Source) Mode() domain.Mode {
	if s.Single != nil {
		return domain.ModeSingle
	}
	return domain.ModeMulti
}

// Validate rejects a Source that sets both shapes.
func (s Source) Validate() error {
	if s.Single != nil && len(s.Entities) > 0 {
		return eris.New("locations: source sets both business and locations")
	}
	return nil
}

// setCoordinates stores c on lat/lon and reports whether anything changed.
func setCoordinates(lat, lon **float64, c domain.Coordinates) bool {
	if *lat != nil && *lon != nil && **lat == c.Lat && **lon == c.Lon {
		return false
	}
	la, lo := c.Lat, c.Lon
	*lat, *lon = &la, &lo
	return true
}
