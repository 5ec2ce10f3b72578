// Package domain models business locations and the data needed to publish
// them as a geo sitemap and a KML placemark document.
//
// # Records
//
// A [LocationRecord] is the canonical shape every downstream component
// consumes, whether the data came from one flat business configuration
// ("single" mode) or a collection of location entities ("multi" mode). The
// repository adapter is the only place that knows about the two shapes.
//
// Coordinates are modeled as a nullable pair: a record either carries both
// latitude and longitude or neither.
//
// # Signatures
//
// Geocode results are cached by address signature, computed by [Signature]
// from address, city, state, zipcode and country. Each field is NFC
// normalized, case folded and whitespace collapsed, so
//
//	"1  Main St" / "SPRINGFIELD" / "il"
//
// and
//
//	"1 main st" / "Springfield" / "IL"
//
// share one cache entry.
//
// # Address formats
//
// Countries write addresses differently. A [FormatSpec] names a template of
// {city}, {state} and {zipcode} tokens:
//
//	address-state-postal        {city}, {state} {zipcode}     New York, NY 12345
//	address-state-postal-comma  {city}, {state}, {zipcode}    New York, NY, 12345
//	address-postal-city-state   {zipcode} {city}, {state}     12345 New York, NY
//	address-postal              {city} {zipcode}              New York 12345
//	address-postal-comma        {city}, {zipcode}             New York, 12345
//	postal-address              {zipcode} {city}              1234AB Amsterdam
//
// Unknown identifiers fall back to address-state-postal. Separators next to an
// empty token are dropped rather than rendered, so a record without a state
// formats as "New York, 12345" instead of "New York,  12345".
//
// [FullAddress] is the single construction used both as the geocoding query
// and as the placemark address: street, formatted locality, country name.
package domain
