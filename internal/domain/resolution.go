package domain

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// ResolutionSource records where a GeoResolution came from.
type ResolutionSource string

const (
	SourceCache      ResolutionSource = "cache"
	SourceLiveLookup ResolutionSource = "live-lookup"
)

// GeoResolution is the outcome of resolving an address signature to coordinates.
type GeoResolution struct {
	Signature   string
	Coordinates Coordinates
	ResolvedAt  time.Time
	Source      ResolutionSource
}

// Signature returns the cache key for a record's address. Records whose
// address fields only differ in case, Unicode composition or whitespace share
// a signature.
func Signature(r LocationRecord) string {
	fields := []string{r.Address, r.City, r.State, r.Zipcode, r.Country}
	for i, f := range fields {
		fields[i] = normalizeField(f)
	}
	return strings.Join(fields, "|")
}

func normalizeField(s string) string {
	// cases.Caser is stateful, so one per call.
	s = cases.Fold().String(norm.NFC.String(s))
	return strings.Join(strings.Fields(s), " ")
}
