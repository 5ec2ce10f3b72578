package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignature_Deterministic(t *testing.T) {
	rec := springfield()
	assert.Equal(t, Signature(rec), Signature(rec))
	assert.Equal(t, "1 main st|springfield|il|62701|us", Signature(rec))
}

func TestSignature_NormalizesCaseAndWhitespace(t *testing.T) {
	a := springfield()
	b := LocationRecord{
		Address: "  1   MAIN st ",
		City:    "SPRINGFIELD",
		State:   "il",
		Zipcode: " 62701",
		Country: "us",
	}
	assert.Equal(t, Signature(a), Signature(b))
}

func TestSignature_IgnoresNonAddressFields(t *testing.T) {
	a := springfield()
	b := springfield()
	b.ID = "other"
	b.Name = "Different Name"
	b.Phone = "555-0100"
	b.Coordinates = &Coordinates{Lat: 1, Lon: 2}
	assert.Equal(t, Signature(a), Signature(b))
}

func TestSignature_UnicodeComposition(t *testing.T) {
	composed := LocationRecord{City: "Montr\u00e9al"}
	decomposed := LocationRecord{City: "Montre\u0301al"}
	assert.Equal(t, Signature(composed), Signature(decomposed))
}

func TestSignature_DifferentAddresses(t *testing.T) {
	a := springfield()
	b := springfield()
	b.Address = "2 Main St"
	assert.NotEqual(t, Signature(a), Signature(b))
}

func TestNewCoordinates_BothOrNeither(t *testing.T) {
	lat, lon := 39.78, -89.65

	assert.Nil(t, NewCoordinates(nil, nil))
	assert.Nil(t, NewCoordinates(&lat, nil))
	assert.Nil(t, NewCoordinates(nil, &lon))
	assert.Equal(t, &Coordinates{Lat: lat, Lon: lon}, NewCoordinates(&lat, &lon))
}

func TestCoordinates_Strings(t *testing.T) {
	c := Coordinates{Lat: 39.78, Lon: -89.65}
	assert.Equal(t, "39.78", c.LatString())
	assert.Equal(t, "-89.65", c.LonString())
}

func TestLookupError_MatchesSentinel(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewLookupError("1 Main St", "error", cause)

	assert.ErrorIs(t, err, ErrLookupFailed)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "1 Main St")
	assert.Contains(t, err.Error(), "connection refused")

	empty := NewLookupError("nowhere", "empty", nil)
	assert.ErrorIs(t, empty, ErrLookupFailed)
}

func TestCountryName(t *testing.T) {
	name, ok := CountryName("US")
	assert.True(t, ok)
	assert.Equal(t, "United States", name)

	name, ok = CountryName("nl")
	assert.True(t, ok)
	assert.Equal(t, "Netherlands", name)

	_, ok = CountryName("")
	assert.False(t, ok)

	_, ok = CountryName("not-a-country")
	assert.False(t, ok)
}

func TestNormalizeCountry(t *testing.T) {
	code, ok := NormalizeCountry("usa")
	assert.True(t, ok)
	assert.Equal(t, "US", code)

	code, ok = NormalizeCountry(" de ")
	assert.True(t, ok)
	assert.Equal(t, "DE", code)

	_, ok = NormalizeCountry("NOPE")
	assert.False(t, ok)
}
