package domain

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// NormalizeCountry maps a country code (alpha-2, alpha-3 or UN M.49) to its
// canonical upper-case alpha-2 form. ok is false for empty input and for codes
// that are not a country in the region table.
func NormalizeCountry(code string) (string, bool) {
	region, ok := parseCountry(code)
	if !ok {
		return "", false
	}
	return region.String(), true
}

// CountryName returns the English display name for a country code.
func CountryName(code string) (string, bool) {
	region, ok := parseCountry(code)
	if !ok {
		return "", false
	}
	name := display.English.Regions().Name(region)
	return name, name != ""
}

func parseCountry(code string) (language.Region, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return language.Region{}, false
	}
	region, err := language.ParseRegion(code)
	if err != nil || !region.IsCountry() {
		return language.Region{}, false
	}
	return region, true
}
