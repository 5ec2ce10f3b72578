package domain

import (
	"regexp"
	"strings"
)

// FormatSpec identifies an address template.
type FormatSpec string

const (
	FormatAddressStatePostal      FormatSpec = "address-state-postal"
	FormatAddressStatePostalComma FormatSpec = "address-state-postal-comma"
	FormatAddressPostalCityState  FormatSpec = "address-postal-city-state"
	FormatAddressPostal           FormatSpec = "address-postal"
	FormatAddressPostalComma      FormatSpec = "address-postal-comma"
	FormatPostalAddress           FormatSpec = "postal-address"

	// DefaultFormatSpec is used for unknown identifiers.
	DefaultFormatSpec = FormatAddressStatePostal
)

var formatTemplates = map[FormatSpec]string{
	FormatAddressStatePostal:      "{city}, {state} {zipcode}",
	FormatAddressStatePostalComma: "{city}, {state}, {zipcode}",
	FormatAddressPostalCityState:  "{zipcode} {city}, {state}",
	FormatAddressPostal:           "{city} {zipcode}",
	FormatAddressPostalComma:      "{city}, {zipcode}",
	FormatPostalAddress:           "{zipcode} {city}",
}

// ParseFormatSpec returns the spec named by id, or DefaultFormatSpec when the
// identifier is unknown.
func ParseFormatSpec(id string) FormatSpec {
	spec := FormatSpec(strings.TrimSpace(id))
	if _, ok := formatTemplates[spec]; ok {
		return spec
	}
	return DefaultFormatSpec
}

// Template returns the token template, falling back to the default template.
func (s FormatSpec) Template() string {
	if t, ok := formatTemplates[s]; ok {
		return t
	}
	return formatTemplates[DefaultFormatSpec]
}

// templatePiece is either a literal separator or a {token}.
type templatePiece struct {
	literal string
	token   string
}

var tokenRe = regexp.MustCompile(`\{(city|state|zipcode)\}`)

func splitTemplate(tmpl string) []templatePiece {
	var pieces []templatePiece
	last := 0
	for _, m := range tokenRe.FindAllStringSubmatchIndex(tmpl, -1) {
		if m[0] > last {
			pieces = append(pieces, templatePiece{literal: tmpl[last:m[0]]})
		}
		pieces = append(pieces, templatePiece{token: tmpl[m[2]:m[3]]})
		last = m[1]
	}
	if last < len(tmpl) {
		pieces = append(pieces, templatePiece{literal: tmpl[last:]})
	}
	return pieces
}

// FormatAddress renders the locality part of a record (city, state, zipcode)
// with the given spec and, if includeCountry is set, appends the country's
// display name. Separators adjacent to empty tokens are dropped.
func FormatAddress(r LocationRecord, spec FormatSpec, includeCountry bool) string {
	values := map[string]string{
		"city":    collapseSpace(r.City),
		"state":   collapseSpace(r.State),
		"zipcode": collapseSpace(r.Zipcode),
	}

	var b strings.Builder
	sep := ""
	for _, p := range splitTemplate(spec.Template()) {
		if p.token == "" {
			sep += p.literal
			continue
		}
		v := values[p.token]
		if v == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(normalizeSeparator(sep))
		}
		b.WriteString(v)
		sep = ""
	}

	out := b.String()
	if includeCountry {
		if name, ok := CountryName(r.Country); ok {
			out = joinNonEmpty(", ", out, name)
		}
	}
	return out
}

// FullAddress is the canonical one-line address: street, formatted locality
// and country name, skipping empty parts.
func FullAddress(r LocationRecord, spec FormatSpec) string {
	country, _ := CountryName(r.Country)
	return joinNonEmpty(", ", collapseSpace(r.Address), FormatAddress(r, spec, false), country)
}

// ParseAddress splits a locality string produced by FormatAddress (without
// country) back into city, state and zipcode. ok is false when the string does
// not match the template with every token present, or when a token boundary is
// ambiguous (a value containing the separator that follows it).
func ParseAddress(formatted string, spec FormatSpec) (city, state, zipcode string, ok bool) {
	pieces := splitTemplate(spec.Template())

	lazy, lok := matchTokens(formatted, pieces, ".+?")
	greedy, gok := matchTokens(formatted, pieces, ".+")
	if !lok || !gok || lazy != greedy {
		return "", "", "", false
	}
	return lazy.city, lazy.state, lazy.zipcode, true
}

type locality struct {
	city, state, zipcode string
}

// matchTokens matches formatted against the template, using group for every
// token but the last.
func matchTokens(formatted string, pieces []templatePiece, group string) (locality, bool) {
	last := -1
	for i, p := range pieces {
		if p.token != "" {
			last = i
		}
	}

	var pattern strings.Builder
	pattern.WriteString("^")
	for i, p := range pieces {
		switch {
		case p.token == "":
			pattern.WriteString(regexp.QuoteMeta(p.literal))
		case i == last:
			pattern.WriteString("(?P<" + p.token + ">.+)")
		default:
			pattern.WriteString("(?P<" + p.token + ">" + group + ")")
		}
	}
	pattern.WriteString("$")

	re := regexp.MustCompile(pattern.String())
	m := re.FindStringSubmatch(formatted)
	if m == nil {
		return locality{}, false
	}
	var out locality
	for i, name := range re.SubexpNames() {
		switch name {
		case "city":
			out.city = m[i]
		case "state":
			out.state = m[i]
		case "zipcode":
			out.zipcode = m[i]
		}
	}
	return out, true
}

// normalizeSeparator reduces the literals between two rendered tokens to a
// single separator. Templates only use ", " and " ".
func normalizeSeparator(s string) string {
	if strings.Contains(s, ",") {
		return ", "
	}
	return " "
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
