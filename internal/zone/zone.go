// Package zone resolves free-text shipment addresses to ISO-3166 country
// codes and, for Australian addresses, to a domestic zone 1..5. Both
// lookups are pure functions over fixed, small closed-set tables.
package zone

import (
	"errors"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrAddressUnparsable is returned when a caller requested a non-optional
// zone and neither lookup path could resolve one
var ErrAddressUnparsable = errors.New("address unparsable: no country or zone could be extracted")

var upper = cases.Upper(language.Und)

// countryNameToISO is the fixed closed-set fallback used when no 2-letter
// token is present in the address.
var countryNameToISO = map[string]string{
	"ITALY": "IT",
	"GERMANY": "DE",
	"FRANCE": "FR",
	"SPAIN": "ES",
	"UNITED KINGDOM": "GB",
	"UNITED STATES": "US",
	"AUSTRALIA": "AU",
	"CHINA": "CN",
	"JAPAN": "JP",
	"SINGAPORE": "SG",
	"NETHERLANDS": "NL",
	"BELGIUM": "BE",
	"SWITZERLAND": "CH",
	"NEW ZEALAND": "NZ",
	"CANADA": "CA",
	"INDIA": "IN",
	"SOUTH KOREA": "KR",
	"HONG KONG": "HK",
	"VIETNAM": "VN",
	"THAILAND": "TH",
}

// isAlphaUpper2 reports whether s is exactly two uppercase ASCII letters.
func isAlphaUpper2(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// ExtractCountry splits address by ';', walks parts right-to-left, and
// returns the first 2-letter uppercase alphabetic token found. If none is
// found, it falls back to the fixed country-name mapping
func ExtractCountry(address string) (string, bool) {
	parts := strings.Split(address, ";")
	for i := len(parts) - 1; i >= 0; i-- {
		token := strings.TrimSpace(upper.String(parts[i]))
		if isAlphaUpper2(token) {
			return token, true
		}
		// Also check each whitespace-delimited word within the part, in
		// case the 2-letter code is embedded (e.g. "Sydney NSW AU").
		for _, word := range strings.Fields(token) {
			if isAlphaUpper2(word) {
				return word, true
			}
		}
	}

	normalized := strings.TrimSpace(upper.String(address))
	for name, iso := range countryNameToISO {
		if strings.Contains(normalized, name) {
			return iso, true
		}
	}
	return "", false
}
