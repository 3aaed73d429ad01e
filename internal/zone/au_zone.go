package zone

import "strings"

// auStateNames is checked before city names, longest prefix first, so
// "SOUTH AUSTRALIA" matches before the short code "SA"
var auStateNames = []struct {
	name string
	zone int
}{
	{"WESTERN AUSTRALIA", 5},
	{"SOUTH AUSTRALIA", 5},
	{"NEW SOUTH WALES", 3},
	{"NORTHERN TERRITORY", 5},
	{"TASMANIA", 5},
	{"VICTORIA", 1},
	{"QUEENSLAND", 2},
}

var auCityNames = []struct {
	name string
	zone int
}{
	{"MELBOURNE", 1},
	{"BRISBANE", 2},
	{"SYDNEY", 3},
	{"CANBERRA", 4},
	{"ADELAIDE", 5},
	{"PERTH", 5},
	{"HOBART", 5},
	{"DARWIN", 5},
}

var auCityCodes = []struct {
	code string
	zone int
}{
	{"MEL", 1},
	{"BNE", 2},
	{"SYD", 3},
	{"CBR", 4},
	{"ADL", 5},
	{"PER", 5},
	{"HBA", 5},
	{"DRW", 5},
}

var auStateCodes = []struct {
	code string
	zone int
}{
	{"VIC", 1},
	{"QLD", 2},
	{"NSW", 3},
	{"ACT", 4},
	{"SA", 5},
	{"WA", 5},
	{"TAS", 5},
	{"NT", 5},
}

// auDomesticDefaultZone is "Rest of Australia", used when no table entry
// matches
const auDomesticDefaultZone = 5

// ExtractAUZone resolves an Australian free-text address to a domestic
// zone 1..5. It always succeeds: unmatched addresses default to zone 5
// ("Rest of Australia") The bool result distinguishes a
// table hit from the default, for callers that want to flag the fallback.
func ExtractAUZone(address string) (int, bool) {
	normalized := upper.String(address)

	if zone, ok := matchLongestPrefix(normalized, auStateNames); ok {
		return zone, true
	}
	if zone, ok := matchLongestPrefix(normalized, auCityNames); ok {
		return zone, true
	}
	if zone, ok := matchToken(normalized, auCityCodes); ok {
		return zone, true
	}
	if zone, ok := matchToken(normalized, auStateCodes); ok {
		return zone, true
	}
	return auDomesticDefaultZone, false
}

func matchLongestPrefix(address string, table []struct {
	name string
	zone int
}) (int, bool) {
	bestZone := 0
	bestLen := -1
	found := false
	for _, entry := range table {
		if strings.Contains(address, entry.name) && len(entry.name) > bestLen {
			bestZone = entry.zone
			bestLen = len(entry.name)
			found = true
		}
	}
	return bestZone, found
}

func matchToken(address string, table []struct {
	code string
	zone int
}) (int, bool) {
	words := strings.FieldsFunc(address, func(r rune) bool {
		return !('A' <= r && r <= 'Z')
	})
	for _, word := range words {
		for _, entry := range table {
			if word == entry.code {
				return entry.zone, true
			}
		}
	}
	return 0, false
}
