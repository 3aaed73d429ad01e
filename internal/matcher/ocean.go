// Package matcher selects the applicable rate card for an invoice. Air,
// express, and AU-domestic matching are direct equality lookups performed
// by internal/ratestore; this package's only nontrivial job is ocean
// lane fuzzy scoring.
package matcher

import (
	"sort"
	"strings"

	"github.com/xrash/smetrics"

	"github.com/joexgit2024/freightaudit/internal/models"
)

// OceanCandidate is one scored lane match
type OceanCandidate struct {
	Lane models.OceanRateEntry
	OriginScore float64
	DestScore float64
	FinalScore float64
}

// jaroWinklerGate is the cheap pre-filter threshold below which the full
// Ratcliff/Obershelp pass is skipped outright: two strings that aren't at
// least this similar under Jaro-Winkler cannot plausibly clear the 0.70
// floor under the slower algorithm either.
const jaroWinklerGate = 0.5

// MatchOceanLanes scores every candidate lane against the invoice's
// origin, destination, and service type, and returns the candidates
// sorted by final score descending.
func MatchOceanLanes(invoiceOrigin, invoiceDestination, invoiceServiceType string, lanes []models.OceanRateEntry) []OceanCandidate {
	var out []OceanCandidate
	for _, lane := range lanes {
		originScore := portOrFuzzyScore(invoiceOrigin, lane.PortOfLoading, lane.LaneOrigin, lane.CitiesIncludedOrigin)
		destScore := portOrFuzzyScore(invoiceDestination, lane.PortOfDischarge, lane.LaneDestination, lane.CitiesIncludedDestination)

		if originScore < 0.6 || destScore < 0.6 {
			continue
		}

		final := (originScore + destScore) / 2
		if invoiceServiceType != "" && strings.EqualFold(invoiceServiceType, lane.ServiceType) {
			final += 0.1
		}
		if final > 1.0 {
			final = 1.0
		}

		out = append(out, OceanCandidate{Lane: lane, OriginScore: originScore, DestScore: destScore, FinalScore: final})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FinalScore > out[j].FinalScore
	})
	return out
}

// portOrFuzzyScore scores one side (origin or destination): exact or
// containment match against the port code first, then fuzzy similarity
// against the lane name and every included city, taking the maximum.
func portOrFuzzyScore(invoiceSide, port, laneName string, includedCities []string) float64 {
	if port != "" {
		if strings.EqualFold(invoiceSide, port) {
			return 1.0
		}
		if containsFold(invoiceSide, port) {
			return 0.95
		}
	}

	best := fuzzy(invoiceSide, laneName)
	for _, city := range includedCities {
		if score := fuzzy(invoiceSide, city); score > best {
			best = score
		}
	}
	return best
}

func containsFold(a, b string) bool {
	al, bl := strings.ToLower(a), strings.ToLower(b)
	return strings.Contains(al, bl) || strings.Contains(bl, al)
}

// fuzzy computes the similarity of a and b: 1.0 if equal, 0.9 if one
// contains the other, 0.85 if extracted city names match, otherwise
// Ratcliff/Obershelp similarity with a 0.70 floor (below which the score
// is zero).
func fuzzy(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	al, bl := strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	if al == bl {
		return 1.0
	}
	if containsFold(al, bl) {
		return 0.9
	}
	if extractCityName(al) == extractCityName(bl) && extractCityName(al) != "" {
		return 0.85
	}

	// Cheap pre-filter: a pair too dissimilar under Jaro-Winkler cannot
	// clear the 0.70 Ratcliff/Obershelp floor either, so skip the O(n*m)
	// comparison entirely for clearly unrelated strings.
	if smetrics.JaroWinkler(al, bl, 0.7, 4) < jaroWinklerGate {
		return 0
	}

	score := ratcliffObershelp(al, bl)
	if score < 0.70 {
		return 0
	}
	return score
}

// extractCityName takes the leading comma/whitespace-delimited token of a
// "City, Country" or "City Port" style location string, used for fuzzy's
// "extracted city names" rule.
func extractCityName(location string) string {
	trimmed := strings.TrimSpace(location)
	if trimmed == "" {
		return ""
	}
	if idx := strings.Index(trimmed, ","); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
