package models

import (
	"database/sql"
	"fmt"
)

// ExpressSection distinguishes DHL Express's two weight tables.
type ExpressSection string

const (
	SectionDocuments ExpressSection = "Documents"
	SectionNonDocuments ExpressSection = "Non-documents"
)

// ExpressServiceType is Import or Export for the international tables.
type ExpressServiceType string

const (
	ServiceImport ExpressServiceType = "Import"
	ServiceExport ExpressServiceType = "Export"
)

// ExpressRateRow is one weight-bracket row of an Import/Export/AU-Domestic
// express rate table. IsMultiplier rows carry the per-0.5kg adder used
// above the 30kg step
type ExpressRateRow struct {
	ID string
	ServiceType ExpressServiceType
	Section ExpressSection
	WeightFrom float64
	WeightTo float64
	IsMultiplier bool
	ZonePrices map[string]float64 // zone label -> price column
}

// ThirdPartyWeightRow is one row of the 3rd-party rate-zone weight table.
type ThirdPartyWeightRow struct {
	WeightFrom, WeightTo float64
	RateZonePrices map[string]float64 // "A".."D" -> price
}

// ExpressRepository provides read-only access to express zone maps and
// rate/multiplier tables.
type ExpressRepository struct {
	db *sql.DB
}

// NewExpressRepository creates a new express repository.
func NewExpressRepository(db *sql.DB) *ExpressRepository {
	return &ExpressRepository{db: db}
}

// LookupExpressZone resolves a country code to its express zone letter.
// Only the origin country is used for Import, only the destination for
// Export; the caller passes whichever leg matters for its direction.
func (r *ExpressRepository) LookupExpressZone(countryCode string) (string, bool, error) {
	var zone string
	err := r.db.QueryRow(`SELECT zone FROM express_zone_map WHERE country_code = $1`, countryCode).Scan(&zone)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to look up express zone for %s: %w", countryCode, err)
	}
	return zone, true, nil
}

// LookupExpressRate finds the row whose [weight_from, weight_to] contains
// weight for the given section/service, excluding multiplier rows.
func (r *ExpressRepository) LookupExpressRate(section ExpressSection, serviceType ExpressServiceType, weight float64) (*ExpressRateRow, error) {
	rows, err := r.db.Query(`
		SELECT id, service_type, rate_section, weight_from, weight_to, is_multiplier, zone_prices
		FROM express_rate_cards
		WHERE service_type = $1 AND rate_section = $2 AND is_multiplier = false
		AND weight_from <= $3 AND weight_to >= $3
		ORDER BY weight_from
	`, serviceType, section, weight)
	if err != nil {
		return nil, fmt.Errorf("failed to look up express rate: %w", err)
	}
	defer rows.Close()

	var best *ExpressRateRow
	for rows.Next() {
		row, err := scanExpressRow(rows)
		if err != nil {
			return nil, err
		}
		if best == nil || rowCloser(row, best, weight) {
			best = row
		}
	}
	return best, rows.Err()
}

// rowCloser picks whichever row's midpoint is nearer to weight.
func rowCloser(candidate, current *ExpressRateRow, weight float64) bool {
	cd := distanceToRange(candidate.WeightFrom, candidate.WeightTo, weight)
	bd := distanceToRange(current.WeightFrom, current.WeightTo, weight)
	return cd < bd
}

func distanceToRange(from, to, weight float64) float64 {
	mid := (from + to) / 2
	d := mid - weight
	if d < 0 {
		d = -d
	}
	return d
}

// LookupMultiplier returns the multiplier row covering weight for
// weights above the 30kg step table.
func (r *ExpressRepository) LookupMultiplier(section ExpressSection, serviceType ExpressServiceType, weight float64) (*ExpressRateRow, error) {
	rows, err := r.db.Query(`
		SELECT id, service_type, rate_section, weight_from, weight_to, is_multiplier, zone_prices
		FROM express_rate_cards
		WHERE service_type = $1 AND rate_section = $2 AND is_multiplier = true
		AND weight_from <= $3 AND weight_to >= $3
		LIMIT 1
	`, serviceType, section, weight)
	if err != nil {
		return nil, fmt.Errorf("failed to look up express multiplier: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanExpressRow(rows)
}

// LookupThirtyKgBase fetches the 30kg step row (weight_from<=30<=weight_to)
// used as the base for the >30kg adder calculation.
func (r *ExpressRepository) LookupThirtyKgBase(section ExpressSection, serviceType ExpressServiceType) (*ExpressRateRow, error) {
	return r.LookupExpressRate(section, serviceType, 30.0)
}

func scanExpressRow(rows *sql.Rows) (*ExpressRateRow, error) {
	var row ExpressRateRow
	var zonePricesJSON string
	if err := rows.Scan(&row.ID, &row.ServiceType, &row.Section, &row.WeightFrom, &row.WeightTo, &row.IsMultiplier, &zonePricesJSON); err != nil {
		return nil, fmt.Errorf("failed to scan express rate row: %w", err)
	}
	prices := make(map[string]float64)
	if err := unmarshalDetails(zonePricesJSON, &prices); err != nil {
		return nil, fmt.Errorf("failed to parse express zone prices: %w", err)
	}
	row.ZonePrices = prices
	return &row, nil
}

// LookupThirdPartyZone resolves a country code to its origin/destination
// zone for the 3rd-party matrix lookup.
func (r *ExpressRepository) LookupThirdPartyZone(countryCode string) (string, bool, error) {
	var zone string
	err := r.db.QueryRow(`SELECT zone FROM express_3rd_party_zones WHERE country_code = $1`, countryCode).Scan(&zone)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to look up 3rd-party zone for %s: %w", countryCode, err)
	}
	return zone, true, nil
}

// LookupThirdPartyMatrix maps an origin-zone/dest-zone pair to a rate zone
// A..D.
func (r *ExpressRepository) LookupThirdPartyMatrix(originZone, destZone string) (string, bool, error) {
	var rateZone string
	err := r.db.QueryRow(`
		SELECT rate_zone FROM express_3rd_party_matrix WHERE origin_zone = $1 AND dest_zone = $2
	`, originZone, destZone).Scan(&rateZone)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to look up 3rd-party matrix (%s,%s): %w", originZone, destZone, err)
	}
	return rateZone, true, nil
}

// LookupThirdPartyWeightRate finds the flat price for weight in rateZone.
func (r *ExpressRepository) LookupThirdPartyWeightRate(weight float64, rateZone string) (float64, bool, error) {
	rows, err := r.db.Query(`
		SELECT weight_from, weight_to, rate_zone_prices
		FROM express_3rd_party_weight_table
		WHERE weight_from <= $1 AND weight_to >= $1
	`, weight)
	if err != nil {
		return 0, false, fmt.Errorf("failed to look up 3rd-party weight rate: %w", err)
	}
	defer rows.Close()

	var best *ThirdPartyWeightRow
	for rows.Next() {
		var wr ThirdPartyWeightRow
		var pricesJSON string
		if err := rows.Scan(&wr.WeightFrom, &wr.WeightTo, &pricesJSON); err != nil {
			return 0, false, fmt.Errorf("failed to scan 3rd-party weight row: %w", err)
		}
		prices := make(map[string]float64)
		if err := unmarshalDetails(pricesJSON, &prices); err != nil {
			return 0, false, fmt.Errorf("failed to parse 3rd-party weight prices: %w", err)
		}
		wr.RateZonePrices = prices
		if best == nil || rowCloserWeight(wr, *best, weight) {
			cp := wr
			best = &cp
		}
	}
	if err := rows.Err(); err != nil {
		return 0, false, err
	}
	if best == nil {
		return 0, false, nil
	}
	price, ok := best.RateZonePrices[rateZone]
	return price, ok, nil
}

func rowCloserWeight(candidate, current ThirdPartyWeightRow, weight float64) bool {
	return distanceToRange(candidate.WeightFrom, candidate.WeightTo, weight) <
		distanceToRange(current.WeightFrom, current.WeightTo, weight)
}

// LookupAUDomesticMatrix maps an origin/dest domestic-zone pair (1..5) to
// a rate zone (e.g. "B").
func (r *ExpressRepository) LookupAUDomesticMatrix(originZone, destZone int) (string, bool, error) {
	var rateZone string
	err := r.db.QueryRow(`
		SELECT rate_zone FROM au_domestic_matrix WHERE origin_zone = $1 AND dest_zone = $2
	`, originZone, destZone).Scan(&rateZone)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to look up AU domestic matrix (%d,%d): %w", originZone, destZone, err)
	}
	return rateZone, true, nil
}

// LookupAUDomesticRate finds the price for weight in rateZone, falling
// back to the nearest-weight row (by absolute distance) when no row
// matches exactly
func (r *ExpressRepository) LookupAUDomesticRate(weight float64, rateZone string) (float64, bool, error) {
	rows, err := r.db.Query(`
		SELECT weight_kg, rate_zone_prices FROM au_domestic_rate_table
	`)
	if err != nil {
		return 0, false, fmt.Errorf("failed to list AU domestic rate table: %w", err)
	}
	defer rows.Close()

	var bestWeight float64
	var bestPrice float64
	found := false
	bestDist := 0.0
	for rows.Next() {
		var w float64
		var pricesJSON string
		if err := rows.Scan(&w, &pricesJSON); err != nil {
			return 0, false, fmt.Errorf("failed to scan AU domestic rate row: %w", err)
		}
		prices := make(map[string]float64)
		if err := unmarshalDetails(pricesJSON, &prices); err != nil {
			return 0, false, fmt.Errorf("failed to parse AU domestic rate prices: %w", err)
		}
		price, ok := prices[rateZone]
		if !ok {
			continue
		}
		dist := w - weight
		if dist < 0 {
			dist = -dist
		}
		if !found || dist < bestDist {
			found = true
			bestDist = dist
			bestWeight = w
			bestPrice = price
		}
	}
	_ = bestWeight
	if err := rows.Err(); err != nil {
		return 0, false, err
	}
	return bestPrice, found, nil
}
