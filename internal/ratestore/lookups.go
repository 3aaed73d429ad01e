package ratestore

import (
	"fmt"

	"github.com/joexgit2024/freightaudit/internal/models"
)

// FindAirLanes returns every air lane for an exact origin/dest port pair,
// including the CNPVG/CNSHA alias retry
func (s *Store) FindAirLanes(originPort, destPort string) ([]models.AirRateEntry, error) {
	key := "air:" + originPort + ">" + destPort
	if cached, ok := s.cacheGet(key); ok {
		return cached.([]models.AirRateEntry), nil
	}
	entries, err := s.rateCards.ListAirLanesByPorts(originPort, destPort)
	if err != nil {
		return nil, fmt.Errorf("rate store: find air lanes: %w", err)
	}
	s.cacheSet(key, entries)
	return entries, nil
}

// FindOceanLanes returns every ocean lane in the active rate cards; the
// matcher filters these in memory by fuzzy score
func (s *Store) FindOceanLanes() ([]models.OceanRateEntry, error) {
	const key = "ocean:all"
	if cached, ok := s.cacheGet(key); ok {
		return cached.([]models.OceanRateEntry), nil
	}
	entries, err := s.rateCards.ListOceanLanes()
	if err != nil {
		return nil, fmt.Errorf("rate store: find ocean lanes: %w", err)
	}
	s.cacheSet(key, entries)
	return entries, nil
}

// FindExpressRate picks the weight-bracket row closest to weight for the
// given section/service
func (s *Store) FindExpressRate(serviceType models.ExpressServiceType, section models.ExpressSection, weight float64) (*models.ExpressRateRow, error) {
	row, err := s.express.LookupExpressRate(section, serviceType, weight)
	if err != nil {
		return nil, fmt.Errorf("rate store: find express rate: %w", err)
	}
	return row, nil
}

// FindExpressMultiplier returns the per-0.5kg adder row applicable above
// the 30kg step table.
func (s *Store) FindExpressMultiplier(serviceType models.ExpressServiceType, section models.ExpressSection, weight float64) (*models.ExpressRateRow, error) {
	row, err := s.express.LookupMultiplier(section, serviceType, weight)
	if err != nil {
		return nil, fmt.Errorf("rate store: find express multiplier: %w", err)
	}
	return row, nil
}

// FindExpressThirtyKgBase fetches the express rate row for the 30kg step,
// used as the base of the >30kg adder formula.
func (s *Store) FindExpressThirtyKgBase(serviceType models.ExpressServiceType, section models.ExpressSection) (*models.ExpressRateRow, error) {
	row, err := s.express.LookupThirtyKgBase(section, serviceType)
	if err != nil {
		return nil, fmt.Errorf("rate store: find express 30kg base: %w", err)
	}
	return row, nil
}

// FindExpressZone resolves a country code to an import/export zone label.
func (s *Store) FindExpressZone(countryCode string) (string, bool, error) {
	zone, ok, err := s.express.LookupExpressZone(countryCode)
	if err != nil {
		return "", false, fmt.Errorf("rate store: find express zone: %w", err)
	}
	return zone, ok, nil
}

// FindThirdPartyRateZone resolves an origin/destination country pair to a
// rate zone A..D via the two zone lookups plus the matrix.
func (s *Store) FindThirdPartyRateZone(originCountry, destCountry string) (string, bool, error) {
	originZone, ok, err := s.express.LookupThirdPartyZone(originCountry)
	if err != nil || !ok {
		return "", false, err
	}
	destZone, ok, err := s.express.LookupThirdPartyZone(destCountry)
	if err != nil || !ok {
		return "", false, err
	}
	rateZone, ok, err := s.express.LookupThirdPartyMatrix(originZone, destZone)
	if err != nil {
		return "", false, fmt.Errorf("rate store: find 3rd-party rate zone: %w", err)
	}
	return rateZone, ok, nil
}

// FindThirdPartyWeightRate looks up the flat price for weight in rateZone.
func (s *Store) FindThirdPartyWeightRate(weight float64, rateZone string) (float64, bool, error) {
	price, ok, err := s.express.LookupThirdPartyWeightRate(weight, rateZone)
	if err != nil {
		return 0, false, fmt.Errorf("rate store: find 3rd-party weight rate: %w", err)
	}
	return price, ok, nil
}

// FindAUDomesticRateZone resolves an origin/dest domestic zone pair to a
// rate zone via the AU domestic matrix.
func (s *Store) FindAUDomesticRateZone(originZone, destZone int) (string, bool, error) {
	rateZone, ok, err := s.express.LookupAUDomesticMatrix(originZone, destZone)
	if err != nil {
		return "", false, fmt.Errorf("rate store: find AU domestic rate zone: %w", err)
	}
	return rateZone, ok, nil
}

// FindAUDomesticRate looks up the flat price for weight in rateZone, with
// nearest-weight fallback
func (s *Store) FindAUDomesticRate(originZone, destZone int, weight float64) (float64, bool, error) {
	rateZone, ok, err := s.FindAUDomesticRateZone(originZone, destZone)
	if err != nil || !ok {
		return 0, false, err
	}
	price, ok, err := s.express.LookupAUDomesticRate(weight, rateZone)
	if err != nil {
		return 0, false, fmt.Errorf("rate store: find AU domestic rate: %w", err)
	}
	return price, ok, nil
}

// FindServiceSurcharge looks up the catalog row for a service code exactly;
// the needs_variant_lookup variant walk is done by pricing.selectVariant
func (s *Store) FindServiceSurcharge(serviceCode string) (*models.ServiceSurchargeRow, error) {
	row, err := s.surcharges.LookupByServiceCode(serviceCode)
	if err != nil {
		return nil, fmt.Errorf("rate store: find service surcharge: %w", err)
	}
	return row, nil
}

// ListServiceSurcharges returns the full catalog for the exact/substring/
// fuzzy description-matching cascade.
func (s *Store) ListServiceSurcharges() ([]models.ServiceSurchargeRow, error) {
	const key = "surcharge:all"
	if cached, ok := s.cacheGet(key); ok {
		return cached.([]models.ServiceSurchargeRow), nil
	}
	rows, err := s.surcharges.ListAll()
	if err != nil {
		return nil, fmt.Errorf("rate store: list service surcharges: %w", err)
	}
	s.cacheSet(key, rows)
	return rows, nil
}

// ListSurchargeVariants returns every variant sharing originalServiceCode.
func (s *Store) ListSurchargeVariants(originalServiceCode string) ([]models.ServiceSurchargeRow, error) {
	rows, err := s.surcharges.ListVariants(originalServiceCode)
	if err != nil {
		return nil, fmt.Errorf("rate store: list surcharge variants: %w", err)
	}
	return rows, nil
}

// FindMaxFreightWeightByAWB resolves the weight a zero-weight surcharge
// line borrows from: the heaviest freight line sharing the same AWB.
func (s *Store) FindMaxFreightWeightByAWB(awb string) (float64, bool, error) {
	weight, ok, err := s.invoices.MaxFreightWeightByAWB(awb)
	if err != nil {
		return 0, false, fmt.Errorf("rate store: find max freight weight by awb: %w", err)
	}
	return weight, ok, nil
}

// FindDGFQuote looks up a spot quote by quote_id.
func (s *Store) FindDGFQuote(quoteID string) (*models.SpotQuote, error) {
	quote, err := s.quotes.LookupDGFQuote(quoteID)
	if err != nil {
		return nil, fmt.Errorf("rate store: find DGF quote: %w", err)
	}
	return quote, nil
}
