package models

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// RateCard is the header entity for one carrier/mode rate card.
type RateCard struct {
	ID string
	Carrier string
	Mode Mode
	ValidFrom time.Time
	ValidTo time.Time
}

// AirRateEntry is one air lane in a rate card, bracketed by ATA weight tier.
type AirRateEntry struct {
	ID string
	RateCardID string
	OriginPort string
	DestPort string
	Service string // "Standard" or "Expedite"
	AtaCostLt1000Kg float64
	AtaCost1000to1999 float64
	AtaCost2000to3000 float64
	AtaCostGt3000 float64
	AtaMinCharge float64
	FuelSurcharge float64
	PtdFreightCharge float64
	PtdMinCharge float64
	DestinationMinCharge float64
	SecuritySurcharge float64
	// AdderRatePerHalfKg applies per 0.5kg beyond the 30kg base, above 30kg.
	AdderRatePerHalfKg float64
}

// AtaRatePerKg selects the bracketed per-kg rate for weightKg
func (e *AirRateEntry) AtaRatePerKg(weightKg float64) float64 {
	switch {
	case weightKg < 1000:
		return e.AtaCostLt1000Kg
	case weightKg < 2000:
		return e.AtaCost1000to1999
	case weightKg < 3000:
		return e.AtaCost2000to3000
	default:
		return e.AtaCostGt3000
	}
}

// OceanRateEntry is one ocean lane, carrying both LCL and FCL pricing.
type OceanRateEntry struct {
	ID string
	RateCardID string
	LaneOrigin string
	LaneDestination string
	CitiesIncludedOrigin []string
	CitiesIncludedDestination []string
	PortOfLoading string
	PortOfDischarge string
	ServiceType string // "FCL" or "LCL"

	LCL OceanLCLRates
	FCL OceanFCLRates
}

// OceanLCLRates holds the per-CBM table for the five auditable LCL charge
// kinds plus an optional PSS
type OceanLCLRates struct {
	PickupMin, PickupPerCBM float64
	OriginHandlingMin, OriginHandlingPerCBM float64
	FreightMin, FreightPerCBM float64
	DestinationHandlingMin, DestinationHandlingPerCBM float64
	DeliveryMin, DeliveryPerCBM float64
	HasPSS bool
	PSSMin, PSSPerCBM float64
}

// OceanFCLRates holds flat per-container totals by container size and
// charge kind. A zero value for a (size, kind) pair means "not priced"; if
// only the Total of the chosen container size is populated, the
// calculator books it under "freight"
type OceanFCLRates struct {
	Container20 OceanFCLContainerRates
	Container40 OceanFCLContainerRates
	Container40HC OceanFCLContainerRates
}

type OceanFCLContainerRates struct {
	Pickup, OriginHandling, Freight, DestinationHandling, Delivery, Total float64
}

// RateCardRepository provides read-only access to air and ocean rate
// cards. Rate cards are populated by spreadsheet ingesters (out of scope)
// and are immutable during a batch
type RateCardRepository struct {
	db *sql.DB
}

// NewRateCardRepository creates a new rate card repository.
func NewRateCardRepository(db *sql.DB) *RateCardRepository {
	return &RateCardRepository{db: db}
}

// cnpvgCnshaAlias is the fixed alias table for Shanghai's two airport
// codes: a lookup miss on one port code is retried against its alias.
var cnpvgCnshaAlias = map[string]string{
	"CNPVG": "CNSHA",
	"CNSHA": "CNPVG",
}

// ListAirLanesByPorts returns every air lane for the exact origin/dest port
// pair, retrying with the CNPVG/CNSHA alias on a miss.
func (r *RateCardRepository) ListAirLanesByPorts(originPort, destPort string) ([]AirRateEntry, error) {
	entries, err := r.queryAirLanes(originPort, destPort)
	if err != nil {
		return nil, err
	}
	if len(entries) > 0 {
		return entries, nil
	}

	if alias, ok := cnpvgCnshaAlias[originPort]; ok {
		if entries, err = r.queryAirLanes(alias, destPort); err != nil {
			return nil, err
		}
		if len(entries) > 0 {
			return entries, nil
		}
	}
	if alias, ok := cnpvgCnshaAlias[destPort]; ok {
		return r.queryAirLanes(originPort, alias)
	}
	return nil, nil
}

func (r *RateCardRepository) queryAirLanes(originPort, destPort string) ([]AirRateEntry, error) {
	rows, err := r.db.Query(`
		SELECT id, rate_card_id, origin_port, dest_port, service,
		ata_cost_lt1000kg, ata_cost_1000_1999kg, ata_cost_2000_3000kg, ata_cost_gt3000kg,
		ata_min_charge, fuel_surcharge, ptd_freight_charge, ptd_min_charge,
		destination_min_charge, security_surcharge, adder_rate_per_half_kg
		FROM air_rate_entries
		WHERE origin_port = $1 AND dest_port = $2
	`, originPort, destPort)
	if err != nil {
		return nil, fmt.Errorf("failed to query air lanes %s->%s: %w", originPort, destPort, err)
	}
	defer rows.Close()

	var out []AirRateEntry
	for rows.Next() {
		var e AirRateEntry
		if err := rows.Scan(
			&e.ID, &e.RateCardID, &e.OriginPort, &e.DestPort, &e.Service,
			&e.AtaCostLt1000Kg, &e.AtaCost1000to1999, &e.AtaCost2000to3000, &e.AtaCostGt3000,
			&e.AtaMinCharge, &e.FuelSurcharge, &e.PtdFreightCharge, &e.PtdMinCharge,
			&e.DestinationMinCharge, &e.SecuritySurcharge, &e.AdderRatePerHalfKg,
		); err != nil {
			return nil, fmt.Errorf("failed to scan air lane: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListOceanLanes returns every ocean lane; the matcher (C4) filters these
// in memory by fuzzy score
func (r *RateCardRepository) ListOceanLanes() ([]OceanRateEntry, error) {
	rows, err := r.db.Query(`
		SELECT id, rate_card_id, lane_origin, lane_destination,
		cities_included_origin, cities_included_destination,
		port_of_loading, port_of_discharge, service_type,
		pickup_min, pickup_per_cbm, origin_handling_min, origin_handling_per_cbm,
		freight_min, freight_per_cbm, destination_handling_min, destination_handling_per_cbm,
		delivery_min, delivery_per_cbm, has_pss, pss_min, pss_per_cbm,
		fcl_20_pickup, fcl_20_origin_handling, fcl_20_freight, fcl_20_destination_handling, fcl_20_delivery, fcl_20_total,
		fcl_40_pickup, fcl_40_origin_handling, fcl_40_freight, fcl_40_destination_handling, fcl_40_delivery, fcl_40_total,
		fcl_40hc_pickup, fcl_40hc_origin_handling, fcl_40hc_freight, fcl_40hc_destination_handling, fcl_40hc_delivery, fcl_40hc_total
		FROM ocean_rate_entries
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ocean lanes: %w", err)
	}
	defer rows.Close()

	var out []OceanRateEntry
	for rows.Next() {
		var e OceanRateEntry
		var citiesOrigin, citiesDest pq.StringArray
		if err := rows.Scan(
			&e.ID, &e.RateCardID, &e.LaneOrigin, &e.LaneDestination,
			&citiesOrigin, &citiesDest,
			&e.PortOfLoading, &e.PortOfDischarge, &e.ServiceType,
			&e.LCL.PickupMin, &e.LCL.PickupPerCBM, &e.LCL.OriginHandlingMin, &e.LCL.OriginHandlingPerCBM,
			&e.LCL.FreightMin, &e.LCL.FreightPerCBM, &e.LCL.DestinationHandlingMin, &e.LCL.DestinationHandlingPerCBM,
			&e.LCL.DeliveryMin, &e.LCL.DeliveryPerCBM, &e.LCL.HasPSS, &e.LCL.PSSMin, &e.LCL.PSSPerCBM,
			&e.FCL.Container20.Pickup, &e.FCL.Container20.OriginHandling, &e.FCL.Container20.Freight, &e.FCL.Container20.DestinationHandling, &e.FCL.Container20.Delivery, &e.FCL.Container20.Total,
			&e.FCL.Container40.Pickup, &e.FCL.Container40.OriginHandling, &e.FCL.Container40.Freight, &e.FCL.Container40.DestinationHandling, &e.FCL.Container40.Delivery, &e.FCL.Container40.Total,
			&e.FCL.Container40HC.Pickup, &e.FCL.Container40HC.OriginHandling, &e.FCL.Container40HC.Freight, &e.FCL.Container40HC.DestinationHandling, &e.FCL.Container40HC.Delivery, &e.FCL.Container40HC.Total,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ocean lane: %w", err)
		}
		e.CitiesIncludedOrigin = []string(citiesOrigin)
		e.CitiesIncludedDestination = []string(citiesDest)
		out = append(out, e)
	}
	return out, rows.Err()
}
