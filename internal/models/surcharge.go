package models

import (
	"database/sql"
	"fmt"
)

// SurchargeChargeType is how a service surcharge catalog row computes its
// expected amount
type SurchargeChargeType string

const (
	SurchargeFlat SurchargeChargeType = "flat"
	SurchargePerKg SurchargeChargeType = "per_kg"
	SurchargePerShipment SurchargeChargeType = "per_shipment"
	SurchargeCustomFormula SurchargeChargeType = "custom_formula"
)

// ServiceSurchargeRow is one service code in the catalog, including merged
// variants keyed by OriginalServiceCode.
type ServiceSurchargeRow struct {
	ID string
	ServiceCode string
	ServiceName string
	ChargeType SurchargeChargeType
	Rate float64
	MinimumCharge sql.NullFloat64
	ProductsApplicable sql.NullString
	NeedsVariantLookup bool
	OriginalServiceCode sql.NullString
	VariantCode sql.NullString
}

// SurchargeRepository provides read-only access to the service surcharge
// catalog.
type SurchargeRepository struct {
	db *sql.DB
}

// NewSurchargeRepository creates a new surcharge repository.
func NewSurchargeRepository(db *sql.DB) *SurchargeRepository {
	return &SurchargeRepository{db: db}
}

// LookupByServiceCode fetches a single catalog row by its exact code.
func (r *SurchargeRepository) LookupByServiceCode(code string) (*ServiceSurchargeRow, error) {
	row := r.db.QueryRow(`
		SELECT id, service_code, service_name, charge_type, rate, minimum_charge,
		products_applicable, needs_variant_lookup, original_service_code, variant_code
		FROM service_surcharge_catalog
		WHERE service_code = $1
	`, code)
	return scanSurchargeRow(row)
}

// ListAll returns the full catalog for in-memory cascade matching: the
// exact/substring/fuzzy resolution steps run in Go rather than as SQL
// predicates.
func (r *SurchargeRepository) ListAll() ([]ServiceSurchargeRow, error) {
	rows, err := r.db.Query(`
		SELECT id, service_code, service_name, charge_type, rate, minimum_charge,
		products_applicable, needs_variant_lookup, original_service_code, variant_code
		FROM service_surcharge_catalog
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list service surcharge catalog: %w", err)
	}
	defer rows.Close()

	var out []ServiceSurchargeRow
	for rows.Next() {
		row, err := scanSurchargeRowFromRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *row)
	}
	return out, rows.Err()
}

// ListVariants returns every variant row sharing originalServiceCode.
func (r *SurchargeRepository) ListVariants(originalServiceCode string) ([]ServiceSurchargeRow, error) {
	rows, err := r.db.Query(`
		SELECT id, service_code, service_name, charge_type, rate, minimum_charge,
		products_applicable, needs_variant_lookup, original_service_code, variant_code
		FROM service_surcharge_catalog
		WHERE original_service_code = $1
	`, originalServiceCode)
	if err != nil {
		return nil, fmt.Errorf("failed to list surcharge variants for %s: %w", originalServiceCode, err)
	}
	defer rows.Close()

	var out []ServiceSurchargeRow
	for rows.Next() {
		row, err := scanSurchargeRowFromRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *row)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSurchargeRow(row *sql.Row) (*ServiceSurchargeRow, error) {
	var s ServiceSurchargeRow
	err := row.Scan(&s.ID, &s.ServiceCode, &s.ServiceName, &s.ChargeType, &s.Rate, &s.MinimumCharge,
		&s.ProductsApplicable, &s.NeedsVariantLookup, &s.OriginalServiceCode, &s.VariantCode)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan service surcharge row: %w", err)
	}
	return &s, nil
}

func scanSurchargeRowFromRows(rows rowScanner) (*ServiceSurchargeRow, error) {
	var s ServiceSurchargeRow
	err := rows.Scan(&s.ID, &s.ServiceCode, &s.ServiceName, &s.ChargeType, &s.Rate, &s.MinimumCharge,
		&s.ProductsApplicable, &s.NeedsVariantLookup, &s.OriginalServiceCode, &s.VariantCode)
	if err != nil {
		return nil, fmt.Errorf("failed to scan service surcharge row: %w", err)
	}
	return &s, nil
}
