package models

import (
	"database/sql"
	"fmt"
	"time"
)

// Mode is the transportation mode tag carried by an invoice.
type Mode string

const (
	ModeAir         Mode = "air"
	ModeOcean       Mode = "ocean"
	ModeExpress     Mode = "express"
	ModeExpress3P   Mode = "express_3p"
	ModeAUDomestic  Mode = "au_domestic"
	ModeDGFAir      Mode = "dgf_air"
	ModeDGFSea      Mode = "dgf_sea"
)

// ChargeKind enumerates the actual-charge buckets an invoice line may carry.
type ChargeKind string

const (
	ChargeFreight            ChargeKind = "freight"
	ChargeFuel               ChargeKind = "fuel"
	ChargeSecurity           ChargeKind = "security"
	ChargeOriginHandling     ChargeKind = "origin_handling"
	ChargeDestinationHandling ChargeKind = "destination_handling"
	ChargePickup             ChargeKind = "pickup"
	ChargeDelivery           ChargeKind = "delivery"
	ChargeCustoms            ChargeKind = "customs"
	ChargeDutyTax            ChargeKind = "duty_tax"
	ChargeOther              ChargeKind = "other"
)

// Invoice is one audit target, normalized to USD before the engine sees it.
type Invoice struct {
	ID                  string
	InvoiceNo           string
	Mode                Mode
	Origin              string
	Destination         string
	OriginPort          sql.NullString
	DestinationPort     sql.NullString
	WeightKg            float64
	ChargeableWeightKg  sql.NullFloat64
	VolumeM3            sql.NullFloat64
	ServiceType          string
	Description          string
	Currency             string
	ExchangeRateToUSD    sql.NullFloat64
	QuoteID              sql.NullString
	ActualChargesUSD     map[ChargeKind]float64

	// AWB groups this invoice with every other invoice of the same
	// shipment; a zero-weight surcharge line borrows weight_kg from
	// whichever of those shares the AWB and actually carries freight.
	AWB sql.NullString
	// SurchargeLines are the non-freight charge lines billed against this
	// invoice, each priced independently via the service surcharge catalog
	// rather than folded into the mode calculator's flat "other" bucket.
	SurchargeLines []InvoiceSurchargeLine

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TotalActualUSD sums the individual USD charge values.
func (inv *Invoice) TotalActualUSD() float64 {
	total := 0.0
	for _, v := range inv.ActualChargesUSD {
		total += v
	}
	return total
}

// InvoiceSurchargeLine is one non-freight charge line on an invoice
// (a liftgate fee, a Saturday delivery charge, bonded storage, and so on),
// matched against the service surcharge catalog independently of the mode
// calculator.
type InvoiceSurchargeLine struct {
	ID          string
	InvoiceID   string
	Description string
	WeightKg    float64
	ActualUSD   float64
}

// InvoiceSummary is the lightweight row a year-to-date invoice listing returns.
type InvoiceSummary struct {
	InvoiceNo string
	Mode      Mode
}

// InvoiceRepository provides read-only access to invoices. Invoices are
// created by external ingesters (EDI/PDF/spreadsheet parsers, out of
// scope here) and are never written by the audit engine.
type InvoiceRepository struct {
	db *sql.DB
}

// NewInvoiceRepository creates a new invoice repository.
func NewInvoiceRepository(db *sql.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// GetByInvoiceNo finds an invoice by its business key.
func (r *InvoiceRepository) GetByInvoiceNo(invoiceNo string) (*Invoice, error) {
	inv := &Invoice{}
	var chargesJSON sql.NullString

	err := r.db.QueryRow(`
		SELECT id, invoice_no, mode, origin, destination, origin_port, destination_port,
		       weight_kg, chargeable_weight_kg, volume_m3, service_type, description,
		       currency, exchange_rate_to_usd, quote_id, actual_charges_usd, awb,
		       created_at, updated_at
		FROM invoices
		WHERE invoice_no = $1
	`, invoiceNo).Scan(
		&inv.ID, &inv.InvoiceNo, &inv.Mode, &inv.Origin, &inv.Destination,
		&inv.OriginPort, &inv.DestinationPort,
		&inv.WeightKg, &inv.ChargeableWeightKg, &inv.VolumeM3, &inv.ServiceType, &inv.Description,
		&inv.Currency, &inv.ExchangeRateToUSD, &inv.QuoteID, &chargesJSON, &inv.AWB,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice %s: %w", invoiceNo, err)
	}

	if chargesJSON.Valid && chargesJSON.String != "" {
		charges, err := unmarshalCharges(chargesJSON.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse actual charges for invoice %s: %w", invoiceNo, err)
		}
		inv.ActualChargesUSD = charges
	}

	lines, err := r.listSurchargeLines(inv.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load surcharge lines for invoice %s: %w", invoiceNo, err)
	}
	inv.SurchargeLines = lines

	return inv, nil
}

// listSurchargeLines fetches every surcharge line billed against invoiceID.
func (r *InvoiceRepository) listSurchargeLines(invoiceID string) ([]InvoiceSurchargeLine, error) {
	rows, err := r.db.Query(`
		SELECT id, invoice_id, description, weight_kg, actual_usd
		FROM invoice_surcharge_lines
		WHERE invoice_id = $1
	`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list surcharge lines for invoice %s: %w", invoiceID, err)
	}
	defer rows.Close()

	var out []InvoiceSurchargeLine
	for rows.Next() {
		var l InvoiceSurchargeLine
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.Description, &l.WeightKg, &l.ActualUSD); err != nil {
			return nil, fmt.Errorf("failed to scan surcharge line: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// MaxFreightWeightByAWB returns the largest weight_kg among invoices that
// share awb and carry actual freight weight, the cross-line lookup a
// zero-weight surcharge line borrows from when its own line carries none.
func (r *InvoiceRepository) MaxFreightWeightByAWB(awb string) (float64, bool, error) {
	var weight float64
	err := r.db.QueryRow(`
		SELECT weight_kg FROM invoices
		WHERE awb = $1 AND weight_kg > 0
		ORDER BY weight_kg DESC
		LIMIT 1
	`, awb).Scan(&weight)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to find max freight weight for awb %s: %w", awb, err)
	}
	return weight, true, nil
}

// ListYTD returns every year-to-date invoice summary, the "all YTD
// invoices" selector for run_full_audit.
func (r *InvoiceRepository) ListYTD() ([]InvoiceSummary, error) {
	rows, err := r.db.Query(`SELECT invoice_no, mode FROM invoices ORDER BY invoice_no`)
	if err != nil {
		return nil, fmt.Errorf("failed to list YTD invoices: %w", err)
	}
	defer rows.Close()

	var out []InvoiceSummary
	for rows.Next() {
		var s InvoiceSummary
		if err := rows.Scan(&s.InvoiceNo, &s.Mode); err != nil {
			return nil, fmt.Errorf("failed to scan invoice summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
