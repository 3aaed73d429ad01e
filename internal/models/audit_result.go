package models

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Verdict is the overall audit status for one invoice
type Verdict string

const (
	VerdictApproved Verdict = "approved"
	VerdictReviewRequired Verdict = "review_required"
	VerdictRejected Verdict = "rejected"
	VerdictError Verdict = "error"
	VerdictNoRateCard Verdict = "no_rate_card"
)

// AuditType tags how a line item's variance was computed
type AuditType string

const (
	AuditTypeRateCardComparison AuditType = "rate_card_comparison"
	AuditTypePassThrough AuditType = "pass_through"
	AuditTypeAdditionalCharge AuditType = "additional_charge"
)

// AuditLineItem is one charge-kind comparison within an AuditResult.
type AuditLineItem struct {
	ChargeKind ChargeKind `json:"charge_kind"`
	ActualUSD float64 `json:"actual_usd"`
	ExpectedUSD float64 `json:"expected_usd"`
	VarianceUSD float64 `json:"variance_usd"`
	VariancePct float64 `json:"variance_pct"`
	AuditType AuditType `json:"audit_type"`
}

// AuditResultDetails is the JSON-compatible details blob persisted with
// each result: one entry per rate card considered (normally one).
type AuditResultDetails struct {
	InvoiceDetails map[string]any `json:"invoice_details"`
	AuditResults []RateCardAuditDetail `json:"audit_results"`
}

// RateCardAuditDetail is one considered-rate-card entry inside the details
// blob.
type RateCardAuditDetail struct {
	RateCardID string `json:"rate_card_id"`
	LaneDescription string `json:"lane_description"`
	Service string `json:"service"`
	AuditStatus Verdict `json:"audit_status"`
	TotalExpected float64 `json:"total_expected"`
	TotalActual float64 `json:"total_actual"`
	TotalVariance float64 `json:"total_variance"`
	Variances []VarianceEntry `json:"variances"`
	CalculationDetails map[string]any `json:"calculation_details,omitempty"`
	StatusReason string `json:"status_reason,omitempty"`
}

// VarianceEntry is one human-readable variance line in the details blob.
type VarianceEntry struct {
	ChargeType string `json:"charge_type"`
	Expected float64 `json:"expected"`
	Actual float64 `json:"actual"`
	Variance float64 `json:"variance"`
	VariancePct float64 `json:"variance_pct"`
	AuditType AuditType `json:"audit_type,omitempty"`
}

// AuditResult is one audit outcome for (invoice, batch)
type AuditResult struct {
	ID string
	BatchRunID string
	InvoiceNo string
	Status Verdict
	TotalInvoiceAmountUSD float64
	TotalExpectedAmountUSD float64
	TotalVarianceUSD float64
	VariancePercent float64
	RateCardsChecked int
	BestMatchIdentifier string
	LineItems []AuditLineItem
	Details AuditResultDetails
	CreatedAt time.Time
}

// AuditResultRepository persists per-invoice audit outcomes. There is
// deliberately no uniqueness constraint on (batch_run_id, invoice_no):
// a single batch writes at most one row per invoice by construction of
// the batch coordinator ; across batches multiple results for
// the same invoice coexist and readers select the most recent.
type AuditResultRepository struct {
	db *sql.DB
}

// NewAuditResultRepository creates a new audit result repository.
func NewAuditResultRepository(db *sql.DB) *AuditResultRepository {
	return &AuditResultRepository{db: db}
}

// Insert writes one audit result row. The id is generated client-side
// rather than left to a database default, the same way the base repo
// stamps dispute and photo rows before handing them to the driver.
func (r *AuditResultRepository) Insert(result *AuditResult) error {
	lineItemsJSON, err := marshalDetails(result.LineItems)
	if err != nil {
		return fmt.Errorf("failed to marshal line items: %w", err)
	}
	detailsJSON, err := marshalDetails(result.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal audit details: %w", err)
	}
	if result.ID == "" {
		result.ID = uuid.New().String()
	}

	return r.db.QueryRow(`
		INSERT INTO audit_results (
			id, batch_run_id, invoice_no, status,
			total_invoice_amount_usd, total_expected_amount_usd, total_variance_usd, variance_percent,
			rate_cards_checked, best_match_identifier, line_items, details
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at
	`, result.ID, result.BatchRunID, result.InvoiceNo, result.Status,
		result.TotalInvoiceAmountUSD, result.TotalExpectedAmountUSD, result.TotalVarianceUSD, result.VariancePercent,
		result.RateCardsChecked, result.BestMatchIdentifier, lineItemsJSON, detailsJSON,
	).Scan(&result.CreatedAt)
}

// InsertBatch writes a group of audit result rows inside one transaction,
// so the batch coordinator can flush persistence in fixed-size groups
// instead of one round-trip per invoice.
func (r *AuditResultRepository) InsertBatch(results []*AuditResult) error {
	if len(results) == 0 {
		return nil
	}
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin audit result batch insert: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO audit_results (
			id, batch_run_id, invoice_no, status,
			total_invoice_amount_usd, total_expected_amount_usd, total_variance_usd, variance_percent,
			rate_cards_checked, best_match_identifier, line_items, details
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare audit result batch insert: %w", err)
	}
	defer stmt.Close()

	for _, result := range results {
		lineItemsJSON, err := marshalDetails(result.LineItems)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to marshal line items: %w", err)
		}
		detailsJSON, err := marshalDetails(result.Details)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to marshal audit details: %w", err)
		}
		if result.ID == "" {
			result.ID = uuid.New().String()
		}
		if err := stmt.QueryRow(
			result.ID, result.BatchRunID, result.InvoiceNo, result.Status,
			result.TotalInvoiceAmountUSD, result.TotalExpectedAmountUSD, result.TotalVarianceUSD, result.VariancePercent,
			result.RateCardsChecked, result.BestMatchIdentifier, lineItemsJSON, detailsJSON,
		).Scan(&result.CreatedAt); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert audit result for %s: %w", result.InvoiceNo, err)
		}
	}
	return tx.Commit()
}

// DeleteForInvoices deletes every audit_results row referencing any of the
// given invoice numbers, across all batches. Used as the force_reaudit
// pre-delete so at most one row per invoice survives a re-run.
func (r *AuditResultRepository) DeleteForInvoices(invoiceNos []string) error {
	if len(invoiceNos) == 0 {
		return nil
	}
	_, err := r.db.Exec(`DELETE FROM audit_results WHERE invoice_no = ANY($1)`, pq.Array(invoiceNos))
	if err != nil {
		return fmt.Errorf("failed to delete audit results for invoices: %w", err)
	}
	return nil
}

// DeleteForBatch deletes every audit_results row for one batch: the first
// half of the delete-batch cascade.
func (r *AuditResultRepository) DeleteForBatch(batchRunID string) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM audit_results WHERE batch_run_id = $1`, batchRunID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete audit results for batch %s: %w", batchRunID, err)
	}
	return res.RowsAffected()
}

// ResultFilter narrows a batch results page to one verdict.
type ResultFilter struct {
	Status Verdict // empty = no filter
}

// ListByBatch returns a page of audit results for one batch, most recent
// first, mirroring the LIMIT/OFFSET pagination idiom used throughout this
// module's sibling repositories.
func (r *AuditResultRepository) ListByBatch(batchRunID string, filter ResultFilter, page, pageSize int) ([]AuditResult, error) {
	query := `
		SELECT id, batch_run_id, invoice_no, status,
		total_invoice_amount_usd, total_expected_amount_usd, total_variance_usd, variance_percent,
		rate_cards_checked, best_match_identifier, line_items, details, created_at
		FROM audit_results
		WHERE batch_run_id = $1
	`
	args := []any{batchRunID}
	argIndex := 2
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, filter.Status)
		argIndex++
	}
	query += " ORDER BY created_at DESC"
	query += fmt.Sprintf(" LIMIT $%d", argIndex)
	args = append(args, pageSize)
	argIndex++
	query += fmt.Sprintf(" OFFSET $%d", argIndex)
	args = append(args, page*pageSize)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit results for batch %s: %w", batchRunID, err)
	}
	defer rows.Close()

	var out []AuditResult
	for rows.Next() {
		var res AuditResult
		var lineItemsJSON, detailsJSON string
		if err := rows.Scan(
			&res.ID, &res.BatchRunID, &res.InvoiceNo, &res.Status,
			&res.TotalInvoiceAmountUSD, &res.TotalExpectedAmountUSD, &res.TotalVarianceUSD, &res.VariancePercent,
			&res.RateCardsChecked, &res.BestMatchIdentifier, &lineItemsJSON, &detailsJSON, &res.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit result: %w", err)
		}
		if err := unmarshalDetails(lineItemsJSON, &res.LineItems); err != nil {
			return nil, fmt.Errorf("failed to parse line items: %w", err)
		}
		if err := unmarshalDetails(detailsJSON, &res.Details); err != nil {
			return nil, fmt.Errorf("failed to parse audit details: %w", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// LatestForInvoice returns the most recent audit result across all
// batches for one invoice.
func (r *AuditResultRepository) LatestForInvoice(invoiceNo string) (*AuditResult, error) {
	var res AuditResult
	var lineItemsJSON, detailsJSON string
	err := r.db.QueryRow(`
		SELECT id, batch_run_id, invoice_no, status,
		total_invoice_amount_usd, total_expected_amount_usd, total_variance_usd, variance_percent,
		rate_cards_checked, best_match_identifier, line_items, details, created_at
		FROM audit_results
		WHERE invoice_no = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, invoiceNo).Scan(
		&res.ID, &res.BatchRunID, &res.InvoiceNo, &res.Status,
		&res.TotalInvoiceAmountUSD, &res.TotalExpectedAmountUSD, &res.TotalVarianceUSD, &res.VariancePercent,
		&res.RateCardsChecked, &res.BestMatchIdentifier, &lineItemsJSON, &detailsJSON, &res.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest audit result for %s: %w", invoiceNo, err)
	}
	if err := unmarshalDetails(lineItemsJSON, &res.LineItems); err != nil {
		return nil, fmt.Errorf("failed to parse line items: %w", err)
	}
	if err := unmarshalDetails(detailsJSON, &res.Details); err != nil {
		return nil, fmt.Errorf("failed to parse audit details: %w", err)
	}
	return &res, nil
}
