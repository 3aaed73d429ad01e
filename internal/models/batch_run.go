package models

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BatchStatus is the lifecycle state of a BatchRun.
type BatchStatus string

const (
	BatchStatusRunning BatchStatus = "running"
	BatchStatusCompleted BatchStatus = "completed"
	BatchStatusCancelled BatchStatus = "cancelled"
	BatchStatusError BatchStatus = "error"
)

// BatchRun is the aggregate row for one batch invocation
type BatchRun struct {
	ID string
	Name string
	Status BatchStatus
	TotalInvoices int
	ApprovedCount int
	ReviewRequiredCount int
	RejectedCount int
	ErrorCount int
	NoRateCardCount int
	ProcessingTimeMs int64
	CreatedAt time.Time
	CompletedAt sql.NullTime
}

// BatchRunRepository persists batch-level aggregates.
type BatchRunRepository struct {
	db *sql.DB
}

// NewBatchRunRepository creates a new batch run repository.
func NewBatchRunRepository(db *sql.DB) *BatchRunRepository {
	return &BatchRunRepository{db: db}
}

// Create inserts a new running BatchRun row. The id is generated
// client-side, the same way the base repo stamps a dispute or photo row
// before handing it to the driver, rather than left to a database default.
func (r *BatchRunRepository) Create(name string) (*BatchRun, error) {
	b := &BatchRun{ID: uuid.New().String(), Name: name, Status: BatchStatusRunning}
	err := r.db.QueryRow(`
		INSERT INTO batch_runs (id, name, status)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, b.ID, name, BatchStatusRunning).Scan(&b.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create batch run: %w", err)
	}
	return b, nil
}

// UpdateTotals finalizes a batch with terminal counts and status.
func (r *BatchRunRepository) UpdateTotals(b *BatchRun) error {
	_, err := r.db.Exec(`
		UPDATE batch_runs
		SET status = $1, total_invoices = $2, approved_count = $3, review_required_count = $4,
		rejected_count = $5, error_count = $6, no_rate_card_count = $7,
		processing_time_ms = $8, completed_at = now()
		WHERE id = $9
	`, b.Status, b.TotalInvoices, b.ApprovedCount, b.ReviewRequiredCount,
		b.RejectedCount, b.ErrorCount, b.NoRateCardCount, b.ProcessingTimeMs, b.ID)
	if err != nil {
		return fmt.Errorf("failed to update batch run %s: %w", b.ID, err)
	}
	return nil
}

// GetByID fetches one batch run.
func (r *BatchRunRepository) GetByID(id string) (*BatchRun, error) {
	var b BatchRun
	err := r.db.QueryRow(`
		SELECT id, name, status, total_invoices, approved_count, review_required_count,
		rejected_count, error_count, no_rate_card_count, processing_time_ms,
		created_at, completed_at
		FROM batch_runs
		WHERE id = $1
	`, id).Scan(
		&b.ID, &b.Name, &b.Status, &b.TotalInvoices, &b.ApprovedCount, &b.ReviewRequiredCount,
		&b.RejectedCount, &b.ErrorCount, &b.NoRateCardCount, &b.ProcessingTimeMs,
		&b.CreatedAt, &b.CompletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get batch run %s: %w", id, err)
	}
	return &b, nil
}

// DeleteCascade deletes a batch's audit_results first, then the batch_run
// row itself
func (r *BatchRunRepository) DeleteCascade(id string, auditResults *AuditResultRepository) (bool, error) {
	if _, err := auditResults.DeleteForBatch(id); err != nil {
		return false, err
	}
	res, err := r.db.Exec(`DELETE FROM batch_runs WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete batch run %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
