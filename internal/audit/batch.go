package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joexgit2024/freightaudit/internal/models"
)

// AuditInvoice runs a synchronous, standalone audit of one invoice with
// no enclosing batch request from the caller. Internally it still opens
// a single-invoice BatchRun so the result has somewhere to live and the
// force_reaudit delete-then-insert invariant applies uniformly. A lone
// invoice is inserted immediately rather than through the batch buffer.
func (e *Engine) AuditInvoice(ctx context.Context, invoiceNo string) (*models.AuditResult, error) {
	batch, err := e.batchRuns.Create("adhoc:" + invoiceNo)
	if err != nil {
		return nil, err
	}

	result, runErr := e.auditWithTimeout(ctx, batch.ID, invoiceNo)
	if runErr == nil && result != nil {
		runErr = e.auditResults.Insert(result)
	}
	counts := tallyOne(result, runErr)
	e.finalizeBatch(batch, counts, runErr)
	if runErr != nil {
		return nil, runErr
	}
	return result, nil
}

// RunFullAudit audits every year-to-date invoice the store knows about.
func (e *Engine) RunFullAudit(ctx context.Context, batchName string, forceReaudit bool) (*models.BatchRun, error) {
	summaries, err := e.store.ListYTDInvoices()
	if err != nil {
		return nil, err
	}
	invoiceNos := make([]string, len(summaries))
	for i, s := range summaries {
		invoiceNos[i] = s.InvoiceNo
	}
	return e.RunBatch(ctx, batchName, invoiceNos, forceReaudit)
}

// RunBatch audits the given invoices concurrently, bounded by
// MaxConcurrentInvoiceAudits, and checks for cooperative cancellation
// between invoices. Computed rows are buffered and flushed to storage in
// groups of PersistBatchSize rather than one round-trip per invoice. On
// force_reaudit it first deletes any existing audit_results rows for
// these invoice numbers, across all batches, so at most one row per
// invoice survives for this run.
func (e *Engine) RunBatch(ctx context.Context, batchName string, invoiceNos []string, forceReaudit bool) (*models.BatchRun, error) {
	start := time.Now()
	batch, err := e.batchRuns.Create(batchName)
	if err != nil {
		return nil, err
	}

	if forceReaudit && len(invoiceNos) > 0 {
		if err := e.auditResults.DeleteForInvoices(invoiceNos); err != nil {
			return nil, err
		}
	}

	// The active rate-card version is read once at batch start; the value
	// is discarded and the lookups below are not filtered by version.
	_ = e.store.ActiveVersion(ctx)

	concurrency := e.cfg.MaxConcurrentInvoiceAudits
	if concurrency <= 0 {
		concurrency = 8
	}
	flushSize := e.cfg.PersistBatchSize
	if flushSize <= 0 {
		flushSize = 50
	}

	var mu sync.Mutex
	var counts batchCounts
	var pending []*models.AuditResult
	var persistErr error
	cancelled := false

	flush := func() {
		if persistErr != nil || len(pending) == 0 {
			return
		}
		if err := e.auditResults.InsertBatch(pending); err != nil {
			persistErr = err
		}
		pending = pending[:0]
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)

	for _, invoiceNo := range invoiceNos {
		invoiceNo := invoiceNo
		select {
		case <-ctx.Done():
			cancelled = true
		default:
		}
		if cancelled {
			break
		}

		group.Go(func() error {
			result, runErr := e.auditWithTimeout(groupCtx, batch.ID, invoiceNo)

			mu.Lock()
			defer mu.Unlock()
			counts = counts.add(tallyOne(result, runErr))
			if runErr != nil {
				return runErr
			}
			pending = append(pending, result)
			if len(pending) >= flushSize {
				flush()
			}
			return persistErr
		})
	}

	waitErr := group.Wait()

	mu.Lock()
	flush()
	mu.Unlock()
	if waitErr == nil {
		waitErr = persistErr
	}

	batch.ProcessingTimeMs = time.Since(start).Milliseconds()
	switch {
	case waitErr != nil:
		batch.Status = models.BatchStatusError
	case cancelled:
		batch.Status = models.BatchStatusCancelled
	default:
		batch.Status = models.BatchStatusCompleted
	}
	counts.applyTo(batch)

	if updateErr := e.batchRuns.UpdateTotals(batch); updateErr != nil {
		if waitErr == nil {
			waitErr = updateErr
		}
	}

	if waitErr != nil {
		return batch, waitErr
	}
	return batch, nil
}

// auditWithTimeout audits one invoice under a soft wall-clock budget and
// returns exactly one unpersisted row: either the computed result or a
// built timeout row. It returns an error only for a real store-level
// failure, in which case no row is returned at all.
func (e *Engine) auditWithTimeout(ctx context.Context, batchRunID, invoiceNo string) (*models.AuditResult, error) {
	timeoutSeconds := e.cfg.InvoiceTimeoutSeconds
	if timeoutSeconds <= 0 {
		timeoutSeconds = 30
	}
	invoiceCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSeconds)*time.Second)
	defer cancel()

	type auditOutput struct {
		row *models.AuditResult
		err error
	}
	done := make(chan auditOutput, 1)

	go func() {
		row, err := e.runAndBuildRow(batchRunID, invoiceNo)
		done <- auditOutput{row, err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			// A real store-level failure: do not record a row, propagate so
			// the batch aborts instead of masking it as an invoice error.
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, out.err)
		}
		return out.row, nil
	case <-invoiceCtx.Done():
		return buildErrorRow(batchRunID, invoiceNo, "timeout"), nil
	}
}

// runAndBuildRow looks up the invoice, runs the pipeline, and shapes the
// result into a persistable row, without writing it.
func (e *Engine) runAndBuildRow(batchRunID, invoiceNo string) (*models.AuditResult, error) {
	invoice, err := e.store.GetInvoice(invoiceNo)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return buildErrorRow(batchRunID, invoiceNo, ErrInvoiceNotFound.Error()), nil
	}
	if invoice.Currency != "USD" && !invoice.ExchangeRateToUSD.Valid {
		return buildErrorRow(batchRunID, invoiceNo, ErrCurrencyMissing.Error()), nil
	}

	out, err := e.auditOne(invoice)
	if err != nil {
		return nil, err
	}

	totalActual := invoice.TotalActualUSD()
	var totalExpected float64
	for _, li := range out.lineItems {
		totalExpected += li.ExpectedUSD
	}
	totalVariance := totalActual - totalExpected
	var variancePct float64
	if totalExpected > 0 {
		variancePct = absFloat(totalVariance) / totalExpected * 100
	} else if totalActual > 0 {
		variancePct = 100
	}

	row := &models.AuditResult{
		BatchRunID:             batchRunID,
		InvoiceNo:              invoiceNo,
		Status:                 out.verdict,
		TotalInvoiceAmountUSD:  totalActual,
		TotalExpectedAmountUSD: totalExpected,
		TotalVarianceUSD:       totalVariance,
		VariancePercent:        variancePct,
		RateCardsChecked:       1,
		BestMatchIdentifier:    out.rateCardID,
		LineItems:              out.lineItems,
		Details: models.AuditResultDetails{
			AuditResults: []models.RateCardAuditDetail{{
				RateCardID:      out.rateCardID,
				LaneDescription: out.laneDescription,
				Service:         out.service,
				AuditStatus:     out.verdict,
				TotalExpected:   totalExpected,
				TotalActual:     totalActual,
				TotalVariance:   totalVariance,
				Variances:       toVarianceEntries(out.lineItems),
				StatusReason:    out.statusReason,
			}},
		},
	}
	return row, nil
}

func toVarianceEntries(items []models.AuditLineItem) []models.VarianceEntry {
	entries := make([]models.VarianceEntry, len(items))
	for i, li := range items {
		entries[i] = models.VarianceEntry{
			ChargeType:  string(li.ChargeKind),
			Expected:    li.ExpectedUSD,
			Actual:      li.ActualUSD,
			Variance:    li.VarianceUSD,
			VariancePct: li.VariancePct,
			AuditType:   li.AuditType,
		}
	}
	return entries
}

func buildErrorRow(batchRunID, invoiceNo, reason string) *models.AuditResult {
	return &models.AuditResult{
		BatchRunID: batchRunID,
		InvoiceNo:  invoiceNo,
		Status:     models.VerdictError,
		Details: models.AuditResultDetails{
			AuditResults: []models.RateCardAuditDetail{{StatusReason: reason, AuditStatus: models.VerdictError}},
		},
	}
}

// batchCounts accumulates per-verdict totals across concurrent workers.
type batchCounts struct {
	total, approved, review, rejected, errored, noRateCard int
}

func tallyOne(result *models.AuditResult, err error) batchCounts {
	c := batchCounts{total: 1}
	if err != nil || result == nil {
		c.errored = 1
		return c
	}
	switch result.Status {
	case models.VerdictApproved:
		c.approved = 1
	case models.VerdictReviewRequired:
		c.review = 1
	case models.VerdictRejected:
		c.rejected = 1
	case models.VerdictNoRateCard:
		c.noRateCard = 1
	default:
		c.errored = 1
	}
	return c
}

func (a batchCounts) add(b batchCounts) batchCounts {
	return batchCounts{
		total:      a.total + b.total,
		approved:   a.approved + b.approved,
		review:     a.review + b.review,
		rejected:   a.rejected + b.rejected,
		errored:    a.errored + b.errored,
		noRateCard: a.noRateCard + b.noRateCard,
	}
}

func (c batchCounts) applyTo(b *models.BatchRun) {
	b.TotalInvoices = c.total
	b.ApprovedCount = c.approved
	b.ReviewRequiredCount = c.review
	b.RejectedCount = c.rejected
	b.ErrorCount = c.errored
	b.NoRateCardCount = c.noRateCard
}

func (e *Engine) finalizeBatch(batch *models.BatchRun, counts batchCounts, runErr error) {
	if runErr != nil {
		batch.Status = models.BatchStatusError
	} else {
		batch.Status = models.BatchStatusCompleted
	}
	counts.applyTo(batch)
	_ = e.batchRuns.UpdateTotals(batch)
}

// DeleteBatch removes a batch and all of its audit results.
func (e *Engine) DeleteBatch(batchID string) (bool, error) {
	return e.batchRuns.DeleteCascade(batchID, e.auditResults)
}

// GetBatchResults returns one page of a batch's audit results.
func (e *Engine) GetBatchResults(batchID string, filter models.ResultFilter, page, pageSize int) ([]models.AuditResult, error) {
	return e.auditResults.ListByBatch(batchID, filter, page, pageSize)
}

// GetBatch fetches one batch run's summary, nil if it doesn't exist.
func (e *Engine) GetBatch(batchID string) (*models.BatchRun, error) {
	return e.batchRuns.GetByID(batchID)
}

// GetInvoiceStatus returns the most recent audit result recorded for an
// invoice across every batch it has ever been part of, nil if it has
// never been audited.
func (e *Engine) GetInvoiceStatus(invoiceNo string) (*models.AuditResult, error) {
	return e.auditResults.LatestForInvoice(invoiceNo)
}
