// Package variance turns per-charge comparisons into an overall verdict.
package variance

import (
	"math"

	"github.com/joexgit2024/freightaudit/internal/models"
)

// Thresholds carries the 5%/15% verdict bands, configurable per
// internal/config.AuditConfig.
type Thresholds struct {
	ApprovedMaxPct float64
	ReviewMaxPct float64
}

// ClassifyLineItem fills in VarianceUSD and VariancePct on one line item:
// pass-through charges are forced to zero variance; everything else is
// actual minus expected, with percent computed against expected (100%
// when actual is present but expected is zero).
func ClassifyLineItem(item *models.AuditLineItem) {
	if item.AuditType == models.AuditTypePassThrough {
		item.VarianceUSD = 0
		item.VariancePct = 0
		return
	}
	item.VarianceUSD = item.ActualUSD - item.ExpectedUSD
	switch {
	case item.ExpectedUSD > 0:
		item.VariancePct = math.Abs(item.VarianceUSD) / item.ExpectedUSD * 100
	case item.ActualUSD > 0:
		item.VariancePct = 100
	default:
		item.VariancePct = 0
	}
}

// Result is the aggregate outcome of classifying a full invoice.
type Result struct {
	Verdict models.Verdict
	AuditableVarianceUSD float64
	AuditableVariancePct float64
	TotalActualUSD float64
	TotalExpectedUSD float64
}

// Classify computes the per-invoice overall verdict from a set of
// already-classified line items. Only rate_card_comparison lines count
// toward the auditable total; pass_through lines always carry zero
// variance and additional_charge lines are excluded from the auditable
// total (but still recorded on the result for traceability).
func Classify(items []models.AuditLineItem, t Thresholds) Result {
	var auditableActual, auditableExpected, totalActual, totalExpected float64

	for _, item := range items {
		totalActual += item.ActualUSD
		totalExpected += item.ExpectedUSD
		if item.AuditType == models.AuditTypeRateCardComparison {
			auditableActual += item.ActualUSD
			auditableExpected += item.ExpectedUSD
		}
	}

	auditableVarianceUSD := auditableActual - auditableExpected
	var auditableVariancePct float64
	switch {
	case auditableExpected > 0:
		auditableVariancePct = math.Abs(auditableVarianceUSD) / auditableExpected * 100
	case auditableActual > 0:
		auditableVariancePct = 100
	default:
		auditableVariancePct = 0
	}

	verdict := verdictFor(auditableVarianceUSD, auditableVariancePct, t)

	return Result{
		Verdict: verdict,
		AuditableVarianceUSD: auditableVarianceUSD,
		AuditableVariancePct: auditableVariancePct,
		TotalActualUSD: totalActual,
		TotalExpectedUSD: totalExpected,
	}
}

// verdictFor applies the bands plus the undercharge-approval rule:
// a customer who was undercharged or matched exactly is always approved,
// regardless of the percentage a large undercharge might otherwise imply.
func verdictFor(varianceUSD, variancePct float64, t Thresholds) models.Verdict {
	if varianceUSD <= 0 {
		return models.VerdictApproved
	}
	switch {
	case variancePct <= t.ApprovedMaxPct:
		return models.VerdictApproved
	case variancePct <= t.ReviewMaxPct:
		return models.VerdictReviewRequired
	default:
		return models.VerdictRejected
	}
}
