// Package pricing holds the mode-dispatched pricing calculators: given an
// invoice and its matched rate data, each reconstructs the expected charge
// breakdown that invoice should have been billed.
package pricing

import "github.com/joexgit2024/freightaudit/internal/models"

// Result is one calculator's output: the expected charge breakdown plus
// the rate card it matched against, kept for traceability in the persisted
// details blob.
type Result struct {
	LineItems       []models.AuditLineItem
	RateCardID      string
	LaneDescription string
	Service         string
}

func passThrough(kind models.ChargeKind, actualUSD float64) models.AuditLineItem {
	return models.AuditLineItem{
		ChargeKind:  kind,
		ActualUSD:   actualUSD,
		ExpectedUSD: actualUSD,
		AuditType:   models.AuditTypePassThrough,
	}
}

func additionalCharge(kind models.ChargeKind, actualUSD float64) models.AuditLineItem {
	return models.AuditLineItem{
		ChargeKind:  kind,
		ActualUSD:   actualUSD,
		ExpectedUSD: 0,
		AuditType:   models.AuditTypeAdditionalCharge,
	}
}

func rateCardLine(kind models.ChargeKind, actualUSD, expectedUSD float64) models.AuditLineItem {
	return models.AuditLineItem{
		ChargeKind:  kind,
		ActualUSD:   actualUSD,
		ExpectedUSD: expectedUSD,
		AuditType:   models.AuditTypeRateCardComparison,
	}
}

func actualOf(invoice *models.Invoice, kind models.ChargeKind) float64 {
	if invoice.ActualChargesUSD == nil {
		return 0
	}
	return invoice.ActualChargesUSD[kind]
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
