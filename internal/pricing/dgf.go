package pricing

import (
	"math"

	"github.com/joexgit2024/freightaudit/internal/models"
)

// DGFTolerances carries the two independent variance bands a DGF result
// is checked against: freight is ordinarily held to a tighter band than
// handling fees, since a spot quote is a firm negotiated price rather
// than a rate card bracket.
type DGFTolerances struct {
	FreightPct  float64
	HandlingPct float64
}

// CalculateDGF prices a DGF spot-quote shipment: air quotes are per
// chargeable kg, sea quotes are per CBM, plus a flat handling fee on both.
func CalculateDGF(invoice *models.Invoice, quote *models.SpotQuote) Result {
	var freightExpected float64
	if invoice.Mode == models.ModeDGFAir {
		weight := invoice.WeightKg
		if invoice.ChargeableWeightKg.Valid {
			weight = invoice.ChargeableWeightKg.Float64
		}
		freightExpected = weight * quote.RatePerKg.Float64
	} else {
		freightExpected = invoice.VolumeM3.Float64 * quote.RatePerCBM.Float64
	}

	items := []models.AuditLineItem{
		plainVarianceLine(models.ChargeFreight, actualOf(invoice, models.ChargeFreight), freightExpected),
		plainVarianceLine(models.ChargeOther, actualOf(invoice, models.ChargeOther), quote.HandlingFeeUSD),
		passThrough(models.ChargeDutyTax, actualOf(invoice, models.ChargeDutyTax)),
		passThrough(models.ChargeCustoms, actualOf(invoice, models.ChargeCustoms)),
	}

	return Result{
		LineItems:       items,
		LaneDescription: quote.QuoteID,
		Service:         string(invoice.Mode),
	}
}

func plainVarianceLine(kind models.ChargeKind, actualUSD, expectedUSD float64) models.AuditLineItem {
	item := rateCardLine(kind, actualUSD, expectedUSD)
	item.VarianceUSD = actualUSD - expectedUSD
	if expectedUSD > 0 {
		item.VariancePct = math.Abs(item.VarianceUSD) / expectedUSD * 100
	} else if actualUSD > 0 {
		item.VariancePct = 100
	}
	return item
}

// DGFWithinTolerance reports whether a DGF result's freight and handling
// lines each sit within their own tolerance band. Unlike the mode
// calculators, a DGF invoice is approved only when both lines clear their
// band independently — an undercharge on one side doesn't excuse an
// overcharge on the other.
func DGFWithinTolerance(items []models.AuditLineItem, tolerances DGFTolerances) bool {
	for _, item := range items {
		if item.VarianceUSD <= 0 {
			continue
		}
		var tolerance float64
		switch item.ChargeKind {
		case models.ChargeFreight:
			tolerance = tolerances.FreightPct
		case models.ChargeOther:
			tolerance = tolerances.HandlingPct
		default:
			continue
		}
		if item.VariancePct > tolerance {
			return false
		}
	}
	return true
}
