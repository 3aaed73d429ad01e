package pricing

import (
	"github.com/joexgit2024/freightaudit/internal/models"
	"github.com/joexgit2024/freightaudit/internal/variance"
)

// CalculateAir reconstructs the expected air-freight charge breakdown for
// an invoice against one matched lane entry:
//
//   - freight = max(weight × bracketed ATA rate, ATA minimum charge)
//   - origin/delivery fees = max(weight × PTD freight charge, PTD minimum)
//   - destination fees = flat destination minimum charge
//   - security = flat security surcharge
//   - fuel, duty/tax, customs, pickup = pass-through
//   - other = additional_charge (expected 0, kept out of the auditable total)
func CalculateAir(invoice *models.Invoice, rate *models.AirRateEntry) Result {
	weight := invoice.WeightKg

	ataRate := rate.AtaRatePerKg(weight)
	freightExpected := max(weight*ataRate, rate.AtaMinCharge)

	ptdCalculated := weight * rate.PtdFreightCharge
	originExpected := max(ptdCalculated, rate.PtdMinCharge)
	deliveryExpected := max(ptdCalculated, rate.PtdMinCharge)

	items := []models.AuditLineItem{
		rateCardLine(models.ChargeFreight, actualOf(invoice, models.ChargeFreight), freightExpected),
		passThrough(models.ChargeFuel, actualOf(invoice, models.ChargeFuel)),
		rateCardLine(models.ChargeSecurity, actualOf(invoice, models.ChargeSecurity), rate.SecuritySurcharge),
		rateCardLine(models.ChargeOriginHandling, actualOf(invoice, models.ChargeOriginHandling), originExpected),
		rateCardLine(models.ChargeDestinationHandling, actualOf(invoice, models.ChargeDestinationHandling), rate.DestinationMinCharge),
		passThrough(models.ChargePickup, actualOf(invoice, models.ChargePickup)),
		rateCardLine(models.ChargeDelivery, actualOf(invoice, models.ChargeDelivery), deliveryExpected),
		additionalCharge(models.ChargeOther, actualOf(invoice, models.ChargeOther)),
		passThrough(models.ChargeDutyTax, actualOf(invoice, models.ChargeDutyTax)),
		passThrough(models.ChargeCustoms, actualOf(invoice, models.ChargeCustoms)),
	}

	for i := range items {
		variance.ClassifyLineItem(&items[i])
	}

	return Result{
		LineItems:       items,
		RateCardID:      rate.RateCardID,
		LaneDescription: rate.OriginPort + " -> " + rate.DestPort,
		Service:         rate.Service,
	}
}

// AuditableVarianceUSD sums the variance of rate_card_comparison lines
// only. The air dispatcher uses this to break a tie between a lane's
// Standard and Expedite service entries when the invoice doesn't pin one:
// whichever service yields the smaller absolute auditable variance wins.
func AuditableVarianceUSD(items []models.AuditLineItem) float64 {
	var total float64
	for _, item := range items {
		if item.AuditType == models.AuditTypeRateCardComparison {
			total += item.VarianceUSD
		}
	}
	return total
}
