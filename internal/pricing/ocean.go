package pricing

import (
	"github.com/joexgit2024/freightaudit/internal/models"
	"github.com/joexgit2024/freightaudit/internal/variance"
)

// CalculateOcean reconstructs the expected ocean-freight charge breakdown.
// Container/volume pricing (LCL) and flat per-container pricing (FCL)
// share nothing but the charge kinds they produce, so they're dispatched
// on the invoice's service type before anything else happens.
func CalculateOcean(invoice *models.Invoice, lane *models.OceanRateEntry) Result {
	var items []models.AuditLineItem
	if invoice.ServiceType == "FCL" {
		items = calculateOceanFCL(invoice, lane)
	} else {
		items = calculateOceanLCL(invoice, lane)
	}

	for i := range items {
		variance.ClassifyLineItem(&items[i])
	}

	return Result{
		LineItems:       items,
		RateCardID:      lane.RateCardID,
		LaneDescription: lane.LaneOrigin + " -> " + lane.LaneDestination,
		Service:         lane.ServiceType,
	}
}

// calculateOceanLCL prices each charge kind as max(minimum, rate per CBM ×
// volume); when the invoice carries no volume it falls back to
// weight_kg / 300 as an approximation. PSS is only emitted when the lane
// defines one.
func calculateOceanLCL(invoice *models.Invoice, lane *models.OceanRateEntry) []models.AuditLineItem {
	volume := invoice.VolumeM3.Float64
	if volume == 0 {
		volume = invoice.WeightKg / 300
	}

	rates := lane.LCL
	items := []models.AuditLineItem{
		rateCardLine(models.ChargePickup, actualOf(invoice, models.ChargePickup), max(rates.PickupMin, rates.PickupPerCBM*volume)),
		rateCardLine(models.ChargeOriginHandling, actualOf(invoice, models.ChargeOriginHandling), max(rates.OriginHandlingMin, rates.OriginHandlingPerCBM*volume)),
		rateCardLine(models.ChargeFreight, actualOf(invoice, models.ChargeFreight), max(rates.FreightMin, rates.FreightPerCBM*volume)),
		rateCardLine(models.ChargeDestinationHandling, actualOf(invoice, models.ChargeDestinationHandling), max(rates.DestinationHandlingMin, rates.DestinationHandlingPerCBM*volume)),
		rateCardLine(models.ChargeDelivery, actualOf(invoice, models.ChargeDelivery), max(rates.DeliveryMin, rates.DeliveryPerCBM*volume)),
		passThrough(models.ChargeFuel, actualOf(invoice, models.ChargeFuel)),
		passThrough(models.ChargeDutyTax, actualOf(invoice, models.ChargeDutyTax)),
		passThrough(models.ChargeCustoms, actualOf(invoice, models.ChargeCustoms)),
		additionalCharge(models.ChargeOther, actualOf(invoice, models.ChargeOther)),
	}
	if rates.HasPSS {
		items = append(items, rateCardLine(models.ChargeSecurity, actualOf(invoice, models.ChargeSecurity), max(rates.PSSMin, rates.PSSPerCBM*volume)))
	}
	return items
}

// calculateOceanFCL picks a container size by weight (default 40ft, 20ft
// above 25t, 40HC above 30t) and books the flat per-container rate for
// each charge kind under that size; if the lane only defines a total, the
// whole amount is booked under freight.
func calculateOceanFCL(invoice *models.Invoice, lane *models.OceanRateEntry) []models.AuditLineItem {
	weightTonnes := invoice.WeightKg / 1000

	container := lane.FCL.Container40
	switch {
	case weightTonnes > 30:
		container = lane.FCL.Container40HC
	case weightTonnes > 25:
		container = lane.FCL.Container20
	}

	if container.Pickup == 0 && container.OriginHandling == 0 && container.DestinationHandling == 0 && container.Delivery == 0 && container.Total > 0 {
		return []models.AuditLineItem{
			rateCardLine(models.ChargeFreight, actualOf(invoice, models.ChargeFreight), container.Total),
			passThrough(models.ChargeFuel, actualOf(invoice, models.ChargeFuel)),
			passThrough(models.ChargeDutyTax, actualOf(invoice, models.ChargeDutyTax)),
			passThrough(models.ChargeCustoms, actualOf(invoice, models.ChargeCustoms)),
			additionalCharge(models.ChargeOther, actualOf(invoice, models.ChargeOther)),
		}
	}

	return []models.AuditLineItem{
		rateCardLine(models.ChargePickup, actualOf(invoice, models.ChargePickup), container.Pickup),
		rateCardLine(models.ChargeOriginHandling, actualOf(invoice, models.ChargeOriginHandling), container.OriginHandling),
		rateCardLine(models.ChargeFreight, actualOf(invoice, models.ChargeFreight), container.Freight),
		rateCardLine(models.ChargeDestinationHandling, actualOf(invoice, models.ChargeDestinationHandling), container.DestinationHandling),
		rateCardLine(models.ChargeDelivery, actualOf(invoice, models.ChargeDelivery), container.Delivery),
		passThrough(models.ChargeFuel, actualOf(invoice, models.ChargeFuel)),
		passThrough(models.ChargeDutyTax, actualOf(invoice, models.ChargeDutyTax)),
		passThrough(models.ChargeCustoms, actualOf(invoice, models.ChargeCustoms)),
		additionalCharge(models.ChargeOther, actualOf(invoice, models.ChargeOther)),
	}
}
