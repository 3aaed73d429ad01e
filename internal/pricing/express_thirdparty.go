package pricing

import (
	"fmt"

	"github.com/joexgit2024/freightaudit/internal/models"
	"github.com/joexgit2024/freightaudit/internal/ratestore"
	"github.com/joexgit2024/freightaudit/internal/variance"
)

// CalculateExpressThirdParty prices a DHL Express third-party shipment:
// origin and destination countries each resolve to a zone, the pair maps
// through a matrix to a rate zone A-D, and the rate zone plus weight
// yields the flat expected freight charge.
func CalculateExpressThirdParty(invoice *models.Invoice, store *ratestore.Store, originCountry, destCountry string) (Result, error) {
	rateZone, ok, err := store.FindThirdPartyRateZone(originCountry, destCountry)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, fmt.Errorf("pricing: no third-party rate zone for %s -> %s", originCountry, destCountry)
	}

	freightExpected, ok, err := store.FindThirdPartyWeightRate(invoice.WeightKg, rateZone)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, fmt.Errorf("pricing: no third-party weight rate for zone %s at %.2fkg", rateZone, invoice.WeightKg)
	}

	items := []models.AuditLineItem{
		rateCardLine(models.ChargeFreight, actualOf(invoice, models.ChargeFreight), freightExpected),
		passThrough(models.ChargeFuel, actualOf(invoice, models.ChargeFuel)),
		passThrough(models.ChargeDutyTax, actualOf(invoice, models.ChargeDutyTax)),
		passThrough(models.ChargeCustoms, actualOf(invoice, models.ChargeCustoms)),
		additionalCharge(models.ChargeOther, actualOf(invoice, models.ChargeOther)),
	}
	for i := range items {
		variance.ClassifyLineItem(&items[i])
	}

	return Result{
		LineItems:       items,
		LaneDescription: originCountry + " -> " + destCountry,
		Service:         "rate zone " + rateZone,
	}, nil
}
