package pricing

import (
	"fmt"

	"github.com/joexgit2024/freightaudit/internal/models"
	"github.com/joexgit2024/freightaudit/internal/ratestore"
	"github.com/joexgit2024/freightaudit/internal/variance"
)

// CalculateAUDomestic prices a DHL Express Australia domestic shipment:
// origin and destination zones (1..5) map through a matrix to a rate
// zone, and the rate zone plus weight yields the flat expected freight
// charge, with nearest-weight fallback handled inside the store lookup.
func CalculateAUDomestic(invoice *models.Invoice, store *ratestore.Store, originZone, destZone int) (Result, error) {
	freightExpected, ok, err := store.FindAUDomesticRate(originZone, destZone, invoice.WeightKg)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, fmt.Errorf("pricing: no AU domestic rate for zones (%d,%d) at %.2fkg", originZone, destZone, invoice.WeightKg)
	}

	items := []models.AuditLineItem{
		rateCardLine(models.ChargeFreight, actualOf(invoice, models.ChargeFreight), freightExpected),
		passThrough(models.ChargeFuel, actualOf(invoice, models.ChargeFuel)),
		additionalCharge(models.ChargeOther, actualOf(invoice, models.ChargeOther)),
	}
	for i := range items {
		variance.ClassifyLineItem(&items[i])
	}

	return Result{
		LineItems:       items,
		LaneDescription: fmt.Sprintf("AU zone %d -> %d", originZone, destZone),
		Service:         "domestic",
	}, nil
}
