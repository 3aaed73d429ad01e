package pricing

import (
	"fmt"
	"strings"

	"github.com/joexgit2024/freightaudit/internal/models"
	"github.com/joexgit2024/freightaudit/internal/ratestore"
	"github.com/joexgit2024/freightaudit/internal/variance"
)

// expressStepMaxKg is the upper bound of the flat weight-bracket table;
// above it the per-0.5kg adder formula takes over.
const expressStepMaxKg = 30.0

// expressAdderStepKg is the increment the adder rate is quoted per.
const expressAdderStepKg = 0.5

// sectionFor picks Documents or Non-documents from the invoice's free-text
// description: "DOC" without "NONDOC" means Documents.
func sectionFor(description string) models.ExpressSection {
	upper := strings.ToUpper(description)
	if strings.Contains(upper, "DOC") && !strings.Contains(upper, "NONDOC") {
		return models.SectionDocuments
	}
	return models.SectionNonDocuments
}

// CalculateExpressInternational prices a DHL Express import/export
// shipment. zone is the import/export country zone resolved upstream.
// Weights at or below the 30kg step table use the flat bracket price;
// above it, the 30kg base row plus a multiplier-rate adder scaled by the
// 0.5kg step covers the remainder.
func CalculateExpressInternational(invoice *models.Invoice, store *ratestore.Store, serviceType models.ExpressServiceType, zone string) (Result, error) {
	section := sectionFor(invoice.Description)
	weight := invoice.WeightKg

	var freightExpected float64
	if weight <= expressStepMaxKg {
		row, err := store.FindExpressRate(serviceType, section, weight)
		if err != nil {
			return Result{}, err
		}
		if row != nil {
			freightExpected = row.ZonePrices[zone]
		} else {
			multiplier, err := store.FindExpressMultiplier(serviceType, section, weight)
			if err != nil {
				return Result{}, err
			}
			if multiplier == nil {
				return Result{}, fmt.Errorf("pricing: no express rate or multiplier for %s/%s at %.2fkg", serviceType, section, weight)
			}
			freightExpected = multiplier.ZonePrices[zone] * weight
		}
	} else {
		base, err := store.FindExpressThirtyKgBase(serviceType, section)
		if err != nil {
			return Result{}, err
		}
		if base == nil {
			return Result{}, fmt.Errorf("pricing: no 30kg base row for %s/%s", serviceType, section)
		}
		multiplier, err := store.FindExpressMultiplier(serviceType, section, weight)
		if err != nil {
			return Result{}, err
		}
		if multiplier == nil {
			return Result{}, fmt.Errorf("pricing: no express multiplier for %s/%s at %.2fkg", serviceType, section, weight)
		}
		baseRate := base.ZonePrices[zone]
		multiplierRate := multiplier.ZonePrices[zone]
		adder := multiplierRate * (weight - expressStepMaxKg) / expressAdderStepKg
		freightExpected = baseRate + adder
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
		LaneDescription: fmt.Sprintf("%s zone %s", serviceType, zone),
		Service:         string(section),
	}, nil
}
