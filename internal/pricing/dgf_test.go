package pricing

import (
	"database/sql"
	"testing"

	"github.com/joexgit2024/freightaudit/internal/models"
)

func TestCalculateDGFAirPerKg(t *testing.T) {
	invoice := &models.Invoice{
		Mode: models.ModeDGFAir,
		WeightKg: 100,
		ChargeableWeightKg: sql.NullFloat64{Float64: 120, Valid: true},
		ActualChargesUSD: map[models.ChargeKind]float64{
			models.ChargeFreight: 600,
		},
	}
	quote := &models.SpotQuote{
		QuoteID: "Q-1",
		RatePerKg: sql.NullFloat64{Float64: 5, Valid: true},
		HandlingFeeUSD: 50,
	}

	result := CalculateDGF(invoice, quote)

	freight := findLine(result.LineItems, models.ChargeFreight)
	// Chargeable weight (120) takes priority over gross weight: 120*5 = 600.
	if freight.ExpectedUSD != 600 {
		t.Errorf("freight ExpectedUSD = %v; want 600 (using chargeable weight)", freight.ExpectedUSD)
	}
}

func TestCalculateDGFAirFallsBackToGrossWeight(t *testing.T) {
	invoice := &models.Invoice{
		Mode: models.ModeDGFAir,
		WeightKg: 100,
	}
	quote := &models.SpotQuote{RatePerKg: sql.NullFloat64{Float64: 5, Valid: true}}

	result := CalculateDGF(invoice, quote)
	freight := findLine(result.LineItems, models.ChargeFreight)
	if freight.ExpectedUSD != 500 {
		t.Errorf("freight ExpectedUSD = %v; want 500 (gross weight fallback)", freight.ExpectedUSD)
	}
}

func TestCalculateDGFSeaPerCBM(t *testing.T) {
	invoice := &models.Invoice{
		Mode: models.ModeDGFSea,
		VolumeM3: sql.NullFloat64{Float64: 10, Valid: true},
	}
	quote := &models.SpotQuote{RatePerCBM: sql.NullFloat64{Float64: 25, Valid: true}}

	result := CalculateDGF(invoice, quote)
	freight := findLine(result.LineItems, models.ChargeFreight)
	if freight.ExpectedUSD != 250 {
		t.Errorf("freight ExpectedUSD = %v; want 250", freight.ExpectedUSD)
	}
}

func TestDGFWithinToleranceBothSidesMustClearIndependently(t *testing.T) {
	tolerances := DGFTolerances{FreightPct: 5, HandlingPct: 10}

	within := []models.AuditLineItem{
		{ChargeKind: models.ChargeFreight, VarianceUSD: 10, VariancePct: 3},
		{ChargeKind: models.ChargeOther, VarianceUSD: 5, VariancePct: 8},
	}
	if !DGFWithinTolerance(within, tolerances) {
		t.Error("DGFWithinTolerance() = false; want true when both lines clear their band")
	}

	freightBreach := []models.AuditLineItem{
		{ChargeKind: models.ChargeFreight, VarianceUSD: 10, VariancePct: 20},
		{ChargeKind: models.ChargeOther, VarianceUSD: 5, VariancePct: 8},
	}
	if DGFWithinTolerance(freightBreach, tolerances) {
		t.Error("DGFWithinTolerance() = true; want false when the freight line alone breaches its band")
	}

	handlingBreach := []models.AuditLineItem{
		{ChargeKind: models.ChargeFreight, VarianceUSD: 10, VariancePct: 3},
		{ChargeKind: models.ChargeOther, VarianceUSD: 5, VariancePct: 50},
	}
	if DGFWithinTolerance(handlingBreach, tolerances) {
		t.Error("DGFWithinTolerance() = true; want false when the handling line alone breaches its band")
	}
}

func TestDGFWithinToleranceIgnoresUndercharges(t *testing.T) {
	tolerances := DGFTolerances{FreightPct: 5, HandlingPct: 10}
	items := []models.AuditLineItem{
		{ChargeKind: models.ChargeFreight, VarianceUSD: -500, VariancePct: 90},
	}
	if !DGFWithinTolerance(items, tolerances) {
		t.Error("DGFWithinTolerance() = false; want true, an undercharge never breaches a tolerance band")
	}
}

func findLine(items []models.AuditLineItem, kind models.ChargeKind) *models.AuditLineItem {
	for i := range items {
		if items[i].ChargeKind == kind {
			return &items[i]
		}
	}
	return nil
}
