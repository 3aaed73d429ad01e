package pricing

import (
	"database/sql"
	"testing"

	"github.com/joexgit2024/freightaudit/internal/models"
)

func TestCalculateOceanLCLUsesVolumeOverMinimum(t *testing.T) {
	lane := &models.OceanRateEntry{
		ServiceType: "LCL",
		LCL: models.OceanLCLRates{
			FreightMin: 50, FreightPerCBM: 40,
		},
	}
	invoice := &models.Invoice{
		ServiceType: "LCL",
		VolumeM3:    sql.NullFloat64{Float64: 5, Valid: true},
	}

	result := CalculateOcean(invoice, lane)

	freight := findLine(result.LineItems, models.ChargeFreight)
	// 5 CBM * 40 = 200, which beats the 50 minimum.
	if freight.ExpectedUSD != 200 {
		t.Errorf("freight ExpectedUSD = %v; want 200", freight.ExpectedUSD)
	}
}

func TestCalculateOceanLCLFallsBackToWeightWhenVolumeMissing(t *testing.T) {
	lane := &models.OceanRateEntry{
		ServiceType: "LCL",
		LCL:         models.OceanLCLRates{FreightMin: 10, FreightPerCBM: 30},
	}
	invoice := &models.Invoice{ServiceType: "LCL", WeightKg: 300}

	result := CalculateOcean(invoice, lane)

	freight := findLine(result.LineItems, models.ChargeFreight)
	// No volume given: weight_kg/300 = 1 CBM, so 1*30 = 30, above the 10 min.
	if freight.ExpectedUSD != 30 {
		t.Errorf("freight ExpectedUSD = %v; want 30", freight.ExpectedUSD)
	}
}

func TestCalculateOceanLCLOmitsPSSWhenLaneHasNone(t *testing.T) {
	lane := &models.OceanRateEntry{ServiceType: "LCL"}
	invoice := &models.Invoice{ServiceType: "LCL"}

	result := CalculateOcean(invoice, lane)

	if findLine(result.LineItems, models.ChargeSecurity) != nil {
		t.Error("found a security/PSS line item; want none when the lane has HasPSS=false")
	}
}

func TestCalculateOceanLCLIncludesPSSWhenLaneHasIt(t *testing.T) {
	lane := &models.OceanRateEntry{
		ServiceType: "LCL",
		LCL:         models.OceanLCLRates{HasPSS: true, PSSMin: 20, PSSPerCBM: 5},
	}
	invoice := &models.Invoice{ServiceType: "LCL", VolumeM3: sql.NullFloat64{Float64: 10, Valid: true}}

	result := CalculateOcean(invoice, lane)

	pss := findLine(result.LineItems, models.ChargeSecurity)
	if pss == nil {
		t.Fatal("expected a security/PSS line item; lane has HasPSS=true")
	}
	if pss.ExpectedUSD != 50 {
		t.Errorf("PSS ExpectedUSD = %v; want 50", pss.ExpectedUSD)
	}
}

func TestCalculateOceanFCLPicksContainerByWeight(t *testing.T) {
	lane := &models.OceanRateEntry{
		ServiceType: "FCL",
		FCL: models.OceanFCLRates{
			Container20:   models.OceanFCLContainerRates{Freight: 1000},
			Container40:   models.OceanFCLContainerRates{Freight: 1800},
			Container40HC: models.OceanFCLContainerRates{Freight: 2200},
		},
	}

	cases := []struct {
		name       string
		weightKg   float64
		wantFreight float64
	}{
		{"under 25t uses 40ft", 10000, 1800},
		{"between 25 and 30t uses 20ft", 27000, 1000},
		{"over 30t uses 40HC", 31000, 2200},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			invoice := &models.Invoice{ServiceType: "FCL", WeightKg: tt.weightKg}
			result := CalculateOcean(invoice, lane)
			freight := findLine(result.LineItems, models.ChargeFreight)
			if freight.ExpectedUSD != tt.wantFreight {
				t.Errorf("freight ExpectedUSD = %v; want %v", freight.ExpectedUSD, tt.wantFreight)
			}
		})
	}
}

func TestCalculateOceanFCLTotalOnlyBooksWholeAmountUnderFreight(t *testing.T) {
	lane := &models.OceanRateEntry{
		ServiceType: "FCL",
		FCL: models.OceanFCLRates{
			Container40: models.OceanFCLContainerRates{Total: 2500},
		},
	}
	invoice := &models.Invoice{ServiceType: "FCL", WeightKg: 10000}

	result := CalculateOcean(invoice, lane)

	if len(result.LineItems) != 5 {
		t.Fatalf("got %d line items; want 5 (freight + 3 pass-through + additional)", len(result.LineItems))
	}
	freight := findLine(result.LineItems, models.ChargeFreight)
	if freight.ExpectedUSD != 2500 {
		t.Errorf("freight ExpectedUSD = %v; want 2500", freight.ExpectedUSD)
	}
	if findLine(result.LineItems, models.ChargePickup) != nil {
		t.Error("found a separate pickup line item; want the flat total booked under freight only")
	}
}
