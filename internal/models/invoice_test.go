package models

import "testing"

func TestInvoiceTotalActualUSD(t *testing.T) {
	inv := &Invoice{
		ActualChargesUSD: map[ChargeKind]float64{
			ChargeFreight: 600,
			ChargeFuel:    40,
			ChargeCustoms: 10,
		},
	}
	got := inv.TotalActualUSD()
	if got != 650 {
		t.Errorf("TotalActualUSD() = %v; want 650", got)
	}
}

func TestInvoiceTotalActualUSDEmpty(t *testing.T) {
	inv := &Invoice{}
	if got := inv.TotalActualUSD(); got != 0 {
		t.Errorf("TotalActualUSD() = %v; want 0 for a nil charges map", got)
	}
}
