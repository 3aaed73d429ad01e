package pricing

import (
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/joexgit2024/freightaudit/internal/models"
	"github.com/joexgit2024/freightaudit/internal/ratestore"
)

func catalogRow(code, name string) models.ServiceSurchargeRow {
	return models.ServiceSurchargeRow{ServiceCode: code, ServiceName: name}
}

func TestResolveServiceCodeExactMatch(t *testing.T) {
	catalog := []models.ServiceSurchargeRow{
		catalogRow("SD", "SATURDAY DELIVERY"),
		catalogRow("RD", "RESIDENTIAL DELIVERY"),
	}
	code, ok := ResolveServiceCode("Saturday Delivery", catalog)
	if !ok || code != "SD" {
		t.Errorf("ResolveServiceCode() = (%q, %v); want (SD, true)", code, ok)
	}
}

func TestResolveServiceCodeCatalogNameInDescription(t *testing.T) {
	catalog := []models.ServiceSurchargeRow{
		catalogRow("LG", "LIFTGATE"),
	}
	code, ok := ResolveServiceCode("LIFTGATE SERVICE AT DELIVERY", catalog)
	if !ok || code != "LG" {
		t.Errorf("ResolveServiceCode() = (%q, %v); want (LG, true)", code, ok)
	}
}

func TestResolveServiceCodeFixedPhraseDictionary(t *testing.T) {
	catalog := []models.ServiceSurchargeRow{
		catalogRow("ZZ", "UNRELATED CATALOG ENTRY"),
	}
	code, ok := ResolveServiceCode("OVERLENGTH CHARGE APPLIES", catalog)
	if !ok || code != "KA" {
		t.Errorf("ResolveServiceCode() = (%q, %v); want (KA, true) via the fixed phrase dictionary", code, ok)
	}
}

func TestResolveServiceCodeEditDistanceFallback(t *testing.T) {
	catalog := []models.ServiceSurchargeRow{
		catalogRow("SD", "SATURDAY DELIVERY"),
	}
	// One character off from the catalog name, and nothing matched any
	// earlier step — this should fall through to the edit-distance step.
	code, ok := ResolveServiceCode("SATURDAY DELIVRY", catalog)
	if !ok || code != "SD" {
		t.Errorf("ResolveServiceCode() = (%q, %v); want (SD, true) via edit-distance fallback", code, ok)
	}
}

func TestResolveServiceCodeNoMatchReturnsFalse(t *testing.T) {
	catalog := []models.ServiceSurchargeRow{
		catalogRow("SD", "SATURDAY DELIVERY"),
	}
	code, ok := ResolveServiceCode("completely unrelated free-text description of a charge", catalog)
	if ok {
		t.Errorf("ResolveServiceCode() = (%q, true); want no match for a wildly different description", code)
	}
}

func TestResolveServiceCodeEmptyDescription(t *testing.T) {
	catalog := []models.ServiceSurchargeRow{catalogRow("SD", "SATURDAY DELIVERY")}
	_, ok := ResolveServiceCode("   ", catalog)
	if ok {
		t.Error("ResolveServiceCode() matched an empty description; want false")
	}
}

func TestExpectedSurchargeAmountFlat(t *testing.T) {
	row := models.ServiceSurchargeRow{ChargeType: models.SurchargeFlat, Rate: 25}
	got := expectedSurchargeAmount(row, SurchargeLine{})
	if got != 25 {
		t.Errorf("expectedSurchargeAmount() = %v; want 25", got)
	}
}

func TestExpectedSurchargeAmountPerKgRespectsMinimum(t *testing.T) {
	row := models.ServiceSurchargeRow{
		ChargeType: models.SurchargePerKg,
		Rate: 0.10,
		MinimumCharge: sql.NullFloat64{Float64: 15, Valid: true},
	}
	got := expectedSurchargeAmount(row, SurchargeLine{WeightKg: 50})
	// 50 * 0.10 = 5, below the 15 minimum.
	if got != 15 {
		t.Errorf("expectedSurchargeAmount() = %v; want the 15 minimum", got)
	}
}

func TestExpectedSurchargeAmountBondedStorageFormula(t *testing.T) {
	row := models.ServiceSurchargeRow{
		ChargeType: models.SurchargeCustomFormula,
		ServiceCode: "bonded_storage_formula",
		Rate: 0,
	}
	got := expectedSurchargeAmount(row, SurchargeLine{WeightKg: 100})
	// max(18.00, 100*0.35) = 35
	if got != 35 {
		t.Errorf("expectedSurchargeAmount() = %v; want 35", got)
	}
}

// TestCalculateSurchargeBorrowsWeightFromAWBSiblingFreightLine is the
// bonded-storage scenario: a zero-weight surcharge line on an AWB that
// also carries a 15 kg freight invoice. The expected amount must be priced
// off the borrowed 15 kg, not the line's own zero weight.
func TestCalculateSurchargeBorrowsWeightFromAWBSiblingFreightLine(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM invoices").
		WillReturnRows(sqlmock.NewRows([]string{"weight_kg"}).AddRow(15.0))

	catalogColumns := []string{
		"id", "service_code", "service_name", "charge_type", "rate", "minimum_charge",
		"products_applicable", "needs_variant_lookup", "original_service_code", "variant_code",
	}
	bondedRow := sqlmock.NewRows(catalogColumns).AddRow(
		"svc-1", "bonded_storage_formula", "BONDED STORAGE", string(models.SurchargeCustomFormula), 0.0,
		nil, nil, false, nil, nil,
	)
	mock.ExpectQuery("FROM service_surcharge_catalog").WillReturnRows(bondedRow)

	bondedRowAgain := sqlmock.NewRows(catalogColumns).AddRow(
		"svc-1", "bonded_storage_formula", "BONDED STORAGE", string(models.SurchargeCustomFormula), 0.0,
		nil, nil, false, nil, nil,
	)
	mock.ExpectQuery("FROM service_surcharge_catalog").WillReturnRows(bondedRowAgain)

	invoices := models.NewInvoiceRepository(db)
	surcharges := models.NewSurchargeRepository(db)
	store := ratestore.New(nil, nil, surcharges, nil, invoices, nil, nil)

	line := SurchargeLine{Description: "Bonded Storage", WeightKg: 0, ActualUSD: 19.29, ProductCategory: "International"}
	item, err := CalculateSurcharge(line, "HAWB-123", store)
	if err != nil {
		t.Fatalf("CalculateSurcharge() error = %v", err)
	}

	if item.ExpectedUSD != 18.00 {
		t.Errorf("ExpectedUSD = %v; want 18.00 (max(18.00, 15*0.35)) borrowed from the AWB sibling freight line", item.ExpectedUSD)
	}
	if got, want := item.VarianceUSD, 1.29; got < want-0.001 || got > want+0.001 {
		t.Errorf("VarianceUSD = %v; want ~%v", got, want)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sqlmock expectations: %v", err)
	}
}
