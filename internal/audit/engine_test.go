package audit

import (
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/joexgit2024/freightaudit/internal/config"
	"github.com/joexgit2024/freightaudit/internal/models"
	"github.com/joexgit2024/freightaudit/internal/ratestore"
)

var bondedStorageCatalogColumns = []string{
	"id", "service_code", "service_name", "charge_type", "rate", "minimum_charge",
	"products_applicable", "needs_variant_lookup", "original_service_code", "variant_code",
}

func bondedStorageCatalogRow() *sqlmock.Rows {
	return sqlmock.NewRows(bondedStorageCatalogColumns).AddRow(
		"svc-1", "bonded_storage_formula", "BONDED STORAGE", string(models.SurchargeCustomFormula), 0.0,
		nil, nil, false, nil, nil,
	)
}

// TestAuditSurchargeLinesBorrowsWeightFromAWBAndReclassifies exercises the
// E1 scenario end to end through the engine: an invoice whose own freight
// side is already approved, carrying one bonded-storage surcharge line
// with no weight of its own, billed on an AWB shared with a 15 kg freight
// line. The borrowed weight must drive the expected amount, and the
// surcharge variance must roll into the invoice's final verdict.
func TestAuditSurchargeLinesBorrowsWeightFromAWBAndReclassifies(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM invoices").
		WillReturnRows(sqlmock.NewRows([]string{"weight_kg"}).AddRow(15.0))
	mock.ExpectQuery("FROM service_surcharge_catalog").WillReturnRows(bondedStorageCatalogRow())
	mock.ExpectQuery("FROM service_surcharge_catalog").WillReturnRows(bondedStorageCatalogRow())

	invoices := models.NewInvoiceRepository(db)
	surcharges := models.NewSurchargeRepository(db)
	store := ratestore.New(nil, nil, surcharges, nil, invoices, nil, nil)

	cfg := config.AuditConfig{ApprovedMaxVariancePct: 5, ReviewMaxVariancePct: 15}
	engine := NewEngine(store, nil, nil, cfg)

	invoice := &models.Invoice{
		Mode: models.ModeAir,
		AWB:  sql.NullString{String: "HAWB-123", Valid: true},
		SurchargeLines: []models.InvoiceSurchargeLine{
			{Description: "Bonded Storage", WeightKg: 0, ActualUSD: 19.29},
		},
	}

	baseOutcome := outcome{
		verdict: models.VerdictApproved,
		lineItems: []models.AuditLineItem{
			{ChargeKind: models.ChargeFreight, ActualUSD: 100, ExpectedUSD: 100, AuditType: models.AuditTypeRateCardComparison},
			{ChargeKind: models.ChargeOther, ActualUSD: 19.29, ExpectedUSD: 0, AuditType: models.AuditTypeAdditionalCharge},
		},
	}

	out, err := engine.auditSurchargeLines(invoice, CalcAir, baseOutcome)
	if err != nil {
		t.Fatalf("auditSurchargeLines() error = %v", err)
	}

	if len(out.lineItems) != 2 {
		t.Fatalf("got %d line items; want 2 (freight + resolved bonded storage, the flat additional_charge line dropped)", len(out.lineItems))
	}

	var bonded *models.AuditLineItem
	for i := range out.lineItems {
		if out.lineItems[i].AuditType == models.AuditTypeRateCardComparison && out.lineItems[i].ChargeKind == models.ChargeOther {
			bonded = &out.lineItems[i]
		}
	}
	if bonded == nil {
		t.Fatal("no resolved rate_card_comparison line for the bonded storage surcharge")
	}
	if bonded.ExpectedUSD != 18.00 {
		t.Errorf("bonded storage ExpectedUSD = %v; want 18.00 (max(18.00, 15*0.35) with weight borrowed from the AWB sibling freight line)", bonded.ExpectedUSD)
	}

	// Freight is exact and bonded storage overcharges by 1.29 against an
	// 18.00 expected: auditable variance = 1.29 / 118.00 ≈ 1.09%, still
	// within the approved band.
	if out.verdict != models.VerdictApproved {
		t.Errorf("verdict = %v; want approved", out.verdict)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sqlmock expectations: %v", err)
	}
}

// TestAuditOneSkipsSurchargeMergeWithoutLines confirms auditOne's guard:
// an invoice with no surcharge lines never touches the surcharge catalog
// or the AWB lookup, so a bare invoice with no matching port pair still
// resolves to no_rate_card without issuing a single mocked query.
func TestAuditOneSkipsSurchargeMergeWithoutLines(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	invoices := models.NewInvoiceRepository(db)
	surcharges := models.NewSurchargeRepository(db)
	store := ratestore.New(nil, nil, surcharges, nil, invoices, nil, nil)
	engine := NewEngine(store, nil, nil, config.AuditConfig{ApprovedMaxVariancePct: 5, ReviewMaxVariancePct: 15})

	invoice := &models.Invoice{Mode: models.ModeAir}

	out, err := engine.auditOne(invoice)
	if err != nil {
		t.Fatalf("auditOne() error = %v", err)
	}
	if out.verdict != models.VerdictNoRateCard {
		t.Errorf("verdict = %v; want no_rate_card (missing origin/destination port, before any surcharge merge)", out.verdict)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sqlmock expectations: %v", err)
	}
}
