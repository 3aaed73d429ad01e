package pricing

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/joexgit2024/freightaudit/internal/models"
	"github.com/joexgit2024/freightaudit/internal/ratestore"
)

// levenshteinMaxRatio is the fraction of the description's length the
// edit distance may be and still count as a match, for descriptions with
// a typo or abbreviation that missed every exact/substring/phrase step.
const levenshteinMaxRatio = 0.25

// fuzzyServicePhrases is the fixed dictionary of canonical description
// phrases to service codes consulted as the fourth step of the service
// surcharge cascade, before the edit-distance fallback, for descriptions too free-form to match the catalog
// name directly.
var fuzzyServicePhrases = map[string]string{
	"OVER LENGTH":           "KA",
	"OVERLENGTH":             "KA",
	"REMOTE AREA DELIVERY":   "OO",
	"REMOTE AREA PICKUP":     "OP",
	"BONDED STORAGE":         "bonded_storage_formula",
	"OVERWEIGHT PIECE":       "YY",
	"OVERSIZE PIECE":         "YZ",
	"SATURDAY DELIVERY":      "SD",
	"RESIDENTIAL DELIVERY":   "RD",
	"SIGNATURE REQUIRED":     "SR",
	"DANGEROUS GOODS":        "DG",
	"DRY ICE":                "DI",
	"INSIDE DELIVERY":        "ID",
	"LIFTGATE":                "LG",
	"APPOINTMENT DELIVERY":   "AD",
	"DECLARED VALUE":         "DV",
	"FUEL SURCHARGE":         "FS",
	"PEAK SEASON SURCHARGE":  "PSS",
	"EXTENDED AREA SURCHARGE": "EAS",
	"ADDRESS CORRECTION":     "AC",
}

// SurchargeLine is one non-freight charge line on an invoice, matched
// against the service surcharge catalog independently of the mode
// calculators.
type SurchargeLine struct {
	Description     string
	WeightKg        float64 // 0 if the line carries no weight of its own
	ActualUSD       float64
	ProductCategory string // "Domestic" or "International", from zone.IsAU
}

// ResolveServiceCode runs the five-step description-matching cascade
// against the full catalog: exact name match, catalog-name-in-description,
// description-in-catalog-name, the fixed fuzzy phrase dictionary, then an
// edit-distance nearest match against the catalog names.
func ResolveServiceCode(description string, catalog []models.ServiceSurchargeRow) (string, bool) {
	upperDesc := strings.ToUpper(strings.TrimSpace(description))
	if upperDesc == "" {
		return "", false
	}

	for _, row := range catalog {
		if strings.EqualFold(row.ServiceName, upperDesc) {
			return row.ServiceCode, true
		}
	}
	for _, row := range catalog {
		name := strings.ToUpper(row.ServiceName)
		if name != "" && strings.Contains(upperDesc, name) {
			return row.ServiceCode, true
		}
	}
	for _, row := range catalog {
		name := strings.ToUpper(row.ServiceName)
		if name != "" && strings.Contains(name, upperDesc) {
			return row.ServiceCode, true
		}
	}
	for phrase, code := range fuzzyServicePhrases {
		if strings.Contains(upperDesc, phrase) {
			return code, true
		}
	}
	if code, ok := nearestByEditDistance(upperDesc, catalog); ok {
		return code, true
	}
	return "", false
}

// nearestByEditDistance picks the catalog row whose name has the smallest
// Levenshtein distance to upperDesc, accepting it only when that distance
// is within levenshteinMaxRatio of the description's length.
func nearestByEditDistance(upperDesc string, catalog []models.ServiceSurchargeRow) (string, bool) {
	bestCode := ""
	bestDist := -1
	for _, row := range catalog {
		name := strings.ToUpper(row.ServiceName)
		if name == "" {
			continue
		}
		dist := levenshtein.ComputeDistance(upperDesc, name)
		if bestDist == -1 || dist < bestDist {
			bestDist = dist
			bestCode = row.ServiceCode
		}
	}
	if bestDist == -1 {
		return "", false
	}
	return bestCode, float64(bestDist) <= levenshteinMaxRatio*float64(len([]rune(upperDesc)))
}

// CalculateSurcharge resolves and prices one service surcharge line.
// When the exactly looked-up row is flagged needs_variant_lookup, it is
// replaced by a variant keyed by the original service code, preferring the
// variant whose products_applicable filter matches productCategory and
// otherwise falling back to the "All Products" variant.
//
// When line carries no weight of its own (the common case for a surcharge
// line), awb is used to borrow the heaviest freight line's weight_kg from
// any other invoice sharing that AWB, before the charge-type formula runs.
func CalculateSurcharge(line SurchargeLine, awb string, store *ratestore.Store) (models.AuditLineItem, error) {
	if line.WeightKg == 0 && awb != "" {
		borrowed, ok, err := store.FindMaxFreightWeightByAWB(awb)
		if err != nil {
			return models.AuditLineItem{}, err
		}
		if ok {
			line.WeightKg = borrowed
		}
	}

	catalog, err := store.ListServiceSurcharges()
	if err != nil {
		return models.AuditLineItem{}, err
	}

	code, ok := ResolveServiceCode(line.Description, catalog)
	if !ok {
		return reviewRequiredSurchargeLine(line), nil
	}

	row, err := store.FindServiceSurcharge(code)
	if err != nil {
		return models.AuditLineItem{}, err
	}
	if row == nil {
		return reviewRequiredSurchargeLine(line), nil
	}

	if row.NeedsVariantLookup {
		variant, err := selectVariant(store, row, line.ProductCategory)
		if err != nil {
			return models.AuditLineItem{}, err
		}
		if variant == nil {
			return reviewRequiredSurchargeLine(line), nil
		}
		row = variant
	}

	expected := expectedSurchargeAmount(*row, line)
	item := rateCardLine(models.ChargeOther, line.ActualUSD, expected)
	classifySurchargeLine(&item)
	return item, nil
}

// selectVariant walks the variants sharing row's service code, preferring
// one whose products_applicable names productCategory, falling back to
// the "All Products" variant.
func selectVariant(store *ratestore.Store, row *models.ServiceSurchargeRow, productCategory string) (*models.ServiceSurchargeRow, error) {
	originalCode := row.ServiceCode
	if row.OriginalServiceCode.Valid {
		originalCode = row.OriginalServiceCode.String
	}
	variants, err := store.ListSurchargeVariants(originalCode)
	if err != nil {
		return nil, err
	}

	var allProducts *models.ServiceSurchargeRow
	for i := range variants {
		v := &variants[i]
		if !v.ProductsApplicable.Valid {
			continue
		}
		applicable := v.ProductsApplicable.String
		if strings.EqualFold(applicable, "All Products") {
			cp := *v
			allProducts = &cp
			continue
		}
		if strings.Contains(strings.ToUpper(applicable), strings.ToUpper(productCategory)) {
			cp := *v
			return &cp, nil
		}
	}
	return allProducts, nil
}

// expectedSurchargeAmount applies the per-charge-type formula. per_kg and
// the bonded storage formula use line.WeightKg, which CalculateSurcharge
// has already filled with the borrowed AWB weight when the line carried none.
func expectedSurchargeAmount(row models.ServiceSurchargeRow, line SurchargeLine) float64 {
	weight := line.WeightKg

	switch row.ChargeType {
	case models.SurchargeFlat:
		return row.Rate
	case models.SurchargePerKg:
		min := 0.0
		if row.MinimumCharge.Valid {
			min = row.MinimumCharge.Float64
		}
		return max(min, row.Rate*weight)
	case models.SurchargePerShipment:
		if row.ServiceCode == "YY" {
			if weight > 70 {
				return row.Rate
			}
			return 0
		}
		return row.Rate
	case models.SurchargeCustomFormula:
		if row.ServiceCode == "bonded_storage_formula" || strings.EqualFold(row.ServiceName, "BONDED STORAGE") {
			return max(18.00, weight*0.35)
		}
		return row.Rate
	default:
		return row.Rate
	}
}

// reviewRequiredSurchargeLine marks a line whose service code could not be
// resolved, per the asymmetric surcharge verdict rule: a missing expected
// row is review_required, never rejected outright.
func reviewRequiredSurchargeLine(line SurchargeLine) models.AuditLineItem {
	return models.AuditLineItem{
		ChargeKind:  models.ChargeOther,
		ActualUSD:   line.ActualUSD,
		ExpectedUSD: 0,
		VarianceUSD: line.ActualUSD,
		VariancePct: 100,
		AuditType:   models.AuditTypeRateCardComparison,
	}
}

// classifySurchargeLine fills in the line's variance in USD and percent.
// It assigns no verdict: the 5%/15% bands and the undercharge-approval rule
// are applied later by variance.Classify over the invoice's merged lines.
func classifySurchargeLine(item *models.AuditLineItem) {
	item.VarianceUSD = item.ActualUSD - item.ExpectedUSD
	if item.ExpectedUSD > 0 {
		v := item.VarianceUSD
		if v < 0 {
			v = -v
		}
		item.VariancePct = v / item.ExpectedUSD * 100
	} else if item.ActualUSD > 0 {
		item.VariancePct = 100
	}
}
