package audit

import (
	"strings"

	"github.com/joexgit2024/freightaudit/internal/models"
	"github.com/joexgit2024/freightaudit/internal/zone"
)

// Calculator tags which pricing path the dispatcher selected for an
// invoice.
type Calculator string

const (
	CalcAir              Calculator = "air"
	CalcOcean            Calculator = "ocean"
	CalcExpressImport    Calculator = "express_import"
	CalcExpressExport    Calculator = "express_export"
	CalcExpressAUDomestic Calculator = "express_au_domestic"
	CalcExpressThirdParty Calculator = "express_third_party"
	CalcDGF              Calculator = "dgf"
	// CalcReviewRequired means no calculator applies and the invoice
	// should be recorded as review_required without running pricing.
	CalcReviewRequired Calculator = "review_required"
)

// thirdPartyTags is the fixed set of description substrings (matched
// case-insensitively) that mark an express shipment neither leg of which
// is AU as routed through the third-party calculator. Anything else in
// that position is routed to manual review rather than guessed at.
var thirdPartyTags = []string{"3RD PARTY", "THIRD PARTY", "EXPRESS WORLDWIDE", "EXPRESS 3RDCTY", "THIRD COUNTRY"}

// Dispatch inspects an invoice's mode, the AU-ness of its
// origin/destination, and its description (for the third-party tags) to
// select a calculator. It is stateless: the
// same invoice always dispatches to the same calculator.
func Dispatch(invoice *models.Invoice) Calculator {
	switch invoice.Mode {
	case models.ModeAir:
		return CalcAir
	case models.ModeOcean:
		return CalcOcean
	case models.ModeDGFAir, models.ModeDGFSea:
		return CalcDGF
	case models.ModeAUDomestic:
		return CalcExpressAUDomestic
	case models.ModeExpress3P:
		return CalcExpressThirdParty
	case models.ModeExpress:
		return dispatchExpress(invoice)
	default:
		return CalcReviewRequired
	}
}

func dispatchExpress(invoice *models.Invoice) Calculator {
	originAU := zone.IsAU(invoice.Origin)
	destAU := zone.IsAU(invoice.Destination)

	switch {
	case originAU && destAU:
		return CalcExpressAUDomestic
	case originAU:
		return CalcExpressExport
	case destAU:
		return CalcExpressImport
	default:
		if hasThirdPartyTag(invoice.Description) {
			return CalcExpressThirdParty
		}
		return CalcReviewRequired
	}
}

func hasThirdPartyTag(description string) bool {
	upper := strings.ToUpper(description)
	for _, tag := range thirdPartyTags {
		if strings.Contains(upper, tag) {
			return true
		}
	}
	return false
}
