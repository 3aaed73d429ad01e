// Package audit wires the dispatcher, matcher, pricing calculators, and
// variance classifier into a single per-invoice audit operation, and
// drives that operation across many invoices as a batch.
package audit

import (
	"fmt"
	"strings"

	"github.com/joexgit2024/freightaudit/internal/config"
	"github.com/joexgit2024/freightaudit/internal/matcher"
	"github.com/joexgit2024/freightaudit/internal/models"
	"github.com/joexgit2024/freightaudit/internal/pricing"
	"github.com/joexgit2024/freightaudit/internal/ratestore"
	"github.com/joexgit2024/freightaudit/internal/variance"
	"github.com/joexgit2024/freightaudit/internal/zone"
)

// Engine ties together the read-only rate store and the result/batch
// repositories to perform and persist audits.
type Engine struct {
	store *ratestore.Store
	auditResults *models.AuditResultRepository
	batchRuns *models.BatchRunRepository
	cfg config.AuditConfig
}

// NewEngine builds an Engine over the given store and repositories.
func NewEngine(store *ratestore.Store, auditResults *models.AuditResultRepository, batchRuns *models.BatchRunRepository, cfg config.AuditConfig) *Engine {
	return &Engine{store: store, auditResults: auditResults, batchRuns: batchRuns, cfg: cfg}
}

func (e *Engine) thresholds() variance.Thresholds {
	return variance.Thresholds{ApprovedMaxPct: e.cfg.ApprovedMaxVariancePct, ReviewMaxPct: e.cfg.ReviewMaxVariancePct}
}

func (e *Engine) dgfTolerances() pricing.DGFTolerances {
	return pricing.DGFTolerances{FreightPct: e.cfg.DGFFreightTolerancePct, HandlingPct: e.cfg.DGFHandlingTolerancePct}
}

// outcome is the in-memory result of auditing one invoice, before it is
// wrapped into a models.AuditResult row tied to a batch.
type outcome struct {
	verdict models.Verdict
	lineItems []models.AuditLineItem
	rateCardID string
	laneDescription string
	service string
	statusReason string
}

// auditOne runs the full dispatch-match-price-classify pipeline for a
// single invoice. It never returns an error for conditions that are
// recorded as a verdict (no_rate_card, review_required, error); it only
// returns an error for store-level failures that should abort the
// enclosing batch.
func (e *Engine) auditOne(invoice *models.Invoice) (outcome, error) {
	calc := Dispatch(invoice)

	var out outcome
	var err error

	switch calc {
	case CalcReviewRequired:
		return outcome{verdict: models.VerdictReviewRequired, statusReason: "no applicable calculator for this mode/route combination"}, nil
	case CalcAir:
		out, err = e.auditAir(invoice)
	case CalcOcean:
		out, err = e.auditOcean(invoice)
	case CalcExpressImport:
		out, err = e.auditExpressInternational(invoice, models.ServiceImport)
	case CalcExpressExport:
		out, err = e.auditExpressInternational(invoice, models.ServiceExport)
	case CalcExpressAUDomestic:
		out, err = e.auditAUDomestic(invoice)
	case CalcExpressThirdParty:
		out, err = e.auditExpressThirdParty(invoice)
	case CalcDGF:
		out, err = e.auditDGF(invoice)
	default:
		return outcome{verdict: models.VerdictError, statusReason: fmt.Sprintf("unhandled calculator %q", calc)}, nil
	}
	if err != nil {
		return outcome{}, err
	}
	if len(invoice.SurchargeLines) == 0 || out.verdict == models.VerdictNoRateCard {
		return out, nil
	}
	return e.auditSurchargeLines(invoice, calc, out)
}

// auditSurchargeLines resolves every surcharge line billed against invoice
// through the service surcharge catalog (part of C3, same as the mode
// calculators), dropping the calculator's flat passthrough "other" bucket
// in favor of these individually-priced lines, then reclassifies the
// invoice's verdict over the combined set.
func (e *Engine) auditSurchargeLines(invoice *models.Invoice, calc Calculator, out outcome) (outcome, error) {
	productCategory := "International"
	if zone.IsAU(invoice.Origin) && zone.IsAU(invoice.Destination) {
		productCategory = "Domestic"
	}

	merged := make([]models.AuditLineItem, 0, len(out.lineItems)+len(invoice.SurchargeLines))
	for _, item := range out.lineItems {
		if item.ChargeKind == models.ChargeOther && item.AuditType == models.AuditTypeAdditionalCharge {
			continue
		}
		merged = append(merged, item)
	}

	for _, sl := range invoice.SurchargeLines {
		line := pricing.SurchargeLine{
			Description:     sl.Description,
			WeightKg:        sl.WeightKg,
			ActualUSD:       sl.ActualUSD,
			ProductCategory: productCategory,
		}
		item, err := pricing.CalculateSurcharge(line, invoice.AWB.String, e.store)
		if err != nil {
			return outcome{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		merged = append(merged, item)
	}
	out.lineItems = merged

	if calc == CalcDGF {
		verdict := models.VerdictRejected
		if pricing.DGFWithinTolerance(merged, e.dgfTolerances()) {
			verdict = models.VerdictApproved
		}
		out.verdict = verdict
		return out, nil
	}

	v := variance.Classify(merged, e.thresholds())
	out.verdict = v.Verdict
	return out, nil
}

func (e *Engine) auditAir(invoice *models.Invoice) (outcome, error) {
	if !invoice.OriginPort.Valid || !invoice.DestinationPort.Valid {
		return outcome{verdict: models.VerdictNoRateCard, statusReason: "missing origin/destination port"}, nil
	}
	lanes, err := e.store.FindAirLanes(invoice.OriginPort.String, invoice.DestinationPort.String)
	if err != nil {
		return outcome{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(lanes) == 0 {
		return outcome{verdict: models.VerdictNoRateCard, statusReason: "no air lane for this port pair"}, nil
	}

	best, bestRate := bestAirMatch(invoice, lanes, true)
	if best == nil {
		// No lane's service matched the invoice's pinned service type;
		// fall back to scoring every lane regardless of service.
		best, bestRate = bestAirMatch(invoice, lanes, false)
	}

	v := variance.Classify(best.LineItems, e.thresholds())
	return outcome{
		verdict: v.Verdict,
		lineItems: best.LineItems,
		rateCardID: bestRate.RateCardID,
		laneDescription: best.LaneDescription,
		service: best.Service,
	}, nil
}

// bestAirMatch scores every lane and keeps whichever yields the smallest
// absolute auditable variance, the tie-break a lane with both Standard
// and Expedite service entries needs when the invoice doesn't pin one.
// When filterService is true, lanes whose service doesn't match the
// invoice's pinned service type are skipped.
func bestAirMatch(invoice *models.Invoice, lanes []models.AirRateEntry, filterService bool) (*pricing.Result, *models.AirRateEntry) {
	var best *pricing.Result
	var bestRate *models.AirRateEntry
	for i := range lanes {
		rate := &lanes[i]
		if filterService && invoice.ServiceType != "" && !equalFoldNonEmpty(invoice.ServiceType, rate.Service) {
			continue
		}
		result := pricing.CalculateAir(invoice, rate)
		if best == nil || absFloat(pricing.AuditableVarianceUSD(result.LineItems)) < absFloat(pricing.AuditableVarianceUSD(best.LineItems)) {
			result := result
			best = &result
			bestRate = rate
		}
	}
	return best, bestRate
}

func (e *Engine) auditOcean(invoice *models.Invoice) (outcome, error) {
	lanes, err := e.store.FindOceanLanes()
	if err != nil {
		return outcome{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	candidates := matcher.MatchOceanLanes(invoice.Origin, invoice.Destination, invoice.ServiceType, lanes)
	if len(candidates) == 0 {
		return outcome{verdict: models.VerdictNoRateCard, statusReason: "no ocean lane scored above the match floor"}, nil
	}

	lane := candidates[0].Lane
	result := pricing.CalculateOcean(invoice, &lane)
	v := variance.Classify(result.LineItems, e.thresholds())
	return outcome{
		verdict: v.Verdict,
		lineItems: result.LineItems,
		rateCardID: lane.RateCardID,
		laneDescription: result.LaneDescription,
		service: result.Service,
	}, nil
}

func (e *Engine) auditExpressInternational(invoice *models.Invoice, serviceType models.ExpressServiceType) (outcome, error) {
	// Import looks up the origin's zone (AU is always one leg);
	// Export looks up the destination's. Either way it's whichever leg isn't AU.
	var countryAddr string
	if serviceType == models.ServiceImport {
		countryAddr = invoice.Origin
	} else {
		countryAddr = invoice.Destination
	}
	country, err := zone.RequireCountry(countryAddr)
	if err != nil {
		return outcome{verdict: models.VerdictReviewRequired, statusReason: ErrZoneUnknown.Error()}, nil
	}

	zoneLabel, ok, err := e.store.FindExpressZone(country)
	if err != nil {
		return outcome{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !ok {
		return outcome{verdict: models.VerdictNoRateCard, statusReason: "no express zone mapping for " + country}, nil
	}

	result, err := pricing.CalculateExpressInternational(invoice, e.store, serviceType, zoneLabel)
	if err != nil {
		return outcome{verdict: models.VerdictNoRateCard, statusReason: err.Error()}, nil
	}
	v := variance.Classify(result.LineItems, e.thresholds())
	return outcome{
		verdict: v.Verdict,
		lineItems: result.LineItems,
		laneDescription: result.LaneDescription,
		service: result.Service,
	}, nil
}

func (e *Engine) auditExpressThirdParty(invoice *models.Invoice) (outcome, error) {
	originCountry, err := zone.RequireCountry(invoice.Origin)
	if err != nil {
		return outcome{verdict: models.VerdictReviewRequired, statusReason: ErrZoneUnknown.Error()}, nil
	}
	destCountry, err := zone.RequireCountry(invoice.Destination)
	if err != nil {
		return outcome{verdict: models.VerdictReviewRequired, statusReason: ErrZoneUnknown.Error()}, nil
	}

	result, err := pricing.CalculateExpressThirdParty(invoice, e.store, originCountry, destCountry)
	if err != nil {
		return outcome{verdict: models.VerdictNoRateCard, statusReason: err.Error()}, nil
	}
	v := variance.Classify(result.LineItems, e.thresholds())
	return outcome{
		verdict: v.Verdict,
		lineItems: result.LineItems,
		laneDescription: result.LaneDescription,
		service: result.Service,
	}, nil
}

func (e *Engine) auditAUDomestic(invoice *models.Invoice) (outcome, error) {
	originZone, _ := zone.ExtractAUZone(invoice.Origin)
	destZone, _ := zone.ExtractAUZone(invoice.Destination)

	result, err := pricing.CalculateAUDomestic(invoice, e.store, originZone, destZone)
	if err != nil {
		return outcome{verdict: models.VerdictNoRateCard, statusReason: err.Error()}, nil
	}
	v := variance.Classify(result.LineItems, e.thresholds())
	return outcome{
		verdict: v.Verdict,
		lineItems: result.LineItems,
		laneDescription: result.LaneDescription,
		service: result.Service,
	}, nil
}

func (e *Engine) auditDGF(invoice *models.Invoice) (outcome, error) {
	if !invoice.QuoteID.Valid {
		return outcome{verdict: models.VerdictNoRateCard, statusReason: "invoice carries no quote_id"}, nil
	}
	quote, err := e.store.FindDGFQuote(invoice.QuoteID.String)
	if err != nil {
		return outcome{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if quote == nil {
		return outcome{verdict: models.VerdictNoRateCard, statusReason: "no DGF spot quote for " + invoice.QuoteID.String}, nil
	}

	result := pricing.CalculateDGF(invoice, quote)
	verdict := models.VerdictRejected
	if pricing.DGFWithinTolerance(result.LineItems, e.dgfTolerances()) {
		verdict = models.VerdictApproved
	}
	return outcome{
		verdict: verdict,
		lineItems: result.LineItems,
		laneDescription: result.LaneDescription,
		service: result.Service,
	}, nil
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func equalFoldNonEmpty(a, b string) bool {
	if a == "" || b == "" {
		return true
	}
	return strings.EqualFold(a, b)
}
