package models

import (
	"database/sql"
	"fmt"
)

// SpotQuote is one DGF negotiated lane quote, air or sea.
type SpotQuote struct {
	ID              string
	QuoteID         string
	Mode            Mode // ModeDGFAir or ModeDGFSea
	RatePerKg       sql.NullFloat64
	RatePerCBM      sql.NullFloat64
	HandlingFeeUSD  float64
	QuoteCurrency   string
	QuoteFXRateUSD  float64
}

// QuoteRepository provides read-only access to DGF spot quotes.
type QuoteRepository struct {
	db *sql.DB
}

// NewQuoteRepository creates a new spot quote repository.
func NewQuoteRepository(db *sql.DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

// LookupDGFQuote finds the quote for a given quote_id.
func (r *QuoteRepository) LookupDGFQuote(quoteID string) (*SpotQuote, error) {
	var q SpotQuote
	err := r.db.QueryRow(`
		SELECT id, quote_id, mode, rate_per_kg, rate_per_cbm, handling_fee_usd,
		       quote_currency, quote_fx_rate_usd
		FROM dgf_spot_quotes
		WHERE quote_id = $1
	`, quoteID).Scan(
		&q.ID, &q.QuoteID, &q.Mode, &q.RatePerKg, &q.RatePerCBM, &q.HandlingFeeUSD,
		&q.QuoteCurrency, &q.QuoteFXRateUSD,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up DGF quote %s: %w", quoteID, err)
	}
	return &q, nil
}
