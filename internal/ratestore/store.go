// Package ratestore is the read-only facade over rate cards, zone maps,
// service catalogs, and spot quotes. It is the only component that talks
// to internal/models; calculators, the matcher, and the dispatcher see
// only this package.
package ratestore

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"

	"github.com/joexgit2024/freightaudit/internal/config"
	"github.com/joexgit2024/freightaudit/internal/models"
)

// Store is a read-only, side-effect-free facade over the rate data the
// pricing calculators and matcher need. Every lookup returns a zero/absent
// marker when not found rather than an error
type Store struct {
	rateCards *models.RateCardRepository
	express *models.ExpressRepository
	surcharges *models.SurchargeRepository
	quotes *models.QuoteRepository
	invoices *models.InvoiceRepository

	cache *expirable.LRU[string, any]
	redis *redis.Client
	versionKey string
}

// New builds a Store over the given repositories. redisClient may be nil;
// the store then runs version-less (ActiveVersion reports "v1") with only
// the in-process cache in front of Postgres, the same fallback auditctl's startup
// uses when Redis is unreachable. The LRU cache expires entries on
// CacheTTLMinutes so a lane or rate card edited mid-day is eventually
// re-read from Postgres even if InvalidateCache is never called.
func New(rateCards *models.RateCardRepository, express *models.ExpressRepository,
	surcharges *models.SurchargeRepository, quotes *models.QuoteRepository,
	invoices *models.InvoiceRepository, redisClient *redis.Client, cfg *config.CacheConfig) *Store {

	size := 2048
	ttlMinutes := 15
	if cfg != nil {
		if cfg.LookupEntries > 0 {
			size = cfg.LookupEntries
		}
		if cfg.CacheTTLMinutes > 0 {
			ttlMinutes = cfg.CacheTTLMinutes
		}
	}
	cache := expirable.NewLRU[string, any](size, nil, time.Duration(ttlMinutes)*time.Minute)

	key := "ratecards:active_version"
	if cfg != nil && cfg.VersionPointerKey != "" {
		key = cfg.VersionPointerKey
	}

	return &Store{
		rateCards: rateCards,
		express: express,
		surcharges: surcharges,
		quotes: quotes,
		invoices: invoices,
		cache: cache,
		redis: redisClient,
		versionKey: key,
	}
}

// ActiveVersion reads the active rate-card version pointer, reporting "v1"
// when Redis is absent, the key is unset, or the read fails. No lookup in
// this package is filtered by version, so the value does not pin the rate
// cards a batch sees.
func (s *Store) ActiveVersion(ctx context.Context) string {
	if s.redis == nil {
		return "v1"
	}
	version, err := s.redis.Get(ctx, s.versionKey).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("⚠️ Failed to read active rate-card version from Redis: %v (using v1)", err)
		}
		return "v1"
	}
	return version
}

// InvalidateCache drops every cached lookup. Nothing in this module calls
// it; cached entries otherwise expire after CacheTTLMinutes.
func (s *Store) InvalidateCache() {
	if s.cache != nil {
		s.cache.Purge()
	}
}

func (s *Store) cacheGet(key string) (any, bool) {
	if s.cache == nil {
		return nil, false
	}
	return s.cache.Get(key)
}

func (s *Store) cacheSet(key string, value any) {
	if s.cache != nil {
		s.cache.Add(key, value)
	}
}

// GetInvoice fetches one invoice by its business key.
func (s *Store) GetInvoice(invoiceNo string) (*models.Invoice, error) {
	inv, err := s.invoices.GetByInvoiceNo(invoiceNo)
	if err != nil {
		return nil, fmt.Errorf("rate store: get invoice: %w", err)
	}
	return inv, nil
}

// ListYTDInvoices returns every year-to-date invoice summary.
func (s *Store) ListYTDInvoices() ([]models.InvoiceSummary, error) {
	return s.invoices.ListYTD()
}
