package rates

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"ticketstore/internal/logger"
	"ticketstore/internal/models"
)

const cacheKey = "exchange_rate:current"
const cacheTTL = 5 * time.Minute

// Store reads and writes persisted exchange rates.
type Store interface {
	LatestRate(ctx context.Context) (*models.ExchangeRate, error)
	InsertRate(ctx context.Context, usdToTL float64, fetchedAt time.Time) error
}

// Cache is the subset of the redis client the provider uses.
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Rate is the value handed to the pricing engine.
type Rate struct {
	USDToTL   float64   `json:"usd_to_tl"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Provider serves the most recently fetched USD to TL rate. A persisted rate
// older than the freshness window is ignored and the default constant is
// used instead; refresh itself happens out of band (see Fetcher).
type Provider struct {
	store       Store
	cache       Cache
	logger      *logger.Logger
	defaultRate float64
	freshness   time.Duration
}

func NewProvider(store Store, cache Cache, log *logger.Logger, defaultRate float64, freshness time.Duration) *Provider {
	return &Provider{
		store:       store,
		cache:       cache,
		logger:      log,
		defaultRate: defaultRate,
		freshness:   freshness,
	}
}

// Current returns the rate to quote with. It never fails: store errors
// degrade to the default constant.
func (p *Provider) Current(ctx context.Context) Rate {
	if cached, ok := p.fromCache(ctx); ok {
		return cached
	}

	rate := p.fromStore(ctx)
	p.toCache(ctx, rate)
	return rate
}

func (p *Provider) fromStore(ctx context.Context) Rate {
	row, err := p.store.LatestRate(ctx)
	if err != nil {
		p.logger.Error("RATES", "Failed to read latest exchange rate: "+err.Error())
		return p.fallback()
	}
	if row == nil {
		return p.fallback()
	}

	if time.Since(row.FetchedAt) < p.freshness {
		return Rate{USDToTL: row.USDToTL, FetchedAt: row.FetchedAt}
	}

	p.logger.LogRates("Persisted rate is stale, using default " + formatRate(p.defaultRate))
	return p.fallback()
}

func (p *Provider) fallback() Rate {
	return Rate{USDToTL: p.defaultRate, FetchedAt: time.Now()}
}

func (p *Provider) fromCache(ctx context.Context) (Rate, bool) {
	if p.cache == nil {
		return Rate{}, false
	}

	val, err := p.cache.Get(ctx, cacheKey).Result()
	if err == redis.Nil {
		return Rate{}, false
	}
	if err != nil {
		p.logger.Warn("RATES", "Redis cache read failed: "+err.Error())
		return Rate{}, false
	}

	var rate Rate
	if err := json.Unmarshal([]byte(val), &rate); err != nil {
		return Rate{}, false
	}
	// A cached rate can cross the freshness cutoff before its TTL expires;
	// treat that as a miss so the fallback applies.
	if time.Since(rate.FetchedAt) >= p.freshness {
		return Rate{}, false
	}
	return rate, true
}

func (p *Provider) toCache(ctx context.Context, rate Rate) {
	if p.cache == nil {
		return
	}

	ttl := cacheTTL
	if remaining := p.freshness - time.Since(rate.FetchedAt); remaining < ttl {
		ttl = remaining
	}
	if ttl <= 0 {
		return
	}

	data, err := json.Marshal(rate)
	if err != nil {
		return
	}
	if err := p.cache.Set(ctx, cacheKey, data, ttl).Err(); err != nil {
		p.logger.Warn("RATES", "Redis cache write failed: "+err.Error())
	}
}
