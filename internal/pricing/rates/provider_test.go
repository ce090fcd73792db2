package rates_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"ticketstore/internal/logger"
	"ticketstore/internal/models"
	"ticketstore/internal/pricing/rates"
)

type MockRateStore struct {
	mock.Mock
}

func (m *MockRateStore) LatestRate(ctx context.Context) (*models.ExchangeRate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExchangeRate), args.Error(1)
}

func (m *MockRateStore) InsertRate(ctx context.Context, usdToTL float64, fetchedAt time.Time) error {
	args := m.Called(ctx, usdToTL, fetchedAt)
	return args.Error(0)
}

func newProvider(store rates.Store) *rates.Provider {
	return rates.NewProvider(store, nil, logger.NewLogger(), 34.5, time.Hour)
}

func TestCurrentUsesFreshRate(t *testing.T) {
	store := new(MockRateStore)
	fetchedAt := time.Now().Add(-59 * time.Minute)
	store.On("LatestRate", mock.Anything).Return(&models.ExchangeRate{
		ID:        "rate1",
		USDToTL:   36.2,
		FetchedAt: fetchedAt,
	}, nil)

	rate := newProvider(store).Current(context.Background())

	assert.Equal(t, 36.2, rate.USDToTL)
	assert.Equal(t, fetchedAt, rate.FetchedAt)
	store.AssertExpectations(t)
}

func TestCurrentFallsBackWhenStale(t *testing.T) {
	store := new(MockRateStore)
	store.On("LatestRate", mock.Anything).Return(&models.ExchangeRate{
		ID:        "rate1",
		USDToTL:   36.2,
		FetchedAt: time.Now().Add(-61 * time.Minute),
	}, nil)

	rate := newProvider(store).Current(context.Background())

	assert.Equal(t, 34.5, rate.USDToTL)
}

func TestCurrentFallsBackWhenEmpty(t *testing.T) {
	store := new(MockRateStore)
	store.On("LatestRate", mock.Anything).Return(nil, nil)

	rate := newProvider(store).Current(context.Background())

	assert.Equal(t, 34.5, rate.USDToTL)
}

func TestCurrentFallsBackOnStoreError(t *testing.T) {
	store := new(MockRateStore)
	store.On("LatestRate", mock.Anything).Return(nil, assert.AnError)

	rate := newProvider(store).Current(context.Background())

	assert.Equal(t, 34.5, rate.USDToTL)
}

// StubCache is an in-memory stand-in for the redis client.
type StubCache struct {
	data map[string]string
	ttl  time.Duration
}

func newStubCache() *StubCache {
	return &StubCache{data: make(map[string]string)}
}

func (s *StubCache) Get(ctx context.Context, key string) *redis.StringCmd {
	if val, ok := s.data[key]; ok {
		return redis.NewStringResult(val, nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func (s *StubCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	s.data[key] = string(value.([]byte))
	s.ttl = expiration
	return redis.NewStatusResult("OK", nil)
}

func (s *StubCache) put(t *testing.T, rate rates.Rate) {
	data, err := json.Marshal(rate)
	if err != nil {
		t.Fatalf("Failed to marshal rate: %v", err)
	}
	s.data["exchange_rate:current"] = string(data)
}

func cachedProvider(store rates.Store, cache rates.Cache) *rates.Provider {
	return rates.NewProvider(store, cache, logger.NewLogger(), 34.5, time.Hour)
}

func TestCurrentUsesFreshCachedRate(t *testing.T) {
	store := new(MockRateStore)
	cache := newStubCache()
	cache.put(t, rates.Rate{USDToTL: 36.2, FetchedAt: time.Now().Add(-5 * time.Minute)})

	rate := cachedProvider(store, cache).Current(context.Background())

	assert.Equal(t, 36.2, rate.USDToTL)
	store.AssertNotCalled(t, "LatestRate", mock.Anything)
}

func TestCurrentIgnoresCachedRatePastFreshnessCutoff(t *testing.T) {
	store := new(MockRateStore)
	store.On("LatestRate", mock.Anything).Return(nil, nil)
	cache := newStubCache()
	cache.put(t, rates.Rate{USDToTL: 36.2, FetchedAt: time.Now().Add(-61 * time.Minute)})

	rate := cachedProvider(store, cache).Current(context.Background())

	assert.Equal(t, 34.5, rate.USDToTL)
	store.AssertExpectations(t)
}

func TestCacheWriteTTLNeverOutlivesFreshness(t *testing.T) {
	store := new(MockRateStore)
	store.On("LatestRate", mock.Anything).Return(&models.ExchangeRate{
		ID:        "rate1",
		USDToTL:   36.2,
		FetchedAt: time.Now().Add(-58 * time.Minute),
	}, nil)
	cache := newStubCache()

	rate := cachedProvider(store, cache).Current(context.Background())

	assert.Equal(t, 36.2, rate.USDToTL)
	assert.Greater(t, cache.ttl, time.Duration(0))
	assert.LessOrEqual(t, cache.ttl, 2*time.Minute)
}
