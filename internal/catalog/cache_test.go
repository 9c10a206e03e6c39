package catalog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-lineitem/internal/catalog"
	"github.com/noah-isme/toko-lineitem/internal/pricing"
	"github.com/noah-isme/toko-lineitem/internal/resilience"
)

type countingPrices struct {
	variant      map[string]pricing.Money
	addOn        map[string]pricing.Money
	variantCalls int
	addOnCalls   int
	err          error
}

func (c *countingPrices) VariantRegionPrice(_ context.Context, variantID, regionID string) (pricing.Money, error) {
	c.variantCalls++
	if c.err != nil {
		return 0, c.err
	}
	return c.variant[variantID+"/"+regionID], nil
}

func (c *countingPrices) AddOnRegionPrice(_ context.Context, addOnID, regionID string) (pricing.Money, error) {
	c.addOnCalls++
	if c.err != nil {
		return 0, c.err
	}
	return c.addOn[addOnID+"/"+regionID], nil
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestPriceCacheReadThrough(t *testing.T) {
	mr, client := newRedis(t)
	source := &countingPrices{
		variant: map[string]pricing.Money{"v1/r1": 10_000},
		addOn:   map[string]pricing.Money{"a1/r1": 2_500},
	}
	cache, err := catalog.NewPriceCache(catalog.PriceCacheConfig{Source: source, Client: client, TTL: time.Minute})
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		amount, err := cache.VariantRegionPrice(ctx, "v1", "r1")
		require.NoError(t, err)
		require.Equal(t, pricing.Money(10_000), amount)
	}
	require.Equal(t, 1, source.variantCalls)

	amount, err := cache.AddOnRegionPrice(ctx, "a1", "r1")
	require.NoError(t, err)
	require.Equal(t, pricing.Money(2_500), amount)
	_, err = cache.AddOnRegionPrice(ctx, "a1", "r1")
	require.NoError(t, err)
	require.Equal(t, 1, source.addOnCalls)

	stored, err := mr.Get("price:variant:v1:r1")
	require.NoError(t, err)
	require.Equal(t, "10000", stored)
	require.Greater(t, mr.TTL("price:addon:a1:r1"), time.Duration(0))
}

func TestPriceCacheInvalidate(t *testing.T) {
	_, client := newRedis(t)
	source := &countingPrices{variant: map[string]pricing.Money{"v1/r1": 500}}
	cache, err := catalog.NewPriceCache(catalog.PriceCacheConfig{Source: source, Client: client, TTL: time.Minute})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = cache.VariantRegionPrice(ctx, "v1", "r1")
	require.NoError(t, err)
	require.NoError(t, cache.InvalidateVariant(ctx, "v1", "r1"))
	source.variant["v1/r1"] = 700

	amount, err := cache.VariantRegionPrice(ctx, "v1", "r1")
	require.NoError(t, err)
	require.Equal(t, pricing.Money(700), amount)
	require.Equal(t, 2, source.variantCalls)
}

func TestPriceCacheFallsBackWhenRedisDown(t *testing.T) {
	mr, client := newRedis(t)
	source := &countingPrices{variant: map[string]pricing.Money{"v1/r1": 42}}
	cache, err := catalog.NewPriceCache(catalog.PriceCacheConfig{Source: source, Client: client, TTL: time.Minute})
	require.NoError(t, err)

	mr.Close()
	amount, err := cache.VariantRegionPrice(context.Background(), "v1", "r1")
	require.NoError(t, err)
	require.Equal(t, pricing.Money(42), amount)
}

func TestPriceCacheBreakerSkipsFailingRedis(t *testing.T) {
	mr, client := newRedis(t)
	source := &countingPrices{variant: map[string]pricing.Money{"v1/r1": 42}}
	breaker := resilience.NewBreaker(resilience.BreakerConfig{Target: "price_cache", Threshold: 1, OpenFor: time.Minute})
	cache, err := catalog.NewPriceCache(catalog.PriceCacheConfig{Source: source, Client: client, TTL: time.Minute, Breaker: breaker})
	require.NoError(t, err)
	ctx := context.Background()

	mr.Close()
	amount, err := cache.VariantRegionPrice(ctx, "v1", "r1")
	require.NoError(t, err)
	require.Equal(t, pricing.Money(42), amount)
	require.Equal(t, resilience.Open, breaker.State())

	amount, err = cache.VariantRegionPrice(ctx, "v1", "r1")
	require.NoError(t, err)
	require.Equal(t, pricing.Money(42), amount)
	require.Equal(t, 2, source.variantCalls)
}

func TestPriceCacheBreakerStaysClosedOnMisses(t *testing.T) {
	_, client := newRedis(t)
	source := &countingPrices{variant: map[string]pricing.Money{"v1/r1": 1, "v2/r1": 2}}
	breaker := resilience.NewBreaker(resilience.BreakerConfig{Target: "price_cache", Threshold: 1})
	cache, err := catalog.NewPriceCache(catalog.PriceCacheConfig{Source: source, Client: client, TTL: time.Minute, Breaker: breaker})
	require.NoError(t, err)

	_, err = cache.VariantRegionPrice(context.Background(), "v1", "r1")
	require.NoError(t, err)
	_, err = cache.VariantRegionPrice(context.Background(), "v2", "r1")
	require.NoError(t, err)
	require.Equal(t, resilience.Closed, breaker.State())
}

func TestPriceCacheCancelledCallerDoesNotTripBreaker(t *testing.T) {
	_, client := newRedis(t)
	source := &countingPrices{variant: map[string]pricing.Money{"v1/r1": 42}}
	breaker := resilience.NewBreaker(resilience.BreakerConfig{Target: "price_cache", Threshold: 3, OpenFor: time.Minute})
	cache, err := catalog.NewPriceCache(catalog.PriceCacheConfig{Source: source, Client: client, TTL: time.Minute, Breaker: breaker})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 3; i++ {
		_, err := cache.VariantRegionPrice(ctx, "v1", "r1")
		require.ErrorIs(t, err, context.Canceled)
	}
	require.Equal(t, resilience.Closed, breaker.State())
	require.Zero(t, source.variantCalls)

	amount, err := cache.VariantRegionPrice(context.Background(), "v1", "r1")
	require.NoError(t, err)
	require.Equal(t, pricing.Money(42), amount)
}

func TestPriceCacheDoesNotStoreErrors(t *testing.T) {
	mr, client := newRedis(t)
	source := &countingPrices{err: errors.New("boom")}
	cache, err := catalog.NewPriceCache(catalog.PriceCacheConfig{Source: source, Client: client, TTL: time.Minute})
	require.NoError(t, err)

	_, err = cache.AddOnRegionPrice(context.Background(), "a1", "r1")
	require.Error(t, err)
	require.False(t, mr.Exists("price:addon:a1:r1"))
}

func TestPriceCacheDisabledWithoutClient(t *testing.T) {
	source := &countingPrices{variant: map[string]pricing.Money{"v1/r1": 1}}
	cache, err := catalog.NewPriceCache(catalog.PriceCacheConfig{Source: source})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := cache.VariantRegionPrice(context.Background(), "v1", "r1")
		require.NoError(t, err)
	}
	require.Equal(t, 2, source.variantCalls)
	require.NoError(t, cache.InvalidateVariant(context.Background(), "v1", "r1"))
}

func TestNewPriceCacheRequiresSource(t *testing.T) {
	_, err := catalog.NewPriceCache(catalog.PriceCacheConfig{})
	require.Error(t, err)
}
