package catalog

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-lineitem/internal/obs"
	"github.com/noah-isme/toko-lineitem/internal/pricing"
	"github.com/noah-isme/toko-lineitem/internal/resilience"
)

// PriceSource resolves region prices for variants and add-ons.
type PriceSource interface {
	VariantRegionPrice(ctx context.Context, variantID, regionID string) (pricing.Money, error)
	AddOnRegionPrice(ctx context.Context, addOnID, regionID string) (pricing.Money, error)
}

// PriceCache is a read-through Redis cache in front of a PriceSource.
// Redis failures fall back to the source and never fail the lookup. With a
// Breaker configured, repeated Redis failures skip the cache until it recovers.
type PriceCache struct {
	next    PriceSource
	client  *redis.Client
	ttl     time.Duration
	breaker *resilience.Breaker
	logger  zerolog.Logger
}

// PriceCacheConfig groups PriceCache dependencies.
type PriceCacheConfig struct {
	Source  PriceSource
	Client  *redis.Client
	TTL     time.Duration
	Breaker *resilience.Breaker
	Logger  *zerolog.Logger
}

// NewPriceCache constructs a cache helper. A nil client or non-positive TTL disables caching.
func NewPriceCache(cfg PriceCacheConfig) (*PriceCache, error) {
	if cfg.Source == nil {
		return nil, errors.New("catalog: price source is required")
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	return &PriceCache{
		next:    cfg.Source,
		client:  cfg.Client,
		ttl:     cfg.TTL,
		breaker: cfg.Breaker,
		logger:  logger,
	}, nil
}

// VariantRegionPrice implements PriceSource.
func (c *PriceCache) VariantRegionPrice(ctx context.Context, variantID, regionID string) (pricing.Money, error) {
	return c.lookup(ctx, variantPriceKey(variantID, regionID), func(ctx context.Context) (pricing.Money, error) {
		return c.next.VariantRegionPrice(ctx, variantID, regionID)
	})
}

// AddOnRegionPrice implements PriceSource.
func (c *PriceCache) AddOnRegionPrice(ctx context.Context, addOnID, regionID string) (pricing.Money, error) {
	return c.lookup(ctx, addOnPriceKey(addOnID, regionID), func(ctx context.Context) (pricing.Money, error) {
		return c.next.AddOnRegionPrice(ctx, addOnID, regionID)
	})
}

func (c *PriceCache) enabled() bool {
	return c.client != nil && c.ttl > 0
}

func (c *PriceCache) lookup(ctx context.Context, key string, load func(context.Context) (pricing.Money, error)) (pricing.Money, error) {
	if !c.enabled() {
		return load(ctx)
	}
	var ticket resilience.Ticket
	if c.breaker != nil {
		var ok bool
		if ticket, ok = c.breaker.Allow(); !ok {
			observeCache("bypass")
			return load(ctx)
		}
	}

	cached, err := c.client.Get(ctx, key).Int64()
	if err != nil && isCallerGone(ctx, err) {
		// The caller left; Redis itself said nothing about its health.
		if c.breaker != nil {
			c.breaker.Release(ticket)
		}
		return 0, err
	}
	healthy := err == nil || errors.Is(err, redis.Nil)
	if c.breaker != nil {
		c.breaker.Report(ticket, healthy)
	}
	switch {
	case err == nil:
		observeCache("hit")
		return cached, nil
	case errors.Is(err, redis.Nil):
		observeCache("miss")
	default:
		observeCache("error")
		c.logger.Warn().Err(err).Str("key", key).Msg("price cache read failed")
	}

	amount, err := load(ctx)
	if err != nil {
		return 0, err
	}
	if !healthy {
		return amount, nil
	}
	if err := c.client.Set(ctx, key, strconv.FormatInt(amount, 10), c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("price cache write failed")
	}
	return amount, nil
}

// InvalidateVariant drops the cached variant price for a region.
func (c *PriceCache) InvalidateVariant(ctx context.Context, variantID, regionID string) error {
	if !c.enabled() {
		return nil
	}
	return c.client.Del(ctx, variantPriceKey(variantID, regionID)).Err()
}

// InvalidateAddOn drops the cached add-on price for a region.
func (c *PriceCache) InvalidateAddOn(ctx context.Context, addOnID, regionID string) error {
	if !c.enabled() {
		return nil
	}
	return c.client.Del(ctx, addOnPriceKey(addOnID, regionID)).Err()
}

func variantPriceKey(variantID, regionID string) string {
	return "price:variant:" + variantID + ":" + regionID
}

func addOnPriceKey(addOnID, regionID string) string {
	return "price:addon:" + addOnID + ":" + regionID
}

func observeCache(result string) {
	if obs.PriceCacheTotal != nil {
		obs.PriceCacheTotal.WithLabelValues(result).Inc()
	}
}

func isCallerGone(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
