package main

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-lineitem/internal/catalog"
	"github.com/noah-isme/toko-lineitem/internal/db"
	"github.com/noah-isme/toko-lineitem/internal/obs"
)

// seedNamespace keeps generated ids stable across runs so the seeder is idempotent.
var seedNamespace = uuid.MustParse("6f1c2d3e-4a5b-4c6d-8e7f-9a0b1c2d3e4f")

func seedID(kind, key string) string {
	return uuid.NewSHA1(seedNamespace, []byte(kind+":"+key)).String()
}

type seedProduct struct {
	Key        string
	Title      string
	Thumbnail  string
	IsGiftcard bool
	Variants   []seedVariant
}

type seedVariant struct {
	Key    string
	Title  string
	SKU    string
	Prices map[string]int64
}

type seedAddOn struct {
	Key      string
	Name     string
	Products []string
	Prices   map[string]int64
}

var regions = []struct {
	Key      string
	Name     string
	Currency string
}{
	{"id", "Indonesia", "idr"},
	{"sg", "Singapore", "sgd"},
}

var products = []seedProduct{
	{
		Key: "kaos-polos", Title: "Kaos Polos Premium", Thumbnail: "https://cdn.toko.local/kaos-polos.png",
		Variants: []seedVariant{
			{Key: "kaos-polos-s", Title: "S / Hitam", SKU: "KAOS-S-BLK", Prices: map[string]int64{"id": 89000, "sg": 900}},
			{Key: "kaos-polos-m", Title: "M / Hitam", SKU: "KAOS-M-BLK", Prices: map[string]int64{"id": 89000, "sg": 900}},
			{Key: "kaos-polos-l", Title: "L / Putih", SKU: "KAOS-L-WHT", Prices: map[string]int64{"id": 94000, "sg": 950}},
		},
	},
	{
		Key: "tumbler", Title: "Tumbler Stainless 500ml", Thumbnail: "https://cdn.toko.local/tumbler.png",
		Variants: []seedVariant{
			{Key: "tumbler-silver", Title: "Silver", SKU: "TMB-500-SLV", Prices: map[string]int64{"id": 149000, "sg": 1500}},
		},
	},
	{
		Key: "gift-card", Title: "Kartu Hadiah Toko", IsGiftcard: true,
		Variants: []seedVariant{
			{Key: "gift-card-100k", Title: "Rp100.000", SKU: "GC-100K", Prices: map[string]int64{"id": 100000}},
		},
	},
}

var addOns = []seedAddOn{
	{Key: "gift-wrap", Name: "Bungkus Kado", Products: []string{"kaos-polos", "tumbler"}, Prices: map[string]int64{"id": 10000, "sg": 200}},
	{Key: "engraving", Name: "Grafir Nama", Products: []string{"tumbler"}, Prices: map[string]int64{"id": 35000, "sg": 500}},
	{Key: "greeting-card", Name: "Kartu Ucapan", Products: []string{"kaos-polos", "tumbler", "gift-card"}, Prices: map[string]int64{"id": 5000}},
}

func main() {
	_ = godotenv.Load()
	logger := obs.NewLogger(envOrDefault("OBS_LOG_FORMAT", "console"), envOrDefault("OBS_LOG_LEVEL", "info"))

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL is not set")
	}

	if err := db.Migrate(dbURL, logger); err != nil {
		logger.Fatal().Err(err).Msg("run migrations")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.OpenPool(ctx, dbURL, "toko-lineitem-seeder")
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("begin transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := seedCatalog(ctx, tx, logger); err != nil {
		logger.Fatal().Err(err).Msg("seed catalog")
	}
	if err := tx.Commit(ctx); err != nil {
		logger.Fatal().Err(err).Msg("commit seed")
	}

	invalidatePrices(ctx, pool, logger)
	logger.Info().Msg("seeding completed")
}

func seedCatalog(ctx context.Context, tx pgx.Tx, logger zerolog.Logger) error {
	for _, r := range regions {
		if _, err := tx.Exec(ctx, `
			INSERT INTO regions (id, name, currency_code) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, currency_code = EXCLUDED.currency_code`,
			seedID("region", r.Key), r.Name, r.Currency); err != nil {
			return err
		}
	}
	logger.Info().Int("count", len(regions)).Msg("regions seeded")

	for _, p := range products {
		productID := seedID("product", p.Key)
		var thumbnail *string
		if p.Thumbnail != "" {
			thumbnail = &p.Thumbnail
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO products (id, title, thumbnail, is_giftcard) VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, thumbnail = EXCLUDED.thumbnail, is_giftcard = EXCLUDED.is_giftcard`,
			productID, p.Title, thumbnail, p.IsGiftcard); err != nil {
			return err
		}
		for _, v := range p.Variants {
			variantID := seedID("variant", v.Key)
			if _, err := tx.Exec(ctx, `
				INSERT INTO product_variants (id, product_id, title, sku) VALUES ($1, $2, $3, $4)
				ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, sku = EXCLUDED.sku`,
				variantID, productID, v.Title, v.SKU); err != nil {
				return err
			}
			for region, amount := range v.Prices {
				if _, err := tx.Exec(ctx, `
					INSERT INTO variant_prices (variant_id, region_id, amount) VALUES ($1, $2, $3)
					ON CONFLICT (variant_id, region_id) DO UPDATE SET amount = EXCLUDED.amount`,
					variantID, seedID("region", region), amount); err != nil {
					return err
				}
			}
			logger.Debug().Str("variant_id", variantID).Str("sku", v.SKU).Msg("variant seeded")
		}
	}
	logger.Info().Int("count", len(products)).Msg("products seeded")

	for _, a := range addOns {
		addOnID := seedID("addon", a.Key)
		if _, err := tx.Exec(ctx, `
			INSERT INTO add_ons (id, name) VALUES ($1, $2)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,
			addOnID, a.Name); err != nil {
			return err
		}
		for _, product := range a.Products {
			if _, err := tx.Exec(ctx, `
				INSERT INTO add_on_products (add_on_id, product_id) VALUES ($1, $2)
				ON CONFLICT DO NOTHING`,
				addOnID, seedID("product", product)); err != nil {
				return err
			}
		}
		for region, amount := range a.Prices {
			if _, err := tx.Exec(ctx, `
				INSERT INTO add_on_prices (add_on_id, region_id, amount) VALUES ($1, $2, $3)
				ON CONFLICT (add_on_id, region_id) DO UPDATE SET amount = EXCLUDED.amount`,
				addOnID, seedID("region", region), amount); err != nil {
				return err
			}
		}
	}
	logger.Info().Int("count", len(addOns)).Msg("add-ons seeded")
	return nil
}

// invalidatePrices drops cached region prices for every seeded row so the API
// serves the new amounts immediately. Skipped when REDIS_URL is unset.
func invalidatePrices(ctx context.Context, source catalog.DBTX, logger zerolog.Logger) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		logger.Info().Msg("REDIS_URL not set, skipping price cache invalidation")
		return
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("parse redis url")
		return
	}
	client := redis.NewClient(opts)
	defer client.Close()

	cache, err := catalog.NewPriceCache(catalog.PriceCacheConfig{
		Source: catalog.NewStore(source),
		Client: client,
		TTL:    time.Minute,
		Logger: &logger,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("initialise price cache")
		return
	}

	for _, p := range products {
		for _, v := range p.Variants {
			for _, r := range regions {
				if err := cache.InvalidateVariant(ctx, seedID("variant", v.Key), seedID("region", r.Key)); err != nil {
					logger.Warn().Err(err).Str("variant", v.Key).Msg("invalidate variant price")
				}
			}
		}
	}
	for _, a := range addOns {
		for _, r := range regions {
			if err := cache.InvalidateAddOn(ctx, seedID("addon", a.Key), seedID("region", r.Key)); err != nil {
				logger.Warn().Err(err).Str("add_on", a.Key).Msg("invalidate add-on price")
			}
		}
	}
	logger.Info().Msg("price cache invalidated")
}

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
