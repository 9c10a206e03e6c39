package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/toko-lineitem/internal/common"
	"github.com/noah-isme/toko-lineitem/internal/pricing"
)

// DBTX is the subset of pgxpool.Pool used by Store.
type DBTX interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store serves catalog lookups straight from Postgres.
type Store struct {
	db DBTX
}

// NewStore constructs a Postgres-backed Store.
func NewStore(db DBTX) *Store {
	return &Store{db: db}
}

// RetrieveVariant loads a single variant by id.
func (s *Store) RetrieveVariant(ctx context.Context, id string) (Variant, error) {
	if !validID(id) {
		return Variant{}, common.NotFound("variant", id)
	}
	query := `
		SELECT id, product_id, title, sku
		FROM product_variants
		WHERE id = $1`

	var v Variant
	err := s.db.QueryRow(ctx, query, id).Scan(&v.ID, &v.ProductID, &v.Title, &v.SKU)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Variant{}, common.NotFound("variant", id)
		}
		return Variant{}, fmt.Errorf("get variant: %w", err)
	}
	return v, nil
}

// VariantRegionPrice returns the variant price for the region in minor units.
func (s *Store) VariantRegionPrice(ctx context.Context, variantID, regionID string) (pricing.Money, error) {
	if !validID(variantID) || !validID(regionID) {
		return 0, common.NotFound("variant price", variantID+"/"+regionID)
	}
	query := `
		SELECT amount
		FROM variant_prices
		WHERE variant_id = $1 AND region_id = $2`

	var amount int64
	if err := s.db.QueryRow(ctx, query, variantID, regionID).Scan(&amount); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, common.NotFound("variant price", variantID+"/"+regionID)
		}
		return 0, fmt.Errorf("get variant price: %w", err)
	}
	return amount, nil
}

// RetrieveRegion loads a region by id.
func (s *Store) RetrieveRegion(ctx context.Context, id string) (Region, error) {
	if !validID(id) {
		return Region{}, common.NotFound("region", id)
	}
	query := `
		SELECT id, name, currency_code
		FROM regions
		WHERE id = $1`

	var r Region
	if err := s.db.QueryRow(ctx, query, id).Scan(&r.ID, &r.Name, &r.CurrencyCode); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Region{}, common.NotFound("region", id)
		}
		return Region{}, fmt.Errorf("get region: %w", err)
	}
	return r, nil
}

// ListProducts returns the products matching filter. An empty VariantID lists everything.
func (s *Store) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if filter.VariantID == "" {
		rows, err = s.db.Query(ctx, `
			SELECT id, title, description, thumbnail, is_giftcard
			FROM products
			ORDER BY created_at, id`)
	} else {
		if !validID(filter.VariantID) {
			return []Product{}, nil
		}
		rows, err = s.db.Query(ctx, `
			SELECT p.id, p.title, p.description, p.thumbnail, p.is_giftcard
			FROM products p
			JOIN product_variants v ON v.product_id = p.id
			WHERE v.id = $1
			ORDER BY p.created_at, p.id`, filter.VariantID)
	}
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.Thumbnail, &p.IsGiftcard); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// RetrieveAddOn loads an add-on together with the products it is valid for.
func (s *Store) RetrieveAddOn(ctx context.Context, id string) (AddOn, error) {
	if !validID(id) {
		return AddOn{}, common.NotFound("add-on", id)
	}
	query := `
		SELECT a.id, a.name,
			COALESCE(array_agg(ap.product_id::text ORDER BY ap.product_id) FILTER (WHERE ap.product_id IS NOT NULL), '{}')
		FROM add_ons a
		LEFT JOIN add_on_products ap ON ap.add_on_id = a.id
		WHERE a.id = $1
		GROUP BY a.id, a.name`

	var a AddOn
	if err := s.db.QueryRow(ctx, query, id).Scan(&a.ID, &a.Name, &a.ValidFor); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AddOn{}, common.NotFound("add-on", id)
		}
		return AddOn{}, fmt.Errorf("get add-on: %w", err)
	}
	return a, nil
}

// AddOnRegionPrice returns the add-on price for the region in minor units.
func (s *Store) AddOnRegionPrice(ctx context.Context, addOnID, regionID string) (pricing.Money, error) {
	if !validID(addOnID) || !validID(regionID) {
		return 0, common.NotFound("add-on price", addOnID+"/"+regionID)
	}
	query := `
		SELECT amount
		FROM add_on_prices
		WHERE add_on_id = $1 AND region_id = $2`

	var amount int64
	if err := s.db.QueryRow(ctx, query, addOnID, regionID).Scan(&amount); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, common.NotFound("add-on price", addOnID+"/"+regionID)
		}
		return 0, fmt.Errorf("get add-on price: %w", err)
	}
	return amount, nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
