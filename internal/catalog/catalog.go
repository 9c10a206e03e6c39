package catalog

import (
	"context"

	"github.com/noah-isme/toko-lineitem/internal/pricing"
)

// Catalog serves record lookups from the Store and region prices from Prices,
// typically a PriceCache in front of the same Store.
type Catalog struct {
	*Store
	Prices PriceSource
}

// VariantRegionPrice routes price lookups through Prices.
func (c Catalog) VariantRegionPrice(ctx context.Context, variantID, regionID string) (pricing.Money, error) {
	if c.Prices == nil {
		return c.Store.VariantRegionPrice(ctx, variantID, regionID)
	}
	return c.Prices.VariantRegionPrice(ctx, variantID, regionID)
}

// AddOnRegionPrice routes price lookups through Prices.
func (c Catalog) AddOnRegionPrice(ctx context.Context, addOnID, regionID string) (pricing.Money, error) {
	if c.Prices == nil {
		return c.Store.AddOnRegionPrice(ctx, addOnID, regionID)
	}
	return c.Prices.AddOnRegionPrice(ctx, addOnID, regionID)
}
