package lineitem

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/toko-lineitem/internal/catalog"
	"github.com/noah-isme/toko-lineitem/internal/common"
	"github.com/noah-isme/toko-lineitem/internal/obs"
	"github.com/noah-isme/toko-lineitem/internal/pricing"
)

// DefaultAddOnConcurrency bounds the add-on fan-out when no limit is configured.
const DefaultAddOnConcurrency = 8

// VariantService looks up variants and their region prices.
type VariantService interface {
	RetrieveVariant(ctx context.Context, id string) (catalog.Variant, error)
	VariantRegionPrice(ctx context.Context, variantID, regionID string) (pricing.Money, error)
}

// RegionService looks up regions.
type RegionService interface {
	RetrieveRegion(ctx context.Context, id string) (catalog.Region, error)
}

// ProductService lists products.
type ProductService interface {
	ListProducts(ctx context.Context, filter catalog.ProductFilter) ([]catalog.Product, error)
}

// AddOnService looks up add-ons and their region prices.
type AddOnService interface {
	RetrieveAddOn(ctx context.Context, id string) (catalog.AddOn, error)
	AddOnRegionPrice(ctx context.Context, addOnID, regionID string) (pricing.Money, error)
}

// Generator composes priced line items from catalog lookups.
type Generator struct {
	variants    VariantService
	regions     RegionService
	products    ProductService
	addOns      AddOnService
	concurrency int
	logger      zerolog.Logger
}

// GeneratorConfig groups Generator dependencies.
type GeneratorConfig struct {
	Variants         VariantService
	Regions          RegionService
	Products         ProductService
	AddOns           AddOnService
	AddOnConcurrency int
	Logger           *zerolog.Logger
}

// NewGenerator constructs a Generator.
func NewGenerator(cfg GeneratorConfig) (*Generator, error) {
	switch {
	case cfg.Variants == nil:
		return nil, errors.New("lineitem: variant service is required")
	case cfg.Regions == nil:
		return nil, errors.New("lineitem: region service is required")
	case cfg.Products == nil:
		return nil, errors.New("lineitem: product service is required")
	case cfg.AddOns == nil:
		return nil, errors.New("lineitem: add-on service is required")
	}
	concurrency := cfg.AddOnConcurrency
	if concurrency < 1 {
		concurrency = DefaultAddOnConcurrency
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	return &Generator{
		variants:    cfg.Variants,
		regions:     cfg.Regions,
		products:    cfg.Products,
		addOns:      cfg.AddOns,
		concurrency: concurrency,
		logger:      logger,
	}, nil
}

// Generate builds the line item for quantity units of a variant priced in a region,
// with the selected add-ons folded into the unit price. The returned content has
// quantity 1 and a unit price already multiplied by quantity.
func (g *Generator) Generate(ctx context.Context, variantID, regionID string, quantity int, addOnIDs []string) (LineItem, error) {
	ctx, span := otel.Tracer("lineitem.Generator").Start(ctx, "lineitem.generate")
	defer span.End()

	start := time.Now()
	result := "error"
	defer func() {
		span.SetAttributes(
			attribute.String("lineitem.variant_id", variantID),
			attribute.String("lineitem.region_id", regionID),
			attribute.Int("lineitem.quantity", quantity),
			attribute.Int("lineitem.add_ons", len(addOnIDs)),
			attribute.String("lineitem.result", result),
		)
		if obs.LineItemGenerateTotal != nil {
			obs.LineItemGenerateTotal.WithLabelValues(result).Inc()
		}
		if obs.LineItemGenerateLatency != nil {
			obs.LineItemGenerateLatency.Observe(obs.DurationMillis(time.Since(start)))
		}
	}()

	item, err := g.generate(ctx, variantID, regionID, quantity, addOnIDs)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidData):
			result = "invalid"
		case errors.Is(err, common.ErrNotFound):
			result = "not_found"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.logger.Debug().Err(err).
			Str("variant_id", variantID).
			Str("region_id", regionID).
			Msg("line item generation failed")
		return LineItem{}, err
	}
	result = "ok"
	if obs.LineItemAddOns != nil {
		obs.LineItemAddOns.Observe(float64(len(addOnIDs)))
	}
	return item, nil
}

func (g *Generator) generate(ctx context.Context, variantID, regionID string, quantity int, addOnIDs []string) (LineItem, error) {
	if quantity < 1 {
		return LineItem{}, common.InvalidDataf("quantity must be a positive integer, got %d", quantity)
	}

	variant, err := g.variants.RetrieveVariant(ctx, variantID)
	if err != nil {
		return LineItem{}, fmt.Errorf("retrieve variant: %w", err)
	}
	region, err := g.regions.RetrieveRegion(ctx, regionID)
	if err != nil {
		return LineItem{}, fmt.Errorf("retrieve region: %w", err)
	}
	products, err := g.products.ListProducts(ctx, catalog.ProductFilter{VariantID: variant.ID})
	if err != nil {
		return LineItem{}, fmt.Errorf("list products: %w", err)
	}
	// Every variant belongs to a product; an empty result means the catalog is inconsistent.
	if len(products) == 0 {
		return LineItem{}, common.InvalidDataf("no product found for variant %s", variant.ID)
	}
	product := products[0]

	base, err := g.variants.VariantRegionPrice(ctx, variant.ID, region.ID)
	if err != nil {
		return LineItem{}, fmt.Errorf("variant region price: %w", err)
	}
	addOnPrices, err := g.addOnPrices(ctx, product, region.ID, addOnIDs)
	if err != nil {
		return LineItem{}, err
	}
	unitPrice, err := pricing.LineUnitPrice(base, addOnPrices, quantity)
	if err != nil {
		return LineItem{}, common.InvalidDataf("unit price for variant %s overflows at quantity %d", variant.ID, quantity)
	}

	selected := make([]string, len(addOnIDs))
	copy(selected, addOnIDs)

	description := variant.Title
	isGiftcard := product.IsGiftcard
	item := LineItem{
		Title:       product.Title,
		IsGiftcard:  &isGiftcard,
		Description: &description,
		Thumbnail:   product.Thumbnail,
		Content: Single(Content{
			UnitPrice: unitPrice,
			Variant:   &variant,
			Product:   &product,
			Quantity:  1,
		}),
		Quantity: quantity,
		Metadata: map[string]any{"add_ons": selected},
	}

	g.logger.Debug().
		Str("variant_id", variant.ID).
		Str("region_id", region.ID).
		Int("add_ons", len(addOnIDs)).
		Int64("unit_price", unitPrice).
		Msg("line item generated")
	return item, nil
}

// addOnPrices resolves every add-on concurrently, checking each one is allowed on
// product. The first failure cancels the remaining lookups.
func (g *Generator) addOnPrices(ctx context.Context, product catalog.Product, regionID string, addOnIDs []string) ([]pricing.Money, error) {
	prices := make([]pricing.Money, len(addOnIDs))
	if len(addOnIDs) == 0 {
		return prices, nil
	}

	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(g.concurrency)
	for i, id := range addOnIDs {
		grp.Go(func() error {
			addOn, err := g.addOns.RetrieveAddOn(gctx, id)
			if err != nil {
				return fmt.Errorf("retrieve add-on %s: %w", id, err)
			}
			if !addOn.IsValidFor(product.ID) {
				return common.InvalidDataf("add-on %s (%s) is not valid for product %s (%s)", addOn.Name, addOn.ID, product.Title, product.ID)
			}
			price, err := g.addOns.AddOnRegionPrice(gctx, addOn.ID, regionID)
			if err != nil {
				return fmt.Errorf("add-on %s region price: %w", id, err)
			}
			prices[i] = price
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return prices, nil
}
