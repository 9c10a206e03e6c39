package catalog

import (
	"context"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-lineitem/internal/pricing"
)

type fixedPrices struct {
	amount pricing.Money
	calls  int
}

func (f *fixedPrices) VariantRegionPrice(context.Context, string, string) (pricing.Money, error) {
	f.calls++
	return f.amount, nil
}

func (f *fixedPrices) AddOnRegionPrice(context.Context, string, string) (pricing.Money, error) {
	f.calls++
	return f.amount, nil
}

func TestCatalogRoutesPricesThroughSource(t *testing.T) {
	store, mock := setupStore(t)
	prices := &fixedPrices{amount: 77}
	cat := Catalog{Store: store, Prices: prices}

	amount, err := cat.VariantRegionPrice(context.Background(), testVariantID, testRegionID)
	require.NoError(t, err)
	assert.Equal(t, pricing.Money(77), amount)
	amount, err = cat.AddOnRegionPrice(context.Background(), testAddOnID, testRegionID)
	require.NoError(t, err)
	assert.Equal(t, pricing.Money(77), amount)
	assert.Equal(t, 2, prices.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogFallsBackToStore(t *testing.T) {
	store, mock := setupStore(t)
	cat := Catalog{Store: store}

	mock.ExpectQuery("SELECT amount FROM variant_prices WHERE").
		WithArgs(testVariantID, testRegionID).
		WillReturnRows(pgxmock.NewRows([]string{"amount"}).AddRow(int64(12500)))

	amount, err := cat.VariantRegionPrice(context.Background(), testVariantID, testRegionID)
	require.NoError(t, err)
	assert.Equal(t, pricing.Money(12500), amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
