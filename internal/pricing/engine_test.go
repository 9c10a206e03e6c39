package pricing

import (
	"errors"
	"math"
	"testing"
)

func TestLineUnitPriceWithoutAddOns(t *testing.T) {
	got, err := LineUnitPrice(249_000, nil, 3)
	if err != nil || got != 747_000 {
		t.Fatalf("expected 747000, got %d (%v)", got, err)
	}
}

func TestLineUnitPriceSumsAddOnsBeforeMultiplying(t *testing.T) {
	got, err := LineUnitPrice(10, []Money{2, 3}, 2)
	if err != nil || got != 30 {
		t.Fatalf("expected 30, got %d (%v)", got, err)
	}
}

func TestLineUnitPriceNonPositiveQty(t *testing.T) {
	got, err := LineUnitPrice(10, []Money{5}, 0)
	if err != nil || got != 0 {
		t.Fatalf("expected 0 for zero qty, got %d (%v)", got, err)
	}
}

func TestLineUnitPriceOverflow(t *testing.T) {
	cases := []struct {
		name   string
		base   Money
		addOns []Money
		qty    int
	}{
		{name: "quantity", base: 1_000_000, qty: 1 << 50},
		{name: "add-on sum", base: 1, addOns: []Money{math.MaxInt64, 1}, qty: 1},
		{name: "base plus add-ons", base: math.MaxInt64, addOns: []Money{1}, qty: 1},
		{name: "negative", base: math.MinInt64 / 2, qty: 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LineUnitPrice(tc.base, tc.addOns, tc.qty); !errors.Is(err, ErrOverflow) {
				t.Fatalf("expected ErrOverflow, got %v", err)
			}
		})
	}

	got, err := LineUnitPrice(math.MaxInt64/2, nil, 2)
	if err != nil || got != math.MaxInt64-1 {
		t.Fatalf("expected %d at the boundary, got %d (%v)", Money(math.MaxInt64-1), got, err)
	}
}

func TestSum(t *testing.T) {
	if got, err := Sum([]Money{1, 2, 3, -1}); err != nil || got != 5 {
		t.Fatalf("expected 5, got %d (%v)", got, err)
	}
	if got, err := Sum(nil); err != nil || got != 0 {
		t.Fatalf("expected 0, got %d (%v)", got, err)
	}
	if _, err := Sum([]Money{math.MinInt64, -1}); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}
