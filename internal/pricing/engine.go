package pricing

import (
	"errors"
	"math"
)

// Money represents a monetary value stored in minor units.
type Money = int64

// ErrOverflow is returned when an amount does not fit in Money.
var ErrOverflow = errors.New("pricing: amount overflows")

// Sum adds up the provided amounts.
func Sum(amounts []Money) (Money, error) {
	var total Money
	for _, amount := range amounts {
		next, ok := add(total, amount)
		if !ok {
			return 0, ErrOverflow
		}
		total = next
	}
	return total, nil
}

// LineUnitPrice returns the unit price stored on a generated line item content:
// the base variant price plus every add-on price, multiplied by the line quantity.
func LineUnitPrice(base Money, addOns []Money, qty int) (Money, error) {
	if qty <= 0 {
		return 0, nil
	}
	extra, err := Sum(addOns)
	if err != nil {
		return 0, err
	}
	unit, ok := add(base, extra)
	if !ok {
		return 0, ErrOverflow
	}
	total, ok := mul(unit, Money(qty))
	if !ok {
		return 0, ErrOverflow
	}
	return total, nil
}

func add(a, b Money) (Money, bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}
	return a + b, true
}

// mul expects n > 0.
func mul(a, n Money) (Money, bool) {
	if a > math.MaxInt64/n || a < math.MinInt64/n {
		return 0, false
	}
	return a * n, true
}
