// Package pricing computes authoritative prices from product snapshots.
// Every amount is a decimal; no float arithmetic touches money.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/ariefcatur/storefront-orders/internal/apperr"
	"github.com/ariefcatur/storefront-orders/internal/catalog"
	"github.com/shopspring/decimal"
)

// ErrInvalidPricing marks catalog data that would price below zero.
var ErrInvalidPricing = errors.New("invalid product pricing")

func init() {
	// amounts go over the wire as JSON numbers, not strings
	decimal.MarshalJSONWithoutQuotes = true
}

// EffectiveUnitPrice is price minus discount when a discount is set.
func EffectiveUnitPrice(p catalog.Product) (decimal.Decimal, error) {
	if p.Price.IsNegative() || p.Discount.IsNegative() || p.Discount.GreaterThan(p.Price) {
		return decimal.Zero, fmt.Errorf("%w: product %s price=%s discount=%s", ErrInvalidPricing, p.ID, p.Price, p.Discount)
	}
	if p.Discount.IsPositive() {
		return p.Price.Sub(p.Discount), nil
	}
	return p.Price, nil
}

// LineSubtotal returns the unit price used and unit × qty.
func LineSubtotal(p catalog.Product, qty int) (unit, subtotal decimal.Decimal, err error) {
	if err := ValidateQuantity(qty); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	unit, err = EffectiveUnitPrice(p)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return unit, unit.Mul(decimal.NewFromInt(int64(qty))), nil
}

// MaxQuantity matches the INTEGER stock column.
const MaxQuantity = math.MaxInt32

func ValidateQuantity(qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: quantity must be a positive integer, got %d", apperr.ErrInvalidQuantity, qty)
	}
	if qty > MaxQuantity {
		return fmt.Errorf("%w: quantity %d exceeds %d", apperr.ErrInvalidQuantity, qty, MaxQuantity)
	}
	return nil
}

// ParseQuantity accepts the raw JSON number of a cart line. Fractions,
// exponents and non-positive values are rejected.
func ParseQuantity(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: quantity must be a positive integer, got %q", apperr.ErrInvalidQuantity, raw)
	}
	return n, ValidateQuantity(n)
}

func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

func GrandTotal(total, shippingFee decimal.Decimal) decimal.Decimal {
	return total.Add(shippingFee)
}
