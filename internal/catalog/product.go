// Package catalog is the product ledger: product snapshots and the only
// path that mutates stock.
package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/ariefcatur/storefront-orders/internal/apperr"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

type Product struct {
	ID          string          `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Discount    decimal.Decimal `json:"discount"`
	Stock       int             `json:"stock"`
	Status      Status          `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (p Product) Active() bool { return p.Status != StatusInactive }

// Ledger is the read + reserve contract checkout depends on.
type Ledger interface {
	Get(ctx context.Context, productID string) (Product, error)
	// DecrementStock removes qty units in one atomic step, or fails with
	// *StockError and leaves stock untouched.
	DecrementStock(ctx context.Context, productID string, qty int) (Product, error)
}

// StockError reports a refused decrement.
type StockError struct {
	ProductID string
	Name      string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	name := e.Name
	if name == "" {
		name = e.ProductID
	}
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", name, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error { return apperr.ErrInsufficientStock }

func notFound(id string) error {
	return fmt.Errorf("%w: product %s", apperr.ErrNotFound, id)
}

func invalidQty(qty int) error {
	return fmt.Errorf("%w: %d", apperr.ErrInvalidQuantity, qty)
}

// CheckDecrement is the shared guard used by every ledger implementation.
func CheckDecrement(p Product, qty int) error {
	if qty <= 0 {
		return invalidQty(qty)
	}
	if p.Stock < qty {
		return &StockError{ProductID: p.ID, Name: p.Name, Requested: qty, Available: p.Stock}
	}
	return nil
}
