// Package store provides the transactional unit of work used by checkout and
// fulfillment, with a Postgres driver and an in-memory driver.
package store

import (
	"context"

	"github.com/ariefcatur/storefront-orders/internal/catalog"
	"github.com/ariefcatur/storefront-orders/internal/orders"
)

// Tx is everything that must commit or roll back together.
type Tx interface {
	catalog.Ledger
	InsertOrder(ctx context.Context, o *orders.Order) error
	GetOrderForUpdate(ctx context.Context, id string) (orders.Order, error)
	UpdateOrderStatus(ctx context.Context, o orders.Order) error
}

type Store interface {
	// WithinTx commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	Product(ctx context.Context, id string) (catalog.Product, error)
	ListProducts(ctx context.Context) ([]catalog.Product, error)
	Order(ctx context.Context, id string) (orders.Order, error)
	ListOrders(ctx context.Context, f orders.Filter) ([]orders.Order, error)
}
