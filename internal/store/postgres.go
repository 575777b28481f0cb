package store

import (
	"context"

	"github.com/ariefcatur/storefront-orders/internal/catalog"
	"github.com/ariefcatur/storefront-orders/internal/orders"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Postgres struct{ DB *pgxpool.Pool }

type pgTx struct {
	*catalog.Repo
	ord *orders.Repo
}

func (t pgTx) InsertOrder(ctx context.Context, o *orders.Order) error { return t.ord.Insert(ctx, o) }

func (t pgTx) GetOrderForUpdate(ctx context.Context, id string) (orders.Order, error) {
	return t.ord.GetForUpdate(ctx, id)
}

func (t pgTx) UpdateOrderStatus(ctx context.Context, o orders.Order) error {
	return t.ord.UpdateStatus(ctx, o)
}

func (s *Postgres) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(pgTx{Repo: &catalog.Repo{DB: tx}, ord: &orders.Repo{DB: tx}}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Postgres) Product(ctx context.Context, id string) (catalog.Product, error) {
	return (&catalog.Repo{DB: s.DB}).Get(ctx, id)
}

func (s *Postgres) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	return (&catalog.Repo{DB: s.DB}).List(ctx)
}

func (s *Postgres) Order(ctx context.Context, id string) (orders.Order, error) {
	return (&orders.Repo{DB: s.DB}).Get(ctx, id)
}

func (s *Postgres) ListOrders(ctx context.Context, f orders.Filter) ([]orders.Order, error) {
	return (&orders.Repo{DB: s.DB}).List(ctx, f)
}
