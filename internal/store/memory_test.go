package store

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ariefcatur/storefront-orders/internal/apperr"
	"github.com/ariefcatur/storefront-orders/internal/catalog"
	"github.com/ariefcatur/storefront-orders/internal/orders"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func product(id string, stock int) catalog.Product {
	return catalog.Product{ID: id, SKU: "SKU-" + id, Name: "Product " + id, Price: decimal.NewFromInt(10), Stock: stock, Status: catalog.StatusActive}
}

func decrement(m *Memory, id string, qty int) error {
	return m.WithinTx(context.Background(), func(tx Tx) error {
		_, err := tx.DecrementStock(context.Background(), id, qty)
		return err
	})
}

func stockOf(t *testing.T, m *Memory, id string) int {
	t.Helper()
	p, err := m.Product(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func TestDecrementStockExact(t *testing.T) {
	m := NewMemory(product("p1", 5))

	require.NoError(t, decrement(m, "p1", 2))
	assert.Equal(t, 3, stockOf(t, m, "p1"))

	require.NoError(t, decrement(m, "p1", 3))
	assert.Equal(t, 0, stockOf(t, m, "p1"))
}

func TestDecrementStockRefusesAndKeepsStock(t *testing.T) {
	m := NewMemory(product("p1", 2))

	err := decrement(m, "p1", 3)
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
	var se *catalog.StockError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 2, se.Available)
	assert.Equal(t, 2, stockOf(t, m, "p1"))

	assert.ErrorIs(t, decrement(m, "missing", 1), apperr.ErrNotFound)
	assert.ErrorIs(t, decrement(m, "p1", 0), apperr.ErrInvalidQuantity)
}

func TestWithinTxRollsBackEveryWrite(t *testing.T) {
	m := NewMemory(product("p1", 5), product("p2", 5))
	boom := errors.New("boom")

	err := m.WithinTx(context.Background(), func(tx Tx) error {
		ctx := context.Background()
		if _, err := tx.DecrementStock(ctx, "p1", 2); err != nil {
			return err
		}
		if _, err := tx.DecrementStock(ctx, "p2", 4); err != nil {
			return err
		}
		if err := tx.InsertOrder(ctx, &orders.Order{ID: "o1", UserID: "u1"}); err != nil {
			return err
		}
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 5, stockOf(t, m, "p1"))
	assert.Equal(t, 5, stockOf(t, m, "p2"))
	_, err = m.Order(context.Background(), "o1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestConcurrentDecrementsNeverOversell(t *testing.T) {
	const stock, buyers = 10, 50
	m := NewMemory(product("p1", stock))

	var ok, refused atomic.Int32
	var g errgroup.Group
	for i := 0; i < buyers; i++ {
		g.Go(func() error {
			err := decrement(m, "p1", 1)
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, apperr.ErrInsufficientStock):
				refused.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.EqualValues(t, stock, ok.Load())
	assert.EqualValues(t, buyers-stock, refused.Load())
	assert.Equal(t, 0, stockOf(t, m, "p1"))
}

func TestOrdersListingAndUpdate(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, m.WithinTx(ctx, func(tx Tx) error {
		for i, uid := range []string{"u1", "u2", "u1"} {
			o := &orders.Order{ID: string(rune('a' + i)), UserID: uid, CreatedAt: base.Add(time.Duration(i) * time.Minute),
				PaymentStatus: orders.PaymentPending, OrderStatus: orders.StatusPending}
			if err := tx.InsertOrder(ctx, o); err != nil {
				return err
			}
		}
		return nil
	}))

	all, err := m.ListOrders(ctx, orders.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID, "newest first")

	mine, err := m.ListOrders(ctx, orders.Filter{UserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	require.NoError(t, m.WithinTx(ctx, func(tx Tx) error {
		o, err := tx.GetOrderForUpdate(ctx, "b")
		if err != nil {
			return err
		}
		o.PaymentStatus = orders.PaymentPaid
		return tx.UpdateOrderStatus(ctx, o)
	}))
	got, err := m.Order(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, orders.PaymentPaid, got.PaymentStatus)
}

func TestWithinTxHonoursCancelledContext(t *testing.T) {
	m := NewMemory(product("p1", 1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := m.WithinTx(ctx, func(Tx) error { called = true; return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestListProductsSkipsInactive(t *testing.T) {
	off := product("p0", 1)
	off.Status = catalog.StatusInactive
	m := NewMemory(product("p2", 1), off, product("p1", 1))

	ps, err := m.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, "p1", ps[0].ID)
}
