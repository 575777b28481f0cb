package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ariefcatur/storefront-orders/internal/apperr"
	"github.com/ariefcatur/storefront-orders/internal/catalog"
	"github.com/ariefcatur/storefront-orders/internal/orders"
)

// Memory keeps everything in process. Transactions hold a store-wide lock
// and undo their writes on failure, so they are serializable.
type Memory struct {
	mu       sync.Mutex
	products map[string]catalog.Product
	orders   map[string]orders.Order
}

func NewMemory(products ...catalog.Product) *Memory {
	m := &Memory{
		products: make(map[string]catalog.Product, len(products)),
		orders:   make(map[string]orders.Order),
	}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

// PutProduct inserts or replaces a product.
func (m *Memory) PutProduct(p catalog.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
}

func (m *Memory) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{m: m}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

func (m *Memory) Product(_ context.Context, id string) (catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.product(id)
}

func (m *Memory) product(id string) (catalog.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return catalog.Product{}, fmt.Errorf("%w: product %s", apperr.ErrNotFound, id)
	}
	return p, nil
}

func (m *Memory) ListProducts(_ context.Context) ([]catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []catalog.Product{}
	for _, p := range m.products {
		if p.Active() {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

func (m *Memory) Order(_ context.Context, id string) (orders.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order(id)
}

func (m *Memory) order(id string) (orders.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return orders.Order{}, fmt.Errorf("%w: order %s", apperr.ErrNotFound, id)
	}
	return cloneOrder(o), nil
}

func (m *Memory) ListOrders(_ context.Context, f orders.Filter) ([]orders.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []orders.Order{}
	for _, o := range m.orders {
		if f.UserID == "" || o.UserID == f.UserID {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func cloneOrder(o orders.Order) orders.Order {
	o.Lines = append([]orders.Line(nil), o.Lines...)
	return o
}

// memTx runs with m.mu held.
type memTx struct {
	m    *Memory
	undo []func()
}

func (t *memTx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
}

func (t *memTx) Get(_ context.Context, id string) (catalog.Product, error) {
	return t.m.product(id)
}

func (t *memTx) DecrementStock(_ context.Context, id string, qty int) (catalog.Product, error) {
	p, err := t.m.product(id)
	if err != nil {
		return catalog.Product{}, err
	}
	if err := catalog.CheckDecrement(p, qty); err != nil {
		return catalog.Product{}, err
	}
	prev := p
	p.Stock -= qty
	t.m.products[id] = p
	t.undo = append(t.undo, func() { t.m.products[id] = prev })
	return p, nil
}

func (t *memTx) InsertOrder(_ context.Context, o *orders.Order) error {
	if _, exists := t.m.orders[o.ID]; exists {
		return fmt.Errorf("%w: order %s already exists", apperr.ErrConflict, o.ID)
	}
	t.m.orders[o.ID] = cloneOrder(*o)
	id := o.ID
	t.undo = append(t.undo, func() { delete(t.m.orders, id) })
	return nil
}

func (t *memTx) GetOrderForUpdate(_ context.Context, id string) (orders.Order, error) {
	return t.m.order(id)
}

func (t *memTx) UpdateOrderStatus(_ context.Context, o orders.Order) error {
	prev, ok := t.m.orders[o.ID]
	if !ok {
		return fmt.Errorf("%w: order %s", apperr.ErrNotFound, o.ID)
	}
	cur := prev
	cur.PaymentStatus, cur.OrderStatus, cur.UpdatedAt = o.PaymentStatus, o.OrderStatus, o.UpdatedAt
	t.m.orders[o.ID] = cur
	t.undo = append(t.undo, func() { t.m.orders[o.ID] = prev })
	return nil
}
