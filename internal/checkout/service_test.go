package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/storefront-orders/internal/apperr"
	"github.com/ariefcatur/storefront-orders/internal/auth"
	"github.com/ariefcatur/storefront-orders/internal/catalog"
	"github.com/ariefcatur/storefront-orders/internal/mocks"
	"github.com/ariefcatur/storefront-orders/internal/orders"
	"github.com/ariefcatur/storefront-orders/internal/store"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	alice = auth.Identity{UserID: "u1", Role: auth.RoleCustomer}
	bob   = auth.Identity{UserID: "u2", Role: auth.RoleCustomer}
	fixed = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
)

func product(id string, price, discount int64, stock int) catalog.Product {
	return catalog.Product{
		ID:       id,
		SKU:      "SKU-" + id,
		Name:     "Product " + id,
		Price:    decimal.NewFromInt(price),
		Discount: decimal.NewFromInt(discount),
		Stock:    stock,
		Status:   catalog.StatusActive,
	}
}

func input(lines ...LineRequest) PlaceOrderInput {
	return PlaceOrderInput{
		Lines: lines,
		ShippingAddress: orders.ShippingAddress{
			Region: "Addis Ababa", City: "Addis Ababa", SubCity: "Bole", Street: "Africa Ave", HouseNumber: "12",
		},
		BankUsed: orders.BankAccount{Name: "CBE", AccountNumber: "1000123"},
	}
}

func newService(st store.Store, n Notifier) *Service {
	s := New(st, n, zerolog.Nop())
	s.Now = func() time.Time { return fixed }
	s.NewID = func() string { return "ord-1" }
	return s
}

func stock(t *testing.T, st store.Store, id string) int {
	t.Helper()
	p, err := st.Product(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func TestPlaceOrderEndToEnd(t *testing.T) {
	st := store.NewMemory(product("p1", 100, 20, 5))
	n := new(mocks.Notifier)
	n.On("OrderPlaced", mock.Anything, mock.MatchedBy(func(o orders.Order) bool { return o.ID == "ord-1" })).Return(nil).Once()

	o, err := newService(st, n).PlaceOrder(context.Background(), alice, input(LineRequest{ProductID: "p1", Quantity: 2}))
	require.NoError(t, err)

	require.Len(t, o.Lines, 1)
	assert.True(t, o.Lines[0].UnitPrice.Equal(decimal.NewFromInt(80)))
	assert.True(t, o.Lines[0].Subtotal.Equal(decimal.NewFromInt(160)))
	assert.True(t, o.TotalAmount.Equal(decimal.NewFromInt(160)))
	assert.True(t, o.ShippingFee.IsZero())
	assert.True(t, o.GrandTotal.Equal(decimal.NewFromInt(160)))
	assert.Equal(t, orders.PaymentPending, o.PaymentStatus)
	assert.Equal(t, orders.StatusPending, o.OrderStatus)
	assert.Equal(t, "u1", o.UserID)
	assert.Equal(t, orders.PaymentMethodBankTransfer, o.PaymentMethod)
	assert.Equal(t, fixed, o.CreatedAt)
	assert.Equal(t, 3, stock(t, st, "p1"))

	saved, err := st.Order(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.True(t, saved.GrandTotal.Equal(o.GrandTotal))
	n.AssertExpectations(t)
}

func TestPlaceOrderKeepsCartOrderAndFee(t *testing.T) {
	st := store.NewMemory(product("p1", 10, 0, 10), product("p2", 25, 5, 10))
	in := input(LineRequest{ProductID: "p2", Quantity: 3}, LineRequest{ProductID: "p1", Quantity: 1})
	in.ShippingFee = decimal.NewFromInt(7)

	o, err := newService(st, nil).PlaceOrder(context.Background(), alice, in)
	require.NoError(t, err)

	require.Len(t, o.Lines, 2)
	assert.Equal(t, "p2", o.Lines[0].ProductID)
	assert.Equal(t, "p1", o.Lines[1].ProductID)
	assert.True(t, o.TotalAmount.Equal(decimal.NewFromInt(70)))
	assert.True(t, o.GrandTotal.Equal(decimal.NewFromInt(77)))
}

func TestPlaceOrderRejectsBeforeTouchingStock(t *testing.T) {
	cases := []struct {
		name string
		in   func() PlaceOrderInput
		want error
	}{
		{"empty cart", func() PlaceOrderInput { return input() }, apperr.ErrEmptyCart},
		{"zero quantity", func() PlaceOrderInput { return input(LineRequest{ProductID: "p1", Quantity: 0}) }, apperr.ErrInvalidQuantity},
		{"negative fee", func() PlaceOrderInput {
			in := input(LineRequest{ProductID: "p1", Quantity: 1})
			in.ShippingFee = decimal.NewFromInt(-1)
			return in
		}, apperr.ErrValidation},
		{"missing address", func() PlaceOrderInput {
			in := input(LineRequest{ProductID: "p1", Quantity: 1})
			in.ShippingAddress.Street = ""
			return in
		}, apperr.ErrValidation},
		{"missing bank", func() PlaceOrderInput {
			in := input(LineRequest{ProductID: "p1", Quantity: 1})
			in.BankUsed = orders.BankAccount{}
			return in
		}, apperr.ErrValidation},
		{"unknown product", func() PlaceOrderInput { return input(LineRequest{ProductID: "nope", Quantity: 1}) }, apperr.ErrNotFound},
		{"too many", func() PlaceOrderInput { return input(LineRequest{ProductID: "p1", Quantity: 6}) }, apperr.ErrInsufficientStock},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := store.NewMemory(product("p1", 100, 20, 5))
			n := new(mocks.Notifier)

			_, err := newService(st, n).PlaceOrder(context.Background(), alice, tc.in())
			assert.ErrorIs(t, err, tc.want)

			assert.Equal(t, 5, stock(t, st, "p1"))
			all, err := st.ListOrders(context.Background(), orders.Filter{})
			require.NoError(t, err)
			assert.Empty(t, all)
			n.AssertNotCalled(t, "OrderPlaced", mock.Anything, mock.Anything)
		})
	}
}

func TestPlaceOrderStockErrorNamesProduct(t *testing.T) {
	st := store.NewMemory(product("p1", 100, 0, 1))
	_, err := newService(st, nil).PlaceOrder(context.Background(), alice, input(LineRequest{ProductID: "p1", Quantity: 2}))

	var se *catalog.StockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Product p1", se.Name)
	assert.Equal(t, 1, se.Available)
}

func TestPlaceOrderRollsBackEarlierLines(t *testing.T) {
	st := store.NewMemory(product("p1", 10, 0, 5), product("p2", 10, 0, 1))

	_, err := newService(st, nil).PlaceOrder(context.Background(), alice,
		input(LineRequest{ProductID: "p1", Quantity: 2}, LineRequest{ProductID: "p2", Quantity: 2}))
	require.ErrorIs(t, err, apperr.ErrInsufficientStock)

	assert.Equal(t, 5, stock(t, st, "p1"))
	assert.Equal(t, 1, stock(t, st, "p2"))
}

func TestPlaceOrderRejectsInactiveProduct(t *testing.T) {
	p := product("p1", 10, 0, 5)
	p.Status = catalog.StatusInactive
	st := store.NewMemory(p)

	_, err := newService(st, nil).PlaceOrder(context.Background(), alice, input(LineRequest{ProductID: "p1", Quantity: 1}))
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, 5, stock(t, st, "p1"))
}

func TestPlaceOrderRejectsBrokenPricing(t *testing.T) {
	st := store.NewMemory(product("p1", 10, 20, 5))

	_, err := newService(st, nil).PlaceOrder(context.Background(), alice, input(LineRequest{ProductID: "p1", Quantity: 1}))
	assert.Error(t, err)
	assert.False(t, apperr.IsDomain(err))
	assert.Equal(t, 5, stock(t, st, "p1"))
}

func TestPlaceOrderRequiresIdentity(t *testing.T) {
	st := store.NewMemory(product("p1", 10, 0, 5))
	_, err := newService(st, nil).PlaceOrder(context.Background(), auth.Identity{}, input(LineRequest{ProductID: "p1", Quantity: 1}))
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestPlaceOrderNotifierFailureDoesNotFailCheckout(t *testing.T) {
	st := store.NewMemory(product("p1", 10, 0, 5))
	n := new(mocks.Notifier)
	n.On("OrderPlaced", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	o, err := newService(st, n).PlaceOrder(context.Background(), alice, input(LineRequest{ProductID: "p1", Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, "ord-1", o.ID)
	assert.Equal(t, 4, stock(t, st, "p1"))
}

func TestLastUnitRace(t *testing.T) {
	for round := 0; round < 20; round++ {
		st := store.NewMemory(product("p1", 10, 0, 1))
		s := New(st, nil, zerolog.Nop())

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i, who := range []auth.Identity{alice, bob} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = s.PlaceOrder(context.Background(), who, input(LineRequest{ProductID: "p1", Quantity: 1}))
			}()
		}
		wg.Wait()

		var ok, short int
		for _, err := range errs {
			switch {
			case err == nil:
				ok++
			case errors.Is(err, apperr.ErrInsufficientStock):
				short++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, ok)
		assert.Equal(t, 1, short)
		assert.Equal(t, 0, stock(t, st, "p1"))

		all, err := st.ListOrders(context.Background(), orders.Filter{})
		require.NoError(t, err)
		assert.Len(t, all, 1)
	}
}
