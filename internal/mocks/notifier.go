// Package mocks holds testify mocks for the order event collaborators.
package mocks

import (
	"context"

	"github.com/ariefcatur/storefront-orders/internal/orders"
	"github.com/stretchr/testify/mock"
)

type Notifier struct {
	mock.Mock
}

func (m *Notifier) OrderPlaced(ctx context.Context, o orders.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *Notifier) OrderStatusChanged(ctx context.Context, before, after orders.Order) error {
	args := m.Called(ctx, before, after)
	return args.Error(0)
}
