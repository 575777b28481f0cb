// Package fulfillment owns everything after checkout: admin status updates
// and the read side of orders, guarded by the access gate.
package fulfillment

import (
	"context"
	"time"

	"github.com/ariefcatur/storefront-orders/internal/auth"
	"github.com/ariefcatur/storefront-orders/internal/orders"
	"github.com/ariefcatur/storefront-orders/internal/store"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Cache is a read-through cache of full orders. A miss is (zero, false, nil).
// Set must keep whichever copy has the later UpdatedAt.
type Cache interface {
	Get(ctx context.Context, id string) (orders.Order, bool, error)
	Set(ctx context.Context, o orders.Order) error
	Invalidate(ctx context.Context, id string) error
}

// StatusSource serves the projected status view, if one exists.
type StatusSource interface {
	Status(ctx context.Context, id string) (orders.StatusView, bool, error)
}

type Notifier interface {
	OrderStatusChanged(ctx context.Context, before, after orders.Order) error
}

type Service struct {
	Store    store.Store
	Cache    Cache
	Statuses StatusSource
	Notifier Notifier
	Policy   orders.TransitionPolicy
	Log      zerolog.Logger
	Now      func() time.Time

	sf singleflight.Group
}

func New(st store.Store, policy orders.TransitionPolicy, log zerolog.Logger) *Service {
	return &Service{Store: st, Policy: policy, Log: log}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// UpdateOrder applies an admin status change under a row lock. Lines and
// totals are never touched; cancelling does not return stock.
func (s *Service) UpdateOrder(ctx context.Context, caller auth.Identity, orderID string, u orders.StatusUpdate) (*orders.Order, error) {
	if err := auth.Authorize(caller, "", auth.RoleAdmin); err != nil {
		return nil, err
	}

	var before, after orders.Order
	err := s.Store.WithinTx(ctx, func(tx store.Tx) error {
		o, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		before = o
		if err := o.Apply(u, s.Policy, s.now()); err != nil {
			return err
		}
		if err := tx.UpdateOrderStatus(ctx, o); err != nil {
			return err
		}
		after = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.refresh(ctx, after)
	s.Log.Info().
		Str("order_id", orderID).
		Str("admin_id", caller.UserID).
		Str("payment_status", string(after.PaymentStatus)).
		Str("order_status", string(after.OrderStatus)).
		Msg("order status updated")

	if s.Notifier != nil {
		if err := s.Notifier.OrderStatusChanged(ctx, before, after); err != nil {
			s.Log.Error().Err(err).Str("order_id", orderID).Msg("publish OrderStatusChanged")
		}
	}
	return &after, nil
}

// ListOrders gives admins every order and everyone else their own.
func (s *Service) ListOrders(ctx context.Context, caller auth.Identity) ([]orders.Order, error) {
	if err := auth.Authorize(caller, "", auth.RoleCustomer); err != nil {
		return nil, err
	}
	f := orders.Filter{UserID: caller.UserID}
	if caller.IsAdmin() {
		f = orders.Filter{}
	}
	return s.Store.ListOrders(ctx, f)
}

func (s *Service) MyOrders(ctx context.Context, caller auth.Identity) ([]orders.Order, error) {
	if err := auth.Authorize(caller, "", auth.RoleCustomer); err != nil {
		return nil, err
	}
	return s.Store.ListOrders(ctx, orders.Filter{UserID: caller.UserID})
}

// GetOrder returns the order to its owner or an admin.
func (s *Service) GetOrder(ctx context.Context, caller auth.Identity, id string) (*orders.Order, error) {
	if err := auth.Authorize(caller, "", auth.RoleCustomer); err != nil {
		return nil, err
	}
	o, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(caller, o.UserID, auth.RoleCustomer); err != nil {
		return nil, err
	}
	return &o, nil
}

// OrderStatus prefers the projected view and falls back to the order itself
// when the projector has not seen the order yet.
func (s *Service) OrderStatus(ctx context.Context, caller auth.Identity, id string) (orders.StatusView, error) {
	if err := auth.Authorize(caller, "", auth.RoleCustomer); err != nil {
		return orders.StatusView{}, err
	}
	if s.Statuses != nil {
		v, ok, err := s.Statuses.Status(ctx, id)
		if err != nil {
			s.Log.Warn().Err(err).Str("order_id", id).Msg("status view lookup")
		}
		if ok {
			if err := auth.Authorize(caller, v.UserID, auth.RoleCustomer); err != nil {
				return orders.StatusView{}, err
			}
			return v, nil
		}
	}
	o, err := s.GetOrder(ctx, caller, id)
	if err != nil {
		return orders.StatusView{}, err
	}
	return o.StatusView(), nil
}
