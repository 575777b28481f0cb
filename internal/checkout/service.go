// Package checkout turns a cart into an order: price every line from the
// ledger, take the stock and record the order, all in one transaction.
package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/ariefcatur/storefront-orders/internal/apperr"
	"github.com/ariefcatur/storefront-orders/internal/auth"
	"github.com/ariefcatur/storefront-orders/internal/orders"
	"github.com/ariefcatur/storefront-orders/internal/pricing"
	"github.com/ariefcatur/storefront-orders/internal/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Notifier is told about committed orders. Failures are logged only.
type Notifier interface {
	OrderPlaced(ctx context.Context, o orders.Order) error
}

type LineRequest struct {
	ProductID string
	Quantity  int
}

type PlaceOrderInput struct {
	Lines           []LineRequest
	ShippingAddress orders.ShippingAddress
	ShippingFee     decimal.Decimal
	BankUsed        orders.BankAccount
	Note            string
}

type Service struct {
	Store    store.Store
	Notifier Notifier
	Log      zerolog.Logger

	Now   func() time.Time
	NewID func() string
}

func New(st store.Store, n Notifier, log zerolog.Logger) *Service {
	return &Service{Store: st, Notifier: n, Log: log}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

// validate runs every check that needs no data, so a bad request never
// opens a transaction.
func validate(in PlaceOrderInput) error {
	if len(in.Lines) == 0 {
		return apperr.ErrEmptyCart
	}
	for i, l := range in.Lines {
		if l.ProductID == "" {
			return fmt.Errorf("%w: products[%d].productId is required", apperr.ErrValidation, i)
		}
		if err := pricing.ValidateQuantity(l.Quantity); err != nil {
			return err
		}
	}
	if err := in.ShippingAddress.Validate(); err != nil {
		return err
	}
	if err := in.BankUsed.Validate(); err != nil {
		return err
	}
	return orders.ValidateShippingFee(in.ShippingFee)
}

// PlaceOrder prices the cart from the ledger and records the order. Either
// every line's stock is taken and the order exists, or nothing changed.
func (s *Service) PlaceOrder(ctx context.Context, caller auth.Identity, in PlaceOrderInput) (*orders.Order, error) {
	if err := auth.Authorize(caller, "", auth.RoleCustomer); err != nil {
		return nil, err
	}
	if err := validate(in); err != nil {
		return nil, err
	}

	var placed *orders.Order
	err := s.Store.WithinTx(ctx, func(tx store.Tx) error {
		lines := make([]orders.Line, 0, len(in.Lines))
		for _, req := range in.Lines {
			p, err := tx.Get(ctx, req.ProductID)
			if err != nil {
				return err
			}
			if !p.Active() {
				return fmt.Errorf("%w: product %s is not available", apperr.ErrValidation, p.Name)
			}
			unit, subtotal, err := pricing.LineSubtotal(p, req.Quantity)
			if err != nil {
				return err
			}
			if _, err := tx.DecrementStock(ctx, p.ID, req.Quantity); err != nil {
				return err
			}
			lines = append(lines, orders.Line{
				ProductID: p.ID,
				Name:      p.Name,
				UnitPrice: unit,
				Quantity:  req.Quantity,
				Subtotal:  subtotal,
			})
		}

		o, err := orders.New(orders.NewOrder{
			ID:              s.newID(),
			UserID:          caller.UserID,
			Lines:           lines,
			ShippingFee:     in.ShippingFee,
			BankUsed:        in.BankUsed,
			ShippingAddress: in.ShippingAddress,
			Note:            in.Note,
			Now:             s.now(),
		})
		if err != nil {
			return err
		}
		if err := tx.InsertOrder(ctx, o); err != nil {
			return err
		}
		placed = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info().
		Str("order_id", placed.ID).
		Str("user_id", placed.UserID).
		Str("grand_total", placed.GrandTotal.String()).
		Int("lines", len(placed.Lines)).
		Msg("order placed")

	if s.Notifier != nil {
		if err := s.Notifier.OrderPlaced(ctx, *placed); err != nil {
			s.Log.Error().Err(err).Str("order_id", placed.ID).Msg("publish OrderCreated")
		}
	}
	return placed, nil
}
