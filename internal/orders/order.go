package orders

import (
	"fmt"
	"strings"
	"time"

	"github.com/ariefcatur/storefront-orders/internal/apperr"
	"github.com/ariefcatur/storefront-orders/internal/pricing"
	"github.com/shopspring/decimal"
)

type NewOrder struct {
	ID              string
	UserID          string
	Lines           []Line
	ShippingFee     decimal.Decimal
	BankUsed        BankAccount
	ShippingAddress ShippingAddress
	Note            string
	Now             time.Time
}

// New builds an order in pending/pending. Totals are derived from the lines
// here and never recomputed afterwards.
func New(in NewOrder) (*Order, error) {
	if len(in.Lines) == 0 {
		return nil, apperr.ErrEmptyCart
	}
	if in.UserID == "" {
		return nil, fmt.Errorf("%w: order owner is required", apperr.ErrValidation)
	}
	if err := ValidateShippingFee(in.ShippingFee); err != nil {
		return nil, err
	}
	if err := in.ShippingAddress.Validate(); err != nil {
		return nil, err
	}
	if err := in.BankUsed.Validate(); err != nil {
		return nil, err
	}

	lines := make([]Line, len(in.Lines))
	subtotals := make([]decimal.Decimal, len(in.Lines))
	for i, l := range in.Lines {
		if err := pricing.ValidateQuantity(l.Quantity); err != nil {
			return nil, err
		}
		l.Subtotal = l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
		lines[i] = l
		subtotals[i] = l.Subtotal
	}
	total := pricing.Sum(subtotals...)

	return &Order{
		ID:              in.ID,
		UserID:          in.UserID,
		Lines:           lines,
		TotalAmount:     total,
		ShippingFee:     in.ShippingFee,
		GrandTotal:      pricing.GrandTotal(total, in.ShippingFee),
		PaymentMethod:   PaymentMethodBankTransfer,
		BankUsed:        in.BankUsed,
		PaymentStatus:   PaymentPending,
		OrderStatus:     StatusPending,
		ShippingAddress: in.ShippingAddress,
		Note:            in.Note,
		CreatedAt:       in.Now,
		UpdatedAt:       in.Now,
	}, nil
}

// Apply sets the provided status fields. Totals and lines are untouched.
func (o *Order) Apply(u StatusUpdate, policy TransitionPolicy, now time.Time) error {
	if u.Empty() {
		return fmt.Errorf("%w: paymentStatus or orderStatus is required", apperr.ErrValidation)
	}
	if u.PaymentStatus != nil {
		to := *u.PaymentStatus
		if !to.Valid() {
			return fmt.Errorf("%w: unknown paymentStatus %q", apperr.ErrValidation, to)
		}
		if policy == PolicyStrict && !CanTransitionPayment(o.PaymentStatus, to) {
			return fmt.Errorf("%w: paymentStatus cannot move from %s to %s", apperr.ErrConflict, o.PaymentStatus, to)
		}
	}
	if u.OrderStatus != nil {
		to := *u.OrderStatus
		if !to.Valid() {
			return fmt.Errorf("%w: unknown orderStatus %q", apperr.ErrValidation, to)
		}
		if policy == PolicyStrict && !CanTransition(o.OrderStatus, to) {
			return fmt.Errorf("%w: orderStatus cannot move from %s to %s", apperr.ErrConflict, o.OrderStatus, to)
		}
	}

	if u.PaymentStatus != nil {
		o.PaymentStatus = *u.PaymentStatus
	}
	if u.OrderStatus != nil {
		o.OrderStatus = *u.OrderStatus
	}
	o.UpdatedAt = now
	return nil
}

func ValidateShippingFee(fee decimal.Decimal) error {
	if fee.IsNegative() {
		return fmt.Errorf("%w: shippingFee must not be negative", apperr.ErrValidation)
	}
	return nil
}

func (a ShippingAddress) Validate() error {
	var missing []string
	for _, f := range []struct{ name, v string }{
		{"region", a.Region},
		{"city", a.City},
		{"subCity", a.SubCity},
		{"street", a.Street},
		{"houseNumber", a.HouseNumber},
	} {
		if strings.TrimSpace(f.v) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: shippingAddress missing %s", apperr.ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

func (b BankAccount) Validate() error {
	if strings.TrimSpace(b.Name) == "" || strings.TrimSpace(b.AccountNumber) == "" {
		return fmt.Errorf("%w: bankUsed requires name and accountNumber", apperr.ErrValidation)
	}
	return nil
}
