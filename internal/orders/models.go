package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

const PaymentMethodBankTransfer = "bank_transfer"

// Line is frozen at order time; later catalog changes do not touch it.
type Line struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type ShippingAddress struct {
	Label       string `json:"label,omitempty"`
	Region      string `json:"region"`
	City        string `json:"city"`
	SubCity     string `json:"subCity"`
	Street      string `json:"street"`
	HouseNumber string `json:"houseNumber"`
	PostalCode  string `json:"postalCode,omitempty"`
}

// BankAccount is an informational snapshot of where the buyer transferred.
type BankAccount struct {
	Name          string `json:"name"`
	AccountNumber string `json:"accountNumber"`
}

type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	Lines           []Line          `json:"products"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	ShippingFee     decimal.Decimal `json:"shippingFee"`
	GrandTotal      decimal.Decimal `json:"grandTotal"`
	PaymentMethod   string          `json:"paymentMethod"`
	BankUsed        BankAccount     `json:"bankUsed"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
	OrderStatus     Status          `json:"orderStatus"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	Note            string          `json:"note,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// StatusUpdate carries only the fields an admin chose to change.
type StatusUpdate struct {
	PaymentStatus *PaymentStatus `json:"paymentStatus,omitempty"`
	OrderStatus   *Status        `json:"orderStatus,omitempty"`
}

func (u StatusUpdate) Empty() bool { return u.PaymentStatus == nil && u.OrderStatus == nil }

// Filter narrows listings; an empty UserID means every order.
type Filter struct {
	UserID string
}

// StatusView is the small read model the projector keeps per order.
type StatusView struct {
	OrderID       string        `json:"orderId"`
	UserID        string        `json:"userId"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	OrderStatus   Status        `json:"orderStatus"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

func (o Order) StatusView() StatusView {
	return StatusView{
		OrderID:       o.ID,
		UserID:        o.UserID,
		PaymentStatus: o.PaymentStatus,
		OrderStatus:   o.OrderStatus,
		UpdatedAt:     o.UpdatedAt,
	}
}
