package orders

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

type ItemPrice struct {
	ProductID string          `json:"product_id"`
	Qty       int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type OrderCreatedPayload struct {
	OrderID       string          `json:"order_id"`
	UserID        string          `json:"user_id"`
	Items         []ItemPrice     `json:"items"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	OrderStatus   Status          `json:"order_status"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type OrderStatusChangedPayload struct {
	OrderID           string        `json:"order_id"`
	UserID            string        `json:"user_id"`
	PrevPaymentStatus PaymentStatus `json:"prev_payment_status"`
	PaymentStatus     PaymentStatus `json:"payment_status"`
	PrevOrderStatus   Status        `json:"prev_order_status"`
	OrderStatus       Status        `json:"order_status"`
	ChangedAt         time.Time     `json:"changed_at"`
}

func NewOrderCreatedPayload(o Order) OrderCreatedPayload {
	items := make([]ItemPrice, 0, len(o.Lines))
	for _, l := range o.Lines {
		items = append(items, ItemPrice{ProductID: l.ProductID, Qty: l.Quantity, UnitPrice: l.UnitPrice})
	}
	return OrderCreatedPayload{
		OrderID:       o.ID,
		UserID:        o.UserID,
		Items:         items,
		GrandTotal:    o.GrandTotal,
		PaymentStatus: o.PaymentStatus,
		OrderStatus:   o.OrderStatus,
		UpdatedAt:     o.UpdatedAt,
	}
}

func NewStatusChangedPayload(before, after Order) OrderStatusChangedPayload {
	return OrderStatusChangedPayload{
		OrderID:           after.ID,
		UserID:            after.UserID,
		PrevPaymentStatus: before.PaymentStatus,
		PaymentStatus:     after.PaymentStatus,
		PrevOrderStatus:   before.OrderStatus,
		OrderStatus:       after.OrderStatus,
		ChangedAt:         after.UpdatedAt,
	}
}
