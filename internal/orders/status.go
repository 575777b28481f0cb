package orders

import "fmt"

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed:
		return true
	}
	return false
}

// Status is the fulfillment axis, independent of payment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

var validNextPayment = map[PaymentStatus]map[PaymentStatus]bool{
	PaymentPending: {PaymentPaid: true, PaymentFailed: true},
	PaymentPaid:    {},
	PaymentFailed:  {},
}

var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusConfirmed: true, StatusCancelled: true},
	StatusConfirmed: {StatusShipped: true, StatusCancelled: true},
	StatusShipped:   {StatusDelivered: true, StatusCancelled: true},
	StatusDelivered: {},
	StatusCancelled: {},
}

func CanTransitionPayment(from, to PaymentStatus) bool {
	return from == to || validNextPayment[from][to]
}

func CanTransition(from, to Status) bool {
	return from == to || validNext[from][to]
}

// TransitionPolicy decides whether admin updates follow the transition
// tables or may set any valid value.
type TransitionPolicy int

const (
	PolicyStrict TransitionPolicy = iota
	PolicyPermissive
)

func ParsePolicy(s string) (TransitionPolicy, error) {
	switch s {
	case "", "strict":
		return PolicyStrict, nil
	case "permissive":
		return PolicyPermissive, nil
	}
	return PolicyStrict, fmt.Errorf("unknown transition policy %q", s)
}

func (p TransitionPolicy) String() string {
	if p == PolicyPermissive {
		return "permissive"
	}
	return "strict"
}
