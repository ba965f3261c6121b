// internal/models/common.go
package models

// Enums
type PaymentMethod string

const (
	PaymentMethodCard       PaymentMethod = "card"
	PaymentMethodStablecoin PaymentMethod = "stablecoin_transfer"

	// Selector used by the first USDC deployment; accepted on input only.
	PaymentMethodUSDCBaseAlias PaymentMethod = "usdc_base"
)

// Normalize maps aliases and the empty selector onto a canonical method.
func (m PaymentMethod) Normalize() PaymentMethod {
	switch m {
	case "":
		return PaymentMethodCard
	case PaymentMethodUSDCBaseAlias:
		return PaymentMethodStablecoin
	default:
		return m
	}
}

func (m PaymentMethod) Valid() bool {
	switch m.Normalize() {
	case PaymentMethodCard, PaymentMethodStablecoin:
		return true
	}
	return false
}

type OrderStatus string

const (
	OrderStatusAwaitingPayment     OrderStatus = "awaiting_payment"
	OrderStatusPendingConfirmation OrderStatus = "pending_confirmation"
	OrderStatusPaid                OrderStatus = "paid"
	OrderStatusShipped             OrderStatus = "shipped"
)

var validNext = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusAwaitingPayment:     {OrderStatusPendingConfirmation: true, OrderStatusPaid: true},
	OrderStatusPendingConfirmation: {OrderStatusPaid: true},
	OrderStatusPaid:                {OrderStatusShipped: true},
	OrderStatusShipped:             {},
}

func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

func (s OrderStatus) Valid() bool {
	_, ok := validNext[s]
	return ok
}

// IsSettled reports whether payment for the order has been accepted.
func (s OrderStatus) IsSettled() bool {
	return s == OrderStatusPaid || s == OrderStatusShipped
}
