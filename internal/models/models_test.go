package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(OrderStatusAwaitingPayment, OrderStatusPendingConfirmation))
	assert.True(t, CanTransition(OrderStatusAwaitingPayment, OrderStatusPaid))
	assert.True(t, CanTransition(OrderStatusPendingConfirmation, OrderStatusPaid))
	assert.True(t, CanTransition(OrderStatusPaid, OrderStatusShipped))

	assert.False(t, CanTransition(OrderStatusAwaitingPayment, OrderStatusShipped))
	assert.False(t, CanTransition(OrderStatusPendingConfirmation, OrderStatusShipped))
	assert.False(t, CanTransition(OrderStatusShipped, OrderStatusPaid))
	assert.False(t, CanTransition(OrderStatusPaid, OrderStatusAwaitingPayment))
	assert.False(t, CanTransition("cancelled", OrderStatusPaid))
}

func TestPaymentMethodNormalize(t *testing.T) {
	assert.Equal(t, PaymentMethodCard, PaymentMethod("").Normalize())
	assert.Equal(t, PaymentMethodStablecoin, PaymentMethodUSDCBaseAlias.Normalize())
	assert.True(t, PaymentMethodUSDCBaseAlias.Valid())
	assert.False(t, PaymentMethod("paypal").Valid())
}

func TestProductNormalizeRecomputesMargin(t *testing.T) {
	p := &Product{
		ID:            "p1",
		AmazonPrice:   decimal.RequireFromString("100.00"),
		OurPrice:      decimal.RequireFromString("103.00"),
		MarginPercent: decimal.RequireFromString("42"),
	}
	require.NoError(t, p.Normalize())
	assert.Equal(t, "3.00", p.MarginPercent.StringFixed(2))
}

func TestProductNormalizeRejectsBadPrices(t *testing.T) {
	p := &Product{AmazonPrice: decimal.Zero, OurPrice: decimal.NewFromInt(5)}
	assert.ErrorIs(t, p.Normalize(), ErrMarketplacePriceNotPositive)

	p = &Product{AmazonPrice: decimal.NewFromInt(10), OurPrice: decimal.NewFromInt(9)}
	assert.ErrorIs(t, p.Normalize(), ErrResaleBelowMarketplace)
}
