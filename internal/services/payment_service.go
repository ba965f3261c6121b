// internal/services/payment_service.go
package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"

	"github.com/javajoker/agent-commerce/internal/config"
)

type ChargeRequest struct {
	AmountCents        int64
	Currency           string
	PaymentMethodToken string
	// IdempotencyKey is forwarded to the gateway so a duplicated network
	// request cannot produce a second charge.
	IdempotencyKey string
	Metadata       map[string]string
}

type ChargeResult struct {
	SettlementID string
	Status       string
	Succeeded    bool
}

// PaymentGateway charges a card. Each call is one external charge attempt and
// must not be retried blindly: a GatewayError may hide a successful charge.
type PaymentGateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

type StripeGateway struct {
	client   *paymentintent.Client
	currency string
}

func NewStripeGateway(cfg config.PaymentConfig) *StripeGateway {
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: cfg.Timeout},
		MaxNetworkRetries: stripe.Int64(0),
	})

	return newStripeGateway(backend, cfg.StripeSecretKey, cfg.Currency)
}

func newStripeGateway(backend stripe.Backend, key, currency string) *StripeGateway {
	return &StripeGateway{
		client:   &paymentintent.Client{B: backend, Key: key},
		currency: currency,
	}
}

func (g *StripeGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	currency := req.Currency
	if currency == "" {
		currency = g.currency
	}

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(req.AmountCents),
		Currency:      stripe.String(currency),
		PaymentMethod: stripe.String(req.PaymentMethodToken),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.client.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			return nil, &PaymentDeclinedError{
				Status:      string(stripeErr.Code),
				DeclineCode: string(stripeErr.DeclineCode),
				Message:     stripeErr.Msg,
			}
		}
		return nil, &GatewayError{Err: err}
	}

	result := &ChargeResult{
		SettlementID: pi.ID,
		Status:       string(pi.Status),
		Succeeded:    pi.Status == stripe.PaymentIntentStatusSucceeded,
	}
	if !result.Succeeded {
		return result, &PaymentDeclinedError{Status: result.Status}
	}
	return result, nil
}
