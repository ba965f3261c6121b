// internal/services/stablecoin_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/agent-commerce/internal/config"
	"github.com/javajoker/agent-commerce/internal/models"
	"github.com/javajoker/agent-commerce/internal/repository"
	"github.com/javajoker/agent-commerce/internal/utils"
)

// PaymentInstructions tell the payer where to send a stablecoin transfer.
type PaymentInstructions struct {
	Method           models.PaymentMethod `json:"method"`
	Chain            string               `json:"chain"`
	ChainID          int64                `json:"chain_id"`
	Token            string               `json:"token"`
	TokenContract    string               `json:"token_contract"`
	Recipient        string               `json:"recipient"`
	Amount           string               `json:"amount"`
	Note             string               `json:"note"`
	ExpiresAt        time.Time            `json:"expires_at"`
	ExpiresInSeconds int64                `json:"expires_in_seconds"`
}

type ConfirmResult struct {
	Order            *models.Order
	AlreadyConfirmed bool
}

// StablecoinService tracks the awaiting_payment -> pending_confirmation -> paid
// lifecycle of stablecoin orders.
//
// Transaction hashes are NOT verified on chain. Only their shape is checked
// and every confirmation is logged with verified=false.
type StablecoinService struct {
	orders repository.OrderRepository
	cfg    config.StablecoinConfig
	now    func() time.Time
}

func NewStablecoinService(orders repository.OrderRepository, cfg config.StablecoinConfig) *StablecoinService {
	return &StablecoinService{
		orders: orders,
		cfg:    cfg,
		now:    time.Now,
	}
}

// ExpiresAt is advisory; nothing cancels an order after it.
func (s *StablecoinService) ExpiresAt(createdAt time.Time) time.Time {
	return createdAt.Add(s.cfg.PaymentWindow).UTC()
}

func (s *StablecoinService) Initiate(order *models.Order) *PaymentInstructions {
	expiresAt := s.ExpiresAt(order.CreatedAt)
	remaining := int64(expiresAt.Sub(s.now()).Seconds())
	if remaining < 0 {
		remaining = 0
	}

	return &PaymentInstructions{
		Method:           models.PaymentMethodStablecoin,
		Chain:            s.cfg.ChainName,
		ChainID:          s.cfg.ChainID,
		Token:            s.cfg.Token,
		TokenContract:    s.cfg.TokenContract,
		Recipient:        s.cfg.RecipientAddress,
		Amount:           order.Total.String(),
		Note:             fmt.Sprintf("Payment for order %s", order.ID),
		ExpiresAt:        expiresAt,
		ExpiresInSeconds: remaining,
	}
}

// RecordTransactionHash moves a stablecoin order to paid. Confirming an order
// that is already paid or shipped succeeds without changing it.
func (s *StablecoinService) RecordTransactionHash(ctx context.Context, orderID, txHash string) (*ConfirmResult, error) {
	if !utils.IsTxHash(txHash) {
		return nil, &ValidationError{
			Message: "tx_hash must be 0x followed by 64 hex characters",
			Fields:  []utils.ValidationError{{Field: "tx_hash", Tag: "tx_hash", Message: "tx_hash is not a valid transaction hash"}},
		}
	}

	_, err := s.orders.Transition(ctx, orderID,
		[]models.OrderStatus{models.OrderStatusAwaitingPayment, models.OrderStatusPendingConfirmation},
		func(o *models.Order) error {
			if !o.IsStablecoin() {
				return ErrInvalidOperation
			}
			hash := txHash
			o.SettlementRef = &hash
			o.Status = models.OrderStatusPendingConfirmation
			return nil
		})
	if err != nil {
		return s.resolveConflict(ctx, orderID, err)
	}

	paid, err := s.orders.Transition(ctx, orderID,
		[]models.OrderStatus{models.OrderStatusPendingConfirmation},
		func(o *models.Order) error {
			now := s.now().UTC()
			o.Status = models.OrderStatusPaid
			o.PaidAt = &now
			return nil
		})
	if err != nil {
		return s.resolveConflict(ctx, orderID, err)
	}

	logrus.WithFields(logrus.Fields{
		"order_id": orderID,
		"tx_hash":  txHash,
		"chain_id": s.cfg.ChainID,
		"verified": false,
	}).Warn("Stablecoin payment accepted without on-chain verification")

	return &ConfirmResult{Order: paid}, nil
}

// resolveConflict turns a lost compare-and-set into the caller-visible
// outcome. A concurrent confirmation that already settled the order counts
// as success.
func (s *StablecoinService) resolveConflict(ctx context.Context, orderID string, err error) (*ConfirmResult, error) {
	var conflict *repository.StatusConflictError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, &NotFoundError{Resource: "order", ID: orderID}
	case errors.Is(err, ErrInvalidOperation):
		return nil, err
	case errors.As(err, &conflict) && conflict.Current.IsSettled():
		order, getErr := s.orders.Get(ctx, orderID)
		if getErr != nil {
			return nil, fmt.Errorf("failed to load order: %w", getErr)
		}
		return &ConfirmResult{Order: order, AlreadyConfirmed: true}, nil
	case errors.As(err, &conflict):
		return nil, &InvalidTransitionError{From: conflict.Current, To: models.OrderStatusPaid}
	default:
		return nil, fmt.Errorf("failed to confirm payment: %w", err)
	}
}
