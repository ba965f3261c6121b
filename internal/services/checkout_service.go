// internal/services/checkout_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/agent-commerce/internal/models"
	"github.com/javajoker/agent-commerce/internal/pricing"
	"github.com/javajoker/agent-commerce/internal/repository"
	"github.com/javajoker/agent-commerce/internal/utils"
)

type CheckoutRequest struct {
	ProductID       string                  `json:"product_id" validate:"required,max=64"`
	Quantity        int                     `json:"quantity" validate:"omitempty,min=1,max=100"`
	Shipping        *models.ShippingAddress `json:"shipping" validate:"required"`
	PaymentMethod   models.PaymentMethod    `json:"payment_method" validate:"omitempty,payment_method"`
	PaymentMethodID string                  `json:"payment_method_id" validate:"max=255"`
	TxHash          string                  `json:"tx_hash" validate:"omitempty,tx_hash"`
	AgentID         string                  `json:"agent_id" validate:"max=128"`

	// IdempotencyKey comes from the Idempotency-Key header, not the body.
	IdempotencyKey string `json:"-"`
}

type ProductSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type CheckoutResult struct {
	OrderID           string                 `json:"order_id"`
	Status            models.OrderStatus     `json:"status"`
	Total             pricing.Money          `json:"total"`
	Currency          string                 `json:"currency"`
	Product           ProductSummary         `json:"product"`
	Shipping          models.ShippingAddress `json:"shipping"`
	Payment           *PaymentInstructions   `json:"payment,omitempty"`
	EstimatedDelivery string                 `json:"estimated_delivery"`
	Tracking          *string                `json:"tracking"`
	FulfillmentNote   string                 `json:"fulfillment_note,omitempty"`

	Order *models.Order `json:"-"`
}

type FulfillmentUpdate struct {
	Status         *models.OrderStatus `json:"status" validate:"omitempty,order_status"`
	TrackingNumber *string             `json:"tracking_number" validate:"omitempty,max=100"`
	TrackingURL    *string             `json:"tracking_url" validate:"omitempty,max=2048,url"`
}

type OrderQuery struct {
	Status *models.OrderStatus
	Limit  int
	Offset int
}

// CheckoutService drives an order through its lifecycle. The payment method
// is the only branch point between the card and stablecoin rails.
type CheckoutService struct {
	catalog    *CatalogService
	orders     repository.OrderRepository
	gateway    PaymentGateway
	stablecoin *StablecoinService
	notifier   *NotificationService
	currency   string
	now        func() time.Time
}

func NewCheckoutService(
	catalog *CatalogService,
	orders repository.OrderRepository,
	gateway PaymentGateway,
	stablecoin *StablecoinService,
	notifier *NotificationService,
	currency string,
) *CheckoutService {
	return &CheckoutService{
		catalog:    catalog,
		orders:     orders,
		gateway:    gateway,
		stablecoin: stablecoin,
		notifier:   notifier,
		currency:   strings.ToUpper(currency),
		now:        time.Now,
	}
}

func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	req.PaymentMethod = req.PaymentMethod.Normalize()

	if err := utils.ValidateStruct(&req); err != nil {
		return nil, newValidationError("invalid checkout request", err)
	}

	product, err := s.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.InStock {
		return nil, &ValidationError{
			Message: fmt.Sprintf("product %s is out of stock", product.ID),
			Fields:  []utils.ValidationError{{Field: "product_id", Tag: "in_stock", Message: "product is out of stock"}},
		}
	}

	total, err := pricing.ComputeTotal(product, req.Quantity)
	if err != nil {
		return nil, newValidationError(err.Error(), nil)
	}

	switch req.PaymentMethod {
	case models.PaymentMethodStablecoin:
		return s.checkoutStablecoin(ctx, req, product, total)
	default:
		return s.checkoutCard(ctx, req, product, total)
	}
}

func (s *CheckoutService) checkoutCard(ctx context.Context, req CheckoutRequest, product *models.Product, total pricing.Money) (*CheckoutResult, error) {
	if req.PaymentMethodID == "" {
		return nil, &ValidationError{
			Message: "payment_method_id is required for card payments",
			Fields:  []utils.ValidationError{{Field: "payment_method_id", Tag: "required", Message: "payment_method_id is required"}},
		}
	}

	// Once the charge is sent the order must be recorded even if the
	// client disconnects; the gateway's own timeout bounds the call.
	ctx = context.WithoutCancel(ctx)

	orderID := utils.GenerateOrderID()
	chargeKey := orderID
	if req.IdempotencyKey != "" {
		chargeKey = "checkout:" + req.IdempotencyKey
	}

	agent := req.AgentID
	if agent == "" {
		agent = "direct"
	}

	charge, err := s.gateway.Charge(ctx, ChargeRequest{
		AmountCents:        total.Cents(),
		Currency:           strings.ToLower(s.currency),
		PaymentMethodToken: req.PaymentMethodID,
		IdempotencyKey:     chargeKey,
		// Metadata must not vary between retries that share a charge key.
		Metadata: map[string]string{
			"product_id":   product.ID,
			"product_name": product.Name,
			"amazon_asin":  product.AmazonASIN,
			"agent_id":     agent,
			"quantity":     strconv.Itoa(req.Quantity),
		},
	})
	if err != nil {
		log := logrus.WithError(err).WithFields(logrus.Fields{
			"order_id":   orderID,
			"product_id": product.ID,
			"amount":     total.String(),
		})
		if errors.Is(err, ErrPaymentDeclined) {
			log.Warn("Card payment declined")
			return nil, err
		}
		log.Error("Card payment outcome unknown")
		if errors.Is(err, ErrGatewayError) {
			return nil, err
		}
		return nil, &GatewayError{Err: err}
	}

	now := s.now().UTC()
	settlement := charge.SettlementID
	order := s.newOrder(orderID, req, product, total, now)
	order.Currency = s.currency
	order.PaymentMethod = models.PaymentMethodCard
	order.Status = models.OrderStatusPaid
	order.SettlementRef = &settlement
	order.PaidAt = &now

	if err := s.orders.Create(ctx, order); err != nil {
		// The card is charged at this point, so a retry could double-charge.
		logrus.WithError(err).WithFields(logrus.Fields{
			"order_id":   orderID,
			"settlement": settlement,
			"amount":     total.String(),
		}).Error("Charge succeeded but order was not recorded")
		return nil, &GatewayError{Err: fmt.Errorf("charge %s succeeded but order was not recorded: %w", settlement, err)}
	}

	logrus.WithFields(logrus.Fields{
		"order_id":   order.ID,
		"product_id": product.ID,
		"total":      total.String(),
		"settlement": settlement,
	}).Info("Card order paid")

	s.notifier.OrderPaid(order)

	return s.result(order, nil), nil
}

func (s *CheckoutService) checkoutStablecoin(ctx context.Context, req CheckoutRequest, product *models.Product, total pricing.Money) (*CheckoutResult, error) {
	if s.stablecoin.cfg.RecipientAddress == "" {
		return nil, fmt.Errorf("%w: stablecoin payments are not configured", ErrInvalidOperation)
	}

	now := s.now().UTC()
	expiresAt := s.stablecoin.ExpiresAt(now)

	order := s.newOrder(utils.GenerateOrderID(), req, product, total, now)
	order.Currency = s.stablecoin.cfg.Token
	order.PaymentMethod = models.PaymentMethodStablecoin
	order.Status = models.OrderStatusAwaitingPayment
	order.ExpiresAt = &expiresAt
	if req.TxHash != "" {
		hash := req.TxHash
		order.SettlementRef = &hash
		order.Status = models.OrderStatusPendingConfirmation
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"order_id":   order.ID,
		"product_id": product.ID,
		"total":      total.String(),
		"status":     order.Status,
	}).Info("Stablecoin order created")

	return s.result(order, s.stablecoin.Initiate(order)), nil
}

func (s *CheckoutService) newOrder(id string, req CheckoutRequest, product *models.Product, total pricing.Money, now time.Time) *models.Order {
	order := &models.Order{
		ID:          id,
		ProductID:   product.ID,
		ProductName: product.Name,
		AmazonASIN:  product.AmazonASIN,
		Quantity:    req.Quantity,
		Total:       total,
		Shipping:    *req.Shipping,
		CreatedAt:   now,
	}
	if req.AgentID != "" {
		agent := req.AgentID
		order.AgentID = &agent
	}
	return order
}

func (s *CheckoutService) result(order *models.Order, payment *PaymentInstructions) *CheckoutResult {
	return &CheckoutResult{
		OrderID:           order.ID,
		Status:            order.Status,
		Total:             order.Total,
		Currency:          order.Currency,
		Product:           ProductSummary{ID: order.ProductID, Name: order.ProductName},
		Shipping:          order.Shipping,
		Payment:           payment,
		EstimatedDelivery: EstimatedDelivery(order.Shipping.Country, order.CreatedAt),
		Order:             order,
	}
}

// ConfirmPayment records a stablecoin transaction hash. Card orders are
// always rejected, whatever their status.
func (s *CheckoutService) ConfirmPayment(ctx context.Context, orderID, txHash string) (*ConfirmResult, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsStablecoin() {
		return nil, fmt.Errorf("%w: order %s was not paid by stablecoin transfer", ErrInvalidOperation, orderID)
	}
	if order.Status.IsSettled() {
		return &ConfirmResult{Order: order, AlreadyConfirmed: true}, nil
	}

	res, err := s.stablecoin.RecordTransactionHash(ctx, orderID, txHash)
	if err != nil {
		return nil, err
	}
	if !res.AlreadyConfirmed {
		s.notifier.OrderPaid(res.Order)
	}
	return res, nil
}

// UpdateFulfillment applies an admin update. Moving to shipped is allowed
// only from paid; tracking fields alone may change on paid or shipped orders.
func (s *CheckoutService) UpdateFulfillment(ctx context.Context, orderID string, upd FulfillmentUpdate) (*models.Order, error) {
	if upd.Status == nil && upd.TrackingNumber == nil && upd.TrackingURL == nil {
		return nil, newValidationError("no updates provided", nil)
	}
	if err := utils.ValidateStruct(&upd); err != nil {
		return nil, newValidationError("invalid fulfillment update", err)
	}

	applyTracking := func(o *models.Order) {
		if upd.TrackingNumber != nil {
			o.TrackingNumber = *upd.TrackingNumber
		}
		if upd.TrackingURL != nil {
			o.TrackingURL = *upd.TrackingURL
		}
	}

	if upd.Status != nil {
		target := *upd.Status
		if target != models.OrderStatusShipped {
			current, err := s.GetOrder(ctx, orderID)
			if err != nil {
				return nil, err
			}
			return nil, &InvalidTransitionError{From: current.Status, To: target}
		}

		order, err := s.orders.Transition(ctx, orderID, []models.OrderStatus{models.OrderStatusPaid}, func(o *models.Order) error {
			now := s.now().UTC()
			o.Status = models.OrderStatusShipped
			o.ShippedAt = &now
			applyTracking(o)
			return nil
		})
		if err != nil {
			var conflict *repository.StatusConflictError
			if errors.As(err, &conflict) {
				return nil, &InvalidTransitionError{From: conflict.Current, To: target}
			}
			return nil, s.ledgerError(orderID, err)
		}

		logrus.WithFields(logrus.Fields{
			"order_id":        order.ID,
			"tracking_number": order.TrackingNumber,
		}).Info("Order marked shipped")

		s.notifier.OrderShipped(order)
		return order, nil
	}

	order, err := s.orders.Transition(ctx, orderID,
		[]models.OrderStatus{models.OrderStatusPaid, models.OrderStatusShipped},
		func(o *models.Order) error {
			applyTracking(o)
			return nil
		})
	if err != nil {
		var conflict *repository.StatusConflictError
		if errors.As(err, &conflict) {
			return nil, fmt.Errorf("%w: tracking cannot be set on a %s order", ErrInvalidOperation, conflict.Current)
		}
		return nil, s.ledgerError(orderID, err)
	}
	return order, nil
}

func (s *CheckoutService) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, s.ledgerError(orderID, err)
	}
	return order, nil
}

func (s *CheckoutService) ListOrders(ctx context.Context, q OrderQuery) ([]models.Order, int64, error) {
	if q.Status != nil && !q.Status.Valid() {
		return nil, 0, &ValidationError{
			Message: fmt.Sprintf("unknown order status %q", *q.Status),
			Fields:  []utils.ValidationError{{Field: "status", Tag: "order_status", Message: "status is not a valid order status"}},
		}
	}

	filter := repository.OrderFilter{Status: q.Status, Limit: q.Limit, Offset: q.Offset}

	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	total, err := s.orders.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return orders, total, nil
}

func (s *CheckoutService) ledgerError(orderID string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Resource: "order", ID: orderID}
	}
	return fmt.Errorf("order ledger: %w", err)
}

// EstimatedDelivery returns the expected delivery date as YYYY-MM-DD.
func EstimatedDelivery(country string, from time.Time) string {
	days := 14
	switch strings.ToUpper(strings.TrimSpace(country)) {
	case "US":
		days = 5
	case "FR":
		days = 7
	}
	return from.UTC().AddDate(0, 0, days).Format("2006-01-02")
}
