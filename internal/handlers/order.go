// internal/handlers/order.go
package handlers

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/agent-commerce/internal/i18n"
	"github.com/javajoker/agent-commerce/internal/models"
	"github.com/javajoker/agent-commerce/internal/services"
	"github.com/javajoker/agent-commerce/internal/utils"
)

type OrderHandler struct {
	checkoutService *services.CheckoutService
}

func NewOrderHandler(checkoutService *services.CheckoutService) *OrderHandler {
	return &OrderHandler{
		checkoutService: checkoutService,
	}
}

type ConfirmPaymentRequest struct {
	TxHash string `json:"tx_hash"`
}

type ConfirmPaymentResponse struct {
	OrderID          string             `json:"order_id"`
	Status           models.OrderStatus `json:"status"`
	TxHash           string             `json:"tx_hash,omitempty"`
	AlreadyConfirmed bool               `json:"already_confirmed"`
	Message          string             `json:"message"`
	AmazonURL        string             `json:"amazon_url"`
}

// POST /orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationErrorResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "request body"), nil)
		return
	}
	req.IdempotencyKey = c.GetString("idempotency_key")

	result, err := h.checkoutService.Checkout(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	if result.Status == models.OrderStatusPaid {
		result.FulfillmentNote = i18n.T(lang, i18n.KeyOrderFulfillmentNote)
	}

	utils.CreatedResponse(c, result)
}

// POST /orders/:id/confirm
func (h *OrderHandler) ConfirmPayment(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	// An empty body is allowed; confirming a settled order needs no hash.
	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.ValidationErrorResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "request body"), nil)
		return
	}

	res, err := h.checkoutService.ConfirmPayment(c.Request.Context(), c.Param("id"), req.TxHash)
	if err != nil {
		respondError(c, err)
		return
	}

	message := i18n.T(lang, i18n.KeyOrderConfirmed)
	if res.AlreadyConfirmed {
		message = i18n.T(lang, i18n.KeyOrderAlreadyConfirmed)
	}

	txHash := ""
	if res.Order.SettlementRef != nil {
		txHash = *res.Order.SettlementRef
	}

	utils.SuccessResponse(c, ConfirmPaymentResponse{
		OrderID:          res.Order.ID,
		Status:           res.Order.Status,
		TxHash:           txHash,
		AlreadyConfirmed: res.AlreadyConfirmed,
		Message:          message,
		AmazonURL:        res.Order.AmazonURL(),
	})
}

// GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.checkoutService.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, order)
}

// PATCH /orders/:id (admin)
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.FulfillmentUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationErrorResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "request body"), nil)
		return
	}

	order, err := h.checkoutService.UpdateFulfillment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, order, gin.H{"message": i18n.T(lang, i18n.KeyOrderUpdated)})
}

// GET /orders (admin)
func (h *OrderHandler) ListOrders(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	query := services.OrderQuery{Limit: params.Limit, Offset: params.Offset()}
	if status := c.Query("status"); status != "" {
		s := models.OrderStatus(status)
		query.Status = &s
	}

	orders, total, err := h.checkoutService.ListOrders(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(orders, total, params)
	utils.PaginatedResponse(c, result)
}
