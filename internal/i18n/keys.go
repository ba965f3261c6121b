// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Authentication
	KeyAuthAdminRequired = "auth.admin_required"

	// Products
	KeyProductNotFound   = "product.not_found"
	KeyProductOutOfStock = "product.out_of_stock"

	// Orders
	KeyOrderNotFound          = "order.not_found"
	KeyOrderConfirmed         = "order.confirmed"
	KeyOrderAlreadyConfirmed  = "order.already_confirmed"
	KeyOrderFulfillmentNote   = "order.fulfillment_note"
	KeyOrderUpdated           = "order.updated"
	KeyOrderInvalidOperation  = "order.invalid_operation"
	KeyOrderInvalidTransition = "order.invalid_transition"

	// Payments
	KeyPaymentDeclined     = "payment.declined"
	KeyPaymentGatewayError = "payment.gateway_error"

	// Requests
	KeyValidationInvalid    = "validation.invalid"
	KeyIdempotencyInFlight  = "idempotency.in_flight"
	KeyIdempotencyKeyReused = "idempotency.key_reused"
	KeyRateLimitExceeded    = "rate_limit.exceeded"
	KeyInternalError        = "internal.error"
)
