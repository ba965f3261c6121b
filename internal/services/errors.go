// internal/services/errors.go
package services

import (
	"errors"
	"fmt"

	"github.com/javajoker/agent-commerce/internal/models"
	"github.com/javajoker/agent-commerce/internal/utils"
)

// Sentinels for the checkout error taxonomy. Only ErrGatewayError means the
// outcome is unknown; every other error guarantees nothing was charged or
// persisted by the failing call.
var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrPaymentDeclined   = errors.New("payment declined")
	ErrGatewayError      = errors.New("payment gateway error")
	ErrInvalidOperation  = errors.New("invalid operation")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrUnauthorized      = errors.New("unauthorized")
)

type ValidationError struct {
	Message string
	Fields  []utils.ValidationError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func newValidationError(message string, err error) *ValidationError {
	return &ValidationError{Message: message, Fields: utils.GetValidationErrors(err)}
}

type NotFoundError struct {
	Resource string // "product" or "order"
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// PaymentDeclinedError means the gateway answered and refused the charge.
type PaymentDeclinedError struct {
	Status      string
	DeclineCode string
	Message     string
}

func (e *PaymentDeclinedError) Error() string {
	if e.DeclineCode != "" {
		return fmt.Sprintf("payment declined: %s (%s)", e.Status, e.DeclineCode)
	}
	return fmt.Sprintf("payment declined: %s", e.Status)
}

func (e *PaymentDeclinedError) Unwrap() error { return ErrPaymentDeclined }

// GatewayError means the gateway could not be reached or rejected our
// credentials. The charge may or may not have happened.
type GatewayError struct {
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway error: %v", e.Err)
}

func (e *GatewayError) Unwrap() []error { return []error{ErrGatewayError, e.Err} }

type InvalidTransitionError struct {
	From models.OrderStatus
	To   models.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }
