// internal/utils/validator.go
package utils

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/javajoker/agent-commerce/internal/models"
)

var validate *validator.Validate

var txHashPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	validate.RegisterValidation("tx_hash", validateTxHash)
	validate.RegisterValidation("payment_method", validatePaymentMethod)
	validate.RegisterValidation("order_status", validateOrderStatus)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// IsTxHash reports whether s looks like an EVM transaction hash. It says
// nothing about whether the transaction exists on chain.
func IsTxHash(s string) bool {
	return txHashPattern.MatchString(s)
}

func validateTxHash(fl validator.FieldLevel) bool {
	return IsTxHash(fl.Field().String())
}

func validatePaymentMethod(fl validator.FieldLevel) bool {
	return models.PaymentMethod(fl.Field().String()).Valid()
}

func validateOrderStatus(fl validator.FieldLevel) bool {
	return models.OrderStatus(fl.Field().String()).Valid()
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   fieldPath(e),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

// fieldPath turns "CheckoutRequest.Shipping.Postal" into "shipping.postal".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return strings.ToLower(ns)
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min", "gte":
		return e.Field() + " must be at least " + e.Param()
	case "max", "lte":
		return e.Field() + " must be at most " + e.Param()
	case "url":
		return e.Field() + " must be a valid URL"
	case "tx_hash":
		return "Transaction hash must be 0x followed by 64 hex characters"
	case "payment_method":
		return "Payment method must be card or stablecoin_transfer"
	case "order_status":
		return "Unknown order status"
	default:
		return e.Field() + " is invalid"
	}
}
