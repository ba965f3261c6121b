// internal/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/agent-commerce/internal/i18n"
	"github.com/javajoker/agent-commerce/internal/services"
	"github.com/javajoker/agent-commerce/internal/utils"
)

// respondError translates a service error into its API error code. Only
// GATEWAY_ERROR reports an unknown outcome.
func respondError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	var (
		validationErr *services.ValidationError
		notFoundErr   *services.NotFoundError
		declinedErr   *services.PaymentDeclinedError
		transitionErr *services.InvalidTransitionError
	)

	switch {
	case errors.As(err, &validationErr):
		utils.ValidationErrorResponse(c, validationErr.Message, validationErr.Fields)
	case errors.As(err, &notFoundErr):
		utils.NotFoundResponse(c, notFoundErr.Resource)
	case errors.As(err, &declinedErr):
		utils.PaymentDeclinedResponse(c, gin.H{
			"status":       declinedErr.Status,
			"decline_code": declinedErr.DeclineCode,
			"reason":       declinedErr.Message,
		})
	case errors.Is(err, services.ErrGatewayError):
		utils.GatewayErrorResponse(c)
	case errors.Is(err, services.ErrInvalidOperation):
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_OPERATION", i18n.T(lang, i18n.KeyOrderInvalidOperation), gin.H{"reason": err.Error()})
	case errors.As(err, &transitionErr):
		utils.ErrorResponse(c, http.StatusConflict, "INVALID_TRANSITION",
			i18n.T(lang, i18n.KeyOrderInvalidTransition, transitionErr.From, transitionErr.To),
			gin.H{"from": transitionErr.From, "to": transitionErr.To})
	case errors.Is(err, services.ErrUnauthorized):
		utils.UnauthorizedResponse(c, "")
	default:
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("Unhandled error")
		utils.InternalErrorResponse(c, "")
	}
}
