// internal/middleware/idempotency.go
package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/agent-commerce/internal/i18n"
	"github.com/javajoker/agent-commerce/internal/idempotency"
	"github.com/javajoker/agent-commerce/internal/utils"
)

const (
	IdempotencyKeyHeader  = "Idempotency-Key"
	IdempotentReplayedHdr = "Idempotent-Replayed"
	maxIdempotencyKeyLen  = 255
)

// Idempotency replays the stored response for a repeated Idempotency-Key.
// Successful responses and payment declines are stored; anything else
// releases the key so the request can be retried. A key reused with a
// different body is rejected with 422.
func Idempotency(store idempotency.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLen {
			utils.ValidationErrorResponse(c, "", []utils.ValidationError{{
				Field:   "Idempotency-Key",
				Tag:     "max",
				Message: "Idempotency-Key must be at most 255 characters",
			}})
			c.Abort()
			return
		}

		var body []byte
		if c.Request.Body != nil {
			b, err := io.ReadAll(c.Request.Body)
			if err != nil {
				utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, "body"), nil)
				c.Abort()
				return
			}
			body = b
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}
		fingerprint := idempotency.Fingerprint(body)

		ctx := c.Request.Context()
		rec, err := store.Begin(ctx, key)
		switch {
		case errors.Is(err, idempotency.ErrInFlight):
			utils.ConflictResponse(c, "IDEMPOTENCY_IN_FLIGHT", i18n.T(utils.GetLangFromContext(c), i18n.KeyIdempotencyInFlight))
			c.Abort()
			return
		case err != nil:
			logrus.WithError(err).Error("Idempotency store unavailable")
			utils.InternalErrorResponse(c, "")
			c.Abort()
			return
		case rec != nil && rec.Fingerprint != fingerprint:
			utils.UnprocessableEntityResponse(c, "IDEMPOTENCY_KEY_REUSED", i18n.T(utils.GetLangFromContext(c), i18n.KeyIdempotencyKeyReused))
			c.Abort()
			return
		case rec != nil:
			c.Header(IdempotentReplayedHdr, "true")
			c.Data(rec.StatusCode, "application/json; charset=utf-8", rec.Body)
			c.Abort()
			return
		}

		c.Set("idempotency_key", key)

		blw := &bodyLogWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		// The outcome must be stored even if the client has gone away.
		ctx = context.WithoutCancel(ctx)
		status := blw.Status()
		if status < http.StatusMultipleChoices || status == http.StatusPaymentRequired {
			err = store.Complete(ctx, key, idempotency.Record{
				StatusCode:  status,
				Body:        blw.body.Bytes(),
				Fingerprint: fingerprint,
			})
		} else {
			err = store.Abandon(ctx, key)
		}
		if err != nil {
			logrus.WithError(err).WithField("status", status).Error("Failed to finalize idempotency key")
		}
	}
}
