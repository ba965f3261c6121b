// internal/middleware/auth.go
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/javajoker/agent-commerce/internal/config"
	"github.com/javajoker/agent-commerce/internal/utils"
)

const AdminKeyHeader = "X-Admin-Key"

// AdminKeyRequired guards admin routes with the shared secret. With no key
// configured every request is rejected.
func AdminKeyRequired(cfg config.AdminConfig) gin.HandlerFunc {
	if cfg.Key == "" && cfg.KeyHash == "" {
		logrus.Warn("No admin key configured; admin routes are disabled")
	}

	return func(c *gin.Context) {
		provided := c.GetHeader(AdminKeyHeader)
		if provided == "" || !adminKeyMatches(cfg, provided) {
			logrus.WithFields(logrus.Fields{
				"path": c.Request.URL.Path,
				"ip":   c.ClientIP(),
			}).Warn("Rejected admin request")

			utils.UnauthorizedResponse(c, "")
			c.Abort()
			return
		}

		c.Set("admin", true)
		c.Next()
	}
}

func adminKeyMatches(cfg config.AdminConfig, provided string) bool {
	if cfg.KeyHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(cfg.KeyHash), []byte(provided)) == nil
	}
	if cfg.Key == "" {
		return false
	}
	return utils.SecretsEqual(cfg.Key, provided)
}
