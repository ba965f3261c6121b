// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// I18nMiddleware picks the first Accept-Language tag and stores its base
// language. Unknown languages fall back to English at lookup time.
func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := "en"

		if header := c.GetHeader("Accept-Language"); header != "" {
			first := strings.TrimSpace(strings.Split(strings.Split(header, ",")[0], ";")[0])
			first = strings.ReplaceAll(first, "_", "-")
			if base := strings.ToLower(strings.Split(first, "-")[0]); base != "" && base != "*" {
				lang = base
			}
		}

		c.Set("lang", lang)
		c.Next()
	}
}
