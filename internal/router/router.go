// internal/router/router.go
package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/javajoker/agent-commerce/internal/config"
	"github.com/javajoker/agent-commerce/internal/handlers"
	"github.com/javajoker/agent-commerce/internal/i18n"
	"github.com/javajoker/agent-commerce/internal/idempotency"
	"github.com/javajoker/agent-commerce/internal/middleware"
	"github.com/javajoker/agent-commerce/internal/services"
	"github.com/javajoker/agent-commerce/internal/utils"
)

const version = "1.0.0"

type Services struct {
	Catalog     *services.CatalogService
	Checkout    *services.CheckoutService
	Idempotency idempotency.Store
}

func Initialize(cfg *config.Config, svc Services) *gin.Engine {
	// Initialize handlers
	productHandler := handlers.NewProductHandler(svc.Catalog)
	orderHandler := handlers.NewOrderHandler(svc.Checkout)

	limiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)
	adminOnly := middleware.AdminKeyRequired(cfg.Admin)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(cors.New(corsConfig(cfg.Server.AllowOrigins)))
	r.Use(middleware.I18nMiddleware())
	r.Use(limiter.Middleware())

	r.GET("/", func(c *gin.Context) {
		products, err := svc.Catalog.ListProducts(c.Request.Context(), false)
		if err != nil {
			utils.InternalErrorResponse(c, "")
			return
		}
		utils.SuccessResponse(c, gin.H{
			"name":            "agent-commerce",
			"version":         version,
			"products":        len(products),
			"payment_methods": []string{"card", "stablecoin_transfer"},
			"languages":       i18n.GetSupportedLanguages(),
			"endpoints": gin.H{
				"products":      "GET /api/products",
				"product":       "GET /api/products/:id",
				"create_order":  "POST /api/orders",
				"confirm_order": "POST /api/orders/:id/confirm",
				"order_status":  "GET /api/orders/:id",
				"update_order":  "PATCH /api/orders/:id",
				"list_orders":   "GET /api/orders",
				"health":        "GET /api/health",
			},
		})
	})

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "healthy",
				"version": version,
			})
		})

		products := api.Group("/products")
		{
			products.GET("", productHandler.GetProducts)
			products.GET("/:id", productHandler.GetProduct)
		}

		orders := api.Group("/orders")
		{
			orders.POST("", middleware.Idempotency(svc.Idempotency), orderHandler.CreateOrder)
			orders.GET("/:id", orderHandler.GetOrder)
			orders.POST("/:id/confirm", orderHandler.ConfirmPayment)

			// Admin routes
			orders.GET("", adminOnly, orderHandler.ListOrders)
			orders.PATCH("/:id", adminOnly, orderHandler.UpdateOrder)
		}
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept-Language", middleware.AdminKeyHeader, middleware.IdempotencyKeyHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader, middleware.IdempotentReplayedHdr, "X-Total-Count"},
		MaxAge:        12 * time.Hour,
	}

	for _, o := range origins {
		if o == "*" {
			c.AllowAllOrigins = true
			return c
		}
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	return c
}
