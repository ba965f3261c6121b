// internal/handlers/product.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/agent-commerce/internal/i18n"
	"github.com/javajoker/agent-commerce/internal/services"
	"github.com/javajoker/agent-commerce/internal/utils"
)

type ProductHandler struct {
	catalogService *services.CatalogService
}

func NewProductHandler(catalogService *services.CatalogService) *ProductHandler {
	return &ProductHandler{
		catalogService: catalogService,
	}
}

// GET /products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	// Out-of-stock products are listed only on request.
	inStockOnly := true
	if inStockStr := c.Query("in_stock"); inStockStr != "" {
		v, err := strconv.ParseBool(inStockStr)
		if err != nil {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "in_stock"), nil)
			return
		}
		inStockOnly = v
	}

	products, err := h.catalogService.ListProducts(c.Request.Context(), inStockOnly)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, products, gin.H{"count": len(products)})
}

// GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.catalogService.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, product)
}
