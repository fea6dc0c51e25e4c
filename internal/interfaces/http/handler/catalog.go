package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zava/retail-backend/internal/application/catalog"
	"github.com/zava/retail-backend/internal/infrastructure/logger"
	"github.com/zava/retail-backend/internal/interfaces/http/dto"
)

// CatalogHandler serves the public storefront endpoints.
type CatalogHandler struct {
	catalog *catalog.Service
}

// NewCatalogHandler creates a catalog handler.
func NewCatalogHandler(catalogService *catalog.Service) *CatalogHandler {
	return &CatalogHandler{catalog: catalogService}
}

// RegisterRoutes registers the storefront routes on the API group.
func (h *CatalogHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stores", h.Stores)
	rg.GET("/categories", h.Categories)

	products := rg.Group("/products")
	products.GET("/featured", h.FeaturedProducts)
	products.GET("/category/:category", h.ProductsByCategory)
	products.GET("/sku/:sku", h.ProductBySKU)
	products.GET("/:product_id", h.ProductByID)
}

// Stores lists all store locations including the online store.
func (h *CatalogHandler) Stores(c *gin.Context) {
	stores, err := h.catalog.Stores(c.Request.Context())
	if err != nil {
		internalError(c, "fetching stores", err)
		return
	}
	c.JSON(http.StatusOK, stores)
}

// Categories lists the product categories.
func (h *CatalogHandler) Categories(c *gin.Context) {
	categories, err := h.catalog.Categories(c.Request.Context())
	if err != nil {
		internalError(c, "fetching categories", err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// FeaturedProducts returns the highest margin products for the homepage.
func (h *CatalogHandler) FeaturedProducts(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 8, 1, 50)
	if !ok {
		return
	}
	products, err := h.catalog.Featured(c.Request.Context(), limit)
	if err != nil {
		internalError(c, "fetching featured products", err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// ProductsByCategory lists products in a category with pagination.
func (h *CatalogHandler) ProductsByCategory(c *gin.Context) {
	category := c.Param("category")
	limit, ok := queryInt(c, "limit", 50, 1, 100)
	if !ok {
		return
	}
	offset, ok := queryMin(c, "offset", 0, 0)
	if !ok {
		return
	}

	products, err := h.catalog.ByCategory(c.Request.Context(), category, limit, offset)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			dto.AbortWithDetail(c, http.StatusNotFound,
				fmt.Sprintf("No products found in category '%s'", category))
			return
		}
		internalError(c, "fetching products by category", err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// ProductByID returns a single product with full details.
func (h *CatalogHandler) ProductByID(c *gin.Context) {
	productID, err := strconv.Atoi(c.Param("product_id"))
	if err != nil {
		dto.AbortWithDetail(c, http.StatusUnprocessableEntity, "Product ID must be an integer")
		return
	}

	product, err := h.catalog.ByID(c.Request.Context(), productID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			dto.AbortWithDetail(c, http.StatusNotFound,
				fmt.Sprintf("Product with ID %d not found", productID))
			return
		}
		internalError(c, "fetching product by id", err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// ProductBySKU returns a single product looked up by SKU.
func (h *CatalogHandler) ProductBySKU(c *gin.Context) {
	sku := c.Param("sku")
	product, err := h.catalog.BySKU(c.Request.Context(), sku)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			dto.AbortWithDetail(c, http.StatusNotFound,
				fmt.Sprintf("Product with SKU '%s' not found", sku))
			return
		}
		internalError(c, "fetching product by sku", err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// queryInt parses an integer query parameter with a default and an
// inclusive range. It writes the error response itself and reports
// whether the value is usable.
func queryInt(c *gin.Context, name string, def, min, max int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < min || value > max {
		dto.AbortWithDetail(c, http.StatusUnprocessableEntity,
			fmt.Sprintf("Parameter '%s' must be an integer between %d and %d", name, min, max))
		return 0, false
	}
	return value, true
}

// queryMin parses an integer query parameter with a default and a lower
// bound only.
func queryMin(c *gin.Context, name string, def, min int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < min {
		dto.AbortWithDetail(c, http.StatusUnprocessableEntity,
			fmt.Sprintf("Parameter '%s' must be an integer greater than or equal to %d", name, min))
		return 0, false
	}
	return value, true
}

func internalError(c *gin.Context, action string, err error) {
	logger.L(c.Request.Context()).Error("request failed",
		zap.String("action", action),
		zap.Error(err))
	dto.AbortWithDetail(c, http.StatusInternalServerError, "Internal server error")
}
