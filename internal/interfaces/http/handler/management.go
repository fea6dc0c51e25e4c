package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/zava/retail-backend/internal/application/management"
	"github.com/zava/retail-backend/internal/infrastructure/auth"
	"github.com/zava/retail-backend/internal/interfaces/http/dto"
	"github.com/zava/retail-backend/internal/interfaces/http/middleware"
)

// ManagementHandler serves the authenticated management console endpoints.
type ManagementHandler struct {
	management *management.Service
	tokens     *auth.JWTService
}

// NewManagementHandler creates a management handler.
func NewManagementHandler(managementService *management.Service, tokens *auth.JWTService) *ManagementHandler {
	return &ManagementHandler{management: managementService, tokens: tokens}
}

// RegisterRoutes registers the management routes on the API group. All
// routes require a valid bearer token.
func (h *ManagementHandler) RegisterRoutes(rg *gin.RouterGroup) {
	mgmt := rg.Group("/management")
	mgmt.Use(middleware.RequireAuth(h.tokens))
	mgmt.GET("/dashboard/top-categories", h.TopCategories)
	mgmt.GET("/insights", h.Insights)
	mgmt.GET("/suppliers", h.Suppliers)
	mgmt.GET("/inventory", h.Inventory)
	mgmt.GET("/products", h.Products)
}

// actor builds the management actor from the validated token claims.
func (h *ManagementHandler) actor(c *gin.Context) (management.Actor, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		dto.AbortWithDetail(c, http.StatusUnauthorized, "Invalid authentication credentials")
		return management.Actor{}, false
	}
	return management.Actor{
		Username: claims.Username,
		Role:     claims.Role,
		StoreID:  claims.StoreID,
	}, true
}

// TopCategories ranks categories by retail value of stock on hand.
func (h *ManagementHandler) TopCategories(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", 5, 1, 10)
	if !ok {
		return
	}
	result, err := h.management.TopCategories(c.Request.Context(), actor, limit)
	if err != nil {
		internalError(c, "fetching top categories", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Insights returns the weekly insights briefing for the current user.
func (h *ManagementHandler) Insights(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	result, err := h.management.Insights(c.Request.Context(), actor)
	if err != nil {
		internalError(c, "fetching insights", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Suppliers lists active suppliers with their product categories.
func (h *ManagementHandler) Suppliers(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	result, err := h.management.Suppliers(c.Request.Context(), actor)
	if err != nil {
		internalError(c, "fetching suppliers", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Inventory returns stock positions and summary aggregates.
func (h *ManagementHandler) Inventory(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	query := management.InventoryQuery{Category: c.Query("category")}
	var ok2 bool
	if query.StoreID, ok2 = queryIntPtr(c, "store_id"); !ok2 {
		return
	}
	if query.ProductID, ok2 = queryIntPtr(c, "product_id"); !ok2 {
		return
	}
	if query.LowStockOnly, ok2 = queryBool(c, "low_stock_only", false); !ok2 {
		return
	}
	if query.LowStockThreshold, ok2 = queryMin(c, "low_stock_threshold", 0, 0); !ok2 {
		return
	}
	if query.Limit, ok2 = queryMin(c, "limit", 0, 1); !ok2 {
		return
	}

	result, err := h.management.Inventory(c.Request.Context(), actor, query)
	if err != nil {
		internalError(c, "fetching inventory", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Products lists products with supplier and stock details.
func (h *ManagementHandler) Products(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	query := management.ProductQuery{
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}
	var ok2 bool
	if query.SupplierID, ok2 = queryIntPtr(c, "supplier_id"); !ok2 {
		return
	}
	if query.Limit, ok2 = queryMin(c, "limit", 0, 1); !ok2 {
		return
	}
	if query.Offset, ok2 = queryMin(c, "offset", 0, 0); !ok2 {
		return
	}
	if raw := c.Query("discontinued"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			dto.AbortWithDetail(c, http.StatusUnprocessableEntity,
				"Parameter 'discontinued' must be a boolean")
			return
		}
		query.Discontinued = &value
	}

	result, err := h.management.Products(c.Request.Context(), actor, query)
	if err != nil {
		internalError(c, "fetching products", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// queryIntPtr parses an optional integer query parameter, returning nil
// when absent.
func queryIntPtr(c *gin.Context, name string) (*int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		dto.AbortWithDetail(c, http.StatusUnprocessableEntity,
			"Parameter '"+name+"' must be an integer")
		return nil, false
	}
	return &value, true
}

// queryBool parses an optional boolean query parameter.
func queryBool(c *gin.Context, name string, def bool) (bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		dto.AbortWithDetail(c, http.StatusUnprocessableEntity,
			"Parameter '"+name+"' must be a boolean")
		return false, false
	}
	return value, true
}
