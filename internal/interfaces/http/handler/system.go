package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gorm.io/gorm"
)

// ServiceVersion is reported by the root and health endpoints.
const ServiceVersion = "1.0.0"

// SystemHandler serves the root index and health endpoints.
type SystemHandler struct {
	db *gorm.DB
}

// NewSystemHandler creates a system handler. The database handle may be
// nil, in which case health reports the database as disconnected.
func NewSystemHandler(db *gorm.DB) *SystemHandler {
	return &SystemHandler{db: db}
}

// RegisterRoutes registers the public system routes.
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/", h.Root)
	rg.GET("/health", h.Health)
}

// Root returns the service index with the available endpoints.
func (h *SystemHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "Zava Retail API",
		"version": ServiceVersion,
		"status":  "running",
		"endpoints": gin.H{
			"health":               "/health",
			"stores":               "/api/stores",
			"categories":           "/api/categories",
			"featured_products":    "/api/products/featured",
			"products_by_category": "/api/products/category/{category}",
			"product_by_id":        "/api/products/{product_id}",
			"top_categories":       "/api/management/dashboard/top-categories",
			"suppliers":            "/api/management/suppliers",
			"inventory":            "/api/management/inventory",
			"products":             "/api/management/products",
			"ai_agent_inventory":   "/ws/ai-agent/inventory (WebSocket)",
		},
	})
}

// Health reports service and database connectivity status.
func (h *SystemHandler) Health(c *gin.Context) {
	dbStatus := "disconnected"
	if h.db != nil {
		if sqlDB, err := h.db.DB(); err == nil && sqlDB.PingContext(c.Request.Context()) == nil {
			dbStatus = "connected"
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"service":  "retail-api",
		"database": dbStatus,
	})
}
