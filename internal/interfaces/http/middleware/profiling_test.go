package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestProfiling_Disabled(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(ProfilingWithConfig(ProfilingConfig{Enabled: false}))
	engine.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProfiling_SkipsHealthChecks(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(Profiling())
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProfiling_HandlerStillRunsWithLabels(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var handlerRan bool
	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		c.Set(StoreIDKey, 1)
		c.Next()
	})
	engine.Use(Profiling())
	engine.GET("/api/products/:id", func(c *gin.Context) {
		handlerRan = true
		c.JSON(http.StatusOK, gin.H{"product_id": c.Param("id")})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/products/7", nil)
	engine.ServeHTTP(w, req)

	assert.True(t, handlerRan)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestControllerFromRoute(t *testing.T) {
	tests := []struct {
		route string
		want  string
	}{
		{"/api/products/:id", "products"},
		{"/api/products/sku/:sku", "products"},
		{"/api/inventory/store/:store_id", "inventory"},
		{"/api/stores", "stores"},
		{"/health", "health"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.route, func(t *testing.T) {
			assert.Equal(t, tt.want, controllerFromRoute(tt.route))
		})
	}
}
