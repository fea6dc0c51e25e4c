package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zava/retail-backend/internal/infrastructure/telemetry"
)

// ProfilingConfig holds configuration for the profiling middleware.
type ProfilingConfig struct {
	// Enabled controls whether profiling labels are added to requests.
	Enabled bool
	// SkipPaths are paths that don't need profiling labels (e.g., health checks).
	SkipPaths []string
	// SkipPathPrefixes are path prefixes that don't need profiling labels.
	SkipPathPrefixes []string
}

// DefaultProfilingConfig returns default profiling middleware configuration.
func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled: true,
		SkipPaths: []string{
			"/health",
			"/api/health",
		},
		SkipPathPrefixes: []string{
			"/ws/",
		},
	}
}

// Profiling returns profiling middleware with default configuration.
// The middleware adds Pyroscope labels to the request context so profiles
// can be sliced by controller, route, method, and store in the Pyroscope UI.
func Profiling() gin.HandlerFunc {
	return ProfilingWithConfig(DefaultProfilingConfig())
}

// ProfilingWithConfig returns profiling middleware with custom configuration.
func ProfilingWithConfig(cfg ProfilingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path

		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath {
				c.Next()
				return
			}
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		labels := profilingLabels(c)

		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

// profilingLabels extracts profiling labels from the gin context. All of
// them are low cardinality: the route is the matched pattern rather than
// the raw path, and store IDs number a handful of pop-up locations.
func profilingLabels(c *gin.Context) map[string]string {
	labels := make(map[string]string, 4)

	if method := c.Request.Method; method != "" {
		labels[telemetry.ProfilingLabelMethod] = method
	}

	route := c.FullPath()
	if route != "" {
		labels[telemetry.ProfilingLabelRoute] = route
	}

	if controller := controllerFromRoute(route); controller != "" {
		labels[telemetry.ProfilingLabelController] = controller
	}

	if storeID := storeIDFromContext(c); storeID != "" {
		labels[telemetry.ProfilingLabelStoreID] = storeID
	}

	return labels
}

// controllerFromRoute derives a controller name from the route pattern.
// Example: "/api/products/:id" -> "products"
// Example: "/api/inventory/store/:store_id" -> "inventory"
func controllerFromRoute(route string) string {
	if route == "" {
		return ""
	}

	parts := strings.Split(route, "/")
	for i, part := range parts {
		if part == "" || part == "api" || part == "ws" {
			continue
		}
		if strings.HasPrefix(part, ":") {
			continue
		}

		// A segment followed by a path parameter is the resource itself,
		// e.g. "/api/products/:id" -> products.
		if i+1 < len(parts) && strings.HasPrefix(parts[i+1], ":") {
			return part
		}
		return part
	}

	return ""
}
