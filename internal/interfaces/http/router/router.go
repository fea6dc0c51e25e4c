// Package router wires handler route registrars into the gin engine.
package router

import (
	"github.com/gin-gonic/gin"
)

// RouteRegistrar registers a handler's routes on a router group.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration. API registrars are mounted
// under the /api prefix, root registrars directly on the engine root so
// they can serve paths like /health and /ws/ai-agent/inventory.
type Router struct {
	engine   *gin.Engine
	basePath string
	api      []RouteRegistrar
	root     []RouteRegistrar
}

// RouterOption is a functional option for Router configuration.
type RouterOption func(*Router)

// WithBasePath overrides the API prefix (default "/api").
func WithBasePath(basePath string) RouterOption {
	return func(r *Router) {
		r.basePath = basePath
	}
}

// NewRouter creates a new Router instance.
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, basePath: "/api"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a registrar mounted under the API prefix.
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.api = append(r.api, registrar)
	return r
}

// RegisterRoot adds a registrar mounted at the engine root.
func (r *Router) RegisterRoot(registrar RouteRegistrar) *Router {
	r.root = append(r.root, registrar)
	return r
}

// Setup registers all routes with the engine.
func (r *Router) Setup() {
	api := r.engine.Group(r.basePath)
	for _, registrar := range r.api {
		registrar.RegisterRoutes(api)
	}
	root := r.engine.Group("/")
	for _, registrar := range r.root {
		registrar.RegisterRoutes(root)
	}
}
