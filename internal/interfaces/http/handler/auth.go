package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zava/retail-backend/internal/application/identity"
	"github.com/zava/retail-backend/internal/infrastructure/logger"
	"github.com/zava/retail-backend/internal/interfaces/http/dto"
)

// LoginRequest carries the management login credentials.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthHandler serves the management login endpoint.
type AuthHandler struct {
	identity *identity.Service
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(identityService *identity.Service) *AuthHandler {
	return &AuthHandler{identity: identityService}
}

// RegisterRoutes registers the auth routes on the API group.
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/login", h.Login)
}

// Login authenticates a management user and issues an access token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.AbortWithDetail(c, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	result, err := h.identity.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			dto.AbortWithDetail(c, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		logger.L(c.Request.Context()).Error("login failed",
			zap.String("username", req.Username),
			zap.Error(err))
		dto.AbortWithDetail(c, http.StatusInternalServerError, "Login failed")
		return
	}

	c.JSON(http.StatusOK, result)
}
