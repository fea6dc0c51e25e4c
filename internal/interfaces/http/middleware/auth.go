package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zava/retail-backend/internal/infrastructure/auth"
	"github.com/zava/retail-backend/internal/infrastructure/logger"
	"github.com/zava/retail-backend/internal/interfaces/http/dto"
)

// Context keys set by RequireAuth.
const (
	ClaimsKey   = "auth_claims"
	UsernameKey = "auth_username"
	RoleKey     = "auth_role"
	StoreIDKey  = "auth_store_id"

	authHeaderKey = "Authorization"
	bearerPrefix  = "Bearer "
)

// RequireAuth validates the bearer token on every request and stores the
// claims in the gin context. Responses match what the dashboard frontend
// expects: a 401 with a detail envelope and a WWW-Authenticate header.
func RequireAuth(tokens *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(authHeaderKey)
		if header == "" || !strings.HasPrefix(header, bearerPrefix) {
			unauthorized(c, "Invalid authentication credentials")
			return
		}

		tokenString := strings.TrimPrefix(header, bearerPrefix)
		claims, err := tokens.ValidateToken(tokenString)
		if err != nil {
			logger.L(c.Request.Context()).Warn("token validation failed",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err))
			unauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(UsernameKey, claims.Username)
		c.Set(RoleKey, claims.Role)
		if claims.StoreID != nil {
			c.Set(StoreIDKey, *claims.StoreID)
		}
		c.Next()
	}
}

func unauthorized(c *gin.Context, detail string) {
	c.Header("WWW-Authenticate", "Bearer")
	dto.AbortWithDetail(c, http.StatusUnauthorized, detail)
}

// GetClaims retrieves the validated token claims from the gin context.
func GetClaims(c *gin.Context) *auth.Claims {
	if value, exists := c.Get(ClaimsKey); exists {
		if claims, ok := value.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}
