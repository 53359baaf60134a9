package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/raetselonkel/labyrinth/internal/core/domain"
	"github.com/raetselonkel/labyrinth/internal/core/port"
)

const (
	usernameKey = "username"
	roleKey     = "role"
)

type errorResponse struct {
	Ok      bool   `json:"ok"`
	Message string `json:"message"`
}

// RequireAuth validates the Authorization header and stores the
// authenticated identity on the request context.
func RequireAuth(tokens port.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				errorResponse{Message: "missing authorization header"})
			return
		}

		scheme, token, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				errorResponse{Message: "invalid authorization format: expected 'Bearer <token>'"})
			return
		}

		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				errorResponse{Message: "missing access token"})
			return
		}

		claims, err := tokens.Parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				errorResponse{Message: "invalid access token"})
			return
		}

		c.Set(usernameKey, claims.Username)
		c.Set(roleKey, claims.Role)

		c.Next()
	}
}

// RequireRole only admits users whose role ranks at least as high as
// the given minimum.
func RequireRole(minimum domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := UserRole(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				errorResponse{Message: "authentication required"})
			return
		}

		if role.Less(minimum) {
			c.AbortWithStatusJSON(http.StatusForbidden,
				errorResponse{Message: "insufficient permissions"})
			return
		}

		c.Next()
	}
}

// Username retrieves the authenticated username from the context.
func Username(c *gin.Context) (string, bool) {
	value, exists := c.Get(usernameKey)
	if !exists {
		return "", false
	}
	username, ok := value.(string)
	return username, ok
}

// UserRole retrieves the authenticated user's role from the context.
func UserRole(c *gin.Context) (domain.Role, bool) {
	value, exists := c.Get(roleKey)
	if !exists {
		return "", false
	}
	role, ok := value.(domain.Role)
	return role, ok
}
