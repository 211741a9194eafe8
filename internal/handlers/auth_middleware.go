package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/mentora-service/internal/auth"
	"github.com/SAP-F-2025/mentora-service/internal/models"
	"github.com/SAP-F-2025/mentora-service/internal/utils"
)

const callerKey = "caller"

// AuthMiddleware resolves bearer tokens through the configured identity provider
type AuthMiddleware struct {
	resolver auth.Resolver
	logger   utils.Logger
}

func NewAuthMiddleware(resolver auth.Resolver, logger utils.Logger) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver, logger: logger}
}

// RequireAuth rejects requests without a valid bearer token and stores the caller in the context
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Missing or malformed authorization header",
			})
			return
		}

		caller, err := am.resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
					Message: "Invalid or expired token",
				})
				return
			}
			utils.GetLogger(c, am.logger).Error("Failed to resolve caller", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
				Message: "Internal server error",
			})
			return
		}

		c.Set("user_id", caller.UserID)
		c.Set("user_role", caller.Role)
		c.Set(callerKey, caller)

		c.Next()
	}
}

// RequireRoleMiddleware checks if user has required role
func (am *AuthMiddleware) RequireRoleMiddleware(requiredRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := GetUserRoleFromContext(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "User not authenticated",
			})
			return
		}

		for _, required := range requiredRoles {
			if role == required {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"reason": fmt.Sprintf("requires role %v", requiredRoles),
			},
		})
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// GetCallerFromContext extracts the caller set by RequireAuth
func GetCallerFromContext(c *gin.Context) (*models.Caller, error) {
	v, exists := c.Get(callerKey)
	if !exists {
		return nil, fmt.Errorf("caller not found in context")
	}

	caller, ok := v.(*models.Caller)
	if !ok || caller.UserID == "" {
		return nil, fmt.Errorf("invalid caller type in context")
	}

	return caller, nil
}

// GetUserRoleFromContext extracts user role from Gin context
func GetUserRoleFromContext(c *gin.Context) (models.UserRole, error) {
	userRole, exists := c.Get("user_role")
	if !exists {
		return "", fmt.Errorf("user role not found in context")
	}

	role, ok := userRole.(models.UserRole)
	if !ok {
		return "", fmt.Errorf("invalid user role type in context")
	}

	return role, nil
}
