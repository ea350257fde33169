package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/invsaas/backend/internal/infrastructure/logger"
	"github.com/invsaas/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// PermissionConfig customizes permission checks. Both fields are optional.
type PermissionConfig struct {
	// Logger receives denials; defaults to the request's context logger
	Logger *zap.Logger
	// OnDenied replaces the 403 response
	OnDenied func(c *gin.Context, requiredPerms []string)
}

// RequirePermission lets the request through only when the token grants permission.
// It must run after the JWT middleware.
func RequirePermission(permission string) gin.HandlerFunc {
	return RequireAnyPermissionWithConfig(PermissionConfig{}, permission)
}

// RequirePermissionWithConfig is RequirePermission with custom config
func RequirePermissionWithConfig(permission string, cfg PermissionConfig) gin.HandlerFunc {
	return RequireAnyPermissionWithConfig(cfg, permission)
}

// RequireAnyPermission lets the request through when the token grants at least one of permissions
func RequireAnyPermission(permissions ...string) gin.HandlerFunc {
	return RequireAnyPermissionWithConfig(PermissionConfig{}, permissions...)
}

// RequireAnyPermissionWithConfig is RequireAnyPermission with custom config
func RequireAnyPermissionWithConfig(cfg PermissionConfig, permissions ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims != nil && claims.HasAnyPermission(permissions...) {
			c.Next()
			return
		}

		if cfg.OnDenied != nil {
			cfg.OnDenied(c, permissions)
			return
		}

		log := cfg.Logger
		if log == nil {
			log = logger.L(c.Request.Context())
		}
		fields := []zap.Field{
			zap.Strings("required_permissions", permissions),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		}
		if claims == nil {
			log.Warn("Permission denied: no claims on request, is the JWT middleware missing?", fields...)
		} else {
			log.Warn("Permission denied", append(fields,
				zap.String("user_id", claims.UserID),
				zap.Strings("user_permissions", claims.Permissions),
			)...)
		}

		c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeForbidden,
			"Access denied: insufficient permissions",
			c.GetString(RequestIDKey),
		))
	}
}
