package middleware

import (
	"net/http"
	"strings"

	"github.com/billops/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Context keys and headers used for tenant and actor identification
const (
	TenantIDKey     = "tenant_id"
	ActorIDKey      = "actor_id"
	TenantHeaderKey = "X-Tenant-ID"
	ActorHeaderKey  = "X-Actor-ID"
)

// TenantMiddlewareConfig holds configuration for tenant middleware
type TenantMiddlewareConfig struct {
	// SkipPaths are paths that don't require tenant context (e.g., health check)
	SkipPaths []string
	// Required determines if tenant context is mandatory
	Required bool
	// ActorRequired determines if the acting user header is mandatory
	ActorRequired bool
	// Logger for middleware logging
	Logger *zap.Logger
}

// DefaultTenantConfig returns default tenant middleware configuration
func DefaultTenantConfig() TenantMiddlewareConfig {
	return TenantMiddlewareConfig{
		SkipPaths:     []string{"/health", "/healthz", "/ready", "/api/v1/system"},
		Required:      true,
		ActorRequired: false,
		Logger:        nil,
	}
}

// TenantMiddleware extracts tenant and actor identification from request headers
func TenantMiddleware() gin.HandlerFunc {
	return TenantMiddlewareWithConfig(DefaultTenantConfig())
}

// TenantMiddlewareWithConfig returns tenant middleware with custom configuration.
// The tenant ID comes from the X-Tenant-ID header and the acting user from
// X-Actor-ID. Both must be UUIDs when present.
func TenantMiddlewareWithConfig(cfg TenantMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath || strings.HasPrefix(path, skipPath+"/") {
				c.Next()
				return
			}
		}

		tenantID := c.GetHeader(TenantHeaderKey)
		actorID := c.GetHeader(ActorHeaderKey)

		if tenantID != "" {
			if _, err := uuid.Parse(tenantID); err != nil {
				respondUnauthorized(c, "Invalid tenant ID format")
				return
			}
		}
		if actorID != "" {
			if _, err := uuid.Parse(actorID); err != nil {
				respondUnauthorized(c, "Invalid actor ID format")
				return
			}
		}

		if tenantID == "" && cfg.Required {
			respondUnauthorized(c, "Tenant identification required")
			return
		}
		if actorID == "" && cfg.ActorRequired {
			respondUnauthorized(c, "Actor identification required")
			return
		}

		ctx := c.Request.Context()
		log := logger.FromContext(ctx)

		if tenantID != "" {
			c.Set(TenantIDKey, tenantID)
			ctx, log = logger.WithTenantID(ctx, log, tenantID)
		}
		if actorID != "" {
			c.Set(ActorIDKey, actorID)
			ctx, log = logger.WithActorID(ctx, log, actorID)
		}
		c.Request = c.Request.WithContext(ctx)

		if cfg.Logger != nil && tenantID != "" {
			cfg.Logger.Debug("Tenant identified",
				zap.String("tenant_id", tenantID),
			)
		}

		c.Next()
	}
}

// respondUnauthorized sends an unauthorized response
func respondUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "ERR_UNAUTHORIZED",
			"message": message,
		},
	})
}

// GetTenantID retrieves the tenant ID from gin.Context
func GetTenantID(c *gin.Context) string {
	if tenantID, exists := c.Get(TenantIDKey); exists {
		if tid, ok := tenantID.(string); ok {
			return tid
		}
	}
	return ""
}

// GetTenantUUID retrieves the tenant ID as UUID from gin.Context
func GetTenantUUID(c *gin.Context) (uuid.UUID, error) {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(tenantID)
}

// GetActorID retrieves the acting user ID from gin.Context
func GetActorID(c *gin.Context) string {
	if actorID, exists := c.Get(ActorIDKey); exists {
		if aid, ok := actorID.(string); ok {
			return aid
		}
	}
	return ""
}

// OptionalTenantMiddleware creates middleware that doesn't require tenant
func OptionalTenantMiddleware() gin.HandlerFunc {
	cfg := DefaultTenantConfig()
	cfg.Required = false
	return TenantMiddlewareWithConfig(cfg)
}
