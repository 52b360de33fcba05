package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/openbooks/backend/internal/infrastructure/logger"
	"github.com/openbooks/backend/internal/interfaces/http/dto"
)

// TenantIDHeader is the HTTP header carrying the tenant ID
const TenantIDHeader = "X-Tenant-ID"

const tenantContextKey = "tenant_id"

// RequireTenant rejects requests without a valid tenant ID header. Every
// ledger route is tenant-scoped; there is no cross-tenant access.
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(TenantIDHeader)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(
				dto.ErrCodeUnauthorized, "Missing "+TenantIDHeader+" header", GetRequestID(c)))
			return
		}

		tenantID, err := uuid.Parse(raw)
		if err != nil || tenantID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(
				dto.ErrCodeUnauthorized, "Invalid "+TenantIDHeader+" header", GetRequestID(c)))
			return
		}

		c.Set(tenantContextKey, tenantID)
		c.Request = c.Request.WithContext(logger.WithTenantID(c.Request.Context(), tenantID.String()))

		c.Next()
	}
}

// GetTenantID extracts the tenant ID set by RequireTenant
func GetTenantID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(tenantContextKey)
	if !exists {
		return uuid.Nil, false
	}
	tenantID, ok := value.(uuid.UUID)
	return tenantID, ok
}
