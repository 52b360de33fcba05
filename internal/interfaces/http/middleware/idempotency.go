package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/openbooks/backend/internal/domain/shared"
	"github.com/openbooks/backend/internal/interfaces/http/dto"
)

// IdempotencyKeyHeader is the HTTP header carrying a client retry key
const IdempotencyKeyHeader = "Idempotency-Key"

// Idempotency rejects a replayed mutating request carrying an already-seen
// Idempotency-Key. The key is scoped per tenant. Requests without the
// header pass through; operations with their own replay semantics (posting
// keys, allocation operation ids) stay safe either way.
func Idempotency(store shared.IdempotencyStore, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" || c.Request.Method == http.MethodGet {
			c.Next()
			return
		}

		tenantID, _ := GetTenantID(c)
		scopedKey := tenantID.String() + ":" + key

		firstTime, err := store.MarkProcessed(c.Request.Context(), scopedKey, ttl)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponse(
				dto.ErrCodeInternal, "Idempotency check failed", GetRequestID(c)))
			return
		}
		if !firstTime {
			c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponse(
				dto.ErrCodeConflict, "Request with this Idempotency-Key was already processed", GetRequestID(c)))
			return
		}

		c.Next()
	}
}
