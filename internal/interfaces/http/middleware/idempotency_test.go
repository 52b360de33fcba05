package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/openbooks/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
)

func setupIdempotencyRouter(store *cache.InMemoryIdempotencyStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequireTenant(), Idempotency(store, time.Minute))
	engine.POST("/resource", func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	engine.GET("/resource", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return engine
}

func TestIdempotency(t *testing.T) {
	tenantID := uuid.New().String()

	doPost := func(engine *gin.Engine, tenant, key string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/resource", nil)
		req.Header.Set(TenantIDHeader, tenant)
		if key != "" {
			req.Header.Set(IdempotencyKeyHeader, key)
		}
		engine.ServeHTTP(w, req)
		return w
	}

	t.Run("first request passes, replay conflicts", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		engine := setupIdempotencyRouter(store)

		first := doPost(engine, tenantID, "retry-1")
		assert.Equal(t, http.StatusCreated, first.Code)

		replay := doPost(engine, tenantID, "retry-1")
		assert.Equal(t, http.StatusConflict, replay.Code)
		assert.Contains(t, replay.Body.String(), "already processed")
	})

	t.Run("keys are scoped per tenant", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		engine := setupIdempotencyRouter(store)

		first := doPost(engine, tenantID, "shared-key")
		assert.Equal(t, http.StatusCreated, first.Code)

		otherTenant := doPost(engine, uuid.New().String(), "shared-key")
		assert.Equal(t, http.StatusCreated, otherTenant.Code)
	})

	t.Run("requests without the header pass through", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		engine := setupIdempotencyRouter(store)

		assert.Equal(t, http.StatusCreated, doPost(engine, tenantID, "").Code)
		assert.Equal(t, http.StatusCreated, doPost(engine, tenantID, "").Code)
	})

	t.Run("GET requests are never replay-checked", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		engine := setupIdempotencyRouter(store)

		for range 2 {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/resource", nil)
			req.Header.Set(TenantIDHeader, tenantID)
			req.Header.Set(IdempotencyKeyHeader, "get-key")
			engine.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
		}
	})
}
