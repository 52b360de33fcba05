package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	setup := func() (*gin.Engine, *string) {
		engine := gin.New()
		var seen string
		engine.Use(RequestID())
		engine.GET("/ping", func(c *gin.Context) {
			seen = GetRequestID(c)
			c.Status(http.StatusOK)
		})
		return engine, &seen
	}

	t.Run("generates an id when none supplied", func(t *testing.T) {
		engine, seen := setup()

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		require.NotEmpty(t, *seen)
		_, err := uuid.Parse(*seen)
		assert.NoError(t, err)
		assert.Equal(t, *seen, w.Header().Get(RequestIDHeader))
	})

	t.Run("honors a caller-supplied id", func(t *testing.T) {
		engine, seen := setup()

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(RequestIDHeader, "caller-id-1")
		engine.ServeHTTP(w, req)

		assert.Equal(t, "caller-id-1", *seen)
		assert.Equal(t, "caller-id-1", w.Header().Get(RequestIDHeader))
	})
}
