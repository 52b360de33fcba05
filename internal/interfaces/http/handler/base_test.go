package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/openbooks/backend/internal/domain/shared"
	"github.com/openbooks/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &BaseHandler{}

	handle := func(err error) (*httptest.ResponseRecorder, dto.Response) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		h.HandleError(c, err)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return w, resp
	}

	t.Run("maps domain error codes to statuses", func(t *testing.T) {
		tests := []struct {
			code     string
			expected int
		}{
			{"NOT_FOUND", http.StatusNotFound},
			{"DUPLICATE_ACCOUNT_CODE", http.StatusConflict},
			{"CONCURRENCY_CONFLICT", http.StatusConflict},
			{"INVALID_CURRENCY", http.StatusBadRequest},
			{"OVER_ALLOCATION", http.StatusUnprocessableEntity},
			{"UNBALANCED_ENTRY", http.StatusUnprocessableEntity},
		}

		for _, tt := range tests {
			w, resp := handle(shared.NewDomainError(tt.code, "rule violated"))
			assert.Equal(t, tt.expected, w.Code, tt.code)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		}
	})

	t.Run("wrapped domain errors keep their code", func(t *testing.T) {
		w, resp := handle(shared.ErrNotFound)
		assert.Equal(t, http.StatusNotFound, w.Code)
		require.NotNil(t, resp.Error)
	})

	t.Run("non-domain errors are an opaque 500", func(t *testing.T) {
		w, resp := handle(errors.New("pq: connection refused"))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeInternal, resp.Error.Code)
		assert.NotContains(t, resp.Error.Message, "pq:")
	})
}

func TestToFilter(t *testing.T) {
	t.Run("empty request keeps defaults", func(t *testing.T) {
		filter := toFilter(dto.ListRequest{})
		defaults := shared.DefaultFilter()
		assert.Equal(t, defaults.Page, filter.Page)
		assert.Equal(t, defaults.PageSize, filter.PageSize)
	})

	t.Run("populated request overrides defaults", func(t *testing.T) {
		filter := toFilter(dto.ListRequest{
			Page:     3,
			PageSize: 50,
			OrderBy:  "code",
			OrderDir: "asc",
			Search:   "rent",
		})
		assert.Equal(t, 3, filter.Page)
		assert.Equal(t, 50, filter.PageSize)
		assert.Equal(t, "code", filter.OrderBy)
		assert.Equal(t, "rent", filter.Search)
	})
}

func TestParseDate(t *testing.T) {
	t.Run("accepts plain dates", func(t *testing.T) {
		d, err := parseDate("2026-03-15")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), d)
	})

	t.Run("accepts RFC3339", func(t *testing.T) {
		d, err := parseDate("2026-03-15T10:30:00Z")
		require.NoError(t, err)
		assert.Equal(t, 10, d.Hour())
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := parseDate("15.03.2026")
		assert.Error(t, err)
	})
}

func TestParseOptionalHelpers(t *testing.T) {
	t.Run("empty date is nil", func(t *testing.T) {
		d, err := parseOptionalDate("")
		require.NoError(t, err)
		assert.Nil(t, d)
	})

	t.Run("present date is parsed", func(t *testing.T) {
		d, err := parseOptionalDate("2026-03-15")
		require.NoError(t, err)
		require.NotNil(t, d)
	})

	t.Run("nil uuid pointer is nil", func(t *testing.T) {
		id, err := parseOptionalUUID(nil)
		require.NoError(t, err)
		assert.Nil(t, id)
	})

	t.Run("valid uuid is parsed", func(t *testing.T) {
		raw := uuid.New().String()
		id, err := parseOptionalUUID(&raw)
		require.NoError(t, err)
		require.NotNil(t, id)
		assert.Equal(t, raw, id.String())
	})

	t.Run("invalid uuid errors", func(t *testing.T) {
		raw := "nope"
		_, err := parseOptionalUUID(&raw)
		assert.Error(t, err)
	})
}
