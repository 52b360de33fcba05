package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeConflict, http.StatusConflict},
		{ErrCodeInternal, http.StatusInternalServerError},
		{"DUPLICATE_ACCOUNT_CODE", http.StatusConflict},
		{"CONCURRENCY_CONFLICT", http.StatusConflict},
		{"ALREADY_RECONCILED", http.StatusConflict},
		{"INVALID_STATE", http.StatusConflict},
		{"INVALID_CURRENCY", http.StatusBadRequest},
		{"INVALID_EVENT_KIND", http.StatusBadRequest},
		{"OVER_ALLOCATION", http.StatusUnprocessableEntity},
		{"UNBALANCED_ENTRY", http.StatusUnprocessableEntity},
		{"AMOUNT_MISMATCH", http.StatusUnprocessableEntity},
		{"CURRENCY_MISMATCH", http.StatusUnprocessableEntity},
		{"INVALID_STATEMENT", http.StatusUnprocessableEntity},
		{"NO_STATEMENT_SOURCE", http.StatusUnprocessableEntity},
		// Unknown domain codes are treated as rule violations, not 500s
		{"SOME_FUTURE_RULE", http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNewSuccessResponse(t *testing.T) {
	resp := NewSuccessResponse(map[string]string{"id": "1"})
	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse("OVER_ALLOCATION", "Allocations exceed the transaction amount", "req-1")
	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
	assert.NotNil(t, resp.Error)
	assert.Equal(t, "OVER_ALLOCATION", resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)
}
