package dto

import "net/http"

// Error codes produced by the HTTP layer itself. Domain error codes pass
// through unchanged and are mapped to status codes below.
const (
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeInternal     = "INTERNAL"
)

// errorCodeHTTPStatus maps error codes to HTTP status codes. Codes for
// malformed input map to 400, codes for rule violations on well-formed
// input map to 422.
var errorCodeHTTPStatus = map[string]int{
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeConflict:     http.StatusConflict,
	ErrCodeInternal:     http.StatusInternalServerError,

	"ALREADY_EXISTS":         http.StatusConflict,
	"DUPLICATE_ACCOUNT_CODE": http.StatusConflict,
	"CONCURRENCY_CONFLICT":   http.StatusConflict,
	"ALREADY_RECONCILED":     http.StatusConflict,
	"INVALID_STATE":          http.StatusConflict,

	"INVALID_INPUT":           http.StatusBadRequest,
	"INVALID_ACCOUNT_CODE":    http.StatusBadRequest,
	"INVALID_ACCOUNT_NAME":    http.StatusBadRequest,
	"INVALID_ACCOUNT_TYPE":    http.StatusBadRequest,
	"INVALID_AMOUNT":          http.StatusBadRequest,
	"INVALID_BANK_ACCOUNT":    http.StatusBadRequest,
	"INVALID_CONTACT":         http.StatusBadRequest,
	"INVALID_CURRENCY":        http.StatusBadRequest,
	"INVALID_DESCRIPTION":     http.StatusBadRequest,
	"INVALID_DOCUMENT_NUMBER": http.StatusBadRequest,
	"INVALID_ENTRY_DATE":      http.StatusBadRequest,
	"INVALID_EVENT_KIND":      http.StatusBadRequest,
	"INVALID_ISSUE_DATE":      http.StatusBadRequest,
	"INVALID_OBLIGATION_KIND": http.StatusBadRequest,
	"INVALID_REASON":          http.StatusBadRequest,

	"OVER_ALLOCATION":          http.StatusUnprocessableEntity,
	"UNBALANCED_ENTRY":         http.StatusUnprocessableEntity,
	"AMOUNT_MISMATCH":          http.StatusUnprocessableEntity,
	"ACCOUNT_MISMATCH":         http.StatusUnprocessableEntity,
	"CURRENCY_MISMATCH":        http.StatusUnprocessableEntity,
	"TENANT_MISMATCH":          http.StatusUnprocessableEntity,
	"INVALID_ALLOCATION":       http.StatusUnprocessableEntity,
	"INVALID_BANK_TRANSACTION": http.StatusUnprocessableEntity,
	"INVALID_DOCUMENT":         http.StatusUnprocessableEntity,
	"INVALID_LINE":             http.StatusUnprocessableEntity,
	"INVALID_PLAN":             http.StatusUnprocessableEntity,
	"INVALID_SESSION":          http.StatusUnprocessableEntity,
	"INVALID_STATEMENT":        http.StatusUnprocessableEntity,
	"INVALID_TARGET":           http.StatusUnprocessableEntity,
	"CONFIG_MISSING_ACCOUNT":   http.StatusUnprocessableEntity,
	"NO_STATEMENT_SOURCE":      http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code. Unknown
// domain codes default to 422 so new rule violations never surface as 500s.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusUnprocessableEntity
}
