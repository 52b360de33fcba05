package persistence

import (
	"strings"

	"github.com/openbooks/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// orderableColumns whitelists the columns list queries may sort on. Anything
// else falls back to the query's default ordering.
var orderableColumns = map[string]bool{
	"code":             true,
	"name":             true,
	"number":           true,
	"status":           true,
	"entry_date":       true,
	"issue_date":       true,
	"due_date":         true,
	"transaction_date": true,
	"period_start":     true,
	"amount":           true,
	"gross_amount":     true,
	"created_at":       true,
	"updated_at":       true,
}

// applyOrdering translates the filter's ordering into an ORDER BY clause,
// rejecting unknown columns to keep user input out of raw SQL
func applyOrdering(query *gorm.DB, filter shared.Filter, defaultOrder string) *gorm.DB {
	column := strings.ToLower(strings.TrimSpace(filter.OrderBy))
	if column == "" || !orderableColumns[column] {
		return query.Order(defaultOrder)
	}
	dir := "ASC"
	if strings.EqualFold(filter.OrderDir, "desc") {
		dir = "DESC"
	}
	return query.Order(column + " " + dir)
}
