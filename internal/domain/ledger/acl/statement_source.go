package acl

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StatementLine is one raw bank feed record before import
type StatementLine struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Currency    string
}

// StatementSource delivers statement lines for a bank account and period.
// Implementations wrap bank feed providers or file parsers; import dedup is
// the ledger's job, not the source's.
type StatementSource interface {
	Fetch(ctx context.Context, tenantID, bankAccountID uuid.UUID, from, to time.Time) ([]StatementLine, error)
}
