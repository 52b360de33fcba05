// Package tax provides tax engine implementations behind the ledger's
// anti-corruption contract.
package tax

import (
	"context"

	"github.com/google/uuid"
	"github.com/openbooks/backend/internal/domain/ledger/acl"
	"github.com/openbooks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// FlatRateEngine quotes a single jurisdiction at a fixed rate. Used for
// single-jurisdiction tenants and as the default engine in development.
type FlatRateEngine struct {
	jurisdiction string
	rate         decimal.Decimal
}

// NewFlatRateEngine creates a flat-rate engine. Rate is a fraction, e.g.
// 0.08 for 8%.
func NewFlatRateEngine(jurisdiction string, rate decimal.Decimal) (*FlatRateEngine, error) {
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, shared.NewDomainError("INVALID_TAX_RATE", "Tax rate must be in [0, 1)")
	}
	if jurisdiction == "" {
		jurisdiction = "DEFAULT"
	}
	return &FlatRateEngine{jurisdiction: jurisdiction, rate: rate}, nil
}

// Quote computes tax on the net amount, rounded to cents
func (e *FlatRateEngine) Quote(ctx context.Context, tenantID uuid.UUID, netAmount decimal.Decimal, currency string) (acl.TaxQuote, error) {
	if netAmount.IsNegative() {
		return acl.TaxQuote{}, shared.NewDomainError("INVALID_INPUT", "Net amount cannot be negative")
	}

	amount := netAmount.Mul(e.rate).Round(2)
	if amount.IsZero() {
		return acl.TaxQuote{Total: decimal.Zero}, nil
	}
	return acl.TaxQuote{
		Lines: []acl.TaxLine{{
			Jurisdiction: e.jurisdiction,
			Rate:         e.rate,
			Amount:       amount,
		}},
		Total: amount,
	}, nil
}

var _ acl.TaxEngine = (*FlatRateEngine)(nil)
