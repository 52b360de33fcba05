// Package acl holds anti-corruption contracts for external collaborators of
// the ledger: the tax engine that prices documents and the statement feed
// that delivers bank transactions. The ledger core depends only on these
// interfaces and their plain value types.
package acl

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxLine is one jurisdiction's share of a tax quote
type TaxLine struct {
	Jurisdiction string
	Rate         decimal.Decimal
	Amount       decimal.Decimal
}

// TaxQuote is the tax engine's breakdown for one document
type TaxQuote struct {
	Lines []TaxLine
	Total decimal.Decimal
}

// TaxEngine computes tax for a document's net amount. Implementations wrap
// an external tax provider; a flat-rate implementation ships for tests and
// single-jurisdiction tenants.
type TaxEngine interface {
	Quote(ctx context.Context, tenantID uuid.UUID, netAmount decimal.Decimal, currency string) (TaxQuote, error)
}
