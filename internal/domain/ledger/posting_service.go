package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/openbooks/backend/internal/domain/shared"
	"github.com/openbooks/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PostingService is a domain service that converts a document lifecycle
// event into one balanced journal entry. It builds the entry; persistence
// and the exactly-once lookup against the (tenant, document, event kind)
// key are the application layer's job.
//
// Posting rules:
//
//	INVOICE_ISSUED: debit receivable for gross, credit income for net,
//	                credit tax payable for the tax amount
//	INVOICE_PAID:   debit cash for gross, credit receivable for gross
//	EXPENSE_PAID:   debit expense for net, debit tax recoverable for the
//	                tax amount, credit cash for gross
//
// When the obligation carries a tax-detail breakdown the tax side is split
// into one line per jurisdiction component; the lump tax line is only used
// when no breakdown is available.
type PostingService struct{}

// NewPostingService creates a new posting service
func NewPostingService() *PostingService {
	return &PostingService{}
}

// documentAmounts returns the net, tax, and gross a posting should use.
// When the obligation carries a tax-detail breakdown the tax and gross are
// recomputed from it so the posted amounts cannot drift from the detail
// even if the cached totals disagree.
func documentAmounts(o *Obligation) (net, tax, gross decimal.Decimal) {
	net = o.NetAmount
	tax = o.TaxAmount
	if o.TaxComponents != nil {
		tax = o.TaxComponents.Total()
	}
	gross = net.Add(tax)
	return net, tax, gross
}

// addTaxLines emits the tax side of an entry: one line per jurisdiction
// component when a breakdown is present, a single lump line otherwise.
// Zero-amount components are skipped.
func addTaxLines(entry *JournalEntry, detail TaxDetail, tax decimal.Decimal, currency valueobject.Currency, accountID uuid.UUID, add func(uuid.UUID, valueobject.Money) error) error {
	if len(detail) == 0 {
		taxMoney, err := valueobject.NewMoney(tax, currency)
		if err != nil {
			return err
		}
		return add(accountID, taxMoney)
	}
	for i := range detail {
		if !detail[i].Amount.IsPositive() {
			continue
		}
		componentMoney, err := valueobject.NewMoney(detail[i].Amount, currency)
		if err != nil {
			return err
		}
		if err := add(accountID, componentMoney); err != nil {
			return err
		}
	}
	return nil
}

// BuildDocumentEntry builds the journal entry for one document event. The
// entry is validated but not persisted. Fails with a configuration error
// and builds nothing when a required account cannot be resolved.
func (s *PostingService) BuildDocumentEntry(ctx context.Context, o *Obligation, kind PostingEventKind, resolver AccountResolver) (*JournalEntry, error) {
	if o == nil {
		return nil, shared.NewDomainError("INVALID_DOCUMENT", "Obligation cannot be nil")
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_EVENT_KIND", "Posting event kind is not valid")
	}
	if o.Status.IsTerminal() {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot post events for a void obligation")
	}

	switch kind {
	case PostingEventInvoiceIssued:
		if o.Kind != ObligationKindInvoice {
			return nil, shared.NewDomainError("INVALID_EVENT_KIND", "Only invoices can be issued")
		}
		return s.buildInvoiceIssued(ctx, o, resolver)
	case PostingEventInvoicePaid:
		if o.Kind != ObligationKindInvoice {
			return nil, shared.NewDomainError("INVALID_EVENT_KIND", "Only invoices can be paid as receivables")
		}
		return s.buildInvoicePaid(ctx, o, resolver)
	case PostingEventExpensePaid:
		if o.Kind != ObligationKindBill {
			return nil, shared.NewDomainError("INVALID_EVENT_KIND", "Only bills can be paid as expenses")
		}
		return s.buildExpensePaid(ctx, o, resolver)
	}
	return nil, shared.NewDomainError("INVALID_EVENT_KIND", "Unsupported posting event kind")
}

func (s *PostingService) buildInvoiceIssued(ctx context.Context, o *Obligation, resolver AccountResolver) (*JournalEntry, error) {
	net, tax, gross := documentAmounts(o)
	currency := valueobject.Currency(o.Currency)

	receivable, err := resolver.Resolve(ctx, o.TenantID, RoleAccountsReceivable)
	if err != nil {
		return nil, err
	}
	income, err := resolver.Resolve(ctx, o.TenantID, RoleDefaultIncome)
	if err != nil {
		return nil, err
	}

	entry, err := NewJournalEntry(o.TenantID, o.IssueDate, fmt.Sprintf("Invoice %s issued", o.Number))
	if err != nil {
		return nil, err
	}
	entry.WithSource(DocumentTypeInvoice, o.ID, PostingEventInvoiceIssued)

	grossMoney, err := valueobject.NewMoney(gross, currency)
	if err != nil {
		return nil, err
	}
	if err := entry.AddDebit(receivable.ID, grossMoney); err != nil {
		return nil, err
	}
	netMoney, err := valueobject.NewMoney(net, currency)
	if err != nil {
		return nil, err
	}
	if err := entry.AddCredit(income.ID, netMoney); err != nil {
		return nil, err
	}
	if tax.IsPositive() {
		taxPayable, err := resolver.Resolve(ctx, o.TenantID, RoleTaxPayable)
		if err != nil {
			return nil, err
		}
		if err := addTaxLines(entry, o.TaxComponents, tax, currency, taxPayable.ID, entry.AddCredit); err != nil {
			return nil, err
		}
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *PostingService) buildInvoicePaid(ctx context.Context, o *Obligation, resolver AccountResolver) (*JournalEntry, error) {
	_, _, gross := documentAmounts(o)
	currency := valueobject.Currency(o.Currency)

	cash, err := resolver.Resolve(ctx, o.TenantID, RoleCash)
	if err != nil {
		return nil, err
	}
	receivable, err := resolver.Resolve(ctx, o.TenantID, RoleAccountsReceivable)
	if err != nil {
		return nil, err
	}

	entry, err := NewJournalEntry(o.TenantID, time.Now(), fmt.Sprintf("Invoice %s paid", o.Number))
	if err != nil {
		return nil, err
	}
	entry.WithSource(DocumentTypeInvoice, o.ID, PostingEventInvoicePaid)

	grossMoney, err := valueobject.NewMoney(gross, currency)
	if err != nil {
		return nil, err
	}
	if err := entry.AddDebit(cash.ID, grossMoney); err != nil {
		return nil, err
	}
	if err := entry.AddCredit(receivable.ID, grossMoney); err != nil {
		return nil, err
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *PostingService) buildExpensePaid(ctx context.Context, o *Obligation, resolver AccountResolver) (*JournalEntry, error) {
	net, tax, gross := documentAmounts(o)
	currency := valueobject.Currency(o.Currency)

	expense, err := resolver.Resolve(ctx, o.TenantID, RoleDefaultExpense)
	if err != nil {
		return nil, err
	}
	cash, err := resolver.Resolve(ctx, o.TenantID, RoleCash)
	if err != nil {
		return nil, err
	}

	entry, err := NewJournalEntry(o.TenantID, time.Now(), fmt.Sprintf("Expense %s paid", o.Number))
	if err != nil {
		return nil, err
	}
	entry.WithSource(DocumentTypeExpense, o.ID, PostingEventExpensePaid)

	netMoney, err := valueobject.NewMoney(net, currency)
	if err != nil {
		return nil, err
	}
	if err := entry.AddDebit(expense.ID, netMoney); err != nil {
		return nil, err
	}
	if tax.IsPositive() {
		taxRecoverable, err := resolver.Resolve(ctx, o.TenantID, RoleTaxRecoverable)
		if err != nil {
			return nil, err
		}
		if err := addTaxLines(entry, o.TaxComponents, tax, currency, taxRecoverable.ID, entry.AddDebit); err != nil {
			return nil, err
		}
	}
	grossMoney, err := valueobject.NewMoney(gross, currency)
	if err != nil {
		return nil, err
	}
	if err := entry.AddCredit(cash.ID, grossMoney); err != nil {
		return nil, err
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}
	return entry, nil
}
