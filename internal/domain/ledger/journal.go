package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/openbooks/backend/internal/domain/shared"
	"github.com/openbooks/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// DocumentType identifies the kind of business document an entry was
// posted for
type DocumentType string

const (
	DocumentTypeInvoice DocumentType = "INVOICE"
	DocumentTypeExpense DocumentType = "EXPENSE"
)

// IsValid checks if the document type is valid
func (t DocumentType) IsValid() bool {
	return t == DocumentTypeInvoice || t == DocumentTypeExpense
}

// PostingEventKind discriminates which lifecycle event of a document an
// entry was posted for. Together with (tenant, document type, document id)
// it forms the posting idempotency key.
type PostingEventKind string

const (
	PostingEventInvoiceIssued PostingEventKind = "INVOICE_ISSUED"
	PostingEventInvoicePaid   PostingEventKind = "INVOICE_PAID"
	PostingEventExpensePaid   PostingEventKind = "EXPENSE_PAID"
)

// IsValid checks if the posting event kind is valid
func (k PostingEventKind) IsValid() bool {
	switch k {
	case PostingEventInvoiceIssued, PostingEventInvoicePaid, PostingEventExpensePaid:
		return true
	}
	return false
}

// String returns the string representation of PostingEventKind
func (k PostingEventKind) String() string {
	return string(k)
}

// JournalLine is one debit or credit leg of a journal entry.
// Invariant: debit and credit are non-negative and exactly one of the two
// is strictly positive.
type JournalLine struct {
	ID             uuid.UUID       `json:"id"`
	JournalEntryID uuid.UUID       `json:"journal_entry_id"`
	AccountID      uuid.UUID       `json:"account_id"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	Reconciled     bool            `json:"reconciled"`
	ReconciledAt   *time.Time      `json:"reconciled_at,omitempty"`
	SessionID      *uuid.UUID      `json:"session_id,omitempty"`
}

// NewDebitLine creates a journal line debiting the given account
func NewDebitLine(accountID uuid.UUID, amount valueobject.Money) JournalLine {
	return JournalLine{
		ID:        uuid.New(),
		AccountID: accountID,
		Debit:     amount.Amount(),
		Credit:    decimal.Zero,
	}
}

// NewCreditLine creates a journal line crediting the given account
func NewCreditLine(accountID uuid.UUID, amount valueobject.Money) JournalLine {
	return JournalLine{
		ID:        uuid.New(),
		AccountID: accountID,
		Debit:     decimal.Zero,
		Credit:    amount.Amount(),
	}
}

// Validate enforces the single-sided, non-negative line rule
func (l *JournalLine) Validate() error {
	if l.AccountID == uuid.Nil {
		return shared.NewDomainError("INVALID_LINE", "Journal line must reference an account")
	}
	if l.Debit.IsNegative() || l.Credit.IsNegative() {
		return shared.NewDomainError("INVALID_LINE", "Journal line amounts cannot be negative")
	}
	debitSet := l.Debit.IsPositive()
	creditSet := l.Credit.IsPositive()
	if debitSet == creditSet {
		return shared.NewDomainError("INVALID_LINE", "Journal line must have exactly one of debit or credit set")
	}
	return nil
}

// Net returns the line's net effect (debit - credit)
func (l *JournalLine) Net() decimal.Decimal {
	return l.Debit.Sub(l.Credit)
}

// MarkReconciled flags the line as reconciled at the given time, optionally
// tied to a reconciliation session
func (l *JournalLine) MarkReconciled(at time.Time, sessionID *uuid.UUID) error {
	if l.Reconciled {
		return shared.NewDomainError("ALREADY_RECONCILED", "Journal line is already reconciled")
	}
	l.Reconciled = true
	l.ReconciledAt = &at
	l.SessionID = sessionID
	return nil
}

// JournalEntry is one atomic, balanced accounting event.
// Entries are append-only: reversal voids the entry, it is never edited or
// hard-deleted.
type JournalEntry struct {
	shared.TenantAggregateRoot
	EntryDate   time.Time         `json:"entry_date"`
	Description string            `json:"description"`
	SourceType  *DocumentType     `json:"source_type,omitempty"`
	SourceID    *uuid.UUID        `json:"source_id,omitempty"`
	EventKind   *PostingEventKind `json:"event_kind,omitempty"`
	OperationID *string           `json:"operation_id,omitempty"`
	Voided      bool              `json:"voided"`
	VoidedAt    *time.Time        `json:"voided_at,omitempty"`
	VoidReason  string            `json:"void_reason,omitempty"`
	Lines       []JournalLine     `json:"lines"`
}

// NewJournalEntry creates a new, empty journal entry. Lines must be added
// before it can pass validation.
func NewJournalEntry(tenantID uuid.UUID, entryDate time.Time, description string) (*JournalEntry, error) {
	if entryDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_ENTRY_DATE", "Entry date is required")
	}
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Entry description cannot be empty")
	}
	return &JournalEntry{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		EntryDate:           entryDate,
		Description:         description,
		Lines:               make([]JournalLine, 0, 2),
	}, nil
}

// WithSource links the entry to its originating document. The
// (tenant, source type, source id, event kind) tuple is the posting
// idempotency key, enforced by a uniqueness constraint at the storage layer.
func (e *JournalEntry) WithSource(docType DocumentType, docID uuid.UUID, kind PostingEventKind) *JournalEntry {
	e.SourceType = &docType
	e.SourceID = &docID
	e.EventKind = &kind
	return e
}

// WithOperationID attaches a caller-supplied allocation operation id,
// unique when present, enabling retry-safe allocation.
func (e *JournalEntry) WithOperationID(operationID string) *JournalEntry {
	e.OperationID = &operationID
	return e
}

// AddDebit appends a debit line for the given account
func (e *JournalEntry) AddDebit(accountID uuid.UUID, amount valueobject.Money) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_LINE", "Debit amount must be positive")
	}
	line := NewDebitLine(accountID, amount)
	line.JournalEntryID = e.ID
	e.Lines = append(e.Lines, line)
	return nil
}

// AddCredit appends a credit line for the given account
func (e *JournalEntry) AddCredit(accountID uuid.UUID, amount valueobject.Money) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_LINE", "Credit amount must be positive")
	}
	line := NewCreditLine(accountID, amount)
	line.JournalEntryID = e.ID
	e.Lines = append(e.Lines, line)
	return nil
}

// TotalDebit returns the sum of all debit amounts
func (e *JournalEntry) TotalDebit() decimal.Decimal {
	total := decimal.Zero
	for i := range e.Lines {
		total = total.Add(e.Lines[i].Debit)
	}
	return total
}

// TotalCredit returns the sum of all credit amounts
func (e *JournalEntry) TotalCredit() decimal.Decimal {
	total := decimal.Zero
	for i := range e.Lines {
		total = total.Add(e.Lines[i].Credit)
	}
	return total
}

// Validate is the single source of truth for the ledger balance invariants:
// every line is single-sided and non-negative, and entry-level debit and
// credit totals are equal and non-zero. Both the posting and allocation
// paths call it, and the storage layer re-runs it inside the same atomic
// write as the line inserts.
func (e *JournalEntry) Validate() error {
	if len(e.Lines) < 2 {
		return shared.NewDomainError("UNBALANCED_ENTRY", "Journal entry requires at least two lines")
	}
	for i := range e.Lines {
		if err := e.Lines[i].Validate(); err != nil {
			return err
		}
	}
	debit := e.TotalDebit()
	credit := e.TotalCredit()
	if !debit.Equal(credit) {
		return shared.NewDomainError("UNBALANCED_ENTRY",
			fmt.Sprintf("Entry debits %s do not equal credits %s", debit.String(), credit.String()))
	}
	if debit.IsZero() {
		return shared.NewDomainError("UNBALANCED_ENTRY", "Journal entry must have a non-zero economic effect")
	}
	return nil
}

// Void marks the entry as voided. Voided entries stay in the ledger for
// audit but no longer count toward balances, and their idempotency key is
// released for re-posting.
func (e *JournalEntry) Void(reason string) error {
	if e.Voided {
		return shared.NewDomainError("INVALID_STATE", "Journal entry is already voided")
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Void reason is required")
	}
	now := time.Now()
	e.Voided = true
	e.VoidedAt = &now
	e.VoidReason = reason
	e.Touch()

	e.AddDomainEvent(NewJournalEntryVoidedEvent(e, reason))

	return nil
}

// HasOperationID returns true if the entry carries the given operation id
func (e *JournalEntry) HasOperationID(operationID string) bool {
	return e.OperationID != nil && *e.OperationID == operationID
}

// LedgerLine pairs a journal line with entry-level context. Repositories
// return it for line-level queries such as reconciliation candidate search.
type LedgerLine struct {
	Line        JournalLine `json:"line"`
	EntryID     uuid.UUID   `json:"entry_id"`
	EntryDate   time.Time   `json:"entry_date"`
	Description string      `json:"description"`
}
