package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openbooks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// BankTransactionStatus reflects how much of a statement line has been
// matched against the ledger
type BankTransactionStatus string

const (
	BankTransactionStatusNew           BankTransactionStatus = "NEW"
	BankTransactionStatusSuggested     BankTransactionStatus = "SUGGESTED"
	BankTransactionStatusPartial       BankTransactionStatus = "PARTIAL"
	BankTransactionStatusMatchedSingle BankTransactionStatus = "MATCHED_SINGLE"
	BankTransactionStatusMatchedMulti  BankTransactionStatus = "MATCHED_MULTI"
	BankTransactionStatusReconciled    BankTransactionStatus = "RECONCILED"
	BankTransactionStatusExcluded      BankTransactionStatus = "EXCLUDED"
)

// IsValid checks if the status is valid
func (s BankTransactionStatus) IsValid() bool {
	switch s {
	case BankTransactionStatusNew, BankTransactionStatusSuggested,
		BankTransactionStatusPartial, BankTransactionStatusMatchedSingle,
		BankTransactionStatusMatchedMulti, BankTransactionStatusReconciled,
		BankTransactionStatusExcluded:
		return true
	}
	return false
}

// IsTerminal returns true if no further transitions are allowed
func (s BankTransactionStatus) IsTerminal() bool {
	return s == BankTransactionStatusReconciled || s == BankTransactionStatusExcluded
}

// IsMatched returns true once at least one allocation has settled against
// the transaction
func (s BankTransactionStatus) IsMatched() bool {
	switch s {
	case BankTransactionStatusPartial, BankTransactionStatusMatchedSingle,
		BankTransactionStatusMatchedMulti:
		return true
	}
	return false
}

// String returns the string representation of BankTransactionStatus
func (s BankTransactionStatus) String() string {
	return string(s)
}

// BankAccount links a tenant's real-world bank account to the ledger account
// that mirrors it. Statement lines and reconciliation sessions hang off it.
type BankAccount struct {
	shared.TenantAggregateRoot
	Name            string     `json:"name"`
	Currency        string     `json:"currency"`
	LedgerAccountID uuid.UUID  `json:"ledger_account_id"`
	FeeAccountID    *uuid.UUID `json:"fee_account_id,omitempty"`
}

// NewBankAccount creates a new bank account
func NewBankAccount(tenantID uuid.UUID, name, currency string, ledgerAccountID uuid.UUID) (*BankAccount, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_BANK_ACCOUNT", "Bank account name cannot be empty")
	}
	if currency == "" {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Currency is required")
	}
	if ledgerAccountID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BANK_ACCOUNT", "Bank account must be linked to a ledger account")
	}
	return &BankAccount{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Currency:            currency,
		LedgerAccountID:     ledgerAccountID,
	}, nil
}

// NormalizeExternalID derives a deterministic identifier for a statement
// line from its stable attributes so a re-imported statement cannot create
// duplicates.
func NormalizeExternalID(bankAccountID uuid.UUID, date time.Time, description string, amount decimal.Decimal) string {
	payload := fmt.Sprintf("%s|%s|%s|%s",
		bankAccountID.String(),
		date.UTC().Format("2006-01-02"),
		strings.ToLower(strings.TrimSpace(description)),
		amount.StringFixed(2),
	)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// BankTransaction is one imported statement line. Amount is signed:
// positive is money in, negative is money out. Once reconciled the row is
// never deleted.
type BankTransaction struct {
	shared.TenantAggregateRoot
	BankAccountID   uuid.UUID             `json:"bank_account_id"`
	ExternalID      string                `json:"external_id"`
	TransactionDate time.Time             `json:"transaction_date"`
	Description     string                `json:"description"`
	Amount          decimal.Decimal       `json:"amount"`
	Currency        string                `json:"currency"`
	AllocatedAmount decimal.Decimal       `json:"allocated_amount"`
	Status          BankTransactionStatus `json:"status"`
	TargetCount     int                   `json:"target_count"`
	ReconciledAt    *time.Time            `json:"reconciled_at,omitempty"`
	SessionID       *uuid.UUID            `json:"session_id,omitempty"`
}

// NewBankTransaction creates a statement line in New status
func NewBankTransaction(tenantID, bankAccountID uuid.UUID, date time.Time, description string, amount decimal.Decimal, currency string) (*BankTransaction, error) {
	if bankAccountID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BANK_TRANSACTION", "Bank transaction must reference a bank account")
	}
	if date.IsZero() {
		return nil, shared.NewDomainError("INVALID_BANK_TRANSACTION", "Transaction date is required")
	}
	if amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_BANK_TRANSACTION", "Transaction amount cannot be zero")
	}
	if currency == "" {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Currency is required")
	}

	t := &BankTransaction{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		BankAccountID:       bankAccountID,
		ExternalID:          NormalizeExternalID(bankAccountID, date, description, amount),
		TransactionDate:     date,
		Description:         description,
		Amount:              amount,
		Currency:            currency,
		AllocatedAmount:     decimal.Zero,
		Status:              BankTransactionStatusNew,
	}

	t.AddDomainEvent(NewBankTransactionImportedEvent(t))

	return t, nil
}

// IsInflow returns true for money coming into the bank account
func (t *BankTransaction) IsInflow() bool {
	return t.Amount.IsPositive()
}

// AbsAmount returns the unsigned statement amount
func (t *BankTransaction) AbsAmount() decimal.Decimal {
	return t.Amount.Abs()
}

// RemainingAmount returns the unsigned portion not yet allocated
func (t *BankTransaction) RemainingAmount() decimal.Decimal {
	return t.Amount.Abs().Sub(t.AllocatedAmount)
}

// Suggest marks the transaction as having matching candidates. A no-op when
// the transaction has moved past the suggestion stage.
func (t *BankTransaction) Suggest() error {
	if t.Status != BankTransactionStatusNew {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot suggest matches for a transaction in status %s", t.Status))
	}
	t.Status = BankTransactionStatusSuggested
	t.Touch()
	return nil
}

// RegisterAllocation accumulates a settled amount and recomputes the match
// status. Excluded and Reconciled are preserved: nothing may allocate
// against a terminal transaction.
func (t *BankTransaction) RegisterAllocation(settled decimal.Decimal, targets int) error {
	if t.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot allocate against a transaction in status %s", t.Status))
	}
	if !settled.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Settled amount must be positive")
	}
	if targets < 1 {
		return shared.NewDomainError("INVALID_AMOUNT", "Allocation must have at least one target")
	}
	if settled.GreaterThan(t.RemainingAmount()) {
		return shared.NewDomainError("OVER_ALLOCATION",
			fmt.Sprintf("Settled amount %s exceeds remaining %s", settled.String(), t.RemainingAmount().String()))
	}

	t.AllocatedAmount = t.AllocatedAmount.Add(settled)
	t.TargetCount += targets
	t.recomputeStatus()
	t.Touch()

	t.AddDomainEvent(NewBankTransactionAllocatedEvent(t, settled))

	return nil
}

// Exclude marks the transaction as irrelevant for matching, e.g. an internal
// transfer. Terminal; only reachable before any allocation.
func (t *BankTransaction) Exclude(reason string) error {
	if t.Status != BankTransactionStatusNew && t.Status != BankTransactionStatusSuggested {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot exclude a transaction in status %s", t.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Exclusion reason is required")
	}
	t.Status = BankTransactionStatusExcluded
	t.Touch()

	t.AddDomainEvent(NewBankTransactionExcludedEvent(t, reason))

	return nil
}

// Include returns an excluded transaction to the matching pool
func (t *BankTransaction) Include() error {
	if t.Status != BankTransactionStatusExcluded {
		return shared.NewDomainError("INVALID_STATE", "Only excluded transactions can be included again")
	}
	t.Status = BankTransactionStatusNew
	t.Touch()
	return nil
}

// MarkReconciled finalizes the transaction within a reconciliation session.
// Reached from a matched status after allocation, or straight from
// New/Suggested when an existing journal line is confirmed as the match.
func (t *BankTransaction) MarkReconciled(at time.Time, sessionID *uuid.UUID) error {
	if t.Status == BankTransactionStatusReconciled {
		return shared.NewDomainError("ALREADY_RECONCILED", "Bank transaction is already reconciled")
	}
	if t.Status == BankTransactionStatusExcluded {
		return shared.NewDomainError("INVALID_STATE", "Cannot reconcile an excluded transaction")
	}
	t.Status = BankTransactionStatusReconciled
	t.ReconciledAt = &at
	t.SessionID = sessionID
	t.Touch()

	t.AddDomainEvent(NewBankTransactionReconciledEvent(t))

	return nil
}

// recomputeStatus derives the match status from the allocated amount and
// target count. Excluded and Reconciled are guarded by the callers and never
// overwritten here.
func (t *BankTransaction) recomputeStatus() {
	switch {
	case t.AllocatedAmount.LessThan(t.AbsAmount()):
		t.Status = BankTransactionStatusPartial
	case t.TargetCount > 1:
		t.Status = BankTransactionStatusMatchedMulti
	default:
		t.Status = BankTransactionStatusMatchedSingle
	}
}
