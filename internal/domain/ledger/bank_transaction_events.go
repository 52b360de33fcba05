package ledger

import (
	"github.com/google/uuid"
	"github.com/openbooks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// BankTransactionImportedEvent is raised when a statement line is imported
type BankTransactionImportedEvent struct {
	shared.BaseDomainEvent
	TransactionID uuid.UUID       `json:"transaction_id"`
	BankAccountID uuid.UUID       `json:"bank_account_id"`
	Amount        decimal.Decimal `json:"amount"`
	ExternalID    string          `json:"external_id"`
}

// EventType returns the event type name
func (e *BankTransactionImportedEvent) EventType() string {
	return "BankTransactionImported"
}

// NewBankTransactionImportedEvent creates a new BankTransactionImportedEvent
func NewBankTransactionImportedEvent(t *BankTransaction) *BankTransactionImportedEvent {
	return &BankTransactionImportedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("BankTransactionImported", "BankTransaction", t.ID, t.TenantID),
		TransactionID:   t.ID,
		BankAccountID:   t.BankAccountID,
		Amount:          t.Amount,
		ExternalID:      t.ExternalID,
	}
}

// BankTransactionAllocatedEvent is raised when an allocation settles against
// a statement line
type BankTransactionAllocatedEvent struct {
	shared.BaseDomainEvent
	TransactionID   uuid.UUID             `json:"transaction_id"`
	SettledAmount   decimal.Decimal       `json:"settled_amount"`
	AllocatedAmount decimal.Decimal       `json:"allocated_amount"`
	Status          BankTransactionStatus `json:"status"`
}

// EventType returns the event type name
func (e *BankTransactionAllocatedEvent) EventType() string {
	return "BankTransactionAllocated"
}

// NewBankTransactionAllocatedEvent creates a new BankTransactionAllocatedEvent
func NewBankTransactionAllocatedEvent(t *BankTransaction, settled decimal.Decimal) *BankTransactionAllocatedEvent {
	return &BankTransactionAllocatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("BankTransactionAllocated", "BankTransaction", t.ID, t.TenantID),
		TransactionID:   t.ID,
		SettledAmount:   settled,
		AllocatedAmount: t.AllocatedAmount,
		Status:          t.Status,
	}
}

// BankTransactionExcludedEvent is raised when a statement line is excluded
// from matching
type BankTransactionExcludedEvent struct {
	shared.BaseDomainEvent
	TransactionID uuid.UUID `json:"transaction_id"`
	Reason        string    `json:"reason"`
}

// EventType returns the event type name
func (e *BankTransactionExcludedEvent) EventType() string {
	return "BankTransactionExcluded"
}

// NewBankTransactionExcludedEvent creates a new BankTransactionExcludedEvent
func NewBankTransactionExcludedEvent(t *BankTransaction, reason string) *BankTransactionExcludedEvent {
	return &BankTransactionExcludedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("BankTransactionExcluded", "BankTransaction", t.ID, t.TenantID),
		TransactionID:   t.ID,
		Reason:          reason,
	}
}

// BankTransactionReconciledEvent is raised when a statement line is finalized
type BankTransactionReconciledEvent struct {
	shared.BaseDomainEvent
	TransactionID uuid.UUID  `json:"transaction_id"`
	SessionID     *uuid.UUID `json:"session_id,omitempty"`
}

// EventType returns the event type name
func (e *BankTransactionReconciledEvent) EventType() string {
	return "BankTransactionReconciled"
}

// NewBankTransactionReconciledEvent creates a new BankTransactionReconciledEvent
func NewBankTransactionReconciledEvent(t *BankTransaction) *BankTransactionReconciledEvent {
	return &BankTransactionReconciledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("BankTransactionReconciled", "BankTransaction", t.ID, t.TenantID),
		TransactionID:   t.ID,
		SessionID:       t.SessionID,
	}
}
