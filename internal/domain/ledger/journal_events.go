package ledger

import (
	"github.com/google/uuid"
	"github.com/openbooks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// JournalEntryPostedEvent is raised when a balanced entry is persisted
type JournalEntryPostedEvent struct {
	shared.BaseDomainEvent
	EntryID     uuid.UUID       `json:"entry_id"`
	Description string          `json:"description"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	LineCount   int             `json:"line_count"`
}

// EventType returns the event type name
func (e *JournalEntryPostedEvent) EventType() string {
	return "JournalEntryPosted"
}

// NewJournalEntryPostedEvent creates a new JournalEntryPostedEvent
func NewJournalEntryPostedEvent(entry *JournalEntry) *JournalEntryPostedEvent {
	return &JournalEntryPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("JournalEntryPosted", "JournalEntry", entry.ID, entry.TenantID),
		EntryID:         entry.ID,
		Description:     entry.Description,
		TotalDebit:      entry.TotalDebit(),
		LineCount:       len(entry.Lines),
	}
}

// JournalEntryVoidedEvent is raised when an entry is voided
type JournalEntryVoidedEvent struct {
	shared.BaseDomainEvent
	EntryID uuid.UUID `json:"entry_id"`
	Reason  string    `json:"reason"`
}

// EventType returns the event type name
func (e *JournalEntryVoidedEvent) EventType() string {
	return "JournalEntryVoided"
}

// NewJournalEntryVoidedEvent creates a new JournalEntryVoidedEvent
func NewJournalEntryVoidedEvent(entry *JournalEntry, reason string) *JournalEntryVoidedEvent {
	return &JournalEntryVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("JournalEntryVoided", "JournalEntry", entry.ID, entry.TenantID),
		EntryID:         entry.ID,
		Reason:          reason,
	}
}
