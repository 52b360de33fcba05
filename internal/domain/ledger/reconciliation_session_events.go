package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/openbooks/backend/internal/domain/shared"
)

// ReconciliationSessionStartedEvent is raised when a statement-period
// session is opened
type ReconciliationSessionStartedEvent struct {
	shared.BaseDomainEvent
	SessionID     uuid.UUID `json:"session_id"`
	BankAccountID uuid.UUID `json:"bank_account_id"`
	PeriodStart   time.Time `json:"period_start"`
	PeriodEnd     time.Time `json:"period_end"`
}

// EventType returns the event type name
func (e *ReconciliationSessionStartedEvent) EventType() string {
	return "ReconciliationSessionStarted"
}

// NewReconciliationSessionStartedEvent creates a new ReconciliationSessionStartedEvent
func NewReconciliationSessionStartedEvent(s *ReconciliationSession) *ReconciliationSessionStartedEvent {
	return &ReconciliationSessionStartedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ReconciliationSessionStarted", "ReconciliationSession", s.ID, s.TenantID),
		SessionID:       s.ID,
		BankAccountID:   s.BankAccountID,
		PeriodStart:     s.PeriodStart,
		PeriodEnd:       s.PeriodEnd,
	}
}

// ReconciliationSessionCompletedEvent is raised when a session is closed
type ReconciliationSessionCompletedEvent struct {
	shared.BaseDomainEvent
	SessionID     uuid.UUID `json:"session_id"`
	BankAccountID uuid.UUID `json:"bank_account_id"`
}

// EventType returns the event type name
func (e *ReconciliationSessionCompletedEvent) EventType() string {
	return "ReconciliationSessionCompleted"
}

// NewReconciliationSessionCompletedEvent creates a new ReconciliationSessionCompletedEvent
func NewReconciliationSessionCompletedEvent(s *ReconciliationSession) *ReconciliationSessionCompletedEvent {
	return &ReconciliationSessionCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ReconciliationSessionCompleted", "ReconciliationSession", s.ID, s.TenantID),
		SessionID:       s.ID,
		BankAccountID:   s.BankAccountID,
	}
}
