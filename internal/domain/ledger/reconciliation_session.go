package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/openbooks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ReconciliationSessionStatus is the lifecycle of a statement-period
// reconciliation
type ReconciliationSessionStatus string

const (
	SessionStatusDraft      ReconciliationSessionStatus = "DRAFT"
	SessionStatusInProgress ReconciliationSessionStatus = "IN_PROGRESS"
	SessionStatusCompleted  ReconciliationSessionStatus = "COMPLETED"
)

// IsValid checks if the status is valid
func (s ReconciliationSessionStatus) IsValid() bool {
	switch s {
	case SessionStatusDraft, SessionStatusInProgress, SessionStatusCompleted:
		return true
	}
	return false
}

// IsTerminal returns true if no further transitions are allowed
func (s ReconciliationSessionStatus) IsTerminal() bool {
	return s == SessionStatusCompleted
}

// String returns the string representation of ReconciliationSessionStatus
func (s ReconciliationSessionStatus) String() string {
	return string(s)
}

// ReconciliationSession scopes reconciliation work to one bank account and
// one statement period. Unique per (bank account, period start); journal
// lines and bank transactions reconciled during the session reference it.
type ReconciliationSession struct {
	shared.TenantAggregateRoot
	BankAccountID  uuid.UUID                   `json:"bank_account_id"`
	PeriodStart    time.Time                   `json:"period_start"`
	PeriodEnd      time.Time                   `json:"period_end"`
	OpeningBalance decimal.Decimal             `json:"opening_balance"`
	ClosingBalance decimal.Decimal             `json:"closing_balance"`
	Status         ReconciliationSessionStatus `json:"status"`
	CompletedAt    *time.Time                  `json:"completed_at,omitempty"`
}

// NewReconciliationSession creates a session in Draft status
func NewReconciliationSession(tenantID, bankAccountID uuid.UUID, periodStart, periodEnd time.Time, openingBalance, closingBalance decimal.Decimal) (*ReconciliationSession, error) {
	if bankAccountID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SESSION", "Session must reference a bank account")
	}
	if periodStart.IsZero() || periodEnd.IsZero() {
		return nil, shared.NewDomainError("INVALID_SESSION", "Session period is required")
	}
	if !periodEnd.After(periodStart) {
		return nil, shared.NewDomainError("INVALID_SESSION", "Period end must be after period start")
	}

	s := &ReconciliationSession{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		BankAccountID:       bankAccountID,
		PeriodStart:         periodStart,
		PeriodEnd:           periodEnd,
		OpeningBalance:      openingBalance,
		ClosingBalance:      closingBalance,
		Status:              SessionStatusDraft,
	}

	s.AddDomainEvent(NewReconciliationSessionStartedEvent(s))

	return s, nil
}

// Begin moves the session from Draft to InProgress. Recording the first
// reconciliation does this implicitly.
func (s *ReconciliationSession) Begin() error {
	if s.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Session is already completed")
	}
	if s.Status == SessionStatusInProgress {
		return nil
	}
	s.Status = SessionStatusInProgress
	s.Touch()
	return nil
}

// Contains reports whether a date falls inside the statement period
func (s *ReconciliationSession) Contains(date time.Time) bool {
	return !date.Before(s.PeriodStart) && !date.After(s.PeriodEnd)
}

// Complete closes the session. Completed sessions are immutable; further
// reconciliations for the account need a new period.
func (s *ReconciliationSession) Complete() error {
	if s.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Session is already completed")
	}
	if s.Status == SessionStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Cannot complete a session with no reconciliations")
	}
	now := time.Now()
	s.Status = SessionStatusCompleted
	s.CompletedAt = &now
	s.Touch()

	s.AddDomainEvent(NewReconciliationSessionCompletedEvent(s))

	return nil
}
