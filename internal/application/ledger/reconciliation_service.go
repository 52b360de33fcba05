package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/openbooks/backend/internal/domain/ledger"
	"github.com/openbooks/backend/internal/domain/shared"
	"github.com/openbooks/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReconciliationService runs candidate search and match confirmation for
// bank statement lines, and manages statement-period sessions
type ReconciliationService struct {
	uow      ledger.UnitOfWork
	matching *ledger.MatchingService
	logger   *zap.Logger
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(uow ledger.UnitOfWork, matching *ledger.MatchingService, logger *zap.Logger) *ReconciliationService {
	return &ReconciliationService{
		uow:      uow,
		matching: matching,
		logger:   logger,
	}
}

// FindCandidates returns plausible ledger matches for one bank transaction,
// ordered by date then id. Read-only: nothing is mutated, the transaction's
// Suggested flag is the caller's separate decision.
func (s *ReconciliationService) FindCandidates(ctx context.Context, tenantID, bankTransactionID uuid.UUID) ([]ledger.MatchCandidate, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "find_candidates")
	defer span.End()
	telemetry.SetAttributes(span, "bank_transaction_id", bankTransactionID.String())

	var candidates []ledger.MatchCandidate
	err := s.uow.Execute(ctx, func(repos ledger.Repositories) error {
		transaction, err := repos.BankTransactions().FindByID(ctx, tenantID, bankTransactionID)
		if err != nil {
			return err
		}
		bankAccount, err := repos.BankAccounts().FindByID(ctx, tenantID, transaction.BankAccountID)
		if err != nil {
			return err
		}

		from, to := s.matching.Window(transaction.TransactionDate)
		lines, err := repos.JournalEntries().FindUnreconciledLines(ctx, tenantID, bankAccount.LedgerAccountID, from, to)
		if err != nil {
			return err
		}
		candidates = s.matching.FindCandidates(transaction, lines)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return candidates, nil
}

// ReconcileRequest represents a request to confirm a match between one bank
// transaction and existing journal lines
type ReconcileRequest struct {
	TenantID          uuid.UUID
	BankTransactionID uuid.UUID
	JournalLineIDs    []uuid.UUID
	SessionID         *uuid.UUID
}

// Reconcile marks the bank transaction and the chosen journal lines
// reconciled with a shared timestamp, atomically
func (s *ReconciliationService) Reconcile(ctx context.Context, req ReconcileRequest) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "reconcile")
	defer span.End()
	telemetry.SetAttributes(span, "bank_transaction_id", req.BankTransactionID.String())

	if len(req.JournalLineIDs) == 0 {
		err := shared.NewDomainError("INVALID_INPUT", "At least one journal line is required")
		telemetry.RecordError(span, err)
		return err
	}

	err := s.uow.Execute(ctx, func(repos ledger.Repositories) error {
		transaction, err := repos.BankTransactions().FindByID(ctx, req.TenantID, req.BankTransactionID)
		if err != nil {
			return err
		}
		bankAccount, err := repos.BankAccounts().FindByID(ctx, req.TenantID, transaction.BankAccountID)
		if err != nil {
			return err
		}

		var session *ledger.ReconciliationSession
		if req.SessionID != nil {
			session, err = repos.ReconciliationSessions().FindByID(ctx, req.TenantID, *req.SessionID)
			if err != nil {
				return err
			}
		}

		from, to := s.matching.Window(transaction.TransactionDate)
		available, err := repos.JournalEntries().FindUnreconciledLines(ctx, req.TenantID, bankAccount.LedgerAccountID, from, to)
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]ledger.JournalLine, len(available))
		for _, l := range available {
			byID[l.Line.ID] = l.Line
		}

		lines := make([]ledger.JournalLine, 0, len(req.JournalLineIDs))
		for _, id := range req.JournalLineIDs {
			line, ok := byID[id]
			if !ok {
				return shared.NewDomainError("INVALID_INPUT",
					fmt.Sprintf("Journal line %s is not an unreconciled line on the bank account", id))
			}
			lines = append(lines, line)
		}

		reconciled, err := s.matching.Reconcile(transaction, lines, session)
		if err != nil {
			return err
		}

		if err := repos.JournalEntries().SaveLines(ctx, reconciled); err != nil {
			return fmt.Errorf("failed to save reconciled lines: %w", err)
		}
		if session != nil {
			if err := repos.ReconciliationSessions().Save(ctx, session); err != nil {
				return err
			}
		}
		if err := repos.BankTransactions().SaveWithLock(ctx, transaction); err != nil {
			return err
		}

		s.logger.Info("bank transaction reconciled",
			zap.String("tenant_id", req.TenantID.String()),
			zap.String("bank_transaction_id", transaction.ID.String()),
			zap.Int("lines", len(reconciled)),
		)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
	}
	return err
}

// StartSessionRequest represents a request to open a statement-period
// session
type StartSessionRequest struct {
	TenantID       uuid.UUID
	BankAccountID  uuid.UUID
	PeriodStart    time.Time
	PeriodEnd      time.Time
	OpeningBalance decimal.Decimal
	ClosingBalance decimal.Decimal
}

// StartSession opens a reconciliation session. At most one session exists
// per bank account and period start.
func (s *ReconciliationService) StartSession(ctx context.Context, req StartSessionRequest) (*ledger.ReconciliationSession, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "start_session")
	defer span.End()
	telemetry.SetAttributes(span, "bank_account_id", req.BankAccountID.String())

	var session *ledger.ReconciliationSession
	err := s.uow.Execute(ctx, func(repos ledger.Repositories) error {
		if _, err := repos.BankAccounts().FindByID(ctx, req.TenantID, req.BankAccountID); err != nil {
			return err
		}

		existing, err := repos.ReconciliationSessions().FindByPeriod(ctx, req.TenantID, req.BankAccountID, req.PeriodStart)
		if err == nil {
			session = existing
			return nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		session, err = ledger.NewReconciliationSession(req.TenantID, req.BankAccountID,
			req.PeriodStart, req.PeriodEnd, req.OpeningBalance, req.ClosingBalance)
		if err != nil {
			return err
		}
		return repos.ReconciliationSessions().Save(ctx, session)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return session, nil
}

// CompleteSession closes a session; completed sessions are immutable
func (s *ReconciliationService) CompleteSession(ctx context.Context, tenantID, sessionID uuid.UUID) (*ledger.ReconciliationSession, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "complete_session")
	defer span.End()
	telemetry.SetAttributes(span, "session_id", sessionID.String())

	var session *ledger.ReconciliationSession
	err := s.uow.Execute(ctx, func(repos ledger.Repositories) error {
		var err error
		session, err = repos.ReconciliationSessions().FindByID(ctx, tenantID, sessionID)
		if err != nil {
			return err
		}
		if err := session.Complete(); err != nil {
			return err
		}
		return repos.ReconciliationSessions().Save(ctx, session)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return session, nil
}

// ListSessions lists the sessions of one bank account
func (s *ReconciliationService) ListSessions(ctx context.Context, tenantID, bankAccountID uuid.UUID, filter shared.Filter) ([]ledger.ReconciliationSession, error) {
	var sessions []ledger.ReconciliationSession
	err := s.uow.Execute(ctx, func(repos ledger.Repositories) error {
		var err error
		sessions, err = repos.ReconciliationSessions().FindAllForAccount(ctx, tenantID, bankAccountID, filter)
		return err
	})
	return sessions, err
}
