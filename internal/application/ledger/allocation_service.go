package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/openbooks/backend/internal/domain/ledger"
	"github.com/openbooks/backend/internal/domain/shared"
	"github.com/openbooks/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// BankAllocationService applies bank transactions against allocation plans.
// One call produces one balanced entry, one allocation record per target,
// payment state on every targeted obligation, and the transaction's new
// match status, all inside one database transaction. A caller-supplied
// operation id makes retries safe: a replay returns the original entry.
type BankAllocationService struct {
	uow        ledger.UnitOfWork
	allocation *ledger.AllocationService
	resolver   ledger.AccountResolver
	logger     *zap.Logger
}

// NewBankAllocationService creates a new BankAllocationService
func NewBankAllocationService(uow ledger.UnitOfWork, allocation *ledger.AllocationService, resolver ledger.AccountResolver, logger *zap.Logger) *BankAllocationService {
	return &BankAllocationService{
		uow:        uow,
		allocation: allocation,
		resolver:   resolver,
		logger:     logger,
	}
}

// AllocateRequest represents a request to allocate one bank transaction
type AllocateRequest struct {
	TenantID          uuid.UUID
	BankTransactionID uuid.UUID
	Plan              ledger.AllocationPlan
}

// AllocateResult is the persisted outcome of one allocation
type AllocateResult struct {
	Entry       *ledger.JournalEntry `json:"entry"`
	Allocations []*ledger.Allocation `json:"allocations"`
	Replayed    bool                 `json:"replayed"`
}

// Allocate validates and executes one allocation plan. Everything commits
// atomically or not at all; optimistic locking on the obligations and the
// bank transaction turns a lost race into a concurrency conflict instead of
// a double-spent open balance.
func (s *BankAllocationService) Allocate(ctx context.Context, req AllocateRequest) (*AllocateResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "allocation", "allocate")
	defer span.End()
	telemetry.SetAttributes(span,
		"bank_transaction_id", req.BankTransactionID.String(),
		"operation_id", req.Plan.OperationID,
		"target_count", req.Plan.TargetCount(),
	)

	var result *AllocateResult
	err := s.uow.Execute(ctx, func(repos ledger.Repositories) error {
		// Idempotent replay: a known operation id returns the original
		// entry without re-validating amounts
		if req.Plan.OperationID != "" {
			existing, err := repos.JournalEntries().FindByOperationID(ctx, req.TenantID, req.Plan.OperationID)
			if err == nil {
				allocations, err := repos.Allocations().FindByBankTransaction(ctx, req.TenantID, req.BankTransactionID)
				if err != nil {
					return err
				}
				result = &AllocateResult{
					Entry:       existing,
					Allocations: toAllocationPtrs(allocations),
					Replayed:    true,
				}
				return nil
			}
			if !errors.Is(err, shared.ErrNotFound) {
				return err
			}
		}

		transaction, err := repos.BankTransactions().FindByID(ctx, req.TenantID, req.BankTransactionID)
		if err != nil {
			return err
		}
		bankAccount, err := repos.BankAccounts().FindByID(ctx, req.TenantID, transaction.BankAccountID)
		if err != nil {
			return err
		}

		obligations := make(map[uuid.UUID]*ledger.Obligation)
		for _, item := range req.Plan.Items {
			if item.Target.Kind != ledger.TargetObligation {
				continue
			}
			id := *item.Target.ObligationID
			if _, loaded := obligations[id]; loaded {
				continue
			}
			obligation, err := repos.Obligations().FindByID(ctx, req.TenantID, id)
			if err != nil {
				return err
			}
			obligations[id] = obligation
		}

		outcome, err := s.allocation.Allocate(ctx, ledger.AllocateRequest{
			BankAccount: bankAccount,
			Transaction: transaction,
			Obligations: obligations,
			Plan:        req.Plan,
		}, s.resolver)
		if err != nil {
			return err
		}

		if err := repos.JournalEntries().Save(ctx, outcome.Entry); err != nil {
			return fmt.Errorf("failed to save journal entry: %w", err)
		}
		for _, alloc := range outcome.Allocations {
			if err := repos.Allocations().Save(ctx, alloc); err != nil {
				return fmt.Errorf("failed to save allocation: %w", err)
			}
		}
		for _, obligation := range obligations {
			if err := repos.Obligations().SaveWithLock(ctx, obligation); err != nil {
				return err
			}
		}
		if err := repos.BankTransactions().SaveWithLock(ctx, transaction); err != nil {
			return err
		}

		result = &AllocateResult{
			Entry:       outcome.Entry,
			Allocations: outcome.Allocations,
		}

		s.logger.Info("bank transaction allocated",
			zap.String("tenant_id", req.TenantID.String()),
			zap.String("bank_transaction_id", transaction.ID.String()),
			zap.String("entry_id", outcome.Entry.ID.String()),
			zap.String("settled", outcome.Settled.String()),
			zap.Int("targets", req.Plan.TargetCount()),
		)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return result, nil
}

func toAllocationPtrs(allocations []ledger.Allocation) []*ledger.Allocation {
	out := make([]*ledger.Allocation, 0, len(allocations))
	for i := range allocations {
		out = append(out, &allocations[i])
	}
	return out
}
