package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/openbooks/backend/internal/domain/shared"
	"github.com/openbooks/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// AllocationService is a domain service that applies one bank transaction
// against an allocation plan: it builds exactly one balanced journal entry,
// applies payments to every targeted obligation, records one allocation per
// settlement target, and updates the transaction's match status.
//
// The service works on preloaded aggregates and mutates them in memory;
// idempotent replay lookup, persistence, and atomicity are the application
// layer's job.
//
// Line construction, with every amount unsigned:
//
//	inflow:  debit bank for abs(amount), debit fee, credit each target,
//	         credit overpayment
//	outflow: debit each target, debit overpayment, debit fee, credit bank
//	         for abs(amount)
//
// A sub-unit remainder between the two sides is absorbed by a line on the
// lighter side against the plan's rounding account, when one is supplied
// and the remainder is within tolerance.
type AllocationService struct {
	tolerance decimal.Decimal
}

// AllocationServiceOption is a functional option for configuring
// AllocationService
type AllocationServiceOption func(*AllocationService)

// WithReconcileTolerance sets the maximum remainder the rounding line may
// absorb
func WithReconcileTolerance(tolerance decimal.Decimal) AllocationServiceOption {
	return func(s *AllocationService) {
		if !tolerance.IsNegative() {
			s.tolerance = tolerance
		}
	}
}

// NewAllocationService creates an allocation service with the default
// five-cent tolerance
func NewAllocationService(opts ...AllocationServiceOption) *AllocationService {
	s := &AllocationService{
		tolerance: decimal.NewFromFloat(0.05),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AllocateRequest carries everything one allocation needs, preloaded by the
// caller inside the transaction that will persist the result
type AllocateRequest struct {
	BankAccount *BankAccount
	Transaction *BankTransaction
	// Obligations holds every obligation the plan targets, keyed by id
	Obligations map[uuid.UUID]*Obligation
	Plan        AllocationPlan
}

// AllocateResult is the in-memory outcome of one allocation. Everything in
// it must be persisted together.
type AllocateResult struct {
	Entry       *JournalEntry
	Allocations []*Allocation
	// Settled is the unsigned bank amount the allocation explained
	Settled decimal.Decimal
}

// Allocate validates the plan against the transaction and obligations,
// builds the balanced entry, and applies all state changes. On any
// validation error nothing has been mutated.
func (s *AllocationService) Allocate(ctx context.Context, req AllocateRequest, resolver AccountResolver) (*AllocateResult, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	t := req.Transaction
	currency := valueobject.Currency(t.Currency)

	entry, err := NewJournalEntry(t.TenantID, t.TransactionDate,
		fmt.Sprintf("Bank transaction %s allocated", t.TransactionDate.Format("2006-01-02")))
	if err != nil {
		return nil, err
	}
	if req.Plan.OperationID != "" {
		entry.WithOperationID(req.Plan.OperationID)
	}

	// Bank leg at the unsigned statement amount, direction per the sign
	bankAmount, err := valueobject.NewMoney(t.AbsAmount(), currency)
	if err != nil {
		return nil, err
	}
	if t.IsInflow() {
		err = entry.AddDebit(req.BankAccount.LedgerAccountID, bankAmount)
	} else {
		err = entry.AddCredit(req.BankAccount.LedgerAccountID, bankAmount)
	}
	if err != nil {
		return nil, err
	}

	targets := make([]AllocationItem, 0, req.Plan.TargetCount())
	targets = append(targets, req.Plan.Items...)
	if req.Plan.Overpayment != nil {
		targets = append(targets, *req.Plan.Overpayment)
	}

	for _, item := range targets {
		accountID, err := s.targetAccount(ctx, req, item.Target, resolver)
		if err != nil {
			return nil, err
		}
		amount, err := valueobject.NewMoney(item.Amount, currency)
		if err != nil {
			return nil, err
		}
		if t.IsInflow() {
			err = entry.AddCredit(accountID, amount)
		} else {
			err = entry.AddDebit(accountID, amount)
		}
		if err != nil {
			return nil, err
		}
	}

	// A processor fee is an expense regardless of direction
	if req.Plan.Fee != nil {
		feeAmount, err := valueobject.NewMoney(req.Plan.Fee.Amount, currency)
		if err != nil {
			return nil, err
		}
		if err := entry.AddDebit(*req.Plan.Fee.Target.AccountID, feeAmount); err != nil {
			return nil, err
		}
	}

	if err := s.balance(entry, req.Plan, currency); err != nil {
		return nil, err
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	// All writes validated; apply state changes
	for _, item := range req.Plan.Items {
		if item.Target.Kind != TargetObligation {
			continue
		}
		o := req.Obligations[*item.Target.ObligationID]
		if err := o.ApplyPayment(item.Amount); err != nil {
			return nil, err
		}
	}

	settled := t.RemainingAmount()
	if err := t.RegisterAllocation(settled, req.Plan.TargetCount()); err != nil {
		return nil, err
	}

	allocations := make([]*Allocation, 0, len(targets))
	for _, item := range targets {
		alloc, err := NewAllocation(t.TenantID, t.ID, entry.ID, item.Target, item.Amount)
		if err != nil {
			return nil, err
		}
		allocations = append(allocations, alloc)
	}

	entry.AddDomainEvent(NewJournalEntryPostedEvent(entry))

	return &AllocateResult{
		Entry:       entry,
		Allocations: allocations,
		Settled:     settled,
	}, nil
}

// validate runs every check that must pass before anything is mutated
func (s *AllocationService) validate(req AllocateRequest) error {
	t := req.Transaction
	if t == nil || req.BankAccount == nil {
		return shared.NewDomainError("INVALID_ALLOCATION", "Bank transaction and bank account are required")
	}
	if t.BankAccountID != req.BankAccount.ID {
		return shared.NewDomainError("ACCOUNT_MISMATCH", "Transaction does not belong to the given bank account")
	}
	if t.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot allocate against a transaction in status %s", t.Status))
	}
	if err := req.Plan.Validate(); err != nil {
		return err
	}

	for _, item := range req.Plan.Items {
		if item.Target.Kind != TargetObligation {
			continue
		}
		o, ok := req.Obligations[*item.Target.ObligationID]
		if !ok || o == nil {
			return shared.NewDomainError("INVALID_TARGET", "Targeted obligation was not provided")
		}
		if o.TenantID != t.TenantID {
			return shared.NewDomainError("TENANT_MISMATCH", "Targeted obligation belongs to a different tenant")
		}
		if o.Currency != t.Currency {
			return shared.NewDomainError("CURRENCY_MISMATCH",
				fmt.Sprintf("Obligation currency %s does not match transaction currency %s", o.Currency, t.Currency))
		}
		if item.Amount.GreaterThan(o.OpenBalance()) {
			return shared.NewDomainError("OVER_ALLOCATION",
				fmt.Sprintf("Allocation %s exceeds open balance %s of obligation %s",
					item.Amount.String(), o.OpenBalance().String(), o.Number))
		}
	}

	return s.checkReconciles(req)
}

// checkReconciles verifies the plan settles the unsigned bank amount.
// Allocations plus overpayment, netted against the fee per the transaction
// direction, must equal abs(amount) exactly or within tolerance when a
// rounding account is supplied.
func (s *AllocationService) checkReconciles(req AllocateRequest) error {
	t := req.Transaction
	planTotal := req.Plan.AllocatedTotal()
	if req.Plan.Overpayment != nil {
		planTotal = planTotal.Add(req.Plan.Overpayment.Amount)
	}
	fee := decimal.Zero
	if req.Plan.Fee != nil {
		fee = req.Plan.Fee.Amount
	}

	// Inflows arrive net of the fee; outflows include it
	var explained decimal.Decimal
	if t.IsInflow() {
		explained = planTotal.Sub(fee)
	} else {
		explained = planTotal.Add(fee)
	}

	remainder := explained.Sub(t.AbsAmount()).Abs()
	if remainder.IsZero() {
		return nil
	}
	if remainder.LessThanOrEqual(s.tolerance) && req.Plan.RoundingAccountID != nil {
		return nil
	}
	return shared.NewDomainError("AMOUNT_MISMATCH",
		fmt.Sprintf("Plan settles %s but the transaction amount is %s", explained.String(), t.AbsAmount().String()))
}

// targetAccount resolves the ledger account a target posts against
func (s *AllocationService) targetAccount(ctx context.Context, req AllocateRequest, target AllocationTarget, resolver AccountResolver) (uuid.UUID, error) {
	switch target.Kind {
	case TargetObligation:
		o := req.Obligations[*target.ObligationID]
		account, err := resolver.Resolve(ctx, req.Transaction.TenantID, o.ReceivableRole())
		if err != nil {
			return uuid.Nil, err
		}
		return account.ID, nil
	case TargetDirectIncome, TargetDirectExpense, TargetCreditNote:
		return *target.AccountID, nil
	}
	return uuid.Nil, shared.NewDomainError("INVALID_TARGET", "Unknown allocation target kind")
}

// balance absorbs a sub-unit remainder with a rounding line on the lighter
// side. The remainder was already checked against the tolerance.
func (s *AllocationService) balance(entry *JournalEntry, plan AllocationPlan, currency valueobject.Currency) error {
	diff := entry.TotalDebit().Sub(entry.TotalCredit())
	if diff.IsZero() {
		return nil
	}
	if plan.RoundingAccountID == nil {
		return shared.NewDomainError("AMOUNT_MISMATCH", "Entry does not balance and no rounding account was supplied")
	}
	rounding, err := valueobject.NewMoney(diff.Abs(), currency)
	if err != nil {
		return err
	}
	if diff.IsPositive() {
		return entry.AddCredit(*plan.RoundingAccountID, rounding)
	}
	return entry.AddDebit(*plan.RoundingAccountID, rounding)
}
