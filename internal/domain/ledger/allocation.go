package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/openbooks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AllocationTargetKind enumerates the finite set of things a payment can
// settle against. The kinds are matched exhaustively; there is no runtime
// type dispatch.
type AllocationTargetKind string

const (
	TargetObligation    AllocationTargetKind = "OBLIGATION"
	TargetDirectIncome  AllocationTargetKind = "DIRECT_INCOME"
	TargetDirectExpense AllocationTargetKind = "DIRECT_EXPENSE"
	TargetCreditNote    AllocationTargetKind = "CREDIT_NOTE"
)

// IsValid checks if the target kind is valid
func (k AllocationTargetKind) IsValid() bool {
	switch k {
	case TargetObligation, TargetDirectIncome, TargetDirectExpense, TargetCreditNote:
		return true
	}
	return false
}

// String returns the string representation of AllocationTargetKind
func (k AllocationTargetKind) String() string {
	return string(k)
}

// AllocationTarget names one settlement destination: an obligation by id, or
// an account by id for direct postings and credit-note parking.
type AllocationTarget struct {
	Kind         AllocationTargetKind `json:"kind"`
	ObligationID *uuid.UUID           `json:"obligation_id,omitempty"`
	AccountID    *uuid.UUID           `json:"account_id,omitempty"`
}

// ObligationTarget builds a target settling an obligation
func ObligationTarget(obligationID uuid.UUID) AllocationTarget {
	return AllocationTarget{Kind: TargetObligation, ObligationID: &obligationID}
}

// DirectIncomeTarget builds a target posting straight to an income account
func DirectIncomeTarget(accountID uuid.UUID) AllocationTarget {
	return AllocationTarget{Kind: TargetDirectIncome, AccountID: &accountID}
}

// DirectExpenseTarget builds a target posting straight to an expense account
func DirectExpenseTarget(accountID uuid.UUID) AllocationTarget {
	return AllocationTarget{Kind: TargetDirectExpense, AccountID: &accountID}
}

// CreditNoteTarget builds a target parking an amount on a credit account
func CreditNoteTarget(accountID uuid.UUID) AllocationTarget {
	return AllocationTarget{Kind: TargetCreditNote, AccountID: &accountID}
}

// Validate checks the target's shape against its kind
func (t AllocationTarget) Validate() error {
	switch t.Kind {
	case TargetObligation:
		if t.ObligationID == nil || *t.ObligationID == uuid.Nil {
			return shared.NewDomainError("INVALID_TARGET", "Obligation target requires an obligation id")
		}
	case TargetDirectIncome, TargetDirectExpense, TargetCreditNote:
		if t.AccountID == nil || *t.AccountID == uuid.Nil {
			return shared.NewDomainError("INVALID_TARGET", "Account target requires an account id")
		}
	default:
		return shared.NewDomainError("INVALID_TARGET", "Unknown allocation target kind")
	}
	return nil
}

// AllocationItem pairs a target with a positive amount to settle against it
type AllocationItem struct {
	Target AllocationTarget `json:"target"`
	Amount decimal.Decimal  `json:"amount"`
}

// Validate checks the item's target and amount
func (i AllocationItem) Validate() error {
	if err := i.Target.Validate(); err != nil {
		return err
	}
	if !i.Amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Allocation amount must be positive")
	}
	return nil
}

// AllocationPlan is the caller's full instruction for settling one bank
// transaction: the targets, an optional overpayment slot, an optional
// processor fee, and an optional rounding account absorbing sub-unit
// discrepancies.
type AllocationPlan struct {
	Items             []AllocationItem `json:"items"`
	Overpayment       *AllocationItem  `json:"overpayment,omitempty"`
	Fee               *AllocationItem  `json:"fee,omitempty"`
	RoundingAccountID *uuid.UUID       `json:"rounding_account_id,omitempty"`
	OperationID       string           `json:"operation_id,omitempty"`
}

// Validate checks the plan's shape. Amount reconciliation against the bank
// transaction is the allocation service's job, not the plan's.
func (p AllocationPlan) Validate() error {
	if len(p.Items) == 0 {
		return shared.NewDomainError("INVALID_PLAN", "Allocation plan requires at least one item")
	}
	for _, item := range p.Items {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	if p.Overpayment != nil {
		if p.Overpayment.Target.Kind != TargetCreditNote {
			return shared.NewDomainError("INVALID_PLAN", "Overpayment must target a credit account")
		}
		if err := p.Overpayment.Validate(); err != nil {
			return err
		}
	}
	if p.Fee != nil {
		if p.Fee.Target.Kind != TargetDirectExpense {
			return shared.NewDomainError("INVALID_PLAN", "Fee must target an expense account")
		}
		if err := p.Fee.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// AllocatedTotal sums the plan item amounts, excluding overpayment and fee
func (p AllocationPlan) AllocatedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range p.Items {
		total = total.Add(item.Amount)
	}
	return total
}

// TargetCount returns the number of settlement targets, overpayment included
func (p AllocationPlan) TargetCount() int {
	n := len(p.Items)
	if p.Overpayment != nil {
		n++
	}
	return n
}

// AllocationStatus is the lifecycle of an allocation record
type AllocationStatus string

const (
	AllocationStatusActive AllocationStatus = "ACTIVE"
	AllocationStatusVoided AllocationStatus = "VOIDED"
)

// IsValid checks if the status is valid
func (s AllocationStatus) IsValid() bool {
	return s == AllocationStatusActive || s == AllocationStatusVoided
}

// Allocation links one bank transaction to one settlement target for one
// amount. Many allocations may target the same obligation and one bank
// transaction may spawn many allocations.
type Allocation struct {
	shared.TenantAggregateRoot
	BankTransactionID uuid.UUID            `json:"bank_transaction_id"`
	JournalEntryID    uuid.UUID            `json:"journal_entry_id"`
	TargetKind        AllocationTargetKind `json:"target_kind"`
	ObligationID      *uuid.UUID           `json:"obligation_id,omitempty"`
	AccountID         *uuid.UUID           `json:"account_id,omitempty"`
	Amount            decimal.Decimal      `json:"amount"`
	Confidence        decimal.Decimal      `json:"confidence"`
	Status            AllocationStatus     `json:"status"`
	VoidedAt          *time.Time           `json:"voided_at,omitempty"`
}

// NewAllocation records one settled plan item
func NewAllocation(tenantID, bankTransactionID, journalEntryID uuid.UUID, target AllocationTarget, amount decimal.Decimal) (*Allocation, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Allocation amount must be positive")
	}
	return &Allocation{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		BankTransactionID:   bankTransactionID,
		JournalEntryID:      journalEntryID,
		TargetKind:          target.Kind,
		ObligationID:        target.ObligationID,
		AccountID:           target.AccountID,
		Amount:              amount,
		Confidence:          decimal.NewFromInt(1),
		Status:              AllocationStatusActive,
	}, nil
}

// Void deactivates the allocation record when its journal entry is reversed
func (a *Allocation) Void() error {
	if a.Status == AllocationStatusVoided {
		return shared.NewDomainError("INVALID_STATE", "Allocation is already voided")
	}
	now := time.Now()
	a.Status = AllocationStatusVoided
	a.VoidedAt = &now
	a.Touch()
	return nil
}
