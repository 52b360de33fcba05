package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/openbooks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubResolver resolves roles from a fixed map
type stubResolver struct {
	accounts map[AccountRole]*Account
}

func (r *stubResolver) Resolve(_ context.Context, _ uuid.UUID, role AccountRole) (*Account, error) {
	a, ok := r.accounts[role]
	if !ok {
		return nil, shared.ErrMissingRoleAccount
	}
	return a, nil
}

// allocationFixture wires one tenant's bank account, accounts, and resolver
type allocationFixture struct {
	tenantID    uuid.UUID
	bankAccount *BankAccount
	receivable  *Account
	payable     *Account
	income      *Account
	feeExpense  *Account
	credit      *Account
	rounding    *Account
	resolver    *stubResolver
}

func newAllocationFixture(t *testing.T) *allocationFixture {
	tenantID := uuid.New()

	mustAccount := func(code, name string, accountType AccountType) *Account {
		a, err := NewAccount(tenantID, code, name, accountType, nil)
		require.NoError(t, err)
		return a
	}

	bankLedger := mustAccount("1000", "Checking", AccountTypeAsset)
	receivable := mustAccount("1100", "Accounts Receivable", AccountTypeAsset)
	payable := mustAccount("2000", "Accounts Payable", AccountTypeLiability)
	income := mustAccount("4000", "Sales", AccountTypeIncome)
	feeExpense := mustAccount("6000", "Processor Fees", AccountTypeExpense)
	credit := mustAccount("2100", "Customer Credit", AccountTypeLiability)
	rounding := mustAccount("6900", "Rounding Adjustments", AccountTypeExpense)

	bankAccount, err := NewBankAccount(tenantID, "Operating", "USD", bankLedger.ID)
	require.NoError(t, err)

	return &allocationFixture{
		tenantID:    tenantID,
		bankAccount: bankAccount,
		receivable:  receivable,
		payable:     payable,
		income:      income,
		feeExpense:  feeExpense,
		credit:      credit,
		rounding:    rounding,
		resolver: &stubResolver{accounts: map[AccountRole]*Account{
			RoleAccountsReceivable: receivable,
			RoleAccountsPayable:    payable,
		}},
	}
}

func (f *allocationFixture) invoice(t *testing.T, gross string) *Obligation {
	o, err := NewObligation(f.tenantID, ObligationKindInvoice, "INV-"+gross, "Acme Corp",
		time.Now(), "USD", decimal.RequireFromString(gross), decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, o.MarkSent())
	return o
}

func (f *allocationFixture) transaction(t *testing.T, amount string) *BankTransaction {
	txn, err := NewBankTransaction(f.tenantID, f.bankAccount.ID,
		time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), "deposit",
		decimal.RequireFromString(amount), "USD")
	require.NoError(t, err)
	return txn
}

func lineFor(entry *JournalEntry, accountID uuid.UUID) *JournalLine {
	for i := range entry.Lines {
		if entry.Lines[i].AccountID == accountID {
			return &entry.Lines[i]
		}
	}
	return nil
}

func linesFor(entry *JournalEntry, accountID uuid.UUID) []JournalLine {
	var lines []JournalLine
	for i := range entry.Lines {
		if entry.Lines[i].AccountID == accountID {
			lines = append(lines, entry.Lines[i])
		}
	}
	return lines
}

// ============================================
// AllocationService Tests
// ============================================

func TestAllocationService_FullPayment(t *testing.T) {
	// Obligation gross 100.00, allocate 100.00: Paid, zero balance, entry
	// has exactly two lines
	f := newAllocationFixture(t)
	svc := NewAllocationService()
	inv := f.invoice(t, "100.00")
	txn := f.transaction(t, "100.00")

	result, err := svc.Allocate(context.Background(), AllocateRequest{
		BankAccount: f.bankAccount,
		Transaction: txn,
		Obligations: map[uuid.UUID]*Obligation{inv.ID: inv},
		Plan: AllocationPlan{
			Items: []AllocationItem{{Target: ObligationTarget(inv.ID), Amount: decimal.RequireFromString("100.00")}},
		},
	}, f.resolver)
	require.NoError(t, err)

	assert.Len(t, result.Entry.Lines, 2)
	assert.NoError(t, result.Entry.Validate())
	assert.Equal(t, ObligationStatusPaid, inv.Status)
	assert.True(t, inv.OpenBalance().IsZero())
	assert.Equal(t, BankTransactionStatusMatchedSingle, txn.Status)
	assert.Len(t, result.Allocations, 1)

	bankLine := lineFor(result.Entry, f.bankAccount.LedgerAccountID)
	require.NotNil(t, bankLine)
	assert.True(t, bankLine.Debit.Equal(decimal.RequireFromString("100.00")))
	arLine := lineFor(result.Entry, f.receivable.ID)
	require.NotNil(t, arLine)
	assert.True(t, arLine.Credit.Equal(decimal.RequireFromString("100.00")))
}

func TestAllocationService_PartialPayment(t *testing.T) {
	// Obligation gross 1000.00, bank transaction 300.00 fully applied:
	// obligation Partial with balance 700.00
	f := newAllocationFixture(t)
	svc := NewAllocationService()
	inv := f.invoice(t, "1000.00")
	txn := f.transaction(t, "300.00")

	_, err := svc.Allocate(context.Background(), AllocateRequest{
		BankAccount: f.bankAccount,
		Transaction: txn,
		Obligations: map[uuid.UUID]*Obligation{inv.ID: inv},
		Plan: AllocationPlan{
			Items: []AllocationItem{{Target: ObligationTarget(inv.ID), Amount: decimal.RequireFromString("300.00")}},
		},
	}, f.resolver)
	require.NoError(t, err)

	assert.Equal(t, ObligationStatusPartial, inv.Status)
	assert.True(t, inv.OpenBalance().Equal(decimal.RequireFromString("700.00")))
}

func TestAllocationService_SplitAcrossObligations(t *testing.T) {
	// Three obligations of 500/700/300 against one 1500.00 transaction:
	// one bank-side line plus three obligation-side lines, all Paid,
	// transaction MatchedMulti
	f := newAllocationFixture(t)
	svc := NewAllocationService()
	a := f.invoice(t, "500.00")
	b := f.invoice(t, "700.00")
	c := f.invoice(t, "300.00")
	txn := f.transaction(t, "1500.00")

	result, err := svc.Allocate(context.Background(), AllocateRequest{
		BankAccount: f.bankAccount,
		Transaction: txn,
		Obligations: map[uuid.UUID]*Obligation{a.ID: a, b.ID: b, c.ID: c},
		Plan: AllocationPlan{
			Items: []AllocationItem{
				{Target: ObligationTarget(a.ID), Amount: decimal.RequireFromString("500.00")},
				{Target: ObligationTarget(b.ID), Amount: decimal.RequireFromString("700.00")},
				{Target: ObligationTarget(c.ID), Amount: decimal.RequireFromString("300.00")},
			},
		},
	}, f.resolver)
	require.NoError(t, err)

	assert.Len(t, result.Entry.Lines, 4)
	for _, o := range []*Obligation{a, b, c} {
		assert.Equal(t, ObligationStatusPaid, o.Status)
	}
	assert.Equal(t, BankTransactionStatusMatchedMulti, txn.Status)
	assert.Len(t, result.Allocations, 3)
}

func TestAllocationService_Overpayment(t *testing.T) {
	// Obligation gross 1000.00, transaction 1200.00: 1000 settles the
	// obligation and 200 parks on the credit account
	f := newAllocationFixture(t)
	svc := NewAllocationService()
	inv := f.invoice(t, "1000.00")
	txn := f.transaction(t, "1200.00")

	over := AllocationItem{Target: CreditNoteTarget(f.credit.ID), Amount: decimal.RequireFromString("200.00")}
	result, err := svc.Allocate(context.Background(), AllocateRequest{
		BankAccount: f.bankAccount,
		Transaction: txn,
		Obligations: map[uuid.UUID]*Obligation{inv.ID: inv},
		Plan: AllocationPlan{
			Items:       []AllocationItem{{Target: ObligationTarget(inv.ID), Amount: decimal.RequireFromString("1000.00")}},
			Overpayment: &over,
		},
	}, f.resolver)
	require.NoError(t, err)

	assert.Equal(t, ObligationStatusPaid, inv.Status)
	assert.NoError(t, result.Entry.Validate())

	creditLine := lineFor(result.Entry, f.credit.ID)
	require.NotNil(t, creditLine)
	assert.True(t, creditLine.Credit.Equal(decimal.RequireFromString("200.00")))
	assert.Equal(t, BankTransactionStatusMatchedMulti, txn.Status)
}

func TestAllocationService_ProcessorFee(t *testing.T) {
	// Direct income of 100.00 arriving as 97.00 after a 3.00 fee:
	// debit bank 97, debit fee 3, credit income 100
	f := newAllocationFixture(t)
	svc := NewAllocationService()
	txn := f.transaction(t, "97.00")

	fee := AllocationItem{Target: DirectExpenseTarget(f.feeExpense.ID), Amount: decimal.RequireFromString("3.00")}
	result, err := svc.Allocate(context.Background(), AllocateRequest{
		BankAccount: f.bankAccount,
		Transaction: txn,
		Plan: AllocationPlan{
			Items: []AllocationItem{{Target: DirectIncomeTarget(f.income.ID), Amount: decimal.RequireFromString("100.00")}},
			Fee:   &fee,
		},
	}, f.resolver)
	require.NoError(t, err)

	assert.NoError(t, result.Entry.Validate())
	bankLine := lineFor(result.Entry, f.bankAccount.LedgerAccountID)
	require.NotNil(t, bankLine)
	assert.True(t, bankLine.Debit.Equal(decimal.RequireFromString("97.00")))
	feeLine := lineFor(result.Entry, f.feeExpense.ID)
	require.NotNil(t, feeLine)
	assert.True(t, feeLine.Debit.Equal(decimal.RequireFromString("3.00")))
	incomeLine := lineFor(result.Entry, f.income.ID)
	require.NotNil(t, incomeLine)
	assert.True(t, incomeLine.Credit.Equal(decimal.RequireFromString("100.00")))
}

func TestAllocationService_OverAllocationFails(t *testing.T) {
	// Allocating 120.00 against an open balance of 100.00 fails with no
	// mutation anywhere
	f := newAllocationFixture(t)
	svc := NewAllocationService()
	inv := f.invoice(t, "100.00")
	txn := f.transaction(t, "120.00")

	_, err := svc.Allocate(context.Background(), AllocateRequest{
		BankAccount: f.bankAccount,
		Transaction: txn,
		Obligations: map[uuid.UUID]*Obligation{inv.ID: inv},
		Plan: AllocationPlan{
			Items: []AllocationItem{{Target: ObligationTarget(inv.ID), Amount: decimal.RequireFromString("120.00")}},
		},
	}, f.resolver)
	require.Error(t, err)
	domainErr := &shared.DomainError{}
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "OVER_ALLOCATION", domainErr.Code)

	assert.Equal(t, ObligationStatusSent, inv.Status)
	assert.True(t, inv.PaidAmount.IsZero())
	assert.Equal(t, BankTransactionStatusNew, txn.Status)
	assert.True(t, txn.AllocatedAmount.IsZero())
}

func TestAllocationService_AmountMismatchFails(t *testing.T) {
	f := newAllocationFixture(t)
	svc := NewAllocationService()
	inv := f.invoice(t, "100.00")
	txn := f.transaction(t, "150.00")

	_, err := svc.Allocate(context.Background(), AllocateRequest{
		BankAccount: f.bankAccount,
		Transaction: txn,
		Obligations: map[uuid.UUID]*Obligation{inv.ID: inv},
		Plan: AllocationPlan{
			Items: []AllocationItem{{Target: ObligationTarget(inv.ID), Amount: decimal.RequireFromString("100.00")}},
		},
	}, f.resolver)
	require.Error(t, err)
	domainErr := &shared.DomainError{}
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "AMOUNT_MISMATCH", domainErr.Code)
}

func TestAllocationService_RoundingAbsorbsRemainder(t *testing.T) {
	// Bank amount 100.02 vs allocation 100.00: the two-cent remainder posts
	// to the rounding account and the entry still balances
	f := newAllocationFixture(t)
	svc := NewAllocationService()
	inv := f.invoice(t, "100.00")
	txn := f.transaction(t, "100.02")

	_, errWithout := svc.Allocate(context.Background(), AllocateRequest{
		BankAccount: f.bankAccount,
		Transaction: txn,
		Obligations: map[uuid.UUID]*Obligation{inv.ID: inv},
		Plan: AllocationPlan{
			Items: []AllocationItem{{Target: ObligationTarget(inv.ID), Amount: decimal.RequireFromString("100.00")}},
		},
	}, f.resolver)
	require.Error(t, errWithout, "remainder without a rounding account must fail")

	result, err := svc.Allocate(context.Background(), AllocateRequest{
		BankAccount: f.bankAccount,
		Transaction: txn,
		Obligations: map[uuid.UUID]*Obligation{inv.ID: inv},
		Plan: AllocationPlan{
			Items:             []AllocationItem{{Target: ObligationTarget(inv.ID), Amount: decimal.RequireFromString("100.00")}},
			RoundingAccountID: &f.rounding.ID,
		},
	}, f.resolver)
	require.NoError(t, err)

	assert.NoError(t, result.Entry.Validate())
	roundingLine := lineFor(result.Entry, f.rounding.ID)
	require.NotNil(t, roundingLine)
	assert.True(t, roundingLine.Credit.Equal(decimal.RequireFromString("0.02")))
}

func TestAllocationService_RoundingBeyondToleranceFails(t *testing.T) {
	f := newAllocationFixture(t)
	svc := NewAllocationService(WithReconcileTolerance(decimal.RequireFromString("0.05")))
	inv := f.invoice(t, "100.00")
	txn := f.transaction(t, "100.50")

	_, err := svc.Allocate(context.Background(), AllocateRequest{
		BankAccount: f.bankAccount,
		Transaction: txn,
		Obligations: map[uuid.UUID]*Obligation{inv.ID: inv},
		Plan: AllocationPlan{
			Items:             []AllocationItem{{Target: ObligationTarget(inv.ID), Amount: decimal.RequireFromString("100.00")}},
			RoundingAccountID: &f.rounding.ID,
		},
	}, f.resolver)
	require.Error(t, err)
}

func TestAllocationService_OutflowPaysBill(t *testing.T) {
	// A negative transaction settles a bill: debit payable, credit bank
	f := newAllocationFixture(t)
	svc := NewAllocationService()
	bill, err := NewObligation(f.tenantID, ObligationKindBill, "BILL-042", "Supplies Inc",
		time.Now(), "USD", decimal.RequireFromString("250.00"), decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, bill.MarkSent())
	txn := f.transaction(t, "-250.00")

	result, err := svc.Allocate(context.Background(), AllocateRequest{
		BankAccount: f.bankAccount,
		Transaction: txn,
		Obligations: map[uuid.UUID]*Obligation{bill.ID: bill},
		Plan: AllocationPlan{
			Items: []AllocationItem{{Target: ObligationTarget(bill.ID), Amount: decimal.RequireFromString("250.00")}},
		},
	}, f.resolver)
	require.NoError(t, err)

	assert.Equal(t, ObligationStatusPaid, bill.Status)
	bankLine := lineFor(result.Entry, f.bankAccount.LedgerAccountID)
	require.NotNil(t, bankLine)
	assert.True(t, bankLine.Credit.Equal(decimal.RequireFromString("250.00")))
	apLine := lineFor(result.Entry, f.payable.ID)
	require.NotNil(t, apLine)
	assert.True(t, apLine.Debit.Equal(decimal.RequireFromString("250.00")))
}

func TestAllocationService_TenantMismatchFails(t *testing.T) {
	f := newAllocationFixture(t)
	svc := NewAllocationService()

	foreign, err := NewObligation(uuid.New(), ObligationKindInvoice, "INV-X", "Other Tenant Co",
		time.Now(), "USD", decimal.RequireFromString("100.00"), decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, foreign.MarkSent())
	txn := f.transaction(t, "100.00")

	_, err = svc.Allocate(context.Background(), AllocateRequest{
		BankAccount: f.bankAccount,
		Transaction: txn,
		Obligations: map[uuid.UUID]*Obligation{foreign.ID: foreign},
		Plan: AllocationPlan{
			Items: []AllocationItem{{Target: ObligationTarget(foreign.ID), Amount: decimal.RequireFromString("100.00")}},
		},
	}, f.resolver)
	require.Error(t, err)
	domainErr := &shared.DomainError{}
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "TENANT_MISMATCH", domainErr.Code)
}

func TestAllocationService_CurrencyMismatchFails(t *testing.T) {
	f := newAllocationFixture(t)
	svc := NewAllocationService()

	euro, err := NewObligation(f.tenantID, ObligationKindInvoice, "INV-EUR", "Euro GmbH",
		time.Now(), "EUR", decimal.RequireFromString("100.00"), decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, euro.MarkSent())
	txn := f.transaction(t, "100.00")

	_, err = svc.Allocate(context.Background(), AllocateRequest{
		BankAccount: f.bankAccount,
		Transaction: txn,
		Obligations: map[uuid.UUID]*Obligation{euro.ID: euro},
		Plan: AllocationPlan{
			Items: []AllocationItem{{Target: ObligationTarget(euro.ID), Amount: decimal.RequireFromString("100.00")}},
		},
	}, f.resolver)
	require.Error(t, err)
	domainErr := &shared.DomainError{}
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "CURRENCY_MISMATCH", domainErr.Code)
}

func TestAllocationService_EmptyPlanFails(t *testing.T) {
	f := newAllocationFixture(t)
	svc := NewAllocationService()
	txn := f.transaction(t, "100.00")

	_, err := svc.Allocate(context.Background(), AllocateRequest{
		BankAccount: f.bankAccount,
		Transaction: txn,
		Plan:        AllocationPlan{},
	}, f.resolver)
	assert.Error(t, err)
}

func TestAllocationService_OperationIDOnEntry(t *testing.T) {
	f := newAllocationFixture(t)
	svc := NewAllocationService()
	inv := f.invoice(t, "100.00")
	txn := f.transaction(t, "100.00")

	result, err := svc.Allocate(context.Background(), AllocateRequest{
		BankAccount: f.bankAccount,
		Transaction: txn,
		Obligations: map[uuid.UUID]*Obligation{inv.ID: inv},
		Plan: AllocationPlan{
			Items:       []AllocationItem{{Target: ObligationTarget(inv.ID), Amount: decimal.RequireFromString("100.00")}},
			OperationID: "op-2026-001",
		},
	}, f.resolver)
	require.NoError(t, err)
	assert.True(t, result.Entry.HasOperationID("op-2026-001"))
}
