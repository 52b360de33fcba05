package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helpers
func candidateLine(t *testing.T, entryDate time.Time, accountID uuid.UUID, debit, credit string) LedgerLine {
	line := JournalLine{
		ID:        uuid.New(),
		AccountID: accountID,
		Debit:     decimal.RequireFromString(debit),
		Credit:    decimal.RequireFromString(credit),
	}
	require.NoError(t, line.Validate())
	return LedgerLine{
		Line:        line,
		EntryID:     uuid.New(),
		EntryDate:   entryDate,
		Description: "candidate",
	}
}

// ============================================
// MatchingService Tests
// ============================================

func TestMatchingService_FindCandidates_Window(t *testing.T) {
	svc := NewMatchingService()
	accountID := uuid.New()
	txn := createTestTransaction(t, "100.00")
	base := txn.TransactionDate

	lines := []LedgerLine{
		candidateLine(t, base, accountID, "100.00", "0"),
		candidateLine(t, base.AddDate(0, 0, 3), accountID, "100.00", "0"),
		candidateLine(t, base.AddDate(0, 0, -3), accountID, "100.00", "0"),
		candidateLine(t, base.AddDate(0, 0, 4), accountID, "100.00", "0"),
		candidateLine(t, base.AddDate(0, 0, -4), accountID, "100.00", "0"),
	}

	candidates := svc.FindCandidates(txn, lines)
	assert.Len(t, candidates, 3, "only lines within +/-3 days qualify")
}

func TestMatchingService_FindCandidates_SignRule(t *testing.T) {
	svc := NewMatchingService()
	accountID := uuid.New()

	inflow := createTestTransaction(t, "100.00")
	lines := []LedgerLine{
		candidateLine(t, inflow.TransactionDate, accountID, "100.00", "0"),
		candidateLine(t, inflow.TransactionDate, accountID, "0", "100.00"),
	}
	candidates := svc.FindCandidates(inflow, lines)
	require.Len(t, candidates, 1)
	assert.True(t, candidates[0].Line.Line.Net().IsPositive())

	outflow := createTestTransaction(t, "-100.00")
	candidates = svc.FindCandidates(outflow, lines)
	require.Len(t, candidates, 1)
	assert.True(t, candidates[0].Line.Line.Net().IsNegative())
}

func TestMatchingService_FindCandidates_AmountTolerance(t *testing.T) {
	svc := NewMatchingService()
	accountID := uuid.New()
	txn := createTestTransaction(t, "100.00")

	lines := []LedgerLine{
		candidateLine(t, txn.TransactionDate, accountID, "100.00", "0"),
		candidateLine(t, txn.TransactionDate, accountID, "100.01", "0"),
		candidateLine(t, txn.TransactionDate, accountID, "99.99", "0"),
		candidateLine(t, txn.TransactionDate, accountID, "100.02", "0"),
		candidateLine(t, txn.TransactionDate, accountID, "99.98", "0"),
	}

	candidates := svc.FindCandidates(txn, lines)
	assert.Len(t, candidates, 3, "one-cent default tolerance")
}

func TestMatchingService_FindCandidates_SkipsReconciled(t *testing.T) {
	svc := NewMatchingService()
	accountID := uuid.New()
	txn := createTestTransaction(t, "100.00")

	reconciled := candidateLine(t, txn.TransactionDate, accountID, "100.00", "0")
	require.NoError(t, reconciled.Line.MarkReconciled(time.Now(), nil))
	open := candidateLine(t, txn.TransactionDate, accountID, "100.00", "0")

	candidates := svc.FindCandidates(txn, []LedgerLine{reconciled, open})
	require.Len(t, candidates, 1)
	assert.Equal(t, open.Line.ID, candidates[0].Line.Line.ID)
}

func TestMatchingService_FindCandidates_OrderedByDateThenID(t *testing.T) {
	svc := NewMatchingService()
	accountID := uuid.New()
	txn := createTestTransaction(t, "100.00")
	base := txn.TransactionDate

	later := candidateLine(t, base.AddDate(0, 0, 1), accountID, "100.00", "0")
	earlier := candidateLine(t, base.AddDate(0, 0, -1), accountID, "100.00", "0")
	sameDay := candidateLine(t, base, accountID, "100.00", "0")

	candidates := svc.FindCandidates(txn, []LedgerLine{later, sameDay, earlier})
	require.Len(t, candidates, 3)
	assert.Equal(t, earlier.Line.ID, candidates[0].Line.Line.ID)
	assert.Equal(t, sameDay.Line.ID, candidates[1].Line.Line.ID)
	assert.Equal(t, later.Line.ID, candidates[2].Line.Line.ID)
}

func TestMatchingService_FindCandidates_IsReadOnly(t *testing.T) {
	svc := NewMatchingService()
	accountID := uuid.New()
	txn := createTestTransaction(t, "100.00")
	line := candidateLine(t, txn.TransactionDate, accountID, "100.00", "0")

	svc.FindCandidates(txn, []LedgerLine{line})

	assert.Equal(t, BankTransactionStatusNew, txn.Status)
	assert.False(t, line.Line.Reconciled)
}

func TestMatchingService_Options(t *testing.T) {
	svc := NewMatchingService(
		WithWindowDays(7),
		WithAmountTolerance(decimal.RequireFromString("0.10")),
	)
	accountID := uuid.New()
	txn := createTestTransaction(t, "100.00")

	lines := []LedgerLine{
		candidateLine(t, txn.TransactionDate.AddDate(0, 0, 6), accountID, "100.05", "0"),
	}
	assert.Len(t, svc.FindCandidates(txn, lines), 1)
}

func TestMatchingService_Reconcile(t *testing.T) {
	svc := NewMatchingService()
	f := newAllocationFixture(t)
	txn := f.transaction(t, "100.00")

	session, err := NewReconciliationSession(f.tenantID, f.bankAccount.ID,
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		decimal.Zero, decimal.RequireFromString("100.00"))
	require.NoError(t, err)

	line := NewDebitLine(f.bankAccount.LedgerAccountID, money(t, "100.00"))

	reconciled, err := svc.Reconcile(txn, []JournalLine{line}, session)
	require.NoError(t, err)

	require.Len(t, reconciled, 1)
	assert.True(t, reconciled[0].Reconciled)
	assert.Equal(t, &session.ID, reconciled[0].SessionID)
	assert.Equal(t, BankTransactionStatusReconciled, txn.Status)
	assert.Equal(t, &session.ID, txn.SessionID)
	assert.Equal(t, SessionStatusInProgress, session.Status)
}

func TestMatchingService_Reconcile_WithoutSession(t *testing.T) {
	svc := NewMatchingService()
	f := newAllocationFixture(t)
	txn := f.transaction(t, "50.00")
	line := NewDebitLine(f.bankAccount.LedgerAccountID, money(t, "50.00"))

	reconciled, err := svc.Reconcile(txn, []JournalLine{line}, nil)
	require.NoError(t, err)
	assert.Nil(t, reconciled[0].SessionID)
	assert.Equal(t, BankTransactionStatusReconciled, txn.Status)
}

// ============================================
// ReconciliationSession Tests
// ============================================

func TestReconciliationSession_Lifecycle(t *testing.T) {
	session, err := NewReconciliationSession(uuid.New(), uuid.New(),
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		decimal.Zero, decimal.NewFromInt(500))
	require.NoError(t, err)
	assert.Equal(t, SessionStatusDraft, session.Status)

	// Draft sessions cannot complete
	assert.Error(t, session.Complete())

	require.NoError(t, session.Begin())
	assert.Equal(t, SessionStatusInProgress, session.Status)

	// Begin is idempotent while in progress
	require.NoError(t, session.Begin())

	require.NoError(t, session.Complete())
	assert.Equal(t, SessionStatusCompleted, session.Status)
	assert.NotNil(t, session.CompletedAt)

	assert.Error(t, session.Begin())
	assert.Error(t, session.Complete())
}

func TestReconciliationSession_InvalidPeriod(t *testing.T) {
	start := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := NewReconciliationSession(uuid.New(), uuid.New(), start, end, decimal.Zero, decimal.Zero)
	assert.Error(t, err)
}

func TestReconciliationSession_Contains(t *testing.T) {
	session, err := NewReconciliationSession(uuid.New(), uuid.New(),
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		decimal.Zero, decimal.Zero)
	require.NoError(t, err)

	assert.True(t, session.Contains(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)))
	assert.True(t, session.Contains(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, session.Contains(time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)))
	assert.False(t, session.Contains(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)))
}
