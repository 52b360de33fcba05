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
func createTestTransaction(t *testing.T, amount string) *BankTransaction {
	txn, err := NewBankTransaction(
		uuid.New(),
		uuid.New(),
		time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		"ACH CREDIT ACME CORP",
		decimal.RequireFromString(amount),
		"USD",
	)
	require.NoError(t, err)
	return txn
}

// ============================================
// NormalizeExternalID Tests
// ============================================

func TestNormalizeExternalID_Deterministic(t *testing.T) {
	accountID := uuid.New()
	date := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	amount := decimal.RequireFromString("125.40")

	a := NormalizeExternalID(accountID, date, "ACH Credit Acme", amount)
	b := NormalizeExternalID(accountID, date, "  ach credit acme ", amount)
	assert.Equal(t, a, b, "case and surrounding whitespace must not change the id")

	// Time of day within the same date does not matter
	c := NormalizeExternalID(accountID, date.Add(5*time.Hour), "ACH Credit Acme", amount)
	assert.Equal(t, a, c)
}

func TestNormalizeExternalID_DistinguishesInputs(t *testing.T) {
	accountID := uuid.New()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	amount := decimal.RequireFromString("125.40")
	base := NormalizeExternalID(accountID, date, "ACH Credit", amount)

	assert.NotEqual(t, base, NormalizeExternalID(uuid.New(), date, "ACH Credit", amount))
	assert.NotEqual(t, base, NormalizeExternalID(accountID, date.AddDate(0, 0, 1), "ACH Credit", amount))
	assert.NotEqual(t, base, NormalizeExternalID(accountID, date, "ACH Debit", amount))
	assert.NotEqual(t, base, NormalizeExternalID(accountID, date, "ACH Credit", decimal.RequireFromString("125.41")))
}

// ============================================
// BankTransactionStatus Tests
// ============================================

func TestBankTransactionStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status     BankTransactionStatus
		isTerminal bool
	}{
		{BankTransactionStatusNew, false},
		{BankTransactionStatusSuggested, false},
		{BankTransactionStatusPartial, false},
		{BankTransactionStatusMatchedSingle, false},
		{BankTransactionStatusMatchedMulti, false},
		{BankTransactionStatusReconciled, true},
		{BankTransactionStatusExcluded, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.isTerminal, tt.status.IsTerminal())
		})
	}
}

// ============================================
// BankTransaction Tests
// ============================================

func TestNewBankTransaction(t *testing.T) {
	txn := createTestTransaction(t, "250.00")

	assert.Equal(t, BankTransactionStatusNew, txn.Status)
	assert.NotEmpty(t, txn.ExternalID)
	assert.True(t, txn.IsInflow())
	assert.True(t, txn.AllocatedAmount.IsZero())

	_, err := NewBankTransaction(uuid.New(), uuid.New(), time.Now(), "zero", decimal.Zero, "USD")
	assert.Error(t, err)
}

func TestBankTransaction_Direction(t *testing.T) {
	inflow := createTestTransaction(t, "250.00")
	assert.True(t, inflow.IsInflow())
	assert.True(t, inflow.AbsAmount().Equal(decimal.RequireFromString("250.00")))

	outflow := createTestTransaction(t, "-250.00")
	assert.False(t, outflow.IsInflow())
	assert.True(t, outflow.AbsAmount().Equal(decimal.RequireFromString("250.00")))
}

func TestBankTransaction_RegisterAllocation_Single(t *testing.T) {
	txn := createTestTransaction(t, "100.00")

	err := txn.RegisterAllocation(decimal.RequireFromString("100.00"), 1)
	require.NoError(t, err)
	assert.Equal(t, BankTransactionStatusMatchedSingle, txn.Status)
	assert.True(t, txn.RemainingAmount().IsZero())
}

func TestBankTransaction_RegisterAllocation_Multi(t *testing.T) {
	txn := createTestTransaction(t, "1500.00")

	err := txn.RegisterAllocation(decimal.RequireFromString("1500.00"), 3)
	require.NoError(t, err)
	assert.Equal(t, BankTransactionStatusMatchedMulti, txn.Status)
}

func TestBankTransaction_RegisterAllocation_Partial(t *testing.T) {
	txn := createTestTransaction(t, "1000.00")

	err := txn.RegisterAllocation(decimal.RequireFromString("400.00"), 1)
	require.NoError(t, err)
	assert.Equal(t, BankTransactionStatusPartial, txn.Status)
	assert.True(t, txn.RemainingAmount().Equal(decimal.RequireFromString("600.00")))
}

func TestBankTransaction_RegisterAllocation_OverAllocation(t *testing.T) {
	txn := createTestTransaction(t, "100.00")

	err := txn.RegisterAllocation(decimal.RequireFromString("100.01"), 1)
	assert.Error(t, err)
	assert.Equal(t, BankTransactionStatusNew, txn.Status)
}

func TestBankTransaction_Exclude(t *testing.T) {
	txn := createTestTransaction(t, "100.00")

	require.NoError(t, txn.Exclude("internal transfer"))
	assert.Equal(t, BankTransactionStatusExcluded, txn.Status)

	// Excluded is terminal for allocation and reconciliation
	assert.Error(t, txn.RegisterAllocation(decimal.NewFromInt(100), 1))
	assert.Error(t, txn.MarkReconciled(time.Now(), nil))

	// But the transaction can be brought back to the pool
	require.NoError(t, txn.Include())
	assert.Equal(t, BankTransactionStatusNew, txn.Status)
}

func TestBankTransaction_Exclude_AfterAllocationFails(t *testing.T) {
	txn := createTestTransaction(t, "100.00")
	require.NoError(t, txn.RegisterAllocation(decimal.RequireFromString("40.00"), 1))

	assert.Error(t, txn.Exclude("too late"))
}

func TestBankTransaction_MarkReconciled(t *testing.T) {
	txn := createTestTransaction(t, "100.00")
	require.NoError(t, txn.RegisterAllocation(decimal.RequireFromString("100.00"), 1))

	sessionID := uuid.New()
	require.NoError(t, txn.MarkReconciled(time.Now(), &sessionID))
	assert.Equal(t, BankTransactionStatusReconciled, txn.Status)
	assert.Equal(t, &sessionID, txn.SessionID)

	assert.Error(t, txn.MarkReconciled(time.Now(), &sessionID))
	assert.Error(t, txn.RegisterAllocation(decimal.NewFromInt(1), 1))
}

func TestBankTransaction_Suggest(t *testing.T) {
	txn := createTestTransaction(t, "100.00")

	require.NoError(t, txn.Suggest())
	assert.Equal(t, BankTransactionStatusSuggested, txn.Status)

	assert.Error(t, txn.Suggest())
}
