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
func createTestInvoice(t *testing.T, net, tax string) *Obligation {
	o, err := NewObligation(
		uuid.New(),
		ObligationKindInvoice,
		"INV-2026-001",
		"Acme Corp",
		time.Now(),
		"USD",
		decimal.RequireFromString(net),
		decimal.RequireFromString(tax),
	)
	require.NoError(t, err)
	return o
}

func createTestBill(t *testing.T, net, tax string) *Obligation {
	o, err := NewObligation(
		uuid.New(),
		ObligationKindBill,
		"BILL-2026-001",
		"Office Supplies Inc",
		time.Now(),
		"USD",
		decimal.RequireFromString(net),
		decimal.RequireFromString(tax),
	)
	require.NoError(t, err)
	return o
}

// ============================================
// DeriveObligationStatus Tests
// ============================================

func TestDeriveObligationStatus(t *testing.T) {
	d := decimal.RequireFromString

	tests := []struct {
		name   string
		gross  string
		paid   string
		credit string
		sent   bool
		want   ObligationStatus
	}{
		{"draft, nothing settled", "100.00", "0", "0", false, ObligationStatusDraft},
		{"sent, nothing settled", "100.00", "0", "0", true, ObligationStatusSent},
		{"partially paid", "1000.00", "300.00", "0", true, ObligationStatusPartial},
		{"partially paid before send", "1000.00", "300.00", "0", false, ObligationStatusPartial},
		{"fully paid", "100.00", "100.00", "0", true, ObligationStatusPaid},
		{"paid via credit only", "100.00", "0", "100.00", true, ObligationStatusPaid},
		{"paid via mix", "100.00", "60.00", "40.00", true, ObligationStatusPaid},
		{"credit partial", "100.00", "0", "25.00", true, ObligationStatusPartial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveObligationStatus(d(tt.gross), d(tt.paid), d(tt.credit), tt.sent)
			assert.Equal(t, tt.want, got)
		})
	}
}

// ============================================
// Obligation Tests
// ============================================

func TestNewObligation(t *testing.T) {
	o := createTestInvoice(t, "100.00", "8.00")

	assert.Equal(t, ObligationStatusDraft, o.Status)
	assert.True(t, o.GrossAmount.Equal(decimal.RequireFromString("108.00")))
	assert.True(t, o.OpenBalance().Equal(decimal.RequireFromString("108.00")))
	assert.Len(t, o.GetDomainEvents(), 1)
}

func TestNewObligation_Invalid(t *testing.T) {
	now := time.Now()
	d := decimal.RequireFromString

	_, err := NewObligation(uuid.New(), ObligationKind("OTHER"), "N-1", "Someone", now, "USD", d("100"), d("0"))
	assert.Error(t, err)

	_, err = NewObligation(uuid.New(), ObligationKindInvoice, "", "Someone", now, "USD", d("100"), d("0"))
	assert.Error(t, err)

	_, err = NewObligation(uuid.New(), ObligationKindInvoice, "N-1", "Someone", now, "USD", d("0"), d("0"))
	assert.Error(t, err)

	_, err = NewObligation(uuid.New(), ObligationKindInvoice, "N-1", "Someone", now, "USD", d("-10"), d("0"))
	assert.Error(t, err)
}

func TestObligation_MarkSent(t *testing.T) {
	o := createTestInvoice(t, "100.00", "0.00")

	require.NoError(t, o.MarkSent())
	assert.Equal(t, ObligationStatusSent, o.Status)
	assert.True(t, o.Sent)

	// Sending twice fails
	assert.Error(t, o.MarkSent())
}

func TestObligation_ApplyPayment_Full(t *testing.T) {
	// Gross 100.00, allocate 100.00: Paid with zero balance
	o := createTestInvoice(t, "100.00", "0.00")
	require.NoError(t, o.MarkSent())

	err := o.ApplyPayment(decimal.RequireFromString("100.00"))
	require.NoError(t, err)
	assert.Equal(t, ObligationStatusPaid, o.Status)
	assert.True(t, o.OpenBalance().IsZero())
}

func TestObligation_ApplyPayment_Partial(t *testing.T) {
	// Gross 1000.00, allocate 300.00: Partial with balance 700.00
	o := createTestInvoice(t, "1000.00", "0.00")
	require.NoError(t, o.MarkSent())

	err := o.ApplyPayment(decimal.RequireFromString("300.00"))
	require.NoError(t, err)
	assert.Equal(t, ObligationStatusPartial, o.Status)
	assert.True(t, o.OpenBalance().Equal(decimal.RequireFromString("700.00")))
}

func TestObligation_ApplyPayment_OverAllocation(t *testing.T) {
	// Allocating 120.00 against an open balance of 100.00 fails and leaves
	// the obligation untouched
	o := createTestInvoice(t, "100.00", "0.00")
	require.NoError(t, o.MarkSent())

	err := o.ApplyPayment(decimal.RequireFromString("120.00"))
	require.Error(t, err)
	assert.Equal(t, ObligationStatusSent, o.Status)
	assert.True(t, o.PaidAmount.IsZero())
	assert.True(t, o.OpenBalance().Equal(decimal.RequireFromString("100.00")))
}

func TestObligation_ApplyPayment_SequencePreservesInvariant(t *testing.T) {
	o := createTestInvoice(t, "1000.00", "0.00")
	require.NoError(t, o.MarkSent())

	require.NoError(t, o.ApplyPayment(decimal.RequireFromString("400.00")))
	assert.Equal(t, ObligationStatusPartial, o.Status)

	require.NoError(t, o.ApplyPayment(decimal.RequireFromString("600.00")))
	assert.Equal(t, ObligationStatusPaid, o.Status)

	// Paid obligations accept nothing further
	assert.Error(t, o.ApplyPayment(decimal.RequireFromString("0.01")))
}

func TestObligation_ReversePayment(t *testing.T) {
	o := createTestInvoice(t, "500.00", "0.00")
	require.NoError(t, o.MarkSent())
	require.NoError(t, o.ApplyPayment(decimal.RequireFromString("500.00")))
	assert.Equal(t, ObligationStatusPaid, o.Status)

	require.NoError(t, o.ReversePayment(decimal.RequireFromString("500.00")))
	assert.Equal(t, ObligationStatusSent, o.Status)
	assert.True(t, o.PaidAmount.IsZero())

	assert.Error(t, o.ReversePayment(decimal.RequireFromString("1.00")))
}

func TestObligation_ApplyCredit(t *testing.T) {
	o := createTestInvoice(t, "100.00", "0.00")
	require.NoError(t, o.MarkSent())

	require.NoError(t, o.ApplyCredit(decimal.RequireFromString("30.00")))
	assert.Equal(t, ObligationStatusPartial, o.Status)
	assert.True(t, o.OpenBalance().Equal(decimal.RequireFromString("70.00")))

	assert.Error(t, o.ApplyCredit(decimal.RequireFromString("80.00")))
}

func TestObligation_SetTaxDetail(t *testing.T) {
	o := createTestInvoice(t, "100.00", "8.00")

	detail := TaxDetail{
		{Jurisdiction: "CA", Rate: decimal.RequireFromString("0.0725"), Amount: decimal.RequireFromString("7.25")},
		{Jurisdiction: "SF", Rate: decimal.RequireFromString("0.0125"), Amount: decimal.RequireFromString("1.25")},
	}
	require.NoError(t, o.SetTaxDetail(detail))

	assert.True(t, o.TaxAmount.Equal(decimal.RequireFromString("8.50")))
	assert.True(t, o.GrossAmount.Equal(decimal.RequireFromString("108.50")))
}

func TestObligation_SetTaxDetail_AfterSettlementFails(t *testing.T) {
	o := createTestInvoice(t, "100.00", "0.00")
	require.NoError(t, o.MarkSent())
	require.NoError(t, o.ApplyPayment(decimal.RequireFromString("50.00")))

	err := o.SetTaxDetail(TaxDetail{{Jurisdiction: "CA", Rate: decimal.Zero, Amount: decimal.NewFromInt(5)}})
	assert.Error(t, err)
}

func TestObligation_Void(t *testing.T) {
	o := createTestInvoice(t, "100.00", "0.00")

	require.NoError(t, o.Void())
	assert.Equal(t, ObligationStatusVoid, o.Status)

	assert.Error(t, o.Void())
	assert.Error(t, o.MarkSent())
	assert.Error(t, o.ApplyPayment(decimal.NewFromInt(10)))
}

func TestObligation_Void_WithSettlementFails(t *testing.T) {
	o := createTestInvoice(t, "100.00", "0.00")
	require.NoError(t, o.MarkSent())
	require.NoError(t, o.ApplyPayment(decimal.RequireFromString("10.00")))

	assert.Error(t, o.Void())
}

func TestObligation_ReceivableRole(t *testing.T) {
	assert.Equal(t, RoleAccountsReceivable, createTestInvoice(t, "10", "0").ReceivableRole())
	assert.Equal(t, RoleAccountsPayable, createTestBill(t, "10", "0").ReceivableRole())
}
