package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/openbooks/backend/internal/domain/ledger"
	"github.com/openbooks/backend/internal/infrastructure/persistence"
	"github.com/openbooks/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type allocationFixture struct {
	uow      ledger.UnitOfWork
	service  *BankAllocationService
	tenantID uuid.UUID
}

func setupAllocationFixture(t *testing.T) *allocationFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.AccountModel{},
		&models.JournalEntryModel{},
		&models.JournalLineModel{},
		&models.ObligationModel{},
		&models.BankAccountModel{},
		&models.BankTransactionModel{},
		&models.AllocationModel{},
	))

	uow := persistence.NewGormUnitOfWork(db)
	return &allocationFixture{
		uow:      uow,
		service:  NewBankAllocationService(uow, ledger.NewAllocationService(), newStaticResolver(), zap.NewNop()),
		tenantID: uuid.New(),
	}
}

// seedOpenInvoice persists a sent invoice and a matching statement line
func (f *allocationFixture) seedOpenInvoice(t *testing.T, gross string) (*ledger.Obligation, *ledger.BankTransaction) {
	t.Helper()

	invoice, err := ledger.NewObligation(f.tenantID, ledger.ObligationKindInvoice, "INV-"+gross,
		"Acme Corp", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), "USD",
		decimal.RequireFromString(gross), decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, invoice.MarkSent())

	bankAccount, err := ledger.NewBankAccount(f.tenantID, "Operating", "USD", uuid.New())
	require.NoError(t, err)

	transaction, err := ledger.NewBankTransaction(f.tenantID, bankAccount.ID,
		time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), "customer deposit",
		decimal.RequireFromString(gross), "USD")
	require.NoError(t, err)

	err = f.uow.Execute(context.Background(), func(repos ledger.Repositories) error {
		if err := repos.Obligations().Save(context.Background(), invoice); err != nil {
			return err
		}
		if err := repos.BankAccounts().Save(context.Background(), bankAccount); err != nil {
			return err
		}
		return repos.BankTransactions().Save(context.Background(), transaction)
	})
	require.NoError(t, err)
	return invoice, transaction
}

func TestAllocate_OperationIDReplay(t *testing.T) {
	f := setupAllocationFixture(t)
	ctx := context.Background()
	invoice, transaction := f.seedOpenInvoice(t, "100.00")

	req := AllocateRequest{
		TenantID:          f.tenantID,
		BankTransactionID: transaction.ID,
		Plan: ledger.AllocationPlan{
			OperationID: "alloc-op-1",
			Items: []ledger.AllocationItem{
				{Target: ledger.ObligationTarget(invoice.ID), Amount: decimal.RequireFromString("100.00")},
			},
		},
	}

	first, err := f.service.Allocate(ctx, req)
	require.NoError(t, err)
	assert.False(t, first.Replayed)
	require.Len(t, first.Allocations, 1)

	// A retry with the same operation id returns the original entry
	second, err := f.service.Allocate(ctx, req)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Entry.ID, second.Entry.ID)
	require.Len(t, second.Allocations, 1)
	assert.Equal(t, first.Allocations[0].ID, second.Allocations[0].ID)

	// The replay wrote nothing: still exactly one allocation on record
	var stored []ledger.Allocation
	err = f.uow.Execute(ctx, func(repos ledger.Repositories) error {
		var err error
		stored, err = repos.Allocations().FindByBankTransaction(ctx, f.tenantID, transaction.ID)
		return err
	})
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestAllocate_DistinctOperationIDsAreNotReplays(t *testing.T) {
	f := setupAllocationFixture(t)
	ctx := context.Background()
	invoice, transaction := f.seedOpenInvoice(t, "100.00")

	first, err := f.service.Allocate(ctx, AllocateRequest{
		TenantID:          f.tenantID,
		BankTransactionID: transaction.ID,
		Plan: ledger.AllocationPlan{
			OperationID: "alloc-op-2",
			Items: []ledger.AllocationItem{
				{Target: ledger.ObligationTarget(invoice.ID), Amount: decimal.RequireFromString("100.00")},
			},
		},
	})
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	// A fresh operation id is not a replay: it goes through validation again
	// and fails because the transaction and invoice are already settled
	_, err = f.service.Allocate(ctx, AllocateRequest{
		TenantID:          f.tenantID,
		BankTransactionID: transaction.ID,
		Plan: ledger.AllocationPlan{
			OperationID: "alloc-op-3",
			Items: []ledger.AllocationItem{
				{Target: ledger.ObligationTarget(invoice.ID), Amount: decimal.RequireFromString("100.00")},
			},
		},
	})
	require.Error(t, err)
}
