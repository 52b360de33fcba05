package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/openbooks/backend/internal/domain/ledger"
	"github.com/openbooks/backend/internal/domain/shared"
	"github.com/openbooks/backend/internal/infrastructure/persistence"
	"github.com/openbooks/backend/internal/infrastructure/persistence/models"
	"github.com/openbooks/backend/internal/infrastructure/tax"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// staticResolver hands out in-memory accounts per role. Role accounts are not
// persisted; journal lines reference them by id only.
type staticResolver struct {
	mu       sync.Mutex
	accounts map[string]*ledger.Account
}

func newStaticResolver() *staticResolver {
	return &staticResolver{accounts: make(map[string]*ledger.Account)}
}

func (r *staticResolver) Resolve(ctx context.Context, tenantID uuid.UUID, role ledger.AccountRole) (*ledger.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := tenantID.String() + ":" + string(role)
	if account, ok := r.accounts[key]; ok {
		return account, nil
	}

	accountType := ledger.AccountTypeAsset
	switch role {
	case ledger.RoleAccountsPayable, ledger.RoleCustomerCredit, ledger.RoleTaxPayable:
		accountType = ledger.AccountTypeLiability
	case ledger.RoleDefaultIncome:
		accountType = ledger.AccountTypeIncome
	case ledger.RoleDefaultExpense:
		accountType = ledger.AccountTypeExpense
	}

	account, err := ledger.NewAccount(tenantID, fmt.Sprintf("T%03d", len(r.accounts)+1),
		string(role), accountType, nil)
	if err != nil {
		return nil, err
	}
	r.accounts[key] = account
	return account, nil
}

type postingFixture struct {
	uow         ledger.UnitOfWork
	posting     *DocumentPostingService
	obligations *ObligationService
	tenantID    uuid.UUID
}

func setupPostingFixture(t *testing.T) *postingFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.AccountModel{},
		&models.JournalEntryModel{},
		&models.JournalLineModel{},
		&models.ObligationModel{},
	))

	uow := persistence.NewGormUnitOfWork(db)
	posting := NewDocumentPostingService(uow, ledger.NewPostingService(), newStaticResolver(), zap.NewNop())

	taxEngine, err := tax.NewFlatRateEngine("US-CA", decimal.NewFromFloat(0.08))
	require.NoError(t, err)

	return &postingFixture{
		uow:         uow,
		posting:     posting,
		obligations: NewObligationService(uow, posting, taxEngine, zap.NewNop()),
		tenantID:    uuid.New(),
	}
}

func (f *postingFixture) createInvoice(t *testing.T, number string, net decimal.Decimal) *ledger.Obligation {
	t.Helper()
	obligation, err := f.obligations.CreateObligation(context.Background(), CreateObligationRequest{
		TenantID:    f.tenantID,
		Kind:        ledger.ObligationKindInvoice,
		Number:      number,
		ContactName: "Acme Corp",
		IssueDate:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Currency:    "USD",
		NetAmount:   net,
	})
	require.NoError(t, err)
	return obligation
}

func TestCreateObligation_QuotesTax(t *testing.T) {
	f := setupPostingFixture(t)

	invoice := f.createInvoice(t, "INV-001", decimal.NewFromInt(100))

	assert.Equal(t, ledger.ObligationStatusDraft, invoice.Status)
	assert.True(t, invoice.TaxAmount.Equal(decimal.NewFromInt(8)), "got %s", invoice.TaxAmount)
	assert.True(t, invoice.GrossAmount.Equal(decimal.NewFromInt(108)))
	require.Len(t, invoice.TaxComponents, 1)
	assert.Equal(t, "US-CA", invoice.TaxComponents[0].Jurisdiction)
}

func TestPostDocumentEvent_Idempotent(t *testing.T) {
	f := setupPostingFixture(t)
	ctx := context.Background()
	invoice := f.createInvoice(t, "INV-002", decimal.NewFromInt(100))

	req := PostDocumentEventRequest{
		TenantID:     f.tenantID,
		ObligationID: invoice.ID,
		EventKind:    ledger.PostingEventInvoiceIssued,
	}

	first, err := f.posting.PostDocumentEvent(ctx, req)
	require.NoError(t, err)
	require.Len(t, first.Lines, 3)
	assert.True(t, first.TotalDebit().Equal(decimal.NewFromInt(108)))
	assert.True(t, first.TotalDebit().Equal(first.TotalCredit()))

	// Re-posting the same event returns the existing entry, no new write
	second, err := f.posting.PostDocumentEvent(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestRemovePosting_ReleasesTheKey(t *testing.T) {
	f := setupPostingFixture(t)
	ctx := context.Background()
	invoice := f.createInvoice(t, "INV-003", decimal.NewFromInt(50))

	req := PostDocumentEventRequest{
		TenantID:     f.tenantID,
		ObligationID: invoice.ID,
		EventKind:    ledger.PostingEventInvoiceIssued,
	}

	first, err := f.posting.PostDocumentEvent(ctx, req)
	require.NoError(t, err)

	err = f.posting.RemovePosting(ctx, RemovePostingRequest{
		TenantID:     f.tenantID,
		ObligationID: invoice.ID,
		EventKind:    ledger.PostingEventInvoiceIssued,
		Reason:       "issued in error",
	})
	require.NoError(t, err)

	// Removing again is a no-op
	err = f.posting.RemovePosting(ctx, RemovePostingRequest{
		TenantID:     f.tenantID,
		ObligationID: invoice.ID,
		EventKind:    ledger.PostingEventInvoiceIssued,
		Reason:       "issued in error",
	})
	require.NoError(t, err)

	// The key is free again: a fresh posting creates a new entry
	replacement, err := f.posting.PostDocumentEvent(ctx, req)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, replacement.ID)
}

func TestSendInvoice_PostsIssueEntry(t *testing.T) {
	f := setupPostingFixture(t)
	ctx := context.Background()
	invoice := f.createInvoice(t, "INV-004", decimal.NewFromInt(100))

	sent, err := f.obligations.SendInvoice(ctx, f.tenantID, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.ObligationStatusSent, sent.Status)

	var entry *ledger.JournalEntry
	err = f.uow.Execute(ctx, func(repos ledger.Repositories) error {
		var err error
		entry, err = repos.JournalEntries().FindBySource(ctx, f.tenantID,
			ledger.DocumentTypeInvoice, invoice.ID, ledger.PostingEventInvoiceIssued)
		return err
	})
	require.NoError(t, err)
	assert.True(t, entry.TotalDebit().Equal(decimal.NewFromInt(108)))
}

func TestVoidObligation_RemovesIssuePosting(t *testing.T) {
	f := setupPostingFixture(t)
	ctx := context.Background()
	invoice := f.createInvoice(t, "INV-005", decimal.NewFromInt(100))

	_, err := f.obligations.SendInvoice(ctx, f.tenantID, invoice.ID)
	require.NoError(t, err)

	require.NoError(t, f.obligations.VoidObligation(ctx, f.tenantID, invoice.ID, "customer cancelled"))

	voided, err := f.obligations.GetObligation(ctx, f.tenantID, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.ObligationStatusVoid, voided.Status)

	err = f.uow.Execute(ctx, func(repos ledger.Repositories) error {
		_, err := repos.JournalEntries().FindBySource(ctx, f.tenantID,
			ledger.DocumentTypeInvoice, invoice.ID, ledger.PostingEventInvoiceIssued)
		return err
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
