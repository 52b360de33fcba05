package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/openbooks/backend/internal/domain/shared"
)

// AccountRepository defines the interface for chart-of-accounts persistence
type AccountRepository interface {
	// FindByID finds an account by ID for a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Account, error)

	// FindByCode finds an account by its unique code within a tenant
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Account, error)

	// FindAllForTenant lists accounts for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Account, error)

	// Save creates or updates an account
	Save(ctx context.Context, account *Account) error
}

// JournalEntryFilter defines filtering options for entry queries
type JournalEntryFilter struct {
	shared.Filter
	FromDate      *time.Time
	ToDate        *time.Time
	SourceType    *DocumentType
	SourceID      *uuid.UUID
	IncludeVoided bool
}

// JournalEntryRepository defines the interface for journal entry persistence.
// Entries are append-only; Save persists the entry together with its lines
// in one write and re-runs the balance validation before committing.
type JournalEntryRepository interface {
	// FindByID finds an entry with its lines
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*JournalEntry, error)

	// FindBySource finds the non-voided entry posted for a document event.
	// Returns shared.ErrNotFound when no active entry exists.
	FindBySource(ctx context.Context, tenantID uuid.UUID, sourceType DocumentType, sourceID uuid.UUID, kind PostingEventKind) (*JournalEntry, error)

	// FindByOperationID finds the entry created under an allocation
	// operation id. Returns shared.ErrNotFound when the id is unknown.
	FindByOperationID(ctx context.Context, tenantID uuid.UUID, operationID string) (*JournalEntry, error)

	// FindAllForTenant lists entries for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter JournalEntryFilter) ([]JournalEntry, error)

	// FindUnreconciledLines returns non-voided, unreconciled lines on one
	// account whose entry date falls within [from, to]
	FindUnreconciledLines(ctx context.Context, tenantID, accountID uuid.UUID, from, to time.Time) ([]LedgerLine, error)

	// Save validates and persists the entry and all its lines atomically
	Save(ctx context.Context, entry *JournalEntry) error

	// SaveLines persists updated reconciliation state for existing lines
	SaveLines(ctx context.Context, lines []JournalLine) error
}

// ObligationFilter defines filtering options for obligation queries
type ObligationFilter struct {
	shared.Filter
	Kind     *ObligationKind
	Status   *ObligationStatus
	FromDate *time.Time
	ToDate   *time.Time
}

// ObligationRepository defines the interface for obligation persistence
type ObligationRepository interface {
	// FindByID finds an obligation by ID for a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Obligation, error)

	// FindByNumber finds an obligation by document number for a tenant
	FindByNumber(ctx context.Context, tenantID uuid.UUID, kind ObligationKind, number string) (*Obligation, error)

	// FindAllForTenant lists obligations for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ObligationFilter) ([]Obligation, error)

	// Save creates or updates an obligation
	Save(ctx context.Context, obligation *Obligation) error

	// SaveWithLock saves with optimistic locking. Returns
	// shared.ErrConcurrencyConflict when the stored version has moved on.
	SaveWithLock(ctx context.Context, obligation *Obligation) error
}

// BankAccountRepository defines the interface for bank account persistence
type BankAccountRepository interface {
	// FindByID finds a bank account by ID for a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*BankAccount, error)

	// FindAllForTenant lists bank accounts for a tenant
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]BankAccount, error)

	// Save creates or updates a bank account
	Save(ctx context.Context, account *BankAccount) error
}

// BankTransactionFilter defines filtering options for statement line queries
type BankTransactionFilter struct {
	shared.Filter
	BankAccountID *uuid.UUID
	Status        *BankTransactionStatus
	FromDate      *time.Time
	ToDate        *time.Time
}

// BankTransactionRepository defines the interface for statement line
// persistence
type BankTransactionRepository interface {
	// FindByID finds a bank transaction by ID for a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*BankTransaction, error)

	// FindByExternalID finds a transaction by its deduplication id.
	// Returns shared.ErrNotFound when no such import exists.
	FindByExternalID(ctx context.Context, tenantID, bankAccountID uuid.UUID, externalID string) (*BankTransaction, error)

	// FindAllForTenant lists bank transactions for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter BankTransactionFilter) ([]BankTransaction, error)

	// Save creates or updates a bank transaction
	Save(ctx context.Context, transaction *BankTransaction) error

	// SaveWithLock saves with optimistic locking. Returns
	// shared.ErrConcurrencyConflict when the stored version has moved on.
	SaveWithLock(ctx context.Context, transaction *BankTransaction) error
}

// AllocationRepository defines the interface for allocation record
// persistence
type AllocationRepository interface {
	// FindByID finds an allocation by ID for a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Allocation, error)

	// FindByBankTransaction lists allocations spawned by one statement line
	FindByBankTransaction(ctx context.Context, tenantID, bankTransactionID uuid.UUID) ([]Allocation, error)

	// FindActiveByObligation lists active allocations targeting an obligation
	FindActiveByObligation(ctx context.Context, tenantID, obligationID uuid.UUID) ([]Allocation, error)

	// Save creates or updates an allocation
	Save(ctx context.Context, allocation *Allocation) error
}

// ReconciliationSessionRepository defines the interface for session
// persistence
type ReconciliationSessionRepository interface {
	// FindByID finds a session by ID for a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ReconciliationSession, error)

	// FindByPeriod finds the session for a bank account and period start.
	// Returns shared.ErrNotFound when the period has no session yet.
	FindByPeriod(ctx context.Context, tenantID, bankAccountID uuid.UUID, periodStart time.Time) (*ReconciliationSession, error)

	// FindAllForAccount lists sessions for a bank account
	FindAllForAccount(ctx context.Context, tenantID, bankAccountID uuid.UUID, filter shared.Filter) ([]ReconciliationSession, error)

	// Save creates or updates a session
	Save(ctx context.Context, session *ReconciliationSession) error
}

// Repositories bundles every ledger repository bound to one transactional
// scope
type Repositories interface {
	Accounts() AccountRepository
	JournalEntries() JournalEntryRepository
	Obligations() ObligationRepository
	BankAccounts() BankAccountRepository
	BankTransactions() BankTransactionRepository
	Allocations() AllocationRepository
	ReconciliationSessions() ReconciliationSessionRepository
}

// UnitOfWork executes a function with repositories bound to one atomic
// transaction. If fn returns an error nothing written inside it survives;
// posting, allocation, and reconciliation all run through it.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}
