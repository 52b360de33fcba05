package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/openbooks/backend/internal/domain/ledger"
	"github.com/openbooks/backend/internal/domain/ledger/acl"
	"github.com/openbooks/backend/internal/domain/shared"
	"github.com/openbooks/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StatementService imports bank statement lines and manages their
// pre-allocation lifecycle. Import is deduplicated: each line gets a
// deterministic external id, and a line whose id was already imported is
// skipped.
type StatementService struct {
	uow    ledger.UnitOfWork
	source acl.StatementSource
	logger *zap.Logger
}

// NewStatementService creates a new StatementService. The source may be nil
// when only direct registration is used.
func NewStatementService(uow ledger.UnitOfWork, source acl.StatementSource, logger *zap.Logger) *StatementService {
	return &StatementService{
		uow:    uow,
		source: source,
		logger: logger,
	}
}

// RegisterTransactionRequest represents one statement line supplied
// directly by a caller
type RegisterTransactionRequest struct {
	TenantID      uuid.UUID
	BankAccountID uuid.UUID
	Date          time.Time
	Description   string
	Amount        decimal.Decimal
	Currency      string
}

// RegisterTransaction imports one statement line. Returns the existing
// transaction when the same line was imported before.
func (s *StatementService) RegisterTransaction(ctx context.Context, req RegisterTransactionRequest) (*ledger.BankTransaction, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "statement", "register_transaction")
	defer span.End()
	telemetry.SetAttributes(span, "bank_account_id", req.BankAccountID.String())

	var transaction *ledger.BankTransaction
	err := s.uow.Execute(ctx, func(repos ledger.Repositories) error {
		bankAccount, err := repos.BankAccounts().FindByID(ctx, req.TenantID, req.BankAccountID)
		if err != nil {
			return err
		}
		currency := req.Currency
		if currency == "" {
			currency = bankAccount.Currency
		}

		externalID := ledger.NormalizeExternalID(req.BankAccountID, req.Date, req.Description, req.Amount)
		existing, err := repos.BankTransactions().FindByExternalID(ctx, req.TenantID, req.BankAccountID, externalID)
		if err == nil {
			transaction = existing
			return nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		transaction, err = ledger.NewBankTransaction(req.TenantID, req.BankAccountID,
			req.Date, req.Description, req.Amount, currency)
		if err != nil {
			return err
		}
		return repos.BankTransactions().Save(ctx, transaction)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return transaction, nil
}

// ImportStatementRequest represents a request to pull a period's lines from
// the statement source
type ImportStatementRequest struct {
	TenantID      uuid.UUID
	BankAccountID uuid.UUID
	From          time.Time
	To            time.Time
}

// ImportStatementResult summarizes one import run
type ImportStatementResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// ImportStatement fetches the period's lines from the feed and registers
// each, skipping lines already imported
func (s *StatementService) ImportStatement(ctx context.Context, req ImportStatementRequest) (*ImportStatementResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "statement", "import")
	defer span.End()
	telemetry.SetAttributes(span, "bank_account_id", req.BankAccountID.String())

	if s.source == nil {
		err := shared.NewDomainError("NO_STATEMENT_SOURCE", "No statement source is configured")
		telemetry.RecordError(span, err)
		return nil, err
	}

	lines, err := s.source.Fetch(ctx, req.TenantID, req.BankAccountID, req.From, req.To)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("statement fetch failed: %w", err)
	}

	result := &ImportStatementResult{}
	err = s.uow.Execute(ctx, func(repos ledger.Repositories) error {
		bankAccount, err := repos.BankAccounts().FindByID(ctx, req.TenantID, req.BankAccountID)
		if err != nil {
			return err
		}

		for _, line := range lines {
			currency := line.Currency
			if currency == "" {
				currency = bankAccount.Currency
			}
			externalID := ledger.NormalizeExternalID(req.BankAccountID, line.Date, line.Description, line.Amount)
			_, err := repos.BankTransactions().FindByExternalID(ctx, req.TenantID, req.BankAccountID, externalID)
			if err == nil {
				result.Skipped++
				continue
			}
			if !errors.Is(err, shared.ErrNotFound) {
				return err
			}

			transaction, err := ledger.NewBankTransaction(req.TenantID, req.BankAccountID,
				line.Date, line.Description, line.Amount, currency)
			if err != nil {
				return err
			}
			if err := repos.BankTransactions().Save(ctx, transaction); err != nil {
				return err
			}
			result.Imported++
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("statement imported",
		zap.String("tenant_id", req.TenantID.String()),
		zap.String("bank_account_id", req.BankAccountID.String()),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// ListTransactions lists statement lines for a tenant
func (s *StatementService) ListTransactions(ctx context.Context, tenantID uuid.UUID, filter ledger.BankTransactionFilter) ([]ledger.BankTransaction, error) {
	var transactions []ledger.BankTransaction
	err := s.uow.Execute(ctx, func(repos ledger.Repositories) error {
		var err error
		transactions, err = repos.BankTransactions().FindAllForTenant(ctx, tenantID, filter)
		return err
	})
	return transactions, err
}

// ExcludeTransaction removes a statement line from the matching pool
func (s *StatementService) ExcludeTransaction(ctx context.Context, tenantID, id uuid.UUID, reason string) (*ledger.BankTransaction, error) {
	var transaction *ledger.BankTransaction
	err := s.uow.Execute(ctx, func(repos ledger.Repositories) error {
		var err error
		transaction, err = repos.BankTransactions().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := transaction.Exclude(reason); err != nil {
			return err
		}
		return repos.BankTransactions().SaveWithLock(ctx, transaction)
	})
	return transaction, err
}

// IncludeTransaction returns an excluded line to the matching pool
func (s *StatementService) IncludeTransaction(ctx context.Context, tenantID, id uuid.UUID) (*ledger.BankTransaction, error) {
	var transaction *ledger.BankTransaction
	err := s.uow.Execute(ctx, func(repos ledger.Repositories) error {
		var err error
		transaction, err = repos.BankTransactions().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := transaction.Include(); err != nil {
			return err
		}
		return repos.BankTransactions().SaveWithLock(ctx, transaction)
	})
	return transaction, err
}

// CreateBankAccountRequest represents a request to register a bank account
type CreateBankAccountRequest struct {
	TenantID        uuid.UUID
	Name            string
	Currency        string
	LedgerAccountID uuid.UUID
}

// CreateBankAccount registers a bank account linked to a ledger account
func (s *StatementService) CreateBankAccount(ctx context.Context, req CreateBankAccountRequest) (*ledger.BankAccount, error) {
	var bankAccount *ledger.BankAccount
	err := s.uow.Execute(ctx, func(repos ledger.Repositories) error {
		if _, err := repos.Accounts().FindByID(ctx, req.TenantID, req.LedgerAccountID); err != nil {
			return err
		}
		var err error
		bankAccount, err = ledger.NewBankAccount(req.TenantID, req.Name, req.Currency, req.LedgerAccountID)
		if err != nil {
			return err
		}
		return repos.BankAccounts().Save(ctx, bankAccount)
	})
	return bankAccount, err
}

// ListBankAccounts lists a tenant's bank accounts
func (s *StatementService) ListBankAccounts(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ledger.BankAccount, error) {
	var accounts []ledger.BankAccount
	err := s.uow.Execute(ctx, func(repos ledger.Repositories) error {
		var err error
		accounts, err = repos.BankAccounts().FindAllForTenant(ctx, tenantID, filter)
		return err
	})
	return accounts, err
}
