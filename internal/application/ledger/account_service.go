package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/openbooks/backend/internal/domain/ledger"
	"github.com/openbooks/backend/internal/domain/shared"
	"github.com/openbooks/backend/internal/infrastructure/telemetry"
)

// ChartOfAccountsService manages a tenant's chart of accounts
type ChartOfAccountsService struct {
	accounts ledger.AccountRepository
}

// NewChartOfAccountsService creates a new ChartOfAccountsService
func NewChartOfAccountsService(accounts ledger.AccountRepository) *ChartOfAccountsService {
	return &ChartOfAccountsService{accounts: accounts}
}

// CreateAccountRequest represents a request to add an account
type CreateAccountRequest struct {
	TenantID uuid.UUID
	Code     string
	Name     string
	Type     ledger.AccountType
	ParentID *uuid.UUID
}

// CreateAccount adds an account to the chart. Codes are unique per tenant.
func (s *ChartOfAccountsService) CreateAccount(ctx context.Context, req CreateAccountRequest) (*ledger.Account, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "account", "create")
	defer span.End()

	_, err := s.accounts.FindByCode(ctx, req.TenantID, req.Code)
	if err == nil {
		err = shared.NewDomainError("DUPLICATE_ACCOUNT_CODE",
			fmt.Sprintf("Account code %s already exists", req.Code))
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !errors.Is(err, shared.ErrNotFound) {
		telemetry.RecordError(span, err)
		return nil, err
	}

	account, err := ledger.NewAccount(req.TenantID, req.Code, req.Name, req.Type, req.ParentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.accounts.Save(ctx, account); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save account: %w", err)
	}
	return account, nil
}

// GetAccount fetches one account
func (s *ChartOfAccountsService) GetAccount(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Account, error) {
	return s.accounts.FindByID(ctx, tenantID, id)
}

// ListAccounts lists a tenant's accounts
func (s *ChartOfAccountsService) ListAccounts(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ledger.Account, error) {
	return s.accounts.FindAllForTenant(ctx, tenantID, filter)
}

// RenameAccount changes an account's display name
func (s *ChartOfAccountsService) RenameAccount(ctx context.Context, tenantID, id uuid.UUID, name string) (*ledger.Account, error) {
	account, err := s.accounts.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := account.Rename(name); err != nil {
		return nil, err
	}
	if err := s.accounts.Save(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to save account: %w", err)
	}
	return account, nil
}

// ArchiveAccount hides an account from new postings
func (s *ChartOfAccountsService) ArchiveAccount(ctx context.Context, tenantID, id uuid.UUID) error {
	account, err := s.accounts.FindByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	account.Archive()
	if err := s.accounts.Save(ctx, account); err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}
