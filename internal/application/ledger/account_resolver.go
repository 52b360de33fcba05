package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/openbooks/backend/internal/domain/ledger"
	"github.com/openbooks/backend/internal/domain/shared"
)

// roleDefault describes the account created for a role on first use
type roleDefault struct {
	code string
	name string
	typ  ledger.AccountType
}

var roleDefaults = map[ledger.AccountRole]roleDefault{
	ledger.RoleCash:               {"1000", "Cash", ledger.AccountTypeAsset},
	ledger.RoleAccountsReceivable: {"1100", "Accounts Receivable", ledger.AccountTypeAsset},
	ledger.RoleSupplierPrepayment: {"1200", "Supplier Prepayments", ledger.AccountTypeAsset},
	ledger.RoleTaxRecoverable:     {"1300", "Tax Recoverable", ledger.AccountTypeAsset},
	ledger.RoleAccountsPayable:    {"2000", "Accounts Payable", ledger.AccountTypeLiability},
	ledger.RoleCustomerCredit:     {"2100", "Customer Credit", ledger.AccountTypeLiability},
	ledger.RoleTaxPayable:         {"2200", "Sales Tax Payable", ledger.AccountTypeLiability},
	ledger.RoleDefaultIncome:      {"4000", "Sales", ledger.AccountTypeIncome},
	ledger.RoleDefaultExpense:     {"6000", "Operating Expenses", ledger.AccountTypeExpense},
	ledger.RoleSuspense:           {"9999", "Suspense", ledger.AccountTypeAsset},
}

// RoleAccountResolver resolves semantic account roles against a tenant's
// chart of accounts, creating the conventional default account on first use
type RoleAccountResolver struct {
	accounts ledger.AccountRepository
}

// NewRoleAccountResolver creates a new RoleAccountResolver
func NewRoleAccountResolver(accounts ledger.AccountRepository) *RoleAccountResolver {
	return &RoleAccountResolver{accounts: accounts}
}

// Resolve returns the tenant's account for a role, creating the default when
// none exists yet
func (r *RoleAccountResolver) Resolve(ctx context.Context, tenantID uuid.UUID, role ledger.AccountRole) (*ledger.Account, error) {
	def, ok := roleDefaults[role]
	if !ok {
		return nil, shared.ErrMissingRoleAccount
	}

	account, err := r.accounts.FindByCode(ctx, tenantID, def.code)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("failed to resolve account for role %s: %w", role, err)
	}

	account, err = ledger.NewAccount(tenantID, def.code, def.name, def.typ, nil)
	if err != nil {
		return nil, err
	}
	if err := r.accounts.Save(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create default account for role %s: %w", role, err)
	}
	return account, nil
}
