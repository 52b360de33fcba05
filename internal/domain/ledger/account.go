package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/openbooks/backend/internal/domain/shared"
)

// AccountType classifies an account within the chart of accounts
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeIncome    AccountType = "INCOME"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// IsValid checks if the account type is valid
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity,
		AccountTypeIncome, AccountTypeExpense:
		return true
	}
	return false
}

// String returns the string representation of AccountType
func (t AccountType) String() string {
	return string(t)
}

// AccountRole is a semantic role the posting and allocation services resolve
// to a concrete account. The core never hard-codes account identifiers.
type AccountRole string

const (
	RoleCash               AccountRole = "cash"
	RoleAccountsReceivable AccountRole = "accounts_receivable"
	RoleAccountsPayable    AccountRole = "accounts_payable"
	RoleDefaultIncome      AccountRole = "default_income"
	RoleDefaultExpense     AccountRole = "default_expense"
	RoleTaxPayable         AccountRole = "tax_payable"
	RoleTaxRecoverable     AccountRole = "tax_recoverable"
	RoleCustomerCredit     AccountRole = "customer_credit"
	RoleSupplierPrepayment AccountRole = "supplier_prepayment"
	RoleSuspense           AccountRole = "suspense"
)

// AccountResolver resolves a semantic role to a concrete account for a
// tenant, creating tenant defaults on first use. It is provided by an
// external collaborator; the core only requests roles.
type AccountResolver interface {
	Resolve(ctx context.Context, tenantID uuid.UUID, role AccountRole) (*Account, error)
}

// Account represents one entry in a tenant's chart of accounts.
// The type is immutable after creation: changing it would invalidate
// entries already posted against the account.
type Account struct {
	shared.TenantAggregateRoot
	Code     string      `json:"code"`
	Name     string      `json:"name"`
	Type     AccountType `json:"type"`
	ParentID *uuid.UUID  `json:"parent_id,omitempty"`
	Archived bool        `json:"archived"`
}

// NewAccount creates a new account
func NewAccount(tenantID uuid.UUID, code, name string, accountType AccountType, parentID *uuid.UUID) (*Account, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_CODE", "Account code cannot be empty")
	}
	if len(code) > 20 {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_CODE", "Account code cannot exceed 20 characters")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_NAME", "Account name cannot be empty")
	}
	if !accountType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_TYPE", "Account type is not valid")
	}

	a := &Account{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Name:                name,
		Type:                accountType,
		ParentID:            parentID,
	}

	a.AddDomainEvent(NewAccountCreatedEvent(a))

	return a, nil
}

// Rename changes the account's display name
func (a *Account) Rename(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_ACCOUNT_NAME", "Account name cannot be empty")
	}
	a.Name = name
	a.Touch()
	return nil
}

// Archive hides the account from new postings. Existing journal lines keep
// referencing it.
func (a *Account) Archive() {
	a.Archived = true
	a.Touch()
}

// IsDebitNormal returns true if the account's balance increases with debits
func (a *Account) IsDebitNormal() bool {
	return a.Type == AccountTypeAsset || a.Type == AccountTypeExpense
}
