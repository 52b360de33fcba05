package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/openbooks/backend/internal/domain/ledger"
	"github.com/openbooks/backend/internal/domain/shared"
	"github.com/openbooks/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormBankAccountRepository implements ledger.BankAccountRepository using GORM
type GormBankAccountRepository struct {
	db *gorm.DB
}

// NewGormBankAccountRepository creates a new GormBankAccountRepository
func NewGormBankAccountRepository(db *gorm.DB) *GormBankAccountRepository {
	return &GormBankAccountRepository{db: db}
}

// FindByID finds a bank account by ID for a tenant
func (r *GormBankAccountRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ledger.BankAccount, error) {
	var model models.BankAccountModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists bank accounts for a tenant
func (r *GormBankAccountRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ledger.BankAccount, error) {
	query := r.db.WithContext(ctx).
		Model(&models.BankAccountModel{}).
		Where("tenant_id = ?", tenantID)

	if filter.Search != "" {
		query = query.Where("name ILIKE ?", "%"+strings.TrimSpace(filter.Search)+"%")
	}
	query = applyOrdering(query, filter, "name ASC").
		Offset(filter.Offset()).Limit(filter.Limit())

	var rows []models.BankAccountModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	accounts := make([]ledger.BankAccount, 0, len(rows))
	for i := range rows {
		accounts = append(accounts, *rows[i].ToDomain())
	}
	return accounts, nil
}

// Save creates or updates a bank account
func (r *GormBankAccountRepository) Save(ctx context.Context, account *ledger.BankAccount) error {
	var model models.BankAccountModel
	model.FromDomain(account)
	return r.db.WithContext(ctx).Save(&model).Error
}

var _ ledger.BankAccountRepository = (*GormBankAccountRepository)(nil)

// GormBankTransactionRepository implements ledger.BankTransactionRepository
// using GORM
type GormBankTransactionRepository struct {
	db *gorm.DB
}

// NewGormBankTransactionRepository creates a new GormBankTransactionRepository
func NewGormBankTransactionRepository(db *gorm.DB) *GormBankTransactionRepository {
	return &GormBankTransactionRepository{db: db}
}

// FindByID finds a bank transaction by ID for a tenant
func (r *GormBankTransactionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ledger.BankTransaction, error) {
	var model models.BankTransactionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByExternalID finds a transaction by its deduplication id
func (r *GormBankTransactionRepository) FindByExternalID(ctx context.Context, tenantID, bankAccountID uuid.UUID, externalID string) (*ledger.BankTransaction, error) {
	var model models.BankTransactionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND bank_account_id = ? AND external_id = ?", tenantID, bankAccountID, externalID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists bank transactions for a tenant with filtering
func (r *GormBankTransactionRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.BankTransactionFilter) ([]ledger.BankTransaction, error) {
	query := r.db.WithContext(ctx).
		Model(&models.BankTransactionModel{}).
		Where("tenant_id = ?", tenantID)

	if filter.BankAccountID != nil {
		query = query.Where("bank_account_id = ?", *filter.BankAccountID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.FromDate != nil {
		query = query.Where("transaction_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("transaction_date <= ?", *filter.ToDate)
	}
	if filter.Search != "" {
		query = query.Where("description ILIKE ?", "%"+strings.TrimSpace(filter.Search)+"%")
	}
	query = applyOrdering(query, filter.Filter, "transaction_date DESC, created_at DESC").
		Offset(filter.Offset()).Limit(filter.Limit())

	var rows []models.BankTransactionModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	transactions := make([]ledger.BankTransaction, 0, len(rows))
	for i := range rows {
		transactions = append(transactions, *rows[i].ToDomain())
	}
	return transactions, nil
}

// Save creates or updates a bank transaction
func (r *GormBankTransactionRepository) Save(ctx context.Context, transaction *ledger.BankTransaction) error {
	var model models.BankTransactionModel
	model.FromDomain(transaction)
	return r.db.WithContext(ctx).Save(&model).Error
}

// SaveWithLock saves with optimistic locking
func (r *GormBankTransactionRepository) SaveWithLock(ctx context.Context, transaction *ledger.BankTransaction) error {
	var model models.BankTransactionModel
	model.FromDomain(transaction)

	result := r.db.WithContext(ctx).
		Model(&models.BankTransactionModel{}).
		Where("id = ? AND tenant_id = ? AND version = ?", model.ID, model.TenantID, model.Version-1).
		Select("*").Omit("id", "tenant_id", "created_at").
		Updates(&model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

var _ ledger.BankTransactionRepository = (*GormBankTransactionRepository)(nil)
