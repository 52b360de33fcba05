package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/openbooks/backend/internal/domain/ledger"
	"github.com/openbooks/backend/internal/domain/shared"
	"github.com/openbooks/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAllocationRepository implements ledger.AllocationRepository using GORM
type GormAllocationRepository struct {
	db *gorm.DB
}

// NewGormAllocationRepository creates a new GormAllocationRepository
func NewGormAllocationRepository(db *gorm.DB) *GormAllocationRepository {
	return &GormAllocationRepository{db: db}
}

// FindByID finds an allocation by ID for a tenant
func (r *GormAllocationRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Allocation, error) {
	var model models.AllocationModel
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

// FindByBankTransaction lists allocations spawned by one statement line
func (r *GormAllocationRepository) FindByBankTransaction(ctx context.Context, tenantID, bankTransactionID uuid.UUID) ([]ledger.Allocation, error) {
	var rows []models.AllocationModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND bank_transaction_id = ?", tenantID, bankTransactionID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainAllocations(rows), nil
}

// FindActiveByObligation lists active allocations targeting an obligation
func (r *GormAllocationRepository) FindActiveByObligation(ctx context.Context, tenantID, obligationID uuid.UUID) ([]ledger.Allocation, error) {
	var rows []models.AllocationModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND obligation_id = ? AND status = ?",
			tenantID, obligationID, ledger.AllocationStatusActive).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainAllocations(rows), nil
}

// Save creates or updates an allocation
func (r *GormAllocationRepository) Save(ctx context.Context, allocation *ledger.Allocation) error {
	var model models.AllocationModel
	model.FromDomain(allocation)
	return r.db.WithContext(ctx).Save(&model).Error
}

func toDomainAllocations(rows []models.AllocationModel) []ledger.Allocation {
	allocations := make([]ledger.Allocation, 0, len(rows))
	for i := range rows {
		allocations = append(allocations, *rows[i].ToDomain())
	}
	return allocations
}

var _ ledger.AllocationRepository = (*GormAllocationRepository)(nil)
