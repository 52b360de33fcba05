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

// GormObligationRepository implements ledger.ObligationRepository using GORM
type GormObligationRepository struct {
	db *gorm.DB
}

// NewGormObligationRepository creates a new GormObligationRepository
func NewGormObligationRepository(db *gorm.DB) *GormObligationRepository {
	return &GormObligationRepository{db: db}
}

// FindByID finds an obligation by ID for a tenant
func (r *GormObligationRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Obligation, error) {
	var model models.ObligationModel
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

// FindByNumber finds an obligation by document number for a tenant
func (r *GormObligationRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, kind ledger.ObligationKind, number string) (*ledger.Obligation, error) {
	var model models.ObligationModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND kind = ? AND number = ?", tenantID, kind, number).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists obligations for a tenant with filtering
func (r *GormObligationRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.ObligationFilter) ([]ledger.Obligation, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ObligationModel{}).
		Where("tenant_id = ?", tenantID)

	if filter.Kind != nil {
		query = query.Where("kind = ?", *filter.Kind)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.FromDate != nil {
		query = query.Where("issue_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("issue_date <= ?", *filter.ToDate)
	}
	if filter.Search != "" {
		pattern := "%" + strings.TrimSpace(filter.Search) + "%"
		query = query.Where("number ILIKE ? OR contact_name ILIKE ?", pattern, pattern)
	}
	query = applyOrdering(query, filter.Filter, "issue_date DESC, created_at DESC").
		Offset(filter.Offset()).Limit(filter.Limit())

	var rows []models.ObligationModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	obligations := make([]ledger.Obligation, 0, len(rows))
	for i := range rows {
		obligations = append(obligations, *rows[i].ToDomain())
	}
	return obligations, nil
}

// Save creates or updates an obligation
func (r *GormObligationRepository) Save(ctx context.Context, obligation *ledger.Obligation) error {
	var model models.ObligationModel
	model.FromDomain(obligation)
	return r.db.WithContext(ctx).Save(&model).Error
}

// SaveWithLock saves with optimistic locking. The aggregate's Touch already
// bumped the in-memory version, so the row must still hold version-1.
func (r *GormObligationRepository) SaveWithLock(ctx context.Context, obligation *ledger.Obligation) error {
	var model models.ObligationModel
	model.FromDomain(obligation)

	result := r.db.WithContext(ctx).
		Model(&models.ObligationModel{}).
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

var _ ledger.ObligationRepository = (*GormObligationRepository)(nil)
