package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/openbooks/backend/internal/domain/ledger"
	"github.com/openbooks/backend/internal/domain/shared"
	"github.com/openbooks/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormReconciliationSessionRepository implements
// ledger.ReconciliationSessionRepository using GORM
type GormReconciliationSessionRepository struct {
	db *gorm.DB
}

// NewGormReconciliationSessionRepository creates a new
// GormReconciliationSessionRepository
func NewGormReconciliationSessionRepository(db *gorm.DB) *GormReconciliationSessionRepository {
	return &GormReconciliationSessionRepository{db: db}
}

// FindByID finds a session by ID for a tenant
func (r *GormReconciliationSessionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ledger.ReconciliationSession, error) {
	var model models.ReconciliationSessionModel
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

// FindByPeriod finds the session for a bank account and period start
func (r *GormReconciliationSessionRepository) FindByPeriod(ctx context.Context, tenantID, bankAccountID uuid.UUID, periodStart time.Time) (*ledger.ReconciliationSession, error) {
	var model models.ReconciliationSessionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND bank_account_id = ? AND period_start = ?",
			tenantID, bankAccountID, periodStart).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForAccount lists sessions for a bank account
func (r *GormReconciliationSessionRepository) FindAllForAccount(ctx context.Context, tenantID, bankAccountID uuid.UUID, filter shared.Filter) ([]ledger.ReconciliationSession, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ReconciliationSessionModel{}).
		Where("tenant_id = ? AND bank_account_id = ?", tenantID, bankAccountID)
	query = applyOrdering(query, filter, "period_start DESC").
		Offset(filter.Offset()).Limit(filter.Limit())

	var rows []models.ReconciliationSessionModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	sessions := make([]ledger.ReconciliationSession, 0, len(rows))
	for i := range rows {
		sessions = append(sessions, *rows[i].ToDomain())
	}
	return sessions, nil
}

// Save creates or updates a session
func (r *GormReconciliationSessionRepository) Save(ctx context.Context, session *ledger.ReconciliationSession) error {
	var model models.ReconciliationSessionModel
	model.FromDomain(session)
	return r.db.WithContext(ctx).Save(&model).Error
}

var _ ledger.ReconciliationSessionRepository = (*GormReconciliationSessionRepository)(nil)
