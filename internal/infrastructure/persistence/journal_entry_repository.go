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

// GormJournalEntryRepository implements ledger.JournalEntryRepository using
// GORM. Entries and their lines are written in one transaction, and the
// balance validation re-runs immediately before the write.
type GormJournalEntryRepository struct {
	db *gorm.DB
}

// NewGormJournalEntryRepository creates a new GormJournalEntryRepository
func NewGormJournalEntryRepository(db *gorm.DB) *GormJournalEntryRepository {
	return &GormJournalEntryRepository{db: db}
}

// FindByID finds an entry with its lines
func (r *GormJournalEntryRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ledger.JournalEntry, error) {
	var model models.JournalEntryModel
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySource finds the non-voided entry posted for a document event
func (r *GormJournalEntryRepository) FindBySource(ctx context.Context, tenantID uuid.UUID, sourceType ledger.DocumentType, sourceID uuid.UUID, kind ledger.PostingEventKind) (*ledger.JournalEntry, error) {
	var model models.JournalEntryModel
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("tenant_id = ? AND source_type = ? AND source_id = ? AND event_kind = ? AND voided = false",
			tenantID, sourceType, sourceID, kind).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOperationID finds the entry created under an allocation operation id
func (r *GormJournalEntryRepository) FindByOperationID(ctx context.Context, tenantID uuid.UUID, operationID string) (*ledger.JournalEntry, error) {
	var model models.JournalEntryModel
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("tenant_id = ? AND operation_id = ?", tenantID, operationID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists entries for a tenant with filtering
func (r *GormJournalEntryRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.JournalEntryFilter) ([]ledger.JournalEntry, error) {
	query := r.db.WithContext(ctx).
		Model(&models.JournalEntryModel{}).
		Where("tenant_id = ?", tenantID)

	if !filter.IncludeVoided {
		query = query.Where("voided = false")
	}
	if filter.FromDate != nil {
		query = query.Where("entry_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("entry_date <= ?", *filter.ToDate)
	}
	if filter.SourceType != nil {
		query = query.Where("source_type = ?", *filter.SourceType)
	}
	if filter.SourceID != nil {
		query = query.Where("source_id = ?", *filter.SourceID)
	}
	query = applyOrdering(query, filter.Filter, "entry_date DESC, created_at DESC").
		Offset(filter.Offset()).Limit(filter.Limit())

	var rows []models.JournalEntryModel
	if err := query.Preload("Lines").Find(&rows).Error; err != nil {
		return nil, err
	}

	entries := make([]ledger.JournalEntry, 0, len(rows))
	for i := range rows {
		entries = append(entries, *rows[i].ToDomain())
	}
	return entries, nil
}

// ledgerLineRow is the join projection behind FindUnreconciledLines
type ledgerLineRow struct {
	models.JournalLineModel
	EntryID     uuid.UUID
	EntryDate   time.Time
	Description string
}

// FindUnreconciledLines returns non-voided, unreconciled lines on one account
// whose entry date falls within [from, to]
func (r *GormJournalEntryRepository) FindUnreconciledLines(ctx context.Context, tenantID, accountID uuid.UUID, from, to time.Time) ([]ledger.LedgerLine, error) {
	var rows []ledgerLineRow
	err := r.db.WithContext(ctx).
		Table("journal_lines").
		Select("journal_lines.*, journal_entries.id AS entry_id, journal_entries.entry_date, journal_entries.description").
		Joins("JOIN journal_entries ON journal_entries.id = journal_lines.journal_entry_id").
		Where("journal_entries.tenant_id = ?", tenantID).
		Where("journal_entries.voided = false").
		Where("journal_lines.account_id = ?", accountID).
		Where("journal_lines.reconciled = false").
		Where("journal_entries.entry_date BETWEEN ? AND ?", from, to).
		Order("journal_entries.entry_date ASC, journal_lines.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	lines := make([]ledger.LedgerLine, 0, len(rows))
	for i := range rows {
		lines = append(lines, ledger.LedgerLine{
			Line:        rows[i].JournalLineModel.ToDomain(),
			EntryID:     rows[i].EntryID,
			EntryDate:   rows[i].EntryDate,
			Description: rows[i].Description,
		})
	}
	return lines, nil
}

// Save validates and persists the entry and all its lines atomically
func (r *GormJournalEntryRepository) Save(ctx context.Context, entry *ledger.JournalEntry) error {
	if !entry.Voided {
		if err := entry.Validate(); err != nil {
			return err
		}
	}

	var model models.JournalEntryModel
	model.FromDomain(entry)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lines := model.Lines
		model.Lines = nil
		if err := tx.Save(&model).Error; err != nil {
			return err
		}
		for i := range lines {
			if err := tx.Save(&lines[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveLines persists updated reconciliation state for existing lines
func (r *GormJournalEntryRepository) SaveLines(ctx context.Context, lines []ledger.JournalLine) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range lines {
			result := tx.Model(&models.JournalLineModel{}).
				Where("id = ?", lines[i].ID).
				Updates(map[string]any{
					"reconciled":    lines[i].Reconciled,
					"reconciled_at": lines[i].ReconciledAt,
					"session_id":    lines[i].SessionID,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return shared.ErrNotFound
			}
		}
		return nil
	})
}

var _ ledger.JournalEntryRepository = (*GormJournalEntryRepository)(nil)
