package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/openbooks/backend/internal/domain/ledger"
)

// JournalQueryService serves read access to posted entries and allocation
// records. All writes go through the posting and allocation services; this
// service never mutates.
type JournalQueryService struct {
	uow ledger.UnitOfWork
}

// NewJournalQueryService creates a new JournalQueryService
func NewJournalQueryService(uow ledger.UnitOfWork) *JournalQueryService {
	return &JournalQueryService{uow: uow}
}

// GetEntry fetches one entry with its lines
func (s *JournalQueryService) GetEntry(ctx context.Context, tenantID, id uuid.UUID) (*ledger.JournalEntry, error) {
	var entry *ledger.JournalEntry
	err := s.uow.Execute(ctx, func(repos ledger.Repositories) error {
		found, err := repos.JournalEntries().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		entry = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ListEntries lists a tenant's entries
func (s *JournalQueryService) ListEntries(ctx context.Context, tenantID uuid.UUID, filter ledger.JournalEntryFilter) ([]ledger.JournalEntry, error) {
	var entries []ledger.JournalEntry
	err := s.uow.Execute(ctx, func(repos ledger.Repositories) error {
		found, err := repos.JournalEntries().FindAllForTenant(ctx, tenantID, filter)
		if err != nil {
			return err
		}
		entries = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ListAllocationsForTransaction lists the allocation records spawned by one
// statement line
func (s *JournalQueryService) ListAllocationsForTransaction(ctx context.Context, tenantID, bankTransactionID uuid.UUID) ([]ledger.Allocation, error) {
	var allocations []ledger.Allocation
	err := s.uow.Execute(ctx, func(repos ledger.Repositories) error {
		found, err := repos.Allocations().FindByBankTransaction(ctx, tenantID, bankTransactionID)
		if err != nil {
			return err
		}
		allocations = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return allocations, nil
}
