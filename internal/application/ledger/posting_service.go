package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/openbooks/backend/internal/domain/ledger"
	"github.com/openbooks/backend/internal/domain/shared"
	"github.com/openbooks/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DocumentPostingService converts document lifecycle events into journal
// entries, exactly once per (document, event kind). Re-posting an already
// posted event returns the existing entry; removing a posting voids the
// entry and releases the key for re-posting.
type DocumentPostingService struct {
	uow      ledger.UnitOfWork
	posting  *ledger.PostingService
	resolver ledger.AccountResolver
	logger   *zap.Logger
}

// NewDocumentPostingService creates a new DocumentPostingService
func NewDocumentPostingService(uow ledger.UnitOfWork, posting *ledger.PostingService, resolver ledger.AccountResolver, logger *zap.Logger) *DocumentPostingService {
	return &DocumentPostingService{
		uow:      uow,
		posting:  posting,
		resolver: resolver,
		logger:   logger,
	}
}

// PostDocumentEventRequest represents a request to post one document event
type PostDocumentEventRequest struct {
	TenantID     uuid.UUID
	ObligationID uuid.UUID
	EventKind    ledger.PostingEventKind
}

// PostDocumentEvent posts the entry for a document event. Idempotent: when
// a non-voided entry already exists for the (tenant, document, event kind)
// key, that entry is returned and nothing is written.
func (s *DocumentPostingService) PostDocumentEvent(ctx context.Context, req PostDocumentEventRequest) (*ledger.JournalEntry, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "posting", "post_document_event")
	defer span.End()
	telemetry.SetAttributes(span,
		"obligation_id", req.ObligationID.String(),
		"event_kind", req.EventKind.String(),
	)

	var entry *ledger.JournalEntry
	err := s.uow.Execute(ctx, func(repos ledger.Repositories) error {
		obligation, err := repos.Obligations().FindByID(ctx, req.TenantID, req.ObligationID)
		if err != nil {
			return err
		}
		docType := obligation.Kind.DocumentType()

		existing, err := repos.JournalEntries().FindBySource(ctx, req.TenantID, docType, obligation.ID, req.EventKind)
		if err == nil {
			entry = existing
			return nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		entry, err = s.posting.BuildDocumentEntry(ctx, obligation, req.EventKind, s.resolver)
		if err != nil {
			return err
		}
		if err := repos.JournalEntries().Save(ctx, entry); err != nil {
			return fmt.Errorf("failed to save journal entry: %w", err)
		}

		s.logger.Info("document event posted",
			zap.String("tenant_id", req.TenantID.String()),
			zap.String("obligation_id", obligation.ID.String()),
			zap.String("event_kind", req.EventKind.String()),
			zap.String("entry_id", entry.ID.String()),
		)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return entry, nil
}

// RemovePostingRequest represents a request to reverse a document posting
type RemovePostingRequest struct {
	TenantID     uuid.UUID
	ObligationID uuid.UUID
	EventKind    ledger.PostingEventKind
	Reason       string
}

// RemovePosting voids the entry posted for a document event, called when
// the document leaves the state that justified the posting. A no-op when no
// active entry exists.
func (s *DocumentPostingService) RemovePosting(ctx context.Context, req RemovePostingRequest) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "posting", "remove_posting")
	defer span.End()
	telemetry.SetAttributes(span,
		"obligation_id", req.ObligationID.String(),
		"event_kind", req.EventKind.String(),
	)

	err := s.uow.Execute(ctx, func(repos ledger.Repositories) error {
		obligation, err := repos.Obligations().FindByID(ctx, req.TenantID, req.ObligationID)
		if err != nil {
			return err
		}
		docType := obligation.Kind.DocumentType()

		entry, err := repos.JournalEntries().FindBySource(ctx, req.TenantID, docType, obligation.ID, req.EventKind)
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := entry.Void(req.Reason); err != nil {
			return err
		}
		if err := repos.JournalEntries().Save(ctx, entry); err != nil {
			return fmt.Errorf("failed to void journal entry: %w", err)
		}

		s.logger.Info("document posting removed",
			zap.String("tenant_id", req.TenantID.String()),
			zap.String("obligation_id", obligation.ID.String()),
			zap.String("event_kind", req.EventKind.String()),
			zap.String("entry_id", entry.ID.String()),
		)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
	}
	return err
}
