package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/openbooks/backend/internal/domain/ledger"
	"github.com/openbooks/backend/internal/domain/ledger/acl"
	"github.com/openbooks/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ObligationService manages invoices and bills, and explicitly orchestrates
// the ledger effects of their lifecycle transitions. Posting is never a
// hidden side effect of saving a document: each transition calls the
// posting service itself.
type ObligationService struct {
	uow       ledger.UnitOfWork
	posting   *DocumentPostingService
	taxEngine acl.TaxEngine
	logger    *zap.Logger
}

// NewObligationService creates a new ObligationService
func NewObligationService(uow ledger.UnitOfWork, posting *DocumentPostingService, taxEngine acl.TaxEngine, logger *zap.Logger) *ObligationService {
	return &ObligationService{
		uow:       uow,
		posting:   posting,
		taxEngine: taxEngine,
		logger:    logger,
	}
}

// CreateObligationRequest represents a request to create an invoice or bill
type CreateObligationRequest struct {
	TenantID    uuid.UUID
	Kind        ledger.ObligationKind
	Number      string
	ContactName string
	IssueDate   time.Time
	DueDate     *time.Time
	Currency    string
	NetAmount   decimal.Decimal
}

// CreateObligation creates an obligation in Draft status. Tax is quoted by
// the external tax engine and attached as a per-jurisdiction breakdown.
func (s *ObligationService) CreateObligation(ctx context.Context, req CreateObligationRequest) (*ledger.Obligation, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "obligation", "create")
	defer span.End()
	telemetry.SetAttributes(span,
		"kind", req.Kind.String(),
		"number", req.Number,
	)

	quote, err := s.taxEngine.Quote(ctx, req.TenantID, req.NetAmount, req.Currency)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("tax quote failed: %w", err)
	}

	obligation, err := ledger.NewObligation(req.TenantID, req.Kind, req.Number, req.ContactName,
		req.IssueDate, req.Currency, req.NetAmount, quote.Total)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	obligation.DueDate = req.DueDate
	if len(quote.Lines) > 0 {
		detail := make(ledger.TaxDetail, 0, len(quote.Lines))
		for _, l := range quote.Lines {
			detail = append(detail, ledger.TaxComponent{
				Jurisdiction: l.Jurisdiction,
				Rate:         l.Rate,
				Amount:       l.Amount,
			})
		}
		if err := obligation.SetTaxDetail(detail); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	err = s.uow.Execute(ctx, func(repos ledger.Repositories) error {
		return repos.Obligations().Save(ctx, obligation)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save obligation: %w", err)
	}

	s.logger.Info("obligation created",
		zap.String("tenant_id", req.TenantID.String()),
		zap.String("obligation_id", obligation.ID.String()),
		zap.String("kind", req.Kind.String()),
		zap.String("number", req.Number),
	)
	return obligation, nil
}

// GetObligation fetches one obligation
func (s *ObligationService) GetObligation(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Obligation, error) {
	var obligation *ledger.Obligation
	err := s.uow.Execute(ctx, func(repos ledger.Repositories) error {
		var err error
		obligation, err = repos.Obligations().FindByID(ctx, tenantID, id)
		return err
	})
	return obligation, err
}

// ListObligations lists a tenant's obligations
func (s *ObligationService) ListObligations(ctx context.Context, tenantID uuid.UUID, filter ledger.ObligationFilter) ([]ledger.Obligation, error) {
	var obligations []ledger.Obligation
	err := s.uow.Execute(ctx, func(repos ledger.Repositories) error {
		var err error
		obligations, err = repos.Obligations().FindAllForTenant(ctx, tenantID, filter)
		return err
	})
	return obligations, err
}

// SendInvoice marks an invoice sent and posts its issue entry. The two
// steps are explicit: the status change persists first, then the posting
// runs through its own idempotent path.
func (s *ObligationService) SendInvoice(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Obligation, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "obligation", "send_invoice")
	defer span.End()
	telemetry.SetAttributes(span, "obligation_id", id.String())

	var obligation *ledger.Obligation
	err := s.uow.Execute(ctx, func(repos ledger.Repositories) error {
		var err error
		obligation, err = repos.Obligations().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := obligation.MarkSent(); err != nil {
			return err
		}
		return repos.Obligations().SaveWithLock(ctx, obligation)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if _, err := s.posting.PostDocumentEvent(ctx, PostDocumentEventRequest{
		TenantID:     tenantID,
		ObligationID: id,
		EventKind:    ledger.PostingEventInvoiceIssued,
	}); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return obligation, nil
}

// PayExpense posts the payment entry for a bill paid outside the bank feed
func (s *ObligationService) PayExpense(ctx context.Context, tenantID, id uuid.UUID) (*ledger.JournalEntry, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "obligation", "pay_expense")
	defer span.End()
	telemetry.SetAttributes(span, "obligation_id", id.String())

	entry, err := s.posting.PostDocumentEvent(ctx, PostDocumentEventRequest{
		TenantID:     tenantID,
		ObligationID: id,
		EventKind:    ledger.PostingEventExpensePaid,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return entry, nil
}

// VoidObligation voids an unsettled obligation and removes any posting made
// for its issue event
func (s *ObligationService) VoidObligation(ctx context.Context, tenantID, id uuid.UUID, reason string) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "obligation", "void")
	defer span.End()
	telemetry.SetAttributes(span, "obligation_id", id.String())

	err := s.uow.Execute(ctx, func(repos ledger.Repositories) error {
		obligation, err := repos.Obligations().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := obligation.Void(); err != nil {
			return err
		}
		return repos.Obligations().SaveWithLock(ctx, obligation)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	if reason == "" {
		reason = "obligation voided"
	}
	if err := s.posting.RemovePosting(ctx, RemovePostingRequest{
		TenantID:     tenantID,
		ObligationID: id,
		EventKind:    ledger.PostingEventInvoiceIssued,
		Reason:       reason,
	}); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	return nil
}
