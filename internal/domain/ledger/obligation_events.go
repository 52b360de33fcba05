package ledger

import (
	"github.com/google/uuid"
	"github.com/openbooks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ObligationCreatedEvent is raised when a new obligation is created
type ObligationCreatedEvent struct {
	shared.BaseDomainEvent
	ObligationID uuid.UUID       `json:"obligation_id"`
	Kind         ObligationKind  `json:"kind"`
	Number       string          `json:"number"`
	ContactName  string          `json:"contact_name"`
	GrossAmount  decimal.Decimal `json:"gross_amount"`
}

// EventType returns the event type name
func (e *ObligationCreatedEvent) EventType() string {
	return "ObligationCreated"
}

// NewObligationCreatedEvent creates a new ObligationCreatedEvent
func NewObligationCreatedEvent(o *Obligation) *ObligationCreatedEvent {
	return &ObligationCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ObligationCreated", "Obligation", o.ID, o.TenantID),
		ObligationID:    o.ID,
		Kind:            o.Kind,
		Number:          o.Number,
		ContactName:     o.ContactName,
		GrossAmount:     o.GrossAmount,
	}
}

// ObligationSentEvent is raised when an obligation is issued to its
// counterparty
type ObligationSentEvent struct {
	shared.BaseDomainEvent
	ObligationID uuid.UUID       `json:"obligation_id"`
	Number       string          `json:"number"`
	GrossAmount  decimal.Decimal `json:"gross_amount"`
}

// EventType returns the event type name
func (e *ObligationSentEvent) EventType() string {
	return "ObligationSent"
}

// NewObligationSentEvent creates a new ObligationSentEvent
func NewObligationSentEvent(o *Obligation) *ObligationSentEvent {
	return &ObligationSentEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ObligationSent", "Obligation", o.ID, o.TenantID),
		ObligationID:    o.ID,
		Number:          o.Number,
		GrossAmount:     o.GrossAmount,
	}
}

// ObligationPaymentAppliedEvent is raised when a payment settles part or all
// of an obligation
type ObligationPaymentAppliedEvent struct {
	shared.BaseDomainEvent
	ObligationID uuid.UUID        `json:"obligation_id"`
	Amount       decimal.Decimal  `json:"amount"`
	PaidAmount   decimal.Decimal  `json:"paid_amount"`
	Status       ObligationStatus `json:"status"`
}

// EventType returns the event type name
func (e *ObligationPaymentAppliedEvent) EventType() string {
	return "ObligationPaymentApplied"
}

// NewObligationPaymentAppliedEvent creates a new ObligationPaymentAppliedEvent
func NewObligationPaymentAppliedEvent(o *Obligation, amount decimal.Decimal) *ObligationPaymentAppliedEvent {
	return &ObligationPaymentAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ObligationPaymentApplied", "Obligation", o.ID, o.TenantID),
		ObligationID:    o.ID,
		Amount:          amount,
		PaidAmount:      o.PaidAmount,
		Status:          o.Status,
	}
}

// ObligationVoidedEvent is raised when an obligation is voided
type ObligationVoidedEvent struct {
	shared.BaseDomainEvent
	ObligationID uuid.UUID `json:"obligation_id"`
	Number       string    `json:"number"`
}

// EventType returns the event type name
func (e *ObligationVoidedEvent) EventType() string {
	return "ObligationVoided"
}

// NewObligationVoidedEvent creates a new ObligationVoidedEvent
func NewObligationVoidedEvent(o *Obligation) *ObligationVoidedEvent {
	return &ObligationVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ObligationVoided", "Obligation", o.ID, o.TenantID),
		ObligationID:    o.ID,
		Number:          o.Number,
	}
}
