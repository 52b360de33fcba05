package ledger

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/openbooks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ObligationKind distinguishes receivables from payables
type ObligationKind string

const (
	ObligationKindInvoice ObligationKind = "INVOICE"
	ObligationKindBill    ObligationKind = "BILL"
)

// IsValid checks if the obligation kind is valid
func (k ObligationKind) IsValid() bool {
	return k == ObligationKindInvoice || k == ObligationKindBill
}

// String returns the string representation of ObligationKind
func (k ObligationKind) String() string {
	return string(k)
}

// DocumentType returns the document type obligations of this kind post under
func (k ObligationKind) DocumentType() DocumentType {
	if k == ObligationKindInvoice {
		return DocumentTypeInvoice
	}
	return DocumentTypeExpense
}

// ObligationStatus represents the settlement state of an obligation
type ObligationStatus string

const (
	ObligationStatusDraft   ObligationStatus = "DRAFT"
	ObligationStatusSent    ObligationStatus = "SENT"
	ObligationStatusPartial ObligationStatus = "PARTIAL"
	ObligationStatusPaid    ObligationStatus = "PAID"
	ObligationStatusVoid    ObligationStatus = "VOID"
)

// IsValid checks if the status is valid
func (s ObligationStatus) IsValid() bool {
	switch s {
	case ObligationStatusDraft, ObligationStatusSent, ObligationStatusPartial,
		ObligationStatusPaid, ObligationStatusVoid:
		return true
	}
	return false
}

// IsTerminal returns true if no further transitions are allowed
func (s ObligationStatus) IsTerminal() bool {
	return s == ObligationStatusVoid
}

// String returns the string representation of ObligationStatus
func (s ObligationStatus) String() string {
	return string(s)
}

// DeriveObligationStatus recomputes an obligation's status from its amounts.
// It is the only way a settlement status is produced: callers never set
// Partial or Paid directly, they change paid or credit amounts and recompute.
// Void is an explicit transition and is never produced here.
//
//	settled == 0      -> Draft (never sent) or Sent
//	settled == gross  -> Paid
//	otherwise         -> Partial
func DeriveObligationStatus(gross, paid, creditApplied decimal.Decimal, sent bool) ObligationStatus {
	settled := paid.Add(creditApplied)
	balance := gross.Sub(settled)
	switch {
	case balance.IsZero() && gross.IsPositive():
		return ObligationStatusPaid
	case settled.IsPositive():
		return ObligationStatusPartial
	case sent:
		return ObligationStatusSent
	default:
		return ObligationStatusDraft
	}
}

// TaxComponent is one jurisdiction line of an external tax-engine breakdown
type TaxComponent struct {
	Jurisdiction string          `json:"jurisdiction"`
	Rate         decimal.Decimal `json:"rate"`
	Amount       decimal.Decimal `json:"amount"`
}

// TaxDetail is the full tax breakdown attached to an obligation. Stored as
// jsonb; when present, posting recomputes the receivable/payable amount from
// net plus the component sum instead of trusting the cached gross.
type TaxDetail []TaxComponent

// Total sums the component amounts
func (d TaxDetail) Total() decimal.Decimal {
	total := decimal.Zero
	for i := range d {
		total = total.Add(d[i].Amount)
	}
	return total
}

// Value implements driver.Valuer for jsonb storage
func (d TaxDetail) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	return json.Marshal(d)
}

// Scan implements sql.Scanner
func (d *TaxDetail) Scan(value any) error {
	if value == nil {
		*d = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into TaxDetail", value)
	}
	return json.Unmarshal(data, d)
}

// Obligation is a payment-bearing document: an invoice (receivable) or a
// bill/expense (payable). Its status is always derived from its amounts,
// never set independently, so balance and status cannot drift apart.
type Obligation struct {
	shared.TenantAggregateRoot
	Kind          ObligationKind   `json:"kind"`
	Number        string           `json:"number"`
	ContactName   string           `json:"contact_name"`
	IssueDate     time.Time        `json:"issue_date"`
	DueDate       *time.Time       `json:"due_date,omitempty"`
	Currency      string           `json:"currency"`
	NetAmount     decimal.Decimal  `json:"net_amount"`
	TaxAmount     decimal.Decimal  `json:"tax_amount"`
	GrossAmount   decimal.Decimal  `json:"gross_amount"`
	PaidAmount    decimal.Decimal  `json:"paid_amount"`
	CreditApplied decimal.Decimal  `json:"credit_applied"`
	Status        ObligationStatus `json:"status"`
	Sent          bool             `json:"sent"`
	TaxComponents TaxDetail        `json:"tax_components,omitempty"`
	VoidedAt      *time.Time       `json:"voided_at,omitempty"`
}

// NewObligation creates a new obligation in Draft status
func NewObligation(tenantID uuid.UUID, kind ObligationKind, number, contactName string, issueDate time.Time, currency string, net, tax decimal.Decimal) (*Obligation, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_OBLIGATION_KIND", "Obligation kind is not valid")
	}
	if number == "" {
		return nil, shared.NewDomainError("INVALID_DOCUMENT_NUMBER", "Document number cannot be empty")
	}
	if contactName == "" {
		return nil, shared.NewDomainError("INVALID_CONTACT", "Contact name cannot be empty")
	}
	if issueDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_ISSUE_DATE", "Issue date is required")
	}
	if currency == "" {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Currency is required")
	}
	if net.IsNegative() || tax.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Net and tax amounts cannot be negative")
	}
	gross := net.Add(tax)
	if !gross.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Obligation gross amount must be positive")
	}

	o := &Obligation{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Kind:                kind,
		Number:              number,
		ContactName:         contactName,
		IssueDate:           issueDate,
		Currency:            currency,
		NetAmount:           net,
		TaxAmount:           tax,
		GrossAmount:         gross,
		PaidAmount:          decimal.Zero,
		CreditApplied:       decimal.Zero,
		Status:              ObligationStatusDraft,
	}

	o.AddDomainEvent(NewObligationCreatedEvent(o))

	return o, nil
}

// SetTaxDetail attaches an external tax-engine breakdown and realigns the
// cached tax and gross amounts with it. Only allowed before any settlement.
func (o *Obligation) SetTaxDetail(detail TaxDetail) error {
	if o.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Cannot change tax detail of a void obligation")
	}
	if o.PaidAmount.IsPositive() || o.CreditApplied.IsPositive() {
		return shared.NewDomainError("INVALID_STATE", "Cannot change tax detail after settlement has begun")
	}
	o.TaxComponents = detail
	o.TaxAmount = detail.Total()
	o.GrossAmount = o.NetAmount.Add(o.TaxAmount)
	o.Touch()
	return nil
}

// OpenBalance returns the amount still owed: gross minus paid minus any
// active credit-memo offsets
func (o *Obligation) OpenBalance() decimal.Decimal {
	return o.GrossAmount.Sub(o.PaidAmount).Sub(o.CreditApplied)
}

// MarkSent records that the document was issued to the counterparty.
// The ledger posting for the issue event is orchestrated separately.
func (o *Obligation) MarkSent() error {
	if o.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Cannot send a void obligation")
	}
	if o.Sent {
		return shared.NewDomainError("INVALID_STATE", "Obligation has already been sent")
	}
	o.Sent = true
	o.recomputeStatus()
	o.Touch()

	o.AddDomainEvent(NewObligationSentEvent(o))

	return nil
}

// ApplyPayment increments the paid amount and recomputes the derived status
func (o *Obligation) ApplyPayment(amount decimal.Decimal) error {
	if o.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Cannot apply payment to a void obligation")
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if amount.GreaterThan(o.OpenBalance()) {
		return shared.NewDomainError("OVER_ALLOCATION",
			fmt.Sprintf("Payment %s exceeds open balance %s", amount.String(), o.OpenBalance().String()))
	}
	o.PaidAmount = o.PaidAmount.Add(amount)
	o.recomputeStatus()
	o.Touch()

	o.AddDomainEvent(NewObligationPaymentAppliedEvent(o, amount))

	return nil
}

// ReversePayment backs out a previously applied payment, used when the
// allocation that produced it is voided
func (o *Obligation) ReversePayment(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Reversal amount must be positive")
	}
	if amount.GreaterThan(o.PaidAmount) {
		return shared.NewDomainError("INVALID_AMOUNT", "Reversal amount exceeds paid amount")
	}
	o.PaidAmount = o.PaidAmount.Sub(amount)
	o.recomputeStatus()
	o.Touch()
	return nil
}

// ApplyCredit records a cross-document offset such as a credit memo
func (o *Obligation) ApplyCredit(amount decimal.Decimal) error {
	if o.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Cannot apply credit to a void obligation")
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Credit amount must be positive")
	}
	if amount.GreaterThan(o.OpenBalance()) {
		return shared.NewDomainError("OVER_ALLOCATION", "Credit exceeds open balance")
	}
	o.CreditApplied = o.CreditApplied.Add(amount)
	o.recomputeStatus()
	o.Touch()
	return nil
}

// Void terminates the obligation. Only allowed before settlement; callers
// must reverse allocations first.
func (o *Obligation) Void() error {
	if o.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Obligation is already void")
	}
	if o.PaidAmount.IsPositive() || o.CreditApplied.IsPositive() {
		return shared.NewDomainError("INVALID_STATE", "Cannot void an obligation with settlements; reverse them first")
	}
	now := time.Now()
	o.Status = ObligationStatusVoid
	o.VoidedAt = &now
	o.Touch()

	o.AddDomainEvent(NewObligationVoidedEvent(o))

	return nil
}

// ReceivableRole returns the balance-sheet role that carries this
// obligation's open amount
func (o *Obligation) ReceivableRole() AccountRole {
	if o.Kind == ObligationKindInvoice {
		return RoleAccountsReceivable
	}
	return RoleAccountsPayable
}

func (o *Obligation) recomputeStatus() {
	o.Status = DeriveObligationStatus(o.GrossAmount, o.PaidAmount, o.CreditApplied, o.Sent)
}
