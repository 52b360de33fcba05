package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/openbooks/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// AccountModel is the persistence model for the Account aggregate root
type AccountModel struct {
	TenantAggregateModel
	Code     string             `gorm:"type:varchar(20);not null;uniqueIndex:idx_account_tenant_code,priority:2"`
	Name     string             `gorm:"type:varchar(200);not null"`
	Type     ledger.AccountType `gorm:"type:varchar(20);not null;index"`
	ParentID *uuid.UUID         `gorm:"type:uuid;index"`
	Archived bool               `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (AccountModel) TableName() string {
	return "accounts"
}

// ToDomain converts the persistence model to a domain Account
func (m *AccountModel) ToDomain() *ledger.Account {
	return &ledger.Account{
		TenantAggregateRoot: m.ToDomainRoot(),
		Code:                m.Code,
		Name:                m.Name,
		Type:                m.Type,
		ParentID:            m.ParentID,
		Archived:            m.Archived,
	}
}

// FromDomain populates the persistence model from a domain Account
func (m *AccountModel) FromDomain(a *ledger.Account) {
	m.FromDomainRoot(a.TenantAggregateRoot)
	m.Code = a.Code
	m.Name = a.Name
	m.Type = a.Type
	m.ParentID = a.ParentID
	m.Archived = a.Archived
}

// JournalEntryModel is the persistence model for the JournalEntry aggregate
// root. The partial unique index on the source tuple enforces the posting
// idempotency key for non-voided entries; voiding releases the key.
type JournalEntryModel struct {
	TenantAggregateModel
	EntryDate   time.Time                `gorm:"not null;index"`
	Description string                   `gorm:"type:varchar(500);not null"`
	SourceType  *ledger.DocumentType     `gorm:"type:varchar(20);uniqueIndex:idx_entry_source,priority:2,where:voided = false"`
	SourceID    *uuid.UUID               `gorm:"type:uuid;uniqueIndex:idx_entry_source,priority:3,where:voided = false"`
	EventKind   *ledger.PostingEventKind `gorm:"type:varchar(30);uniqueIndex:idx_entry_source,priority:4,where:voided = false"`
	OperationID *string                  `gorm:"type:varchar(100);uniqueIndex:idx_entry_operation,priority:2"`
	Voided      bool                     `gorm:"not null;default:false;index"`
	VoidedAt    *time.Time
	VoidReason  string             `gorm:"type:varchar(500)"`
	Lines       []JournalLineModel `gorm:"foreignKey:JournalEntryID;references:ID"`
}

// TableName returns the table name for GORM
func (JournalEntryModel) TableName() string {
	return "journal_entries"
}

// ToDomain converts the persistence model to a domain JournalEntry
func (m *JournalEntryModel) ToDomain() *ledger.JournalEntry {
	lines := make([]ledger.JournalLine, 0, len(m.Lines))
	for i := range m.Lines {
		lines = append(lines, m.Lines[i].ToDomain())
	}
	return &ledger.JournalEntry{
		TenantAggregateRoot: m.ToDomainRoot(),
		EntryDate:           m.EntryDate,
		Description:         m.Description,
		SourceType:          m.SourceType,
		SourceID:            m.SourceID,
		EventKind:           m.EventKind,
		OperationID:         m.OperationID,
		Voided:              m.Voided,
		VoidedAt:            m.VoidedAt,
		VoidReason:          m.VoidReason,
		Lines:               lines,
	}
}

// FromDomain populates the persistence model from a domain JournalEntry
func (m *JournalEntryModel) FromDomain(e *ledger.JournalEntry) {
	m.FromDomainRoot(e.TenantAggregateRoot)
	m.EntryDate = e.EntryDate
	m.Description = e.Description
	m.SourceType = e.SourceType
	m.SourceID = e.SourceID
	m.EventKind = e.EventKind
	m.OperationID = e.OperationID
	m.Voided = e.Voided
	m.VoidedAt = e.VoidedAt
	m.VoidReason = e.VoidReason
	m.Lines = make([]JournalLineModel, 0, len(e.Lines))
	for i := range e.Lines {
		var lm JournalLineModel
		lm.FromDomain(e.Lines[i], e.ID)
		m.Lines = append(m.Lines, lm)
	}
}

// JournalLineModel is the persistence model for one journal line
type JournalLineModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	JournalEntryID uuid.UUID       `gorm:"type:uuid;not null;index"`
	AccountID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Debit          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Credit         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Reconciled     bool            `gorm:"not null;default:false;index"`
	ReconciledAt   *time.Time
	SessionID      *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (JournalLineModel) TableName() string {
	return "journal_lines"
}

// ToDomain converts the persistence model to a domain JournalLine
func (m *JournalLineModel) ToDomain() ledger.JournalLine {
	return ledger.JournalLine{
		ID:             m.ID,
		JournalEntryID: m.JournalEntryID,
		AccountID:      m.AccountID,
		Debit:          m.Debit,
		Credit:         m.Credit,
		Reconciled:     m.Reconciled,
		ReconciledAt:   m.ReconciledAt,
		SessionID:      m.SessionID,
	}
}

// FromDomain populates the persistence model from a domain JournalLine
func (m *JournalLineModel) FromDomain(l ledger.JournalLine, entryID uuid.UUID) {
	m.ID = l.ID
	m.JournalEntryID = entryID
	m.AccountID = l.AccountID
	m.Debit = l.Debit
	m.Credit = l.Credit
	m.Reconciled = l.Reconciled
	m.ReconciledAt = l.ReconciledAt
	m.SessionID = l.SessionID
}

// ObligationModel is the persistence model for the Obligation aggregate root
type ObligationModel struct {
	TenantAggregateModel
	Kind          ledger.ObligationKind   `gorm:"type:varchar(10);not null;uniqueIndex:idx_obligation_tenant_number,priority:2"`
	Number        string                  `gorm:"type:varchar(50);not null;uniqueIndex:idx_obligation_tenant_number,priority:3"`
	ContactName   string                  `gorm:"type:varchar(200);not null"`
	IssueDate     time.Time               `gorm:"not null;index"`
	DueDate       *time.Time              `gorm:"index"`
	Currency      string                  `gorm:"type:varchar(3);not null"`
	NetAmount     decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	TaxAmount     decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	GrossAmount   decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	PaidAmount    decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	CreditApplied decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	Status        ledger.ObligationStatus `gorm:"type:varchar(10);not null;index"`
	Sent          bool                    `gorm:"not null;default:false"`
	TaxComponents ledger.TaxDetail        `gorm:"type:jsonb"`
	VoidedAt      *time.Time
}

// TableName returns the table name for GORM
func (ObligationModel) TableName() string {
	return "obligations"
}

// ToDomain converts the persistence model to a domain Obligation
func (m *ObligationModel) ToDomain() *ledger.Obligation {
	return &ledger.Obligation{
		TenantAggregateRoot: m.ToDomainRoot(),
		Kind:                m.Kind,
		Number:              m.Number,
		ContactName:         m.ContactName,
		IssueDate:           m.IssueDate,
		DueDate:             m.DueDate,
		Currency:            m.Currency,
		NetAmount:           m.NetAmount,
		TaxAmount:           m.TaxAmount,
		GrossAmount:         m.GrossAmount,
		PaidAmount:          m.PaidAmount,
		CreditApplied:       m.CreditApplied,
		Status:              m.Status,
		Sent:                m.Sent,
		TaxComponents:       m.TaxComponents,
		VoidedAt:            m.VoidedAt,
	}
}

// FromDomain populates the persistence model from a domain Obligation
func (m *ObligationModel) FromDomain(o *ledger.Obligation) {
	m.FromDomainRoot(o.TenantAggregateRoot)
	m.Kind = o.Kind
	m.Number = o.Number
	m.ContactName = o.ContactName
	m.IssueDate = o.IssueDate
	m.DueDate = o.DueDate
	m.Currency = o.Currency
	m.NetAmount = o.NetAmount
	m.TaxAmount = o.TaxAmount
	m.GrossAmount = o.GrossAmount
	m.PaidAmount = o.PaidAmount
	m.CreditApplied = o.CreditApplied
	m.Status = o.Status
	m.Sent = o.Sent
	m.TaxComponents = o.TaxComponents
	m.VoidedAt = o.VoidedAt
}

// BankAccountModel is the persistence model for the BankAccount aggregate root
type BankAccountModel struct {
	TenantAggregateModel
	Name            string     `gorm:"type:varchar(200);not null"`
	Currency        string     `gorm:"type:varchar(3);not null"`
	LedgerAccountID uuid.UUID  `gorm:"type:uuid;not null;index"`
	FeeAccountID    *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (BankAccountModel) TableName() string {
	return "bank_accounts"
}

// ToDomain converts the persistence model to a domain BankAccount
func (m *BankAccountModel) ToDomain() *ledger.BankAccount {
	return &ledger.BankAccount{
		TenantAggregateRoot: m.ToDomainRoot(),
		Name:                m.Name,
		Currency:            m.Currency,
		LedgerAccountID:     m.LedgerAccountID,
		FeeAccountID:        m.FeeAccountID,
	}
}

// FromDomain populates the persistence model from a domain BankAccount
func (m *BankAccountModel) FromDomain(a *ledger.BankAccount) {
	m.FromDomainRoot(a.TenantAggregateRoot)
	m.Name = a.Name
	m.Currency = a.Currency
	m.LedgerAccountID = a.LedgerAccountID
	m.FeeAccountID = a.FeeAccountID
}

// BankTransactionModel is the persistence model for the BankTransaction
// aggregate root. The unique index on (tenant, bank account, external id)
// enforces import deduplication.
type BankTransactionModel struct {
	TenantAggregateModel
	BankAccountID   uuid.UUID                    `gorm:"type:uuid;not null;uniqueIndex:idx_bank_txn_external,priority:2"`
	ExternalID      string                       `gorm:"type:varchar(64);not null;uniqueIndex:idx_bank_txn_external,priority:3"`
	TransactionDate time.Time                    `gorm:"not null;index"`
	Description     string                       `gorm:"type:varchar(500)"`
	Amount          decimal.Decimal              `gorm:"type:decimal(18,4);not null"`
	Currency        string                       `gorm:"type:varchar(3);not null"`
	AllocatedAmount decimal.Decimal              `gorm:"type:decimal(18,4);not null"`
	Status          ledger.BankTransactionStatus `gorm:"type:varchar(20);not null;index"`
	TargetCount     int                          `gorm:"not null;default:0"`
	ReconciledAt    *time.Time
	SessionID       *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (BankTransactionModel) TableName() string {
	return "bank_transactions"
}

// ToDomain converts the persistence model to a domain BankTransaction
func (m *BankTransactionModel) ToDomain() *ledger.BankTransaction {
	return &ledger.BankTransaction{
		TenantAggregateRoot: m.ToDomainRoot(),
		BankAccountID:       m.BankAccountID,
		ExternalID:          m.ExternalID,
		TransactionDate:     m.TransactionDate,
		Description:         m.Description,
		Amount:              m.Amount,
		Currency:            m.Currency,
		AllocatedAmount:     m.AllocatedAmount,
		Status:              m.Status,
		TargetCount:         m.TargetCount,
		ReconciledAt:        m.ReconciledAt,
		SessionID:           m.SessionID,
	}
}

// FromDomain populates the persistence model from a domain BankTransaction
func (m *BankTransactionModel) FromDomain(t *ledger.BankTransaction) {
	m.FromDomainRoot(t.TenantAggregateRoot)
	m.BankAccountID = t.BankAccountID
	m.ExternalID = t.ExternalID
	m.TransactionDate = t.TransactionDate
	m.Description = t.Description
	m.Amount = t.Amount
	m.Currency = t.Currency
	m.AllocatedAmount = t.AllocatedAmount
	m.Status = t.Status
	m.TargetCount = t.TargetCount
	m.ReconciledAt = t.ReconciledAt
	m.SessionID = t.SessionID
}

// AllocationModel is the persistence model for the Allocation aggregate root
type AllocationModel struct {
	TenantAggregateModel
	BankTransactionID uuid.UUID                   `gorm:"type:uuid;not null;index"`
	JournalEntryID    uuid.UUID                   `gorm:"type:uuid;not null;index"`
	TargetKind        ledger.AllocationTargetKind `gorm:"type:varchar(20);not null"`
	ObligationID      *uuid.UUID                  `gorm:"type:uuid;index"`
	AccountID         *uuid.UUID                  `gorm:"type:uuid"`
	Amount            decimal.Decimal             `gorm:"type:decimal(18,4);not null"`
	Confidence        decimal.Decimal             `gorm:"type:decimal(5,4);not null"`
	Status            ledger.AllocationStatus     `gorm:"type:varchar(10);not null;index"`
	VoidedAt          *time.Time
}

// TableName returns the table name for GORM
func (AllocationModel) TableName() string {
	return "allocations"
}

// ToDomain converts the persistence model to a domain Allocation
func (m *AllocationModel) ToDomain() *ledger.Allocation {
	return &ledger.Allocation{
		TenantAggregateRoot: m.ToDomainRoot(),
		BankTransactionID:   m.BankTransactionID,
		JournalEntryID:      m.JournalEntryID,
		TargetKind:          m.TargetKind,
		ObligationID:        m.ObligationID,
		AccountID:           m.AccountID,
		Amount:              m.Amount,
		Confidence:          m.Confidence,
		Status:              m.Status,
		VoidedAt:            m.VoidedAt,
	}
}

// FromDomain populates the persistence model from a domain Allocation
func (m *AllocationModel) FromDomain(a *ledger.Allocation) {
	m.FromDomainRoot(a.TenantAggregateRoot)
	m.BankTransactionID = a.BankTransactionID
	m.JournalEntryID = a.JournalEntryID
	m.TargetKind = a.TargetKind
	m.ObligationID = a.ObligationID
	m.AccountID = a.AccountID
	m.Amount = a.Amount
	m.Confidence = a.Confidence
	m.Status = a.Status
	m.VoidedAt = a.VoidedAt
}

// ReconciliationSessionModel is the persistence model for the
// ReconciliationSession aggregate root. Unique per (tenant, bank account,
// period start).
type ReconciliationSessionModel struct {
	TenantAggregateModel
	BankAccountID  uuid.UUID                          `gorm:"type:uuid;not null;uniqueIndex:idx_session_account_period,priority:2"`
	PeriodStart    time.Time                          `gorm:"not null;uniqueIndex:idx_session_account_period,priority:3"`
	PeriodEnd      time.Time                          `gorm:"not null"`
	OpeningBalance decimal.Decimal                    `gorm:"type:decimal(18,4);not null"`
	ClosingBalance decimal.Decimal                    `gorm:"type:decimal(18,4);not null"`
	Status         ledger.ReconciliationSessionStatus `gorm:"type:varchar(15);not null;index"`
	CompletedAt    *time.Time
}

// TableName returns the table name for GORM
func (ReconciliationSessionModel) TableName() string {
	return "reconciliation_sessions"
}

// ToDomain converts the persistence model to a domain ReconciliationSession
func (m *ReconciliationSessionModel) ToDomain() *ledger.ReconciliationSession {
	return &ledger.ReconciliationSession{
		TenantAggregateRoot: m.ToDomainRoot(),
		BankAccountID:       m.BankAccountID,
		PeriodStart:         m.PeriodStart,
		PeriodEnd:           m.PeriodEnd,
		OpeningBalance:      m.OpeningBalance,
		ClosingBalance:      m.ClosingBalance,
		Status:              m.Status,
		CompletedAt:         m.CompletedAt,
	}
}

// FromDomain populates the persistence model from a domain
// ReconciliationSession
func (m *ReconciliationSessionModel) FromDomain(s *ledger.ReconciliationSession) {
	m.FromDomainRoot(s.TenantAggregateRoot)
	m.BankAccountID = s.BankAccountID
	m.PeriodStart = s.PeriodStart
	m.PeriodEnd = s.PeriodEnd
	m.OpeningBalance = s.OpeningBalance
	m.ClosingBalance = s.ClosingBalance
	m.Status = s.Status
	m.CompletedAt = s.CompletedAt
}
