package persistence

import (
	"context"

	"github.com/openbooks/backend/internal/domain/ledger"
	"gorm.io/gorm"
)

// gormRepositories bundles every ledger repository bound to one *gorm.DB,
// which is either the root connection or an open transaction
type gormRepositories struct {
	accounts               *GormAccountRepository
	journalEntries         *GormJournalEntryRepository
	obligations            *GormObligationRepository
	bankAccounts           *GormBankAccountRepository
	bankTransactions       *GormBankTransactionRepository
	allocations            *GormAllocationRepository
	reconciliationSessions *GormReconciliationSessionRepository
}

func newGormRepositories(db *gorm.DB) *gormRepositories {
	return &gormRepositories{
		accounts:               NewGormAccountRepository(db),
		journalEntries:         NewGormJournalEntryRepository(db),
		obligations:            NewGormObligationRepository(db),
		bankAccounts:           NewGormBankAccountRepository(db),
		bankTransactions:       NewGormBankTransactionRepository(db),
		allocations:            NewGormAllocationRepository(db),
		reconciliationSessions: NewGormReconciliationSessionRepository(db),
	}
}

func (r *gormRepositories) Accounts() ledger.AccountRepository { return r.accounts }
func (r *gormRepositories) JournalEntries() ledger.JournalEntryRepository {
	return r.journalEntries
}
func (r *gormRepositories) Obligations() ledger.ObligationRepository { return r.obligations }
func (r *gormRepositories) BankAccounts() ledger.BankAccountRepository {
	return r.bankAccounts
}
func (r *gormRepositories) BankTransactions() ledger.BankTransactionRepository {
	return r.bankTransactions
}
func (r *gormRepositories) Allocations() ledger.AllocationRepository { return r.allocations }
func (r *gormRepositories) ReconciliationSessions() ledger.ReconciliationSessionRepository {
	return r.reconciliationSessions
}

var _ ledger.Repositories = (*gormRepositories)(nil)

// GormUnitOfWork implements ledger.UnitOfWork on a database transaction.
// Every repository handed to fn shares the same transaction, so a returned
// error rolls back everything fn wrote.
type GormUnitOfWork struct {
	db *gorm.DB
}

// NewGormUnitOfWork creates a new GormUnitOfWork
func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// Execute runs fn inside one transaction
func (u *GormUnitOfWork) Execute(ctx context.Context, fn func(repos ledger.Repositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newGormRepositories(tx))
	})
}

var _ ledger.UnitOfWork = (*GormUnitOfWork)(nil)
