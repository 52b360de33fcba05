package ledger

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MatchingService is a domain service that finds unreconciled journal lines
// plausibly matching a bank statement line. It is read-only: candidate
// search never mutates anything, confirmation happens elsewhere.
//
// Matching rules:
// 1. The line's entry date lies within the transaction date +/- a window
// 2. The line's net effect has the same sign as the transaction amount
// 3. The unsigned amounts agree within a tolerance
type MatchingService struct {
	windowDays int
	tolerance  decimal.Decimal
}

// MatchingServiceOption is a functional option for configuring MatchingService
type MatchingServiceOption func(*MatchingService)

// WithWindowDays sets the search window in days around the transaction date
func WithWindowDays(days int) MatchingServiceOption {
	return func(s *MatchingService) {
		if days > 0 {
			s.windowDays = days
		}
	}
}

// WithAmountTolerance sets the maximum unsigned amount difference for a
// candidate
func WithAmountTolerance(tolerance decimal.Decimal) MatchingServiceOption {
	return func(s *MatchingService) {
		if !tolerance.IsNegative() {
			s.tolerance = tolerance
		}
	}
}

// NewMatchingService creates a matching service with the default 3-day
// window and one-cent tolerance
func NewMatchingService(opts ...MatchingServiceOption) *MatchingService {
	s := &MatchingService{
		windowDays: 3,
		tolerance:  decimal.NewFromFloat(0.01),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WindowDays returns the configured search window
func (s *MatchingService) WindowDays() int {
	return s.windowDays
}

// Window returns the candidate date range for a transaction date
func (s *MatchingService) Window(date time.Time) (time.Time, time.Time) {
	d := time.Duration(s.windowDays) * 24 * time.Hour
	return date.Add(-d), date.Add(d)
}

// MatchCandidate is one plausible ledger counterpart for a statement line
type MatchCandidate struct {
	Line       LedgerLine      `json:"line"`
	Difference decimal.Decimal `json:"difference"`
}

// FindCandidates filters and orders the supplied lines against the
// transaction. The caller fetches lines for the bank's ledger account and
// window; the service applies the sign and amount rules and orders the
// survivors by entry date then id.
func (s *MatchingService) FindCandidates(transaction *BankTransaction, lines []LedgerLine) []MatchCandidate {
	from, to := s.Window(transaction.TransactionDate)
	absAmount := transaction.AbsAmount()

	candidates := make([]MatchCandidate, 0, len(lines))
	for _, l := range lines {
		if l.Line.Reconciled {
			continue
		}
		if l.EntryDate.Before(from) || l.EntryDate.After(to) {
			continue
		}
		net := l.Line.Net()
		if net.IsZero() || net.Sign() != transaction.Amount.Sign() {
			continue
		}
		diff := net.Abs().Sub(absAmount).Abs()
		if diff.GreaterThan(s.tolerance) {
			continue
		}
		candidates = append(candidates, MatchCandidate{Line: l, Difference: diff})
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i].Line, candidates[j].Line
		if !a.EntryDate.Equal(b.EntryDate) {
			return a.EntryDate.Before(b.EntryDate)
		}
		return a.Line.ID.String() < b.Line.ID.String()
	})

	return candidates
}

// Reconcile confirms a found match: the bank transaction and every chosen
// journal line are marked reconciled with one shared timestamp and session
// reference. This is the confirmation path for existing entries, distinct
// from allocation which creates a new entry; both converge on the same
// reconciled-state fields.
func (s *MatchingService) Reconcile(transaction *BankTransaction, lines []JournalLine, session *ReconciliationSession) ([]JournalLine, error) {
	now := time.Now()

	var sessionID *uuid.UUID
	if session != nil {
		if err := session.Begin(); err != nil {
			return nil, err
		}
		sessionID = &session.ID
	}

	reconciled := make([]JournalLine, 0, len(lines))
	for i := range lines {
		line := lines[i]
		if err := line.MarkReconciled(now, sessionID); err != nil {
			return nil, err
		}
		reconciled = append(reconciled, line)
	}

	if err := transaction.MarkReconciled(now, sessionID); err != nil {
		return nil, err
	}

	return reconciled, nil
}
