// Package statement provides statement feed implementations behind the
// ledger's anti-corruption contract.
package statement

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openbooks/backend/internal/domain/ledger/acl"
	"github.com/openbooks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// dateLayouts are tried in order when parsing the date column
var dateLayouts = []string{"2006-01-02", "02/01/2006", "01/02/2006", time.RFC3339}

// CSVSource parses bank statement exports in CSV form. The expected header
// is date,description,amount with an optional currency column. Lines outside
// the requested period are dropped.
type CSVSource struct {
	open     func(ctx context.Context, bankAccountID uuid.UUID) (io.ReadCloser, error)
	currency string
}

// NewCSVSource creates a CSV statement source. The open callback supplies
// the export file for a bank account; currency is the fallback when the file
// has no currency column.
func NewCSVSource(open func(ctx context.Context, bankAccountID uuid.UUID) (io.ReadCloser, error), currency string) *CSVSource {
	return &CSVSource{open: open, currency: currency}
}

// Fetch parses the account's export and returns the lines inside the period
func (s *CSVSource) Fetch(ctx context.Context, tenantID, bankAccountID uuid.UUID, from, to time.Time) ([]acl.StatementLine, error) {
	rc, err := s.open(ctx, bankAccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to open statement export: %w", err)
	}
	defer rc.Close()

	lines, err := ParseStatement(rc, s.currency)
	if err != nil {
		return nil, err
	}

	filtered := make([]acl.StatementLine, 0, len(lines))
	for _, line := range lines {
		if line.Date.Before(from) || line.Date.After(to) {
			continue
		}
		filtered = append(filtered, line)
	}
	return filtered, nil
}

// ParseStatement reads one CSV export into statement lines
func ParseStatement(r io.Reader, fallbackCurrency string) ([]acl.StatementLine, error) {
	buf := bufio.NewReader(r)
	stripBOM(buf)

	reader := csv.NewReader(buf)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, shared.NewDomainError("INVALID_STATEMENT", "Statement export is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read statement header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"date", "description", "amount"} {
		if _, ok := cols[required]; !ok {
			return nil, shared.NewDomainError("INVALID_STATEMENT",
				fmt.Sprintf("Statement export is missing the %q column", required))
		}
	}

	var lines []acl.StatementLine
	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read statement row %d: %w", row, err)
		}
		row++

		date, err := parseDate(field(record, cols["date"]))
		if err != nil {
			return nil, shared.NewDomainError("INVALID_STATEMENT",
				fmt.Sprintf("Row %d has an unparseable date", row))
		}
		amount, err := decimal.NewFromString(field(record, cols["amount"]))
		if err != nil {
			return nil, shared.NewDomainError("INVALID_STATEMENT",
				fmt.Sprintf("Row %d has an unparseable amount", row))
		}

		currency := fallbackCurrency
		if i, ok := cols["currency"]; ok && field(record, i) != "" {
			currency = strings.ToUpper(field(record, i))
		}

		lines = append(lines, acl.StatementLine{
			Date:        date,
			Description: field(record, cols["description"]),
			Amount:      amount,
			Currency:    currency,
		})
	}
	return lines, nil
}

func stripBOM(r *bufio.Reader) {
	head, err := r.Peek(3)
	if err == nil && len(head) == 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		_, _ = r.Discard(3)
	}
}

func field(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func parseDate(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

var _ acl.StatementSource = (*CSVSource)(nil)
