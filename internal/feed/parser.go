// File path: internal/feed/parser.go
package feed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/clearline/clientiq/internal/common"
)

// RowError records a single billing row that failed shape validation. Bad
// rows are skipped and counted; they never abort the stream.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Line, e.Err)
}

// FactReader streams usage facts out of a billing CSV export. Each row is
// validated independently; revenue is converted into the reporting currency
// as it is read.
//
// Expected columns: client_identifier, period, product_name, usage_count,
// revenue_amount, currency. A header row is detected and skipped.
type FactReader struct {
	reader  *csv.Reader
	rates   *RateTable
	line    int
	skipped []RowError
	started bool
}

// NewFactReader wraps an io.Reader producing billing CSV rows.
func NewFactReader(r io.Reader, rates *RateTable) *FactReader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return &FactReader{reader: cr, rates: rates}
}

// Next returns the next valid usage fact. Malformed rows are recorded and
// skipped. Returns io.EOF when the stream is exhausted.
func (fr *FactReader) Next() (UsageFact, error) {
	for {
		record, err := fr.reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return UsageFact{}, io.EOF
			}
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				fr.line++
				fr.skip(fr.line, err)
				continue
			}
			return UsageFact{}, fmt.Errorf("read billing row: %w", err)
		}
		fr.line++
		if !fr.started {
			fr.started = true
			if isHeaderRow(record) {
				continue
			}
		}
		fact, err := fr.parseRow(record)
		if err != nil {
			fr.skip(fr.line, err)
			continue
		}
		return fact, nil
	}
}

// Skipped returns the row-level errors accumulated so far.
func (fr *FactReader) Skipped() []RowError {
	out := make([]RowError, len(fr.skipped))
	copy(out, fr.skipped)
	return out
}

func (fr *FactReader) skip(line int, err error) {
	fr.skipped = append(fr.skipped, RowError{Line: line, Err: err})
	common.Logger().Warn("feed: skipping malformed billing row", "line", line, "error", err)
}

func (fr *FactReader) parseRow(record []string) (UsageFact, error) {
	if len(record) < 6 {
		return UsageFact{}, fmt.Errorf("expected 6 columns, got %d", len(record))
	}
	fact := UsageFact{
		ClientIdentifier: strings.TrimSpace(record[0]),
		Period:           strings.TrimSpace(record[1]),
		ProductName:      strings.TrimSpace(record[2]),
		Currency:         strings.ToUpper(strings.TrimSpace(record[5])),
	}
	if fact.ClientIdentifier == "" {
		return UsageFact{}, errors.New("client identifier required")
	}
	if fact.Period == "" {
		return UsageFact{}, errors.New("period required")
	}
	if fact.ProductName == "" {
		return UsageFact{}, errors.New("product name required")
	}
	usage, err := strconv.Atoi(strings.TrimSpace(record[3]))
	if err != nil {
		return UsageFact{}, fmt.Errorf("parse usage count: %w", err)
	}
	if usage < 0 {
		return UsageFact{}, fmt.Errorf("negative usage count %d", usage)
	}
	revenue, err := strconv.ParseFloat(strings.TrimSpace(record[4]), 64)
	if err != nil {
		return UsageFact{}, fmt.Errorf("parse revenue amount: %w", err)
	}
	if revenue < 0 {
		return UsageFact{}, fmt.Errorf("negative revenue amount %f", revenue)
	}
	fact.UsageCount = usage
	fact.RevenueAmount = fr.rates.Convert(revenue, fact.Currency)
	if fr.rates != nil {
		fact.Currency = fr.rates.Reporting
	}
	return fact, nil
}

func isHeaderRow(record []string) bool {
	if len(record) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(record[0]))
	return first == "client_identifier" || first == "client_id" || first == "client"
}

// ReadFacts drains a billing CSV file into memory, returning the valid facts
// plus the row-level errors encountered along the way.
func ReadFacts(path string, rates *RateTable) ([]UsageFact, []RowError, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open billing export: %w", err)
	}
	defer file.Close()
	reader := NewFactReader(file, rates)
	var facts []UsageFact
	for {
		fact, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, reader.Skipped(), err
		}
		facts = append(facts, fact)
	}
	return facts, reader.Skipped(), nil
}
