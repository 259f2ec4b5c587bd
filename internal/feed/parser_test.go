// File path: internal/feed/parser_test.go
package feed

import (
	"errors"
	"io"
	"strings"
	"testing"
)

const sampleBilling = `client_identifier,period,product_name,usage_count,revenue_amount,currency
AC1,2025-09,KYC Verification,100,50.0,USD
AC1,2025-09,AML Screening,40,20.0,USD
AC2,2025-08,KYC Verification,10,100.0,EUR
`

func drain(t *testing.T, reader *FactReader) []UsageFact {
	t.Helper()
	var facts []UsageFact
	for {
		fact, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return facts
		}
		if err != nil {
			t.Fatalf("unexpected read error: %v", err)
		}
		facts = append(facts, fact)
	}
}

func TestFactReaderParsesRowsAndSkipsHeader(t *testing.T) {
	reader := NewFactReader(strings.NewReader(sampleBilling), DefaultRates())
	facts := drain(t, reader)
	if len(facts) != 3 {
		t.Fatalf("expected 3 facts, got %d", len(facts))
	}
	first := facts[0]
	if first.ClientIdentifier != "AC1" || first.Period != "2025-09" || first.ProductName != "KYC Verification" {
		t.Fatalf("unexpected first fact: %+v", first)
	}
	if first.UsageCount != 100 || first.RevenueAmount != 50.0 {
		t.Fatalf("unexpected first fact amounts: %+v", first)
	}
	if skipped := reader.Skipped(); len(skipped) != 0 {
		t.Fatalf("expected no skipped rows, got %v", skipped)
	}
}

func TestFactReaderConvertsCurrencyAtIngestion(t *testing.T) {
	reader := NewFactReader(strings.NewReader(sampleBilling), DefaultRates())
	facts := drain(t, reader)
	eur := facts[2]
	if eur.Currency != "USD" {
		t.Fatalf("expected reporting currency USD, got %q", eur.Currency)
	}
	want := 100.0 * 1.09
	if eur.RevenueAmount != want {
		t.Fatalf("expected converted revenue %v, got %v", want, eur.RevenueAmount)
	}
}

func TestFactReaderSkipsMalformedRows(t *testing.T) {
	input := strings.Join([]string{
		"client_identifier,period,product_name,usage_count,revenue_amount,currency",
		"AC1,2025-09,KYC Verification,100,50.0,USD",
		"AC1,2025-09,AML Screening,not-a-number,20.0,USD",
		"AC1,2025-09,Fraud Detection,5,-3.0,USD",
		",2025-09,Payouts,5,3.0,USD",
		"AC1,2025-09,Payouts,too,few",
		"AC2,2025-09,Instant Payouts,7,14.0,USD",
	}, "\n")
	reader := NewFactReader(strings.NewReader(input), DefaultRates())
	facts := drain(t, reader)
	if len(facts) != 2 {
		t.Fatalf("expected 2 valid facts, got %d: %+v", len(facts), facts)
	}
	skipped := reader.Skipped()
	if len(skipped) != 4 {
		t.Fatalf("expected 4 skipped rows, got %d: %v", len(skipped), skipped)
	}
	for _, row := range skipped {
		if row.Line <= 1 {
			t.Fatalf("skipped row should carry its line number, got %+v", row)
		}
	}
}

func TestFactReaderHandlesHeaderlessInput(t *testing.T) {
	reader := NewFactReader(strings.NewReader("AC1,2025-09,KYC Verification,1,2.0,USD\n"), DefaultRates())
	facts := drain(t, reader)
	if len(facts) != 1 {
		t.Fatalf("expected the data row to survive without a header, got %d facts", len(facts))
	}
}
