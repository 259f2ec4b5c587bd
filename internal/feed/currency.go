// File path: internal/feed/currency.go
package feed

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/clearline/clientiq/internal/common"
)

// RateTable converts revenue amounts into the single reporting currency at
// the ingestion boundary. Rates are static for a process lifetime; unknown
// currency codes pass through at 1.0.
type RateTable struct {
	Reporting string             `yaml:"reporting"`
	Rates     map[string]float64 `yaml:"rates"`
}

// DefaultRates returns the compiled-in table with USD reporting.
func DefaultRates() *RateTable {
	return &RateTable{
		Reporting: "USD",
		Rates: map[string]float64{
			"USD": 1.0,
			"EUR": 1.09,
			"GBP": 1.27,
			"INR": 0.012,
			"SGD": 0.74,
			"AED": 0.27,
		},
	}
}

// LoadRates reads a rate table from a YAML file, overlaying the defaults so a
// partial file only overrides the codes it names.
func LoadRates(path string) (*RateTable, error) {
	table := DefaultRates()
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return table, nil
	}
	data, err := os.ReadFile(filepath.Clean(trimmed))
	if err != nil {
		return nil, fmt.Errorf("read rate table: %w", err)
	}
	var loaded RateTable
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("parse rate table: %w", err)
	}
	if strings.TrimSpace(loaded.Reporting) != "" {
		table.Reporting = strings.ToUpper(strings.TrimSpace(loaded.Reporting))
	}
	for code, rate := range loaded.Rates {
		if rate > 0 {
			table.Rates[strings.ToUpper(code)] = rate
		}
	}
	return table, nil
}

// Convert translates an amount in the given currency into the reporting
// currency. Unknown codes are logged once per call site and pass through at
// rate 1.
func (t *RateTable) Convert(amount float64, currency string) float64 {
	if t == nil {
		return amount
	}
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" || code == t.Reporting {
		return amount
	}
	rate, ok := t.Rates[code]
	if !ok {
		common.Logger().Debug("feed: unknown currency, passing through", "currency", code)
		return amount
	}
	return amount * rate
}
