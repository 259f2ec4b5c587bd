// File path: internal/feed/types.go

// Package feed loads the external boundary datasets: the master client
// roster, the billing usage facts, and the product catalog. Everything past
// this package works on converted, shape-validated records in the single
// reporting currency.
package feed

// RosterEntry is one row of the master roster: the source of truth for which
// clients exist and in what order. Immutable once loaded for a process
// lifetime; a reload is a new load.
type RosterEntry struct {
	DisplayName string   `json:"display_name"`
	CanonicalID string   `json:"canonical_id"`
	ExternalIDs []string `json:"external_ids,omitempty"`
}

// UsageFact is one row of the billing dataset: one product per billing period
// per client identifier, as reported by the billing source. Multiple facts for
// the same (client, product, period) must be summed downstream, never
// overwritten.
type UsageFact struct {
	ClientIdentifier string  `json:"client_identifier"`
	Period           string  `json:"period"`
	ProductName      string  `json:"product_name"`
	UsageCount       int     `json:"usage_count"`
	RevenueAmount    float64 `json:"revenue_amount"`
	Currency         string  `json:"currency"`
}

// Product is one catalog row used to classify recommendations and to compute
// the unused-product set for a client.
type Product struct {
	Name        string `json:"name" yaml:"name"`
	Category    string `json:"category" yaml:"category"`
	BillingUnit string `json:"billing_unit" yaml:"billing_unit"`
}
