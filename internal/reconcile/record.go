// File path: internal/reconcile/record.go

// Package reconcile merges the billing facts dataset with the master roster
// into one canonical client record set. Reconciliation rebuilds the world on
// every run: records are never mutated after construction, and later edits
// arrive as read-time overlays keyed by canonical id.
package reconcile

// ProductUsage aggregates usage and revenue for one product across all
// billing periods of a client.
type ProductUsage struct {
	Usage   int     `json:"usage"`
	Revenue float64 `json:"revenue"`
}

// PeriodSummary aggregates a client's activity within one billing period.
type PeriodSummary struct {
	Period  string  `json:"period"`
	Usage   int     `json:"usage"`
	Revenue float64 `json:"revenue"`
}

// ClientRecord is the reconciled, canonical view of one client. Exactly one
// record exists per distinct canonical identity.
type ClientRecord struct {
	CanonicalName     string                  `json:"canonical_name"`
	CanonicalID       string                  `json:"canonical_id"`
	Segment           string                  `json:"segment"`
	Products          map[string]ProductUsage `json:"products"`
	Periods           []PeriodSummary         `json:"periods"`
	TotalRevenue      float64                 `json:"total_revenue"`
	InRoster          bool                    `json:"in_roster"`
	HasRecentActivity bool                    `json:"has_recent_activity"`
	// IsActive is always InRoster && HasRecentActivity.
	IsActive bool `json:"is_active"`
}

// ProductNames returns the set of product names the client uses.
func (r ClientRecord) ProductNames() []string {
	names := make([]string, 0, len(r.Products))
	for name := range r.Products {
		names = append(names, name)
	}
	return names
}

// Overlay carries read-time overrides for a reconciled record. Overlays are
// applied on read and never mutate the underlying record.
type Overlay struct {
	CanonicalID string  `json:"canonical_id"`
	Industry    string  `json:"industry,omitempty"`
	Category    string  `json:"category,omitempty"`
	PriceFactor float64 `json:"price_factor,omitempty"`
}

// Apply returns a copy of the record with the overlay's overrides in effect.
func (o Overlay) Apply(rec ClientRecord) ClientRecord {
	out := rec
	if o.Industry != "" {
		out.Segment = o.Industry
	}
	if o.PriceFactor > 0 && o.PriceFactor != 1 {
		out.TotalRevenue = rec.TotalRevenue * o.PriceFactor
		products := make(map[string]ProductUsage, len(rec.Products))
		for name, usage := range rec.Products {
			usage.Revenue *= o.PriceFactor
			products[name] = usage
		}
		out.Products = products
		periods := make([]PeriodSummary, len(rec.Periods))
		copy(periods, rec.Periods)
		for i := range periods {
			periods[i].Revenue *= o.PriceFactor
		}
		out.Periods = periods
	}
	return out
}
