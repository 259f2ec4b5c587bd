// File path: internal/reconcile/reconcile.go
package reconcile

import (
	"sort"
	"strings"

	"github.com/clearline/clientiq/internal/common"
	"github.com/clearline/clientiq/internal/feed"
	"github.com/clearline/clientiq/internal/identity"
	"github.com/clearline/clientiq/internal/rules"
)

// Report summarizes one reconciliation run.
type Report struct {
	RosterAvailable  bool `json:"roster_available"`
	RosterEntries    int  `json:"roster_entries"`
	BillingClients   int  `json:"billing_clients"`
	Matched          int  `json:"matched"`
	Placeholders     int  `json:"placeholders"`
	UnmatchedBilling int  `json:"unmatched_billing"`
}

// productPeriod is the aggregation cell for one (product, period) pair.
type productPeriod struct {
	product string
	period  string
}

// billingGroup is a consolidated view of one billing identity before the
// roster join.
type billingGroup struct {
	rawID string
	cells map[productPeriod]feed.UsageFact
}

// Reconcile merges the roster and billing datasets into the canonical record
// set. The operation is deterministic and idempotent: identical inputs yield
// byte-identical ordering and aggregates. When the roster is empty or
// unavailable, the result degrades to billing-only records with InRoster
// false for everyone.
func Reconcile(roster []feed.RosterEntry, facts []feed.UsageFact, classifier rules.Classifier) ([]ClientRecord, Report) {
	logger := common.Logger()
	report := Report{RosterAvailable: len(roster) > 0, RosterEntries: len(roster)}
	if !report.RosterAvailable {
		logger.Warn("reconcile: roster unavailable, degrading to billing-only view")
	}

	groups := consolidate(facts)
	report.BillingClients = len(groups)
	latest := latestPeriod(facts)

	// Merge consolidated billing groups that collapse to the same normalized
	// key so a client split across sub-accounts is counted once.
	merged := make(map[string]*billingGroup)
	var mergedKeys []string
	for _, key := range sortedGroupKeys(groups) {
		group := groups[key]
		norm := identity.Normalize(group.rawID)
		if norm == "" {
			norm = key
		}
		existing, ok := merged[norm]
		if !ok {
			merged[norm] = group
			mergedKeys = append(mergedKeys, norm)
			continue
		}
		for cell, fact := range group.cells {
			sumCell(existing.cells, cell, fact)
		}
	}

	matched := make(map[string]bool, len(merged))
	records := make([]ClientRecord, 0, len(roster)+len(merged))

	for _, entry := range roster {
		group := probe(merged, entry)
		if group == nil {
			records = append(records, placeholderRecord(entry, classifier))
			report.Placeholders++
			continue
		}
		matched[identity.Normalize(group.rawID)] = true
		rec := buildRecord(entry.DisplayName, entry.CanonicalID, group, latest)
		rec.InRoster = true
		rec.IsActive = rec.HasRecentActivity
		rec.Segment = segmentFor(classifier, rec.CanonicalName)
		records = append(records, rec)
		report.Matched++
	}

	for _, norm := range mergedKeys {
		if matched[norm] {
			continue
		}
		group := merged[norm]
		rec := buildRecord(group.rawID, norm, group, latest)
		rec.InRoster = false
		rec.IsActive = false
		rec.Segment = segmentFor(classifier, rec.CanonicalName)
		records = append(records, rec)
		report.UnmatchedBilling++
	}

	sortRecords(records)
	logger.Info(
		"reconcile: run complete",
		"roster", report.RosterEntries,
		"billing", report.BillingClients,
		"matched", report.Matched,
		"placeholders", report.Placeholders,
		"unmatched", report.UnmatchedBilling,
	)
	return records, report
}

// consolidate groups facts by the raw client identifier as provided by the
// billing source, summing duplicate (product, period) combinations. No
// normalization happens in this pass.
func consolidate(facts []feed.UsageFact) map[string]*billingGroup {
	groups := make(map[string]*billingGroup)
	for _, fact := range facts {
		raw := fact.ClientIdentifier
		group, ok := groups[raw]
		if !ok {
			group = &billingGroup{rawID: raw, cells: make(map[productPeriod]feed.UsageFact)}
			groups[raw] = group
		}
		sumCell(group.cells, productPeriod{product: fact.ProductName, period: fact.Period}, fact)
	}
	return groups
}

func sumCell(cells map[productPeriod]feed.UsageFact, cell productPeriod, fact feed.UsageFact) {
	existing := cells[cell]
	existing.ClientIdentifier = fact.ClientIdentifier
	existing.ProductName = cell.product
	existing.Period = cell.period
	existing.UsageCount += fact.UsageCount
	existing.RevenueAmount += fact.RevenueAmount
	existing.Currency = fact.Currency
	cells[cell] = existing
}

// probe looks the roster entry up by its normalized display name, canonical
// id, and external ids, in that order.
func probe(merged map[string]*billingGroup, entry feed.RosterEntry) *billingGroup {
	keys := make([]string, 0, 2+len(entry.ExternalIDs))
	keys = append(keys, identity.Normalize(entry.DisplayName), identity.Normalize(entry.CanonicalID))
	for _, ext := range entry.ExternalIDs {
		keys = append(keys, identity.Normalize(ext))
	}
	for _, key := range keys {
		if key == "" {
			continue
		}
		if group, ok := merged[key]; ok {
			return group
		}
	}
	return nil
}

func buildRecord(name, id string, group *billingGroup, latest string) ClientRecord {
	rec := ClientRecord{
		CanonicalName: strings.TrimSpace(name),
		CanonicalID:   strings.TrimSpace(id),
		Products:      make(map[string]ProductUsage),
	}
	periodTotals := make(map[string]*PeriodSummary)
	for cell, fact := range group.cells {
		usage := rec.Products[cell.product]
		usage.Usage += fact.UsageCount
		usage.Revenue += fact.RevenueAmount
		rec.Products[cell.product] = usage

		summary, ok := periodTotals[cell.period]
		if !ok {
			summary = &PeriodSummary{Period: cell.period}
			periodTotals[cell.period] = summary
		}
		summary.Usage += fact.UsageCount
		summary.Revenue += fact.RevenueAmount
		rec.TotalRevenue += fact.RevenueAmount
	}
	periods := make([]string, 0, len(periodTotals))
	for period := range periodTotals {
		periods = append(periods, period)
	}
	sort.Strings(periods)
	for _, period := range periods {
		rec.Periods = append(rec.Periods, *periodTotals[period])
	}
	rec.HasRecentActivity = latest != "" && periodTotals[latest] != nil
	return rec
}

func placeholderRecord(entry feed.RosterEntry, classifier rules.Classifier) ClientRecord {
	return ClientRecord{
		CanonicalName: strings.TrimSpace(entry.DisplayName),
		CanonicalID:   strings.TrimSpace(entry.CanonicalID),
		Segment:       segmentFor(classifier, entry.DisplayName),
		Products:      map[string]ProductUsage{},
		InRoster:      true,
	}
}

func segmentFor(classifier rules.Classifier, name string) string {
	if classifier == nil {
		return ""
	}
	return classifier.Segment(name)
}

// latestPeriod returns the lexically greatest period across all facts.
// Billing periods are ISO "YYYY-MM" strings, so lexical order is calendar
// order.
func latestPeriod(facts []feed.UsageFact) string {
	latest := ""
	for _, fact := range facts {
		if fact.Period > latest {
			latest = fact.Period
		}
	}
	return latest
}

func sortedGroupKeys(groups map[string]*billingGroup) []string {
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// sortRecords applies the three-tier ordering: active clients first
// (alphabetical), then inactive roster clients (alphabetical), then
// non-roster clients by revenue descending with name as the deterministic
// tie-break.
func sortRecords(records []ClientRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.IsActive != b.IsActive {
			return a.IsActive
		}
		if a.InRoster != b.InRoster {
			return a.InRoster
		}
		if a.InRoster {
			if a.CanonicalName != b.CanonicalName {
				return a.CanonicalName < b.CanonicalName
			}
			return a.CanonicalID < b.CanonicalID
		}
		if a.TotalRevenue != b.TotalRevenue {
			return a.TotalRevenue > b.TotalRevenue
		}
		return a.CanonicalName < b.CanonicalName
	})
}
