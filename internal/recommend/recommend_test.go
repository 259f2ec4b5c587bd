// File path: internal/recommend/recommend_test.go
package recommend

import (
	"testing"

	"github.com/clearline/clientiq/internal/adoption"
	"github.com/clearline/clientiq/internal/feed"
	"github.com/clearline/clientiq/internal/reconcile"
	"github.com/clearline/clientiq/internal/rules"
	"github.com/clearline/clientiq/internal/similarity"
)

func paymentsClient(products ...string) reconcile.ClientRecord {
	owned := make(map[string]reconcile.ProductUsage, len(products))
	for _, p := range products {
		owned[p] = reconcile.ProductUsage{Usage: 1, Revenue: 10}
	}
	return reconcile.ClientRecord{CanonicalName: "Acme Pay", CanonicalID: "AC1", Segment: "payments", Products: owned}
}

func TestForClientRegulatoryTier(t *testing.T) {
	composer := New(nil, rules.Defaults())
	result := composer.ForClient(paymentsClient(), nil, nil, Options{})
	if len(result.Recommendations) != 2 {
		t.Fatalf("expected the two payments mandates, got %+v", result.Recommendations)
	}
	for _, rec := range result.Recommendations {
		if rec.PriorityTier != TierMustHave || rec.Confidence != 95 || rec.SourceKind != SourceRegulatory {
			t.Fatalf("regulatory rec malformed: %+v", rec)
		}
		if rec.TargetName != "Acme Pay" {
			t.Fatalf("target name missing: %+v", rec)
		}
	}
	// Equal tier and confidence break ties by product name.
	if result.Recommendations[0].ProductName != "AML Screening" || result.Recommendations[1].ProductName != "KYC Verification" {
		t.Fatalf("tie-break order wrong: %+v", result.Recommendations)
	}
	// No adoption data anywhere, so both estimates sit on the fixed floor.
	if result.PotentialUpsellMonthly != 1000 {
		t.Fatalf("expected upsell 2*500, got %v", result.PotentialUpsellMonthly)
	}
}

func TestForClientExcludesOwnedProducts(t *testing.T) {
	composer := New(nil, rules.Defaults())
	result := composer.ForClient(paymentsClient("KYC Verification"), nil, nil, Options{})
	for _, rec := range result.Recommendations {
		if rec.ProductName == "KYC Verification" {
			t.Fatalf("owned product recommended: %+v", rec)
		}
	}
}

func TestForClientDeduplicatesAcrossTiers(t *testing.T) {
	profiles := map[string]adoption.SegmentAdoption{
		"payments": {
			Segment:      "payments",
			TotalClients: 10,
			PerProduct: map[string]adoption.ProductStats{
				"KYC Verification": {AdoptingClientCount: 3, AdoptionRate: 0.3, AvgRevenuePerUser: 120, Importance: adoption.ImportanceCommon},
			},
		},
	}
	composer := New(nil, rules.Defaults())
	result := composer.ForClient(paymentsClient(), profiles, nil, Options{})
	count := 0
	for _, rec := range result.Recommendations {
		if rec.ProductName == "KYC Verification" {
			count++
			if rec.SourceKind != SourceRegulatory {
				t.Fatalf("first tier in precedence should win: %+v", rec)
			}
			if rec.EstimatedMonthlyRevenue != 120 {
				t.Fatalf("segment average should drive the estimate: %+v", rec)
			}
			if rec.EstimatedAnnualRevenue != 120*12 {
				t.Fatalf("annual estimate should be 12x monthly: %+v", rec)
			}
		}
	}
	if count != 1 {
		t.Fatalf("product recommended %d times", count)
	}
}

func TestForClientSimilarTierConfidenceScalesWithNeighbors(t *testing.T) {
	records := []reconcile.ClientRecord{paymentsClient("Payment Gateway")}
	for _, name := range []string{"N1", "N2", "N3", "N4", "N5"} {
		records = append(records, reconcile.ClientRecord{
			CanonicalName: name,
			Segment:       "payments",
			Products: map[string]reconcile.ProductUsage{
				"Payment Gateway": {Usage: 1, Revenue: 10},
				"Fraud Detection": {Usage: 1, Revenue: 30},
			},
		})
	}
	engine := similarity.New(records)
	composer := New(nil, rules.Defaults())
	result := composer.ForClient(records[0], nil, engine, Options{Neighbors: 5})
	var fraud *Recommendation
	for i := range result.Recommendations {
		if result.Recommendations[i].ProductName == "Fraud Detection" {
			fraud = &result.Recommendations[i]
		}
	}
	if fraud == nil {
		t.Fatalf("neighbor product missing: %+v", result.Recommendations)
	}
	if fraud.SourceKind != SourceSimilarClients || fraud.PriorityTier != TierHighValue {
		t.Fatalf("unexpected similar-clients rec: %+v", fraud)
	}
	// Five neighbors would push 50+10*5 past the cap.
	if fraud.Confidence != 90 {
		t.Fatalf("confidence should cap at 90, got %d", fraud.Confidence)
	}
}

func TestForClientCategoryGapTier(t *testing.T) {
	catalog := []feed.Product{
		{Name: "Instant Payouts", Category: "payouts"},
		{Name: "Bulk Payouts", Category: "payouts"},
		{Name: "Standard Payouts", Category: "payouts"},
		{Name: "KYC Verification", Category: "identity"},
	}
	composer := New(catalog, rules.Defaults())
	result := composer.ForClient(paymentsClient(), nil, nil, Options{})
	var gaps []Recommendation
	for _, rec := range result.Recommendations {
		if rec.SourceKind == SourceCategoryGap {
			gaps = append(gaps, rec)
		}
	}
	if len(gaps) != 2 {
		t.Fatalf("expected two picks per uncovered category, got %+v", gaps)
	}
	if gaps[0].ProductName != "Bulk Payouts" || gaps[1].ProductName != "Instant Payouts" {
		t.Fatalf("category picks should be alphabetical: %+v", gaps)
	}
	for _, rec := range gaps {
		if rec.Confidence != 70 || rec.PriorityTier != TierNiceToHave {
			t.Fatalf("category-gap rec malformed: %+v", rec)
		}
	}
	// KYC Verification is already claimed by the regulatory tier; the identity
	// category must not re-add it.
	count := 0
	for _, rec := range result.Recommendations {
		if rec.ProductName == "KYC Verification" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("identity category duplicated a regulatory product")
	}
}

func TestForClientTruncationKeepsStrongestTiers(t *testing.T) {
	catalog := []feed.Product{
		{Name: "Instant Payouts", Category: "payouts"},
		{Name: "Bulk Payouts", Category: "payouts"},
	}
	composer := New(catalog, rules.Defaults())
	result := composer.ForClient(paymentsClient(), nil, nil, Options{Limit: 3})
	if len(result.Recommendations) != 3 {
		t.Fatalf("expected limit 3, got %d", len(result.Recommendations))
	}
	if result.Recommendations[0].PriorityTier != TierMustHave || result.Recommendations[1].PriorityTier != TierMustHave {
		t.Fatalf("must-haves should survive truncation: %+v", result.Recommendations)
	}
}

func TestForProfileUsesSegmentPeers(t *testing.T) {
	records := []reconcile.ClientRecord{
		{CanonicalName: "Big Wallet", Segment: "payments", TotalRevenue: 900, Products: map[string]reconcile.ProductUsage{
			"Fraud Detection": {Usage: 1, Revenue: 900},
		}},
		{CanonicalName: "Small Wallet", Segment: "payments", TotalRevenue: 10, Products: map[string]reconcile.ProductUsage{
			"Instant Payouts": {Usage: 1, Revenue: 10},
		}},
		{CanonicalName: "Shop Stop", Segment: "ecommerce", TotalRevenue: 500, Products: map[string]reconcile.ProductUsage{
			"Payment Gateway": {Usage: 1, Revenue: 500},
		}},
	}
	composer := New(nil, rules.Defaults())
	profile := Profile{Name: "Fresh Pay", Segment: "payments"}
	result := composer.ForProfile(profile, records, nil, Options{})
	if result.Target != "Fresh Pay" {
		t.Fatalf("unexpected target: %q", result.Target)
	}
	names := make(map[string]bool)
	for _, rec := range result.Recommendations {
		names[rec.ProductName] = true
		if rec.SourceKind == SourceCategoryGap {
			t.Fatalf("prospects have no category gaps: %+v", rec)
		}
	}
	if !names["Fraud Detection"] || !names["Instant Payouts"] {
		t.Fatalf("segment peer products missing: %v", names)
	}
	if names["Payment Gateway"] {
		t.Fatalf("cross-segment peer leaked into the prospect list")
	}
}
