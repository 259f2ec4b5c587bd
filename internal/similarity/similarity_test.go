// File path: internal/similarity/similarity_test.go
package similarity

import (
	"math"
	"testing"

	"github.com/clearline/clientiq/internal/reconcile"
)

func record(name, segment string, products ...string) reconcile.ClientRecord {
	set := make(map[string]reconcile.ProductUsage, len(products))
	for _, p := range products {
		set[p] = reconcile.ProductUsage{Usage: 1, Revenue: 1}
	}
	return reconcile.ClientRecord{CanonicalName: name, Segment: segment, Products: set}
}

func almost(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSimilarityIsRawJaccard(t *testing.T) {
	eng := New([]reconcile.ClientRecord{
		record("Acme Pay", "payments", "KYC", "AML"),
		record("MegaMart", "ecommerce", "KYC", "AML", "Gateway", "Payouts"),
	})
	// Shared 2, union 4.
	if got := eng.Similarity("Acme Pay", "MegaMart"); !almost(got, 0.5) {
		t.Fatalf("expected raw Jaccard 0.5, got %v", got)
	}
	if got := eng.Similarity("MegaMart", "Acme Pay"); !almost(got, 0.5) {
		t.Fatalf("raw score should be symmetric, got %v", got)
	}
}

func TestBoostedSimilarityAppliesSameSegmentBoost(t *testing.T) {
	eng := New([]reconcile.ClientRecord{
		record("Acme Pay", "payments", "KYC", "AML"),
		record("Zippy Wallet", "payments", "KYC", "AML", "Gateway", "Payouts"),
		record("MegaMart", "ecommerce", "KYC", "AML", "Gateway", "Payouts"),
	})
	if got := eng.BoostedSimilarity("Acme Pay", "MegaMart"); !almost(got, 0.5) {
		t.Fatalf("cross-segment pair should stay unboosted, got %v", got)
	}
	if got := eng.BoostedSimilarity("Acme Pay", "Zippy Wallet"); !almost(got, 0.65) {
		t.Fatalf("same-segment pair should score 0.5*1.3, got %v", got)
	}
}

func TestBoostedSimilarityClampsToOne(t *testing.T) {
	eng := New([]reconcile.ClientRecord{
		record("Acme Pay", "payments", "KYC", "AML"),
		record("Acme Clone", "payments", "KYC", "AML"),
	})
	if got := eng.BoostedSimilarity("Acme Pay", "Acme Clone"); !almost(got, 1.0) {
		t.Fatalf("identical same-segment sets clamp at 1.0, got %v", got)
	}
}

func TestBoostedSimilarityIsSymmetric(t *testing.T) {
	eng := New([]reconcile.ClientRecord{
		record("Acme Pay", "payments", "KYC", "AML", "Fraud"),
		record("Zippy Wallet", "payments", "KYC", "Payouts"),
	})
	ab := eng.BoostedSimilarity("Acme Pay", "Zippy Wallet")
	ba := eng.BoostedSimilarity("Zippy Wallet", "Acme Pay")
	if !almost(ab, ba) {
		t.Fatalf("boosted score must be symmetric: %v vs %v", ab, ba)
	}
}

func TestFindSimilarExcludesSelfAndZeroPairs(t *testing.T) {
	eng := New([]reconcile.ClientRecord{
		record("Acme Pay", "payments", "KYC", "AML"),
		record("Zippy Wallet", "payments", "KYC"),
		record("Lone Logistics", "logistics", "Routing"),
		record("Empty Corp", "payments"),
	})
	edges := eng.FindSimilar("Acme Pay", 10)
	if len(edges) != 1 {
		t.Fatalf("expected one neighbor, got %+v", edges)
	}
	if edges[0].ClientB != "Zippy Wallet" {
		t.Fatalf("unexpected neighbor: %+v", edges[0])
	}
	for _, edge := range edges {
		if edge.ClientB == "Acme Pay" {
			t.Fatalf("target leaked into its own neighbor list")
		}
		if edge.Score <= 0 {
			t.Fatalf("zero-similarity pair leaked: %+v", edge)
		}
	}
}

func TestFindSimilarOrderingAndTruncation(t *testing.T) {
	eng := New([]reconcile.ClientRecord{
		record("Target", "payments", "KYC", "AML", "Fraud", "Payouts"),
		record("Close Twin", "payments", "KYC", "AML", "Fraud"),
		record("Partial", "payments", "KYC", "AML"),
		record("Distant", "ecommerce", "KYC"),
	})
	edges := eng.FindSimilar("Target", 2)
	if len(edges) != 2 {
		t.Fatalf("expected truncation to k=2, got %d", len(edges))
	}
	if edges[0].ClientB != "Close Twin" || edges[1].ClientB != "Partial" {
		t.Fatalf("unexpected ranking: %+v", edges)
	}
	if edges[0].Score < edges[1].Score {
		t.Fatalf("edges must be sorted by score descending: %+v", edges)
	}
}

func TestEdgeListsUniqueToB(t *testing.T) {
	eng := New([]reconcile.ClientRecord{
		record("Acme Pay", "payments", "KYC"),
		record("Zippy Wallet", "payments", "KYC", "Payouts", "AML"),
	})
	edges := eng.FindSimilar("Acme Pay", 1)
	if len(edges) != 1 {
		t.Fatalf("expected one edge, got %d", len(edges))
	}
	unique := edges[0].UniqueToB
	if len(unique) != 2 || unique[0] != "AML" || unique[1] != "Payouts" {
		t.Fatalf("UniqueToB should be sorted and exclude shared products: %v", unique)
	}
	if len(edges[0].SharedProducts) != 1 || edges[0].SharedProducts[0] != "KYC" {
		t.Fatalf("unexpected shared set: %v", edges[0].SharedProducts)
	}
}

func TestFindSimilarUnknownTarget(t *testing.T) {
	eng := New([]reconcile.ClientRecord{record("Acme Pay", "payments", "KYC")})
	if edges := eng.FindSimilar("Nobody", 5); edges != nil {
		t.Fatalf("unknown target should yield nil, got %+v", edges)
	}
}
