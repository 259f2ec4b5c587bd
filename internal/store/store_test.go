// File path: internal/store/store_test.go
package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/clearline/clientiq/internal/reconcile"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatalf("empty path must be rejected")
	}
}

func TestOverlayRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, found, err := s.Overlay(ctx, "AC1"); err != nil || found {
		t.Fatalf("expected no overlay yet: found=%v err=%v", found, err)
	}

	overlay := reconcile.Overlay{CanonicalID: "AC1", Industry: "banking", Category: "enterprise", PriceFactor: 1.5}
	if err := s.UpsertOverlay(ctx, overlay); err != nil {
		t.Fatalf("UpsertOverlay: %v", err)
	}
	got, found, err := s.Overlay(ctx, "AC1")
	if err != nil || !found {
		t.Fatalf("Overlay: found=%v err=%v", found, err)
	}
	if got != overlay {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, overlay)
	}

	// Upsert replaces in place.
	overlay.Industry = "payments"
	if err := s.UpsertOverlay(ctx, overlay); err != nil {
		t.Fatalf("UpsertOverlay update: %v", err)
	}
	got, _, _ = s.Overlay(ctx, "AC1")
	if got.Industry != "payments" {
		t.Fatalf("update lost: %+v", got)
	}

	all, err := s.Overlays(ctx)
	if err != nil {
		t.Fatalf("Overlays: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected one overlay row, got %d", len(all))
	}
}

func TestUpsertOverlayRequiresCanonicalID(t *testing.T) {
	s := openTestStore(t)
	if err := s.UpsertOverlay(context.Background(), reconcile.Overlay{Industry: "banking"}); err == nil {
		t.Fatalf("missing canonical id must be rejected")
	}
}

func TestQueryAuditTotals(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, call := range []struct {
		source string
		cost   float64
	}{
		{"database", 0},
		{"search", 0.005},
		{"search", 0.005},
		{"ai", 0.01},
	} {
		if err := s.RecordQuery(ctx, "sess-1", "Acme Pay", call.source, call.cost, 12); err != nil {
			t.Fatalf("RecordQuery: %v", err)
		}
	}
	if err := s.RecordQuery(ctx, "sess-2", "Other", "rules", 0, 1); err != nil {
		t.Fatalf("RecordQuery: %v", err)
	}

	totals, err := s.SessionTotals(ctx, "sess-1")
	if err != nil {
		t.Fatalf("SessionTotals: %v", err)
	}
	if len(totals) != 3 {
		t.Fatalf("expected 3 source rollups, got %+v", totals)
	}
	// Ordered by source name.
	if totals[0].Source != "ai" || totals[1].Source != "database" || totals[2].Source != "search" {
		t.Fatalf("rollup order wrong: %+v", totals)
	}
	if totals[2].Queries != 2 || totals[2].Cost != 0.01 {
		t.Fatalf("search rollup wrong: %+v", totals[2])
	}
}
