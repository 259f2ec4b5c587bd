// File path: internal/feed/roster_test.go
package feed

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRosterPreservesOrderAndDropsBlankNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.json")
	content := `[
                {"display_name": "Acme Pay", "canonical_id": "AC1"},
                {"display_name": "", "canonical_id": "AC2"},
                {"display_name": "Borrow Right", "canonical_id": "AC3", "external_ids": ["BR-LEGACY"]}
        ]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write roster: %v", err)
	}
	entries, err := LoadRoster(path)
	if err != nil {
		t.Fatalf("LoadRoster: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected the blank row dropped, got %d entries", len(entries))
	}
	if entries[0].DisplayName != "Acme Pay" || entries[1].DisplayName != "Borrow Right" {
		t.Fatalf("order not preserved: %+v", entries)
	}
	if len(entries[1].ExternalIDs) != 1 || entries[1].ExternalIDs[0] != "BR-LEGACY" {
		t.Fatalf("external ids lost: %+v", entries[1])
	}
}

func TestLoadRosterMissingFileIsSourceUnavailable(t *testing.T) {
	_, err := LoadRoster(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	content := `[
                {"name": "KYC Verification", "category": "identity", "billing_unit": "verification"},
                {"name": "", "category": "identity", "billing_unit": "call"}
        ]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	products, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if len(products) != 1 || products[0].Name != "KYC Verification" {
		t.Fatalf("unexpected catalog: %+v", products)
	}
}
