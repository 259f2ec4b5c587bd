// File path: internal/feed/roster.go
package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/clearline/clientiq/internal/common"
)

// ErrSourceUnavailable marks a boundary dataset that is missing or
// unreadable. Callers degrade rather than fail when they see it.
var ErrSourceUnavailable = errors.New("source unavailable")

// LoadRoster reads the master roster from a JSON file. Order is preserved:
// the roster's ordering is canonical for downstream reconciliation. A missing
// or unreadable file yields ErrSourceUnavailable so the caller can degrade to
// a billing-only view.
func LoadRoster(path string) ([]RosterEntry, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		common.Logger().Warn("feed: roster source unavailable", "path", path, "error", err)
		return nil, fmt.Errorf("%w: roster: %v", ErrSourceUnavailable, err)
	}
	var entries []RosterEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		common.Logger().Warn("feed: roster source unreadable", "path", path, "error", err)
		return nil, fmt.Errorf("%w: roster: %v", ErrSourceUnavailable, err)
	}
	valid := entries[:0]
	dropped := 0
	for _, entry := range entries {
		if strings.TrimSpace(entry.DisplayName) == "" {
			dropped++
			continue
		}
		valid = append(valid, entry)
	}
	if dropped > 0 {
		common.Logger().Warn("feed: dropped malformed roster rows", "dropped", dropped)
	}
	return valid, nil
}

// LoadCatalog reads the product catalog from a JSON file.
func LoadCatalog(path string) ([]Product, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		common.Logger().Warn("feed: catalog source unavailable", "path", path, "error", err)
		return nil, fmt.Errorf("%w: catalog: %v", ErrSourceUnavailable, err)
	}
	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("%w: catalog: %v", ErrSourceUnavailable, err)
	}
	valid := products[:0]
	for _, product := range products {
		if strings.TrimSpace(product.Name) == "" {
			continue
		}
		valid = append(valid, product)
	}
	return valid, nil
}
