// File path: internal/enrich/search.go
package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/clearline/clientiq/internal/common"
)

// Searcher is the contract the decision router holds on the search tier.
type Searcher interface {
	Configured() bool
	DailyLimit() int
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// SearchResult is one hit returned by the external search provider.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// SearchClient talks to the external search provider over HTTP. When no
// endpoint or key is configured it stays in a degraded mode where every query
// yields an empty-but-valid result set.
type SearchClient struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	dailyLimit int
}

// NewSearchClient constructs the client from configuration.
func NewSearchClient(cfg SearchConfig) *SearchClient {
	logger := common.Logger()
	client := &SearchClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		endpoint:   strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		dailyLimit: cfg.DailyLimit,
	}
	if client.Configured() {
		logger.Info("enrich: search tier configured", "endpoint", client.endpoint, "daily_limit", client.dailyLimit)
	} else {
		logger.Warn("enrich: search tier not configured; queries return empty results")
	}
	return client
}

// Configured reports whether credentials are present.
func (c *SearchClient) Configured() bool {
	return c != nil && c.endpoint != "" && c.apiKey != ""
}

// DailyLimit returns the configured call budget for one calendar day.
func (c *SearchClient) DailyLimit() int {
	if c == nil {
		return 0
	}
	return c.dailyLimit
}

// Search runs one query against the provider. Unconfigured clients return an
// empty result set and no error.
func (c *SearchClient) Search(ctx context.Context, query string) ([]SearchResult, error) {
	if !c.Configured() {
		return []SearchResult{}, nil
	}
	payload := map[string]interface{}{"query": query, "limit": 5}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/search", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("search provider status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var decoded struct {
		Results []SearchResult `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if decoded.Results == nil {
		return []SearchResult{}, nil
	}
	return decoded.Results, nil
}

var _ Searcher = (*SearchClient)(nil)

// ErrSearchUnavailable is returned by router-level wrappers when the tier
// cannot serve a request and a fallback is required.
var ErrSearchUnavailable = errors.New("search tier unavailable")
