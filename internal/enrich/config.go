// File path: internal/enrich/config.go

// Package enrich holds the two costly data tiers: the external search client
// and the AI analyst. Both are optional; missing credentials mean reduced
// coverage, never an error that aborts the decision router.
package enrich

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// SearchConfig controls the external search tier.
type SearchConfig struct {
	Endpoint string `json:"endpoint"`
	APIKey   string `json:"api_key"`

	Timeout       time.Duration `json:"-"`
	TimeoutString string        `json:"timeout"`

	DailyLimit int `json:"daily_limit"`
}

func (c SearchConfig) Merge(override SearchConfig) SearchConfig {
	result := c
	if strings.TrimSpace(override.Endpoint) != "" {
		result.Endpoint = strings.TrimSpace(override.Endpoint)
	}
	if strings.TrimSpace(override.APIKey) != "" {
		result.APIKey = override.APIKey
	}
	if override.Timeout > 0 {
		result.Timeout = override.Timeout
	}
	if strings.TrimSpace(override.TimeoutString) != "" {
		result.TimeoutString = strings.TrimSpace(override.TimeoutString)
	}
	if override.DailyLimit > 0 {
		result.DailyLimit = override.DailyLimit
	}
	return result
}

// LoadSearchConfig merges an optional JSON config file with environment
// overrides and applies defaults.
func LoadSearchConfig() (SearchConfig, error) {
	cfg := SearchConfig{}
	if path := strings.TrimSpace(os.Getenv("SEARCH_CONFIG_FILE")); path != "" {
		fileCfg, err := loadSearchConfigFile(path)
		if err != nil {
			return SearchConfig{}, err
		}
		cfg = cfg.Merge(fileCfg)
	}
	envCfg, err := loadSearchConfigEnv()
	if err != nil {
		return SearchConfig{}, err
	}
	cfg = cfg.Merge(envCfg)
	cfg.applyDefaults()
	return cfg, nil
}

func (c *SearchConfig) applyDefaults() {
	if c.Timeout <= 0 {
		if c.TimeoutString != "" {
			if parsed, err := time.ParseDuration(c.TimeoutString); err == nil {
				c.Timeout = parsed
			}
		}
		if c.Timeout <= 0 {
			c.Timeout = 8 * time.Second
		}
	}
	if c.DailyLimit <= 0 {
		c.DailyLimit = 100
	}
}

func loadSearchConfigFile(path string) (SearchConfig, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return SearchConfig{}, fmt.Errorf("read search config: %w", err)
	}
	var cfg SearchConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return SearchConfig{}, fmt.Errorf("parse search config: %w", err)
	}
	return cfg, nil
}

func loadSearchConfigEnv() (SearchConfig, error) {
	cfg := SearchConfig{}
	if endpoint := strings.TrimSpace(os.Getenv("SEARCH_ENDPOINT")); endpoint != "" {
		cfg.Endpoint = endpoint
	}
	if apiKey := strings.TrimSpace(os.Getenv("SEARCH_API_KEY")); apiKey != "" {
		cfg.APIKey = apiKey
	}
	if timeout := strings.TrimSpace(os.Getenv("SEARCH_TIMEOUT")); timeout != "" {
		cfg.TimeoutString = timeout
		if parsed, err := time.ParseDuration(timeout); err == nil {
			cfg.Timeout = parsed
		}
	}
	if limit := strings.TrimSpace(os.Getenv("SEARCH_DAILY_LIMIT")); limit != "" {
		value, err := strconv.Atoi(limit)
		if err != nil {
			return SearchConfig{}, fmt.Errorf("parse SEARCH_DAILY_LIMIT: %w", err)
		}
		if value > 0 {
			cfg.DailyLimit = value
		}
	}
	return cfg, nil
}
