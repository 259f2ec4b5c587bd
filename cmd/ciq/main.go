// File path: cmd/ciq/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/clearline/clientiq/internal/api"
	"github.com/clearline/clientiq/internal/common"
	"github.com/clearline/clientiq/internal/engine"
	"github.com/clearline/clientiq/internal/enrich"
	"github.com/clearline/clientiq/internal/feed"
	"github.com/clearline/clientiq/internal/llm"
	"github.com/clearline/clientiq/internal/recommend"
	"github.com/clearline/clientiq/internal/router"
	"github.com/clearline/clientiq/internal/rules"
	"github.com/clearline/clientiq/internal/store"
)

func main() {
	logger := common.Logger()

	if err := godotenv.Load(); err != nil {
		logger.Warn("ciq: .env file not loaded", "error", err)
	} else {
		logger.Info("ciq: environment loaded from .env")
	}

	addr := flag.String("addr", ":8082", "listen address")
	rosterPath := flag.String("roster", filepath.Join("data", "roster.json"), "path to the master roster")
	billingPath := flag.String("billing", filepath.Join("data", "billing.csv"), "path to the billing export")
	catalogPath := flag.String("catalog", filepath.Join("data", "catalog.json"), "path to the product catalog")
	dbPath := flag.String("db", filepath.Join("data", "clientiq.db"), "path to the SQLite database")
	rulesPath := flag.String("rules", "", "optional YAML rule tables override")
	ratesPath := flag.String("rates", "", "optional YAML currency rate table")
	freshness := flag.String("freshness", "", "snapshot freshness window (e.g. 5m)")
	flag.Parse()

	logger.Info("ciq: startup initiated", "addr", *addr, "roster", *rosterPath, "billing", *billingPath)

	tables, err := rules.Load(*rulesPath)
	if err != nil {
		logger.Error("ciq: rule tables load failed", "error", err)
		fmt.Println("rule tables error:", err)
		os.Exit(1)
	}
	rates, err := feed.LoadRates(*ratesPath)
	if err != nil {
		logger.Error("ciq: rate table load failed", "error", err)
		fmt.Println("rate table error:", err)
		os.Exit(1)
	}
	catalog, err := feed.LoadCatalog(*catalogPath)
	if err != nil {
		logger.Warn("ciq: catalog unavailable, recommendations lose category coverage", "error", err)
	}

	st, err := store.Open(*dbPath)
	if err != nil {
		logger.Error("ciq: store open failed", "error", err)
		fmt.Println("store error:", err)
		os.Exit(1)
	}
	defer st.Close()

	classifier := rules.NewKeywordClassifier(tables)
	engCfg := engine.Config{}
	if trimmed := strings.TrimSpace(*freshness); trimmed != "" {
		dur, err := time.ParseDuration(trimmed)
		if err != nil {
			logger.Error("ciq: invalid freshness window", "value", trimmed, "error", err)
			fmt.Println("freshness error:", err)
			os.Exit(1)
		}
		engCfg.Freshness = dur
	}
	sources := engine.Sources{
		Roster: func(ctx context.Context) ([]feed.RosterEntry, error) {
			return feed.LoadRoster(*rosterPath)
		},
		Facts: func(ctx context.Context) ([]feed.UsageFact, []feed.RowError, error) {
			return feed.ReadFacts(*billingPath, rates)
		},
	}
	eng, err := engine.New(sources, classifier, st, engCfg)
	if err != nil {
		logger.Error("ciq: engine initialization failed", "error", err)
		fmt.Println("engine error:", err)
		os.Exit(1)
	}

	provider := llm.NewProvider()
	logger.Info("ciq: llm provider ready", "provider", provider.Name())

	searchCfg, err := enrich.LoadSearchConfig()
	if err != nil {
		logger.Error("ciq: search config load failed", "error", err)
		fmt.Println("search config error:", err)
		os.Exit(1)
	}
	search := enrich.NewSearchClient(searchCfg)
	analyst := enrich.NewAnalyst(provider)

	composer := recommend.New(catalog, tables)
	decision := router.New(eng, composer, tables, classifier, search, analyst, st, router.Config{})

	server, err := api.NewServer(eng, composer, decision, st)
	if err != nil {
		logger.Error("ciq: server construction failed", "error", err)
		fmt.Println("server error:", err)
		os.Exit(1)
	}

	logger.Info("ciq: server listening", "addr", *addr, "health", "/healthz")
	fmt.Printf("Serving on %s\n", *addr)
	if err := http.ListenAndServe(*addr, server); err != nil {
		logger.Error("ciq: server stopped", "error", err)
		fmt.Println("server stopped:", err)
	}
}
