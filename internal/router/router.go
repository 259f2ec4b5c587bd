// File path: internal/router/router.go

// Package router picks the cheapest sufficient data source for each incoming
// query. The waterfall is strict: known clients are answered from the local
// database tier unless the caller explicitly asked for AI or real-time
// enrichment; the two costly tiers sit behind TTL caches and a shared daily
// quota, and every failure falls closed onto the rules tier.
package router

import (
	"context"
	"sync"
	"time"

	"github.com/clearline/clientiq/internal/common"
	"github.com/clearline/clientiq/internal/engine"
	"github.com/clearline/clientiq/internal/enrich"
	"github.com/clearline/clientiq/internal/identity"
	"github.com/clearline/clientiq/internal/recommend"
	"github.com/clearline/clientiq/internal/reconcile"
	"github.com/clearline/clientiq/internal/rules"
)

// Data sources a query can terminate on.
const (
	SourceDatabase = "database"
	SourceRules    = "rules"
	SourceSearch   = "search"
	SourceAI       = "ai"
)

// Capabilities a caller can request.
const (
	CapabilityLookup         = "lookup"
	CapabilityRecommendation = "recommendation"
	CapabilityPitch          = "pitch"
)

// Outcome statuses.
const (
	StatusOK            = "ok"
	StatusQuotaExceeded = "quota-exceeded"
	StatusFallback      = "fallback"
)

const (
	confidenceDatabase = 0.95
	confidenceAI       = 0.85
	confidenceSearch   = 0.7
	confidenceRules    = 0.6

	costSearchCall = 0.005
	costAICall     = 0.01

	defaultCacheTTL        = 24 * time.Hour
	defaultExternalTimeout = 10 * time.Second
	defaultBatchWorkers    = 4
)

// Pitcher is the AI-tier contract the router depends on.
type Pitcher interface {
	Pitch(ctx context.Context, target string, recs []recommend.Recommendation) (enrich.Pitch, bool)
}

// Auditor persists routed calls. Optional; audit failures are logged and
// never fail the query.
type Auditor interface {
	RecordQuery(ctx context.Context, sessionID, target, source string, cost float64, tookMillis int64) error
}

// Request describes one routed query.
type Request struct {
	Target     string `json:"target"`
	Capability string `json:"capability"`
	// Realtime requests external search enrichment for unknown targets.
	Realtime bool `json:"realtime"`
	// AI requests generative output regardless of local coverage.
	AI    bool `json:"ai"`
	Limit int  `json:"limit,omitempty"`
	// Profile carries prospect attributes when the target is not a client.
	Profile *recommend.Profile `json:"profile,omitempty"`
}

// Outcome is the terminal result of one routed query.
type Outcome struct {
	Target     string      `json:"target"`
	SourceUsed string      `json:"source_used"`
	Confidence float64     `json:"confidence"`
	Status     string      `json:"status"`
	Cached     bool        `json:"cached"`
	Payload    interface{} `json:"payload"`
	TookMillis int64       `json:"took_millis"`
	SessionID  string      `json:"session_id"`
}

// RulesAnswer is the rules-tier payload.
type RulesAnswer struct {
	Segment         string                       `json:"segment"`
	Recommendations []rules.CannedRecommendation `json:"recommendations"`
}

// Config tunes the router.
type Config struct {
	CacheTTL        time.Duration
	ExternalTimeout time.Duration
	BatchWorkers    int
	// SearchDailyLimit caps search-tier calls per calendar day; zero falls
	// back to the search client's configured budget.
	SearchDailyLimit int
	// AIDailyLimit caps AI-tier calls per calendar day.
	AIDailyLimit int
}

// Router routes queries down the cost waterfall.
type Router struct {
	engine     *engine.Engine
	composer   *recommend.Composer
	tables     *rules.Tables
	classifier rules.Classifier
	search     enrich.Searcher
	analyst    Pitcher
	auditor    Auditor

	searchCache *ttlCache
	aiCache     *ttlCache
	searchQuota *QuotaCounter
	aiQuota     *QuotaCounter

	timeout time.Duration
	workers int
}

// New constructs a router. Search and analyst may be nil; their tiers then
// degrade per the fallback rules.
func New(eng *engine.Engine, composer *recommend.Composer, tables *rules.Tables, classifier rules.Classifier, search enrich.Searcher, analyst Pitcher, auditor Auditor, cfg Config) *Router {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	timeout := cfg.ExternalTimeout
	if timeout <= 0 {
		timeout = defaultExternalTimeout
	}
	workers := cfg.BatchWorkers
	if workers <= 0 {
		workers = defaultBatchWorkers
	}
	searchLimit := cfg.SearchDailyLimit
	if searchLimit <= 0 && search != nil {
		searchLimit = search.DailyLimit()
	}
	aiLimit := cfg.AIDailyLimit
	if aiLimit <= 0 {
		aiLimit = searchLimit
	}
	return &Router{
		engine:      eng,
		composer:    composer,
		tables:      tables,
		classifier:  classifier,
		search:      search,
		analyst:     analyst,
		auditor:     auditor,
		searchCache: newTTLCache(ttl),
		aiCache:     newTTLCache(ttl),
		searchQuota: NewQuotaCounter(searchLimit),
		aiQuota:     NewQuotaCounter(aiLimit),
		timeout:     timeout,
		workers:     workers,
	}
}

// Route answers one query. It never returns an error for expected failure
// modes: degraded tiers surface as reduced confidence and a non-ok status.
func (r *Router) Route(ctx context.Context, session *Session, req Request) Outcome {
	start := time.Now()
	if session == nil {
		session = NewSession()
	}
	wantsAI := req.AI || req.Capability == CapabilityPitch

	rec, found, err := r.engine.Lookup(ctx, req.Target)
	if err != nil {
		common.Logger().Warn("router: snapshot unavailable, using rules tier", "target", req.Target, "error", err)
		return r.finish(ctx, session, req, start, r.rulesOutcome(req, StatusFallback))
	}

	var outcome Outcome
	switch {
	case found && !wantsAI && !req.Realtime:
		outcome = r.databaseOutcome(ctx, req, rec)
	case wantsAI:
		outcome = r.aiOutcome(ctx, req, rec, found)
	case !found && req.Realtime:
		outcome = r.searchOutcome(ctx, req)
	default:
		outcome = r.rulesOutcome(req, StatusOK)
	}
	return r.finish(ctx, session, req, start, outcome)
}

func (r *Router) finish(ctx context.Context, session *Session, req Request, start time.Time, outcome Outcome) Outcome {
	outcome.Target = req.Target
	outcome.TookMillis = time.Since(start).Milliseconds()
	outcome.SessionID = session.ID
	cost := outcome.callCost()
	session.Tracker.Record(outcome.SourceUsed, cost)
	if r.auditor != nil {
		if err := r.auditor.RecordQuery(ctx, session.ID, req.Target, outcome.SourceUsed, cost, outcome.TookMillis); err != nil {
			common.Logger().Warn("router: audit write failed", "error", err)
		}
	}
	return outcome
}

// callCost is the per-call cost estimate for the tier that actually did
// work. Cached answers and degraded fallbacks cost nothing.
func (o Outcome) callCost() float64 {
	if o.Cached || o.Status != StatusOK {
		return 0
	}
	switch o.SourceUsed {
	case SourceSearch:
		return costSearchCall
	case SourceAI:
		return costAICall
	default:
		return 0
	}
}

func (r *Router) databaseOutcome(ctx context.Context, req Request, rec reconcile.ClientRecord) Outcome {
	outcome := Outcome{SourceUsed: SourceDatabase, Confidence: confidenceDatabase, Status: StatusOK}
	switch req.Capability {
	case CapabilityRecommendation:
		snap, err := r.engine.Snapshot(ctx)
		if err != nil {
			return r.rulesOutcome(req, StatusFallback)
		}
		outcome.Payload = r.composer.ForClient(rec, snap.Adoption, snap.Similarity, recommend.Options{Limit: req.Limit})
	default:
		outcome.Payload = rec
	}
	return outcome
}

func (r *Router) aiOutcome(ctx context.Context, req Request, rec reconcile.ClientRecord, found bool) Outcome {
	key := cacheKey(req.Target)
	if cached, ok := r.aiCache.get(key); ok {
		return Outcome{SourceUsed: SourceAI, Confidence: confidenceAI, Status: StatusOK, Cached: true, Payload: cached}
	}
	if !r.aiQuota.Allow() {
		common.Logger().Warn("router: ai quota exhausted", "target", req.Target)
		outcome := r.rulesOutcome(req, StatusQuotaExceeded)
		return outcome
	}
	recs := r.recommendationsFor(ctx, req, rec, found)
	if r.analyst == nil {
		return r.rulesOutcome(req, StatusFallback)
	}
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	pitch, fromModel := r.analyst.Pitch(callCtx, req.Target, recs)
	if !fromModel {
		outcome := r.rulesOutcome(req, StatusFallback)
		outcome.Payload = pitch
		return outcome
	}
	r.aiCache.set(key, pitch)
	return Outcome{SourceUsed: SourceAI, Confidence: confidenceAI, Status: StatusOK, Payload: pitch}
}

func (r *Router) searchOutcome(ctx context.Context, req Request) Outcome {
	if r.search == nil || !r.search.Configured() {
		// Tier unavailable is a configuration state, not an error: serve an
		// empty-but-valid result set.
		return Outcome{SourceUsed: SourceSearch, Confidence: confidenceSearch, Status: StatusFallback, Payload: []enrich.SearchResult{}}
	}
	key := cacheKey(req.Target)
	if cached, ok := r.searchCache.get(key); ok {
		return Outcome{SourceUsed: SourceSearch, Confidence: confidenceSearch, Status: StatusOK, Cached: true, Payload: cached}
	}
	if !r.searchQuota.Allow() {
		common.Logger().Warn("router: search quota exhausted", "target", req.Target)
		return r.rulesOutcome(req, StatusQuotaExceeded)
	}
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	results, err := r.search.Search(callCtx, req.Target)
	if err != nil {
		common.Logger().Warn("router: search tier failed, falling back to rules", "target", req.Target, "error", err)
		return r.rulesOutcome(req, StatusFallback)
	}
	r.searchCache.set(key, results)
	return Outcome{SourceUsed: SourceSearch, Confidence: confidenceSearch, Status: StatusOK, Payload: results}
}

func (r *Router) rulesOutcome(req Request, status string) Outcome {
	segment := ""
	if req.Profile != nil {
		segment = req.Profile.Segment
	}
	if segment == "" && r.classifier != nil {
		segment = r.classifier.Segment(req.Target)
	}
	answer := RulesAnswer{Segment: segment}
	if r.tables != nil {
		answer.Recommendations = r.tables.CannedFor(segment)
	}
	return Outcome{SourceUsed: SourceRules, Confidence: confidenceRules, Status: status, Payload: answer}
}

// recommendationsFor assembles the recommendation list the AI tier pitches
// from: composed for known clients, profile-based for prospects, canned
// otherwise.
func (r *Router) recommendationsFor(ctx context.Context, req Request, rec reconcile.ClientRecord, found bool) []recommend.Recommendation {
	snap, err := r.engine.Snapshot(ctx)
	if err != nil {
		return nil
	}
	if found {
		return r.composer.ForClient(rec, snap.Adoption, snap.Similarity, recommend.Options{Limit: req.Limit}).Recommendations
	}
	profile := recommend.Profile{Name: req.Target}
	if req.Profile != nil {
		profile = *req.Profile
		if profile.Name == "" {
			profile.Name = req.Target
		}
	}
	if profile.Segment == "" && r.classifier != nil {
		profile.Segment = r.classifier.Segment(req.Target)
	}
	return r.composer.ForProfile(profile, snap.Records, snap.Adoption, recommend.Options{Limit: req.Limit}).Recommendations
}

// ScoreProspects routes a recommendation query for every profile using a
// bounded worker pool, preserving input order in the result slice.
func (r *Router) ScoreProspects(ctx context.Context, session *Session, profiles []recommend.Profile) []Outcome {
	if session == nil {
		session = NewSession()
	}
	outcomes := make([]Outcome, len(profiles))
	sem := make(chan struct{}, r.workers)
	var wg sync.WaitGroup
	for i, profile := range profiles {
		wg.Add(1)
		go func(i int, profile recommend.Profile) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes[i] = r.Route(ctx, session, Request{
				Target:     profile.Name,
				Capability: CapabilityRecommendation,
				Profile:    &profile,
			})
		}(i, profile)
	}
	wg.Wait()
	return outcomes
}

func cacheKey(target string) string {
	return identity.Normalize(target)
}
