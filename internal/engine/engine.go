// File path: internal/engine/engine.go

// Package engine owns the process-wide reconciled state. A snapshot bundles
// the client records with their derived adoption and similarity structures;
// it is built wholesale and published with a single atomic swap, so readers
// never observe a partially rebuilt index. Staleness is checked at read time
// against a freshness window; there is no background timer.
package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/clearline/clientiq/internal/adoption"
	"github.com/clearline/clientiq/internal/common"
	"github.com/clearline/clientiq/internal/feed"
	"github.com/clearline/clientiq/internal/identity"
	"github.com/clearline/clientiq/internal/reconcile"
	"github.com/clearline/clientiq/internal/rules"
	"github.com/clearline/clientiq/internal/similarity"
)

const defaultFreshness = 5 * time.Minute

// Sources supplies the boundary datasets for a rebuild. The roster loader may
// fail; reconciliation then degrades to a billing-only view.
type Sources struct {
	Roster func(ctx context.Context) ([]feed.RosterEntry, error)
	Facts  func(ctx context.Context) ([]feed.UsageFact, []feed.RowError, error)
}

// OverlayReader supplies read-time overlays keyed by canonical id.
type OverlayReader interface {
	Overlay(ctx context.Context, canonicalID string) (reconcile.Overlay, bool, error)
}

// Snapshot is one immutable build of the reconciled world.
type Snapshot struct {
	Records     []reconcile.ClientRecord
	Report      reconcile.Report
	SkippedRows int
	Adoption    map[string]adoption.SegmentAdoption
	Similarity  *similarity.Engine
	BuiltAt     time.Time

	index map[string]int
}

// Find looks a record up by display name or canonical id using the
// normalized key. Overlays are not applied here; see Engine.Lookup.
func (s *Snapshot) Find(name string) (reconcile.ClientRecord, bool) {
	if s == nil {
		return reconcile.ClientRecord{}, false
	}
	idx, ok := s.index[identity.Normalize(name)]
	if !ok {
		return reconcile.ClientRecord{}, false
	}
	return s.Records[idx], true
}

// Engine rebuilds and publishes snapshots.
type Engine struct {
	sources    Sources
	classifier rules.Classifier
	overlays   OverlayReader
	freshness  time.Duration

	current   atomic.Pointer[Snapshot]
	rebuildMu sync.Mutex
}

// Config tunes the engine.
type Config struct {
	// Freshness is the snapshot TTL checked at read time.
	Freshness time.Duration
}

// New constructs an engine. The first snapshot is built lazily on first read.
func New(sources Sources, classifier rules.Classifier, overlays OverlayReader, cfg Config) (*Engine, error) {
	if sources.Facts == nil {
		return nil, errors.New("facts source required")
	}
	freshness := cfg.Freshness
	if freshness <= 0 {
		freshness = defaultFreshness
	}
	return &Engine{
		sources:    sources,
		classifier: classifier,
		overlays:   overlays,
		freshness:  freshness,
	}, nil
}

// Snapshot returns the current snapshot, rebuilding first when the freshness
// window has lapsed. Concurrent readers of a fresh snapshot never block; a
// rebuild is serialized and swapped in atomically.
func (e *Engine) Snapshot(ctx context.Context) (*Snapshot, error) {
	if snap := e.current.Load(); snap != nil && time.Since(snap.BuiltAt) < e.freshness {
		return snap, nil
	}
	e.rebuildMu.Lock()
	defer e.rebuildMu.Unlock()
	if snap := e.current.Load(); snap != nil && time.Since(snap.BuiltAt) < e.freshness {
		return snap, nil
	}
	snap, err := e.build(ctx)
	if err != nil {
		// Serve the stale snapshot rather than failing the read when a
		// rebuild source is down.
		if stale := e.current.Load(); stale != nil {
			common.Logger().Warn("engine: rebuild failed, serving stale snapshot", "error", err)
			return stale, nil
		}
		return nil, err
	}
	e.current.Store(snap)
	return snap, nil
}

// Refresh forces an immediate rebuild regardless of freshness.
func (e *Engine) Refresh(ctx context.Context) (*Snapshot, error) {
	e.rebuildMu.Lock()
	defer e.rebuildMu.Unlock()
	snap, err := e.build(ctx)
	if err != nil {
		return nil, err
	}
	e.current.Store(snap)
	return snap, nil
}

func (e *Engine) build(ctx context.Context) (*Snapshot, error) {
	logger := common.Logger()
	start := time.Now()

	facts, rowErrs, err := e.sources.Facts(ctx)
	if err != nil {
		return nil, err
	}
	var roster []feed.RosterEntry
	if e.sources.Roster != nil {
		roster, err = e.sources.Roster(ctx)
		if err != nil {
			// Roster loss degrades the reconciliation, it does not abort it.
			logger.Warn("engine: roster load failed, reconciling billing only", "error", err)
			roster = nil
		}
	}

	records, report := reconcile.Reconcile(roster, facts, e.classifier)
	snap := &Snapshot{
		Records:     records,
		Report:      report,
		SkippedRows: len(rowErrs),
		Adoption:    adoption.Profile(records),
		Similarity:  similarity.New(records),
		BuiltAt:     time.Now(),
		index:       make(map[string]int, 2*len(records)),
	}
	for i, rec := range records {
		if key := identity.Normalize(rec.CanonicalName); key != "" {
			if _, exists := snap.index[key]; !exists {
				snap.index[key] = i
			}
		}
		if key := identity.Normalize(rec.CanonicalID); key != "" {
			if _, exists := snap.index[key]; !exists {
				snap.index[key] = i
			}
		}
	}
	logger.Info("engine: snapshot rebuilt", "records", len(records), "segments", len(snap.Adoption), "took", time.Since(start))
	return snap, nil
}

// Lookup finds a client by name or id and applies its overlay, if any.
// Overlays are read at lookup time and never mutate the snapshot.
func (e *Engine) Lookup(ctx context.Context, name string) (reconcile.ClientRecord, bool, error) {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return reconcile.ClientRecord{}, false, err
	}
	rec, ok := snap.Find(name)
	if !ok {
		return reconcile.ClientRecord{}, false, nil
	}
	if e.overlays != nil && rec.CanonicalID != "" {
		overlay, found, err := e.overlays.Overlay(ctx, rec.CanonicalID)
		if err != nil {
			common.Logger().Warn("engine: overlay read failed", "canonical_id", rec.CanonicalID, "error", err)
		} else if found {
			rec = overlay.Apply(rec)
		}
	}
	return rec, true, nil
}
