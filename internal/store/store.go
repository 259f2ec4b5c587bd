// File path: internal/store/store.go

// Package store persists the read-time overlays and the routed-query audit
// trail in a SQLite database accessed through sqlx.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/clearline/clientiq/internal/reconcile"
)

// Store wraps a pooled sqlx.DB connection to the SQLite database.
type Store struct {
	db *sqlx.DB
}

// Open constructs a Store backed by the SQLite database at the provided path.
// The schema is migrated on first use.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve sqlite path: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", abs)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("store not initialised")
	}
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	for i, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("execute schema statement %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}

var schemaStatements = []string{
	`PRAGMA journal_mode = WAL;`,
	`CREATE TABLE IF NOT EXISTS overlays (
                canonical_id TEXT PRIMARY KEY,
                industry TEXT,
                category TEXT,
                price_factor REAL NOT NULL DEFAULT 0,
                updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE TABLE IF NOT EXISTS query_audit (
                id INTEGER PRIMARY KEY AUTOINCREMENT,
                session_id TEXT NOT NULL,
                target TEXT NOT NULL,
                source TEXT NOT NULL,
                cost REAL NOT NULL DEFAULT 0,
                took_ms INTEGER NOT NULL DEFAULT 0,
                created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE INDEX IF NOT EXISTS idx_audit_session ON query_audit(session_id);`,
	`CREATE INDEX IF NOT EXISTS idx_audit_source_created ON query_audit(source, created_at);`,
}

type overlayRow struct {
	CanonicalID string  `db:"canonical_id"`
	Industry    string  `db:"industry"`
	Category    string  `db:"category"`
	PriceFactor float64 `db:"price_factor"`
}

// UpsertOverlay writes an overlay row keyed by canonical id.
func (s *Store) UpsertOverlay(ctx context.Context, overlay reconcile.Overlay) error {
	if strings.TrimSpace(overlay.CanonicalID) == "" {
		return errors.New("canonical id required")
	}
	_, err := s.db.ExecContext(ctx, `
                INSERT INTO overlays (canonical_id, industry, category, price_factor, updated_at)
                VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
                ON CONFLICT(canonical_id) DO UPDATE SET
                        industry = excluded.industry,
                        category = excluded.category,
                        price_factor = excluded.price_factor,
                        updated_at = CURRENT_TIMESTAMP`,
		overlay.CanonicalID, overlay.Industry, overlay.Category, overlay.PriceFactor)
	if err != nil {
		return fmt.Errorf("upsert overlay: %w", err)
	}
	return nil
}

// Overlay fetches the overlay for one canonical id. The boolean reports
// whether a row exists.
func (s *Store) Overlay(ctx context.Context, canonicalID string) (reconcile.Overlay, bool, error) {
	var row overlayRow
	err := s.db.GetContext(ctx, &row, `SELECT canonical_id, industry, category, price_factor FROM overlays WHERE canonical_id = ?`, canonicalID)
	if errors.Is(err, sql.ErrNoRows) {
		return reconcile.Overlay{}, false, nil
	}
	if err != nil {
		return reconcile.Overlay{}, false, fmt.Errorf("load overlay: %w", err)
	}
	return reconcile.Overlay{
		CanonicalID: row.CanonicalID,
		Industry:    row.Industry,
		Category:    row.Category,
		PriceFactor: row.PriceFactor,
	}, true, nil
}

// Overlays returns every overlay keyed by canonical id.
func (s *Store) Overlays(ctx context.Context) (map[string]reconcile.Overlay, error) {
	var rows []overlayRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT canonical_id, industry, category, price_factor FROM overlays`); err != nil {
		return nil, fmt.Errorf("load overlays: %w", err)
	}
	out := make(map[string]reconcile.Overlay, len(rows))
	for _, row := range rows {
		out[row.CanonicalID] = reconcile.Overlay{
			CanonicalID: row.CanonicalID,
			Industry:    row.Industry,
			Category:    row.Category,
			PriceFactor: row.PriceFactor,
		}
	}
	return out, nil
}

// RecordQuery appends one routed call to the audit trail.
func (s *Store) RecordQuery(ctx context.Context, sessionID, target, source string, cost float64, tookMillis int64) error {
	_, err := s.db.ExecContext(ctx, `
                INSERT INTO query_audit (session_id, target, source, cost, took_ms)
                VALUES (?, ?, ?, ?, ?)`,
		sessionID, target, source, cost, tookMillis)
	if err != nil {
		return fmt.Errorf("record query: %w", err)
	}
	return nil
}

// SessionTotal is the per-source rollup of one session's routed calls.
type SessionTotal struct {
	Source  string  `db:"source" json:"source"`
	Queries int     `db:"queries" json:"queries"`
	Cost    float64 `db:"cost" json:"cost"`
}

// SessionTotals aggregates the audit trail for one session.
func (s *Store) SessionTotals(ctx context.Context, sessionID string) ([]SessionTotal, error) {
	var totals []SessionTotal
	err := s.db.SelectContext(ctx, &totals, `
                SELECT source, COUNT(*) AS queries, COALESCE(SUM(cost), 0) AS cost
                FROM query_audit
                WHERE session_id = ?
                GROUP BY source
                ORDER BY source`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("session totals: %w", err)
	}
	return totals, nil
}
