// File path: internal/api/handlers.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	chi "github.com/go-chi/chi/v5"

	"github.com/clearline/clientiq/internal/common"
	"github.com/clearline/clientiq/internal/recommend"
	"github.com/clearline/clientiq/internal/reconcile"
	"github.com/clearline/clientiq/internal/router"
)

const maxProspectBatch = 200

// clientName extracts the {name} route parameter. The router matches on the
// escaped path, so the value arrives URL-encoded.
func clientName(r *http.Request) string {
	name := chi.URLParam(r, "name")
	if decoded, err := url.PathUnescape(name); err == nil {
		return decoded
	}
	return name
}

func (s *Server) handleClients(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"clients":  snap.Records,
		"built_at": snap.BuiltAt,
	})
}

func (s *Server) handleClient(w http.ResponseWriter, r *http.Request) {
	name := clientName(r)
	rec, found, err := s.engine.Lookup(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, fmt.Errorf("client %q not found", name))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	name := clientName(r)
	k := queryInt(r, "k", 5)
	snap, err := s.engine.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	if _, found := snap.Find(name); !found {
		writeError(w, http.StatusNotFound, fmt.Errorf("client %q not found", name))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"target":  name,
		"similar": snap.Similarity.FindSimilar(name, k),
	})
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	name := clientName(r)
	limit := queryInt(r, "limit", 0)
	rec, found, err := s.engine.Lookup(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, fmt.Errorf("client %q not found", name))
		return
	}
	snap, err := s.engine.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	result := s.composer.ForClient(rec, snap.Adoption, snap.Similarity, recommend.Options{Limit: limit})
	writeJSON(w, http.StatusOK, result)
}

type prospectScoreRequest struct {
	SessionID string              `json:"session_id,omitempty"`
	Profiles  []recommend.Profile `json:"profiles"`
}

func (s *Server) handleProspects(w http.ResponseWriter, r *http.Request) {
	var req prospectScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if len(req.Profiles) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("profiles required"))
		return
	}
	if len(req.Profiles) > maxProspectBatch {
		writeError(w, http.StatusBadRequest, fmt.Errorf("batch too large: %d > %d", len(req.Profiles), maxProspectBatch))
		return
	}
	session := s.session(req.SessionID)
	outcomes := s.decision.ScoreProspects(r.Context(), session, req.Profiles)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": session.ID,
		"outcomes":   outcomes,
		"stats":      session.Tracker.Stats(),
	})
}

type queryRequest struct {
	SessionID string `json:"session_id,omitempty"`
	router.Request
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if strings.TrimSpace(req.Target) == "" {
		writeError(w, http.StatusBadRequest, errors.New("target required"))
		return
	}
	session := s.session(req.SessionID)
	outcome := s.decision.Route(r.Context(), session, req.Request)
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session"))
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, errors.New("session parameter required"))
		return
	}
	s.sessionMu.Lock()
	session, ok := s.sessions[sessionID]
	s.sessionMu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("session %q not found", sessionID))
		return
	}
	payload := map[string]interface{}{
		"session_id": session.ID,
		"stats":      session.Tracker.Stats(),
	}
	if s.store != nil {
		totals, err := s.store.SessionTotals(r.Context(), sessionID)
		if err != nil {
			common.Logger().Warn("api: audit totals unavailable", "session", sessionID, "error", err)
		} else {
			payload["audit"] = totals
		}
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"logs": common.LogEntries()})
}

func (s *Server) handleOverlay(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("overlay store not configured"))
		return
	}
	var overlay reconcile.Overlay
	if err := json.NewDecoder(r.Body).Decode(&overlay); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode overlay: %w", err))
		return
	}
	if err := s.store.UpsertOverlay(r.Context(), overlay); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stored"})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"report":       snap.Report,
		"skipped_rows": snap.SkippedRows,
		"built_at":     snap.BuiltAt,
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
