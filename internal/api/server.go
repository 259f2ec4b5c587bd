// File path: internal/api/server.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	chi "github.com/go-chi/chi/v5"

	"github.com/clearline/clientiq/internal/common"
	"github.com/clearline/clientiq/internal/engine"
	"github.com/clearline/clientiq/internal/recommend"
	"github.com/clearline/clientiq/internal/router"
	"github.com/clearline/clientiq/internal/store"
)

// Server exposes the client intelligence engine over HTTP.
type Server struct {
	mux      chi.Router
	engine   *engine.Engine
	composer *recommend.Composer
	decision *router.Router
	store    *store.Store

	sessionMu sync.Mutex
	sessions  map[string]*router.Session
}

// NewServer wires the HTTP surface. The store may be nil; overlay and audit
// endpoints then report the reduced configuration.
func NewServer(eng *engine.Engine, composer *recommend.Composer, decision *router.Router, st *store.Store) (*Server, error) {
	if eng == nil {
		return nil, fmt.Errorf("engine required")
	}
	if decision == nil {
		return nil, fmt.Errorf("decision router required")
	}
	srv := &Server{
		mux:      chi.NewRouter(),
		engine:   eng,
		composer: composer,
		decision: decision,
		store:    st,
		sessions: make(map[string]*router.Session),
	}
	srv.routes()
	common.Logger().Info("api: server ready")
	return srv, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	logger := common.Logger()
	s.mux.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})

	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.mux.Get("/v1/clients", s.handleClients)
	s.mux.Get("/v1/clients/{name}", s.handleClient)
	s.mux.Get("/v1/clients/{name}/similar", s.handleSimilar)
	s.mux.Get("/v1/clients/{name}/recommendations", s.handleRecommendations)
	s.mux.Post("/v1/prospects/score", s.handleProspects)
	s.mux.Post("/v1/query", s.handleQuery)
	s.mux.Get("/v1/stats", s.handleStats)
	s.mux.Get("/v1/logs", s.handleLogs)
	s.mux.Post("/v1/overlays", s.handleOverlay)
	s.mux.Get("/v1/reconcile/report", s.handleReport)
}

// session returns the tracked session for the given id, creating one when
// the id is empty or unknown.
func (s *Server) session(id string) *router.Session {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()
	trimmed := strings.TrimSpace(id)
	if trimmed != "" {
		if existing, ok := s.sessions[trimmed]; ok {
			return existing
		}
	}
	session := router.NewSession()
	if trimmed != "" {
		session.ID = trimmed
	}
	s.sessions[session.ID] = session
	return session
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
