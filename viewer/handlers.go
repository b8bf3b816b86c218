package main

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/brensch/tactics/selfplay"
	"github.com/brensch/tactics/store"
)

// Server holds shared state for HTTP handlers.
type Server struct {
	roots   []string
	dbCache *DBCache
}

func NewServer(roots []string) *Server {
	return &Server{
		roots:   roots,
		dbCache: NewDBCache(roots, 30*time.Second),
	}
}

func (s *Server) Close() error { return s.dbCache.Close() }

// RegisterRoutes sets up all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/matches", s.handleMatches)
	mux.HandleFunc("/api/matches/{id}", s.handleMatch)
	mux.HandleFunc("/api/matches/{id}/steps/{step}", s.handleStep)
	mux.HandleFunc("/api/stats", s.handleStats)
}

// preflight applies CORS and reports whether the handler should continue.
func preflight(w http.ResponseWriter, r *http.Request) bool {
	withCORS(w, r)
	if r.Method == http.MethodOptions {
		return false
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	if !preflight(w, r) {
		return
	}
	// Force a refresh so newly flushed shards show up.
	if err := s.dbCache.Refresh(); err != nil {
		http.Error(w, fmt.Sprintf("failed to refresh db: %v", err), http.StatusInternalServerError)
		return
	}
	index, err := s.dbCache.MatchIndex(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	limit := parseIntQuery(r, "limit", 1000)
	offset := parseIntQuery(r, "offset", 0)
	sortKey := strings.TrimSpace(r.URL.Query().Get("sort"))
	sortDir := strings.TrimSpace(r.URL.Query().Get("dir"))

	matches, total := paginateMatches(index, limit, offset, sortKey, sortDir)
	writeJSON(w, MatchesResponse{Total: total, Matches: matches})
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	if !preflight(w, r) {
		return
	}
	db, err := s.dbCache.Get()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	steps, err := queryMatch(r.Context(), db, r.PathValue("id"))
	if err != nil {
		writeQueryError(w, r, err)
		return
	}
	writeJSON(w, steps)
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	if !preflight(w, r) {
		return
	}
	step, err := strconv.ParseInt(r.PathValue("step"), 10, 32)
	if err != nil || step < 0 {
		http.Error(w, "bad step", http.StatusBadRequest)
		return
	}
	db, err := s.dbCache.Get()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	st, err := queryStep(r.Context(), db, r.PathValue("id"), int32(step))
	if err != nil {
		writeQueryError(w, r, err)
		return
	}
	state, err := store.DecodeState(st.State)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, StepView{Step: st, Board: selfplay.RenderBoard(state)})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if !preflight(w, r) {
		return
	}
	db, err := s.dbCache.Get()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	stats, err := queryStats(r.Context(), db)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, stats)
}

func writeQueryError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, sql.ErrNoRows) {
		http.NotFound(w, r)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
