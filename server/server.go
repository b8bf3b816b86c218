// Package server runs tactics matches over WebSocket. Each match is an
// independent engine/state pair; clients join a match by ID, are seated as P1
// or P2 in arrival order, and submit actions that are validated, applied and
// broadcast to both seats.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/brensch/tactics/game"
)

type Server struct {
	cfg      Config
	log      *slog.Logger
	registry *Registry
	archive  *Archive
	upgrader websocket.Upgrader
}

// New builds a server. An empty cfg.ArchiveDir disables archiving.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{cfg: cfg, log: logger}

	if cfg.ArchiveDir != "" {
		a, err := OpenArchive(cfg.ArchiveDir)
		if err != nil {
			return nil, err
		}
		s.archive = a
	}

	s.registry = NewRegistry(func(id string) *Match {
		return newMatch(id, matchOptions{
			seed:     matchSeed(cfg.Seed, id),
			settings: cfg.Settings(),
			setup:    game.DefaultMatchSetup(),
			timeout:  cfg.TurnTimeout,
			archive:  s.archive,
			log:      s.log,
		})
	})

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s, nil
}

func (s *Server) Registry() *Registry { return s.registry }

func (s *Server) Close() error {
	if s.archive != nil {
		return s.archive.Close()
	}
	return nil
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, o := range s.cfg.AllowedOrigins {
		if o == origin {
			return true
		}
	}
	return false
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /api/matches", s.handleListMatches)
	mux.HandleFunc("GET /api/matches/{id}", s.handleGetMatch)
	return mux
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", "err", err)
		return
	}
	c := newConn(s, ws)
	go c.writePump()
	go c.readPump()
}

type matchSummary struct {
	ID      string        `json:"id"`
	Players int           `json:"players"`
	Round   int           `json:"round"`
	Over    bool          `json:"gameOver"`
	Winner  game.PlayerID `json:"winner,omitempty"`
}

func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request) {
	ids := s.registry.IDs()
	out := make([]matchSummary, 0, len(ids))
	for _, id := range ids {
		m, err := s.registry.Find(id)
		if err != nil {
			continue
		}
		st := m.State()
		out = append(out, matchSummary{ID: id, Players: m.Players(), Round: st.Round, Over: st.GameOver, Winner: st.Winner})
	}
	writeJSON(w, out)
}

func (s *Server) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	m, err := s.registry.Find(r.PathValue("id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrMatchNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, m.State())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
