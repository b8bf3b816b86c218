package server

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/brensch/tactics/game"
	"github.com/brensch/tactics/rules"
	"github.com/brensch/tactics/store"
)

var (
	ErrMatchFull     = errors.New("match is full")
	ErrMatchNotFound = errors.New("match not found")
)

const journalSource = "server"

// Match owns one engine and the current state of one match. Every method is
// safe for concurrent use; transitions are serialised by mu.
type Match struct {
	ID string

	mu      sync.Mutex
	engine  *rules.Engine
	state   *game.GameState
	seed    int64
	steps   int
	conns   map[game.PlayerID]*conn
	rows    []store.JournalRow
	timer   *time.Timer
	timeout time.Duration

	archive *Archive
	log     *slog.Logger
}

type matchOptions struct {
	seed     int64
	settings rules.Settings
	setup    game.MatchSetup
	timeout  time.Duration
	archive  *Archive
	log      *slog.Logger
}

func newMatch(id string, opts matchOptions) *Match {
	rng := newSeededRNG(opts.seed)
	m := &Match{
		ID:      id,
		engine:  rules.NewEngine(rng, rules.WithSettings(opts.settings)),
		state:   game.NewStandardMatch(opts.setup),
		seed:    opts.seed,
		conns:   make(map[game.PlayerID]*conn, 2),
		timeout: opts.timeout,
		archive: opts.archive,
		log:     opts.log.With("matchId", id),
	}
	if row, err := store.NewJournalRow(id, 0, nil, m.state, journalSource, m.seed); err == nil {
		m.rows = append(m.rows, row)
	} else {
		m.log.Error("journal initial state", "err", err)
	}
	return m
}

// State returns the current state. Callers must not modify it.
func (m *Match) State() *game.GameState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Match) Players() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conns)
}

// join seats c in the first free slot, P1 before P2, and sends it the
// current state.
func (m *Match) join(c *conn) (game.PlayerID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var seat game.PlayerID
	switch {
	case m.conns[game.P1] == nil:
		seat = game.P1
	case m.conns[game.P2] == nil:
		seat = game.P2
	default:
		return "", ErrMatchFull
	}

	joined, err := encode(TypeMatchJoined, MatchJoinedPayload{MatchID: m.ID, PlayerID: seat, State: m.state})
	if err != nil {
		return "", err
	}
	m.conns[seat] = c
	c.deliver(joined)

	if len(m.conns) == 2 {
		m.broadcastLocked(TypeGameReady, GameReadyPayload{Message: "Both players connected. Game starting!"})
		m.armTimerLocked()
	}
	m.log.Info("player joined", "playerId", seat, "players", len(m.conns))
	return seat, nil
}

// leave frees c's seat and tells whoever is left.
func (m *Match) leave(c *conn, seat game.PlayerID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conns[seat] != c {
		return
	}
	delete(m.conns, seat)
	m.stopTimerLocked()
	m.broadcastLocked(TypePlayerDisconnected, PlayerDisconnectedPayload{PlayerID: seat})
	m.log.Info("player left", "playerId", seat, "players", len(m.conns))
}

// apply validates and applies action. Accepted actions are journalled and
// broadcast; a rejection is returned to the caller only.
func (m *Match) apply(action game.Action) rules.ValidationResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applyLocked(action)
}

func (m *Match) applyLocked(action game.Action) rules.ValidationResult {
	next, res := m.engine.Step(m.state, action)
	if !res.Valid {
		return res
	}
	m.state = next
	m.steps++

	row, err := store.NewJournalRow(m.ID, m.steps, &action, next, journalSource, m.seed)
	if err != nil {
		m.log.Error("journal action", "err", err)
	} else {
		m.rows = append(m.rows, row)
	}

	if next.GameOver {
		m.stopTimerLocked()
		m.broadcastLocked(TypeGameOver, GameOverPayload{Winner: next.Winner, State: next})
		m.log.Info("match over", "winner", next.Winner, "round", next.Round, "steps", m.steps)
		if m.archive != nil {
			if err := m.archive.Save(m.ID, m.rows); err != nil {
				m.log.Error("archive match", "err", err)
			}
		}
		return res
	}

	m.broadcastLocked(TypeStateUpdate, StateUpdatePayload{State: next})
	m.armTimerLocked()
	return res
}

// timeoutAction is what the server plays for a player who ran out of time.
func timeoutAction(s *game.GameState) game.Action {
	if pending := s.PendingDeathChoice(); pending != nil {
		return game.ResolveDeath(pending.Owner, game.SpawnObstacle)
	}
	return game.EndTurn(s.CurrentPlayer, "")
}

func (m *Match) armTimerLocked() {
	m.stopTimerLocked()
	if m.timeout <= 0 || m.state.GameOver || len(m.conns) < 2 {
		return
	}
	armedAt := m.steps
	m.timer = time.AfterFunc(m.timeout, func() { m.expire(armedAt) })
}

func (m *Match) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// expire fires the timeout action unless the match moved on since the timer
// was armed.
func (m *Match) expire(armedAt int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.steps != armedAt || m.state.GameOver || len(m.conns) < 2 {
		return
	}
	action := timeoutAction(m.state)
	m.log.Info("turn timed out", "playerId", action.Player, "action", action.Kind)
	if res := m.applyLocked(action); !res.Valid {
		m.log.Warn("timeout action rejected", "err", res.Error)
	}
}

func (m *Match) broadcastLocked(msgType string, payload any) {
	b, err := encode(msgType, payload)
	if err != nil {
		m.log.Error("encode broadcast", "type", msgType, "err", err)
		return
	}
	for _, seat := range []game.PlayerID{game.P1, game.P2} {
		if c := m.conns[seat]; c != nil {
			c.deliver(b)
		}
	}
}

// Journal returns a copy of the rows recorded so far.
func (m *Match) Journal() []store.JournalRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]store.JournalRow(nil), m.rows...)
}
