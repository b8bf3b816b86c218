// Package game defines the immutable value types of a tactics match.
//
// A GameState is one frozen instant of a match. Rules never mutate a state
// they were handed: every transition clones first and returns the fresh copy,
// so callers may keep references to historical states for replay or
// speculative validation.
package game

import (
	"sort"
	"strconv"
)

// PlayerID identifies one side of the match.
type PlayerID string

const (
	P1 PlayerID = "P1"
	P2 PlayerID = "P2"
)

// Opponent returns the other player.
func (p PlayerID) Opponent() PlayerID {
	if p == P1 {
		return P2
	}
	return P1
}

// GameState is the complete state needed for rules evaluation.
//
// PendingDeaths is a FIFO queue; only its head is actionable.
// Seq mints deterministic identifiers for spawned entities.
type GameState struct {
	Board         Board         `json:"board"`
	Units         []Unit        `json:"units"`
	CurrentPlayer PlayerID      `json:"currentPlayer"`
	GameOver      bool          `json:"gameOver"`
	Winner        PlayerID      `json:"winner,omitempty"`
	Buffs         UnitBuffs     `json:"buffs"`
	BuffTiles     []BuffTile    `json:"buffTiles,omitempty"`
	Obstacles     []Obstacle    `json:"obstacles,omitempty"`
	Round         int           `json:"round"`
	PendingDeaths []DeathChoice `json:"pendingDeaths,omitempty"`
	Seq           int           `json:"seq"`
}

// Clone performs a deep copy of the game state.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}

	out := &GameState{
		Board:         s.Board,
		CurrentPlayer: s.CurrentPlayer,
		GameOver:      s.GameOver,
		Winner:        s.Winner,
		Round:         s.Round,
		Seq:           s.Seq,
		Buffs:         s.Buffs.Clone(),
	}

	if len(s.Units) > 0 {
		out.Units = make([]Unit, len(s.Units))
		for i := range s.Units {
			out.Units[i] = s.Units[i].clone()
		}
	}
	if len(s.BuffTiles) > 0 {
		out.BuffTiles = make([]BuffTile, len(s.BuffTiles))
		copy(out.BuffTiles, s.BuffTiles)
	}
	if len(s.Obstacles) > 0 {
		out.Obstacles = make([]Obstacle, len(s.Obstacles))
		copy(out.Obstacles, s.Obstacles)
	}
	if len(s.PendingDeaths) > 0 {
		out.PendingDeaths = make([]DeathChoice, len(s.PendingDeaths))
		copy(out.PendingDeaths, s.PendingDeaths)
	}

	return out
}

// PendingDeathChoice returns the head of the death choice queue, or nil.
func (s *GameState) PendingDeathChoice() *DeathChoice {
	if len(s.PendingDeaths) == 0 {
		return nil
	}
	dc := s.PendingDeaths[0]
	return &dc
}

// NextID mints a deterministic identifier with the given prefix.
func (s *GameState) NextID(prefix string) string {
	s.Seq++
	return prefix + "_" + strconv.Itoa(s.Seq)
}

// Unit returns a pointer into s.Units for the unit with the given ID.
// The pointer is only safe to write through on a state the caller owns.
func (s *GameState) Unit(id string) *Unit {
	for i := range s.Units {
		if s.Units[i].ID == id {
			return &s.Units[i]
		}
	}
	return nil
}

// UnitAt returns the living unit standing on p, if any.
func (s *GameState) UnitAt(p Position) *Unit {
	for i := range s.Units {
		if s.Units[i].Alive && s.Units[i].Position == p {
			return &s.Units[i]
		}
	}
	return nil
}

// ObstacleAt returns the index of the obstacle on p, or -1.
func (s *GameState) ObstacleAt(p Position) int {
	for i := range s.Obstacles {
		if s.Obstacles[i].Position == p {
			return i
		}
	}
	return -1
}

// TileAt returns the index of the untriggered buff tile on p, or -1.
func (s *GameState) TileAt(p Position) int {
	for i := range s.BuffTiles {
		if s.BuffTiles[i].Position == p && !s.BuffTiles[i].Triggered {
			return i
		}
	}
	return -1
}

// Blocked reports whether p holds a living unit or an obstacle.
func (s *GameState) Blocked(p Position) bool {
	return s.UnitAt(p) != nil || s.ObstacleAt(p) >= 0
}

// SortedUnitIDs returns every unit ID in ascending lexicographic order.
func (s *GameState) SortedUnitIDs() []string {
	ids := make([]string, 0, len(s.Units))
	for _, u := range s.Units {
		ids = append(ids, u.ID)
	}
	sort.Strings(ids)
	return ids
}

// LivingUnits returns copies of the living units owned by player, in ID order.
func (s *GameState) LivingUnits(player PlayerID) []Unit {
	out := make([]Unit, 0, len(s.Units))
	for _, u := range s.Units {
		if u.Alive && u.Owner == player {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Hero returns the player's hero, alive or not.
func (s *GameState) Hero(player PlayerID) *Unit {
	for i := range s.Units {
		if s.Units[i].Owner == player && s.Units[i].Category == Hero {
			return &s.Units[i]
		}
	}
	return nil
}
