package rules

import (
	"github.com/brensch/tactics/game"
)

// aliveSet snapshots the owners of living units.
func aliveSet(s *game.GameState) map[string]game.PlayerID {
	alive := make(map[string]game.PlayerID, len(s.Units))
	for _, u := range s.Units {
		if u.Alive {
			alive[u.ID] = u.Owner
		}
	}
	return alive
}

// releaseBuffs drops every buff held by a dead or departed unit. Each
// DEATH_MARK on it heals the mark's source first.
func releaseBuffs(s *game.GameState, id string) {
	for _, b := range s.Buffs[id] {
		if b.Modifiers.IncomingBonus > 0 && b.SourceUnitID != "" {
			healUnit(s, b.SourceUnitID, deathMarkHeal)
		}
	}
	delete(s.Buffs, id)
}

// resolveDeaths settles every unit that died since wasAlive was taken, in
// ascending ID order:
//   - DEATH_MARK sources heal
//   - dead temporary units leave the board without a choice
//   - a dead hero, or a side with nobody left, ends the match; if both sides
//     lose at once the acting player wins
//   - every other dead minion queues a DeathChoice for its owner
func resolveDeaths(s *game.GameState, wasAlive map[string]game.PlayerID, actor game.PlayerID) {
	var dead []string
	for _, id := range s.SortedUnitIDs() {
		if _, was := wasAlive[id]; was && !s.Unit(id).Alive {
			dead = append(dead, id)
		}
	}
	if len(dead) == 0 {
		return
	}

	for _, id := range dead {
		releaseBuffs(s, id)
	}

	removed := make(map[string]bool)
	units := s.Units[:0]
	for _, u := range s.Units {
		if u.Temporary && !u.Alive {
			removed[u.ID] = true
			continue
		}
		units = append(units, u)
	}
	s.Units = units

	p1Lost := sideLost(s, wasAlive, game.P1)
	p2Lost := sideLost(s, wasAlive, game.P2)
	switch {
	case p1Lost && p2Lost:
		s.GameOver, s.Winner = true, actor
	case p1Lost:
		s.GameOver, s.Winner = true, game.P2
	case p2Lost:
		s.GameOver, s.Winner = true, game.P1
	}
	if s.GameOver {
		return
	}

	for _, id := range dead {
		if removed[id] {
			continue
		}
		u := s.Unit(id)
		if u.Category != game.Minion {
			continue
		}
		s.PendingDeaths = append(s.PendingDeaths, game.DeathChoice{
			DeadUnitID: u.ID,
			Owner:      u.Owner,
			Position:   u.Position,
		})
	}
}

// sideLost reports whether player's hero just died or their last living unit
// just fell.
func sideLost(s *game.GameState, wasAlive map[string]game.PlayerID, player game.PlayerID) bool {
	if h := s.Hero(player); h != nil && !h.Alive {
		if _, was := wasAlive[h.ID]; was {
			return true
		}
	}
	had := false
	for _, owner := range wasAlive {
		if owner == player {
			had = true
			break
		}
	}
	return had && len(s.LivingUnits(player)) == 0
}

// resolveDeathChoice pops the head of the queue and places its obstacle or
// buff tile. Turn order is untouched.
func resolveDeathChoice(s *game.GameState, choice game.DeathChoiceType) {
	if len(s.PendingDeaths) == 0 {
		return
	}
	dc := s.PendingDeaths[0]
	s.PendingDeaths = append([]game.DeathChoice(nil), s.PendingDeaths[1:]...)

	switch choice {
	case game.SpawnObstacle:
		if s.Blocked(dc.Position) {
			return
		}
		s.Obstacles = append(s.Obstacles, game.Obstacle{
			ID:       s.NextID("obstacle"),
			Position: dc.Position,
			HP:       game.DefaultObstacleHP,
		})
	case game.SpawnBuffTile:
		if s.TileAt(dc.Position) >= 0 {
			return
		}
		s.BuffTiles = append(s.BuffTiles, game.BuffTile{
			ID:       s.NextID("bufftile"),
			Position: dc.Position,
			Duration: game.DefaultBuffTileDuration,
		})
	}
}
