package rules

import (
	"github.com/brensch/tactics/game"
)

// hasUnacted reports whether player owns a living unit with actions left.
func hasUnacted(s *game.GameState, player game.PlayerID) bool {
	for i := range s.Units {
		u := &s.Units[i]
		if u.Owner == player && canAct(s, u) {
			return true
		}
	}
	return false
}

// advanceTurn hands control on after actor's unit finished an action.
// A unit with actions left (SPEED) keeps control. Otherwise control passes to
// the opponent, unless the opponent has nobody left to act, in which case
// actor continues. When neither side can act the round ends.
func (e *Engine) advanceTurn(s *game.GameState, actor game.PlayerID, unitID string) {
	if unitID != "" && canAct(s, s.Unit(unitID)) {
		s.CurrentPlayer = actor
		return
	}
	switch opp := actor.Opponent(); {
	case hasUnacted(s, opp):
		s.CurrentPlayer = opp
	case hasUnacted(s, actor):
		s.CurrentPlayer = actor
	default:
		e.endRound(s, actor)
	}
}

// endRound closes the current round. lastActor acted last and so moves second
// in the next round.
func (e *Engine) endRound(s *game.GameState, lastActor game.PlayerID) {
	wasAlive := aliveSet(s)

	// 1. Deferred (SLOW) actions, ascending unit ID.
	e.runDeferred(s)

	// 2. Buff lifecycle, flags, cooldowns, shields, temporary units.
	applyRoundEnd(s)

	// 3. Attrition.
	applyAttrition(s, e.settings)

	// 4. Buff tiles age; consumed ones disappear.
	tiles := s.BuffTiles[:0]
	for _, t := range s.BuffTiles {
		if t.Triggered {
			continue
		}
		t.Duration--
		if t.Duration <= 0 {
			continue
		}
		tiles = append(tiles, t)
	}
	s.BuffTiles = tiles

	// 5. Deaths from any of the above.
	resolveDeaths(s, wasAlive, lastActor)
	if s.GameOver {
		return
	}

	// 6. Fresh round.
	for i := range s.Units {
		s.Units[i].ActionsUsed = 0
	}
	s.Round++
	s.CurrentPlayer = lastActor.Opponent()
}

// runDeferred executes prepared actions. An action whose unit died, or that
// is no longer legal from the current position, is dropped silently.
func (e *Engine) runDeferred(s *game.GameState) {
	for _, id := range s.SortedUnitIDs() {
		u := s.Unit(id)
		if u == nil || !u.Preparing || u.PendingAction == nil {
			continue
		}
		action := *u.PendingAction
		*u = u.WithoutPreparing()
		if !u.Alive {
			continue
		}
		if !validateUnitAction(s, action, u).Valid {
			continue
		}
		e.execute(s, action)
	}
}
