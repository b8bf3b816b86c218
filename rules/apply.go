package rules

import (
	"github.com/brensch/tactics/game"
)

// Apply returns the state after a validated action. Calling it with an
// action Validate rejects is undefined.
func (e *Engine) Apply(state *game.GameState, action game.Action) *game.GameState {
	s := state.Clone()
	if s.Buffs == nil {
		s.Buffs = game.UnitBuffs{}
	}

	if action.Kind == game.ActionDeathChoice {
		resolveDeathChoice(s, action.DeathChoice)
		return s
	}

	wasAlive := aliveSet(s)
	actor := action.Player
	actingUnit := ""

	switch action.Kind {
	case game.ActionEndTurn:
		if action.UnitID == "" {
			for _, u := range s.LivingUnits(actor) {
				exhaust(s, u.ID)
			}
		} else {
			exhaust(s, action.UnitID)
			actingUnit = action.UnitID
		}
	default:
		actingUnit, _ = inferActingUnit(s, action)
		action.UnitID = actingUnit
		if ComputeModifiers(s, actingUnit).Slowed {
			u := s.Unit(actingUnit)
			*u = u.WithPreparing(action)
			break
		}
		e.execute(s, action)
		if u := s.Unit(actingUnit); u != nil {
			*u = u.WithActionUsed()
		}
	}

	resolveDeaths(s, wasAlive, actor)
	if s.GameOver {
		return s
	}
	e.advanceTurn(s, actor, actingUnit)
	return s
}

func exhaust(s *game.GameState, unitID string) {
	u := s.Unit(unitID)
	if u == nil {
		return
	}
	if b := actionBudget(s, unitID); u.ActionsUsed < b {
		u.ActionsUsed = b
	}
}

// execute performs the effects of a unit action without any turn
// bookkeeping. action.UnitID must be set.
func (e *Engine) execute(s *game.GameState, action game.Action) {
	switch action.Kind {
	case game.ActionMove:
		e.moveUnit(s, action.UnitID, *action.Target)
	case game.ActionAttack:
		if action.TargetUnitID == "" {
			attackObstacle(s, action.UnitID, *action.Target)
			return
		}
		attackUnit(s, action.UnitID, action.TargetUnitID)
	case game.ActionMoveAndAttack:
		e.moveUnit(s, action.UnitID, *action.Target)
		if u := s.Unit(action.UnitID); u == nil || !u.Alive {
			return
		}
		attackUnit(s, action.UnitID, action.TargetUnitID)
	case game.ActionUseSkill:
		e.useSkill(s, action)
	}
}

// moveUnit relocates a unit and triggers any buff tile it lands on.
func (e *Engine) moveUnit(s *game.GameState, unitID string, to game.Position) {
	u := s.Unit(unitID)
	*u = u.WithPosition(to)

	idx := s.TileAt(to)
	if idx < 0 {
		return
	}
	tile := s.BuffTiles[idx]
	bt := tile.BuffType
	if bt == "" {
		bt = game.TileBuffTypes[e.rng.Intn(len(game.TileBuffTypes))]
	}
	s.BuffTiles[idx].Triggered = true
	grantTileBuff(s, unitID, bt, tile.ID)
}
