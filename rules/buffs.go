package rules

import (
	"github.com/brensch/tactics/game"
)

// ComputeModifiers folds every active buff on a unit into one bundle.
func ComputeModifiers(state *game.GameState, unitID string) game.Modifiers {
	var m game.Modifiers
	for _, b := range state.Buffs[unitID] {
		m = m.Merge(b.Modifiers)
	}
	return m
}

// actionBudget is how many actions a unit may take per round.
func actionBudget(state *game.GameState, unitID string) int {
	if ComputeModifiers(state, unitID).ExtraAction {
		return 2
	}
	return 1
}

func canAct(state *game.GameState, u *game.Unit) bool {
	return u != nil && u.Alive && u.ActionsUsed < actionBudget(state, u.ID)
}

func isInvulnerable(state *game.GameState, u *game.Unit) bool {
	return u.Invulnerable || ComputeModifiers(state, u.ID).Invulnerable
}

// damageUnit deals amount to a living unit, honouring invulnerability and
// shields. It returns the amount that landed (before shield absorption).
func damageUnit(state *game.GameState, unitID string, amount int) int {
	u := state.Unit(unitID)
	if u == nil || !u.Alive || amount <= 0 {
		return 0
	}
	if isInvulnerable(state, u) {
		return 0
	}
	*u = u.WithDamage(amount)
	return amount
}

// healUnit heals a living unit with no ceiling. Invulnerable units receive
// double healing.
func healUnit(state *game.GameState, unitID string, amount int) {
	u := state.Unit(unitID)
	if u == nil || !u.Alive || amount <= 0 {
		return
	}
	if isInvulnerable(state, u) {
		amount *= 2
	}
	*u = u.WithHeal(amount)
}

// applyAcquire applies the one-time HP delta of a freshly granted buff.
func applyAcquire(state *game.GameState, unitID string, t game.BuffType) {
	delta := game.OnAcquireHP(t)
	switch {
	case delta > 0 && t == game.BuffLife:
		healUnit(state, unitID, delta)
	case delta > 0:
		if u := state.Unit(unitID); u != nil && u.Alive {
			*u = u.WithHeal(delta)
		}
	case delta < 0:
		damageUnit(state, unitID, -delta)
	}
}

// grantBuff appends a canonical buff and applies its on-acquire delta.
func grantBuff(state *game.GameState, unitID string, t game.BuffType, source string) game.BuffInstance {
	inst := game.NewBuff(state.NextID("buff"), t, source)
	addBuff(state, unitID, inst)
	applyAcquire(state, unitID, t)
	return inst
}

// grantTileBuff refreshes an existing buff of the same type instead of
// stacking a second one.
func grantTileBuff(state *game.GameState, unitID string, t game.BuffType, source string) {
	inst := game.NewBuff(state.NextID("buff"), t, source)
	list := state.Buffs[unitID]
	replaced := false
	for i := range list {
		if list[i].Type == t {
			list[i] = inst
			replaced = true
			break
		}
	}
	if !replaced {
		addBuff(state, unitID, inst)
	}
	applyAcquire(state, unitID, t)
}

func addBuff(state *game.GameState, unitID string, inst game.BuffInstance) {
	if state.Buffs == nil {
		state.Buffs = game.UnitBuffs{}
	}
	state.Buffs[unitID] = append(state.Buffs[unitID], inst)
}

// removeBuffs drops every buff on unitID for which drop returns true and
// reports how many were removed.
func removeBuffs(state *game.GameState, unitID string, drop func(game.BuffInstance) bool) int {
	list := state.Buffs[unitID]
	if len(list) == 0 {
		return 0
	}
	kept := make([]game.BuffInstance, 0, len(list))
	for _, b := range list {
		if !drop(b) {
			kept = append(kept, b)
		}
	}
	removed := len(list) - len(kept)
	setBuffs(state, unitID, kept)
	return removed
}

// removeBuffByID drops the first buff with the given instance ID.
func removeBuffByID(state *game.GameState, unitID, buffID string) {
	done := false
	removeBuffs(state, unitID, func(b game.BuffInstance) bool {
		if !done && b.ID == buffID {
			done = true
			return true
		}
		return false
	})
}

func setBuffs(state *game.GameState, unitID string, list []game.BuffInstance) {
	if len(list) == 0 {
		delete(state.Buffs, unitID)
		return
	}
	state.Buffs[unitID] = list
}

// firstBuff returns the earliest granted buff matching pred.
func firstBuff(state *game.GameState, unitID string, pred func(game.BuffInstance) bool) (game.BuffInstance, bool) {
	for _, b := range state.Buffs[unitID] {
		if pred(b) {
			return b, true
		}
	}
	return game.BuffInstance{}, false
}

// ApplyRoundEnd runs the buff lifecycle for one round end and returns the
// resulting state. Units are processed in ascending ID order: bleed damage
// lands before durations tick, so a buff expiring this round still deals its
// damage. The pass also clears round-scoped flags, ticks cooldowns (dead
// heroes included), shields and temporary units.
func ApplyRoundEnd(state *game.GameState) *game.GameState {
	next := state.Clone()
	applyRoundEnd(next)
	return next
}

func applyRoundEnd(s *game.GameState) {
	if s.Buffs == nil {
		s.Buffs = game.UnitBuffs{}
	}

	for _, id := range s.SortedUnitIDs() {
		u := s.Unit(id)
		if !u.Alive {
			continue
		}
		bleed := 0
		for _, b := range s.Buffs[id] {
			bleed += b.Modifiers.BleedDamage
		}
		damageUnit(s, id, bleed)
		if !s.Unit(id).Alive {
			continue
		}

		list := s.Buffs[id]
		kept := make([]game.BuffInstance, 0, len(list))
		for _, b := range list {
			b.Duration--
			if b.Duration > 0 {
				kept = append(kept, b)
			}
		}
		setBuffs(s, id, kept)
	}

	// Dead and departed units hold no buffs.
	for _, id := range s.Buffs.UnitIDs() {
		if u := s.Unit(id); u == nil || !u.Alive {
			releaseBuffs(s, id)
		}
	}

	units := s.Units[:0]
	for _, u := range s.Units {
		u.Invisible = false
		u.Invulnerable = false
		u = u.WithoutPreparing()
		if u.SkillCooldown > 0 {
			u.SkillCooldown--
		}
		if u.ShieldRounds > 0 {
			u.ShieldRounds--
			if u.ShieldRounds == 0 {
				u.Shield = 0
			}
		}
		if u.Temporary {
			u.TemporaryRounds--
			if u.TemporaryRounds <= 0 {
				delete(s.Buffs, u.ID)
				continue
			}
		}
		units = append(units, u)
	}
	s.Units = units
}
