package rules

import (
	"github.com/brensch/tactics/game"
)

// skillRun carries one skill resolution through its effect pipeline.
type skillRun struct {
	e      *Engine
	s      *game.GameState
	def    SkillDef
	action game.Action
	caster string
	origin game.Position

	// Set by the placing phase of a two-phase skill.
	skipCooldown bool
}

func (e *Engine) useSkill(s *game.GameState, action game.Action) {
	caster := s.Unit(action.UnitID)
	def, found := LookupSkill(caster.SkillID)
	if !found {
		return
	}
	if !def.grantsInvisibility() {
		caster.Invisible = false
	}

	run := &skillRun{
		e:      e,
		s:      s,
		def:    def,
		action: action,
		caster: caster.ID,
		origin: caster.Position,
	}
	for _, eff := range def.Effects {
		run.apply(eff)
	}

	if run.skipCooldown {
		return
	}
	if u := s.Unit(run.caster); u != nil {
		u.SkillCooldown = def.Cooldown
	}
}

// targets lists the living units an area covers, in ID order.
func (r *skillRun) targets(area Area) []string {
	caster := r.s.Unit(r.caster)
	var out []string
	add := func(u game.Unit) { out = append(out, u.ID) }

	switch area {
	case AreaSelf:
		if caster.Alive {
			out = append(out, caster.ID)
		}
	case AreaTarget:
		if t := r.s.Unit(r.action.TargetUnitID); t != nil && t.Alive {
			out = append(out, t.ID)
		}
	case AreaAdjacentEnemies, AreaOriginAdjacentEnemies:
		center := caster.Position
		if area == AreaOriginAdjacentEnemies {
			center = r.origin
		}
		for _, u := range r.s.LivingUnits(caster.Owner.Opponent()) {
			if game.Adjacent(center, u.Position) {
				add(u)
			}
		}
	case AreaLineEnemies:
		if r.action.Target == nil {
			return nil
		}
		dx, dy := game.Direction(caster.Position, *r.action.Target)
		for _, u := range r.s.LivingUnits(caster.Owner.Opponent()) {
			if onRay(caster.Position, dx, dy, r.def.Range, u.Position) {
				add(u)
			}
		}
	case AreaAllEnemies:
		for _, u := range r.s.LivingUnits(caster.Owner.Opponent()) {
			add(u)
		}
	case AreaAllAllies:
		for _, u := range r.s.LivingUnits(caster.Owner) {
			add(u)
		}
	}
	return out
}

// onRay reports whether p is within reach steps of from along (dx, dy).
func onRay(from game.Position, dx, dy, reach int, p game.Position) bool {
	if dx == 0 && dy == 0 {
		return false
	}
	for i := 1; i <= reach; i++ {
		if from.Add(dx*i, dy*i) == p {
			return true
		}
	}
	return false
}

func (r *skillRun) apply(eff Effect) {
	s := r.s
	switch eff.Kind {
	case EffectDamage:
		for _, id := range r.targets(eff.Area) {
			dealSkillDamage(s, id, eff.Amount)
		}

	case EffectHeal:
		for _, id := range r.targets(eff.Area) {
			healUnit(s, id, eff.Amount)
		}

	case EffectMoveSelf:
		if r.action.Target != nil {
			u := s.Unit(r.caster)
			*u = u.WithPosition(*r.action.Target)
		}

	case EffectMoveTarget:
		from := s.Unit(r.caster).Position
		for _, id := range r.targets(eff.Area) {
			r.push(from, id, eff.Amount)
		}

	case EffectApplyBuff:
		for _, id := range r.targets(eff.Area) {
			r.applyBuff(eff, id)
		}

	case EffectRemoveDebuff:
		for _, id := range r.targets(eff.Area) {
			if eff.Buff != "" {
				removeBuffs(s, id, func(b game.BuffInstance) bool { return b.Type == eff.Buff })
				continue
			}
			var debuffs []game.BuffInstance
			for _, b := range s.Buffs[id] {
				if b.IsDebuff() {
					debuffs = append(debuffs, b)
				}
			}
			if len(debuffs) == 0 {
				continue
			}
			removeBuffByID(s, id, debuffs[r.e.rng.Intn(len(debuffs))].ID)
		}

	case EffectSpawnUnit:
		r.spawnClone(eff.Rounds)

	case EffectSetSkillState:
		u := s.Unit(r.caster)
		if b := u.Beacon(); b != nil {
			*u = u.WithPosition(b.Position).WithoutSkillState()
			return
		}
		if r.action.Target != nil {
			*u = u.WithBeacon(*r.action.Target)
		}
		r.skipCooldown = true

	case EffectShield:
		for _, id := range r.targets(eff.Area) {
			u := s.Unit(id)
			u.Shield = eff.Amount
			u.ShieldRounds = eff.Rounds
		}

	case EffectInvisibility:
		for _, id := range r.targets(eff.Area) {
			s.Unit(id).Invisible = true
		}

	case EffectEmpowerAttacks:
		for _, id := range r.targets(eff.Area) {
			u := s.Unit(id)
			u.BonusAttackDamage = eff.Amount
			u.BonusAttackCharges = eff.Rounds
		}
	}
}

// push moves a unit amount tiles directly away from from. A push that would
// leave the board or hit something deals collision damage instead.
func (r *skillRun) push(from game.Position, unitID string, amount int) {
	u := r.s.Unit(unitID)
	dx, dy := game.Direction(from, u.Position)
	dest := u.Position
	for i := 0; i < amount; i++ {
		next := dest.Add(dx, dy)
		if !r.s.Board.Contains(next) || r.s.Blocked(next) {
			dealSkillDamage(r.s, unitID, pushCollisionDamage)
			break
		}
		dest = next
	}
	if u = r.s.Unit(unitID); u.Alive {
		*u = u.WithPosition(dest)
	}
}

func (r *skillRun) applyBuff(eff Effect, unitID string) {
	t := eff.Buff
	switch {
	case eff.Chosen:
		if r.action.BuffChoice != "" {
			t = r.action.BuffChoice
		}
	case len(eff.Choices) > 0:
		if eff.Chance > 0 && r.e.rng.Intn(100) >= eff.Chance {
			return
		}
		t = eff.Choices[r.e.rng.Intn(len(eff.Choices))]
	}

	var inst game.BuffInstance
	if eff.Modifiers != nil {
		inst = game.BuffInstance{
			ID:           r.s.NextID("buff"),
			Type:         t,
			SourceUnitID: r.caster,
			Duration:     eff.Rounds,
			Modifiers:    *eff.Modifiers,
		}
		addBuff(r.s, unitID, inst)
	} else {
		inst = grantBuff(r.s, unitID, t, r.caster)
	}
	if inst.Modifiers.Invulnerable {
		if u := r.s.Unit(unitID); u.Alive {
			u.Invulnerable = true
		}
	}
}

// spawnClone summons a temporary 1/1 copy of the caster on the target tile.
func (r *skillRun) spawnClone(rounds int) {
	if r.action.Target == nil {
		return
	}
	caster := *r.s.Unit(r.caster)
	clone := game.Unit{
		ID:              r.s.NextID(caster.ID + "_clone"),
		Owner:           caster.Owner,
		Category:        game.Minion,
		MinionType:      game.Assassin,
		HP:              1,
		MaxHP:           1,
		Attack:          1,
		MoveRange:       caster.MoveRange,
		AttackRange:     1,
		Position:        *r.action.Target,
		Alive:           true,
		Temporary:       true,
		TemporaryRounds: rounds,
	}
	r.s.Units = append(r.s.Units, clone)
}
