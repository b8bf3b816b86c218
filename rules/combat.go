package rules

import (
	"github.com/brensch/tactics/game"
)

// guardianFor returns the living friendly TANK adjacent to targetID that
// intercepts damage aimed at it, lowest ID first, or "".
func guardianFor(s *game.GameState, targetID string) string {
	t := s.Unit(targetID)
	if t == nil {
		return ""
	}
	best := ""
	for _, u := range s.Units {
		if !u.Alive || u.ID == targetID || u.Owner != t.Owner {
			continue
		}
		if u.Category != game.Minion || u.MinionType != game.Tank {
			continue
		}
		if !game.Adjacent(u.Position, t.Position) {
			continue
		}
		if best == "" || u.ID < best {
			best = u.ID
		}
	}
	return best
}

func damageReceiver(s *game.GameState, targetID string) string {
	if g := guardianFor(s, targetID); g != "" {
		return g
	}
	return targetID
}

// attackPower is the attacker's basic-attack damage before target effects,
// floored at 0. It spends one Nature's Power charge and breaks stealth.
func attackPower(s *game.GameState, attackerID string) int {
	u := s.Unit(attackerID)
	dmg := u.Attack + ComputeModifiers(s, attackerID).BonusAttack
	if u.BonusAttackCharges > 0 {
		dmg += u.BonusAttackDamage
		u.BonusAttackCharges--
		if u.BonusAttackCharges == 0 {
			u.BonusAttackDamage = 0
		}
	}
	u.Invisible = false
	return max(0, dmg)
}

// attackUnit resolves one basic attack:
//  1. FEINT on the target negates the hit and counters the attacker
//  2. a guardian TANK takes the hit in the target's place
//  3. DEATH_MARK on the receiver adds incoming damage
//  4. CHALLENGE halves damage against anyone but the challenger, and
//     hitting the challenger provokes a counter
func attackUnit(s *game.GameState, attackerID, targetID string) {
	base := attackPower(s, attackerID)

	if feint, found := firstBuff(s, targetID, func(b game.BuffInstance) bool { return b.Modifiers.Feint }); found {
		removeBuffByID(s, targetID, feint.ID)
		damageUnit(s, attackerID, feint.Payload)
		return
	}

	receiver := damageReceiver(s, targetID)
	dmg := base + ComputeModifiers(s, receiver).IncomingBonus

	challenge, challenged := firstBuff(s, attackerID, func(b game.BuffInstance) bool { return b.Modifiers.Challenge })
	if challenged && receiver != challenge.SourceUnitID {
		dmg /= 2
	}
	damageUnit(s, receiver, max(0, dmg))

	if challenged && receiver == challenge.SourceUnitID {
		if src := s.Unit(challenge.SourceUnitID); src != nil && src.Alive {
			damageUnit(s, damageReceiver(s, attackerID), challenge.Payload)
		}
	}
}

// attackObstacle chips an obstacle, or shatters it outright under POWER.
func attackObstacle(s *game.GameState, attackerID string, at game.Position) {
	breaks := ComputeModifiers(s, attackerID).BreaksObstacles
	dmg := attackPower(s, attackerID)

	idx := s.ObstacleAt(at)
	if idx < 0 {
		return
	}
	s.Obstacles[idx].HP -= dmg
	if breaks || s.Obstacles[idx].HP <= 0 {
		s.Obstacles = append(s.Obstacles[:idx], s.Obstacles[idx+1:]...)
	}
}

// dealSkillDamage applies fixed skill damage. Only guardians and
// invulnerability interact with it; attack modifiers never do.
func dealSkillDamage(s *game.GameState, targetID string, amount int) {
	damageUnit(s, damageReceiver(s, targetID), amount)
}
