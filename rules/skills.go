package rules

import (
	"github.com/brensch/tactics/game"
)

// TargetType is the targeting contract a skill declares.
type TargetType string

const (
	TargetSelf             TargetType = "SELF"
	TargetSingleEnemy      TargetType = "SINGLE_ENEMY"
	TargetSingleAlly       TargetType = "SINGLE_ALLY"
	TargetSingleTile       TargetType = "SINGLE_TILE"
	TargetLine             TargetType = "LINE"
	TargetAreaAroundSelf   TargetType = "AREA_AROUND_SELF"
	TargetAreaAroundTarget TargetType = "AREA_AROUND_TARGET"
	TargetAllEnemies       TargetType = "ALL_ENEMIES"
	TargetAllAllies        TargetType = "ALL_ALLIES"
)

// SkillCategory decides which control effects block a skill: ROOT blocks
// MOVEMENT, INVULNERABLE blocks DAMAGE.
type SkillCategory string

const (
	CategoryDamage   SkillCategory = "DAMAGE"
	CategoryHeal     SkillCategory = "HEAL"
	CategoryMovement SkillCategory = "MOVEMENT"
	CategoryUtility  SkillCategory = "UTILITY"
)

type EffectKind string

const (
	EffectDamage         EffectKind = "DAMAGE"
	EffectHeal           EffectKind = "HEAL"
	EffectMoveSelf       EffectKind = "MOVE_SELF"
	EffectMoveTarget     EffectKind = "MOVE_TARGET"
	EffectApplyBuff      EffectKind = "APPLY_BUFF"
	EffectRemoveDebuff   EffectKind = "REMOVE_DEBUFF"
	EffectSpawnUnit      EffectKind = "SPAWN_UNIT"
	EffectSetSkillState  EffectKind = "SET_SKILL_STATE"
	EffectShield         EffectKind = "SHIELD"
	EffectInvisibility   EffectKind = "INVISIBILITY"
	EffectEmpowerAttacks EffectKind = "EMPOWER_ATTACKS"
)

// Area selects the units an effect touches, evaluated when the effect runs.
type Area int

const (
	AreaSelf Area = iota
	AreaTarget
	AreaAdjacentEnemies
	AreaOriginAdjacentEnemies
	AreaLineEnemies
	AreaAllEnemies
	AreaAllAllies
)

// Effect is one step of a skill pipeline. Which fields matter depends on Kind.
type Effect struct {
	Kind   EffectKind
	Area   Area
	Amount int
	Rounds int

	Buff    game.BuffType
	Chance  int
	Choices []game.BuffType
	Chosen  bool

	// Modifiers, when set, replace the canonical bundle of Buff and skip its
	// on-acquire delta; Rounds is the duration.
	Modifiers *game.Modifiers
}

type SkillDef struct {
	ID       string
	Name     string
	Class    game.HeroClass
	Target   TargetType
	Range    int
	Cooldown int
	Category SkillCategory
	Effects  []Effect
}

// Breaks stealth unless the pipeline grants it.
func (d SkillDef) grantsInvisibility() bool {
	for _, e := range d.Effects {
		if e.Kind == EffectInvisibility {
			return true
		}
	}
	return false
}

func (d SkillDef) chosenBuffEffect() (Effect, bool) {
	for _, e := range d.Effects {
		if e.Chosen {
			return e, true
		}
	}
	return Effect{}, false
}

// BuffChoices lists the buffs a caster may pick from, or nil when the skill
// offers no choice.
func (d SkillDef) BuffChoices() []game.BuffType {
	if eff, ok := d.chosenBuffEffect(); ok {
		return eff.Choices
	}
	return nil
}

const (
	DefaultSkillCooldown = 2
	pushCollisionDamage  = 1
	deathMarkHeal        = 2
)

var elementalDebuffs = []game.BuffType{game.BuffWeakness, game.BuffBleed, game.BuffSlow}

var skillList = []SkillDef{
	{
		ID: game.SkillHeroicLeap, Name: "Heroic Leap", Class: game.Warrior,
		Target: TargetSingleTile, Range: 3, Category: CategoryMovement,
		Effects: []Effect{
			{Kind: EffectMoveSelf},
			{Kind: EffectDamage, Area: AreaAdjacentEnemies, Amount: 2},
		},
	},
	{
		ID: game.SkillShockwave, Name: "Shockwave", Class: game.Warrior,
		Target: TargetAreaAroundSelf, Range: 1, Category: CategoryDamage,
		Effects: []Effect{
			{Kind: EffectDamage, Area: AreaAdjacentEnemies, Amount: 1},
			{Kind: EffectMoveTarget, Area: AreaAdjacentEnemies, Amount: 1},
		},
	},
	{
		ID: game.SkillEndure, Name: "Endure", Class: game.Warrior,
		Target: TargetSelf, Category: CategoryUtility,
		Effects: []Effect{
			{Kind: EffectShield, Amount: 3, Rounds: 2},
			{Kind: EffectRemoveDebuff, Buff: game.BuffBleed},
		},
	},
	{
		ID: game.SkillElementalBlast, Name: "Elemental Blast", Class: game.Mage,
		Target: TargetSingleEnemy, Range: 3, Category: CategoryDamage,
		Effects: []Effect{
			{Kind: EffectDamage, Area: AreaTarget, Amount: 3},
			{Kind: EffectApplyBuff, Area: AreaTarget, Chance: 50, Choices: elementalDebuffs},
		},
	},
	{
		ID: game.SkillWarpBeacon, Name: "Warp Beacon", Class: game.Mage,
		Target: TargetSingleTile, Range: 4, Category: CategoryMovement,
		Effects: []Effect{
			{Kind: EffectSetSkillState},
		},
	},
	{
		ID: game.SkillWildMagic, Name: "Wild Magic", Class: game.Mage,
		Target: TargetAllEnemies, Category: CategoryDamage,
		Effects: []Effect{
			{Kind: EffectDamage, Area: AreaAllEnemies, Amount: 1},
			{Kind: EffectApplyBuff, Area: AreaAllEnemies, Chance: 33, Choices: elementalDebuffs},
		},
	},
	{
		ID: game.SkillSmokeBomb, Name: "Smoke Bomb", Class: game.Rogue,
		Target: TargetSingleTile, Range: 3, Category: CategoryMovement,
		Effects: []Effect{
			{Kind: EffectApplyBuff, Area: AreaOriginAdjacentEnemies, Buff: game.BuffBlind},
			{Kind: EffectMoveSelf},
			{Kind: EffectInvisibility},
		},
	},
	{
		ID: game.SkillDeathMark, Name: "Death Mark", Class: game.Rogue,
		Target: TargetSingleEnemy, Range: 2, Category: CategoryUtility,
		Effects: []Effect{
			{Kind: EffectApplyBuff, Area: AreaTarget, Buff: game.BuffDeathMark},
		},
	},
	{
		ID: game.SkillShadowClone, Name: "Shadow Clone", Class: game.Rogue,
		Target: TargetSingleTile, Range: 1, Category: CategoryUtility,
		Effects: []Effect{
			{Kind: EffectSpawnUnit, Rounds: 2},
		},
	},
	{
		ID: game.SkillSpiritHawk, Name: "Spirit Hawk", Class: game.Huntress,
		Target: TargetSingleEnemy, Range: 4, Category: CategoryDamage,
		Effects: []Effect{
			{Kind: EffectDamage, Area: AreaTarget, Amount: 2},
		},
	},
	{
		ID: game.SkillSpectralBlades, Name: "Spectral Blades", Class: game.Huntress,
		Target: TargetLine, Range: 3, Category: CategoryDamage,
		Effects: []Effect{
			{Kind: EffectDamage, Area: AreaLineEnemies, Amount: 1},
		},
	},
	{
		ID: game.SkillNaturesPower, Name: "Nature's Power", Class: game.Huntress,
		Target: TargetSelf, Category: CategoryUtility,
		Effects: []Effect{
			{Kind: EffectEmpowerAttacks, Amount: 2, Rounds: 2},
			{Kind: EffectApplyBuff, Buff: game.BuffLife},
		},
	},
	{
		ID: game.SkillChallenge, Name: "Challenge", Class: game.Duelist,
		Target: TargetSingleEnemy, Range: 2, Category: CategoryUtility,
		Effects: []Effect{
			{Kind: EffectApplyBuff, Area: AreaTarget, Buff: game.BuffChallenge},
		},
	},
	{
		ID: game.SkillElementalStrike, Name: "Elemental Strike", Class: game.Duelist,
		Target: TargetSingleEnemy, Range: 1, Category: CategoryDamage,
		Effects: []Effect{
			{Kind: EffectDamage, Area: AreaTarget, Amount: 3},
			{Kind: EffectApplyBuff, Area: AreaTarget, Buff: game.BuffBleed, Choices: elementalDebuffs, Chosen: true},
		},
	},
	{
		ID: game.SkillFeint, Name: "Feint", Class: game.Duelist,
		Target: TargetSelf, Category: CategoryUtility,
		Effects: []Effect{
			{Kind: EffectApplyBuff, Buff: game.BuffFeint},
		},
	},
	{
		ID: game.SkillTrinity, Name: "Trinity", Class: game.Cleric,
		Target: TargetSingleAlly, Range: 2, Category: CategoryHeal,
		Effects: []Effect{
			{Kind: EffectHeal, Area: AreaTarget, Amount: 3},
			{Kind: EffectRemoveDebuff, Area: AreaTarget},
			{Kind: EffectApplyBuff, Area: AreaTarget, Buff: game.BuffLife},
		},
	},
	{
		ID: game.SkillPowerOfMany, Name: "Power of Many", Class: game.Cleric,
		Target: TargetAllAllies, Category: CategoryHeal,
		Effects: []Effect{
			{Kind: EffectHeal, Area: AreaAllAllies, Amount: 1},
			{Kind: EffectApplyBuff, Area: AreaAllAllies, Buff: game.BuffPower, Rounds: 1, Modifiers: &game.Modifiers{BonusAttack: 1}},
		},
	},
	{
		ID: game.SkillAscendedForm, Name: "Ascended Form", Class: game.Cleric,
		Target: TargetSelf, Category: CategoryUtility,
		Effects: []Effect{
			{Kind: EffectApplyBuff, Buff: game.BuffInvulnerable},
		},
	},
}

var skillIndex = func() map[string]SkillDef {
	m := make(map[string]SkillDef, len(skillList))
	for i := range skillList {
		if skillList[i].Cooldown == 0 {
			skillList[i].Cooldown = DefaultSkillCooldown
		}
		m[skillList[i].ID] = skillList[i]
	}
	return m
}()

// LookupSkill returns the definition registered under id.
func LookupSkill(id string) (SkillDef, bool) {
	d, ok := skillIndex[id]
	return d, ok
}

// SkillsForClass lists a class's skills in registration order.
func SkillsForClass(class game.HeroClass) []SkillDef {
	var out []SkillDef
	for _, d := range skillList {
		if d.Class == class {
			out = append(out, skillIndex[d.ID])
		}
	}
	return out
}
