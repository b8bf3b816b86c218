package game

import "fmt"

// Skill identifiers. Definitions live in the rules package.
const (
	SkillHeroicLeap      = "warrior_heroic_leap"
	SkillShockwave       = "warrior_shockwave"
	SkillEndure          = "warrior_endure"
	SkillElementalBlast  = "mage_elemental_blast"
	SkillWarpBeacon      = "mage_warp_beacon"
	SkillWildMagic       = "mage_wild_magic"
	SkillSmokeBomb       = "rogue_smoke_bomb"
	SkillDeathMark       = "rogue_death_mark"
	SkillShadowClone     = "rogue_shadow_clone"
	SkillSpiritHawk      = "huntress_spirit_hawk"
	SkillSpectralBlades  = "huntress_spectral_blades"
	SkillNaturesPower    = "huntress_natures_power"
	SkillChallenge       = "duelist_challenge"
	SkillElementalStrike = "duelist_elemental_strike"
	SkillFeint           = "duelist_feint"
	SkillTrinity         = "cleric_trinity"
	SkillPowerOfMany     = "cleric_power_of_many"
	SkillAscendedForm    = "cleric_ascended_form"
)

const (
	StandardBoardSize = 5

	heroHP          = 5
	heroAttack      = 1
	heroMoveRange   = 1
	heroAttackRange = 1
)

type minionStats struct {
	hp, attack, moveRange, attackRange int
}

var minionTable = map[MinionType]minionStats{
	Tank:     {hp: 5, attack: 1, moveRange: 1, attackRange: 1},
	Archer:   {hp: 3, attack: 1, moveRange: 1, attackRange: 3},
	Assassin: {hp: 2, attack: 2, moveRange: 4, attackRange: 1},
}

// TeamSetup is one player's draft: a hero class, its selected skill and two
// minion types.
type TeamSetup struct {
	HeroClass HeroClass
	SkillID   string
	Minions   [2]MinionType
}

type MatchSetup struct {
	P1       TeamSetup
	P2       TeamSetup
	Starting PlayerID
}

func DefaultMatchSetup() MatchSetup {
	return MatchSetup{
		P1:       TeamSetup{HeroClass: Warrior, SkillID: SkillShockwave, Minions: [2]MinionType{Tank, Archer}},
		P2:       TeamSetup{HeroClass: Mage, SkillID: SkillElementalBlast, Minions: [2]MinionType{Tank, Archer}},
		Starting: P1,
	}
}

// NewHero builds a hero with standard stats.
func NewHero(id string, owner PlayerID, class HeroClass, skillID string, at Position) Unit {
	return Unit{
		ID:          id,
		Owner:       owner,
		Category:    Hero,
		HeroClass:   class,
		HP:          heroHP,
		MaxHP:       heroHP,
		Attack:      heroAttack,
		MoveRange:   heroMoveRange,
		AttackRange: heroAttackRange,
		Position:    at,
		Alive:       true,
		SkillID:     skillID,
	}
}

// NewMinion builds a minion with the stats of its type.
func NewMinion(id string, owner PlayerID, kind MinionType, at Position) Unit {
	st := minionTable[kind]
	return Unit{
		ID:          id,
		Owner:       owner,
		Category:    Minion,
		MinionType:  kind,
		HP:          st.hp,
		MaxHP:       st.hp,
		Attack:      st.attack,
		MoveRange:   st.moveRange,
		AttackRange: st.attackRange,
		Position:    at,
		Alive:       true,
	}
}

// NewStandardMatch builds round one of a 5x5 match. P1 deploys on row 0 and
// P2 on row 4: hero in the centre column, minions in the corners.
func NewStandardMatch(setup MatchSetup) *GameState {
	units := make([]Unit, 0, 6)
	for _, side := range []struct {
		player PlayerID
		team   TeamSetup
		row    int
	}{
		{P1, setup.P1, 0},
		{P2, setup.P2, StandardBoardSize - 1},
	} {
		prefix := "p1"
		if side.player == P2 {
			prefix = "p2"
		}
		units = append(units, NewHero(prefix+"_hero", side.player, side.team.HeroClass, side.team.SkillID, Pos(2, side.row)))
		cols := [2]int{0, StandardBoardSize - 1}
		for i, kind := range side.team.Minions {
			id := fmt.Sprintf("%s_minion_%d", prefix, i+1)
			units = append(units, NewMinion(id, side.player, kind, Pos(cols[i], side.row)))
		}
	}
	starting := setup.Starting
	if starting == "" {
		starting = P1
	}
	return NewCustomMatch(StandardBoardSize, StandardBoardSize, units, starting)
}

// NewCustomMatch builds a round-one state from an arbitrary roster. The units
// slice is copied.
func NewCustomMatch(width, height int, units []Unit, starting PlayerID) *GameState {
	s := &GameState{
		Board:         Board{Width: width, Height: height},
		Units:         make([]Unit, len(units)),
		CurrentPlayer: starting,
		Buffs:         UnitBuffs{},
		Round:         1,
	}
	for i := range units {
		s.Units[i] = units[i].clone()
	}
	return s
}
