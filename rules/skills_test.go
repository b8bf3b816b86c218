package rules

import (
	"testing"

	"github.com/brensch/tactics/game"
)

func TestSkillRegistry(t *testing.T) {
	classes := []game.HeroClass{game.Warrior, game.Mage, game.Rogue, game.Huntress, game.Duelist, game.Cleric}
	total := 0
	for _, c := range classes {
		defs := SkillsForClass(c)
		if len(defs) != 3 {
			t.Fatalf("%s has %d skills want=3", c, len(defs))
		}
		for _, d := range defs {
			if d.Cooldown != DefaultSkillCooldown {
				t.Fatalf("%s cooldown=%d want=%d", d.ID, d.Cooldown, DefaultSkillCooldown)
			}
			if len(d.Effects) == 0 {
				t.Fatalf("%s has no effects", d.ID)
			}
		}
		total += len(defs)
	}
	if total != 18 {
		t.Fatalf("total skills=%d want=18", total)
	}
	if _, found := LookupSkill("bard_song"); found {
		t.Fatalf("unknown skill resolved")
	}
}

func TestSkill_DamageIgnoresAttackModifiers(t *testing.T) {
	e := quietEngine(99)
	s := match(
		hero("p1_hero", game.P1, game.Mage, game.SkillElementalBlast, 2, 0),
		hero("p2_hero", game.P2, game.Warrior, game.SkillEndure, 2, 3),
	)
	withBuffs(s, "p1_hero", game.BuffPower, game.BuffWeakness, game.BuffSpeed)

	next := mustStep(t, e, "blast", s, game.UseSkill(game.P1, "p1_hero", nil, "p2_hero"))
	if hp := next.Unit("p2_hero").HP; hp != 2 {
		t.Fatalf("target hp=%d want=2", hp)
	}
	if _, found := next.Buffs["p2_hero"]; found {
		t.Fatalf("failed roll still applied a debuff: %+v", next.Buffs["p2_hero"])
	}
	if cd := next.Unit("p1_hero").SkillCooldown; cd != DefaultSkillCooldown {
		t.Fatalf("cooldown=%d want=%d", cd, DefaultSkillCooldown)
	}
}

func TestSkill_ElementalBlastRollsDebuff(t *testing.T) {
	e := quietEngine(0, 1)
	s := match(
		hero("p1_hero", game.P1, game.Mage, game.SkillElementalBlast, 2, 0),
		hero("p2_hero", game.P2, game.Warrior, game.SkillEndure, 2, 3),
	)

	next := mustStep(t, e, "blast with bleed", s, game.UseSkill(game.P1, "p1_hero", nil, "p2_hero"))
	if !next.Buffs.Has("p2_hero", game.BuffBleed) {
		t.Fatalf("buffs=%+v want BLEED", next.Buffs["p2_hero"])
	}
	if src := next.Buffs["p2_hero"][0].SourceUnitID; src != "p1_hero" {
		t.Fatalf("source=%q want=p1_hero", src)
	}
}

func TestSkill_ElementalStrikeChosenDebuff(t *testing.T) {
	e := quietEngine()
	s := match(
		hero("p1_hero", game.P1, game.Duelist, game.SkillElementalStrike, 2, 2),
		hero("p2_hero", game.P2, game.Warrior, game.SkillEndure, 2, 3),
	)

	a := game.UseSkill(game.P1, "p1_hero", nil, "p2_hero")
	a.BuffChoice = game.BuffSlow
	next := mustStep(t, e, "strike with slow", s, a)
	if hp := next.Unit("p2_hero").HP; hp != 2 {
		t.Fatalf("hp=%d want=2", hp)
	}
	if !next.Buffs.Has("p2_hero", game.BuffSlow) {
		t.Fatalf("buffs=%+v want SLOW", next.Buffs["p2_hero"])
	}

	next = mustStep(t, e, "strike default", s, game.UseSkill(game.P1, "p1_hero", nil, "p2_hero"))
	if !next.Buffs.Has("p2_hero", game.BuffBleed) {
		t.Fatalf("buffs=%+v want default BLEED", next.Buffs["p2_hero"])
	}

	a.BuffChoice = game.BuffStun
	expectInvalid(t, e, s, a, "Chosen buff must be one of WEAKNESS, BLEED, SLOW")
}

func TestSkill_WarpBeaconTwoPhase(t *testing.T) {
	e := quietEngine()
	s := match(
		hero("p1_hero", game.P1, game.Mage, game.SkillWarpBeacon, 0, 0),
		hero("p2_hero", game.P2, game.Warrior, game.SkillEndure, 4, 4),
	)

	s = mustStep(t, e, "place beacon", s, game.UseSkill(game.P1, "p1_hero", pos(0, 3), ""))
	u := s.Unit("p1_hero")
	if b := u.Beacon(); b == nil || b.Position != game.Pos(0, 3) {
		t.Fatalf("beacon=%+v want at (0,3)", u.Beacon())
	}
	if u.Position != game.Pos(0, 0) || u.SkillCooldown != 0 {
		t.Fatalf("placing moved the mage or set cooldown: pos=%v cd=%d", u.Position, u.SkillCooldown)
	}
	if u.ActionsUsed != 1 {
		t.Fatalf("actions=%d want=1", u.ActionsUsed)
	}

	s = mustStep(t, e, "p2 rests", s, game.EndTurn(game.P2, ""))
	if s.CurrentPlayer != game.P1 || s.Round != 2 {
		t.Fatalf("current=%s round=%d", s.CurrentPlayer, s.Round)
	}

	blocked := s.Clone()
	blocked.Unit("p2_hero").Position = game.Pos(0, 3)
	expectInvalid(t, e, blocked, game.UseSkill(game.P1, "p1_hero", nil, ""), "Cannot teleport - beacon position is blocked")

	s = mustStep(t, e, "warp", s, game.UseSkill(game.P1, "p1_hero", nil, ""))
	u = s.Unit("p1_hero")
	if u.Position != game.Pos(0, 3) {
		t.Fatalf("mage at %v want=(0,3)", u.Position)
	}
	if u.Beacon() != nil {
		t.Fatalf("beacon not cleared")
	}
	if u.SkillCooldown != DefaultSkillCooldown {
		t.Fatalf("cooldown=%d want=%d", u.SkillCooldown, DefaultSkillCooldown)
	}
}

func TestSkill_ShadowCloneExpires(t *testing.T) {
	e := quietEngine()
	s := match(
		hero("p1_hero", game.P1, game.Rogue, game.SkillShadowClone, 2, 2),
		hero("p2_hero", game.P2, game.Warrior, game.SkillEndure, 4, 4),
	)

	s = mustStep(t, e, "clone", s, game.UseSkill(game.P1, "p1_hero", pos(2, 3), ""))
	c := s.Unit("p1_hero_clone_1")
	if c == nil {
		t.Fatalf("no clone spawned")
	}
	if !c.Temporary || c.HP != 1 || c.Attack != 1 || c.Position != game.Pos(2, 3) || c.Owner != game.P1 {
		t.Fatalf("clone=%+v", *c)
	}

	for s.Round < 2 {
		s = mustStep(t, e, "rest", s, game.EndTurn(s.CurrentPlayer, ""))
	}
	if c := s.Unit("p1_hero_clone_1"); c == nil || c.TemporaryRounds != 1 {
		t.Fatalf("clone after one round=%+v want one round left", c)
	}
	for s.Round < 3 {
		s = mustStep(t, e, "rest", s, game.EndTurn(s.CurrentPlayer, ""))
	}
	if s.Unit("p1_hero_clone_1") != nil {
		t.Fatalf("clone survived its duration")
	}
}

func TestSkill_ShockwavePushesAndCollides(t *testing.T) {
	e := quietEngine()
	s := match(
		hero("p1_hero", game.P1, game.Warrior, game.SkillShockwave, 2, 2),
		hero("p2_hero", game.P2, game.Mage, game.SkillWildMagic, 0, 4),
		minion("p2_minion_1", game.P2, game.Archer, 2, 3),
		minion("p2_minion_2", game.P2, game.Archer, 3, 2),
	)
	s.Obstacles = []game.Obstacle{{ID: "obstacle_1", Position: game.Pos(4, 2), HP: 3}}

	next := mustStep(t, e, "shockwave", s, game.UseSkill(game.P1, "p1_hero", nil, ""))

	free := next.Unit("p2_minion_1")
	if free.Position != game.Pos(2, 4) || free.HP != 2 {
		t.Fatalf("free archer pos=%v hp=%d want (2,4) hp 2", free.Position, free.HP)
	}
	stuck := next.Unit("p2_minion_2")
	if stuck.Position != game.Pos(3, 2) || stuck.HP != 1 {
		t.Fatalf("stuck archer pos=%v hp=%d want (3,2) hp 1", stuck.Position, stuck.HP)
	}
	if hp := next.Unit("p2_hero").HP; hp != 5 {
		t.Fatalf("distant hero hp=%d want=5", hp)
	}
}

func TestSkill_HeroicLeap(t *testing.T) {
	e := quietEngine()
	s := match(
		hero("p1_hero", game.P1, game.Warrior, game.SkillHeroicLeap, 0, 0),
		hero("p2_hero", game.P2, game.Mage, game.SkillWildMagic, 2, 2),
	)

	next := mustStep(t, e, "leap", s, game.UseSkill(game.P1, "p1_hero", pos(2, 1), ""))
	if p := next.Unit("p1_hero").Position; p != game.Pos(2, 1) {
		t.Fatalf("warrior at %v want=(2,1)", p)
	}
	if hp := next.Unit("p2_hero").HP; hp != 3 {
		t.Fatalf("landing damage: hp=%d want=3", hp)
	}

	blocked := s.Clone()
	blocked.Obstacles = []game.Obstacle{{ID: "obstacle_1", Position: game.Pos(0, 1), HP: 3}}
	expectInvalid(t, e, blocked, game.UseSkill(game.P1, "p1_hero", pos(0, 1), ""), "Target tile is blocked")
	expectInvalid(t, e, s, game.UseSkill(game.P1, "p1_hero", pos(4, 4), ""), "Target is out of range (range: 3)")
	withBuffs(s, "p1_hero", game.BuffRoot)
	expectInvalid(t, e, s, game.UseSkill(game.P1, "p1_hero", pos(2, 1), ""), "Rooted units cannot use movement skills")
}

func TestSkill_EndureShieldsAndCleansesBleed(t *testing.T) {
	e := quietEngine()
	s := match(
		hero("p1_hero", game.P1, game.Warrior, game.SkillEndure, 0, 0),
		hero("p2_hero", game.P2, game.Mage, game.SkillWildMagic, 4, 4),
	)
	withBuffs(s, "p1_hero", game.BuffBleed, game.BuffBleed, game.BuffWeakness)
	withBuffs(s, "p1_hero", game.BuffRoot)

	next := mustStep(t, e, "endure", s, game.UseSkill(game.P1, "p1_hero", nil, ""))
	u := next.Unit("p1_hero")
	if u.Shield != 3 || u.ShieldRounds != 2 {
		t.Fatalf("shield=%d rounds=%d want 3/2", u.Shield, u.ShieldRounds)
	}
	if next.Buffs.Has(u.ID, game.BuffBleed) {
		t.Fatalf("bleed not cleansed")
	}
	if !next.Buffs.Has(u.ID, game.BuffWeakness) {
		t.Fatalf("endure removed more than bleed")
	}
}

func TestSkill_SmokeBomb(t *testing.T) {
	e := quietEngine()
	s := match(
		hero("p1_hero", game.P1, game.Rogue, game.SkillSmokeBomb, 2, 2),
		hero("p2_hero", game.P2, game.Mage, game.SkillWildMagic, 2, 3),
		minion("p2_minion_1", game.P2, game.Archer, 0, 0),
	)

	next := mustStep(t, e, "smoke", s, game.UseSkill(game.P1, "p1_hero", pos(0, 2), ""))
	u := next.Unit("p1_hero")
	if u.Position != game.Pos(0, 2) || !u.Invisible {
		t.Fatalf("rogue pos=%v invisible=%v", u.Position, u.Invisible)
	}
	if !next.Buffs.Has("p2_hero", game.BuffBlind) {
		t.Fatalf("adjacent enemy not blinded")
	}
	expectInvalid(t, e, next, game.Attack(game.P2, "p2_minion_1", "p1_hero"), "Cannot target invisible unit")
}

func TestSkill_SpectralBladesLine(t *testing.T) {
	e := quietEngine()
	s := match(
		hero("p1_hero", game.P1, game.Huntress, game.SkillSpectralBlades, 0, 2),
		hero("p2_hero", game.P2, game.Mage, game.SkillWildMagic, 4, 2),
		minion("p2_minion_1", game.P2, game.Archer, 1, 2),
		minion("p2_minion_2", game.P2, game.Archer, 3, 2),
		minion("p2_minion_3", game.P2, game.Archer, 1, 3),
	)

	next := mustStep(t, e, "blades", s, game.UseSkill(game.P1, "p1_hero", pos(3, 2), ""))
	for id, want := range map[string]int{"p2_minion_1": 2, "p2_minion_2": 2, "p2_minion_3": 3, "p2_hero": 5} {
		if hp := next.Unit(id).HP; hp != want {
			t.Fatalf("%s hp=%d want=%d", id, hp, want)
		}
	}
	expectInvalid(t, e, s, game.UseSkill(game.P1, "p1_hero", pos(1, 3), ""), "Target must be in a straight line")
}

func TestSkill_NaturesPowerCharges(t *testing.T) {
	e := quietEngine()
	s := match(
		hero("p1_hero", game.P1, game.Huntress, game.SkillNaturesPower, 2, 2),
		hero("p2_hero", game.P2, game.Mage, game.SkillWildMagic, 2, 3),
	)
	s.Unit("p2_hero").HP = 20

	s = mustStep(t, e, "empower", s, game.UseSkill(game.P1, "p1_hero", nil, ""))
	u := s.Unit("p1_hero")
	if u.BonusAttackDamage != 2 || u.BonusAttackCharges != 2 {
		t.Fatalf("bonus=%d charges=%d want 2/2", u.BonusAttackDamage, u.BonusAttackCharges)
	}
	if u.HP != 8 {
		t.Fatalf("LIFE on self: hp=%d want=8", u.HP)
	}

	s = mustStep(t, e, "p2 rests", s, game.EndTurn(game.P2, ""))
	s = mustStep(t, e, "charged hit 1", s, game.Attack(game.P1, "p1_hero", "p2_hero"))
	if hp := s.Unit("p2_hero").HP; hp != 17 {
		t.Fatalf("hp=%d want=17", hp)
	}
	if c := s.Unit("p1_hero").BonusAttackCharges; c != 1 {
		t.Fatalf("charges=%d want=1", c)
	}
}

func TestSkill_DeathMarkChallengeFeint(t *testing.T) {
	e := quietEngine()
	s := match(
		hero("p1_hero", game.P1, game.Rogue, game.SkillDeathMark, 2, 1),
		hero("p2_hero", game.P2, game.Duelist, game.SkillChallenge, 2, 3),
	)

	next := mustStep(t, e, "mark", s, game.UseSkill(game.P1, "p1_hero", nil, "p2_hero"))
	mark := next.Buffs["p2_hero"]
	if len(mark) != 1 || mark[0].Type != game.BuffDeathMark || mark[0].SourceUnitID != "p1_hero" {
		t.Fatalf("buffs=%+v want DEATH_MARK from p1_hero", mark)
	}

	next = mustStep(t, e, "challenge", next, game.UseSkill(game.P2, "p2_hero", nil, "p1_hero"))
	ch := next.Buffs["p1_hero"]
	if len(ch) != 1 || ch[0].Type != game.BuffChallenge || ch[0].SourceUnitID != "p2_hero" || ch[0].Payload != game.CounterDamage {
		t.Fatalf("buffs=%+v want CHALLENGE from p2_hero", ch)
	}

	feint := match(
		hero("p1_hero", game.P1, game.Duelist, game.SkillFeint, 0, 0),
		hero("p2_hero", game.P2, game.Mage, game.SkillWildMagic, 4, 4),
	)
	feint = mustStep(t, e, "feint", feint, game.UseSkill(game.P1, "p1_hero", nil, ""))
	if !feint.Buffs.Has("p1_hero", game.BuffFeint) {
		t.Fatalf("feint not applied")
	}
}

func TestSkill_TrinityHealsCleansesAndBlesses(t *testing.T) {
	e := quietEngine()
	tank := minion("p1_minion_1", game.P1, game.Tank, 2, 2)
	tank.HP = 2
	s := match(
		hero("p1_hero", game.P1, game.Cleric, game.SkillTrinity, 2, 0),
		tank,
		hero("p2_hero", game.P2, game.Mage, game.SkillWildMagic, 4, 4),
	)
	s.Buffs["p1_minion_1"] = []game.BuffInstance{game.NewBuff("buff_1", game.BuffWeakness, "")}

	next := mustStep(t, e, "trinity", s, game.UseSkill(game.P1, "p1_hero", nil, "p1_minion_1"))
	if hp := next.Unit("p1_minion_1").HP; hp != 8 {
		t.Fatalf("hp=%d want=8 (2+3+3)", hp)
	}
	if next.Buffs.Has("p1_minion_1", game.BuffWeakness) {
		t.Fatalf("weakness not cleansed")
	}
	if !next.Buffs.Has("p1_minion_1", game.BuffLife) {
		t.Fatalf("LIFE not granted")
	}

	expectInvalid(t, e, s, game.UseSkill(game.P1, "p1_hero", nil, "p2_hero"), "Target must be a friendly unit")
}

func TestSkill_PowerOfMany(t *testing.T) {
	e := quietEngine()
	s := match(
		hero("p1_hero", game.P1, game.Cleric, game.SkillPowerOfMany, 2, 0),
		minion("p1_minion_1", game.P1, game.Tank, 0, 0),
		hero("p2_hero", game.P2, game.Mage, game.SkillWildMagic, 4, 4),
	)

	next := mustStep(t, e, "rally", s, game.UseSkill(game.P1, "p1_hero", nil, ""))
	for _, id := range []string{"p1_hero", "p1_minion_1"} {
		u := next.Unit(id)
		if u.HP != u.MaxHP+1 {
			t.Fatalf("%s hp=%d want=%d", id, u.HP, u.MaxHP+1)
		}
		m := ComputeModifiers(next, id)
		if m.BonusAttack != 1 || m.NoMoveAndAttack {
			t.Fatalf("%s modifiers=%+v want +1 attack only", id, m)
		}
	}
	if next.Buffs.Has("p2_hero", game.BuffPower) {
		t.Fatalf("enemy rallied")
	}
	if after := ApplyRoundEnd(next); after.Buffs.Has("p1_hero", game.BuffPower) {
		t.Fatalf("rally outlived one round")
	}
}

func TestSkill_AscendedForm(t *testing.T) {
	e := quietEngine()
	s := match(
		hero("p1_hero", game.P1, game.Cleric, game.SkillAscendedForm, 2, 2),
		hero("p2_hero", game.P2, game.Warrior, game.SkillEndure, 2, 3),
	)

	s = mustStep(t, e, "ascend", s, game.UseSkill(game.P1, "p1_hero", nil, ""))
	u := s.Unit("p1_hero")
	if !u.Invulnerable || !s.Buffs.Has(u.ID, game.BuffInvulnerable) {
		t.Fatalf("invulnerable=%v buffs=%+v", u.Invulnerable, s.Buffs[u.ID])
	}

	healed := s.Clone()
	healUnit(healed, "p1_hero", 1)
	if hp := healed.Unit("p1_hero").HP; hp != 7 {
		t.Fatalf("doubled heal: hp=%d want=7", hp)
	}

	// P2's attack is the last action of the round, so the form ends with it.
	s = mustStep(t, e, "hit the ascended", s, game.Attack(game.P2, "p2_hero", "p1_hero"))
	if hp := s.Unit("p1_hero").HP; hp != 5 {
		t.Fatalf("hp=%d want=5", hp)
	}
	if s.Round != 2 || s.Unit("p1_hero").Invulnerable {
		t.Fatalf("round=%d invulnerable=%v want round 2 without the form", s.Round, s.Unit("p1_hero").Invulnerable)
	}
	healUnit(s, "p1_hero", 1)
	if hp := s.Unit("p1_hero").HP; hp != 6 {
		t.Fatalf("plain heal: hp=%d want=6", hp)
	}
}

func TestSkill_Restrictions(t *testing.T) {
	e := quietEngine()
	s := match(
		hero("p1_hero", game.P1, game.Mage, game.SkillElementalBlast, 2, 0),
		minion("p1_minion_1", game.P1, game.Archer, 0, 0),
		hero("p2_hero", game.P2, game.Warrior, game.SkillEndure, 2, 4),
	)

	expectInvalid(t, e, s, game.UseSkill(game.P1, "p1_minion_1", nil, "p2_hero"), "Only Heroes can use skills")
	expectInvalid(t, e, s, game.UseSkill(game.P1, "p1_hero", nil, "p2_hero"), "Target is out of range (range: 3)")
	expectInvalid(t, e, s, game.UseSkill(game.P1, "p1_hero", nil, "p1_minion_1"), "Target must be an enemy unit")

	s.Unit("p2_hero").Position = game.Pos(2, 3)
	cooling := s.Clone()
	cooling.Unit("p1_hero").SkillCooldown = 2
	expectInvalid(t, e, cooling, game.UseSkill(game.P1, "p1_hero", nil, "p2_hero"), "Skill is on cooldown (2 rounds remaining)")

	wrong := s.Clone()
	wrong.Unit("p1_hero").SkillID = game.SkillEndure
	expectInvalid(t, e, wrong, game.UseSkill(game.P1, "p1_hero", nil, "p2_hero"), "Hero class cannot use this skill")

	unknown := s.Clone()
	unknown.Unit("p1_hero").SkillID = "bard_song"
	expectInvalid(t, e, unknown, game.UseSkill(game.P1, "p1_hero", nil, "p2_hero"), "Invalid skill ID: bard_song")

	stunned := s.Clone()
	withBuffs(stunned, "p1_hero", game.BuffStun)
	expectInvalid(t, e, stunned, game.UseSkill(game.P1, "p1_hero", nil, "p2_hero"), "Stunned units cannot use skills")

	shielded := s.Clone()
	withBuffs(shielded, "p1_hero", game.BuffInvulnerable)
	expectInvalid(t, e, shielded, game.UseSkill(game.P1, "p1_hero", nil, "p2_hero"), "Invulnerable units cannot use damaging skills")
}

func TestSkill_BreaksInvisibility(t *testing.T) {
	e := quietEngine()
	s := match(
		hero("p1_hero", game.P1, game.Huntress, game.SkillSpiritHawk, 0, 0),
		hero("p2_hero", game.P2, game.Warrior, game.SkillEndure, 0, 4),
	)
	s.Unit("p1_hero").Invisible = true

	next := mustStep(t, e, "hawk", s, game.UseSkill(game.P1, "p1_hero", nil, "p2_hero"))
	if next.Unit("p1_hero").Invisible {
		t.Fatalf("caster still invisible")
	}
	if hp := next.Unit("p2_hero").HP; hp != 3 {
		t.Fatalf("hp=%d want=3", hp)
	}
}
