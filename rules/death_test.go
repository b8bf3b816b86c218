package rules

import (
	"testing"

	"github.com/brensch/tactics/game"
)

func archerDuel() *game.GameState {
	archer := minion("p2_minion_1", game.P2, game.Archer, 2, 2)
	archer.HP = 1
	return match(
		hero("p1_hero", game.P1, game.Warrior, game.SkillEndure, 2, 1),
		hero("p2_hero", game.P2, game.Mage, game.SkillWildMagic, 0, 4),
		archer,
	)
}

func TestDeath_MinionQueuesChoiceForOwner(t *testing.T) {
	e := quietEngine()
	s := mustStep(t, e, "kill archer", archerDuel(), game.Attack(game.P1, "p1_hero", "p2_minion_1"))

	if len(s.PendingDeaths) != 1 {
		t.Fatalf("pending=%d want=1", len(s.PendingDeaths))
	}
	dc := s.PendingDeaths[0]
	if dc.DeadUnitID != "p2_minion_1" || dc.Owner != game.P2 || dc.Position != game.Pos(2, 2) {
		t.Fatalf("choice=%+v", dc)
	}
	if s.GameOver {
		t.Fatalf("minion death ended the game")
	}
	if s.CurrentPlayer != game.P2 {
		t.Fatalf("current=%s want=P2", s.CurrentPlayer)
	}

	expectInvalid(t, e, s, game.Move(game.P2, "p2_hero", game.Pos(0, 3)), "Must resolve pending death choice first")
	expectInvalid(t, e, s, game.ResolveDeath(game.P1, game.SpawnObstacle), "Not your death choice")
	expectInvalid(t, e, s, game.ResolveDeath(game.P2, ""), "Death choice type is required")
	expectInvalid(t, e, s, game.ResolveDeath(game.P2, "SPAWN_DRAGON"), "Unknown death choice type: SPAWN_DRAGON")

	resolved := mustStep(t, e, "spawn obstacle", s, game.ResolveDeath(game.P2, game.SpawnObstacle))
	if resolved.PendingDeathChoice() != nil {
		t.Fatalf("choice not cleared")
	}
	if idx := resolved.ObstacleAt(game.Pos(2, 2)); idx < 0 || resolved.Obstacles[idx].HP != game.DefaultObstacleHP {
		t.Fatalf("obstacles=%+v want one at (2,2) with hp %d", resolved.Obstacles, game.DefaultObstacleHP)
	}
	if resolved.CurrentPlayer != s.CurrentPlayer {
		t.Fatalf("death choice changed current player %s -> %s", s.CurrentPlayer, resolved.CurrentPlayer)
	}
	expectInvalid(t, e, resolved, game.ResolveDeath(game.P2, game.SpawnObstacle), "No pending death choice")
}

func TestDeath_ChoiceSpawnsBuffTile(t *testing.T) {
	e := quietEngine()
	s := mustStep(t, e, "kill archer", archerDuel(), game.Attack(game.P1, "p1_hero", "p2_minion_1"))
	s = mustStep(t, e, "spawn tile", s, game.ResolveDeath(game.P2, game.SpawnBuffTile))

	idx := s.TileAt(game.Pos(2, 2))
	if idx < 0 {
		t.Fatalf("no buff tile at (2,2): %+v", s.BuffTiles)
	}
	if tile := s.BuffTiles[idx]; tile.Duration != game.DefaultBuffTileDuration || tile.Triggered {
		t.Fatalf("tile=%+v", tile)
	}
}

func TestDeath_HeroEndsGame(t *testing.T) {
	e := quietEngine()
	s := archerDuel()
	s.Unit("p2_hero").Position = game.Pos(1, 1)
	s.Unit("p2_hero").HP = 1

	next := mustStep(t, e, "kill hero", s, game.Attack(game.P1, "p1_hero", "p2_hero"))
	if !next.GameOver || next.Winner != game.P1 {
		t.Fatalf("gameOver=%v winner=%s want P1 win", next.GameOver, next.Winner)
	}
	if len(next.PendingDeaths) != 0 {
		t.Fatalf("hero death queued a choice: %+v", next.PendingDeaths)
	}
	expectInvalid(t, e, next, game.EndTurn(game.P2, ""), "Game is already over")
}

func TestDeath_SimultaneousQueueInIDOrder(t *testing.T) {
	e := quietEngine(99)
	m1 := minion("p2_minion_1", game.P2, game.Archer, 0, 4)
	m2 := minion("p2_minion_2", game.P2, game.Archer, 4, 4)
	m1.HP, m2.HP = 1, 1
	s := match(
		hero("p1_hero", game.P1, game.Mage, game.SkillWildMagic, 2, 0),
		hero("p2_hero", game.P2, game.Warrior, game.SkillEndure, 2, 4),
		m2, m1,
	)

	s = mustStep(t, e, "wild magic", s, game.UseSkill(game.P1, "p1_hero", nil, ""))
	if hp := s.Unit("p2_hero").HP; hp != 4 {
		t.Fatalf("hero hp=%d want=4", hp)
	}
	if len(s.PendingDeaths) != 2 {
		t.Fatalf("pending=%+v want two", s.PendingDeaths)
	}
	if s.PendingDeaths[0].DeadUnitID != "p2_minion_1" || s.PendingDeaths[1].DeadUnitID != "p2_minion_2" {
		t.Fatalf("queue order %s,%s", s.PendingDeaths[0].DeadUnitID, s.PendingDeaths[1].DeadUnitID)
	}

	s = mustStep(t, e, "first choice", s, game.ResolveDeath(game.P2, game.SpawnObstacle))
	if head := s.PendingDeathChoice(); head == nil || head.DeadUnitID != "p2_minion_2" {
		t.Fatalf("head=%+v want p2_minion_2", head)
	}
	if s.ObstacleAt(game.Pos(0, 4)) < 0 {
		t.Fatalf("first choice did not land at (0,4)")
	}
}

func TestDeath_BothHeroesFallActorWins(t *testing.T) {
	e := quietEngine()
	s := match(
		hero("p1_hero", game.P1, game.Warrior, game.SkillEndure, 0, 0),
		hero("p2_hero", game.P2, game.Mage, game.SkillWildMagic, 4, 4),
	)
	s.Unit("p1_hero").HP = 1
	s.Unit("p2_hero").HP = 1
	withBuffs(s, "p1_hero", game.BuffBleed)
	withBuffs(s, "p2_hero", game.BuffBleed)

	s = mustStep(t, e, "p1 rests", s, game.EndTurn(game.P1, ""))
	s = mustStep(t, e, "p2 rests into bleed", s, game.EndTurn(game.P2, ""))
	if !s.GameOver || s.Winner != game.P2 {
		t.Fatalf("gameOver=%v winner=%s want P2 (last actor) win", s.GameOver, s.Winner)
	}
}

func TestDeath_LastUnitStandingLoses(t *testing.T) {
	e := quietEngine()
	s := match(
		hero("p1_hero", game.P1, game.Warrior, game.SkillEndure, 2, 1),
		minion("p2_minion_1", game.P2, game.Archer, 2, 2),
	)
	s.Unit("p2_minion_1").HP = 1

	next := mustStep(t, e, "wipe", s, game.Attack(game.P1, "p1_hero", "p2_minion_1"))
	if !next.GameOver || next.Winner != game.P1 {
		t.Fatalf("gameOver=%v winner=%s want P1 win", next.GameOver, next.Winner)
	}
}

func TestDeath_TemporaryUnitLeavesWithoutChoice(t *testing.T) {
	e := quietEngine()
	clone := minion("p2_hero_clone_1", game.P2, game.Assassin, 2, 2)
	clone.HP, clone.MaxHP, clone.Temporary, clone.TemporaryRounds = 1, 1, true, 2
	s := match(
		hero("p1_hero", game.P1, game.Warrior, game.SkillEndure, 2, 1),
		hero("p2_hero", game.P2, game.Rogue, game.SkillShadowClone, 0, 4),
		clone,
	)

	next := mustStep(t, e, "pop clone", s, game.Attack(game.P1, "p1_hero", "p2_hero_clone_1"))
	if next.Unit("p2_hero_clone_1") != nil {
		t.Fatalf("dead clone still listed")
	}
	if len(next.PendingDeaths) != 0 {
		t.Fatalf("clone death queued a choice")
	}
}

func markedBleedingArcher() *game.GameState {
	archer := minion("p2_minion_1", game.P2, game.Archer, 2, 1)
	archer.HP = 1
	s := match(
		hero("p1_hero", game.P1, game.Rogue, game.SkillDeathMark, 2, 0),
		hero("p2_hero", game.P2, game.Warrior, game.SkillEndure, 4, 4),
		archer,
	)
	s.Buffs["p2_minion_1"] = []game.BuffInstance{
		game.NewBuff(s.NextID("buff"), game.BuffDeathMark, "p1_hero"),
		game.NewBuff(s.NextID("buff"), game.BuffBleed, ""),
	}
	return s
}

func TestDeath_MarkHealsSourceOnAttackKill(t *testing.T) {
	e := quietEngine()
	s := markedBleedingArcher()
	before := s.Unit("p1_hero").HP

	s = mustStep(t, e, "kill marked archer", s, game.Attack(game.P1, "p1_hero", "p2_minion_1"))
	if s.Unit("p2_minion_1").Alive {
		t.Fatalf("archer survived")
	}
	if hp := s.Unit("p1_hero").HP; hp != before+deathMarkHeal {
		t.Fatalf("rogue hp=%d want=%d", hp, before+deathMarkHeal)
	}
	if _, found := s.Buffs["p2_minion_1"]; found {
		t.Fatalf("dead archer still has buffs")
	}
}

func TestDeath_MarkHealsSourceOnBleedKill(t *testing.T) {
	e := quietEngine()
	s := markedBleedingArcher()
	before := s.Unit("p1_hero").HP

	s = mustStep(t, e, "p1 rests", s, game.EndTurn(game.P1, ""))
	s = mustStep(t, e, "p2 rests", s, game.EndTurn(game.P2, ""))

	if s.Unit("p2_minion_1").Alive {
		t.Fatalf("bleed did not kill the archer")
	}
	if len(s.PendingDeaths) != 1 || s.PendingDeaths[0].DeadUnitID != "p2_minion_1" {
		t.Fatalf("pending=%+v", s.PendingDeaths)
	}
	if hp := s.Unit("p1_hero").HP; hp != before+deathMarkHeal {
		t.Fatalf("rogue hp=%d want=%d", hp, before+deathMarkHeal)
	}
	if _, found := s.Buffs["p2_minion_1"]; found {
		t.Fatalf("dead archer still has buffs")
	}
}
