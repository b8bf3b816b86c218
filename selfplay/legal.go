// Package selfplay drives whole matches through the rules engine with a
// seeded random-legal policy. It exists to soak the engine, not to play well.
package selfplay

import (
	"github.com/brensch/tactics/game"
	"github.com/brensch/tactics/rules"
)

// LegalActions enumerates every action Validate accepts in s, in a stable
// order: death choices first when one is pending, otherwise per unit (in
// roster order) moves, attacks, move-and-attacks, skills and END_TURN.
func LegalActions(e *rules.Engine, s *game.GameState) []game.Action {
	if s.GameOver {
		return nil
	}

	var candidates []game.Action
	if pending := s.PendingDeathChoice(); pending != nil {
		candidates = []game.Action{
			game.ResolveDeath(pending.Owner, game.SpawnObstacle),
			game.ResolveDeath(pending.Owner, game.SpawnBuffTile),
		}
	} else {
		candidates = unitCandidates(s, s.CurrentPlayer)
	}

	out := candidates[:0]
	for _, a := range candidates {
		if e.Validate(s, a).Valid {
			out = append(out, a)
		}
	}
	return out
}

func unitCandidates(s *game.GameState, player game.PlayerID) []game.Action {
	tiles := boardTiles(s.Board)

	var enemies []string
	var everyone []string
	for _, u := range s.Units {
		if !u.Alive {
			continue
		}
		everyone = append(everyone, u.ID)
		if u.Owner != player {
			enemies = append(enemies, u.ID)
		}
	}

	var out []game.Action
	for _, u := range s.Units {
		if !u.Alive || u.Owner != player {
			continue
		}

		// 1. Moves.
		for _, p := range tiles {
			if game.Manhattan(u.Position, p) > 0 {
				out = append(out, game.Move(player, u.ID, p))
			}
		}

		// 2. Attacks on units and obstacles.
		for _, id := range enemies {
			out = append(out, game.Attack(player, u.ID, id))
		}
		for _, o := range s.Obstacles {
			out = append(out, game.AttackObstacle(player, u.ID, o.Position))
		}

		// 3. Move then attack.
		for _, p := range tiles {
			if game.Manhattan(u.Position, p) == 0 {
				continue
			}
			for _, id := range enemies {
				out = append(out, game.MoveAndAttack(player, u.ID, p, id))
			}
		}

		// 4. Skill.
		if u.Category == game.Hero && u.SkillID != "" {
			out = append(out, skillCandidates(u, tiles, everyone)...)
		}

		// 5. Pass.
		out = append(out, game.EndTurn(player, u.ID))
	}
	return out
}

func skillCandidates(u game.Unit, tiles []game.Position, units []string) []game.Action {
	def, ok := rules.LookupSkill(u.SkillID)
	if !ok {
		return nil
	}

	var base []game.Action
	switch def.Target {
	case rules.TargetSelf, rules.TargetAreaAroundSelf, rules.TargetAllEnemies, rules.TargetAllAllies:
		base = append(base, game.UseSkill(u.Owner, u.ID, nil, ""))
	case rules.TargetSingleEnemy, rules.TargetSingleAlly:
		for _, id := range units {
			base = append(base, game.UseSkill(u.Owner, u.ID, nil, id))
		}
	case rules.TargetSingleTile:
		// A placed beacon makes the skill target-free.
		if u.Beacon() != nil {
			base = append(base, game.UseSkill(u.Owner, u.ID, nil, ""))
			break
		}
		fallthrough
	case rules.TargetLine, rules.TargetAreaAroundTarget:
		for i := range tiles {
			base = append(base, game.UseSkill(u.Owner, u.ID, &tiles[i], ""))
		}
	}

	choices := def.BuffChoices()
	if len(choices) == 0 {
		return base
	}
	out := make([]game.Action, 0, len(base)*len(choices))
	for _, a := range base {
		for _, c := range choices {
			a := a.Clone()
			a.BuffChoice = c
			out = append(out, a)
		}
	}
	return out
}

// boardTiles lists every position row by row.
func boardTiles(b game.Board) []game.Position {
	out := make([]game.Position, 0, b.Width*b.Height)
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			out = append(out, game.Pos(x, y))
		}
	}
	return out
}
