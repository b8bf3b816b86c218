package rules

import (
	"fmt"
	"strings"

	"github.com/brensch/tactics/game"
)

// Validate reports whether action is legal in state. It never modifies state.
func (e *Engine) Validate(state *game.GameState, action game.Action) ValidationResult {
	if state.GameOver {
		return invalid("Game is already over")
	}

	if pending := state.PendingDeathChoice(); pending != nil {
		if action.Kind != game.ActionDeathChoice {
			return invalid("Must resolve pending death choice first")
		}
		if action.Player != pending.Owner {
			return invalid("Not your death choice")
		}
		switch action.DeathChoice {
		case "":
			return invalid("Death choice type is required")
		case game.SpawnObstacle, game.SpawnBuffTile:
			return ok()
		default:
			return invalid("Unknown death choice type: " + string(action.DeathChoice))
		}
	}
	if action.Kind == game.ActionDeathChoice {
		return invalid("No pending death choice")
	}

	if action.Player != state.CurrentPlayer {
		return invalid("Not your turn")
	}

	switch action.Kind {
	case game.ActionEndTurn:
		if action.UnitID == "" {
			return ok()
		}
		u := state.Unit(action.UnitID)
		if res := checkActingUnit(state, action.Player, u); !res.Valid {
			return res
		}
		return ok()
	case game.ActionMove, game.ActionAttack, game.ActionMoveAndAttack, game.ActionUseSkill:
	default:
		return invalid("Invalid action type")
	}

	unitID, res := inferActingUnit(state, action)
	if !res.Valid {
		return res
	}
	u := state.Unit(unitID)
	if res := checkActingUnit(state, action.Player, u); !res.Valid {
		return res
	}
	if u.Preparing {
		return invalid("Unit is already preparing an action")
	}
	return validateUnitAction(state, action, u)
}

func checkActingUnit(state *game.GameState, player game.PlayerID, u *game.Unit) ValidationResult {
	switch {
	case u == nil:
		return invalid("Unit not found")
	case !u.Alive:
		return invalid("Unit is dead")
	case u.Owner != player:
		return invalid("Cannot control opponent's unit")
	case !canAct(state, u):
		return invalid("Unit has no remaining actions this turn")
	}
	return ok()
}

// inferActingUnit returns the acting unit's ID, picking the only eligible
// unit when the action leaves it empty.
func inferActingUnit(state *game.GameState, a game.Action) (string, ValidationResult) {
	if a.UnitID != "" {
		return a.UnitID, ok()
	}

	var candidates []string
	switch a.Kind {
	case game.ActionMove, game.ActionMoveAndAttack:
		if a.Target == nil {
			return "", invalid(fmt.Sprintf("Target position is required for %s", a.Kind))
		}
		for _, u := range state.LivingUnits(a.Player) {
			if withinLine(u.Position, *a.Target, u.MoveRange) {
				candidates = append(candidates, u.ID)
			}
		}
		if len(candidates) == 0 {
			return "", invalid("No valid unit can move to target position")
		}
		if len(candidates) > 1 {
			return "", invalid("Ambiguous move")
		}
	case game.ActionAttack:
		at, found := attackTargetPosition(state, a)
		if !found {
			return "", invalid("Target unit ID is required for ATTACK")
		}
		for _, u := range state.LivingUnits(a.Player) {
			if withinLine(u.Position, at, u.AttackRange) {
				candidates = append(candidates, u.ID)
			}
		}
		if len(candidates) == 0 {
			return "", invalid("No attacker in range of target")
		}
		if len(candidates) > 1 {
			return "", invalid("Ambiguous attacker")
		}
	default:
		return "", invalid(fmt.Sprintf("Acting unit ID is required for %s", a.Kind))
	}
	return candidates[0], ok()
}

func attackTargetPosition(state *game.GameState, a game.Action) (game.Position, bool) {
	if a.TargetUnitID != "" {
		if t := state.Unit(a.TargetUnitID); t != nil {
			return t.Position, true
		}
		return game.Position{}, false
	}
	if a.Target != nil {
		return *a.Target, true
	}
	return game.Position{}, false
}

// withinLine reports whether to lies on a straight line from from, at a
// distance between 1 and reach.
func withinLine(from, to game.Position, reach int) bool {
	if !game.InStraightLine(from, to) {
		return false
	}
	d := game.Manhattan(from, to)
	return d >= 1 && d <= reach
}

// validateUnitAction checks the kind-specific rules for an acting unit whose
// turn and action budget were already checked. Deferred actions are
// re-checked through here before they execute.
func validateUnitAction(state *game.GameState, a game.Action, u *game.Unit) ValidationResult {
	mods := ComputeModifiers(state, u.ID)
	switch a.Kind {
	case game.ActionMove:
		return validateMove(state, a, u, mods)
	case game.ActionAttack:
		return validateAttack(state, a, u, mods)
	case game.ActionMoveAndAttack:
		return validateMoveAndAttack(state, a, u, mods)
	case game.ActionUseSkill:
		return validateSkill(state, a, u, mods)
	}
	return invalid("Invalid action type")
}

func validateMove(state *game.GameState, a game.Action, u *game.Unit, mods game.Modifiers) ValidationResult {
	if mods.Stunned {
		return invalid("Unit is stunned")
	}
	if mods.Rooted {
		return invalid("Unit is rooted")
	}
	if a.Target == nil {
		return invalid("Target position is required for MOVE")
	}
	return checkDestination(state, u, *a.Target)
}

func checkDestination(state *game.GameState, u *game.Unit, to game.Position) ValidationResult {
	if !state.Board.Contains(to) {
		return invalid("Target position is outside the board")
	}
	if !withinLine(u.Position, to, u.MoveRange) {
		return invalid(fmt.Sprintf("Target is out of move range (range: %d)", u.MoveRange))
	}
	if state.Blocked(to) {
		return invalid("Target tile is occupied")
	}
	return ok()
}

func checkAttacker(mods game.Modifiers) ValidationResult {
	if mods.Stunned {
		return invalid("Unit is stunned")
	}
	if mods.Blinded {
		return invalid("Unit is blinded and cannot attack")
	}
	if mods.Disarmed {
		return invalid("Unit is invulnerable and cannot attack")
	}
	return ok()
}

func checkAttackTarget(state *game.GameState, player game.PlayerID, targetID string) (*game.Unit, ValidationResult) {
	t := state.Unit(targetID)
	switch {
	case t == nil:
		return nil, invalid("Target unit not found")
	case !t.Alive:
		return nil, invalid("Target unit is dead")
	case t.Owner == player:
		return nil, invalid("Cannot attack own unit")
	case t.Invisible:
		return nil, invalid("Cannot target invisible unit")
	}
	return t, ok()
}

func validateAttack(state *game.GameState, a game.Action, u *game.Unit, mods game.Modifiers) ValidationResult {
	if res := checkAttacker(mods); !res.Valid {
		return res
	}

	if a.TargetUnitID == "" {
		if a.Target == nil {
			return invalid("Target unit ID is required for ATTACK")
		}
		if state.ObstacleAt(*a.Target) < 0 {
			return invalid("No obstacle at target position")
		}
		if !withinLine(u.Position, *a.Target, u.AttackRange) {
			return invalid(fmt.Sprintf("Target is out of attack range (range: %d)", u.AttackRange))
		}
		return ok()
	}

	t, res := checkAttackTarget(state, a.Player, a.TargetUnitID)
	if !res.Valid {
		return res
	}
	if a.Target != nil && *a.Target != t.Position {
		return invalid("Target position does not match target unit position")
	}
	if !withinLine(u.Position, t.Position, u.AttackRange) {
		return invalid(fmt.Sprintf("Target is out of attack range (range: %d)", u.AttackRange))
	}
	return ok()
}

func validateMoveAndAttack(state *game.GameState, a game.Action, u *game.Unit, mods game.Modifiers) ValidationResult {
	if mods.Stunned {
		return invalid("Unit is stunned")
	}
	if mods.Rooted {
		return invalid("Unit is rooted")
	}
	if res := checkAttacker(mods); !res.Valid {
		return res
	}
	if mods.NoMoveAndAttack {
		return invalid("Unit cannot use MOVE_AND_ATTACK with Power buff")
	}
	if a.Target == nil {
		return invalid("Target position is required for MOVE_AND_ATTACK")
	}
	if a.TargetUnitID == "" {
		return invalid("Target unit ID is required for MOVE_AND_ATTACK")
	}
	if res := checkDestination(state, u, *a.Target); !res.Valid {
		return res
	}
	t, res := checkAttackTarget(state, a.Player, a.TargetUnitID)
	if !res.Valid {
		return res
	}
	if !withinLine(*a.Target, t.Position, u.AttackRange) {
		return invalid("Target not in range after movement")
	}
	return ok()
}

func validateSkill(state *game.GameState, a game.Action, u *game.Unit, mods game.Modifiers) ValidationResult {
	if u.Category != game.Hero {
		return invalid("Only Heroes can use skills")
	}
	if u.SkillID == "" {
		return invalid("Hero has no skill selected")
	}
	def, found := LookupSkill(u.SkillID)
	if !found {
		return invalid("Invalid skill ID: " + u.SkillID)
	}
	if def.Class != u.HeroClass {
		return invalid("Hero class cannot use this skill")
	}
	if u.SkillCooldown > 0 {
		return invalid(fmt.Sprintf("Skill is on cooldown (%d rounds remaining)", u.SkillCooldown))
	}
	if mods.Stunned {
		return invalid("Stunned units cannot use skills")
	}
	if mods.Rooted && def.Category == CategoryMovement {
		return invalid("Rooted units cannot use movement skills")
	}
	if mods.Disarmed && def.Category == CategoryDamage {
		return invalid("Invulnerable units cannot use damaging skills")
	}

	if eff, chosen := def.chosenBuffEffect(); chosen && a.BuffChoice != "" && !containsBuff(eff.Choices, a.BuffChoice) {
		names := make([]string, len(eff.Choices))
		for i, c := range eff.Choices {
			names[i] = string(c)
		}
		return invalid("Chosen buff must be one of " + strings.Join(names, ", "))
	}

	return validateSkillTarget(state, a, u, def)
}

func containsBuff(list []game.BuffType, t game.BuffType) bool {
	for _, b := range list {
		if b == t {
			return true
		}
	}
	return false
}

func outOfRange(def SkillDef) ValidationResult {
	return invalid(fmt.Sprintf("Target is out of range (range: %d)", def.Range))
}

func validateSkillTarget(state *game.GameState, a game.Action, u *game.Unit, def SkillDef) ValidationResult {
	switch def.Target {
	case TargetSelf, TargetAreaAroundSelf, TargetAllEnemies, TargetAllAllies:
		return ok()

	case TargetSingleEnemy, TargetSingleAlly:
		if a.TargetUnitID == "" {
			return invalid("Target unit ID is required for this skill")
		}
		t := state.Unit(a.TargetUnitID)
		if t == nil {
			return invalid("Target unit not found")
		}
		if !t.Alive {
			return invalid("Target unit is dead")
		}
		if def.Target == TargetSingleEnemy {
			if t.Owner == u.Owner {
				return invalid("Target must be an enemy unit")
			}
			if t.Invisible {
				return invalid("Cannot target invisible unit")
			}
		} else if t.Owner != u.Owner {
			return invalid("Target must be a friendly unit")
		}
		if game.Manhattan(u.Position, t.Position) > def.Range {
			return outOfRange(def)
		}
		return ok()

	case TargetSingleTile:
		if def.ID == game.SkillWarpBeacon {
			if b := u.Beacon(); b != nil {
				if state.Blocked(b.Position) {
					return invalid("Cannot teleport - beacon position is blocked")
				}
				return ok()
			}
		}
		if a.Target == nil {
			return invalid("Target position is required for this skill")
		}
		if !state.Board.Contains(*a.Target) {
			return invalid("Target position is outside the board")
		}
		if game.Manhattan(u.Position, *a.Target) > def.Range {
			return outOfRange(def)
		}
		if state.Blocked(*a.Target) {
			return invalid("Target tile is blocked")
		}
		return ok()

	case TargetLine:
		if a.Target == nil {
			return invalid("Target position is required for LINE skill")
		}
		if !state.Board.Contains(*a.Target) {
			return invalid("Target position is outside the board")
		}
		if !game.InStraightLine(u.Position, *a.Target) {
			return invalid("Target must be in a straight line")
		}
		if game.Manhattan(u.Position, *a.Target) > def.Range {
			return outOfRange(def)
		}
		return ok()

	case TargetAreaAroundTarget:
		if a.Target == nil {
			return invalid("Target position is required for this skill")
		}
		if !state.Board.Contains(*a.Target) {
			return invalid("Target position is outside the board")
		}
		if game.Manhattan(u.Position, *a.Target) > def.Range {
			return outOfRange(def)
		}
		return ok()
	}
	return invalid("Unknown target type: " + string(def.Target))
}
