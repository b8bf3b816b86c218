package game

type ActionKind string

const (
	ActionMove          ActionKind = "MOVE"
	ActionAttack        ActionKind = "ATTACK"
	ActionMoveAndAttack ActionKind = "MOVE_AND_ATTACK"
	ActionUseSkill      ActionKind = "USE_SKILL"
	ActionEndTurn       ActionKind = "END_TURN"
	ActionDeathChoice   ActionKind = "DEATH_CHOICE"
)

// Action is a proposed player input. Which fields matter depends on Kind:
//
//	MOVE             UnitID, Target
//	ATTACK           UnitID, TargetUnitID (or Target for an obstacle)
//	MOVE_AND_ATTACK  UnitID, Target (destination), TargetUnitID
//	USE_SKILL        UnitID, Target and/or TargetUnitID, BuffChoice
//	END_TURN         UnitID (empty ends every remaining unit)
//	DEATH_CHOICE     DeathChoice
type Action struct {
	Kind         ActionKind      `json:"type"`
	Player       PlayerID        `json:"playerId"`
	UnitID       string          `json:"unitId,omitempty"`
	Target       *Position       `json:"target,omitempty"`
	TargetUnitID string          `json:"targetUnitId,omitempty"`
	BuffChoice   BuffType        `json:"buffChoice,omitempty"`
	DeathChoice  DeathChoiceType `json:"deathChoice,omitempty"`
}

func (a Action) Clone() Action {
	if a.Target != nil {
		t := *a.Target
		a.Target = &t
	}
	return a
}

func Move(player PlayerID, unitID string, to Position) Action {
	return Action{Kind: ActionMove, Player: player, UnitID: unitID, Target: &to}
}

func Attack(player PlayerID, unitID, targetUnitID string) Action {
	return Action{Kind: ActionAttack, Player: player, UnitID: unitID, TargetUnitID: targetUnitID}
}

func AttackObstacle(player PlayerID, unitID string, at Position) Action {
	return Action{Kind: ActionAttack, Player: player, UnitID: unitID, Target: &at}
}

func MoveAndAttack(player PlayerID, unitID string, to Position, targetUnitID string) Action {
	return Action{Kind: ActionMoveAndAttack, Player: player, UnitID: unitID, Target: &to, TargetUnitID: targetUnitID}
}

// UseSkill builds a skill action. Pass nil target for SELF and ALL_* skills.
func UseSkill(player PlayerID, unitID string, target *Position, targetUnitID string) Action {
	a := Action{Kind: ActionUseSkill, Player: player, UnitID: unitID, TargetUnitID: targetUnitID}
	if target != nil {
		t := *target
		a.Target = &t
	}
	return a
}

func EndTurn(player PlayerID, unitID string) Action {
	return Action{Kind: ActionEndTurn, Player: player, UnitID: unitID}
}

func ResolveDeath(player PlayerID, choice DeathChoiceType) Action {
	return Action{Kind: ActionDeathChoice, Player: player, DeathChoice: choice}
}
