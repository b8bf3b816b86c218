package server

import (
	"encoding/json"
	"fmt"

	"github.com/brensch/tactics/game"
)

// Message types on the wire.
const (
	TypeJoinMatch          = "join_match"
	TypeAction             = "action"
	TypeMatchJoined        = "match_joined"
	TypeGameReady          = "game_ready"
	TypeStateUpdate        = "state_update"
	TypeGameOver           = "game_over"
	TypeValidationError    = "validation_error"
	TypePlayerDisconnected = "player_disconnected"
)

// Envelope is every frame in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type JoinMatchRequest struct {
	MatchID string `json:"matchId"`
}

type ActionRequest struct {
	MatchID  string         `json:"matchId"`
	PlayerID string         `json:"playerId"`
	Action   *ActionPayload `json:"action"`
}

// ActionPayload is the client's view of an action. The acting player always
// comes from the connection.
type ActionPayload struct {
	Type         string `json:"type"`
	UnitID       string `json:"unitId,omitempty"`
	TargetX      *int   `json:"targetX,omitempty"`
	TargetY      *int   `json:"targetY,omitempty"`
	TargetUnitID string `json:"targetUnitId,omitempty"`
	BuffChoice   string `json:"buffChoice,omitempty"`
	DeathChoice  string `json:"deathChoice,omitempty"`
}

type MatchJoinedPayload struct {
	MatchID  string          `json:"matchId"`
	PlayerID game.PlayerID   `json:"playerId"`
	State    *game.GameState `json:"state"`
}

type GameReadyPayload struct {
	Message string `json:"message"`
}

type StateUpdatePayload struct {
	State *game.GameState `json:"state"`
}

type GameOverPayload struct {
	Winner game.PlayerID   `json:"winner,omitempty"`
	State  *game.GameState `json:"state"`
}

type ValidationErrorPayload struct {
	Message string         `json:"message"`
	Action  *ActionPayload `json:"action,omitempty"`
}

type PlayerDisconnectedPayload struct {
	PlayerID game.PlayerID `json:"playerId"`
}

var actionKinds = map[string]game.ActionKind{
	string(game.ActionMove):          game.ActionMove,
	string(game.ActionAttack):        game.ActionAttack,
	string(game.ActionMoveAndAttack): game.ActionMoveAndAttack,
	string(game.ActionUseSkill):      game.ActionUseSkill,
	string(game.ActionEndTurn):       game.ActionEndTurn,
	string(game.ActionDeathChoice):   game.ActionDeathChoice,
}

// ToAction builds the engine action for player. It reports false for an
// unknown type. A target needs both coordinates.
func (p ActionPayload) ToAction(player game.PlayerID) (game.Action, bool) {
	kind, ok := actionKinds[p.Type]
	if !ok {
		return game.Action{}, false
	}
	a := game.Action{
		Kind:         kind,
		Player:       player,
		UnitID:       p.UnitID,
		TargetUnitID: p.TargetUnitID,
		BuffChoice:   game.BuffType(p.BuffChoice),
		DeathChoice:  game.DeathChoiceType(p.DeathChoice),
	}
	if p.TargetX != nil && p.TargetY != nil {
		t := game.Pos(*p.TargetX, *p.TargetY)
		a.Target = &t
	}
	return a, true
}

// PayloadFromAction is the inverse of ToAction, minus the player.
func PayloadFromAction(a game.Action) ActionPayload {
	p := ActionPayload{
		Type:         string(a.Kind),
		UnitID:       a.UnitID,
		TargetUnitID: a.TargetUnitID,
		BuffChoice:   string(a.BuffChoice),
		DeathChoice:  string(a.DeathChoice),
	}
	if a.Target != nil {
		x, y := a.Target.X, a.Target.Y
		p.TargetX, p.TargetY = &x, &y
	}
	return p
}

func encode(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", msgType, err)
		}
		raw = b
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}

// DecodePayload unmarshals an envelope's payload into T.
func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.Payload) == 0 {
		return out, fmt.Errorf("%s: empty payload", env.Type)
	}
	if err := json.Unmarshal(env.Payload, &out); err != nil {
		return out, fmt.Errorf("decode %s payload: %w", env.Type, err)
	}
	return out, nil
}
