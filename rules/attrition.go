package rules

import (
	"github.com/brensch/tactics/game"
)

// Settings holds the late-game attrition knobs applied at every round end:
//   - MinionDecayFromRound: from this round on, every living minion loses 1 HP
//   - PressureFromRound: from this round on, every living unit loses 1 HP
//
// A value of 0 disables the rule. Attrition keeps stalled matches finite.
type Settings struct {
	MinionDecayFromRound int `json:"minionDecayFromRound"`
	PressureFromRound    int `json:"pressureFromRound"`
}

var DefaultSettings = Settings{MinionDecayFromRound: 3, PressureFromRound: 8}

// NoAttrition disables both rules; tests that count HP across rounds use it.
var NoAttrition = Settings{}

func applyAttrition(state *game.GameState, settings Settings) {
	if settings.MinionDecayFromRound > 0 && state.Round >= settings.MinionDecayFromRound {
		for _, id := range state.SortedUnitIDs() {
			u := state.Unit(id)
			if u.Alive && u.Category == game.Minion {
				damageUnit(state, id, 1)
			}
		}
	}
	if settings.PressureFromRound > 0 && state.Round >= settings.PressureFromRound {
		for _, id := range state.SortedUnitIDs() {
			if state.Unit(id).Alive {
				damageUnit(state, id, 1)
			}
		}
	}
}
