package selfplay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/brensch/tactics/game"
	"github.com/brensch/tactics/rules"
	"github.com/brensch/tactics/store"
)

const (
	DefaultMaxSteps = 4000
	Source          = "selfplay"
)

var ErrNoLegalActions = errors.New("selfplay: no legal actions")

// Config fixes everything that decides a match. Two runs with the same
// Config produce byte-identical journals apart from RecordedNs.
type Config struct {
	MatchID  string
	Seed     int64
	MaxSteps int
	Settings rules.Settings
	// Setup is drawn from the seed when nil.
	Setup *game.MatchSetup
}

type GameResult struct {
	MatchID  string
	Winner   game.PlayerID
	Steps    int
	Rounds   int
	Finished bool
}

// Outcome of one PlayMatch call. Rows holds the initial state plus one row
// per accepted action.
type Outcome struct {
	Result GameResult
	Rows   []store.JournalRow
	Final  *game.GameState
}

// engineSeed and policySeed keep the engine's rolls independent of the
// policy's choices.
func engineSeed(seed int64) int64 { return seed }
func policySeed(seed int64) int64 { return seed ^ 0x5DEECE66D }

// RandomSetup draws hero classes, skills and minion types for both sides.
func RandomSetup(rng *rand.Rand) game.MatchSetup {
	classes := []game.HeroClass{game.Warrior, game.Mage, game.Rogue, game.Huntress, game.Duelist, game.Cleric}
	minions := []game.MinionType{game.Tank, game.Archer, game.Assassin}

	team := func() game.TeamSetup {
		class := classes[rng.Intn(len(classes))]
		skills := rules.SkillsForClass(class)
		return game.TeamSetup{
			HeroClass: class,
			SkillID:   skills[rng.Intn(len(skills))].ID,
			Minions:   [2]game.MinionType{minions[rng.Intn(len(minions))], minions[rng.Intn(len(minions))]},
		}
	}
	setup := game.MatchSetup{P1: team(), P2: team(), Starting: game.P1}
	if rng.Intn(2) == 1 {
		setup.Starting = game.P2
	}
	return setup
}

// PlayMatch runs one match to completion, MaxSteps, or ctx cancellation. A
// cancelled match returns ctx.Err() along with the rows played so far.
func PlayMatch(ctx context.Context, cfg Config, onStep func()) (Outcome, error) {
	if cfg.MatchID == "" {
		cfg.MatchID = uuid.NewString()
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}

	policy := rand.New(rand.NewSource(policySeed(cfg.Seed)))
	e := rules.NewEngine(rand.New(rand.NewSource(engineSeed(cfg.Seed))), rules.WithSettings(cfg.Settings))

	var setup game.MatchSetup
	if cfg.Setup != nil {
		setup = *cfg.Setup
	} else {
		setup = RandomSetup(policy)
	}
	state := game.NewStandardMatch(setup)

	rows := make([]store.JournalRow, 0, 256)
	row, err := store.NewJournalRow(cfg.MatchID, 0, nil, state, Source, cfg.Seed)
	if err != nil {
		return Outcome{}, err
	}
	rows = append(rows, row)

	result := func() GameResult {
		return GameResult{
			MatchID:  cfg.MatchID,
			Winner:   state.Winner,
			Steps:    len(rows) - 1,
			Rounds:   state.Round,
			Finished: state.GameOver,
		}
	}

	for step := 1; step <= cfg.MaxSteps && !state.GameOver; step++ {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return Outcome{Result: result(), Rows: rows, Final: state}, ctx.Err()
			default:
			}
		}

		legal := LegalActions(e, state)
		if len(legal) == 0 {
			return Outcome{Result: result(), Rows: rows, Final: state}, fmt.Errorf("%w: match %s step %d", ErrNoLegalActions, cfg.MatchID, step)
		}
		action := legal[policy.Intn(len(legal))]

		next, res := e.Step(state, action)
		if !res.Valid {
			return Outcome{Result: result(), Rows: rows, Final: state}, fmt.Errorf("match %s step %d: enumerated action rejected: %s", cfg.MatchID, step, res.Error)
		}
		state = next

		row, err := store.NewJournalRow(cfg.MatchID, step, &action, state, Source, cfg.Seed)
		if err != nil {
			return Outcome{Result: result(), Rows: rows, Final: state}, err
		}
		rows = append(rows, row)

		if onStep != nil {
			onStep()
		}
	}

	return Outcome{Result: result(), Rows: rows, Final: state}, nil
}

// Replay re-applies the journalled actions of one match to its initial state
// with a fresh engine seeded from the journal, and reports the first step
// whose recomputed state differs from the recorded one.
func Replay(rows []store.JournalRow, settings rules.Settings) error {
	if len(rows) == 0 {
		return nil
	}
	if rows[0].Step != 0 {
		return fmt.Errorf("replay %s: first row is step %d, want 0", rows[0].MatchID, rows[0].Step)
	}

	state, err := store.DecodeState(rows[0].State)
	if err != nil {
		return err
	}
	e := rules.NewEngine(rand.New(rand.NewSource(engineSeed(rows[0].Seed))), rules.WithSettings(settings))

	for _, row := range rows[1:] {
		action, err := store.DecodeAction(row.Action)
		if err != nil {
			return err
		}
		next, res := e.Step(state, action)
		if !res.Valid {
			return fmt.Errorf("replay %s step %d: %s", row.MatchID, row.Step, res.Error)
		}
		got, err := store.EncodeState(next)
		if err != nil {
			return err
		}
		if !bytes.Equal(got, row.State) {
			return fmt.Errorf("replay %s step %d: state diverged", row.MatchID, row.Step)
		}
		state = next
	}
	return nil
}

// SameJournal reports whether two journals agree on every step, ignoring
// wall-clock fields.
func SameJournal(a, b []store.JournalRow) error {
	if len(a) != len(b) {
		return fmt.Errorf("length %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Step != b[i].Step || !bytes.Equal(a[i].Action, b[i].Action) || !bytes.Equal(a[i].State, b[i].State) {
			return fmt.Errorf("step %d differs", a[i].Step)
		}
	}
	return nil
}
