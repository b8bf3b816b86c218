// Command debugmatch plays one seeded match and prints every transition with
// a rendering of the board.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/brensch/tactics/game"
	"github.com/brensch/tactics/rules"
	"github.com/brensch/tactics/selfplay"
	"github.com/brensch/tactics/store"
)

func main() {
	seed := flag.Int64("seed", 1, "Match seed")
	maxSteps := flag.Int("max-steps", 400, "Abandon the match after this many actions")
	standard := flag.Bool("standard", false, "Use the default line-up instead of a seeded random draft")
	noAttrition := flag.Bool("no-attrition", false, "Disable minion decay and end-game pressure")
	outDir := flag.String("out-dir", "", "If set, write the journal here as a parquet shard")
	viewerHost := flag.String("viewer", "http://127.0.0.1:8081", "Viewer base URL")
	flag.Parse()

	settings := rules.DefaultSettings
	if *noAttrition {
		settings = rules.NoAttrition
	}
	cfg := selfplay.Config{
		MatchID:  fmt.Sprintf("debug_%d", *seed),
		Seed:     *seed,
		MaxSteps: *maxSteps,
		Settings: settings,
	}
	if *standard {
		setup := game.DefaultMatchSetup()
		cfg.Setup = &setup
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	log.Printf("Playing debug match %s (seed=%d)", cfg.MatchID, *seed)
	out, err := selfplay.PlayMatch(ctx, cfg, nil)
	if err != nil {
		log.Printf("Match stopped early: %v", err)
	}

	for _, row := range out.Rows {
		state, err := store.DecodeState(row.State)
		if err != nil {
			log.Fatalf("step %d: %v", row.Step, err)
		}
		if row.Step == 0 {
			fmt.Println("Initial state")
		} else {
			action, err := store.DecodeAction(row.Action)
			if err != nil {
				log.Fatalf("step %d: %v", row.Step, err)
			}
			fmt.Printf("Step %3d | %s\n", row.Step, describe(action))
		}
		fmt.Println(selfplay.RenderBoard(state))
	}

	res := out.Result
	winner := string(res.Winner)
	if !res.Finished {
		winner = "none (unfinished)"
	} else if winner == "" {
		winner = "draw"
	}
	log.Printf("Match complete: %d steps, %d rounds, winner: %s", res.Steps, res.Rounds, winner)

	if err := selfplay.Replay(out.Rows, settings); err != nil {
		log.Fatalf("Replay check failed: %v", err)
	}
	log.Printf("Replay check ok")

	if *outDir == "" {
		return
	}
	path, err := store.WriteJournalBatch(*outDir, out.Rows)
	if err != nil {
		log.Fatalf("Failed to write journal: %v", err)
	}
	log.Printf("Journal written to: %s", path)

	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Printf("  Debug match ready:\n")
	fmt.Printf("  %s/api/matches/%s\n", *viewerHost, cfg.MatchID)
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println()
}

func describe(a game.Action) string {
	s := fmt.Sprintf("%s %s", a.Player, a.Kind)
	if a.UnitID != "" {
		s += " " + a.UnitID
	}
	if a.Target != nil {
		s += fmt.Sprintf(" -> (%d,%d)", a.Target.X, a.Target.Y)
	}
	if a.TargetUnitID != "" {
		s += " @" + a.TargetUnitID
	}
	if a.BuffChoice != "" {
		s += " buff=" + string(a.BuffChoice)
	}
	if a.DeathChoice != "" {
		s += " choice=" + string(a.DeathChoice)
	}
	return s
}
