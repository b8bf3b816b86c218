// Command soak plays random-policy matches in parallel against the rules
// engine, journals them to Parquet and optionally checks that every match is
// reproducible from its seed.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/brensch/tactics/logging"
	"github.com/brensch/tactics/rules"
	"github.com/brensch/tactics/selfplay"
)

func main() {
	outDir := flag.String("out-dir", getEnvOrDefault("SOAK_OUT_DIR", "data/journal"), "Output directory for journal parquet shards")
	matchLogPath := flag.String("match-log", getEnvOrDefault("SOAK_MATCH_LOG", "data/journal/played.log"), "Append-only log of flushed match IDs (empty disables)")
	workers := flag.Int("workers", getEnvIntOrDefault("SOAK_WORKERS", runtime.NumCPU()), "Number of self-play workers")
	matchesPerFlush := flag.Int("matches-per-flush", getEnvIntOrDefault("SOAK_MATCHES_PER_FLUSH", 50), "Number of matches per journal shard")
	flushEvery := flag.Duration("flush-every", getEnvDurationOrDefault("SOAK_FLUSH_EVERY", time.Minute), "Flush the current shard at this interval")
	maxMatches := flag.Int64("max-matches", int64(getEnvIntOrDefault("SOAK_MAX_MATCHES", 0)), "If > 0, stop after this many matches")
	maxSteps := flag.Int("max-steps", getEnvIntOrDefault("SOAK_MAX_STEPS", selfplay.DefaultMaxSteps), "Abandon a match after this many actions")
	seed := flag.Int64("seed", int64(getEnvIntOrDefault("SOAK_SEED", 0)), "Base seed; match i uses seed+i (0 seeds from the clock)")
	decayRound := flag.Int("minion-decay-round", getEnvIntOrDefault("SOAK_MINION_DECAY_ROUND", rules.DefaultSettings.MinionDecayFromRound), "First round of minion decay (0 disables)")
	pressureRound := flag.Int("pressure-round", getEnvIntOrDefault("SOAK_PRESSURE_ROUND", rules.DefaultSettings.PressureFromRound), "First round of end-game pressure (0 disables)")
	verify := flag.Bool("verify", getEnvBoolOrDefault("SOAK_VERIFY", true), "Replay every journal and play each seed twice")
	failFast := flag.Bool("fail-fast", getEnvBoolOrDefault("SOAK_FAIL_FAST", false), "Stop the run on the first failed match")
	useTUI := flag.Bool("tui", getEnvBoolOrDefault("SOAK_TUI", true), "Show the interactive dashboard")
	logPath := flag.String("log-file", getEnvOrDefault("SOAK_LOG_FILE", "soak.log"), "Log file used while the dashboard is shown")
	logLevel := flag.String("log-level", getEnvOrDefault("SOAK_LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	flag.Parse()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	// Redirect logs to file to avoid messing up the TUI.
	logOut := os.Stderr
	if *useTUI {
		f, err := os.OpenFile(*logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("error opening log file: %v", err)
		}
		defer f.Close()
		logOut = f
		log.SetOutput(f)
	}
	logger, err := logging.New(logOut, *logLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	cfg := runConfig{
		OutDir:          *outDir,
		MatchLogPath:    *matchLogPath,
		Workers:         *workers,
		MatchesPerFlush: *matchesPerFlush,
		FlushEvery:      *flushEvery,
		MaxMatches:      *maxMatches,
		MaxSteps:        *maxSteps,
		BaseSeed:        *seed,
		Settings: rules.Settings{
			MinionDecayFromRound: *decayRound,
			PressureFromRound:    *pressureRound,
		},
		Verify:   *verify,
		FailFast: *failFast,
	}
	logger.Info("starting soak",
		"outDir", cfg.OutDir,
		"workers", cfg.Workers,
		"seed", cfg.BaseSeed,
		"maxMatches", cfg.MaxMatches,
		"verify", cfg.Verify,
	)

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	updates := make(chan MatchUpdate, cfg.Workers)
	r := newRunner(cfg, logger, updates)
	runDone := make(chan error, 1)

	if !*useTUI {
		go func() { runDone <- r.Run(ctx) }()
		os.Exit(logLoop(r, updates, runDone))
	}

	p := tea.NewProgram(initialModel(r, updates), tea.WithAltScreen())
	go func() {
		err := r.Run(ctx)
		runDone <- err
		p.Send(runDoneMsg{err: err})
	}()
	if _, err := p.Run(); err != nil {
		logger.Error("tui", "err", err)
	}

	cancel()
	logger.Info("shutdown requested; waiting for workers to finish current matches")
	err = <-runDone
	st := r.stats()
	fmt.Printf("matches=%d finished=%d failures=%d moves=%d flushes=%d\n", st.Matches, st.Finished, st.Failures, st.Moves, st.Flushes)
	if err != nil || st.Failures > 0 {
		if err != nil {
			fmt.Fprintf(os.Stderr, "soak: %v\n", err)
		}
		os.Exit(1)
	}
}

// logLoop is the headless replacement for the dashboard. It returns the
// process exit code.
func logLoop(r *runner, updates <-chan MatchUpdate, runDone <-chan error) int {
	startTime := time.Now()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case err := <-runDone:
			st := r.stats()
			log.Printf("Soak complete: matches=%d finished=%d failures=%d moves=%d flushes=%d", st.Matches, st.Finished, st.Failures, st.Moves, st.Flushes)
			if err != nil {
				log.Printf("Soak stopped: %v", err)
				return 1
			}
			if st.Failures > 0 {
				return 1
			}
			return 0
		case u := <-updates:
			if u.Err != nil {
				log.Printf("Worker %d: %s failed: %v", u.WorkerID, u.Result.MatchID, u.Err)
			}
		case <-ticker.C:
			st := r.stats()
			secs := time.Since(startTime).Seconds()
			log.Printf("Stats: matches=%d (%.2f/s) moves=%d (%.2f/s) failures=%d", st.Matches, float64(st.Matches)/secs, st.Moves, float64(st.Moves)/secs, st.Failures)
		}
	}
}

// Environment variable helpers
func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		var i int
		if _, err := fmt.Sscanf(val, "%d", &i); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}
