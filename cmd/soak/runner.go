package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/brensch/tactics/rules"
	"github.com/brensch/tactics/selfplay"
	"github.com/brensch/tactics/store"
)

type runConfig struct {
	OutDir          string
	MatchLogPath    string
	Workers         int
	MatchesPerFlush int
	FlushEvery      time.Duration
	// MaxMatches stops the run after this many matches; zero runs until
	// cancelled.
	MaxMatches int64
	MaxSteps   int
	BaseSeed   int64
	Settings   rules.Settings
	// Verify replays every journal and plays each seed twice.
	Verify   bool
	FailFast bool
}

type MatchUpdate struct {
	WorkerID int
	Result   selfplay.GameResult
	Rows     int
	Verified bool
	Err      error
}

type runner struct {
	cfg     runConfig
	log     *slog.Logger
	updates chan<- MatchUpdate

	nextSeed atomic.Int64
	claimed  atomic.Int64

	moves    atomic.Int64
	matches  atomic.Int64
	finished atomic.Int64
	failures atomic.Int64
	skipped  atomic.Int64
	flushes  atomic.Int64
}

func newRunner(cfg runConfig, logger *slog.Logger, updates chan<- MatchUpdate) *runner {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MatchesPerFlush <= 0 {
		cfg.MatchesPerFlush = 50
	}
	if cfg.FlushEvery <= 0 {
		cfg.FlushEvery = time.Minute
	}
	return &runner{cfg: cfg, log: logger, updates: updates}
}

func matchIDForSeed(seed int64) string {
	return fmt.Sprintf("soak_%d", seed)
}

// Run plays matches until ctx is cancelled, MaxMatches is reached, or a
// worker fails with FailFast set. Completed matches are always flushed.
func (r *runner) Run(ctx context.Context) error {
	var matchLog *store.MatchLog
	if r.cfg.MatchLogPath != "" {
		ml, err := store.OpenMatchLog(r.cfg.MatchLogPath)
		if err != nil {
			return err
		}
		defer ml.Close()
		matchLog = ml
		r.log.Info("match log opened", "path", r.cfg.MatchLogPath, "recorded", ml.Count())
	}

	results := make(chan []store.JournalRow, r.cfg.Workers*4)

	g, gctx := errgroup.WithContext(ctx)
	workers, wctx := errgroup.WithContext(gctx)
	for i := 0; i < r.cfg.Workers; i++ {
		workerID := i
		workers.Go(func() error {
			return r.work(wctx, workerID, matchLog, results)
		})
	}
	g.Go(func() error {
		defer close(results)
		return workers.Wait()
	})
	g.Go(func() error {
		return r.flushLoop(results, matchLog)
	})
	return g.Wait()
}

func (r *runner) work(ctx context.Context, workerID int, matchLog *store.MatchLog, out chan<- []store.JournalRow) error {
	r.log.Debug("worker started", "worker", workerID)
	for {
		if ctx.Err() != nil {
			return nil
		}
		seed := r.cfg.BaseSeed + r.nextSeed.Add(1)
		id := matchIDForSeed(seed)
		if matchLog != nil && matchLog.Has(id) {
			r.skipped.Add(1)
			continue
		}
		if r.cfg.MaxMatches > 0 && r.claimed.Add(1) > r.cfg.MaxMatches {
			return nil
		}

		update, rows, err := r.playOne(ctx, workerID, id, seed)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		if err != nil {
			r.failures.Add(1)
			r.log.Error("match failed", "worker", workerID, "matchId", id, "seed", seed, "err", err)
			update.Err = err
			r.publish(update)
			if r.cfg.FailFast {
				return err
			}
			continue
		}

		select {
		case out <- rows:
		case <-ctx.Done():
			return nil
		}
		r.matches.Add(1)
		if update.Result.Finished {
			r.finished.Add(1)
		}
		r.log.Debug("match complete",
			"worker", workerID,
			"matchId", id,
			"winner", string(update.Result.Winner),
			"steps", update.Result.Steps,
			"rounds", update.Result.Rounds,
		)
		r.publish(update)
	}
}

func (r *runner) playOne(ctx context.Context, workerID int, id string, seed int64) (MatchUpdate, []store.JournalRow, error) {
	cfg := selfplay.Config{
		MatchID:  id,
		Seed:     seed,
		MaxSteps: r.cfg.MaxSteps,
		Settings: r.cfg.Settings,
	}
	update := MatchUpdate{WorkerID: workerID}

	out, err := selfplay.PlayMatch(ctx, cfg, func() { r.moves.Add(1) })
	update.Result = out.Result
	update.Rows = len(out.Rows)
	if err != nil {
		return update, nil, err
	}

	if r.cfg.Verify {
		if err := selfplay.Replay(out.Rows, r.cfg.Settings); err != nil {
			return update, nil, fmt.Errorf("replay: %w", err)
		}
		again, err := selfplay.PlayMatch(ctx, cfg, nil)
		if err != nil {
			return update, nil, err
		}
		if err := selfplay.SameJournal(out.Rows, again.Rows); err != nil {
			return update, nil, fmt.Errorf("nondeterministic: %w", err)
		}
		update.Verified = true
	}
	return update, out.Rows, nil
}

func (r *runner) publish(u MatchUpdate) {
	if r.updates == nil {
		return
	}
	// Avoid blocking workers if the UI loop stops consuming.
	select {
	case r.updates <- u:
	default:
	}
}

// flushLoop drains in into journal shards, rotating the writer after
// MatchesPerFlush matches or every FlushEvery.
func (r *runner) flushLoop(in <-chan []store.JournalRow, matchLog *store.MatchLog) error {
	ticker := time.NewTicker(r.cfg.FlushEvery)
	defer ticker.Stop()

	var w *store.JournalWriter
	var ids []string

	flush := func(reason string) error {
		if w == nil {
			return nil
		}
		path, matches, rows, err := w.Finalize()
		w = nil
		if err != nil {
			return fmt.Errorf("flush journal: %w", err)
		}
		if matches == 0 {
			return nil
		}
		if matchLog != nil {
			if err := matchLog.Add(ids...); err != nil {
				// The shard is written; a missing log entry only costs a replayed seed.
				r.log.Warn("match log append failed", "err", err)
			}
		}
		ids = ids[:0]
		r.flushes.Add(1)
		r.log.Info("journal flushed", "reason", reason, "path", path, "matches", matches, "rows", rows)
		return nil
	}

	for {
		select {
		case rows, ok := <-in:
			if !ok {
				return flush("final")
			}
			if len(rows) == 0 {
				continue
			}
			if w == nil {
				nw, err := store.NewJournalWriter(r.cfg.OutDir)
				if err != nil {
					return err
				}
				w = nw
			}
			if err := w.WriteMatch(rows); err != nil {
				return err
			}
			ids = append(ids, rows[0].MatchID)
			if matches, _ := w.Buffered(); matches >= r.cfg.MatchesPerFlush {
				if err := flush("count"); err != nil {
					return err
				}
			}
		case <-ticker.C:
			if err := flush("ticker"); err != nil {
				return err
			}
		}
	}
}

type runStats struct {
	Moves    int64
	Matches  int64
	Finished int64
	Failures int64
	Skipped  int64
	Flushes  int64
}

func (r *runner) stats() runStats {
	return runStats{
		Moves:    r.moves.Load(),
		Matches:  r.matches.Load(),
		Finished: r.finished.Load(),
		Failures: r.failures.Load(),
		Skipped:  r.skipped.Load(),
		Flushes:  r.flushes.Load(),
	}
}
