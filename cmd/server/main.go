// Command server hosts tactics matches over WebSocket.
//
// Configuration comes from TACTICS_* environment variables; flags override
// them for local runs.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brensch/tactics/logging"
	"github.com/brensch/tactics/server"
)

func main() {
	cfg, err := server.ParseEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.StringVar(&cfg.Addr, "listen", cfg.Addr, "HTTP listen address")
	fs.StringVar(&cfg.ArchiveDir, "archive-dir", cfg.ArchiveDir, "Directory for finished match journals (empty disables archiving)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.DurationVar(&cfg.TurnTimeout, "turn-timeout", cfg.TurnTimeout, "End the current turn after this long without an action (0 disables)")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Base RNG seed (0 seeds from the clock)")
	fs.IntVar(&cfg.MinionDecayRound, "minion-decay-round", cfg.MinionDecayRound, "First round of minion decay (0 disables)")
	fs.IntVar(&cfg.PressureRound, "pressure-round", cfg.PressureRound, "First round of end-game pressure (0 disables)")
	if err := fs.Parse(os.Args[1:]); err != nil {
		log.Fatalf("flag parse: %v", err)
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	s, err := server.New(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}
	defer s.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("tactics server listening",
		"addr", cfg.Addr,
		"archiveDir", cfg.ArchiveDir,
		"turnTimeout", cfg.TurnTimeout.String(),
		"minionDecayRound", cfg.MinionDecayRound,
		"pressureRound", cfg.PressureRound,
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("listen", "err", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
