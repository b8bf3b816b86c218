package server

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/brensch/tactics/rules"
)

// Config is read from TACTICS_* environment variables. cmd/server lets flags
// override it.
type Config struct {
	Addr       string `env:"TACTICS_ADDR" envDefault:":8080"`
	ArchiveDir string `env:"TACTICS_ARCHIVE_DIR" envDefault:"data/matches"`
	LogLevel   string `env:"TACTICS_LOG_LEVEL" envDefault:"info"`

	MinionDecayRound int `env:"TACTICS_MINION_DECAY_ROUND" envDefault:"3"`
	PressureRound    int `env:"TACTICS_PRESSURE_ROUND" envDefault:"8"`

	// TurnTimeout ends the current player's turn (or picks SPAWN_OBSTACLE for
	// a pending death choice) when nobody acts in time. Zero disables it.
	TurnTimeout time.Duration `env:"TACTICS_TURN_TIMEOUT" envDefault:"0s"`

	// Seed fixes every match's RNG, derived per match ID. Zero seeds from the
	// clock.
	Seed int64 `env:"TACTICS_SEED"`

	AllowedOrigins []string `env:"TACTICS_ALLOWED_ORIGINS" envSeparator:","`
}

// ParseEnv loads Config from the environment.
func ParseEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c Config) Settings() rules.Settings {
	return rules.Settings{
		MinionDecayFromRound: c.MinionDecayRound,
		PressureFromRound:    c.PressureRound,
	}
}
