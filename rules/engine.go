// Package rules is the authoritative transition function of a tactics match.
//
// Validate is read-only. Apply assumes the action already passed Validate
// and returns a fresh state; the input is never modified. The only mutable
// collaborator is the injected RNG.
package rules

import (
	"github.com/brensch/tactics/game"
)

// ValidationResult reports whether an action is legal and why not.
type ValidationResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

func ok() ValidationResult { return ValidationResult{Valid: true} }

func invalid(msg string) ValidationResult { return ValidationResult{Error: msg} }

type Engine struct {
	rng      game.RNG
	settings Settings
}

type Option func(*Engine)

// WithSettings overrides the attrition knobs.
func WithSettings(s Settings) Option {
	return func(e *Engine) { e.settings = s }
}

// NewEngine binds the rules to a randomness source. The engine never reseeds
// rng, so a fixed-seed source makes every match reproducible.
func NewEngine(rng game.RNG, opts ...Option) *Engine {
	e := &Engine{rng: rng, settings: DefaultSettings}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Settings() Settings { return e.settings }

// Step validates then applies. A rejected action returns the input state.
func (e *Engine) Step(state *game.GameState, action game.Action) (*game.GameState, ValidationResult) {
	res := e.Validate(state, action)
	if !res.Valid {
		return state, res
	}
	return e.Apply(state, action), res
}
