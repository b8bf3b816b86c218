package main

import "encoding/json"

type MatchSummary struct {
	MatchID string `json:"match_id"`
	Source  string `json:"source"`
	Seed    int64  `json:"seed"`
	// Steps counts applied actions; the initial state is step 0.
	Steps      int32  `json:"steps"`
	Rounds     int32  `json:"rounds"`
	Finished   bool   `json:"finished"`
	Winner     string `json:"winner"`
	StartedNs  int64  `json:"started_ns"`
	SourceFile string `json:"file"`
}

type MatchesResponse struct {
	Total   int64          `json:"total"`
	Matches []MatchSummary `json:"matches"`
}

// Step is one journal row. State is the JSON snapshot after the action.
type Step struct {
	MatchID    string          `json:"match_id"`
	Step       int32           `json:"step"`
	Round      int32           `json:"round"`
	Player     string          `json:"player,omitempty"`
	ActionType string          `json:"action_type,omitempty"`
	UnitID     string          `json:"unit_id,omitempty"`
	Action     json.RawMessage `json:"action,omitempty"`
	State      json.RawMessage `json:"state"`
	GameOver   bool            `json:"game_over"`
	Winner     string          `json:"winner,omitempty"`
}

// StepView adds a text rendering of the board to a Step.
type StepView struct {
	Step
	Board string `json:"board"`
}

type SourceStats struct {
	Source    string  `json:"source"`
	Matches   int64   `json:"matches"`
	Finished  int64   `json:"finished"`
	P1Wins    int64   `json:"p1_wins"`
	P2Wins    int64   `json:"p2_wins"`
	AvgSteps  float64 `json:"avg_steps"`
	AvgRounds float64 `json:"avg_rounds"`
}

type StatsResponse struct {
	Total   SourceStats   `json:"total"`
	Sources []SourceStats `json:"sources"`
}
