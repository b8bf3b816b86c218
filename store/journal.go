// Package store persists matches: one Parquet row per accepted transition,
// plus an append-only log of match IDs that already reached disk.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/brensch/tactics/game"
)

const JournalSchema = "match_journal_v1"

var ErrClosed = errors.New("store: writer is closed")

// JournalRow is one accepted action of one match together with the state it
// produced. Step 0 is the initial state and carries no action.
//
// State and Action hold the canonical JSON of game.GameState and game.Action,
// so a match can be replayed or audited without the engine.
type JournalRow struct {
	MatchID    string `parquet:"match_id,dict"`
	Step       int32  `parquet:"step"`
	Round      int32  `parquet:"round"`
	Player     string `parquet:"player,dict"`
	ActionType string `parquet:"action_type,dict"`
	UnitID     string `parquet:"unit_id,dict"`
	Action     []byte `parquet:"action,zstd"`
	State      []byte `parquet:"state,zstd"`
	GameOver   bool   `parquet:"game_over"`
	Winner     string `parquet:"winner,dict"`
	Source     string `parquet:"source,dict"`
	Seed       int64  `parquet:"seed"`
	RecordedNs int64  `parquet:"recorded_ns"`
}

// EncodeState renders the canonical JSON snapshot of a state.
func EncodeState(s *game.GameState) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("encode state: nil state")
	}
	if s.Board.Width <= 0 || s.Board.Height <= 0 {
		return nil, fmt.Errorf("invalid board dimensions: %dx%d", s.Board.Width, s.Board.Height)
	}
	return json.Marshal(s)
}

func DecodeState(b []byte) (*game.GameState, error) {
	var s game.GameState
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	if s.Buffs == nil {
		s.Buffs = game.UnitBuffs{}
	}
	return &s, nil
}

func DecodeAction(b []byte) (game.Action, error) {
	var a game.Action
	if len(b) == 0 {
		return a, nil
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return a, fmt.Errorf("decode action: %w", err)
	}
	return a, nil
}

// NewJournalRow snapshots after, the state reached by action at the given
// step. Pass a nil action for the initial state.
func NewJournalRow(matchID string, step int, action *game.Action, after *game.GameState, source string, seed int64) (JournalRow, error) {
	state, err := EncodeState(after)
	if err != nil {
		return JournalRow{}, err
	}
	row := JournalRow{
		MatchID:    matchID,
		Step:       int32(step),
		Round:      int32(after.Round),
		State:      state,
		GameOver:   after.GameOver,
		Winner:     string(after.Winner),
		Source:     source,
		Seed:       seed,
		RecordedNs: time.Now().UnixNano(),
	}
	if action != nil {
		b, err := json.Marshal(action)
		if err != nil {
			return JournalRow{}, fmt.Errorf("encode action: %w", err)
		}
		row.Action = b
		row.Player = string(action.Player)
		row.ActionType = string(action.Kind)
		row.UnitID = action.UnitID
	}
	return row, nil
}

func journalOptions() []parquet.WriterOption {
	return []parquet.WriterOption{
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", JournalSchema),
	}
}

// WriteJournalParquet writes rows to outPath through a temp file so readers
// never see a partial file.
func WriteJournalParquet(outPath string, rows []JournalRow) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmpPath := outPath + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows, journalOptions()...); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write parquet: %w", err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename parquet: %w", err)
	}
	return nil
}

// WriteJournalBatch writes rows to a fresh journal_<nanos>.parquet in outDir
// and returns its path.
func WriteJournalBatch(outDir string, rows []JournalRow) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	outPath := filepath.Join(outDir, fmt.Sprintf("journal_%d.parquet", time.Now().UnixNano()))
	if err := WriteJournalParquet(outPath, rows); err != nil {
		return "", err
	}
	return outPath, nil
}

func ReadJournalParquet(path string) ([]JournalRow, error) {
	rows, err := parquet.ReadFile[JournalRow](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	return rows, nil
}
