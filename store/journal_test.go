package store

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"

	"github.com/brensch/tactics/game"
	"github.com/brensch/tactics/rules"
)

// shortMatch plays the opening move of each side and journals every step.
func shortMatch(t *testing.T, matchID string) []JournalRow {
	t.Helper()
	e := rules.NewEngine(rand.New(rand.NewSource(1)), rules.WithSettings(rules.NoAttrition))
	s := game.NewStandardMatch(game.DefaultMatchSetup())

	row, err := NewJournalRow(matchID, 0, nil, s, "test", 1)
	if err != nil {
		t.Fatalf("initial row: %v", err)
	}
	rows := []JournalRow{row}

	actions := []game.Action{
		game.Move(game.P1, "p1_hero", game.Pos(2, 1)),
		game.Move(game.P2, "p2_hero", game.Pos(2, 3)),
	}
	for i, a := range actions {
		next, res := e.Step(s, a)
		if !res.Valid {
			t.Fatalf("step %d rejected: %s", i+1, res.Error)
		}
		row, err := NewJournalRow(matchID, i+1, &a, next, "test", 1)
		if err != nil {
			t.Fatalf("row %d: %v", i+1, err)
		}
		rows = append(rows, row)
		s = next
	}
	return rows
}

func TestWriteJournalParquet_RoundTrip(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "journal.parquet")
	rows := shortMatch(t, "m1")

	if err := WriteJournalParquet(out, rows); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(out + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("tmp file left behind: %v", err)
	}

	got, err := ReadJournalParquet(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != len(rows) {
		t.Fatalf("rows=%d want=%d", len(got), len(rows))
	}
	if got[0].ActionType != "" || len(got[0].Action) != 0 {
		t.Fatalf("initial row carries an action: %+v", got[0])
	}
	if got[1].ActionType != string(game.ActionMove) || got[1].Player != "P1" || got[1].UnitID != "p1_hero" {
		t.Fatalf("row1 type=%s player=%s unit=%s", got[1].ActionType, got[1].Player, got[1].UnitID)
	}

	s, err := DecodeState(got[1].State)
	if err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if h := s.Unit("p1_hero"); h == nil || h.Position != game.Pos(2, 1) {
		t.Fatalf("p1_hero=%+v want at (2,1)", h)
	}
	if s.CurrentPlayer != game.P2 {
		t.Fatalf("current=%s want=P2", s.CurrentPlayer)
	}

	a, err := DecodeAction(got[2].Action)
	if err != nil {
		t.Fatalf("decode action: %v", err)
	}
	if a.Kind != game.ActionMove || a.Target == nil || *a.Target != game.Pos(2, 3) {
		t.Fatalf("action=%+v", a)
	}
}

func TestWriteJournalParquet_SchemaMetadata(t *testing.T) {
	out := filepath.Join(t.TempDir(), "journal.parquet")
	if err := WriteJournalParquet(out, shortMatch(t, "m1")); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		t.Fatalf("open parquet: %v", err)
	}
	if v, ok := pf.Lookup("schema"); !ok || v != JournalSchema {
		t.Fatalf("schema=%q ok=%v want=%q", v, ok, JournalSchema)
	}
	if pf.NumRows() != 3 {
		t.Fatalf("numRows=%d want=3", pf.NumRows())
	}
}

func TestEncodeState_RejectsBadBoard(t *testing.T) {
	if _, err := EncodeState(nil); err == nil {
		t.Fatalf("expected error for nil state")
	}
	s := game.NewCustomMatch(0, 5, nil, game.P1)
	if _, err := EncodeState(s); err == nil {
		t.Fatalf("expected error for zero width")
	}
}

func TestDecodeAction_Empty(t *testing.T) {
	a, err := DecodeAction(nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if a.Kind != "" {
		t.Fatalf("kind=%q want empty", a.Kind)
	}
}

func TestJournalWriter_FinalizePublishes(t *testing.T) {
	dir := t.TempDir()
	w, err := NewJournalWriter(dir)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if err := w.WriteMatch(shortMatch(t, "a")); err != nil {
		t.Fatalf("write a: %v", err)
	}
	if err := w.WriteMatch(shortMatch(t, "b")); err != nil {
		t.Fatalf("write b: %v", err)
	}
	if m, r := w.Buffered(); m != 2 || r != 6 {
		t.Fatalf("buffered matches=%d rows=%d want=2,6", m, r)
	}

	path, matches, rows, err := w.Finalize()
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if path != w.OutPath() || matches != 2 || rows != 6 {
		t.Fatalf("path=%s matches=%d rows=%d", path, matches, rows)
	}
	got, err := ReadJournalParquet(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 6 || got[0].MatchID != "a" || got[3].MatchID != "b" {
		t.Fatalf("unexpected rows: %d", len(got))
	}

	if err := w.WriteMatch(shortMatch(t, "c")); err != ErrClosed {
		t.Fatalf("write after finalize err=%v want=ErrClosed", err)
	}
}

func TestJournalWriter_EmptyIsDiscarded(t *testing.T) {
	dir := t.TempDir()
	w, err := NewJournalWriter(dir)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	path, _, _, err := w.Finalize()
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if path != "" {
		t.Fatalf("path=%q want empty", path)
	}
	entries, err := os.ReadDir(filepath.Join(dir, "tmp"))
	if err != nil {
		t.Fatalf("read tmp: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("tmp entries=%d want=0", len(entries))
	}
}

func TestMatchLog_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archived.log")

	l, err := OpenMatchLog(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := l.Add("m2", "m1", "", "m2"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if l.Count() != 2 || !l.Has("m1") || l.Has("m3") {
		t.Fatalf("count=%d", l.Count())
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := l.Add("m3"); err != ErrClosed {
		t.Fatalf("add after close err=%v want=ErrClosed", err)
	}

	// Blank lines are skipped on load.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("reopen raw: %v", err)
	}
	if _, err := f.WriteString("  \n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	f.Close()

	l, err = OpenMatchLog(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer l.Close()
	ids := l.IDs()
	if len(ids) != 2 || ids[0] != "m1" || ids[1] != "m2" {
		t.Fatalf("ids=%v want=[m1 m2]", ids)
	}
}
