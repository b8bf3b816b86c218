package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var m map[string]any
		if err := dec.Decode(&m); err != nil {
			t.Fatalf("decode: %v\n%s", err, buf.String())
		}
		out = append(out, m)
	}
	return out
}

func TestPrettyJSONHandler_FieldsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyJSONHandler(&buf, nil))

	log.With("matchId", "m1").WithGroup("turn").Info("applied",
		"round", 3,
		slog.Group("unit", "id", "p1_hero", "hp", 4),
		"err", errors.New("boom"),
	)

	recs := decodeLines(t, &buf)
	if len(recs) != 1 {
		t.Fatalf("records=%d want=1", len(recs))
	}
	r := recs[0]
	if r["msg"] != "applied" || r["level"] != "INFO" {
		t.Fatalf("record=%v", r)
	}
	if r["matchId"] != "m1" {
		t.Fatalf("matchId=%v want=m1", r["matchId"])
	}
	turn, ok := r["turn"].(map[string]any)
	if !ok {
		t.Fatalf("turn group missing: %v", r)
	}
	if turn["round"] != float64(3) {
		t.Fatalf("round=%v want=3", turn["round"])
	}
	unit, ok := turn["unit"].(map[string]any)
	if !ok || unit["id"] != "p1_hero" {
		t.Fatalf("unit=%v", turn["unit"])
	}
	if turn["err"] != "boom" {
		t.Fatalf("err=%v want=boom", turn["err"])
	}
}

func TestPrettyJSONHandler_Level(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	log.Info("hidden")
	log.Warn("shown")

	recs := decodeLines(t, &buf)
	if len(recs) != 1 || recs[0]["msg"] != "shown" {
		t.Fatalf("records=%v", recs)
	}
}

func TestPrettyJSONHandler_Compact(t *testing.T) {
	var buf bytes.Buffer
	slog.New(NewPrettyJSONHandler(&buf, nil).Compact()).Info("one", "k", "v")
	slog.New(NewPrettyJSONHandler(&buf, nil).Compact()).Info("two")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines=%d want=2:\n%s", len(lines), buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"":      slog.LevelInfo,
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseLevel(%q)=%v want=%v", in, got, want)
		}
	}
	if _, err := ParseLevel("chatty"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
