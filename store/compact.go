package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
)

var ErrSchemaMismatch = errors.New("store: not a match journal")

type CompactStats struct {
	Inputs  int
	Matches int
	Rows    int
	// Duplicates counts matches dropped because an earlier input held them.
	Duplicates int
}

// CheckJournalSchema reports ErrSchemaMismatch unless path carries the journal
// schema tag.
func CheckJournalSchema(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return err
	}
	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		return fmt.Errorf("open parquet %s: %w", path, err)
	}
	if v, ok := pf.Lookup("schema"); !ok || v != JournalSchema {
		return fmt.Errorf("%w: %s has schema %q", ErrSchemaMismatch, path, v)
	}
	return nil
}

// CompactJournals streams every input shard into one file at outPath. A match
// is kept from the first input that contains it. Inputs are left untouched.
func CompactJournals(inputs []string, outPath string) (CompactStats, error) {
	stats := CompactStats{Inputs: len(inputs)}
	for _, in := range inputs {
		if err := CheckJournalSchema(in); err != nil {
			return stats, err
		}
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return stats, fmt.Errorf("create output dir: %w", err)
	}
	tmpPath := outPath + ".tmp"
	outF, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return stats, err
	}
	writer := parquet.NewGenericWriter[JournalRow](outF, journalOptions()...)

	fail := func(err error) (CompactStats, error) {
		_ = writer.Close()
		_ = outF.Close()
		_ = os.Remove(tmpPath)
		return stats, err
	}

	seen := make(map[string]bool)
	for _, in := range inputs {
		fileMatches, dupes, err := copyJournal(in, writer, seen, &stats)
		if err != nil {
			return fail(fmt.Errorf("compact %s: %w", in, err))
		}
		for id := range fileMatches {
			seen[id] = true
		}
		stats.Matches += len(fileMatches)
		stats.Duplicates += len(dupes)
	}

	if err := writer.Close(); err != nil {
		return fail(err)
	}
	if err := outF.Sync(); err != nil {
		return fail(err)
	}
	if err := outF.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return stats, err
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		_ = os.Remove(tmpPath)
		return stats, err
	}
	return stats, nil
}

func copyJournal(path string, w *parquet.GenericWriter[JournalRow], seen map[string]bool, stats *CompactStats) (kept, dropped map[string]bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	reader := parquet.NewGenericReader[JournalRow](f)
	defer reader.Close()

	kept = make(map[string]bool)
	dropped = make(map[string]bool)
	buf := make([]JournalRow, 512)
	for {
		n, readErr := reader.Read(buf)
		if n > 0 {
			out := buf[:0]
			for _, row := range buf[:n] {
				if seen[row.MatchID] {
					dropped[row.MatchID] = true
					continue
				}
				kept[row.MatchID] = true
				out = append(out, row)
			}
			if len(out) > 0 {
				if _, err := w.Write(out); err != nil {
					return nil, nil, err
				}
				stats.Rows += len(out)
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return nil, nil, readErr
		}
	}
	return kept, dropped, nil
}
