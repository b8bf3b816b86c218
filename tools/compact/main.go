// Command compact merges many small journal shards into one, keeping each
// match once.
package main

import (
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/brensch/tactics/store"
)

func main() {
	inDir := flag.String("in-dir", "data/journal", "Directory containing journal parquet shards")
	outDir := flag.String("out-dir", "data/compacted", "Output directory for the compacted shard")
	removeInputs := flag.Bool("remove-inputs", false, "Delete input shards after a successful compaction")
	flag.Parse()

	absIn, err := filepath.Abs(*inDir)
	if err != nil {
		die("abs in-dir: %v", err)
	}
	absOut, err := filepath.Abs(*outDir)
	if err != nil {
		die("abs out-dir: %v", err)
	}
	if absIn == absOut {
		die("out-dir must be different from in-dir")
	}

	inputs := make([]string, 0, 1024)
	if err := filepath.WalkDir(absIn, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() {
			if d.Name() == "tmp" {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(strings.ToLower(d.Name()), ".parquet") {
			inputs = append(inputs, path)
		}
		return nil
	}); err != nil {
		die("walk in-dir: %v", err)
	}
	if len(inputs) == 0 {
		die("no parquet inputs found in %s", absIn)
	}
	// Oldest shard first, so the earliest copy of a match wins.
	sort.Strings(inputs)

	outPath := filepath.Join(absOut, fmt.Sprintf("journal_compact_%d.parquet", time.Now().UnixNano()))
	stats, err := store.CompactJournals(inputs, outPath)
	if err != nil {
		die("compact: %v", err)
	}
	fmt.Fprintf(os.Stderr, "done: inputs=%d matches=%d rows=%d duplicates=%d -> %s\n", stats.Inputs, stats.Matches, stats.Rows, stats.Duplicates, outPath)

	if !*removeInputs {
		return
	}
	failed := 0
	for _, in := range inputs {
		if err := os.Remove(in); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "remove %s: %v\n", in, err)
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(2)
}
