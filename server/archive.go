package server

import (
	"fmt"
	"path/filepath"

	"github.com/brensch/tactics/store"
)

// Archive writes each finished match to <dir>/match_<id>.parquet and records
// it in <dir>/archived.log so a restart never rewrites it.
type Archive struct {
	dir string
	log *store.MatchLog
}

func OpenArchive(dir string) (*Archive, error) {
	l, err := store.OpenMatchLog(filepath.Join(dir, "archived.log"))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	return &Archive{dir: dir, log: l}, nil
}

func (a *Archive) Path(matchID string) string {
	return filepath.Join(a.dir, "match_"+matchID+".parquet")
}

// Save is a no-op for a match already archived.
func (a *Archive) Save(matchID string, rows []store.JournalRow) error {
	if a.log.Has(matchID) {
		return nil
	}
	if err := store.WriteJournalParquet(a.Path(matchID), rows); err != nil {
		return fmt.Errorf("archive %s: %w", matchID, err)
	}
	return a.log.Add(matchID)
}

func (a *Archive) Count() int { return a.log.Count() }

func (a *Archive) Close() error { return a.log.Close() }
