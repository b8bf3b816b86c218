package store

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// MatchLog is the set of match IDs whose journal rows are safely on disk.
// It is backed by an append-only file, one ID per line, fsynced on every add.
// Blank lines are skipped on load.
type MatchLog struct {
	mu       sync.RWMutex
	file     *os.File
	archived map[string]struct{}
}

func OpenMatchLog(path string) (*MatchLog, error) {
	if path == "" {
		return nil, fmt.Errorf("log path is required")
	}

	archived := make(map[string]struct{})
	if f, err := os.Open(path); err == nil {
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			if id := strings.TrimSpace(sc.Text()); id != "" {
				archived[id] = struct{}{}
			}
		}
		_ = f.Close()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return &MatchLog{file: f, archived: archived}, nil
}

func (l *MatchLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *MatchLog) Has(matchID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.archived[matchID]
	return ok
}

func (l *MatchLog) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.archived)
}

// IDs returns the archived match IDs in ascending order.
func (l *MatchLog) IDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.archived))
	for id := range l.archived {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Add records match IDs and syncs once. Known and empty IDs are skipped.
func (l *MatchLog) Add(matchIDs ...string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return ErrClosed
	}

	added := 0
	for _, id := range matchIDs {
		if id == "" {
			continue
		}
		if _, ok := l.archived[id]; ok {
			continue
		}
		if _, err := l.file.WriteString(id + "\n"); err != nil {
			return fmt.Errorf("append log: %w", err)
		}
		l.archived[id] = struct{}{}
		added++
	}
	if added == 0 {
		return nil
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("sync log: %w", err)
	}
	return nil
}
