package server

import (
	"hash/fnv"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

func newSeededRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Registry holds every live match by ID. Matches never share state.
type Registry struct {
	mu      sync.Mutex
	matches map[string]*Match
	create  func(id string) *Match
}

func NewRegistry(create func(id string) *Match) *Registry {
	return &Registry{matches: make(map[string]*Match), create: create}
}

// GetOrCreate returns the match with id, creating it on first use. An empty
// id mints a fresh one.
func (r *Registry) GetOrCreate(id string) *Match {
	if id == "" {
		id = uuid.NewString()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.matches[id]; ok {
		return m
	}
	m := r.create(id)
	r.matches[id] = m
	return m
}

func (r *Registry) Find(id string) (*Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return m, nil
}

// Remove drops a match once it is over and nobody is seated.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return false
	}
	if m.Players() > 0 || !m.State().GameOver {
		return false
	}
	delete(r.matches, id)
	return true
}

func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.matches))
	for id := range r.matches {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// matchSeed derives a per-match seed. A zero base seeds from the clock.
func matchSeed(base int64, matchID string) int64 {
	if base == 0 {
		return time.Now().UnixNano()
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(matchID))
	return base ^ int64(h.Sum64())
}
