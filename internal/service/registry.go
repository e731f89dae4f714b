package service

import (
	"context"
	"sync"
	"time"

	"sentinel-echo/internal/model"
	"sentinel-echo/internal/repository"
)

// MatchRegistry holds the set of ACTIVE matches in process. The registry is
// a write-through view of the pvp_matches collection: every mutation is also
// persisted, and Load rebuilds the set after a restart so no match is lost
// with the process. Matches are copied on the way in and out, so callers
// never share a mutable match; a change only lands through Put.
type MatchRegistry struct {
	mu      sync.RWMutex
	matches map[string]*model.Match
}

func NewMatchRegistry() *MatchRegistry {
	return &MatchRegistry{matches: make(map[string]*model.Match)}
}

// Load restores every ACTIVE match from storage.
func (r *MatchRegistry) Load(ctx context.Context, repo repository.MatchRepo) (int, error) {
	active, err := repo.FindActive(ctx)
	if err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range active {
		r.matches[m.ID] = m
	}
	return len(active), nil
}

func (r *MatchRegistry) Put(m *model.Match) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matches[m.ID] = m.Clone()
}

func (r *MatchRegistry) Get(id string) *model.Match {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.matches[id].Clone()
}

func (r *MatchRegistry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.matches, id)
}

// ByPlayer returns the active match a player is fighting in, if any.
func (r *MatchRegistry) ByPlayer(id int64) *model.Match {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.matches {
		if m.Player1 == id || m.Player2 == id {
			return m.Clone()
		}
	}
	return nil
}

// Stale returns matches that started before the cutoff.
func (r *MatchRegistry) Stale(cutoff time.Time) []*model.Match {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.Match
	for _, m := range r.matches {
		if m.StartTime.Before(cutoff) {
			out = append(out, m.Clone())
		}
	}
	return out
}

func (r *MatchRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.matches)
}
