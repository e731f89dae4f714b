package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"sentinel-echo/internal/model"
)

// Map-backed player store. Reads hand out copies so a mutation only lands
// after an explicit Update, same as the real collection.
type fakePlayers struct {
	byID    map[int64]*model.Player
	updates map[int64]int
	// failOn fails the nth Update call for a given player id.
	failOn map[int64]int
}

func newFakePlayers(players ...*model.Player) *fakePlayers {
	f := &fakePlayers{
		byID:    make(map[int64]*model.Player),
		updates: make(map[int64]int),
		failOn:  make(map[int64]int),
	}
	for _, p := range players {
		f.byID[p.TelegramID] = clonePlayer(p)
	}
	return f
}

func clonePlayer(p *model.Player) *model.Player {
	if p == nil {
		return nil
	}
	cp := *p
	if p.Soul != nil {
		soul := *p.Soul
		soul.History = append([]model.SoulEvent(nil), p.Soul.History...)
		cp.Soul = &soul
	}
	if p.Twin != nil {
		twin := *p.Twin
		if p.Twin.Original != nil {
			orig := *p.Twin.Original
			twin.Original = &orig
		}
		cp.Twin = &twin
	}
	cp.Twins = append([]model.TwinRecord(nil), p.Twins...)
	cp.RescueRequests = append([]model.RescueRequest(nil), p.RescueRequests...)
	cp.Inventory = append([]string(nil), p.Inventory...)
	return &cp
}

func (f *fakePlayers) Create(ctx context.Context, player *model.Player) error {
	if _, ok := f.byID[player.TelegramID]; ok {
		return errors.New("duplicate player")
	}
	f.byID[player.TelegramID] = clonePlayer(player)
	return nil
}

func (f *fakePlayers) GetByID(ctx context.Context, telegramID int64) (*model.Player, error) {
	return clonePlayer(f.byID[telegramID]), nil
}

func (f *fakePlayers) GetByUsername(ctx context.Context, username string) (*model.Player, error) {
	for _, p := range f.byID {
		if strings.EqualFold(p.Username, username) {
			return clonePlayer(p), nil
		}
	}
	return nil, nil
}

func (f *fakePlayers) Update(ctx context.Context, player *model.Player) error {
	f.updates[player.TelegramID]++
	if n := f.failOn[player.TelegramID]; n > 0 && f.updates[player.TelegramID] == n {
		return errors.New("write failed")
	}
	f.byID[player.TelegramID] = clonePlayer(player)
	return nil
}

func (f *fakePlayers) GetOriginalOf(ctx context.Context, twinID int64) (*model.Player, error) {
	for _, p := range f.byID {
		for _, rec := range p.Twins {
			if rec.ID == twinID {
				return clonePlayer(p), nil
			}
		}
	}
	return nil, nil
}

func (f *fakePlayers) FindTwinCandidates(ctx context.Context, exclude int64, maxTwins, limit int) ([]*model.Player, error) {
	var out []*model.Player
	for _, p := range f.byID {
		if p.TelegramID == exclude || p.Stats.TwinCount >= maxTwins {
			continue
		}
		out = append(out, clonePlayer(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Stats.TwinCount != out[j].Stats.TwinCount {
			return out[i].Stats.TwinCount < out[j].Stats.TwinCount
		}
		return out[i].TelegramID < out[j].TelegramID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakePlayers) FindByRatingRange(ctx context.Context, min, max int) ([]*model.Player, error) {
	var out []*model.Player
	for _, p := range f.byID {
		if p.PvP.Rating >= min && p.PvP.Rating <= max {
			out = append(out, clonePlayer(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PvP.Rating > out[j].PvP.Rating })
	return out, nil
}

func (f *fakePlayers) TopSouls(ctx context.Context, limit int) ([]*model.Player, error) {
	var out []*model.Player
	for _, p := range f.byID {
		if p.Soul != nil && p.Soul.Current > 0 {
			out = append(out, clonePlayer(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Soul.Current != out[j].Soul.Current {
			return out[i].Soul.Current > out[j].Soul.Current
		}
		return out[i].Level > out[j].Level
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakePlayers) FindDecayDue(ctx context.Context, before time.Time, limit int) ([]*model.Player, error) {
	var out []*model.Player
	for _, p := range f.byID {
		if p.Soul != nil && p.Soul.LastDecay.Before(before) {
			out = append(out, clonePlayer(p))
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakePlayers) PruneExpiredRescues(ctx context.Context, now time.Time) (int64, error) {
	var modified int64
	for id, p := range f.byID {
		kept := p.RescueRequests[:0]
		for _, r := range p.RescueRequests {
			if !r.ExpiresAt.Before(now) {
				kept = append(kept, r)
			}
		}
		if len(kept) != len(p.RescueRequests) {
			p.RescueRequests = kept
			f.byID[id] = p
			modified++
		}
	}
	return modified, nil
}

func (f *fakePlayers) BackfillSouls(ctx context.Context, soulMax int, now time.Time) (int64, error) {
	var migrated int64
	for _, p := range f.byID {
		if p.Soul == nil {
			p.Soul = &model.Soul{Current: soulMax, Max: soulMax, LastDecay: now}
			migrated++
		}
	}
	return migrated, nil
}

type fakeMatches struct {
	byID map[string]*model.Match
}

func newFakeMatches() *fakeMatches {
	return &fakeMatches{byID: make(map[string]*model.Match)}
}

func (f *fakeMatches) Create(ctx context.Context, match *model.Match) error {
	f.byID[match.ID] = match.Clone()
	return nil
}

func (f *fakeMatches) GetByID(ctx context.Context, id string) (*model.Match, error) {
	return f.byID[id].Clone(), nil
}

func (f *fakeMatches) Update(ctx context.Context, match *model.Match) error {
	f.byID[match.ID] = match.Clone()
	return nil
}

func (f *fakeMatches) FindActive(ctx context.Context) ([]*model.Match, error) {
	var out []*model.Match
	for _, m := range f.byID {
		if m.Status == model.MatchStatusActive {
			out = append(out, m.Clone())
		}
	}
	return out, nil
}

func (f *fakeMatches) FindFinishedByPlayer(ctx context.Context, telegramID int64) ([]*model.Match, error) {
	var out []*model.Match
	for _, m := range f.byID {
		if m.Status == model.MatchStatusFinished && (m.Player1 == telegramID || m.Player2 == telegramID) {
			out = append(out, m.Clone())
		}
	}
	return out, nil
}

type fakeFame struct {
	records []*model.FameRecord
	inserts int
	deletes int
}

func (f *fakeFame) Insert(ctx context.Context, record *model.FameRecord) error {
	f.inserts++
	if record.ID == "" {
		record.ID = fmt.Sprintf("fame-%d", f.inserts)
	}
	cp := *record
	f.records = append(f.records, &cp)
	return nil
}

func (f *fakeFame) Delete(ctx context.Context, id string) error {
	f.deletes++
	kept := f.records[:0]
	for _, r := range f.records {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	f.records = kept
	return nil
}

func (f *fakeFame) List(ctx context.Context, limit int) ([]*model.FameRecord, error) {
	out := append([]*model.FameRecord(nil), f.records...)
	sort.Slice(out, func(i, j int) bool { return out[i].DiedAt.After(out[j].DiedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeArtifacts struct {
	created []*model.Artifact
}

func (f *fakeArtifacts) Create(ctx context.Context, artifact *model.Artifact) error {
	if artifact.ID == "" {
		artifact.ID = fmt.Sprintf("artifact-%d", len(f.created)+1)
	}
	cp := *artifact
	f.created = append(f.created, &cp)
	return nil
}

func (f *fakeArtifacts) GetByID(ctx context.Context, id string) (*model.Artifact, error) {
	for _, a := range f.created {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeArtifacts) ListByOwner(ctx context.Context, telegramID int64, limit int) ([]*model.Artifact, error) {
	var out []*model.Artifact
	for _, a := range f.created {
		if a.TelegramID == telegramID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FoundAt.After(out[j].FoundAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
