package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"sentinel-echo/internal/cache"
	"sentinel-echo/internal/config"
	"sentinel-echo/internal/model"
	"sentinel-echo/internal/repository"
)

// SoulService is the ledger for the soul resource: decay, loss, restoration,
// resurrection and the permanent-death path. Every mutation appends to the
// player's soul history.
type SoulService struct {
	players     repository.PlayerRepo
	fame        repository.FameRepo
	rules       *config.Rules
	leaderboard cache.LeaderboardCache
}

func NewSoulService(players repository.PlayerRepo, fame repository.FameRepo, rules *config.Rules) *SoulService {
	return &SoulService{
		players: players,
		fame:    fame,
		rules:   rules,
	}
}

// SetLeaderboard wires the optional Redis mirror for soul values.
func (s *SoulService) SetLeaderboard(lb cache.LeaderboardCache) {
	s.leaderboard = lb
}

// SoulStatus is the read view of a player's soul.
type SoulStatus struct {
	Current    int  `json:"current"`
	Max        int  `json:"max"`
	Percentage int  `json:"percentage"`
	IsCritical bool `json:"isCritical"`
	IsDead     bool `json:"isDead"`
}

// SoulDelta reports a single loss or restoration.
type SoulDelta struct {
	Change    int
	Remaining int
	IsDead    bool
}

// InitSoul gives the player a full soul and an empty history. Calling it
// again resets the record, so it is idempotent per player.
func (s *SoulService) InitSoul(ctx context.Context, telegramID int64) error {
	player, err := s.players.GetByID(ctx, telegramID)
	if err != nil {
		return fmt.Errorf("load player: %w", err)
	}
	if player == nil {
		return ErrPlayerNotFound
	}

	player.Soul = &model.Soul{
		Current:   s.rules.Soul.Max,
		Max:       s.rules.Soul.Max,
		LastDecay: time.Now(),
	}
	if err := s.players.Update(ctx, player); err != nil {
		return fmt.Errorf("save player: %w", err)
	}
	s.mirrorSoul(ctx, telegramID, player.Soul.Current)
	return nil
}

// Status settles idle decay and returns the current soul view.
func (s *SoulService) Status(ctx context.Context, telegramID int64) (*SoulStatus, error) {
	player, err := s.players.GetByID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("load player: %w", err)
	}
	if player == nil {
		return nil, ErrPlayerNotFound
	}
	if player.Soul == nil {
		return nil, ErrSoulNotInitialized
	}

	if err := s.Settle(ctx, player); err != nil {
		return nil, err
	}

	soul := player.Soul
	return &SoulStatus{
		Current:    soul.Current,
		Max:        soul.Max,
		Percentage: soul.Current * 100 / soul.Max,
		IsCritical: soul.Current < s.rules.Soul.CriticalBelow,
		IsDead:     soul.Current <= 0,
	}, nil
}

// Settle applies any idle decay owed since the last settlement. It must be
// called before reading a soul so the value is always current; calling it
// twice within the same day is a no-op.
func (s *SoulService) Settle(ctx context.Context, player *model.Player) error {
	if player.Soul == nil || player.Soul.LastDecay.IsZero() {
		return nil
	}

	days := int(time.Since(player.Soul.LastDecay).Hours() / 24)
	if days < 1 {
		return nil
	}
	return s.applyLoss(ctx, player, days*s.rules.Soul.IdleDailyLoss, "idle_decay")
}

// LoseSoul deducts amount, clamped at zero. Crossing from positive to zero
// fires the death transition exactly once.
func (s *SoulService) LoseSoul(ctx context.Context, telegramID int64, amount int, reason string) (*SoulDelta, error) {
	player, err := s.players.GetByID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("load player: %w", err)
	}
	if player == nil {
		return nil, ErrPlayerNotFound
	}
	if player.Soul == nil {
		return nil, ErrSoulNotInitialized
	}

	if err := s.applyLoss(ctx, player, amount, reason); err != nil {
		return nil, err
	}
	return &SoulDelta{
		Change:    -amount,
		Remaining: player.Soul.Current,
		IsDead:    player.Soul.Current <= 0,
	}, nil
}

func (s *SoulService) applyLoss(ctx context.Context, player *model.Player, amount int, reason string) error {
	soul := player.Soul
	wasAlive := soul.Current > 0

	newValue := soul.Current - amount
	if newValue < 0 {
		newValue = 0
	}
	soul.Current = newValue
	soul.LastDecay = time.Now()
	soul.History = append(soul.History, model.SoulEvent{
		Timestamp: time.Now(),
		Change:    -amount,
		Reason:    reason,
		NewValue:  newValue,
	})

	if err := s.players.Update(ctx, player); err != nil {
		return fmt.Errorf("save player: %w", err)
	}
	s.mirrorSoul(ctx, player.TelegramID, newValue)

	if wasAlive && newValue == 0 {
		return s.onDeath(ctx, player)
	}
	return nil
}

// RestoreSoul adds amount, clamped at the maximum.
func (s *SoulService) RestoreSoul(ctx context.Context, telegramID int64, amount int, reason string) (*SoulDelta, error) {
	player, err := s.players.GetByID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("load player: %w", err)
	}
	if player == nil {
		return nil, ErrPlayerNotFound
	}
	if player.Soul == nil {
		return nil, ErrSoulNotInitialized
	}

	soul := player.Soul
	newValue := soul.Current + amount
	if newValue > soul.Max {
		newValue = soul.Max
	}
	soul.Current = newValue
	soul.History = append(soul.History, model.SoulEvent{
		Timestamp: time.Now(),
		Change:    amount,
		Reason:    reason,
		NewValue:  newValue,
	})

	if err := s.players.Update(ctx, player); err != nil {
		return nil, fmt.Errorf("save player: %w", err)
	}
	s.mirrorSoul(ctx, telegramID, newValue)

	return &SoulDelta{Change: amount, Remaining: newValue}, nil
}

// ResurrectResult reports a successful resurrection.
type ResurrectResult struct {
	RescuerSoul int
	TargetSoul  int
}

// Resurrect lets a rescuer sacrifice part of their soul to bring a fallen
// player back to half strength. Gated by a 7-day cooldown per rescuer.
func (s *SoulService) Resurrect(ctx context.Context, rescuerID, targetID int64) (*ResurrectResult, error) {
	rescuer, err := s.players.GetByID(ctx, rescuerID)
	if err != nil {
		return nil, fmt.Errorf("load rescuer: %w", err)
	}
	target, err := s.players.GetByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("load target: %w", err)
	}
	if rescuer == nil || target == nil {
		return nil, ErrPlayerNotFound
	}
	if rescuer.Soul == nil || target.Soul == nil {
		return nil, ErrSoulNotInitialized
	}
	if target.Soul.Current > 0 {
		return nil, ErrTargetNotFallen
	}

	if !rescuer.Soul.LastResurrection.IsZero() {
		if time.Since(rescuer.Soul.LastResurrection) < s.rules.Soul.ResurrectionCooldown {
			return nil, ErrCooldownActive
		}
	}
	cost := s.rules.Soul.ResurrectionCost
	if rescuer.Soul.Current < cost {
		return nil, ErrInsufficientSoul
	}

	// The sacrifice can drop the rescuer to zero, which fires their own
	// death transition like any other loss.
	delta, err := s.LoseSoul(ctx, rescuerID, cost, "resurrection_sacrifice")
	if err != nil {
		return nil, err
	}

	now := time.Now()
	halved := target.Soul.Max / 2
	target.Soul.Current = halved
	target.Soul.ResurrectedBy = rescuerID
	target.Soul.LastResurrection = now
	target.Soul.History = append(target.Soul.History, model.SoulEvent{
		Timestamp: now,
		Change:    halved,
		Reason:    "resurrected",
		NewValue:  halved,
	})
	if err := s.players.Update(ctx, target); err != nil {
		return nil, fmt.Errorf("save target: %w", err)
	}
	s.mirrorSoul(ctx, targetID, halved)

	// Reload: the sacrifice above already rewrote the rescuer document.
	rescuer, err = s.players.GetByID(ctx, rescuerID)
	if err != nil || rescuer == nil || rescuer.Soul == nil {
		return nil, fmt.Errorf("reload rescuer: %w", err)
	}
	rescuer.Soul.LastResurrection = now
	rescuer.Stats.ResurrectionsGiven++
	rescuer.RescueRequests = dropRescueRequest(rescuer.RescueRequests, targetID)
	if err := s.players.Update(ctx, rescuer); err != nil {
		return nil, fmt.Errorf("save rescuer: %w", err)
	}

	log.Printf("resurrection: %d brought back %d", rescuerID, targetID)

	return &ResurrectResult{
		RescuerSoul: delta.Remaining,
		TargetSoul:  halved,
	}, nil
}

func dropRescueRequest(reqs []model.RescueRequest, from int64) []model.RescueRequest {
	out := reqs[:0]
	for _, r := range reqs {
		if r.From != from {
			out = append(out, r)
		}
	}
	return out
}

// onDeath routes a fallen player either to their twin (rescue request) or,
// with no twin, straight to the permanent reset.
func (s *SoulService) onDeath(ctx context.Context, player *model.Player) error {
	log.Printf("soul depleted: player %d has fallen", player.TelegramID)

	original, err := s.players.GetOriginalOf(ctx, player.TelegramID)
	if err != nil {
		return fmt.Errorf("find twin: %w", err)
	}
	if original == nil {
		return s.permanentDeath(ctx, player)
	}

	now := time.Now()
	username := player.Username
	if username == "" {
		username = "Unknown Sentinel"
	}
	original.RescueRequests = append(original.RescueRequests, model.RescueRequest{
		From:      player.TelegramID,
		Username:  username,
		SentAt:    now,
		ExpiresAt: now.Add(s.rules.Soul.RescueRequestTTL),
	})
	if err := s.players.Update(ctx, original); err != nil {
		return fmt.Errorf("queue rescue request: %w", err)
	}
	log.Printf("rescue request sent to twin %d for %d", original.TelegramID, player.TelegramID)
	return nil
}

// permanentDeath archives the player and resets them to starting values.
// The archive insert and the reset must land together: if the reset write
// fails the archive record is deleted again.
func (s *SoulService) permanentDeath(ctx context.Context, player *model.Player) error {
	record := &model.FameRecord{
		TelegramID:     player.TelegramID,
		Username:       player.Username,
		Level:          player.Level,
		ArtifactsFound: player.Stats.ArtifactsFound,
		DiedAt:         time.Now(),
		Resurrected:    false,
	}
	if err := s.fame.Insert(ctx, record); err != nil {
		return fmt.Errorf("archive fallen player: %w", err)
	}

	player.Level = 1
	player.Experience = 0
	player.Stars = s.rules.Game.StartStars
	player.Inventory = nil
	player.Soul = &model.Soul{
		Current:   s.rules.Soul.Max,
		Max:       s.rules.Soul.Max,
		LastDecay: time.Now(),
	}

	if err := s.players.Update(ctx, player); err != nil {
		if delErr := s.fame.Delete(ctx, record.ID); delErr != nil {
			log.Printf("compensation failed, fame record %s orphaned: %v", record.ID, delErr)
		}
		return fmt.Errorf("reset fallen player: %w", err)
	}
	s.mirrorSoul(ctx, player.TelegramID, player.Soul.Current)

	log.Printf("player %d was reborn", player.TelegramID)
	return nil
}

// SweepDecay settles idle decay for every player overdue by a day or more.
// The lazy settle on read keeps values correct regardless; the sweep just
// makes sure dormant players decay too.
func (s *SoulService) SweepDecay(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-24 * time.Hour)
	due, err := s.players.FindDecayDue(ctx, cutoff, 500)
	if err != nil {
		return 0, fmt.Errorf("find decay due: %w", err)
	}
	settled := 0
	for _, p := range due {
		if err := s.Settle(ctx, p); err != nil {
			log.Printf("decay settle for %d: %v", p.TelegramID, err)
			continue
		}
		settled++
	}
	return settled, nil
}

// PruneRescueRequests drops expired rescue requests across all players.
func (s *SoulService) PruneRescueRequests(ctx context.Context) (int64, error) {
	return s.players.PruneExpiredRescues(ctx, time.Now())
}

// TopSouls lists the strongest living souls.
func (s *SoulService) TopSouls(ctx context.Context, limit int) ([]*model.Player, error) {
	return s.players.TopSouls(ctx, limit)
}

// HallOfFame lists the permanently fallen, most recent first.
func (s *SoulService) HallOfFame(ctx context.Context, limit int) ([]*model.FameRecord, error) {
	return s.fame.List(ctx, limit)
}

func (s *SoulService) mirrorSoul(ctx context.Context, telegramID int64, value int) {
	if s.leaderboard == nil {
		return
	}
	if err := s.leaderboard.UpdateSoul(ctx, telegramID, value); err != nil {
		log.Printf("soul leaderboard update for %d: %v", telegramID, err)
	}
}
